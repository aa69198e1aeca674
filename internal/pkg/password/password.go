package password

import "golang.org/x/crypto/bcrypt"

// Hash はbcryptでパスワードをハッシュ化する
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify はハッシュと平文パスワードを安全に比較する
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
