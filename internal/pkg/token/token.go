package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("トークンが無効です")
	ErrTokenExpired = errors.New("トークンの有効期限が切れています")
)

// Manager はHS256署名のベアラートークンを発行・検証する
// subject にはユーザーのメールアドレスを格納する
type Manager struct {
	secret []byte
	expiry time.Duration
}

// NewManager は新しいManagerを作成する
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// Generate は署名済みトークンを発行する
func (m *Manager) Generate(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("トークン署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、subject（メールアドレス）を返す
func (m *Manager) Verify(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		// HS256以外の署名方式は拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !t.Valid {
		return "", ErrInvalidToken
	}

	subject, err := t.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
