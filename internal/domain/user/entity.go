package user

import "time"

// Role はユーザーのロールを表す
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User はユーザーエンティティを表す
// PasswordHash にはKDFでハッシュ化された値のみ保持し、平文は保存しない
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser は新しいユーザーを作成する
// ロールは {USER} で初期化される
func NewUser(email, passwordHash, fullName string) *User {
	now := time.Now()
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Roles:        []Role{RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PrimaryRole は先頭のロールを返す
// ロールが空の場合は USER を返す
func (u *User) PrimaryRole() Role {
	if len(u.Roles) == 0 {
		return RoleUser
	}
	return u.Roles[0]
}

// HasRole は指定ロールを保持しているかを返す
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if len(u.Roles) == 0 {
		return ErrRolesRequired
	}
	return nil
}
