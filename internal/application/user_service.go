package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-event-backend/internal/domain/user"
	"github.com/sanosuguru/go-event-backend/internal/pkg/password"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
)

// UserService はユーザー登録と認証を提供する
type UserService struct {
	userRepo user.Repository
	tokens   *token.Manager
}

func NewUserService(ur user.Repository, tokens *token.Manager) *UserService {
	return &UserService{userRepo: ur, tokens: tokens}
}

// Register は新しいユーザーを登録する
// メールアドレスが既に使用されている場合は ErrEmailAlreadyUsed を返す
func (s *UserService) Register(ctx context.Context, email, rawPassword, fullName string) (*user.User, error) {
	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	usr := user.NewUser(email, hash, fullName)
	if err := usr.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

// Authenticate はメールアドレスとパスワードを検証し、JWTアクセストークンを発行する
// ユーザー不在とパスワード不一致はどちらも ErrInvalidCredentials として返す
func (s *UserService) Authenticate(ctx context.Context, email, rawPassword string) (string, *user.User, error) {
	usr, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, user.ErrInvalidCredentials
	}
	if !password.Verify(usr.PasswordHash, rawPassword) {
		return "", nil, user.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Generate(usr.Email)
	if err != nil {
		return "", nil, fmt.Errorf("トークン発行に失敗: %w", err)
	}
	return accessToken, usr, nil
}

// GetByEmail はメールアドレスからユーザーを取得する
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}
