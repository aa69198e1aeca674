package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-backend/internal/domain/user"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
)

// CurrentUserKey は認証済みユーザーを格納するコンテキストキー
const CurrentUserKey = "currentUser"

// UserLoader はトークンのsubject（メールアドレス）からユーザーを解決する
type UserLoader interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// JWTAuth はBearerトークンを検証し、認証済みユーザーをコンテキストに格納するミドルウェア
func JWTAuth(tokens *token.Manager, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorizationヘッダーの形式が無効です")
			}

			email, err := tokens.Verify(parts[1])
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "トークンの有効期限が切れています")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "トークンが無効です")
			}

			usr, err := users.GetByEmail(c.Request().Context(), email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーが見つかりません")
			}

			c.Set(CurrentUserKey, usr)
			return next(c)
		}
	}
}

// CurrentUser はコンテキストから認証済みユーザーを取得する
func CurrentUser(c echo.Context) (*user.User, bool) {
	usr, ok := c.Get(CurrentUserKey).(*user.User)
	return usr, ok
}
