package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-backend/internal/domain/user"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
)

type mockUserLoader struct {
	mock.Mock
}

func (m *mockUserLoader) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	tokens := token.NewManager("test-secret", time.Hour)

	okHandler := func(c echo.Context) error {
		usr, ok := CurrentUser(c)
		require.True(t, ok)
		return c.String(http.StatusOK, usr.Email)
	}

	t.Run("有効なトークンでユーザーがコンテキストに格納される", func(t *testing.T) {
		loader := new(mockUserLoader)
		loader.On("GetByEmail", mock.Anything, "user@example.com").
			Return(&user.User{ID: "user-1", Email: "user@example.com"}, nil)

		accessToken, err := tokens.Generate("user@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = JWTAuth(tokens, loader)(okHandler)(c)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", rec.Body.String())
	})

	t.Run("Authorizationヘッダーなしは401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := JWTAuth(tokens, new(mockUserLoader))(okHandler)(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("Bearer以外のスキームは401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := JWTAuth(tokens, new(mockUserLoader))(okHandler)(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("改ざんされたトークンは401", func(t *testing.T) {
		otherTokens := token.NewManager("other-secret", time.Hour)
		forged, err := otherTokens.Generate("user@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = JWTAuth(tokens, new(mockUserLoader))(okHandler)(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("期限切れトークンは401", func(t *testing.T) {
		expiredTokens := token.NewManager("test-secret", -time.Hour)
		expired, err := expiredTokens.Generate("user@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = JWTAuth(tokens, new(mockUserLoader))(okHandler)(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("トークンは有効だがユーザーが存在しない場合は401", func(t *testing.T) {
		loader := new(mockUserLoader)
		loader.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, user.ErrUserNotFound)

		accessToken, err := tokens.Generate("ghost@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = JWTAuth(tokens, loader)(okHandler)(c)
		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}
