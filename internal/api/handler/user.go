package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/domain/user"
)

type UserHandler struct {
	userRepo user.Repository
}

func NewUserHandler(ur user.Repository) *UserHandler {
	return &UserHandler{userRepo: ur}
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.PrimaryRole()),
		CreatedAt: u.CreatedAt,
	}
}

// Profile はログインユーザー自身のプロフィールを取得する
func (h *UserHandler) Profile(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	return c.JSON(http.StatusOK, toUserResponse(usr))
}

// ProfileByID は指定IDのユーザープロフィールを取得する
func (h *UserHandler) ProfileByID(c echo.Context) error {
	usr, err := h.userRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toUserResponse(usr))
}
