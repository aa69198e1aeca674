package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-event-backend/internal/api/handler"
	"github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
)

// Handlers はルーティングに必要なハンドラー一式
type Handlers struct {
	Auth        *handler.AuthHandler
	Event       *handler.EventHandler
	Reservation *handler.ReservationHandler
	User        *handler.UserHandler
	Health      *handler.HealthHandler
}

// Register は /api/v1 配下のルーティングを設定する
func Register(e *echo.Echo, h Handlers, tokens *token.Manager, users middleware.UserLoader, registry *prometheus.Registry) {
	auth := middleware.JWTAuth(tokens, users)

	v1 := e.Group("/api/v1")

	// 認証
	v1.POST("/auth/register", h.Auth.Register)
	v1.POST("/auth/login", h.Auth.Login)

	// イベント（参照は公開、変更は認証必須）
	v1.GET("/events", h.Event.Search)
	v1.GET("/events/:id", h.Event.GetByID)
	v1.GET("/events/:id/availability", h.Event.GetAvailability)
	v1.POST("/events", h.Event.Create, auth)
	v1.PUT("/events/:id", h.Event.Update, auth)
	v1.DELETE("/events/:id", h.Event.Delete, auth)

	// 予約・決済
	v1.POST("/reservations/event/:eventId", h.Reservation.Reserve, auth)
	v1.GET("/reservations", h.Reservation.List, auth)
	v1.GET("/reservations/:id", h.Reservation.GetByID, auth)
	v1.POST("/reservations/:id/pay", h.Reservation.CreatePaymentIntent, auth)
	v1.GET("/reservations/:id/confirm", h.Reservation.ConfirmPayment, auth)

	// ユーザー
	v1.GET("/users/profile", h.User.Profile, auth)
	v1.GET("/users/profile/:id", h.User.ProfileByID)

	// 運用系
	v1.GET("/health", h.Health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})), middleware.MetricsBasicAuth())
}
