package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingFunc は依存先の疎通確認を行う
type PingFunc func(ctx context.Context) error

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	db    PingFunc
	redis PingFunc
}

// NewHealthHandler はHealthHandlerを作成する
// redis は未接続構成では nil を渡してよい
func NewHealthHandler(db, redis PingFunc) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check はアプリケーションと依存先の健全性を確認する
// DBが疎通不能の場合は503を返す。Redisは任意依存のため状態のみ報告する
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}

	if h.db != nil {
		if err := h.db(ctx); err != nil {
			checks["database"] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis(ctx); err != nil {
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}
	}

	return c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	})
}
