package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-event-backend/internal/api"
	"github.com/sanosuguru/go-event-backend/internal/api/handler"
	"github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/api/router"
	"github.com/sanosuguru/go-event-backend/internal/application"
	"github.com/sanosuguru/go-event-backend/internal/config"
	"github.com/sanosuguru/go-event-backend/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-event-backend/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-backend/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
)

var (
	testEcho *echo.Echo
	testDB   *sqlx.DB
)

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを組み立てることで高速化
// DB未起動時はパッケージ全体をスキップする
func TestMain(m *testing.M) {
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db

	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		os.Exit(0)
	}

	// Redis は任意依存。未起動ならロック・キャッシュなしで組み立てる
	var (
		redisClient *goredis.Client
		lockManager *redisinfra.LockManager
		cache       *redisinfra.AvailabilityCache
	)
	rc := redisinfra.NewClient(&cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisinfra.Ping(ctx, rc); err == nil {
			redisClient = rc
			lockManager = redisinfra.NewLockManager(rc)
			cache = redisinfra.NewAvailabilityCache(rc)
		} else {
			rc.Close()
		}
		cancel()
	}

	registry := prometheus.NewRegistry()
	mtr := metrics.NewWithRegistry(registry)

	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	userService := application.NewUserService(userRepo, tokens)
	eventService := application.NewEventService(txManager, eventRepo, cache)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, eventRepo, userRepo,
		lockManager, cache, nil, mtr,
	)
	paymentService := application.NewPaymentService(
		txManager, reservationRepo, eventRepo,
		cfg.Payment.Secret, cfg.Payment.Currency, mtr,
	)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	middleware.SetupMiddleware(e)

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(userService),
		Event:       handler.NewEventHandler(eventService),
		Reservation: handler.NewReservationHandler(reservationService, paymentService),
		User:        handler.NewUserHandler(userRepo),
		Health: handler.NewHealthHandler(
			func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			nil,
		),
	}, tokens, userRepo, registry)

	testEcho = e

	code := m.Run()

	cleanupTables()
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE reservations, events, users RESTART IDENTITY CASCADE")
}

// getTestServer は共有サーバーを取得（テスト前にテーブルをクリーンアップ）
func getTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	if testEcho == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()
	return testEcho
}

// request はJSONリクエストを実行する
func request(e *echo.Echo, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
