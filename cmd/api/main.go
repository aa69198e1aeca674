package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-backend/internal/api"
	"github.com/sanosuguru/go-event-backend/internal/api/handler"
	custommw "github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/api/router"
	"github.com/sanosuguru/go-event-backend/internal/application"
	"github.com/sanosuguru/go-event-backend/internal/config"
	"github.com/sanosuguru/go-event-backend/internal/infrastructure/email"
	"github.com/sanosuguru/go-event-backend/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-event-backend/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-backend/internal/pkg/logger"
	"github.com/sanosuguru/go-event-backend/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-backend/internal/pkg/token"
	"github.com/sanosuguru/go-event-backend/internal/worker"
)

const (
	reminderInterval  = 10 * time.Minute
	reminderOlderThan = 24 * time.Hour
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	log := logger.NewLogger(cfg.App.Env)
	logger.Set(log)
	defer logger.Sync()

	// データベース接続（必須）
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	if err := postgres.RunMigrations(db.DB, cfg.App.MigrationsPath); err != nil {
		logger.Fatal("マイグレーション失敗", zap.Error(err))
	}

	// Redis接続（任意依存、未接続時はロックとキャッシュなしで動作）
	var (
		redisClient *goredis.Client
		lockManager *redisinfra.LockManager
		cache       *redisinfra.AvailabilityCache
	)
	redisClient = redisinfra.NewClient(&cfg.Redis)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisinfra.Ping(ctx, redisClient); err != nil {
			logger.Warn("Redis接続失敗、ロックとキャッシュを無効化します", zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			lockManager = redisinfra.NewLockManager(redisClient)
			cache = redisinfra.NewAvailabilityCache(redisClient)
		}
		cancel()
	}

	// メトリクス
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// 通知（SMTP未設定時は無効）
	var notifier application.Notifier
	if cfg.SMTP.Enabled() {
		notifier = email.NewMailer(&cfg.SMTP)
	} else {
		logger.Warn("SMTP未設定のため通知を無効化します")
	}

	// サービス
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	userService := application.NewUserService(userRepo, tokens)
	eventService := application.NewEventService(txManager, eventRepo, cache)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, eventRepo, userRepo,
		lockManager, cache, notifier, m,
	)
	paymentService := application.NewPaymentService(
		txManager, reservationRepo, eventRepo,
		cfg.Payment.Secret, cfg.Payment.Currency, m,
	)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	dbPing := func(ctx context.Context) error { return postgres.Ping(ctx, db) }
	var redisPing handler.PingFunc
	if redisClient != nil {
		redisPing = func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) }
	}

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(userService),
		Event:       handler.NewEventHandler(eventService),
		Reservation: handler.NewReservationHandler(reservationService, paymentService),
		User:        handler.NewUserHandler(userRepo),
		Health:      handler.NewHealthHandler(dbPing, redisPing),
	}, tokens, userRepo, registry)

	// 支払いリマインダーワーカー（通知が有効な場合のみ）
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var reminder *worker.PaymentReminder
	if notifier != nil {
		reminder = worker.NewPaymentReminder(reservationService, reminderInterval, reminderOlderThan)
		go reminder.Start(workerCtx)
	}

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()
	if reminder != nil {
		reminder.Stop()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
