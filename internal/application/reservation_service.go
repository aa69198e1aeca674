package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
	"github.com/sanosuguru/go-event-backend/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-event-backend/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-backend/internal/pkg/logger"
	"github.com/sanosuguru/go-event-backend/internal/pkg/metrics"
)

const (
	reservationLockTTL    = 10 * time.Second
	reservationLockRetry  = 3
	reservationLockDelay  = 100 * time.Millisecond
	defaultReservationLim = 20
)

// Notifier は予約通知を送信するインターフェース
// 送信失敗は予約の成否に影響しない
type Notifier interface {
	SendReservationConfirmation(ctx context.Context, to string, ev *event.Event) error
	SendPaymentReminder(ctx context.Context, to string, ev *event.Event) error
}

// ReservationService は予約ワークフローを実行する
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	eventRepo       event.Repository
	userRepo        user.Repository
	lockManager     *redisinfra.LockManager
	cache           *redisinfra.AvailabilityCache
	notifier        Notifier
	metrics         *metrics.Metrics
}

func NewReservationService(
	txManager transaction.Manager,
	rr reservation.Repository,
	er event.Repository,
	ur user.Repository,
	lm *redisinfra.LockManager,
	cache *redisinfra.AvailabilityCache,
	notifier Notifier,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		txManager:       txManager,
		reservationRepo: rr,
		eventRepo:       er,
		userRepo:        ur,
		lockManager:     lm,
		cache:           cache,
		notifier:        notifier,
		metrics:         m,
	}
}

// Reserve はイベントの座席を1つ予約する
// イベント取得・重複チェック・座席減算・予約作成を単一トランザクションで実行し、
// いずれかが失敗した場合は全体をロールバックする
func (s *ReservationService) Reserve(ctx context.Context, eventID string, usr *user.User) (*reservation.Reservation, error) {
	// 同一イベントへの予約をDBトランザクションの手前で直列化する（任意、Redis未接続時はスキップ）
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireEventLockWithRetry(ctx, eventID, reservationLockTTL, reservationLockRetry, reservationLockDelay)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				s.countReservation("lock_failed")
				return nil, reservation.ErrReservationBusy
			}
			s.countReservation("error")
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	res, ev, err := s.reserveInTx(ctx, eventID, usr.ID)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrNoSeatsAvailable):
			s.countReservation("sold_out")
		case errors.Is(err, reservation.ErrAlreadyReserved):
			s.countReservation("duplicate")
		case errors.Is(err, event.ErrEventNotFound):
			s.countReservation("not_found")
		default:
			s.countReservation("error")
		}
		return nil, err
	}
	s.countReservation("success")
	if s.metrics != nil {
		s.metrics.ActiveReservations.Inc()
	}

	// 空席数キャッシュを無効化
	if s.cache != nil {
		if cacheErr := s.cache.Invalidate(ctx, eventID); cacheErr != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(cacheErr))
		}
	}

	// 確認通知はベストエフォート
	// 送信失敗はログに記録し、予約自体は成功のまま返す
	if s.notifier != nil {
		if notifyErr := s.notifier.SendReservationConfirmation(ctx, usr.Email, ev); notifyErr != nil {
			logger.Warn("予約確認通知の送信に失敗",
				zap.String("reservation_id", res.ID),
				zap.String("email", usr.Email),
				zap.Error(notifyErr),
			)
			s.countNotification("confirmation", "failed")
		} else {
			s.countNotification("confirmation", "sent")
		}
	}

	return res, nil
}

// reserveInTx は予約ワークフローのトランザクション部分を実行する
func (s *ReservationService) reserveInTx(ctx context.Context, eventID, userID string) (*reservation.Reservation, *event.Event, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// イベントを行ロック付きで取得し、座席チェックと減算を直列化する
	ev, err := s.eventRepo.GetByIDForUpdate(ctx, tx, eventID)
	if err != nil {
		return nil, nil, err
	}

	// 重複予約チェック
	exists, err := s.reservationRepo.ExistsByEventAndUser(ctx, tx, eventID, userID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, reservation.ErrAlreadyReserved
	}

	// 座席減算
	if err := ev.ReserveSeat(); err != nil {
		return nil, nil, err
	}
	if err := s.eventRepo.UpdateSeats(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	// 予約作成（一意制約違反は ErrAlreadyReserved として返る）
	res := reservation.NewReservation(eventID, userID)
	if err := res.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return res, ev, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = defaultReservationLim
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservationRepo.GetByUserID(ctx, userID, limit, offset)
}

// SendPaymentReminders は未払いの古い予約に支払いリマインダーを送信する
// 送信した件数を返す
func (s *ReservationService) SendPaymentReminders(ctx context.Context, olderThan time.Duration) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}

	reservations, err := s.reservationRepo.GetUnpaidForReminder(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, res := range reservations {
		usr, err := s.userRepo.GetByID(ctx, res.UserID)
		if err != nil {
			logger.Warn("リマインダー対象ユーザーの取得に失敗", zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		ev, err := s.eventRepo.GetByID(ctx, res.EventID)
		if err != nil {
			logger.Warn("リマインダー対象イベントの取得に失敗", zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if err := s.notifier.SendPaymentReminder(ctx, usr.Email, ev); err != nil {
			logger.Warn("支払いリマインダーの送信に失敗", zap.String("reservation_id", res.ID), zap.Error(err))
			s.countNotification("reminder", "failed")
			continue
		}
		s.countNotification("reminder", "sent")
		if err := s.reservationRepo.MarkReminderSent(ctx, res.ID); err != nil {
			logger.Warn("リマインダー送信済み記録に失敗", zap.String("reservation_id", res.ID), zap.Error(err))
		}
		sent++
	}
	return sent, nil
}

func (s *ReservationService) countReservation(status string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *ReservationService) countNotification(kind, status string) {
	if s.metrics != nil {
		s.metrics.NotificationsTotal.WithLabelValues(kind, status).Inc()
	}
}
