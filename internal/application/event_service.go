package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-event-backend/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-backend/internal/pkg/logger"
)

const availabilityCacheTTL = 30 * time.Second

// EventService はイベントのCRUDと検索を提供する
type EventService struct {
	txManager transaction.Manager
	eventRepo event.Repository
	cache     *redisinfra.AvailabilityCache
}

func NewEventService(txManager transaction.Manager, er event.Repository, cache *redisinfra.AvailabilityCache) *EventService {
	return &EventService{
		txManager: txManager,
		eventRepo: er,
		cache:     cache,
	}
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	StartAt     time.Time
	Capacity    int
	Price       float64
	CreatorID   *string
}

func (s *EventService) Create(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	ev := event.NewEvent(input.Title, input.Description, input.Location, input.Category, input.StartAt, input.Capacity, input.Price)
	ev.CreatorID = input.CreatorID
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗: %w", err)
	}
	return ev, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) Search(ctx context.Context, filter event.SearchFilter) ([]*event.Event, error) {
	return s.eventRepo.Search(ctx, filter)
}

type UpdateEventInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	StartAt     time.Time
	Capacity    int
	Price       float64
}

// Update はイベントを更新する
// 容量変更時は予約済み座席数を保ったまま空席数を差分調整する
// 行ロック付きで取得し、並行する予約との競合を防ぐ
func (s *EventService) Update(ctx context.Context, id string, input UpdateEventInput) (*event.Event, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	ev, err := s.eventRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	ev.Title = input.Title
	ev.Description = input.Description
	ev.Location = input.Location
	ev.Category = input.Category
	ev.StartAt = input.StartAt
	ev.Price = input.Price
	ev.ChangeCapacity(input.Capacity)

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("イベント更新に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, id)
	return ev, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

// GetAvailableSeats はイベントの空席数を返す
// キャッシュヒット時はDBを参照しない
func (s *EventService) GetAvailableSeats(ctx context.Context, id string) (int, error) {
	if s.cache != nil {
		if seats, err := s.cache.GetAvailableSeats(ctx, id); err == nil {
			return seats, nil
		} else if err != redisinfra.ErrCacheMiss {
			logger.Warn("空席数キャッシュの取得に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}

	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, id, ev.SeatsAvailable, availabilityCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの更新に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}
	return ev.SeatsAvailable, nil
}

func (s *EventService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("event_id", id), zap.Error(err))
	}
}
