package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Description    *string   `db:"description"`
	Location       *string   `db:"location"`
	Category       *string   `db:"category"`
	StartAt        time.Time `db:"start_at"`
	Capacity       int       `db:"capacity"`
	SeatsAvailable int       `db:"seats_available"`
	Price          float64   `db:"price"`
	CreatorID      *string   `db:"creator_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc, loc, cat string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Location != nil {
		loc = *r.Location
	}
	if r.Category != nil {
		cat = *r.Category
	}
	return &event.Event{
		ID:             r.ID,
		Title:          r.Title,
		Description:    desc,
		Location:       loc,
		Category:       cat,
		StartAt:        r.StartAt,
		Capacity:       r.Capacity,
		SeatsAvailable: r.SeatsAvailable,
		Price:          r.Price,
		CreatorID:      r.CreatorID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const eventColumns = `id, title, description, location, category, start_at, capacity, seats_available, price, creator_id, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, location, category, start_at, capacity, seats_available, price, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, nullIfEmpty(e.Description), nullIfEmpty(e.Location), nullIfEmpty(e.Category),
		e.StartAt, e.Capacity, e.SeatsAvailable, e.Price, e.CreatorID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はIDからイベントを行ロック付きで取得する
// 予約ワークフローの座席チェックと減算を同一イベントに対して直列化するために使用する
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errors.New("無効なトランザクションです")
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	var row eventRow
	err := sqlxTx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// Search は条件に一致するイベント一覧を取得する
// 指定されなかった条件は適用されない（適用される条件のAND）
func (r *EventRepository) Search(ctx context.Context, filter event.SearchFilter) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Location != "" {
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("start_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("start_at <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at"

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("イベント検索に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントをトランザクション内で更新する
func (r *EventRepository) Update(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクションです")
	}

	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, category = $4, start_at = $5,
		    capacity = $6, seats_available = $7, price = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := sqlxTx.ExecContext(ctx, query,
		e.Title, nullIfEmpty(e.Description), nullIfEmpty(e.Location), nullIfEmpty(e.Category),
		e.StartAt, e.Capacity, e.SeatsAvailable, e.Price, time.Now(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// UpdateSeats は空席数をトランザクション内で更新する
func (r *EventRepository) UpdateSeats(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクションです")
	}

	query := `UPDATE events SET seats_available = $1, updated_at = $2 WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, e.SeatsAvailable, time.Now(), e.ID)
	if err != nil {
		return fmt.Errorf("空席数の更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
