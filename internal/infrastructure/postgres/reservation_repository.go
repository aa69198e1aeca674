package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード
const uniqueViolation = "23505"

type reservationRow struct {
	ID              string     `db:"id"`
	EventID         string     `db:"event_id"`
	UserID          string     `db:"user_id"`
	ReservedAt      time.Time  `db:"reserved_at"`
	Paid            bool       `db:"paid"`
	PaymentIntentID *string    `db:"payment_intent_id"`
	ReminderSentAt  *time.Time `db:"reminder_sent_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID:              r.ID,
		EventID:         r.EventID,
		UserID:          r.UserID,
		ReservedAt:      r.ReservedAt,
		Paid:            r.Paid,
		PaymentIntentID: r.PaymentIntentID,
		ReminderSentAt:  r.ReminderSentAt,
	}
}

const reservationColumns = `id, event_id, user_id, reserved_at, paid, payment_intent_id, reminder_sent_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create は新しい予約を作成する
// (event_id, user_id) の一意制約違反は ErrAlreadyReserved に変換する
// 事前チェックをすり抜けた同時予約に対する最終的な防衛線
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクションです")
	}

	query := `INSERT INTO reservations (event_id, user_id, reserved_at, paid) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, res.EventID, res.UserID, res.ReservedAt, res.Paid).Scan(&res.ID); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return reservation.ErrAlreadyReserved
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ExistsByEventAndUser は (イベント, ユーザー) の予約が存在するかを返す
// 座席減算と同じトランザクション内で実行することで重複予約チェックを直列化する
func (r *ReservationRepository) ExistsByEventAndUser(ctx context.Context, tx transaction.Tx, eventID, userID string) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return false, errors.New("無効なトランザクションです")
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE event_id = $1 AND user_id = $2)`
	if err := sqlxTx.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("予約存在チェックに失敗: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY reserved_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクションです")
	}

	query := `UPDATE reservations SET paid = $1, payment_intent_id = $2 WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, res.Paid, res.PaymentIntentID, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// GetUnpaidForReminder はリマインダー未送信かつ未払いの古い予約を取得する
func (r *ReservationRepository) GetUnpaidForReminder(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE paid = FALSE AND reminder_sent_at IS NULL AND reserved_at < $1`
	if err := r.db.SelectContext(ctx, &rows, query, time.Now().Add(-olderThan)); err != nil {
		return nil, fmt.Errorf("未払い予約取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// MarkReminderSent はリマインダー送信済みを記録する
func (r *ReservationRepository) MarkReminderSent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reservations SET reminder_sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("リマインダー記録に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
