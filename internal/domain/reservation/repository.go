package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// (event_id, user_id) の一意制約違反は ErrAlreadyReserved として返す
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// ExistsByEventAndUser は (イベント, ユーザー) の予約が存在するかを返す（トランザクション必須）
	ExistsByEventAndUser(ctx context.Context, tx transaction.Tx, eventID, userID string) (bool, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetUnpaidForReminder はリマインダー未送信かつ未払いの古い予約を取得する
	GetUnpaidForReminder(ctx context.Context, olderThan time.Duration) ([]*Reservation, error)

	// MarkReminderSent はリマインダー送信済みを記録する
	MarkReminderSent(ctx context.Context, id string) error
}
