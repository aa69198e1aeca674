package event

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
)

// SearchFilter はイベント検索の絞り込み条件を表す
// ゼロ値のフィールドは条件として適用されない
type SearchFilter struct {
	Category string
	Location string
	From     *time.Time
	To       *time.Time
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// GetByIDForUpdate はIDからイベントを行ロック付きで取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Event, error)

	// Search は条件に一致するイベント一覧を取得する
	Search(ctx context.Context, filter SearchFilter) ([]*Event, error)

	// Update はイベントを更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, event *Event) error

	// UpdateSeats は空席数を更新する（トランザクション必須）
	UpdateSeats(ctx context.Context, tx transaction.Tx, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error
}
