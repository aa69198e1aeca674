package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound         = errors.New("イベントが見つかりません")
	ErrTitleRequired         = errors.New("タイトルは必須です")
	ErrInvalidCapacity       = errors.New("定員は0以上である必要があります")
	ErrInvalidPrice          = errors.New("価格は0以上である必要があります")
	ErrInvalidSeatsAvailable = errors.New("空席数は0以上かつ定員以下である必要があります")
	ErrNoSeatsAvailable      = errors.New("空席がありません")
)
