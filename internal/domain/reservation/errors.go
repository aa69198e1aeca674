package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrAlreadyReserved     = errors.New("このイベントは既に予約済みです")
	ErrReservationBusy     = errors.New("予約処理が混み合っています。しばらくしてから再試行してください")
	ErrEventIDRequired     = errors.New("イベントIDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
)
