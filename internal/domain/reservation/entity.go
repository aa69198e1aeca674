package reservation

import "time"

// Reservation は予約エンティティを表す
// あるユーザーはあるイベントに対して最大1件の予約のみ保持できる
type Reservation struct {
	ID              string
	EventID         string
	UserID          string
	ReservedAt      time.Time
	Paid            bool
	PaymentIntentID *string
	ReminderSentAt  *time.Time
}

// NewReservation は新しい予約を作成する
func NewReservation(eventID, userID string) *Reservation {
	return &Reservation{
		EventID:    eventID,
		UserID:     userID,
		ReservedAt: time.Now(),
		Paid:       false,
	}
}

// MarkPaid は支払い済みフラグを立てる
// 既に支払い済みの場合も同じ結果になる（再適用は無害）
func (r *Reservation) MarkPaid(paymentIntentID string) {
	r.Paid = true
	r.PaymentIntentID = &paymentIntentID
}

// MarkReminderSent はリマインダー送信済みを記録する
func (r *Reservation) MarkReminderSent() {
	now := time.Now()
	r.ReminderSentAt = &now
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.EventID == "" {
		return ErrEventIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}
