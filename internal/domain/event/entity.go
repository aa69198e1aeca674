package event

import "time"

// Event はイベントエンティティを表す
type Event struct {
	ID             string
	Title          string
	Description    string
	Location       string
	Category       string
	StartAt        time.Time
	Capacity       int
	SeatsAvailable int
	Price          float64
	CreatorID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEvent は新しいイベントを作成する
// capacity が正の場合、空席数は capacity で初期化される
func NewEvent(title, description, location, category string, startAt time.Time, capacity int, price float64) *Event {
	now := time.Now()
	e := &Event{
		Title:       title,
		Description: description,
		Location:    location,
		Category:    category,
		StartAt:     startAt,
		Capacity:    capacity,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if capacity > 0 {
		e.SeatsAvailable = capacity
	}
	return e
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Capacity < 0 {
		return ErrInvalidCapacity
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.SeatsAvailable < 0 || e.SeatsAvailable > e.Capacity {
		return ErrInvalidSeatsAvailable
	}
	return nil
}

// ReserveSeat は空席を1つ減らす
// 空席が無い場合は ErrNoSeatsAvailable を返し、状態を変更しない
func (e *Event) ReserveSeat() error {
	if e.SeatsAvailable <= 0 {
		return ErrNoSeatsAvailable
	}
	e.SeatsAvailable--
	e.UpdatedAt = time.Now()
	return nil
}

// ChangeCapacity は定員を変更し、空席数を差分で調整する
// 調整後の空席数は0未満にならない（0で切り捨て）
func (e *Event) ChangeCapacity(newCapacity int) {
	diff := newCapacity - e.Capacity
	e.Capacity = newCapacity
	e.SeatsAvailable += diff
	if e.SeatsAvailable < 0 {
		e.SeatsAvailable = 0
	}
	e.UpdatedAt = time.Now()
}

// ReservedCount は予約済み座席数を返す
func (e *Event) ReservedCount() int {
	return e.Capacity - e.SeatsAvailable
}
