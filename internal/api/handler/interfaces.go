package handler

import (
	"context"

	"github.com/sanosuguru/go-event-backend/internal/application"
	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
	"github.com/sanosuguru/go-event-backend/internal/domain/user"
)

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	Register(ctx context.Context, email, password, fullName string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (string, *user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	Create(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetByID(ctx context.Context, id string) (*event.Event, error)
	Search(ctx context.Context, filter event.SearchFilter) ([]*event.Event, error)
	Update(ctx context.Context, id string, input application.UpdateEventInput) (*event.Event, error)
	Delete(ctx context.Context, id string) error
	GetAvailableSeats(ctx context.Context, id string) (int, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Reserve(ctx context.Context, eventID string, usr *user.User) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
}

// PaymentServiceInterface は決済サービスのインターフェース
type PaymentServiceInterface interface {
	CreateIntent(ctx context.Context, reservationID string, usr *user.User, amount int64) (*application.PaymentIntent, error)
	Confirm(ctx context.Context, reservationID string, usr *user.User, clientSecret string) (string, error)
}
