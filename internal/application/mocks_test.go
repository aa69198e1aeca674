package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
	"github.com/sanosuguru/go-event-backend/internal/domain/user"
)

type mockTx struct {
	mock.Mock
}

func (m *mockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *mockTx) Rollback() error {
	return m.Called().Error(0)
}

type mockTxManager struct {
	mock.Mock
}

func (m *mockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// newCommittedTx はCommit/Rollbackを許可するトランザクションとマネージャーを作成する
func newCommittedTx() (*mockTxManager, *mockTx) {
	tx := new(mockTx)
	tx.On("Commit").Return(nil).Maybe()
	tx.On("Rollback").Return(nil).Maybe()

	tm := new(mockTxManager)
	tm.On("Begin", mock.Anything).Return(tx, nil)
	return tm, tx
}

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Create(ctx context.Context, e *event.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *mockEventRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *mockEventRepository) Search(ctx context.Context, filter event.SearchFilter) ([]*event.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *mockEventRepository) Update(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	return m.Called(ctx, tx, e).Error(0)
}

func (m *mockEventRepository) UpdateSeats(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	return m.Called(ctx, tx, e).Error(0)
}

func (m *mockEventRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockReservationRepository struct {
	mock.Mock
}

func (m *mockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	return m.Called(ctx, tx, r).Error(0)
}

func (m *mockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *mockReservationRepository) ExistsByEventAndUser(ctx context.Context, tx transaction.Tx, eventID, userID string) (bool, error) {
	args := m.Called(ctx, tx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *mockReservationRepository) Update(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	return m.Called(ctx, tx, r).Error(0)
}

func (m *mockReservationRepository) GetUnpaidForReminder(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *mockReservationRepository) MarkReminderSent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendReservationConfirmation(ctx context.Context, to string, ev *event.Event) error {
	return m.Called(ctx, to, ev).Error(0)
}

func (m *mockNotifier) SendPaymentReminder(ctx context.Context, to string, ev *event.Event) error {
	return m.Called(ctx, to, ev).Error(0)
}
