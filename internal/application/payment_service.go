package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
	"github.com/sanosuguru/go-event-backend/internal/domain/transaction"
	"github.com/sanosuguru/go-event-backend/internal/domain/user"
	"github.com/sanosuguru/go-event-backend/internal/pkg/metrics"
)

// 支払いステータス
const (
	PaymentStatusSucceeded             = "succeeded"
	PaymentStatusRequiresPaymentMethod = "requires_payment_method"
)

// PaymentIntent はモック決済インテントを表す
type PaymentIntent struct {
	ID            string
	ReservationID string
	Mode          string
	Amount        int64
	Currency      string
	ClientSecret  string
	Status        string
}

// PaymentService はモック決済フローを提供する
// clientSecret は予約IDから決定的に導出され、サーバー側に状態を持たない
type PaymentService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	eventRepo       event.Repository
	secret          []byte
	currency        string
	metrics         *metrics.Metrics
}

func NewPaymentService(
	txManager transaction.Manager,
	rr reservation.Repository,
	er event.Repository,
	secret string,
	currency string,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		txManager:       txManager,
		reservationRepo: rr,
		eventRepo:       er,
		secret:          []byte(secret),
		currency:        currency,
		metrics:         m,
	}
}

// CreateIntent は予約に対するモック決済インテントを作成する
// 金額未指定（0以下）の場合はイベント価格をセント単位に換算して使用する
func (s *PaymentService) CreateIntent(ctx context.Context, reservationID string, usr *user.User, amount int64) (*PaymentIntent, error) {
	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != usr.ID {
		return nil, reservation.ErrReservationNotFound
	}

	if amount <= 0 {
		ev, err := s.eventRepo.GetByID(ctx, res.EventID)
		if err != nil {
			return nil, err
		}
		amount = int64(math.Round(ev.Price * 100))
	}

	return &PaymentIntent{
		ID:            "pi_mock_" + reservationID,
		ReservationID: reservationID,
		Mode:          "mock",
		Amount:        amount,
		Currency:      s.currency,
		ClientSecret:  s.clientSecret(reservationID),
		Status:        PaymentStatusRequiresPaymentMethod,
	}, nil
}

// Confirm は決済を確認し、検証が通れば予約を支払い済みにする
// clientSecret 不一致は "requires_payment_method" ステータスとして返し、エラーにはしない
// 既に支払い済みの予約への再確認は同じ結果を返す（冪等）
func (s *PaymentService) Confirm(ctx context.Context, reservationID string, usr *user.User, clientSecret string) (string, error) {
	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if res.UserID != usr.ID {
		return "", reservation.ErrReservationNotFound
	}

	expected := s.clientSecret(reservationID)
	if !hmac.Equal([]byte(clientSecret), []byte(expected)) {
		s.countConfirmation("rejected")
		return PaymentStatusRequiresPaymentMethod, nil
	}

	if res.Paid {
		s.countConfirmation("already_paid")
		return PaymentStatusSucceeded, nil
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	res.MarkPaid("pi_mock_" + reservationID)
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		s.countConfirmation("error")
		return "", err
	}
	if err := tx.Commit(); err != nil {
		s.countConfirmation("error")
		return "", fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countConfirmation("succeeded")
	return PaymentStatusSucceeded, nil
}

// clientSecret は予約IDからHMAC-SHA256でシークレットを導出する
func (s *PaymentService) clientSecret(reservationID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(reservationID))
	return "mock_" + hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentService) countConfirmation(status string) {
	if s.metrics != nil {
		s.metrics.PaymentConfirmationsTotal.WithLabelValues(status).Inc()
	}
}
