package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/domain/event"
	"github.com/sanosuguru/go-event-backend/internal/domain/reservation"
)

type ReservationHandler struct {
	reservations ReservationServiceInterface
	payments     PaymentServiceInterface
}

func NewReservationHandler(r ReservationServiceInterface, p PaymentServiceInterface) *ReservationHandler {
	return &ReservationHandler{reservations: r, payments: p}
}

type ReservationResponse struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id"`
	ReservedAt      time.Time `json:"reserved_at"`
	Paid            bool      `json:"paid"`
	PaymentIntentID *string   `json:"payment_intent_id,omitempty"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, EventID: r.EventID, UserID: r.UserID,
		ReservedAt: r.ReservedAt, Paid: r.Paid,
		PaymentIntentID: r.PaymentIntentID,
	}
}

type PaymentIntentRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

type PaymentIntentResponse struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type ConfirmationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// Reserve はイベントの座席を1つ予約する
// 満席・重複予約は409、イベント不在は404を返す
func (h *ReservationHandler) Reserve(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}

	res, err := h.reservations.Reserve(c.Request().Context(), c.Param("eventId"), usr)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, event.ErrNoSeatsAvailable),
			errors.Is(err, reservation.ErrAlreadyReserved),
			errors.Is(err, reservation.ErrReservationBusy):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// GetByID は指定IDの予約を取得する
// 他ユーザーの予約は存在を秘匿するため404を返す
func (h *ReservationHandler) GetByID(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}

	res, err := h.reservations.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if res.UserID != usr.ID {
		return echo.NewHTTPError(http.StatusNotFound, reservation.ErrReservationNotFound.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// List はログインユーザーの予約一覧を取得する
func (h *ReservationHandler) List(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	reservations, err := h.reservations.GetUserReservations(c.Request().Context(), usr.ID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	responses := make([]ReservationResponse, len(reservations))
	for i, res := range reservations {
		responses[i] = toReservationResponse(res)
	}
	return c.JSON(http.StatusOK, responses)
}

// CreatePaymentIntent は予約に対するモック決済インテントを作成する
// amount 未指定の場合はイベント価格から算出される
func (h *ReservationHandler) CreatePaymentIntent(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}

	var req PaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	intent, err := h.payments.CreateIntent(c.Request().Context(), c.Param("id"), usr, req.Amount)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, PaymentIntentResponse{
		ID:           intent.ID,
		Mode:         intent.Mode,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
	})
}

// ConfirmPayment は決済を確認する
// paymentIntentId が期待値と一致すれば予約を支払い済みにし succeeded を返す
// 不一致は requires_payment_method を返す（200、エラーではない）
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}

	id := c.Param("id")
	status, err := h.payments.Confirm(c.Request().Context(), id, usr, c.QueryParam("paymentIntentId"))
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ConfirmationResponse{
		ReservationID: id,
		Status:        status,
	})
}
