package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-backend/internal/api/middleware"
	"github.com/sanosuguru/go-event-backend/internal/application"
	"github.com/sanosuguru/go-event-backend/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	Price       float64   `json:"price" validate:"gte=0"`
}

type UpdateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	Price       float64   `json:"price" validate:"gte=0"`
}

type EventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Category       string    `json:"category,omitempty"`
	StartAt        time.Time `json:"start_at"`
	Capacity       int       `json:"capacity"`
	SeatsAvailable int       `json:"seats_available"`
	Price          float64   `json:"price"`
	CreatorID      *string   `json:"creator_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Title: e.Title, Description: e.Description,
		Location: e.Location, Category: e.Category, StartAt: e.StartAt,
		Capacity: e.Capacity, SeatsAvailable: e.SeatsAvailable,
		Price: e.Price, CreatorID: e.CreatorID, CreatedAt: e.CreatedAt,
	}
}

// Create は新しいイベントを作成する
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := application.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		StartAt:     req.StartAt,
		Capacity:    req.Capacity,
		Price:       req.Price,
	}
	if usr, ok := middleware.CurrentUser(c); ok {
		input.CreatorID = &usr.ID
	}

	ev, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(ev))
}

// GetByID は指定IDのイベントを取得する
func (h *EventHandler) GetByID(c echo.Context) error {
	ev, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(ev))
}

// Search は条件に一致するイベント一覧を取得する
// category / location / from / to はすべて任意で、指定された条件のANDで絞り込む
func (h *EventHandler) Search(c echo.Context) error {
	filter := event.SearchFilter{
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "fromの形式が無効です（RFC3339）")
		}
		filter.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "toの形式が無効です（RFC3339）")
		}
		filter.To = &t
	}

	events, err := h.service.Search(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	responses := make([]EventResponse, len(events))
	for i, ev := range events {
		responses[i] = toEventResponse(ev)
	}
	return c.JSON(http.StatusOK, responses)
}

// Update はイベントを更新する
// 容量変更時は予約済み数を保ったまま空席数が差分調整される
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ev, err := h.service.Update(c.Request().Context(), c.Param("id"), application.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		StartAt:     req.StartAt,
		Capacity:    req.Capacity,
		Price:       req.Price,
	})
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(ev))
}

// Delete はイベントを削除する
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvailability はイベントの空席数を取得する（キャッシュ優先）
func (h *EventHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	seats, err := h.service.GetAvailableSeats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"event_id":        id,
		"seats_available": seats,
	})
}
