package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authResult struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func registerUser(t *testing.T, e *echo.Echo, email string) authResult {
	t.Helper()
	rec := request(e, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":     email,
		"password":  "password123",
		"full_name": "E2Eテストユーザー",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res authResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func createEvent(t *testing.T, e *echo.Echo, bearer string, capacity int) string {
	t.Helper()
	rec := request(e, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"title":    "武道館ライブ 2026",
		"location": "日本武道館",
		"category": "music",
		"start_at": time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339),
		"capacity": capacity,
		"price":    80.0,
	}, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev["id"].(string)
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	e := getTestServer(t)

	rec := request(e, http.MethodGet, "/api/v1/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

// TestE2E_CompleteReservationJourney は登録から決済確認までの完全なフローをテスト
func TestE2E_CompleteReservationJourney(t *testing.T) {
	e := getTestServer(t)

	user := registerUser(t, e, "journey@example.com")
	eventID := createEvent(t, e, user.Token, 100)

	var reservationID, clientSecret string

	t.Run("予約作成", func(t *testing.T) {
		rec := request(e, http.MethodPost, "/api/v1/reservations/event/"+eventID, nil, user.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		reservationID = res["id"].(string)
		assert.Equal(t, false, res["paid"])
	})

	t.Run("空席数が減っている", func(t *testing.T) {
		rec := request(e, http.MethodGet, "/api/v1/events/"+eventID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.Equal(t, float64(99), ev["seats_available"])
	})

	t.Run("同一ユーザーの再予約は409", func(t *testing.T) {
		rec := request(e, http.MethodPost, "/api/v1/reservations/event/"+eventID, nil, user.Token)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("予約一覧に表示される", func(t *testing.T) {
		rec := request(e, http.MethodGet, "/api/v1/reservations", nil, user.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var list []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, reservationID, list[0]["id"])
	})

	t.Run("決済インテント作成", func(t *testing.T) {
		rec := request(e, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/pay", reservationID), map[string]interface{}{}, user.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var intent map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intent))
		assert.Equal(t, "requires_payment_method", intent["status"])
		assert.Equal(t, float64(8000), intent["amount"], "イベント価格80.0ユーロがセント換算される")
		clientSecret = intent["client_secret"].(string)
		require.NotEmpty(t, clientSecret)
	})

	t.Run("誤ったリファレンスでは支払われない", func(t *testing.T) {
		rec := request(e, http.MethodGet,
			fmt.Sprintf("/api/v1/reservations/%s/confirm?paymentIntentId=mock_wrong", reservationID), nil, user.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "requires_payment_method")
	})

	t.Run("正しいリファレンスで支払い完了", func(t *testing.T) {
		rec := request(e, http.MethodGet,
			fmt.Sprintf("/api/v1/reservations/%s/confirm?paymentIntentId=%s", reservationID, clientSecret), nil, user.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "succeeded")
	})

	t.Run("再確認しても冪等", func(t *testing.T) {
		rec := request(e, http.MethodGet,
			fmt.Sprintf("/api/v1/reservations/%s/confirm?paymentIntentId=%s", reservationID, clientSecret), nil, user.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "succeeded")
	})
}

// TestE2E_SoldOut は容量1のイベントに2人が予約を試みるシナリオ
func TestE2E_SoldOut(t *testing.T) {
	e := getTestServer(t)

	alice := registerUser(t, e, "alice@example.com")
	bob := registerUser(t, e, "bob@example.com")
	eventID := createEvent(t, e, alice.Token, 1)

	rec := request(e, http.MethodPost, "/api/v1/reservations/event/"+eventID, nil, alice.Token)
	require.Equal(t, http.StatusOK, rec.Code, "1人目は成功する")

	rec = request(e, http.MethodPost, "/api/v1/reservations/event/"+eventID, nil, bob.Token)
	assert.Equal(t, http.StatusConflict, rec.Code, "2人目は満席で失敗する")

	rec = request(e, http.MethodGet, "/api/v1/events/"+eventID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, float64(0), ev["seats_available"])
}

// TestE2E_AuthFlow は認証まわりの異常系をテスト
func TestE2E_AuthFlow(t *testing.T) {
	e := getTestServer(t)

	registerUser(t, e, "dup@example.com")

	t.Run("メールアドレス重複登録は400", func(t *testing.T) {
		rec := request(e, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
			"email":    "dup@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("誤ったパスワードでのログインは401", func(t *testing.T) {
		rec := request(e, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
			"email":    "dup@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("トークンなしの予約は401", func(t *testing.T) {
		rec := request(e, http.MethodPost, "/api/v1/reservations/event/any-id", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// TestE2E_EventCapacityUpdate は容量変更時の空席数調整をテスト
func TestE2E_EventCapacityUpdate(t *testing.T) {
	e := getTestServer(t)

	user := registerUser(t, e, "organizer@example.com")
	eventID := createEvent(t, e, user.Token, 2)

	rec := request(e, http.MethodPost, "/api/v1/reservations/event/"+eventID, nil, user.Token)
	require.Equal(t, http.StatusOK, rec.Code)

	// 容量2→1、予約1件: 空席は 1 + (1-2) = 0
	rec = request(e, http.MethodPut, "/api/v1/events/"+eventID, map[string]interface{}{
		"title":    "武道館ライブ 2026",
		"location": "日本武道館",
		"category": "music",
		"start_at": time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339),
		"capacity": 1,
		"price":    80.0,
	}, user.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, float64(1), ev["capacity"])
	assert.Equal(t, float64(0), ev["seats_available"])
}
