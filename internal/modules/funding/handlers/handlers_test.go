package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/funding"
)

func setupTestHandler(t *testing.T) (*Handler, func()) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE movement_directions (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		INSERT INTO movement_directions (id, name) VALUES (1, 'deposit'), (2, 'withdrawal');

		CREATE TABLE cash_movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			direction_id INTEGER NOT NULL REFERENCES movement_directions(id),
			home_currency_value REAL NOT NULL,
			home_currency_code TEXT NOT NULL,
			trading_currency_value REAL NOT NULL,
			trading_currency_code TEXT NOT NULL,
			spot_rate REAL NOT NULL,
			transaction_date TEXT NOT NULL,
			period_from TEXT NOT NULL,
			period_to TEXT,
			notes TEXT,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		)
	`)
	require.NoError(t, err)

	service := funding.NewService(funding.NewRepository(db, zerolog.Nop()), zerolog.Nop())
	return NewHandler(service, zerolog.Nop()), func() { db.Close() }
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r.WithContext(auth.ContextWithUserID(r.Context(), 1))
}

func TestHandleCreateMovement_ThenOverview(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	body := `{
		"home_currency_value": 1000,
		"spot_rate": 1.0945,
		"transaction_date": "2024-03-01",
		"direction_id": 1,
		"home_currency_code": "EUR",
		"trading_currency_code": "USD",
		"period_from": "2024-01-01"
	}`
	w := httptest.NewRecorder()
	h.HandleCreateMovement(w, authedRequest(http.MethodPost, "/funding/movement", body))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Success bool                 `json:"success"`
		Data    funding.CashMovement `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.InDelta(t, 1094.5, created.Data.TradingCurrencyValue, 0.001)

	w = httptest.NewRecorder()
	h.HandleGetFunding(w, authedRequest(http.MethodGet, "/funding", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var overview struct {
		Currencies  []string               `json:"currencies"`
		Movements   []funding.CashMovement `json:"movements"`
		PeriodStats []funding.PeriodStats  `json:"periodStats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, []string{"USD"}, overview.Currencies)
	require.Len(t, overview.Movements, 1)
	require.Len(t, overview.PeriodStats, 1)
	assert.InDelta(t, 1.0945, overview.PeriodStats[0].WeightedAvgRate, 0.000001)
}

func TestHandleCreateMovement_ValidationWrites400(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	// Missing direction_id
	body := `{
		"home_currency_value": 1000,
		"spot_rate": 1.0945,
		"transaction_date": "2024-03-01",
		"home_currency_code": "EUR",
		"trading_currency_code": "USD",
		"period_from": "2024-01-01"
	}`
	w := httptest.NewRecorder()
	h.HandleCreateMovement(w, authedRequest(http.MethodPost, "/funding/movement", body))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
}

func TestHandleGetMovementsForPeriod_AbsentPeriodToSelectsOpen(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	open := `{
		"home_currency_value": 500,
		"spot_rate": 1.1,
		"transaction_date": "2024-02-01",
		"direction_id": 1,
		"home_currency_code": "EUR",
		"trading_currency_code": "USD",
		"period_from": "2024-01-01"
	}`
	closed := `{
		"home_currency_value": 700,
		"spot_rate": 1.2,
		"transaction_date": "2023-06-01",
		"direction_id": 1,
		"home_currency_code": "EUR",
		"trading_currency_code": "USD",
		"period_from": "2024-01-01",
		"period_to": "2024-06-30"
	}`
	for _, body := range []string{open, closed} {
		w := httptest.NewRecorder()
		h.HandleCreateMovement(w, authedRequest(http.MethodPost, "/funding/movement", body))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// No periodTo parameter at all: only the open-period row
	w := httptest.NewRecorder()
	h.HandleGetMovementsForPeriod(w, authedRequest(http.MethodGet, "/funding/movements?periodFrom=2024-01-01", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Movements []funding.CashMovement `json:"movements"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Movements, 1)
	assert.Nil(t, resp.Movements[0].PeriodTo)

	// Explicit periodTo selects the closed window
	w = httptest.NewRecorder()
	h.HandleGetMovementsForPeriod(w, authedRequest(http.MethodGet, "/funding/movements?periodFrom=2024-01-01&periodTo=2024-06-30", ""))
	require.Equal(t, http.StatusOK, w.Code)

	resp.Movements = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Movements, 1)
	require.NotNil(t, resp.Movements[0].PeriodTo)
	assert.Equal(t, "2024-06-30", *resp.Movements[0].PeriodTo)
}

func TestHandlers_RejectMissingUser(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	w := httptest.NewRecorder()
	h.HandleGetFunding(w, httptest.NewRequest(http.MethodGet, "/funding", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
