package marketdata

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/stackfolio/stackfolio/internal/clientdata"
)

func setupCache(t *testing.T) (*clientdata.Repository, func()) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE market_quotes (
			ticker TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE TABLE dividend_data (
			ticker TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return clientdata.NewRepository(db), func() { db.Close() }
}

func TestQuote_FetchesAndCaches(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"AAPL","price":182.52}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	payload, err := client.Quote("AAPL")
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"AAPL","price":182.52}`, string(payload))

	_, err = client.Quote("AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQuote_RejectsInvalidJSON(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	_, err := client.Quote("AAPL")
	assert.Error(t, err)
}

func TestDividendData_UpstreamFailureWithoutCache(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	_, err := client.DividendData("AAPL")
	assert.Error(t, err)
}
