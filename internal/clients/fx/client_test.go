package fx

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

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
		CREATE TABLE fx_rates (
			pair TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return clientdata.NewRepository(db), func() { db.Close() }
}

func TestGetSpotRate_SameCurrency(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	client := NewClient("http://unused", cache, zerolog.Nop())
	rate, err := client.GetSpotRate("EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestGetSpotRate_RequestShape(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"EUR","rates":{"USD":1.0945}}`))
	}))
	defer server.Close()

	// A trailing slash on the configured base must not double up the path.
	client := NewClient(server.URL+"/", cache, zerolog.Nop())
	_, err := client.GetSpotRate("EUR", "USD")
	require.NoError(t, err)

	assert.Equal(t, "/latest", gotPath)
	assert.Equal(t, "base=EUR&symbols=USD", gotQuery)
}

func TestGetSpotRate_FetchesAndCaches(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"EUR","rates":{"USD":1.0945}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	rate, err := client.GetSpotRate("EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0945, rate)

	// Second call is served from cache
	rate, err = client.GetSpotRate("EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0945, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetSpotRate_StaleFallbackOnUpstreamError(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	// Seed an already-expired cached rate
	require.NoError(t, cache.Store("fx_rates", "EURUSD", cachedRate{Rate: 1.08, FetchedAt: 0}, -time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	rate, err := client.GetSpotRate("EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.08, rate)
}

func TestGetSpotRate_ErrorWithoutCache(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	_, err := client.GetSpotRate("EUR", "USD")
	assert.Error(t, err)
}

func TestGetSpotRate_MissingRateInResponse(t *testing.T) {
	cache, cleanup := setupCache(t)
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"EUR","rates":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, cache, zerolog.Nop())

	_, err := client.GetSpotRate("EUR", "USD")
	assert.Error(t, err)
}
