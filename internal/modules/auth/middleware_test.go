package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSession_NoToken(t *testing.T) {
	svc, _, cleanup := setupTestService(t)
	defer cleanup()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	})
	mw := RequireSession(svc)(next)

	req := httptest.NewRequest("GET", "/api/funding", nil)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "unauthorized", body["error"])
}

func TestRequireSession_InvalidToken(t *testing.T) {
	svc, _, cleanup := setupTestService(t)
	defer cleanup()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad session")
	})
	mw := RequireSession(svc)(next)

	req := httptest.NewRequest("GET", "/api/funding", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSession_ValidToken(t *testing.T) {
	svc, _, cleanup := setupTestService(t)
	defer cleanup()

	result, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireSession(svc)(next)

	req := httptest.NewRequest("GET", "/api/funding", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, result.User.ID, gotUserID)
}

func TestRequireSession_SessionCookie(t *testing.T) {
	svc, _, cleanup := setupTestService(t)
	defer cleanup()

	result, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireSession(svc)(next)

	req := httptest.NewRequest("GET", "/api/positions", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: result.Token})
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSession_ExpiredToken(t *testing.T) {
	svc, repo, cleanup := setupTestService(t)
	defer cleanup()

	result, err := svc.Register(RegisterInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, repo.CreateSession(&Session{
		Token:     "old",
		UserID:    result.User.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired session")
	})
	mw := RequireSession(NewService(repo, nil, nil, true, time.Hour, zerolog.Nop()))(next)

	req := httptest.NewRequest("GET", "/api/funding", nil)
	req.Header.Set("Authorization", "Bearer old")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
