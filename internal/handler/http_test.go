package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardhive/boardhive/internal/auth"
	"github.com/boardhive/boardhive/internal/bus"
	"github.com/boardhive/boardhive/internal/classify"
	"github.com/boardhive/boardhive/internal/config"
	"github.com/boardhive/boardhive/internal/metrics"
	"github.com/boardhive/boardhive/internal/model"
	"github.com/boardhive/boardhive/internal/realtime"
	"github.com/boardhive/boardhive/internal/session"
	"github.com/boardhive/boardhive/internal/store/memory"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *memory.MemoryStore) {
	t.Helper()

	cfg := config.RealtimeConfig{
		ConnectLatency:     5 * time.Millisecond,
		ConnectWaitTimeout: time.Second,
		LoopbackDelay:      time.Millisecond,
		RosterNotifyDelay:  time.Millisecond,
		JoinWaitTimeout:    time.Second,
		ConnectAttempts:    2,
		ConnectBackoff:     time.Millisecond,
	}

	st := memory.New()
	collector := metrics.NopCollector{}
	manager := realtime.NewManager(cfg, bus.New(), collector)
	coordinator := session.NewCoordinator(cfg, "http://localhost:8090", st, manager, collector)
	authService := auth.NewService(config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
	}, st)

	return NewHTTPHandler(coordinator, authService, classify.NewClassifier(), collector, nil), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLoginReturnsUserAndToken(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "password",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.User.Username)
	assert.NotEmpty(t, body.Token)
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/auth/login", map[string]string{"username": "alice"})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr model.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "invalid_request", apiErr.Code)
}

func TestCurrentUserUnauthorizedWithoutRecord(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "GET", "/api/v1/auth/me", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession(t *testing.T) {
	h, st := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/sessions", nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, created.CreatedBy, "Guest_")

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestListSessionsEmpty(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "GET", "/api/v1/sessions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestJoinSessionInvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/sessions/%20/join", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinSessionAsGuest(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/sessions/room42/join", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var joined model.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &joined))
	assert.Equal(t, "room42", joined.ID)
	assert.Equal(t, "unknown", joined.CreatedBy)
}

func TestGetShareableLink(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "GET", "/api/v1/sessions/room42/link", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://localhost:8090/whiteboard/room42", body["link"])
}

func TestDeleteMissingSession(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "DELETE", "/api/v1/sessions/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyRejectsMissingImage(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, "POST", "/api/v1/classify", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
