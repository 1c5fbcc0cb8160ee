package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serousbot/serousbot/internal/ledger"
	"github.com/serousbot/serousbot/internal/ratelimit"
	"github.com/serousbot/serousbot/internal/store"
)

const (
	testGuild = "200000000000000001"
	aliceID   = "100000000000000001"
	bobID     = "100000000000000002"
)

type testServer struct {
	*Server
	store  *store.Store
	ledger *ledger.Ledger
}

func setupTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st := store.New(filepath.Join(t.TempDir(), "Tags", "list.json"), logger)
	l := ledger.New()

	return &testServer{
		Server: NewServer(st, l, limiter, logger),
		store:  st,
		ledger: l,
	}
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:40000"
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.Store.Loaded)
	assert.Equal(t, 0, body.Ledger.Pending)
	assert.Equal(t, "no undoable replies", body.Ledger.Message)

	ctx := context.Background()
	_, err := ts.store.Add(ctx, testGuild, aliceID, "rules", "Be nice.")
	require.NoError(t, err)
	_, err = ts.store.Add(ctx, testGuild, bobID, "faq", "Read the docs.")
	require.NoError(t, err)
	ts.ledger.Register("400000000000000001", aliceID, "400000000000000002")

	body = decode[HealthResponse](t, ts.get(t, "/health"))
	assert.True(t, body.Store.Loaded)
	assert.Equal(t, 1, body.Store.Guilds)
	assert.Equal(t, 2, body.Store.Tags)
	assert.Equal(t, 1, body.Ledger.Pending)
	assert.Equal(t, "1 undoable reply", body.Ledger.Message)
}

func TestHealthCheck_Unconfigured(t *testing.T) {
	s := NewServer(nil, nil, nil, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "degraded", body.Store.Status)
}

func TestFormatPending(t *testing.T) {
	assert.Equal(t, "no undoable replies", formatPending(0))
	assert.Equal(t, "1 undoable reply", formatPending(1))
	assert.Equal(t, "12 undoable replies", formatPending(12))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, limiter)

	assert.Equal(t, http.StatusOK, ts.get(t, "/health").Code)
	assert.Equal(t, http.StatusOK, ts.get(t, "/health").Code)

	rec := ts.get(t, "/health")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decode[APIError](t, rec)
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/guilds/"+testGuild+"/tags", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.RemoteAddr = "198.51.100.8"
	assert.Equal(t, "198.51.100.8", getClientIP(req))
}

func TestRequestID(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.get(t, "/health")
	assert.Regexp(t, `^req-[A-Za-z0-9_-]{12}$`, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "upstream-1")
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Header().Get("X-Request-Id"))
}
