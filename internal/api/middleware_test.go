package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mint-booth/internal/models"
)

func TestCORSHeaders(t *testing.T) {
	server, _ := createTestServer()

	w := doRequest(t, server, "GET", "/booth-status", nil, withHeader("Origin", testOrigin))
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = doRequest(t, server, "GET", "/booth-status", nil, withHeader("Origin", "https://evil.example"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	server, _ := createTestServer()

	// Preflight for an admin route carries no credentials and must not hit auth
	w := doRequest(t, server, "OPTIONS", "/admin/settings", nil,
		withHeader("Origin", testOrigin),
		withHeader("Access-Control-Request-Method", "PATCH"),
	)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := createTestServer()

	first := doRequest(t, server, "GET", "/booth-status", nil).Header().Get(RequestIDHeader)
	second := doRequest(t, server, "GET", "/booth-status", nil).Header().Get(RequestIDHeader)
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestRecoveryMiddleware(t *testing.T) {
	server, mocks := createTestServer()
	mocks.settings.statusFunc = func(context.Context) (*models.BoothStatus, error) {
		panic("unexpected nil")
	}

	w := doRequest(t, server, "GET", "/booth-status", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "unexpected nil")
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestsPerSecond = 1
	cfg.Burst = 2
	server, _ := createTestServerWithConfig(cfg)

	fromClient := func(ip string) requestOption {
		return func(r *http.Request) { r.RemoteAddr = ip + ":40000" }
	}

	assert.Equal(t, http.StatusOK, doRequest(t, server, "GET", "/booth-status", nil, fromClient("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, server, "GET", "/booth-status", nil, fromClient("10.0.0.1")).Code)

	w := doRequest(t, server, "GET", "/booth-status", nil, fromClient("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeBody(t, w)["code"])

	// Other clients and health probes are unaffected
	assert.Equal(t, http.StatusOK, doRequest(t, server, "GET", "/booth-status", nil, fromClient("10.0.0.2")).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, server, "GET", "/health", nil, fromClient("10.0.0.1")).Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	now = now.Add(idleLimiterTTL + time.Minute)
	assert.True(t, rl.Allow("b"))
	_, tracked := rl.limiters["a"]
	assert.False(t, tracked)
}

func TestRateLimiter_ZeroRateDisables(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("client"))
	}
}

func TestCompressionMiddleware(t *testing.T) {
	server, _ := createTestServer()

	w := doRequest(t, server, "GET", "/booth-status", nil, withHeader("Accept-Encoding", "gzip"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, true, body["available"])
}

// TestConcurrentRequests checks the middleware chain under concurrent load
func TestConcurrentRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping load test in short mode")
	}

	server, _ := createTestServer()

	const workers = 50
	const requestsPerWorker = 10

	var wg sync.WaitGroup
	var failures int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < requestsPerWorker; j++ {
				req := httptest.NewRequest("GET", "/booth-status", nil)
				w := httptest.NewRecorder()
				server.Handler().ServeHTTP(w, req)
				if w.Code != http.StatusOK {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}

	wg.Wait()
	assert.Zero(t, atomic.LoadInt64(&failures))
}
