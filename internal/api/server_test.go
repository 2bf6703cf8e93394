package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Anthony4834/fmr-edge/internal/config"
	"github.com/Anthony4834/fmr-edge/internal/gateway"
	"github.com/Anthony4834/fmr-edge/internal/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewLimiter(
		ratelimit.NewRedisStore(client, ratelimit.WithTimeout(200*time.Millisecond)),
		zap.NewNop())

	gw := gateway.New(gateway.Config{
		Secret:          "test-secret",
		CanonicalOrigin: "https://fmr.example.com",
	}, limiter, nil, zap.NewNop())

	cfg := config.Default()
	return NewServer(cfg, zap.NewNop(), gw)
}

func browserGet(target string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req
}

func TestServer_HealthBypassesGateway(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, browserGet("/health"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Equal(t, ratelimit.UnlimitedValue, w.Header().Get("X-RateLimit-Limit"),
		"bypass routes report an unbounded quota instead of omitting headers")
}

func TestServer_APIRouteCarriesRateLimitHeaders(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, browserGet("/api/fmr"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestServer_PageRouteServed(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, browserGet("/listings"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, browserGet("/metrics"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_TrackBeacon(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/track", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
