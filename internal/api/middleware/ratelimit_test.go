package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) *RateLimiter {
	t.Helper()
	limiter := NewRateLimiter(cfg, "test")
	t.Cleanup(limiter.Stop)
	return limiter
}

func serve(handler http.Handler, path, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PublicPerMinute: 3}).Middleware(okHandler())

	for i := 0; i < 3; i++ {
		res := serve(handler, "/event", "192.168.1.10:1234", nil)
		require.Equal(t, http.StatusOK, res.Code, "request %d", i+1)
	}

	res := serve(handler, "/event", "192.168.1.10:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, "20", res.Header().Get("Retry-After"))
	require.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))

	// Other clients have their own bucket.
	res = serve(handler, "/event", "192.168.1.11:1234", nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRateLimitDisabledByDefault(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{}).Middleware(okHandler())

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(handler, "/event", "10.0.0.1:1", nil).Code)
	}
}

func TestRateLimitExemptsProbes(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PublicPerMinute: 1}).Middleware(okHandler())

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, serve(handler, "/healthz", "10.0.0.2:1", nil).Code)
		require.Equal(t, http.StatusOK, serve(handler, "/metrics", "10.0.0.2:1", nil).Code)
	}
}

func TestRateLimitTrustsForwardedOnlyFromProxies(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{
		PublicPerMinute:   1,
		TrustedProxyCIDRs: []string{"10.0.0.0/8"},
	}).Middleware(okHandler())

	// Behind the proxy, each forwarded client gets a bucket.
	require.Equal(t, http.StatusOK, serve(handler, "/event", "10.1.1.1:80", map[string]string{"X-Forwarded-For": "203.0.113.1"}).Code)
	require.Equal(t, http.StatusOK, serve(handler, "/event", "10.1.1.1:80", map[string]string{"X-Forwarded-For": "203.0.113.2"}).Code)

	// A direct client cannot dodge its bucket by spoofing the header.
	require.Equal(t, http.StatusOK, serve(handler, "/event", "198.51.100.7:80", map[string]string{"X-Forwarded-For": "203.0.113.3"}).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(handler, "/event", "198.51.100.7:80", map[string]string{"X-Forwarded-For": "203.0.113.4"}).Code)
}

func TestClientKey(t *testing.T) {
	trusted := parseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	require.Len(t, trusted, 1)

	req := httptest.NewRequest(http.MethodGet, "/event", nil)
	req.RemoteAddr = "10.2.3.4:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.2.3.4")
	require.Equal(t, "203.0.113.9", clientKey(req, trusted))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	require.Equal(t, "203.0.113.10", clientKey(req, trusted))

	require.Equal(t, "10.2.3.4", clientKey(req, nil))
	require.False(t, isTrustedProxy("garbage", trusted))
	require.True(t, isTrustedProxy("10.9.9.9", []*net.IPNet{trusted[0]}))
}

func TestLimiterStoreCleanup(t *testing.T) {
	store := newLimiterStore(10)
	defer store.Stop()

	store.limiter("a")
	store.limiter("b")
	store.mu.Lock()
	store.limiters["a"].lastSeen = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	store.cleanup(time.Now())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotContains(t, store.limiters, "a")
	require.Contains(t, store.limiters, "b")
}

func TestRetryAfterSeconds(t *testing.T) {
	require.Equal(t, 60, (&limiterStore{perMinute: 1}).retryAfterSeconds())
	require.Equal(t, 7, (&limiterStore{perMinute: 9}).retryAfterSeconds())
	require.Equal(t, 1, (&limiterStore{perMinute: 120}).retryAfterSeconds())
}
