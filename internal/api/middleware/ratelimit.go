package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/api/problem"
	"github.com/Togather-Foundation/eventcal/internal/config"
	"golang.org/x/time/rate"
)

// Probes and scrapes are never limited.
var rateLimitExempt = map[string]bool{
	"/healthz": true,
	"/health":  true,
	"/metrics": true,
}

const (
	limiterTTL      = 15 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// RateLimiter applies a per-client token bucket of cfg.PublicPerMinute
// requests. A limit of zero disables it.
type RateLimiter struct {
	store   *limiterStore
	proxies []*net.IPNet
	env     string
}

func NewRateLimiter(cfg config.RateLimitConfig, env string) *RateLimiter {
	return &RateLimiter{
		store:   newLimiterStore(cfg.PublicPerMinute),
		proxies: parseCIDRs(cfg.TrustedProxyCIDRs),
		env:     env,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rateLimitExempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		limiter := l.store.limiter(clientKey(r, l.proxies))
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if !limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(l.store.retryAfterSeconds()))
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too many requests", nil, l.env)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the background cleanup of idle clients.
func (l *RateLimiter) Stop() {
	l.store.Stop()
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perMinute   int
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(perMinute int) *limiterStore {
	store := &limiterStore{
		limiters:    make(map[string]*limiterEntry),
		perMinute:   perMinute,
		stopCleanup: make(chan struct{}),
	}
	if perMinute > 0 {
		go store.cleanupLoop()
	}
	return store
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	if s.perMinute <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	interval := time.Minute / time.Duration(s.perMinute)
	limiter := rate.NewLimiter(rate.Every(interval), s.perMinute)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// retryAfterSeconds is the time until one token is back, rounded up.
func (s *limiterStore) retryAfterSeconds() int {
	seconds := 60 / s.perMinute
	if 60%s.perMinute != 0 {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

// clientKey identifies the caller. Forwarding headers are only believed
// when the direct peer is a trusted proxy.
func clientKey(r *http.Request, trusted []*net.IPNet) string {
	if r == nil {
		return ""
	}

	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trusted) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	return remoteIP
}

func isTrustedProxy(ip string, trusted []*net.IPNet) bool {
	if len(trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

// parseCIDRs skips entries that do not parse.
func parseCIDRs(values []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(values))
	for _, value := range values {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		out = append(out, cidr)
	}
	return out
}
