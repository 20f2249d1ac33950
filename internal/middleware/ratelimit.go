package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address for rate-limit keying and request logs.
// Behind the reverse proxy the connection peer is the proxy, so the first
// hop of X-Forwarded-For wins, then X-Real-IP, then the socket peer. Only
// the credential endpoints (staff login, table OTP) key on this, and the
// proxy overwrites these headers, so clients cannot spoof their way past
// the limiter.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows. Counts live in
// memory only; a restart forgives everyone, which is acceptable for
// slowing credential guessing.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*window)}
}

// Allow records a request for key and reports whether it fits within limit
// for the current window. A request after the window expires starts a new
// one.
func (rl *RateLimiter) Allow(key string, limit int, windowLen time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Add(windowLen)}
		return true
	}
	w.count++
	return w.count <= limit
}

// Cleanup drops windows that have expired. Called periodically so idle keys
// do not accumulate.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// RateLimit rejects requests over limit per window with 429, keyed by
// keyFunc.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, windowLen time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r), limit, windowLen) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
