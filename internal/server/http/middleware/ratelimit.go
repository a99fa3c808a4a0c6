// Package middleware provides HTTP middleware for the orderhub API server.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter configuration constants. This is transport-level abuse
// protection for the API; the business admission rules (one order per hour
// and so on) live in the orders package and are unrelated.
const (
	DefaultMaxRequests = 30              // Max requests per window
	DefaultWindow      = 1 * time.Minute // Time window for rate limiting
	DefaultCleanup     = 5 * time.Minute // Cleanup interval for stale buckets
)

// RateLimiter implements a sliding window rate limiter with per-key limiting.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	buckets     map[string]*bucket
	mu          sync.Mutex
	cleanupDone chan struct{}
}

// bucket tracks request timestamps for a single key.
type bucket struct {
	timestamps []time.Time
	lastAccess time.Time
}

// RateLimiterOption is a functional option for configuring RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithMaxRequests sets the maximum number of requests per window.
func WithMaxRequests(n int) RateLimiterOption {
	return func(r *RateLimiter) {
		if n > 0 {
			r.maxRequests = n
		}
	}
}

// WithWindow sets the time window for rate limiting.
func WithWindow(d time.Duration) RateLimiterOption {
	return func(r *RateLimiter) {
		if d > 0 {
			r.window = d
		}
	}
}

// NewRateLimiter creates a new RateLimiter with the given options.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		maxRequests: DefaultMaxRequests,
		window:      DefaultWindow,
		buckets:     make(map[string]*bucket),
		cleanupDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	go r.cleanupLoop()

	return r
}

// Allow checks if a request from the given key is allowed.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	b, exists := r.buckets[key]
	if !exists {
		b = &bucket{timestamps: make([]time.Time, 0, r.maxRequests)}
		r.buckets[key] = b
	}

	valid := make([]time.Time, 0, len(b.timestamps))
	for _, ts := range b.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	b.timestamps = valid
	b.lastAccess = now

	if len(b.timestamps) >= r.maxRequests {
		return false
	}

	b.timestamps = append(b.timestamps, now)
	return true
}

// Close stops the cleanup goroutine.
func (r *RateLimiter) Close() {
	close(r.cleanupDone)
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(DefaultCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-r.cleanupDone:
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup removes buckets that haven't been accessed recently.
func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.window * 2)
	for key, b := range r.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

// RequestKey identifies the caller for rate limiting: the bearer token when
// present, otherwise the remote IP. Tokens are opaque and per-user, which
// makes the limit effectively per-account for authenticated traffic.
func RequestKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return auth[len("Bearer "):]
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit wraps a handler with per-caller rate limiting.
func Limit(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(RequestKey(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
