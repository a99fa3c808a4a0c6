package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	r := NewRateLimiter(WithMaxRequests(3), WithWindow(time.Minute))
	defer r.Close()

	for i := 0; i < 3; i++ {
		if !r.Allow("key-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if r.Allow("key-1") {
		t.Error("request over the limit should be denied")
	}

	// Independent keys have independent budgets.
	if !r.Allow("key-2") {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	r := NewRateLimiter(WithMaxRequests(1), WithWindow(50*time.Millisecond))
	defer r.Close()

	if !r.Allow("key-1") {
		t.Fatal("first request should pass")
	}
	if r.Allow("key-1") {
		t.Fatal("second immediate request should be denied")
	}

	time.Sleep(60 * time.Millisecond)
	if !r.Allow("key-1") {
		t.Error("request after window expiry should pass")
	}
}

func TestLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(WithMaxRequests(1), WithWindow(time.Minute))
	defer limiter.Close()

	handler := Limit(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-1")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// A different token is a different caller.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("Authorization", "Bearer tok-2")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req2)
	if w.Code != http.StatusOK {
		t.Errorf("different token: got %d, want 200", w.Code)
	}
}

func TestRequestKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := RequestKey(req); got != "10.0.0.1" {
		t.Errorf("expected IP key, got %s", got)
	}

	req.Header.Set("Authorization", "Bearer abc")
	if got := RequestKey(req); got != "abc" {
		t.Errorf("expected token key, got %s", got)
	}
}
