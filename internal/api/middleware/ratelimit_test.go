package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	l := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := l.Allow("10.0.0.1")
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, _, retryAfter := l.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	l := NewRateLimiter(1)

	allowed, _, _ := l.Allow("10.0.0.1")
	assert.True(t, allowed)
	allowed, _, _ = l.Allow("10.0.0.1")
	assert.False(t, allowed)

	allowed, _, _ = l.Allow("10.0.0.2")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	l := NewRateLimiter(1)
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	allowed, _, _ := l.Allow("10.0.0.1")
	assert.True(t, allowed)
	allowed, _, _ = l.Allow("10.0.0.1")
	assert.False(t, allowed)

	current = current.Add(61 * time.Second)
	allowed, _, _ = l.Allow("10.0.0.1")
	assert.True(t, allowed)
}

func TestRateLimiter_SweepDropsStaleBuckets(t *testing.T) {
	l := NewRateLimiter(1)
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	assert.Len(t, l.buckets, 2)

	current = current.Add(2 * time.Minute)
	l.Allow("10.0.0.3")
	assert.Len(t, l.buckets, 1)
}

func TestRateLimiterMiddleware_Headers(t *testing.T) {
	l := NewRateLimiter(1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/inbound", nil)
	req.RemoteAddr = "10.0.0.1:4444"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterMiddleware_RemoteAddrWithoutPort(t *testing.T) {
	l := NewRateLimiter(1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// RealIP rewrites RemoteAddr to a bare IP.
	req := httptest.NewRequest(http.MethodPost, "/inbound", nil)
	req.RemoteAddr = "203.0.113.9"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
