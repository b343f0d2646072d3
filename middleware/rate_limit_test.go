package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func request(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.RemoteAddr = ip + ":1234"
	return req
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})
	r := newEngine(l.Middleware())

	assert.Equal(t, http.StatusOK, do(r, request("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, do(r, request("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, request("10.0.0.1")).Code)

	// every ip has its own bucket
	assert.Equal(t, http.StatusOK, do(r, request("10.0.0.2")).Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{})
	r := newEngine(l.Middleware())

	for range 50 {
		assert.Equal(t, http.StatusOK, do(r, request("10.0.0.1")).Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, TTL: time.Millisecond})

	l.get("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.visitors)
}
