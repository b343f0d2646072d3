package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureMiddleware(t *testing.T) {
	r := newEngine(NewSecureMiddleware(false))

	w := do(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureMiddleware_TLS(t *testing.T) {
	r := newEngine(NewSecureMiddleware(true))

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/t", nil)
	w := do(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
