package middleware

import (
	"bitwise74/finance-api/security"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMiddleware(t *testing.T) {
	access, err := security.NewTokenCodec("access-secret", 15*time.Minute)
	require.NoError(t, err)

	refresh, err := security.NewTokenCodec("refresh-secret", time.Hour)
	require.NoError(t, err)

	r := newEngine(NewJWTMiddleware(access))

	good, _, err := access.Sign("u1", "")
	require.NoError(t, err)

	expired, _, err := access.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).Sign("u1", "")
	require.NoError(t, err)

	wrongSecret, _, err := refresh.Sign("u1", "")
	require.NoError(t, err)

	withRID, _, err := access.Sign("u1", "some-row")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		for _, h := range []string{"Bearer " + good, "bearer " + good, "  Bearer   " + good} {
			req := httptest.NewRequest(http.MethodGet, "/t", nil)
			req.Header.Set("Authorization", h)

			w := do(r, req)
			require.Equal(t, http.StatusOK, w.Code, h)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "u1", body["userID"])
		}
	})

	t.Run("rejected", func(t *testing.T) {
		headers := []string{
			"",
			good,
			"Basic " + good,
			"Bearer ",
			"Bearer garbage",
			"Bearer " + expired,
			"Bearer " + wrongSecret,
			"Bearer " + withRID,
		}

		for _, h := range headers {
			req := httptest.NewRequest(http.MethodGet, "/t", nil)
			if h != "" {
				req.Header.Set("Authorization", h)
			}

			w := do(r, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, h)
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body["message"])
			assert.Equal(t, w.Header().Get("X-Request-ID"), body["requestID"])
		}
	})
}
