package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(authEvents.WithLabelValues("login", "ok"))

	AuthEvent("login", "ok")
	AuthEvent("login", "ok")

	assert.Equal(t, before+2, testutil.ToFloat64(authEvents.WithLabelValues("login", "ok")))
}

func TestCleanupDeleted(t *testing.T) {
	before := testutil.ToFloat64(cleanupDeleted.WithLabelValues("refresh_tokens"))

	CleanupDeleted("refresh_tokens", 3)
	CleanupDeleted("refresh_tokens", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(cleanupDeleted.WithLabelValues("refresh_tokens")))
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	// one series per label set, the empty route is folded into unmatched
	assert.GreaterOrEqual(t, testutil.CollectAndCount(httpRequestDuration), 1)
}
