package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "/api/xup/tempcomp/email", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/xup/tempcomp/email", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodPost, "/api/xup/tempcomp/email", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.IncrementRateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "xup_http_rate_limited_total 1")
}

func TestNewIsolatesRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
