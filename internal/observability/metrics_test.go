package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.TrackJob("ledger:reconcile").End(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "mandir_jobs_total")
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/donations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/donations/42", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(body, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, body.Body.String(), `route="/donations/{id}"`)
}

func TestJobTrackerRecordsFailures(t *testing.T) {
	metrics := NewMetrics()
	jobErr := errors.New("boom")
	require.Equal(t, jobErr, metrics.TrackJob("gl:integrity").End(jobErr))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.True(t, strings.Contains(rr.Body.String(), `status="failure"`))
}

func TestNilMetricsSafeDefaults(t *testing.T) {
	var metrics *Metrics
	require.NotNil(t, metrics.Handler())
	require.NoError(t, metrics.TrackJob("anything").End(nil))
}
