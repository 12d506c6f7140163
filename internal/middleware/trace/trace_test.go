package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, incoming, seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.NotEqual(t, "<script>", seen)
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Format: applog.FormatJSON, Output: &buf})
	m := metrics.New(prometheus.NewRegistry())
	tm := NewMiddleware(func(*http.Request) string { return "198.51.100.1" }, applog.NewStructuredLogger(logger), m)

	r := chi.NewRouter()
	r.Use(applog.Middleware(logger))
	r.Use(tm.Middleware)
	r.Get("/wallets/{userID}/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallets/42/stats", nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/wallets/{userID}/stats", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", RouteUnmatched, "404")))
	assert.Contains(t, buf.String(), `"route":"/wallets/{userID}/stats"`)
	assert.Contains(t, buf.String(), `"client_ip":"198.51.100.1"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
