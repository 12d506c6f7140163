// Package trace tags requests with an ID and records how each one ended.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// RouteUnmatched labels requests that matched no route.
const RouteUnmatched = "unmatched"

// RequestID stores a request ID under chi's request ID key and echoes it in the
// response. An incoming ID is kept when it is a UUID; otherwise a new one is made.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// RequestIDFromRequest adapts GetRequestID for applog.RequestIDMiddleware.
func RequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}

// Middleware logs each completed request and records its metrics by route pattern.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger
	metrics   *metrics.Metrics
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string, logger *applog.StructuredLogger, m *metrics.Metrics) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		metrics:   m,
	}
}

// Middleware returns HTTP middleware for request tracing. It must be installed on
// a chi router so the route pattern is known once the handler returns.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := RoutePattern(r)
			elapsed := time.Since(start)

			m.metrics.ObserveHTTP(r.Method, route, status, elapsed)

			if m.logger != nil {
				clientIP := ""
				if m.extractIP != nil {
					clientIP = m.extractIP(r)
				}
				m.logger.LogHTTPEnd(r.Context(), r, route, status, elapsed.Milliseconds(), clientIP)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// RoutePattern returns the chi route pattern r matched, or RouteUnmatched.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return RouteUnmatched
}
