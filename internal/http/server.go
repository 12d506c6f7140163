// Package http serves stats reports and transaction listings as JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"walletstats/internal/cache"
	"walletstats/internal/core"
	"walletstats/internal/ledger"
	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
	"walletstats/internal/middleware/ratelimit"
	"walletstats/internal/middleware/security"
	"walletstats/internal/middleware/trace"
)

// ReportService assembles stats reports.
type ReportService interface {
	Report(ctx context.Context, userID string) (core.StatsReport, error)
	// Now is the service clock in the report location; it selects the cached month.
	Now() time.Time
}

// Options wires the server's collaborators.
type Options struct {
	Reports ReportService
	Store   ledger.Store
	// Cache is optional; reports are always rebuilt when nil.
	Cache   *cache.ReportCache
	Logger  *applog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; the endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
	// RateLimitPerMinute caps /wallets requests per client; 0 disables limiting.
	RateLimitPerMinute int
	// ClientIP resolves client addresses; loopback and private proxies are trusted when nil.
	ClientIP *security.ClientIPResolver
}

type Server struct {
	http.Server

	reports  ReportService
	store    ledger.Store
	cache    *cache.ReportCache
	logger   *applog.Logger
	slogger  *applog.StructuredLogger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIPResolver

	shutdownOnce sync.Once
}

const readyTimeout = 2 * time.Second

// NewServer builds the router and returns a server ready to ListenAndServe.
func NewServer(addr string, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Nop()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	clientIP := opts.ClientIP
	if clientIP == nil {
		var err error
		if clientIP, err = security.NewClientIPResolver(nil); err != nil {
			return nil, err
		}
	}

	s := &Server{
		reports:  opts.Reports,
		store:    opts.Store,
		cache:    opts.Cache,
		logger:   logger,
		slogger:  applog.NewStructuredLogger(logger),
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		clientIP: clientIP,
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		s.limiter.Start()
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	tracer := trace.NewMiddleware(remoteIP, s.slogger, s.metrics)

	r.Use(trace.RequestID)
	r.Use(s.clientIP.RealIP)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/wallets/{userID}", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(remoteIP, s.writeRateLimited))
		}
		r.Get("/", s.handleWallets)
		r.Get("/stats", s.handleStats)
		r.Get("/transactions", s.handleTransactions)
	})

	return r
}

// remoteIP reads the address RealIP already resolved.
func remoteIP(r *http.Request) string {
	return r.RemoteAddr
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, r.RemoteAddr, applog.FieldPath, r.URL.Path)
	writeMessage(w, http.StatusTooManyRequests, "Too many requests")
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
