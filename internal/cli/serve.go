package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"walletstats/internal/amqp"
	"walletstats/internal/cache"
	"walletstats/internal/config"
	"walletstats/internal/core"
	apphttp "walletstats/internal/http"
	"walletstats/internal/ledger"
	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
	"walletstats/internal/middleware/security"
	"walletstats/internal/stats"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stats HTTP API",
	Long: `Serve GET /wallets/{userID}/stats and GET /wallets/{userID}/transactions,
with /healthz, /readyz and /metrics. When AMQP_URL is set, ledger-change events
invalidate cached reports.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(os.Stdout)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close ledger backend", applog.FieldError, err)
		}
	}()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, gatherer = metrics.New(reg), reg
	}

	svc, err := newStatsService(cfg, res.Backend, logger, m)
	if err != nil {
		return err
	}

	manager := cache.NewManager(logger)
	var reports *cache.ReportCache
	if cfg.ReportCacheSize > 0 {
		lru := cache.NewLRUCache[core.StatsReport](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		reports = cache.NewReportCache(lru, m)
		manager.Register(lru)
		manager.StartCleanup(cfg.ReportCacheTTL)
	}

	resolver, err := security.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Reports:            svc,
		Store:              res.Backend,
		Cache:              reports,
		Logger:             logger,
		Metrics:            m,
		Gatherer:           gatherer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ClientIP:           resolver,
	})
	if err != nil {
		return err
	}

	ctx, done := GracefulShutdown(ctx, logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		manager.Stop()
	})

	if consumer := startLedgerConsumer(ctx, cfg, reports, logger, m); consumer != nil {
		defer consumer.Close()
	}

	logger.Info("Starting walletstats server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", cfg.ReportTimezone,
		"cache_size", cfg.ReportCacheSize,
		"metrics_enabled", cfg.MetricsEnabled,
		applog.FieldOperation, applog.OpStartup)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		return err
	}

	WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}

func newStatsService(cfg *config.Config, store ledger.Store, logger *applog.Logger, m *metrics.Metrics) (*stats.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return stats.NewService(store, stats.Options{
		Location: loc,
		Timeout:  cfg.ReportTimeout,
		Logger:   logger,
		Metrics:  m,
	}), nil
}

// startLedgerConsumer invalidates cached reports on ledger-change events. It
// returns nil when AMQP is not configured, the cache is off or the broker is
// unreachable at startup; the API keeps serving either way.
func startLedgerConsumer(ctx context.Context, cfg *config.Config, reports *cache.ReportCache, logger *applog.Logger, m *metrics.Metrics) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	if reports == nil {
		logger.Info("Report cache disabled, not consuming ledger changes")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, m)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without cache invalidation", applog.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	go func() {
		err := client.Run(ctx, amqp.CacheInvalidationHandler(reports, logger))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ledger change consumer stopped", applog.FieldError, err, applog.FieldOperation, applog.OpConsume)
		}
	}()
	return client
}
