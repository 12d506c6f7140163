// Package cache keeps assembled stats reports for a short time and drops them when
// the ledger of their user changes.
package cache

import (
	"strings"
	"sync"
	"time"

	"walletstats/internal/core"
	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeleteFunc(match func(key string) bool) int
	Size() int
}

var _ Cache[core.StatsReport] = (*LRUCache[core.StatsReport])(nil)

// ReportCache stores reports by user and month.
type ReportCache struct {
	store   Cache[core.StatsReport]
	metrics *metrics.Metrics
}

func NewReportCache(store Cache[core.StatsReport], m *metrics.Metrics) *ReportCache {
	return &ReportCache{store: store, metrics: m}
}

// Separator cannot appear in a valid user ID.
const keySep = "\x1f"

func reportKey(userID string, month core.Window) string {
	return userID + keySep + month.Label()
}

func (c *ReportCache) Get(userID string, month core.Window) (core.StatsReport, bool) {
	r, ok := c.store.Get(reportKey(userID, month))
	if ok {
		c.metrics.CacheHit()
	} else {
		c.metrics.CacheMiss()
	}
	return r, ok
}

func (c *ReportCache) Set(userID string, r core.StatsReport) {
	c.store.Set(reportKey(userID, r.Current), r)
}

// InvalidateUser drops every cached report of userID.
func (c *ReportCache) InvalidateUser(userID string) int {
	prefix := userID + keySep
	n := c.store.DeleteFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })
	c.metrics.CacheInvalidated(n)
	return n
}

func (c *ReportCache) Size() int {
	return c.store.Size()
}

// Manager periodically purges expired entries from registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *applog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
	started     bool
}

type Cleaner interface {
	CleanExpired() int
}

func NewManager(logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Nop()
	}
	return &Manager{
		logger:      logger.WithComponent(applog.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register must be called before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, cache := range m.caches {
				total += cache.CleanExpired()
			}
			if total > 0 {
				m.logger.Debug("Expired cache entries removed", "count", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup loop and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		if m.started {
			<-m.cleanupDone
		}
	})
}
