package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(perMinute int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	rl.now = clock.now
	return rl, clock
}

func TestAllow(t *testing.T) {
	rl, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.1.1.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "clients are limited independently")

	clock.t = clock.t.Add(30 * time.Second)
	assert.False(t, rl.Allow("1.1.1.1"), "window is fixed, not sliding from the last request")

	clock.t = clock.t.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(10)
	rl.Allow("1.1.1.1")
	clock.t = clock.t.Add(9 * time.Minute)
	rl.Allow("2.2.2.2")
	clock.t = clock.t.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Start()
	rl.Stop()
	rl.Stop()
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	ip := func(*http.Request) string { return "1.1.1.1" }

	h := rl.Middleware(ip, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
