package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func countLimiters(i *IPRateLimiter) int {
	n := 0
	i.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewPerMinuteLimiter(30, nil)
	limiter.now = clock.Now
	limiter.lastSweep.Store(clock.now.UnixNano())

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		limiter.getLimiter(ip)
	}
	if got := countLimiters(limiter); got != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", got)
	}

	clock.now = clock.now.Add(limiterIdleTTL / 2)
	limiter.getLimiter("203.0.113.1")

	clock.now = clock.now.Add(limiterIdleTTL/2 + time.Second)
	limiter.getLimiter("198.51.100.7")

	if got := countLimiters(limiter); got != 2 {
		t.Fatalf("expected idle clients to be swept, %d remain", got)
	}
	if _, ok := limiter.limiters.Load("203.0.113.2"); ok {
		t.Fatalf("expected idle client to be removed")
	}
	if _, ok := limiter.limiters.Load("203.0.113.1"); !ok {
		t.Fatalf("expected recently seen client to be kept")
	}
}

func TestIPRateLimiterSweepDropsThrottledIdleClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewPerMinuteLimiter(1, nil)
	limiter.now = clock.Now

	engine := gin.New()
	engine.Use(limiter.RateLimit())
	engine.POST("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}

	clock.now = clock.now.Add(limiterIdleTTL + time.Second)
	if removed := limiter.sweep(clock.now); removed != 1 {
		t.Fatalf("expected one idle limiter removed, got %d", removed)
	}
	if got := countLimiters(limiter); got != 0 {
		t.Fatalf("expected no tracked clients, got %d", got)
	}
}
