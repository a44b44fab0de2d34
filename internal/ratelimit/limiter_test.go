package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestLimiter_PerClientBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(rate.Every(time.Minute), 2)
	l.clock = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected burst of 2 allowed")
	}
	if l.Allow("a") {
		t.Fatalf("expected third request limited")
	}
	if !l.Allow("b") {
		t.Fatalf("expected separate bucket for b")
	}

	now = now.Add(time.Minute)
	if !l.Allow("a") {
		t.Fatalf("expected token refilled after a minute")
	}
}

func TestLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := PerMinute(10)
	l.clock = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(DefaultIdleTTL + time.Second)
	l.Allow("c")
	if l.Len() != 1 {
		t.Fatalf("expected idle clients evicted, have %d", l.Len())
	}
}

func TestMiddleware_Returns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v", Middleware(New(rate.Every(time.Hour), 1)), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v", nil)
		req.Header.Set("X-Real-IP", "198.51.100.7")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}
