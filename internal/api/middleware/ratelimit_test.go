package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	e := echo.New()
	handler := RateLimit(rl)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	for i := 0; i < 2; i++ {
		if err := call("10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}

	err := call("10.0.0.1")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}

	if err := call("10.0.0.2"); err != nil {
		t.Fatalf("other clients must have their own budget: %v", err)
	}

	now = now.Add(time.Second)
	if err := call("10.0.0.1"); err != nil {
		t.Fatalf("expected a token after refill: %v", err)
	}
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Second)
	rl.Allow("10.0.0.2")
	rl.cleanup()

	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Fatal("expected idle client to be dropped")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Fatal("expected active client to be kept")
	}
}
