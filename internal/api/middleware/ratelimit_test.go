package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func hit(t *testing.T, e *echo.Echo, mw echo.MiddlewareFunc, ip string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.001, 2)
	mw := RateLimit(rl)

	for i := 0; i < 2; i++ {
		if rec := hit(t, e, mw, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := hit(t, e, mw, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Another client has its own bucket.
	if rec := hit(t, e, mw, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other ip: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.get("a")
	now = now.Add(2 * time.Minute)
	rl.get("b")
	now = now.Add(2 * time.Minute)
	rl.sweep()

	if _, ok := rl.clients["a"]; ok {
		t.Fatalf("idle client a should be swept")
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Fatalf("client b is still fresh")
	}
}
