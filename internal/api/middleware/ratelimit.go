package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	sweepInterval = time.Minute
	idleTTL       = 3 * time.Minute
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	now     func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Run drops buckets idle for longer than idleTTL until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idleTTL)
	for ip, c := range rl.clients {
		if c.seen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[ip]; ok {
		c.seen = rl.now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: rl.now()}
	return l
}

// retryAfter is the whole seconds until one token refills, at least 1.
func (rl *RateLimiter) retryAfter() int {
	if rl.r <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(rl.r))))
}

// RateLimit rejects requests over the client's budget with 429. It is
// mounted on the login and signup routes only.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := rl.get(c.RealIP())
			if !lim.Allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
