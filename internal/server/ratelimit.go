package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/secondbrain/internal/logging"
)

// ipRateLimiter throttles API requests with one token bucket per client
// IP. Buckets are dropped wholesale once an hour so the map cannot grow
// without bound under address churn.
type ipRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	limit       rate.Limit
	burst       int
	logger      *logging.Logger
}

func newIPRateLimiter(limit rate.Limit, burst int, logger *logging.Logger) *ipRateLimiter {
	return &ipRateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
		limit:       limit,
		burst:       burst,
		logger:      logger,
	}
}

// limiterFor returns the bucket for an IP, creating it on first sight.
func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) > time.Hour {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastCleanup = time.Now()
	}

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

// Middleware rejects requests from an IP that has exhausted its bucket.
func (l *ipRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.limiterFor(ip).Allow() {
				l.logger.Warn(c.Request().Context(), "rate limit exceeded", zap.String("ip", ip))
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded"})
			}
			return next(c)
		}
	}
}
