package middleware

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"file-relay-go/internal/config"
)

// rateLimitExpiry is how long an idle client's limiter is kept in memory.
const rateLimitExpiry = 3 * time.Minute

// RateLimiter returns a per-client-IP limiter allowing cfg.RequestsPerSecond
// with a burst of the same size, rounded up and at least one.
func RateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	burst := max(int(math.Ceil(cfg.RequestsPerSecond)), 1)
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     burst,
		ExpiresIn: rateLimitExpiry,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}
