package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/haven-app/haven-api/internal/api/metrics"
)

// LoginThrottle limits login attempts per client IP using a Redis
// fixed-window counter. Key format: throttle:login:<ip>. The middleware
// fails open when Redis is unavailable — a throttle outage must not lock
// every account out.
func LoginThrottle(client *redis.Client, limit int, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limit <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			key := "throttle:login:" + c.RealIP()

			n, err := client.Incr(ctx, key).Result()
			if err != nil {
				log.Warn().Err(err).Msg("login throttle unavailable, failing open")
				return next(c)
			}
			if n == 1 {
				if err := client.Expire(ctx, key, window).Err(); err != nil {
					log.Warn().Err(err).Msg("login throttle expire failed")
				}
			}
			if n > int64(limit) {
				metrics.LoginsThrottledTotal.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
			}

			return next(c)
		}
	}
}
