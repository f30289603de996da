package middleware

import (
	"context"
	"fmt"
	"math"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per client IP for the named route.
// A nil limiter disables the check.
func RateLimit(rateLimiter RequestRateLimiter, routeName string, allowedPerMin int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rateLimiter == nil || allowedPerMin <= 0 {
			return c.Next()
		}

		res, err := rateLimiter.Allow(
			c.UserContext(),
			fmt.Sprintf("rate:%s:%s", routeName, c.IP()),
			redis_rate.PerMinute(allowedPerMin),
		)
		if err != nil {
			// Fail open when Redis is unreachable.
			log.WithError(err).WithField("route", routeName).Warn("rate limiter unavailable")
			return c.Next()
		}

		if res.Allowed > 0 {
			return c.Next()
		}

		retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fmt.Sprintf("Too many requests, retry after %d seconds", retryAfter),
		})
	}
}
