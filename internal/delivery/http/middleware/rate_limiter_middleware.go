package middleware

import (
	"time"

	"github.com/ferdian3456/virdanengage/internal/constant"
	traceMiddleware "github.com/ferdian3456/virdanengage/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func limitReached(logger *zap.Logger, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceMiddleware.GetLoggerFromContext(c, logger).Warn("rate limit exceeded",
			zap.String("ip", c.IP()),
			zap.String("sessionId", SessionIdOf(c)),
		)

		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    constant.ERR_RATE_LIMITED_CODE,
				"message": message,
			},
		})
	}
}

// SetupRateLimiter limits all requests per IP.
func SetupRateLimiter(logger *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/health"
		},
		Max:          100,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: limitReached(logger, "Rate limit exceeded, please try again later"),
	})
}

// SetupMutationRateLimiter limits writes per browsing session so one client
// cannot hammer like toggles or comment posts. It must run after Session.
func SetupMutationRateLimiter(logger *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet
		},
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if sessionId := SessionIdOf(c); sessionId != "" {
				return "session:" + sessionId
			}
			return "ip:" + c.IP()
		},
		LimitReached: limitReached(logger, "Too many changes, please slow down"),
	})
}
