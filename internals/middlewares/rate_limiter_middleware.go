package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "lurnex_backend/internals/helpers"
)

func newIPLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for every endpoint.
func GlobalRateLimiter() fiber.Handler {
	return newIPLimiter(100, time.Minute, "Too many requests. Please try again later.")
}

// Stricter limiter for login.
func LoginRateLimiter() fiber.Handler {
	return newIPLimiter(5, time.Minute, "Too many login attempts. Please wait a moment.")
}

// Limiter for public student registration.
func RegisterRateLimiter() fiber.Handler {
	return newIPLimiter(3, 5*time.Minute, "Too many registration attempts. Please wait a few minutes.")
}
