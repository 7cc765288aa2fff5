package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/configs"
	"lurnex_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the app-wide chain: recovery, CORS, access log, rate limit.
func SetupMiddlewares(app *fiber.App, cfg configs.AppConfig) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(logger.LoggerMiddleware(cfg.SessionTZ))
	app.Use(GlobalRateLimiter())
}
