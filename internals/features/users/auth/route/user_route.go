package route

import (
	"github.com/gofiber/fiber/v2"

	controller "lurnex_backend/internals/features/users/auth/controller"
	rateLimiter "lurnex_backend/internals/middlewares"
)

// AuthRoutes mounts /api/auth and /api/users/me. gate is the JWT middleware.
func AuthRoutes(app fiber.Router, authController *controller.AuthController, gate fiber.Handler) {
	baseAuth := app.Group("/api/auth")

	// public
	baseAuth.Post("/login", rateLimiter.LoginRateLimiter(), authController.Login)
	baseAuth.Post("/register-student", rateLimiter.RegisterRateLimiter(), authController.RegisterStudent)

	// protected
	baseAuth.Post("/logout", gate, authController.Logout)
	baseAuth.Post("/change-password", gate, authController.ChangePassword)

	me := app.Group("/api/users", gate)
	me.Get("/me", authController.Me)
	me.Patch("/me", authController.UpdateMe)
}
