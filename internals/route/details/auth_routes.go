package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	authController "lurnex_backend/internals/features/users/auth/controller"
	authRoute "lurnex_backend/internals/features/users/auth/route"
	authService "lurnex_backend/internals/features/users/auth/service"
)

func AuthRoutes(app *fiber.App, svc *authService.AuthService, v *validator.Validate, gate fiber.Handler) {
	authRoute.AuthRoutes(app, authController.NewAuthController(svc, v), gate)
}
