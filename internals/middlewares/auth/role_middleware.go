package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
)

// RoleMiddlewareWithCustomError lets the request through when userRole is
// one of allowedRoles.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(string)
		if !ok || role == "" {
			return helper.JsonAppError(c, apperr.Unauthenticated("missing role information"))
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		if customForbiddenMessage == "" {
			customForbiddenMessage = "you are not authorized to access this resource"
		}
		return helper.JsonAppError(c, apperr.Unauthorized(customForbiddenMessage))
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
