package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	authController "lurnex_backend/internals/features/users/auth/controller"
	authRepo "lurnex_backend/internals/features/users/auth/repository"
	authService "lurnex_backend/internals/features/users/auth/service"
	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
)

type GateConfig struct {
	Secret      string
	DB          *gorm.DB
	Revocations authService.RevocationStore
	Now         func() time.Time
}

// AuthMiddleware verifies the bearer token, rejects revoked tokens and
// unknown or pending accounts, then exposes user_id and userRole as locals.
func AuthMiddleware(cfg GateConfig) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonAppError(c, apperr.Unauthenticated(err.Error()))
		}
		if cfg.Secret == "" {
			log.Println("[ERROR] JWT_SECRET is empty")
			return helper.JsonAppError(c, apperr.Internal(nil, "missing jwt secret"))
		}

		ctx := c.UserContext()
		if cfg.Revocations != nil {
			revoked, err := cfg.Revocations.IsRevoked(ctx, tokenString)
			if err != nil {
				log.Printf("[ERROR] revocation lookup: %v", err)
				return helper.JsonAppError(c, apperr.Internal(err, "revocation lookup failed"))
			}
			if revoked {
				return helper.JsonAppError(c, apperr.Unauthenticated("token has been revoked"))
			}
		}

		claims, userID, err := authService.ParseAccessToken(cfg.Secret, tokenString, cfg.Now())
		if err != nil {
			log.Printf("[WARN] %s %s: %v", c.Method(), c.Path(), err)
			return helper.JsonAppError(c, apperr.Unauthenticated("invalid or expired token"))
		}

		acc, err := authRepo.FindAccountLight(ctx, cfg.DB, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.JsonAppError(c, apperr.Unauthenticated("account no longer exists"))
			}
			return helper.JsonAppError(c, err)
		}
		if acc.Role == constants.RoleStudent && acc.Status != constants.StatusPaid {
			return helper.JsonAppError(c, apperr.ErrAccountPending)
		}

		storeClaimsToLocals(c, acc.ID.String(), acc.Role, tokenString, claims.ExpiresAt.Time)
		return c.Next()
	}
}

func storeClaimsToLocals(c *fiber.Ctx, userID, role, token string, exp time.Time) {
	c.Locals("user_id", userID)
	c.Locals("userRole", role)
	c.Locals(authController.LocalAccessToken, token)
	c.Locals(authController.LocalTokenExp, exp)
}
