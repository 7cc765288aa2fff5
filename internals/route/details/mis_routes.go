package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	misController "lurnex_backend/internals/features/mis/controller"
	misRoute "lurnex_backend/internals/features/mis/route"
	misService "lurnex_backend/internals/features/mis/service"
)

func MISRoutes(admin, mis fiber.Router, svc *misService.MISService, v *validator.Validate) {
	ctl := misController.New(svc, v)
	misRoute.MISRoutes(mis, ctl)
	misRoute.DashboardRoutes(admin, ctl)
}
