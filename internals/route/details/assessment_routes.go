package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	assessController "lurnex_backend/internals/features/assessments/controller"
	assessRoute "lurnex_backend/internals/features/assessments/route"
	assessService "lurnex_backend/internals/features/assessments/service"
)

func AssessmentRoutes(admin, assessments fiber.Router, svc *assessService.AssessmentService, v *validator.Validate) {
	ctl := assessController.New(svc, v)
	assessRoute.AssessmentAdminRoutes(admin, ctl)
	assessRoute.AssessmentUserRoutes(assessments, ctl)
}
