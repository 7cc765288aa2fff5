package route

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/constants"
	"lurnex_backend/internals/features/assessments/controller"
	authMiddleware "lurnex_backend/internals/middlewares/auth"
)

// AssessmentAdminRoutes mounts authoring on /api/admin.
func AssessmentAdminRoutes(admin fiber.Router, ctl *controller.AssessmentController) {
	g := admin.Group("/assessments")
	g.Post("/", ctl.Create)
	g.Get("/", ctl.List)
}

// AssessmentUserRoutes mounts the caller's own lists on an authenticated
// /api/assessments router. Submitting is for students only.
func AssessmentUserRoutes(g fiber.Router, ctl *controller.AssessmentController) {
	student := authMiddleware.OnlyRoles(constants.RoleErrorStudent("assessment submission"), constants.RoleStudent)

	g.Get("/available", ctl.Available)
	g.Get("/completed", ctl.Completed)
	g.Get("/:id", ctl.Get)
	g.Post("/:id/submit", student, ctl.Submit)
}
