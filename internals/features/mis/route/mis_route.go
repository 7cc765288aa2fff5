package route

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/features/mis/controller"
)

// MISRoutes mounts reporting on the admin-gated /api/mis router.
func MISRoutes(mis fiber.Router, ctl *controller.MISController) {
	mis.Get("/stats", ctl.Stats)
	mis.Get("/trainer-history", ctl.TeachingHistory)
}

// DashboardRoutes mounts /stats on the admin-gated /api/admin router.
func DashboardRoutes(admin fiber.Router, ctl *controller.MISController) {
	admin.Get("/stats", ctl.Dashboard)
}
