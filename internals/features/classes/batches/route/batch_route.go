package route

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/features/classes/batches/controller"
)

// BatchAdminRoutes mounts /batches on an admin-gated router.
func BatchAdminRoutes(admin fiber.Router, ctl *controller.BatchController) {
	g := admin.Group("/batches")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Get("/:id", ctl.Details)
	g.Patch("/:id", ctl.Update)
	g.Put("/:id", ctl.Update)
}
