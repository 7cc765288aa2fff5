package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	batchController "lurnex_backend/internals/features/classes/batches/controller"
	batchRoute "lurnex_backend/internals/features/classes/batches/route"
	batchService "lurnex_backend/internals/features/classes/batches/service"
	sessController "lurnex_backend/internals/features/classes/class_sessions/controller"
	sessRoute "lurnex_backend/internals/features/classes/class_sessions/route"
	sessService "lurnex_backend/internals/features/classes/class_sessions/service"
)

// ClassRoutes mounts batches and sessions on the admin, MIS and user groups.
func ClassRoutes(admin, mis, classes fiber.Router, registry *sessService.SessionRegistry, batches *batchService.BatchService, v *validator.Validate) {
	sc := sessController.New(registry, v)
	sessRoute.ClassSessionAdminRoutes(admin, sc)
	sessRoute.ClassSessionMISRoutes(mis, sc)
	sessRoute.ClassSessionUserRoutes(classes, sc)

	batchRoute.BatchAdminRoutes(admin, batchController.New(batches, v))
}
