package route

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/constants"
	"lurnex_backend/internals/features/classes/class_sessions/controller"
	"lurnex_backend/internals/features/classes/class_sessions/service"
	authMiddleware "lurnex_backend/internals/middlewares/auth"
)

// ClassSessionAdminRoutes mounts scheduling and reads on /api/admin.
func ClassSessionAdminRoutes(admin fiber.Router, ctl *controller.ClassSessionController) {
	g := admin.Group("/classes")
	g.Post("/", ctl.Create)
	g.Post("/bulk", ctl.CreateBulk)
	g.Get("/", ctl.List)
	g.Get("/live", ctl.Live)
	g.Get("/:id", ctl.Get)
	g.Get("/:id/roster", ctl.Roster)
	g.Patch("/:id/recording", ctl.AttachRecording)
}

// ClassSessionMISRoutes mounts settlement on /api/mis.
func ClassSessionMISRoutes(mis fiber.Router, ctl *controller.ClassSessionController) {
	mis.Patch("/class/:id/complete", ctl.Complete)
	mis.Patch("/class/:id/cancel", ctl.Cancel)
}

// ClassSessionUserRoutes mounts the caller's own views on an authenticated
// /api/classes router.
func ClassSessionUserRoutes(classes fiber.Router, ctl *controller.ClassSessionController) {
	student := authMiddleware.OnlyRoles(constants.RoleErrorStudent("their class list"), constants.RoleStudent)
	trainer := authMiddleware.OnlyRoles(constants.RoleErrorTrainer("their teaching schedule"), constants.RoleTrainer)

	classes.Get("/live", student, ctl.StudentWindow(service.WindowLive))
	classes.Get("/upcoming", student, ctl.StudentWindow(service.WindowUpcoming))
	classes.Get("/past", student, ctl.StudentWindow(service.WindowPast))
	classes.Get("/trainer", trainer, ctl.TrainerList)
}
