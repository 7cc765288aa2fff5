package route

import (
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/constants"
	"lurnex_backend/internals/features/users/accounts/controller"
)

// AccountAdminRoutes mounts student and trainer management on an
// admin-gated router.
func AccountAdminRoutes(admin fiber.Router, ctl *controller.AccountController) {
	students := admin.Group("/students")
	students.Get("/", ctl.List(constants.RoleStudent))
	students.Post("/", ctl.CreateStudent)
	students.Get("/:id", ctl.Get(constants.RoleStudent))
	students.Patch("/:id", ctl.Update(constants.RoleStudent))
	students.Post("/:id/hours", ctl.AddHours)
	students.Get("/:id/hours", ctl.HoursLedger)
	students.Patch("/:id/transfer", ctl.Transfer)
	students.Patch("/:id/status", ctl.UpdateStatus)
	students.Patch("/:id/password", ctl.SetPassword(constants.RoleStudent))
	students.Get("/:id/password-history", ctl.PasswordHistory(constants.RoleStudent))
	students.Get("/:id/completed-classes", ctl.CompletedSessions)

	trainers := admin.Group("/trainers")
	trainers.Get("/", ctl.List(constants.RoleTrainer))
	trainers.Post("/", ctl.CreateTrainer)
	trainers.Get("/:id", ctl.Get(constants.RoleTrainer))
	trainers.Patch("/:id", ctl.Update(constants.RoleTrainer))
	trainers.Delete("/:id", ctl.DeleteTrainer)
	trainers.Patch("/:id/password", ctl.SetPassword(constants.RoleTrainer))
	trainers.Get("/:id/password-history", ctl.PasswordHistory(constants.RoleTrainer))
	trainers.Get("/:id/teaching", ctl.TeachingLedger)
}
