package details

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	sessService "lurnex_backend/internals/features/classes/class_sessions/service"
	ledgerService "lurnex_backend/internals/features/ledger/service"
	accountController "lurnex_backend/internals/features/users/accounts/controller"
	accountRoute "lurnex_backend/internals/features/users/accounts/route"
	accountService "lurnex_backend/internals/features/users/accounts/service"
)

// UserAdminRoutes mounts /students and /trainers on the admin group.
func UserAdminRoutes(admin fiber.Router, svc *accountService.AccountService, ledger *ledgerService.HoursLedger, registry *sessService.SessionRegistry, v *validator.Validate) {
	accountRoute.AccountAdminRoutes(admin, accountController.New(svc, ledger, registry, v))
}
