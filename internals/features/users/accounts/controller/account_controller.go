package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/constants"
	sessDto "lurnex_backend/internals/features/classes/class_sessions/dto"
	sessSvc "lurnex_backend/internals/features/classes/class_sessions/service"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	d "lurnex_backend/internals/features/users/accounts/dto"
	"lurnex_backend/internals/features/users/accounts/service"
	authDto "lurnex_backend/internals/features/users/auth/dto"
	helper "lurnex_backend/internals/helpers"
)

type AccountController struct {
	Service  *service.AccountService
	Ledger   *ledgerSvc.HoursLedger
	Sessions *sessSvc.SessionRegistry
	Validate *validator.Validate
}

func New(svc *service.AccountService, ledger *ledgerSvc.HoursLedger, sessions *sessSvc.SessionRegistry, v *validator.Validate) *AccountController {
	if v == nil {
		v = validator.New()
	}
	return &AccountController{Service: svc, Ledger: ledger, Sessions: sessions, Validate: v}
}

/* =========================
   Shared (role-scoped)
========================= */

// List serves GET /api/admin/students and /api/admin/trainers.
func (ctl *AccountController) List(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q d.ListQuery
		if err := helper.BindQuery(c, ctl.Validate, &q); err != nil {
			return helper.JsonAppError(c, err)
		}
		p := helper.ResolvePaging(c, 20, 200)
		rows, total, err := ctl.Service.List(c.UserContext(), q.ToFilter(role), p.Limit, p.Offset)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		out := make([]authDto.AccountResponse, 0, len(rows))
		for i := range rows {
			out = append(out, authDto.NewAccountResponse(&rows[i]))
		}
		return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
	}
}

func (ctl *AccountController) Get(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := helper.ParseUUIDParam(c, "id")
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		acc, err := ctl.Service.Get(c.UserContext(), id, role)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		return helper.JsonOK(c, "ok", authDto.NewAccountResponse(acc))
	}
}

// Update edits profile fields; a password in the body is an admin reset
// that forces a change on next login.
func (ctl *AccountController) Update(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := helper.ParseUUIDParam(c, "id")
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		actor, err := helper.GetUserIDFromToken(c)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		var req d.UpdateAccountRequest
		if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
			return helper.JsonAppError(c, err)
		}

		acc, err := ctl.Service.Update(c.UserContext(), id, role, req.ToInput(), actor)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		if req.Password != nil {
			if err := ctl.Service.SetPassword(c.UserContext(), id, role, *req.Password, true, actor); err != nil {
				return helper.JsonAppError(c, err)
			}
			acc.IsTemporaryPassword = true
		}
		return helper.JsonUpdated(c, "Account updated", authDto.NewAccountResponse(acc))
	}
}

func (ctl *AccountController) SetPassword(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := helper.ParseUUIDParam(c, "id")
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		actor, err := helper.GetUserIDFromToken(c)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		var req d.SetPasswordRequest
		if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
			return helper.JsonAppError(c, err)
		}
		if err := ctl.Service.SetPassword(c.UserContext(), id, role, req.Password, req.IsTemporary, actor); err != nil {
			return helper.JsonAppError(c, err)
		}
		return helper.JsonUpdated(c, "Password updated", nil)
	}
}

func (ctl *AccountController) PasswordHistory(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := helper.ParseUUIDParam(c, "id")
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		rows, err := ctl.Service.PasswordHistory(c.UserContext(), id, role)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		return helper.JsonOK(c, "ok", rows)
	}
}

/* =========================
   Students
========================= */

// POST /api/admin/students
func (ctl *AccountController) CreateStudent(c *fiber.Ctx) error {
	var req d.CreateStudentRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	in := req.ToInput()
	if admin, err := helper.GetUserIDFromToken(c); err == nil {
		in.CreatedBy = &admin
	}
	creds, err := ctl.Service.CreateStudent(c.UserContext(), in)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Student created", d.NewCredentialsResponse(creds))
}

// POST /api/admin/students/:id/hours
func (ctl *AccountController) AddHours(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.AddHoursRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	in, err := req.ToInput()
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	acc, err := ctl.Service.AddHours(c.UserContext(), id, in)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Hours added", authDto.NewAccountResponse(acc))
}

// PATCH /api/admin/students/:id/transfer
func (ctl *AccountController) Transfer(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.TransferRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	acc, err := ctl.Service.Transfer(c.UserContext(), id, req.BatchID, req.IsOneOnOne)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Student transferred", authDto.NewAccountResponse(acc))
}

// PATCH /api/admin/students/:id/status
func (ctl *AccountController) UpdateStatus(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	actor, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.StatusRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	creds, err := ctl.Service.UpdateStatus(c.UserContext(), id, req.Status, actor)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Status updated", d.NewCredentialsResponse(creds))
}

// GET /api/admin/students/:id/hours
func (ctl *AccountController) HoursLedger(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if _, err := ctl.Service.Get(c.UserContext(), id, constants.RoleStudent); err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := ctl.Ledger.StudentEntries(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromHoursEntries(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /api/admin/students/:id/completed-classes
func (ctl *AccountController) CompletedSessions(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if _, err := ctl.Service.Get(c.UserContext(), id, constants.RoleStudent); err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := ctl.Sessions.CompletedForStudent(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", sessDto.FromViews(rows), helper.BuildPagination(total, p, len(rows)))
}

/* =========================
   Trainers
========================= */

// POST /api/admin/trainers
func (ctl *AccountController) CreateTrainer(c *fiber.Ctx) error {
	var req d.CreateTrainerRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	in := service.CreateTrainerInput{
		Name:    req.Name,
		Email:   req.Email,
		Mobile:  req.Mobile,
		Subject: req.Subject,
	}
	if admin, err := helper.GetUserIDFromToken(c); err == nil {
		in.CreatedBy = &admin
	}
	creds, err := ctl.Service.CreateTrainer(c.UserContext(), in)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Trainer created", d.NewCredentialsResponse(creds))
}

// DELETE /api/admin/trainers/:id
func (ctl *AccountController) DeleteTrainer(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	n, err := ctl.Service.DeleteTrainer(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "Trainer deleted", fiber.Map{"id": id, "sessions_removed": n})
}

// GET /api/admin/trainers/:id/teaching
func (ctl *AccountController) TeachingLedger(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if _, err := ctl.Service.Get(c.UserContext(), id, constants.RoleTrainer); err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := ctl.Ledger.TeachingEntries(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromTeachingEntries(rows), helper.BuildPagination(total, p, len(rows)))
}
