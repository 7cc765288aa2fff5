package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	d "lurnex_backend/internals/features/classes/class_sessions/dto"
	"lurnex_backend/internals/features/classes/class_sessions/service"
	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
)

/* =========================
   Controller & Constructor
   ========================= */

type ClassSessionController struct {
	Registry *service.SessionRegistry
	Validate *validator.Validate
}

func New(reg *service.SessionRegistry, v *validator.Validate) *ClassSessionController {
	if v == nil {
		v = validator.New()
	}
	return &ClassSessionController{Registry: reg, Validate: v}
}

/* =========================
   Admin: scheduling
   ========================= */

// POST /api/admin/classes
func (ctl *ClassSessionController) Create(c *fiber.Ctx) error {
	var req d.CreateSessionRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	in, err := req.ToInput(ctl.Registry.DefaultTZ)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if in.Recurrence != nil {
		return helper.JsonAppError(c, apperr.Validation("recurring sessions are created through /classes/bulk"))
	}

	s, err := ctl.Registry.ScheduleSingle(c.UserContext(), in)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Class scheduled", d.NewSessionResponse(s))
}

// POST /api/admin/classes/bulk
func (ctl *ClassSessionController) CreateBulk(c *fiber.Ctx) error {
	var req d.CreateSessionRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	in, err := req.ToInput(ctl.Registry.DefaultTZ)
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	rows, err := ctl.Registry.ScheduleBulk(c.UserContext(), in)
	if err != nil {
		var pf *apperr.PartialFailure
		if errors.As(err, &pf) {
			log.Printf("[ClassSession.CreateBulk] partial: %d created, stopped at %d (%s)", len(pf.CreatedIDs), pf.FailedIndex, pf.Stage)
		}
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Classes scheduled", fiber.Map{
		"count":    len(rows),
		"sessions": d.FromModels(rows),
	})
}

/* =========================
   Admin: reads & recording
   ========================= */

// GET /api/admin/classes
func (ctl *ClassSessionController) List(c *fiber.Ctx) error {
	var q d.ListQuery
	if err := helper.BindQuery(c, ctl.Validate, &q); err != nil {
		return helper.JsonAppError(c, err)
	}
	filter, err := q.ToFilter()
	if err != nil {
		return helper.JsonAppError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := ctl.Registry.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromViews(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /api/admin/classes/live
func (ctl *ClassSessionController) Live(c *fiber.Ctx) error {
	rows, err := ctl.Registry.Live(c.UserContext())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.FromViews(rows))
}

// GET /api/admin/classes/:id
func (ctl *ClassSessionController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	v, err := ctl.Registry.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.NewSessionViewResponse(v))
}

// GET /api/admin/classes/:id/roster
func (ctl *ClassSessionController) Roster(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rows, err := ctl.Registry.RosterOf(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// PATCH /api/admin/classes/:id/recording
func (ctl *ClassSessionController) AttachRecording(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.RecordingRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	v, err := ctl.Registry.AttachRecording(c.UserContext(), id, req.RecordingURL)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Recording attached", d.NewSessionViewResponse(v))
}

/* =========================
   MIS: settlement
   ========================= */

// PATCH /api/mis/class/:id/complete
func (ctl *ClassSessionController) Complete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.CompleteSessionRequest
	if len(c.Body()) > 0 {
		if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
			return helper.JsonAppError(c, err)
		}
	}

	res, err := ctl.Registry.Complete(c.UserContext(), service.CompleteInput{SessionID: id, Remark: req.Remark})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	msg := "Class marked as completed"
	if !res.Applied {
		msg = "Class remark updated"
	}
	return helper.JsonUpdated(c, msg, d.NewSettlementResponse(res))
}

// PATCH /api/mis/class/:id/cancel
func (ctl *ClassSessionController) Cancel(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.CancelSessionRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}

	res, err := ctl.Registry.Cancel(c.UserContext(), service.CancelInput{
		SessionID:   id,
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	msg := "Class cancelled"
	if !res.Applied {
		msg = "Cancellation updated"
	}
	return helper.JsonUpdated(c, msg, d.NewSettlementResponse(res))
}

/* =========================
   Student & trainer views
   ========================= */

// StudentWindow serves GET /api/classes/{live,upcoming,past} for the caller.
func (ctl *ClassSessionController) StudentWindow(w service.Window) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := helper.GetUserIDFromToken(c)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		rows, err := ctl.Registry.ForStudent(c.UserContext(), uid, w)
		if err != nil {
			return helper.JsonAppError(c, err)
		}
		return helper.JsonOK(c, "ok", d.FromViews(rows))
	}
}

// GET /api/classes/trainer
func (ctl *ClassSessionController) TrainerList(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rows, err := ctl.Registry.ForTrainer(c.UserContext(), uid)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.FromViews(rows))
}
