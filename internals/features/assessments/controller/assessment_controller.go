package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	d "lurnex_backend/internals/features/assessments/dto"
	"lurnex_backend/internals/features/assessments/service"
	helper "lurnex_backend/internals/helpers"
)

type AssessmentController struct {
	Service  *service.AssessmentService
	Validate *validator.Validate
}

func New(svc *service.AssessmentService, v *validator.Validate) *AssessmentController {
	if v == nil {
		v = validator.New()
	}
	return &AssessmentController{Service: svc, Validate: v}
}

// POST /api/admin/assessments
func (ctl *AssessmentController) Create(c *fiber.Ctx) error {
	var req d.CreateAssessmentRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	a, err := ctl.Service.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Assessment created", d.NewAssessmentResponse(a, true))
}

// GET /api/admin/assessments
func (ctl *AssessmentController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Service.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromAssessments(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /api/assessments/available
func (ctl *AssessmentController) Available(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rows, err := ctl.Service.Available(c.UserContext(), uid)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.FromAvailable(rows))
}

// GET /api/assessments/completed
func (ctl *AssessmentController) Completed(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rows, err := ctl.Service.Completed(c.UserContext(), uid)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.FromCompleted(rows))
}

// GET /api/assessments/:id
func (ctl *AssessmentController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	a, err := ctl.Service.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.NewAssessmentResponse(a, false))
}

// POST /api/assessments/:id/submit
func (ctl *AssessmentController) Submit(c *fiber.Ctx) error {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.SubmitRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	sub, err := ctl.Service.Submit(c.UserContext(), uid, id, req.Answers)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Assessment submitted", d.NewSubmissionResponse(sub))
}
