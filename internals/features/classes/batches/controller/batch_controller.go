package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	d "lurnex_backend/internals/features/classes/batches/dto"
	"lurnex_backend/internals/features/classes/batches/service"
	helper "lurnex_backend/internals/helpers"
)

type BatchController struct {
	Service  *service.BatchService
	Validate *validator.Validate
}

func New(svc *service.BatchService, v *validator.Validate) *BatchController {
	if v == nil {
		v = validator.New()
	}
	return &BatchController{Service: svc, Validate: v}
}

// POST /api/admin/batches
func (ctl *BatchController) Create(c *fiber.Ctx) error {
	var req d.CreateBatchRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := ctl.Service.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "Batch created", d.NewBatchResponse(b))
}

// GET /api/admin/batches
func (ctl *BatchController) List(c *fiber.Ctx) error {
	var q d.ListQuery
	if err := helper.BindQuery(c, ctl.Validate, &q); err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 200)
	rows, total, err := ctl.Service.List(c.UserContext(), q.ActiveFilter(), q.Q, p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromSummaries(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /api/admin/batches/:id
func (ctl *BatchController) Details(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	det, err := ctl.Service.Details(c.UserContext(), id)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.NewBatchDetailsResponse(det))
}

// PATCH /api/admin/batches/:id
func (ctl *BatchController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req d.UpdateBatchRequest
	if err := helper.BindJSON(c, ctl.Validate, &req); err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := ctl.Service.Update(c.UserContext(), id, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "Batch updated", d.NewBatchResponse(b))
}
