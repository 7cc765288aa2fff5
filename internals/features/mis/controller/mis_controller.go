package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	d "lurnex_backend/internals/features/mis/dto"
	"lurnex_backend/internals/features/mis/service"
	helper "lurnex_backend/internals/helpers"
)

type MISController struct {
	Service  *service.MISService
	Validate *validator.Validate
}

func New(svc *service.MISService, v *validator.Validate) *MISController {
	if v == nil {
		v = validator.New()
	}
	return &MISController{Service: svc, Validate: v}
}

// GET /api/mis/stats
func (ctl *MISController) Stats(c *fiber.Ctx) error {
	s, err := ctl.Service.Stats(c.UserContext())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.NewStatsResponse(s))
}

// GET /api/mis/trainer-history
func (ctl *MISController) TeachingHistory(c *fiber.Ctx) error {
	var q d.HistoryQuery
	if err := helper.BindQuery(c, ctl.Validate, &q); err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Service.TeachingHistory(c.UserContext(), q.ToFilter(), p.Limit, p.Offset)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "ok", d.FromHistory(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /api/admin/stats
func (ctl *MISController) Dashboard(c *fiber.Ctx) error {
	s, err := ctl.Service.Dashboard(c.UserContext())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", d.NewDashboardResponse(s))
}
