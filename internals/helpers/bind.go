package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lurnex_backend/internals/helpers/apperr"
)

// BindJSON parses the body into out and runs struct validation. The returned
// error is ready for JsonAppError.
func BindJSON(c *fiber.Ctx, v *validator.Validate, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return ValidateStruct(v, out)
}

// BindQuery is BindJSON for the query string.
func BindQuery(c *fiber.Ctx, v *validator.Validate, out any) error {
	if err := c.QueryParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	return ValidateStruct(v, out)
}

func ValidateStruct(v *validator.Validate, out any) error {
	err := v.Struct(out)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apperr.ValidationFields(FieldErrors(ve))
	}
	return apperr.Validation("invalid input")
}
