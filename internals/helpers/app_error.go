package helper

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"lurnex_backend/internals/helpers/apperr"
)

// JsonAppError renders any service error with the standard error envelope.
// Internal details are logged, never sent.
func JsonAppError(c *fiber.Ctx, err error) error {
	var pf *apperr.PartialFailure
	if errors.As(err, &pf) {
		ids := pf.CreatedIDs
		if ids == nil {
			ids = []uuid.UUID{}
		}
		return c.Status(fiber.StatusMultiStatus).JSON(ErrorResponse{
			Success:   false,
			Message:   "request partially applied",
			ErrorCode: "PARTIAL_FAILURE",
			Data: fiber.Map{
				"created_ids":  ids,
				"failed_index": pf.FailedIndex,
				"stage":        pf.Stage,
				"cause":        publicMessage(pf.Err),
			},
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	err = MapDBError(err)
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.Printf("[HTTP] %s %s unhandled error: %v", c.Method(), c.OriginalURL(), err)
		return JsonError(c, fiber.StatusInternalServerError, "internal server error")
	}

	status := StatusForKind(ae.Kind)
	if status >= 500 {
		log.Printf("[HTTP] %s %s %s: %v", c.Method(), c.OriginalURL(), ae.Code, ae)
	}
	if ae.Kind == apperr.KindValidation && len(ae.Fields) > 0 {
		return JsonValidationError(c, ae.Fields)
	}
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Message:   publicMessage(ae),
		ErrorCode: ae.Code,
	})
}

func StatusForKind(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindExternal:
		return fiber.StatusBadGateway
	case apperr.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.KindUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		return ae.Message
	}
	return "internal server error"
}

// MapDBError classifies raw driver errors (pgx / lib/pq) and GORM's translated
// errors into the taxonomy. Anything else passes through unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("duplicate data (unique violation)")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Validation("referenced record not found")
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return fromSQLState(pgxErr.Code, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code), err)
	}
	return err
}

func fromSQLState(code string, err error) error {
	switch code {
	case "23505":
		return apperr.Conflict("duplicate data (unique violation)")
	case "23503":
		return apperr.Validation("referenced record not found")
	case "23514":
		return apperr.Validation("data violates a check constraint")
	}
	return err
}

// ValidationError converts validator.ValidationErrors into a 422 envelope.
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}
	return JsonValidationError(c, FieldErrors(ve))
}

func FieldErrors(ve validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag()
	}
}
