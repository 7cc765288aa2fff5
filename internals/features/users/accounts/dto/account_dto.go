package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerModel "lurnex_backend/internals/features/ledger/model"
	"lurnex_backend/internals/features/users/accounts/service"
	authDto "lurnex_backend/internals/features/users/auth/dto"
	"lurnex_backend/internals/helpers/apperr"
)

/* =========================
   Requests
========================= */

type CreateStudentRequest struct {
	Name         string           `json:"name"          validate:"required,min=2,max=120"`
	Email        string           `json:"email"         validate:"required,email,max=255"`
	Mobile       *string          `json:"mobile"        validate:"omitempty,max=32"`
	Course       *string          `json:"course"        validate:"omitempty,max=120"`
	Grade        *string          `json:"grade"         validate:"omitempty,max=60"`
	School       *string          `json:"school"        validate:"omitempty,max=160"`
	HoursBalance *decimal.Decimal `json:"hours_balance"`
	BatchID      *uuid.UUID       `json:"batch_id"`
	IsOneOnOne   bool             `json:"is_one_on_one"`
}

func (r CreateStudentRequest) ToInput() service.CreateStudentInput {
	in := service.CreateStudentInput{
		Name:       r.Name,
		Email:      r.Email,
		Mobile:     r.Mobile,
		Course:     r.Course,
		Grade:      r.Grade,
		School:     r.School,
		BatchID:    r.BatchID,
		IsOneOnOne: r.IsOneOnOne,
	}
	if r.HoursBalance != nil {
		in.OpeningBalance = r.HoursBalance.Round(2)
	}
	return in
}

type CreateTrainerRequest struct {
	Name    string  `json:"name"    validate:"required,min=2,max=120"`
	Email   string  `json:"email"   validate:"required,email,max=255"`
	Mobile  *string `json:"mobile"  validate:"omitempty,max=32"`
	Subject *string `json:"subject" validate:"omitempty,max=120"`
}

// UpdateAccountRequest is shared by students and trainers. Password, when
// present, is an admin reset.
type UpdateAccountRequest struct {
	Name         *string          `json:"name"          validate:"omitempty,min=2,max=120"`
	Email        *string          `json:"email"         validate:"omitempty,email,max=255"`
	Mobile       *string          `json:"mobile"        validate:"omitempty,max=32"`
	Course       *string          `json:"course"        validate:"omitempty,max=120"`
	Grade        *string          `json:"grade"         validate:"omitempty,max=60"`
	School       *string          `json:"school"        validate:"omitempty,max=160"`
	Subject      *string          `json:"subject"       validate:"omitempty,max=120"`
	HoursBalance *decimal.Decimal `json:"hours_balance"`
	Password     *string          `json:"password"      validate:"omitempty,min=8,max=72"`
}

func (r UpdateAccountRequest) ToInput() service.UpdateInput {
	return service.UpdateInput{
		Name:         r.Name,
		Email:        r.Email,
		Mobile:       r.Mobile,
		Course:       r.Course,
		Grade:        r.Grade,
		School:       r.School,
		Subject:      r.Subject,
		HoursBalance: r.HoursBalance,
	}
}

type AddHoursRequest struct {
	Hours        decimal.Decimal `json:"hours"`
	PurchaseDate string          `json:"purchase_date" validate:"required"`
	Note         string          `json:"note"          validate:"omitempty,max=500"`
}

// ToInput accepts YYYY-MM-DD or RFC3339 for the purchase date.
func (r AddHoursRequest) ToInput() (service.AddHoursInput, error) {
	raw := strings.TrimSpace(r.PurchaseDate)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return service.AddHoursInput{}, apperr.ValidationFields(map[string][]string{
			"purchase_date": {"must be YYYY-MM-DD or RFC3339"},
		})
	}
	return service.AddHoursInput{Hours: r.Hours, PurchaseDate: t, Note: r.Note}, nil
}

type TransferRequest struct {
	BatchID    *uuid.UUID `json:"batch_id"`
	IsOneOnOne bool       `json:"is_one_on_one"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid"`
}

type SetPasswordRequest struct {
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	IsTemporary bool   `json:"is_temporary"`
}

type ListQuery struct {
	Status  string `query:"status"   validate:"omitempty,oneof=pending paid"`
	BatchID string `query:"batch_id" validate:"omitempty,uuid"`
	Q       string `query:"q"        validate:"omitempty,max=120"`
}

func (q ListQuery) ToFilter(role string) service.ListFilter {
	f := service.ListFilter{Role: role, Status: q.Status, Search: q.Q}
	if id, err := uuid.Parse(q.BatchID); err == nil {
		f.BatchID = &id
	}
	return f
}

/* =========================
   Responses
========================= */

type CredentialsResponse struct {
	authDto.AccountResponse
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

func NewCredentialsResponse(c *service.Credentials) CredentialsResponse {
	return CredentialsResponse{
		AccountResponse:   authDto.NewAccountResponse(&c.Account),
		TemporaryPassword: c.TemporaryPassword,
	}
}

type LedgerEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	Delta         string     `json:"delta"`
	EffectiveDate time.Time  `json:"effective_date"`
	Note          string     `json:"note"`
	CreatedAt     time.Time  `json:"created_at"`
}

func FromHoursEntries(rows []ledgerModel.HoursLedgerEntryModel) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, LedgerEntryResponse{
			ID:            r.ID,
			Delta:         r.Delta.StringFixed(2),
			EffectiveDate: r.EffectiveDate,
			Note:          r.Note,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

func FromTeachingEntries(rows []ledgerModel.TeachingLedgerEntryModel) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, LedgerEntryResponse{
			ID:            r.ID,
			SessionID:     r.SessionID,
			Delta:         r.Delta.StringFixed(2),
			EffectiveDate: r.EffectiveDate,
			Note:          r.Note,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}
