package dto

import (
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/constants"
	accModel "lurnex_backend/internals/features/users/accounts/model"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role"     validate:"required,oneof=student trainer admin"`
}

type RegisterStudentRequest struct {
	Name   string  `json:"name"   validate:"required,min=2,max=120"`
	Email  string  `json:"email"  validate:"required,email,max=255"`
	Mobile *string `json:"mobile" validate:"omitempty,max=32"`
	Course *string `json:"course" validate:"omitempty,max=120"`
	Grade  *string `json:"grade"  validate:"omitempty,max=60"`
	School *string `json:"school" validate:"omitempty,max=160"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name"   validate:"omitempty,min=2,max=120"`
	Mobile *string `json:"mobile" validate:"omitempty,max=32"`
	Course *string `json:"course" validate:"omitempty,max=120"`
	Grade  *string `json:"grade"  validate:"omitempty,max=60"`
	School *string `json:"school" validate:"omitempty,max=160"`
}

type AccountResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	Status              string     `json:"status"`
	IsTemporaryPassword bool       `json:"is_temporary_password"`
	Mobile              *string    `json:"mobile,omitempty"`
	Course              *string    `json:"course,omitempty"`
	Grade               *string    `json:"grade,omitempty"`
	School              *string    `json:"school,omitempty"`
	Subject             *string    `json:"subject,omitempty"`
	ProfilePictureURL   *string    `json:"profile_picture_url,omitempty"`
	HoursBalance        *string    `json:"hours_balance,omitempty"`
	HoursTaught         *string    `json:"hours_taught,omitempty"`
	BatchID             *uuid.UUID `json:"batch_id,omitempty"`
	IsOneOnOne          bool       `json:"is_one_on_one"`
	CreatedAt           time.Time  `json:"created_at"`
}

// NewAccountResponse shows the balance fields relevant to the account's role.
func NewAccountResponse(a *accModel.AccountModel) AccountResponse {
	out := AccountResponse{
		ID:                  a.ID,
		Name:                a.Name,
		Email:               a.Email,
		Role:                a.Role,
		Status:              a.Status,
		IsTemporaryPassword: a.IsTemporaryPassword,
		Mobile:              a.Mobile,
		Course:              a.Course,
		Grade:               a.Grade,
		School:              a.School,
		Subject:             a.Subject,
		ProfilePictureURL:   a.ProfilePictureURL,
		BatchID:             a.BatchID,
		IsOneOnOne:          a.IsOneOnOne,
		CreatedAt:           a.CreatedAt,
	}
	switch a.Role {
	case constants.RoleStudent:
		v := a.HoursBalance.StringFixed(2)
		out.HoursBalance = &v
	case constants.RoleTrainer:
		v := a.HoursTaught.StringFixed(2)
		out.HoursTaught = &v
	}
	return out
}

type LoginResponse struct {
	Token               string          `json:"token"`
	ExpiresAt           time.Time       `json:"expires_at"`
	IsTemporaryPassword bool            `json:"is_temporary_password"`
	User                AccountResponse `json:"user"`
}
