package dto

import (
	"time"

	"github.com/google/uuid"

	batchModel "lurnex_backend/internals/features/classes/batches/model"
	"lurnex_backend/internals/features/classes/batches/service"
	sessDto "lurnex_backend/internals/features/classes/class_sessions/dto"
	authDto "lurnex_backend/internals/features/users/auth/dto"
)

type AssignmentRequest struct {
	Subject   string     `json:"subject"    validate:"required,max=120"`
	TrainerID *uuid.UUID `json:"trainer_id" validate:"required"`
	Timing    *string    `json:"timing"     validate:"required,min=1,max=120"`
}

type CreateBatchRequest struct {
	Name        string              `json:"name"        validate:"required,min=1,max=120"`
	Course      string              `json:"course"      validate:"omitempty,max=120"`
	Assignments []AssignmentRequest `json:"assignments" validate:"required,min=1,dive"`
}

type UpdateBatchRequest struct {
	Name        *string              `json:"name"        validate:"omitempty,min=1,max=120"`
	Course      *string              `json:"course"      validate:"omitempty,max=120"`
	IsActive    *bool                `json:"is_active"`
	Assignments *[]AssignmentRequest `json:"assignments" validate:"omitempty,min=1,dive"`
}

type ListQuery struct {
	Active string `query:"active" validate:"omitempty,oneof=true false"`
	Q      string `query:"q"      validate:"omitempty,max=120"`
}

func (q ListQuery) ActiveFilter() *bool {
	if q.Active == "" {
		return nil
	}
	v := q.Active == "true"
	return &v
}

func toAssignments(in []AssignmentRequest) []service.AssignmentInput {
	out := make([]service.AssignmentInput, 0, len(in))
	for _, a := range in {
		out = append(out, service.AssignmentInput{Subject: a.Subject, TrainerID: a.TrainerID, Timing: a.Timing})
	}
	return out
}

func (r CreateBatchRequest) ToInput() service.CreateInput {
	return service.CreateInput{Name: r.Name, Course: r.Course, Assignments: toAssignments(r.Assignments)}
}

func (r UpdateBatchRequest) ToInput() service.UpdateInput {
	in := service.UpdateInput{Name: r.Name, Course: r.Course, IsActive: r.IsActive}
	if r.Assignments != nil {
		a := toAssignments(*r.Assignments)
		in.Assignments = &a
	}
	return in
}

/* =========================
   Responses
========================= */

type AssignmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	Subject   string     `json:"subject"`
	TrainerID *uuid.UUID `json:"trainer_id,omitempty"`
	Timing    *string    `json:"timing,omitempty"`
}

type BatchResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Course       string               `json:"course"`
	IsActive     bool                 `json:"is_active"`
	Assignments  []AssignmentResponse `json:"assignments"`
	StudentCount *int64               `json:"student_count,omitempty"`
	SessionCount *int64               `json:"session_count,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func NewBatchResponse(b *batchModel.BatchModel) BatchResponse {
	out := BatchResponse{
		ID:          b.BatchID,
		Name:        b.BatchName,
		Course:      b.BatchCourse,
		IsActive:    b.BatchIsActive,
		Assignments: make([]AssignmentResponse, 0, len(b.Assignments)),
		CreatedAt:   b.BatchCreatedAt,
		UpdatedAt:   b.BatchUpdatedAt,
	}
	for _, a := range b.Assignments {
		out.Assignments = append(out.Assignments, AssignmentResponse{
			ID:        a.BatchAssignmentID,
			Subject:   a.BatchAssignmentSubject,
			TrainerID: a.BatchAssignmentTrainerID,
			Timing:    a.BatchAssignmentTiming,
		})
	}
	return out
}

func FromSummaries(rows []service.Summary) []BatchResponse {
	out := make([]BatchResponse, 0, len(rows))
	for i := range rows {
		r := NewBatchResponse(&rows[i].BatchModel)
		sc, ss := rows[i].StudentCount, rows[i].SessionCount
		r.StudentCount, r.SessionCount = &sc, &ss
		out = append(out, r)
	}
	return out
}

type BatchDetailsResponse struct {
	BatchResponse
	Students []authDto.AccountResponse `json:"students"`
	Sessions []sessDto.SessionResponse `json:"sessions"`
}

func NewBatchDetailsResponse(d *service.Details) BatchDetailsResponse {
	out := BatchDetailsResponse{
		BatchResponse: NewBatchResponse(&d.Batch),
		Students:      make([]authDto.AccountResponse, 0, len(d.Students)),
		Sessions:      sessDto.FromModels(d.Sessions),
	}
	for i := range d.Students {
		out.Students = append(out.Students, authDto.NewAccountResponse(&d.Students[i]))
	}
	sc, ss := int64(len(d.Students)), int64(len(d.Sessions))
	out.StudentCount, out.SessionCount = &sc, &ss
	return out
}
