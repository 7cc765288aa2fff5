package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchModel struct {
	BatchID       uuid.UUID `gorm:"type:uuid;primaryKey;column:batch_id" json:"batch_id"`
	BatchName     string    `gorm:"type:varchar(120);not null;column:batch_name" json:"batch_name"`
	BatchNameKey  string    `gorm:"type:varchar(120);not null;uniqueIndex:uq_batches_name_key;column:batch_name_key" json:"-"`
	BatchCourse   string    `gorm:"type:varchar(120);not null;default:'General';column:batch_course" json:"batch_course"`
	BatchIsActive bool      `gorm:"not null;default:true;column:batch_is_active" json:"batch_is_active"`

	BatchCreatedAt time.Time `gorm:"autoCreateTime;column:batch_created_at" json:"batch_created_at"`
	BatchUpdatedAt time.Time `gorm:"autoUpdateTime;column:batch_updated_at" json:"batch_updated_at"`

	Assignments []BatchAssignmentModel `gorm:"foreignKey:BatchAssignmentBatchID;references:BatchID" json:"batch_assignments,omitempty"`
}

func (BatchModel) TableName() string { return "batches" }

func (b *BatchModel) BeforeCreate(tx *gorm.DB) error {
	if b.BatchID == uuid.Nil {
		b.BatchID = uuid.New()
	}
	return nil
}

// BatchAssignmentModel pairs a subject with the trainer teaching it in a batch.
type BatchAssignmentModel struct {
	BatchAssignmentID        uuid.UUID  `gorm:"type:uuid;primaryKey;column:batch_assignment_id" json:"batch_assignment_id"`
	BatchAssignmentBatchID   uuid.UUID  `gorm:"type:uuid;not null;index;column:batch_assignment_batch_id" json:"batch_assignment_batch_id"`
	BatchAssignmentSubject   string     `gorm:"type:varchar(120);not null;column:batch_assignment_subject" json:"batch_assignment_subject"`
	BatchAssignmentTrainerID *uuid.UUID `gorm:"type:uuid;column:batch_assignment_trainer_id" json:"batch_assignment_trainer_id,omitempty"`
	BatchAssignmentTiming    *string    `gorm:"type:varchar(120);column:batch_assignment_timing" json:"batch_assignment_timing,omitempty"`
}

func (BatchAssignmentModel) TableName() string { return "batch_assignments" }

func (a *BatchAssignmentModel) BeforeCreate(tx *gorm.DB) error {
	if a.BatchAssignmentID == uuid.Nil {
		a.BatchAssignmentID = uuid.New()
	}
	return nil
}

// BatchSessionModel is the batch's own index of sessions scheduled for it.
// Append-only set: (batch, session) is unique.
type BatchSessionModel struct {
	BatchSessionBatchID   uuid.UUID `gorm:"type:uuid;primaryKey;column:batch_session_batch_id" json:"batch_id"`
	BatchSessionSessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:batch_session_session_id" json:"session_id"`
	BatchSessionCreatedAt time.Time `gorm:"autoCreateTime;column:batch_session_created_at" json:"created_at"`
}

func (BatchSessionModel) TableName() string { return "batch_sessions" }
