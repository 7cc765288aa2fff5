package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

const (
	CancelledByStudent = "student"
	CancelledByTrainer = "trainer"
	CancelledByAdmin   = "admin"
)

// ClassSessionModel is one concrete, bookable meeting. Status only moves
// scheduled -> completed or scheduled -> cancelled. Roster binding (batch or
// explicit students) is fixed at creation.
type ClassSessionModel struct {
	ClassSessionID        uuid.UUID  `gorm:"type:uuid;primaryKey;column:class_session_id" json:"class_session_id"`
	ClassSessionTitle     string     `gorm:"type:varchar(200);not null;column:class_session_title" json:"class_session_title"`
	ClassSessionTrainerID uuid.UUID  `gorm:"type:uuid;not null;index:idx_class_sessions_trainer;column:class_session_trainer_id" json:"class_session_trainer_id"`
	ClassSessionStartAt   time.Time  `gorm:"not null;index:idx_class_sessions_start;column:class_session_start_at" json:"class_session_start_at"`
	ClassSessionEndAt     time.Time  `gorm:"not null;column:class_session_end_at" json:"class_session_end_at"`
	ClassSessionJoinURL   string     `gorm:"type:text;not null;column:class_session_join_url" json:"class_session_join_url"`
	ClassSessionRecording *string    `gorm:"type:text;column:class_session_recording_url" json:"class_session_recording_url,omitempty"`
	ClassSessionBatchID   *uuid.UUID `gorm:"type:uuid;column:class_session_batch_id" json:"class_session_batch_id,omitempty"`
	ClassSessionSeriesID  *uuid.UUID `gorm:"type:uuid;column:class_session_series_id" json:"class_session_series_id,omitempty"`

	ClassSessionRecurrenceSnapshot datatypes.JSONMap `gorm:"column:class_session_recurrence_snapshot" json:"class_session_recurrence_snapshot,omitempty"`

	ClassSessionStatus       SessionStatus `gorm:"type:varchar(16);not null;default:'scheduled';column:class_session_status" json:"class_session_status"`
	ClassSessionRemark       *string       `gorm:"type:text;column:class_session_remark" json:"class_session_remark,omitempty"`
	ClassSessionCompletedAt  *time.Time    `gorm:"column:class_session_completed_at" json:"class_session_completed_at,omitempty"`
	ClassSessionCancelledAt  *time.Time    `gorm:"column:class_session_cancelled_at" json:"class_session_cancelled_at,omitempty"`
	ClassSessionCancelReason *string       `gorm:"type:text;column:class_session_cancel_reason" json:"class_session_cancel_reason,omitempty"`
	ClassSessionCancelledBy  *string       `gorm:"type:varchar(16);column:class_session_cancelled_by" json:"class_session_cancelled_by,omitempty"`

	ClassSessionCreatedAt time.Time `gorm:"autoCreateTime;column:class_session_created_at" json:"class_session_created_at"`
	ClassSessionUpdatedAt time.Time `gorm:"autoUpdateTime;column:class_session_updated_at" json:"class_session_updated_at"`
}

func (ClassSessionModel) TableName() string { return "class_sessions" }

func (s *ClassSessionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ClassSessionID == uuid.Nil {
		s.ClassSessionID = uuid.New()
	}
	return nil
}

func (s *ClassSessionModel) IsTerminal() bool {
	return s.ClassSessionStatus == SessionStatusCompleted || s.ClassSessionStatus == SessionStatusCancelled
}

// SessionStudentModel is the explicit roster of a session not bound to a batch.
type SessionStudentModel struct {
	SessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:class_session_student_session_id"`
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey;column:class_session_student_student_id"`
	Position  int       `gorm:"not null;default:0;column:class_session_student_position"`
}

func (SessionStudentModel) TableName() string { return "class_session_students" }

// StudentEnrollmentModel is a student's own index of sessions they were
// enrolled into. Append-only set.
type StudentEnrollmentModel struct {
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey;column:student_enrollment_student_id"`
	SessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:student_enrollment_session_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:student_enrollment_created_at"`
}

func (StudentEnrollmentModel) TableName() string { return "student_enrollments" }
