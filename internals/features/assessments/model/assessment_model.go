package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is stored inline on its assessment. CorrectAnswer never leaves
// the service in student-facing responses.
type Question struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type AssessmentModel struct {
	AssessmentID              uuid.UUID                     `gorm:"type:uuid;primaryKey;column:assessment_id" json:"assessment_id"`
	AssessmentTitle           string                        `gorm:"type:varchar(200);not null;column:assessment_title" json:"assessment_title"`
	AssessmentDurationMinutes int                           `gorm:"not null;column:assessment_duration_minutes" json:"assessment_duration_minutes"`
	AssessmentQuestions       datatypes.JSONSlice[Question] `gorm:"column:assessment_questions" json:"assessment_questions"`
	AssessmentCreatedAt       time.Time                     `gorm:"autoCreateTime;column:assessment_created_at" json:"assessment_created_at"`
}

func (AssessmentModel) TableName() string { return "assessments" }

func (a *AssessmentModel) BeforeCreate(tx *gorm.DB) error {
	if a.AssessmentID == uuid.Nil {
		a.AssessmentID = uuid.New()
	}
	return nil
}

// SubmissionModel is a student's single attempt at an assessment.
type SubmissionModel struct {
	SubmissionID           uuid.UUID `gorm:"type:uuid;primaryKey;column:submission_id" json:"submission_id"`
	SubmissionAssessmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_submission_student_assessment,priority:2;column:submission_assessment_id" json:"submission_assessment_id"`
	SubmissionStudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_submission_student_assessment,priority:1;column:submission_student_id" json:"submission_student_id"`
	SubmissionScore        string    `gorm:"type:varchar(32);not null;column:submission_score" json:"submission_score"`
	SubmissionSubmittedAt  time.Time `gorm:"not null;column:submission_submitted_at" json:"submission_submitted_at"`
}

func (SubmissionModel) TableName() string { return "assessment_submissions" }

func (s *SubmissionModel) BeforeCreate(tx *gorm.DB) error {
	if s.SubmissionID == uuid.Nil {
		s.SubmissionID = uuid.New()
	}
	return nil
}
