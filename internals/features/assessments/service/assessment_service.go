package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lurnex_backend/internals/features/assessments/model"
	"lurnex_backend/internals/helpers/apperr"
)

var ErrAlreadySubmitted = &apperr.Error{Kind: apperr.KindConflict, Code: "ASSESSMENT_ALREADY_SUBMITTED", Message: "assessment was already submitted"}

type AssessmentService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func New(db *gorm.DB) *AssessmentService {
	return &AssessmentService{DB: db, Now: time.Now}
}

type CreateInput struct {
	Title           string
	DurationMinutes int
	Questions       []model.Question
}

type Available struct {
	ID              uuid.UUID
	Title           string
	Questions       int
	DurationMinutes int
}

type Completed struct {
	ID    uuid.UUID
	Title string
	Score string
	Date  time.Time
}

/* =========================
   Admin
========================= */

func (s *AssessmentService) Create(ctx context.Context, in CreateInput) (*model.AssessmentModel, error) {
	title := strings.TrimSpace(in.Title)
	fields := map[string][]string{}
	if title == "" {
		fields["title"] = append(fields["title"], "is required")
	}
	if in.DurationMinutes <= 0 {
		fields["duration_minutes"] = append(fields["duration_minutes"], "must be positive")
	}
	if len(in.Questions) == 0 {
		fields["questions"] = append(fields["questions"], "at least one question is required")
	}
	qs := make([]model.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		key := fmt.Sprintf("questions[%d]", i)
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			fields[key] = append(fields[key], "question text is required")
		}
		if len(q.Options) < 2 {
			fields[key] = append(fields[key], "at least two options are required")
		}
		if !containsOption(q.Options, q.CorrectAnswer) {
			fields[key] = append(fields[key], "correct answer must be one of the options")
		}
		qs = append(qs, q)
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	a := model.AssessmentModel{
		AssessmentTitle:           title,
		AssessmentDurationMinutes: in.DurationMinutes,
		AssessmentQuestions:       qs,
	}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssessmentService) List(ctx context.Context, limit, offset int) ([]model.AssessmentModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.AssessmentModel{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.AssessmentModel
	err := q.Order("assessment_created_at DESC, assessment_id").
		Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (s *AssessmentService) Get(ctx context.Context, id uuid.UUID) (*model.AssessmentModel, error) {
	var a model.AssessmentModel
	if err := s.DB.WithContext(ctx).Where("assessment_id = ?", id).Take(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assessment %s not found", id)
		}
		return nil, err
	}
	return &a, nil
}

/* =========================
   Student
========================= */

// Available lists assessments the student has not submitted yet, newest first.
func (s *AssessmentService) Available(ctx context.Context, studentID uuid.UUID) ([]Available, error) {
	var rows []model.AssessmentModel
	err := s.DB.WithContext(ctx).
		Where("assessment_id NOT IN (?)", s.DB.Model(&model.SubmissionModel{}).
			Select("submission_assessment_id").
			Where("submission_student_id = ?", studentID)).
		Order("assessment_created_at DESC, assessment_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Available, 0, len(rows))
	for _, a := range rows {
		out = append(out, Available{
			ID:              a.AssessmentID,
			Title:           a.AssessmentTitle,
			Questions:       len(a.AssessmentQuestions),
			DurationMinutes: a.AssessmentDurationMinutes,
		})
	}
	return out, nil
}

// Completed lists the student's submissions, most recent first.
func (s *AssessmentService) Completed(ctx context.Context, studentID uuid.UUID) ([]Completed, error) {
	var rows []struct {
		ID          uuid.UUID `gorm:"column:id"`
		Title       string    `gorm:"column:title"`
		Score       string    `gorm:"column:score"`
		SubmittedAt time.Time `gorm:"column:submitted_at"`
	}
	err := s.DB.WithContext(ctx).
		Table("assessment_submissions AS s").
		Select("a.assessment_id AS id, a.assessment_title AS title, s.submission_score AS score, s.submission_submitted_at AS submitted_at").
		Joins("JOIN assessments AS a ON a.assessment_id = s.submission_assessment_id").
		Where("s.submission_student_id = ?", studentID).
		Order("s.submission_submitted_at DESC, a.assessment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Completed, 0, len(rows))
	for _, r := range rows {
		out = append(out, Completed{ID: r.ID, Title: r.Title, Score: r.Score, Date: r.SubmittedAt})
	}
	return out, nil
}

// Submit grades answers positionally and records a "correct/total" score.
// A student submits each assessment once.
func (s *AssessmentService) Submit(ctx context.Context, studentID, assessmentID uuid.UUID, answers []string) (*model.SubmissionModel, error) {
	var sub model.SubmissionModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.AssessmentModel
		if err := tx.Where("assessment_id = ?", assessmentID).Take(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assessment %s not found", assessmentID)
			}
			return err
		}
		if len(answers) != len(a.AssessmentQuestions) {
			return apperr.ValidationFields(map[string][]string{
				"answers": {fmt.Sprintf("expected %d answers, got %d", len(a.AssessmentQuestions), len(answers))},
			})
		}

		var n int64
		if err := tx.Model(&model.SubmissionModel{}).
			Where("submission_assessment_id = ? AND submission_student_id = ?", assessmentID, studentID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadySubmitted
		}

		correct := 0
		for i, q := range a.AssessmentQuestions {
			if answers[i] == q.CorrectAnswer {
				correct++
			}
		}
		sub = model.SubmissionModel{
			SubmissionAssessmentID: assessmentID,
			SubmissionStudentID:    studentID,
			SubmissionScore:        fmt.Sprintf("%d/%d", correct, len(a.AssessmentQuestions)),
			SubmissionSubmittedAt:  s.Now().UTC(),
		}
		return tx.Create(&sub).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadySubmitted
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func containsOption(opts []string, answer string) bool {
	for _, o := range opts {
		if o == answer {
			return true
		}
	}
	return false
}
