package dto

import (
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/features/assessments/model"
	"lurnex_backend/internals/features/assessments/service"
)

type QuestionRequest struct {
	Text          string   `json:"question_text"  validate:"required,max=1000"`
	Options       []string `json:"options"        validate:"required,min=2,max=10,dive,required,max=300"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,max=300"`
}

type CreateAssessmentRequest struct {
	Title           string            `json:"title"            validate:"required,min=1,max=200"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,min=1,max=600"`
	Questions       []QuestionRequest `json:"questions"        validate:"required,min=1,dive"`
}

func (r CreateAssessmentRequest) ToInput() service.CreateInput {
	qs := make([]model.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		qs = append(qs, model.Question{Text: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer})
	}
	return service.CreateInput{Title: r.Title, DurationMinutes: r.DurationMinutes, Questions: qs}
}

type SubmitRequest struct {
	Answers []string `json:"answers" validate:"required,min=1"`
}

/* =========================
   Responses
========================= */

type AvailableResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Questions int       `json:"questions"`
	Duration  int       `json:"duration"`
}

func FromAvailable(rows []service.Available) []AvailableResponse {
	out := make([]AvailableResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, AvailableResponse{
			ID:        a.ID,
			Title:     a.Title,
			Questions: a.Questions,
			Duration:  a.DurationMinutes,
		})
	}
	return out
}

type CompletedResponse struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Score string    `json:"score"`
	Date  string    `json:"date"`
}

func FromCompleted(rows []service.Completed) []CompletedResponse {
	out := make([]CompletedResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, CompletedResponse{ID: c.ID, Title: c.Title, Score: c.Score, Date: c.Date.UTC().Format("2006-01-02")})
	}
	return out
}

// QuestionView hides the correct answer from students.
type QuestionView struct {
	Text    string   `json:"question_text"`
	Options []string `json:"options"`
}

type AssessmentResponse struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	DurationMinutes int              `json:"duration_minutes"`
	Questions       []QuestionView   `json:"questions,omitempty"`
	Answers         []model.Question `json:"answer_key,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewAssessmentResponse includes the answer key only when withKey is set.
func NewAssessmentResponse(a *model.AssessmentModel, withKey bool) AssessmentResponse {
	r := AssessmentResponse{
		ID:              a.AssessmentID,
		Title:           a.AssessmentTitle,
		DurationMinutes: a.AssessmentDurationMinutes,
		CreatedAt:       a.AssessmentCreatedAt,
	}
	if withKey {
		r.Answers = a.AssessmentQuestions
		return r
	}
	r.Questions = make([]QuestionView, 0, len(a.AssessmentQuestions))
	for _, q := range a.AssessmentQuestions {
		r.Questions = append(r.Questions, QuestionView{Text: q.Text, Options: q.Options})
	}
	return r
}

func FromAssessments(rows []model.AssessmentModel) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewAssessmentResponse(&rows[i], true))
	}
	return out
}

type SubmissionResponse struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	Score        string    `json:"score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

func NewSubmissionResponse(s *model.SubmissionModel) SubmissionResponse {
	return SubmissionResponse{AssessmentID: s.SubmissionAssessmentID, Score: s.SubmissionScore, SubmittedAt: s.SubmissionSubmittedAt}
}
