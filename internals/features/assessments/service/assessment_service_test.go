package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/features/assessments/model"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/testutil"
)

func quiz(title string) CreateInput {
	return CreateInput{
		Title:           title,
		DurationMinutes: 30,
		Questions: []model.Question{
			{Text: "2 + 2", Options: []string{"3", "4"}, CorrectAnswer: "4"},
			{Text: "capital of France", Options: []string{"Paris", "Rome", "Oslo"}, CorrectAnswer: "Paris"},
		},
	}
}

func TestCreateAssessmentValidates(t *testing.T) {
	s := New(testutil.NewDB(t))
	ctx := context.Background()

	bad := []CreateInput{
		{Title: " ", DurationMinutes: 10, Questions: quiz("x").Questions},
		{Title: "t", DurationMinutes: 0, Questions: quiz("x").Questions},
		{Title: "t", DurationMinutes: 10},
		{Title: "t", DurationMinutes: 10, Questions: []model.Question{{Text: "q", Options: []string{"a"}, CorrectAnswer: "a"}}},
		{Title: "t", DurationMinutes: 10, Questions: []model.Question{{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}}},
	}
	for i, in := range bad {
		if _, err := s.Create(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("case %d: want validation, got %v", i, err)
		}
	}

	a, err := s.Create(ctx, quiz("  Basics "))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, a.AssessmentID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AssessmentTitle != "Basics" || len(got.AssessmentQuestions) != 2 || got.AssessmentQuestions[1].CorrectAnswer != "Paris" {
		t.Errorf("stored = %+v", got)
	}
	if _, err := s.Get(ctx, uuid.New()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing: %v", err)
	}
}

func TestSubmitMovesAssessmentFromAvailableToCompleted(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	s.Now = func() time.Time { return time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC) }
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "sid", 0, nil)
	other := testutil.CreateStudent(t, db, "ola", 0, nil)

	a1, err := s.Create(ctx, quiz("Week 1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, quiz("Week 2")); err != nil {
		t.Fatalf("create: %v", err)
	}

	avail, err := s.Available(ctx, st.ID)
	if err != nil || len(avail) != 2 {
		t.Fatalf("available = %+v, %v", avail, err)
	}
	if avail[0].Questions != 2 || avail[0].DurationMinutes != 30 {
		t.Errorf("available[0] = %+v", avail[0])
	}

	sub, err := s.Submit(ctx, st.ID, a1.AssessmentID, []string{"4", "Rome"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.SubmissionScore != "1/2" {
		t.Errorf("score = %q", sub.SubmissionScore)
	}

	avail, _ = s.Available(ctx, st.ID)
	if len(avail) != 1 || avail[0].Title != "Week 2" {
		t.Errorf("available after submit = %+v", avail)
	}
	done, err := s.Completed(ctx, st.ID)
	if err != nil || len(done) != 1 {
		t.Fatalf("completed = %+v, %v", done, err)
	}
	if done[0].ID != a1.AssessmentID || done[0].Score != "1/2" || done[0].Date.UTC().Format("2006-01-02") != "2026-01-05" {
		t.Errorf("completed[0] = %+v", done[0])
	}

	// other students are unaffected
	if avail, _ := s.Available(ctx, other.ID); len(avail) != 2 {
		t.Errorf("other available = %d", len(avail))
	}
	if done, _ := s.Completed(ctx, other.ID); len(done) != 0 {
		t.Errorf("other completed = %+v", done)
	}
}

func TestSubmitRejectsDuplicatesAndWrongAnswerCount(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "sid", 0, nil)
	a, err := s.Create(ctx, quiz("Week 1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Submit(ctx, st.ID, a.AssessmentID, []string{"4"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("short answers: %v", err)
	}
	if _, err := s.Submit(ctx, st.ID, uuid.New(), []string{"4", "Paris"}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing assessment: %v", err)
	}
	if _, err := s.Submit(ctx, st.ID, a.AssessmentID, []string{"4", "Paris"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.Submit(ctx, st.ID, a.AssessmentID, []string{"3", "Oslo"}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("resubmit: %v", err)
	}

	done, _ := s.Completed(ctx, st.ID)
	if len(done) != 1 || done[0].Score != "2/2" {
		t.Errorf("completed = %+v", done)
	}
}
