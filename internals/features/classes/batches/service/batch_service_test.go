package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	batchModel "lurnex_backend/internals/features/classes/batches/model"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/testutil"
)

func TestCreateBatchNameIsUniqueOnKey(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, db, "tara")
	timing := "Mon/Wed 10:00"

	b, err := s.Create(ctx, CreateInput{
		Name:        "  Morning  Batch ",
		Assignments: []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &timing}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.BatchName != "Morning  Batch" || b.BatchCourse != DefaultCourse || len(b.Assignments) != 1 {
		t.Errorf("batch = %+v", b)
	}

	valid := []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &timing}}
	for _, name := range []string{"morning batch", "MORNING BATCH", "Mörning Batch"} {
		if _, err := s.Create(ctx, CreateInput{Name: name, Assignments: valid}); !errors.Is(err, apperr.ErrDuplicateBatchName) {
			t.Errorf("%q: want duplicate, got %v", name, err)
		}
	}
	if _, err := s.Create(ctx, CreateInput{Name: "   ", Assignments: valid}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("blank name: %v", err)
	}
}

func TestCreateBatchRejectsNonTrainerAssignment(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	st := testutil.CreateStudent(t, db, "sid", 0, nil)
	missing := uuid.New()
	timing := "Tue 18:00"

	for _, id := range []uuid.UUID{st.ID, missing} {
		id := id
		_, err := s.Create(context.Background(), CreateInput{
			Name:        "Evening " + id.String()[:4],
			Assignments: []AssignmentInput{{Subject: "Physics", TrainerID: &id, Timing: &timing}},
		})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("trainer %s: %v", id, err)
		}
	}
}

func TestBatchAssignmentsAreRequired(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, db, "uma")
	timing := "Fri 17:00"
	blank := "  "

	cases := []struct {
		name string
		in   []AssignmentInput
	}{
		{"none", nil},
		{"empty", []AssignmentInput{}},
		{"no trainer", []AssignmentInput{{Subject: "Math", Timing: &timing}}},
		{"no timing", []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID}}},
		{"blank timing", []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &blank}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(ctx, CreateInput{Name: "Batch " + tc.name, Assignments: tc.in}); apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("create: want validation error, got %v", err)
			}
		})
	}
	var n int64
	db.Model(&batchModel.BatchModel{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d batches created from invalid input", n)
	}

	b, err := s.Create(ctx, CreateInput{Name: "Kept", Assignments: []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &timing}}})
	if err != nil {
		t.Fatal(err)
	}
	empty := []AssignmentInput{}
	if _, err := s.Update(ctx, b.BatchID, UpdateInput{Assignments: &empty}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("replace with none: %v", err)
	}
	noTrainer := []AssignmentInput{{Subject: "Art", Timing: &timing}}
	if _, err := s.Update(ctx, b.BatchID, UpdateInput{Assignments: &noTrainer}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("replace without trainer: %v", err)
	}
	got, err := s.Get(ctx, b.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Assignments) != 1 || got.Assignments[0].BatchAssignmentSubject != "Math" {
		t.Fatalf("assignments changed by rejected update: %+v", got.Assignments)
	}
}

func TestUpdateBatchReplacesAssignments(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, db, "ola")
	timing := "Sat 10:00"
	b, err := s.Create(ctx, CreateInput{
		Name:        "Weekend",
		Assignments: []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &timing}, {Subject: "Chemistry", TrainerID: &tr.ID, Timing: &timing}},
	})
	if err != nil {
		t.Fatal(err)
	}
	other, err := s.Create(ctx, CreateInput{Name: "Weekday", Assignments: []AssignmentInput{{Subject: "Math", TrainerID: &tr.ID, Timing: &timing}}})
	if err != nil {
		t.Fatal(err)
	}

	name := "Weekend Plus"
	inactive := false
	repl := []AssignmentInput{{Subject: "Biology", TrainerID: &tr.ID, Timing: &timing}}
	got, err := s.Update(ctx, b.BatchID, UpdateInput{Name: &name, IsActive: &inactive, Assignments: &repl})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.BatchName != name || got.BatchIsActive {
		t.Errorf("batch = %+v", got)
	}
	if len(got.Assignments) != 1 || got.Assignments[0].BatchAssignmentSubject != "Biology" {
		t.Errorf("assignments = %+v", got.Assignments)
	}

	// renaming onto itself is fine, onto another batch is not
	if _, err := s.Update(ctx, b.BatchID, UpdateInput{Name: &name}); err != nil {
		t.Errorf("self rename: %v", err)
	}
	taken := "weekday"
	if _, err := s.Update(ctx, b.BatchID, UpdateInput{Name: &taken}); !errors.Is(err, apperr.ErrDuplicateBatchName) {
		t.Errorf("rename onto %s: %v", other.BatchName, err)
	}
	if _, err := s.Update(ctx, uuid.New(), UpdateInput{Name: &name}); !errors.Is(err, apperr.ErrBatchNotFound) {
		t.Errorf("missing batch: %v", err)
	}
}

func TestDetailsAndList(t *testing.T) {
	db := testutil.NewDB(t)
	s := New(db)
	ctx := context.Background()
	b := testutil.CreateBatch(t, db, "alpha")
	testutil.CreateBatch(t, db, "beta")
	testutil.CreateStudent(t, db, "zoe", 1, &b.BatchID)
	testutil.CreateStudent(t, db, "amy", 1, &b.BatchID)
	tr := testutil.CreateTrainer(t, db, "tim")

	start := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		row := sessModel.ClassSessionModel{
			ClassSessionTitle:     "Lesson",
			ClassSessionTrainerID: tr.ID,
			ClassSessionStartAt:   start.AddDate(0, 0, 7*(1-i)),
			ClassSessionEndAt:     start.AddDate(0, 0, 7*(1-i)).Add(time.Hour),
			ClassSessionJoinURL:   "https://meet.example/x",
			ClassSessionBatchID:   &b.BatchID,
			ClassSessionStatus:    sessModel.SessionStatusScheduled,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatal(err)
		}
		db.Create(&batchModel.BatchSessionModel{BatchSessionBatchID: b.BatchID, BatchSessionSessionID: row.ClassSessionID})
	}

	det, err := s.Details(ctx, b.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(det.Students) != 2 || det.Students[0].Name != "amy" {
		t.Errorf("students = %+v", det.Students)
	}
	if len(det.Sessions) != 2 || !det.Sessions[0].ClassSessionStartAt.Before(det.Sessions[1].ClassSessionStartAt) {
		t.Errorf("sessions not ordered by start")
	}

	rows, total, err := s.List(ctx, nil, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("list total=%d rows=%d", total, len(rows))
	}
	if rows[0].BatchName != "alpha" || rows[0].StudentCount != 2 || rows[0].SessionCount != 2 {
		t.Errorf("alpha summary = %+v", rows[0])
	}
	rows, _, _ = s.List(ctx, nil, "BET", 10, 0)
	if len(rows) != 1 || rows[0].BatchName != "beta" {
		t.Errorf("search = %+v", rows)
	}
}
