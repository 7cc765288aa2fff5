package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lurnex_backend/internals/constants"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	sessSvc "lurnex_backend/internals/features/classes/class_sessions/service"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	"lurnex_backend/internals/testutil"
)

func TestStatsAndHistory(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	reg := sessSvc.New(db, nil, ledgerSvc.New(db), nil, nil, sessSvc.Options{Now: func() time.Time { return now }})
	s := New(db, reg)
	s.Now = func() time.Time { return now }

	b := testutil.CreateBatch(t, db, "core")
	testutil.CreateStudent(t, db, "ana", 4, &b.BatchID)
	testutil.CreateStudent(t, db, "ben", 2.5, &b.BatchID)
	pending := testutil.CreateStudent(t, db, "cal", 9, nil)
	db.Model(&accModel.AccountModel{}).Where("id = ?", pending.ID).Update("status", constants.StatusPending)
	tr := testutil.CreateTrainer(t, db, "tess")
	db.Model(&accModel.AccountModel{}).Where("id = ?", tr.ID).Update("hours_taught", decimal.NewFromFloat(3))

	mk := func(start time.Time, status sessModel.SessionStatus) sessModel.ClassSessionModel {
		row := sessModel.ClassSessionModel{
			ClassSessionID:        uuid.New(),
			ClassSessionTitle:     "Geometry",
			ClassSessionTrainerID: tr.ID,
			ClassSessionStartAt:   start,
			ClassSessionEndAt:     start.Add(90 * time.Minute),
			ClassSessionJoinURL:   "https://meet.example/g",
			ClassSessionBatchID:   &b.BatchID,
			ClassSessionStatus:    status,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatal(err)
		}
		return row
	}
	mk(now.Add(-time.Hour), sessModel.SessionStatusScheduled) // live
	mk(now.Add(24*time.Hour), sessModel.SessionStatusScheduled)
	done := mk(now.Add(-48*time.Hour), sessModel.SessionStatusCompleted)
	mk(now.Add(-72*time.Hour), sessModel.SessionStatusCancelled)

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.ActiveStudents != 2 || !st.HoursRemaining.Equal(decimal.RequireFromString("6.5")) {
		t.Errorf("students = %d / %s", st.ActiveStudents, st.HoursRemaining)
	}
	if st.Trainers != 1 || !st.HoursTaught.Equal(decimal.NewFromInt(3)) {
		t.Errorf("trainers = %d / %s", st.Trainers, st.HoursTaught)
	}
	if st.ClassesScheduled != 2 || st.ClassesCompleted != 1 || st.ClassesCancelled != 1 {
		t.Errorf("classes = %+v", st)
	}

	dash, err := s.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if dash.Students != 3 || dash.Trainers != 1 || dash.Live != 1 {
		t.Errorf("dashboard = %+v", dash)
	}

	hist, total, err := s.TeachingHistory(ctx, sessSvc.ListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 1 || len(hist) != 1 || hist[0].Session.ClassSessionID != done.ClassSessionID {
		t.Fatalf("history = %+v", hist)
	}
	if !hist[0].Hours.Equal(decimal.RequireFromString("1.5")) || len(hist[0].Students) != 2 {
		t.Errorf("item = hours %s students %d", hist[0].Hours, len(hist[0].Students))
	}
	if hist[0].Session.TrainerName != "tess" {
		t.Errorf("trainer name = %q", hist[0].Session.TrainerName)
	}
}
