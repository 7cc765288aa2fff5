package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/testutil"
)

func TestStudentAdjustmentsKeepBalanceAndLedgerConsistent(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "asha", 10, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, d := range []string{"-2", "-1.5", "20"} {
		if err := l.ApplyStudentAdjustment(ctx, nil, Adjustment{
			AccountID:     st.ID,
			Delta:         decimal.RequireFromString(d),
			EffectiveDate: now,
			Note:          "test " + d,
		}); err != nil {
			t.Fatalf("apply %s: %v", d, err)
		}
	}

	if got := testutil.Balance(t, db, st.ID); !got.Equal(decimal.RequireFromString("26.5")) {
		t.Fatalf("balance = %s, want 26.5", got)
	}
	entries, total, err := l.StudentEntries(ctx, st.ID, 10, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("entries = %d (total %d), want 3", len(entries), total)
	}
	sum, err := l.SumStudentEntries(ctx, st.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("16.5")) {
		t.Fatalf("sum = %s, want 16.5", sum)
	}
}

func TestStudentBalanceIsNotClamped(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	st := testutil.CreateStudent(t, db, "ravi", 1, nil)

	err := l.ApplyStudentAdjustment(context.Background(), nil, Adjustment{
		AccountID: st.ID, Delta: decimal.NewFromInt(-3), EffectiveDate: time.Now(), Note: "overdraw",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := testutil.Balance(t, db, st.ID); !got.Equal(decimal.NewFromInt(-2)) {
		t.Fatalf("balance = %s, want -2", got)
	}
}

func TestAdjustmentRejectsUnknownOrWrongRole(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, db, "meera")

	err := l.ApplyStudentAdjustment(ctx, nil, Adjustment{AccountID: tr.ID, Delta: decimal.NewFromInt(1), EffectiveDate: time.Now(), Note: "x"})
	if !errors.Is(err, apperr.ErrAccountNotFound) {
		t.Fatalf("trainer id as student: err = %v", err)
	}
	err = l.ApplyTrainerAdjustment(ctx, nil, Adjustment{AccountID: uuid.New(), Delta: decimal.NewFromInt(1), EffectiveDate: time.Now(), Note: "x"})
	if !errors.Is(err, apperr.ErrAccountNotFound) {
		t.Fatalf("unknown trainer: err = %v", err)
	}
	err = l.ApplyTrainerAdjustment(ctx, nil, Adjustment{AccountID: tr.ID, Delta: decimal.NewFromInt(-1), EffectiveDate: time.Now(), Note: "x"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("negative teaching credit: err = %v", err)
	}
}

func TestTrainerAdjustmentRecordsSession(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, db, "kiran")
	sid := uuid.New()

	if err := l.ApplyTrainerAdjustment(ctx, nil, Adjustment{
		AccountID: tr.ID, Delta: decimal.RequireFromString("1.5"), EffectiveDate: time.Now(), Note: "Taught class", SessionID: &sid,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := testutil.Taught(t, db, tr.ID); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("taught = %s", got)
	}
	rows, _, err := l.TeachingEntries(ctx, tr.ID, 10, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("teaching entries = %d, err %v", len(rows), err)
	}
	if rows[0].SessionID == nil || *rows[0].SessionID != sid {
		t.Fatalf("session id not recorded")
	}
}

func TestCredentialHistoryKeepsLastFive(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "dev", 0, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		if err := l.AppendCredentialHistory(ctx, nil, st.ID, CredentialEntry{
			PasswordHash: string(rune('a' + i)),
			ChangedAt:    base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	rows, err := l.CredentialHistory(ctx, st.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != MaxCredentialHistory {
		t.Fatalf("history len = %d, want %d", len(rows), MaxCredentialHistory)
	}
	if rows[0].PasswordHash != "c" || rows[4].PasswordHash != "g" {
		t.Fatalf("wrong entries kept: first=%s last=%s", rows[0].PasswordHash, rows[4].PasswordHash)
	}
}

func TestCredentialHistoryEvictsOldestWhenTimestampsTie(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "nia", 0, nil)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	hashes := []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}
	for _, h := range hashes {
		if err := l.AppendCredentialHistory(ctx, nil, st.ID, CredentialEntry{PasswordHash: h, ChangedAt: at}); err != nil {
			t.Fatalf("append %s: %v", h, err)
		}
	}

	rows, err := l.CredentialHistory(ctx, st.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != MaxCredentialHistory {
		t.Fatalf("history len = %d, want %d", len(rows), MaxCredentialHistory)
	}
	for i, r := range rows {
		if want := hashes[i+2]; r.PasswordHash != want {
			t.Fatalf("rows[%d] = %s, want %s", i, r.PasswordHash, want)
		}
	}
}

func TestAdjustmentRoundingToZeroIsRejected(t *testing.T) {
	db := testutil.NewDB(t)
	l := New(db)
	ctx := context.Background()
	st := testutil.CreateStudent(t, db, "omar", 2, nil)
	tr := testutil.CreateTrainer(t, db, "ines")

	tiny := decimal.RequireFromString("0.004")
	if err := l.ApplyStudentAdjustment(ctx, nil, Adjustment{AccountID: st.ID, Delta: tiny, EffectiveDate: time.Now(), Note: "tiny"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("student 0.004: err = %v", err)
	}
	if err := l.ApplyTrainerAdjustment(ctx, nil, Adjustment{AccountID: tr.ID, Delta: tiny, EffectiveDate: time.Now(), Note: "tiny"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("trainer 0.004: err = %v", err)
	}

	_, total, err := l.StudentEntries(ctx, st.ID, 10, 0)
	if err != nil || total != 0 {
		t.Fatalf("student entries = %d, err %v", total, err)
	}
	if got := testutil.Balance(t, db, st.ID); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("balance = %s, want 2", got)
	}
}
