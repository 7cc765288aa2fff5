package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lurnex_backend/internals/constants"
	batchModel "lurnex_backend/internals/features/classes/batches/model"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	ledgerModel "lurnex_backend/internals/features/ledger/model"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	authSvc "lurnex_backend/internals/features/users/auth/service"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/helpers/notify"
	"lurnex_backend/internals/testutil"
)

type recordingNotifier struct {
	mu          sync.Mutex
	credentials []notify.CredentialsNotice
}

func (n *recordingNotifier) NotifyCancellation(context.Context, notify.CancellationNotice) error {
	return nil
}

func (n *recordingNotifier) NotifyCredentials(_ context.Context, c notify.CredentialsNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credentials = append(n.credentials, c)
	return nil
}

func newService(t *testing.T) (*AccountService, *recordingNotifier) {
	t.Helper()
	db := testutil.NewDB(t)
	n := &recordingNotifier{}
	return New(db, ledgerSvc.New(db), n), n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateStudentBooksOpeningBalance(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	creds, err := s.CreateStudent(ctx, CreateStudentInput{
		Name:           "Asha",
		Email:          " Asha@Example.com ",
		OpeningBalance: dec("5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if creds.Account.Email != "asha@example.com" {
		t.Errorf("email = %q", creds.Account.Email)
	}
	if got := testutil.Balance(t, s.DB, creds.Account.ID); !got.Equal(dec("5")) {
		t.Errorf("balance = %s", got)
	}

	var entries []ledgerModel.HoursLedgerEntryModel
	s.DB.Where("account_id = ?", creds.Account.ID).Find(&entries)
	if len(entries) != 1 || !entries[0].Delta.Equal(dec("5")) {
		t.Errorf("ledger entries = %+v", entries)
	}

	if _, err := s.CreateStudent(ctx, CreateStudentInput{Name: "Dup", Email: "ASHA@example.com"}); !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Errorf("duplicate email: %v", err)
	}
}

func TestCreateStudentIsPendingUntilApproved(t *testing.T) {
	s, n := newService(t)
	ctx := context.Background()
	admin := uuid.New()

	creds, err := s.CreateStudent(ctx, CreateStudentInput{Name: "P", Email: "p@example.com", CreatedBy: &admin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if creds.Account.Status != constants.StatusPending {
		t.Errorf("status = %q, want %q", creds.Account.Status, constants.StatusPending)
	}
	if creds.TemporaryPassword != "" {
		t.Errorf("temporary password returned before approval")
	}
	if len(n.credentials) != 0 {
		t.Errorf("credential notices before approval = %d", len(n.credentials))
	}
	hist, _ := s.Ledger.CredentialHistory(ctx, creds.Account.ID)
	if len(hist) != 1 || !hist[0].IsTemporary || hist[0].ChangedBy == nil || *hist[0].ChangedBy != admin {
		t.Errorf("history = %+v", hist)
	}

	approved, err := s.UpdateStatus(ctx, creds.Account.ID, constants.StatusPaid, admin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Account.Status != constants.StatusPaid || approved.TemporaryPassword == "" {
		t.Errorf("approved = %+v", approved)
	}
	if len(n.credentials) != 1 || n.credentials[0].TemporaryPassword != approved.TemporaryPassword {
		t.Errorf("credential notices after approval = %+v", n.credentials)
	}
}

func TestCreateTrainerSendsCredentials(t *testing.T) {
	s, n := newService(t)
	ctx := context.Background()

	creds, err := s.CreateTrainer(ctx, CreateTrainerInput{Name: "Tariq", Email: "tariq@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if creds.Account.Status != constants.StatusPaid {
		t.Errorf("status = %q", creds.Account.Status)
	}
	if len(creds.TemporaryPassword) != authSvc.TemporaryPasswordLength {
		t.Errorf("temporary password length = %d", len(creds.TemporaryPassword))
	}
	if !authSvc.CheckPassword(creds.Account.PasswordHash, creds.TemporaryPassword) {
		t.Error("stored hash does not match issued password")
	}
	if len(n.credentials) != 1 || n.credentials[0].TemporaryPassword != creds.TemporaryPassword {
		t.Errorf("credential notices = %+v", n.credentials)
	}
}

func TestCreateStudentPlacement(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	b := testutil.CreateBatch(t, s.DB, "Morning")
	missing := uuid.New()

	if _, err := s.CreateStudent(ctx, CreateStudentInput{Name: "A", Email: "a@x.io", BatchID: &b.BatchID, IsOneOnOne: true}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("batch and one-on-one: %v", err)
	}
	if _, err := s.CreateStudent(ctx, CreateStudentInput{Name: "A", Email: "a@x.io", BatchID: &missing}); !errors.Is(err, apperr.ErrBatchNotFound) {
		t.Errorf("unknown batch: %v", err)
	}
	creds, err := s.CreateStudent(ctx, CreateStudentInput{Name: "A", Email: "a@x.io", BatchID: &b.BatchID})
	if err != nil {
		t.Fatal(err)
	}
	if creds.Account.BatchID == nil || *creds.Account.BatchID != b.BatchID {
		t.Errorf("batch = %v", creds.Account.BatchID)
	}
}

func TestUpdateBalanceBooksCorrection(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, s.DB, "ravi", 10, nil)
	admin := uuid.New()

	target := dec("7.5")
	name := "Ravi K"
	acc, err := s.Update(ctx, st.ID, constants.RoleStudent, UpdateInput{Name: &name, HoursBalance: &target}, admin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if acc.Name != "Ravi K" || !acc.HoursBalance.Equal(target) {
		t.Errorf("account = %+v", acc)
	}
	var entries []ledgerModel.HoursLedgerEntryModel
	s.DB.Where("account_id = ?", st.ID).Find(&entries)
	if len(entries) != 1 || !entries[0].Delta.Equal(dec("-2.5")) {
		t.Fatalf("entries = %+v", entries)
	}

	// same balance again writes nothing
	if _, err := s.Update(ctx, st.ID, constants.RoleStudent, UpdateInput{HoursBalance: &target}, admin); err != nil {
		t.Fatal(err)
	}
	var n int64
	s.DB.Model(&ledgerModel.HoursLedgerEntryModel{}).Where("account_id = ?", st.ID).Count(&n)
	if n != 1 {
		t.Errorf("entries after no-op = %d", n)
	}

	tr := testutil.CreateTrainer(t, s.DB, "tom")
	if _, err := s.Update(ctx, tr.ID, constants.RoleTrainer, UpdateInput{HoursBalance: &target}, admin); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("trainer balance: %v", err)
	}
	if _, err := s.Update(ctx, st.ID, constants.RoleTrainer, UpdateInput{Name: &name}, admin); !errors.Is(err, apperr.ErrAccountNotFound) {
		t.Errorf("role mismatch: %v", err)
	}
	email := tr.Email
	if _, err := s.Update(ctx, st.ID, constants.RoleStudent, UpdateInput{Email: &email}, admin); !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Errorf("taken email: %v", err)
	}
}

func TestAddHours(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, s.DB, "mei", -1, nil)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.AddHours(ctx, st.ID, AddHoursInput{Hours: dec("0"), PurchaseDate: day}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("zero hours: %v", err)
	}
	if _, err := s.AddHours(ctx, st.ID, AddHoursInput{Hours: dec("2")}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("missing date: %v", err)
	}
	acc, err := s.AddHours(ctx, st.ID, AddHoursInput{Hours: dec("3.25"), PurchaseDate: day})
	if err != nil {
		t.Fatal(err)
	}
	if !acc.HoursBalance.Equal(dec("2.25")) {
		t.Errorf("balance = %s", acc.HoursBalance)
	}
}

func TestTransfer(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	b := testutil.CreateBatch(t, s.DB, "Evening")
	st := testutil.CreateStudent(t, s.DB, "li", 0, &b.BatchID)

	if _, err := s.Transfer(ctx, st.ID, nil, false); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("neither: %v", err)
	}
	acc, err := s.Transfer(ctx, st.ID, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if acc.BatchID != nil || !acc.IsOneOnOne {
		t.Errorf("after one-on-one: batch=%v one=%v", acc.BatchID, acc.IsOneOnOne)
	}
	acc, err = s.Transfer(ctx, st.ID, &b.BatchID, false)
	if err != nil {
		t.Fatal(err)
	}
	if acc.BatchID == nil || acc.IsOneOnOne {
		t.Errorf("after batch: batch=%v one=%v", acc.BatchID, acc.IsOneOnOne)
	}
}

func TestApprovePendingStudentIssuesCredentials(t *testing.T) {
	s, n := newService(t)
	ctx := context.Background()
	admin := uuid.New()
	created, err := s.CreateStudent(ctx, CreateStudentInput{Name: "Pia", Email: "pia@example.com", CreatedBy: &admin})
	if err != nil {
		t.Fatal(err)
	}
	st := created.Account

	creds, err := s.UpdateStatus(ctx, st.ID, constants.StatusPaid, admin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if creds.TemporaryPassword == "" || creds.Account.Status != constants.StatusPaid || !creds.Account.IsTemporaryPassword {
		t.Errorf("creds = %+v", creds)
	}
	if !authSvc.CheckPassword(creds.Account.PasswordHash, creds.TemporaryPassword) {
		t.Error("password not applied")
	}
	if len(n.credentials) != 1 {
		t.Errorf("notices = %d", len(n.credentials))
	}
	hist, _ := s.Ledger.CredentialHistory(ctx, st.ID)
	if len(hist) != 2 || hist[1].ChangedBy == nil || *hist[1].ChangedBy != admin || hist[1].PasswordHash != creds.Account.PasswordHash {
		t.Errorf("history = %+v", hist)
	}

	// already paid: no new credential
	again, err := s.UpdateStatus(ctx, st.ID, constants.StatusPaid, admin)
	if err != nil {
		t.Fatal(err)
	}
	if again.TemporaryPassword != "" || len(n.credentials) != 1 {
		t.Errorf("second approval issued credentials")
	}
	if _, err := s.UpdateStatus(ctx, st.ID, "archived", admin); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad status: %v", err)
	}
}

func TestPasswordHistoryIsCappedAndMasked(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, s.DB, "ken")
	admin := uuid.New()

	for i := 0; i < ledgerSvc.MaxCredentialHistory+2; i++ {
		if err := s.SetPassword(ctx, tr.ID, constants.RoleTrainer, "newpass12", i%2 == 0, admin); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	rows, err := s.PasswordHistory(ctx, tr.ID, constants.RoleTrainer)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != ledgerSvc.MaxCredentialHistory {
		t.Fatalf("history len = %d", len(rows))
	}
	if len(rows[0].HashPreview) != 15 {
		t.Errorf("preview = %q", rows[0].HashPreview)
	}

	if err := s.SetPassword(ctx, tr.ID, constants.RoleTrainer, "short", false, admin); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("weak password: %v", err)
	}
}

func TestHashPreview(t *testing.T) {
	if got := HashPreview("abcdefghijklmnopqrstuvwxyz"); got != "abcdef...uvwxyz" {
		t.Errorf("preview = %q", got)
	}
	if got := HashPreview("short"); got != "short" {
		t.Errorf("short preview = %q", got)
	}
}

func TestDeleteTrainerRemovesOwnedSessions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, s.DB, "zed")
	other := testutil.CreateTrainer(t, s.DB, "amy")
	b := testutil.CreateBatch(t, s.DB, "Noon")
	st := testutil.CreateStudent(t, s.DB, "kai", 3, &b.BatchID)

	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mk := func(trainer uuid.UUID) sessModel.ClassSessionModel {
		row := sessModel.ClassSessionModel{
			ClassSessionTitle:     "Algebra",
			ClassSessionTrainerID: trainer,
			ClassSessionStartAt:   start,
			ClassSessionEndAt:     start.Add(time.Hour),
			ClassSessionJoinURL:   "https://meet.example/1",
			ClassSessionBatchID:   &b.BatchID,
			ClassSessionStatus:    sessModel.SessionStatusScheduled,
		}
		if err := s.DB.Create(&row).Error; err != nil {
			t.Fatal(err)
		}
		s.DB.Create(&batchModel.BatchSessionModel{BatchSessionBatchID: b.BatchID, BatchSessionSessionID: row.ClassSessionID})
		s.DB.Create(&sessModel.StudentEnrollmentModel{StudentID: st.ID, SessionID: row.ClassSessionID})
		return row
	}
	mk(tr.ID)
	mk(tr.ID)
	kept := mk(other.ID)
	timing := "Sat 09:00"
	assignment := batchModel.BatchAssignmentModel{BatchAssignmentBatchID: b.BatchID, BatchAssignmentSubject: "Math", BatchAssignmentTrainerID: &tr.ID, BatchAssignmentTiming: &timing}
	s.DB.Create(&assignment)

	if _, err := s.DeleteTrainer(ctx, tr.ID); !errors.Is(err, apperr.ErrTrainerAssigned) {
		t.Fatalf("assigned trainer: want ErrTrainerAssigned, got %v", err)
	}
	var count int64
	s.DB.Model(&sessModel.ClassSessionModel{}).Count(&count)
	if count != 3 {
		t.Fatalf("refused delete removed sessions: %d left", count)
	}
	s.DB.Model(&assignment).Update("batch_assignment_trainer_id", other.ID)

	n, err := s.DeleteTrainer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d", n)
	}

	var sessions, enrollments, batchSessions int64
	s.DB.Model(&sessModel.ClassSessionModel{}).Count(&sessions)
	s.DB.Model(&sessModel.StudentEnrollmentModel{}).Count(&enrollments)
	s.DB.Model(&batchModel.BatchSessionModel{}).Count(&batchSessions)
	if sessions != 1 || enrollments != 1 || batchSessions != 1 {
		t.Errorf("left sessions=%d enrollments=%d batch_sessions=%d", sessions, enrollments, batchSessions)
	}
	var left sessModel.ClassSessionModel
	s.DB.Take(&left)
	if left.ClassSessionID != kept.ClassSessionID {
		t.Errorf("wrong session kept")
	}
	var a batchModel.BatchAssignmentModel
	s.DB.Take(&a)
	if a.BatchAssignmentTrainerID == nil || *a.BatchAssignmentTrainerID != other.ID {
		t.Errorf("assignment trainer = %v, want %s", a.BatchAssignmentTrainerID, other.ID)
	}
	if _, err := s.Get(ctx, tr.ID, constants.RoleTrainer); !errors.Is(err, apperr.ErrAccountNotFound) {
		t.Errorf("trainer still present: %v", err)
	}
	if got := testutil.Balance(t, s.DB, st.ID); !got.Equal(dec("3")) {
		t.Errorf("student balance touched: %s", got)
	}
}
