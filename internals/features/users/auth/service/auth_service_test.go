package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/constants"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/testutil"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) (*AuthService, *ledgerSvc.HoursLedger) {
	t.Helper()
	db := testutil.NewDB(t)
	ledger := ledgerSvc.New(db)
	return NewAuthService(db, ledger, nil, testSecret, time.Hour), ledger
}

func setPassword(t *testing.T, s *AuthService, acc accModel.AccountModel, plain string) {
	t.Helper()
	hash, err := HashPassword(plain)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DB.Model(&accModel.AccountModel{}).Where("id = ?", acc.ID).Update("password_hash", hash).Error; err != nil {
		t.Fatal(err)
	}
}

func TestLoginIsScopedToRole(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	tr := testutil.CreateTrainer(t, s.DB, "tina")
	setPassword(t, s, tr, "secret123")

	res, err := s.Login(ctx, tr.Email, "secret123", constants.RoleTrainer)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, id, err := ParseAccessToken(testSecret, res.Token, time.Now())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != tr.ID || claims.Role != constants.RoleTrainer {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := s.Login(ctx, tr.Email, "secret123", constants.RoleStudent); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("wrong role: %v", err)
	}
	if _, err := s.Login(ctx, tr.Email, "nope1234", constants.RoleTrainer); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
}

func TestLoginRejectsPendingStudent(t *testing.T) {
	s, _ := newAuth(t)
	st := testutil.CreateStudent(t, s.DB, "sam", 0, nil)
	setPassword(t, s, st, "secret123")
	s.DB.Model(&accModel.AccountModel{}).Where("id = ?", st.ID).Update("status", constants.StatusPending)

	_, err := s.Login(context.Background(), st.Email, "secret123", constants.RoleStudent)
	if !errors.Is(err, apperr.ErrAccountPending) {
		t.Fatalf("want pending, got %v", err)
	}
}

func TestRegisterStudent(t *testing.T) {
	s, ledger := newAuth(t)
	ctx := context.Background()

	acc, err := s.RegisterStudent(ctx, RegisterStudentInput{Name: " Riya ", Email: "Riya@Example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Status != constants.StatusPending || acc.Email != "riya@example.com" || acc.Name != "Riya" {
		t.Errorf("account = %+v", acc)
	}
	hist, err := ledger.CredentialHistory(ctx, acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].ChangedBy != nil || !hist[0].IsTemporary {
		t.Errorf("history = %+v", hist)
	}

	if _, err := s.RegisterStudent(ctx, RegisterStudentInput{Name: "Other", Email: "riya@example.com"}); !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Errorf("duplicate: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	s, ledger := newAuth(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, s.DB, "sam", 0, nil)
	setPassword(t, s, st, "secret123")

	if err := s.ChangePassword(ctx, st.ID, "wrong", "newpass99"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("wrong current: %v", err)
	}
	if err := s.ChangePassword(ctx, st.ID, "secret123", "short"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("weak password: %v", err)
	}
	if err := s.ChangePassword(ctx, st.ID, "secret123", "newpass99"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := s.Login(ctx, st.Email, "newpass99", constants.RoleStudent); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	hist, _ := ledger.CredentialHistory(ctx, st.ID)
	if len(hist) != 1 || hist[0].ChangedBy == nil || *hist[0].ChangedBy != st.ID {
		t.Errorf("history = %+v", hist)
	}
}

func TestDBRevocationStore(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	store := s.Revocations

	if err := store.Revoke(ctx, "tok-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	// revoking twice is harmless
	if err := store.Revoke(ctx, "tok-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.IsRevoked(ctx, "tok-a"); !ok {
		t.Error("tok-a should be revoked")
	}
	if ok, _ := store.IsRevoked(ctx, "tok-b"); ok {
		t.Error("tok-b should not be revoked")
	}
}

func TestParseAccessTokenRejectsExpiredAndTampered(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, _, err := IssueAccessToken(testSecret, uuid.New(), constants.RoleAdmin, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ParseAccessToken(testSecret, tok, now.Add(30*time.Minute)); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}
	if _, _, err := ParseAccessToken(testSecret, tok, now.Add(2*time.Hour)); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token accepted: %v", err)
	}
	if _, _, err := ParseAccessToken("other-secret", tok, now); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("foreign signature accepted: %v", err)
	}
}

func TestLoginAfterLogoutInSameSecondIsNotRevoked(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	frozen := time.Now().Truncate(time.Second)
	s.Now = func() time.Time { return frozen }
	tr := testutil.CreateTrainer(t, s.DB, "lena")
	setPassword(t, s, tr, "secret123")

	first, err := s.Login(ctx, tr.Email, "secret123", constants.RoleTrainer)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Logout(ctx, first.Token, first.ExpiresAt); err != nil {
		t.Fatalf("logout: %v", err)
	}
	second, err := s.Login(ctx, tr.Email, "secret123", constants.RoleTrainer)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("second login returned the revoked token")
	}
	if ok, err := s.Revocations.IsRevoked(ctx, second.Token); err != nil || ok {
		t.Fatalf("fresh login token revoked=%v err=%v", ok, err)
	}
	if ok, _ := s.Revocations.IsRevoked(ctx, first.Token); !ok {
		t.Error("logged-out token should stay revoked")
	}
}

func TestIssuedTokensCarryDistinctIDs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	a, _, err := IssueAccessToken(testSecret, id, constants.RoleStudent, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := IssueAccessToken(testSecret, id, constants.RoleStudent, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("identical tokens for the same account and instant")
	}
	claims, _, err := ParseAccessToken(testSecret, a, now)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" {
		t.Error("jti missing")
	}
}
