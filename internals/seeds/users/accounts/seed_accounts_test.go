package accounts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"lurnex_backend/internals/constants"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authSvc "lurnex_backend/internals/features/users/auth/service"
	"lurnex_backend/internals/testutil"
)

func TestSeedAccountsSkipsExisting(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	seeds := []AccountSeed{
		{Name: "Admin", Email: "Admin@Lurnex.me", Password: "lurnex123", Role: constants.RoleAdmin},
		{Name: "Stu", Email: "stu@lurnex.me", Password: "lurnex123", Role: constants.RoleStudent, HoursBalance: decimal.NewFromInt(4)},
		{Name: "Bad", Email: "bad@lurnex.me", Password: "lurnex123", Role: "owner"},
	}

	n, err := SeedAccounts(ctx, db, seeds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("created = %d, want 2", n)
	}
	n, err = SeedAccounts(ctx, db, seeds)
	if err != nil || n != 0 {
		t.Fatalf("second run created %d (%v)", n, err)
	}

	var admin accModel.AccountModel
	if err := db.Where("email = ?", "admin@lurnex.me").Take(&admin).Error; err != nil {
		t.Fatal(err)
	}
	if !authSvc.CheckPassword(admin.PasswordHash, "lurnex123") {
		t.Error("admin password not hashed from seed")
	}
	var stu accModel.AccountModel
	db.Where("email = ?", "stu@lurnex.me").Take(&stu)
	if !testutil.Balance(t, db, stu.ID).Equal(decimal.NewFromInt(4)) {
		t.Errorf("student balance = %s", stu.HoursBalance)
	}
}
