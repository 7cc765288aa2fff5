package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authRepo "lurnex_backend/internals/features/users/auth/repository"
	authSvc "lurnex_backend/internals/features/users/auth/service"
)

type AccountSeed struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	Role         string          `json:"role"`
	HoursBalance decimal.Decimal `json:"hours_balance"`
	Temporary    bool            `json:"is_temporary_password"`
}

// SeedAccountsFromJSON creates the listed accounts, skipping emails that
// already exist. Returns how many were created.
func SeedAccountsFromJSON(db *gorm.DB, filePath string) (int, error) {
	log.Println("📥 Reading account seeds:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, err
	}
	var inputs []AccountSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		return 0, err
	}
	return SeedAccounts(context.Background(), db, inputs)
}

func SeedAccounts(ctx context.Context, db *gorm.DB, inputs []AccountSeed) (int, error) {
	ledger := ledgerSvc.New(db)
	created := 0
	for _, data := range inputs {
		if !constants.IsValidRole(data.Role) {
			log.Printf("❌ Seed %q has unknown role %q, skipped.", data.Email, data.Role)
			continue
		}
		email := authRepo.NormalizeEmail(data.Email)
		taken, err := authRepo.EmailTaken(ctx, db, email, nil)
		if err != nil {
			return created, err
		}
		if taken {
			log.Printf("ℹ️ Account '%s' already exists, skipped.", email)
			continue
		}

		hashed, err := authSvc.HashPassword(data.Password)
		if err != nil {
			log.Printf("❌ Hash failed for '%s': %v", email, err)
			continue
		}

		acc := accModel.AccountModel{
			Name:                data.Name,
			Email:               email,
			PasswordHash:        hashed,
			IsTemporaryPassword: data.Temporary,
			Role:                data.Role,
			Status:              constants.StatusPaid,
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&acc).Error; err != nil {
				return err
			}
			if err := ledger.AppendCredentialHistory(ctx, tx, acc.ID, ledgerSvc.CredentialEntry{
				PasswordHash: hashed,
				IsTemporary:  data.Temporary,
				ChangedAt:    time.Now(),
			}); err != nil {
				return err
			}
			if data.Role == constants.RoleStudent && !data.HoursBalance.IsZero() {
				return ledger.ApplyStudentAdjustment(ctx, tx, ledgerSvc.Adjustment{
					AccountID:     acc.ID,
					Delta:         data.HoursBalance,
					EffectiveDate: time.Now(),
					Note:          "Opening balance",
				})
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return created, err
		}
		created++
		log.Printf("✅ Seeded %s '%s'", data.Role, email)
	}
	return created, nil
}
