// Package testutil provides an in-memory SQLite database migrated with the
// production GORM models, for package-level tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"lurnex_backend/internals/constants"
	assessModel "lurnex_backend/internals/features/assessments/model"
	batchModel "lurnex_backend/internals/features/classes/batches/model"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	ledgerModel "lurnex_backend/internals/features/ledger/model"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authModel "lurnex_backend/internals/features/users/auth/model"
)

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the shared in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&batchModel.BatchModel{},
		&batchModel.BatchAssignmentModel{},
		&batchModel.BatchSessionModel{},
		&accModel.AccountModel{},
		&ledgerModel.HoursLedgerEntryModel{},
		&ledgerModel.TeachingLedgerEntryModel{},
		&ledgerModel.CredentialHistoryModel{},
		&sessModel.ClassSessionModel{},
		&sessModel.SessionStudentModel{},
		&sessModel.StudentEnrollmentModel{},
		&authModel.RevokedTokenModel{},
		&assessModel.AssessmentModel{},
		&assessModel.SubmissionModel{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// CreateStudent inserts a paid student with the given opening balance.
func CreateStudent(t testing.TB, db *gorm.DB, name string, balance float64, batchID *uuid.UUID) accModel.AccountModel {
	t.Helper()
	return createAccount(t, db, accModel.AccountModel{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         constants.RoleStudent,
		Status:       constants.StatusPaid,
		HoursBalance: decimal.NewFromFloat(balance),
		BatchID:      batchID,
	})
}

func CreateTrainer(t testing.TB, db *gorm.DB, name string) accModel.AccountModel {
	t.Helper()
	return createAccount(t, db, accModel.AccountModel{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         constants.RoleTrainer,
		Status:       constants.StatusPaid,
	})
}

func CreateBatch(t testing.TB, db *gorm.DB, name string) batchModel.BatchModel {
	t.Helper()
	b := batchModel.BatchModel{BatchName: name, BatchNameKey: name, BatchCourse: "General", BatchIsActive: true}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b
}

func createAccount(t testing.TB, db *gorm.DB, a accModel.AccountModel) accModel.AccountModel {
	t.Helper()
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func Balance(t testing.TB, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var a accModel.AccountModel
	if err := db.Select("hours_balance", "hours_taught").Where("id = ?", id).Take(&a).Error; err != nil {
		t.Fatalf("load balance: %v", err)
	}
	return a.HoursBalance
}

func Taught(t testing.TB, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var a accModel.AccountModel
	if err := db.Select("hours_balance", "hours_taught").Where("id = ?", id).Take(&a).Error; err != nil {
		t.Fatalf("load taught: %v", err)
	}
	return a.HoursTaught
}
