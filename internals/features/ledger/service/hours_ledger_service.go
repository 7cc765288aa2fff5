package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	ledgerModel "lurnex_backend/internals/features/ledger/model"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	"lurnex_backend/internals/helpers/apperr"
)

// MaxCredentialHistory is how many password hashes an account keeps.
const MaxCredentialHistory = 5

// HoursLedger moves student balances and trainer totals. Every movement
// updates the account counter and appends exactly one ledger entry in the
// same transaction, so balance - opening == sum(entries) always holds.
type HoursLedger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *HoursLedger { return &HoursLedger{DB: db} }

type Adjustment struct {
	AccountID     uuid.UUID
	Delta         decimal.Decimal
	EffectiveDate time.Time
	Note          string
	SessionID     *uuid.UUID
}

type CredentialEntry struct {
	PasswordHash string
	IsTemporary  bool
	ChangedBy    *uuid.UUID
	ChangedAt    time.Time
}

// conn picks the caller's transaction when given, else the ledger's own handle.
func (l *HoursLedger) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return l.DB.WithContext(ctx)
}

func validateAdjustment(adj Adjustment) error {
	if adj.AccountID == uuid.Nil {
		return apperr.Validation("account id is required")
	}
	if adj.Delta.IsZero() {
		return apperr.Validation("adjustment must not be zero at two decimal places")
	}
	if strings.TrimSpace(adj.Note) == "" {
		return apperr.Validation("adjustment note is required")
	}
	if adj.EffectiveDate.IsZero() {
		return apperr.Validation("effective date is required")
	}
	return nil
}

// ApplyStudentAdjustment adds a signed delta to a student's hours balance.
// The balance is never clamped; it may go negative.
func (l *HoursLedger) ApplyStudentAdjustment(ctx context.Context, tx *gorm.DB, adj Adjustment) error {
	adj.Delta = adj.Delta.Round(2)
	if err := validateAdjustment(adj); err != nil {
		return err
	}
	delta := adj.Delta

	return l.conn(ctx, tx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&accModel.AccountModel{}).
			Where("id = ? AND role = ?", adj.AccountID, constants.RoleStudent).
			UpdateColumn("hours_balance", gorm.Expr("hours_balance + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrAccountNotFound.WithMessage("student %s not found", adj.AccountID)
		}
		return tx.Create(&ledgerModel.HoursLedgerEntryModel{
			AccountID:     adj.AccountID,
			Delta:         delta,
			EffectiveDate: adj.EffectiveDate.UTC(),
			Note:          adj.Note,
		}).Error
	})
}

// ApplyTrainerAdjustment credits taught hours to a trainer.
func (l *HoursLedger) ApplyTrainerAdjustment(ctx context.Context, tx *gorm.DB, adj Adjustment) error {
	adj.Delta = adj.Delta.Round(2)
	if err := validateAdjustment(adj); err != nil {
		return err
	}
	if adj.Delta.IsNegative() {
		return apperr.Validation("teaching credit must be positive")
	}
	delta := adj.Delta

	return l.conn(ctx, tx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&accModel.AccountModel{}).
			Where("id = ? AND role = ?", adj.AccountID, constants.RoleTrainer).
			UpdateColumn("hours_taught", gorm.Expr("hours_taught + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrAccountNotFound.WithMessage("trainer %s not found", adj.AccountID)
		}
		return tx.Create(&ledgerModel.TeachingLedgerEntryModel{
			AccountID:     adj.AccountID,
			SessionID:     adj.SessionID,
			Delta:         delta,
			EffectiveDate: adj.EffectiveDate.UTC(),
			Note:          adj.Note,
		}).Error
	})
}

// AppendCredentialHistory records a password hash and evicts the oldest
// entries beyond MaxCredentialHistory. Entries are ordered by a per-account
// sequence, so equal timestamps never decide what is evicted.
func (l *HoursLedger) AppendCredentialHistory(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, e CredentialEntry) error {
	if e.PasswordHash == "" {
		return apperr.Validation("password hash is required")
	}
	if e.ChangedAt.IsZero() {
		e.ChangedAt = time.Now()
	}

	return l.conn(ctx, tx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&ledgerModel.CredentialHistoryModel{}).
			Where("account_id = ?", accountID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		seq := last + 1

		// a concurrent append for the same account fails on uq_credential_history_seq
		if err := tx.Create(&ledgerModel.CredentialHistoryModel{
			AccountID:    accountID,
			Seq:          seq,
			PasswordHash: e.PasswordHash,
			IsTemporary:  e.IsTemporary,
			ChangedBy:    e.ChangedBy,
			ChangedAt:    e.ChangedAt.UTC(),
		}).Error; err != nil {
			return err
		}

		return tx.Where("account_id = ? AND seq <= ?", accountID, seq-MaxCredentialHistory).
			Delete(&ledgerModel.CredentialHistoryModel{}).Error
	})
}

// CredentialHistory returns entries oldest first.
func (l *HoursLedger) CredentialHistory(ctx context.Context, accountID uuid.UUID) ([]ledgerModel.CredentialHistoryModel, error) {
	var rows []ledgerModel.CredentialHistoryModel
	err := l.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("seq ASC").
		Find(&rows).Error
	return rows, err
}

// StudentEntries lists a student's hours ledger, newest first.
func (l *HoursLedger) StudentEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]ledgerModel.HoursLedgerEntryModel, int64, error) {
	q := l.DB.WithContext(ctx).Model(&ledgerModel.HoursLedgerEntryModel{}).Where("account_id = ?", accountID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []ledgerModel.HoursLedgerEntryModel
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

// TeachingEntries lists a trainer's teaching ledger, newest first.
func (l *HoursLedger) TeachingEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]ledgerModel.TeachingLedgerEntryModel, int64, error) {
	q := l.DB.WithContext(ctx).Model(&ledgerModel.TeachingLedgerEntryModel{}).Where("account_id = ?", accountID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []ledgerModel.TeachingLedgerEntryModel
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

// SumStudentEntries is the authoritative total of recorded movements.
func (l *HoursLedger) SumStudentEntries(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var deltas []decimal.Decimal
	if err := l.DB.WithContext(ctx).Model(&ledgerModel.HoursLedgerEntryModel{}).
		Where("account_id = ?", accountID).
		Pluck("delta", &deltas).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, d := range deltas {
		sum = sum.Add(d)
	}
	return sum, nil
}
