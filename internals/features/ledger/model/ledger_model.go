package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HoursLedgerEntryModel is one signed movement of a student's paid hours.
type HoursLedgerEntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_hours_ledger_account;column:account_id" json:"account_id"`
	Delta         decimal.Decimal `gorm:"type:numeric(12,2);not null;column:delta" json:"delta"`
	EffectiveDate time.Time       `gorm:"not null;column:effective_date" json:"effective_date"`
	Note          string          `gorm:"type:text;not null;column:note" json:"note"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

func (HoursLedgerEntryModel) TableName() string { return "hours_ledger_entries" }

func (e *HoursLedgerEntryModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TeachingLedgerEntryModel records hours credited to a trainer per session.
type TeachingLedgerEntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_teaching_ledger_account;column:account_id" json:"account_id"`
	SessionID     *uuid.UUID      `gorm:"type:uuid;column:session_id" json:"session_id,omitempty"`
	Delta         decimal.Decimal `gorm:"type:numeric(12,2);not null;column:delta" json:"delta"`
	EffectiveDate time.Time       `gorm:"not null;column:effective_date" json:"effective_date"`
	Note          string          `gorm:"type:text;not null;column:note" json:"note"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

func (TeachingLedgerEntryModel) TableName() string { return "teaching_ledger_entries" }

func (e *TeachingLedgerEntryModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// CredentialHistoryModel keeps the last few password hashes of an account.
// Seq numbers the entries of one account in insertion order.
type CredentialHistoryModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	AccountID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_credential_history_account;uniqueIndex:uq_credential_history_seq,priority:1;column:account_id" json:"account_id"`
	Seq          int64      `gorm:"not null;default:0;uniqueIndex:uq_credential_history_seq,priority:2;column:seq" json:"-"`
	PasswordHash string     `gorm:"type:text;not null;column:password_hash" json:"-"`
	IsTemporary  bool       `gorm:"not null;default:false;column:is_temporary" json:"is_temporary"`
	ChangedBy    *uuid.UUID `gorm:"type:uuid;column:changed_by" json:"changed_by,omitempty"`
	ChangedAt    time.Time  `gorm:"not null;column:changed_at" json:"changed_at"`
}

func (CredentialHistoryModel) TableName() string { return "account_credential_history" }

func (e *CredentialHistoryModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
