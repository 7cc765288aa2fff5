package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountModel holds students, trainers and admins. Balances are only ever
// moved through the ledger service.
type AccountModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Name                string          `gorm:"type:varchar(120);not null;column:name" json:"name"`
	Email               string          `gorm:"type:varchar(255);not null;uniqueIndex:uq_accounts_email;column:email" json:"email"`
	PasswordHash        string          `gorm:"type:text;not null;column:password_hash" json:"-"`
	IsTemporaryPassword bool            `gorm:"not null;default:false;column:is_temporary_password" json:"is_temporary_password"`
	Role                string          `gorm:"type:varchar(16);not null;column:role" json:"role"`
	Status              string          `gorm:"type:varchar(16);not null;default:'paid';column:status" json:"status"`
	Mobile              *string         `gorm:"type:varchar(32);column:mobile" json:"mobile,omitempty"`
	Course              *string         `gorm:"type:varchar(120);column:course" json:"course,omitempty"`
	Grade               *string         `gorm:"type:varchar(60);column:grade" json:"grade,omitempty"`
	School              *string         `gorm:"type:varchar(160);column:school" json:"school,omitempty"`
	Subject             *string         `gorm:"type:varchar(120);column:subject" json:"subject,omitempty"`
	ProfilePictureURL   *string         `gorm:"type:text;column:profile_picture_url" json:"profile_picture_url,omitempty"`
	HoursBalance        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:hours_balance" json:"hours_balance"`
	HoursTaught         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;column:hours_taught" json:"hours_taught"`
	BatchID             *uuid.UUID      `gorm:"type:uuid;column:batch_id" json:"batch_id,omitempty"`
	IsOneOnOne          bool            `gorm:"not null;default:false;column:is_one_on_one" json:"is_one_on_one"`
	CreatedAt           time.Time       `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

func (AccountModel) TableName() string { return "accounts" }

func (a *AccountModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
