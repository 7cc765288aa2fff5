package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RevokedTokenModel stores the SHA-256 of a logged-out access token until it
// would have expired anyway.
type RevokedTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex:uq_revoked_tokens_hash;column:token_hash" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index:idx_revoked_tokens_expires;column:expires_at" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

func (RevokedTokenModel) TableName() string { return "revoked_tokens" }

func (t *RevokedTokenModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
