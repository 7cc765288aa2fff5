package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	accModel "lurnex_backend/internals/features/users/accounts/model"
	authModel "lurnex_backend/internals/features/users/auth/model"
	helper "lurnex_backend/internals/helpers"
)

/* ====================== ACCOUNT ====================== */

func NormalizeEmail(email string) string {
	return helper.NormalizeEmail(email)
}

func FindAccountByEmailAndRole(ctx context.Context, db *gorm.DB, email, role string) (*accModel.AccountModel, error) {
	var a accModel.AccountModel
	if err := db.WithContext(ctx).
		Where("LOWER(email) = ? AND role = ?", NormalizeEmail(email), role).
		Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func FindAccountByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*accModel.AccountModel, error) {
	var a accModel.AccountModel
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountLight loads only what the auth middleware checks.
func FindAccountLight(ctx context.Context, db *gorm.DB, id uuid.UUID) (*accModel.AccountModel, error) {
	var a accModel.AccountModel
	if err := db.WithContext(ctx).Select("id", "role", "status").Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// EmailTaken reports whether another account (not exclude) uses email.
func EmailTaken(ctx context.Context, db *gorm.DB, email string, exclude *uuid.UUID) (bool, error) {
	q := db.WithContext(ctx).Model(&accModel.AccountModel{}).Where("LOWER(email) = ?", NormalizeEmail(email))
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func UpdatePassword(ctx context.Context, db *gorm.DB, id uuid.UUID, hash string, temporary bool) error {
	return db.WithContext(ctx).Model(&accModel.AccountModel{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":         hash,
		"is_temporary_password": temporary,
	}).Error
}

/* ====================== REVOKED TOKENS ====================== */

func InsertRevokedToken(ctx context.Context, db *gorm.DB, hash string, expiresAt time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authModel.RevokedTokenModel{TokenHash: hash, ExpiresAt: expiresAt.UTC()}).Error
}

func IsTokenRevoked(ctx context.Context, db *gorm.DB, hash string, now time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&authModel.RevokedTokenModel{}).
		Where("token_hash = ? AND expires_at > ?", hash, now.UTC()).
		Count(&n).Error
	return n > 0, err
}

func DeleteExpiredRevokedTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&authModel.RevokedTokenModel{})
	return res.RowsAffected, res.Error
}
