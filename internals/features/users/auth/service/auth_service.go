package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authRepo "lurnex_backend/internals/features/users/auth/repository"
	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
)

// unusableSecretLength sizes the random credential given to self-registered
// students; nobody is ever told it, so they cannot log in until approved.
const unusableSecretLength = 32

type AuthService struct {
	DB          *gorm.DB
	Ledger      *ledgerSvc.HoursLedger
	Revocations RevocationStore
	Secret      string
	TTL         time.Duration
	Now         func() time.Time
}

func NewAuthService(db *gorm.DB, ledger *ledgerSvc.HoursLedger, store RevocationStore, secret string, ttl time.Duration) *AuthService {
	if store == nil {
		store = NewDBRevocationStore(db)
	}
	return &AuthService{DB: db, Ledger: ledger, Revocations: store, Secret: secret, TTL: ttl, Now: time.Now}
}

/* ========================== LOGIN ========================== */

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   accModel.AccountModel
}

// Login looks the account up within the requested role only.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !constants.IsValidRole(role) {
		return nil, apperr.ValidationFields(map[string][]string{"role": {"must be one of student, trainer, admin"}})
	}

	acc, err := authRepo.FindAccountByEmailAndRole(ctx, s.DB, email, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(acc.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	if acc.Role == constants.RoleStudent && acc.Status != constants.StatusPaid {
		return nil, apperr.ErrAccountPending
	}

	token, exp, err := IssueAccessToken(s.Secret, acc.ID, acc.Role, s.Now(), s.TTL)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}
	log.Printf("[Auth.Login] account=%s role=%s", acc.ID, acc.Role)
	return &LoginResult{Token: token, ExpiresAt: exp, Account: *acc}, nil
}

/* ========================== REGISTER ========================== */

type RegisterStudentInput struct {
	Name   string
	Email  string
	Mobile *string
	Course *string
	Grade  *string
	School *string
}

// RegisterStudent creates a pending student that an admin must approve.
func (s *AuthService) RegisterStudent(ctx context.Context, in RegisterStudentInput) (*accModel.AccountModel, error) {
	email := authRepo.NormalizeEmail(in.Email)
	taken, err := authRepo.EmailTaken(ctx, s.DB, email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ErrDuplicateEmail
	}

	secret, err := GenerateTemporaryPassword(unusableSecretLength)
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate credential")
	}
	hash, err := HashPassword(secret)
	if err != nil {
		return nil, err
	}

	acc := accModel.AccountModel{
		Name:                strings.TrimSpace(in.Name),
		Email:               email,
		PasswordHash:        hash,
		IsTemporaryPassword: true,
		Role:                constants.RoleStudent,
		Status:              constants.StatusPending,
		Mobile:              in.Mobile,
		Course:              in.Course,
		Grade:               in.Grade,
		School:              in.School,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		return s.Ledger.AppendCredentialHistory(ctx, tx, acc.ID, ledgerSvc.CredentialEntry{
			PasswordHash: hash,
			IsTemporary:  true,
			ChangedAt:    s.Now(),
		})
	})
	if err != nil {
		if apperr.KindOf(helper.MapDBError(err)) == apperr.KindConflict {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}
	return &acc, nil
}

/* ========================== LOGOUT ========================== */

func (s *AuthService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Unauthenticated("no token provided")
	}
	return s.Revocations.Revoke(ctx, token, expiresAt)
}

/* ========================== PASSWORD ========================== */

func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, current, next string) error {
	acc, err := authRepo.FindAccountByID(ctx, s.DB, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrAccountNotFound
		}
		return err
	}
	if !CheckPassword(acc.PasswordHash, current) {
		return apperr.ValidationFields(map[string][]string{"current_password": {"is incorrect"}})
	}
	if err := ValidateNewPassword(next); err != nil {
		return err
	}
	if current == next {
		return apperr.ValidationFields(map[string][]string{"new_password": {"must differ from the current password"}})
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authRepo.UpdatePassword(ctx, tx, accountID, hash, false); err != nil {
			return err
		}
		return s.Ledger.AppendCredentialHistory(ctx, tx, accountID, ledgerSvc.CredentialEntry{
			PasswordHash: hash,
			ChangedBy:    &accountID,
			ChangedAt:    s.Now(),
		})
	})
}

/* ========================== ME ========================== */

func (s *AuthService) Me(ctx context.Context, accountID uuid.UUID) (*accModel.AccountModel, error) {
	acc, err := authRepo.FindAccountByID(ctx, s.DB, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrAccountNotFound
	}
	return acc, err
}

type ProfileUpdate struct {
	Name   *string
	Mobile *string
	Course *string
	Grade  *string
	School *string
}

func (s *AuthService) UpdateMe(ctx context.Context, accountID uuid.UUID, p ProfileUpdate) (*accModel.AccountModel, error) {
	updates := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.ValidationFields(map[string][]string{"name": {"must not be empty"}})
		}
		updates["name"] = name
	}
	for col, v := range map[string]*string{"mobile": p.Mobile, "course": p.Course, "grade": p.Grade, "school": p.School} {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	if len(updates) > 0 {
		res := s.DB.WithContext(ctx).Model(&accModel.AccountModel{}).Where("id = ?", accountID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ErrAccountNotFound
		}
	}
	return s.Me(ctx, accountID)
}
