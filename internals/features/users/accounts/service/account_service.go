package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lurnex_backend/internals/constants"
	batchModel "lurnex_backend/internals/features/classes/batches/model"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	authRepo "lurnex_backend/internals/features/users/auth/repository"
	authSvc "lurnex_backend/internals/features/users/auth/service"
	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/helpers/metrics"
	"lurnex_backend/internals/helpers/notify"
)

// AccountService is the admin surface over students and trainers.
type AccountService struct {
	DB       *gorm.DB
	Ledger   *ledgerSvc.HoursLedger
	Notifier notify.Dispatcher
	Now      func() time.Time
}

func New(db *gorm.DB, ledger *ledgerSvc.HoursLedger, notifier notify.Dispatcher) *AccountService {
	if notifier == nil {
		notifier = notify.LogDispatcher{}
	}
	return &AccountService{DB: db, Ledger: ledger, Notifier: notifier, Now: time.Now}
}

type ListFilter struct {
	Role    string
	Status  string
	BatchID *uuid.UUID
	Search  string
}

type Credentials struct {
	Account           accModel.AccountModel
	TemporaryPassword string
}

/* =========================
   Reads
========================= */

func (s *AccountService) List(ctx context.Context, f ListFilter, limit, offset int) ([]accModel.AccountModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&accModel.AccountModel{}).Where("role = ?", f.Role)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BatchID != nil {
		q = q.Where("batch_id = ?", *f.BatchID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]accModel.AccountModel, 0, limit)
	err := q.Order("created_at DESC, id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

// Get loads an account and checks its role.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID, role string) (*accModel.AccountModel, error) {
	return s.load(s.DB.WithContext(ctx), id, role, false)
}

func (s *AccountService) load(tx *gorm.DB, id uuid.UUID, role string, lock bool) (*accModel.AccountModel, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var a accModel.AccountModel
	if err := q.Where("id = ? AND role = ?", id, role).Take(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAccountNotFound.WithMessage("%s %s not found", role, id)
		}
		return nil, err
	}
	return &a, nil
}

/* =========================
   Create
========================= */

type CreateStudentInput struct {
	Name           string
	Email          string
	Mobile         *string
	Course         *string
	Grade          *string
	School         *string
	OpeningBalance decimal.Decimal
	BatchID        *uuid.UUID
	IsOneOnOne     bool
	CreatedBy      *uuid.UUID
}

type CreateTrainerInput struct {
	Name    string
	Email   string
	Mobile    *string
	Subject   *string
	CreatedBy *uuid.UUID
}

// CreateStudent stores a pending student with an unusable temporary
// credential and books the opening balance as the first ledger entry. The
// usable credential is issued and sent on approval (UpdateStatus).
func (s *AccountService) CreateStudent(ctx context.Context, in CreateStudentInput) (*Credentials, error) {
	if err := s.checkPlacement(ctx, in.BatchID, in.IsOneOnOne); err != nil {
		return nil, err
	}
	acc := accModel.AccountModel{
		Name:       strings.TrimSpace(in.Name),
		Email:      authRepo.NormalizeEmail(in.Email),
		Role:       constants.RoleStudent,
		Status:     constants.StatusPending,
		Mobile:     in.Mobile,
		Course:     in.Course,
		Grade:      in.Grade,
		School:     in.School,
		BatchID:    in.BatchID,
		IsOneOnOne: in.IsOneOnOne,
	}
	creds, err := s.create(ctx, &acc, in.CreatedBy, false, func(tx *gorm.DB) error {
		if in.OpeningBalance.IsZero() {
			return nil
		}
		return s.Ledger.ApplyStudentAdjustment(ctx, tx, ledgerSvc.Adjustment{
			AccountID:     acc.ID,
			Delta:         in.OpeningBalance,
			EffectiveDate: s.Now(),
			Note:          "Opening balance",
		})
	})
	if err != nil {
		return nil, err
	}
	if !in.OpeningBalance.IsZero() {
		creds.Account.HoursBalance = in.OpeningBalance.Round(2)
	}
	creds.TemporaryPassword = ""
	return creds, nil
}

func (s *AccountService) CreateTrainer(ctx context.Context, in CreateTrainerInput) (*Credentials, error) {
	acc := accModel.AccountModel{
		Name:    strings.TrimSpace(in.Name),
		Email:   authRepo.NormalizeEmail(in.Email),
		Role:    constants.RoleTrainer,
		Status:  constants.StatusPaid,
		Mobile:  in.Mobile,
		Subject: in.Subject,
	}
	return s.create(ctx, &acc, in.CreatedBy, true, nil)
}

// create inserts acc with a temporary credential. notifyCreds sends the
// credential once the row is committed.
func (s *AccountService) create(ctx context.Context, acc *accModel.AccountModel, actor *uuid.UUID, notifyCreds bool, after func(tx *gorm.DB) error) (*Credentials, error) {
	taken, err := authRepo.EmailTaken(ctx, s.DB, acc.Email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ErrDuplicateEmail
	}

	temp, hash, err := newTemporaryCredential()
	if err != nil {
		return nil, err
	}
	acc.PasswordHash = hash
	acc.IsTemporaryPassword = true

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}
		if err := s.Ledger.AppendCredentialHistory(ctx, tx, acc.ID, ledgerSvc.CredentialEntry{
			PasswordHash: hash,
			IsTemporary:  true,
			ChangedBy:    actor,
			ChangedAt:    s.Now(),
		}); err != nil {
			return err
		}
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(helper.MapDBError(err)) == apperr.KindConflict {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}

	if notifyCreds {
		s.sendCredentials(ctx, acc, temp)
	}
	return &Credentials{Account: *acc, TemporaryPassword: temp}, nil
}

func newTemporaryCredential() (plain, hash string, err error) {
	plain, err = authSvc.GenerateTemporaryPassword(authSvc.TemporaryPasswordLength)
	if err != nil {
		return "", "", apperr.Internal(err, "failed to generate password")
	}
	hash, err = authSvc.HashPassword(plain)
	return plain, hash, err
}

func (s *AccountService) sendCredentials(ctx context.Context, acc *accModel.AccountModel, temp string) {
	err := s.Notifier.NotifyCredentials(ctx, notify.CredentialsNotice{
		Recipient:         notify.Recipient{ID: acc.ID, Name: acc.Name, Email: acc.Email},
		Role:              acc.Role,
		TemporaryPassword: temp,
	})
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("credentials").Inc()
		log.Printf("[Accounts] credentials notice for %s failed: %v", acc.ID, err)
	}
}

/* =========================
   Update
========================= */

type UpdateInput struct {
	Name         *string
	Email        *string
	Mobile       *string
	Course       *string
	Grade        *string
	School       *string
	Subject      *string
	HoursBalance *decimal.Decimal
}

// Update edits profile fields. A new hours balance is booked as a ledger
// correction for the difference, never written directly.
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, role string, in UpdateInput, actor uuid.UUID) (*accModel.AccountModel, error) {
	if in.Email != nil {
		email := authRepo.NormalizeEmail(*in.Email)
		taken, err := authRepo.EmailTaken(ctx, s.DB, email, &id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.ErrDuplicateEmail
		}
		in.Email = &email
	}
	if in.HoursBalance != nil && role != constants.RoleStudent {
		return nil, apperr.ValidationFields(map[string][]string{"hours_balance": {"only students have an hours balance"}})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc, err := s.load(tx, id, role, true)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.ValidationFields(map[string][]string{"name": {"must not be empty"}})
			}
			updates["name"] = name
		}
		if in.Email != nil {
			updates["email"] = *in.Email
		}
		for col, v := range map[string]*string{"mobile": in.Mobile, "course": in.Course, "grade": in.Grade, "school": in.School, "subject": in.Subject} {
			if v != nil {
				updates[col] = strings.TrimSpace(*v)
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&accModel.AccountModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.HoursBalance != nil {
			delta := in.HoursBalance.Round(2).Sub(acc.HoursBalance)
			if !delta.IsZero() {
				return s.Ledger.ApplyStudentAdjustment(ctx, tx, ledgerSvc.Adjustment{
					AccountID:     id,
					Delta:         delta,
					EffectiveDate: s.Now(),
					Note:          "Balance correction by admin " + actor.String(),
				})
			}
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(helper.MapDBError(err)) == apperr.KindConflict {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}
	return s.Get(ctx, id, role)
}

/* =========================
   Hours
========================= */

type AddHoursInput struct {
	Hours        decimal.Decimal
	PurchaseDate time.Time
	Note         string
}

func (s *AccountService) AddHours(ctx context.Context, studentID uuid.UUID, in AddHoursInput) (*accModel.AccountModel, error) {
	if !in.Hours.IsPositive() {
		return nil, apperr.ValidationFields(map[string][]string{"hours": {"must be greater than 0"}})
	}
	if in.PurchaseDate.IsZero() {
		return nil, apperr.ValidationFields(map[string][]string{"purchase_date": {"is required"}})
	}
	note := strings.TrimSpace(in.Note)
	if note == "" {
		note = "Hours purchased"
	}
	if err := s.Ledger.ApplyStudentAdjustment(ctx, nil, ledgerSvc.Adjustment{
		AccountID:     studentID,
		Delta:         in.Hours,
		EffectiveDate: in.PurchaseDate,
		Note:          note,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, studentID, constants.RoleStudent)
}

/* =========================
   Placement & status
========================= */

func (s *AccountService) checkPlacement(ctx context.Context, batchID *uuid.UUID, oneOnOne bool) error {
	if batchID != nil && oneOnOne {
		return apperr.ValidationFields(map[string][]string{"batch_id": {"a one-on-one student cannot be in a batch"}})
	}
	if batchID == nil {
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&batchModel.BatchModel{}).Where("batch_id = ?", *batchID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrBatchNotFound.WithMessage("batch %s not found", *batchID)
	}
	return nil
}

// Transfer moves a student into a batch or to one-on-one; exactly one must be chosen.
func (s *AccountService) Transfer(ctx context.Context, studentID uuid.UUID, batchID *uuid.UUID, oneOnOne bool) (*accModel.AccountModel, error) {
	if batchID == nil && !oneOnOne {
		return nil, apperr.ValidationFields(map[string][]string{"batch_id": {"batch_id or is_one_on_one is required"}})
	}
	if err := s.checkPlacement(ctx, batchID, oneOnOne); err != nil {
		return nil, err
	}
	res := s.DB.WithContext(ctx).Model(&accModel.AccountModel{}).
		Where("id = ? AND role = ?", studentID, constants.RoleStudent).
		Updates(map[string]any{"batch_id": batchID, "is_one_on_one": oneOnOne})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrAccountNotFound.WithMessage("student %s not found", studentID)
	}
	return s.Get(ctx, studentID, constants.RoleStudent)
}

// UpdateStatus moves a student between pending and paid. Approving a
// pending student issues a fresh temporary credential and sends it.
func (s *AccountService) UpdateStatus(ctx context.Context, studentID uuid.UUID, status string, actor uuid.UUID) (*Credentials, error) {
	if status != constants.StatusPending && status != constants.StatusPaid {
		return nil, apperr.ValidationFields(map[string][]string{"status": {"must be one of pending, paid"}})
	}

	var (
		acc  *accModel.AccountModel
		temp string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		acc, err = s.load(tx, studentID, constants.RoleStudent, true)
		if err != nil {
			return err
		}
		if acc.Status == status {
			return nil
		}
		updates := map[string]any{"status": status}
		if acc.Status == constants.StatusPending && status == constants.StatusPaid {
			var hash string
			temp, hash, err = newTemporaryCredential()
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
			updates["is_temporary_password"] = true
			if err := s.Ledger.AppendCredentialHistory(ctx, tx, studentID, ledgerSvc.CredentialEntry{
				PasswordHash: hash,
				IsTemporary:  true,
				ChangedBy:    &actor,
				ChangedAt:    s.Now(),
			}); err != nil {
				return err
			}
		}
		return tx.Model(&accModel.AccountModel{}).Where("id = ?", studentID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.Get(ctx, studentID, constants.RoleStudent)
	if err != nil {
		return nil, err
	}
	if temp != "" {
		s.sendCredentials(ctx, fresh, temp)
	}
	return &Credentials{Account: *fresh, TemporaryPassword: temp}, nil
}

/* =========================
   Passwords
========================= */

// SetPassword is the admin override. temporary forces a change on next login.
func (s *AccountService) SetPassword(ctx context.Context, id uuid.UUID, role, plain string, temporary bool, actor uuid.UUID) error {
	if err := authSvc.ValidateNewPassword(plain); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id, role); err != nil {
		return err
	}
	hash, err := authSvc.HashPassword(plain)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := authRepo.UpdatePassword(ctx, tx, id, hash, temporary); err != nil {
			return err
		}
		return s.Ledger.AppendCredentialHistory(ctx, tx, id, ledgerSvc.CredentialEntry{
			PasswordHash: hash,
			IsTemporary:  temporary,
			ChangedBy:    &actor,
			ChangedAt:    s.Now(),
		})
	})
}

type PasswordHistoryItem struct {
	HashPreview string     `json:"hash_preview"`
	IsTemporary bool       `json:"is_temporary"`
	ChangedBy   *uuid.UUID `json:"changed_by,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}

// HashPreview shows the first and last six characters of a hash.
func HashPreview(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-6:]
}

func (s *AccountService) PasswordHistory(ctx context.Context, id uuid.UUID, role string) ([]PasswordHistoryItem, error) {
	if _, err := s.Get(ctx, id, role); err != nil {
		return nil, err
	}
	rows, err := s.Ledger.CredentialHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]PasswordHistoryItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, PasswordHistoryItem{
			HashPreview: HashPreview(r.PasswordHash),
			IsTemporary: r.IsTemporary,
			ChangedBy:   r.ChangedBy,
			ChangedAt:   r.ChangedAt,
		})
	}
	return out, nil
}

/* =========================
   Delete
========================= */

// DeleteTrainer removes the trainer and every session they own, with the
// batch, enrolment and roster rows pointing at those sessions. A trainer
// still named in a batch assignment is refused; every assignment keeps a
// trainer.
func (s *AccountService) DeleteTrainer(ctx context.Context, id uuid.UUID) (int, error) {
	var removed int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, id, constants.RoleTrainer, true); err != nil {
			return err
		}
		var batches []string
		if err := tx.Model(&batchModel.BatchAssignmentModel{}).
			Joins("JOIN batches ON batches.batch_id = batch_assignments.batch_assignment_batch_id").
			Where("batch_assignments.batch_assignment_trainer_id = ?", id).
			Distinct().Order("batches.batch_name").
			Pluck("batches.batch_name", &batches).Error; err != nil {
			return err
		}
		if len(batches) > 0 {
			return apperr.ErrTrainerAssigned.WithMessage("trainer is assigned in batches %s; reassign them first", strings.Join(batches, ", "))
		}
		var sessionIDs []uuid.UUID
		if err := tx.Model(&sessModel.ClassSessionModel{}).
			Where("class_session_trainer_id = ?", id).
			Pluck("class_session_id", &sessionIDs).Error; err != nil {
			return err
		}
		if len(sessionIDs) > 0 {
			steps := []struct {
				model  any
				column string
			}{
				{&batchModel.BatchSessionModel{}, "batch_session_session_id"},
				{&sessModel.StudentEnrollmentModel{}, "student_enrollment_session_id"},
				{&sessModel.SessionStudentModel{}, "class_session_student_session_id"},
				{&sessModel.ClassSessionModel{}, "class_session_id"},
			}
			for _, st := range steps {
				if err := tx.Where(st.column+" IN ?", sessionIDs).Delete(st.model).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("id = ?", id).Delete(&accModel.AccountModel{}).Error; err != nil {
			return err
		}
		removed = len(sessionIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[Accounts.DeleteTrainer] trainer=%s sessions removed=%d", id, removed)
	return removed, nil
}
