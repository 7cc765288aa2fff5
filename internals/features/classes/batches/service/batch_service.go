package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lurnex_backend/internals/constants"
	batchModel "lurnex_backend/internals/features/classes/batches/model"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	helper "lurnex_backend/internals/helpers"
	"lurnex_backend/internals/helpers/apperr"
)

const DefaultCourse = "General"

type BatchService struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *BatchService { return &BatchService{DB: db} }

type AssignmentInput struct {
	Subject   string
	TrainerID *uuid.UUID
	Timing    *string
}

type CreateInput struct {
	Name        string
	Course      string
	Assignments []AssignmentInput
}

// UpdateInput fields are optional. A non-nil Assignments replaces the
// whole assignment list.
type UpdateInput struct {
	Name        *string
	Course      *string
	IsActive    *bool
	Assignments *[]AssignmentInput
}

type Summary struct {
	batchModel.BatchModel
	StudentCount int64 `gorm:"column:student_count" json:"student_count"`
	SessionCount int64 `gorm:"column:session_count" json:"session_count"`
}

type Details struct {
	Batch    batchModel.BatchModel
	Students []accModel.AccountModel
	Sessions []sessModel.ClassSessionModel
}

/* =========================
   Create / Update
========================= */

func (s *BatchService) Create(ctx context.Context, in CreateInput) (*batchModel.BatchModel, error) {
	name := strings.TrimSpace(in.Name)
	key := helper.NameKey(name)
	if key == "" {
		return nil, apperr.ValidationFields(map[string][]string{"name": {"is required"}})
	}
	if err := s.checkNameFree(ctx, s.DB, key, nil); err != nil {
		return nil, err
	}
	if err := s.checkAssignments(ctx, in.Assignments); err != nil {
		return nil, err
	}

	course := strings.TrimSpace(in.Course)
	if course == "" {
		course = DefaultCourse
	}
	b := batchModel.BatchModel{
		BatchName:     name,
		BatchNameKey:  key,
		BatchCourse:   course,
		BatchIsActive: true,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		rows, err := insertAssignments(tx, b.BatchID, in.Assignments)
		b.Assignments = rows
		return err
	})
	if err != nil {
		return nil, translateNameConflict(err)
	}
	return &b, nil
}

func (s *BatchService) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*batchModel.BatchModel, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		key := helper.NameKey(name)
		if key == "" {
			return nil, apperr.ValidationFields(map[string][]string{"name": {"must not be empty"}})
		}
		if err := s.checkNameFree(ctx, s.DB, key, &id); err != nil {
			return nil, err
		}
		updates["batch_name"] = name
		updates["batch_name_key"] = key
	}
	if in.Course != nil {
		course := strings.TrimSpace(*in.Course)
		if course == "" {
			course = DefaultCourse
		}
		updates["batch_course"] = course
	}
	if in.IsActive != nil {
		updates["batch_is_active"] = *in.IsActive
	}
	if in.Assignments != nil {
		if err := s.checkAssignments(ctx, *in.Assignments); err != nil {
			return nil, err
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b batchModel.BatchModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", id).Take(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrBatchNotFound.WithMessage("batch %s not found", id)
			}
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&batchModel.BatchModel{}).Where("batch_id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Assignments != nil {
			if err := tx.Where("batch_assignment_batch_id = ?", id).Delete(&batchModel.BatchAssignmentModel{}).Error; err != nil {
				return err
			}
			if _, err := insertAssignments(tx, id, *in.Assignments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateNameConflict(err)
	}
	return s.Get(ctx, id)
}

func insertAssignments(tx *gorm.DB, batchID uuid.UUID, in []AssignmentInput) ([]batchModel.BatchAssignmentModel, error) {
	if len(in) == 0 {
		return nil, nil
	}
	rows := make([]batchModel.BatchAssignmentModel, 0, len(in))
	for _, a := range in {
		timing := strings.TrimSpace(*a.Timing)
		rows = append(rows, batchModel.BatchAssignmentModel{
			BatchAssignmentBatchID:   batchID,
			BatchAssignmentSubject:   strings.TrimSpace(a.Subject),
			BatchAssignmentTrainerID: a.TrainerID,
			BatchAssignmentTiming:    &timing,
		})
	}
	return rows, tx.Create(&rows).Error
}

func (s *BatchService) checkNameFree(ctx context.Context, db *gorm.DB, key string, exclude *uuid.UUID) error {
	q := db.WithContext(ctx).Model(&batchModel.BatchModel{}).Where("batch_name_key = ?", key)
	if exclude != nil {
		q = q.Where("batch_id <> ?", *exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.ErrDuplicateBatchName
	}
	return nil
}

// checkTrainers asserts every assigned trainer id is a trainer account.
// checkAssignments enforces at least one assignment, each with a subject,
// a timing and a trainer that exists with the trainer role.
func (s *BatchService) checkAssignments(ctx context.Context, in []AssignmentInput) error {
	if len(in) == 0 {
		return apperr.ValidationFields(map[string][]string{"assignments": {"at least one assignment is required"}})
	}
	want := map[uuid.UUID]struct{}{}
	for _, a := range in {
		switch {
		case strings.TrimSpace(a.Subject) == "":
			return apperr.ValidationFields(map[string][]string{"assignments": {"subject is required"}})
		case a.TrainerID == nil || *a.TrainerID == uuid.Nil:
			return apperr.ValidationFields(map[string][]string{"assignments": {"trainer_id is required"}})
		case a.Timing == nil || strings.TrimSpace(*a.Timing) == "":
			return apperr.ValidationFields(map[string][]string{"assignments": {"timing is required"}})
		}
		want[*a.TrainerID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&accModel.AccountModel{}).
		Where("id IN ? AND role = ?", ids, constants.RoleTrainer).
		Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return apperr.ValidationFields(map[string][]string{"assignments": {"every trainer_id must reference a trainer"}})
	}
	return nil
}

func translateNameConflict(err error) error {
	if apperr.KindOf(helper.MapDBError(err)) == apperr.KindConflict {
		return apperr.ErrDuplicateBatchName
	}
	return err
}

/* =========================
   Reads
========================= */

func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*batchModel.BatchModel, error) {
	var b batchModel.BatchModel
	err := s.DB.WithContext(ctx).Preload("Assignments").Where("batch_id = ?", id).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrBatchNotFound.WithMessage("batch %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const summarySelect = `batches.*,
	(SELECT COUNT(*) FROM accounts a WHERE a.batch_id = batches.batch_id AND a.role = 'student') AS student_count,
	(SELECT COUNT(*) FROM batch_sessions bs WHERE bs.batch_session_batch_id = batches.batch_id) AS session_count`

func (s *BatchService) List(ctx context.Context, active *bool, search string, limit, offset int) ([]Summary, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if active != nil {
			q = q.Where("batches.batch_is_active = ?", *active)
		}
		if key := helper.NameKey(search); key != "" {
			q = q.Where("batches.batch_name_key LIKE ?", "%"+key+"%")
		}
		return q
	}

	var total int64
	if err := scope(s.DB.WithContext(ctx).Model(&batchModel.BatchModel{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]Summary, 0, limit)
	err := scope(s.DB.WithContext(ctx).Model(&batchModel.BatchModel{}).Select(summarySelect)).
		Preload("Assignments").
		Order("batches.batch_name ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

// Details returns the batch with its current members and indexed sessions.
func (s *BatchService) Details(ctx context.Context, id uuid.UUID) (*Details, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Details{Batch: *b}
	if err := s.DB.WithContext(ctx).
		Where("batch_id = ? AND role = ?", id, constants.RoleStudent).
		Order("name ASC").
		Find(&out.Students).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).
		Joins("JOIN batch_sessions bs ON bs.batch_session_session_id = class_sessions.class_session_id").
		Where("bs.batch_session_batch_id = ?", id).
		Order("class_sessions.class_session_start_at ASC").
		Find(&out.Sessions).Error; err != nil {
		return nil, err
	}
	return out, nil
}
