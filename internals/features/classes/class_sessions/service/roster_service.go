package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	accModel "lurnex_backend/internals/features/users/accounts/model"
)

// RosterResolver answers "who attends this session" from live data: the
// explicit list when one was stored, otherwise whoever is in the batch now.
type RosterResolver struct{}

// Resolve returns student ids in a stable order. tx may be a transaction.
func (RosterResolver) Resolve(ctx context.Context, tx *gorm.DB, s *sessModel.ClassSessionModel) ([]uuid.UUID, error) {
	db := tx.WithContext(ctx)

	var explicit []uuid.UUID
	if err := db.Model(&sessModel.SessionStudentModel{}).
		Where("class_session_student_session_id = ?", s.ClassSessionID).
		Order("class_session_student_position ASC").
		Pluck("class_session_student_student_id", &explicit).Error; err != nil {
		return nil, err
	}
	if len(explicit) > 0 {
		return explicit, nil
	}

	if s.ClassSessionBatchID == nil {
		return []uuid.UUID{}, nil
	}
	var members []uuid.UUID
	if err := db.Model(&accModel.AccountModel{}).
		Where("batch_id = ? AND role = ?", *s.ClassSessionBatchID, constants.RoleStudent).
		Order("created_at ASC, id ASC").
		Pluck("id", &members).Error; err != nil {
		return nil, err
	}
	if members == nil {
		members = []uuid.UUID{}
	}
	return members, nil
}

// Accounts loads the resolved roster with contact details, keeping order.
func (r RosterResolver) Accounts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]accModel.AccountModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []accModel.AccountModel
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]accModel.AccountModel, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	out := make([]accModel.AccountModel, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
