package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	"lurnex_backend/internals/helpers/apperr"
)

// SessionView is a session row joined with its trainer's name and the size
// of its enrolment index.
type SessionView struct {
	sessModel.ClassSessionModel
	TrainerName   string `gorm:"column:trainer_name" json:"trainer_name"`
	EnrolledCount int64  `gorm:"column:enrolled_count" json:"enrolled_count"`
}

type Window string

const (
	WindowLive     Window = "live"
	WindowUpcoming Window = "upcoming"
	WindowPast     Window = "past"
)

type ListFilter struct {
	TrainerID *uuid.UUID
	BatchID   *uuid.UUID
	SeriesID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
	Search    string
}

const viewSelect = `class_sessions.*, accounts.name AS trainer_name,
	(SELECT COUNT(*) FROM student_enrollments se
	  WHERE se.student_enrollment_session_id = class_sessions.class_session_id) AS enrolled_count`

func (r *SessionRegistry) views(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&sessModel.ClassSessionModel{}).
		Select(viewSelect).
		Joins("LEFT JOIN accounts ON accounts.id = class_sessions.class_session_trainer_id")
}

func (r *SessionRegistry) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	var v SessionView
	err := r.views(ctx).Where("class_sessions.class_session_id = ?", id).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSessionNotFound.WithMessage("session %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List is the admin listing, newest start first.
func (r *SessionRegistry) List(ctx context.Context, f ListFilter, limit, offset int) ([]SessionView, int64, error) {
	q := r.DB.WithContext(ctx).Model(&sessModel.ClassSessionModel{})
	q = applyFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]SessionView, 0, limit)
	err := applyFilter(r.views(ctx), f).
		Order("class_sessions.class_session_start_at DESC, class_sessions.class_session_id ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.TrainerID != nil {
		q = q.Where("class_sessions.class_session_trainer_id = ?", *f.TrainerID)
	}
	if f.BatchID != nil {
		q = q.Where("class_sessions.class_session_batch_id = ?", *f.BatchID)
	}
	if f.SeriesID != nil {
		q = q.Where("class_sessions.class_session_series_id = ?", *f.SeriesID)
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("class_sessions.class_session_status = ?", s)
	}
	if f.From != nil {
		q = q.Where("class_sessions.class_session_start_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("class_sessions.class_session_start_at < ?", f.To.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(class_sessions.class_session_title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}

// Live lists scheduled sessions in progress right now.
func (r *SessionRegistry) Live(ctx context.Context) ([]SessionView, error) {
	now := r.Now().UTC()
	rows := []SessionView{}
	err := r.views(ctx).
		Where("class_sessions.class_session_status = ?", sessModel.SessionStatusScheduled).
		Where("class_sessions.class_session_start_at <= ? AND class_sessions.class_session_end_at > ?", now, now).
		Order("class_sessions.class_session_start_at ASC").
		Find(&rows).Error
	return rows, err
}

// ForStudent reads the student's enrolment index. Cancelled sessions only
// show up in the past window, with their status.
func (r *SessionRegistry) ForStudent(ctx context.Context, studentID uuid.UUID, w Window) ([]SessionView, error) {
	now := r.Now().UTC()
	q := r.views(ctx).
		Joins("JOIN student_enrollments en ON en.student_enrollment_session_id = class_sessions.class_session_id").
		Where("en.student_enrollment_student_id = ?", studentID)

	switch w {
	case WindowLive:
		q = q.Where("class_sessions.class_session_status = ?", sessModel.SessionStatusScheduled).
			Where("class_sessions.class_session_start_at <= ? AND class_sessions.class_session_end_at > ?", now, now).
			Order("class_sessions.class_session_start_at ASC")
	case WindowUpcoming:
		q = q.Where("class_sessions.class_session_status = ?", sessModel.SessionStatusScheduled).
			Where("class_sessions.class_session_start_at > ?", now).
			Order("class_sessions.class_session_start_at ASC")
	case WindowPast:
		q = q.Where("(class_sessions.class_session_end_at <= ? OR class_sessions.class_session_status <> ?)", now, sessModel.SessionStatusScheduled).
			Order("class_sessions.class_session_start_at DESC")
	default:
		return nil, apperr.Validation("unknown window %q", w)
	}

	rows := []SessionView{}
	err := q.Find(&rows).Error
	return rows, err
}

// ForTrainer lists the trainer's non-cancelled sessions, earliest first.
func (r *SessionRegistry) ForTrainer(ctx context.Context, trainerID uuid.UUID) ([]SessionView, error) {
	rows := []SessionView{}
	err := r.views(ctx).
		Where("class_sessions.class_session_trainer_id = ?", trainerID).
		Where("class_sessions.class_session_status <> ?", sessModel.SessionStatusCancelled).
		Order("class_sessions.class_session_start_at ASC").
		Find(&rows).Error
	return rows, err
}

// CompletedForStudent lists completed sessions the student was enrolled in,
// latest first.
func (r *SessionRegistry) CompletedForStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]SessionView, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN student_enrollments en ON en.student_enrollment_session_id = class_sessions.class_session_id").
			Where("en.student_enrollment_student_id = ?", studentID).
			Where("class_sessions.class_session_status = ?", sessModel.SessionStatusCompleted)
	}

	var total int64
	if err := scope(r.DB.WithContext(ctx).Model(&sessModel.ClassSessionModel{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []SessionView{}
	err := scope(r.views(ctx)).Order("class_sessions.class_session_start_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

// AttachRecording stores the recording link. Allowed in any status.
func (r *SessionRegistry) AttachRecording(ctx context.Context, id uuid.UUID, url string) (*SessionView, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperr.ValidationFields(map[string][]string{"recording_url": {"is required"}})
	}
	res := r.DB.WithContext(ctx).Model(&sessModel.ClassSessionModel{}).
		Where("class_session_id = ?", id).
		Update("class_session_recording_url", url)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrSessionNotFound.WithMessage("session %s not found", id)
	}
	return r.Get(ctx, id)
}

// RosterOf returns the live roster of a session with account details.
func (r *SessionRegistry) RosterOf(ctx context.Context, id uuid.UUID) ([]RosterEntry, error) {
	var s sessModel.ClassSessionModel
	if err := r.DB.WithContext(ctx).Where("class_session_id = ?", id).Take(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrSessionNotFound.WithMessage("session %s not found", id)
		}
		return nil, err
	}
	ids, err := r.Roster.Resolve(ctx, r.DB, &s)
	if err != nil {
		return nil, err
	}
	accounts, err := r.Roster.Accounts(ctx, r.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RosterEntry, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, RosterEntry{ID: a.ID, Name: a.Name, Email: a.Email, HoursBalance: a.HoursBalance.String()})
	}
	return out, nil
}

type RosterEntry struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	HoursBalance string    `json:"hours_balance"`
}
