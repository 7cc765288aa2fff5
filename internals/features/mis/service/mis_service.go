package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"lurnex_backend/internals/constants"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	sessSvc "lurnex_backend/internals/features/classes/class_sessions/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
)

// MISService computes reporting aggregates on read; nothing is cached.
type MISService struct {
	DB       *gorm.DB
	Sessions *sessSvc.SessionRegistry
	Now      func() time.Time
}

func New(db *gorm.DB, sessions *sessSvc.SessionRegistry) *MISService {
	return &MISService{DB: db, Sessions: sessions, Now: time.Now}
}

type Stats struct {
	ActiveStudents   int64
	HoursRemaining   decimal.Decimal
	Trainers         int64
	HoursTaught      decimal.Decimal
	ClassesScheduled int64
	ClassesCompleted int64
	ClassesCancelled int64
}

type DashboardStats struct {
	Students int64
	Trainers int64
	Live     int64
}

type HistoryItem struct {
	Session  sessSvc.SessionView
	Hours    decimal.Decimal
	Students []sessSvc.RosterEntry
}

func (s *MISService) Stats(ctx context.Context) (*Stats, error) {
	db := s.DB.WithContext(ctx)
	out := &Stats{}

	var students struct {
		N   int64
		Sum decimal.Decimal
	}
	if err := db.Model(&accModel.AccountModel{}).
		Select("COUNT(*) AS n, COALESCE(SUM(hours_balance), 0) AS sum").
		Where("role = ? AND status = ?", constants.RoleStudent, constants.StatusPaid).
		Scan(&students).Error; err != nil {
		return nil, err
	}
	out.ActiveStudents, out.HoursRemaining = students.N, students.Sum.Round(2)

	var trainers struct {
		N   int64
		Sum decimal.Decimal
	}
	if err := db.Model(&accModel.AccountModel{}).
		Select("COUNT(*) AS n, COALESCE(SUM(hours_taught), 0) AS sum").
		Where("role = ?", constants.RoleTrainer).
		Scan(&trainers).Error; err != nil {
		return nil, err
	}
	out.Trainers, out.HoursTaught = trainers.N, trainers.Sum.Round(2)

	var byStatus []struct {
		Status string
		N      int64
	}
	if err := db.Model(&sessModel.ClassSessionModel{}).
		Select("class_session_status AS status, COUNT(*) AS n").
		Group("class_session_status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		switch sessModel.SessionStatus(r.Status) {
		case sessModel.SessionStatusScheduled:
			out.ClassesScheduled = r.N
		case sessModel.SessionStatusCompleted:
			out.ClassesCompleted = r.N
		case sessModel.SessionStatusCancelled:
			out.ClassesCancelled = r.N
		}
	}
	return out, nil
}

// Dashboard counts every student regardless of status; live means a
// scheduled session in progress now.
func (s *MISService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.DB.WithContext(ctx)
	out := &DashboardStats{}
	if err := db.Model(&accModel.AccountModel{}).Where("role = ?", constants.RoleStudent).Count(&out.Students).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&accModel.AccountModel{}).Where("role = ?", constants.RoleTrainer).Count(&out.Trainers).Error; err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	if err := db.Model(&sessModel.ClassSessionModel{}).
		Where("class_session_status = ?", sessModel.SessionStatusScheduled).
		Where("class_session_start_at <= ? AND class_session_end_at > ?", now, now).
		Count(&out.Live).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TeachingHistory pages completed sessions newest first, each with its
// duration and current roster.
func (s *MISService) TeachingHistory(ctx context.Context, f sessSvc.ListFilter, limit, offset int) ([]HistoryItem, int64, error) {
	f.Status = string(sessModel.SessionStatusCompleted)
	rows, total, err := s.Sessions.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	out := make([]HistoryItem, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range rows {
		i := i
		out[i] = HistoryItem{
			Session: rows[i],
			Hours:   sessSvc.DurationHours(rows[i].ClassSessionStartAt, rows[i].ClassSessionEndAt),
		}
		g.Go(func() error {
			roster, err := s.Sessions.RosterOf(gctx, rows[i].ClassSessionID)
			if err != nil {
				return err
			}
			out[i].Students = roster
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
