package dto

import (
	"github.com/google/uuid"

	sessSvc "lurnex_backend/internals/features/classes/class_sessions/service"
	"lurnex_backend/internals/features/mis/service"
)

type StatsResponse struct {
	TotalActiveStudents int64  `json:"total_active_students"`
	TotalHoursRemaining string `json:"total_hours_remaining"`
	TotalTrainers       int64  `json:"total_trainers"`
	TotalHoursTaught    string `json:"total_hours_taught"`
	ClassesScheduled    int64  `json:"classes_scheduled"`
	ClassesCompleted    int64  `json:"classes_completed"`
	ClassesCancelled    int64  `json:"classes_cancelled"`
}

func NewStatsResponse(s *service.Stats) StatsResponse {
	return StatsResponse{
		TotalActiveStudents: s.ActiveStudents,
		TotalHoursRemaining: s.HoursRemaining.StringFixed(2),
		TotalTrainers:       s.Trainers,
		TotalHoursTaught:    s.HoursTaught.StringFixed(2),
		ClassesScheduled:    s.ClassesScheduled,
		ClassesCompleted:    s.ClassesCompleted,
		ClassesCancelled:    s.ClassesCancelled,
	}
}

type DashboardResponse struct {
	TotalStudents  int64 `json:"total_students"`
	ActiveTrainers int64 `json:"active_trainers"`
	LiveClasses    int64 `json:"live_classes"`
}

func NewDashboardResponse(s *service.DashboardStats) DashboardResponse {
	return DashboardResponse{TotalStudents: s.Students, ActiveTrainers: s.Trainers, LiveClasses: s.Live}
}

type HistoryQuery struct {
	TrainerID string `query:"trainer_id" validate:"omitempty,uuid"`
	BatchID   string `query:"batch_id"   validate:"omitempty,uuid"`
}

func (q HistoryQuery) ToFilter() sessSvc.ListFilter {
	var f sessSvc.ListFilter
	if id, err := uuid.Parse(q.TrainerID); err == nil {
		f.TrainerID = &id
	}
	if id, err := uuid.Parse(q.BatchID); err == nil {
		f.BatchID = &id
	}
	return f
}

type HistoryResponse struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Date        string                `json:"date"`
	TrainerID   uuid.UUID             `json:"trainer_id"`
	TrainerName string                `json:"trainer_name"`
	Duration    string                `json:"duration"`
	Remark      *string               `json:"remark,omitempty"`
	Students    []sessSvc.RosterEntry `json:"students"`
}

func FromHistory(rows []service.HistoryItem) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, r := range rows {
		name := r.Session.TrainerName
		if name == "" {
			name = "N/A"
		}
		students := r.Students
		if students == nil {
			students = []sessSvc.RosterEntry{}
		}
		out = append(out, HistoryResponse{
			ID:          r.Session.ClassSessionID,
			Title:       r.Session.ClassSessionTitle,
			Date:        r.Session.ClassSessionStartAt.UTC().Format("2006-01-02"),
			TrainerID:   r.Session.ClassSessionTrainerID,
			TrainerName: name,
			Duration:    r.Hours.StringFixed(2),
			Remark:      r.Session.ClassSessionRemark,
			Students:    students,
		})
	}
	return out
}
