package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/features/classes/class_schedules/recurrence"
	model "lurnex_backend/internals/features/classes/class_sessions/model"
	"lurnex_backend/internals/features/classes/class_sessions/service"
	"lurnex_backend/internals/helpers/apperr"
)

/* =========================================================
   REQUESTS
   ========================================================= */

type RecurrenceRequest struct {
	Enabled   bool   `json:"enabled"`
	Frequency string `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	Interval  int    `json:"interval"  validate:"omitempty,min=1,max=365"`
	Weekdays  []int  `json:"weekdays"  validate:"omitempty,max=7,dive,min=0,max=6"`
	EndType   string `json:"end_type"  validate:"omitempty,oneof=count date never"`
	Count     int    `json:"count"     validate:"omitempty,min=1,max=500"`
	Until     string `json:"until"`
	Timezone  string `json:"timezone"  validate:"omitempty,max=64"`
}

// ToRule converts the request into an expansion rule. Until is read in the
// rule's timezone (defaultTZ when none is given).
func (r *RecurrenceRequest) ToRule(defaultTZ string) (*recurrence.Rule, error) {
	if r == nil || !r.Enabled {
		return nil, nil
	}
	fields := map[string][]string{}
	if r.Frequency == "" {
		fields["recurrence.frequency"] = []string{"is required"}
	}
	endType := recurrence.EndType(strings.TrimSpace(r.EndType))
	if endType == "" {
		endType = recurrence.EndNever
	}

	rule := &recurrence.Rule{
		Enabled:   true,
		Frequency: recurrence.Frequency(r.Frequency),
		Interval:  r.Interval,
		EndType:   endType,
		Count:     r.Count,
	}
	if rule.Interval < 1 {
		rule.Interval = 1
	}
	for _, d := range r.Weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}

	switch endType {
	case recurrence.EndAfterCount:
		if r.Count < 1 {
			fields["recurrence.count"] = []string{"is required when end_type is count"}
		}
	case recurrence.EndOnDate:
		tz := strings.TrimSpace(r.Timezone)
		if tz == "" {
			tz = defaultTZ
		}
		loc, err := time.LoadLocation(tz)
		if err != nil {
			fields["recurrence.timezone"] = []string{"unknown timezone " + tz}
			break
		}
		until, err := recurrence.ParseUntil(r.Until, loc)
		if err != nil {
			fields["recurrence.until"] = []string{"must be RFC3339 or YYYY-MM-DD"}
			break
		}
		rule.Until = &until
	}

	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}
	return rule, nil
}

type CreateSessionRequest struct {
	Title      string             `json:"title"       validate:"required,max=200"`
	TrainerID  uuid.UUID          `json:"trainer_id"  validate:"required"`
	StartTime  time.Time          `json:"start_time"  validate:"required"`
	EndTime    time.Time          `json:"end_time"    validate:"required"`
	BatchID    *uuid.UUID         `json:"batch_id"`
	StudentIDs []uuid.UUID        `json:"student_ids" validate:"omitempty,max=500"`
	Recurrence *RecurrenceRequest `json:"recurrence"`
}

func (r CreateSessionRequest) ToInput(defaultTZ string) (service.ScheduleInput, error) {
	rule, err := r.Recurrence.ToRule(defaultTZ)
	if err != nil {
		return service.ScheduleInput{}, err
	}
	in := service.ScheduleInput{
		Title:      strings.TrimSpace(r.Title),
		TrainerID:  r.TrainerID,
		Start:      r.StartTime,
		End:        r.EndTime,
		BatchID:    r.BatchID,
		StudentIDs: r.StudentIDs,
		Recurrence: rule,
	}
	if r.Recurrence != nil {
		in.Timezone = strings.TrimSpace(r.Recurrence.Timezone)
	}
	return in, nil
}

type CompleteSessionRequest struct {
	Remark *string `json:"remark" validate:"omitempty,max=2000"`
}

type CancelSessionRequest struct {
	CancelledBy string `json:"cancelled_by" validate:"required,oneof=student trainer admin"`
	Reason      string `json:"reason"       validate:"required,max=1000"`
}

type RecordingRequest struct {
	RecordingURL string `json:"recording_url" validate:"required,url,max=2000"`
}

// ListQuery is bound from the admin listing query string.
type ListQuery struct {
	Status    string `query:"status"     validate:"omitempty,oneof=scheduled completed cancelled"`
	TrainerID string `query:"trainer_id" validate:"omitempty,uuid"`
	BatchID   string `query:"batch_id"   validate:"omitempty,uuid"`
	SeriesID  string `query:"series_id"  validate:"omitempty,uuid"`
	From      string `query:"from"`
	To        string `query:"to"`
	Q         string `query:"q"          validate:"omitempty,max=200"`
}

func parseOptUUID(s string) *uuid.UUID {
	if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
		return &id
	}
	return nil
}

func parseOptTime(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, true
	}
	return nil, false
}

func (q ListQuery) ToFilter() (service.ListFilter, error) {
	from, ok1 := parseOptTime(q.From)
	to, ok2 := parseOptTime(q.To)
	if !ok1 || !ok2 {
		return service.ListFilter{}, apperr.Validation("from/to must be RFC3339 or YYYY-MM-DD")
	}
	return service.ListFilter{
		TrainerID: parseOptUUID(q.TrainerID),
		BatchID:   parseOptUUID(q.BatchID),
		SeriesID:  parseOptUUID(q.SeriesID),
		Status:    q.Status,
		From:      from,
		To:        to,
		Search:    q.Q,
	}, nil
}

/* =========================================================
   RESPONSES
   ========================================================= */

type SessionResponse struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	TrainerID     uuid.UUID           `json:"trainer_id"`
	TrainerName   string              `json:"trainer_name,omitempty"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
	JoinURL       string              `json:"join_url"`
	RecordingURL  *string             `json:"recording_url,omitempty"`
	BatchID       *uuid.UUID          `json:"batch_id,omitempty"`
	SeriesID      *uuid.UUID          `json:"series_id,omitempty"`
	Recurrence    map[string]any      `json:"recurrence,omitempty"`
	Status        model.SessionStatus `json:"status"`
	Remark        *string             `json:"remark,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason  *string             `json:"cancellation_reason,omitempty"`
	CancelledBy   *string             `json:"cancelled_by,omitempty"`
	EnrolledCount *int64              `json:"enrolled_count,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewSessionResponse(m *model.ClassSessionModel) SessionResponse {
	return SessionResponse{
		ID:           m.ClassSessionID,
		Title:        m.ClassSessionTitle,
		TrainerID:    m.ClassSessionTrainerID,
		StartTime:    m.ClassSessionStartAt,
		EndTime:      m.ClassSessionEndAt,
		JoinURL:      m.ClassSessionJoinURL,
		RecordingURL: m.ClassSessionRecording,
		BatchID:      m.ClassSessionBatchID,
		SeriesID:     m.ClassSessionSeriesID,
		Recurrence:   m.ClassSessionRecurrenceSnapshot,
		Status:       m.ClassSessionStatus,
		Remark:       m.ClassSessionRemark,
		CompletedAt:  m.ClassSessionCompletedAt,
		CancelledAt:  m.ClassSessionCancelledAt,
		CancelReason: m.ClassSessionCancelReason,
		CancelledBy:  m.ClassSessionCancelledBy,
		CreatedAt:    m.ClassSessionCreatedAt,
	}
}

func NewSessionViewResponse(v *service.SessionView) SessionResponse {
	out := NewSessionResponse(&v.ClassSessionModel)
	out.TrainerName = v.TrainerName
	n := v.EnrolledCount
	out.EnrolledCount = &n
	return out
}

func FromModels(rows []model.ClassSessionModel) []SessionResponse {
	out := make([]SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewSessionResponse(&rows[i]))
	}
	return out
}

func FromViews(rows []service.SessionView) []SessionResponse {
	out := make([]SessionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewSessionViewResponse(&rows[i]))
	}
	return out
}

type SettlementResponse struct {
	Session    SessionResponse `json:"session"`
	Applied    bool            `json:"applied"`
	Hours      string          `json:"hours,omitempty"`
	RosterSize int             `json:"roster_size,omitempty"`
}

func NewSettlementResponse(r *service.SettlementResult) SettlementResponse {
	out := SettlementResponse{
		Session:    NewSessionResponse(&r.Session),
		Applied:    r.Applied,
		RosterSize: r.RosterSize,
	}
	if r.Applied && !r.Hours.IsZero() {
		out.Hours = r.Hours.String()
	}
	return out
}
