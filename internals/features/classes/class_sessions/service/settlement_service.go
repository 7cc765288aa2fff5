package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/helpers/events"
	"lurnex_backend/internals/helpers/metrics"
	"lurnex_backend/internals/helpers/notify"
)

// EditWindow is how long a settled session still accepts remark or reason edits.
const EditWindow = 24 * time.Hour

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// DurationHours is the session length in hours rounded to 2 decimals.
func DurationHours(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(end.Sub(start).Milliseconds()).Div(msPerHour).Round(2)
}

type CompleteInput struct {
	SessionID uuid.UUID
	Remark    *string
}

type CancelInput struct {
	SessionID   uuid.UUID
	CancelledBy string
	Reason      string
}

// SettlementResult carries the session after the call. Applied is false when
// the call only edited an already-settled session.
type SettlementResult struct {
	Session    sessModel.ClassSessionModel
	Applied    bool
	Hours      decimal.Decimal
	RosterSize int
}

func lockSession(tx *gorm.DB, id uuid.UUID) (sessModel.ClassSessionModel, error) {
	var s sessModel.ClassSessionModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("class_session_id = ?", id).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, apperr.ErrSessionNotFound.WithMessage("session %s not found", id)
	}
	return s, err
}

func withinWindow(now time.Time, settledAt *time.Time) bool {
	return settledAt != nil && now.Sub(*settledAt) <= EditWindow
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Complete settles a scheduled session: every roster student is debited the
// session's duration, the trainer is credited once, and only then the status
// flips to completed. Everything commits or nothing does. Calling it again
// within the edit window only updates the remark.
func (r *SessionRegistry) Complete(ctx context.Context, in CompleteInput) (*SettlementResult, error) {
	now := r.Now().UTC()
	remark := trimmedPtr(in.Remark)
	out := &SettlementResult{}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockSession(tx, in.SessionID)
		if err != nil {
			return err
		}

		switch s.ClassSessionStatus {
		case sessModel.SessionStatusCompleted:
			if !withinWindow(now, s.ClassSessionCompletedAt) {
				return apperr.ErrEditWindowExpired
			}
			if remark != nil {
				if err := tx.Model(&s).Update("class_session_remark", *remark).Error; err != nil {
					return err
				}
				s.ClassSessionRemark = remark
			}
			out.Session = s
			return nil
		case sessModel.SessionStatusCancelled:
			return apperr.ErrAlreadyTerminal.WithMessage("session was cancelled and cannot be completed")
		}

		if now.Before(s.ClassSessionStartAt) {
			return apperr.ErrTooEarly
		}
		hours := DurationHours(s.ClassSessionStartAt, s.ClassSessionEndAt)
		if !hours.IsPositive() {
			return apperr.ErrInvalidDuration
		}

		roster, err := r.Roster.Resolve(ctx, tx, &s)
		if err != nil {
			return err
		}
		if len(roster) == 0 {
			return apperr.ErrRosterEmpty
		}

		studentNote := fmt.Sprintf("Completed class: %q (Class ID: %s)", s.ClassSessionTitle, s.ClassSessionID)
		for _, sid := range roster {
			if err := r.Ledger.ApplyStudentAdjustment(ctx, tx, ledgerSvc.Adjustment{
				AccountID:     sid,
				Delta:         hours.Neg(),
				EffectiveDate: now,
				Note:          studentNote,
				SessionID:     &s.ClassSessionID,
			}); err != nil {
				if errors.Is(err, apperr.ErrAccountNotFound) {
					return apperr.ErrAccountNotFound.WithMessage("roster student %s not found", sid)
				}
				return err
			}
		}
		if err := r.Ledger.ApplyTrainerAdjustment(ctx, tx, ledgerSvc.Adjustment{
			AccountID:     s.ClassSessionTrainerID,
			Delta:         hours,
			EffectiveDate: now,
			Note:          fmt.Sprintf("Taught class: %q (Class ID: %s)", s.ClassSessionTitle, s.ClassSessionID),
			SessionID:     &s.ClassSessionID,
		}); err != nil {
			if errors.Is(err, apperr.ErrAccountNotFound) {
				return apperr.ErrAccountNotFound.WithMessage("trainer %s not found", s.ClassSessionTrainerID)
			}
			return err
		}

		updates := map[string]any{
			"class_session_status":       sessModel.SessionStatusCompleted,
			"class_session_completed_at": now,
		}
		if remark != nil {
			updates["class_session_remark"] = *remark
		}
		// the status guard keeps a concurrent settlement from applying twice
		res := tx.Model(&sessModel.ClassSessionModel{}).
			Where("class_session_id = ? AND class_session_status = ?", s.ClassSessionID, sessModel.SessionStatusScheduled).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.ErrAlreadyTerminal.WithMessage("session was settled concurrently")
		}

		s.ClassSessionStatus = sessModel.SessionStatusCompleted
		s.ClassSessionCompletedAt = &now
		if remark != nil {
			s.ClassSessionRemark = remark
		}
		out.Session = s
		out.Applied = true
		out.Hours = hours
		out.RosterSize = len(roster)
		return nil
	})
	if err != nil {
		metrics.SessionsSettled.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if !out.Applied {
		metrics.SessionsSettled.WithLabelValues("edited").Inc()
		return out, nil
	}
	metrics.SessionsSettled.WithLabelValues("completed").Inc()
	events.PublishBestEffort(ctx, r.Events, events.Event{
		Type: events.SessionCompleted,
		Key:  out.Session.ClassSessionID.String(),
		Payload: map[string]any{
			"session_id":  out.Session.ClassSessionID,
			"trainer_id":  out.Session.ClassSessionTrainerID,
			"hours":       out.Hours.String(),
			"roster_size": out.RosterSize,
		},
	})
	return out, nil
}

func validCanceller(by string) bool {
	switch by {
	case sessModel.CancelledByStudent, sessModel.CancelledByTrainer, sessModel.CancelledByAdmin:
		return true
	}
	return false
}

// Cancel settles a scheduled session without touching any balance. Roster
// and trainer are notified once, after commit. Within the edit window a
// second call only replaces reason and canceller.
func (r *SessionRegistry) Cancel(ctx context.Context, in CancelInput) (*SettlementResult, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	in.CancelledBy = strings.ToLower(strings.TrimSpace(in.CancelledBy))
	fields := map[string][]string{}
	if in.Reason == "" {
		fields["reason"] = []string{"is required"}
	}
	if !validCanceller(in.CancelledBy) {
		fields["cancelled_by"] = []string{"must be one of student, trainer, admin"}
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	now := r.Now().UTC()
	out := &SettlementResult{}
	var notice notify.CancellationNotice

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockSession(tx, in.SessionID)
		if err != nil {
			return err
		}

		switch s.ClassSessionStatus {
		case sessModel.SessionStatusCancelled:
			if !withinWindow(now, s.ClassSessionCancelledAt) {
				return apperr.ErrEditWindowExpired
			}
			if err := tx.Model(&s).Updates(map[string]any{
				"class_session_cancel_reason": in.Reason,
				"class_session_cancelled_by":  in.CancelledBy,
			}).Error; err != nil {
				return err
			}
			s.ClassSessionCancelReason = &in.Reason
			s.ClassSessionCancelledBy = &in.CancelledBy
			out.Session = s
			return nil
		case sessModel.SessionStatusCompleted:
			return apperr.ErrAlreadyTerminal.WithMessage("session was completed and cannot be cancelled")
		}

		res := tx.Model(&sessModel.ClassSessionModel{}).
			Where("class_session_id = ? AND class_session_status = ?", s.ClassSessionID, sessModel.SessionStatusScheduled).
			Updates(map[string]any{
				"class_session_status":        sessModel.SessionStatusCancelled,
				"class_session_cancelled_at":  now,
				"class_session_cancel_reason": in.Reason,
				"class_session_cancelled_by":  in.CancelledBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.ErrAlreadyTerminal.WithMessage("session was settled concurrently")
		}
		s.ClassSessionStatus = sessModel.SessionStatusCancelled
		s.ClassSessionCancelledAt = &now
		s.ClassSessionCancelReason = &in.Reason
		s.ClassSessionCancelledBy = &in.CancelledBy

		notice, err = r.cancellationNotice(ctx, tx, &s)
		if err != nil {
			return err
		}
		out.Session = s
		out.Applied = true
		out.RosterSize = len(notice.Students)
		return nil
	})
	if err != nil {
		metrics.SessionsSettled.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if !out.Applied {
		metrics.SessionsSettled.WithLabelValues("edited").Inc()
		return out, nil
	}

	metrics.SessionsSettled.WithLabelValues("cancelled").Inc()
	if err := r.Notifier.NotifyCancellation(ctx, notice); err != nil {
		metrics.NotificationFailures.WithLabelValues("cancellation").Inc()
		log.Printf("[ClassSession.Cancel] notify session=%s failed: %v", out.Session.ClassSessionID, err)
	}
	events.PublishBestEffort(ctx, r.Events, events.Event{
		Type: events.SessionCancelled,
		Key:  out.Session.ClassSessionID.String(),
		Payload: map[string]any{
			"session_id":   out.Session.ClassSessionID,
			"cancelled_by": in.CancelledBy,
			"reason":       in.Reason,
		},
	})
	return out, nil
}

func (r *SessionRegistry) cancellationNotice(ctx context.Context, tx *gorm.DB, s *sessModel.ClassSessionModel) (notify.CancellationNotice, error) {
	n := notify.CancellationNotice{
		SessionID:   s.ClassSessionID,
		Title:       s.ClassSessionTitle,
		StartAt:     s.ClassSessionStartAt,
		Reason:      *s.ClassSessionCancelReason,
		CancelledBy: *s.ClassSessionCancelledBy,
	}
	ids, err := r.Roster.Resolve(ctx, tx, s)
	if err != nil {
		return n, err
	}
	accounts, err := r.Roster.Accounts(ctx, tx, append(ids, s.ClassSessionTrainerID))
	if err != nil {
		return n, err
	}
	for _, a := range accounts {
		rcp := notify.Recipient{ID: a.ID, Name: a.Name, Email: a.Email}
		if a.ID == s.ClassSessionTrainerID {
			n.Trainer = &rcp
			continue
		}
		n.Students = append(n.Students, rcp)
	}
	return n, nil
}
