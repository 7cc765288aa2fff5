package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lurnex_backend/internals/constants"
	batchModel "lurnex_backend/internals/features/classes/batches/model"
	"lurnex_backend/internals/features/classes/class_schedules/recurrence"
	sessModel "lurnex_backend/internals/features/classes/class_sessions/model"
	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	accModel "lurnex_backend/internals/features/users/accounts/model"
	"lurnex_backend/internals/helpers/apperr"
	"lurnex_backend/internals/helpers/events"
	"lurnex_backend/internals/helpers/meeting"
	"lurnex_backend/internals/helpers/metrics"
	"lurnex_backend/internals/helpers/notify"
)

const fanOutBatchSize = 500

// SessionRegistry owns creation and settlement of class sessions.
type SessionRegistry struct {
	DB        *gorm.DB
	Meetings  meeting.Provider
	Ledger    *ledgerSvc.HoursLedger
	Notifier  notify.Dispatcher
	Events    events.Publisher
	Roster    RosterResolver
	Workers   int
	DefaultTZ string
	Now       func() time.Time
}

type Options struct {
	Workers   int
	DefaultTZ string
	Now       func() time.Time
}

func New(db *gorm.DB, meetings meeting.Provider, ledger *ledgerSvc.HoursLedger, notifier notify.Dispatcher, publisher events.Publisher, opts Options) *SessionRegistry {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.DefaultTZ == "" {
		opts.DefaultTZ = "UTC"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = notify.LogDispatcher{}
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &SessionRegistry{
		DB:        db,
		Meetings:  meetings,
		Ledger:    ledger,
		Notifier:  notifier,
		Events:    publisher,
		Workers:   opts.Workers,
		DefaultTZ: opts.DefaultTZ,
		Now:       opts.Now,
	}
}

type ScheduleInput struct {
	Title      string
	TrainerID  uuid.UUID
	Start      time.Time
	End        time.Time
	BatchID    *uuid.UUID
	StudentIDs []uuid.UUID
	Recurrence *recurrence.Rule
	Timezone   string
}

/* =========================
   Validation
========================= */

func dedupIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func validateInput(in *ScheduleInput, requireRoster bool) error {
	fields := map[string][]string{}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		fields["title"] = append(fields["title"], "is required")
	}
	if in.TrainerID == uuid.Nil {
		fields["trainer_id"] = append(fields["trainer_id"], "is required")
	}
	if in.Start.IsZero() {
		fields["start_time"] = append(fields["start_time"], "is required")
	}
	if in.End.IsZero() {
		fields["end_time"] = append(fields["end_time"], "is required")
	}
	if !in.Start.IsZero() && !in.End.IsZero() && !in.End.After(in.Start) {
		fields["end_time"] = append(fields["end_time"], "must be after start_time")
	}

	in.StudentIDs = dedupIDs(in.StudentIDs)
	hasBatch := in.BatchID != nil && *in.BatchID != uuid.Nil
	if !hasBatch {
		in.BatchID = nil
	}
	switch {
	case hasBatch && len(in.StudentIDs) > 0:
		fields["roster"] = append(fields["roster"], "use either batch_id or student_ids, not both")
	case requireRoster && !hasBatch && len(in.StudentIDs) == 0:
		fields["roster"] = append(fields["roster"], "batch_id or student_ids is required")
	}

	if len(fields) > 0 {
		return apperr.ValidationFields(fields)
	}
	return nil
}

// wholeMinutes reports the duration in minutes when it is a positive whole number.
func wholeMinutes(start, end time.Time) (int, bool) {
	d := end.Sub(start)
	if d <= 0 || d%time.Minute != 0 {
		return 0, false
	}
	return int(d / time.Minute), true
}

// resolveReferences checks trainer, batch and explicit students before any write.
func (r *SessionRegistry) resolveReferences(ctx context.Context, in *ScheduleInput) error {
	db := r.DB.WithContext(ctx)

	var trainer accModel.AccountModel
	if err := db.Select("id", "role").Where("id = ?", in.TrainerID).Take(&trainer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrAccountNotFound.WithMessage("trainer %s not found", in.TrainerID)
		}
		return err
	}
	if trainer.Role != constants.RoleTrainer {
		return apperr.ValidationFields(map[string][]string{"trainer_id": {"account is not a trainer"}})
	}

	if in.BatchID != nil {
		var n int64
		if err := db.Model(&batchModel.BatchModel{}).Where("batch_id = ?", *in.BatchID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrBatchNotFound.WithMessage("batch %s not found", *in.BatchID)
		}
	}

	if len(in.StudentIDs) > 0 {
		var found []uuid.UUID
		if err := db.Model(&accModel.AccountModel{}).
			Where("id IN ? AND role = ?", in.StudentIDs, constants.RoleStudent).
			Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) != len(in.StudentIDs) {
			ok := make(map[uuid.UUID]bool, len(found))
			for _, id := range found {
				ok[id] = true
			}
			var missing []string
			for _, id := range in.StudentIDs {
				if !ok[id] {
					missing = append(missing, id.String()+" is not a student")
				}
			}
			return apperr.ValidationFields(map[string][]string{"student_ids": missing})
		}
	}
	return nil
}

/* =========================
   Single scheduling
========================= */

// ScheduleSingle creates one session. Without a roster it falls back to the
// legacy behaviour: every student currently in paid status is enrolled and
// becomes the session's explicit roster.
func (r *SessionRegistry) ScheduleSingle(ctx context.Context, in ScheduleInput) (*sessModel.ClassSessionModel, error) {
	if err := validateInput(&in, false); err != nil {
		return nil, err
	}
	mins, ok := wholeMinutes(in.Start, in.End)
	if !ok {
		return nil, apperr.ValidationFields(map[string][]string{"end_time": {"duration must be a whole number of minutes"}})
	}
	if err := r.resolveReferences(ctx, &in); err != nil {
		return nil, err
	}

	link, err := r.Meetings.CreateMeeting(ctx, meeting.Request{
		Topic:           in.Title,
		Start:           in.Start,
		DurationMinutes: mins,
		Timezone:        r.timezoneName(in.Timezone),
	})
	if err != nil {
		metrics.MeetingLinkFailures.Inc()
		return nil, asExternal(err)
	}

	legacy := in.BatchID == nil && len(in.StudentIDs) == 0
	session := sessModel.ClassSessionModel{
		ClassSessionTitle:     in.Title,
		ClassSessionTrainerID: in.TrainerID,
		ClassSessionStartAt:   in.Start.UTC(),
		ClassSessionEndAt:     in.End.UTC(),
		ClassSessionJoinURL:   link,
		ClassSessionBatchID:   in.BatchID,
		ClassSessionStatus:    sessModel.SessionStatusScheduled,
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students := in.StudentIDs
		if legacy {
			if err := tx.Model(&accModel.AccountModel{}).
				Where("role = ? AND status = ?", constants.RoleStudent, constants.StatusPaid).
				Order("created_at ASC, id ASC").
				Pluck("id", &students).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		if err := insertExplicitRoster(tx, []sessModel.ClassSessionModel{session}, students); err != nil {
			return err
		}
		eligible, err := r.eligibleStudents(tx, in.BatchID, students)
		if err != nil {
			return err
		}
		return fanOut(tx, []uuid.UUID{session.ClassSessionID}, in.BatchID, eligible)
	})
	if err != nil {
		log.Printf("[ClassSession.ScheduleSingle] persist failed: %v", err)
		return nil, err
	}

	mode := "single"
	if legacy {
		mode = "legacy"
	}
	metrics.SessionsScheduled.WithLabelValues(mode).Inc()
	events.PublishBestEffort(ctx, r.Events, events.Event{
		Type: events.SessionScheduled,
		Key:  session.ClassSessionID.String(),
		Payload: map[string]any{
			"session_ids": []uuid.UUID{session.ClassSessionID},
			"mode":        mode,
		},
	})
	return &session, nil
}

/* =========================
   Bulk / recurring scheduling
========================= */

// ScheduleBulk expands the recurrence rule and creates one session per
// occurrence. Meeting links are acquired in parallel (bounded by Workers)
// and sessions are persisted in occurrence order up to the first occurrence
// whose link failed. Sessions already persisted are never rolled back; the
// caller receives *apperr.PartialFailure with their ids.
func (r *SessionRegistry) ScheduleBulk(ctx context.Context, in ScheduleInput) ([]sessModel.ClassSessionModel, error) {
	if err := validateInput(&in, true); err != nil {
		return nil, err
	}
	tzName := r.timezoneName(in.Timezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, apperr.ValidationFields(map[string][]string{"recurrence.timezone": {"unknown timezone " + tzName}})
	}
	if err := r.resolveReferences(ctx, &in); err != nil {
		return nil, err
	}

	occurrences := make([]recurrence.Occurrence, 0, 16)
	for _, o := range recurrence.Expand(in.Start.In(loc), in.End.In(loc), in.Recurrence) {
		if _, ok := wholeMinutes(o.Start, o.End); ok {
			occurrences = append(occurrences, o)
		}
	}
	if len(occurrences) == 0 {
		return nil, apperr.Validation("recurrence produced no schedulable occurrences")
	}

	links, failedAt, linkErr := r.acquireLinks(ctx, in.Title, tzName, occurrences)
	ready := occurrences
	if failedAt >= 0 {
		ready = occurrences[:failedAt]
	}
	if len(ready) == 0 {
		return nil, asExternal(linkErr)
	}

	seriesID := uuid.New()
	snapshot := recurrence.Snapshot(in.Recurrence, tzName)
	sessions := make([]sessModel.ClassSessionModel, len(ready))
	for i, o := range ready {
		sessions[i] = sessModel.ClassSessionModel{
			ClassSessionTitle:              in.Title,
			ClassSessionTrainerID:          in.TrainerID,
			ClassSessionStartAt:            o.Start.UTC(),
			ClassSessionEndAt:              o.End.UTC(),
			ClassSessionJoinURL:            links[i],
			ClassSessionBatchID:            in.BatchID,
			ClassSessionSeriesID:           &seriesID,
			ClassSessionRecurrenceSnapshot: snapshot,
			ClassSessionStatus:             sessModel.SessionStatusScheduled,
		}
	}

	// the roster binding is part of the session, so it commits with it
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&sessions, fanOutBatchSize).Error; err != nil {
			return err
		}
		return insertExplicitRoster(tx, sessions, in.StudentIDs)
	}); err != nil {
		log.Printf("[ClassSession.ScheduleBulk] persist failed: %v", err)
		return nil, err
	}

	ids := make([]uuid.UUID, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ClassSessionID
	}
	metrics.SessionsScheduled.WithLabelValues("bulk").Add(float64(len(sessions)))

	fanErr := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eligible, err := r.eligibleStudents(tx, in.BatchID, in.StudentIDs)
		if err != nil {
			return err
		}
		return fanOut(tx, ids, in.BatchID, eligible)
	})

	events.PublishBestEffort(ctx, r.Events, events.Event{
		Type: events.SessionScheduled,
		Key:  seriesID.String(),
		Payload: map[string]any{
			"series_id":   seriesID,
			"session_ids": ids,
			"mode":        "bulk",
		},
	})

	switch {
	case fanErr != nil:
		log.Printf("[ClassSession.ScheduleBulk] roster fan-out failed after %d sessions: %v", len(ids), fanErr)
		return sessions, &apperr.PartialFailure{CreatedIDs: ids, FailedIndex: len(ids), Stage: "roster_fanout", Err: fanErr}
	case failedAt >= 0:
		log.Printf("[ClassSession.ScheduleBulk] meeting link failed at occurrence %d/%d: %v", failedAt, len(occurrences), linkErr)
		return sessions, &apperr.PartialFailure{CreatedIDs: ids, FailedIndex: failedAt, Stage: "meeting_link", Err: asExternal(linkErr)}
	}
	return sessions, nil
}

// acquireLinks returns one link per occurrence, in order. failedAt is the
// first occurrence without a link (-1 when all succeeded) and err the cause
// that stopped the group.
func (r *SessionRegistry) acquireLinks(ctx context.Context, title, tz string, occ []recurrence.Occurrence) ([]string, int, error) {
	links := make([]string, len(occ))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for i := range occ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mins, _ := wholeMinutes(occ[i].Start, occ[i].End)
			url, err := r.Meetings.CreateMeeting(gctx, meeting.Request{
				Topic:           title,
				Start:           occ[i].Start,
				DurationMinutes: mins,
				Timezone:        tz,
			})
			if err != nil {
				metrics.MeetingLinkFailures.Inc()
				return err
			}
			links[i] = url
			return nil
		})
	}
	err := g.Wait()

	for i := range links {
		if links[i] == "" {
			if err == nil {
				err = apperr.ErrMeetingLink.WithMessage("no meeting link for occurrence %d", i)
			}
			return links, i, err
		}
	}
	return links, -1, nil
}

func (r *SessionRegistry) timezoneName(tz string) string {
	if tz = strings.TrimSpace(tz); tz != "" {
		return tz
	}
	return r.DefaultTZ
}

// eligibleStudents is the explicit list, or the batch members at call time.
func (r *SessionRegistry) eligibleStudents(tx *gorm.DB, batchID *uuid.UUID, explicit []uuid.UUID) ([]uuid.UUID, error) {
	if batchID == nil {
		return explicit, nil
	}
	var members []uuid.UUID
	err := tx.Model(&accModel.AccountModel{}).
		Where("batch_id = ? AND role = ?", *batchID, constants.RoleStudent).
		Pluck("id", &members).Error
	return members, err
}

func insertExplicitRoster(tx *gorm.DB, sessions []sessModel.ClassSessionModel, students []uuid.UUID) error {
	if len(students) == 0 {
		return nil
	}
	rows := make([]sessModel.SessionStudentModel, 0, len(sessions)*len(students))
	for _, s := range sessions {
		for pos, sid := range students {
			rows = append(rows, sessModel.SessionStudentModel{SessionID: s.ClassSessionID, StudentID: sid, Position: pos})
		}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, fanOutBatchSize).Error
}

// fanOut appends the new sessions to the batch index and to every eligible
// student's enrolment index. Both are sets; re-running is harmless.
func fanOut(tx *gorm.DB, sessionIDs []uuid.UUID, batchID *uuid.UUID, students []uuid.UUID) error {
	if batchID != nil {
		rows := make([]batchModel.BatchSessionModel, 0, len(sessionIDs))
		for _, id := range sessionIDs {
			rows = append(rows, batchModel.BatchSessionModel{BatchSessionBatchID: *batchID, BatchSessionSessionID: id})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, fanOutBatchSize).Error; err != nil {
			return err
		}
	}
	if len(students) == 0 {
		return nil
	}
	rows := make([]sessModel.StudentEnrollmentModel, 0, len(sessionIDs)*len(students))
	for _, id := range sessionIDs {
		for _, sid := range students {
			rows = append(rows, sessModel.StudentEnrollmentModel{StudentID: sid, SessionID: id})
		}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, fanOutBatchSize).Error
}

func asExternal(err error) error {
	if apperr.KindOf(err) == apperr.KindExternal {
		return err
	}
	return apperr.ErrMeetingLink.Wrap(err)
}
