package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ledgerSvc "lurnex_backend/internals/features/ledger/service"
	"lurnex_backend/internals/helpers/events"
	"lurnex_backend/internals/helpers/meeting"
	"lurnex_backend/internals/helpers/notify"
	"lurnex_backend/internals/testutil"
)

type fakeMeetings struct {
	mu    sync.Mutex
	calls int
	fail  func(meeting.Request) error
}

func (f *fakeMeetings) CreateMeeting(_ context.Context, req meeting.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(req); err != nil {
			return "", err
		}
	}
	return "https://meet.example/j/" + req.Start.UTC().Format("20060102T1504"), nil
}

func (f *fakeMeetings) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu            sync.Mutex
	cancellations []notify.CancellationNotice
}

func (f *fakeNotifier) NotifyCancellation(_ context.Context, n notify.CancellationNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancellations = append(f.cancellations, n)
	return nil
}

func (f *fakeNotifier) NotifyCredentials(context.Context, notify.CredentialsNotice) error {
	return nil
}

var errZoomDown = errors.New("zoom unavailable")

type fixture struct {
	db       *gorm.DB
	reg      *SessionRegistry
	meetings *fakeMeetings
	notifier *fakeNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       testutil.NewDB(t),
		meetings: &fakeMeetings{},
		notifier: &fakeNotifier{},
		clock:    time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
	}
	f.reg = New(f.db, f.meetings, ledgerSvc.New(f.db), f.notifier, events.LogPublisher{}, Options{
		Workers:   1,
		DefaultTZ: "UTC",
		Now:       func() time.Time { return f.clock },
	})
	return f
}

func at(h, m int) time.Time {
	return time.Date(2026, 1, 5, h, m, 0, 0, time.UTC)
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
