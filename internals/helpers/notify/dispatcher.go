package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type Recipient struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type CancellationNotice struct {
	SessionID   uuid.UUID
	Title       string
	StartAt     time.Time
	Reason      string
	CancelledBy string
	Students    []Recipient
	Trainer     *Recipient
}

type CredentialsNotice struct {
	Recipient         Recipient
	Role              string
	TemporaryPassword string
}

// Dispatcher delivers user-facing notices. Callers treat failures as
// best-effort: they are logged, never rolled back.
type Dispatcher interface {
	NotifyCancellation(ctx context.Context, n CancellationNotice) error
	NotifyCredentials(ctx context.Context, n CredentialsNotice) error
}

// LogDispatcher is used when SMTP is not configured.
type LogDispatcher struct{}

func (LogDispatcher) NotifyCancellation(_ context.Context, n CancellationNotice) error {
	trainer := "-"
	if n.Trainer != nil {
		trainer = n.Trainer.Email
	}
	log.Printf("[Notify.Cancellation] session=%s title=%q by=%s reason=%q students=%d trainer=%s",
		n.SessionID, n.Title, n.CancelledBy, n.Reason, len(n.Students), trainer)
	return nil
}

func (LogDispatcher) NotifyCredentials(_ context.Context, n CredentialsNotice) error {
	log.Printf("[Notify.Credentials] account=%s email=%s role=%s (temporary password issued)",
		n.Recipient.ID, n.Recipient.Email, n.Role)
	return nil
}
