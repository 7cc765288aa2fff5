package events

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
)

const (
	SessionScheduled = "class_session.scheduled"
	SessionCompleted = "class_session.completed"
	SessionCancelled = "class_session.cancelled"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher emits domain events after the owning transaction committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func encode(e Event) ([]byte, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return sonic.Marshal(e)
}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	b, err := encode(e)
	if err != nil {
		return err
	}
	log.Printf("[Event] %s key=%s %s", e.Type, e.Key, b)
	return nil
}

func (LogPublisher) Close() error { return nil }

// PublishBestEffort logs instead of failing; events never undo a commit.
func PublishBestEffort(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Printf("[Event] publish %s key=%s failed: %v", e.Type, e.Key, err)
	}
}
