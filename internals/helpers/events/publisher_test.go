package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type failing struct{ calls int }

func (f *failing) Publish(context.Context, Event) error { f.calls++; return errors.New("broker down") }
func (f *failing) Close() error                         { return nil }

func TestPublishBestEffortSwallowsErrors(t *testing.T) {
	f := &failing{}
	PublishBestEffort(context.Background(), f, Event{Type: SessionCompleted, Key: "k"})
	PublishBestEffort(context.Background(), nil, Event{Type: SessionCompleted})
	if f.calls != 1 {
		t.Fatalf("calls = %d", f.calls)
	}
}

func TestEncodeStampsTime(t *testing.T) {
	b, err := encode(Event{Type: SessionCancelled, Key: "s1", Payload: map[string]string{"reason": "x"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(b), `"occurred_at":"0001-01-01`) {
		t.Fatalf("occurred_at not stamped: %s", b)
	}
}

func TestKafkaTopicNaming(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "lurnex.")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer p.Close()
	if got := p.Topic(SessionScheduled); got != "lurnex.class_session.scheduled" {
		t.Fatalf("topic = %s", got)
	}
	if _, err := NewKafkaPublisher(nil, "x"); err == nil {
		t.Fatalf("expected error without brokers")
	}
}
