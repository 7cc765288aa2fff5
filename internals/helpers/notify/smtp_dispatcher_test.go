package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"lurnex_backend/internals/configs"
)

func newCapturing(fail map[string]bool) (*SMTPDispatcher, *[]message) {
	sent := []message{}
	d := NewSMTPDispatcher(configs.SMTPConfig{Host: "smtp.test", Port: 587, From: "noreply@lurnex.test", FromName: "Lurnex"}, time.UTC)
	d.send = func(_ context.Context, m message) error {
		if fail[m.To[0]] {
			return errors.New("mailbox unavailable")
		}
		sent = append(sent, m)
		return nil
	}
	return d, &sent
}

func TestNotifyCancellationReachesStudentsAndTrainer(t *testing.T) {
	d, sent := newCapturing(map[string]bool{"bad@x.test": true})
	err := d.NotifyCancellation(context.Background(), CancellationNotice{
		SessionID:   uuid.New(),
		Title:       "Chemistry <Basics>",
		StartAt:     time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		Reason:      "trainer unwell",
		CancelledBy: "trainer",
		Students:    []Recipient{{Name: "A", Email: "a@x.test"}, {Name: "B", Email: "bad@x.test"}, {Name: "C"}},
		Trainer:     &Recipient{Name: "T", Email: "t@x.test"},
	})
	if err == nil || !strings.Contains(err.Error(), "bad@x.test") {
		t.Fatalf("expected joined failure for bad recipient, got %v", err)
	}
	if len(*sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(*sent))
	}
	if !strings.Contains((*sent)[0].HTML, "Chemistry &lt;Basics&gt;") {
		t.Fatalf("title must be html-escaped: %s", (*sent)[0].HTML)
	}
	if (*sent)[1].To[0] != "t@x.test" {
		t.Fatalf("trainer must be notified last, got %v", (*sent)[1].To)
	}
}

func TestNotifyCredentialsIncludesTemporaryPassword(t *testing.T) {
	d, sent := newCapturing(nil)
	if err := d.NotifyCredentials(context.Background(), CredentialsNotice{
		Recipient:         Recipient{Name: "Asha", Email: "asha@x.test"},
		Role:              "student",
		TemporaryPassword: "Xy7pQ2aB",
	}); err != nil {
		t.Fatalf("NotifyCredentials: %v", err)
	}
	if len(*sent) != 1 || !strings.Contains((*sent)[0].HTML, "Xy7pQ2aB") {
		t.Fatalf("credentials mail = %+v", *sent)
	}
}

func TestBuildMIMEHeaders(t *testing.T) {
	d, _ := newCapturing(nil)
	raw := string(d.buildMIME(message{To: []string{"a@x.test"}, Subject: "Hi", HTML: "<p>x</p>"}))
	if !strings.Contains(raw, "From: Lurnex <noreply@lurnex.test>") || !strings.Contains(raw, "Content-Type: text/html") {
		t.Fatalf("mime = %s", raw)
	}
}
