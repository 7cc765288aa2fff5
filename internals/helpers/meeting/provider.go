package meeting

import (
	"context"
	"errors"
	"time"
)

type Request struct {
	Topic           string
	Start           time.Time
	DurationMinutes int
	Timezone        string
}

// Provider creates a remote meeting and returns its join URL.
type Provider interface {
	CreateMeeting(ctx context.Context, req Request) (string, error)
}

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("meeting provider is not configured")

// Unavailable stands in when no provider credentials are set; every
// scheduling attempt fails with ErrNotConfigured.
type Unavailable struct{}

func (Unavailable) CreateMeeting(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
