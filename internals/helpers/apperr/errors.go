package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindExternal        Kind = "EXTERNAL_SERVICE_ERROR"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Error is the single error shape services return. Code identifies the
// concrete failure ("EDIT_WINDOW_EXPIRED"), Kind drives the HTTP status.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinels survive WithMessage/Wrap copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy carrying a caller-specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

var (
	ErrEditWindowExpired  = &Error{Kind: KindConflict, Code: "EDIT_WINDOW_EXPIRED", Message: "session was settled more than 24 hours ago and can no longer be edited"}
	ErrAlreadyTerminal    = &Error{Kind: KindConflict, Code: "ALREADY_TERMINAL", Message: "session is already settled with a different outcome"}
	ErrTooEarly           = &Error{Kind: KindValidation, Code: "TOO_EARLY", Message: "session cannot be completed before it starts"}
	ErrInvalidDuration    = &Error{Kind: KindValidation, Code: "INVALID_DURATION", Message: "session duration must be positive"}
	ErrRosterEmpty        = &Error{Kind: KindNotFound, Code: "ROSTER_EMPTY", Message: "no students found for this session"}
	ErrSessionNotFound    = &Error{Kind: KindNotFound, Code: "SESSION_NOT_FOUND", Message: "session not found"}
	ErrAccountNotFound    = &Error{Kind: KindNotFound, Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrBatchNotFound      = &Error{Kind: KindNotFound, Code: "BATCH_NOT_FOUND", Message: "batch not found"}
	ErrDuplicateEmail     = &Error{Kind: KindConflict, Code: "DUPLICATE_EMAIL", Message: "email is already registered"}
	ErrDuplicateBatchName = &Error{Kind: KindConflict, Code: "DUPLICATE_BATCH_NAME", Message: "batch name already exists"}
	ErrTrainerAssigned    = &Error{Kind: KindConflict, Code: "TRAINER_ASSIGNED", Message: "trainer is still assigned to a batch"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrAccountPending     = &Error{Kind: KindUnauthorized, Code: "ACCOUNT_PENDING", Message: "account is pending approval"}
	ErrMeetingLink        = &Error{Kind: KindExternal, Code: "MEETING_LINK_FAILED", Message: "failed to create meeting link"}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: fmt.Sprintf(format, args...)}
}

// ValidationFields builds a validation error carrying per-field messages.
func ValidationFields(fields map[string][]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return &Error{
		Kind:    KindValidation,
		Code:    string(KindValidation),
		Message: "invalid fields: " + strings.Join(keys, ", "),
		Fields:  fields,
	}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: string(KindNotFound), Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: string(KindConflict), Message: fmt.Sprintf(format, args...)}
}

func External(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Code: string(KindExternal), Message: fmt.Sprintf(format, args...), Err: cause}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: string(KindUnauthenticated), Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: string(KindUnauthorized), Message: msg}
}

func Internal(cause error, msg string) *Error {
	return &Error{Kind: KindInternal, Code: string(KindInternal), Message: msg, Err: cause}
}

// KindOf reports the taxonomy kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PartialFailure reports a bulk operation that persisted some records before
// failing. CreatedIDs stay persisted.
type PartialFailure struct {
	CreatedIDs  []uuid.UUID
	FailedIndex int
	Stage       string
	Err         error
}

func (p *PartialFailure) Error() string {
	return fmt.Sprintf("partial failure at %s (index %d, %d created): %v", p.Stage, p.FailedIndex, len(p.CreatedIDs), p.Err)
}

func (p *PartialFailure) Unwrap() error { return p.Err }
