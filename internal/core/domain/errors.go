package domain

import (
	"errors"
	"fmt"
	"time"

	"myvaillant2mqtt/pkg/vaillant"
)

// ValidationError is a user-visible error from the service/calendar paths
// (schedule overlap, malformed recurrence, bad temperature format, ...).
// It is returned to the caller as-is and never advances internal state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type UpdateFailedKind string

const (
	UpdateFailedQuota  UpdateFailedKind = "quota_exceeded"
	UpdateFailedOutage UpdateFailedKind = "api_outage"
)

// UpdateFailedError is the only failure kind a poller surfaces. It carries
// the remaining cooldown so readers can tell how long updates stay paused.
type UpdateFailedError struct {
	Kind    UpdateFailedKind
	RetryIn time.Duration
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("update failed: %s, retry in %.0fs", e.Kind, e.RetryIn.Seconds())
}

func IsUpdateFailedError(err error) bool {
	var ue *UpdateFailedError
	return errors.As(err, &ue)
}

// ClassifyUpdateError maps a cloud error onto the failure kind that should
// pause polling, or "" when the error does not warrant a cooldown.
func ClassifyUpdateError(err error) UpdateFailedKind {
	switch {
	case vaillant.IsQuotaLimitError(err):
		return UpdateFailedQuota
	case vaillant.IsOutageError(err):
		return UpdateFailedOutage
	default:
		return ""
	}
}
