package vaillant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthenticationFailed means the credentials were rejected or a token
	// refresh was refused. Callers should trigger reauthentication.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRealmInvalid means the brand/country combination does not resolve to
	// a known identity realm.
	ErrRealmInvalid = errors.New("invalid brand/country realm")

	// ErrLoginEndpointInvalid means the identity service rejected the login
	// endpoint itself (usually a wrong country for the brand).
	ErrLoginEndpointInvalid = errors.New("invalid login endpoint")
)

// StatusError is a non-2xx HTTP response from the vendor API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// IsQuotaLimitError reports whether err carries the vendor's quota-exceeded
// marker.
func IsQuotaLimitError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return strings.Contains(se.Message, QUOTA_EXCEEDED_MARKER)
	}
	return err != nil && strings.Contains(err.Error(), QUOTA_EXCEEDED_MARKER)
}

// IsOutageError reports whether err is a cancellation or deadline breach.
func IsOutageError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthenticationFailed) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == 401
}
