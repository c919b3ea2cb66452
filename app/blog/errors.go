package blog

import (
	"errors"
	"fmt"
)

// ErrUnknownBlogType is returned by Detect when no platform probe succeeds.
var ErrUnknownBlogType = errors.New("could not determine blog type")

// StatusError is an HTTP response with a non-success status code.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s failed with status %d", e.URL, e.StatusCode)
}

// Transient reports whether the failure is worth retrying. Only 5xx
// responses qualify; 4xx and everything else is fatal.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500
}

// ConsistencyError signals that the platform promised a different number of
// items than it returned, or that an item references data the platform never
// provided. It is never retried and never silently corrected.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return e.Msg
}

func consistencyErrorf(format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

// IsTransient reports whether err should be retried: it must carry an HTTP
// status and that status must be a server error.
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}
