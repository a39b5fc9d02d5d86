package publish

import (
	"errors"
	"fmt"
)

// Outcome is the closed set of dispositions a publish request can end in.
// Failures are reported through *Error instead.
type Outcome string

const (
	// OutcomeUpdated means a write was issued and accepted.
	OutcomeUpdated Outcome = "updated"

	// OutcomeSkipped means the stored content already matched; no write
	// was issued.
	OutcomeSkipped Outcome = "skipped"
)

// ErrorKind classifies publish failures so callers can branch without
// parsing message text.
type ErrorKind string

const (
	// KindTransient marks a failure that persisted through the retry
	// budget (timeouts, 5xx, connection errors).
	KindTransient ErrorKind = "transient"

	// KindForbidden marks a 403 without rate-limit information. Terminal;
	// retrying cannot help.
	KindForbidden ErrorKind = "forbidden"

	// KindMissingSHA marks a non-primary path whose version token could
	// not be read. Writing without the token risks a lost update, so the
	// path fails instead.
	KindMissingSHA ErrorKind = "missing-sha"
)

// ErrNotFound reports that a path has no stored content. Absence is a normal
// state for first-time creation, not a failure.
var ErrNotFound = errors.New("file not found")

// Error is a structured publish failure.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish %s failed (%s): %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("publish %s failed (%s)", e.Path, e.Kind)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// IsForbidden reports whether err is a terminal permission failure.
func IsForbidden(err error) bool {
	var pubErr *Error
	return errors.As(err, &pubErr) && pubErr.Kind == KindForbidden
}
