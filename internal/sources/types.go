package sources

import "fmt"

// Failure reason constants carried by FetchError. Reports and tests branch on
// these instead of parsing message text.
const (
	// ReasonHTTPStatus marks a definitive non-2xx response; never retried.
	ReasonHTTPStatus = "http-status"

	// ReasonRetriesExhausted marks a source that stayed transiently broken
	// (timeouts, connection errors) through the whole attempt budget.
	ReasonRetriesExhausted = "max-retries-exhausted"
)

// FetchError is a structured per-source failure.
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

// Error returns the error message
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s failed (%s)", e.URL, e.Reason)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is the outcome of fetching and processing one source.
type Result struct {
	// URL is the source location
	URL string

	// Trackers is the per-source deduplicated endpoint set (unordered)
	Trackers []string

	// Err is nil on success, otherwise a *FetchError
	Err error
}

// Count returns the number of trackers this source contributed.
func (r Result) Count() int {
	return len(r.Trackers)
}
