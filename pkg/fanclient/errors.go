package fanclient

import (
	"fmt"
	"time"
)

// TransportTimeoutError is returned when the appliance does not answer within
// the configured timeout.
type TransportTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TransportTimeoutError) Error() string {
	return fmt.Sprintf("fanclient: no answer from %s within %s", e.URL, e.Timeout)
}

func (e *TransportTimeoutError) Unwrap() error {
	return e.Err
}

// TransportError covers connection failures, DNS errors and non-2xx answers.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fanclient: %s answered with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fanclient: request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a missing or wrongly typed field in the
// appliance's state document.
type MalformedResponseError struct {
	Field  string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("fanclient: malformed response: %s", e.Reason)
	}
	return fmt.Sprintf("fanclient: malformed response field %q: %s", e.Field, e.Reason)
}
