package remote

import (
	"fmt"
	"net/http"
)

// StatusUnknown marks failures that never produced an HTTP response.
const StatusUnknown = 0

// Result is the envelope every remote operation returns. When OK is true Data
// holds the decoded payload and Err is empty; otherwise Err is non-empty and
// Data is the zero value.
type Result[T any] struct {
	OK       bool
	Status   int
	Data     T
	Err      string
	Endpoint string
}

// Success builds a successful envelope.
func Success[T any](endpoint string, status int, data T) Result[T] {
	return Result[T]{OK: true, Status: status, Data: data, Endpoint: endpoint}
}

// Failure builds a failed envelope. An empty message is replaced so callers
// can always rely on Err being set.
func Failure[T any](endpoint string, status int, msg string) Result[T] {
	if msg == "" {
		msg = "unknown error"
		if status != StatusUnknown {
			msg = fmt.Sprintf("HTTP error! status: %d", status)
		}
	}
	return Result[T]{OK: false, Status: status, Err: msg, Endpoint: endpoint}
}

// RateLimited reports whether the server answered 429.
func (r Result[T]) RateLimited() bool {
	return !r.OK && r.Status == http.StatusTooManyRequests
}

// Conflict reports whether the server answered 409.
func (r Result[T]) Conflict() bool {
	return !r.OK && r.Status == http.StatusConflict
}

// String describes a failure with endpoint and status, for logs.
func (r Result[T]) String() string {
	if r.OK {
		return fmt.Sprintf("%s: ok (status %d)", r.Endpoint, r.Status)
	}
	if r.Status == StatusUnknown {
		return fmt.Sprintf("%s: %s", r.Endpoint, r.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", r.Endpoint, r.Status, r.Err)
}
