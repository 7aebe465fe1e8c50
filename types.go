package kumpul

import (
	"net/http"
	"sync/atomic"
	"time"
)

// ValidateFunc decides whether a transport status code counts as a valid
// response. Rejected codes turn the transfer into an InvalidStatus failure.
type ValidateFunc func(statusCode int) bool

// DefaultValidate accepts any 2xx status code.
func DefaultValidate(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// ParseFunc decodes a raw response body into a typed value. Returning an
// error turns the transfer into a Parse failure.
type ParseFunc func(body []byte) (any, error)

// CompletionFunc receives the single terminal Outcome of a submitted call.
type CompletionFunc func(Outcome)

// Descriptor describes one transport invocation: a stripped-down request
// plan with a pre-buffered body.
type Descriptor struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Request identifies one caller's interest in a transfer. Requests sharing a
// Type are coalesced onto a single transport invocation; CallID targets
// cancellation and result delivery for this caller alone.
//
// Requests are passed by value. The Coordinator's retry path mutates only its
// own copy, never one held by the caller.
type Request struct {
	// Type groups duplicate concurrent requests for coalescing.
	Type string

	// CallID is unique per submission and never reused. NewRequest assigns
	// one; Submit fills in a missing ID as a fallback.
	CallID uint64

	// RetryLimit is the number of retries allowed after the initial attempt.
	RetryLimit int

	// Descriptor is handed to the Transport unchanged.
	Descriptor Descriptor

	// Validate classifies the response status. Nil means DefaultValidate.
	Validate ValidateFunc

	// Parse decodes the response body. Nil with a non-empty body yields a
	// NoParser failure.
	Parse ParseFunc

	failCount   int
	submittedAt time.Time
}

var callIDCounter atomic.Uint64

// NewRequest builds a Request for requestType with a process-unique call ID.
func NewRequest(requestType string, d Descriptor) Request {
	return Request{
		Type:       requestType,
		CallID:     callIDCounter.Add(1),
		Descriptor: d,
	}
}

// Outcome is the terminal result of one submitted call. Exactly one Outcome
// is delivered per submission: a parsed value, a typed failure, or a
// cancellation.
type Outcome struct {
	// Value is the parser's result on success, nil otherwise.
	Value any

	// StatusCode is the transport status code, 0 if none was received.
	StatusCode int

	// Duration is the elapsed time from submission to terminal outcome.
	Duration time.Duration

	// Err is nil on success, otherwise a *CoordinatorError.
	Err error
}

// Ok reports whether the call succeeded.
func (o Outcome) Ok() bool { return o.Err == nil }

// Cancelled reports whether the call ended through cancellation.
func (o Outcome) Cancelled() bool { return IsCancelled(o.Err) }

// Option configures a Coordinator.
type Option func(*Coordinator)
