package kumpul

import (
	"errors"
	"fmt"
	"time"
)

// Error type constants used in CoordinatorError.Type.
const (
	ErrorTypeTransport     = "Transport"
	ErrorTypeInvalidStatus = "InvalidStatus"
	ErrorTypeParse         = "Parse"
	ErrorTypeNoParser      = "NoParser"
	ErrorTypeCancelled     = "Cancelled"
	ErrorTypeValidation    = "Validation"
	ErrorTypeUnknown       = "Unknown"
)

// ErrCancelled is the sentinel for caller- or system-initiated cancellation.
var ErrCancelled = errors.New("kumpul: cancelled")

// CoordinatorError is the typed failure delivered to callers. Every terminal
// failure is one of these; the coordinator never surfaces an unhandled fault.
type CoordinatorError struct {
	Type        string
	Message     string
	Cause       error
	StatusCode  int
	BodyText    string
	RequestType string
	CallID      uint64
	Attempt     int
	RetryLimit  int
	Timestamp   time.Time
	Duration    time.Duration
}

// Error implements error interface.
func (e *CoordinatorError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	if e.RequestType != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestType, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.RetryLimit)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CoordinatorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *CoordinatorError) Is(target error) bool {
	if e == nil {
		return false
	}
	if target == ErrCancelled {
		return e.Type == ErrorTypeCancelled
	}
	if targetErr, ok := target.(*CoordinatorError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsCancelled reports whether err represents a cancelled call.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) {
		return true
	}
	var coordErr *CoordinatorError
	if errors.As(err, &coordErr) {
		return coordErr.Type == ErrorTypeCancelled
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *CoordinatorError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestType != "" {
		info += fmt.Sprintf("Request Type: %s\n", e.RequestType)
	}
	if e.CallID > 0 {
		info += fmt.Sprintf("Call ID: %d\n", e.CallID)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.BodyText != "" {
		info += fmt.Sprintf("Body: %s\n", e.BodyText)
	}
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d/%d\n", e.Attempt, e.RetryLimit)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
