// Package delay provides retry-delay strategies for the coordinator.
package delay

import "time"

// Strategy computes the wait before a given retry attempt. Attempt numbers
// start at 1 for the first retry.
type Strategy interface {
	Next(attempt int) time.Duration
}

// Fixed waits the same duration before every retry. This is the
// coordinator's default; there is deliberately no growth or jitter.
type Fixed struct {
	d time.Duration
}

// NewFixed creates a fixed-delay strategy. Negative durations are clamped
// to zero.
func NewFixed(d time.Duration) Fixed {
	if d < 0 {
		d = 0
	}
	return Fixed{d: d}
}

// Next implements the Strategy interface.
func (f Fixed) Next(int) time.Duration {
	return f.d
}
