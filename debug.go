package kumpul

import (
	"fmt"
	"sync/atomic"
)

// DebugConfig controls diagnostic logging. Individual flags narrow output to
// the lifecycle events of interest; nothing is emitted unless Enabled is set
// and a Logger is configured.
type DebugConfig struct {
	Enabled          bool
	LogSubmissions   bool
	LogCompletions   bool
	LogRetries       bool
	LogCancellations bool

	// RequestIDGen produces correlation IDs tying a submission's log lines
	// together across retries.
	RequestIDGen func() string
}

// DefaultDebugConfig returns a config with all event flags on and debug
// output disabled.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:          false,
		LogSubmissions:   true,
		LogCompletions:   true,
		LogRetries:       true,
		LogCancellations: true,
		RequestIDGen:     defaultRequestIDGen,
	}
}

var requestIDCounter atomic.Uint64

func defaultRequestIDGen() string {
	return fmt.Sprintf("req-%d", requestIDCounter.Add(1))
}
