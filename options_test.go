package kumpul

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigurationIsValid(t *testing.T) {
	c := New()
	defer c.Close()

	if !c.IsValid() {
		t.Fatalf("default configuration should validate, got %v", c.ValidationError())
	}
	if c.workers != DefaultWorkerCount {
		t.Errorf("expected %d workers, got %d", DefaultWorkerCount, c.workers)
	}
	if c.retryDelay != DefaultRetryDelay {
		t.Errorf("expected %v retry delay, got %v", DefaultRetryDelay, c.retryDelay)
	}
}

func TestOptionsApply(t *testing.T) {
	transport := newFakeTransport(succeedWith(200, "ok"))
	c := New(
		WithTransport(transport),
		WithWorkerCount(3),
		WithRetryDelay(50*time.Millisecond),
	)
	defer c.Close()

	if !c.IsValid() {
		t.Fatalf("unexpected validation error: %v", c.ValidationError())
	}
	if c.transport != transport {
		t.Error("custom transport not applied")
	}
	if c.workers != 3 {
		t.Errorf("expected 3 workers, got %d", c.workers)
	}
	if c.retryDelay != 50*time.Millisecond {
		t.Errorf("expected 50ms retry delay, got %v", c.retryDelay)
	}
}

func TestWithHTTPClient(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	c := New(WithHTTPClient(client))
	defer c.Close()

	tr, ok := c.transport.(*HTTPTransport)
	if !ok {
		t.Fatalf("expected HTTPTransport, got %T", c.transport)
	}
	if tr.client != client {
		t.Error("transport does not hold the supplied client")
	}
}

func TestValidationRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		wantMsg string
	}{
		{
			name:    "zero workers",
			options: []Option{WithWorkerCount(0)},
			wantMsg: "worker count must be positive",
		},
		{
			name:    "negative retry delay",
			options: []Option{WithRetryDelay(-time.Second)},
			wantMsg: "retryDelay must be non-negative",
		},
		{
			name:    "nil transport",
			options: []Option{WithTransport(nil)},
			wantMsg: "transport cannot be nil",
		},
		{
			name:    "debug without logger",
			options: []Option{WithDebug()},
			wantMsg: "logger must be set when debug is enabled",
		},
		{
			name:    "excessive workers",
			options: []Option{WithWorkerCount(2048)},
			wantMsg: "worker count > 1024",
		},
		{
			name:    "excessive retry delay",
			options: []Option{WithRetryDelay(time.Hour)},
			wantMsg: "retryDelay > 10m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.options...)
			defer c.Close()

			if c.IsValid() {
				t.Fatal("expected validation to fail")
			}
			var coordErr *CoordinatorError
			if !errors.As(c.ValidationError(), &coordErr) {
				t.Fatalf("expected CoordinatorError, got %T", c.ValidationError())
			}
			if coordErr.Type != ErrorTypeValidation {
				t.Errorf("expected Validation type, got %s", coordErr.Type)
			}
			if !strings.Contains(coordErr.Cause.Error(), tt.wantMsg) {
				t.Errorf("validation error %q missing %q", coordErr.Cause, tt.wantMsg)
			}
		})
	}
}

func TestWithSimpleLoggerSatisfiesDebugValidation(t *testing.T) {
	c := New(WithSimpleLogger())
	defer c.Close()

	if !c.IsValid() {
		t.Fatalf("debug with console logger should validate, got %v", c.ValidationError())
	}
	if !c.debug.Enabled {
		t.Error("debug should be enabled")
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	c := New(
		WithDebug(),
		WithLogger(NewSimpleLogger()),
		WithRequestIDGenerator(func() string { return "fixed-id" }),
	)
	defer c.Close()

	if !c.IsValid() {
		t.Fatalf("unexpected validation error: %v", c.ValidationError())
	}
	if got := c.debug.RequestIDGen(); got != "fixed-id" {
		t.Errorf("expected custom generator output, got %q", got)
	}
}

func TestWithDebugConfig(t *testing.T) {
	config := &DebugConfig{
		Enabled:        true,
		LogSubmissions: true,
		RequestIDGen:   func() string { return "r1" },
	}
	c := New(WithDebugConfig(config), WithLogger(NewSimpleLogger()))
	defer c.Close()

	if !c.IsValid() {
		t.Fatalf("unexpected validation error: %v", c.ValidationError())
	}
	if c.debug != config {
		t.Error("custom debug config not applied")
	}
	if c.debug.LogRetries {
		t.Error("flags not set in the custom config must stay off")
	}
}
