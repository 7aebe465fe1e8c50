package kumpul

import (
	"fmt"
	"net/http"
	"time"
)

// WithTransport sets the transport collaborator used for every transfer.
func WithTransport(transport Transport) Option {
	return func(c *Coordinator) {
		c.transport = transport
	}
}

// WithHTTPClient wraps client in the default HTTP transport. The client is
// shared read-only across all tasks.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Coordinator) {
		c.transport = NewHTTPTransport(client)
	}
}

// WithWorkerCount sets how many transfers may run concurrently.
func WithWorkerCount(n int) Option {
	return func(c *Coordinator) {
		c.workers = n
	}
}

// WithRetryDelay sets the fixed wait before a scheduled retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		c.retryDelay = d
		c.delayStrategy = nil
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with default configuration.
func WithDebug() Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Coordinator) {
		c.debug = config
	}
}

// WithRequestIDGenerator sets a custom function for generating the
// correlation IDs used in debug output.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(c *Coordinator) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Coordinator) {
		c.metrics = collector
	}
}

// ValidateConfiguration validates the coordinator configuration and returns
// an error if invalid.
func (c *Coordinator) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, c.validateWorkerConfig()...)
	errs = append(errs, c.validateRetryConfig()...)
	errs = append(errs, c.validateTransportConfig()...)
	errs = append(errs, c.validateDebugConfig()...)
	errs = append(errs, c.validateExtremeValues()...)

	if len(errs) > 0 {
		return &CoordinatorError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errs),
		}
	}
	return nil
}

func (c *Coordinator) validateWorkerConfig() []string {
	var errs []string

	if c.workers <= 0 {
		errs = append(errs, "worker count must be positive")
	}
	return errs
}

func (c *Coordinator) validateRetryConfig() []string {
	var errs []string

	if c.retryDelay < 0 {
		errs = append(errs, "retryDelay must be non-negative")
	}
	return errs
}

func (c *Coordinator) validateTransportConfig() []string {
	var errs []string

	if c.transport == nil {
		errs = append(errs, "transport cannot be nil")
	}
	return errs
}

func (c *Coordinator) validateDebugConfig() []string {
	var errs []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errs = append(errs, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errs = append(errs, "logger must be set when debug is enabled")
		}
	}
	return errs
}

func (c *Coordinator) validateExtremeValues() []string {
	var errs []string

	if c.workers > 1024 {
		errs = append(errs, "worker count > 1024 may cause excessive resource usage")
	}
	if c.retryDelay > 10*time.Minute {
		errs = append(errs, "retryDelay > 10m may cause very long delays")
	}
	return errs
}
