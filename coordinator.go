package kumpul

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ambiyansyah-risyal/kumpul/internal/delay"
)

const (
	// DefaultWorkerCount caps how many transfers run concurrently.
	DefaultWorkerCount = 6

	// DefaultRetryDelay is the fixed wait before a scheduled retry. There is
	// deliberately no backoff growth or jitter.
	DefaultRetryDelay = 2 * time.Second
)

// Coordinator coalesces duplicate requests onto a single transfer per
// request type, fans the terminal outcome out to every waiter, retries
// failed transfers a bounded number of times and supports per-caller
// cancellation. It is safe for concurrent use.
//
// All bookkeeping (waiter registry, in-flight table, retry timers) is guarded
// by one mutex; every read-modify-write decision happens inside that single
// critical section.
type Coordinator struct {
	transport       Transport
	pool            *workerPool
	workers         int
	retryDelay      time.Duration
	delayStrategy   delay.Strategy
	logger          Logger
	debug           *DebugConfig
	metrics         *MetricsCollector
	validationError error

	mu       sync.Mutex
	waiters  *waiterRegistry
	inflight map[string]*inflightTransfer
	timers   map[string]*time.Timer
	closed   bool
}

// inflightTransfer is the single live task for a request type, together with
// the coordinator's private copy of the request that started it. The retry
// path mutates this copy only.
type inflightTransfer struct {
	req       Request
	task      *transferTask
	requestID string
}

// New constructs a Coordinator using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Coordinator {
	c := &Coordinator{
		transport:  NewHTTPTransport(nil),
		workers:    DefaultWorkerCount,
		retryDelay: DefaultRetryDelay,
		debug:      DefaultDebugConfig(),
		waiters:    newWaiterRegistry(),
		inflight:   make(map[string]*inflightTransfer),
		timers:     make(map[string]*time.Timer),
	}

	for _, option := range options {
		option(c)
	}

	if c.delayStrategy == nil {
		c.delayStrategy = delay.NewFixed(c.retryDelay)
	}
	c.pool = newWorkerPool(c.workers)

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}

	return c
}

// Submit registers the caller's interest in req.Type and starts a transfer
// if none is outstanding for that type. Duplicate submissions of the same
// type while one is outstanding never trigger a second transport call; the
// new caller rides the existing transfer. fn receives exactly one Outcome,
// dispatched on delivery (nil means a fresh goroutine per callback).
func (c *Coordinator) Submit(req Request, delivery DeliveryContext, fn CompletionFunc) {
	if fn == nil {
		fn = func(Outcome) {}
	}
	if delivery == nil {
		delivery = GoroutineDelivery{}
	}
	if req.CallID == 0 {
		req.CallID = callIDCounter.Add(1)
	}
	req.failCount = 0
	req.submittedAt = time.Now()

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debug != nil && c.debug.Enabled && c.debug.LogSubmissions && c.logger != nil {
		c.logger.Debug("Submission started", "requestID", requestID, "requestType", req.Type, "callID", req.CallID, "url", req.Descriptor.URL)
	}
	c.metrics.RecordSubmission(req.Type)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.deliver(delivery, fn, c.cancelledOutcome(req, 0))
		return
	}

	c.waiters.add(req.Type, &waiter{
		callID:       req.CallID,
		fn:           fn,
		delivery:     delivery,
		registeredAt: req.submittedAt,
	})
	c.metrics.RecordWaiters(req.Type, c.waiters.groupLen(req.Type))

	// A pending retry timer counts as an outstanding transfer: the existing
	// waiters (now including this one) stay registered for its result.
	_, live := c.inflight[req.Type]
	if live || c.timers[req.Type] != nil {
		c.mu.Unlock()
		c.metrics.RecordCoalesced(req.Type)
		if c.debug != nil && c.debug.Enabled && c.debug.LogSubmissions && c.logger != nil {
			c.logger.Debug("Coalesced onto in-flight transfer", "requestID", requestID, "requestType", req.Type, "callID", req.CallID)
		}
		return
	}

	c.startTransferLocked(req, requestID)
	c.mu.Unlock()
}

// startTransferLocked builds the task for req, records it in the in-flight
// table and admits it to the pool. Caller holds c.mu.
func (c *Coordinator) startTransferLocked(req Request, requestID string) {
	requestType := req.Type
	task := newTransferTask(c.transport, req.Descriptor, func(body []byte, statusCode int, err error) {
		// Classification and fan-out run off the pool so the worker slot is
		// reclaimed as soon as the raw transport work finishes.
		go c.handleCompletion(requestType, body, statusCode, err)
	})

	c.inflight[requestType] = &inflightTransfer{req: req, task: task, requestID: requestID}
	c.metrics.RecordTransferStart(requestType)
	c.pool.enqueue(task)
}

// handleCompletion is invoked once per finished task. It removes the task
// from the in-flight table immediately (a retry must create a fresh entry),
// classifies the raw result, and either schedules a retry or drains the
// group and fans the outcome out.
func (c *Coordinator) handleCompletion(requestType string, body []byte, statusCode int, err error) {
	c.mu.Lock()
	entry, ok := c.inflight[requestType]
	if !ok {
		// The transfer was cancelled out from under the task; nobody is
		// waiting for this result.
		c.mu.Unlock()
		return
	}
	delete(c.inflight, requestType)
	c.mu.Unlock()
	c.metrics.RecordTransferEnd(requestType)

	req := entry.req
	requestID := entry.requestID

	// Parsing runs user code; keep it outside the critical section.
	outcome := c.classify(req, body, statusCode, err)
	outcome.Duration = time.Since(req.submittedAt)

	c.mu.Lock()
	retryable := outcome.Err != nil && !outcome.Cancelled() && req.failCount < req.RetryLimit && !c.closed
	if retryable && c.waiters.has(requestType) {
		next := req
		next.failCount++
		wait := c.delayStrategy.Next(next.failCount)
		c.timers[requestType] = time.AfterFunc(wait, func() {
			c.retryTransfer(next, requestID)
		})
		c.mu.Unlock()

		c.metrics.RecordRetry(requestType, next.failCount)
		if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Retry scheduled", "requestID", requestID, "requestType", requestType, "attempt", next.failCount, "retryLimit", req.RetryLimit, "delay", wait)
		}
		return
	}
	if retryable {
		// Budget remained but every waiter cancelled in the interim.
		c.metrics.RecordRetryAbandoned(requestType)
	}
	drained := c.waiters.drainGroup(requestType)
	c.mu.Unlock()

	c.metrics.RecordWaiters(requestType, 0)
	c.metrics.RecordTransfer(requestType, outcomeLabel(outcome), outcome.Duration)
	if c.debug != nil && c.debug.Enabled && c.debug.LogCompletions && c.logger != nil {
		if outcome.Ok() {
			c.logger.Info("Transfer completed", "requestID", requestID, "requestType", requestType, "elapsedMs", outcome.Duration.Milliseconds(), "result", "success", "waiters", len(drained))
		} else {
			c.logger.Error("Transfer completed", "requestID", requestID, "requestType", requestType, "elapsedMs", outcome.Duration.Milliseconds(), "result", "failure", "error", outcome.Err.Error(), "waiters", len(drained))
		}
	}

	c.metrics.RecordDeliveries(requestType, len(drained))
	for _, w := range drained {
		c.deliver(w.delivery, w.fn, outcome)
	}
}

// retryTransfer fires when a retry timer elapses. Waiter presence is
// re-checked inside the lock: a late cancellation during the delay window
// means the retry is abandoned rather than transferring for nobody.
func (c *Coordinator) retryTransfer(req Request, requestID string) {
	c.mu.Lock()
	delete(c.timers, req.Type)
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.waiters.has(req.Type) {
		c.mu.Unlock()
		c.metrics.RecordRetryAbandoned(req.Type)
		if c.debug != nil && c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("Retry abandoned, no waiters remain", "requestID", requestID, "requestType", req.Type)
		}
		return
	}
	if _, live := c.inflight[req.Type]; live {
		c.mu.Unlock()
		return
	}

	req.submittedAt = time.Now()
	c.startTransferLocked(req, requestID)
	c.mu.Unlock()
}

// CancelOne removes only this request's registration, identified by CallID,
// and delivers a cancelled outcome to that caller alone. The underlying
// transfer is aborted only when no other waiter remains interested in it.
func (c *Coordinator) CancelOne(req Request) {
	c.mu.Lock()
	w, ok := c.waiters.removeByCallID(req.CallID)
	remaining := c.waiters.groupLen(req.Type)
	var task *transferTask
	if ok && remaining == 0 {
		if entry, live := c.inflight[req.Type]; live {
			task = entry.task
			delete(c.inflight, req.Type)
		}
		if timer, pending := c.timers[req.Type]; pending {
			timer.Stop()
			delete(c.timers, req.Type)
		}
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	if task != nil {
		task.cancel()
		c.metrics.RecordTransferEnd(req.Type)
	}
	c.metrics.RecordWaiters(req.Type, remaining)
	c.metrics.RecordCancellation(req.Type, "one")
	if c.debug != nil && c.debug.Enabled && c.debug.LogCancellations && c.logger != nil {
		c.logger.Debug("Call cancelled", "requestType", req.Type, "callID", req.CallID, "transferAborted", task != nil)
	}

	outcome := c.cancelledOutcome(req, time.Since(w.registeredAt))
	c.deliver(w.delivery, w.fn, outcome)
}

// CancelAll tears down all registered interest at once: the registry is
// drained without per-waiter callbacks, pending retry timers are stopped and
// every pool task is cancelled.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	dropped := c.waiters.drainAll()
	for requestType, timer := range c.timers {
		timer.Stop()
		delete(c.timers, requestType)
	}
	for requestType := range c.inflight {
		delete(c.inflight, requestType)
		c.metrics.RecordTransferEnd(requestType)
	}
	c.mu.Unlock()

	c.pool.cancelAll()
	c.metrics.RecordCancellation("all", "all")
	if c.debug != nil && c.debug.Enabled && c.debug.LogCancellations && c.logger != nil {
		c.logger.Debug("All calls cancelled", "droppedWaiters", len(dropped))
	}
}

// Close cancels everything and stops the worker pool. The Coordinator must
// not be used afterwards; late submissions receive a cancelled outcome.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.CancelAll()
	c.pool.stop()
}

// classify turns a raw transport result into a terminal Outcome: transport
// errors first, then the status predicate, then the parser.
func (c *Coordinator) classify(req Request, body []byte, statusCode int, err error) Outcome {
	out := Outcome{StatusCode: statusCode}

	switch {
	case errors.Is(err, ErrCancelled):
		out.Err = c.newError(req, ErrorTypeCancelled, "call cancelled", ErrCancelled, statusCode, "")
	case err != nil:
		out.Err = c.newError(req, ErrorTypeTransport, "transport request failed", err, statusCode, "")
	default:
		validate := req.Validate
		if validate == nil {
			validate = DefaultValidate
		}
		switch {
		case !validate(statusCode):
			out.Err = c.newError(req, ErrorTypeInvalidStatus, fmt.Sprintf("status code %d rejected", statusCode), nil, statusCode, string(body))
		case req.Parse == nil:
			if len(body) > 0 {
				out.Err = c.newError(req, ErrorTypeNoParser, "response body present but no parser configured", nil, statusCode, "")
			}
		case body == nil:
			out.Err = c.newError(req, ErrorTypeParse, "no response body to parse", nil, statusCode, "")
		default:
			value, parseErr := req.Parse(body)
			if parseErr != nil {
				out.Err = c.newError(req, ErrorTypeParse, "response parsing failed", parseErr, statusCode, "")
			} else {
				out.Value = value
			}
		}
	}
	return out
}

func (c *Coordinator) newError(req Request, errorType, message string, cause error, statusCode int, bodyText string) *CoordinatorError {
	return &CoordinatorError{
		Type:        errorType,
		Message:     message,
		Cause:       cause,
		StatusCode:  statusCode,
		BodyText:    bodyText,
		RequestType: req.Type,
		CallID:      req.CallID,
		Attempt:     req.failCount,
		RetryLimit:  req.RetryLimit,
		Timestamp:   time.Now(),
	}
}

func (c *Coordinator) cancelledOutcome(req Request, elapsed time.Duration) Outcome {
	return Outcome{
		Duration: elapsed,
		Err:      c.newError(req, ErrorTypeCancelled, "call cancelled", ErrCancelled, 0, ""),
	}
}

// deliver dispatches one outcome on the waiter's delivery context. A panic
// in one waiter's callback never reaches another waiter's delivery.
func (c *Coordinator) deliver(delivery DeliveryContext, fn CompletionFunc, outcome Outcome) {
	logger := c.logger
	delivery.Dispatch(func() {
		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("Completion callback panicked", "panic", fmt.Sprintf("%v", r))
			}
		}()
		fn(outcome)
	})
}

func outcomeLabel(out Outcome) string {
	if out.Ok() {
		return "success"
	}
	var coordErr *CoordinatorError
	if !errors.As(out.Err, &coordErr) {
		return "unknown"
	}
	switch coordErr.Type {
	case ErrorTypeTransport:
		return "transport_error"
	case ErrorTypeInvalidStatus:
		return "invalid_status"
	case ErrorTypeParse:
		return "parse_error"
	case ErrorTypeNoParser:
		return "no_parser"
	case ErrorTypeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Coordinator) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Coordinator) ValidationError() error {
	return c.validationError
}
