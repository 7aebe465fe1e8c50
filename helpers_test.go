package kumpul

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTransport completes every call asynchronously using the script
// function, which receives the 1-based call number.
type fakeTransport struct {
	mu     sync.Mutex
	calls  int
	script func(call int) (body []byte, statusCode int, err error)
}

func newFakeTransport(script func(call int) ([]byte, int, error)) *fakeTransport {
	return &fakeTransport{script: script}
}

func succeedWith(statusCode int, body string) func(int) ([]byte, int, error) {
	return func(int) ([]byte, int, error) { return []byte(body), statusCode, nil }
}

func alwaysFail(message string) func(int) ([]byte, int, error) {
	return func(int) ([]byte, int, error) { return nil, 0, errors.New(message) }
}

func (f *fakeTransport) Perform(d Descriptor, onComplete TransportCompletion) CancelHandle {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	go func() {
		body, statusCode, err := f.script(call)
		onComplete(body, statusCode, err)
	}()
	return CancelHandleFunc(func() {})
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// heldTransport keeps every call open until the test releases it, so tests
// can interleave cancellations with an in-flight transfer. Cancelling a
// handle aborts that call the way a real transport would: the completion
// fires with an error.
type heldTransport struct {
	mu      sync.Mutex
	calls   int
	cancels int
	pending map[int]TransportCompletion
}

func newHeldTransport() *heldTransport {
	return &heldTransport{pending: make(map[int]TransportCompletion)}
}

func (h *heldTransport) Perform(d Descriptor, onComplete TransportCompletion) CancelHandle {
	h.mu.Lock()
	h.calls++
	slot := h.calls
	h.pending[slot] = onComplete
	h.mu.Unlock()

	return CancelHandleFunc(func() {
		h.mu.Lock()
		h.cancels++
		fn := h.pending[slot]
		delete(h.pending, slot)
		h.mu.Unlock()
		if fn != nil {
			fn(nil, 0, errors.New("aborted"))
		}
	})
}

// release fires every still-open completion with the given result.
func (h *heldTransport) release(body []byte, statusCode int, err error) {
	h.mu.Lock()
	pending := h.pending
	h.pending = make(map[int]TransportCompletion)
	h.mu.Unlock()

	for _, fn := range pending {
		fn(body, statusCode, err)
	}
}

func (h *heldTransport) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *heldTransport) cancelCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancels
}

func stringParser(body []byte) (any, error) {
	return string(body), nil
}

func waitUntil(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (c *Coordinator) waiterCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.size()
}

func receiveOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func expectNoOutcome(t *testing.T, ch <-chan Outcome, wait time.Duration) {
	t.Helper()
	select {
	case out := <-ch:
		t.Fatalf("unexpected outcome delivered: %+v", out)
	case <-time.After(wait):
	}
}
