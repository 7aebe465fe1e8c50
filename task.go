package kumpul

import "sync"

type taskState int

const (
	taskNotStarted taskState = iota
	taskExecuting
	taskFinished
)

// transferTask wraps one transport invocation as a cancellable unit of work
// with an explicit lifecycle: notStarted -> executing -> finished. It reaches
// finished exactly once no matter how start, cancel and transport completion
// interleave, and its onComplete callback fires exactly once. The done
// channel closes when the task finishes so the worker pool can reclaim the
// slot before the completion callback runs.
type transferTask struct {
	transport  Transport
	descriptor Descriptor
	onComplete TransportCompletion

	mu        sync.Mutex
	state     taskState
	cancelled bool
	handle    CancelHandle

	done chan struct{}
}

func newTransferTask(transport Transport, d Descriptor, onComplete TransportCompletion) *transferTask {
	return &transferTask{
		transport:  transport,
		descriptor: d,
		onComplete: onComplete,
		done:       make(chan struct{}),
	}
}

// start begins the transport call. If the task was cancelled before it ever
// ran, execution is skipped and the task finishes immediately with a
// cancelled outcome instead of silently dropping the callback.
func (t *transferTask) start() {
	t.mu.Lock()
	if t.state != taskNotStarted {
		t.mu.Unlock()
		return
	}
	if t.cancelled {
		t.state = taskFinished
		t.mu.Unlock()
		close(t.done)
		t.onComplete(nil, 0, ErrCancelled)
		return
	}
	t.state = taskExecuting
	t.mu.Unlock()

	handle := t.transport.Perform(t.descriptor, t.complete)

	t.mu.Lock()
	t.handle = handle
	abort := t.cancelled && t.state != taskFinished
	t.mu.Unlock()

	// cancel raced with Perform before the handle was recorded.
	if abort && handle != nil {
		handle.Cancel()
	}
}

// cancel is idempotent and safe from any goroutine at any point in the
// lifecycle. If the transport call is underway it is asked to abort; the
// task still finishes exactly once, with a cancelled outcome.
func (t *transferTask) cancel() {
	t.mu.Lock()
	if t.cancelled || t.state == taskFinished {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	executing := t.state == taskExecuting
	handle := t.handle
	t.mu.Unlock()

	if executing && handle != nil {
		handle.Cancel()
	}
}

// complete is handed to the transport as its completion callback. The state
// guard makes the transition to finished happen exactly once.
func (t *transferTask) complete(body []byte, statusCode int, err error) {
	t.mu.Lock()
	if t.state == taskFinished {
		t.mu.Unlock()
		return
	}
	t.state = taskFinished
	wasCancelled := t.cancelled
	t.mu.Unlock()

	close(t.done)
	if wasCancelled {
		t.onComplete(nil, 0, ErrCancelled)
		return
	}
	t.onComplete(body, statusCode, err)
}
