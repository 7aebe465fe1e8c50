package kumpul

import "sync"

// DeliveryContext is the execution context a caller's completion callback is
// invoked on. Callbacks are never run on the coordinator's internal
// goroutines while its lock is held.
type DeliveryContext interface {
	Dispatch(fn func())
}

// DeliveryContextFunc adapts a function to the DeliveryContext interface.
type DeliveryContextFunc func(fn func())

// Dispatch implements DeliveryContext.
func (f DeliveryContextFunc) Dispatch(fn func()) { f(fn) }

// GoroutineDelivery runs every callback on its own goroutine. It is the
// default when Submit is given a nil delivery context.
type GoroutineDelivery struct{}

// Dispatch implements DeliveryContext.
func (GoroutineDelivery) Dispatch(fn func()) { go fn() }

// SerialDelivery runs callbacks one at a time, in dispatch order, on a single
// background goroutine. Useful when a caller funnels results into state that
// is not safe for concurrent access.
type SerialDelivery struct {
	once  sync.Once
	tasks chan func()
	done  chan struct{}
}

// NewSerialDelivery starts the delivery goroutine. Call Close to release it.
func NewSerialDelivery() *SerialDelivery {
	s := &SerialDelivery{
		tasks: make(chan func(), 128),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *SerialDelivery) run() {
	for {
		select {
		case fn := <-s.tasks:
			fn()
		case <-s.done:
			return
		}
	}
}

// Dispatch implements DeliveryContext. Callbacks dispatched after Close are
// dropped.
func (s *SerialDelivery) Dispatch(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.done:
	}
}

// Close stops the delivery goroutine. Idempotent.
func (s *SerialDelivery) Close() {
	s.once.Do(func() { close(s.done) })
}
