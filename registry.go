package kumpul

import "time"

// waiter is a single registered caller: the completion callback plus the
// delivery context it must be invoked on.
type waiter struct {
	callID       uint64
	fn           CompletionFunc
	delivery     DeliveryContext
	registeredAt time.Time
}

// waiterRegistry is a two-level map from request type to the waiters
// registered under it, with a reverse index from call ID back to the request
// type for O(1) single-waiter removal.
//
// The registry performs no locking of its own; the Coordinator's mutex is the
// only synchronization. Invariants: a call ID appears in at most one group,
// no empty group persists, and the reverse index always agrees with the
// forward structure.
type waiterRegistry struct {
	groups map[string]map[uint64]*waiter
	index  map[uint64]string
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{
		groups: make(map[string]map[uint64]*waiter),
		index:  make(map[uint64]string),
	}
}

// has reports whether at least one waiter is registered under requestType.
func (r *waiterRegistry) has(requestType string) bool {
	return len(r.groups[requestType]) > 0
}

// groupLen returns the number of waiters registered under requestType.
func (r *waiterRegistry) groupLen(requestType string) int {
	return len(r.groups[requestType])
}

// add registers w under (requestType, w.callID), overwriting any previous
// entry for the same call ID. If the call ID was registered under a different
// type it is moved, keeping the reverse index consistent.
func (r *waiterRegistry) add(requestType string, w *waiter) {
	if prev, ok := r.index[w.callID]; ok && prev != requestType {
		r.removeByCallID(w.callID)
	}

	group, ok := r.groups[requestType]
	if !ok {
		group = make(map[uint64]*waiter)
		r.groups[requestType] = group
	}
	group[w.callID] = w
	r.index[w.callID] = requestType
}

// removeByCallID removes the single waiter with the given call ID. The
// containing group is deleted if it becomes empty. Absence is not an error.
func (r *waiterRegistry) removeByCallID(callID uint64) (*waiter, bool) {
	requestType, ok := r.index[callID]
	if !ok {
		return nil, false
	}

	group := r.groups[requestType]
	w := group[callID]
	delete(group, callID)
	delete(r.index, callID)
	if len(group) == 0 {
		delete(r.groups, requestType)
	}
	return w, true
}

// drainGroup removes and returns every waiter registered under requestType.
// The group is absent afterwards. Returns nil for an unknown type.
func (r *waiterRegistry) drainGroup(requestType string) []*waiter {
	group, ok := r.groups[requestType]
	if !ok {
		return nil
	}

	waiters := make([]*waiter, 0, len(group))
	for callID, w := range group {
		waiters = append(waiters, w)
		delete(r.index, callID)
	}
	delete(r.groups, requestType)
	return waiters
}

// drainAll empties the entire registry and returns every waiter it held.
func (r *waiterRegistry) drainAll() []*waiter {
	var waiters []*waiter
	for _, group := range r.groups {
		for _, w := range group {
			waiters = append(waiters, w)
		}
	}
	r.groups = make(map[string]map[uint64]*waiter)
	r.index = make(map[uint64]string)
	return waiters
}

// size returns the total number of registered waiters.
func (r *waiterRegistry) size() int {
	return len(r.index)
}
