package ecs

import "slices"

// Signal is a synchronous, multi-subscriber callback list. Handlers run in
// subscription order on the emitting goroutine.
//
// Subscribing or unsubscribing while the signal is being emitted is allowed:
// new handlers are not called by the emission in progress, and removed
// handlers are skipped if they have not run yet.
type Signal[F any] struct {
	slots  []*slot[F]
	nextId uint64
}

type slot[F any] struct {
	id      uint64
	fn      F
	removed bool
}

// Subscription removes a handler from the Signal it was obtained from.
type Subscription struct {
	cancel func()
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers fn and returns the handle needed to remove it.
func (s *Signal[F]) Subscribe(fn F) Subscription {
	s.nextId++
	sl := &slot[F]{id: s.nextId, fn: fn}
	s.slots = append(s.slots, sl)

	return Subscription{cancel: func() {
		if sl.removed {
			return
		}
		sl.removed = true
		s.slots = slices.DeleteFunc(slices.Clone(s.slots), func(other *slot[F]) bool {
			return other == sl
		})
	}}
}

// Emit calls invoke once per live handler.
func (s *Signal[F]) Emit(invoke func(F)) {
	if len(s.slots) == 0 {
		return
	}
	for _, sl := range s.slots {
		if !sl.removed {
			invoke(sl.fn)
		}
	}
}

// Len returns the number of live handlers.
func (s *Signal[F]) Len() int {
	return len(s.slots)
}

// Clear drops every handler. Outstanding Subscriptions become no-ops.
func (s *Signal[F]) Clear() {
	for _, sl := range s.slots {
		sl.removed = true
	}
	s.slots = nil
}
