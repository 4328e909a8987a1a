// Package signal provides a small observable state holder.
//
// The page components publish their externally visible state (remaining
// time, playback flag, modal visibility) through Signal values so that a
// rendering shell can subscribe and repaint without the components knowing
// anything about presentation.
package signal

import "sync"

// Signal holds a single value of type T and notifies subscribers whenever
// the value is replaced via Set.
//
// Notification is synchronous: Set invokes every live subscriber on the
// calling goroutine before returning. Subscribers must therefore be cheap
// and must not call Set on the same Signal (that would recurse).
type Signal[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// New constructs a Signal seeded with the given initial value.
func New[T any](initial T) *Signal[T] {
	return &Signal[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value and notifies all subscribers.
//
// Subscribers registered during notification do not receive this value;
// subscribers cancelled during notification may still receive it once.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	// Snapshot under lock so a subscriber can call Get/Subscribe/cancel
	// without deadlocking.
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn to be called on every subsequent Set. The returned
// cancel function removes the subscription; calling it more than once is
// harmless.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
