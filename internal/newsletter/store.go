// internal/newsletter/store.go
//
// Store is the authoritative holder of one form instance's FormState.
//
// Dispatch is synchronous: the reducer runs under the lock and listeners
// run after it is released, in subscription order.  HTTP handlers may touch
// the same instance concurrently, so all access goes through the mutex.

package newsletter

import (
	"slices"
	"sync"
)

// Listener observes the state after every dispatch.
type Listener func(prev, next FormState)

// Store is safe for concurrent use.  The zero value is not usable; call
// NewStore.
type Store struct {
	mu        sync.Mutex
	state     FormState
	listeners []Listener
}

// NewStore returns a store seeded with InitialState.
func NewStore() *Store {
	return &Store{state: InitialState()}
}

// State returns a snapshot of the current FormState.
func (s *Store) State() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and notifies listeners.
func (s *Store) Dispatch(a Action) {
	s.Update(func(FormState) Action { return a })
}

// Update derives an action from the current state and applies it in one
// critical section, so read-modify-write transitions cannot interleave.
// fn may return nil to leave the state unchanged.
func (s *Store) Update(fn func(FormState) Action) {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(prev, fn(prev))
	next := s.state
	ls := s.listeners
	s.mu.Unlock()

	for _, l := range ls {
		l(prev, next)
	}
}

// Apply reduces acts in order under one lock and returns the resulting
// state.  Listeners see a single prev → next transition.
func (s *Store) Apply(acts ...Action) FormState {
	s.mu.Lock()
	prev := s.state
	next := prev
	for _, a := range acts {
		next = Reduce(next, a)
	}
	s.state = next
	ls := s.listeners
	s.mu.Unlock()

	for _, l := range ls {
		l(prev, next)
	}
	return next
}

// Subscribe registers l for every subsequent dispatch.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(slices.Clip(s.listeners), l)
	s.mu.Unlock()
}

