package pollwatch

import "sync"

// Visibility reports whether the view consuming an [Engine]'s state is
// currently observed, and notifies the engine when that changes.
//
// The engine depends on this small capability instead of any process-wide
// global, so tests can drive transitions deterministically and embedders
// can wire it to whatever "foregrounded" means for them (window focus,
// terminal attachment, a signal handler).
//
// Implementations must be safe for concurrent use. The function returned
// by Subscribe removes the subscription; calling it more than once is a
// no-op.
type Visibility interface {
	Visible() bool
	Subscribe(fn func(visible bool)) (unsubscribe func())
}

// AlwaysVisible is the default [Visibility]: the view is considered
// permanently observed and polling never pauses.
type AlwaysVisible struct{}

// Visible always returns true.
func (AlwaysVisible) Visible() bool { return true }

// Subscribe never notifies; the returned unsubscribe is a no-op.
func (AlwaysVisible) Subscribe(func(visible bool)) func() {
	return func() {}
}

// VisibilitySignal is a process-local [Visibility] toggle.
//
// Set flips the flag and fans the transition out to subscribers. Setting
// the current value again is a no-op, so subscribers only observe actual
// transitions. The zero value is hidden; use [NewVisibilitySignal] to
// choose the initial state.
type VisibilitySignal struct {
	mu      sync.Mutex
	visible bool
	subs    map[int]func(bool)
	nextID  int
}

// NewVisibilitySignal creates a [VisibilitySignal] with the given initial
// state.
func NewVisibilitySignal(visible bool) *VisibilitySignal {
	return &VisibilitySignal{
		visible: visible,
		subs:    make(map[int]func(bool)),
	}
}

// Visible reports the current state of the signal.
func (s *VisibilitySignal) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Set updates the signal and notifies subscribers of the transition.
// Subscribers are invoked after the flag is updated, outside the signal's
// lock, so a subscriber may call back into the signal without deadlocking.
func (s *VisibilitySignal) Set(visible bool) {
	s.mu.Lock()
	if s.visible == visible {
		s.mu.Unlock()
		return
	}
	s.visible = visible
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(visible)
	}
}

// Subscribe registers fn to be called on every transition. The returned
// function removes the subscription; it is safe to call multiple times.
func (s *VisibilitySignal) Subscribe(fn func(visible bool)) func() {
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
