package store

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. When a
// subscriber falls this far behind, intermediate values are dropped for it
// rather than blocking the publisher.
const subscriberBuffer = 100

// Latest is a thread-safe container for the most recent value of type T,
// with pub/sub fan-out of every update.
//
// New values replace the previous one; there is no history. Updates are
// sent to subscribers non-blocking, so a slow subscriber misses
// intermediate values but never stalls [Latest.Set].
type Latest[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool

	subMu       sync.Mutex
	subscribers map[chan T]struct{}
	closed      bool
}

// NewLatest creates an empty [Latest]. It is immediately ready for use;
// call [Latest.Close] when no more values will be published.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

// Set stores v as the latest value and notifies all subscribers.
// After Close, Set is a no-op.
func (l *Latest[T]) Set(v T) {
	l.subMu.Lock()
	if l.closed {
		l.subMu.Unlock()
		return
	}
	l.mu.Lock()
	l.value = v
	l.set = true
	l.mu.Unlock()

	for ch := range l.subscribers {
		select {
		case ch <- v:
		default:
			// subscriber is slow, drop the value; it will catch up on
			// the next one
		}
	}
	l.subMu.Unlock()
}

// Get returns the most recent value and whether any value has been set.
func (l *Latest[T]) Get() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.set
}

// Subscribe creates a subscription and returns a channel that receives
// every subsequent value (subject to the drop-on-full policy).
//
// Callers must either consume the channel until it is closed or call
// [Latest.Unsubscribe]. Subscribing after Close returns a closed channel.
func (l *Latest[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)

	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.closed {
		close(ch)
		return ch
	}
	l.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (l *Latest[T]) Unsubscribe(ch <-chan T) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for subCh := range l.subscribers {
		if subCh == ch {
			delete(l.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Close closes all subscriber channels and marks the store closed.
// Subsequent Set calls are no-ops. Idempotent.
func (l *Latest[T]) Close() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for ch := range l.subscribers {
		delete(l.subscribers, ch)
		close(ch)
	}
}
