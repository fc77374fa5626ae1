package pollwatch

import "time"

// UnknownErrorMessage is recorded in [State.Err] when a fetch failure
// carries an empty message.
const UnknownErrorMessage = "Unknown error"

// State is an immutable snapshot of an [Engine] at a point in time.
//
// Snapshots are plain values: every field is safe to read without
// synchronization, and holding on to an old snapshot never observes later
// mutations. The engine publishes a new snapshot at the start and at the
// end of every fetch attempt.
type State[T any] struct {
	// Data is the last successfully fetched value. It is retained across
	// failed fetches (stale-while-revalidate), so consumers can keep
	// rendering the previous value while Err reports the latest failure.
	// Only meaningful when HasData is true.
	Data T

	// HasData reports whether a fetch has ever succeeded. When false,
	// Data holds the zero value of T.
	HasData bool

	// Loading is true only while the very first fetch of an activation is
	// in flight. Consumers typically render a blocking placeholder.
	Loading bool

	// IsRefreshing is true while any later fetch is in flight. Consumers
	// typically render a non-blocking "updating" indicator while keeping
	// the stale Data visible.
	IsRefreshing bool

	// Err is the message of the most recent failed fetch, or "" when there
	// is none. It is cleared at the start of every attempt and on success,
	// so a transient failure stays visible through the following idle
	// period. Failures with an empty message are recorded as
	// [UnknownErrorMessage].
	Err string

	// ConsecutiveErrors counts back-to-back failures since the last
	// success. Any success resets it to zero.
	ConsecutiveErrors int

	// CurrentInterval is the effective polling interval implied by
	// ConsecutiveErrors: min(interval * 2^n, maxBackoffInterval). Exposed
	// for introspection; see [NextInterval].
	CurrentInterval time.Duration

	// LastAttempt is when the most recent fetch attempt completed.
	// Zero if no attempt has completed yet.
	LastAttempt time.Time
}

// errorMessage normalizes a fetch failure into the message stored in
// [State.Err]. A nil error maps to "" (absent).
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
