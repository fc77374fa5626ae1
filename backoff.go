package pollwatch

import "time"

// NextInterval returns the effective polling interval after
// consecutiveErrors back-to-back failures: min(base * 2^n, max).
//
// With zero failures the base interval is returned unchanged. The
// computation is pure; the engine recomputes it on demand rather than
// tracking a mutable current interval, and exposes the result via
// [State.CurrentInterval] so callers can observe backoff progression.
func NextInterval(base, max time.Duration, consecutiveErrors int) time.Duration {
	if consecutiveErrors <= 0 {
		return base
	}
	d := base
	for i := 0; i < consecutiveErrors; i++ {
		d *= 2
		// d <= 0 catches overflow for absurd failure counts
		if d >= max || d <= 0 {
			return max
		}
	}
	return d
}
