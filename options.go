package pollwatch

import (
	"errors"
	"log/slog"
	"time"
)

// options holds mutable state during Engine construction.
type options[T any] struct {
	cfg        Config
	visibility Visibility
	logger     *slog.Logger
	callbacks  []func(State[T])
}

// Option is a function that configures an [Engine] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithInterval], [WithMaxBackoffInterval],
// [WithPauseOnInactive], [WithEnabled], [WithConfig], [WithVisibility],
// [WithLogger], [WithStateCallback].
type Option[T any] func(*options[T]) error

// WithInterval sets the base polling interval.
//
// This is the interval used while fetches are succeeding; consecutive
// failures lengthen it per [NextInterval]. Defaults to 3 seconds.
//
// Example:
//
//	engine, err := pollwatch.New(fetch,
//	    pollwatch.WithInterval(30 * time.Second),
//	)
//
// Returns an error if the duration is zero or negative.
func WithInterval[T any](d time.Duration) Option[T] {
	return func(o *options[T]) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		o.cfg.Interval = d
		return nil
	}
}

// WithMaxBackoffInterval sets the cap on the backoff interval.
//
// However many consecutive failures accumulate, the effective polling
// interval never exceeds this value. Defaults to 60 seconds.
//
// Returns an error if the duration is zero or negative.
func WithMaxBackoffInterval[T any](d time.Duration) Option[T] {
	return func(o *options[T]) error {
		if d <= 0 {
			return errors.New("max backoff interval must be positive")
		}
		o.cfg.MaxBackoffInterval = d
		return nil
	}
}

// WithPauseOnInactive controls whether polling pauses while the
// [Visibility] capability reports hidden.
//
// When true (the default), the timer stops on transition to hidden and
// resumes with an immediate fetch on transition to visible. When false,
// the visibility signal is ignored entirely.
func WithPauseOnInactive[T any](pause bool) Option[T] {
	return func(o *options[T]) error {
		o.cfg.PauseOnInactive = pause
		return nil
	}
}

// WithEnabled controls whether the engine polls at all.
//
// A disabled engine schedules nothing when started; [Engine.Refetch]
// still works, and enabling later via [Engine.Reconfigure] activates
// polling. Defaults to true.
func WithEnabled[T any](enabled bool) Option[T] {
	return func(o *options[T]) error {
		o.cfg.Enabled = enabled
		return nil
	}
}

// WithConfig replaces the entire configuration at once.
//
// Useful when the configuration was assembled elsewhere (for example from
// a config file). Individual options applied after WithConfig still take
// effect. The config is validated by [New] after all options are applied.
func WithConfig[T any](cfg Config) Option[T] {
	return func(o *options[T]) error {
		o.cfg = cfg
		return nil
	}
}

// WithVisibility injects the [Visibility] capability the engine consults
// before timer-driven fetches.
//
// If not specified, [AlwaysVisible] is used and polling never pauses.
//
// Example:
//
//	vis := pollwatch.NewVisibilitySignal(true)
//	engine, err := pollwatch.New(fetch,
//	    pollwatch.WithVisibility(vis),
//	)
//
// Returns an error if the visibility is nil.
func WithVisibility[T any](v Visibility) Option[T] {
	return func(o *options[T]) error {
		if v == nil {
			return errors.New("visibility cannot be nil")
		}
		o.visibility = v
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the engine.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *options[T]) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithStateCallback registers a function to be called on every published
// [State] snapshot.
//
// Multiple callbacks may be registered; they execute in registration
// order. Callbacks receive the same value snapshots as [Engine.Updates]
// subscribers, including the attempt-start snapshot with the in-flight
// flag set.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running work should be
// dispatched to a separate goroutine; a blocking callback delays
// completion of the fetch attempt that triggered it.
//
// Panics within callbacks are recovered and logged with a correlation id;
// they do not crash the engine.
//
// Nil callbacks are silently ignored.
func WithStateCallback[T any](cb func(State[T])) Option[T] {
	return func(o *options[T]) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		o.callbacks = append(o.callbacks, cb)
		return nil
	}
}
