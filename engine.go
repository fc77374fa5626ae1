package pollwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pollwatch/pollwatch/internal/store"
)

const (
	defaultInterval           = 3 * time.Second
	defaultMaxBackoffInterval = 60 * time.Second
)

// FetchFunc produces one value of the synchronized resource. It must be
// safely callable repeatedly; the engine assumes no memoization.
//
// The engine never retries a single call: a failure is recorded in the
// observable state and the next attempt waits for the (backed-off) timer.
// The function is responsible for its own timeout; a call that never
// returns leaves the engine's in-flight flag set indefinitely.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Config holds the polling knobs of an [Engine].
//
// A Config is applied as a whole: [Engine.Reconfigure] derives the
// required timer transitions by comparing the previous and new values.
// Use [DefaultConfig] as the starting point so the boolean fields carry
// their documented defaults.
type Config struct {
	// Enabled controls whether the engine schedules fetches at all.
	// Manual Refetch calls are not gated by this flag.
	Enabled bool

	// Interval is the base polling interval, used while fetches succeed.
	Interval time.Duration

	// PauseOnInactive stops the timer while the Visibility capability
	// reports hidden, and resumes with an immediate fetch on return.
	PauseOnInactive bool

	// MaxBackoffInterval caps the backed-off interval after consecutive
	// failures.
	MaxBackoffInterval time.Duration
}

// DefaultConfig returns the default engine configuration: enabled, 3
// second base interval, pause-on-inactive, 60 second backoff cap.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Interval:           defaultInterval,
		PauseOnInactive:    true,
		MaxBackoffInterval: defaultMaxBackoffInterval,
	}
}

func (c Config) validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.MaxBackoffInterval < c.Interval {
		return fmt.Errorf("max backoff interval %s must be at least the base interval %s",
			c.MaxBackoffInterval, c.Interval)
	}
	return nil
}

// attemptKind distinguishes the activation fetch from every later one.
// Only an initial attempt may set the Loading flag; refresh attempts set
// IsRefreshing instead.
type attemptKind int

const (
	attemptInitial attemptKind = iota
	attemptRefresh
)

// Engine polls a [FetchFunc] on an adaptive schedule and exposes the
// outcome as an observable [State].
//
// The typical lifecycle is:
//
//	engine, err := pollwatch.New(fetch)
//	if err != nil {
//	    slog.Error("failed to create engine", "error", err)
//	    os.Exit(1)
//	}
//
//	engine.Start(ctx) // non-blocking
//	defer engine.Stop()
//
//	for state := range engine.Updates() {
//	    render(state)
//	}
//
// All methods are safe for concurrent use. State mutations within a single
// fetch attempt are applied atomically from an observer's perspective; no
// ordering is enforced across overlapping attempts (for example a manual
// Refetch racing a timer tick), whose completions apply last-write-wins.
type Engine[T any] struct {
	fetch      FetchFunc[T]
	visibility Visibility
	logger     *slog.Logger
	callbacks  []func(State[T])
	snapshots  *store.Latest[State[T]]

	// closing unblocks the context follower on Stop; created once in New.
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu  sync.Mutex
	cfg Config

	// observable state, guarded by mu
	data        T
	hasData     bool
	loading     bool
	refreshing  bool
	errMsg      string
	failures    int
	lastAttempt time.Time

	// lifecycle, guarded by mu
	started  bool
	stopped  bool
	fetched  bool // initial fetch phase has passed
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   *time.Ticker
	tickDone chan struct{}
	unsubVis func()
}

// New creates an [Engine] polling the given fetch function.
//
// Options have sensible defaults:
//   - Enabled: true
//   - Interval: 3 seconds
//   - PauseOnInactive: true
//   - MaxBackoffInterval: 60 seconds
//   - Visibility: [AlwaysVisible]
//
// Returns an error if fetch is nil, any option is invalid, or the
// resulting configuration is inconsistent (for example a backoff cap
// below the base interval).
func New[T any](fetch FetchFunc[T], opts ...Option[T]) (*Engine[T], error) {
	if fetch == nil {
		return nil, errors.New("fetch function is required")
	}

	o := &options[T]{
		cfg:        DefaultConfig(),
		visibility: AlwaysVisible{},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.cfg.validate(); err != nil {
		return nil, err
	}

	// default to slog.Default() if no logger provided
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine[T]{
		fetch:      fetch,
		visibility: o.visibility,
		logger:     logger,
		callbacks:  o.callbacks,
		snapshots:  store.NewLatest[State[T]](),
		closing:    make(chan struct{}),
		cfg:        o.cfg,
	}, nil
}

// Start activates the engine.
//
// Start is non-blocking and idempotent; calls after the first are no-ops,
// as are calls after Stop. If the engine is enabled, Start performs one
// immediate fetch attempt (the initial fetch, which sets [State.Loading])
// and begins the repeating timer.
//
// If ctx is nil, context.Background() is used. The context is passed to
// every fetch call; cancelling it halts all future scheduling and cancels
// in-flight fetches, after which the engine behaves as if stopped.
func (e *Engine[T]) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	engineCtx := e.ctx // capture under lock to avoid race
	enabled := e.cfg.Enabled
	if enabled {
		if e.cfg.PauseOnInactive {
			e.subscribeVisibilityLocked()
		}
		e.startTimerLocked()
	}
	e.wg.Add(1)
	e.mu.Unlock()

	// follow the caller's context so external cancellation tears the
	// engine down even if Stop is never called
	go func() {
		defer e.wg.Done()
		select {
		case <-engineCtx.Done():
			e.halt()
		case <-e.closing:
		}
	}()

	e.logger.Debug("polling engine started", "enabled", enabled, "interval", e.CurrentInterval().String())

	if enabled {
		e.spawnAttempt(attemptInitial)
	}
}

// Stop deactivates the engine and releases its resources.
//
// Stop halts all future scheduling, waits for in-flight fetch attempts to
// complete (their results still apply to the state, per the last-write
// wins contract), and then closes all [Engine.Updates] channels. It does
// not cancel in-flight fetches; a fetch that never returns therefore
// blocks Stop, which is the caller's cue to put a timeout in the fetch
// function. Idempotent, and safe to call before Start.
func (e *Engine[T]) Stop() {
	e.halt()
	e.closeOnce.Do(func() { close(e.closing) })
	e.wg.Wait()
	e.snapshots.Close()
	e.logger.Debug("polling engine stopped")
}

// halt stops all future scheduling without waiting for in-flight work.
func (e *Engine[T]) halt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	e.stopTimerLocked()
	if e.unsubVis != nil {
		e.unsubVis()
		e.unsubVis = nil
	}
}

// Refetch triggers one out-of-band fetch attempt, marked as a refresh
// regardless of timer phase. The timer is neither reset nor restarted,
// and the attempt is not gated by Enabled, so a consumer-facing "reload"
// button works even while scheduled polling is off.
//
// No-op before Start and after Stop.
func (e *Engine[T]) Refetch() {
	e.spawnAttempt(attemptRefresh)
}

// Reconfigure atomically replaces the engine configuration and applies
// the implied scheduling transition:
//
//   - enabled true→false: the timer stops and state freezes at its last
//     values (in-flight attempts still complete).
//   - enabled false→true, or a change of Interval while enabled: one
//     immediate fetch attempt, then the timer (re)starts at the interval
//     implied by the current failure count.
//   - a change of PauseOnInactive rewires the visibility subscription and
//     applies from the next tick; turning it off while the timer is
//     paused hidden resumes ticking (without an immediate fetch).
//
// Changes to MaxBackoffInterval alone take effect at the next timer
// restart (that is, after the next completed fetch changes the failure
// count). Returns an error if the new configuration is invalid, leaving
// the previous one in place. No-op after Stop; before Start the new
// configuration is stored and used on activation.
func (e *Engine[T]) Reconfigure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	prev := e.cfg
	e.cfg = cfg
	if !e.started {
		e.mu.Unlock()
		return nil
	}

	if cfg.Enabled && cfg.PauseOnInactive {
		e.subscribeVisibilityLocked()
	} else if e.unsubVis != nil {
		e.unsubVis()
		e.unsubVis = nil
	}

	switch {
	case prev.Enabled && !cfg.Enabled:
		e.stopTimerLocked()
		e.mu.Unlock()
		e.logger.Debug("polling disabled")
		return nil

	case cfg.Enabled && (!prev.Enabled || cfg.Interval != prev.Interval):
		kind := attemptRefresh
		if !e.fetched {
			kind = attemptInitial
		}
		e.restartTimerLocked()
		e.mu.Unlock()
		e.logger.Debug("polling reconfigured", "interval", cfg.Interval.String())
		e.spawnAttempt(kind)
		return nil

	case cfg.Enabled && cfg.PauseOnInactive != prev.PauseOnInactive:
		// the per-tick pause check picks up the new flag on its own; the
		// timer only needs restarting here if a hide transition stopped it
		e.startTimerLocked()
		e.mu.Unlock()
		e.logger.Debug("polling reconfigured", "pause_on_inactive", cfg.PauseOnInactive)
		return nil
	}

	e.mu.Unlock()
	return nil
}

// State returns a snapshot of the current observable state.
func (e *Engine[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Config returns the current configuration.
func (e *Engine[T]) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// CurrentInterval returns the effective polling interval implied by the
// present consecutive-failure count. See [NextInterval].
func (e *Engine[T]) CurrentInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NextInterval(e.cfg.Interval, e.cfg.MaxBackoffInterval, e.failures)
}

// Updates returns a channel receiving every published [State] snapshot.
//
// The channel is buffered; a slow consumer misses intermediate snapshots
// but always converges on the latest. It is closed by [Engine.Stop].
// Callers that unsubscribe early must call [Engine.Unsubscribe].
func (e *Engine[T]) Updates() <-chan State[T] {
	return e.snapshots.Subscribe()
}

// Unsubscribe removes a subscription obtained from [Engine.Updates] and
// closes its channel. Safe to call with an already removed channel.
func (e *Engine[T]) Unsubscribe(ch <-chan State[T]) {
	e.snapshots.Unsubscribe(ch)
}

// spawnAttempt launches one fetch attempt in its own goroutine, tracked
// for Stop. Attempts are deliberately not serialized: a tick firing while
// a manual Refetch is in flight produces overlapping attempts whose
// completions apply last-write-wins.
func (e *Engine[T]) spawnAttempt(kind attemptKind) {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	ctx := e.ctx
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.attempt(ctx, kind)
	}()
}

// attempt runs one full fetch cycle: mark in-flight, clear the error,
// invoke the fetch, and fold the outcome back into the state.
func (e *Engine[T]) attempt(ctx context.Context, kind attemptKind) {
	attemptID := uuid.NewString()

	e.mu.Lock()
	initial := kind == attemptInitial && !e.fetched
	if initial {
		e.loading = true
	} else {
		e.refreshing = true
	}
	e.errMsg = ""
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(snap)

	data, err := e.fetch(ctx)

	e.mu.Lock()
	prevFailures := e.failures
	if err != nil {
		e.errMsg = errorMessage(err)
		e.failures++
	} else {
		e.data = data
		e.hasData = true
		e.errMsg = ""
		e.failures = 0
	}
	e.loading = false
	e.refreshing = false
	e.fetched = true
	e.lastAttempt = time.Now()
	// restart so the next tick uses the updated backoff interval instead
	// of waiting out the old one
	if e.failures != prevFailures && e.ticker != nil {
		e.restartTimerLocked()
	}
	snap = e.snapshotLocked()
	e.mu.Unlock()
	e.publish(snap)

	if err != nil {
		e.logger.Warn("fetch attempt failed",
			"attempt_id", attemptID,
			"error", snap.Err,
			"consecutive_errors", snap.ConsecutiveErrors,
			"current_interval", snap.CurrentInterval.String(),
		)
	} else {
		e.logger.Debug("fetch attempt completed",
			"attempt_id", attemptID,
			"initial", initial,
		)
	}
}

func (e *Engine[T]) snapshotLocked() State[T] {
	return State[T]{
		Data:              e.data,
		HasData:           e.hasData,
		Loading:           e.loading,
		IsRefreshing:      e.refreshing,
		Err:               e.errMsg,
		ConsecutiveErrors: e.failures,
		CurrentInterval:   NextInterval(e.cfg.Interval, e.cfg.MaxBackoffInterval, e.failures),
		LastAttempt:       e.lastAttempt,
	}
}

// publish fans a snapshot out to subscribers and registered callbacks.
func (e *Engine[T]) publish(snap State[T]) {
	e.snapshots.Set(snap)
	for _, cb := range e.callbacks {
		e.invokeCallbackSafe(cb, snap)
	}
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func (e *Engine[T]) invokeCallbackSafe(cb func(State[T]), snap State[T]) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			e.logger.Error("state callback panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(snap)
}

// startTimerLocked begins the repeating tick at the interval implied by
// the present failure count. No-op if a timer already exists.
func (e *Engine[T]) startTimerLocked() {
	if e.ticker != nil {
		return
	}
	d := NextInterval(e.cfg.Interval, e.cfg.MaxBackoffInterval, e.failures)
	e.ticker = time.NewTicker(d)
	done := make(chan struct{})
	e.tickDone = done
	ticker := e.ticker

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if e.skipTick() {
					// hidden tick: skipped, no state mutation
					continue
				}
				e.spawnAttempt(attemptRefresh)
			}
		}
	}()
}

// skipTick reports whether a timer tick should be dropped. The pause flag
// is read per tick rather than captured at timer start, so a Reconfigure
// that only flips PauseOnInactive takes effect on the very next tick.
func (e *Engine[T]) skipTick() bool {
	e.mu.Lock()
	pause := e.cfg.PauseOnInactive
	e.mu.Unlock()
	return pause && !e.visibility.Visible()
}

// stopTimerLocked clears the timer if present. No-op otherwise.
func (e *Engine[T]) stopTimerLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.tickDone)
	e.ticker = nil
	e.tickDone = nil
}

func (e *Engine[T]) restartTimerLocked() {
	e.stopTimerLocked()
	e.startTimerLocked()
}

func (e *Engine[T]) subscribeVisibilityLocked() {
	if e.unsubVis != nil {
		return
	}
	e.unsubVis = e.visibility.Subscribe(func(visible bool) {
		e.onVisibilityChange(visible)
	})
}

// onVisibilityChange reacts to the injected visibility signal: hidden
// stops the timer (no fetch); visible fetches immediately and resumes the
// timer, so returning after any period of inactivity yields fresh data
// without waiting out a full interval.
func (e *Engine[T]) onVisibilityChange(visible bool) {
	e.mu.Lock()
	if e.stopped || !e.started || !e.cfg.Enabled || !e.cfg.PauseOnInactive {
		e.mu.Unlock()
		return
	}
	if !visible {
		e.stopTimerLocked()
		e.mu.Unlock()
		e.logger.Debug("view hidden, polling paused")
		return
	}
	e.restartTimerLocked()
	e.mu.Unlock()
	e.logger.Debug("view visible, polling resumed")
	e.spawnAttempt(attemptRefresh)
}
