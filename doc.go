// Package pollwatch keeps an in-process view of a remote resource
// synchronized by adaptive polling, for consumers that have no push
// channel available.
//
// PollWatch is designed as an SDK-first library. Given a fetch function and
// a configuration, an [Engine] decides when to fetch, how fast to retry
// after failures (exponential backoff capped at a maximum interval), and
// whether to poll at all based on an injectable visibility signal. The
// engine exposes a continuously updated [State] snapshot and a manual
// [Engine.Refetch] trigger.
//
// # Quick Start
//
// Create an engine from any fetch function and start it with a context:
//
//	fetch := func(ctx context.Context) ([]Record, error) {
//	    return loadRecords(ctx)
//	}
//
//	engine, err := pollwatch.New(fetch,
//	    pollwatch.WithInterval(3 * time.Second),
//	)
//	if err != nil {
//	    slog.Error("failed to create engine", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	engine.Start(ctx)
//	defer engine.Stop()
//
//	for state := range engine.Updates() {
//	    render(state)
//	}
//
// # Configuration
//
// Engines use the functional options pattern for construction:
//
//	engine, err := pollwatch.New(fetch,
//	    pollwatch.WithInterval(5 * time.Second),
//	    pollwatch.WithMaxBackoffInterval(2 * time.Minute),
//	    pollwatch.WithPauseOnInactive(false),
//	)
//
// A running engine can be reconfigured with [Engine.Reconfigure]; the
// required timer transitions (stop, start, restart) are derived
// deterministically from the old and new configuration.
//
// # Backoff
//
// After each consecutive failure the polling interval doubles, capped at
// the configured maximum: min(interval * 2^n, maxBackoffInterval). The
// effective interval is exposed via [State.CurrentInterval] and the pure
// [NextInterval] function. Any success resets the interval to the base.
//
// # Visibility
//
// When the consuming view is not observed there is no point polling. The
// engine reads an injectable [Visibility] capability: on transition to
// hidden the timer stops, and on transition back to visible the engine
// fetches immediately and resumes the timer, so a returning observer sees
// fresh data without waiting out an interval. [AlwaysVisible] (the
// default) never pauses; [VisibilitySignal] is a process-local toggle
// suitable for wiring to application focus events or, as cmd/pollwatch
// does, to POSIX signals.
//
// # HTTP Sources
//
// Most callers poll a JSON-over-HTTP resource. [NewHTTPSource] builds a
// fetch function with connection pooling, per-request timeouts, custom
// headers, and response decoding:
//
//	src, err := pollwatch.NewHTTPSource[[]Record]("https://api.example.com/records",
//	    pollwatch.WithRequestHeaders("Authorization", "Bearer "+token),
//	    pollwatch.WithRequestTimeout(5 * time.Second),
//	)
//	engine, err := pollwatch.New(src.Fetch)
//
// # Architecture
//
// The library consists of the public root package plus internal packages:
//
//   - internal/fetch: pooled HTTP client with timeout and size limits
//   - internal/store: latest-snapshot storage with pub/sub for updates
//
// The internal packages are not part of the public API and may change
// without notice. The cmd/pollwatch binary wraps the library for running
// against a YAML-configured resource.
package pollwatch
