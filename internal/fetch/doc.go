// Package fetch provides the HTTP plumbing behind PollWatch's HTTP
// sources.
//
// This package is internal to PollWatch. It wraps net/http with the
// concerns a long-lived poller needs: connection pooling tuned for
// repeatedly hitting one resource, per-request timeouts via context, and
// a response body size cap.
//
// Users of the pollwatch library should not interact with this package
// directly; HTTP sources are created through pollwatch.NewHTTPSource.
package fetch
