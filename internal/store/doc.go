// Package store provides latest-value storage with a publish-subscribe
// mechanism for real-time updates.
//
// This package is internal to PollWatch. The engine publishes each state
// snapshot into a [Latest], which retains the most recent value and fans
// it out to subscribers over buffered channels. Slow consumers miss
// intermediate snapshots rather than blocking the publisher; they always
// converge on the latest value.
//
// Users of the pollwatch library should not interact with this package
// directly; subscriptions are exposed through the engine's Updates method.
package store
