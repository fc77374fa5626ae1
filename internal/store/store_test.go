package store

import (
	"testing"
	"time"
)

func TestLatest_GetBeforeSet(t *testing.T) {
	l := NewLatest[int]()

	if _, ok := l.Get(); ok {
		t.Error("Get() ok = true before any Set, want false")
	}
}

func TestLatest_SetGet(t *testing.T) {
	l := NewLatest[string]()

	l.Set("first")
	l.Set("second")

	got, ok := l.Get()
	if !ok {
		t.Fatal("Get() ok = false after Set, want true")
	}
	if got != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

func TestLatest_SubscribeReceives(t *testing.T) {
	l := NewLatest[int]()
	ch := l.Subscribe()

	l.Set(1)
	l.Set(2)

	for want := 1; want <= 2; want++ {
		select {
		case got := <-ch:
			if got != want {
				t.Errorf("received %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for value %d", want)
		}
	}
}

func TestLatest_SlowSubscriberDropsValues(t *testing.T) {
	l := NewLatest[int]()
	ch := l.Subscribe()

	// overflow the buffer; Set must never block
	for i := 0; i < subscriberBuffer+50; i++ {
		l.Set(i)
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received != subscriberBuffer {
				t.Errorf("received %d values, want %d (overflow dropped)", received, subscriberBuffer)
			}
			return
		}
	}
}

func TestLatest_Unsubscribe(t *testing.T) {
	l := NewLatest[int]()
	ch := l.Subscribe()

	l.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Unsubscribe")
	}

	// repeated or unknown unsubscribes are no-ops
	l.Unsubscribe(ch)
	l.Unsubscribe(make(chan int))
}

func TestLatest_Close(t *testing.T) {
	l := NewLatest[int]()
	ch := l.Subscribe()

	l.Set(1)
	l.Close()
	l.Close() // idempotent

	// drain the buffered value, then expect closed
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				goto closed
			}
		case <-timeout:
			t.Fatal("timeout waiting for channel close")
		}
	}
closed:

	// Set after Close is a no-op but keeps the last value readable
	l.Set(99)
	if got, _ := l.Get(); got != 1 {
		t.Errorf("Get() = %d after post-Close Set, want 1", got)
	}

	// Subscribe after Close returns an already-closed channel
	if _, ok := <-l.Subscribe(); ok {
		t.Error("expected closed channel from Subscribe after Close")
	}
}
