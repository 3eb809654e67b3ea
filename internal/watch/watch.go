// Package watch implements a tiny last-writer-wins value broadcast, used for
// the runtime-configuration and VAD-parameter update channels described in
// the control loop: a single writer publishes new values, any number of
// readers can fetch the latest value or wait for the next change without the
// writer ever blocking.
package watch

import "sync"

// Value holds the latest published T plus a broadcast channel readers select
// on to learn that a newer value is available.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	changed chan struct{}
}

// New creates a Value seeded with initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		changed: make(chan struct{}),
	}
}

// Get returns the most recently published value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set publishes a new value and wakes any goroutine blocked in Changed.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.current = next
	old := v.changed
	v.changed = make(chan struct{})
	v.mu.Unlock()
	close(old)
}

// Changed returns a channel that is closed the next time Set is called.
// Callers typically select on it alongside other work, then call Get to pick
// up the latest value.
func (v *Value[T]) Changed() <-chan struct{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.changed
}
