// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock_test

import "sync/atomic"

// Counter and Counted track how many payloads are currently "alive" —
// wrapped but not yet unwrapped by a receiver, nor reclaimed by a
// channel's Close via Slot.Destroy. A value that is neither received nor
// reclaimed leaks; Count reads nonzero forever after the channel and its
// endpoints are gone.
type Counter struct {
	alive atomic.Int64
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Count() int64 { return c.alive.Load() }

// Counted wraps value and registers it as alive on counter until exactly
// one of Unwrap or Close (the latter invoked by Slot.Destroy on a
// channel drop) releases it.
type Counted[T any] struct {
	counter  *Counter
	value    T
	released atomic.Bool
}

// NewCounted marks value as alive on counter and returns the wrapper to
// send through a channel.
func NewCounted[T any](counter *Counter, value T) *Counted[T] {
	counter.alive.Add(1)
	return &Counted[T]{counter: counter, value: value}
}

// Unwrap releases this value and returns its payload. Call this after a
// successful receive.
func (c *Counted[T]) Unwrap() T {
	c.release()
	return c.value
}

// Close releases this value without exposing its payload, satisfying
// the airlock.Closer contract so an undelivered value left in a slot at
// channel-close time is still accounted for.
func (c *Counted[T]) Close() {
	c.release()
}

func (c *Counted[T]) release() {
	if c.released.CompareAndSwap(false, true) {
		c.counter.alive.Add(-1)
	}
}
