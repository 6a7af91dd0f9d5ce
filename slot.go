// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

// Closer is implemented by payload types that need to release a resource
// when a channel drops a slot that still holds a value instead of
// delivering it to a consumer.
//
// Slot.Destroy invokes Close on the occupant before zeroing the slot,
// standing in for the occupant's destructor in a language without one.
type Closer interface {
	Close()
}

// Slot is storage for at most one T. It carries no occupancy bit of its
// own: whether a slot is occupied is entirely implied by the owning
// channel's state word. Callers must only Write a slot known (via the
// state word) to be empty, and only Take or Destroy one known to be full.
type Slot[T any] struct {
	value T
}

// Write deposits value into the slot. The caller asserts the slot is
// currently empty; Write performs no check of its own.
func (s *Slot[T]) Write(value T) {
	s.value = value
}

// Take moves the value out of the slot, leaving the zero value behind so
// any references it held can be garbage collected. The caller asserts
// the slot is currently full.
func (s *Slot[T]) Take() T {
	v := s.value
	var zero T
	s.value = zero
	return v
}

// Destroy releases a still-occupied slot without handing the value to a
// consumer. If the occupant implements Closer, Close is called first.
// The caller asserts the slot is currently full.
func (s *Slot[T]) Destroy() {
	if c, ok := any(s.value).(Closer); ok {
		c.Close()
	}
	var zero T
	s.value = zero
}
