// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

// Options configures channel creation and flavor selection.
type Options struct {
	capacity     int
	maxProducers int
	maxConsumers int
	rendezvous   bool
}

// Builder creates channels with fluent configuration. The caller picks
// the flavor by calling BuildRendezvous, BuildBuffered or BuildMPMC; the
// Rendezvous and Buffered builders panic if the configured producer or
// consumer counts exceed one.
//
// Example:
//
//	// Buffered SPSC channel
//	c := airlock.BuildBuffered[Event](airlock.New(1024))
//
//	// MPMC channel with up to 8 producers and 4 consumers
//	c := airlock.BuildMPMC[Job](airlock.New(4096).MaxProducers(8).MaxConsumers(4))
//
//	// Rendezvous (capacity exactly 1)
//	c := airlock.BuildRendezvous[Ack](airlock.New(1).Rendezvous())
type Builder struct {
	opts Options
}

// New creates a channel builder with the given capacity. Capacity is the
// number of values that may be in flight at once; it is ignored by
// Rendezvous() and by BuildRendezvous. Panics if capacity < 1.
func New(capacity int) *Builder {
	if capacity < 1 {
		fatalf("airlock: capacity must be >= 1, got %d", capacity)
	}
	return &Builder{opts: Options{capacity: capacity, maxProducers: 1, maxConsumers: 1}}
}

// Rendezvous marks the builder as describing the degenerate capacity-1
// SPSC channel that BuildRendezvous creates. No Build function reads
// the mark: BuildRendezvous ignores the capacity New was given either
// way, and BuildBuffered and BuildMPMC still use that capacity.
func (b *Builder) Rendezvous() *Builder {
	b.opts.rendezvous = true
	return b
}

// MaxProducers declares how many producer endpoints may be attached
// concurrently. Values greater than 1 require BuildMPMC. Panics if
// n < 1.
func (b *Builder) MaxProducers(n int) *Builder {
	if n < 1 {
		fatalf("airlock: MaxProducers must be >= 1, got %d", n)
	}
	b.opts.maxProducers = n
	return b
}

// MaxConsumers declares how many consumer endpoints may be attached
// concurrently. Values greater than 1 require BuildMPMC. Panics if
// n < 1.
func (b *Builder) MaxConsumers(n int) *Builder {
	if n < 1 {
		fatalf("airlock: MaxConsumers must be >= 1, got %d", n)
	}
	b.opts.maxConsumers = n
	return b
}

// BuildRendezvous creates a Rendezvous channel. Panics if the builder
// was configured with MaxProducers or MaxConsumers greater than 1 — a
// rendezvous has exactly one producer and one consumer seat.
func BuildRendezvous[T any](b *Builder) *Rendezvous[T] {
	if b.opts.maxProducers > 1 || b.opts.maxConsumers > 1 {
		fatalf("airlock: BuildRendezvous requires at most one producer and one consumer")
	}
	return NewRendezvous[T]()
}

// BuildBuffered creates a Buffered channel sized to the builder's
// capacity. Panics if the builder was configured with MaxProducers or
// MaxConsumers greater than 1 — use BuildMPMC for more than one
// concurrent endpoint per side.
func BuildBuffered[T any](b *Builder) *Buffered[T] {
	if b.opts.maxProducers > 1 || b.opts.maxConsumers > 1 {
		fatalf("airlock: BuildBuffered requires at most one producer and one consumer")
	}
	return NewBuffered[T](b.opts.capacity)
}

// BuildMPMC creates an MPMC channel sized to the builder's capacity and
// seat counts.
func BuildMPMC[T any](b *Builder) *MPMC[T] {
	return NewMPMC[T](b.opts.capacity, b.opts.maxProducers, b.opts.maxConsumers)
}

// pad is cache line padding to prevent false sharing between hot atomic
// fields owned by different goroutines.
type pad [64]byte

// padShort is padding to fill a cache line after one 8-byte field.
type padShort [64 - 8]byte
