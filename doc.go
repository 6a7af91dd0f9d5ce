// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package airlock provides freestanding, bounded, asynchronous message
// channels for single-process cooperative concurrency runtimes.
//
// Three channel flavors are offered, chosen by how many producer and
// consumer endpoints may be attached concurrently:
//
//   - Rendezvous: exactly one producer, one consumer, capacity 1. A send
//     cannot complete until the previous value has been received.
//   - Buffered: exactly one producer, one consumer, capacity N. A
//     generalization of Rendezvous to an N-slot ring.
//   - MPMC: any number of producers and consumers, capacity N, FIFO
//     ordering preserved under contention.
//
// All three pack their entire coordination state — closed flag, slot
// presence/indices — into a single atomix.Uint64 word, updated through
// bounded compare-and-swap loops. None of them allocate their own
// backing storage by default unless the caller uses the convenience
// constructors (NewRendezvous, NewBuffered, NewMPMC); NewBufferedWith,
// NewMPMCWith and the value Slot[T] storage cell let a caller supply
// memory itself.
//
// # Quick Start
//
//	c := airlock.NewBuffered[Event](1024)
//	tx := c.AttachProducer()
//	rx := c.AttachConsumer()
//
//	err := tx.SendNoWait(ev)
//	if airlock.IsWouldBlock(err) {
//	    // channel full - handle backpressure
//	}
//
//	ev, err := rx.RecvNoWait()
//	if airlock.IsWouldBlock(err) {
//	    // channel empty - try again later
//	}
//
// Builder API, which checks the configured seat counts against the
// flavor being built:
//
//	c := airlock.BuildBuffered[Event](airlock.New(1024))
//	c := airlock.BuildMPMC[Job](airlock.New(4096).MaxProducers(8).MaxConsumers(4))
//	c := airlock.BuildRendezvous[Ack](airlock.New(1).Rendezvous())
//
// # Suspending on readiness
//
// SendNoWait and RecvNoWait never block; instead of a channel-select
// primitive, an external scheduler suspends a task and resumes it via a
// registered [Waker]. PollSend and PollRecv register the waker and
// retry the non-blocking operation in one step, matching the way a
// cooperative runtime would implement "poll, then suspend on failure":
//
//	for {
//	    err := tx.PollSend(ev, myTaskWaker)
//	    if err == nil {
//	        break
//	    }
//	    if !airlock.IsWouldBlock(err) {
//	        return err // closed
//	    }
//	    suspendUntilWoken()
//	}
//
// A registration is consumed by at most one Wake call; callers loop
// back through PollSend/PollRecv to re-register after every wakeup, the
// same way futures::task::AtomicWaker-style cells are used elsewhere.
//
// # Error Handling
//
// Operations return one of four sentinel error types instead of a
// shared ErrWouldBlock: [RecvEmpty], [RecvClosed], [SendFull][T],
// [SendClosed][T]. SendFull and SendClosed carry the rejected value back
// to the caller so it is never silently dropped.
//
//	airlock.IsWouldBlock(err)  // true if channel full/empty
//	airlock.IsClosed(err)      // true if channel closed
//	airlock.IsSemantic(err)    // true if any control flow signal
//	airlock.IsNonFailure(err)  // true if nil or would-block
//
// These delegate to [code.hybscloud.com/iox] for anything this package's
// own types don't recognize, so airlock errors sort into the same
// control-flow bucket as the rest of the code.hybscloud.com ecosystem.
//
// # Attach and Close
//
// A channel's storage is separate from its endpoints. AttachProducer and
// AttachConsumer claim a side; Rendezvous and Buffered allow exactly one
// attachment per side for the channel's lifetime and panic on a second
// attempt, even after the first endpoint has been closed.
// MPMC draws from a caller-sized seat table and panics only once the
// table is exhausted.
//
// Go has no destructor to run automatically when an endpoint goes out of
// scope, so detaching is explicit: every endpoint has an idempotent
// Close. On Rendezvous and Buffered, closing either endpoint closes the
// whole channel (there being only one peer to notify). On MPMC, closing
// one endpoint only releases its own seat — call RequestClose to close
// the whole channel from any attached endpoint. A channel's own Close
// reclaims its storage and returns how many undelivered values were
// reclaimed via Slot.Destroy. On MPMC it panics if any endpoint is still
// attached; on Rendezvous and Buffered it panics only if an endpoint is
// attached and the channel has not been closed.
//
// # Capacity
//
// Buffered and MPMC capacities are exact, not rounded to a power of two:
// one extra slot is always allocated internally to disambiguate full
// from empty, so a channel built for capacity N holds at most N values
// in flight. The index fields packed into the state word bound the
// ceiling: 2^30-1 for Buffered, 2^15-1 for MPMC.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channel, WaitGroup) but cannot observe happens-before relationships
// established purely through atomic acquire-release orderings on
// separate memory words. The bit-packed state words in this package are
// correct under that model, but a small number of stress tests that rely
// on cross-variable ordering check [RaceEnabled] and skip themselves
// when the race detector is active, rather than asserting an ordering
// the detector cannot verify.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering, [code.hybscloud.com/spin] for
// CPU-pause backoff inside its bounded CAS loops, and
// [code.hybscloud.com/iox] for semantic error classification.
package airlock
