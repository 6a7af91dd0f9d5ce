// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Bit layout of MPMC's state word: 1 bit closed, then four equal-width
// index fields in the order the Rust original's mpmc/bits.rs lays them
// out — head-reserved, head-committed, tail-reserved, tail-committed
// (named head_taken/head_avail/tail_taken/tail_avail there). On a 64-bit
// word that leaves (64-1)/4 = 15 bits per index, giving a usable
// capacity ceiling of 2^15-1 = 32767 slots (one slot is always left
// empty to disambiguate full from empty).
const (
	posMPMCClosed uint8 = 0

	mpmcFlagsCount         uint8 = 1
	mpmcIndexBits          uint8 = 15
	mpmcHeadReservedStart  uint8 = mpmcFlagsCount
	mpmcHeadCommittedStart uint8 = mpmcFlagsCount + mpmcIndexBits
	mpmcTailReservedStart  uint8 = mpmcFlagsCount + 2*mpmcIndexBits
	mpmcTailCommittedStart uint8 = mpmcFlagsCount + 3*mpmcIndexBits

	mpmcMaxCapacity = 1 << mpmcIndexBits
)

// Seat is one addressable position in a waker table: an occupied flag
// plus the waker cell for whichever endpoint currently owns the seat.
// Producer and consumer seat tables are supplied by the caller, sized to
// the maximum number of concurrent endpoints expected on that side.
type Seat struct {
	occupied atomix.Uint64
	_        padShort
	waker    WakerCell
}

// MPMC is a multi-producer multi-consumer bounded FIFO channel. Its
// coordination state — closed, plus the four head/tail reserved and
// committed indices — lives in one atomix.Uint64 word; the backing slot
// array and both waker-seat tables are supplied by the caller.
type MPMC[T any] struct {
	bits atomix.Uint64
	_    pad
	refs atomix.Uint64
	_    pad

	slots         []Slot[T]
	producerSeats []Seat
	consumerSeats []Seat
}

type (
	errClosedSignal struct{}
	errEmptySignal  struct{}
	errFullSignal   struct{}
)

func (errClosedSignal) Error() string { return "mpmc: closed" }
func (errEmptySignal) Error() string  { return "mpmc: empty" }
func (errFullSignal) Error() string   { return "mpmc: full" }

// NewMPMCWith creates an MPMC channel backed by caller-owned storage.
// len(slots) is the usable capacity plus one (one slot is always left
// empty); len(producerSeats) and len(consumerSeats) bound the maximum
// number of concurrently attached producers and consumers respectively.
// Panics if slots is too small or too large for the index width, or if
// either seat table is empty.
func NewMPMCWith[T any](slots []Slot[T], producerSeats, consumerSeats []Seat) *MPMC[T] {
	if len(slots) < 2 {
		fatalf("mpmc: capacity must be >= 2, got %d", len(slots))
	}
	if len(slots) > mpmcMaxCapacity {
		fatalf("mpmc: capacity %d exceeds ceiling %d", len(slots), mpmcMaxCapacity)
	}
	if len(producerSeats) < 1 {
		fatalf("mpmc: producer seat table must have at least one seat")
	}
	if len(consumerSeats) < 1 {
		fatalf("mpmc: consumer seat table must have at least one seat")
	}
	return &MPMC[T]{slots: slots, producerSeats: producerSeats, consumerSeats: consumerSeats}
}

// NewMPMC allocates its own backing slot array and seat tables, as a
// convenience for callers that don't need externally-supplied storage.
func NewMPMC[T any](capacity, maxProducers, maxConsumers int) *MPMC[T] {
	if capacity < 1 {
		fatalf("mpmc: capacity must be >= 1, got %d", capacity)
	}
	return NewMPMCWith[T](make([]Slot[T], capacity+1), make([]Seat, maxProducers), make([]Seat, maxConsumers))
}

func attachSeat(seats []Seat) int {
	for i := range seats {
		if seats[i].occupied.CompareAndSwapAcqRel(0, 1) {
			return i
		}
	}
	return -1
}

func detachSeat(seats []Seat, seat int) {
	if !seats[seat].occupied.CompareAndSwapAcqRel(1, 0) {
		fatalf("mpmc: detaching already-unoccupied seat %d", seat)
	}
}

// MPMCProducer is one sending endpoint of an MPMC channel, owning one
// producer seat for the lifetime of its attachment.
type MPMCProducer[T any] struct {
	ch     *MPMC[T]
	seat   int
	closed atomix.Uint64
}

// MPMCConsumer is one receiving endpoint of an MPMC channel, owning one
// consumer seat for the lifetime of its attachment.
type MPMCConsumer[T any] struct {
	ch     *MPMC[T]
	seat   int
	closed atomix.Uint64
}

// AttachProducer claims a free producer seat. Exhausting the seat table
// (every seat already occupied) is a programmer error and panics —
// seats bound the maximum concurrency and are sized by the caller.
func (q *MPMC[T]) AttachProducer() *MPMCProducer[T] {
	seat := attachSeat(q.producerSeats)
	if seat < 0 {
		fatalf("mpmc: attach-tx: no free seat in a table of %d", len(q.producerSeats))
	}
	if q.refs.AddAcqRel(1) == 0 {
		fatalf("mpmc: reference count overflow")
	}
	return &MPMCProducer[T]{ch: q, seat: seat}
}

// AttachConsumer claims a free consumer seat. Exhausting the seat table
// is a programmer error and panics.
func (q *MPMC[T]) AttachConsumer() *MPMCConsumer[T] {
	seat := attachSeat(q.consumerSeats)
	if seat < 0 {
		fatalf("mpmc: attach-rx: no free seat in a table of %d", len(q.consumerSeats))
	}
	if q.refs.AddAcqRel(1) == 0 {
		fatalf("mpmc: reference count overflow")
	}
	return &MPMCConsumer[T]{ch: q, seat: seat}
}

// Close reclaims the channel. Legal only once every endpoint ever
// attached has detached; calling it while any endpoint remains attached
// is a programmer error and panics. Close runs Slot.Destroy over every
// slot still committed in [head-committed, tail-committed) and returns
// how many values were reclaimed that way.
func (q *MPMC[T]) Close() (drained int) {
	if q.refs.LoadAcquire() != 0 {
		fatalf("mpmc: channel dropped with live endpoints")
	}

	n := uint64(len(q.slots))
	bits := q.bits.LoadAcquire()
	headC := unpack(bits, mpmcHeadCommittedStart, mpmcIndexBits)
	tailC := unpack(bits, mpmcTailCommittedStart, mpmcIndexBits)
	for headC != tailC {
		q.slots[headC].Destroy()
		headC = (headC + 1) % n
		drained++
	}
	return drained
}

// requestClose is the spec's "any endpoint may request close": it
// CAS-sets the Closed flag and broadcasts to every seat on both sides.
// Senders that already reserved a slot are allowed to finish committing
// it; future reservations observe Closed and fail.
func (q *MPMC[T]) requestClose() {
	if _, err := casLoop(&q.bits, nil, func(old uint64) (casStep[uint64], error) {
		return casSetStep(setFlag(old, posMPMCClosed)), nil
	}); err != nil {
		fatalf("mpmc: close: %v", err)
	}
	q.wakeProducers()
	q.wakeConsumers()
}

func (q *MPMC[T]) wakeProducers() {
	for i := range q.producerSeats {
		q.producerSeats[i].waker.Wake()
	}
}

func (q *MPMC[T]) wakeConsumers() {
	for i := range q.consumerSeats {
		q.consumerSeats[i].waker.Wake()
	}
}

// enqueueReserve performs the spec's first send state-word update: claim
// a tail slot, or fail with Closed/Full. It returns the index of the
// slot this caller now exclusively owns until it commits.
func (q *MPMC[T]) enqueueReserve() (uint64, error) {
	n := uint64(len(q.slots))
	var myTail uint64
	_, err := casLoop(&q.bits, nil, func(old uint64) (casStep[uint64], error) {
		if flagBit(old, posMPMCClosed) {
			return casStep[uint64]{}, errClosedSignal{}
		}
		headC := unpack(old, mpmcHeadCommittedStart, mpmcIndexBits)
		tailR := unpack(old, mpmcTailReservedStart, mpmcIndexBits)
		if tailR == (headC+n-1)%n {
			return casStep[uint64]{}, errFullSignal{}
		}
		myTail = tailR
		return casSetStep(pack(old, (tailR+1)%n, mpmcTailReservedStart, mpmcIndexBits)), nil
	})
	return myTail, err
}

// commitTail spins until tail-committed catches up to myTail (all
// strictly earlier in-flight sends have committed), then advances it by
// one. This enforces FIFO commit ordering even when producers finish
// writing their slot out of order. Like casLoop, it gives up after
// casIterationCeiling attempts, which is process-fatal.
func (q *MPMC[T]) commitTail(myTail uint64) {
	n := uint64(len(q.slots))
	sw := spin.Wait{}
	for i := 0; i < casIterationCeiling; i++ {
		bits := q.bits.LoadAcquire()
		if unpack(bits, mpmcTailCommittedStart, mpmcIndexBits) != myTail {
			sw.Once()
			continue
		}
		next := pack(bits, (myTail+1)%n, mpmcTailCommittedStart, mpmcIndexBits)
		if q.bits.CompareAndSwapAcqRel(bits, next) {
			return
		}
		sw.Once()
	}
	fatalf("mpmc: commit-tail exceeded %d iterations", casIterationCeiling)
}

func (q *MPMC[T]) sendNoWait(value T) error {
	myTail, err := q.enqueueReserve()
	if err != nil {
		switch err.(type) {
		case errClosedSignal:
			return SendClosed[T]{Value: value}
		case errFullSignal:
			return SendFull[T]{Value: value}
		default:
			fatalf("mpmc: send: %v", err)
		}
	}

	q.slots[myTail].Write(value)
	q.commitTail(myTail)
	q.wakeConsumers()
	return nil
}

// dequeueReserve performs the spec's first receive state-word update:
// claim a head slot, or fail with Closed/Empty.
func (q *MPMC[T]) dequeueReserve() (uint64, error) {
	n := uint64(len(q.slots))
	var myHead uint64
	_, err := casLoop(&q.bits, nil, func(old uint64) (casStep[uint64], error) {
		tailC := unpack(old, mpmcTailCommittedStart, mpmcIndexBits)
		headR := unpack(old, mpmcHeadReservedStart, mpmcIndexBits)
		if headR == tailC {
			if flagBit(old, posMPMCClosed) {
				return casStep[uint64]{}, errClosedSignal{}
			}
			return casStep[uint64]{}, errEmptySignal{}
		}
		myHead = headR
		return casSetStep(pack(old, (headR+1)%n, mpmcHeadReservedStart, mpmcIndexBits)), nil
	})
	return myHead, err
}

// commitHead mirrors commitTail for the receive side.
func (q *MPMC[T]) commitHead(myHead uint64) {
	n := uint64(len(q.slots))
	sw := spin.Wait{}
	for i := 0; i < casIterationCeiling; i++ {
		bits := q.bits.LoadAcquire()
		if unpack(bits, mpmcHeadCommittedStart, mpmcIndexBits) != myHead {
			sw.Once()
			continue
		}
		next := pack(bits, (myHead+1)%n, mpmcHeadCommittedStart, mpmcIndexBits)
		if q.bits.CompareAndSwapAcqRel(bits, next) {
			return
		}
		sw.Once()
	}
	fatalf("mpmc: commit-head exceeded %d iterations", casIterationCeiling)
}

func (q *MPMC[T]) recvNoWait() (T, error) {
	myHead, err := q.dequeueReserve()
	if err != nil {
		var zero T
		switch err.(type) {
		case errClosedSignal:
			return zero, RecvClosed{}
		case errEmptySignal:
			return zero, RecvEmpty{}
		default:
			fatalf("mpmc: recv: %v", err)
		}
	}

	value := q.slots[myHead].Take()
	q.commitHead(myHead)
	q.wakeProducers()
	return value, nil
}

// SendNoWait attempts to deposit value without suspending.
func (p *MPMCProducer[T]) SendNoWait(value T) error {
	return p.ch.sendNoWait(value)
}

// PollSend registers w on this producer's seat, then attempts
// SendNoWait once.
func (p *MPMCProducer[T]) PollSend(value T, w Waker) error {
	p.ch.producerSeats[p.seat].waker.Register(w)
	return p.ch.sendNoWait(value)
}

// Close releases this producer's seat. It does not close the channel —
// other producers may still be attached. Use RequestClose to close the
// whole channel. Idempotent.
func (p *MPMCProducer[T]) Close() {
	if !p.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	detachSeat(p.ch.producerSeats, p.seat)
	if p.ch.refs.AddAcqRel(^uint64(0)) == ^uint64(0) {
		fatalf("mpmc: reference count underflow")
	}
}

// RequestClose closes the whole channel from this producer's side:
// every current and future send observes Closed, and every seat on both
// sides is woken.
func (p *MPMCProducer[T]) RequestClose() {
	p.ch.requestClose()
}

// RecvNoWait attempts to remove a value without suspending.
func (c *MPMCConsumer[T]) RecvNoWait() (T, error) {
	return c.ch.recvNoWait()
}

// PollRecv registers w on this consumer's seat, then attempts
// RecvNoWait once.
func (c *MPMCConsumer[T]) PollRecv(w Waker) (T, error) {
	c.ch.consumerSeats[c.seat].waker.Register(w)
	return c.ch.recvNoWait()
}

// Close releases this consumer's seat. It does not close the channel.
// Use RequestClose to close the whole channel. Idempotent.
func (c *MPMCConsumer[T]) Close() {
	if !c.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	detachSeat(c.ch.consumerSeats, c.seat)
	if c.ch.refs.AddAcqRel(^uint64(0)) == ^uint64(0) {
		fatalf("mpmc: reference count underflow")
	}
}

// RequestClose closes the whole channel from this consumer's side.
func (c *MPMCConsumer[T]) RequestClose() {
	c.ch.requestClose()
}
