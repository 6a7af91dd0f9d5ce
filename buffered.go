// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import "code.hybscloud.com/atomix"

// Bit layout of Buffered's state word, mirroring the Rust original's
// spsc/buffered/bits.rs: 1 bit closed, 1 bit tx-present, 1 bit
// rx-present, then two equal-width index fields for head and tail. On a
// 64-bit word that leaves (64-3)/2 = 30 bits per index (one bit spare),
// giving a ceiling of 2^30 slots, that is 2^30-1 usable values.
const (
	posBufferedClosed    uint8 = 0
	posBufferedTxPresent uint8 = 1
	posBufferedRxPresent uint8 = 2

	bufferedFlagsCount  uint8 = 3
	bufferedIndexBits   uint8 = 30
	bufferedHeadStart   uint8 = bufferedFlagsCount
	bufferedTailStart   uint8 = bufferedFlagsCount + bufferedIndexBits
	bufferedMaxCapacity       = 1 << bufferedIndexBits
)

// Buffered is a single-producer single-consumer bounded FIFO channel.
// Its entire coordination state — closed, tx-present, rx-present, head,
// tail — lives in one atomix.Uint64 word; the backing slot array is
// supplied by the caller.
type Buffered[T any] struct {
	bits    atomix.Uint64
	txWaker WakerCell
	rxWaker WakerCell
	slots   []Slot[T]
}

// NewBufferedWith creates a Buffered channel backed by the caller-owned
// buffer. len(buffer) is the usable capacity plus one: one slot is
// always left empty to disambiguate full from empty, so a buffer of
// length n holds at most n-1 values in flight. Panics if len(buffer) < 2
// or exceeds the index width's capacity ceiling.
func NewBufferedWith[T any](buffer []Slot[T]) *Buffered[T] {
	if len(buffer) < 2 {
		fatalf("buffered: capacity must be >= 2, got %d", len(buffer))
	}
	if len(buffer) > bufferedMaxCapacity {
		fatalf("buffered: capacity %d exceeds ceiling %d", len(buffer), bufferedMaxCapacity)
	}
	return &Buffered[T]{slots: buffer}
}

// NewBuffered allocates its own backing buffer for capacity usable
// values (so internally it allocates capacity+1 slots), as a convenience
// for callers that don't need externally-supplied storage.
func NewBuffered[T any](capacity int) *Buffered[T] {
	if capacity < 1 {
		fatalf("buffered: capacity must be >= 1, got %d", capacity)
	}
	return NewBufferedWith[T](make([]Slot[T], capacity+1))
}

// BufferedProducer is the sending endpoint of a Buffered channel.
type BufferedProducer[T any] struct {
	ch     *Buffered[T]
	closed atomix.Uint64
}

// BufferedConsumer is the receiving endpoint of a Buffered channel.
type BufferedConsumer[T any] struct {
	ch     *Buffered[T]
	closed atomix.Uint64
}

// AttachProducer attaches the sending endpoint. Attaching a second
// producer to the same channel is a programmer error and panics.
func (b *Buffered[T]) AttachProducer() *BufferedProducer[T] {
	if _, err := casLoop(&b.bits, nil, func(old uint64) (casStep[uint64], error) {
		if flagBit(old, posBufferedTxPresent) {
			return casStep[uint64]{}, errAlreadyAttached{"tx"}
		}
		return casSetStep(setFlag(old, posBufferedTxPresent)), nil
	}); err != nil {
		fatalf("buffered: attach-tx: %v", err)
	}
	return &BufferedProducer[T]{ch: b}
}

// AttachConsumer attaches the receiving endpoint. Attaching a second
// consumer to the same channel is a programmer error and panics.
func (b *Buffered[T]) AttachConsumer() *BufferedConsumer[T] {
	if _, err := casLoop(&b.bits, nil, func(old uint64) (casStep[uint64], error) {
		if flagBit(old, posBufferedRxPresent) {
			return casStep[uint64]{}, errAlreadyAttached{"rx"}
		}
		return casSetStep(setFlag(old, posBufferedRxPresent)), nil
	}); err != nil {
		fatalf("buffered: attach-rx: %v", err)
	}
	return &BufferedConsumer[T]{ch: b}
}

// Close reclaims the channel. It is only legal to call once the channel
// is closed (some attached endpoint has been closed) or if no endpoint
// was ever attached; calling it on an open channel with an endpoint
// attached is a programmer error and panics. Close does not check that
// the other endpoint has also been closed. Close runs Slot.Destroy over every slot still
// committed in [head, tail) and returns how many values were reclaimed
// that way.
func (b *Buffered[T]) Close() (drained int) {
	bits := b.bits.LoadAcquire()
	attached := flagBit(bits, posBufferedTxPresent) || flagBit(bits, posBufferedRxPresent)
	closed := flagBit(bits, posBufferedClosed)
	if attached && !closed {
		fatalf("buffered: channel dropped with a live endpoint attached")
	}

	n := uint64(len(b.slots))
	head := unpack(bits, bufferedHeadStart, bufferedIndexBits)
	tail := unpack(bits, bufferedTailStart, bufferedIndexBits)
	for head != tail {
		b.slots[head].Destroy()
		head = (head + 1) % n
		drained++
	}
	return drained
}

func (b *Buffered[T]) close(notifyTx, notifyRx bool) {
	if _, err := casLoop(&b.bits, nil, func(old uint64) (casStep[uint64], error) {
		return casSetStep(setFlag(old, posBufferedClosed)), nil
	}); err != nil {
		fatalf("buffered: close: %v", err)
	}
	if notifyTx {
		b.txWaker.Wake()
	}
	if notifyRx {
		b.rxWaker.Wake()
	}
}

func (b *Buffered[T]) sendNoWait(value T) error {
	n := uint64(len(b.slots))
	bits := b.bits.LoadAcquire()

	head := unpack(bits, bufferedHeadStart, bufferedIndexBits)
	tail := unpack(bits, bufferedTailStart, bufferedIndexBits)
	closed := flagBit(bits, posBufferedClosed)
	full := tail == (head+n-1)%n

	if closed {
		return SendClosed[T]{Value: value}
	}
	if full {
		return SendFull[T]{Value: value}
	}

	tailNext := (tail + 1) % n
	b.slots[tail].Write(value)
	if _, err := casLoop(&b.bits, &bits, func(old uint64) (casStep[uint64], error) {
		return casSetStep(pack(old, tailNext, bufferedTailStart, bufferedIndexBits)), nil
	}); err != nil {
		fatalf("buffered: send: %v", err)
	}
	b.rxWaker.Wake()
	return nil
}

func (b *Buffered[T]) recvNoWait() (T, error) {
	n := uint64(len(b.slots))
	bits := b.bits.LoadAcquire()

	head := unpack(bits, bufferedHeadStart, bufferedIndexBits)
	tail := unpack(bits, bufferedTailStart, bufferedIndexBits)
	closed := flagBit(bits, posBufferedClosed)
	empty := head == tail

	if empty {
		var zero T
		if closed {
			return zero, RecvClosed{}
		}
		return zero, RecvEmpty{}
	}

	headNext := (head + 1) % n
	value := b.slots[head].Take()
	if _, err := casLoop(&b.bits, &bits, func(old uint64) (casStep[uint64], error) {
		return casSetStep(pack(old, headNext, bufferedHeadStart, bufferedIndexBits)), nil
	}); err != nil {
		fatalf("buffered: recv: %v", err)
	}
	b.txWaker.Wake()
	return value, nil
}

// SendNoWait attempts to deposit value without suspending.
func (p *BufferedProducer[T]) SendNoWait(value T) error {
	return p.ch.sendNoWait(value)
}

// PollSend registers w, then attempts SendNoWait once.
func (p *BufferedProducer[T]) PollSend(value T, w Waker) error {
	p.ch.txWaker.Register(w)
	return p.ch.sendNoWait(value)
}

// Close detaches the producer. Idempotent.
func (p *BufferedProducer[T]) Close() {
	if !p.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	p.ch.close(false, true)
}

// RecvNoWait attempts to remove a value without suspending.
func (c *BufferedConsumer[T]) RecvNoWait() (T, error) {
	return c.ch.recvNoWait()
}

// PollRecv registers w, then attempts RecvNoWait once.
func (c *BufferedConsumer[T]) PollRecv(w Waker) (T, error) {
	c.ch.rxWaker.Register(w)
	return c.ch.recvNoWait()
}

// Close detaches the consumer. Idempotent.
func (c *BufferedConsumer[T]) Close() {
	if !c.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	c.ch.close(true, false)
}
