// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import "code.hybscloud.com/atomix"

const (
	posRendezvousClosed    uint8 = 0
	posRendezvousFull      uint8 = 1
	posRendezvousTxPresent uint8 = 2
	posRendezvousRxPresent uint8 = 3
)

// Rendezvous is a single-producer single-consumer channel with capacity
// exactly one: a send cannot complete until the previous value has been
// received. Its entire state — closed, full, tx-present, rx-present —
// lives in one atomix.Uint64 word, the degenerate case of Buffered with
// a one-slot ring.
type Rendezvous[T any] struct {
	bits    atomix.Uint64
	txWaker WakerCell
	rxWaker WakerCell
	slot    Slot[T]
}

// NewRendezvous creates a new, unattached rendezvous channel.
func NewRendezvous[T any]() *Rendezvous[T] {
	return &Rendezvous[T]{}
}

// RendezvousProducer is the sending endpoint of a Rendezvous channel.
type RendezvousProducer[T any] struct {
	ch     *Rendezvous[T]
	closed atomix.Uint64
}

// RendezvousConsumer is the receiving endpoint of a Rendezvous channel.
type RendezvousConsumer[T any] struct {
	ch     *Rendezvous[T]
	closed atomix.Uint64
}

type errAlreadyAttached struct{ side string }

func (e errAlreadyAttached) Error() string { return "already attached: " + e.side }

// AttachProducer attaches the sending endpoint. Attaching a second
// producer to the same channel is a programmer error and panics.
func (r *Rendezvous[T]) AttachProducer() *RendezvousProducer[T] {
	if _, err := casLoop(&r.bits, nil, func(old uint64) (casStep[uint64], error) {
		if flagBit(old, posRendezvousTxPresent) {
			return casStep[uint64]{}, errAlreadyAttached{"tx"}
		}
		return casSetStep(setFlag(old, posRendezvousTxPresent)), nil
	}); err != nil {
		fatalf("rendezvous: attach-tx: %v", err)
	}
	return &RendezvousProducer[T]{ch: r}
}

// AttachConsumer attaches the receiving endpoint. Attaching a second
// consumer to the same channel is a programmer error and panics.
func (r *Rendezvous[T]) AttachConsumer() *RendezvousConsumer[T] {
	if _, err := casLoop(&r.bits, nil, func(old uint64) (casStep[uint64], error) {
		if flagBit(old, posRendezvousRxPresent) {
			return casStep[uint64]{}, errAlreadyAttached{"rx"}
		}
		return casSetStep(setFlag(old, posRendezvousRxPresent)), nil
	}); err != nil {
		fatalf("rendezvous: attach-rx: %v", err)
	}
	return &RendezvousConsumer[T]{ch: r}
}

// Close reclaims the channel. It is only legal to call once the channel
// is closed (some attached endpoint has been closed) or if no endpoint
// was ever attached; calling it on an open channel with an endpoint
// attached is a programmer error and panics. Close does not check that
// the other endpoint has also been closed. Close returns 1 if a committed-but-undelivered value
// was reclaimed via Slot.Destroy, 0 otherwise.
func (r *Rendezvous[T]) Close() (drained int) {
	bits := r.bits.LoadAcquire()
	attached := flagBit(bits, posRendezvousTxPresent) || flagBit(bits, posRendezvousRxPresent)
	closed := flagBit(bits, posRendezvousClosed)
	if attached && !closed {
		fatalf("rendezvous: channel dropped with a live endpoint attached")
	}
	if flagBit(bits, posRendezvousFull) {
		r.slot.Destroy()
		drained = 1
	}
	return drained
}

func (r *Rendezvous[T]) close(notifyTx, notifyRx bool) {
	if _, err := casLoop(&r.bits, nil, func(old uint64) (casStep[uint64], error) {
		return casSetStep(setFlag(old, posRendezvousClosed)), nil
	}); err != nil {
		fatalf("rendezvous: close: %v", err)
	}
	if notifyTx {
		r.txWaker.Wake()
	}
	if notifyRx {
		r.rxWaker.Wake()
	}
}

func (r *Rendezvous[T]) sendNoWait(value T) error {
	bits := r.bits.LoadAcquire()
	if flagBit(bits, posRendezvousClosed) {
		return SendClosed[T]{Value: value}
	}
	if flagBit(bits, posRendezvousFull) {
		return SendFull[T]{Value: value}
	}

	r.slot.Write(value)
	if _, err := casLoop(&r.bits, &bits, func(old uint64) (casStep[uint64], error) {
		return casSetStep(setFlag(old, posRendezvousFull)), nil
	}); err != nil {
		fatalf("rendezvous: send: %v", err)
	}
	r.rxWaker.Wake()
	return nil
}

func (r *Rendezvous[T]) recvNoWait() (T, error) {
	bits := r.bits.LoadAcquire()
	full := flagBit(bits, posRendezvousFull)
	closed := flagBit(bits, posRendezvousClosed)

	if !full {
		var zero T
		if closed {
			return zero, RecvClosed{}
		}
		return zero, RecvEmpty{}
	}

	value := r.slot.Take()
	if _, err := casLoop(&r.bits, &bits, func(old uint64) (casStep[uint64], error) {
		return casSetStep(clearFlag(old, posRendezvousFull)), nil
	}); err != nil {
		fatalf("rendezvous: recv: %v", err)
	}
	r.txWaker.Wake()
	return value, nil
}

// SendNoWait attempts to deposit value without suspending.
func (p *RendezvousProducer[T]) SendNoWait(value T) error {
	return p.ch.sendNoWait(value)
}

// PollSend registers w, then attempts SendNoWait once.
func (p *RendezvousProducer[T]) PollSend(value T, w Waker) error {
	p.ch.txWaker.Register(w)
	return p.ch.sendNoWait(value)
}

// Close detaches the producer. Idempotent.
func (p *RendezvousProducer[T]) Close() {
	if !p.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	p.ch.close(false, true)
}

// RecvNoWait attempts to remove a value without suspending.
func (c *RendezvousConsumer[T]) RecvNoWait() (T, error) {
	return c.ch.recvNoWait()
}

// PollRecv registers w, then attempts RecvNoWait once.
func (c *RendezvousConsumer[T]) PollRecv(w Waker) (T, error) {
	c.ch.rxWaker.Register(w)
	return c.ch.recvNoWait()
}

// Close detaches the consumer. Idempotent.
func (c *RendezvousConsumer[T]) Close() {
	if !c.closed.CompareAndSwapAcqRel(0, 1) {
		return
	}
	c.ch.close(true, false)
}
