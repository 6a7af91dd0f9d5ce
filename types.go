// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

// Producer is the sending endpoint of a channel, returned from a
// channel's AttachProducer. A Producer is single-owner: it must not be
// used from more than one goroutine concurrently, even on a channel
// flavor (MPMC) whose underlying state supports multiple producers —
// each producer goroutine attaches its own endpoint.
type Producer[T any] interface {
	// SendNoWait attempts to deposit value without suspending. It
	// returns nil on success, SendFull{value} if the channel is at
	// capacity, or SendClosed{value} if the channel is closed. The
	// rejected value is always returned unchanged on failure.
	SendNoWait(value T) error

	// PollSend registers w as the interested task, then attempts
	// SendNoWait once. A SendFull result means the registration
	// happened before the retry and w will be woken if the channel
	// later has room; the caller is expected to suspend and retry
	// through PollSend again once woken. SendClosed is always terminal.
	PollSend(value T, w Waker) error

	// Close detaches this producer. It is idempotent: a second Close
	// is a no-op. On Rendezvous and Buffered, where there is only ever
	// one peer, Close propagates Closed to the consumer side and wakes
	// it. On MPMC, where other producers may still be attached, Close
	// only releases this producer's own seat; it does not close the
	// channel. Use MPMCProducer.RequestClose to close an MPMC channel
	// from a producer.
	Close()
}

// Consumer is the receiving endpoint of a channel, returned from a
// channel's AttachConsumer. A Consumer is single-owner in the same
// sense as Producer.
type Consumer[T any] interface {
	// RecvNoWait attempts to remove a value without suspending. It
	// returns the value and nil on success, the zero value and
	// RecvEmpty{} if the channel is open but empty, or the zero value
	// and RecvClosed{} if the channel is closed with nothing left to
	// drain.
	RecvNoWait() (T, error)

	// PollRecv registers w as the interested task, then attempts
	// RecvNoWait once. A RecvEmpty result means the registration
	// happened before the retry and w will be woken if a value later
	// becomes available; the caller is expected to suspend and retry
	// through PollRecv again once woken. RecvClosed is always terminal.
	PollRecv(w Waker) (T, error)

	// Close detaches this consumer. It is idempotent: a second Close
	// is a no-op. On Rendezvous and Buffered, where there is only ever
	// one peer, Close propagates Closed to the producer side and wakes
	// it. On MPMC, where other consumers may still be attached, Close
	// only releases this consumer's own seat; it does not close the
	// channel. Use MPMCConsumer.RequestClose to close an MPMC channel
	// from a consumer.
	Close()
}
