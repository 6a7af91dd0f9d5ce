// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import (
	"fmt"

	"code.hybscloud.com/iox"
)

// RecvEmpty indicates a recv-nowait found the channel open but empty.
// It is a control flow signal, not a failure: the caller should retry
// later, typically after registering a Waker via PollRecv.
type RecvEmpty struct{}

func (RecvEmpty) Error() string { return "airlock: recv: empty" }

// RecvClosed indicates a recv found the channel closed with no committed
// value remaining to drain.
type RecvClosed struct{}

func (RecvClosed) Error() string { return "airlock: recv: closed" }

// SendFull indicates a send-nowait found the channel open but at
// capacity. Value is the rejected value, returned unchanged so the
// caller can recover ownership.
type SendFull[T any] struct {
	Value T
}

func (SendFull[T]) Error() string { return "airlock: send: full" }

// SendClosed indicates a send found the channel already closed. Value is
// the rejected value, returned unchanged so the caller can recover
// ownership.
type SendClosed[T any] struct {
	Value T
}

func (SendClosed[T]) Error() string { return "airlock: send: closed" }

// IsWouldBlock reports whether err is a RecvEmpty or a SendFull of any
// element type — the "try again, nothing is wrong" signals. Any other
// error is classified by [iox.IsWouldBlock], so this
// package's errors sort into the same control-flow bucket as the rest of
// the code.hybscloud.com ecosystem's [iox.ErrWouldBlock]-style sentinels.
func IsWouldBlock(err error) bool {
	switch err.(type) {
	case RecvEmpty:
		return true
	}
	return isSendFull(err) || iox.IsWouldBlock(err)
}

// IsClosed reports whether err is a RecvClosed or a SendClosed of any
// element type.
func IsClosed(err error) bool {
	switch err.(type) {
	case RecvClosed:
		return true
	}
	return isSendClosed(err)
}

// IsSemantic reports whether err is a control flow signal rather than a
// failure: any of RecvEmpty, RecvClosed, SendFull, SendClosed, or
// anything [iox.IsSemantic] already recognizes.
func IsSemantic(err error) bool {
	if err == nil {
		return false
	}
	switch err.(type) {
	case RecvEmpty, RecvClosed:
		return true
	}
	return isSendFull(err) || isSendClosed(err) || iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition:
// nil, or a would-block signal. Delegates to [iox.IsNonFailure] for
// anything this package's own types don't recognize.
func IsNonFailure(err error) bool {
	if err == nil {
		return true
	}
	return IsWouldBlock(err) || iox.IsNonFailure(err)
}

// isSendFull reports whether err is a SendFull[T] for some T, without
// the caller needing to know T.
func isSendFull(err error) bool {
	type fullLike interface{ isSendFull() }
	_, ok := err.(fullLike)
	return ok
}

// isSendClosed reports whether err is a SendClosed[T] for some T,
// without the caller needing to know T.
func isSendClosed(err error) bool {
	type closedLike interface{ isSendClosed() }
	_, ok := err.(closedLike)
	return ok
}

func (SendFull[T]) isSendFull()     {}
func (SendClosed[T]) isSendClosed() {}

// fatalf reports a violated internal invariant: second attachment, seat
// exhaustion, detaching an unoccupied seat, dropping a channel with live
// endpoints, or CAS-ceiling exhaustion. None of these can occur under
// correct use; they indicate a bug and must fail loudly rather than
// corrupt state, so fatalf panics.
func fatalf(format string, args ...any) {
	panic("airlock: " + fmt.Sprintf(format, args...))
}
