// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock_test

import (
	"testing"

	"code.hybscloud.com/airlock"
	"github.com/google/go-cmp/cmp"
)

// Scenario 1: SPSC drain-after-close.
func TestBufferedDrainAfterClose(t *testing.T) {
	c := airlock.NewBuffered[int](4)
	tx := c.AttachProducer()
	rx := c.AttachConsumer()

	for _, v := range []int{1, 2, 3} {
		if err := tx.SendNoWait(v); err != nil {
			t.Fatalf("SendNoWait(%d): %v", v, err)
		}
	}
	tx.Close()

	for _, want := range []int{1, 2, 3} {
		got, err := rx.RecvNoWait()
		if err != nil {
			t.Fatalf("RecvNoWait: %v", err)
		}
		if got != want {
			t.Fatalf("RecvNoWait: got %d, want %d", got, want)
		}
	}

	if _, err := rx.RecvNoWait(); !airlock.IsClosed(err) {
		t.Fatalf("RecvNoWait after drain: got %v, want RecvClosed", err)
	}
}

// Scenario 2: SPSC full-then-drained, backing buffer of 2 slots (one
// usable slot).
func TestBufferedFullThenDrained(t *testing.T) {
	c := airlock.NewBufferedWith[string](make([]airlock.Slot[string], 2))
	tx := c.AttachProducer()
	rx := c.AttachConsumer()

	if err := tx.SendNoWait("A"); err != nil {
		t.Fatalf("SendNoWait(A): %v", err)
	}
	err := tx.SendNoWait("B")
	full, ok := err.(airlock.SendFull[string])
	if !ok {
		t.Fatalf("SendNoWait(B) while full: got %v, want SendFull[string]", err)
	}
	if full.Value != "B" {
		t.Fatalf("rejected value: got %q, want B", full.Value)
	}

	got, err := rx.RecvNoWait()
	if err != nil || got != "A" {
		t.Fatalf("RecvNoWait: got (%q, %v), want (A, nil)", got, err)
	}

	if err := tx.SendNoWait("B"); err != nil {
		t.Fatalf("SendNoWait(B) after drain: %v", err)
	}
	got, err = rx.RecvNoWait()
	if err != nil || got != "B" {
		t.Fatalf("RecvNoWait: got (%q, %v), want (B, nil)", got, err)
	}
}

func TestBufferedCloseReclaimsUndeliveredValues(t *testing.T) {
	c := airlock.NewBuffered[int](4)
	tx := c.AttachProducer()
	rx := c.AttachConsumer()

	for _, v := range []int{1, 2} {
		if err := tx.SendNoWait(v); err != nil {
			t.Fatalf("SendNoWait(%d): %v", v, err)
		}
	}
	tx.Close()
	rx.Close()

	if drained := c.Close(); drained != 2 {
		t.Fatalf("Close drained: got %d, want 2", drained)
	}
}

func TestBufferedPollRecvWakesOnSend(t *testing.T) {
	c := airlock.NewBuffered[int](2)
	tx := c.AttachProducer()
	rx := c.AttachConsumer()
	w := &countingWaker{}

	if _, err := rx.PollRecv(w); !airlock.IsWouldBlock(err) {
		t.Fatalf("PollRecv on empty: got %v, want RecvEmpty", err)
	}

	if err := tx.SendNoWait(5); err != nil {
		t.Fatalf("SendNoWait(5): %v", err)
	}
	if got := w.woken.Load(); got != 1 {
		t.Fatalf("woken count after send: got %d, want 1", got)
	}
}

// Ordering property: recv returns a full send burst in exactly send
// order, diffed structurally rather than element-by-element.
func TestBufferedDrainOrderMatchesSendOrder(t *testing.T) {
	c := airlock.NewBuffered[int](8)
	tx := c.AttachProducer()
	rx := c.AttachConsumer()

	want := []int{10, 20, 30, 40, 50, 60, 70}
	for _, v := range want {
		if err := tx.SendNoWait(v); err != nil {
			t.Fatalf("SendNoWait(%d): %v", v, err)
		}
	}
	tx.Close()

	var got []int
	for {
		v, err := rx.RecvNoWait()
		if err != nil {
			break
		}
		got = append(got, v)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("drain order mismatch (-want +got):\n%s", diff)
	}
}

func TestBufferedMinimumCapacityEnforced(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewBufferedWith with undersized backing buffer: expected panic")
		}
	}()
	airlock.NewBufferedWith[int](make([]airlock.Slot[int], 1))
}
