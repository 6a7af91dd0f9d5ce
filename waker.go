// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Waker is the minimal contract a cooperative task scheduler must
// satisfy to receive wake-on-readiness notifications from a channel.
// Wake is expected to be cheap; the channel never calls Wake more than
// once per registration, but the scheduler must still tolerate spurious
// wakeups (there is no promise a wakeup means progress is possible).
type Waker interface {
	Wake()
}

// WakerCell is a single-slot atomic notification cell: it holds at most
// one registered Waker and fires it exactly once. Register and Wake are
// safe to call concurrently; whichever order they race in, the current
// waker (if any) ends up invoked. No ordering beyond that single-slot
// guarantee is promised — concurrent registrations clobber each other,
// and the scheduler is expected to cope with spurious wakeups.
//
// The handle is stored behind a [sync/atomic.Pointer], not an
// atomix.Uintptr boxing trick: the teacher's own pointer-queue variants
// (mpmc_compact.go, mpsc_compact.go, spmc_compact.go) use atomix.Uintptr
// only for values that are genuinely uintptr-shaped (caller-owned
// integers or pointers kept alive elsewhere), and spsc.go's SPSCPtr
// stores unsafe.Pointer elements directly in a GC-visible []unsafe.Pointer
// slice rather than round-tripping them through a bare uintptr. Boxing a
// solely-owned *Waker into a uintptr would leave it with no GC-visible
// reference between Register and Wake, making it eligible for collection
// while still "live" in the cell. atomic.Pointer keeps the pointer
// GC-visible the whole time, which is the one correctness requirement
// atomix.Uintptr cannot offer here.
type WakerCell struct {
	ptr atomic.Pointer[Waker]
}

// Register stores w, replacing any previously registered waker. The
// replaced waker (if any) is discarded without being woken.
func (c *WakerCell) Register(w Waker) {
	c.ptr.Store(&w)
}

// Wake takes the currently registered waker, if any, and invokes Wake on
// it exactly once. It is a no-op if no waker is registered.
func (c *WakerCell) Wake() {
	old := c.ptr.Load()
	if old == nil {
		return
	}

	sw := spin.Wait{}
	for i := 0; i < casIterationCeiling; i++ {
		if old == nil {
			return
		}
		if c.ptr.CompareAndSwap(old, nil) {
			(*old).Wake()
			return
		}
		old = c.ptr.Load()
		sw.Once()
	}

	fatalf("waker cell CAS exceeded %d iterations", casIterationCeiling)
}
