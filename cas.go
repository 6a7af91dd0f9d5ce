// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import "code.hybscloud.com/spin"

// casIterationCeiling bounds every bounded CAS loop in this package. It
// turns a theoretical infinite retry (a sign of memory corruption or a
// state-machine bug) into a diagnosable panic instead of a livelock.
const casIterationCeiling = 1024

// casWord is the subset of an atomix integer type's method set the
// bounded CAS loop needs. atomix.Uint64 and atomix.Uintptr both satisfy
// this for their respective V.
type casWord[V any] interface {
	LoadRelaxed() V
	CompareAndSwapAcqRel(old, new V) bool
}

// casStep is the outcome of one CAS transform: retry with a freshly
// loaded value, commit to a successor, or fail with a caller error.
type casStep[V any] struct {
	kind casStepKind
	next V
}

type casStepKind uint8

const (
	casRetry casStepKind = iota
	casSet
)

// casRetryStep asks casLoop to reload the state word and try again.
func casRetryStep[V any]() casStep[V] {
	return casStep[V]{kind: casRetry}
}

// casSetStep asks casLoop to attempt committing next via CAS.
func casSetStep[V any](next V) casStep[V] {
	return casStep[V]{kind: casSet, next: next}
}

// casLoop repeatedly reads word (or starts from prior, if non-nil),
// evaluates transform against the current value, and either retries,
// attempts a compare-and-swap to the proposed successor, or returns the
// transform's error immediately. It gives up after casIterationCeiling
// attempts, which is process-fatal: exceeding the ceiling means the
// state word is being mutated faster than any bounded algorithm can
// account for, which should never happen under correct use.
func casLoop[V comparable, W casWord[V]](word *W, prior *V, transform func(old V) (casStep[V], error)) (V, error) {
	var old V
	if prior != nil {
		old = *prior
	} else {
		old = (*word).LoadRelaxed()
	}

	sw := spin.Wait{}
	for i := 0; i < casIterationCeiling; i++ {
		step, err := transform(old)
		if err != nil {
			var zero V
			return zero, err
		}

		if step.kind == casRetry {
			old = (*word).LoadRelaxed()
			sw.Once()
			continue
		}

		if (*word).CompareAndSwapAcqRel(old, step.next) {
			return step.next, nil
		}

		old = (*word).LoadRelaxed()
		sw.Once()
	}

	fatalf("CAS loop exceeded %d iterations; state word is corrupt or under pathological contention", casIterationCeiling)
	panic("unreachable")
}
