// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import (
	"errors"
	"testing"

	"code.hybscloud.com/atomix"
)

func TestCasLoopCommitsOnSuccess(t *testing.T) {
	var word atomix.Uint64
	got, err := casLoop(&word, nil, func(old uint64) (casStep[uint64], error) {
		return casSetStep(old + 1), nil
	})
	if err != nil {
		t.Fatalf("casLoop: unexpected error %v", err)
	}
	if got != 1 {
		t.Fatalf("casLoop result: got %d, want 1", got)
	}
	if word.LoadAcquire() != 1 {
		t.Fatalf("word after casLoop: got %d, want 1", word.LoadAcquire())
	}
}

func TestCasLoopPropagatesTransformError(t *testing.T) {
	var word atomix.Uint64
	sentinel := errors.New("boom")
	_, err := casLoop(&word, nil, func(old uint64) (casStep[uint64], error) {
		return casStep[uint64]{}, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("casLoop error: got %v, want %v", err, sentinel)
	}
	if word.LoadAcquire() != 0 {
		t.Fatalf("word mutated despite transform error: got %d", word.LoadAcquire())
	}
}

func TestCasLoopRetriesUntilObservingExternalChange(t *testing.T) {
	var word atomix.Uint64
	word.StoreRelease(5)
	stalePrior := uint64(999)

	attempts := 0
	got, err := casLoop(&word, &stalePrior, func(old uint64) (casStep[uint64], error) {
		attempts++
		if old != 5 {
			return casRetryStep[uint64](), nil
		}
		return casSetStep(old + 1), nil
	})
	if err != nil {
		t.Fatalf("casLoop: unexpected error %v", err)
	}
	if got != 6 {
		t.Fatalf("casLoop result: got %d, want 6", got)
	}
	if attempts != 2 {
		t.Fatalf("attempts: got %d, want 2 (stale prior forces one retry)", attempts)
	}
}

func TestCasLoopExhaustionPanics(t *testing.T) {
	var word atomix.Uint64

	defer func() {
		if recover() == nil {
			t.Fatalf("casLoop: expected panic on ceiling exhaustion")
		}
	}()

	_, _ = casLoop(&word, nil, func(old uint64) (casStep[uint64], error) {
		return casRetryStep[uint64](), nil
	})
}
