// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

import "testing"

func TestFlagBitRoundTrip(t *testing.T) {
	var word uint64
	for pos := uint8(0); pos < 4; pos++ {
		if flagBit(word, pos) {
			t.Fatalf("flagBit(%d) on zero word: got true", pos)
		}
	}

	word = setFlag(word, 2)
	if !flagBit(word, 2) {
		t.Fatalf("flagBit(2) after setFlag(2): got false")
	}
	if flagBit(word, 1) || flagBit(word, 3) {
		t.Fatalf("setFlag(2) leaked into neighboring bits: word=%064b", word)
	}

	word = clearFlag(word, 2)
	if flagBit(word, 2) {
		t.Fatalf("flagBit(2) after clearFlag(2): got true")
	}
}

func TestPackUnpackDisjointFields(t *testing.T) {
	var word uint64
	word = pack(word, 0b101, 0, 3)
	word = pack(word, 0b11, 3, 2)
	word = pack(word, 0b1, 5, 1)

	if got := unpack(word, 0, 3); got != 0b101 {
		t.Fatalf("field [0,3): got %b, want %b", got, 0b101)
	}
	if got := unpack(word, 3, 2); got != 0b11 {
		t.Fatalf("field [3,5): got %b, want %b", got, 0b11)
	}
	if got := unpack(word, 5, 1); got != 0b1 {
		t.Fatalf("field [5,6): got %b, want %b", got, 0b1)
	}
}

func TestPackOverwriteDoesNotDisturbOtherFields(t *testing.T) {
	word := pack(pack(uint64(0), 7, 0, 4), 2, 4, 4)
	word = pack(word, 0, 0, 4)
	if got := unpack(word, 4, 4); got != 2 {
		t.Fatalf("unrelated field disturbed by overwrite: got %d, want 2", got)
	}
	if got := unpack(word, 0, 4); got != 0 {
		t.Fatalf("overwritten field: got %d, want 0", got)
	}
}

func TestPackTruncatesToFieldWidth(t *testing.T) {
	word := pack(uint64(0), 0xFF, 0, 4)
	if got := unpack(word, 0, 4); got != 0xF {
		t.Fatalf("pack did not truncate to field width: got %x, want %x", got, 0xF)
	}
}

func TestFieldMaskFullWidth(t *testing.T) {
	if got := fieldMask(64); got != ^uint64(0) {
		t.Fatalf("fieldMask(64): got %x, want all-ones", got)
	}
}
