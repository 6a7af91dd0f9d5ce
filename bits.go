// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package airlock

// Pure bit-packing helpers over a uint64 state word. Every channel state
// word in this package is built out of these functions, mirroring
// the Rust original's utils::bits module (pack/unpack/flag over a
// generic unsigned integer): for any sequence of pack calls over
// disjoint (start, len) fields, unpacking one field never observes a
// write to a different field.

// flagBit reports whether bit pos is set in word.
func flagBit(word uint64, pos uint8) bool {
	return word&(uint64(1)<<pos) != 0
}

// setFlag returns word with bit pos forced to 1.
func setFlag(word uint64, pos uint8) uint64 {
	return word | (uint64(1) << pos)
}

// clearFlag returns word with bit pos forced to 0.
func clearFlag(word uint64, pos uint8) uint64 {
	return word &^ (uint64(1) << pos)
}

// fieldMask returns a len-bit mask of ones.
func fieldMask(length uint8) uint64 {
	if length >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << length) - 1
}

// unpack reads the len-bit field starting at bit start out of word.
func unpack(word uint64, start, length uint8) uint64 {
	return (word >> start) & fieldMask(length)
}

// pack returns word with the len-bit field starting at bit start replaced
// by value (truncated to length bits); all other bits are unchanged.
func pack(word uint64, value uint64, start, length uint8) uint64 {
	mask := fieldMask(length) << start
	return (word &^ mask) | ((value << start) & mask)
}
