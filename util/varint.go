// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

// Varint64MaximumBytes - longest encoding of a uint64
const Varint64MaximumBytes = 10

// unsigned LEB128, the packed form of lengths, counts and tags
//
// byte 1:  ext | B06 | B05 | B04 | B03 | B02 | B01 | B00
// byte 2:  ext | B13 | B12 | B11 | B10 | B09 | B08 | B07
// ...
// byte 10:   0 |   0 |   0 |   0 |   0 |   0 |   0 | B63
//
// ext is set on every byte except the last, so a value below 128 is
// a single byte and zero is 0x00

// ToVarint64 - encode a value
func ToVarint64(value uint64) []byte {
	return AppendVarint64(make([]byte, 0, Varint64MaximumBytes), value)
}

// AppendVarint64 - append the encoding of value to a buffer
func AppendVarint64(buffer []byte, value uint64) []byte {
	for value >= 0x80 {
		buffer = append(buffer, byte(value)|0x80)
		value >>= 7
	}
	return append(buffer, byte(value))
}

// FromVarint64 - decode a value from the start of a buffer
//
// also returns the number of bytes used, which is 0 if the buffer is
// truncated or the encoding overflows 64 bits
func FromVarint64(buffer []byte) (uint64, int) {
	result := uint64(0)
	shift := uint(0)
	for i, b := range buffer {
		if Varint64MaximumBytes-1 == i && b > 1 {
			return 0, 0
		}
		result |= uint64(b&0x7f) << shift
		if 0 == b&0x80 {
			return result, i + 1
		}
		if Varint64MaximumBytes-1 == i {
			return 0, 0
		}
		shift += 7
	}
	return 0, 0
}
