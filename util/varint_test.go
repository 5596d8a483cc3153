// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/util"
)

var varint64Tests = []struct {
	value   uint64
	encoded []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{300, []byte{0xac, 0x02}},
	{16383, []byte{0xff, 0x7f}},
	{16384, []byte{0x80, 0x80, 0x01}},
	{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	{0x7fffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
	{0x8000000000000000, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
	{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
}

var varint64InvalidTests = [][]byte{
	{},
	{0x80},
	{0xff},
	{0x80, 0x80},
	{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	// overflow in the tenth byte
	{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02},
	// eleven bytes
	{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00},
}

func TestToVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		assert.Equal(t, item.encoded, util.ToVarint64(item.value), "%d: value: %x", i, item.value)
		assert.Equal(t, append([]byte{0xaa}, item.encoded...), util.AppendVarint64([]byte{0xaa}, item.value), "%d: append", i)
	}
}

func TestFromVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		value, n := util.FromVarint64(item.encoded)
		assert.Equal(t, item.value, value, "%d: value", i)
		assert.Equal(t, len(item.encoded), n, "%d: count", i)

		// trailing data is left alone
		suffix := []byte{0xff, 0x97, 0x23}
		b := append(append([]byte{}, item.encoded...), suffix...)
		value, n = util.FromVarint64(b)
		assert.Equal(t, item.value, value, "%d: value with suffix", i)
		assert.Equal(t, suffix, b[n:], "%d: suffix", i)
	}

	for i, item := range varint64InvalidTests {
		value, n := util.FromVarint64(item)
		assert.Equal(t, uint64(0), value, "%d: %x", i, item)
		assert.Equal(t, 0, n, "%d: %x", i, item)
	}
}
