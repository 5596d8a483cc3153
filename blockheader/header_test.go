// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockheader_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

func makeID(n uint32) protocol.BlockID {
	id := protocol.BlockID{
		0x00, 0x00, 0x00, 0x00, 0x54, 0x2b, 0xa1, 0x54,
		0x14, 0x46, 0x74, 0x29, 0x1d, 0x29, 0x1d, 0x29,
		0x2b, 0xa1, 0x2b, 0xa1,
	}
	binary.BigEndian.PutUint32(id[:4], n)
	return id
}

func TestHeader(t *testing.T) {
	setup(t)
	defer teardown(t)

	height, id, timestamp := blockheader.Get()
	assert.Equal(t, uint32(0), height, "genesis height")
	assert.True(t, id.IsZero(), "genesis id")
	assert.Equal(t, protocol.Timestamp(0), timestamp)

	someHeight := uint32(1234567)
	someID := makeID(someHeight)
	someTimestamp := protocol.Timestamp(1546300800)

	blockheader.Set(someHeight, someID, someTimestamp)

	height, id, timestamp = blockheader.Get()
	assert.Equal(t, someHeight, height, "height")
	assert.Equal(t, someID, id, "id")
	assert.Equal(t, someTimestamp, timestamp, "timestamp")

	previous, next := blockheader.GetNew()
	assert.Equal(t, someID, previous, "previous")
	assert.Equal(t, someHeight+1, next, "next")

	assert.Equal(t, someHeight, blockheader.Height())

	blockheader.SetGenesis(someTimestamp)
	assert.Equal(t, uint32(0), blockheader.Height(), "reset")
}

func TestIDForBlock(t *testing.T) {
	setup(t)
	defer teardown(t)

	id, err := blockheader.IDForBlock(0)
	assert.NoError(t, err, "block zero")
	assert.True(t, id.IsZero(), "block zero")

	for n := uint32(1); n <= 5; n += 1 {
		blockheader.Set(n, makeID(n), protocol.Timestamp(1546300800+3*n))
	}

	for n := uint32(1); n <= 5; n += 1 {
		id, err := blockheader.IDForBlock(n)
		assert.NoError(t, err, "block: %d", n)
		assert.Equal(t, makeID(n), id, "block: %d", n)
	}

	// not cached and no storage open
	blockheader.ClearCache()
	_, err = blockheader.IDForBlock(3)
	assert.Equal(t, fault.ErrNotInitialised, err)
}
