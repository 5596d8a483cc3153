// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"encoding/binary"

	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// Get - a stored block by number
func Get(number uint32) (*protocol.SignedBlock, error) {
	if nil == storage.Pool.Blocks {
		return nil, fault.ErrNotInitialised
	}
	key := numberKey(number)
	packed := storage.Pool.Blocks.Get(key)
	if nil == packed {
		return nil, fault.ErrBlockNotFound
	}
	return unpackBlock(key, packed)
}

// GetByID - a stored block by its id
func GetByID(id protocol.BlockID) (*protocol.SignedBlock, error) {
	if nil == storage.Pool.BlockIndex {
		return nil, fault.ErrNotInitialised
	}
	key := storage.Pool.BlockIndex.Get(id[:])
	if 4 != len(key) {
		return nil, fault.ErrBlockNotFound
	}
	return Get(binary.BigEndian.Uint32(key))
}

// Fetch - up to count stored blocks from a number onwards
func Fetch(start uint32, count int) ([]*protocol.SignedBlock, error) {
	if nil == storage.Pool.Blocks {
		return nil, fault.ErrNotInitialised
	}
	elements, err := storage.Pool.Blocks.NewFetchCursor().Seek(numberKey(start)).Fetch(count)
	if nil != err {
		return nil, err
	}
	blocks := make([]*protocol.SignedBlock, 0, len(elements))
	for _, e := range elements {
		b, err := unpackBlock(e.Key, e.Value)
		if nil != err {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Height - number of the last stored block
func Height() uint32 {
	return blockheader.Height()
}

// LastStored - number of the highest block in the log, zero when the
// log is empty
func LastStored() uint32 {
	if nil == storage.Pool.Blocks {
		return 0
	}
	last, found := storage.Pool.Blocks.LastElement()
	if !found || 4 != len(last.Key) {
		return 0
	}
	return binary.BigEndian.Uint32(last.Key)
}
