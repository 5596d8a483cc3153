// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockheader

import (
	"encoding/binary"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

const (
	cacheSize = 10
)

type cachedBlockID struct {
	blockNumber uint32
	id          protocol.BlockID
}

var cached [cacheSize]cachedBlockID
var cacheIndex int

// IDForBlock - return the id of a specific stored block
//
// block zero has the empty id
func IDForBlock(number uint32) (protocol.BlockID, error) {
	globalData.Lock()
	defer globalData.Unlock()

	if 0 == number {
		return protocol.BlockID{}, nil
	}

	id, ok := idFromCache(number)
	if ok {
		return id, nil
	}

	id, err := genID(number)
	if nil != err {
		return protocol.BlockID{}, err
	}

	add(number, id)
	return id, nil
}

// ClearCache - forget cached ids, needed after blocks are removed
func ClearCache() {
	globalData.Lock()
	clearCache()
	globalData.Unlock()
}

func clearCache() {
	cached = [cacheSize]cachedBlockID{}
	cacheIndex = 0
}

func idFromCache(blockNumber uint32) (protocol.BlockID, bool) {
	for _, c := range cached {
		if 0 != c.blockNumber && c.blockNumber == blockNumber {
			return c.id, true
		}
	}
	return protocol.BlockID{}, false
}

func add(blockNumber uint32, id protocol.BlockID) {
	cached[cacheIndex] = cachedBlockID{
		blockNumber: blockNumber,
		id:          id,
	}
	cacheIndex += 1
	if cacheIndex >= cacheSize {
		cacheIndex = 0
	}
}

func genID(blockNumber uint32) (protocol.BlockID, error) {
	if nil == storage.Pool.Blocks {
		return protocol.BlockID{}, fault.ErrNotInitialised
	}

	n := make([]byte, 4)
	binary.BigEndian.PutUint32(n, blockNumber)

	packed := storage.Pool.Blocks.Get(n)
	if nil == packed {
		return protocol.BlockID{}, fault.ErrBlockNotFound
	}

	header := protocol.SignedBlockHeader{}
	if _, err := protocol.Packed(packed).Unpack(&header); nil != err {
		return protocol.BlockID{}, err
	}
	return header.ID(), nil
}
