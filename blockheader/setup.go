// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockheader

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

// globals for header
type blockData struct {
	sync.RWMutex // to allow locking

	log *logger.L

	height            uint32 // this is the current block Height
	previousBlock     protocol.BlockID // and its id
	previousTimestamp protocol.Timestamp // plus its timestamp

	// set once during initialise
	initialised bool
}

// global data
var globalData blockData

// Initialise - setup the current block data
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("blockheader")
	globalData.log = log
	log.Info("starting…")

	setGenesis(0)

	// all data initialised
	globalData.initialised = true
	return nil
}

// Finalise - shutdown the block header system
func Finalise() error {
	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	// finally...
	globalData.Lock()
	globalData.initialised = false
	clearCache()
	globalData.Unlock()

	globalData.log.Info("finished")
	globalData.log.Flush()
	return nil
}

// SetGenesis - reset the block data to the state before block one
func SetGenesis(timestamp protocol.Timestamp) {
	globalData.Lock()
	setGenesis(timestamp)
	globalData.Unlock()
}

// internal: must hold lock
func setGenesis(timestamp protocol.Timestamp) {
	globalData.height = 0
	globalData.previousBlock = protocol.BlockID{}
	globalData.previousTimestamp = timestamp
	clearCache()
}

// Set - set current header data
func Set(height uint32, id protocol.BlockID, timestamp protocol.Timestamp) {
	globalData.Lock()
	globalData.height = height
	globalData.previousBlock = id
	globalData.previousTimestamp = timestamp
	if 0 != height {
		add(height, id)
	}
	globalData.Unlock()
}

// Get - return all header data
func Get() (uint32, protocol.BlockID, protocol.Timestamp) {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.height, globalData.previousBlock, globalData.previousTimestamp
}

// GetNew - return block data for initialising a new block
// returns: previous block id and the number for the new block
func GetNew() (protocol.BlockID, uint32) {
	globalData.RLock()
	defer globalData.RUnlock()
	nextBlockNumber := globalData.height + 1
	return globalData.previousBlock, nextBlockNumber
}

// Height - return current height
func Height() uint32 {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.height
}
