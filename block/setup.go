// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/mode"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// metadata key of the genesis chain id
var chainIDKey = []byte("chain-id")

// globals for background proccess
type blockData struct {
	sync.RWMutex // to allow locking

	log *logger.L

	ledger *ledger.Database

	// set once during initialise
	initialised bool
}

// global data
var globalData blockData

// Initialise - build the genesis state and replay the stored blocks
//
// storage must already be open, mustReindex is the value returned by
// storage.Initialise
func Initialise(db *ledger.Database, g *genesis.State, mustReindex bool) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("block")
	if nil == log {
		return fault.ErrInvalidLoggerChannel
	}
	globalData.log = log
	log.Info("starting…")

	// check storage is initialised
	if nil == storage.Pool.Blocks {
		log.Critical("storage pool is not initialised")
		return fault.ErrNotInitialised
	}

	if err := db.InitGenesis(g); nil != err {
		log.Criticalf("genesis error: %s", err)
		return err
	}
	globalData.ledger = db

	if mustReindex {
		if err := rebuildIndex(log); nil != err {
			return err
		}
	}

	if err := checkChainID(log, db.ChainID()); nil != err {
		return err
	}

	blockheader.SetGenesis(db.HeadBlockTime())

	mode.Set(mode.Replaying)
	if err := replay(log); nil != err {
		return err
	}

	log.Infof("block height: %d", db.HeadBlockNum())
	log.Infof("head block: %s", db.HeadBlockID())

	// all data initialised
	globalData.initialised = true
	return nil
}

// Finalise - shutdown the block system
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	// finally...
	globalData.initialised = false
	globalData.ledger = nil

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// a log written for one chain cannot be replayed on another
func checkChainID(log *logger.L, chainID protocol.ChainID) error {
	stored := storage.Pool.Metadata.Get(chainIDKey)
	if nil != stored {
		if !bytes.Equal(stored, chainID[:]) {
			log.Criticalf("chain id: %x  does not match stored: %x", chainID, stored)
			return errors.Wrapf(fault.ErrChainIDMismatch, "chain id: %s", chainID)
		}
		return nil
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Put(storage.Pool.Metadata, chainIDKey, chainID[:])
	if err := trx.Commit(); nil != err {
		return err
	}
	log.Infof("stored chain id: %s", chainID)
	return nil
}

// push every stored block in sequence
//
// a block that cannot be applied truncates the log at that point
func replay(log *logger.L) error {
	db := globalData.ledger
	start := time.Now()

	expected := uint32(1)
	err := storage.Pool.Blocks.NewFetchCursor().Map(func(key []byte, value []byte) error {
		b, err := unpackBlock(key, value)
		if nil != err {
			return err
		}
		if expected != b.BlockNum() {
			return errors.Wrapf(fault.ErrBlockOutOfSequence, "block: %d  expected: %d", b.BlockNum(), expected)
		}
		if err := db.PushBlock(b, ledger.SkipReplay); nil != err {
			return err
		}
		blockheader.Set(b.BlockNum(), b.ID(), b.Timestamp)

		if 0 == expected%10000 {
			log.Infof("replayed block: %d", expected)
		}
		expected += 1
		return nil
	})

	if nil != err {
		log.Errorf("replay stopped at block: %d  error: %s", expected, err)
		if err := deleteFrom(expected); nil != err {
			log.Criticalf("cannot truncate block log: %s", err)
			return err
		}
	}

	log.Infof("replayed: %d blocks in: %s", expected-1, time.Since(start))
	return nil
}

// decode a stored block and check it is under its own number
func unpackBlock(key []byte, packed []byte) (*protocol.SignedBlock, error) {
	if 4 != len(key) {
		return nil, errors.Wrapf(fault.ErrBlockLogCorrupt, "key length: %d", len(key))
	}
	b := &protocol.SignedBlock{}
	if err := protocol.Packed(packed).UnpackAll(b); nil != err {
		return nil, errors.Wrapf(fault.ErrBlockLogCorrupt, "block: %d: %s", binary.BigEndian.Uint32(key), err)
	}
	if n := binary.BigEndian.Uint32(key); n != b.BlockNum() {
		return nil, errors.Wrapf(fault.ErrBlockLogCorrupt, "block: %d stored as: %d", b.BlockNum(), n)
	}
	return b, nil
}

// blocks are keyed by big endian number so the log iterates in order
func numberKey(number uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, number)
	return key
}
