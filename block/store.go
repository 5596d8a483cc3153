// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// StoreIncoming - apply a block on top of the head then append it to
// the log
//
// a block that cannot be written is popped so the ledger and the log
// stay at the same height
func StoreIncoming(b *protocol.SignedBlock, skip ledger.Skip) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	if err := globalData.ledger.PushBlock(b, skip); nil != err {
		globalData.log.Warnf("block: %d rejected: %s", b.BlockNum(), err)
		return err
	}
	return storeOrPop(b)
}

// Generate - produce the block for the slot at a time and store it
func Generate(when protocol.Timestamp, witness account.UID, key *keypair.PrivateKey) (*protocol.SignedBlock, error) {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return nil, fault.ErrNotInitialised
	}

	b, err := globalData.ledger.GenerateBlock(when, witness, key, ledger.SkipNothing)
	if nil != err {
		return nil, err
	}
	if err := storeOrPop(b); nil != err {
		return nil, err
	}
	globalData.log.Infof("generated block: %d  transactions: %d  witness: %s", b.BlockNum(), len(b.Transactions), witness)
	return b, nil
}

// internal: must hold lock
func storeOrPop(b *protocol.SignedBlock) error {
	err := store(b)
	if nil == err {
		return nil
	}

	globalData.log.Criticalf("block: %d store error: %s", b.BlockNum(), err)
	if _, perr := globalData.ledger.PopBlock(); nil != perr {
		globalData.log.Criticalf("block: %d cannot be popped: %s", b.BlockNum(), perr)
	}
	return err
}

// write the block and its id index in one batch
func store(b *protocol.SignedBlock) error {
	packed, err := protocol.Pack(b)
	if nil != err {
		return err
	}

	number := b.BlockNum()
	id := b.ID()
	key := numberKey(number)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	trx.Put(storage.Pool.Blocks, key, packed)
	trx.Put(storage.Pool.BlockIndex, id[:], key)
	if err := trx.Commit(); nil != err {
		return err
	}

	blockheader.Set(number, id, b.Timestamp)
	return nil
}
