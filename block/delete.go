// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// DeleteDownToBlock - delete from current highest block down to and
// including the specified block
//
// the ledger pops each block, so blocks at or below the last
// irreversible block cannot be deleted
func DeleteDownToBlock(finalBlockNumber uint32) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}
	if 0 == finalBlockNumber {
		return fault.ErrCannotPopGenesis
	}

	log := globalData.log
	db := globalData.ledger

	log.Infof("delete down to block: %d", finalBlockNumber)

	for db.HeadBlockNum() >= finalBlockNumber {
		head := db.HeadBlockNum()
		if _, err := db.PopBlock(); nil != err {
			log.Errorf("pop block: %d  error: %s", head, err)
			return err
		}
		log.Infof("popped block: %d", head)
	}

	if err := deleteFrom(finalBlockNumber); nil != err {
		return err
	}

	if 0 == db.HeadBlockNum() {
		blockheader.SetGenesis(db.HeadBlockTime())
	} else {
		blockheader.Set(db.HeadBlockNum(), db.HeadBlockID(), db.HeadBlockTime())
	}
	return nil
}

// remove stored blocks from a number to the end of the log
func deleteFrom(number uint32) error {
	keys := [][]byte{}
	ids := []protocol.BlockID{}

	err := storage.Pool.Blocks.NewFetchCursor().Seek(numberKey(number)).Map(func(key []byte, value []byte) error {
		keys = append(keys, key)
		header := protocol.SignedBlockHeader{}
		if _, err := protocol.Packed(value).Unpack(&header); nil == err {
			ids = append(ids, header.ID())
		}
		return nil
	})
	if nil != err {
		return err
	}
	if 0 == len(keys) {
		return nil
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	for _, key := range keys {
		trx.Delete(storage.Pool.Blocks, key)
	}
	for _, id := range ids {
		trx.Delete(storage.Pool.BlockIndex, id[:])
	}
	if err := trx.Commit(); nil != err {
		return errors.Wrapf(err, "delete from block: %d", number)
	}

	blockheader.ClearCache()
	if nil != globalData.log {
		globalData.log.Warnf("deleted: %d blocks from: %d", len(keys), number)
	}
	return nil
}
