// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block

import (
	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// blocks indexed per database batch
const reindexBatchSize = 1000

// rebuild the block id index from the block store
func rebuildIndex(log *logger.L) error {
	log.Warn("rebuilding block index")

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	count := 0
	err = storage.Pool.Blocks.NewFetchCursor().Map(func(key []byte, value []byte) error {
		header := protocol.SignedBlockHeader{}
		if _, err := protocol.Packed(value).Unpack(&header); nil != err {
			return err
		}
		id := header.ID()
		trx.Put(storage.Pool.BlockIndex, id[:], key)

		count += 1
		if 0 == count%reindexBatchSize {
			if err := trx.Commit(); nil != err {
				return err
			}
			log.Debugf("rebuilt index to block: %d", header.BlockNum())
			return trx.Begin()
		}
		return nil
	})
	if nil != err {
		trx.Abort()
		log.Errorf("rebuild index error: %s", err)
		return err
	}

	if err := trx.Commit(); nil != err {
		return err
	}
	log.Infof("rebuilt index of: %d blocks", count)
	return nil
}
