// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"time"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/cache"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

// StoreTransaction - apply a transaction to the pending state
//
// a transaction seen recently is a duplicate, one rejected recently
// fails again without being re-evaluated
func StoreTransaction(tx *protocol.SignedTransaction) (*protocol.ProcessedTransaction, error) {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return nil, fault.ErrNotInitialised
	}
	if !globalData.enabled {
		return nil, fault.ErrReservoirDisabled
	}
	if nil == cache.Pool.KnownTransactions {
		return nil, fault.ErrNotInitialised
	}

	return storeTransaction(tx)
}

// internal: must hold lock
func storeTransaction(tx *protocol.SignedTransaction) (*protocol.ProcessedTransaction, error) {
	id := tx.ID()
	key := id.String()

	if reason, found := cache.Pool.RejectedTransactions.Get(key); found {
		return nil, errors.Wrapf(fault.ErrTransactionRejected, "transaction: %s: %s", id, reason)
	}
	if _, found := cache.Pool.KnownTransactions.Get(key); found {
		return nil, errors.Wrapf(fault.ErrDuplicateTransaction, "transaction: %s", id)
	}

	ptx, err := globalData.ledger.PushTransaction(tx)
	if nil != err {
		globalData.log.Debugf("transaction: %s rejected: %s", id, err)
		cache.Pool.RejectedTransactions.Put(key, err.Error())
		return nil, err
	}

	cache.Pool.KnownTransactions.Put(key, time.Now())
	globalData.log.Debugf("transaction: %s accepted", id)
	return ptx, nil
}
