// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

var coreAsset = protocol.AssetAID(constants.CoreAssetAID)

func TestGenesis(t *testing.T) {
	db, key := newLedger(t)

	assert.Equal(t, uint32(0), db.HeadBlockNum(), "head")
	assert.Equal(t, uint32(0), db.LastIrreversibleBlockNum(), "irreversible")
	assert.Equal(t, testTimestamp, db.HeadBlockTime(), "time")

	g := genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance)
	assert.Equal(t, g.ChainID(), db.ChainID(), "chain id")

	for i := 0; i < testWitnesses; i += 1 {
		uid := genesis.LocalUID(i)
		assert.Equal(t, testBalance, db.Balance(uid, coreAsset), "balance: %s", uid)
		w := db.Witness(uid)
		require.NotNil(t, w, "witness: %s", uid)
		assert.Equal(t, key.PublicKey(), w.SigningKey, "signing key: %s", uid)
	}
	assert.Len(t, db.ShuffledWitnesses(), testWitnesses, "schedule")
	assert.NoError(t, db.CheckInvariants())
}

func TestGenesisTwice(t *testing.T) {
	db, key := newLedger(t)
	err := db.InitGenesis(genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance))
	assert.Equal(t, fault.ErrAlreadyInitialised, err)
}

func TestGenerateAndPop(t *testing.T) {
	db, key := newLedger(t)

	b := generate(t, db, key)
	assert.Equal(t, uint32(1), b.BlockNum(), "block number")
	assert.Equal(t, uint32(1), db.HeadBlockNum(), "head")
	assert.Equal(t, b.ID(), db.HeadBlockID(), "head id")
	assert.Equal(t, b.Timestamp, db.HeadBlockTime(), "head time")

	cached, ok := db.BlockByNum(1)
	require.True(t, ok, "cached")
	assert.Equal(t, b.ID(), cached.ID())

	popped, err := db.PopBlock()
	require.NoError(t, err, "pop")
	require.NotNil(t, popped)
	assert.Equal(t, b.ID(), popped.ID())
	assert.Equal(t, uint32(0), db.HeadBlockNum(), "head after pop")

	_, err = db.PopBlock()
	assert.Equal(t, fault.ErrCannotPopGenesis, errors.Cause(err))
	assert.NoError(t, db.CheckInvariants())
}

func TestTransfer(t *testing.T) {
	db, key := newLedger(t)
	from := genesis.LocalUID(0)
	to := genesis.LocalUID(1)

	generate(t, db, key)

	tx := makeTransfer(t, db, key, from, to, 12345)
	ptx, err := db.PushTransaction(tx)
	require.NoError(t, err, "push")
	assert.Equal(t, tx.ID(), ptx.ID())
	assert.Len(t, ptx.OperationResults, 1, "results")
	assert.Len(t, db.PendingTransactions(), 1, "pending")

	// pending state is visible
	assert.Equal(t, testBalance+12345, db.Balance(to, coreAsset), "receiver")
	assert.LessOrEqual(t, db.Balance(from, coreAsset), testBalance-12345, "sender")

	_, err = db.PushTransaction(tx)
	assert.Equal(t, fault.ErrDuplicateTransaction, errors.Cause(err), "duplicate")

	b := generate(t, db, key)
	require.Len(t, b.Transactions, 1, "block transactions")
	assert.Equal(t, tx.ID(), b.Transactions[0].ID())
	assert.Empty(t, db.PendingTransactions(), "pending after block")
	assert.Equal(t, testBalance+12345, db.Balance(to, coreAsset), "receiver after block")

	assert.NoError(t, db.CheckInvariants())
}

func TestInsufficientBalance(t *testing.T) {
	db, key := newLedger(t)
	generate(t, db, key)

	tx := makeTransfer(t, db, key, genesis.LocalUID(0), genesis.LocalUID(1), testBalance*2)
	_, err := db.PushTransaction(tx)
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err))
	assert.Empty(t, db.PendingTransactions())
	assert.Equal(t, testBalance, db.Balance(genesis.LocalUID(1), coreAsset))
}

func TestPopRestoresPending(t *testing.T) {
	db, key := newLedger(t)
	generate(t, db, key)

	tx := makeTransfer(t, db, key, genesis.LocalUID(2), genesis.LocalUID(0), 500)
	_, err := db.PushTransaction(tx)
	require.NoError(t, err, "push")
	generate(t, db, key)
	require.Empty(t, db.PendingTransactions())

	_, err = db.PopBlock()
	require.NoError(t, err, "pop")

	pending := db.PendingTransactions()
	require.Len(t, pending, 1, "pending after pop")
	assert.Equal(t, tx.ID(), pending[0].ID())
	assert.Equal(t, testBalance+500, db.Balance(genesis.LocalUID(0), coreAsset))

	db.ClearPending()
	assert.Empty(t, db.PendingTransactions())
	assert.Equal(t, testBalance, db.Balance(genesis.LocalUID(0), coreAsset))
}

func TestReplayOnSecondLedger(t *testing.T) {
	producer, key := newLedger(t)
	follower, _ := newLedger(t)

	generate(t, producer, key)
	_, err := producer.PushTransaction(makeTransfer(t, producer, key, genesis.LocalUID(0), genesis.LocalUID(2), 777))
	require.NoError(t, err, "push")

	for i := 0; i < 5; i += 1 {
		generate(t, producer, key)
	}

	for n := uint32(1); n <= producer.HeadBlockNum(); n += 1 {
		b, ok := producer.BlockByNum(n)
		require.True(t, ok, "block: %d", n)
		require.NoError(t, follower.PushBlock(b, ledger.SkipNothing), "block: %d", n)
	}

	assert.Equal(t, producer.HeadBlockID(), follower.HeadBlockID(), "head id")
	assert.Equal(t, producer.Balance(genesis.LocalUID(2), coreAsset), follower.Balance(genesis.LocalUID(2), coreAsset))
	assert.NoError(t, follower.CheckInvariants())
}

func TestUnlinkableBlock(t *testing.T) {
	producer, key := newLedger(t)
	follower, _ := newLedger(t)

	generate(t, producer, key)
	b := generate(t, producer, key)

	err := follower.PushBlock(b, ledger.SkipNothing)
	assert.Equal(t, fault.ErrUnlinkableBlock, errors.Cause(err))
	assert.Equal(t, uint32(0), follower.HeadBlockNum())
}

func TestTamperedBlock(t *testing.T) {
	producer, key := newLedger(t)
	follower, _ := newLedger(t)

	b := generate(t, producer, key)
	bad := *b
	bad.Timestamp += 1

	err := follower.PushBlock(&bad, ledger.SkipNothing)
	assert.Error(t, err)
	assert.Equal(t, uint32(0), follower.HeadBlockNum())
}

func TestIrreversibleAdvances(t *testing.T) {
	db, key := newLedger(t)

	for i := 0; i < 4*testWitnesses; i += 1 {
		generate(t, db, key)
	}
	lib := db.LastIrreversibleBlockNum()
	assert.Greater(t, lib, uint32(0), "irreversible")
	assert.LessOrEqual(t, lib, db.HeadBlockNum())
	assert.Equal(t, uint32(10000), db.ParticipationRate(), "every slot filled")

	// irreversible blocks cannot be popped
	for db.HeadBlockNum() > lib {
		_, err := db.PopBlock()
		require.NoError(t, err)
	}
	_, err := db.PopBlock()
	assert.Equal(t, fault.ErrPopEmptyChain, errors.Cause(err))
}

func TestSlots(t *testing.T) {
	db, key := newLedger(t)

	first := db.SlotTime(1)
	assert.Greater(t, uint32(first), uint32(db.HeadBlockTime()), "first slot after head")
	assert.Equal(t, uint32(1), db.SlotAtTime(first))
	assert.Equal(t, uint32(0), db.SlotAtTime(db.HeadBlockTime()), "head time is not a new slot")

	// skip one slot: the missed witness lowers participation
	b, err := db.GenerateBlock(db.SlotTime(2), db.ScheduledWitness(2), key, ledger.SkipNothing)
	require.NoError(t, err, "generate")
	assert.Equal(t, db.HeadBlockTime(), b.Timestamp)
	assert.Less(t, db.ParticipationRate(), uint32(10000))

	_, err = db.GenerateBlock(db.SlotTime(1), db.ScheduledWitness(1)+1, key, ledger.SkipNothing)
	assert.Equal(t, fault.ErrWrongBlockWitness, errors.Cause(err))
}
