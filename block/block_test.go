// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block_test

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/mode"
	"github.com/yoyow-org/yoyowd/protocol"
)

func TestGenesisBalancesSurviveReplay(t *testing.T) {
	setup(t)
	defer teardown()

	g := scenarioGenesis(t)
	funded := fundedUIDs(g)
	require.Len(t, funded, fundedAccounts)

	db := openLedger(t, g, false)
	assert.Equal(t, uint32(0), db.HeadBlockNum(), "empty log")
	assert.True(t, mode.Is(mode.Replaying), "mode after open")

	for _, uid := range funded {
		assert.Equal(t, int64(initialBalance), db.Balance(uid, coreAID), "account: %s", uid)
	}
	require.NoError(t, db.CheckInvariants(), "genesis invariants")

	// nothing stored, a re-open gives the same state
	closeAll(t)
	openStorage(t)
	db = openLedger(t, g, false)
	for _, uid := range funded {
		assert.Equal(t, int64(initialBalance), db.Balance(uid, coreAID), "re-open account: %s", uid)
	}

	key := testKey(t)
	generate(t, db, key, 25)
	require.NoError(t, db.CheckInvariants(), "invariants after blocks")

	expected := balances(db, funded)
	headNum := db.HeadBlockNum()
	headID := db.HeadBlockID()
	assert.Equal(t, uint32(25), headNum)
	assert.Equal(t, headNum, block.Height(), "stored height")
	assert.Equal(t, headNum, block.LastStored(), "last stored")

	closeAll(t)
	openStorage(t)
	db = openLedger(t, g, false)

	assert.Equal(t, headNum, db.HeadBlockNum(), "replayed head")
	assert.Equal(t, headID, db.HeadBlockID(), "replayed head id")
	assert.Equal(t, expected, balances(db, funded), "replayed balances")
	require.NoError(t, db.CheckInvariants(), "invariants after replay")

	// plain accounts are never paid or charged by block production
	for _, uid := range funded[initialWitnesses:] {
		assert.Equal(t, int64(initialBalance), db.Balance(uid, coreAID), "account: %s", uid)
	}
}

// a signed transfer referring to the head block
func transfer(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, from account.UID, to account.UID, amount int64) *protocol.SignedTransaction {
	op := &protocol.Transfer{
		From:   from,
		To:     to,
		Amount: protocol.CoreAsset(amount),
	}
	fee, err := protocol.DefaultFeeSchedule().CalculateFee(op)
	require.NoError(t, err, "fee")
	op.FeeBundle = protocol.NewFee(fee)

	tx := &protocol.SignedTransaction{}
	tx.SetReferenceBlock(db.HeadBlockID())
	tx.SetExpiration(db.HeadBlockTime().Add(60))
	tx.Operations = protocol.OperationList{op}
	require.NoError(t, tx.Sign(key, db.ChainID()), "sign")
	return tx
}

func TestTransfersSurviveReplay(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	g := genesis.Local(key.PublicKey(), testTimestamp, initialWitnesses, 100000000000)
	funded := fundedUIDs(g)

	db := openLedger(t, g, false)
	generate(t, db, key, 2)

	for i := 0; i < 5; i += 1 {
		from := genesis.LocalUID(i)
		to := genesis.LocalUID(i + 5)
		_, err := db.PushTransaction(transfer(t, db, key, from, to, int64(1000*(i+1))))
		require.NoError(t, err, "transfer: %d", i)
	}
	generate(t, db, key, 1)

	b, err := block.Get(db.HeadBlockNum())
	require.NoError(t, err, "head block")
	assert.Len(t, b.Transactions, 5, "transactions in block")

	generate(t, db, key, 3)
	require.NoError(t, db.CheckInvariants())

	expected := balances(db, funded)
	assert.NotEqual(t, int64(100000000000), expected[genesis.LocalUID(5)], "received")

	closeAll(t)
	openStorage(t)
	db = openLedger(t, g, false)

	assert.Equal(t, uint32(6), db.HeadBlockNum())
	assert.Equal(t, expected, balances(db, funded), "replayed balances")
	require.NoError(t, db.CheckInvariants())
}

func TestChainIDMismatch(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	db := openLedger(t, genesis.Local(key.PublicKey(), testTimestamp, 3, 1000), false)
	generate(t, db, key, 2)
	closeAll(t)

	openStorage(t)
	other, err := ledger.New(ledger.Options{})
	require.NoError(t, err)
	err = block.Initialise(other, genesis.Local(key.PublicKey(), testTimestamp, 5, 1000), false)
	assert.Equal(t, fault.ErrChainIDMismatch, errors.Cause(err))
}

func TestGetAndFetch(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	db := openLedger(t, genesis.Local(key.PublicKey(), testTimestamp, 3, 1000), false)
	generate(t, db, key, 6)

	b3, err := block.Get(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), b3.BlockNum())

	byID, err := block.GetByID(b3.ID())
	require.NoError(t, err)
	assert.Equal(t, b3.ID(), byID.ID())

	_, err = block.Get(7)
	assert.Equal(t, fault.ErrBlockNotFound, err)
	_, err = block.GetByID(protocol.BlockID{})
	assert.Equal(t, fault.ErrBlockNotFound, err)

	blocks, err := block.Fetch(2, 3)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		assert.Equal(t, uint32(2+i), b.BlockNum(), "fetch: %d", i)
	}
	assert.Equal(t, blocks[0].ID(), blocks[1].Previous, "linked")
}

func TestStoreIncoming(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	g := genesis.Local(key.PublicKey(), testTimestamp, initialWitnesses, 1000)
	db := openLedger(t, g, false)

	// a second node on the same chain produces the blocks
	remote, err := ledger.New(ledger.Options{})
	require.NoError(t, err)
	require.NoError(t, remote.InitGenesis(g))

	for i := 0; i < 4; i += 1 {
		b, err := remote.GenerateBlock(remote.SlotTime(1), remote.ScheduledWitness(1), key, ledger.SkipNothing)
		require.NoError(t, err, "remote: %d", i)
		require.NoError(t, block.StoreIncoming(b, ledger.SkipNothing), "incoming: %d", i)
	}
	assert.Equal(t, remote.HeadBlockID(), db.HeadBlockID())
	assert.Equal(t, uint32(4), block.LastStored())

	// a repeat does not link to the head
	last, err := block.Get(4)
	require.NoError(t, err)
	assert.Error(t, block.StoreIncoming(last, ledger.SkipNothing))
	assert.Equal(t, uint32(4), block.LastStored(), "log unchanged")
	assert.Equal(t, uint32(4), db.HeadBlockNum(), "ledger unchanged")
}

func TestDeleteDownToBlock(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	db := openLedger(t, genesis.Local(key.PublicKey(), testTimestamp, initialWitnesses, 1000), false)
	generate(t, db, key, 12)

	b12, err := block.Get(12)
	require.NoError(t, err)

	assert.Equal(t, fault.ErrCannotPopGenesis, block.DeleteDownToBlock(0))
	require.NoError(t, block.DeleteDownToBlock(11))

	assert.Equal(t, uint32(10), db.HeadBlockNum(), "ledger head")
	assert.Equal(t, uint32(10), block.LastStored(), "log head")
	assert.Equal(t, uint32(10), block.Height(), "header height")

	_, err = block.Get(11)
	assert.Equal(t, fault.ErrBlockNotFound, err)
	_, err = block.GetByID(b12.ID())
	assert.Equal(t, fault.ErrBlockNotFound, err)

	// production resumes on the shorter chain
	generate(t, db, key, 1)
	assert.Equal(t, uint32(11), block.LastStored())
}

func TestReindex(t *testing.T) {
	setup(t)
	defer teardown()

	key := testKey(t)
	g := genesis.Local(key.PublicKey(), testTimestamp, 3, 1000)
	db := openLedger(t, g, false)
	generate(t, db, key, 5)
	b4, err := block.Get(4)
	require.NoError(t, err)
	closeAll(t)

	// lose the index, storage asks for a rebuild
	require.NoError(t, os.RemoveAll(databaseName()+"-index.leveldb"))
	mustReindex := openStorage(t)
	require.True(t, mustReindex, "must reindex")

	db = openLedger(t, g, mustReindex)
	assert.Equal(t, uint32(5), db.HeadBlockNum())

	byID, err := block.GetByID(b4.ID())
	require.NoError(t, err, "rebuilt index")
	assert.Equal(t, uint32(4), byID.BlockNum())
}

func TestNotInitialised(t *testing.T) {
	_, err := block.Generate(testTimestamp, genesis.LocalUID(0), nil)
	assert.Equal(t, fault.ErrNotInitialised, err)
	assert.Equal(t, fault.ErrNotInitialised, block.StoreIncoming(&protocol.SignedBlock{}, ledger.SkipNothing))
	assert.Equal(t, fault.ErrNotInitialised, block.DeleteDownToBlock(1))
	assert.Equal(t, fault.ErrNotInitialised, block.Finalise())
}
