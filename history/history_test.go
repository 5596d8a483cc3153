// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/history"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

func TestImpactedAccounts(t *testing.T) {
	op := &protocol.Transfer{
		From:   account.UID(25997),
		To:     account.UID(25638),
		Amount: protocol.CoreAsset(10),
	}
	assert.Equal(t, []account.UID{25997, 25638}, history.ImpactedAccounts(op), "payer first")

	self := &protocol.Transfer{
		From: account.UID(25997),
		To:   account.UID(25997),
	}
	assert.Equal(t, []account.UID{25997}, history.ImpactedAccounts(self), "once only")

	assert.Nil(t, history.ImpactedAccounts(nil))
}

// block number n carrying one transfer per amount
func appliedBlock(n uint32, from account.UID, to account.UID, amounts ...int64) (*protocol.SignedBlock, []ledger.OperationHistory) {
	b := &protocol.SignedBlock{}
	b.Previous[3] = byte(n - 1)

	ops := make([]ledger.OperationHistory, 0, len(amounts))
	for i, a := range amounts {
		ops = append(ops, ledger.OperationHistory{
			BlockNum:   n,
			TrxInBlock: uint16(i),
			Op: &protocol.Transfer{
				From:   from,
				To:     to,
				Amount: protocol.CoreAsset(a),
			},
		})
	}
	return b, ops
}

func amountOf(e history.Entry) int64 {
	return e.Op.(*protocol.Transfer).Amount.Amount
}

func TestCapAndOrder(t *testing.T) {
	x := history.New(3)

	alice := account.UID(25997)
	bob := account.UID(25638)

	x.AppliedBlock(appliedBlock(1, alice, bob, 1, 2))
	x.AppliedBlock(appliedBlock(2, alice, bob, 3, 4, 5))

	assert.Equal(t, uint64(5), x.Count(alice))
	assert.Equal(t, uint64(5), x.Count(bob))
	assert.Equal(t, uint64(5), x.Operations())

	entries := x.Get(alice, 1000, 10)
	require.Len(t, entries, 3, "capped")
	assert.Equal(t, []int64{5, 4, 3}, []int64{amountOf(entries[0]), amountOf(entries[1]), amountOf(entries[2])})
	assert.Equal(t, uint64(4), entries[0].Sequence)

	entries = x.Get(bob, 3, 10)
	require.Len(t, entries, 2, "from sequence")
	assert.Equal(t, int64(4), amountOf(entries[0]))

	assert.Empty(t, x.Get(bob, 1, 10), "dropped by cap")
	assert.Empty(t, x.Get(account.UID(1234), 0, 10), "unknown")
	assert.Len(t, x.Get(alice, 1000, 1), 1, "limit")
}

func TestReappliedBlockReplaces(t *testing.T) {
	x := history.New(10)

	alice := account.UID(25997)
	bob := account.UID(25638)

	x.AppliedBlock(appliedBlock(1, alice, bob, 1))
	x.AppliedBlock(appliedBlock(2, alice, bob, 2, 3))

	// a different block 2 after a pop
	x.AppliedBlock(appliedBlock(2, alice, bob, 7))

	assert.Equal(t, uint64(2), x.Count(alice))
	entries := x.Get(alice, 1000, 10)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(7), amountOf(entries[0]))
	assert.Equal(t, int64(1), amountOf(entries[1]))
}

func TestLedgerSignals(t *testing.T) {
	x := history.New(history.DefaultMaxOpsPerAccount)
	db, key := newLedger(t, x)

	from := genesis.LocalUID(0)
	to := genesis.LocalUID(1)

	generate(t, db, key)
	transfer(t, db, key, from, to, 12345)
	b := generate(t, db, key)

	entries := x.Get(to, 1000, 10)
	require.NotEmpty(t, entries, "receiver history")

	found := false
	for _, e := range entries {
		if op, ok := e.Op.(*protocol.Transfer); ok {
			assert.Equal(t, b.BlockNum(), e.BlockNum)
			assert.Equal(t, int64(12345), op.Amount.Amount)
			found = true
		}
	}
	assert.True(t, found, "transfer recorded")
	assert.True(t, x.Count(from) >= 1, "sender history")
}
