// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package noncons_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/noncons"
	"github.com/yoyow-org/yoyowd/protocol"
)

func TestBallots(t *testing.T) {
	x := noncons.New()

	creator := account.UID(25997)
	key := noncons.VoteKey{Creator: creator, VID: 1}

	x.UpdateNonConsensusIndex([]protocol.Operation{
		&protocol.CustomVoteCast{Voter: 30001, CustomVoteCreator: creator, CustomVoteVID: 1, VoteResult: []uint8{0, 2}},
		&protocol.CustomVoteCast{Voter: 30002, CustomVoteCreator: creator, CustomVoteVID: 1, VoteResult: []uint8{2}},
		&protocol.CustomVoteCast{Voter: 30003, CustomVoteCreator: creator, CustomVoteVID: 2, VoteResult: []uint8{1}},
	})

	assert.Equal(t, []account.UID{30001, 30002}, x.Voters(key))
	assert.Equal(t, map[uint8]uint64{0: 1, 2: 2}, x.Tally(key))

	// a second ballot replaces the first
	x.UpdateNonConsensusIndex([]protocol.Operation{
		&protocol.CustomVoteCast{Voter: 30001, CustomVoteCreator: creator, CustomVoteVID: 1, VoteResult: []uint8{1}},
	})
	assert.Equal(t, []uint8{1}, x.Ballot(key, 30001))
	assert.Equal(t, map[uint8]uint64{1: 1, 2: 1}, x.Tally(key))

	assert.Nil(t, x.Ballot(key, 30003), "voted elsewhere")
	assert.Empty(t, x.Voters(noncons.VoteKey{Creator: creator, VID: 9}))
}

func TestFlows(t *testing.T) {
	x := noncons.New()

	uid := account.UID(25997)
	x.BalanceAdjusted([]ledger.BalanceAdjustment{
		{Account: uid, Delta: protocol.Asset{Amount: 100, AssetID: 3}},
		{Account: uid, Delta: protocol.CoreAsset(50)},
		{Account: uid, Delta: protocol.CoreAsset(-20)},
	})

	assert.Equal(t, []noncons.Flow{
		{Asset: protocol.CoreAsset(0).AssetID, Net: 30, Adjustments: 2},
		{Asset: 3, Net: 100, Adjustments: 1},
	}, x.Flows(uid))
	assert.Empty(t, x.Flows(account.UID(1)))
}

func TestLedgerSignals(t *testing.T) {
	x := noncons.New()
	db, key := newLedger(t, x)

	from := genesis.LocalUID(0)
	to := genesis.LocalUID(2)

	generate(t, db, key)
	transfer(t, db, key, from, to, 4321)
	generate(t, db, key)

	core := protocol.CoreAsset(0).AssetID

	var received *noncons.Flow
	for _, f := range x.Flows(to) {
		if core == f.Asset {
			f := f
			received = &f
		}
	}
	require.NotNil(t, received, "receiver flow")
	assert.Equal(t, int64(4321), received.Net)

	sent := int64(0)
	for _, f := range x.Flows(from) {
		if core == f.Asset {
			sent = f.Net
		}
	}
	assert.True(t, sent <= -4321, "sender paid: %d", sent)
}
