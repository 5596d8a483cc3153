// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

const (
	scheduleWitnesses = 21
	byVoteTop         = 9
	byVoteRest        = 1
	byPledge          = 1
)

// 21 witnesses each voting for itself with a distinct balance, the
// votes take full effect one block after they are cast
func newScheduleLedger(t *testing.T) (*ledger.Database, *keypair.PrivateKey) {
	key := witnessKey(t)

	g := genesis.Local(key.PublicKey(), testTimestamp, scheduleWitnesses, testBalance)
	g.InitialParameters.CurrentFees = protocol.DefaultFeeSchedule().Zero()
	g.InitialParameters.ByVoteTopWitnessCount = byVoteTop
	g.InitialParameters.ByVoteRestWitnessCount = byVoteRest
	g.InitialParameters.ByPledgeWitnessCount = byPledge
	g.InitialParameters.GovernanceVotesUpdateInterval = 1
	g.InitialParameters.MaxGovernanceVotesSeconds = 0
	for i := range g.InitialAccountBalances {
		g.InitialAccountBalances[i].Amount = testBalance + int64(i)*constants.CorePrecision
	}

	db, err := ledger.New(ledger.Options{})
	require.NoError(t, err, "ledger")
	require.NoError(t, db.InitGenesis(g), "genesis")
	generate(t, db, key)

	ops := make([]protocol.Operation, 0, scheduleWitnesses)
	for i := 0; i < scheduleWitnesses; i += 1 {
		uid := genesis.LocalUID(i)
		ops = append(ops, &protocol.WitnessVoteUpdate{
			Voter:          uid,
			WitnessesToAdd: []account.UID{uid},
		})
	}
	_, err = push(t, db, key, ops...)
	require.NoError(t, err, "votes")
	generate(t, db, key)
	generate(t, db, key)

	for i := 0; i < scheduleWitnesses; i += 1 {
		w := db.Witness(genesis.LocalUID(i))
		require.NotNil(t, w, "witness: %d", i)
		require.NotZero(t, w.TotalVotes, "votes of witness: %d", i)
	}
	return db, key
}

func TestWitnessReschedule(t *testing.T) {
	db, key := newScheduleLedger(t)

	first := db.WitnessSchedule()
	require.Equal(t, uint32(scheduleWitnesses), first.NextScheduleBlockNum, "genesis round")
	require.Len(t, db.GlobalProperties().ActiveWitnesses, scheduleWitnesses, "genesis active set")

	for db.HeadBlockNum()+1 < first.NextScheduleBlockNum {
		generate(t, db, key)
	}

	// queue positions just before the reschedule block
	scheduled := make(map[account.UID]*ledger.Witness)
	for i := 0; i < scheduleWitnesses; i += 1 {
		uid := genesis.LocalUID(i)
		scheduled[uid] = db.Witness(uid)
	}

	generate(t, db, key)
	require.Equal(t, first.NextScheduleBlockNum, db.HeadBlockNum(), "reschedule block")

	active := db.GlobalProperties().ActiveWitnesses
	require.Len(t, active, byVoteTop+byVoteRest+byPledge, "active set")

	// the highest balances carry the most votes
	for i := scheduleWitnesses - byVoteTop; i < scheduleWitnesses; i += 1 {
		queue, ok := active[genesis.LocalUID(i)]
		assert.True(t, ok, "top witness: %d active", i)
		assert.Equal(t, ledger.ScheduledByVoteTop, queue, "top witness: %d queue", i)
	}

	var rest []account.UID
	pledged := 0
	for uid, queue := range active {
		switch queue {
		case ledger.ScheduledByVoteRest:
			rest = append(rest, uid)
		case ledger.ScheduledByPledge:
			pledged += 1
		}
	}
	require.Len(t, rest, byVoteRest, "by vote rest")
	assert.Equal(t, byPledge, pledged, "by pledge")

	// the rest queue takes the earliest of the witnesses outside the top
	earliest := scheduled[genesis.LocalUID(0)].ByVoteScheduledTime
	for i := 0; i < scheduleWitnesses-byVoteTop; i += 1 {
		at := scheduled[genesis.LocalUID(i)].ByVoteScheduledTime
		if at.Cmp(earliest) < 0 {
			earliest = at
		}
	}
	chosen := scheduled[rest[0]]
	assert.Equal(t, earliest, chosen.ByVoteScheduledTime, "earliest in the rest queue")

	next := db.WitnessSchedule()
	assert.Equal(t, chosen.ByVoteScheduledTime, next.CurrentByVoteTime, "one step of the by vote queue")
	assert.True(t, next.CurrentByVoteTime.Cmp(first.CurrentByVoteTime) > 0, "cursor moved forward")
	assert.True(t, db.Witness(rest[0]).ByVoteScheduledTime.Cmp(next.CurrentByVoteTime) > 0, "chosen witness queued again")
	assert.Equal(t, first.NextScheduleBlockNum+uint32(len(active)), next.NextScheduleBlockNum, "next round")

	shuffled := db.ShuffledWitnesses()
	require.Len(t, shuffled, len(active), "shuffled")
	sorted := append([]account.UID(nil), shuffled...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	expected := make([]account.UID, 0, len(active))
	for uid := range active {
		expected = append(expected, uid)
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
	assert.Equal(t, expected, sorted, "shuffle is a permutation of the active set")

	// the new round is produced and rescheduled again at its end
	for db.HeadBlockNum() < next.NextScheduleBlockNum {
		generate(t, db, key)
	}
	assert.Equal(t, next.NextScheduleBlockNum+uint32(len(active)), db.WitnessSchedule().NextScheduleBlockNum, "following round")

	assert.NoError(t, db.CheckInvariants())
}
