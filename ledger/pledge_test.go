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
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

const bonusRate = uint16(50 * constants.OnePercent)

// a free ledger running the rules that allow delegated mining
func newMiningLedger(t *testing.T) (*ledger.Database, *keypair.PrivateKey) {
	key := witnessKey(t)

	g := genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance)
	g.InitialParameters.CurrentFees = protocol.DefaultFeeSchedule().Zero()

	db, err := ledger.New(ledger.Options{Version: ledger.V05})
	require.NoError(t, err, "ledger")
	require.NoError(t, db.InitGenesis(g), "genesis")
	generate(t, db, key)
	return db, key
}

func TestWitnessCollectPay(t *testing.T) {
	db, key := newFreeLedger(t)
	uid := genesis.LocalUID(0)

	for i := 0; i < 2*testWitnesses; i += 1 {
		generate(t, db, key)
	}

	w := db.Witness(uid)
	require.NotZero(t, w.TotalProduced, "produced")
	pay := db.Statistics(uid).UncollectedWitnessPay
	assert.Equal(t, int64(w.TotalProduced)*db.GlobalProperties().Parameters.ByVoteTopWitnessPayPerBlock, pay, "pay per block")

	_, err := push(t, db, key, &protocol.WitnessCollectPay{
		Account: uid,
		Pay:     protocol.CoreAsset(pay + 1),
	})
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err), "more than earned")

	before := db.Balance(uid, coreAsset)
	_, err = push(t, db, key, &protocol.WitnessCollectPay{
		Account: uid,
		Pay:     protocol.CoreAsset(pay),
	})
	require.NoError(t, err, "collect")
	assert.Equal(t, before+pay, db.Balance(uid, coreAsset), "collected")
	assert.Zero(t, db.Statistics(uid).UncollectedWitnessPay, "nothing left")

	generate(t, db, key)
	assert.NoError(t, db.CheckInvariants())
}

func TestPledgeMining(t *testing.T) {
	db, key := newMiningLedger(t)
	witness := genesis.LocalUID(0)
	miner := genesis.LocalUID(1)
	closed := genesis.LocalUID(2)

	canPledge := true
	rate := bonusRate
	_, err := push(t, db, key, &protocol.WitnessUpdate{
		Account:   witness,
		NewPledge: &protocol.Asset{Amount: int64(db.GlobalProperties().Parameters.MinWitnessPledge)},
		Extensions: &protocol.WitnessMiningExtension{
			CanPledge: &canPledge,
			BonusRate: &rate,
		},
	})
	require.NoError(t, err, "open witness to mining")
	generate(t, db, key)

	w := db.Witness(witness)
	require.True(t, w.CanPledge, "can pledge")
	assert.Equal(t, bonusRate, w.BonusRate, "bonus rate")

	_, err = push(t, db, key, &protocol.PledgeMiningUpdate{
		PledgeAccount: miner,
		Witness:       closed,
		NewPledge:     constants.DefaultMinPledgeToWitness,
	})
	assert.Equal(t, fault.ErrPermissionDenied, errors.Cause(err), "witness not accepting pledges")

	_, err = push(t, db, key, &protocol.PledgeMiningUpdate{
		PledgeAccount: miner,
		Witness:       witness,
		NewPledge:     constants.DefaultMinPledgeToWitness - 1,
	})
	assert.Equal(t, fault.ErrInsufficientPledge, errors.Cause(err), "below the minimum")

	_, err = push(t, db, key, &protocol.PledgeMiningUpdate{
		PledgeAccount: miner,
		Witness:       witness,
		NewPledge:     constants.DefaultMinPledgeToWitness,
	})
	require.NoError(t, err, "pledge")

	// every block the witness produces from here on sets the bonus
	// share aside, the block carrying the pledge included
	produced := db.Witness(witness).TotalProduced
	payBefore := db.Statistics(witness).UncollectedWitnessPay
	generate(t, db, key)

	w = db.Witness(witness)
	assert.Equal(t, uint64(constants.DefaultMinPledgeToWitness), w.TotalMiningPledge, "mining pledge")
	p := db.Pledge(miner, ledger.MinePledge, witness)
	require.NotNil(t, p, "pledge balance")
	assert.Equal(t, constants.DefaultMinPledgeToWitness, p.Pledge, "pledged")

	for i := 0; i < 2*testWitnesses; i += 1 {
		generate(t, db, key)
	}
	blocks := int64(db.Witness(witness).TotalProduced - produced)
	require.NotZero(t, blocks, "witness produced")

	pay := db.GlobalProperties().Parameters.ByVoteTopWitnessPayPerBlock
	bonus := pay * int64(bonusRate) / constants.HundredPercent
	assert.Equal(t, payBefore+blocks*(pay-bonus), db.Statistics(witness).UncollectedWitnessPay, "witness keeps the rest")

	// a single miner receives the whole bonus
	expected := blocks * bonus
	_, err = push(t, db, key, &protocol.PledgeBonusCollect{
		Account: miner,
		Bonus:   protocol.CoreAsset(expected + 1),
	})
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err), "more than settled")

	before := db.Balance(miner, coreAsset)
	_, err = push(t, db, key, &protocol.PledgeBonusCollect{
		Account: miner,
		Bonus:   protocol.CoreAsset(expected),
	})
	require.NoError(t, err, "collect bonus")
	assert.Equal(t, before+expected, db.Balance(miner, coreAsset), "bonus collected")
	assert.Zero(t, db.Statistics(miner).UncollectedPledgeBonus, "nothing left")
	assert.Equal(t, uint64(expected), db.Witness(witness).AlreadyDistributedBonus, "distributed")
	generate(t, db, key)

	// withdrawing settles and queues the pledge for release
	_, err = push(t, db, key, &protocol.PledgeMiningUpdate{
		PledgeAccount: miner,
		Witness:       witness,
		NewPledge:     0,
	})
	require.NoError(t, err, "withdraw")
	generate(t, db, key)

	assert.Zero(t, db.Witness(witness).TotalMiningPledge, "no mining pledge")
	p = db.Pledge(miner, ledger.MinePledge, witness)
	require.NotNil(t, p, "releasing")
	assert.Zero(t, p.Pledge, "pledge withdrawn")
	assert.Equal(t, constants.DefaultMinPledgeToWitness, p.TotalReleasingPledge, "waiting for release")

	assert.NoError(t, db.CheckInvariants())
}
