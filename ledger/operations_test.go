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

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// a ledger where every operation is free, one block past genesis
func newFreeLedger(t *testing.T) (*ledger.Database, *keypair.PrivateKey) {
	key := witnessKey(t)

	g := genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance)
	g.InitialParameters.CurrentFees = protocol.DefaultFeeSchedule().Zero()

	db, err := ledger.New(ledger.Options{})
	require.NoError(t, err, "ledger")
	require.NoError(t, db.InitGenesis(g), "genesis")
	generate(t, db, key)
	return db, key
}

// sign and push operations as one pending transaction
func push(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, ops ...protocol.Operation) (*protocol.ProcessedTransaction, error) {
	tx := &protocol.SignedTransaction{}
	tx.SetReferenceBlock(db.HeadBlockID())
	tx.SetExpiration(db.HeadBlockTime().Add(expirySeconds))
	tx.Operations = ops
	require.NoError(t, tx.Sign(key, db.ChainID()), "sign")
	return db.PushTransaction(tx)
}

// instance of the object created by the first operation
func createdInstance(t *testing.T, ptx *protocol.ProcessedTransaction) uint64 {
	require.NotEmpty(t, ptx.OperationResults, "results")
	r, ok := ptx.OperationResults[0].(*protocol.ObjectIDResult)
	require.True(t, ok, "object id result")
	return objectdb.ID(r.ID).Instance()
}

func TestAccountCreate(t *testing.T) {
	db, key := newFreeLedger(t)
	registrar := genesis.LocalUID(0)
	uid := account.CalculateUID(1234567)

	op := &protocol.AccountCreate{
		UID:       uid,
		Name:      "alice_2019",
		Owner:     authority.NewKeyAuthority(key.PublicKey()),
		Active:    authority.NewKeyAuthority(key.PublicKey()),
		Secondary: authority.NewKeyAuthority(key.PublicKey()),
		MemoKey:   key.PublicKey(),
		RegInfo: protocol.RegInfo{
			Registrar: registrar,
			Referrer:  registrar,
		},
	}
	_, err := push(t, db, key, op)
	require.NoError(t, err, "create")
	generate(t, db, key)

	a := db.Account(uid)
	require.NotNil(t, a, "account")
	assert.Equal(t, "alice_2019", a.Name)
	assert.True(t, a.CanPost)
	byName := db.AccountByName("alice_2019")
	require.NotNil(t, byName, "by name")
	assert.Equal(t, uid, byName.UID)
	require.NotNil(t, db.Statistics(uid), "statistics")

	again := *op
	again.UID = account.CalculateUID(1234568)
	_, err = push(t, db, key, &again)
	assert.Equal(t, fault.ErrAccountNameExists, errors.Cause(err), "same name")

	// a plain account cannot register others
	other := *op
	other.UID = account.CalculateUID(1234569)
	other.Name = "bob_2019"
	other.RegInfo.Registrar = uid
	_, err = push(t, db, key, &other)
	assert.Equal(t, fault.ErrNotRegistrar, errors.Cause(err), "not registrar")

	assert.NoError(t, db.CheckInvariants())
}

func TestWitnessVoteAndProxy(t *testing.T) {
	db, key := newFreeLedger(t)
	init0 := genesis.LocalUID(0)
	init1 := genesis.LocalUID(1)
	init2 := genesis.LocalUID(2)

	_, err := push(t, db, key, &protocol.WitnessVoteUpdate{
		Voter:          init0,
		WitnessesToAdd: []account.UID{init1, init2},
	})
	require.NoError(t, err, "vote")
	generate(t, db, key)

	v := db.Voter(init0)
	require.NotNil(t, v, "voter")
	assert.True(t, v.IsSelfVoter())
	assert.Equal(t, uint16(2), v.NumberOfWitnessesVoted)

	_, err = push(t, db, key, &protocol.WitnessVoteUpdate{
		Voter:             init0,
		WitnessesToRemove: []account.UID{init0},
	})
	assert.Equal(t, fault.ErrInvalidVoteChange, errors.Cause(err), "remove a vote never cast")

	_, err = push(t, db, key, &protocol.AccountUpdateProxy{Voter: init1, Proxy: init0})
	require.NoError(t, err, "proxy")
	generate(t, db, key)

	proxied := db.Voter(init1)
	require.NotNil(t, proxied, "proxied voter")
	assert.Equal(t, init0, proxied.ProxyUID)
	assert.Equal(t, uint32(1), db.Voter(init0).ProxiedVoters)

	_, err = push(t, db, key, &protocol.WitnessVoteUpdate{
		Voter:          init1,
		WitnessesToAdd: []account.UID{init2},
	})
	assert.Equal(t, fault.ErrCannotVoteWithProxy, errors.Cause(err), "vote while proxied")

	_, err = push(t, db, key, &protocol.AccountUpdateProxy{Voter: init0, Proxy: init1})
	assert.Equal(t, fault.ErrInvalidProxy, errors.Cause(err), "proxy loop")

	assert.NoError(t, db.CheckInvariants())
}

func TestCommitteeProposal(t *testing.T) {
	db, key := newFreeLedger(t)
	init0 := genesis.LocalUID(0)
	init1 := genesis.LocalUID(1)

	head := db.HeadBlockNum()
	number := db.DynamicGlobalProperties().NextCommitteeProposalNumber
	size := uint32(32768)
	opinion := protocol.OpinionFor

	_, err := push(t, db, key, &protocol.CommitteeProposalCreate{
		Proposer: init0,
		Items: protocol.ProposalItemList{
			&protocol.GlobalParameterItem{
				Value: protocol.GlobalParameterUpdates{MaximumTransactionSize: &size},
			},
		},
		VotingClosingBlockNum: head + 2,
		ExecutionBlockNum:     head + 3,
		ExpirationBlockNum:    head + 5,
		ProposerOpinion:       &opinion,
	})
	require.NoError(t, err, "create")
	generate(t, db, key)

	p := db.CommitteeProposal(number)
	require.NotNil(t, p, "proposal")
	assert.False(t, p.IsApproved, "one of three in favour")

	_, err = push(t, db, key, &protocol.CommitteeProposalUpdate{
		Account:        init1,
		ProposalNumber: number,
		Opinion:        protocol.OpinionFor,
	})
	require.NoError(t, err, "update")
	generate(t, db, key)

	p = db.CommitteeProposal(number)
	require.NotNil(t, p, "proposal after vote")
	assert.True(t, p.IsApproved, "two of three in favour")
	assert.NotEqual(t, size, db.GlobalProperties().Parameters.MaximumTransactionSize, "before execution")

	_, err = push(t, db, key, &protocol.CommitteeProposalCreate{
		Proposer: account.CalculateUID(1234567),
		Items: protocol.ProposalItemList{
			&protocol.GlobalParameterItem{
				Value: protocol.GlobalParameterUpdates{MaximumTransactionSize: &size},
			},
		},
		VotingClosingBlockNum: head + 3,
		ExecutionBlockNum:     head + 3,
		ExpirationBlockNum:    head + 3,
	})
	assert.Error(t, err, "not a committee member")

	for db.HeadBlockNum() < head+3 {
		generate(t, db, key)
	}
	assert.Nil(t, db.CommitteeProposal(number), "executed")
	assert.Equal(t, size, db.GlobalProperties().Parameters.MaximumTransactionSize, "after execution")
	assert.NoError(t, db.CheckInvariants())
}

func TestLimitOrders(t *testing.T) {
	db, key := newFreeLedger(t)
	issuer := genesis.LocalUID(0)
	buyer := genesis.LocalUID(1)
	supply := int64(1000000)

	ptx, err := push(t, db, key, &protocol.AssetCreate{
		Issuer:    issuer,
		Symbol:    "TESTA",
		Precision: 4,
		CommonOptions: protocol.AssetOptions{
			MaxSupply: supply * 10,
		},
		Extensions: &protocol.AssetCreateExtension{InitialSupply: &supply},
	})
	require.NoError(t, err, "asset create")
	aid := protocol.AssetAID(createdInstance(t, ptx))
	generate(t, db, key)

	a := db.Asset(aid)
	require.NotNil(t, a, "asset")
	assert.Equal(t, "TESTA", a.Symbol)
	assert.Equal(t, supply, db.Balance(issuer, aid), "initial supply")

	expiration := db.HeadBlockTime().Add(3600)

	// an order with nothing to match rests on the book
	ptx, err = push(t, db, key, &protocol.LimitOrderCreate{
		Seller:       buyer,
		AmountToSell: protocol.CoreAsset(100),
		MinToReceive: protocol.Asset{Amount: 60, AssetID: aid},
		Expiration:   expiration,
	})
	require.NoError(t, err, "resting order")
	resting := createdInstance(t, ptx)
	generate(t, db, key)

	require.NotNil(t, db.LimitOrder(resting), "on the book")
	assert.Equal(t, testBalance-100, db.Balance(buyer, coreAsset), "core held by the order")

	_, err = push(t, db, key, &protocol.LimitOrderCancel{FeePayingAccount: buyer, Order: resting})
	require.NoError(t, err, "cancel")
	generate(t, db, key)
	assert.Nil(t, db.LimitOrder(resting), "cancelled")
	assert.Equal(t, testBalance, db.Balance(buyer, coreAsset), "refunded")

	// two orders at the same price fill each other
	ptx, err = push(t, db, key, &protocol.LimitOrderCreate{
		Seller:       buyer,
		AmountToSell: protocol.CoreAsset(100),
		MinToReceive: protocol.Asset{Amount: 50, AssetID: aid},
		Expiration:   expiration,
	})
	require.NoError(t, err, "maker")
	maker := createdInstance(t, ptx)

	_, err = push(t, db, key, &protocol.LimitOrderCreate{
		Seller:       issuer,
		AmountToSell: protocol.Asset{Amount: 50, AssetID: aid},
		MinToReceive: protocol.CoreAsset(100),
		Expiration:   expiration,
	})
	require.NoError(t, err, "taker")
	generate(t, db, key)

	assert.Nil(t, db.LimitOrder(maker), "maker filled")
	assert.Equal(t, int64(50), db.Balance(buyer, aid), "buyer asset")
	assert.Equal(t, testBalance-100, db.Balance(buyer, coreAsset), "buyer core")
	assert.Equal(t, supply-50, db.Balance(issuer, aid), "issuer asset")
	assert.Equal(t, testBalance+100, db.Balance(issuer, coreAsset), "issuer core")

	_, err = push(t, db, key, &protocol.LimitOrderCreate{
		Seller:       buyer,
		AmountToSell: protocol.CoreAsset(testBalance * 2),
		MinToReceive: protocol.Asset{Amount: 1, AssetID: aid},
		Expiration:   expiration,
	})
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err), "more than the balance")

	assert.NoError(t, db.CheckInvariants())
}

func TestCSAFCollect(t *testing.T) {
	db, key := newFreeLedger(t)
	from := genesis.LocalUID(0)
	to := genesis.LocalUID(1)

	// coin seconds accrue per whole minute
	for db.HeadBlockTime() < testTimestamp+120 {
		generate(t, db, key)
	}
	before := db.Statistics(to).CSAF

	_, err := push(t, db, key, &protocol.CSAFCollect{From: from, To: to, Amount: protocol.CoreAsset(10)})
	require.NoError(t, err, "collect")
	generate(t, db, key)
	assert.Equal(t, before+10, db.Statistics(to).CSAF, "collected")

	_, err = push(t, db, key, &protocol.CSAFCollect{From: from, To: to, Amount: protocol.CoreAsset(1000000)})
	assert.Equal(t, fault.ErrInsufficientCSAF, errors.Cause(err), "not earned yet")

	limit := db.GlobalProperties().Parameters.MaxCSAFPerAccount
	_, err = push(t, db, key, &protocol.CSAFCollect{From: from, To: to, Amount: protocol.CoreAsset(limit + 1)})
	assert.Equal(t, fault.ErrInvalidAmount, errors.Cause(err), "over the account limit")

	assert.NoError(t, db.CheckInvariants())
}

func TestCSAFLease(t *testing.T) {
	db, key := newFreeLedger(t)
	from := genesis.LocalUID(0)
	to := genesis.LocalUID(1)
	expiration := db.HeadBlockTime().Add(3600)

	_, err := push(t, db, key, &protocol.CSAFLease{From: from, To: to, Amount: protocol.CoreAsset(0), Expiration: expiration})
	assert.Equal(t, fault.ErrNoChange, errors.Cause(err), "no lease to remove")

	_, err = push(t, db, key, &protocol.CSAFLease{From: from, To: to, Amount: protocol.CoreAsset(testBalance * 2), Expiration: expiration})
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err), "more than the balance")

	_, err = push(t, db, key, &protocol.CSAFLease{From: from, To: to, Amount: protocol.CoreAsset(1000), Expiration: expiration})
	require.NoError(t, err, "lease")
	generate(t, db, key)

	lentOut := db.Statistics(from).CoreLeasedOut
	lentIn := db.Statistics(to).CoreLeasedIn
	assert.Equal(t, int64(1000), lentOut, "leased out")
	assert.Equal(t, int64(1000), lentIn, "leased in")

	_, err = push(t, db, key, &protocol.CSAFLease{From: from, To: to, Amount: protocol.CoreAsset(1000), Expiration: expiration})
	assert.Equal(t, fault.ErrNoChange, errors.Cause(err), "same lease")

	_, err = push(t, db, key, &protocol.CSAFLease{From: from, To: to, Amount: protocol.CoreAsset(0), Expiration: expiration})
	require.NoError(t, err, "end lease")
	generate(t, db, key)
	assert.Equal(t, int64(0), db.Statistics(from).CoreLeasedOut, "returned")
	assert.Equal(t, int64(0), db.Statistics(to).CoreLeasedIn, "no longer borrowed")

	assert.NoError(t, db.CheckInvariants())
}
