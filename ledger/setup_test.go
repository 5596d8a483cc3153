// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

const (
	testingDirName = "testing"
	testTimestamp  = protocol.Timestamp(1546300800)
	testWitnesses  = 3
	testBalance    = int64(100000000000)
	testSeed       = "nathan"
	expirySeconds  = 60
)

func TestMain(m *testing.M) {
	_ = os.RemoveAll(testingDirName)
	_ = os.Mkdir(testingDirName, 0700)

	_ = logger.Initialise(logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})

	rc := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(testingDirName)
	os.Exit(rc)
}

func witnessKey(t *testing.T) *keypair.PrivateKey {
	key, err := keypair.FromSeed(testSeed)
	require.NoError(t, err, "key")
	return key
}

// a fresh ledger at the genesis state
func newLedger(t *testing.T) (*ledger.Database, *keypair.PrivateKey) {
	key := witnessKey(t)

	db, err := ledger.New(ledger.Options{})
	require.NoError(t, err, "ledger")
	require.NoError(t, db.InitGenesis(genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance)), "genesis")
	return db, key
}

// produce the block for the next slot
func generate(t *testing.T, db *ledger.Database, key *keypair.PrivateKey) *protocol.SignedBlock {
	b, err := db.GenerateBlock(db.SlotTime(1), db.ScheduledWitness(1), key, ledger.SkipNothing)
	require.NoError(t, err, "generate")
	return b
}

// a signed core transfer with the default fee
func makeTransfer(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, from account.UID, to account.UID, amount int64) *protocol.SignedTransaction {
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
	tx.SetExpiration(db.HeadBlockTime().Add(expirySeconds))
	tx.Operations = protocol.OperationList{op}
	require.NoError(t, tx.Sign(key, db.ChainID()), "sign")
	return tx
}
