// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package block_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

const (
	testingDirName = "testing"
	testTimestamp  = protocol.Timestamp(1546300800)

	initialWitnesses = 11
	fundedAccounts   = 30
	initialBalance   = 1000
)

var coreAID = protocol.AssetAID(constants.CoreAssetAID)

func databaseName() string {
	return filepath.Join(testingDirName, "test")
}

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
	_ = blockheader.Initialise()

	rc := m.Run()

	_ = blockheader.Finalise()
	logger.Finalise()
	_ = os.RemoveAll(testingDirName)
	os.Exit(rc)
}

// remove any database left by an earlier test
func setup(t *testing.T) {
	removeDatabase()
	openStorage(t)
}

func teardown() {
	_ = block.Finalise()
	storage.Finalise()
	removeDatabase()
}

func removeDatabase() {
	_ = os.RemoveAll(databaseName() + "-blocks.leveldb")
	_ = os.RemoveAll(databaseName() + "-index.leveldb")
}

func openStorage(t *testing.T) bool {
	mustReindex, err := storage.Initialise(databaseName(), storage.ReadWrite)
	require.NoError(t, err, "storage initialise")
	return mustReindex
}

// close the block log keeping the files
func closeAll(t *testing.T) {
	require.NoError(t, block.Finalise(), "block finalise")
	storage.Finalise()
}

// a fresh ledger built from genesis with the stored blocks replayed
func openLedger(t *testing.T, g *genesis.State, mustReindex bool) *ledger.Database {
	db, err := ledger.New(ledger.Options{})
	require.NoError(t, err, "ledger")
	require.NoError(t, block.Initialise(db, g, mustReindex), "block initialise")
	return db
}

func testKey(t *testing.T) *keypair.PrivateKey {
	key, err := keypair.FromSeed("nathan")
	require.NoError(t, err, "key")
	return key
}

// initial witnesses plus plain accounts, every one holding the same
// core balance
func scenarioGenesis(t *testing.T) *genesis.State {
	key := testKey(t).PublicKey()
	g := genesis.Local(key, testTimestamp, initialWitnesses, initialBalance)
	for i := initialWitnesses; i < fundedAccounts; i += 1 {
		uid := genesis.LocalUID(100 + i)
		g.InitialAccounts = append(g.InitialAccounts, genesis.Account{
			UID:       uid,
			Name:      fmt.Sprintf("user%d", i),
			OwnerKey:  key,
			Registrar: account.NullAccount,
		})
		g.InitialAccountBalances = append(g.InitialAccountBalances, genesis.Balance{
			UID:         uid,
			AssetSymbol: constants.CoreSymbol,
			Amount:      initialBalance,
		})
	}
	return g
}

func fundedUIDs(g *genesis.State) []account.UID {
	uids := make([]account.UID, 0, len(g.InitialAccountBalances))
	for _, b := range g.InitialAccountBalances {
		uids = append(uids, b.UID)
	}
	return uids
}

func balances(db *ledger.Database, uids []account.UID) map[account.UID]int64 {
	m := make(map[account.UID]int64, len(uids))
	for _, uid := range uids {
		m[uid] = db.Balance(uid, coreAID)
	}
	return m
}

// produce blocks in the scheduled slots
func generate(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, n int) {
	for i := 0; i < n; i += 1 {
		when := db.SlotTime(1)
		witness := db.ScheduledWitness(1)
		b, err := block.Generate(when, witness, key)
		require.NoError(t, err, "generate: %d", i)
		require.Equal(t, db.HeadBlockNum(), b.BlockNum(), "head")
	}
}
