// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/cache"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/reservoir"
)

const (
	testingDirName = "testing"
	cacheFileName  = "reservoir.cache"
)

func cacheFile() string {
	return filepath.Join(testingDirName, cacheFileName)
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

func TestMain(m *testing.M) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()

	cache.Finalise()
	logger.Finalise()
	removeFiles()
	os.Exit(rc)
}

// fresh caches and reservoir over a ledger
func setup(t *testing.T, l reservoir.Ledger) {
	require.NoError(t, cache.Initialise(), "cache")
	require.NoError(t, reservoir.Initialise(l, cacheFile()), "reservoir")
}

func teardown() {
	_ = reservoir.Finalise()
	_ = os.Remove(cacheFile())
}

// distinct transactions by amount
func makeTransaction(amount int64) *protocol.SignedTransaction {
	tx := &protocol.SignedTransaction{}
	tx.SetExpiration(protocol.Timestamp(1546300800))
	tx.Operations = protocol.OperationList{
		&protocol.Transfer{
			FeeBundle: protocol.NewFee(100000),
			From:      account.UID(25638),
			To:        account.UID(25997),
			Amount:    protocol.CoreAsset(amount),
		},
	}
	return tx
}

func processed(tx *protocol.SignedTransaction) *protocol.ProcessedTransaction {
	return &protocol.ProcessedTransaction{
		SignedTransaction: *tx,
	}
}
