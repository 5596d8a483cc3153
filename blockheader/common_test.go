// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockheader_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/blockheader"
)

const testingDirName = "testing"

// remove all files created by test
func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

func TestMain(m *testing.M) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)
	_ = logger.Initialise(logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      50000,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})

	rc := m.Run()

	logger.Finalise()
	removeFiles()
	os.Exit(rc)
}

// configure for testing
func setup(t *testing.T) {
	err := blockheader.Initialise()
	require.NoError(t, err, "initialise")
}

// post test cleanup
func teardown(t *testing.T) {
	err := blockheader.Finalise()
	require.NoError(t, err, "finalise")
}
