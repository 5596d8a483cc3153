// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mode_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/chain"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/mode"
)

const testingDirName = "testing"

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

func TestModeLifecycle(t *testing.T) {
	assert.Equal(t, fault.ErrInvalidChain, mode.Initialise("bitmark"), "unknown chain")

	require.NoError(t, mode.Initialise(chain.Local))
	defer func() {
		assert.NoError(t, mode.Finalise())
	}()

	assert.Equal(t, fault.ErrAlreadyInitialised, mode.Initialise(chain.Local))

	assert.True(t, mode.Is(mode.Replaying), "starts replaying")
	assert.Equal(t, "Replaying", mode.String())
	assert.True(t, mode.IsTesting(), "local chain")
	assert.Equal(t, chain.Local, mode.ChainName())

	mode.Set(mode.Normal)
	assert.True(t, mode.Is(mode.Normal))
	assert.True(t, mode.IsNot(mode.Stopped))

	// out of range values are ignored
	mode.Set(mode.Mode(99))
	assert.True(t, mode.Is(mode.Normal))
	assert.Equal(t, "*Unknown*", mode.Mode(99).String())
}
