// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/util"
)

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/genesis.json", util.EnsureAbsolute("/data", "genesis.json"))
	assert.Equal(t, "/data/log", util.EnsureAbsolute("/data", "./log/"))
	assert.Equal(t, "/etc/genesis.json", util.EnsureAbsolute("/data", "/etc/genesis.json"))
}

func TestEnsureDirectoryAndFile(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")

	require.NoError(t, util.EnsureDirectory(dir), "create")
	require.NoError(t, util.EnsureDirectory(dir), "already exists")
	assert.False(t, util.EnsureFileExists(dir), "directory is not a file")

	file := filepath.Join(dir, "reservoir.cache")
	assert.False(t, util.EnsureFileExists(file), "missing")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))
	assert.True(t, util.EnsureFileExists(file), "present")

	assert.Error(t, util.EnsureDirectory(file), "a file is not a directory")
}
