// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/configuration"
	"github.com/yoyow-org/yoyowd/fault"
)

type producerSection struct {
	Witnesses             map[string]string `gluamapper:"witnesses"`
	EnableStaleProduction bool              `gluamapper:"enable_stale_production"`
	RequiredParticipation uint32            `gluamapper:"required_participation"`
}

type testConfiguration struct {
	DataDirectory string            `gluamapper:"data_directory"`
	Chain         string            `gluamapper:"chain"`
	Producer      producerSection   `gluamapper:"producer"`
	Levels        map[string]string `gluamapper:"levels"`
}

const testConfigurationFile = `
local M = {}
M.data_directory = "."
M.chain = chain_name
M.producer = {
    witnesses = {
        ["25638"] = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3",
    },
    enable_stale_production = true,
    required_participation = 3300,
}
M.levels = {
    main = "info",
    DEFAULT = "critical",
}
return M
`

func writeFile(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "configuration")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	name := filepath.Join(dir, "yoyowd.conf")
	require.NoError(t, ioutil.WriteFile(name, []byte(content), 0600))
	return name
}

func TestParseConfigurationFile(t *testing.T) {
	name := writeFile(t, testConfigurationFile)

	c := testConfiguration{}
	err := configuration.ParseConfigurationFile(name, &c, map[string]string{"chain_name": "local"})
	require.NoError(t, err)

	assert.Equal(t, ".", c.DataDirectory)
	assert.Equal(t, "local", c.Chain, "from variable")
	assert.True(t, c.Producer.EnableStaleProduction)
	assert.Equal(t, uint32(3300), c.Producer.RequiredParticipation)
	assert.Equal(t, "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3", c.Producer.Witnesses["25638"])
	assert.Equal(t, "critical", c.Levels["DEFAULT"])
}

func TestParseNotATable(t *testing.T) {
	name := writeFile(t, "return 42\n")

	c := testConfiguration{}
	err := configuration.ParseConfigurationFile(name, &c, nil)
	assert.Equal(t, fault.ErrInvalidConfiguration, errors.Cause(err))
}

func TestParseSyntaxError(t *testing.T) {
	name := writeFile(t, "return {\n")

	c := testConfiguration{}
	assert.Error(t, configuration.ParseConfigurationFile(name, &c, nil))
}

func TestParseMissingFile(t *testing.T) {
	c := testConfiguration{}
	assert.Error(t, configuration.ParseConfigurationFile("/nonexistent/yoyowd.conf", &c, nil))
}
