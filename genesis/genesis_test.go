// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package genesis_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

const testTimestamp = protocol.Timestamp(1546300800)

func localState(t *testing.T, witnesses int) *genesis.State {
	key, err := keypair.FromSeed("nathan")
	require.NoError(t, err, "key")
	return genesis.Local(key.PublicKey(), testTimestamp+1, witnesses, 1000)
}

func TestLocal(t *testing.T) {
	s := localState(t, 11)
	require.NoError(t, s.Validate())

	assert.Equal(t, testTimestamp, s.InitialTimestamp, "aligned timestamp")
	assert.Equal(t, uint32(11), s.InitialActiveWitnesses)
	assert.Len(t, s.InitialAccounts, 12, "witnesses plus ram account")
	assert.Len(t, s.InitialWitnessCandidates, 11)
	assert.Len(t, s.InitialCommitteeCandidates, 11)
	assert.Len(t, s.InitialAccountBalances, 11)

	uid, ok := s.AccountUID("init3")
	assert.True(t, ok, "init3")
	assert.Equal(t, genesis.LocalUID(3), uid)

	uid, ok = s.AccountUID(constants.RAMAccountName)
	assert.True(t, ok, "ram account")
	assert.Equal(t, genesis.LocalUID(11), uid)

	_, ok = s.AccountUID("nobody")
	assert.False(t, ok, "nobody")
}

func TestChainID(t *testing.T) {
	s := localState(t, 3)
	id := s.ChainID()
	assert.NotEqual(t, protocol.ChainID{}, id)
	assert.Equal(t, id, s.ChainID(), "stable")

	other := localState(t, 5)
	assert.NotEqual(t, id, other.ChainID(), "differs with content")

	fixed := protocol.ChainID{1, 2, 3}
	s.InitialChainID = fixed
	assert.Equal(t, fixed, s.ChainID(), "configured")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*genesis.State)
		err    error
	}{
		{
			name:   "unaligned timestamp",
			modify: func(s *genesis.State) { s.InitialTimestamp += 1 },
			err:    fault.ErrInvalidBlockTime,
		},
		{
			name:   "supply",
			modify: func(s *genesis.State) { s.MaxCoreSupply = constants.MaxShareSupply + 1 },
			err:    fault.ErrInvalidAmount,
		},
		{
			name:   "even witness count",
			modify: func(s *genesis.State) { s.ImmutableParameters.MinWitnessCount = 2 },
			err:    fault.ErrInvalidCount,
		},
		{
			name:   "reserved uid",
			modify: func(s *genesis.State) { s.InitialAccounts[0].UID = account.NullAccount },
			err:    fault.ErrInvalidAccountUID,
		},
		{
			name:   "duplicate name",
			modify: func(s *genesis.State) { s.InitialAccounts[1].Name = s.InitialAccounts[0].Name },
			err:    fault.ErrAccountNameExists,
		},
		{
			name:   "no owner key",
			modify: func(s *genesis.State) { s.InitialAccounts[0].OwnerKey = keypair.PublicKey{} },
			err:    fault.ErrInvalidKey,
		},
		{
			name: "unknown balance asset",
			modify: func(s *genesis.State) {
				s.InitialAccountBalances[0].AssetSymbol = "NOPE"
			},
			err: fault.ErrAssetNotFound,
		},
		{
			name: "handouts exceed supply",
			modify: func(s *genesis.State) {
				s.MaxCoreSupply = 100
			},
			err: fault.ErrInvalidAmount,
		},
		{
			name:   "too many active",
			modify: func(s *genesis.State) { s.InitialActiveWitnesses = 4 },
			err:    fault.ErrInvalidCount,
		},
		{
			name: "unknown witness owner",
			modify: func(s *genesis.State) {
				s.InitialWitnessCandidates[0].OwnerName = "nobody"
			},
			err: fault.ErrAccountNotFound,
		},
		{
			name: "platform owner",
			modify: func(s *genesis.State) {
				s.InitialPlatforms = []genesis.Platform{{Owner: account.CalculateUID(99999), Name: "p"}}
			},
			err: fault.ErrAccountNotFound,
		},
	}

	for _, item := range tests {
		s := localState(t, 3)
		item.modify(s)
		err := s.Validate()
		assert.Equal(t, item.err, errors.Cause(err), item.name)
	}
}

func TestLoad(t *testing.T) {
	s := localState(t, 3)
	s.InitialAssets = []genesis.Asset{
		{
			Symbol:    "TOKEN",
			Issuer:    genesis.LocalUID(0),
			Precision: 4,
			MaxSupply: 1000000,
		},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err, "marshal")

	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := genesis.Load(path)
	require.NoError(t, err, "load")
	assert.Equal(t, s.InitialTimestamp, loaded.InitialTimestamp)
	assert.Equal(t, s.InitialAccounts, loaded.InitialAccounts)
	assert.Equal(t, s.InitialAssets, loaded.InitialAssets)
	assert.Equal(t, s.ChainID(), loaded.ChainID(), "chain id")
}

func TestLoadMissing(t *testing.T) {
	_, err := genesis.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"initial_timestamp": 0}`), 0o600))

	_, err := genesis.Load(path)
	assert.Error(t, err)
}
