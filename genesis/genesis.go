// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package genesis

import (
	"crypto/sha256"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// ImmutableParameters - fixed for the life of the chain
type ImmutableParameters struct {
	MinCommitteeMemberCount uint16 `json:"min_committee_member_count"`
	MinWitnessCount         uint16 `json:"min_witness_count"`
}

// Account - an account that exists from the first block
//
// a zero active key defaults to the owner key, a zero secondary key
// to the active key and a zero memo key to the active key
type Account struct {
	UID          account.UID       `json:"uid"`
	Name         string            `json:"name"`
	OwnerKey     keypair.PublicKey `json:"owner_key"`
	ActiveKey    keypair.PublicKey `json:"active_key"`
	SecondaryKey keypair.PublicKey `json:"secondary_key"`
	MemoKey      keypair.PublicKey `json:"memo_key"`
	Registrar    account.UID       `json:"registrar"`
	IsRegistrar  bool              `json:"is_registrar"`
	IsFullMember bool              `json:"is_full_member"`
}

// Asset - a user issued asset with no initial supply
type Asset struct {
	Symbol      string      `json:"symbol"`
	Issuer      account.UID `json:"issuer"`
	Description string      `json:"description"`
	Precision   uint8       `json:"precision"`
	MaxSupply   int64       `json:"max_supply"`
}

// Balance - an initial holding
type Balance struct {
	UID         account.UID `json:"uid"`
	AssetSymbol string      `json:"asset_symbol"`
	Amount      int64       `json:"amount"`
}

// Witness - a witness candidate, no pledge is needed at genesis
type Witness struct {
	OwnerName       string            `json:"owner_name"`
	BlockSigningKey keypair.PublicKey `json:"block_signing_key"`
}

// CommitteeMember - a committee candidate
type CommitteeMember struct {
	OwnerName string `json:"owner_name"`
}

// Platform - a content platform
type Platform struct {
	Owner account.UID `json:"owner"`
	Name  string      `json:"name"`
	URL   string      `json:"url"`
}

// State - the declarative record a chain is built from
type State struct {
	InitialTimestamp           protocol.Timestamp       `json:"initial_timestamp"`
	MaxCoreSupply              int64                    `json:"max_core_supply"`
	InitialParameters          protocol.ChainParameters `json:"initial_parameters"`
	ImmutableParameters        ImmutableParameters      `json:"immutable_parameters"`
	InitialAccounts            []Account                `json:"initial_accounts"`
	InitialAssets              []Asset                  `json:"initial_assets"`
	InitialAccountBalances     []Balance                `json:"initial_account_balances"`
	InitialWitnessCandidates   []Witness                `json:"initial_witness_candidates"`
	InitialCommitteeCandidates []CommitteeMember        `json:"initial_committee_candidates"`
	InitialPlatforms           []Platform               `json:"initial_platforms"`
	InitialActiveWitnesses     uint32                   `json:"initial_active_witnesses"`
	InitialChainID             protocol.ChainID         `json:"initial_chain_id"`
}

// Load - read and validate a JSON genesis file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, err
	}
	s := &State{
		InitialParameters: protocol.DefaultChainParameters(),
	}
	if err := json.Unmarshal(data, s); nil != err {
		return nil, errors.Wrapf(err, "genesis file: %q", path)
	}
	if nil == s.InitialParameters.CurrentFees {
		s.InitialParameters.CurrentFees = protocol.DefaultFeeSchedule()
	}
	if err := s.Validate(); nil != err {
		return nil, errors.Wrapf(err, "genesis file: %q", path)
	}
	return s, nil
}

// ChainID - the configured id, or the digest of the packed record
// when none was given
func (s *State) ChainID() protocol.ChainID {
	if (protocol.ChainID{}) != s.InitialChainID {
		return s.InitialChainID
	}
	c := *s
	c.InitialChainID = protocol.ChainID{}
	return protocol.ChainID(sha256.Sum256(protocol.MustPack(&c)))
}

// Validate - a chain can be built from the record
func (s *State) Validate() error {
	params := &s.InitialParameters
	if err := params.Validate(); nil != err {
		return err
	}
	if 0 == s.InitialTimestamp || 0 != uint32(s.InitialTimestamp)%uint32(params.BlockInterval) {
		return errors.Wrapf(fault.ErrInvalidBlockTime, "initial timestamp: %s must be a multiple of the block interval", s.InitialTimestamp)
	}
	if s.MaxCoreSupply <= 0 || s.MaxCoreSupply > constants.MaxShareSupply {
		return errors.Wrapf(fault.ErrInvalidAmount, "max core supply: %d", s.MaxCoreSupply)
	}
	if 1 != s.ImmutableParameters.MinWitnessCount&1 {
		return errors.Wrapf(fault.ErrInvalidCount, "min witness count: %d must be odd", s.ImmutableParameters.MinWitnessCount)
	}
	if 1 != s.ImmutableParameters.MinCommitteeMemberCount&1 {
		return errors.Wrapf(fault.ErrInvalidCount, "min committee member count: %d must be odd", s.ImmutableParameters.MinCommitteeMemberCount)
	}

	names := make(map[string]account.UID)
	uids := make(map[account.UID]struct{})
	for _, a := range s.InitialAccounts {
		if err := account.ValidateUID(a.UID); nil != err {
			return errors.Wrapf(err, "account: %q", a.Name)
		}
		if account.IsSpecial(a.UID) {
			return errors.Wrapf(fault.ErrInvalidAccountUID, "account: %q uid: %s is reserved", a.Name, a.UID)
		}
		if err := account.ValidateName(a.Name); nil != err {
			return errors.Wrapf(err, "account: %s", a.UID)
		}
		if a.OwnerKey.IsZero() {
			return errors.Wrapf(fault.ErrInvalidKey, "account: %q has no owner key", a.Name)
		}
		if _, ok := uids[a.UID]; ok {
			return errors.Wrapf(fault.ErrAccountExists, "uid: %s", a.UID)
		}
		if _, ok := names[a.Name]; ok {
			return errors.Wrapf(fault.ErrAccountNameExists, "name: %q", a.Name)
		}
		uids[a.UID] = struct{}{}
		names[a.Name] = a.UID
	}

	symbols := map[string]struct{}{
		constants.CoreSymbol: {},
	}
	for _, a := range s.InitialAssets {
		if _, ok := symbols[a.Symbol]; ok {
			return errors.Wrapf(fault.ErrAssetExists, "symbol: %q", a.Symbol)
		}
		if a.MaxSupply <= 0 || a.MaxSupply > constants.MaxShareSupply {
			return errors.Wrapf(fault.ErrInvalidAmount, "asset: %q max supply: %d", a.Symbol, a.MaxSupply)
		}
		if a.Precision > constants.MaxAssetPrecision {
			return errors.Wrapf(fault.ErrInvalidParameter, "asset: %q precision: %d", a.Symbol, a.Precision)
		}
		if _, ok := uids[a.Issuer]; !ok {
			return errors.Wrapf(fault.ErrAccountNotFound, "asset: %q issuer: %s", a.Symbol, a.Issuer)
		}
		symbols[a.Symbol] = struct{}{}
	}

	totals := make(map[string]int64)
	for _, b := range s.InitialAccountBalances {
		if _, ok := uids[b.UID]; !ok {
			return errors.Wrapf(fault.ErrAccountNotFound, "balance of: %s", b.UID)
		}
		if _, ok := symbols[b.AssetSymbol]; !ok {
			return errors.Wrapf(fault.ErrAssetNotFound, "balance of: %s asset: %q", b.UID, b.AssetSymbol)
		}
		if b.Amount <= 0 {
			return errors.Wrapf(fault.ErrInvalidAmount, "balance of: %s amount: %d", b.UID, b.Amount)
		}
		totals[b.AssetSymbol] += b.Amount
	}
	if totals[constants.CoreSymbol] > s.MaxCoreSupply {
		return errors.Wrapf(fault.ErrInvalidAmount, "core handouts: %d exceed max supply: %d", totals[constants.CoreSymbol], s.MaxCoreSupply)
	}
	for _, a := range s.InitialAssets {
		if totals[a.Symbol] > a.MaxSupply {
			return errors.Wrapf(fault.ErrInvalidAmount, "asset: %q handouts: %d exceed max supply: %d", a.Symbol, totals[a.Symbol], a.MaxSupply)
		}
	}

	if 0 == len(s.InitialWitnessCandidates) {
		return errors.Wrap(fault.ErrNoActiveWitnesses, "no witness candidates")
	}
	if 0 == s.InitialActiveWitnesses || int(s.InitialActiveWitnesses) > len(s.InitialWitnessCandidates) {
		return errors.Wrapf(fault.ErrInvalidCount, "active witnesses: %d candidates: %d", s.InitialActiveWitnesses, len(s.InitialWitnessCandidates))
	}
	for _, w := range s.InitialWitnessCandidates {
		if _, ok := names[w.OwnerName]; !ok {
			return errors.Wrapf(fault.ErrAccountNotFound, "witness: %q", w.OwnerName)
		}
	}
	for _, m := range s.InitialCommitteeCandidates {
		if _, ok := names[m.OwnerName]; !ok {
			return errors.Wrapf(fault.ErrAccountNotFound, "committee member: %q", m.OwnerName)
		}
	}
	for _, p := range s.InitialPlatforms {
		if _, ok := uids[p.Owner]; !ok {
			return errors.Wrapf(fault.ErrAccountNotFound, "platform: %q owner: %s", p.Name, p.Owner)
		}
	}
	return nil
}

// AccountUID - uid of an initial account by name
func (s *State) AccountUID(name string) (account.UID, bool) {
	for _, a := range s.InitialAccounts {
		if a.Name == name {
			return a.UID, true
		}
	}
	return 0, false
}
