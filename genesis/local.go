// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package genesis

import (
	"fmt"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// first instance used by the local initial accounts
const localFirstInstance = 25638

// LocalUID - uid of the n'th local initial account
func LocalUID(n int) account.UID {
	return account.CalculateUID(uint64(localFirstInstance + n))
}

// Local - a chain where witnesses accounts "init0".. share one key,
// each funded with balance, plus the ram account used by contracts
func Local(key keypair.PublicKey, timestamp protocol.Timestamp, witnesses int, balance int64) *State {
	params := protocol.DefaultChainParameters()
	params.CurrentFees = protocol.DefaultFeeSchedule()

	interval := protocol.Timestamp(params.BlockInterval)
	s := &State{
		InitialTimestamp:  timestamp / interval * interval,
		MaxCoreSupply:     constants.MaxShareSupply,
		InitialParameters: params,
		ImmutableParameters: ImmutableParameters{
			MinCommitteeMemberCount: 1,
			MinWitnessCount:         1,
		},
		InitialActiveWitnesses: uint32(witnesses),
	}
	for i := 0; i < witnesses; i += 1 {
		name := fmt.Sprintf("init%d", i)
		uid := LocalUID(i)
		s.InitialAccounts = append(s.InitialAccounts, Account{
			UID:          uid,
			Name:         name,
			OwnerKey:     key,
			Registrar:    account.NullAccount,
			IsRegistrar:  true,
			IsFullMember: true,
		})
		s.InitialWitnessCandidates = append(s.InitialWitnessCandidates, Witness{
			OwnerName:       name,
			BlockSigningKey: key,
		})
		s.InitialCommitteeCandidates = append(s.InitialCommitteeCandidates, CommitteeMember{
			OwnerName: name,
		})
		if balance > 0 {
			s.InitialAccountBalances = append(s.InitialAccountBalances, Balance{
				UID:         uid,
				AssetSymbol: constants.CoreSymbol,
				Amount:      balance,
			})
		}
	}
	s.InitialAccounts = append(s.InitialAccounts, Account{
		UID:       LocalUID(witnesses),
		Name:      constants.RAMAccountName,
		OwnerKey:  key,
		Registrar: account.NullAccount,
	})
	return s
}
