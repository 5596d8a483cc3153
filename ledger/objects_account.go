// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// Account - identity, authorities and contract code
type Account struct {
	objectdb.Base
	UID            account.UID
	Name           string
	Owner          authority.Authority
	Active         authority.Authority
	Secondary      authority.Authority
	MemoKey        keypair.PublicKey
	RegInfo        protocol.RegInfo
	CanPost        bool
	CanReply       bool
	CanRate        bool
	IsFullMember   bool
	IsRegistrar    bool
	IsAdmin        bool
	CreateTime     protocol.Timestamp
	LastUpdateTime protocol.Timestamp

	// accounts that listed this one and the ones this one listed
	WhitelistingAccounts map[account.UID]struct{}
	BlacklistingAccounts map[account.UID]struct{}
	WhitelistedAccounts  map[account.UID]struct{}
	BlacklistedAccounts  map[account.UID]struct{}

	// nil when the account accepts every asset
	AllowedAssets map[protocol.AssetAID]struct{}

	VMType      string
	VMVersion   string
	Code        []byte
	CodeVersion [32]byte
	ABI         *protocol.ABI
}

func copyUIDSet(m map[account.UID]struct{}) map[account.UID]struct{} {
	if nil == m {
		return nil
	}
	n := make(map[account.UID]struct{}, len(m))
	for k := range m {
		n[k] = struct{}{}
	}
	return n
}

// DeepCopy - detach the listing sets and code
//
// authorities are replaced whole, never modified in place
func (a *Account) DeepCopy() {
	a.WhitelistingAccounts = copyUIDSet(a.WhitelistingAccounts)
	a.BlacklistingAccounts = copyUIDSet(a.BlacklistingAccounts)
	a.WhitelistedAccounts = copyUIDSet(a.WhitelistedAccounts)
	a.BlacklistedAccounts = copyUIDSet(a.BlacklistedAccounts)
	if nil != a.AllowedAssets {
		n := make(map[protocol.AssetAID]struct{}, len(a.AllowedAssets))
		for k := range a.AllowedAssets {
			n[k] = struct{}{}
		}
		a.AllowedAssets = n
	}
	a.Code = append([]byte(nil), a.Code...)
}

// IsAuthorizedAsset - the account may hold the asset
func (a *Account) IsAuthorizedAsset(aid protocol.AssetAID) bool {
	if nil == a.AllowedAssets || protocol.AssetAID(0) == aid {
		return true
	}
	_, ok := a.AllowedAssets[aid]
	return ok
}

// IsContract - code has been deployed
func (a *Account) IsContract() bool {
	return 0 != len(a.Code)
}

// AccountBalance - holding of a non-core asset
//
// core balances are kept in AccountStatistics
type AccountBalance struct {
	objectdb.Base
	Owner   account.UID
	AssetID protocol.AssetAID
	Balance int64
}

// AccountStatistics - the frequently changing part of an account
type AccountStatistics struct {
	objectdb.Base
	Owner    account.UID
	TotalOps uint64

	CoreBalance       int64
	Prepaid           int64
	CSAF              int64
	CoreLeasedIn      int64
	CoreLeasedOut     int64
	TotalCoreInOrders int64

	AverageCoins                int64
	AverageCoinsLastUpdate      protocol.Timestamp
	CoinSecondsEarned           uint128.Uint128
	CoinSecondsEarnedLastUpdate protocol.Timestamp

	LastWitnessSequence         uint32
	LastCommitteeMemberSequence uint32
	LastPlatformSequence        uint32
	LastVoterSequence           uint32
	LastPostSequence            uint64
	LastCustomVoteSequence      uint64
	LastAdvertisingSequence     uint64
	LastLicenseSequence         uint64

	CanVote bool
	IsVoter bool

	UncollectedWitnessPay  int64
	UncollectedPledgeBonus int64
	UncollectedScoreBonus  int64
	UncollectedMarketFees  map[protocol.AssetAID]int64

	WitnessLastConfirmedBlockNum uint32
	WitnessLastAslot             uint64
	WitnessTotalProduced         uint32
	WitnessTotalMissed           uint32
	WitnessLastReportedBlockNum  uint32
	WitnessTotalReported         uint32

	Beneficiary account.UID
	RAMBytes    int64
}

// DeepCopy - detach market fees
func (s *AccountStatistics) DeepCopy() {
	if nil == s.UncollectedMarketFees {
		return
	}
	n := make(map[protocol.AssetAID]int64, len(s.UncollectedMarketFees))
	for k, v := range s.UncollectedMarketFees {
		n[k] = v
	}
	s.UncollectedMarketFees = n
}

// AccountAuthPlatform - a platform allowed to act for an account
type AccountAuthPlatform struct {
	objectdb.Base
	Account          account.UID
	Platform         account.UID
	LimitForPlatform int64
	CurUsed          int64
	PermissionFlags  uint32
	Memo             string
}

// Allows - every bit of flags is granted
func (a *AccountAuthPlatform) Allows(flags uint32) bool {
	return a.PermissionFlags&flags == flags
}

// RegistrarTakeover - accounts of a retired registrar are managed by
// another registrar
type RegistrarTakeover struct {
	objectdb.Base
	OriginalRegistrar account.UID
	TakeoverRegistrar account.UID
}

// CSAFLease - csaf earning power lent until an expiry
type CSAFLease struct {
	objectdb.Base
	From       account.UID
	To         account.UID
	Amount     int64
	Expiration protocol.Timestamp
}
