// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// object types in the protocol space
const (
	accountType           uint8 = 1
	assetType             uint8 = 2
	witnessType           uint8 = 3
	committeeMemberType   uint8 = 4
	committeeProposalType uint8 = 5
	platformType          uint8 = 6
	postType              uint8 = 7
	limitOrderType        uint8 = 8
	proposalType          uint8 = 9
	licenseType           uint8 = 10
	advertisingType       uint8 = 11
	advertisingOrderType  uint8 = 12
	customVoteType        uint8 = 13
	castCustomVoteType    uint8 = 14
	scoreType             uint8 = 15
)

// object types in the implementation space
const (
	globalPropertyType        uint8 = 0
	dynamicGlobalPropertyType uint8 = 1
	assetDynamicDataType      uint8 = 2
	accountBalanceType        uint8 = 3
	accountStatisticsType     uint8 = 4
	transactionDedupeType     uint8 = 5
	blockSummaryType          uint8 = 6
	chainPropertyType         uint8 = 7
	witnessScheduleType       uint8 = 8
	voterType                 uint8 = 9
	witnessVoteType           uint8 = 10
	committeeMemberVoteType   uint8 = 11
	platformVoteType          uint8 = 12
	registrarTakeoverType     uint8 = 13
	csafLeaseType             uint8 = 14
	accountAuthPlatformType   uint8 = 15
	pledgeBalanceType         uint8 = 16
	pledgeMiningType          uint8 = 17
	tableIDType               uint8 = 18
	keyValueType              uint8 = 19
)

// ScheduleType - the queue that put a witness in the active set
type ScheduleType uint8

// witness schedule queues
const (
	ScheduledByVoteTop ScheduleType = iota
	ScheduledByVoteRest
	ScheduledByPledge
)

// String - queue name
func (t ScheduleType) String() string {
	switch t {
	case ScheduledByVoteTop:
		return "by_vote_top"
	case ScheduledByVoteRest:
		return "by_vote_rest"
	case ScheduledByPledge:
		return "by_pledge"
	}
	return "unknown"
}

// GlobalProperty - committee controlled parameters and the current
// active sets
type GlobalProperty struct {
	objectdb.Base
	Parameters               protocol.ChainParameters
	NextCommitteeUpdateBlock uint32
	ActiveCommitteeMembers   []account.UID
	ActiveWitnesses          map[account.UID]ScheduleType
}

// DeepCopy - detach the active sets
func (g *GlobalProperty) DeepCopy() {
	g.ActiveCommitteeMembers = append([]account.UID(nil), g.ActiveCommitteeMembers...)
	w := make(map[account.UID]ScheduleType, len(g.ActiveWitnesses))
	for k, v := range g.ActiveWitnesses {
		w[k] = v
	}
	g.ActiveWitnesses = w
}

// IsActiveCommitteeMember - uid is in the current committee
func (g *GlobalProperty) IsActiveCommitteeMember(uid account.UID) bool {
	for _, m := range g.ActiveCommitteeMembers {
		if m == uid {
			return true
		}
	}
	return false
}

// dynamic flags
const (
	maintenanceFlag = uint32(0x01)
)

// DynamicGlobalProperty - values that change with every block
type DynamicGlobalProperty struct {
	objectdb.Base
	HeadBlockNumber             uint32
	HeadBlockID                 protocol.BlockID
	Time                        protocol.Timestamp
	CurrentWitness              account.UID
	CurrentAslot                uint64
	RecentSlotsFilled           uint128.Uint128
	RecentlyMissedCount         uint32
	DynamicFlags                uint32
	NextMaintenanceTime         protocol.Timestamp
	LastBudgetTime              protocol.Timestamp
	LastIrreversibleBlockNum    uint32
	TotalBudgetPerBlock         int64
	BudgetPool                  int64
	NextBudgetAdjustBlock       uint32
	TotalWitnessPledge          int64
	NextCommitteeProposalNumber uint64
	LastPledgeBonusSettleBlock  uint32
}

// IsMaintenance - the head block ran maintenance
func (d *DynamicGlobalProperty) IsMaintenance() bool {
	return 0 != d.DynamicFlags&maintenanceFlag
}

// ChainProperty - values fixed at genesis
type ChainProperty struct {
	objectdb.Base
	ChainID                 protocol.ChainID
	MinCommitteeMemberCount uint16
	MinWitnessCount         uint16
	GenesisTime             protocol.Timestamp
}

// WitnessSchedule - the shuffled producer order and the virtual
// time cursors of the two queues
type WitnessSchedule struct {
	objectdb.Base
	CurrentShuffledWitnesses []account.UID
	CurrentByVoteTime        uint128.Uint128
	CurrentByPledgeTime      uint128.Uint128
	NextScheduleBlockNum     uint32
}

// DeepCopy - detach the producer order
func (w *WitnessSchedule) DeepCopy() {
	w.CurrentShuffledWitnesses = append([]account.UID(nil), w.CurrentShuffledWitnesses...)
}

// TransactionDedupe - ids of recent transactions, kept until expiry
type TransactionDedupe struct {
	objectdb.Base
	TrxID      protocol.TransactionID
	Expiration protocol.Timestamp
}

// BlockSummary - id of a recent block for reference checks, one per
// slot of the low 16 bits of the block number
type BlockSummary struct {
	objectdb.Base
	Slot    uint16
	BlockID protocol.BlockID
}
