// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constants

import (
	"time"
)

// core asset
const (
	CoreSymbol          = "YOYO"
	AddressPrefix       = "YYW"
	CorePrecisionDigits = 5
	CorePrecision       = int64(100000)
	CoreAssetAID        = uint64(0)
)

// supply and percentage limits
const (
	MaxShareSupply   = int64(1000000000000000)
	MaxPayRate       = 10000
	HundredPercent   = 10000
	OnePercent       = HundredPercent / 100
	MaxMarketFee     = HundredPercent
	MaxSigCheckDepth = 2
	MaxInstanceID    = uint64(0xffffffffffff)
	MaxURLLength     = 127
	MaxNestedObjects = 200
)

// name and symbol lengths
const (
	MinAccountNameLength       = 2
	MaxAccountNameLength       = 63
	MaxPlatformNameLength      = 100
	MaxPlatformExtraDataLength = 1000
	MinAssetSymbolLength       = 3
	MaxAssetSymbolLength       = 16
	MaxAssetPrecision          = 12
)

// block and transaction limits
const (
	MinTransactionSizeLimit      = 1024
	MinBlockInterval             = 1
	MaxBlockInterval             = 30
	DefaultBlockInterval         = 3
	DefaultMaxTransactionSize    = 65536
	DefaultMaxBlockSize          = DefaultMaxTransactionSize * 16 * DefaultBlockInterval
	DefaultMaxTimeUntilExpire    = 60 * 60 * 24
	DefaultMaintenanceInterval   = 60 * 60 * 24
	DefaultMaintenanceSkipSlots  = 0
	MinUndoHistory               = 10
	MaxUndoHistory               = 10000
	MinBlockSizeLimit            = MinTransactionSizeLimit * 5
	MinTransactionExpireLimit    = MaxBlockInterval * 5
	DefaultMaxAuthorityMember    = 10
	DefaultMaxAssetWhitelistAuth = 10
	DefaultMaxProposalLifetime   = 60 * 60 * 24 * 7 * 4
	DefaultProposalReviewPeriod  = 60 * 60 * 24 * 7 * 2
	DefaultMaxWitnesses          = 1001
	DefaultMaxCommittee          = 1001
)

// csaf
const (
	DefaultCSAFRate             = uint64(86400) * 10000
	DefaultMaxCSAFPerAccount    = CorePrecision * 1000
	DefaultCSAFAccumulateWindow = 60 * 60 * 24 * 7
	MaxCSAFCollectingTimeOffset = 300
)

// witnesses
const (
	DefaultMinWitnessPledge               = CorePrecision * 10000
	DefaultMaxWitnessPledgeSeconds        = 60 * 60 * 24 * 7
	DefaultWitnessAvgPledgeUpdateInterval = 1200
	DefaultWitnessPledgeReleaseDelay      = 28800
	DefaultMaxWitnessesVotedPerAccount    = 101
	DefaultMaxWitnessInactiveBlocks       = 28800
	DefaultByVoteTopWitnessPayPerBlock    = CorePrecision
	DefaultByVoteRestWitnessPayPerBlock   = CorePrecision
	DefaultByPledgeWitnessPayPerBlock     = CorePrecision / 2
	DefaultByVoteTopWitnesses             = 9
	DefaultByVoteRestWitnesses            = 1
	DefaultByPledgeWitnesses              = 1
	DefaultWitnessReportProsecution       = 28800
	DefaultWitnessReportPledgeDeduction   = CorePrecision * 1000
	DefaultMinWitnessBlockProducePledge   = uint64(CorePrecision * 10000)
	DefaultMaxPledgeMiningBonusRate       = 80 * OnePercent
)

// governance
const (
	DefaultMinGovernanceVotingBalance     = uint64(CorePrecision * 10000)
	DefaultMaxGovernanceVotingProxyLevel  = 4
	DefaultGovernanceVotingExpiration     = 28800 * 90
	DefaultGovernanceVotesUpdateInterval  = 28800
	DefaultMaxGovernanceVotesSeconds      = 60 * 60 * 24 * 60
	MinGovernanceVotingExpirationBlocks   = 28800
	MaxExpiredVotersToProcessPerBlock     = 10000
	MaxResignedWitnessVotesPerBlock       = 10000
	MaxResignedCommitteeVotesPerBlock     = 10000
	MaxResignedPlatformVotesPerBlock      = 10000
	DefaultBudgetAdjustInterval           = 28800 * 365
	DefaultBudgetAdjustTarget             = 10 * OnePercent
	DefaultCommitteeSize                  = 5
	DefaultCommitteeUpdateInterval        = 28800 * 30
	DefaultMinCommitteeMemberPledge       = uint64(CorePrecision * 1000)
	DefaultCommitteeMemberPledgeRelease   = 28800
	DefaultMaxCommitteeMembersVotedPerAcc = 1
)

// platforms and content
const (
	DefaultPlatformMinPledge               = uint64(CorePrecision * 10000)
	DefaultPlatformMaxPledgeSeconds        = 60 * 60 * 24 * 7
	DefaultPlatformAvgPledgeUpdateInterval = 1200
	DefaultPlatformPledgeReleaseDelay      = 28800
	DefaultPlatformMaxVotePerAccount       = 10
	DefaultContentAwardInterval            = 60 * 60 * 24 * 7
	DefaultPlatformAwardInterval           = 60 * 60 * 24 * 30
	DefaultMaxCSAFPerApproval              = CorePrecision * 1000
	DefaultApprovalExpiration              = 60 * 60 * 24 * 365
	DefaultMinEffectiveCSAF                = CorePrecision * 100
	DefaultPlatformAwardMinVotes           = 10
	DefaultPlatformAwardRequestedRank      = 100
	DefaultPlatformAwardBasicRate          = 20 * OnePercent
	DefaultCSAFModulus                     = 10 * OnePercent
	DefaultPostAwardExpiration             = 60 * 60 * 24 * 30
	DefaultApprovalMinCSAFWeight           = 10 * OnePercent
	DefaultApprovalCSAFFirstRate           = 30 * OnePercent
	DefaultApprovalCSAFSecondRate          = 70 * OnePercent
	DefaultReceiptorAwardModulus           = 80 * OnePercent
	DefaultDisapproveAwardModulus          = 120 * OnePercent
	DefaultAdvertisingConfirmedFeeRate     = 10 * OnePercent
	DefaultAdvertisingConfirmedMinFee      = CorePrecision
	DefaultCustomVoteEffectiveTime         = 60 * 60 * 24 * 30
	DefaultUnlockedBalanceReleaseDelay     = 28800 * 3
	DefaultPlatformReceiptsRatio           = 30 * OnePercent
	AdvertisingConfirmTime                 = 60 * 60 * 24 * 7
	MaxPlatformLimitPrepaid                = CorePrecision * 1000000000
	DefaultPostReceiptorRatio              = 75 * OnePercent
	MaxPostReceiptors                      = 5
	MinPostReceiptorRatio                  = 25 * OnePercent
)

// committee proposal pass thresholds per 10000
const (
	CPPTFeeDefault                          = uint16(5001)
	CPPTFeeCommitteeMemberCreate            = uint16(8500)
	CPPTAccountCanVote                      = uint16(6500)
	CPPTAccountIsAdmin                      = uint16(5001)
	CPPTAccountIsRegistrar                  = uint16(6500)
	CPPTAccountTakeoverRegistrar            = uint16(6500)
	CPPTParamMaxTrxSize                     = uint16(5001)
	CPPTParamMaxBlockSize                   = uint16(5001)
	CPPTParamMaxExpirationTime              = uint16(5001)
	CPPTParamMaxAuthorityMembership         = uint16(7500)
	CPPTParamMaxAuthorityDepth              = uint16(7500)
	CPPTParamCSAFRate                       = uint16(5001)
	CPPTParamMaxCSAFPerAccount              = uint16(5001)
	CPPTParamCSAFAccumulateWindow           = uint16(5001)
	CPPTParamMinWitnessPledge               = uint16(6500)
	CPPTParamMaxWitnessPledgeSeconds        = uint16(6500)
	CPPTParamAvgWitnessPledgeUpdateInterval = uint16(5001)
	CPPTParamWitnessPledgeReleaseDelay      = uint16(5001)
	CPPTParamMinGovernanceVotingBalance     = uint16(6500)
	CPPTParamGovernanceVotingExpiration     = uint16(6500)
	CPPTParamGovernanceVotesUpdateInterval  = uint16(5001)
	CPPTParamMaxGovernanceVotesSeconds      = uint16(6500)
	CPPTParamMaxWitnessesVotedPerAccount    = uint16(6500)
	CPPTParamMaxWitnessInactiveBlocks       = uint16(6500)
	CPPTParamByVoteTopWitnessPay            = uint16(6500)
	CPPTParamByVoteRestWitnessPay           = uint16(6500)
	CPPTParamByPledgeWitnessPay             = uint16(6500)
	CPPTParamByVoteTopWitnessCount          = uint16(6500)
	CPPTParamByVoteRestWitnessCount         = uint16(6500)
	CPPTParamByPledgeWitnessCount           = uint16(6500)
	CPPTParamBudgetAdjustInterval           = uint16(8500)
	CPPTParamBudgetAdjustTarget             = uint16(8500)
	CPPTParamMinCommitteeMemberPledge       = uint16(8500)
	CPPTParamCommitteeMemberPledgeRelease   = uint16(8500)
	CPPTParamWitnessReportProsecution       = uint16(6500)
	CPPTParamWitnessReportAllowPreLastBlock = uint16(6500)
	CPPTParamWitnessReportPledgeDeduction   = uint16(6500)
	CPPTParamPlatformMinPledge              = uint16(6500)
	CPPTParamPlatformPledgeReleaseDelay     = uint16(6500)
	CPPTParamPlatformMaxVotePerAccount      = uint16(6500)
	CPPTParamPlatformMaxPledgeSeconds       = uint16(6500)
	CPPTParamPlatformAvgPledgeUpdate        = uint16(6500)
	CPPTParamContent                        = uint16(6500)
)

// contracts
const (
	RAMAccountName          = "ramaccount"
	DefaultMaxTrxCPUTime    = 100 * time.Millisecond
	MaxProducerCPUTime      = 3 * time.Second
	DefaultPricePerMsCPU    = 0
	DefaultPricePerKbyteRAM = CorePrecision
	BillableAlignment       = 16
	OverheadPerRowPerIndex  = 32
	KeyValueBillableSize    = ((32 + 8 + 4 + 2*OverheadPerRowPerIndex + BillableAlignment - 1) / BillableAlignment) * BillableAlignment
	TableIDBillableSize     = ((44 + 2*OverheadPerRowPerIndex + BillableAlignment - 1) / BillableAlignment) * BillableAlignment
	MaxInlineActionDepth    = 4
	DefaultMaxInterContract = 3
	MaxLinearMemoryBytes    = 33 * 1024 * 1024
	WasmPageSize            = 64 * 1024
	MaxWasmMemoryPages      = MaxLinearMemoryBytes / WasmPageSize
	MaxActionDataSize       = 1024 * 512
)

// schedule
const (
	ShuffleConstant  = uint64(2685821657736338717)
	IrreversiblePart = 75 * OnePercent
	MissedCountUp    = 4
	MissedCountDown  = 3
	DatabaseVersion  = "YYW1.1"
)

// pending transaction pool timing
const (
	ReservoirTimeout    = 24 * time.Hour
	RebroadcastInterval = 1 * time.Minute
)

// pledge mining
const (
	PledgeBonusPrecision               = uint64(100000000)
	PledgeBonusSettleInterval          = 10000
	DefaultMinPledgeToWitness          = CorePrecision * 1000
	DefaultPledgeToWitnessReleaseDelay = 28800
)

// limit orders and proposals
const (
	MaxProposalOpsDepth = 2
	NeverBlock          = ^uint32(0)
)
