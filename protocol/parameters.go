// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// ContentParameters - content, platform and advertising settings
type ContentParameters struct {
	ContentAwardInterval            uint32 `json:"content_award_interval"`
	PlatformAwardInterval           uint32 `json:"platform_award_interval"`
	MaxCSAFPerApproval              int64  `json:"max_csaf_per_approval"`
	ApprovalExpiration              uint32 `json:"approval_expiration"`
	MinEffectiveCSAF                int64  `json:"min_effective_csaf"`
	TotalContentAwardAmount         int64  `json:"total_content_award_amount"`
	TotalPlatformContentAwardAmount int64  `json:"total_platform_content_award_amount"`
	TotalPlatformVotedAwardAmount   int64  `json:"total_platform_voted_award_amount"`
	PlatformAwardMinVotes           int64  `json:"platform_award_min_votes"`
	PlatformAwardRequestedRank      uint32 `json:"platform_award_requested_rank"`
	PlatformAwardBasicRate          uint32 `json:"platform_award_basic_rate"`
	CSAFModulus                     uint32 `json:"casf_modulus"`
	PostAwardExpiration             uint32 `json:"post_award_expiration"`
	ApprovalCSAFMinWeight           uint32 `json:"approval_casf_min_weight"`
	ApprovalCSAFFirstRate           uint32 `json:"approval_casf_first_rate"`
	ApprovalCSAFSecondRate          uint32 `json:"approval_casf_second_rate"`
	ReceiptorAwardModulus           uint32 `json:"receiptor_award_modulus"`
	DisapproveAwardModulus          uint32 `json:"disapprove_award_modulus"`
	AdvertisingConfirmedFeeRate     uint32 `json:"advertising_confirmed_fee_rate"`
	AdvertisingConfirmedMinFee      int64  `json:"advertising_confirmed_min_fee"`
	CustomVoteEffectiveTime         uint32 `json:"custom_vote_effective_time"`
	MinWitnessBlockProducePledge    uint64 `json:"min_witness_block_produce_pledge"`
	ContentAwardSkipSlots           uint8  `json:"content_award_skip_slots"`
	UnlockedBalanceReleaseDelay     uint32 `json:"unlocked_balance_release_delay"`
}

// DefaultContentParameters - values used by a new chain
func DefaultContentParameters() ContentParameters {
	return ContentParameters{
		ContentAwardInterval:         constants.DefaultContentAwardInterval,
		PlatformAwardInterval:        constants.DefaultPlatformAwardInterval,
		MaxCSAFPerApproval:           constants.DefaultMaxCSAFPerApproval,
		ApprovalExpiration:           constants.DefaultApprovalExpiration,
		MinEffectiveCSAF:             constants.DefaultMinEffectiveCSAF,
		PlatformAwardMinVotes:        constants.DefaultPlatformAwardMinVotes,
		PlatformAwardRequestedRank:   constants.DefaultPlatformAwardRequestedRank,
		PlatformAwardBasicRate:       constants.DefaultPlatformAwardBasicRate,
		CSAFModulus:                  constants.DefaultCSAFModulus,
		PostAwardExpiration:          constants.DefaultPostAwardExpiration,
		ApprovalCSAFMinWeight:        constants.DefaultApprovalMinCSAFWeight,
		ApprovalCSAFFirstRate:        constants.DefaultApprovalCSAFFirstRate,
		ApprovalCSAFSecondRate:       constants.DefaultApprovalCSAFSecondRate,
		ReceiptorAwardModulus:        constants.DefaultReceiptorAwardModulus,
		DisapproveAwardModulus:       constants.DefaultDisapproveAwardModulus,
		AdvertisingConfirmedFeeRate:  constants.DefaultAdvertisingConfirmedFeeRate,
		AdvertisingConfirmedMinFee:   constants.DefaultAdvertisingConfirmedMinFee,
		CustomVoteEffectiveTime:      constants.DefaultCustomVoteEffectiveTime,
		MinWitnessBlockProducePledge: constants.DefaultMinWitnessBlockProducePledge,
		UnlockedBalanceReleaseDelay:  constants.DefaultUnlockedBalanceReleaseDelay,
	}
}

// ExtensionParameters - settings fixed at genesis
type ExtensionParameters struct {
	MaxPledgeMiningBonusRate uint16 `json:"max_pledge_mining_bonus_rate"`
	MaxInterContractDepth    uint8  `json:"max_inter_contract_depth"`
}

// ChainParameters - the committee controlled settings of the chain
//
// the fee schedule is shared between copies, it is replaced and never
// modified in place
type ChainParameters struct {
	CurrentFees                        *FeeSchedule        `json:"current_fees" pack:"-"`
	BlockInterval                      uint8               `json:"block_interval"`
	MaintenanceInterval                uint32              `json:"maintenance_interval"`
	MaintenanceSkipSlots               uint8               `json:"maintenance_skip_slots"`
	CommitteeProposalReviewPeriod      uint32              `json:"committee_proposal_review_period"`
	MaximumTransactionSize             uint32              `json:"maximum_transaction_size"`
	MaximumBlockSize                   uint32              `json:"maximum_block_size"`
	MaximumTimeUntilExpiration         uint32              `json:"maximum_time_until_expiration"`
	MaximumProposalLifetime            uint32              `json:"maximum_proposal_lifetime"`
	MaximumAssetWhitelistAuthorities   uint8               `json:"maximum_asset_whitelist_authorities"`
	MaximumAuthorityMembership         uint16              `json:"maximum_authority_membership"`
	MaxAuthorityDepth                  uint8               `json:"max_authority_depth"`
	CSAFRate                           uint64              `json:"csaf_rate"`
	MaxCSAFPerAccount                  int64               `json:"max_csaf_per_account"`
	CSAFAccumulateWindow               uint64              `json:"csaf_accumulate_window"`
	MinWitnessPledge                   uint64              `json:"min_witness_pledge"`
	MaxWitnessPledgeSeconds            uint64              `json:"max_witness_pledge_seconds"`
	WitnessAvgPledgeUpdateInterval     uint32              `json:"witness_avg_pledge_update_interval"`
	WitnessPledgeReleaseDelay          uint32              `json:"witness_pledge_release_delay"`
	MinGovernanceVotingBalance         uint64              `json:"min_governance_voting_balance"`
	MaxGovernanceVotingProxyLevel      uint8               `json:"max_governance_voting_proxy_level"`
	GovernanceVotingExpirationBlocks   uint32              `json:"governance_voting_expiration_blocks"`
	GovernanceVotesUpdateInterval      uint32              `json:"governance_votes_update_interval"`
	MaxGovernanceVotesSeconds          uint64              `json:"max_governance_votes_seconds"`
	MaxWitnessesVotedPerAccount        uint16              `json:"max_witnesses_voted_per_account"`
	MaxWitnessInactiveBlocks           uint32              `json:"max_witness_inactive_blocks"`
	ByVoteTopWitnessPayPerBlock        int64               `json:"by_vote_top_witness_pay_per_block"`
	ByVoteRestWitnessPayPerBlock       int64               `json:"by_vote_rest_witness_pay_per_block"`
	ByPledgeWitnessPayPerBlock         int64               `json:"by_pledge_witness_pay_per_block"`
	ByVoteTopWitnessCount              uint16              `json:"by_vote_top_witness_count"`
	ByVoteRestWitnessCount             uint16              `json:"by_vote_rest_witness_count"`
	ByPledgeWitnessCount               uint16              `json:"by_pledge_witness_count"`
	BudgetAdjustInterval               uint32              `json:"budget_adjust_interval"`
	BudgetAdjustTarget                 uint16              `json:"budget_adjust_target"`
	CommitteeSize                      uint8               `json:"committee_size"`
	CommitteeUpdateInterval            uint32              `json:"committee_update_interval"`
	MinCommitteeMemberPledge           uint64              `json:"min_committee_member_pledge"`
	CommitteeMemberPledgeReleaseDelay  uint32              `json:"committee_member_pledge_release_delay"`
	MaxCommitteeMembersVotedPerAccount uint16              `json:"max_committee_members_voted_per_account"`
	WitnessReportProsecutionPeriod     uint32              `json:"witness_report_prosecution_period"`
	WitnessReportAllowPreLastBlock     bool                `json:"witness_report_allow_pre_last_block"`
	WitnessReportPledgeDeductionAmount int64               `json:"witness_report_pledge_deduction_amount"`
	PlatformMinPledge                  uint64              `json:"platform_min_pledge"`
	PlatformMaxPledgeSeconds           uint64              `json:"platform_max_pledge_seconds"`
	PlatformAvgPledgeUpdateInterval    uint32              `json:"platform_avg_pledge_update_interval"`
	PlatformPledgeReleaseDelay         uint32              `json:"platform_pledge_release_delay"`
	PlatformMaxVotePerAccount          uint16              `json:"platform_max_vote_per_account"`
	Content                            ContentParameters   `json:"content_parameters"`
	Extension                          ExtensionParameters `json:"extension_parameters"`
}

// DefaultChainParameters - values used by a new chain
func DefaultChainParameters() ChainParameters {
	return ChainParameters{
		CurrentFees:                        DefaultFeeSchedule(),
		BlockInterval:                      constants.DefaultBlockInterval,
		MaintenanceInterval:                constants.DefaultMaintenanceInterval,
		MaintenanceSkipSlots:               constants.DefaultMaintenanceSkipSlots,
		CommitteeProposalReviewPeriod:      constants.DefaultProposalReviewPeriod,
		MaximumTransactionSize:             constants.DefaultMaxTransactionSize,
		MaximumBlockSize:                   constants.DefaultMaxBlockSize,
		MaximumTimeUntilExpiration:         constants.DefaultMaxTimeUntilExpire,
		MaximumProposalLifetime:            constants.DefaultMaxProposalLifetime,
		MaximumAssetWhitelistAuthorities:   constants.DefaultMaxAssetWhitelistAuth,
		MaximumAuthorityMembership:         constants.DefaultMaxAuthorityMember,
		MaxAuthorityDepth:                  constants.MaxSigCheckDepth,
		CSAFRate:                           constants.DefaultCSAFRate,
		MaxCSAFPerAccount:                  constants.DefaultMaxCSAFPerAccount,
		CSAFAccumulateWindow:               constants.DefaultCSAFAccumulateWindow,
		MinWitnessPledge:                   uint64(constants.DefaultMinWitnessPledge),
		MaxWitnessPledgeSeconds:            constants.DefaultMaxWitnessPledgeSeconds,
		WitnessAvgPledgeUpdateInterval:     constants.DefaultWitnessAvgPledgeUpdateInterval,
		WitnessPledgeReleaseDelay:          constants.DefaultWitnessPledgeReleaseDelay,
		MinGovernanceVotingBalance:         constants.DefaultMinGovernanceVotingBalance,
		MaxGovernanceVotingProxyLevel:      constants.DefaultMaxGovernanceVotingProxyLevel,
		GovernanceVotingExpirationBlocks:   constants.DefaultGovernanceVotingExpiration,
		GovernanceVotesUpdateInterval:      constants.DefaultGovernanceVotesUpdateInterval,
		MaxGovernanceVotesSeconds:          constants.DefaultMaxGovernanceVotesSeconds,
		MaxWitnessesVotedPerAccount:        constants.DefaultMaxWitnessesVotedPerAccount,
		MaxWitnessInactiveBlocks:           constants.DefaultMaxWitnessInactiveBlocks,
		ByVoteTopWitnessPayPerBlock:        constants.DefaultByVoteTopWitnessPayPerBlock,
		ByVoteRestWitnessPayPerBlock:       constants.DefaultByVoteRestWitnessPayPerBlock,
		ByPledgeWitnessPayPerBlock:         constants.DefaultByPledgeWitnessPayPerBlock,
		ByVoteTopWitnessCount:              constants.DefaultByVoteTopWitnesses,
		ByVoteRestWitnessCount:             constants.DefaultByVoteRestWitnesses,
		ByPledgeWitnessCount:               constants.DefaultByPledgeWitnesses,
		BudgetAdjustInterval:               constants.DefaultBudgetAdjustInterval,
		BudgetAdjustTarget:                 constants.DefaultBudgetAdjustTarget,
		CommitteeSize:                      constants.DefaultCommitteeSize,
		CommitteeUpdateInterval:            constants.DefaultCommitteeUpdateInterval,
		MinCommitteeMemberPledge:           constants.DefaultMinCommitteeMemberPledge,
		CommitteeMemberPledgeReleaseDelay:  constants.DefaultCommitteeMemberPledgeRelease,
		MaxCommitteeMembersVotedPerAccount: constants.DefaultMaxCommitteeMembersVotedPerAcc,
		WitnessReportProsecutionPeriod:     constants.DefaultWitnessReportProsecution,
		WitnessReportAllowPreLastBlock:     false,
		WitnessReportPledgeDeductionAmount: constants.DefaultWitnessReportPledgeDeduction,
		PlatformMinPledge:                  constants.DefaultPlatformMinPledge,
		PlatformMaxPledgeSeconds:           constants.DefaultPlatformMaxPledgeSeconds,
		PlatformAvgPledgeUpdateInterval:    constants.DefaultPlatformAvgPledgeUpdateInterval,
		PlatformPledgeReleaseDelay:         constants.DefaultPlatformPledgeReleaseDelay,
		PlatformMaxVotePerAccount:          constants.DefaultPlatformMaxVotePerAccount,
		Content:                            DefaultContentParameters(),
		Extension: ExtensionParameters{
			MaxPledgeMiningBonusRate: constants.DefaultMaxPledgeMiningBonusRate,
			MaxInterContractDepth:    constants.DefaultMaxInterContract,
		},
	}
}

// Fees - current schedule, defaults if never set
func (p *ChainParameters) Fees() *FeeSchedule {
	if nil == p.CurrentFees {
		return DefaultFeeSchedule()
	}
	return p.CurrentFees
}

// Validate - consistency of the parameter set
func (p *ChainParameters) Validate() error {
	if err := p.Fees().Validate(); nil != err {
		return err
	}
	if p.BlockInterval < constants.MinBlockInterval || p.BlockInterval > constants.MaxBlockInterval {
		return errors.Wrapf(fault.ErrInvalidParameter, "block interval: %d", p.BlockInterval)
	}
	if p.MaintenanceInterval <= uint32(p.BlockInterval) {
		return errors.Wrap(fault.ErrInvalidParameter, "maintenance interval must be longer than block interval")
	}
	if 0 != p.MaintenanceInterval%uint32(p.BlockInterval) {
		return errors.Wrap(fault.ErrInvalidParameter, "maintenance interval must be a multiple of block interval")
	}
	if p.MaximumTransactionSize < constants.MinTransactionSizeLimit {
		return errors.Wrap(fault.ErrInvalidParameter, "transaction size limit is too low")
	}
	if p.MaximumBlockSize < constants.MinBlockSizeLimit {
		return errors.Wrap(fault.ErrInvalidParameter, "block size limit is too low")
	}
	if p.MaximumTimeUntilExpiration <= uint32(p.BlockInterval) {
		return errors.Wrap(fault.ErrInvalidParameter, "maximum expiration time must be greater than a block interval")
	}
	if p.MaximumProposalLifetime <= p.CommitteeProposalReviewPeriod ||
		p.MaximumProposalLifetime-p.CommitteeProposalReviewPeriod <= uint32(p.BlockInterval) {
		return errors.Wrap(fault.ErrInvalidParameter, "review period must be less than the maximum proposal lifetime")
	}
	if p.BudgetAdjustTarget > constants.HundredPercent {
		return errors.Wrap(fault.ErrInvalidPercentage, "budget adjust target")
	}
	if 0 == p.CommitteeSize {
		return errors.Wrap(fault.ErrInvalidParameter, "committee size")
	}
	if p.Extension.MaxPledgeMiningBonusRate > constants.HundredPercent {
		return errors.Wrap(fault.ErrInvalidPercentage, "max pledge mining bonus rate")
	}
	if 0 == p.MaxAuthorityDepth {
		return errors.Wrap(fault.ErrInvalidParameter, "max authority depth")
	}
	return nil
}

// ActiveWitnessCount - size of the schedule
func (p *ChainParameters) ActiveWitnessCount() int {
	return int(p.ByVoteTopWitnessCount) + int(p.ByVoteRestWitnessCount) + int(p.ByPledgeWitnessCount)
}
