// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// CommitteeMemberCreate - stand for the committee
type CommitteeMemberCreate struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Pledge     Asset           `json:"pledge"`
	URL        string          `json:"url"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CommitteeMemberCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the candidate
func (op *CommitteeMemberCreate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *CommitteeMemberCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "committee member"); nil != err {
		return err
	}
	if err := validateNonNegativeCore(op.Pledge, "pledge"); nil != err {
		return err
	}
	return validateURL(op.URL)
}

// Required - account active
func (op *CommitteeMemberCreate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *CommitteeMemberCreate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// CommitteeMemberUpdate - change pledge or url, a zero pledge resigns
type CommitteeMemberUpdate struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	NewPledge  *Asset          `json:"new_pledge,omitempty"`
	NewURL     *string         `json:"new_url,omitempty"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CommitteeMemberUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the member
func (op *CommitteeMemberUpdate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *CommitteeMemberUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "committee member"); nil != err {
		return err
	}
	if nil == op.NewPledge && nil == op.NewURL {
		return fault.ErrNoChange
	}
	if nil != op.NewPledge {
		if err := validateNonNegativeCore(*op.NewPledge, "new pledge"); nil != err {
			return err
		}
	}
	if nil != op.NewURL {
		return validateURL(*op.NewURL)
	}
	return nil
}

// Required - account active
func (op *CommitteeMemberUpdate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *CommitteeMemberUpdate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// CommitteeMemberVoteUpdate - change the members a voter supports
type CommitteeMemberVoteUpdate struct {
	FeeBundle                FeeBundle       `json:"fee"`
	Voter                    account.UID     `json:"voter"`
	CommitteeMembersToAdd    []account.UID   `json:"committee_members_to_add"`
	CommitteeMembersToRemove []account.UID   `json:"committee_members_to_remove"`
	Extensions               *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CommitteeMemberVoteUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - voter
func (op *CommitteeMemberVoteUpdate) FeePayer() account.UID { return op.Voter }

// Validate - stateless checks, empty lists refresh the vote
func (op *CommitteeMemberVoteUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Voter, "voter"); nil != err {
		return err
	}
	return validateVoteChange(op.CommitteeMembersToAdd, op.CommitteeMembersToRemove, "committee member")
}

// Required - voter active
func (op *CommitteeMemberVoteUpdate) Required(r *authority.Required) {
	r.Add(op.Voter, authority.Active)
}

// CalculateFee - flat
func (op *CommitteeMemberVoteUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee, nil
}

// VotingOpinion - a committee member's stance on a proposal
type VotingOpinion int8

// opinions
const (
	OpinionAgainst = VotingOpinion(-1)
	OpinionNeutral = VotingOpinion(0)
	OpinionFor     = VotingOpinion(1)
)

// Validate - one of the three opinions
func (o VotingOpinion) Validate() error {
	if o < OpinionAgainst || o > OpinionFor {
		return errors.Wrapf(fault.ErrInvalidParameter, "opinion: %d", o)
	}
	return nil
}

// CommitteeProposalItem - one change carried by a committee proposal
type CommitteeProposalItem interface {
	Validate() error

	// Threshold - approval ratio in 1/10000 needed by this change
	Threshold() uint16
}

// AccountPrivilegeOptions - privileges the committee can set
type AccountPrivilegeOptions struct {
	CanVote           *bool        `json:"can_vote,omitempty"`
	IsAdmin           *bool        `json:"is_admin,omitempty"`
	IsRegistrar       *bool        `json:"is_registrar,omitempty"`
	TakeoverRegistrar *account.UID `json:"takeover_registrar,omitempty"`
}

// AccountPrivilegeItem - change an account's privileges
type AccountPrivilegeItem struct {
	Account       account.UID             `json:"account"`
	NewPrivileges AccountPrivilegeOptions `json:"new_priviledges" pack:"ext"`
}

// Validate - something must change
func (item *AccountPrivilegeItem) Validate() error {
	if err := validateUID(item.Account, "privilege account"); nil != err {
		return err
	}
	o := item.NewPrivileges
	if nil == o.CanVote && nil == o.IsAdmin && nil == o.IsRegistrar && nil == o.TakeoverRegistrar {
		return fault.ErrNoChange
	}
	if nil != o.TakeoverRegistrar {
		if nil == o.IsRegistrar || *o.IsRegistrar {
			return errors.Wrap(fault.ErrInvalidParameter, "takeover registrar is only valid when revoking registrar")
		}
		if err := validateUID(*o.TakeoverRegistrar, "takeover registrar"); nil != err {
			return err
		}
	}
	return nil
}

// Threshold - strictest of the changed privileges
func (item *AccountPrivilegeItem) Threshold() uint16 {
	o := item.NewPrivileges
	return maxThreshold(
		nil != o.CanVote, constants.CPPTAccountCanVote,
		nil != o.IsAdmin, constants.CPPTAccountIsAdmin,
		nil != o.IsRegistrar, constants.CPPTAccountIsRegistrar,
		nil != o.TakeoverRegistrar, constants.CPPTAccountTakeoverRegistrar,
	)
}

// FeeScheduleItem - replace fee parameters
type FeeScheduleItem struct {
	Parameters []FeeEntry `json:"parameters"`
	Scale      uint32     `json:"scale"`
}

// Validate - every entry must name a user operation
func (item *FeeScheduleItem) Validate() error {
	if 0 == len(item.Parameters) {
		return fault.ErrNoChange
	}
	seen := make(map[VarUint]struct{}, len(item.Parameters))
	for _, e := range item.Parameters {
		if Tag(e.Tag) >= TagCount || IsVirtual(Tag(e.Tag)) {
			return errors.Wrapf(fault.ErrUnknownOperation, "fee schedule tag: %d", e.Tag)
		}
		if _, ok := seen[e.Tag]; ok {
			return errors.Wrapf(fault.ErrInvalidParameter, "duplicate fee schedule tag: %d", e.Tag)
		}
		seen[e.Tag] = struct{}{}
		if e.Parameters.MinRFPercent > constants.HundredPercent {
			return fault.ErrInvalidPercentage
		}
	}
	return nil
}

// Threshold - committee_member_create fees need a larger majority
func (item *FeeScheduleItem) Threshold() uint16 {
	t := constants.CPPTFeeDefault
	for _, e := range item.Parameters {
		if CommitteeMemberCreateTag == Tag(e.Tag) && t < constants.CPPTFeeCommitteeMemberCreate {
			t = constants.CPPTFeeCommitteeMemberCreate
		}
	}
	return t
}

// Apply - new schedule derived from the current one
func (item *FeeScheduleItem) Apply(current *FeeSchedule) *FeeSchedule {
	scale := item.Scale
	return current.Update(item.Parameters, &scale)
}

// GlobalParameterUpdates - parameters the committee may change, only
// the present fields are replaced
type GlobalParameterUpdates struct {
	MaximumTransactionSize             *uint32 `json:"maximum_transaction_size,omitempty"`
	MaximumBlockSize                   *uint32 `json:"maximum_block_size,omitempty"`
	MaximumTimeUntilExpiration         *uint32 `json:"maximum_time_until_expiration,omitempty"`
	MaximumAuthorityMembership         *uint16 `json:"maximum_authority_membership,omitempty"`
	MaxAuthorityDepth                  *uint8  `json:"max_authority_depth,omitempty"`
	CSAFRate                           *uint64 `json:"csaf_rate,omitempty"`
	MaxCSAFPerAccount                  *int64  `json:"max_csaf_per_account,omitempty"`
	CSAFAccumulateWindow               *uint64 `json:"csaf_accumulate_window,omitempty"`
	MinWitnessPledge                   *uint64 `json:"min_witness_pledge,omitempty"`
	MaxWitnessPledgeSeconds            *uint64 `json:"max_witness_pledge_seconds,omitempty"`
	WitnessAvgPledgeUpdateInterval     *uint32 `json:"witness_avg_pledge_update_interval,omitempty"`
	WitnessPledgeReleaseDelay          *uint32 `json:"witness_pledge_release_delay,omitempty"`
	MinGovernanceVotingBalance         *uint64 `json:"min_governance_voting_balance,omitempty"`
	GovernanceVotingExpirationBlocks   *uint32 `json:"governance_voting_expiration_blocks,omitempty"`
	GovernanceVotesUpdateInterval      *uint32 `json:"governance_votes_update_interval,omitempty"`
	MaxGovernanceVotesSeconds          *uint64 `json:"max_governance_votes_seconds,omitempty"`
	MaxWitnessesVotedPerAccount        *uint16 `json:"max_witnesses_voted_per_account,omitempty"`
	MaxWitnessInactiveBlocks           *uint32 `json:"max_witness_inactive_blocks,omitempty"`
	ByVoteTopWitnessPayPerBlock        *int64  `json:"by_vote_top_witness_pay_per_block,omitempty"`
	ByVoteRestWitnessPayPerBlock       *int64  `json:"by_vote_rest_witness_pay_per_block,omitempty"`
	ByPledgeWitnessPayPerBlock         *int64  `json:"by_pledge_witness_pay_per_block,omitempty"`
	ByVoteTopWitnessCount              *uint16 `json:"by_vote_top_witness_count,omitempty"`
	ByVoteRestWitnessCount             *uint16 `json:"by_vote_rest_witness_count,omitempty"`
	ByPledgeWitnessCount               *uint16 `json:"by_pledge_witness_count,omitempty"`
	BudgetAdjustInterval               *uint32 `json:"budget_adjust_interval,omitempty"`
	BudgetAdjustTarget                 *uint16 `json:"budget_adjust_target,omitempty"`
	MinCommitteeMemberPledge           *uint64 `json:"min_committee_member_pledge,omitempty"`
	CommitteeMemberPledgeReleaseDelay  *uint32 `json:"committee_member_pledge_release_delay,omitempty"`
	WitnessReportProsecutionPeriod     *uint32 `json:"witness_report_prosecution_period,omitempty"`
	WitnessReportAllowPreLastBlock     *bool   `json:"witness_report_allow_pre_last_block,omitempty"`
	WitnessReportPledgeDeductionAmount *int64  `json:"witness_report_pledge_deduction_amount,omitempty"`
	PlatformMinPledge                  *uint64 `json:"platform_min_pledge,omitempty"`
	PlatformPledgeReleaseDelay         *uint32 `json:"platform_pledge_release_delay,omitempty"`
	PlatformMaxVotePerAccount          *uint8  `json:"platform_max_vote_per_account,omitempty"`
	PlatformMaxPledgeSeconds           *uint64 `json:"platform_max_pledge_seconds,omitempty"`
	PlatformAvgPledgeUpdateInterval    *uint32 `json:"platform_avg_pledge_update_interval,omitempty"`
}

// GlobalParameterItem - change chain parameters
type GlobalParameterItem struct {
	Value GlobalParameterUpdates `json:"value" pack:"ext"`
}

// Validate - each present field individually
func (item *GlobalParameterItem) Validate() error {
	v := &item.Value
	changed := false
	check := func(present bool, ok bool, name string) error {
		if !present {
			return nil
		}
		changed = true
		if !ok {
			return errors.Wrapf(fault.ErrInvalidParameter, "%s", name)
		}
		return nil
	}
	err := firstError(
		check(nil != v.MaximumTransactionSize, nil == v.MaximumTransactionSize || *v.MaximumTransactionSize >= constants.MinTransactionSizeLimit, "maximum_transaction_size"),
		check(nil != v.MaximumBlockSize, nil == v.MaximumBlockSize || *v.MaximumBlockSize >= constants.MinBlockSizeLimit, "maximum_block_size"),
		check(nil != v.MaximumTimeUntilExpiration, nil == v.MaximumTimeUntilExpiration || *v.MaximumTimeUntilExpiration >= constants.MinTransactionExpireLimit, "maximum_time_until_expiration"),
		check(nil != v.MaximumAuthorityMembership, nil == v.MaximumAuthorityMembership || *v.MaximumAuthorityMembership > 0, "maximum_authority_membership"),
		check(nil != v.MaxAuthorityDepth, nil == v.MaxAuthorityDepth || *v.MaxAuthorityDepth > 0, "max_authority_depth"),
		check(nil != v.CSAFRate, nil == v.CSAFRate || *v.CSAFRate > 0, "csaf_rate"),
		check(nil != v.MaxCSAFPerAccount, nil == v.MaxCSAFPerAccount || *v.MaxCSAFPerAccount > 0, "max_csaf_per_account"),
		check(nil != v.CSAFAccumulateWindow, nil == v.CSAFAccumulateWindow || *v.CSAFAccumulateWindow > 0, "csaf_accumulate_window"),
		check(nil != v.MinWitnessPledge, true, "min_witness_pledge"),
		check(nil != v.MaxWitnessPledgeSeconds, nil == v.MaxWitnessPledgeSeconds || *v.MaxWitnessPledgeSeconds > 0, "max_witness_pledge_seconds"),
		check(nil != v.WitnessAvgPledgeUpdateInterval, nil == v.WitnessAvgPledgeUpdateInterval || *v.WitnessAvgPledgeUpdateInterval > 0, "witness_avg_pledge_update_interval"),
		check(nil != v.WitnessPledgeReleaseDelay, true, "witness_pledge_release_delay"),
		check(nil != v.MinGovernanceVotingBalance, true, "min_governance_voting_balance"),
		check(nil != v.GovernanceVotingExpirationBlocks, nil == v.GovernanceVotingExpirationBlocks || *v.GovernanceVotingExpirationBlocks >= constants.MinGovernanceVotingExpirationBlocks, "governance_voting_expiration_blocks"),
		check(nil != v.GovernanceVotesUpdateInterval, nil == v.GovernanceVotesUpdateInterval || *v.GovernanceVotesUpdateInterval > 0, "governance_votes_update_interval"),
		check(nil != v.MaxGovernanceVotesSeconds, nil == v.MaxGovernanceVotesSeconds || *v.MaxGovernanceVotesSeconds > 0, "max_governance_votes_seconds"),
		check(nil != v.MaxWitnessesVotedPerAccount, nil == v.MaxWitnessesVotedPerAccount || *v.MaxWitnessesVotedPerAccount > 0, "max_witnesses_voted_per_account"),
		check(nil != v.MaxWitnessInactiveBlocks, nil == v.MaxWitnessInactiveBlocks || *v.MaxWitnessInactiveBlocks > 0, "max_witness_inactive_blocks"),
		check(nil != v.ByVoteTopWitnessPayPerBlock, nil == v.ByVoteTopWitnessPayPerBlock || *v.ByVoteTopWitnessPayPerBlock >= 0, "by_vote_top_witness_pay_per_block"),
		check(nil != v.ByVoteRestWitnessPayPerBlock, nil == v.ByVoteRestWitnessPayPerBlock || *v.ByVoteRestWitnessPayPerBlock >= 0, "by_vote_rest_witness_pay_per_block"),
		check(nil != v.ByPledgeWitnessPayPerBlock, nil == v.ByPledgeWitnessPayPerBlock || *v.ByPledgeWitnessPayPerBlock >= 0, "by_pledge_witness_pay_per_block"),
		check(nil != v.ByVoteTopWitnessCount, true, "by_vote_top_witness_count"),
		check(nil != v.ByVoteRestWitnessCount, true, "by_vote_rest_witness_count"),
		check(nil != v.ByPledgeWitnessCount, true, "by_pledge_witness_count"),
		check(nil != v.BudgetAdjustInterval, nil == v.BudgetAdjustInterval || *v.BudgetAdjustInterval > 0, "budget_adjust_interval"),
		check(nil != v.BudgetAdjustTarget, nil == v.BudgetAdjustTarget || *v.BudgetAdjustTarget <= constants.HundredPercent, "budget_adjust_target"),
		check(nil != v.MinCommitteeMemberPledge, true, "min_committee_member_pledge"),
		check(nil != v.CommitteeMemberPledgeReleaseDelay, true, "committee_member_pledge_release_delay"),
		check(nil != v.WitnessReportProsecutionPeriod, nil == v.WitnessReportProsecutionPeriod || *v.WitnessReportProsecutionPeriod > 0, "witness_report_prosecution_period"),
		check(nil != v.WitnessReportAllowPreLastBlock, true, "witness_report_allow_pre_last_block"),
		check(nil != v.WitnessReportPledgeDeductionAmount, nil == v.WitnessReportPledgeDeductionAmount || *v.WitnessReportPledgeDeductionAmount >= 0, "witness_report_pledge_deduction_amount"),
		check(nil != v.PlatformMinPledge, true, "platform_min_pledge"),
		check(nil != v.PlatformPledgeReleaseDelay, true, "platform_pledge_release_delay"),
		check(nil != v.PlatformMaxVotePerAccount, nil == v.PlatformMaxVotePerAccount || *v.PlatformMaxVotePerAccount > 0, "platform_max_vote_per_account"),
		check(nil != v.PlatformMaxPledgeSeconds, nil == v.PlatformMaxPledgeSeconds || *v.PlatformMaxPledgeSeconds > 0, "platform_max_pledge_seconds"),
		check(nil != v.PlatformAvgPledgeUpdateInterval, nil == v.PlatformAvgPledgeUpdateInterval || *v.PlatformAvgPledgeUpdateInterval > 0, "platform_avg_pledge_update_interval"),
	)
	if nil != err {
		return err
	}
	if !changed {
		return fault.ErrNoChange
	}
	if nil != v.ByVoteTopWitnessCount && nil != v.ByVoteRestWitnessCount && nil != v.ByPledgeWitnessCount &&
		0 == int(*v.ByVoteTopWitnessCount)+int(*v.ByVoteRestWitnessCount)+int(*v.ByPledgeWitnessCount) {
		return errors.Wrap(fault.ErrInvalidParameter, "no active witnesses")
	}
	return nil
}

// Threshold - strictest of the changed fields
func (item *GlobalParameterItem) Threshold() uint16 {
	v := &item.Value
	return maxThreshold(
		nil != v.MaximumTransactionSize, constants.CPPTParamMaxTrxSize,
		nil != v.MaximumBlockSize, constants.CPPTParamMaxBlockSize,
		nil != v.MaximumTimeUntilExpiration, constants.CPPTParamMaxExpirationTime,
		nil != v.MaximumAuthorityMembership, constants.CPPTParamMaxAuthorityMembership,
		nil != v.MaxAuthorityDepth, constants.CPPTParamMaxAuthorityDepth,
		nil != v.CSAFRate, constants.CPPTParamCSAFRate,
		nil != v.MaxCSAFPerAccount, constants.CPPTParamMaxCSAFPerAccount,
		nil != v.CSAFAccumulateWindow, constants.CPPTParamCSAFAccumulateWindow,
		nil != v.MinWitnessPledge, constants.CPPTParamMinWitnessPledge,
		nil != v.MaxWitnessPledgeSeconds, constants.CPPTParamMaxWitnessPledgeSeconds,
		nil != v.WitnessAvgPledgeUpdateInterval, constants.CPPTParamAvgWitnessPledgeUpdateInterval,
		nil != v.WitnessPledgeReleaseDelay, constants.CPPTParamWitnessPledgeReleaseDelay,
		nil != v.MinGovernanceVotingBalance, constants.CPPTParamMinGovernanceVotingBalance,
		nil != v.GovernanceVotingExpirationBlocks, constants.CPPTParamGovernanceVotingExpiration,
		nil != v.GovernanceVotesUpdateInterval, constants.CPPTParamGovernanceVotesUpdateInterval,
		nil != v.MaxGovernanceVotesSeconds, constants.CPPTParamMaxGovernanceVotesSeconds,
		nil != v.MaxWitnessesVotedPerAccount, constants.CPPTParamMaxWitnessesVotedPerAccount,
		nil != v.MaxWitnessInactiveBlocks, constants.CPPTParamMaxWitnessInactiveBlocks,
		nil != v.ByVoteTopWitnessPayPerBlock, constants.CPPTParamByVoteTopWitnessPay,
		nil != v.ByVoteRestWitnessPayPerBlock, constants.CPPTParamByVoteRestWitnessPay,
		nil != v.ByPledgeWitnessPayPerBlock, constants.CPPTParamByPledgeWitnessPay,
		nil != v.ByVoteTopWitnessCount, constants.CPPTParamByVoteTopWitnessCount,
		nil != v.ByVoteRestWitnessCount, constants.CPPTParamByVoteRestWitnessCount,
		nil != v.ByPledgeWitnessCount, constants.CPPTParamByPledgeWitnessCount,
		nil != v.BudgetAdjustInterval, constants.CPPTParamBudgetAdjustInterval,
		nil != v.BudgetAdjustTarget, constants.CPPTParamBudgetAdjustTarget,
		nil != v.MinCommitteeMemberPledge, constants.CPPTParamMinCommitteeMemberPledge,
		nil != v.CommitteeMemberPledgeReleaseDelay, constants.CPPTParamCommitteeMemberPledgeRelease,
		nil != v.WitnessReportProsecutionPeriod, constants.CPPTParamWitnessReportProsecution,
		nil != v.WitnessReportAllowPreLastBlock, constants.CPPTParamWitnessReportAllowPreLastBlock,
		nil != v.WitnessReportPledgeDeductionAmount, constants.CPPTParamWitnessReportPledgeDeduction,
		nil != v.PlatformMinPledge, constants.CPPTParamPlatformMinPledge,
		nil != v.PlatformPledgeReleaseDelay, constants.CPPTParamPlatformPledgeReleaseDelay,
		nil != v.PlatformMaxVotePerAccount, constants.CPPTParamPlatformMaxVotePerAccount,
		nil != v.PlatformMaxPledgeSeconds, constants.CPPTParamPlatformMaxPledgeSeconds,
		nil != v.PlatformAvgPledgeUpdateInterval, constants.CPPTParamPlatformAvgPledgeUpdate,
	)
}

// Apply - replace only the present fields
func (item *GlobalParameterItem) Apply(p *ChainParameters) {
	v := &item.Value
	setUint32(&p.MaximumTransactionSize, v.MaximumTransactionSize)
	setUint32(&p.MaximumBlockSize, v.MaximumBlockSize)
	setUint32(&p.MaximumTimeUntilExpiration, v.MaximumTimeUntilExpiration)
	setUint16(&p.MaximumAuthorityMembership, v.MaximumAuthorityMembership)
	setUint8(&p.MaxAuthorityDepth, v.MaxAuthorityDepth)
	setUint64(&p.CSAFRate, v.CSAFRate)
	setInt64(&p.MaxCSAFPerAccount, v.MaxCSAFPerAccount)
	setUint64(&p.CSAFAccumulateWindow, v.CSAFAccumulateWindow)
	setUint64(&p.MinWitnessPledge, v.MinWitnessPledge)
	setUint64(&p.MaxWitnessPledgeSeconds, v.MaxWitnessPledgeSeconds)
	setUint32(&p.WitnessAvgPledgeUpdateInterval, v.WitnessAvgPledgeUpdateInterval)
	setUint32(&p.WitnessPledgeReleaseDelay, v.WitnessPledgeReleaseDelay)
	setUint64(&p.MinGovernanceVotingBalance, v.MinGovernanceVotingBalance)
	setUint32(&p.GovernanceVotingExpirationBlocks, v.GovernanceVotingExpirationBlocks)
	setUint32(&p.GovernanceVotesUpdateInterval, v.GovernanceVotesUpdateInterval)
	setUint64(&p.MaxGovernanceVotesSeconds, v.MaxGovernanceVotesSeconds)
	setUint16(&p.MaxWitnessesVotedPerAccount, v.MaxWitnessesVotedPerAccount)
	setUint32(&p.MaxWitnessInactiveBlocks, v.MaxWitnessInactiveBlocks)
	setInt64(&p.ByVoteTopWitnessPayPerBlock, v.ByVoteTopWitnessPayPerBlock)
	setInt64(&p.ByVoteRestWitnessPayPerBlock, v.ByVoteRestWitnessPayPerBlock)
	setInt64(&p.ByPledgeWitnessPayPerBlock, v.ByPledgeWitnessPayPerBlock)
	setUint16(&p.ByVoteTopWitnessCount, v.ByVoteTopWitnessCount)
	setUint16(&p.ByVoteRestWitnessCount, v.ByVoteRestWitnessCount)
	setUint16(&p.ByPledgeWitnessCount, v.ByPledgeWitnessCount)
	setUint32(&p.BudgetAdjustInterval, v.BudgetAdjustInterval)
	setUint16(&p.BudgetAdjustTarget, v.BudgetAdjustTarget)
	setUint64(&p.MinCommitteeMemberPledge, v.MinCommitteeMemberPledge)
	setUint32(&p.CommitteeMemberPledgeReleaseDelay, v.CommitteeMemberPledgeReleaseDelay)
	setUint32(&p.WitnessReportProsecutionPeriod, v.WitnessReportProsecutionPeriod)
	if nil != v.WitnessReportAllowPreLastBlock {
		p.WitnessReportAllowPreLastBlock = *v.WitnessReportAllowPreLastBlock
	}
	setInt64(&p.WitnessReportPledgeDeductionAmount, v.WitnessReportPledgeDeductionAmount)
	setUint64(&p.PlatformMinPledge, v.PlatformMinPledge)
	setUint32(&p.PlatformPledgeReleaseDelay, v.PlatformPledgeReleaseDelay)
	if nil != v.PlatformMaxVotePerAccount {
		p.PlatformMaxVotePerAccount = uint16(*v.PlatformMaxVotePerAccount)
	}
	setUint64(&p.PlatformMaxPledgeSeconds, v.PlatformMaxPledgeSeconds)
	setUint32(&p.PlatformAvgPledgeUpdateInterval, v.PlatformAvgPledgeUpdateInterval)
}

// ContentParameterUpdates - content settings the committee may change
type ContentParameterUpdates struct {
	ContentAwardInterval         *uint32 `json:"content_award_interval,omitempty"`
	PlatformAwardInterval        *uint32 `json:"platform_award_interval,omitempty"`
	MaxCSAFPerApproval           *int64  `json:"max_csaf_per_approval,omitempty"`
	ApprovalExpiration           *uint32 `json:"approval_expiration,omitempty"`
	MinEffectiveCSAF             *int64  `json:"min_effective_csaf,omitempty"`
	PlatformAwardBasicRate       *uint32 `json:"platform_award_basic_rate,omitempty"`
	CSAFModulus                  *uint32 `json:"casf_modulus,omitempty"`
	PostAwardExpiration          *uint32 `json:"post_award_expiration,omitempty"`
	AdvertisingConfirmedFeeRate  *uint32 `json:"advertising_confirmed_fee_rate,omitempty"`
	AdvertisingConfirmedMinFee   *int64  `json:"advertising_confirmed_min_fee,omitempty"`
	CustomVoteEffectiveTime      *uint32 `json:"custom_vote_effective_time,omitempty"`
	MinWitnessBlockProducePledge *uint64 `json:"min_witness_block_produce_pledge,omitempty"`
	UnlockedBalanceReleaseDelay  *uint32 `json:"unlocked_balance_release_delay,omitempty"`
}

// ContentParameterItem - change content parameters
type ContentParameterItem struct {
	Value ContentParameterUpdates `json:"value" pack:"ext"`
}

// Validate - rates within range, something must change
func (item *ContentParameterItem) Validate() error {
	v := &item.Value
	if nil == v.ContentAwardInterval && nil == v.PlatformAwardInterval && nil == v.MaxCSAFPerApproval &&
		nil == v.ApprovalExpiration && nil == v.MinEffectiveCSAF && nil == v.PlatformAwardBasicRate &&
		nil == v.CSAFModulus && nil == v.PostAwardExpiration && nil == v.AdvertisingConfirmedFeeRate &&
		nil == v.AdvertisingConfirmedMinFee && nil == v.CustomVoteEffectiveTime &&
		nil == v.MinWitnessBlockProducePledge && nil == v.UnlockedBalanceReleaseDelay {
		return fault.ErrNoChange
	}
	for _, rate := range []*uint32{v.PlatformAwardBasicRate, v.CSAFModulus, v.AdvertisingConfirmedFeeRate} {
		if nil != rate && *rate > constants.HundredPercent {
			return fault.ErrInvalidPercentage
		}
	}
	for _, amount := range []*int64{v.MaxCSAFPerApproval, v.MinEffectiveCSAF, v.AdvertisingConfirmedMinFee} {
		if nil != amount && *amount < 0 {
			return fault.ErrInvalidAmount
		}
	}
	return nil
}

// Threshold - one level for all content parameters
func (item *ContentParameterItem) Threshold() uint16 {
	return constants.CPPTParamContent
}

// Apply - replace only the present fields
func (item *ContentParameterItem) Apply(c *ContentParameters) {
	v := &item.Value
	setUint32(&c.ContentAwardInterval, v.ContentAwardInterval)
	setUint32(&c.PlatformAwardInterval, v.PlatformAwardInterval)
	setInt64(&c.MaxCSAFPerApproval, v.MaxCSAFPerApproval)
	setUint32(&c.ApprovalExpiration, v.ApprovalExpiration)
	setInt64(&c.MinEffectiveCSAF, v.MinEffectiveCSAF)
	setUint32(&c.PlatformAwardBasicRate, v.PlatformAwardBasicRate)
	setUint32(&c.CSAFModulus, v.CSAFModulus)
	setUint32(&c.PostAwardExpiration, v.PostAwardExpiration)
	setUint32(&c.AdvertisingConfirmedFeeRate, v.AdvertisingConfirmedFeeRate)
	setInt64(&c.AdvertisingConfirmedMinFee, v.AdvertisingConfirmedMinFee)
	setUint32(&c.CustomVoteEffectiveTime, v.CustomVoteEffectiveTime)
	setUint64(&c.MinWitnessBlockProducePledge, v.MinWitnessBlockProducePledge)
	setUint32(&c.UnlockedBalanceReleaseDelay, v.UnlockedBalanceReleaseDelay)
}

var proposalItemType = reflect.TypeOf((*CommitteeProposalItem)(nil)).Elem()

// ProposalItemList - items of a committee proposal, JSON as
// [tag, body] pairs
type ProposalItemList []CommitteeProposalItem

// MarshalJSON - list of pairs
func (items ProposalItemList) MarshalJSON() ([]byte, error) {
	pairs := make([]json.RawMessage, len(items))
	for i, item := range items {
		b, err := marshalVariantJSON(proposalItemType, item)
		if nil != err {
			return nil, err
		}
		pairs[i] = b
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON - list of pairs
func (items *ProposalItemList) UnmarshalJSON(data []byte) error {
	pairs := []json.RawMessage{}
	if err := json.Unmarshal(data, &pairs); nil != err {
		return err
	}
	list := make(ProposalItemList, len(pairs))
	for i, pair := range pairs {
		v, err := unmarshalVariantJSON(proposalItemType, pair)
		if nil != err {
			return err
		}
		list[i] = v.(CommitteeProposalItem)
	}
	*items = list
	return nil
}

func init() {
	registerVariant((*CommitteeProposalItem)(nil), 0, &AccountPrivilegeItem{})
	registerVariant((*CommitteeProposalItem)(nil), 1, &FeeScheduleItem{})
	registerVariant((*CommitteeProposalItem)(nil), 2, &GlobalParameterItem{})
	registerVariant((*CommitteeProposalItem)(nil), 3, &ContentParameterItem{})
}

// CommitteeProposalCreate - propose a set of changes
type CommitteeProposalCreate struct {
	FeeBundle             FeeBundle        `json:"fee"`
	Proposer              account.UID      `json:"proposer"`
	Items                 ProposalItemList `json:"items"`
	VotingClosingBlockNum uint32           `json:"voting_closing_block_num"`
	ExecutionBlockNum     uint32           `json:"execution_block_num"`
	ExpirationBlockNum    uint32           `json:"expiration_block_num"`
	ProposerOpinion       *VotingOpinion   `json:"proposer_opinion,omitempty"`
	Extensions            *EmptyExtension  `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CommitteeProposalCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - proposer
func (op *CommitteeProposalCreate) FeePayer() account.UID { return op.Proposer }

// Validate - stateless checks
func (op *CommitteeProposalCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Proposer, "proposer"); nil != err {
		return err
	}
	if 0 == len(op.Items) {
		return errors.Wrap(fault.ErrInvalidCount, "proposal has no items")
	}
	for i, item := range op.Items {
		if nil == item {
			return errors.Wrapf(fault.ErrInvalidParameter, "item[%d] missing", i)
		}
		if err := item.Validate(); nil != err {
			return errors.Wrapf(err, "item[%d]", i)
		}
	}
	if op.VotingClosingBlockNum > op.ExecutionBlockNum {
		return errors.Wrap(fault.ErrInvalidParameter, "voting should close before execution")
	}
	if op.ExecutionBlockNum > op.ExpirationBlockNum {
		return errors.Wrap(fault.ErrInvalidParameter, "execution should be before expiration")
	}
	if nil != op.ProposerOpinion {
		return op.ProposerOpinion.Validate()
	}
	return nil
}

// Threshold - strictest of the items
func (op *CommitteeProposalCreate) Threshold() uint16 {
	t := uint16(0)
	for _, item := range op.Items {
		if x := item.Threshold(); x > t {
			t = x
		}
	}
	return t
}

// Required - proposer active
func (op *CommitteeProposalCreate) Required(r *authority.Required) {
	r.Add(op.Proposer, authority.Active)
}

// CalculateFee - base plus a price per item
func (op *CommitteeProposalCreate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + p.PricePerUnit*uint64(len(op.Items)), nil
}

// CommitteeProposalUpdate - record a member's opinion
type CommitteeProposalUpdate struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Account        account.UID     `json:"account"`
	ProposalNumber uint64          `json:"proposal_number"`
	Opinion        VotingOpinion   `json:"opinion"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CommitteeProposalUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the member
func (op *CommitteeProposalUpdate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *CommitteeProposalUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "committee member"); nil != err {
		return err
	}
	return op.Opinion.Validate()
}

// Required - member active
func (op *CommitteeProposalUpdate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *CommitteeProposalUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee, nil
}

// pairs of (present, threshold)
func maxThreshold(pairs ...interface{}) uint16 {
	t := uint16(0)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i].(bool) {
			if x := pairs[i+1].(uint16); x > t {
				t = x
			}
		}
	}
	return t
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if nil != err {
			return err
		}
	}
	return nil
}

func setUint8(dst *uint8, src *uint8) {
	if nil != src {
		*dst = *src
	}
}

func setUint16(dst *uint16, src *uint16) {
	if nil != src {
		*dst = *src
	}
}

func setUint32(dst *uint32, src *uint32) {
	if nil != src {
		*dst = *src
	}
}

func setUint64(dst *uint64, src *uint64) {
	if nil != src {
		*dst = *src
	}
}

func setInt64(dst *int64, src *int64) {
	if nil != src {
		*dst = *src
	}
}
