// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"reflect"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
)

// Tag - position of an operation in the operation union
//
// values are part of the wire format and must never be reordered
type Tag uint64

// operation tags
const (
	TransferTag Tag = iota
	AccountCreateTag
	AccountManageTag
	AccountUpdateAuthTag
	AccountUpdateKeyTag
	AccountUpdateProxyTag
	CSAFCollectTag
	CSAFLeaseTag
	CommitteeMemberCreateTag
	CommitteeMemberUpdateTag
	CommitteeMemberVoteUpdateTag
	CommitteeProposalCreateTag
	CommitteeProposalUpdateTag
	WitnessCreateTag
	WitnessUpdateTag
	WitnessVoteUpdateTag
	WitnessCollectPayTag
	WitnessReportTag
	PostTag
	PostUpdateTag
	PlatformCreateTag
	PlatformUpdateTag
	PlatformVoteUpdateTag
	AccountAuthPlatformTag
	AccountCancelAuthPlatformTag
	AssetCreateTag
	AssetUpdateTag
	AssetIssueTag
	AssetReserveTag
	AssetClaimFeesTag
	OverrideTransferTag
	ProposalCreateTag
	ProposalUpdateTag
	ProposalDeleteTag
	AccountEnableAllowedAssetsTag
	AccountUpdateAllowedAssetsTag
	AccountWhitelistTag
	ScoreCreateTag
	RewardTag
	RewardProxyTag
	BuyoutTag
	LicenseCreateTag
	AdvertisingCreateTag
	AdvertisingUpdateTag
	AdvertisingBuyTag
	AdvertisingConfirmTag
	AdvertisingRansomTag
	CustomVoteCreateTag
	CustomVoteCastTag
	BalanceLockUpdateTag
	PledgeMiningUpdateTag
	PledgeBonusCollectTag
	LimitOrderCreateTag
	LimitOrderCancelTag
	FillOrderTag
	MarketFeeCollectTag
	ScoreBonusCollectTag
	BeneficiaryAssignTag
	BenefitCollectTag
	ContractDeployTag
	ContractUpdateTag
	ContractCallTag
	InterContractCallTag

	TagCount // must be last
)

// Operation - common behaviour of every operation
type Operation interface {
	// Fee - the fee bundle carried by the operation
	Fee() *FeeBundle

	// FeePayer - account charged for the fee
	FeePayer() account.UID

	// Validate - stateless checks
	Validate() error

	// Required - owner, active and secondary accounts plus any
	// free standing authorities that must sign
	Required(r *authority.Required)

	// CalculateFee - unscaled core fee from the parameters
	CalculateFee(p FeeParameters) (uint64, error)
}

var operationType = reflect.TypeOf((*Operation)(nil)).Elem()

// table of every operation, index is the tag
var operations = []struct {
	name   string
	sample Operation
}{
	{"transfer", &Transfer{}},
	{"account_create", &AccountCreate{}},
	{"account_manage", &AccountManage{}},
	{"account_update_auth", &AccountUpdateAuth{}},
	{"account_update_key", &AccountUpdateKey{}},
	{"account_update_proxy", &AccountUpdateProxy{}},
	{"csaf_collect", &CSAFCollect{}},
	{"csaf_lease", &CSAFLease{}},
	{"committee_member_create", &CommitteeMemberCreate{}},
	{"committee_member_update", &CommitteeMemberUpdate{}},
	{"committee_member_vote_update", &CommitteeMemberVoteUpdate{}},
	{"committee_proposal_create", &CommitteeProposalCreate{}},
	{"committee_proposal_update", &CommitteeProposalUpdate{}},
	{"witness_create", &WitnessCreate{}},
	{"witness_update", &WitnessUpdate{}},
	{"witness_vote_update", &WitnessVoteUpdate{}},
	{"witness_collect_pay", &WitnessCollectPay{}},
	{"witness_report", &WitnessReport{}},
	{"post", &Post{}},
	{"post_update", &PostUpdate{}},
	{"platform_create", &PlatformCreate{}},
	{"platform_update", &PlatformUpdate{}},
	{"platform_vote_update", &PlatformVoteUpdate{}},
	{"account_auth_platform", &AccountAuthPlatform{}},
	{"account_cancel_auth_platform", &AccountCancelAuthPlatform{}},
	{"asset_create", &AssetCreate{}},
	{"asset_update", &AssetUpdate{}},
	{"asset_issue", &AssetIssue{}},
	{"asset_reserve", &AssetReserve{}},
	{"asset_claim_fees", &AssetClaimFees{}},
	{"override_transfer", &OverrideTransfer{}},
	{"proposal_create", &ProposalCreate{}},
	{"proposal_update", &ProposalUpdate{}},
	{"proposal_delete", &ProposalDelete{}},
	{"account_enable_allowed_assets", &AccountEnableAllowedAssets{}},
	{"account_update_allowed_assets", &AccountUpdateAllowedAssets{}},
	{"account_whitelist", &AccountWhitelist{}},
	{"score_create", &ScoreCreate{}},
	{"reward", &Reward{}},
	{"reward_proxy", &RewardProxy{}},
	{"buyout", &Buyout{}},
	{"license_create", &LicenseCreate{}},
	{"advertising_create", &AdvertisingCreate{}},
	{"advertising_update", &AdvertisingUpdate{}},
	{"advertising_buy", &AdvertisingBuy{}},
	{"advertising_confirm", &AdvertisingConfirm{}},
	{"advertising_ransom", &AdvertisingRansom{}},
	{"custom_vote_create", &CustomVoteCreate{}},
	{"custom_vote_cast", &CustomVoteCast{}},
	{"balance_lock_update", &BalanceLockUpdate{}},
	{"pledge_mining_update", &PledgeMiningUpdate{}},
	{"pledge_bonus_collect", &PledgeBonusCollect{}},
	{"limit_order_create", &LimitOrderCreate{}},
	{"limit_order_cancel", &LimitOrderCancel{}},
	{"fill_order", &FillOrder{}},
	{"market_fee_collect", &MarketFeeCollect{}},
	{"score_bonus_collect", &ScoreBonusCollect{}},
	{"beneficiary_assign", &BeneficiaryAssign{}},
	{"benefit_collect", &BenefitCollect{}},
	{"contract_deploy", &ContractDeploy{}},
	{"contract_update", &ContractUpdate{}},
	{"contract_call", &ContractCall{}},
	{"inter_contract_call", &InterContractCall{}},
}

func init() {
	if len(operations) != int(TagCount) {
		panic("operation table does not match tags")
	}
	for tag, o := range operations {
		registerVariant((*Operation)(nil), uint64(tag), o.sample)
	}
}

// OperationList - operations in order, JSON as [tag, body] pairs
type OperationList []Operation

// MarshalJSON - list of pairs
func (ops OperationList) MarshalJSON() ([]byte, error) {
	pairs := make([]json.RawMessage, len(ops))
	for i, op := range ops {
		b, err := marshalVariantJSON(operationType, op)
		if nil != err {
			return nil, err
		}
		pairs[i] = b
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON - list of pairs
func (ops *OperationList) UnmarshalJSON(data []byte) error {
	pairs := []json.RawMessage{}
	if err := json.Unmarshal(data, &pairs); nil != err {
		return err
	}
	list := make(OperationList, len(pairs))
	for i, pair := range pairs {
		v, err := unmarshalVariantJSON(operationType, pair)
		if nil != err {
			return err
		}
		list[i] = v.(Operation)
	}
	*ops = list
	return nil
}

// TagOf - wire tag of an operation
func TagOf(op Operation) (Tag, error) {
	tag, err := variantTag(operationType, reflect.TypeOf(op))
	return Tag(tag), err
}

// String - operation name for logs
func (tag Tag) String() string {
	if tag < TagCount {
		return operations[tag].name
	}
	return "*unknown*"
}

// OperationName - name of an operation value
func OperationName(op Operation) string {
	tag, err := TagOf(op)
	if nil != err {
		return "*unknown*"
	}
	return tag.String()
}

// IsVirtual - operations generated by the chain, never signed by users
func IsVirtual(tag Tag) bool {
	return FillOrderTag == tag || InterContractCallTag == tag
}

// RequiredAuthorities - collect what a list of operations needs
//
// besides the operation's own requirements the fee payer must sign
// with owner or active, or also secondary when the fee does not touch
// the balance
func RequiredAuthorities(ops []Operation) *authority.Required {
	r := authority.NewRequired()
	for _, op := range ops {
		op.Required(r)

		fee := op.Fee()
		if nil == fee || 0 == fee.Total.Amount {
			continue
		}
		payer := op.FeePayer()
		a := authority.Authority{WeightThreshold: 1}
		a.AddAccount(payer, authority.Owner, 1)
		a.AddAccount(payer, authority.Active, 1)
		fromBalance, _, _ := fee.Split()
		if nil != fee.Options && 0 == fromBalance {
			a.AddAccount(payer, authority.Secondary, 1)
		}
		r.AddOther(a)
	}
	return r
}
