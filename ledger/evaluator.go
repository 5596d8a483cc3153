// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// trxContext - state shared by the operations of one transaction
type trxContext struct {
	trx   *protocol.SignedTransaction
	signs *authority.SignState

	// fee amounts are not compared with the schedule, set for
	// operations pushed by a running contract
	skipFeeCheck bool

	// the contract call that queued an inline operation and its
	// nesting
	contract    *contractTrx
	inlineDepth int

	// replayed contract calls are billed what the block recorded
	billedCPUTimeUs uint32
	cpuLimitUs      uint32

	// contract ram changes per payer, settled after each call
	ram map[account.UID]int64

	// nesting of proposals executing proposals
	proposalDepth int
}

// evaluator - two phases of one operation
//
// evaluate only reads the state and may keep what it found for
// apply, both are called on the same value in that order
type evaluator interface {
	evaluate() error
	apply() (protocol.OperationResult, error)
}

// opContext - embedded in every evaluator
type opContext struct {
	db  *Database
	trx *trxContext

	payer       *Account
	payerStats  *AccountStatistics
	totalFee    int64
	fromBalance int64
	fromPrepaid int64
	fromCSAF    int64
}

func voidResult() (protocol.OperationResult, error) {
	return &protocol.VoidResult{}, nil
}

func objectResult(id objectdb.ID) (protocol.OperationResult, error) {
	return &protocol.ObjectIDResult{ID: uint64(id)}, nil
}

// newEvaluator - the evaluator for an operation
func newEvaluator(c *opContext, op protocol.Operation) (evaluator, error) {
	switch o := op.(type) {
	case *protocol.Transfer:
		return &transferEvaluator{opContext: c, op: o}, nil
	case *protocol.OverrideTransfer:
		return &overrideTransferEvaluator{opContext: c, op: o}, nil

	case *protocol.AccountCreate:
		return &accountCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountManage:
		return &accountManageEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountUpdateAuth:
		return &accountUpdateAuthEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountUpdateKey:
		return &accountUpdateKeyEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountUpdateProxy:
		return &accountUpdateProxyEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountAuthPlatform:
		return &accountAuthPlatformEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountCancelAuthPlatform:
		return &accountCancelAuthPlatformEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountEnableAllowedAssets:
		return &accountEnableAllowedAssetsEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountUpdateAllowedAssets:
		return &accountUpdateAllowedAssetsEvaluator{opContext: c, op: o}, nil
	case *protocol.AccountWhitelist:
		return &accountWhitelistEvaluator{opContext: c, op: o}, nil

	case *protocol.CSAFCollect:
		return &csafCollectEvaluator{opContext: c, op: o}, nil
	case *protocol.CSAFLease:
		return &csafLeaseEvaluator{opContext: c, op: o}, nil

	case *protocol.WitnessCreate:
		return &witnessCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.WitnessUpdate:
		return &witnessUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.WitnessVoteUpdate:
		return &witnessVoteUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.WitnessCollectPay:
		return &witnessCollectPayEvaluator{opContext: c, op: o}, nil
	case *protocol.WitnessReport:
		return &witnessReportEvaluator{opContext: c, op: o}, nil

	case *protocol.CommitteeMemberCreate:
		return &committeeMemberCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.CommitteeMemberUpdate:
		return &committeeMemberUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.CommitteeMemberVoteUpdate:
		return &committeeMemberVoteUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.CommitteeProposalCreate:
		return &committeeProposalCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.CommitteeProposalUpdate:
		return &committeeProposalUpdateEvaluator{opContext: c, op: o}, nil

	case *protocol.PlatformCreate:
		return &platformCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.PlatformUpdate:
		return &platformUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.PlatformVoteUpdate:
		return &platformVoteUpdateEvaluator{opContext: c, op: o}, nil

	case *protocol.Post:
		return &postEvaluator{opContext: c, op: o}, nil
	case *protocol.PostUpdate:
		return &postUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.ScoreCreate:
		return &scoreCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.Reward:
		return &rewardEvaluator{opContext: c, op: o}, nil
	case *protocol.RewardProxy:
		return &rewardProxyEvaluator{opContext: c, op: o}, nil
	case *protocol.Buyout:
		return &buyoutEvaluator{opContext: c, op: o}, nil
	case *protocol.LicenseCreate:
		return &licenseCreateEvaluator{opContext: c, op: o}, nil

	case *protocol.AdvertisingCreate:
		return &advertisingCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.AdvertisingUpdate:
		return &advertisingUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.AdvertisingBuy:
		return &advertisingBuyEvaluator{opContext: c, op: o}, nil
	case *protocol.AdvertisingConfirm:
		return &advertisingConfirmEvaluator{opContext: c, op: o}, nil
	case *protocol.AdvertisingRansom:
		return &advertisingRansomEvaluator{opContext: c, op: o}, nil

	case *protocol.CustomVoteCreate:
		return &customVoteCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.CustomVoteCast:
		return &customVoteCastEvaluator{opContext: c, op: o}, nil

	case *protocol.AssetCreate:
		return &assetCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.AssetUpdate:
		return &assetUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.AssetIssue:
		return &assetIssueEvaluator{opContext: c, op: o}, nil
	case *protocol.AssetReserve:
		return &assetReserveEvaluator{opContext: c, op: o}, nil
	case *protocol.AssetClaimFees:
		return &assetClaimFeesEvaluator{opContext: c, op: o}, nil

	case *protocol.ProposalCreate:
		return &proposalCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.ProposalUpdate:
		return &proposalUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.ProposalDelete:
		return &proposalDeleteEvaluator{opContext: c, op: o}, nil

	case *protocol.BalanceLockUpdate:
		return &balanceLockUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.PledgeMiningUpdate:
		return &pledgeMiningUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.PledgeBonusCollect:
		return &pledgeBonusCollectEvaluator{opContext: c, op: o}, nil

	case *protocol.LimitOrderCreate:
		return &limitOrderCreateEvaluator{opContext: c, op: o}, nil
	case *protocol.LimitOrderCancel:
		return &limitOrderCancelEvaluator{opContext: c, op: o}, nil
	case *protocol.MarketFeeCollect:
		return &marketFeeCollectEvaluator{opContext: c, op: o}, nil

	case *protocol.ScoreBonusCollect:
		return &scoreBonusCollectEvaluator{opContext: c, op: o}, nil
	case *protocol.BeneficiaryAssign:
		return &beneficiaryAssignEvaluator{opContext: c, op: o}, nil
	case *protocol.BenefitCollect:
		return &benefitCollectEvaluator{opContext: c, op: o}, nil

	case *protocol.ContractDeploy:
		return &contractDeployEvaluator{opContext: c, op: o}, nil
	case *protocol.ContractUpdate:
		return &contractUpdateEvaluator{opContext: c, op: o}, nil
	case *protocol.ContractCall:
		return &contractCallEvaluator{opContext: c, op: o}, nil
	case *protocol.InterContractCall:
		return &interContractCallEvaluator{opContext: c, op: o}, nil
	}
	return nil, errors.Wrapf(fault.ErrUnknownOperation, "no evaluator for: %s", protocol.OperationName(op))
}

// prepareFee - locate the payer and split the fee bundle
//
// csaf is not checked here so that an operation can spend csaf
// collected earlier in the same transaction
func (c *opContext) prepareFee(op protocol.Operation) error {
	payer, err := c.db.getAccount(op.FeePayer())
	if nil != err {
		return err
	}
	c.payer = payer
	c.payerStats = c.db.stats(payer.UID)

	fee := op.Fee()
	if nil == fee {
		return nil
	}
	if !fee.Total.IsCore() {
		return errors.Wrapf(fault.ErrAssetNotCore, "fee asset: %d", fee.Total.AssetID)
	}
	c.totalFee = fee.Total.Amount
	c.fromBalance, c.fromPrepaid, c.fromCSAF = fee.Split()

	if c.fromPrepaid > c.payerStats.Prepaid {
		return errors.Wrapf(fault.ErrInsufficientPrepaid, "account: %s prepaid: %d, needs: %d", payer.UID, c.payerStats.Prepaid, c.fromPrepaid)
	}
	return nil
}

// checkFee - the bundle covers the schedule and enough of it is real
func (c *opContext) checkFee(op protocol.Operation) error {
	required, minReal, err := c.db.fees().CalculateFeePair(op)
	if nil != err {
		return err
	}
	if c.totalFee < required {
		return errors.Wrapf(fault.ErrInsufficientFee, "need: %d, provided: %d", required, c.totalFee)
	}
	if c.fromBalance+c.fromPrepaid < minReal {
		return errors.Wrapf(fault.ErrInsufficientRealFee, "need: %d, provided: %d from balance and %d from prepaid", minReal, c.fromBalance, c.fromPrepaid)
	}
	return nil
}

// chargeFee - take the fee from its three sources
//
// real fees are burnt, csaf is simply spent
func (c *opContext) chargeFee() error {
	if c.fromBalance > 0 {
		if err := c.db.adjustCoreBalance(c.payer.UID, -c.fromBalance); nil != err {
			return err
		}
	}
	s := c.payerStats
	if c.fromPrepaid > s.Prepaid {
		return errors.Wrapf(fault.ErrInsufficientPrepaid, "account: %s prepaid: %d, needs: %d", c.payer.UID, s.Prepaid, c.fromPrepaid)
	}
	if c.fromCSAF > s.CSAF {
		return errors.Wrapf(fault.ErrInsufficientCSAF, "account: %s csaf: %d, needs: %d", c.payer.UID, s.CSAF, c.fromCSAF)
	}
	if c.fromPrepaid > 0 || c.fromCSAF > 0 {
		c.db.statistics.Modify(s, func(s *AccountStatistics) {
			s.Prepaid -= c.fromPrepaid
			s.CSAF -= c.fromCSAF
		})
	}
	if burnt := c.fromBalance + c.fromPrepaid; burnt > 0 {
		c.db.adjustSupply(protocol.AssetAID(0), -burnt)
	}
	return nil
}

// applyOperation - fee checks, evaluate, apply then charge
func (db *Database) applyOperation(trx *trxContext, op protocol.Operation) (protocol.OperationResult, error) {
	c := &opContext{db: db, trx: trx}
	e, err := newEvaluator(c, op)
	if nil != err {
		return nil, err
	}
	if err := c.prepareFee(op); nil != err {
		return nil, err
	}
	if !trx.skipFeeCheck {
		if err := c.checkFee(op); nil != err {
			return nil, err
		}
	}
	if err := e.evaluate(); nil != err {
		return nil, err
	}
	result, err := e.apply()
	if nil != err {
		return nil, err
	}
	if err := c.chargeFee(); nil != err {
		return nil, err
	}
	return result, nil
}

// delegatingPlatform - the platform whose signature approved the
// secondary authority of an account, zero when the account signed
// itself or signatures were not checked
func (c *opContext) delegatingPlatform(uid account.UID) account.UID {
	if nil == c.trx.signs {
		return 0
	}
	tree := c.trx.signs.Tree(uid, authority.Secondary)
	if nil == tree || 0 != len(tree.Keys) {
		return 0
	}
	for _, child := range tree.Children {
		if child.Auth.UID != uid {
			return child.Auth.UID
		}
	}
	return 0
}
