// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// checkMiningExtension - the bonus rate is within the chain limit
func (db *Database) checkMiningExtension(ext *protocol.WitnessMiningExtension) error {
	if nil == ext || nil == ext.BonusRate {
		return nil
	}
	if db.version < V05 {
		return errors.Wrap(fault.ErrOperationNotEnabled, "witness mining extension")
	}
	limit := db.params().Extension.MaxPledgeMiningBonusRate
	if *ext.BonusRate > limit {
		return errors.Wrapf(fault.ErrInvalidPercentage, "bonus rate: %d exceeds: %d", *ext.BonusRate, limit)
	}
	return nil
}

type witnessCreateEvaluator struct {
	*opContext
	op    *protocol.WitnessCreate
	stats *AccountStatistics
}

func (e *witnessCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	s, err := db.getStatistics(op.Account)
	if nil != err {
		return err
	}
	if nil != db.findWitness(op.Account) {
		return errors.Wrapf(fault.ErrWitnessExists, "account: %s", op.Account)
	}
	// witnesses created at genesis need no pledge
	if db.headBlockNum() > 0 && uint64(op.Pledge.Amount) < db.params().MinWitnessPledge {
		return errors.Wrapf(fault.ErrInsufficientPledge, "witness pledge: %d, needs: %d", op.Pledge.Amount, db.params().MinWitnessPledge)
	}
	if err := db.checkPledge(op.Account, WitnessPledge, op.Account, op.Pledge.Amount); nil != err {
		return err
	}
	if err := db.checkMiningExtension(op.Extensions); nil != err {
		return err
	}
	e.stats = s
	return nil
}

func (e *witnessCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	params := db.params()
	now := db.headBlockTime()

	w, err := db.witnesses.Create(func(w *Witness) {
		w.Account = op.Account
		w.Sequence = e.stats.LastWitnessSequence + 1
		w.IsValid = true
		w.SigningKey = op.BlockSigningKey
		w.URL = op.URL
		w.Pledge = uint64(op.Pledge.Amount)
		w.PledgeLastUpdate = now
		w.AveragePledgeLastUpdate = now
		if w.Pledge > 0 {
			w.AveragePledgeNextUpdateBlock = db.headBlockNum() + params.WitnessAvgPledgeUpdateInterval
		} else {
			w.AveragePledgeNextUpdateBlock = constants.NeverBlock
		}
		w.LastUpdateBonusBlockNum = db.headBlockNum()
		if ext := op.Extensions; nil != ext && db.version >= V05 {
			if nil != ext.CanPledge {
				w.CanPledge = *ext.CanPledge
			}
			if nil != ext.BonusRate {
				w.BonusRate = *ext.BonusRate
			}
		}
	})
	if nil != err {
		return nil, err
	}

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastWitnessSequence += 1
	})
	if _, err := db.updatePledge(op.Account, WitnessPledge, op.Account, op.Pledge.Amount); nil != err {
		return nil, err
	}
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.TotalWitnessPledge += op.Pledge.Amount
	})

	// enters both queues at the start of a lap from the current cursor
	sched := db.schedule()
	speed := db.pledgeSpeed(w)
	db.witnesses.Modify(w, func(w *Witness) {
		w.ByPledgePositionLastUpdate = sched.CurrentByPledgeTime
		w.ByPledgeScheduledTime = scheduledAt(sched.CurrentByPledgeTime, uint128.Zero, speed, sched.CurrentByPledgeTime)
		w.ByVotePositionLastUpdate = sched.CurrentByVoteTime
		w.ByVoteScheduledTime = scheduledAt(sched.CurrentByVoteTime, uint128.Zero, w.TotalVotes, sched.CurrentByVoteTime)
	})

	db.log.Infof("witness: %s sequence: %d created with pledge: %d", op.Account, w.Sequence, op.Pledge.Amount)
	return objectResult(w.ObjectID())
}

type witnessUpdateEvaluator struct {
	*opContext
	op      *protocol.WitnessUpdate
	witness *Witness
}

func (e *witnessUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	params := db.params()

	w, err := db.getWitness(op.Account)
	if nil != err {
		return err
	}
	if nil != op.NewSigningKey && *op.NewSigningKey == w.SigningKey {
		return errors.Wrap(fault.ErrNoChange, "new signing key")
	}
	if nil != op.NewURL && *op.NewURL == w.URL {
		return errors.Wrap(fault.ErrNoChange, "new url")
	}

	switch {
	case nil == op.NewPledge:
		if w.Pledge < params.MinWitnessPledge {
			return errors.Wrapf(fault.ErrInsufficientPledge, "witness: %s pledge: %d, needs: %d", op.Account, w.Pledge, params.MinWitnessPledge)
		}
	case 0 == op.NewPledge.Amount:
		if _, ok := db.gpo().ActiveWitnesses[op.Account]; ok {
			return errors.Wrapf(fault.ErrCannotResign, "witness: %s is active", op.Account)
		}
	default:
		if uint64(op.NewPledge.Amount) < params.MinWitnessPledge {
			return errors.Wrapf(fault.ErrInsufficientPledge, "witness pledge: %d, needs: %d", op.NewPledge.Amount, params.MinWitnessPledge)
		}
		if uint64(op.NewPledge.Amount) == w.Pledge {
			return errors.Wrap(fault.ErrNoChange, "new pledge")
		}
		if err := db.checkPledge(op.Account, WitnessPledge, op.Account, op.NewPledge.Amount); nil != err {
			return err
		}
	}

	if ext := op.Extensions; nil != ext {
		if err := db.checkMiningExtension(ext); nil != err {
			return err
		}
		if nil != ext.CanPledge && *ext.CanPledge == w.CanPledge {
			return errors.Wrap(fault.ErrNoChange, "can pledge")
		}
		if nil != ext.BonusRate && *ext.BonusRate == w.BonusRate {
			return errors.Wrap(fault.ErrNoChange, "bonus rate")
		}
	}

	e.witness = w
	return nil
}

func (e *witnessUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	w := e.witness

	switch {
	case nil == op.NewPledge:
		db.witnesses.Modify(w, func(w *Witness) {
			if nil != op.NewSigningKey {
				w.SigningKey = *op.NewSigningKey
			}
			if nil != op.NewURL {
				w.URL = *op.NewURL
			}
		})

	case 0 == op.NewPledge.Amount:
		// genesis witnesses start without a pledge balance
		if nil != db.findPledge(op.Account, WitnessPledge, op.Account) {
			if _, err := db.updatePledge(op.Account, WitnessPledge, op.Account, 0); nil != err {
				return nil, err
			}
		}
		if w.TotalMiningPledge > 0 {
			if err := db.releaseWitnessMining(w); nil != err {
				return nil, err
			}
		}
		pledge := int64(w.Pledge)
		db.witnesses.Modify(w, func(w *Witness) {
			w.IsValid = false
			w.AveragePledgeNextUpdateBlock = constants.NeverBlock
			w.ByPledgeScheduledTime = uint128.Max
			w.ByVoteScheduledTime = uint128.Max
		})
		db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
			d.TotalWitnessPledge -= pledge
		})
		db.log.Infof("witness: %s resigned", op.Account)
		return voidResult()

	default:
		delta := op.NewPledge.Amount - int64(w.Pledge)
		if _, err := db.updatePledge(op.Account, WitnessPledge, op.Account, op.NewPledge.Amount); nil != err {
			return nil, err
		}
		db.updateWitnessAvgPledge(w)
		db.witnesses.Modify(w, func(w *Witness) {
			if nil != op.NewSigningKey {
				w.SigningKey = *op.NewSigningKey
			}
			if nil != op.NewURL {
				w.URL = *op.NewURL
			}
			w.Pledge = uint64(op.NewPledge.Amount)
			w.PledgeLastUpdate = db.headBlockTime()
		})
		db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
			d.TotalWitnessPledge += delta
		})
		db.updateWitnessAvgPledge(w)
	}

	if ext := op.Extensions; nil != ext && db.version >= V05 {
		if nil != ext.CanPledge && !*ext.CanPledge && w.TotalMiningPledge > 0 {
			if err := db.releaseWitnessMining(w); nil != err {
				return nil, err
			}
		}
		db.witnesses.Modify(w, func(w *Witness) {
			if nil != ext.CanPledge {
				w.CanPledge = *ext.CanPledge
			}
			if nil != ext.BonusRate {
				w.BonusRate = *ext.BonusRate
			}
		})
	}
	return voidResult()
}

type witnessVoteUpdateEvaluator struct {
	*opContext
	op   *protocol.WitnessVoteUpdate
	plan *votePlan
}

func (e *witnessVoteUpdateEvaluator) evaluate() error {
	plan, err := e.db.planVoteUpdate(e.db.witnessKind, e.op.Voter, e.op.WitnessesToAdd, e.op.WitnessesToRemove)
	if nil != err {
		return err
	}
	e.plan = plan
	return nil
}

func (e *witnessVoteUpdateEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.applyVoteUpdate(e.plan); nil != err {
		return nil, err
	}
	return voidResult()
}

type witnessCollectPayEvaluator struct {
	*opContext
	op    *protocol.WitnessCollectPay
	stats *AccountStatistics
}

func (e *witnessCollectPayEvaluator) evaluate() error {
	s, err := e.db.getStatistics(e.op.Account)
	if nil != err {
		return err
	}
	if s.UncollectedWitnessPay < e.op.Pay.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "witness: %s uncollected pay: %d, requested: %d", e.op.Account, s.UncollectedWitnessPay, e.op.Pay.Amount)
	}
	e.stats = s
	return nil
}

func (e *witnessCollectPayEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	if err := db.adjustCoreBalance(e.op.Account, e.op.Pay.Amount); nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.UncollectedWitnessPay -= e.op.Pay.Amount
	})
	return voidResult()
}

type witnessReportEvaluator struct {
	*opContext
	op       *protocol.WitnessReport
	stats    *AccountStatistics
	pledge   *PledgeBalance
	blockNum uint32
}

func (e *witnessReportEvaluator) evaluate() error {
	op := e.op
	db := e.db
	params := db.params()

	if _, err := db.getAccount(op.Reporter); nil != err {
		return err
	}
	offender := op.FirstBlock.Witness
	s, err := db.getStatistics(offender)
	if nil != err {
		return err
	}

	if op.FirstBlock.Timestamp > db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidBlockTime, "reported block time: %s is after head: %s", op.FirstBlock.Timestamp, db.headBlockTime())
	}
	n := op.FirstBlock.BlockNum()
	head := db.headBlockNum()
	if n > head {
		return errors.Wrapf(fault.ErrInvalidBlockNumber, "reported block: %d is after head: %d", n, head)
	}
	if n+params.WitnessReportProsecutionPeriod < head {
		return errors.Wrapf(fault.ErrInvalidBlockNumber, "reported block: %d is more than %d blocks old", n, params.WitnessReportProsecutionPeriod)
	}
	if !params.WitnessReportAllowPreLastBlock && n < s.WitnessLastConfirmedBlockNum {
		return errors.Wrapf(fault.ErrInvalidBlockNumber, "reported block: %d is before last confirmed: %d", n, s.WitnessLastConfirmedBlockNum)
	}
	if n <= s.WitnessLastReportedBlockNum {
		return errors.Wrapf(fault.ErrInvalidBlockNumber, "reported block: %d is not after last reported: %d", n, s.WitnessLastReportedBlockNum)
	}
	id, ok := db.blockIDForNum(n)
	if !ok || (id != op.FirstBlock.ID() && id != op.SecondBlock.ID()) {
		return errors.Wrapf(fault.ErrInvalidOperation, "neither reported block: %d is on the current chain", n)
	}

	p := db.findPledge(offender, WitnessPledge, offender)
	if nil == p {
		return errors.Wrapf(fault.ErrWitnessNotFound, "account: %s has no witness pledge", offender)
	}
	e.stats = s
	e.pledge = p
	e.blockNum = n
	return nil
}

func (e *witnessReportEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	offender := e.op.FirstBlock.Witness

	w := db.findWitness(offender)
	if nil != w {
		db.witnesses.Modify(w, func(w *Witness) {
			w.SigningKey = keypair.PublicKey{}
		})
	}

	total := e.pledge.Total()
	if deduction := db.params().WitnessReportPledgeDeductionAmount; deduction < total {
		total = deduction
	}
	if total > 0 {
		fromReleasing := e.pledge.TotalReleasingPledge
		if fromReleasing > total {
			fromReleasing = total
		}
		fromPledge := total - fromReleasing

		db.touchCoinSeconds(offender)
		db.pledges.Modify(e.pledge, func(p *PledgeBalance) {
			p.ReduceReleasing(fromReleasing)
			p.Pledge -= fromPledge
		})
		db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
			d.TotalWitnessPledge -= total
		})
		if fromPledge > 0 && nil != w {
			db.updateWitnessAvgPledge(w)
			db.witnesses.Modify(w, func(w *Witness) {
				w.Pledge -= uint64(fromPledge)
				w.PledgeLastUpdate = db.headBlockTime()
			})
			db.updateWitnessAvgPledge(w)
		}
		if err := db.adjustCoreBalance(offender, -total); nil != err {
			return nil, err
		}
		db.adjustSupply(protocol.AssetAID(constants.CoreAssetAID), -total)
	}

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.WitnessLastReportedBlockNum = e.blockNum
		s.WitnessTotalReported += 1
	})
	db.log.Warnf("witness: %s reported for block: %d by: %s, deducted: %d", offender, e.blockNum, e.op.Reporter, total)
	return voidResult()
}
