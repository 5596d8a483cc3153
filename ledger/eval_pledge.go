// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

type balanceLockUpdateEvaluator struct {
	*opContext
	op *protocol.BalanceLockUpdate
}

func (e *balanceLockUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if db.version < V05 {
		return errors.Wrap(fault.ErrOperationNotEnabled, "balance lock")
	}
	if _, err := db.getStatistics(op.Account); nil != err {
		return err
	}
	current := db.findPledge(op.Account, LockPledge, op.Account)
	if (nil == current && 0 == op.NewLockBalance) || (nil != current && current.Pledge == op.NewLockBalance) {
		return errors.Wrapf(fault.ErrNoChange, "account: %s lock balance: %d", op.Account, op.NewLockBalance)
	}
	return db.checkPledge(op.Account, LockPledge, op.Account, op.NewLockBalance)
}

func (e *balanceLockUpdateEvaluator) apply() (protocol.OperationResult, error) {
	if _, err := e.db.updatePledge(e.op.Account, LockPledge, e.op.Account, e.op.NewLockBalance); nil != err {
		return nil, err
	}
	return voidResult()
}

type pledgeMiningUpdateEvaluator struct {
	*opContext
	op      *protocol.PledgeMiningUpdate
	witness *Witness
	mining  *PledgeMining
}

func (e *pledgeMiningUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if db.version < V05 {
		return errors.Wrap(fault.ErrOperationNotEnabled, "pledge mining")
	}
	if _, err := db.getStatistics(op.PledgeAccount); nil != err {
		return err
	}
	w, err := db.getWitness(op.Witness)
	if nil != err {
		return err
	}
	if !w.CanPledge {
		return errors.Wrapf(fault.ErrPermissionDenied, "witness: %s does not accept mining pledges", op.Witness)
	}

	// one witness at a time per account
	for _, m := range db.miningByAccount.Prefix(op.PledgeAccount) {
		if m.Witness != op.Witness {
			return errors.Wrapf(fault.ErrInvalidOperation, "account: %s already pledges to witness: %s", op.PledgeAccount, m.Witness)
		}
	}
	m := db.miningByAccount.Find(objectdb.Key(op.PledgeAccount, op.Witness))

	if 0 == op.NewPledge {
		if nil == m {
			return errors.Wrapf(fault.ErrNoChange, "account: %s has no pledge to witness: %s", op.PledgeAccount, op.Witness)
		}
	} else {
		if op.NewPledge < constants.DefaultMinPledgeToWitness {
			return errors.Wrapf(fault.ErrInsufficientPledge, "mining pledge: %d, needs: %d", op.NewPledge, constants.DefaultMinPledgeToWitness)
		}
		if nil != m && m.Pledge == op.NewPledge {
			return errors.Wrapf(fault.ErrNoChange, "account: %s pledge to witness: %s", op.PledgeAccount, op.Witness)
		}
		if err := db.checkPledge(op.PledgeAccount, MinePledge, op.Witness, op.NewPledge); nil != err {
			return err
		}
	}
	e.witness = w
	e.mining = m
	return nil
}

func (e *pledgeMiningUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	w := e.witness

	delta := op.NewPledge
	if nil != e.mining {
		db.settleMiningBonus(w, e.mining)
		delta -= e.mining.Pledge
		if 0 == op.NewPledge {
			db.minings.Remove(e.mining)
		} else {
			db.minings.Modify(e.mining, func(m *PledgeMining) {
				m.Pledge = op.NewPledge
			})
		}
	} else {
		db.settleWitnessBonus(w)
		_, err := db.minings.Create(func(m *PledgeMining) {
			m.PledgeAccount = op.PledgeAccount
			m.Witness = op.Witness
			m.Pledge = op.NewPledge
			m.LastBonusBlockNum = w.lastBonusBlock()
		})
		if nil != err {
			return nil, err
		}
	}
	if _, err := db.updatePledge(op.PledgeAccount, MinePledge, op.Witness, op.NewPledge); nil != err {
		return nil, err
	}

	db.adjustMiningPledge(w, delta)
	return voidResult()
}

type pledgeBonusCollectEvaluator struct {
	*opContext
	op    *protocol.PledgeBonusCollect
	stats *AccountStatistics
}

func (e *pledgeBonusCollectEvaluator) evaluate() error {
	s, err := e.db.getStatistics(e.op.Account)
	if nil != err {
		return err
	}
	// bonus settled since the last collect is included
	available := s.UncollectedPledgeBonus + e.db.pendingMiningBonus(e.op.Account)
	if available < e.op.Bonus.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s uncollected bonus: %d, requested: %d", e.op.Account, available, e.op.Bonus.Amount)
	}
	e.stats = s
	return nil
}

func (e *pledgeBonusCollectEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	for _, m := range db.miningByAccount.Prefix(e.op.Account) {
		if w := db.findWitness(m.Witness); nil != w {
			db.settleMiningBonus(w, m)
		}
	}
	if err := db.adjustCoreBalance(e.op.Account, e.op.Bonus.Amount); nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.UncollectedPledgeBonus -= e.op.Bonus.Amount
	})
	return voidResult()
}

// adjustMiningPledge - a delegated pledge moved the witness in the
// by-pledge queue
func (db *Database) adjustMiningPledge(w *Witness, delta int64) {
	if 0 == delta {
		return
	}
	db.updateWitnessAvgPledge(w)
	db.witnesses.Modify(w, func(w *Witness) {
		w.TotalMiningPledge = uint64(int64(w.TotalMiningPledge) + delta)
	})
	db.updateWitnessAvgPledge(w)
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.TotalWitnessPledge += delta
	})
}

// payWitnessBonus - set aside the delegators' share of a block pay,
// returns what is left for the witness
func (db *Database) payWitnessBonus(w *Witness, pay int64) int64 {
	if db.version < V05 || !w.CanPledge || 0 == w.TotalMiningPledge || 0 == w.BonusRate || pay <= 0 {
		return pay
	}
	bonus := int64(uint128.From64(uint64(pay)).Mul64(uint64(w.BonusRate)).Div64(uint64(constants.HundredPercent)).Lo)
	db.witnesses.Modify(w, func(w *Witness) {
		w.UnhandledBonus += uint64(bonus)
	})
	return pay - bonus
}

// settleWitnessBonus - turn the unhandled bonus into a per pledge
// rate at the head block
func (db *Database) settleWitnessBonus(w *Witness) {
	if 0 == w.UnhandledBonus || 0 == w.TotalMiningPledge {
		return
	}
	head := db.headBlockNum()
	perPledge := uint128.From64(w.UnhandledBonus).Mul64(constants.PledgeBonusPrecision).Div64(w.TotalMiningPledge).Lo
	db.witnesses.Modify(w, func(w *Witness) {
		if nil == w.BonusPerPledge {
			w.BonusPerPledge = make(map[uint32]uint64)
		}
		w.BonusPerPledge[head] += perPledge
		w.NeedDistributeBonus += w.UnhandledBonus
		w.UnhandledBonus = 0
		w.LastUpdateBonusBlockNum = head
	})
}

// bonusSince - sum of per pledge rates recorded after a block
func (w *Witness) bonusSince(block uint32) uint64 {
	total := uint64(0)
	for b, v := range w.BonusPerPledge {
		if b > block {
			total += v
		}
	}
	return total
}

// settleMiningBonus - credit one delegator with everything recorded
// since its last settlement
func (db *Database) settleMiningBonus(w *Witness, m *PledgeMining) {
	db.settleWitnessBonus(w)
	last := w.lastBonusBlock()
	if last <= m.LastBonusBlockNum {
		return
	}
	bonus := uint128.From64(uint64(m.Pledge)).Mul64(w.bonusSince(m.LastBonusBlockNum)).Div64(constants.PledgeBonusPrecision).Lo
	if bonus > w.NeedDistributeBonus {
		bonus = w.NeedDistributeBonus
	}
	db.minings.Modify(m, func(m *PledgeMining) {
		m.LastBonusBlockNum = last
	})
	if 0 != bonus {
		db.witnesses.Modify(w, func(w *Witness) {
			w.NeedDistributeBonus -= bonus
			w.AlreadyDistributedBonus += bonus
		})
		db.statistics.Modify(db.stats(m.PledgeAccount), func(s *AccountStatistics) {
			s.UncollectedPledgeBonus += int64(bonus)
		})
	}
	db.pruneBonusHistory(w)
}

// pruneBonusHistory - drop rates every delegator has been paid
func (db *Database) pruneBonusHistory(w *Witness) {
	oldest := constants.NeverBlock
	for _, m := range db.miningByWitness.Prefix(w.Account) {
		if m.LastBonusBlockNum < oldest {
			oldest = m.LastBonusBlockNum
		}
	}
	stale := false
	for b := range w.BonusPerPledge {
		if b <= oldest {
			stale = true
			break
		}
	}
	if !stale {
		return
	}
	db.witnesses.Modify(w, func(w *Witness) {
		for b := range w.BonusPerPledge {
			if b <= oldest {
				delete(w.BonusPerPledge, b)
			}
		}
	})
}

// pendingMiningBonus - bonus an account would receive if its mining
// pledges were settled now
func (db *Database) pendingMiningBonus(uid account.UID) int64 {
	total := uint64(0)
	for _, m := range db.miningByAccount.Prefix(uid) {
		w := db.findWitness(m.Witness)
		if nil == w {
			continue
		}
		perPledge := w.bonusSince(m.LastBonusBlockNum)
		if 0 != w.UnhandledBonus && 0 != w.TotalMiningPledge {
			perPledge += uint128.From64(w.UnhandledBonus).Mul64(constants.PledgeBonusPrecision).Div64(w.TotalMiningPledge).Lo
		}
		total += uint128.From64(uint64(m.Pledge)).Mul64(perPledge).Div64(constants.PledgeBonusPrecision).Lo
	}
	return int64(total)
}

// releaseWitnessMining - the witness stopped accepting pledges, pay
// every delegator and queue their pledges for release
//
// what rounding leaves undistributed goes back to the witness
func (db *Database) releaseWitnessMining(w *Witness) error {
	for _, m := range db.miningByWitness.Prefix(w.Account) {
		db.settleMiningBonus(w, m)
		if _, err := db.updatePledge(m.PledgeAccount, MinePledge, w.Account, 0); nil != err {
			return err
		}
		db.minings.Remove(m)
	}

	leftover := int64(w.NeedDistributeBonus + w.UnhandledBonus)
	total := int64(w.TotalMiningPledge)
	db.witnesses.Modify(w, func(w *Witness) {
		w.TotalMiningPledge = 0
		w.UnhandledBonus = 0
		w.NeedDistributeBonus = 0
		w.AlreadyDistributedBonus = 0
		w.LastUpdateBonusBlockNum = db.headBlockNum()
		w.BonusPerPledge = nil
	})
	db.updateWitnessAvgPledge(w)
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.TotalWitnessPledge -= total
	})
	if leftover > 0 {
		db.statistics.Modify(db.stats(w.Account), func(s *AccountStatistics) {
			s.UncollectedWitnessPay += leftover
		})
	}
	db.log.Infof("witness: %s released mining pledges: %d", w.Account, total)
	return nil
}

// processPledgeBonus - settle the witnesses whose bonus has waited a
// full interval
func (db *Database) processPledgeBonus() {
	head := db.headBlockNum()
	if head < db.dgp().LastPledgeBonusSettleBlock+constants.PledgeBonusSettleInterval {
		return
	}
	for _, w := range db.witnessByValid.Prefix(true) {
		if 0 != w.UnhandledBonus && head >= w.LastUpdateBonusBlockNum+constants.PledgeBonusSettleInterval {
			db.settleWitnessBonus(w)
		}
	}
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.LastPledgeBonusSettleBlock = head
	})
}
