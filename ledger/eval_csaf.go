// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

type csafCollectEvaluator struct {
	*opContext
	op         *protocol.CSAFCollect
	from       *AccountStatistics
	to         *AccountStatistics
	collecting uint128.Uint128
}

func (e *csafCollectEvaluator) evaluate() error {
	op := e.op
	db := e.db
	params := db.params()

	from, err := db.getStatistics(op.From)
	if nil != err {
		return err
	}
	to, err := db.getStatistics(op.To)
	if nil != err {
		return err
	}
	if op.Amount.Amount+to.CSAF > params.MaxCSAFPerAccount {
		return errors.Wrapf(fault.ErrInvalidAmount, "account: %s csaf: %d plus: %d exceeds: %d", op.To, to.CSAF, op.Amount.Amount, params.MaxCSAFPerAccount)
	}

	available, _ := computeCoinSeconds(from, db.csafEffectiveBalance(from), params.CSAFAccumulateWindow, db.headBlockTime())
	collecting := uint128.From64(uint64(op.Amount.Amount)).Mul64(params.CSAFRate)
	if available.Cmp(collecting) < 0 {
		return errors.Wrapf(fault.ErrInsufficientCSAF, "account: %s available: %d, collecting: %d", op.From, available.Div64(params.CSAFRate).Lo, op.Amount.Amount)
	}
	e.from = from
	e.to = to
	e.collecting = collecting
	return nil
}

func (e *csafCollectEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	db.statistics.Modify(e.from, func(s *AccountStatistics) {
		db.updateCoinSeconds(s)
		s.CoinSecondsEarned = s.CoinSecondsEarned.Sub(e.collecting)
	})
	db.statistics.Modify(e.to, func(s *AccountStatistics) {
		s.CSAF += e.op.Amount.Amount
	})
	return voidResult()
}

type csafLeaseEvaluator struct {
	*opContext
	op      *protocol.CSAFLease
	current *CSAFLease
	from    *AccountStatistics
	to      *AccountStatistics
	delta   int64
}

func (e *csafLeaseEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if 0 != op.Amount.Amount && op.Expiration <= db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidExpiration, "lease expiration: %s is not after: %s", op.Expiration, db.headBlockTime())
	}

	e.current = db.leaseByFromTo.Find(objectdb.Key(op.From, op.To))
	if nil == e.current {
		if 0 == op.Amount.Amount {
			return errors.Wrapf(fault.ErrNoChange, "no lease from: %s to: %s", op.From, op.To)
		}
		e.delta = op.Amount.Amount
	} else {
		if e.current.Amount == op.Amount.Amount && e.current.Expiration == op.Expiration {
			return errors.Wrapf(fault.ErrNoChange, "lease from: %s to: %s", op.From, op.To)
		}
		e.delta = op.Amount.Amount - e.current.Amount
	}

	from, err := db.getStatistics(op.From)
	if nil != err {
		return err
	}
	to, err := db.getStatistics(op.To)
	if nil != err {
		return err
	}
	if e.delta > 0 {
		if available := db.availableCoreBalance(from); available < e.delta {
			return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s available: %d, leasing: %d", op.From, available, e.delta)
		}
	}
	e.from = from
	e.to = to
	return nil
}

func (e *csafLeaseEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	var id objectdb.ID
	switch {
	case nil == e.current:
		lease, err := db.leases.Create(func(l *CSAFLease) {
			l.From = op.From
			l.To = op.To
			l.Amount = op.Amount.Amount
			l.Expiration = op.Expiration
		})
		if nil != err {
			return nil, err
		}
		id = lease.ObjectID()
	case op.Amount.Amount > 0:
		db.leases.Modify(e.current, func(l *CSAFLease) {
			l.Amount = op.Amount.Amount
			l.Expiration = op.Expiration
		})
		id = e.current.ObjectID()
	default:
		id = e.current.ObjectID()
		db.leases.Remove(e.current)
	}

	db.statistics.Modify(e.from, func(s *AccountStatistics) {
		db.updateCoinSeconds(s)
		s.CoreLeasedOut += e.delta
	})
	db.statistics.Modify(e.to, func(s *AccountStatistics) {
		db.updateCoinSeconds(s)
		s.CoreLeasedIn += e.delta
	})
	return objectResult(id)
}

// clearExpiredLeases - return leased earning power once a lease
// expires
func (db *Database) clearExpiredLeases() {
	now := db.headBlockTime()
	for _, l := range db.leaseByExpiration.Range(objectdb.Key(protocol.Timestamp(0)), objectdb.Key(now+1)) {
		from := db.stats(l.From)
		to := db.stats(l.To)
		db.statistics.Modify(from, func(s *AccountStatistics) {
			db.updateCoinSeconds(s)
			s.CoreLeasedOut -= l.Amount
		})
		db.statistics.Modify(to, func(s *AccountStatistics) {
			db.updateCoinSeconds(s)
			s.CoreLeasedIn -= l.Amount
		})
		db.leases.Remove(l)
	}
}
