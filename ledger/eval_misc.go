// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

// beneficiaryOf - who may collect an account's bonus, the account
// itself unless another was assigned
func beneficiaryOf(s *AccountStatistics) account.UID {
	if 0 == s.Beneficiary {
		return s.Owner
	}
	return s.Beneficiary
}

type scoreBonusCollectEvaluator struct {
	*opContext
	op    *protocol.ScoreBonusCollect
	stats *AccountStatistics
}

func (e *scoreBonusCollectEvaluator) evaluate() error {
	op := e.op
	s, err := e.db.getStatistics(op.Account)
	if nil != err {
		return err
	}
	if beneficiaryOf(s) != op.Account {
		return errors.Wrapf(fault.ErrPermissionDenied, "account: %s bonus is assigned to: %s", op.Account, s.Beneficiary)
	}
	if s.UncollectedScoreBonus < op.Bonus {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s uncollected score bonus: %d, collect: %d", op.Account, s.UncollectedScoreBonus, op.Bonus)
	}
	e.stats = s
	return nil
}

func (e *scoreBonusCollectEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	e.db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.UncollectedScoreBonus -= op.Bonus
	})
	if err := e.db.adjustCoreBalance(op.Account, op.Bonus); nil != err {
		return nil, err
	}
	return voidResult()
}

type beneficiaryAssignEvaluator struct {
	*opContext
	op    *protocol.BeneficiaryAssign
	stats *AccountStatistics
}

func (e *beneficiaryAssignEvaluator) evaluate() error {
	op := e.op
	db := e.db

	s, err := db.getStatistics(op.Owner)
	if nil != err {
		return err
	}
	if _, err := db.getAccount(op.NewBeneficiary); nil != err {
		return err
	}
	if beneficiaryOf(s) == op.NewBeneficiary {
		return errors.Wrapf(fault.ErrNoChange, "account: %s beneficiary: %s", op.Owner, op.NewBeneficiary)
	}
	e.stats = s
	return nil
}

func (e *beneficiaryAssignEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	e.db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		if op.NewBeneficiary == s.Owner {
			s.Beneficiary = 0
		} else {
			s.Beneficiary = op.NewBeneficiary
		}
	})
	return voidResult()
}

type benefitCollectEvaluator struct {
	*opContext
	op   *protocol.BenefitCollect
	from *AccountStatistics
}

func (e *benefitCollectEvaluator) evaluate() error {
	op := e.op
	db := e.db

	from, err := db.getStatistics(op.From)
	if nil != err {
		return err
	}
	if beneficiaryOf(from) != op.Issuer {
		return errors.Wrapf(fault.ErrPermissionDenied, "account: %s is not the beneficiary of: %s", op.Issuer, op.From)
	}
	if from.UncollectedScoreBonus < op.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s uncollected score bonus: %d, collect: %d", op.From, from.UncollectedScoreBonus, op.Amount)
	}
	e.from = from
	return nil
}

func (e *benefitCollectEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	e.db.statistics.Modify(e.from, func(s *AccountStatistics) {
		s.UncollectedScoreBonus -= op.Amount
	})
	if err := e.db.adjustCoreBalance(op.Issuer, op.Amount); nil != err {
		return nil, err
	}
	return voidResult()
}
