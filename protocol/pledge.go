// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
)

// BalanceLockUpdate - set the amount locked to earn csaf
type BalanceLockUpdate struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Account        account.UID     `json:"account"`
	NewLockBalance int64           `json:"new_lock_balance"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *BalanceLockUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *BalanceLockUpdate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *BalanceLockUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "lock balance account"); nil != err {
		return err
	}
	return validateNonNegativeAmount(op.NewLockBalance, "new lock balance")
}

// Required - account active
func (op *BalanceLockUpdate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *BalanceLockUpdate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// PledgeMiningUpdate - delegate a pledge to a witness for a share of
// its block pay
type PledgeMiningUpdate struct {
	FeeBundle     FeeBundle       `json:"fee"`
	PledgeAccount account.UID     `json:"pledge_account"`
	Witness       account.UID     `json:"witness"`
	NewPledge     int64           `json:"new_pledge"`
	Extensions    *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PledgeMiningUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the delegator
func (op *PledgeMiningUpdate) FeePayer() account.UID { return op.PledgeAccount }

// Validate - stateless checks
func (op *PledgeMiningUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("pledge mining", op.PledgeAccount, op.Witness); nil != err {
		return err
	}
	if err := validateNonNegativeAmount(op.NewPledge, "new pledge"); nil != err {
		return err
	}
	if op.PledgeAccount == op.Witness {
		return errors.Wrap(fault.ErrInvalidOperation, "witness cannot mine with its own pledge")
	}
	if nil != op.Extensions {
		return errors.Wrap(fault.ErrInvalidParameter, "extensions not allowed")
	}
	return nil
}

// Required - delegator active
func (op *PledgeMiningUpdate) Required(r *authority.Required) {
	r.Add(op.PledgeAccount, authority.Active)
}

// CalculateFee - flat
func (op *PledgeMiningUpdate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// PledgeBonusCollect - move pledge mining bonus to the balance
type PledgeBonusCollect struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Bonus      Asset           `json:"bonus"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PledgeBonusCollect) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the delegator
func (op *PledgeBonusCollect) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *PledgeBonusCollect) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "pledge account"); nil != err {
		return err
	}
	if err := validatePositiveCore(op.Bonus, "bonus"); nil != err {
		return err
	}
	if nil != op.Extensions {
		return errors.Wrap(fault.ErrInvalidParameter, "extensions not allowed")
	}
	return nil
}

// Required - account active
func (op *PledgeBonusCollect) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *PledgeBonusCollect) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
