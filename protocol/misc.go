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

// ScoreBonusCollect - move accumulated scoring bonus to the balance
type ScoreBonusCollect struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Bonus      int64           `json:"bonus"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ScoreBonusCollect) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - collector
func (op *ScoreBonusCollect) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *ScoreBonusCollect) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "account"); nil != err {
		return err
	}
	return validatePositiveAmount(op.Bonus, "bonus")
}

// Required - collector active
func (op *ScoreBonusCollect) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *ScoreBonusCollect) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// BeneficiaryAssign - name the account allowed to collect benefits
type BeneficiaryAssign struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Owner          account.UID     `json:"owner"`
	NewBeneficiary account.UID     `json:"new_beneficiary"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *BeneficiaryAssign) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - owner
func (op *BeneficiaryAssign) FeePayer() account.UID { return op.Owner }

// Validate - stateless checks
func (op *BeneficiaryAssign) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	return validateUIDs("beneficiary assign", op.Owner, op.NewBeneficiary)
}

// Required - owner authority since the beneficiary receives funds
func (op *BeneficiaryAssign) Required(r *authority.Required) {
	r.Add(op.Owner, authority.Owner)
}

// CalculateFee - flat
func (op *BeneficiaryAssign) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// BenefitCollect - beneficiary takes benefits accumulated by an account
type BenefitCollect struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Issuer     account.UID     `json:"issuer"`
	From       account.UID     `json:"from"`
	Amount     int64           `json:"amount"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *BenefitCollect) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - beneficiary
func (op *BenefitCollect) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *BenefitCollect) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("benefit collect", op.Issuer, op.From); nil != err {
		return err
	}
	if op.Issuer == op.From {
		return errors.Wrap(fault.ErrInvalidOperation, "use score bonus collect for own benefits")
	}
	return validatePositiveAmount(op.Amount, "amount")
}

// Required - beneficiary active
func (op *BenefitCollect) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - flat
func (op *BenefitCollect) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
