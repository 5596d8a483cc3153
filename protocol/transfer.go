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

// TransferExtension - move between balance and prepaid
type TransferExtension struct {
	FromBalance *Asset `json:"from_balance,omitempty"`
	FromPrepaid *Asset `json:"from_prepaid,omitempty"`
	ToBalance   *Asset `json:"to_balance,omitempty"`
	ToPrepaid   *Asset `json:"to_prepaid,omitempty"`
}

// Transfer - move an asset between accounts
type Transfer struct {
	FeeBundle  FeeBundle          `json:"fee"`
	From       account.UID        `json:"from"`
	To         account.UID        `json:"to"`
	Amount     Asset              `json:"amount"`
	Memo       *Memo              `json:"memo,omitempty"`
	Extensions *TransferExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *Transfer) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - sender
func (op *Transfer) FeePayer() account.UID { return op.From }

// Amounts - how the transfer draws and lands, defaulting to balance
// on both sides
func (op *Transfer) Amounts() (fromBalance int64, fromPrepaid int64, toBalance int64, toPrepaid int64) {
	fromBalance = op.Amount.Amount
	toBalance = op.Amount.Amount
	e := op.Extensions
	if nil == e || !op.Amount.IsCore() {
		return
	}
	if nil != e.FromBalance || nil != e.FromPrepaid {
		fromBalance, fromPrepaid = amountOf(e.FromBalance), amountOf(e.FromPrepaid)
	}
	if nil != e.ToBalance || nil != e.ToPrepaid {
		toBalance, toPrepaid = amountOf(e.ToBalance), amountOf(e.ToPrepaid)
	}
	return
}

func amountOf(a *Asset) int64 {
	if nil == a {
		return 0
	}
	return a.Amount
}

// Validate - stateless checks
func (op *Transfer) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("transfer", op.From, op.To); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.Amount.Amount, "transfer amount"); nil != err {
		return err
	}

	e := op.Extensions
	if nil == e || !op.Amount.IsCore() {
		if op.From == op.To {
			return errors.Wrap(fault.ErrInvalidOperation, "cannot transfer to self")
		}
		return nil
	}

	for _, a := range []*Asset{e.FromBalance, e.FromPrepaid, e.ToBalance, e.ToPrepaid} {
		if nil == a {
			continue
		}
		if a.AssetID != op.Amount.AssetID {
			return errors.Wrap(fault.ErrInvalidAmount, "transfer extension asset")
		}
		if err := validatePositiveAmount(a.Amount, "transfer extension"); nil != err {
			return err
		}
	}
	fromBalance, fromPrepaid, _, toPrepaid := op.Amounts()
	if fromBalance+fromPrepaid != op.Amount.Amount {
		return errors.Wrap(fault.ErrInvalidAmount, "amount should equal from_balance + from_prepaid")
	}
	if op.Amount.Amount != amountOf(e.ToBalance)+amountOf(e.ToPrepaid) && (nil != e.ToBalance || nil != e.ToPrepaid) {
		return errors.Wrap(fault.ErrInvalidAmount, "amount should equal to_balance + to_prepaid")
	}
	if op.From == op.To {
		balanceToPrepaid := 0 == fromPrepaid && toPrepaid == op.Amount.Amount
		prepaidToBalance := fromPrepaid == op.Amount.Amount && 0 == toPrepaid
		if !balanceToPrepaid && !prepaidToBalance {
			return errors.Wrap(fault.ErrInvalidOperation, "self transfer must move between balance and prepaid")
		}
	}
	return nil
}

// Required - active when balance is touched, otherwise secondary
func (op *Transfer) Required(r *authority.Required) {
	fromBalance, _, _, _ := op.Amounts()
	if fromBalance > 0 {
		r.Add(op.From, authority.Active)
	} else {
		r.Add(op.From, authority.Secondary)
	}
}

// CalculateFee - base fee plus memo size
func (op *Transfer) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	if nil != op.Memo {
		fee += CalculateDataFee(OptionalPackedSize(op.Memo), p.PricePerKbyte)
	}
	return fee, nil
}

// OverrideTransfer - issuer moves a restricted asset
type OverrideTransfer struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Issuer     account.UID     `json:"issuer"`
	From       account.UID     `json:"from"`
	To         account.UID     `json:"to"`
	Amount     Asset           `json:"amount"`
	Memo       *Memo           `json:"memo,omitempty"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *OverrideTransfer) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - issuer
func (op *OverrideTransfer) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *OverrideTransfer) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("override transfer", op.Issuer, op.From, op.To); nil != err {
		return err
	}
	if op.From == op.To || op.Issuer == op.From {
		return fault.ErrInvalidOperation
	}
	return validatePositiveAmount(op.Amount.Amount, "override amount")
}

// Required - issuer active
func (op *OverrideTransfer) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - base fee plus memo size
func (op *OverrideTransfer) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	if nil != op.Memo {
		fee += CalculateDataFee(OptionalPackedSize(op.Memo), p.PricePerKbyte)
	}
	return fee, nil
}
