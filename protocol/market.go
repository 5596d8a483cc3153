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

// LimitOrderCreate - offer an amount of one asset for at least an
// amount of another
type LimitOrderCreate struct {
	FeeBundle    FeeBundle       `json:"fee"`
	Seller       account.UID     `json:"seller"`
	AmountToSell Asset           `json:"amount_to_sell"`
	MinToReceive Asset           `json:"min_to_receive"`
	Expiration   Timestamp       `json:"expiration"`
	FillOrKill   bool            `json:"fill_or_kill"`
	Extensions   *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *LimitOrderCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - seller
func (op *LimitOrderCreate) FeePayer() account.UID { return op.Seller }

// Validate - stateless checks
func (op *LimitOrderCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Seller, "seller"); nil != err {
		return err
	}
	if op.AmountToSell.AssetID == op.MinToReceive.AssetID {
		return errors.Wrap(fault.ErrInvalidPrice, "cannot trade an asset for itself")
	}
	if err := validatePositiveAmount(op.AmountToSell.Amount, "amount to sell"); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.MinToReceive.Amount, "min to receive"); nil != err {
		return err
	}
	if nil != op.Extensions {
		return errors.Wrap(fault.ErrInvalidOperation, "extensions are not allowed")
	}
	return nil
}

// Required - seller active
func (op *LimitOrderCreate) Required(r *authority.Required) {
	r.Add(op.Seller, authority.Active)
}

// CalculateFee - flat
func (op *LimitOrderCreate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// SellPrice - sell per receive
func (op *LimitOrderCreate) SellPrice() Price {
	return Price{Base: op.AmountToSell, Quote: op.MinToReceive}
}

// LimitOrderCancel - withdraw an open order
type LimitOrderCancel struct {
	FeeBundle        FeeBundle       `json:"fee"`
	FeePayingAccount account.UID     `json:"fee_paying_account"`
	Order            uint64          `json:"order"`
	Extensions       *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *LimitOrderCancel) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - seller
func (op *LimitOrderCancel) FeePayer() account.UID { return op.FeePayingAccount }

// Validate - stateless checks
func (op *LimitOrderCancel) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.FeePayingAccount, "fee paying account"); nil != err {
		return err
	}
	if nil != op.Extensions {
		return errors.Wrap(fault.ErrInvalidOperation, "extensions are not allowed")
	}
	return nil
}

// Required - seller active
func (op *LimitOrderCancel) Required(r *authority.Required) {
	r.Add(op.FeePayingAccount, authority.Active)
}

// CalculateFee - flat
func (op *LimitOrderCancel) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// FillOrder - record of a match, produced by the chain only
type FillOrder struct {
	FeeBundle FeeBundle   `json:"fee"`
	OrderID   uint64      `json:"order_id"`
	AccountID account.UID `json:"account_id"`
	Pays      Asset       `json:"pays"`
	Receives  Asset       `json:"receives"`
	FillPrice Price       `json:"fill_price"`
	IsMaker   bool        `json:"is_maker"`
}

// Fee - market fee taken from the receipt
func (op *FillOrder) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - order owner
func (op *FillOrder) FeePayer() account.UID { return op.AccountID }

// Validate - never valid inside a transaction
func (op *FillOrder) Validate() error {
	return errors.Wrap(fault.ErrInvalidOperation, "virtual operation")
}

// Required - nothing
func (op *FillOrder) Required(r *authority.Required) {}

// CalculateFee - free
func (op *FillOrder) CalculateFee(p FeeParameters) (uint64, error) { return 0, nil }

// MarketFeeCollect - move accumulated market fee rewards to the balance
type MarketFeeCollect struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	AssetAID   AssetAID        `json:"asset_aid"`
	Amount     int64           `json:"amount"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *MarketFeeCollect) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - collector
func (op *MarketFeeCollect) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *MarketFeeCollect) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "account"); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.Amount, "amount"); nil != err {
		return err
	}
	if nil != op.Extensions {
		return errors.Wrap(fault.ErrInvalidOperation, "extensions are not allowed")
	}
	return nil
}

// Required - collector active
func (op *MarketFeeCollect) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *MarketFeeCollect) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
