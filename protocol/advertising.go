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

// descriptions up to this packed size carry no data fee
const freeDescriptionSize = 65

// AdvertisingCreate - a platform offers an advertising slot
type AdvertisingCreate struct {
	FeeBundle      FeeBundle       `json:"fee"`
	AdvertisingAID uint64          `json:"advertising_aid"`
	Platform       account.UID     `json:"platform"`
	UnitTime       uint32          `json:"unit_time"`
	UnitPrice      int64           `json:"unit_price"`
	Description    string          `json:"description"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AdvertisingCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform
func (op *AdvertisingCreate) FeePayer() account.UID { return op.Platform }

// Validate - stateless checks
func (op *AdvertisingCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Platform, "platform"); nil != err {
		return err
	}
	if 0 == op.UnitTime {
		return errors.Wrap(fault.ErrInvalidParameter, "unit time should be positive")
	}
	return validatePositiveAmount(op.UnitPrice, "unit price")
}

// Required - platform active
func (op *AdvertisingCreate) Required(r *authority.Required) {
	r.Add(op.Platform, authority.Active)
}

// CalculateFee - base plus a long description
func (op *AdvertisingCreate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + descriptionFee(op.Description, p.PricePerKbyte), nil
}

func descriptionFee(description string, pricePerKbyte uint64) uint64 {
	size := PackedSize(description)
	if size > freeDescriptionSize {
		return CalculateDataFee(size, pricePerKbyte)
	}
	return 0
}

// AdvertisingUpdate - change an advertising slot
type AdvertisingUpdate struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Platform       account.UID     `json:"platform"`
	AdvertisingAID uint64          `json:"advertising_aid"`
	Description    *string         `json:"description,omitempty"`
	UnitPrice      *int64          `json:"unit_price,omitempty"`
	UnitTime       *uint32         `json:"unit_time,omitempty"`
	OnSell         *bool           `json:"on_sell,omitempty"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AdvertisingUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform
func (op *AdvertisingUpdate) FeePayer() account.UID { return op.Platform }

// Validate - stateless checks
func (op *AdvertisingUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Platform, "platform"); nil != err {
		return err
	}
	if nil == op.Description && nil == op.UnitPrice && nil == op.UnitTime && nil == op.OnSell {
		return fault.ErrNoChange
	}
	if nil != op.UnitPrice {
		if err := validatePositiveAmount(*op.UnitPrice, "unit price"); nil != err {
			return err
		}
	}
	if nil != op.UnitTime && 0 == *op.UnitTime {
		return errors.Wrap(fault.ErrInvalidParameter, "unit time should be positive")
	}
	return nil
}

// Required - platform active
func (op *AdvertisingUpdate) Required(r *authority.Required) {
	r.Add(op.Platform, authority.Active)
}

// CalculateFee - base plus a long description
func (op *AdvertisingUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	if nil == op.Description {
		return p.Fee, nil
	}
	return p.Fee + descriptionFee(*op.Description, p.PricePerKbyte), nil
}

// AdvertisingBuy - place an order for a number of advertising units
type AdvertisingBuy struct {
	FeeBundle           FeeBundle       `json:"fee"`
	AdvertisingOrderOID uint64          `json:"advertising_order_oid"`
	FromAccount         account.UID     `json:"from_account"`
	Platform            account.UID     `json:"platform"`
	AdvertisingAID      uint64          `json:"advertising_aid"`
	StartTime           Timestamp       `json:"start_time"`
	BuyNumber           uint32          `json:"buy_number"`
	ExtraData           string          `json:"extra_data"`
	Memo                *Memo           `json:"memo,omitempty"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AdvertisingBuy) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - buyer
func (op *AdvertisingBuy) FeePayer() account.UID { return op.FromAccount }

// Validate - stateless checks
func (op *AdvertisingBuy) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("advertising buy", op.Platform, op.FromAccount); nil != err {
		return err
	}
	if op.Platform == op.FromAccount {
		return errors.Wrap(fault.ErrInvalidOperation, "platform cannot buy its own advertising")
	}
	if 0 == op.BuyNumber {
		return errors.Wrap(fault.ErrInvalidParameter, "buy number should be positive")
	}
	return nil
}

// Required - buyer active
func (op *AdvertisingBuy) Required(r *authority.Required) {
	r.Add(op.FromAccount, authority.Active)
}

// CalculateFee - flat
func (op *AdvertisingBuy) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AdvertisingConfirm - platform accepts or rejects an order
type AdvertisingConfirm struct {
	FeeBundle           FeeBundle       `json:"fee"`
	Platform            account.UID     `json:"platform"`
	AdvertisingAID      uint64          `json:"advertising_aid"`
	AdvertisingOrderOID uint64          `json:"advertising_order_oid"`
	IsConfirm           bool            `json:"iscomfirm"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AdvertisingConfirm) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform
func (op *AdvertisingConfirm) FeePayer() account.UID { return op.Platform }

// Validate - stateless checks
func (op *AdvertisingConfirm) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	return validateUID(op.Platform, "platform")
}

// Required - platform active
func (op *AdvertisingConfirm) Required(r *authority.Required) {
	r.Add(op.Platform, authority.Active)
}

// CalculateFee - flat
func (op *AdvertisingConfirm) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AdvertisingRansom - buyer recovers the funds of an order the
// platform left unconfirmed
type AdvertisingRansom struct {
	FeeBundle           FeeBundle       `json:"fee"`
	FromAccount         account.UID     `json:"from_account"`
	Platform            account.UID     `json:"platform"`
	AdvertisingAID      uint64          `json:"advertising_aid"`
	AdvertisingOrderOID uint64          `json:"advertising_order_oid"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AdvertisingRansom) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - buyer
func (op *AdvertisingRansom) FeePayer() account.UID { return op.FromAccount }

// Validate - stateless checks
func (op *AdvertisingRansom) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	return validateUIDs("advertising ransom", op.Platform, op.FromAccount)
}

// Required - buyer active
func (op *AdvertisingRansom) Required(r *authority.Required) {
	r.Add(op.FromAccount, authority.Active)
}

// CalculateFee - flat
func (op *AdvertisingRansom) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
