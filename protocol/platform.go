// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// PlatformCreate - register a content platform backed by a pledge
type PlatformCreate struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Pledge     Asset           `json:"pledge"`
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	ExtraData  string          `json:"extra_data"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PlatformCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform owner
func (op *PlatformCreate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *PlatformCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "platform"); nil != err {
		return err
	}
	if err := validateNonNegativeCore(op.Pledge, "pledge"); nil != err {
		return err
	}
	return validatePlatformStrings(&op.Name, &op.URL, &op.ExtraData)
}

// Required - owner active
func (op *PlatformCreate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - base plus every string's size
func (op *PlatformCreate) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	fee += CalculateDataFee(PackedSize(op.ExtraData), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.Name), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.URL), p.PricePerKbyte)
	return fee, nil
}

// PlatformUpdate - change pledge or descriptive fields, a zero
// pledge closes the platform
type PlatformUpdate struct {
	FeeBundle    FeeBundle       `json:"fee"`
	Account      account.UID     `json:"account"`
	NewPledge    *Asset          `json:"new_pledge,omitempty"`
	NewName      *string         `json:"new_name,omitempty"`
	NewURL       *string         `json:"new_url,omitempty"`
	NewExtraData *string         `json:"new_extra_data,omitempty"`
	Extensions   *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PlatformUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform owner
func (op *PlatformUpdate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *PlatformUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "platform"); nil != err {
		return err
	}
	if nil == op.NewPledge && nil == op.NewName && nil == op.NewURL && nil == op.NewExtraData {
		return fault.ErrNoChange
	}
	if nil != op.NewPledge {
		if err := validateNonNegativeCore(*op.NewPledge, "new pledge"); nil != err {
			return err
		}
	}
	return validatePlatformStrings(op.NewName, op.NewURL, op.NewExtraData)
}

// Required - owner active
func (op *PlatformUpdate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - base plus the size of the changed strings
func (op *PlatformUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	for _, s := range []*string{op.NewExtraData, op.NewName, op.NewURL} {
		if nil != s {
			fee += CalculateDataFee(OptionalPackedSize(s), p.PricePerKbyte)
		}
	}
	return fee, nil
}

// PlatformVoteUpdate - change the platforms a voter supports
type PlatformVoteUpdate struct {
	FeeBundle        FeeBundle       `json:"fee"`
	Voter            account.UID     `json:"voter"`
	PlatformToAdd    []account.UID   `json:"platform_to_add"`
	PlatformToRemove []account.UID   `json:"platform_to_remove"`
	Extensions       *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PlatformVoteUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - voter
func (op *PlatformVoteUpdate) FeePayer() account.UID { return op.Voter }

// Validate - stateless checks
func (op *PlatformVoteUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Voter, "voter"); nil != err {
		return err
	}
	return validateVoteChange(op.PlatformToAdd, op.PlatformToRemove, "platform")
}

// Required - voter active
func (op *PlatformVoteUpdate) Required(r *authority.Required) {
	r.Add(op.Voter, authority.Active)
}

// CalculateFee - base plus a price per added platform
func (op *PlatformVoteUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + p.PricePerUnit*uint64(len(op.PlatformToAdd)), nil
}

// nil strings are skipped
func validatePlatformStrings(name *string, url *string, extraData *string) error {
	if nil != name {
		if err := validateString(*name, constants.MaxPlatformNameLength, "platform name"); nil != err {
			return err
		}
	}
	if nil != url {
		if err := validateString(*url, constants.MaxURLLength, "platform url"); nil != err {
			return err
		}
	}
	if nil != extraData {
		if err := validateString(*extraData, constants.MaxPlatformExtraDataLength, "platform extra_data"); nil != err {
			return err
		}
	}
	return nil
}
