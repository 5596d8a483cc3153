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
	"github.com/yoyow-org/yoyowd/keypair"
)

// WitnessMiningExtension - whether the witness accepts mining pledges
// and the share of its pay passed on to them
type WitnessMiningExtension struct {
	CanPledge *bool   `json:"can_pledge,omitempty"`
	BonusRate *uint16 `json:"bonus_rate,omitempty"`
}

func (e *WitnessMiningExtension) validate() error {
	if nil == e || nil == e.BonusRate {
		return nil
	}
	return validatePercentage(*e.BonusRate, "bonus rate")
}

// WitnessCreate - bid for a block producer position
type WitnessCreate struct {
	FeeBundle       FeeBundle               `json:"fee"`
	Account         account.UID             `json:"account"`
	BlockSigningKey keypair.PublicKey       `json:"block_signing_key"`
	Pledge          Asset                   `json:"pledge"`
	URL             string                  `json:"url"`
	Extensions      *WitnessMiningExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *WitnessCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the witness account
func (op *WitnessCreate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *WitnessCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "witness"); nil != err {
		return err
	}
	if err := validateNonNegativeCore(op.Pledge, "pledge"); nil != err {
		return err
	}
	if err := op.Extensions.validate(); nil != err {
		return err
	}
	return validateURL(op.URL)
}

// Required - account active
func (op *WitnessCreate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *WitnessCreate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// WitnessUpdate - change key, pledge or url, a zero pledge resigns
type WitnessUpdate struct {
	FeeBundle     FeeBundle               `json:"fee"`
	Account       account.UID             `json:"account"`
	NewSigningKey *keypair.PublicKey      `json:"new_signing_key,omitempty"`
	NewPledge     *Asset                  `json:"new_pledge,omitempty"`
	NewURL        *string                 `json:"new_url,omitempty"`
	Extensions    *WitnessMiningExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *WitnessUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the witness account
func (op *WitnessUpdate) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *WitnessUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "witness"); nil != err {
		return err
	}
	noMining := nil == op.Extensions || (nil == op.Extensions.CanPledge && nil == op.Extensions.BonusRate)
	if nil == op.NewPledge && nil == op.NewSigningKey && nil == op.NewURL && noMining {
		return fault.ErrNoChange
	}
	if err := op.Extensions.validate(); nil != err {
		return err
	}
	if nil != op.NewPledge {
		if err := validateNonNegativeCore(*op.NewPledge, "new pledge"); nil != err {
			return err
		}
	}
	if nil != op.NewURL {
		return validateURL(*op.NewURL)
	}
	return nil
}

// Required - account active
func (op *WitnessUpdate) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *WitnessUpdate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// WitnessVoteUpdate - change the witnesses a voter supports, empty
// lists refresh the vote
type WitnessVoteUpdate struct {
	FeeBundle         FeeBundle       `json:"fee"`
	Voter             account.UID     `json:"voter"`
	WitnessesToAdd    []account.UID   `json:"witnesses_to_add"`
	WitnessesToRemove []account.UID   `json:"witnesses_to_remove"`
	Extensions        *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *WitnessVoteUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - voter
func (op *WitnessVoteUpdate) FeePayer() account.UID { return op.Voter }

// Validate - stateless checks
func (op *WitnessVoteUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Voter, "voter"); nil != err {
		return err
	}
	return validateVoteChange(op.WitnessesToAdd, op.WitnessesToRemove, "witness")
}

// Required - voter active
func (op *WitnessVoteUpdate) Required(r *authority.Required) {
	r.Add(op.Voter, authority.Active)
}

// CalculateFee - base plus a price per added witness
func (op *WitnessVoteUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + p.PricePerUnit*uint64(len(op.WitnessesToAdd)), nil
}

// WitnessCollectPay - move accumulated block pay to the balance
type WitnessCollectPay struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Pay        Asset           `json:"pay"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *WitnessCollectPay) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the witness account
func (op *WitnessCollectPay) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *WitnessCollectPay) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "witness"); nil != err {
		return err
	}
	return validatePositiveCore(op.Pay, "pay")
}

// Required - account active
func (op *WitnessCollectPay) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *WitnessCollectPay) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// WitnessReport - evidence that a witness signed two blocks for the
// same slot
type WitnessReport struct {
	FeeBundle   FeeBundle         `json:"fee"`
	Reporter    account.UID       `json:"reporter"`
	FirstBlock  SignedBlockHeader `json:"first_block"`
	SecondBlock SignedBlockHeader `json:"second_block"`
	Extensions  *EmptyExtension   `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *WitnessReport) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - reporter
func (op *WitnessReport) FeePayer() account.UID { return op.Reporter }

// Validate - two different headers for one slot signed by one key
func (op *WitnessReport) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("witness report", op.Reporter, op.FirstBlock.Witness); nil != err {
		return err
	}
	first, second := &op.FirstBlock, &op.SecondBlock
	if first.Timestamp != second.Timestamp {
		return errors.Wrap(fault.ErrInvalidOperation, "blocks should have the same timestamp")
	}
	if first.Witness != second.Witness {
		return errors.Wrap(fault.ErrInvalidOperation, "blocks should be produced by the same witness")
	}
	if first.ID() == second.ID() {
		return errors.Wrap(fault.ErrInvalidOperation, "blocks should be different")
	}
	if 0 == first.BlockNum() {
		return errors.Wrap(fault.ErrInvalidBlockNumber, "reported block")
	}
	if first.BlockNum() != second.BlockNum() {
		return errors.Wrap(fault.ErrInvalidOperation, "blocks should have the same number")
	}
	firstSignee, err := first.Signee()
	if nil != err {
		return err
	}
	secondSignee, err := second.Signee()
	if nil != err {
		return err
	}
	if firstSignee != secondSignee {
		return errors.Wrap(fault.ErrInvalidOperation, "blocks should be signed by the same key")
	}
	return nil
}

// Required - reporter secondary
func (op *WitnessReport) Required(r *authority.Required) {
	r.Add(op.Reporter, authority.Secondary)
}

// CalculateFee - flat
func (op *WitnessReport) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
