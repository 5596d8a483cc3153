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

// CustomVoteCreate - open a poll weighted by an asset balance
type CustomVoteCreate struct {
	FeeBundle            FeeBundle       `json:"fee"`
	CustomVoteCreator    account.UID     `json:"custom_vote_creater"`
	VoteVID              uint64          `json:"vote_vid"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	VoteExpiredTime      Timestamp       `json:"vote_expired_time"`
	VoteAssetID          AssetAID        `json:"vote_asset_id"`
	RequiredAssetAmount  int64           `json:"required_asset_amount"`
	MinimumSelectedItems uint8           `json:"minimum_selected_items"`
	MaximumSelectedItems uint8           `json:"maximum_selected_items"`
	Options              []string        `json:"options"`
	Extensions           *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CustomVoteCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - creator
func (op *CustomVoteCreate) FeePayer() account.UID { return op.CustomVoteCreator }

// Validate - stateless checks
func (op *CustomVoteCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.CustomVoteCreator, "custom vote creator"); nil != err {
		return err
	}
	if err := validateString(op.Title, 0, "custom vote title"); nil != err {
		return err
	}
	if err := validateString(op.Description, 0, "custom vote description"); nil != err {
		return err
	}
	if len(op.Options) < 2 || len(op.Options) > 256 {
		return errors.Wrapf(fault.ErrInvalidCount, "custom vote options: %d", len(op.Options))
	}
	for _, o := range op.Options {
		if err := validateString(o, 0, "custom vote option"); nil != err {
			return err
		}
	}
	if 0 == op.MinimumSelectedItems || op.MinimumSelectedItems > op.MaximumSelectedItems || int(op.MaximumSelectedItems) > len(op.Options) {
		return errors.Wrap(fault.ErrInvalidParameter, "custom vote selection range")
	}
	return validateNonNegativeAmount(op.RequiredAssetAmount, "required asset amount")
}

// Required - creator active
func (op *CustomVoteCreate) Required(r *authority.Required) {
	r.Add(op.CustomVoteCreator, authority.Active)
}

// CalculateFee - base plus a long description
func (op *CustomVoteCreate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + descriptionFee(op.Description, p.PricePerKbyte), nil
}

// CustomVoteCast - select options in a poll
type CustomVoteCast struct {
	FeeBundle         FeeBundle       `json:"fee"`
	Voter             account.UID     `json:"voter"`
	CustomVoteCreator account.UID     `json:"custom_vote_creater"`
	CustomVoteVID     uint64          `json:"custom_vote_vid"`
	VoteResult        []uint8         `json:"vote_result"`
	Extensions        *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CustomVoteCast) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - voter
func (op *CustomVoteCast) FeePayer() account.UID { return op.Voter }

// Validate - options form a strictly increasing set
func (op *CustomVoteCast) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("custom vote cast", op.Voter, op.CustomVoteCreator); nil != err {
		return err
	}
	if 0 == len(op.VoteResult) {
		return errors.Wrap(fault.ErrInvalidCount, "no option selected")
	}
	for i := 1; i < len(op.VoteResult); i += 1 {
		if op.VoteResult[i] <= op.VoteResult[i-1] {
			return errors.Wrap(fault.ErrInvalidParameter, "vote result should be sorted and unique")
		}
	}
	return nil
}

// Required - voter active
func (op *CustomVoteCast) Required(r *authority.Required) {
	r.Add(op.Voter, authority.Active)
}

// CalculateFee - flat
func (op *CustomVoteCast) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
