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

// CSAFCollect - turn accumulated coin-seconds into csaf
type CSAFCollect struct {
	FeeBundle  FeeBundle       `json:"fee"`
	From       account.UID     `json:"from"`
	To         account.UID     `json:"to"`
	Amount     Asset           `json:"amount"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CSAFCollect) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - collector
func (op *CSAFCollect) FeePayer() account.UID { return op.From }

// Validate - stateless checks
func (op *CSAFCollect) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("csaf collect", op.From, op.To); nil != err {
		return err
	}
	return validatePositiveCore(op.Amount, "csaf collect amount")
}

// Required - active when collecting for somebody else
func (op *CSAFCollect) Required(r *authority.Required) {
	if op.From != op.To {
		r.Add(op.From, authority.Active)
	} else {
		r.Add(op.From, authority.Secondary)
	}
}

// CalculateFee - flat
func (op *CSAFCollect) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// CSAFLease - lend coin-seconds earning power until expiration, zero
// amount ends the lease
type CSAFLease struct {
	FeeBundle  FeeBundle       `json:"fee"`
	From       account.UID     `json:"from"`
	To         account.UID     `json:"to"`
	Amount     Asset           `json:"amount"`
	Expiration Timestamp       `json:"expiration"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *CSAFLease) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - lender
func (op *CSAFLease) FeePayer() account.UID { return op.From }

// Validate - stateless checks
func (op *CSAFLease) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("csaf lease", op.From, op.To); nil != err {
		return err
	}
	if err := validateNonNegativeCore(op.Amount, "csaf lease amount"); nil != err {
		return err
	}
	if op.From == op.To {
		return errors.Wrap(fault.ErrInvalidOperation, "cannot lease to self")
	}
	return nil
}

// Required - lender active
func (op *CSAFLease) Required(r *authority.Required) {
	r.Add(op.From, authority.Active)
}

// CalculateFee - flat
func (op *CSAFLease) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
