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

// ProposalCreate - hold a list of operations until the accounts they
// need have approved them
type ProposalCreate struct {
	FeeBundle           FeeBundle       `json:"fee"`
	FeePayingAccount    account.UID     `json:"fee_paying_account"`
	ExpirationTime      Timestamp       `json:"expiration_time"`
	ProposedOps         OperationList   `json:"proposed_ops"`
	ReviewPeriodSeconds *uint32         `json:"review_period_seconds,omitempty"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ProposalCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - proposer
func (op *ProposalCreate) FeePayer() account.UID { return op.FeePayingAccount }

// Validate - every proposed operation must itself be valid
func (op *ProposalCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.FeePayingAccount, "fee paying account"); nil != err {
		return err
	}
	if 0 == len(op.ProposedOps) {
		return errors.Wrap(fault.ErrInvalidCount, "no proposed operations")
	}
	for i, o := range op.ProposedOps {
		tag, err := TagOf(o)
		if nil != err {
			return err
		}
		if IsVirtual(tag) {
			return errors.Wrapf(fault.ErrInvalidOperation, "proposed op[%d] is virtual", i)
		}
		if err := o.Validate(); nil != err {
			return errors.Wrapf(err, "proposed op[%d] %s", i, tag)
		}
	}
	return nil
}

// Required - proposer active
func (op *ProposalCreate) Required(r *authority.Required) {
	r.Add(op.FeePayingAccount, authority.Active)
}

// CalculateFee - base plus the packed size of the proposal
func (op *ProposalCreate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + CalculateDataFee(PackedSize(op), p.PricePerKbyte), nil
}

// ProposalUpdate - add or remove approvals of a pending proposal
type ProposalUpdate struct {
	FeeBundle                  FeeBundle           `json:"fee"`
	FeePayingAccount           account.UID         `json:"fee_paying_account"`
	Proposal                   uint64              `json:"proposal"`
	SecondaryApprovalsToAdd    []account.UID       `json:"secondary_approvals_to_add"`
	SecondaryApprovalsToRemove []account.UID       `json:"secondary_approvals_to_remove"`
	ActiveApprovalsToAdd       []account.UID       `json:"active_approvals_to_add"`
	ActiveApprovalsToRemove    []account.UID       `json:"active_approvals_to_remove"`
	OwnerApprovalsToAdd        []account.UID       `json:"owner_approvals_to_add"`
	OwnerApprovalsToRemove     []account.UID       `json:"owner_approvals_to_remove"`
	KeyApprovalsToAdd          []keypair.PublicKey `json:"key_approvals_to_add"`
	KeyApprovalsToRemove       []keypair.PublicKey `json:"key_approvals_to_remove"`
	Extensions                 *EmptyExtension     `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ProposalUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - updater
func (op *ProposalUpdate) FeePayer() account.UID { return op.FeePayingAccount }

// Validate - something changes and nothing is both added and removed
func (op *ProposalUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.FeePayingAccount, "fee paying account"); nil != err {
		return err
	}
	n := len(op.SecondaryApprovalsToAdd) + len(op.SecondaryApprovalsToRemove) +
		len(op.ActiveApprovalsToAdd) + len(op.ActiveApprovalsToRemove) +
		len(op.OwnerApprovalsToAdd) + len(op.OwnerApprovalsToRemove) +
		len(op.KeyApprovalsToAdd) + len(op.KeyApprovalsToRemove)
	if 0 == n {
		return fault.ErrNoChange
	}
	if err := disjointUIDs(op.SecondaryApprovalsToAdd, op.SecondaryApprovalsToRemove, "secondary approvals"); nil != err {
		return err
	}
	if err := disjointUIDs(op.ActiveApprovalsToAdd, op.ActiveApprovalsToRemove, "active approvals"); nil != err {
		return err
	}
	if err := disjointUIDs(op.OwnerApprovalsToAdd, op.OwnerApprovalsToRemove, "owner approvals"); nil != err {
		return err
	}
	remove := make(map[keypair.PublicKey]struct{}, len(op.KeyApprovalsToRemove))
	for _, k := range op.KeyApprovalsToRemove {
		remove[k] = struct{}{}
	}
	for _, k := range op.KeyApprovalsToAdd {
		if _, ok := remove[k]; ok {
			return errors.Wrap(fault.ErrInvalidOperation, "key approval both added and removed")
		}
	}
	return nil
}

func disjointUIDs(add []account.UID, remove []account.UID, name string) error {
	seen := make(map[account.UID]struct{}, len(add))
	for _, uid := range add {
		if err := validateUID(uid, name); nil != err {
			return err
		}
		seen[uid] = struct{}{}
	}
	for _, uid := range remove {
		if _, ok := seen[uid]; ok {
			return errors.Wrapf(fault.ErrInvalidOperation, "%s: %s both added and removed", name, uid)
		}
	}
	return nil
}

// Required - each approval change needs the authority it names and
// each key change a signature of that key
func (op *ProposalUpdate) Required(r *authority.Required) {
	r.Add(op.FeePayingAccount, authority.Active)
	for _, uid := range op.SecondaryApprovalsToAdd {
		r.Add(uid, authority.Secondary)
	}
	for _, uid := range op.SecondaryApprovalsToRemove {
		r.Add(uid, authority.Secondary)
	}
	for _, uid := range op.ActiveApprovalsToAdd {
		r.Add(uid, authority.Active)
	}
	for _, uid := range op.ActiveApprovalsToRemove {
		r.Add(uid, authority.Active)
	}
	for _, uid := range op.OwnerApprovalsToAdd {
		r.Add(uid, authority.Owner)
	}
	for _, uid := range op.OwnerApprovalsToRemove {
		r.Add(uid, authority.Owner)
	}
	for _, k := range op.KeyApprovalsToAdd {
		r.AddOther(authority.NewKeyAuthority(k))
	}
	for _, k := range op.KeyApprovalsToRemove {
		r.AddOther(authority.NewKeyAuthority(k))
	}
}

// CalculateFee - base plus the packed size
func (op *ProposalUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + CalculateDataFee(PackedSize(op), p.PricePerKbyte), nil
}

// ProposalDelete - withdraw a proposal by one of its required accounts
type ProposalDelete struct {
	FeeBundle           FeeBundle       `json:"fee"`
	FeePayingAccount    account.UID     `json:"fee_paying_account"`
	UsingOwnerAuthority bool            `json:"using_owner_authority"`
	Proposal            uint64          `json:"proposal"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ProposalDelete) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - deleter
func (op *ProposalDelete) FeePayer() account.UID { return op.FeePayingAccount }

// Validate - stateless checks
func (op *ProposalDelete) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	return validateUID(op.FeePayingAccount, "fee paying account")
}

// Required - owner or active as declared
func (op *ProposalDelete) Required(r *authority.Required) {
	if op.UsingOwnerAuthority {
		r.Add(op.FeePayingAccount, authority.Owner)
		return
	}
	r.Add(op.FeePayingAccount, authority.Active)
}

// CalculateFee - flat
func (op *ProposalDelete) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
