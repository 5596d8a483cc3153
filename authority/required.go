// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
)

// Required - authorities an operation list needs
type Required struct {
	Owner     map[account.UID]struct{}
	Active    map[account.UID]struct{}
	Secondary map[account.UID]struct{}
	Other     []Authority
}

// NewRequired - empty requirement set
func NewRequired() *Required {
	return &Required{
		Owner:     make(map[account.UID]struct{}),
		Active:    make(map[account.UID]struct{}),
		Secondary: make(map[account.UID]struct{}),
	}
}

// Add - require a tier of an account
func (r *Required) Add(uid account.UID, tier Tier) {
	switch tier {
	case Owner:
		r.Owner[uid] = struct{}{}
	case Active:
		r.Active[uid] = struct{}{}
	default:
		r.Secondary[uid] = struct{}{}
	}
}

// AddOther - require a free standing authority
func (r *Required) AddOther(a Authority) {
	r.Other = append(r.Other, a)
}

// Sorted - uids of one tier in ascending order
func (r *Required) Sorted(tier Tier) []account.UID {
	m := r.Secondary
	switch tier {
	case Owner:
		m = r.Owner
	case Active:
		m = r.Active
	}
	uids := make([]account.UID, 0, len(m))
	for u := range m {
		uids = append(uids, u)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}

// Approvals - account tiers approved outside of signatures
// e.g. by a proposal
type Approvals struct {
	Owner     []account.UID
	Active    []account.UID
	Secondary []account.UID
}

// Verify - check that signing keys satisfy all requirements
//
// owner, active and secondary are checked exactly: a higher tier key
// does not satisfy a lower tier requirement unless the lower tier
// authority names it
func Verify(required *Required, signed []keypair.PublicKey, fetch Fetcher, maxRecursion uint32, allowCommittee bool, approvals *Approvals) (*SignState, error) {
	if !allowCommittee {
		if _, ok := required.Active[account.CommitteeAccount]; ok {
			return nil, fault.ErrCommitteeApprovalRequired
		}
	}

	s := NewSignState(signed, fetch, nil)
	s.MaxRecursion = maxRecursion
	if nil != approvals {
		for _, u := range approvals.Owner {
			s.Approve(u, Owner)
		}
		for _, u := range approvals.Active {
			s.Approve(u, Active)
		}
		for _, u := range approvals.Secondary {
			s.Approve(u, Secondary)
		}
	}

	checks := []struct {
		tier Tier
		err  error
	}{
		{Owner, fault.ErrMissingOwnerAuthority},
		{Active, fault.ErrMissingActiveAuthority},
		{Secondary, fault.ErrMissingSecondaryAuthority},
	}
	for _, c := range checks {
		for _, uid := range required.Sorted(c.tier) {
			if !s.CheckAccount(uid, c.tier).Satisfied {
				return nil, errors.Wrapf(c.err, "account: %s", uid)
			}
		}
	}
	for i := range required.Other {
		if !s.Check(&required.Other[i]).Satisfied {
			return nil, fault.ErrMissingOtherAuthority
		}
	}

	if s.RemoveUnusedSignatures() {
		return nil, fault.ErrIrrelevantSignature
	}
	return s, nil
}

// Plan - which of the available keys would be needed and which are
// still missing, in the same order Verify checks
func Plan(required *Required, signed []keypair.PublicKey, available []keypair.PublicKey, fetch Fetcher, maxRecursion uint32) (used []keypair.PublicKey, missing []keypair.PublicKey, unused []keypair.PublicKey) {
	s := NewSignState(signed, fetch, available)
	s.MaxRecursion = maxRecursion

	list := make([]*Authority, 0)
	for _, tier := range []Tier{Owner, Active, Secondary} {
		for _, uid := range required.Sorted(tier) {
			list = append(list, fetch(uid, tier))
		}
	}
	for i := range required.Other {
		list = append(list, &required.Other[i])
	}

	missed := make(map[keypair.PublicKey]struct{})
	for _, a := range list {
		r := s.Check(a)
		if !r.Possible {
			missed = make(map[keypair.PublicKey]struct{})
			for _, k := range r.Missing {
				missed[k] = struct{}{}
			}
			break
		}
		for _, k := range r.Missing {
			missed[k] = struct{}{}
		}
	}
	return s.UsedKeys(), sortedKeys(missed), s.UnusedSignatures()
}
