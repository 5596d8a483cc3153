// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"sort"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/keypair"
)

// Fetcher - find one tier of an account, nil if there is no such account
type Fetcher func(uid account.UID, tier Tier) *Authority

// Result - outcome of checking one authority
//
// Missing is only meaningful when Possible is true
type Result struct {
	Satisfied bool
	Possible  bool
	Missing   []keypair.PublicKey
}

// Node - how an account tier was approved: keys it used directly and
// the account tiers that approved on its behalf
type Node struct {
	Auth     AccountAuth
	Keys     []keypair.PublicKey
	Children []*Node
}

// SignState - signature bookkeeping while walking authorities
type SignState struct {
	fetch        Fetcher
	available    map[keypair.PublicKey]struct{}
	provided     map[keypair.PublicKey]bool
	used         map[keypair.PublicKey]struct{}
	approved     map[AccountAuth]*Node
	MaxRecursion uint32
}

// NewSignState - start with the keys that signed and, for signature
// planning, the keys that could sign
func NewSignState(signed []keypair.PublicKey, fetch Fetcher, available []keypair.PublicKey) *SignState {
	s := &SignState{
		fetch:        fetch,
		available:    make(map[keypair.PublicKey]struct{}),
		provided:     make(map[keypair.PublicKey]bool),
		used:         make(map[keypair.PublicKey]struct{}),
		approved:     make(map[AccountAuth]*Node),
		MaxRecursion: constants.MaxSigCheckDepth,
	}
	for _, k := range signed {
		s.provided[k] = false
	}
	for _, k := range available {
		s.available[k] = struct{}{}
	}
	for _, t := range []Tier{Owner, Active, Secondary} {
		a := AccountAuth{UID: account.TempAccount, Tier: t}
		s.approved[a] = &Node{Auth: a}
	}
	return s
}

// Approve - mark an account tier as already approved
func (s *SignState) Approve(uid account.UID, tier Tier) {
	a := AccountAuth{UID: uid, Tier: tier}
	if _, ok := s.approved[a]; !ok {
		s.approved[a] = &Node{Auth: a}
	}
}

// Tree - the approval tree for an account tier, nil if not approved
func (s *SignState) Tree(uid account.UID, tier Tier) *Node {
	return s.approved[AccountAuth{UID: uid, Tier: tier}]
}

func (s *SignState) signedBy(k keypair.PublicKey) bool {
	if _, ok := s.provided[k]; ok {
		s.provided[k] = true
		return true
	}
	if _, ok := s.available[k]; ok {
		s.used[k] = struct{}{}
		s.provided[k] = true
		return true
	}
	return false
}

// CheckAccount - check one tier of an account
func (s *SignState) CheckAccount(uid account.UID, tier Tier) Result {
	a := AccountAuth{UID: uid, Tier: tier}
	if _, ok := s.approved[a]; ok {
		return Result{Satisfied: true, Possible: true}
	}
	r, node := s.check(s.fetch(uid, tier), 0)
	if r.Satisfied {
		node.Auth = a
		s.approved[a] = node
	}
	return r
}

// Check - check a free standing authority
func (s *SignState) Check(auth *Authority) Result {
	r, _ := s.check(auth, 0)
	return r
}

func impossible() Result {
	return Result{Missing: []keypair.PublicKey{{}}}
}

func (s *SignState) check(auth *Authority, depth uint32) (Result, *Node) {
	if nil == auth {
		return impossible(), nil
	}

	node := &Node{}
	total := uint64(0)
	possible := uint64(0)
	threshold := uint64(auth.WeightThreshold)
	missing := make(map[keypair.PublicKey]struct{})

	for _, k := range auth.KeyAuths {
		if !k.Key.IsZero() {
			possible += uint64(k.Weight)
		}
		if s.signedBy(k.Key) {
			node.Keys = append(node.Keys, k.Key)
			total += uint64(k.Weight)
			if total >= threshold {
				return Result{Satisfied: true, Possible: true}, node
			}
		} else if !k.Key.IsZero() {
			missing[k.Key] = struct{}{}
		}
	}

	for _, u := range auth.AccountUIDAuths {
		if child, ok := s.approved[u.Auth]; ok {
			node.Children = append(node.Children, child)
			possible += uint64(u.Weight)
			total += uint64(u.Weight)
			if total >= threshold {
				return Result{Satisfied: true, Possible: true}, node
			}
			continue
		}
		if depth == s.MaxRecursion {
			continue
		}
		r, child := s.check(s.fetch(u.Auth.UID, u.Auth.Tier), depth+1)
		if r.Satisfied {
			child.Auth = u.Auth
			s.approved[u.Auth] = child
			node.Children = append(node.Children, child)
			possible += uint64(u.Weight)
			total += uint64(u.Weight)
			if total >= threshold {
				return Result{Satisfied: true, Possible: true}, node
			}
		} else if r.Possible {
			possible += uint64(u.Weight)
			for _, k := range r.Missing {
				missing[k] = struct{}{}
			}
		}
	}

	if possible < threshold {
		return impossible(), node
	}
	return Result{
		Satisfied: total >= threshold,
		Possible:  true,
		Missing:   sortedKeys(missing),
	}, node
}

// UsedKeys - available keys that were needed
func (s *SignState) UsedKeys() []keypair.PublicKey {
	return sortedKeys(s.used)
}

// UnusedSignatures - signing keys that no authority needed
func (s *SignState) UnusedSignatures() []keypair.PublicKey {
	unused := make(map[keypair.PublicKey]struct{})
	for k, u := range s.provided {
		if !u {
			unused[k] = struct{}{}
		}
	}
	return sortedKeys(unused)
}

// RemoveUnusedSignatures - drop unused signatures, true if any were dropped
func (s *SignState) RemoveUnusedSignatures() bool {
	removed := false
	for k, u := range s.provided {
		if !u {
			delete(s.provided, k)
			removed = true
		}
	}
	return removed
}

func sortedKeys(m map[keypair.PublicKey]struct{}) []keypair.PublicKey {
	keys := make([]keypair.PublicKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}
