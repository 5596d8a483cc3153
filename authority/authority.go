// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority

import (
	"sort"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
)

// Tier - which of the three authorities of an account
type Tier uint8

// tiers ordered from highest to lowest privilege
const (
	Owner Tier = iota
	Active
	Secondary
)

// String - tier name
func (t Tier) String() string {
	switch t {
	case Owner:
		return "owner"
	case Active:
		return "active"
	case Secondary:
		return "secondary"
	default:
		return "*unknown*"
	}
}

// AccountAuth - reference to one tier of another account
type AccountAuth struct {
	UID  account.UID `json:"uid"`
	Tier Tier        `json:"auth_type"`
}

// Less - ordering by uid then tier
func (a AccountAuth) Less(b AccountAuth) bool {
	if a.UID != b.UID {
		return a.UID < b.UID
	}
	return a.Tier < b.Tier
}

// AccountWeight - weighted account reference
type AccountWeight struct {
	Auth   AccountAuth `json:"auth"`
	Weight uint16      `json:"weight"`
}

// KeyWeight - weighted public key
type KeyWeight struct {
	Key    keypair.PublicKey `json:"key"`
	Weight uint16            `json:"weight"`
}

// Authority - weighted threshold over keys and other accounts
//
// both lists are kept sorted and free of duplicates
type Authority struct {
	WeightThreshold uint32          `json:"weight_threshold"`
	AccountUIDAuths []AccountWeight `json:"account_uid_auths"`
	KeyAuths        []KeyWeight     `json:"key_auths"`
}

// NewKeyAuthority - single key with threshold one
func NewKeyAuthority(key keypair.PublicKey) Authority {
	return Authority{
		WeightThreshold: 1,
		KeyAuths:        []KeyWeight{{Key: key, Weight: 1}},
	}
}

// NewAccountAuthority - single account tier with threshold one
func NewAccountAuthority(uid account.UID, tier Tier) Authority {
	return Authority{
		WeightThreshold: 1,
		AccountUIDAuths: []AccountWeight{{Auth: AccountAuth{UID: uid, Tier: tier}, Weight: 1}},
	}
}

// AddKey - insert or replace a key weight
func (a *Authority) AddKey(key keypair.PublicKey, weight uint16) {
	i := sort.Search(len(a.KeyAuths), func(i int) bool {
		return a.KeyAuths[i].Key.Compare(key) >= 0
	})
	if i < len(a.KeyAuths) && a.KeyAuths[i].Key == key {
		a.KeyAuths[i].Weight = weight
		return
	}
	a.KeyAuths = append(a.KeyAuths, KeyWeight{})
	copy(a.KeyAuths[i+1:], a.KeyAuths[i:])
	a.KeyAuths[i] = KeyWeight{Key: key, Weight: weight}
}

// AddAccount - insert or replace an account weight
func (a *Authority) AddAccount(uid account.UID, tier Tier, weight uint16) {
	auth := AccountAuth{UID: uid, Tier: tier}
	i := sort.Search(len(a.AccountUIDAuths), func(i int) bool {
		return !a.AccountUIDAuths[i].Auth.Less(auth)
	})
	if i < len(a.AccountUIDAuths) && a.AccountUIDAuths[i].Auth == auth {
		a.AccountUIDAuths[i].Weight = weight
		return
	}
	a.AccountUIDAuths = append(a.AccountUIDAuths, AccountWeight{})
	copy(a.AccountUIDAuths[i+1:], a.AccountUIDAuths[i:])
	a.AccountUIDAuths[i] = AccountWeight{Auth: auth, Weight: weight}
}

// NumAuths - number of entries
func (a *Authority) NumAuths() int {
	return len(a.KeyAuths) + len(a.AccountUIDAuths)
}

// IsImpossible - total weight cannot reach the threshold
func (a *Authority) IsImpossible() bool {
	total := uint64(0)
	for _, k := range a.KeyAuths {
		total += uint64(k.Weight)
	}
	for _, u := range a.AccountUIDAuths {
		total += uint64(u.Weight)
	}
	return total < uint64(a.WeightThreshold)
}

// ContainsKey - true if key is directly listed
func (a *Authority) ContainsKey(key keypair.PublicKey) bool {
	for _, k := range a.KeyAuths {
		if k.Key == key {
			return true
		}
	}
	return false
}

// KeyWeightOf - weight of a directly listed key
func (a *Authority) KeyWeightOf(key keypair.PublicKey) (uint16, bool) {
	for _, k := range a.KeyAuths {
		if k.Key == key {
			return k.Weight, true
		}
	}
	return 0, false
}

// RemoveKey - drop a key, false if it was not listed
func (a *Authority) RemoveKey(key keypair.PublicKey) bool {
	for i, k := range a.KeyAuths {
		if k.Key == key {
			a.KeyAuths = append(a.KeyAuths[:i:i], a.KeyAuths[i+1:]...)
			return true
		}
	}
	return false
}

// ContainsAccount - true if uid is listed with any tier
func (a *Authority) ContainsAccount(uid account.UID) bool {
	for _, u := range a.AccountUIDAuths {
		if u.Auth.UID == uid {
			return true
		}
	}
	return false
}

// RemoveAccount - drop every tier of uid, false if none was listed
func (a *Authority) RemoveAccount(uid account.UID) bool {
	kept := make([]AccountWeight, 0, len(a.AccountUIDAuths))
	for _, u := range a.AccountUIDAuths {
		if u.Auth.UID != uid {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(a.AccountUIDAuths) {
		return false
	}
	a.AccountUIDAuths = kept
	return true
}

// Validate - structure checks applied to every new authority
func (a *Authority) Validate() error {
	if 0 == a.NumAuths() {
		return fault.ErrInvalidAuthority
	}
	for i, k := range a.KeyAuths {
		if 0 == k.Weight {
			return fault.ErrInvalidAuthority
		}
		if i > 0 && a.KeyAuths[i-1].Key.Compare(k.Key) >= 0 {
			return fault.ErrInvalidAuthority
		}
	}
	for i, u := range a.AccountUIDAuths {
		if 0 == u.Weight || u.Auth.Tier > Secondary {
			return fault.ErrInvalidAuthority
		}
		if err := account.ValidateUID(u.Auth.UID); nil != err {
			return err
		}
		if i > 0 && !a.AccountUIDAuths[i-1].Auth.Less(u.Auth) {
			return fault.ErrInvalidAuthority
		}
	}
	if a.IsImpossible() {
		return fault.ErrImpossibleAuthority
	}
	return nil
}

// Equal - same threshold and entries
func (a *Authority) Equal(b *Authority) bool {
	if a.WeightThreshold != b.WeightThreshold ||
		len(a.KeyAuths) != len(b.KeyAuths) ||
		len(a.AccountUIDAuths) != len(b.AccountUIDAuths) {
		return false
	}
	for i := range a.KeyAuths {
		if a.KeyAuths[i] != b.KeyAuths[i] {
			return false
		}
	}
	for i := range a.AccountUIDAuths {
		if a.AccountUIDAuths[i] != b.AccountUIDAuths[i] {
			return false
		}
	}
	return true
}

// Clone - deep copy
func (a Authority) Clone() Authority {
	c := Authority{WeightThreshold: a.WeightThreshold}
	if nil != a.KeyAuths {
		c.KeyAuths = append([]KeyWeight(nil), a.KeyAuths...)
	}
	if nil != a.AccountUIDAuths {
		c.AccountUIDAuths = append([]AccountWeight(nil), a.AccountUIDAuths...)
	}
	return c
}
