// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authority_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
)

func key(t *testing.T, seed string) keypair.PublicKey {
	p, err := keypair.FromSeed(seed)
	require.NoError(t, err, "seed: %s", seed)
	return p.PublicKey()
}

type accounts map[authority.AccountAuth]*authority.Authority

func (a accounts) fetch(uid account.UID, tier authority.Tier) *authority.Authority {
	return a[authority.AccountAuth{UID: uid, Tier: tier}]
}

func TestValidate(t *testing.T) {
	a := authority.Authority{WeightThreshold: 2}
	assert.Equal(t, fault.ErrInvalidAuthority, a.Validate(), "empty")

	a.AddKey(key(t, "one"), 1)
	assert.Equal(t, fault.ErrImpossibleAuthority, a.Validate(), "impossible")
	assert.True(t, a.IsImpossible(), "is impossible")

	a.AddAccount(account.CalculateUID(100), authority.Active, 1)
	assert.NoError(t, a.Validate(), "possible")
	assert.Equal(t, 2, a.NumAuths(), "num auths")

	a.AddAccount(account.CalculateUID(100)^1, authority.Active, 1)
	assert.Equal(t, fault.ErrInvalidAccountUID, a.Validate(), "bad uid")
}

func TestAddKeepsOrder(t *testing.T) {
	a := authority.Authority{WeightThreshold: 1}
	for _, s := range []string{"c", "a", "b", "a"} {
		a.AddKey(key(t, s), 1)
	}
	require.Equal(t, 3, len(a.KeyAuths), "deduplicated")
	for i := 1; i < len(a.KeyAuths); i += 1 {
		assert.True(t, a.KeyAuths[i-1].Key.Compare(a.KeyAuths[i].Key) < 0, "sorted: %d", i)
	}
	c := a.Clone()
	assert.True(t, a.Equal(&c), "clone")
}

func TestVerifyKeys(t *testing.T) {
	alice := account.CalculateUID(1000)
	k1 := key(t, "alice-active")
	k2 := key(t, "other")

	active := authority.NewKeyAuthority(k1)
	db := accounts{{UID: alice, Tier: authority.Active}: &active}

	required := authority.NewRequired()
	required.Add(alice, authority.Active)

	_, err := authority.Verify(required, []keypair.PublicKey{k1}, db.fetch, 2, false, nil)
	assert.NoError(t, err, "signed by active key")

	_, err = authority.Verify(required, []keypair.PublicKey{k2}, db.fetch, 2, false, nil)
	assert.Equal(t, fault.ErrMissingActiveAuthority, errors.Cause(err), "wrong key")

	_, err = authority.Verify(required, []keypair.PublicKey{k1, k2}, db.fetch, 2, false, nil)
	assert.Equal(t, fault.ErrIrrelevantSignature, err, "extra signature")

	_, err = authority.Verify(required, nil, db.fetch, 2, false, &authority.Approvals{Active: []account.UID{alice}})
	assert.NoError(t, err, "approved without signature")
}

func TestVerifyAccountAuths(t *testing.T) {
	alice := account.CalculateUID(1000)
	platform := account.CalculateUID(2000)
	kp := key(t, "platform")

	secondary := authority.NewAccountAuthority(platform, authority.Active)
	platformActive := authority.NewKeyAuthority(kp)
	db := accounts{
		{UID: alice, Tier: authority.Secondary}: &secondary,
		{UID: platform, Tier: authority.Active}: &platformActive,
	}

	required := authority.NewRequired()
	required.Add(alice, authority.Secondary)

	s, err := authority.Verify(required, []keypair.PublicKey{kp}, db.fetch, 2, false, nil)
	require.NoError(t, err, "platform co-signs")

	tree := s.Tree(alice, authority.Secondary)
	require.NotNil(t, tree, "tree")
	require.Equal(t, 1, len(tree.Children), "children")
	assert.Equal(t, platform, tree.Children[0].Auth.UID, "child uid")
	assert.Equal(t, []keypair.PublicKey{kp}, tree.Children[0].Keys, "child keys")

	_, err = authority.Verify(required, []keypair.PublicKey{kp}, db.fetch, 0, false, nil)
	assert.Equal(t, fault.ErrMissingSecondaryAuthority, errors.Cause(err), "depth zero")
}

func TestCommitteeNotAllowed(t *testing.T) {
	required := authority.NewRequired()
	required.Add(account.CommitteeAccount, authority.Active)
	_, err := authority.Verify(required, nil, accounts{}.fetch, 2, false, nil)
	assert.Equal(t, fault.ErrCommitteeApprovalRequired, err, "committee")
}

func TestTempAccount(t *testing.T) {
	required := authority.NewRequired()
	required.Add(account.TempAccount, authority.Owner)
	_, err := authority.Verify(required, nil, accounts{}.fetch, 2, false, nil)
	assert.NoError(t, err, "temp account always approved")
}

func TestPlan(t *testing.T) {
	alice := account.CalculateUID(1000)
	k1 := key(t, "k1")
	k2 := key(t, "k2")
	k3 := key(t, "k3")

	multi := authority.Authority{WeightThreshold: 2}
	multi.AddKey(k1, 1)
	multi.AddKey(k2, 1)
	multi.AddKey(k3, 1)
	db := accounts{{UID: alice, Tier: authority.Active}: &multi}

	required := authority.NewRequired()
	required.Add(alice, authority.Active)

	used, missing, unused := authority.Plan(required, nil, []keypair.PublicKey{k1, k2}, db.fetch, 2)
	assert.Equal(t, 2, len(used), "used")
	assert.Equal(t, 0, len(missing), "missing")
	assert.Equal(t, 0, len(unused), "unused")

	used, missing, _ = authority.Plan(required, nil, []keypair.PublicKey{k1}, db.fetch, 2)
	assert.Equal(t, 1, len(used), "used one")
	assert.Equal(t, 2, len(missing), "two missing")
}
