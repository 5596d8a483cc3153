// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
)

var uidTests = []struct {
	instance uint64
	uid      account.UID
}{
	{0, 175},
	{1, 380},
	{2, 728},
	{3, 821},
	{4, 1264},
	{5, 1521},
	{25638, 6563529},
	{1000000, 256000079},
}

func TestCalculateUID(t *testing.T) {
	for i, item := range uidTests {
		uid := account.CalculateUID(item.instance)
		assert.Equal(t, item.uid, uid, "%d: uid", i)
		assert.True(t, account.IsValidUID(uid), "%d: valid", i)
		assert.Equal(t, item.instance, uid.Instance(), "%d: instance", i)
	}
}

func TestInvalidUID(t *testing.T) {
	for i, item := range uidTests {
		bad := item.uid ^ 0x01
		assert.False(t, account.IsValidUID(bad), "%d: flipped checksum", i)
		assert.Equal(t, fault.ErrInvalidAccountUID, account.ValidateUID(bad), "%d: error", i)
	}
}

func TestSpecialAccounts(t *testing.T) {
	assert.Equal(t, account.UID(175), account.ProxyToSelf)
	assert.Equal(t, account.UID(380), account.CommitteeAccount)
	assert.Equal(t, account.UID(1521), account.TempAccount)
	assert.Equal(t, "1264", account.NullAccount.String())
}
