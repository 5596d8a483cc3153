// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/chain"
)

func TestValid(t *testing.T) {
	for _, name := range []string{chain.Yoyow, chain.Testing, chain.Local} {
		assert.True(t, chain.Valid(name), "chain: %q", name)
	}
	for _, name := range []string{"", "bitmark", "YOYOW"} {
		assert.False(t, chain.Valid(name), "chain: %q", name)
	}
	assert.False(t, chain.AllowsStaleProduction(chain.Yoyow), "main chain stale production")
	assert.True(t, chain.AllowsStaleProduction(chain.Local), "local chain stale production")
}
