// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/account"
)

func TestValidNames(t *testing.T) {
	names := []string{
		"ab",
		"alice",
		"a_b",
		"init0",
		"中文名",
		"（测试）",
		"a" + strings.Repeat("b", 62),
	}
	for _, name := range names {
		assert.NoError(t, account.ValidateName(name), "name: %q", name)
	}
}

func TestInvalidNames(t *testing.T) {
	names := []struct {
		name string
		err  error
	}{
		{"", account.ErrNameTooShort},
		{"a", account.ErrNameTooShort},
		{"_ab", account.ErrNameStartsWithUnderline},
		{"ab_", account.ErrNameEndsWithUnderline},
		{"1ab", account.ErrNameStartsWithNumber},
		{"Alice", account.ErrNameInvalidCharacter},
		{"a.b", account.ErrNameInvalidCharacter},
		{"a b", account.ErrNameInvalidCharacter},
		{"a\xff", account.ErrNameNotUTF8},
		{"a" + strings.Repeat("b", 63), account.ErrNameTooLong},
	}
	for _, item := range names {
		assert.Equal(t, item.err, account.ValidateName(item.name), "name: %q", item.name)
		assert.False(t, account.IsValidName(item.name), "name: %q", item.name)
	}
}
