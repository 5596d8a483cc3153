// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/fault"
)

var (
	errAuthorityOne    = fault.AuthorityError("authority one")
	errContractOne     = fault.ContractError("contract one")
	errExistsOne       = fault.ExistsError("exists one")
	errInsufficientOne = fault.InsufficientError("insufficient one")
	errInvalidOne      = fault.InvalidError("invalid one")
	errNotFoundOne     = fault.NotFoundError("not found one")
	errProcessOne      = fault.ProcessError("process one")
	errResourceOne     = fault.ResourceError("resource one")
)

// test that the error classes can be distinguished
func TestClasses(t *testing.T) {
	errorList := []struct {
		err          error
		authority    bool
		contract     bool
		exists       bool
		insufficient bool
		invalid      bool
		notFound     bool
		process      bool
		resource     bool
	}{
		{errAuthorityOne, true, false, false, false, false, false, false, false},
		{errContractOne, false, true, false, false, false, false, false, false},
		{errExistsOne, false, false, true, false, false, false, false, false},
		{errInsufficientOne, false, false, false, true, false, false, false, false},
		{errInvalidOne, false, false, false, false, true, false, false, false},
		{errNotFoundOne, false, false, false, false, false, true, false, false},
		{errProcessOne, false, false, false, false, false, false, true, false},
		{errResourceOne, false, false, false, false, false, false, false, true},
	}

	for i, e := range errorList {
		assert.Equal(t, e.authority, fault.IsErrAuthority(e.err), "%d: authority", i)
		assert.Equal(t, e.contract, fault.IsErrContract(e.err), "%d: contract", i)
		assert.Equal(t, e.exists, fault.IsErrExists(e.err), "%d: exists", i)
		assert.Equal(t, e.insufficient, fault.IsErrInsufficient(e.err), "%d: insufficient", i)
		assert.Equal(t, e.invalid, fault.IsErrInvalid(e.err), "%d: invalid", i)
		assert.Equal(t, e.notFound, fault.IsErrNotFound(e.err), "%d: not found", i)
		assert.Equal(t, e.process, fault.IsErrProcess(e.err), "%d: process", i)
		assert.Equal(t, e.resource, fault.IsErrResource(e.err), "%d: resource", i)
	}
}

// wrapped errors keep their class and cause
func TestWrappedClass(t *testing.T) {
	err := errors.Wrapf(fault.ErrInsufficientBalance, "op[%d] %s", 1, "transfer")
	err = errors.Wrap(err, "trx 0011")

	assert.True(t, fault.IsErrInsufficient(err), "wrapped class lost")
	assert.False(t, fault.IsErrInvalid(err), "wrong class")
	assert.Equal(t, fault.ErrInsufficientBalance, errors.Cause(err), "cause lost")
	assert.Equal(t, "trx 0011: op[1] transfer: insufficient balance", err.Error(), "message")
}
