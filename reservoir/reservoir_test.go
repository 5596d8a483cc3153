// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir_test

import (
	"io/ioutil"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/reservoir"
	"github.com/yoyow-org/yoyowd/reservoir/mocks"
)

func TestStoreTransaction(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	setup(t, l)
	defer teardown()

	tx := makeTransaction(1)
	ptx := processed(tx)

	l.EXPECT().PushTransaction(tx).Return(ptx, nil).Times(1)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()

	actual, err := reservoir.StoreTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, ptx, actual)

	// a second submission does not reach the ledger
	_, err = reservoir.StoreTransaction(tx)
	assert.Equal(t, fault.ErrDuplicateTransaction, errors.Cause(err))
}

func TestRejectedIsRemembered(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	setup(t, l)
	defer teardown()

	tx := makeTransaction(2)

	l.EXPECT().PushTransaction(tx).Return(nil, fault.ErrInsufficientBalance).Times(1)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()

	_, err := reservoir.StoreTransaction(tx)
	assert.Equal(t, fault.ErrInsufficientBalance, err)

	_, err = reservoir.StoreTransaction(tx)
	assert.Equal(t, fault.ErrTransactionRejected, errors.Cause(err))
	assert.Contains(t, err.Error(), fault.ErrInsufficientBalance.Error())
}

func TestDisabled(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	setup(t, l)
	defer teardown()

	l.EXPECT().PushTransaction(gomock.Any()).Times(0)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()

	reservoir.Disable()
	assert.False(t, reservoir.IsEnabled())

	_, err := reservoir.StoreTransaction(makeTransaction(3))
	assert.Equal(t, fault.ErrReservoirDisabled, err)

	reservoir.Enable()
	assert.True(t, reservoir.IsEnabled())
}

func TestInitialiseTwice(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()
	setup(t, l)
	defer teardown()

	assert.Equal(t, fault.ErrAlreadyInitialised, reservoir.Initialise(l, ""))
}

func TestSaveAndLoad(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	pending := []*protocol.ProcessedTransaction{
		processed(makeTransaction(10)),
		processed(makeTransaction(11)),
		processed(makeTransaction(12)),
	}

	first := mocks.NewMockLedger(ctl)
	first.EXPECT().PendingTransactions().Return(pending).AnyTimes()
	setup(t, first)

	assert.Equal(t, 3, reservoir.ReadCounter())
	require.NoError(t, reservoir.Finalise(), "save")

	// restored transactions are offered to the new ledger in order
	second := mocks.NewMockLedger(ctl)
	gomock.InOrder(
		second.EXPECT().PushTransaction(sameID(pending[0])).Return(pending[0], nil),
		second.EXPECT().PushTransaction(sameID(pending[1])).Return(nil, fault.ErrExpiredTransaction),
		second.EXPECT().PushTransaction(sameID(pending[2])).Return(pending[2], nil),
	)
	second.EXPECT().PendingTransactions().Return(nil).AnyTimes()

	setup(t, second)
	defer teardown()

	require.NoError(t, reservoir.LoadFromFile(), "load")
}

// matches a transaction by id, unpacking need not restore nil slices
type idMatcher protocol.TransactionID

func sameID(ptx *protocol.ProcessedTransaction) gomock.Matcher {
	return idMatcher(ptx.ID())
}

func (m idMatcher) Matches(x interface{}) bool {
	tx, ok := x.(*protocol.SignedTransaction)
	return ok && protocol.TransactionID(m) == tx.ID()
}

func (m idMatcher) String() string {
	return "transaction: " + protocol.TransactionID(m).String()
}

func TestLoadMissingFile(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()
	setup(t, l)
	defer teardown()

	assert.NoError(t, reservoir.LoadFromFile())
}

func TestLoadBadFile(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	l := mocks.NewMockLedger(ctl)
	l.EXPECT().PushTransaction(gomock.Any()).Times(0)
	l.EXPECT().PendingTransactions().Return(nil).AnyTimes()
	setup(t, l)
	defer teardown()

	require.NoError(t, ioutil.WriteFile(cacheFile(), []byte("\x00\x00\x00\x00\x03bad"), 0600))

	err := reservoir.LoadFromFile()
	assert.Equal(t, fault.ErrReservoirFile, errors.Cause(err))
}
