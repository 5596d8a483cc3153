// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/storage"
)

func TestInitialiseTwice(t *testing.T) {
	setup(t)
	defer teardown()

	_, err := storage.Initialise(databaseName(), storage.ReadWrite)
	assert.Equal(t, fault.ErrAlreadyInitialised, err)
}

func TestPutAndGet(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)

	for _, e := range expectedElements {
		assert.Equal(t, e.Value, storage.Pool.TestData.Get(e.Key), "key: %s", e.Key)
		assert.True(t, storage.Pool.TestData.Has(e.Key), "key: %s", e.Key)
	}
	assert.Nil(t, storage.Pool.TestData.Get(nonExistentKey))
	assert.False(t, storage.Pool.TestData.Has(nonExistentKey))

	// pools do not overlap
	assert.Nil(t, storage.Pool.Metadata.Get(expectedElements[0].Key))
}

func TestPutN(t *testing.T) {
	setup(t)
	defer teardown()

	trx, err := storage.NewDBTransaction()
	require.NoError(t, err)
	trx.PutN(storage.Pool.Metadata, []byte("count"), 0x0102030405060708)

	// visible inside the transaction before commit
	n, ok := trx.GetN(storage.Pool.Metadata, []byte("count"))
	assert.True(t, ok, "uncommitted")
	assert.Equal(t, uint64(0x0102030405060708), n)

	require.NoError(t, trx.Commit())

	n, ok = storage.Pool.Metadata.GetN([]byte("count"))
	assert.True(t, ok, "committed")
	assert.Equal(t, uint64(0x0102030405060708), n)

	_, ok = storage.Pool.Metadata.GetN(nonExistentKey)
	assert.False(t, ok, "missing")
}

func TestTransactionInUse(t *testing.T) {
	setup(t)
	defer teardown()

	trx, err := storage.NewDBTransaction()
	require.NoError(t, err)

	_, err = storage.NewDBTransaction()
	assert.Equal(t, fault.ErrTransactionInUse, errors.Cause(err))

	trx.Abort()

	trx, err = storage.NewDBTransaction()
	require.NoError(t, err, "after abort")
	trx.Abort()
}

func TestAbort(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)

	trx, err := storage.NewDBTransaction()
	require.NoError(t, err)
	trx.Put(storage.Pool.TestData, []byte("key-eight"), []byte("data-eight"))
	trx.Delete(storage.Pool.TestData, expectedElements[0].Key)

	assert.Equal(t, []byte("data-eight"), trx.Get(storage.Pool.TestData, []byte("key-eight")), "uncommitted put")
	assert.Nil(t, trx.Get(storage.Pool.TestData, expectedElements[0].Key), "uncommitted delete")
	assert.False(t, storage.Pool.TestData.Has(expectedElements[0].Key), "uncommitted delete")

	trx.Abort()

	assert.Nil(t, storage.Pool.TestData.Get([]byte("key-eight")), "aborted put")
	assert.Equal(t, expectedElements[0].Value, storage.Pool.TestData.Get(expectedElements[0].Key), "aborted delete")
}

func TestDelete(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)

	trx, err := storage.NewDBTransaction()
	require.NoError(t, err)
	trx.Delete(storage.Pool.TestData, expectedElements[2].Key)
	require.NoError(t, trx.Commit())

	assert.Nil(t, storage.Pool.TestData.Get(expectedElements[2].Key))
	assert.Equal(t, expectedElements[3].Value, storage.Pool.TestData.Get(expectedElements[3].Key))
}

func TestLastElement(t *testing.T) {
	setup(t)
	defer teardown()

	_, found := storage.Pool.TestData.LastElement()
	assert.False(t, found, "empty pool")

	putElements(t)

	last, found := storage.Pool.TestData.LastElement()
	require.True(t, found)
	assert.Equal(t, expectedElements[len(expectedElements)-1], last)
}

func TestFetchCursor(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)

	cursor := storage.Pool.TestData.NewFetchCursor()
	first, err := cursor.Fetch(3)
	require.NoError(t, err)
	assert.Equal(t, expectedElements[:3], first)

	rest, err := cursor.Fetch(100)
	require.NoError(t, err)
	assert.Equal(t, expectedElements[3:], rest)

	none, err := cursor.Fetch(10)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = cursor.Fetch(0)
	assert.Equal(t, fault.ErrInvalidCount, err)

	seeked, err := storage.Pool.TestData.NewFetchCursor().Seek([]byte("key-s")).Fetch(2)
	require.NoError(t, err)
	assert.Equal(t, expectedElements[3:5], seeked)
}

func TestMap(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)

	collected := []storage.Element{}
	err := storage.Pool.TestData.NewFetchCursor().Map(func(key []byte, value []byte) error {
		collected = append(collected, storage.Element{Key: key, Value: value})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, expectedElements, collected)

	// an error stops the scan
	count := 0
	stop := errors.New("stop")
	err = storage.Pool.TestData.NewFetchCursor().Map(func(key []byte, value []byte) error {
		count += 1
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, count)
}

func TestReopen(t *testing.T) {
	setup(t)
	defer teardown()

	putElements(t)
	storage.Finalise()

	mustReindex, err := storage.Initialise(databaseName(), storage.ReadOnly)
	require.NoError(t, err, "read only")
	assert.False(t, mustReindex)
	assert.Equal(t, expectedElements[1].Value, storage.Pool.TestData.Get(expectedElements[1].Key))
}
