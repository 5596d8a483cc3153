// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	require.NoError(t, Initialise())
	defer Finalise()

	Pool.TestB.Put("key-one", "data-one")
	Pool.TestB.Put("key-two", "data-two")
	Pool.TestB.Put("key-remove-me", "to be deleted")
	Pool.TestB.Delete("key-remove-me")
	Pool.TestB.Put("key-three", "data-three")
	Pool.TestB.Put("key-one", "data-one")     // duplicate
	Pool.TestB.Put("key-three", "data-three") // duplicate
	Pool.TestB.Put("key-four", "data-four")
	Pool.TestB.Put("key-delete-this", "to be deleted")
	Pool.TestB.Put("key-five", "data-five")
	Pool.TestB.Put("key-six", "data-six")
	Pool.TestB.Delete("key-delete-this")
	Pool.TestB.Put("key-seven", "data-seven")
	Pool.TestB.Put("key-one", "data-one(NEW)") // duplicate
	expectedItems := map[string]interface{}{
		"key-one":   "data-one(NEW)",
		"key-two":   "data-two",
		"key-three": "data-three",
		"key-four":  "data-four",
		"key-five":  "data-five",
		"key-six":   "data-six",
		"key-seven": "data-seven",
	}

	assert.Equal(t, len(expectedItems), Pool.TestB.Size(), "size")
	assert.Equal(t, expectedItems, Pool.TestB.Items(), "items")

	value, ok := Pool.TestB.Get("key-two")
	assert.True(t, ok)
	assert.Equal(t, "data-two", value)

	_, ok = Pool.TestB.Get("key-remove-me")
	assert.False(t, ok, "deleted")

	// pools are independent
	_, ok = Pool.TestA.Get("key-two")
	assert.False(t, ok, "other pool")
}

func TestExpiration(t *testing.T) {
	require.NoError(t, Initialise())
	defer Finalise()

	Pool.TestA.Put("a1", struct{}{})
	Pool.TestA.Put("a2", struct{}{})
	Pool.TestA.Put("a3", struct{}{})
	Pool.TestB.Put("b1", struct{}{})
	Pool.TestB.Put("b2", struct{}{})
	Pool.TestB.Put("b3", struct{}{})
	expectedKeysInPoolA := map[string]bool{"a1": false, "a2": false, "a3": false}
	expectedKeysInPoolB := map[string]bool{"b1": true, "b2": true, "b3": true}

	time.Sleep(1500 * time.Millisecond)
	deleteExpiredItems()

	for key, existed := range expectedKeysInPoolA {
		_, ok := Pool.TestA.Get(key)
		assert.Equal(t, existed, ok, "key: %q", key)
	}
	for key, existed := range expectedKeysInPoolB {
		_, ok := Pool.TestB.Get(key)
		assert.Equal(t, existed, ok, "key: %q", key)
	}
	assert.Equal(t, 0, Pool.TestA.Size(), "cleaned")
}

func TestReinitialiseEmptiesPools(t *testing.T) {
	require.NoError(t, Initialise())
	defer Finalise()

	Pool.KnownTransactions.Put("id", time.Now())
	require.NoError(t, Initialise())

	_, ok := Pool.KnownTransactions.Get("id")
	assert.False(t, ok)
}
