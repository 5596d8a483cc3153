// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/counter"
)

func TestCounter(t *testing.T) {
	var c counter.Counter

	assert.True(t, c.IsZero(), "start")

	c.Increment()
	c.Increment()
	assert.Equal(t, uint64(7), c.Add(5))
	assert.Equal(t, uint64(7), c.Uint64())
	assert.False(t, c.IsZero())

	assert.Equal(t, uint64(7), c.Reset(), "value before reset")
	assert.True(t, c.IsZero(), "after reset")
}

func TestConcurrentIncrement(t *testing.T) {
	var c counter.Counter

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j += 1 {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8000), c.Uint64())
}
