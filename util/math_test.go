// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/util"
)

func TestMulDiv(t *testing.T) {
	r, ok := util.MulDiv(math.MaxUint64, 10000, 10000)
	assert.True(t, ok, "overflowed")
	assert.Equal(t, uint64(math.MaxUint64), r, "identity")

	r, ok = util.MulDiv(7, 3, 2)
	assert.True(t, ok, "overflowed")
	assert.Equal(t, uint64(10), r, "floor")

	r, ok = util.MulDivCeil(7, 3, 2)
	assert.True(t, ok, "overflowed")
	assert.Equal(t, uint64(11), r, "ceiling")

	_, ok = util.MulDiv(math.MaxUint64, 2, 1)
	assert.False(t, ok, "overflow not detected")

	_, ok = util.MulDiv(1, 1, 0)
	assert.False(t, ok, "divide by zero not detected")
}

func TestCutFee(t *testing.T) {
	assert.Equal(t, int64(50), util.CutFee(1000, 500), "5%")
	assert.Equal(t, int64(0), util.CutFee(0, 500), "zero amount")
	assert.Equal(t, int64(0), util.CutFee(1000, 0), "zero percent")
}

func TestWeightedAverage(t *testing.T) {
	assert.Equal(t, uint64(500), util.WeightedAverage(0, 1000, 50, 100), "half window")
	assert.Equal(t, uint64(1000), util.WeightedAverage(0, 1000, 100, 100), "full window")
	assert.Equal(t, uint64(1000), util.WeightedAverage(0, 1000, 200, 100), "beyond window")
	assert.Equal(t, uint64(800), util.WeightedAverage(800, 800, 10, 100), "steady")
}
