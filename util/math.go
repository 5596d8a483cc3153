// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"lukechampine.com/uint128"
)

// MulDiv - compute a·b/c using a 128 bit intermediate
//
// ok is false if the quotient does not fit in 64 bits or c is zero
func MulDiv(a uint64, b uint64, c uint64) (uint64, bool) {
	if 0 == c {
		return 0, false
	}
	q, _ := uint128.From64(a).Mul64(b).QuoRem64(c)
	if 0 != q.Hi {
		return 0, false
	}
	return q.Lo, true
}

// MulDivCeil - compute ⌈a·b/c⌉ using a 128 bit intermediate
func MulDivCeil(a uint64, b uint64, c uint64) (uint64, bool) {
	if 0 == c {
		return 0, false
	}
	q, r := uint128.From64(a).Mul64(b).QuoRem64(c)
	if 0 != r {
		q = q.Add64(1)
	}
	if 0 != q.Hi {
		return 0, false
	}
	return q.Lo, true
}

// CutFee - a·p/10000 for a non-negative amount and percentage
func CutFee(amount int64, percent uint16) int64 {
	if 0 == amount || 0 == percent {
		return 0
	}
	r, _ := MulDiv(uint64(amount), uint64(percent), 10000)
	return int64(r)
}

// WeightedAverage - (old·(window−Δ) + current·Δ)/window for Δ < window
func WeightedAverage(old uint64, current uint64, delta uint64, window uint64) uint64 {
	if delta >= window {
		return current
	}
	sum := uint128.From64(old).Mul64(window - delta).Add(uint128.From64(current).Mul64(delta))
	q, _ := sum.QuoRem64(window)
	return q.Lo
}

// MinInt64 - smaller of two values
func MinInt64(a int64, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxInt64 - larger of two values
func MaxInt64(a int64, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
