// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/fault"
)

// invoke - run a host function that needs no memory
func invoke(t *testing.T, name string, args ...uint64) (result uint64, err error) {
	f, ok := hostFunctions()[name]
	require.True(t, ok, "missing: %s", name)
	require.Len(t, args, len(f.params), "arguments of: %s", name)

	c := &call{ctx: context.Background()}
	stack := make([]uint64, len(args)+1)
	copy(stack, args)

	defer func() {
		if r := recover(); nil != r {
			err = c.err
		}
	}()
	f.fn(c, nil, stack)
	return stack[0], nil
}

func f64Bits(f float64) uint64 { return math.Float64bits(f) }
func f32Bits(f float32) uint64 { return uint64(math.Float32bits(f)) }

func TestSoftFloatArithmetic(t *testing.T) {
	a, b := 0.1, 0.2
	x, y := float32(0.1), float32(0.7)

	items := []struct {
		name     string
		args     []uint64
		expected uint64
	}{
		{"_yy_f64_add", []uint64{f64Bits(a), f64Bits(b)}, f64Bits(a + b)},
		{"_yy_f64_mul", []uint64{f64Bits(1.5), f64Bits(-4)}, f64Bits(-6)},
		{"_yy_f64_div", []uint64{f64Bits(1), f64Bits(4)}, f64Bits(0.25)},
		{"_yy_f64_sqrt", []uint64{f64Bits(2)}, f64Bits(math.Sqrt(2))},
		{"_yy_f64_nearest", []uint64{f64Bits(2.5)}, f64Bits(2)},
		{"_yy_f64_nearest", []uint64{f64Bits(-3.5)}, f64Bits(-4)},
		{"_yy_f32_add", []uint64{f32Bits(x), f32Bits(y)}, f32Bits(x + y)},
		{"_yy_f32_sqrt", []uint64{f32Bits(2)}, f32Bits(float32(math.Sqrt(2)))},
		{"_yy_f32_floor", []uint64{f32Bits(-1.5)}, f32Bits(-2)},
		{"_yy_f32_promote", []uint64{f32Bits(x)}, f64Bits(float64(x))},
		{"_yy_f64_demote", []uint64{f64Bits(a)}, f32Bits(float32(a))},
		{"_yy_i64_to_f64", []uint64{uint64(0xffffffffffffffff)}, f64Bits(-1)},
		{"_yy_ui64_to_f64", []uint64{uint64(0xffffffffffffffff)}, f64Bits(18446744073709551615.0)},
		{"_yy_i32_to_f32", []uint64{uint64(0xfffffffe)}, f32Bits(-2)},
		{"_yy_f64_lt", []uint64{f64Bits(1), f64Bits(2)}, 1},
		{"_yy_f64_ge", []uint64{f64Bits(1), f64Bits(2)}, 0},
		{"_yy_f32_eq", []uint64{f32Bits(0), f32Bits(float32(math.Copysign(0, -1)))}, 1},
	}

	for i, item := range items {
		actual, err := invoke(t, item.name, item.args...)
		require.NoError(t, err, "%d: %s", i, item.name)
		assert.Equal(t, item.expected, actual, "%d: %s", i, item.name)
	}
}

func TestSoftFloatCanonicalNaN(t *testing.T) {
	zero := 0.0

	actual, err := invoke(t, "_yy_f64_div", f64Bits(zero), f64Bits(zero))
	require.NoError(t, err)
	assert.Equal(t, canonicalNaN64, actual)

	// a NaN with a payload comes back canonical
	actual, err = invoke(t, "_yy_f64_add", 0x7ff0000000000001, f64Bits(1))
	require.NoError(t, err)
	assert.Equal(t, canonicalNaN64, actual)

	actual, err = invoke(t, "_yy_f32_sqrt", f32Bits(-1))
	require.NoError(t, err)
	assert.Equal(t, uint64(canonicalNaN32), actual)

	// comparisons against NaN are false except ne
	actual, err = invoke(t, "_yy_f64_eq", canonicalNaN64, canonicalNaN64)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), actual)
	actual, err = invoke(t, "_yy_f64_ne", canonicalNaN64, canonicalNaN64)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), actual)
}

func TestSoftFloatSignAndMinMax(t *testing.T) {
	negativeZero := math.Copysign(0, -1)

	actual, err := invoke(t, "_yy_f64_min", f64Bits(0), f64Bits(negativeZero))
	require.NoError(t, err)
	assert.Equal(t, f64Bits(negativeZero), actual, "min -0")

	actual, err = invoke(t, "_yy_f64_max", f64Bits(negativeZero), f64Bits(0))
	require.NoError(t, err)
	assert.Equal(t, f64Bits(0), actual, "max +0")

	actual, err = invoke(t, "_yy_f64_neg", f64Bits(2))
	require.NoError(t, err)
	assert.Equal(t, f64Bits(-2), actual, "neg")

	// sign operations keep a NaN payload
	actual, err = invoke(t, "_yy_f64_abs", 0xfff0000000000001)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7ff0000000000001), actual, "abs")

	actual, err = invoke(t, "_yy_f32_copysign", f32Bits(3), f32Bits(-1))
	require.NoError(t, err)
	assert.Equal(t, f32Bits(-3), actual, "copysign")
}

func TestSoftFloatTruncation(t *testing.T) {
	valid := []struct {
		name     string
		arg      uint64
		expected uint64
	}{
		{"_yy_f64_trunc_i32s", f64Bits(-2147483648.9), 0x80000000},
		{"_yy_f64_trunc_i32s", f64Bits(2147483647.9), 0x7fffffff},
		{"_yy_f64_trunc_i32u", f64Bits(-0.9), 0},
		{"_yy_f64_trunc_i32u", f64Bits(4294967295.5), 0xffffffff},
		{"_yy_f64_trunc_i64s", f64Bits(-9223372036854775808), 0x8000000000000000},
		{"_yy_f32_trunc_i64u", f32Bits(4294967296), 4294967296},
		{"_yy_f32_trunc_i32s", f32Bits(-7.5), 0xfffffff9},
	}
	for i, item := range valid {
		actual, err := invoke(t, item.name, item.arg)
		require.NoError(t, err, "%d: %s", i, item.name)
		assert.Equal(t, item.expected, actual, "%d: %s", i, item.name)
	}

	traps := []struct {
		name string
		arg  uint64
	}{
		{"_yy_f64_trunc_i32s", f64Bits(2147483648)},
		{"_yy_f64_trunc_i32s", f64Bits(-2147483649)},
		{"_yy_f64_trunc_i32u", f64Bits(-1)},
		{"_yy_f64_trunc_i64s", f64Bits(9223372036854775808)},
		{"_yy_f64_trunc_i64u", f64Bits(18446744073709551616)},
		{"_yy_f64_trunc_i64u", canonicalNaN64},
		{"_yy_f32_trunc_i32s", uint64(canonicalNaN32)},
		{"_yy_f32_trunc_i32u", f32Bits(float32(math.Inf(1)))},
	}
	for i, item := range traps {
		_, err := invoke(t, item.name, item.arg)
		assert.Equal(t, fault.ErrWasmExecution, errors.Cause(err), "%d: %s", i, item.name)
	}
}

func TestInt128Helpers(t *testing.T) {
	minusFive := negate(uint128.From64(5))
	assert.True(t, negative(minusFive))
	assert.Equal(t, "-5", int128String(minusFive))
	assert.Equal(t, "5", int128String(abs128(minusFive)))
	assert.Equal(t, uint64(0xffffffffffffffff), minusFive.Hi)
}

func TestHostFunctionsUnique(t *testing.T) {
	assert.NotPanics(t, func() { hostFunctions() })
}

func TestHostFunctionsHaveNoFloats(t *testing.T) {
	for name, f := range hostFunctions() {
		for _, v := range append(append([]byte{}, f.params...), f.results...) {
			assert.Contains(t, []byte{i32, i64}, v, name)
		}
	}
}
