// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero/api"

	"github.com/yoyow-org/yoyowd/fault"
)

// contracts hold floats as their bit patterns: f32 in an i32 and f64
// in an i64, every operation is one of these imports
//
// each result is rounded once to its own precision and NaN results
// are canonical so every node produces the same bits

const (
	canonicalNaN32 = uint32(0x7fc00000)
	canonicalNaN64 = uint64(0x7ff8000000000000)
)

func f32(v uint64) float32 { return math.Float32frombits(uint32(v)) }
func f64(v uint64) float64 { return math.Float64frombits(v) }

func bits32(f float32) uint64 {
	if f != f {
		return uint64(canonicalNaN32)
	}
	return uint64(math.Float32bits(f))
}

func bits64(f float64) uint64 {
	if f != f {
		return canonicalNaN64
	}
	return math.Float64bits(f)
}

func boolResult(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

var (
	i32    = api.ValueTypeI32
	i64    = api.ValueTypeI64
	none   = []api.ValueType{}
	oneI   = []api.ValueType{i32}
	oneL   = []api.ValueType{i64}
	twoI   = []api.ValueType{i32, i32}
	twoL   = []api.ValueType{i64, i64}
	threeI = []api.ValueType{i32, i32, i32}
)

func f32Binary(name string, op func(a float32, b float32) float32) hostFunction {
	return hostFunction{name, twoI, oneI, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = bits32(op(f32(stack[0]), f32(stack[1])))
	}}
}

func f64Binary(name string, op func(a float64, b float64) float64) hostFunction {
	return hostFunction{name, twoL, oneL, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = bits64(op(f64(stack[0]), f64(stack[1])))
	}}
}

func f32Unary(name string, op func(a float32) float32) hostFunction {
	return hostFunction{name, oneI, oneI, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = bits32(op(f32(stack[0])))
	}}
}

func f64Unary(name string, op func(a float64) float64) hostFunction {
	return hostFunction{name, oneL, oneL, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = bits64(op(f64(stack[0])))
	}}
}

func f32Compare(name string, op func(a float32, b float32) bool) hostFunction {
	return hostFunction{name, twoI, oneI, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = boolResult(op(f32(stack[0]), f32(stack[1])))
	}}
}

func f64Compare(name string, op func(a float64, b float64) bool) hostFunction {
	return hostFunction{name, twoL, oneI, func(_ *call, _ api.Module, stack []uint64) {
		stack[0] = boolResult(op(f64(stack[0]), f64(stack[1])))
	}}
}

// via64 - an f32 operation that is exact when done in f64 and
// rounded back
func via64(op func(float64) float64) func(float32) float32 {
	return func(a float32) float32 { return float32(op(float64(a))) }
}

func via64Binary(op func(float64, float64) float64) func(float32, float32) float32 {
	return func(a float32, b float32) float32 { return float32(op(float64(a), float64(b))) }
}

// wasm abs, neg and copysign only touch the sign bit
func signOps() []hostFunction {
	return []hostFunction{
		{"_yy_f32_abs", oneI, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(uint32(stack[0]) &^ (1 << 31))
		}},
		{"_yy_f32_neg", oneI, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(uint32(stack[0]) ^ (1 << 31))
		}},
		{"_yy_f32_copysign", twoI, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(uint32(stack[0])&^(1<<31) | uint32(stack[1])&(1<<31))
		}},
		{"_yy_f64_abs", oneL, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = stack[0] &^ (1 << 63)
		}},
		{"_yy_f64_neg", oneL, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = stack[0] ^ (1 << 63)
		}},
		{"_yy_f64_copysign", twoL, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = stack[0]&^(1<<63) | stack[1]&(1<<63)
		}},
	}
}

// wasm min and max return NaN if either side is NaN and order -0
// below +0, as math.Min and math.Max do
func minMax() []hostFunction {
	return []hostFunction{
		f32Binary("_yy_f32_min", via64Binary(math.Min)),
		f32Binary("_yy_f32_max", via64Binary(math.Max)),
		f64Binary("_yy_f64_min", math.Min),
		f64Binary("_yy_f64_max", math.Max),
	}
}

// truncation traps on NaN and on results outside the target range
func truncate(c *call, f float64, low float64, high float64, target string) float64 {
	if f != f {
		c.fail(errors.Wrapf(fault.ErrWasmExecution, "invalid conversion of NaN to %s", target))
	}
	t := math.Trunc(f)
	if t <= low || t >= high {
		c.fail(errors.Wrapf(fault.ErrWasmExecution, "integer overflow converting %g to %s", f, target))
	}
	return t
}

const (
	two31 = float64(1 << 31)
	two32 = float64(1 << 32)
	two63 = float64(1 << 63)
	two64 = two63 * 2
)

func truncations() []hostFunction {
	type conversion struct {
		suffix string
		low    float64
		high   float64
		result []api.ValueType
		encode func(float64) uint64
	}
	conversions := []conversion{
		{"i32s", -two31 - 1, two31, oneI, func(t float64) uint64 { return uint64(uint32(int32(t))) }},
		{"i32u", -1, two32, oneI, func(t float64) uint64 { return uint64(uint32(t)) }},
		{"i64s", -two63 - 1025, two63, oneL, func(t float64) uint64 { return uint64(int64(t)) }},
		{"i64u", -1, two64, oneL, func(t float64) uint64 { return uint64(t) }},
	}
	functions := make([]hostFunction, 0, 2*len(conversions))
	for _, v := range conversions {
		v := v
		functions = append(functions,
			hostFunction{"_yy_f32_trunc_" + v.suffix, oneI, v.result, func(c *call, _ api.Module, stack []uint64) {
				stack[0] = v.encode(truncate(c, float64(f32(stack[0])), v.low, v.high, v.suffix))
			}},
			hostFunction{"_yy_f64_trunc_" + v.suffix, oneL, v.result, func(c *call, _ api.Module, stack []uint64) {
				stack[0] = v.encode(truncate(c, f64(stack[0]), v.low, v.high, v.suffix))
			}},
		)
	}
	return functions
}

func conversions() []hostFunction {
	return []hostFunction{
		{"_yy_f32_promote", oneI, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits64(float64(f32(stack[0])))
		}},
		{"_yy_f64_demote", oneL, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits32(float32(f64(stack[0])))
		}},
		{"_yy_i32_to_f32", oneI, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits32(float32(int32(uint32(stack[0]))))
		}},
		{"_yy_ui32_to_f32", oneI, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits32(float32(uint32(stack[0])))
		}},
		{"_yy_i64_to_f32", oneL, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits32(float32(int64(stack[0])))
		}},
		{"_yy_ui64_to_f32", oneL, oneI, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits32(float32(stack[0]))
		}},
		{"_yy_i32_to_f64", oneI, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits64(float64(int32(uint32(stack[0]))))
		}},
		{"_yy_ui32_to_f64", oneI, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits64(float64(uint32(stack[0])))
		}},
		{"_yy_i64_to_f64", oneL, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits64(float64(int64(stack[0])))
		}},
		{"_yy_ui64_to_f64", oneL, oneL, func(_ *call, _ api.Module, stack []uint64) {
			stack[0] = bits64(float64(stack[0]))
		}},
	}
}

func softFloatFunctions() []hostFunction {
	functions := []hostFunction{
		f32Binary("_yy_f32_add", func(a float32, b float32) float32 { return float32(a + b) }),
		f32Binary("_yy_f32_sub", func(a float32, b float32) float32 { return float32(a - b) }),
		f32Binary("_yy_f32_mul", func(a float32, b float32) float32 { return float32(a * b) }),
		f32Binary("_yy_f32_div", func(a float32, b float32) float32 { return float32(a / b) }),
		f32Unary("_yy_f32_sqrt", via64(math.Sqrt)),
		f32Unary("_yy_f32_ceil", via64(math.Ceil)),
		f32Unary("_yy_f32_floor", via64(math.Floor)),
		f32Unary("_yy_f32_trunc", via64(math.Trunc)),
		f32Unary("_yy_f32_nearest", via64(math.RoundToEven)),
		f32Compare("_yy_f32_eq", func(a float32, b float32) bool { return a == b }),
		f32Compare("_yy_f32_ne", func(a float32, b float32) bool { return a != b }),
		f32Compare("_yy_f32_lt", func(a float32, b float32) bool { return a < b }),
		f32Compare("_yy_f32_le", func(a float32, b float32) bool { return a <= b }),
		f32Compare("_yy_f32_gt", func(a float32, b float32) bool { return a > b }),
		f32Compare("_yy_f32_ge", func(a float32, b float32) bool { return a >= b }),

		f64Binary("_yy_f64_add", func(a float64, b float64) float64 { return float64(a + b) }),
		f64Binary("_yy_f64_sub", func(a float64, b float64) float64 { return float64(a - b) }),
		f64Binary("_yy_f64_mul", func(a float64, b float64) float64 { return float64(a * b) }),
		f64Binary("_yy_f64_div", func(a float64, b float64) float64 { return float64(a / b) }),
		f64Unary("_yy_f64_sqrt", math.Sqrt),
		f64Unary("_yy_f64_ceil", math.Ceil),
		f64Unary("_yy_f64_floor", math.Floor),
		f64Unary("_yy_f64_trunc", math.Trunc),
		f64Unary("_yy_f64_nearest", math.RoundToEven),
		f64Compare("_yy_f64_eq", func(a float64, b float64) bool { return a == b }),
		f64Compare("_yy_f64_ne", func(a float64, b float64) bool { return a != b }),
		f64Compare("_yy_f64_lt", func(a float64, b float64) bool { return a < b }),
		f64Compare("_yy_f64_le", func(a float64, b float64) bool { return a <= b }),
		f64Compare("_yy_f64_gt", func(a float64, b float64) bool { return a > b }),
		f64Compare("_yy_f64_ge", func(a float64, b float64) bool { return a >= b }),
	}
	functions = append(functions, signOps()...)
	functions = append(functions, minMax()...)
	functions = append(functions, truncations()...)
	functions = append(functions, conversions()...)
	return functions
}
