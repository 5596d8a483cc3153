// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero/api"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/fault"
)

// 128 bit integer helpers the compiler emits calls to, each result is
// stored little endian at the pointer in the first argument

const signBit = uint64(1) << 63

func negative(x uint128.Uint128) bool {
	return 0 != x.Hi&signBit
}

func negate(x uint128.Uint128) uint128.Uint128 {
	return uint128.Zero.SubWrap(x)
}

func abs128(x uint128.Uint128) uint128.Uint128 {
	if negative(x) {
		return negate(x)
	}
	return x
}

func int128String(x uint128.Uint128) string {
	if negative(x) {
		return "-" + negate(x).String()
	}
	return x.String()
}

func (c *call) readUint128(mod api.Module, ptr uint32) uint128.Uint128 {
	return uint128.FromBytes(c.read(mod, ptr, 16))
}

func (c *call) writeUint128(mod api.Module, ptr uint32, x uint128.Uint128) {
	b := make([]byte, 16)
	x.PutBytes(b)
	c.write(mod, ptr, b)
}

func shiftFunction(name string, shift func(x uint128.Uint128, n uint) uint128.Uint128) hostFunction {
	return hostFunction{name, types(i32, i64, i64, i32), none, func(c *call, mod api.Module, stack []uint64) {
		x := uint128.New(stack[1], stack[2])
		c.writeUint128(mod, u32(stack[0]), shift(x, uint(u32(stack[3])&127)))
	}}
}

func arithmeticFunction(name string, op func(c *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128) hostFunction {
	return hostFunction{name, types(i32, i64, i64, i64, i64), none, func(c *call, mod api.Module, stack []uint64) {
		a := uint128.New(stack[1], stack[2])
		b := uint128.New(stack[3], stack[4])
		c.writeUint128(mod, u32(stack[0]), op(c, a, b))
	}}
}

func (c *call) divisor(b uint128.Uint128) uint128.Uint128 {
	if b.IsZero() {
		c.fail(errors.Wrap(fault.ErrWasmExecution, "divide by zero"))
	}
	return b
}

func builtinFunctions() []hostFunction {
	lsh := func(x uint128.Uint128, n uint) uint128.Uint128 { return x.Lsh(n) }
	return []hostFunction{
		shiftFunction("__ashlti3", lsh),
		shiftFunction("__lshlti3", lsh),
		shiftFunction("__lshrti3", func(x uint128.Uint128, n uint) uint128.Uint128 {
			return x.Rsh(n)
		}),
		shiftFunction("__ashrti3", func(x uint128.Uint128, n uint) uint128.Uint128 {
			if negative(x) {
				return uint128.Max.Xor(uint128.Max.Xor(x).Rsh(n))
			}
			return x.Rsh(n)
		}),
		arithmeticFunction("__multi3", func(_ *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128 {
			return a.MulWrap(b)
		}),
		arithmeticFunction("__udivti3", func(c *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128 {
			return a.Div(c.divisor(b))
		}),
		arithmeticFunction("__umodti3", func(c *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128 {
			return a.Mod(c.divisor(b))
		}),
		arithmeticFunction("__divti3", func(c *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128 {
			q := abs128(a).Div(abs128(c.divisor(b)))
			if negative(a) != negative(b) {
				return negate(q)
			}
			return q
		}),
		arithmeticFunction("__modti3", func(c *call, a uint128.Uint128, b uint128.Uint128) uint128.Uint128 {
			r := abs128(a).Mod(abs128(c.divisor(b)))
			if negative(a) {
				return negate(r)
			}
			return r
		}),
	}
}
