// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/crypto/ripemd160"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

// the module name contracts import from
const hostModule = "env"

type callKey struct{}

// exitSignal - unwinds the guest on an early return
type exitSignal struct{}

// call - one execution of a contract's apply
type call struct {
	ctx    context.Context
	chain  ledger.ContractContext
	err    error
	exited bool
}

func callOf(ctx context.Context) *call {
	c, ok := ctx.Value(callKey{}).(*call)
	if !ok {
		panic("wasm: host function called outside a contract call")
	}
	return c
}

// fail - abort the guest, the error is returned from Apply
func (c *call) fail(err error) {
	c.err = err
	panic(err)
}

func (c *call) check(err error) {
	if nil != err {
		c.fail(err)
	}
}

func (c *call) read(mod api.Module, ptr uint32, n uint32) []byte {
	b, ok := mod.Memory().Read(ptr, n)
	if !ok {
		c.fail(errors.Wrapf(fault.ErrOutOfBounds, "read: %d bytes at: %d", n, ptr))
	}
	return append([]byte(nil), b...)
}

func (c *call) write(mod api.Module, ptr uint32, data []byte) {
	if !mod.Memory().Write(ptr, data) {
		c.fail(errors.Wrapf(fault.ErrOutOfBounds, "write: %d bytes at: %d", len(data), ptr))
	}
}

func (c *call) writeUint64(mod api.Module, ptr uint32, v uint64) {
	if !mod.Memory().WriteUint64Le(ptr, v) {
		c.fail(errors.Wrapf(fault.ErrOutOfBounds, "write: 8 bytes at: %d", ptr))
	}
}

// cString - a zero terminated string
func (c *call) cString(mod api.Module, ptr uint32) string {
	mem := mod.Memory()
	size := mem.Size()
	if ptr >= size {
		c.fail(errors.Wrapf(fault.ErrOutOfBounds, "string at: %d", ptr))
	}
	b, _ := mem.Read(ptr, size-ptr)
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		c.fail(errors.Wrapf(fault.ErrOutOfBounds, "unterminated string at: %d", ptr))
	}
	return string(b[:n])
}

// hostFunction - an import provided to every contract
//
// floats never cross the boundary so every parameter and result is
// an i32 or an i64
type hostFunction struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	fn      func(c *call, mod api.Module, stack []uint64)
}

func (f hostFunction) goFunction() api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		f.fn(callOf(ctx), mod, stack)
	}
}

func u32(v uint64) uint32 { return uint32(v) }

func i32Result(v int) uint64 { return uint64(uint32(int32(v))) }

func types(t ...api.ValueType) []api.ValueType { return t }

func memoryFunctions() []hostFunction {
	return []hostFunction{
		{"memcpy", threeI, oneI, func(c *call, mod api.Module, stack []uint64) {
			dest, src, n := u32(stack[0]), u32(stack[1]), u32(stack[2])
			distance := int64(dest) - int64(src)
			if distance < 0 {
				distance = -distance
			}
			if distance < int64(n) {
				c.fail(errors.Wrapf(fault.ErrMemoryOverlap, "dest: %d src: %d length: %d", dest, src, n))
			}
			c.write(mod, dest, c.read(mod, src, n))
		}},
		{"memmove", threeI, oneI, func(c *call, mod api.Module, stack []uint64) {
			dest, src, n := u32(stack[0]), u32(stack[1]), u32(stack[2])
			c.write(mod, dest, c.read(mod, src, n))
		}},
		{"memcmp", threeI, oneI, func(c *call, mod api.Module, stack []uint64) {
			a, b, n := u32(stack[0]), u32(stack[1]), u32(stack[2])
			stack[0] = i32Result(bytes.Compare(c.read(mod, a, n), c.read(mod, b, n)))
		}},
		{"memset", threeI, oneI, func(c *call, mod api.Module, stack []uint64) {
			dest, value, n := u32(stack[0]), u32(stack[1]), u32(stack[2])
			c.write(mod, dest, bytes.Repeat([]byte{byte(value)}, int(n)))
		}},
	}
}

func consoleFunctions() []hostFunction {
	return []hostFunction{
		{"prints", oneI, none, func(c *call, mod api.Module, stack []uint64) {
			c.chain.Console(c.cString(mod, u32(stack[0])))
		}},
		{"prints_l", twoI, none, func(c *call, mod api.Module, stack []uint64) {
			c.chain.Console(string(c.read(mod, u32(stack[0]), u32(stack[1]))))
		}},
		{"printi", oneL, none, func(c *call, _ api.Module, stack []uint64) {
			c.chain.Console(strconv.FormatInt(int64(stack[0]), 10))
		}},
		{"printui", oneL, none, func(c *call, _ api.Module, stack []uint64) {
			c.chain.Console(strconv.FormatUint(stack[0], 10))
		}},
		{"printi128", oneI, none, func(c *call, mod api.Module, stack []uint64) {
			c.chain.Console(int128String(c.readUint128(mod, u32(stack[0]))))
		}},
		{"printui128", oneI, none, func(c *call, mod api.Module, stack []uint64) {
			c.chain.Console(c.readUint128(mod, u32(stack[0])).String())
		}},
		{"printn", oneL, none, func(c *call, _ api.Module, stack []uint64) {
			c.chain.Console(protocol.Name(stack[0]).String())
		}},
		{"printhex", twoI, none, func(c *call, mod api.Module, stack []uint64) {
			c.chain.Console(hex.EncodeToString(c.read(mod, u32(stack[0]), u32(stack[1]))))
		}},
	}
}

func systemFunctions() []hostFunction {
	return []hostFunction{
		{"abort", none, none, func(c *call, _ api.Module, _ []uint64) {
			c.fail(fault.ErrAbortCalled)
		}},
		{"graphene_assert", twoI, none, func(c *call, mod api.Module, stack []uint64) {
			if 0 == u32(stack[0]) {
				c.fail(errors.Wrap(fault.ErrAssertMessage, c.cString(mod, u32(stack[1]))))
			}
		}},
		{"graphene_assert_message", threeI, none, func(c *call, mod api.Module, stack []uint64) {
			if 0 == u32(stack[0]) {
				c.fail(errors.Wrap(fault.ErrAssertMessage, string(c.read(mod, u32(stack[1]), u32(stack[2])))))
			}
		}},
		{"graphene_assert_code", types(i32, i64), none, func(c *call, _ api.Module, stack []uint64) {
			if 0 == u32(stack[0]) {
				c.fail(errors.Wrapf(fault.ErrAssertCode, "code: %d", stack[1]))
			}
		}},
		{"graphene_exit", oneI, none, func(c *call, _ api.Module, _ []uint64) {
			c.exited = true
			panic(exitSignal{})
		}},
		{"checktime", none, none, func(c *call, _ api.Module, _ []uint64) {
			if nil != c.ctx.Err() {
				c.fail(fault.ErrDeadlineReached)
			}
		}},
	}
}

func globalFunctions() []hostFunction {
	return []hostFunction{
		{"get_head_block_num", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.HeadBlockNum())
		}},
		{"get_head_block_id", oneI, none, func(c *call, mod api.Module, stack []uint64) {
			id := c.chain.HeadBlockID()
			c.write(mod, u32(stack[0]), id[:])
		}},
		{"get_block_id_for_num", twoI, none, func(c *call, mod api.Module, stack []uint64) {
			id, ok := c.chain.BlockIDForNum(u32(stack[1]))
			if !ok {
				c.fail(errors.Wrapf(fault.ErrBlockNotFound, "block: %d", u32(stack[1])))
			}
			c.write(mod, u32(stack[0]), id[:])
		}},
		{"get_head_block_time", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.HeadBlockTime())
		}},
		{"get_trx_sender", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.Sender())
		}},
		{"get_trx_origin", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.Origin())
		}},
		{"get_account_name_by_id", types(i32, i32, i64), oneL, func(c *call, mod api.Module, stack []uint64) {
			name, ok := c.chain.AccountName(account.UID(stack[2]))
			if !ok {
				stack[0] = ^uint64(0)
				return
			}
			b := []byte(name)
			if n := u32(stack[1]); uint32(len(b)) > n {
				b = b[:n]
			}
			c.write(mod, u32(stack[0]), b)
			stack[0] = uint64(len(name))
		}},
		{"get_account_id", twoI, oneL, func(c *call, mod api.Module, stack []uint64) {
			uid, ok := c.chain.AccountUID(string(c.read(mod, u32(stack[0]), u32(stack[1]))))
			if !ok {
				stack[0] = ^uint64(0)
				return
			}
			stack[0] = uint64(uid)
		}},
		{"get_asset_id", twoI, oneL, func(c *call, mod api.Module, stack []uint64) {
			aid, ok := c.chain.AssetAID(string(c.read(mod, u32(stack[0]), u32(stack[1]))))
			if !ok {
				stack[0] = ^uint64(0)
				return
			}
			stack[0] = uint64(aid)
		}},
	}
}

func digestFunctions(name string, newHash func() hash.Hash) []hostFunction {
	sum := func(c *call, mod api.Module, stack []uint64) []byte {
		h := newHash()
		h.Write(c.read(mod, u32(stack[0]), u32(stack[1])))
		return h.Sum(nil)
	}
	return []hostFunction{
		{name, threeI, none, func(c *call, mod api.Module, stack []uint64) {
			c.write(mod, u32(stack[2]), sum(c, mod, stack))
		}},
		{"assert_" + name, threeI, none, func(c *call, mod api.Module, stack []uint64) {
			digest := sum(c, mod, stack)
			if !bytes.Equal(digest, c.read(mod, u32(stack[2]), uint32(len(digest)))) {
				c.fail(errors.Wrapf(fault.ErrHashMismatch, "%s", name))
			}
		}},
	}
}

func cryptoFunctions() []hostFunction {
	functions := []hostFunction{
		{"assert_recover_key", types(i32, i32, i32, i32, i32), none, func(c *call, mod api.Module, stack []uint64) {
			var digest [32]byte
			copy(digest[:], c.read(mod, u32(stack[0]), 32))
			sig, err := keypair.SignatureFromBytes(c.read(mod, u32(stack[1]), u32(stack[2])))
			c.check(err)
			key, err := keypair.Recover(sig, digest)
			c.check(err)
			expected := c.read(mod, u32(stack[3]), u32(stack[4]))
			if !bytes.Equal(key[:], expected) {
				c.fail(errors.Wrapf(fault.ErrInvalidSignature, "recovered key: %s", key))
			}
		}},
	}
	functions = append(functions, digestFunctions("sha1", sha1.New)...)
	functions = append(functions, digestFunctions("sha256", sha256.New)...)
	functions = append(functions, digestFunctions("sha512", sha512.New)...)
	functions = append(functions, digestFunctions("ripemd160", ripemd160.New)...)
	return functions
}

func actionFunctions() []hostFunction {
	return []hostFunction{
		{"read_action_data", twoI, oneI, func(c *call, mod api.Module, stack []uint64) {
			data := c.chain.ActionData()
			n := u32(stack[1])
			if 0 == n {
				stack[0] = uint64(len(data))
				return
			}
			if uint32(len(data)) < n {
				n = uint32(len(data))
			}
			c.write(mod, u32(stack[0]), data[:n])
			stack[0] = uint64(n)
		}},
		{"action_data_size", none, oneI, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(len(c.chain.ActionData()))
		}},
		{"current_receiver", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.Receiver())
		}},
		{"get_action_asset_id", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.ActionAmount().AssetID)
		}},
		{"get_action_asset_amount", none, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.ActionAmount().Amount)
		}},
	}
}

func assetFunctions() []hostFunction {
	return []hostFunction{
		{"withdraw_asset", types(i64, i64, i64, i64), none, func(c *call, _ api.Module, stack []uint64) {
			c.check(c.chain.WithdrawAsset(account.UID(stack[0]), account.UID(stack[1]), protocol.AssetAID(stack[2]), int64(stack[3])))
		}},
		{"inline_transfer", types(i64, i64, i64, i64, i32, i32), none, func(c *call, mod api.Module, stack []uint64) {
			memo := string(c.read(mod, u32(stack[4]), u32(stack[5])))
			c.check(c.chain.InlineTransfer(account.UID(stack[0]), account.UID(stack[1]), protocol.AssetAID(stack[2]), int64(stack[3]), memo))
		}},
		{"get_balance", twoL, oneL, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = uint64(c.chain.Balance(account.UID(stack[0]), protocol.AssetAID(stack[1])))
		}},
		{"send_inline", twoI, none, func(c *call, mod api.Module, stack []uint64) {
			c.check(c.chain.SendInline(c.read(mod, u32(stack[0]), u32(stack[1]))))
		}},
	}
}

// iterator results are signed
func databaseFunctions() []hostFunction {
	step := func(move func(int) (int, uint64, error)) func(c *call, mod api.Module, stack []uint64) {
		return func(c *call, mod api.Module, stack []uint64) {
			next, primary, err := move(int(int32(u32(stack[0]))))
			c.check(err)
			if next >= 0 {
				c.writeUint64(mod, u32(stack[1]), primary)
			}
			stack[0] = i32Result(next)
		}
	}
	seek := func(find func(account.UID, uint64, uint64, uint64) int) func(c *call, mod api.Module, stack []uint64) {
		return func(c *call, _ api.Module, stack []uint64) {
			stack[0] = i32Result(find(account.UID(stack[0]), stack[1], stack[2], stack[3]))
		}
	}
	return []hostFunction{
		{"db_store_i64", types(i64, i64, i64, i64, i32, i32), oneI, func(c *call, mod api.Module, stack []uint64) {
			value := c.read(mod, u32(stack[4]), u32(stack[5]))
			iterator, err := c.chain.Store(stack[0], stack[1], account.UID(stack[2]), stack[3], value)
			c.check(err)
			stack[0] = i32Result(iterator)
		}},
		{"db_update_i64", types(i32, i64, i32, i32), none, func(c *call, mod api.Module, stack []uint64) {
			value := c.read(mod, u32(stack[2]), u32(stack[3]))
			c.check(c.chain.Update(int(int32(u32(stack[0]))), account.UID(stack[1]), value))
		}},
		{"db_remove_i64", oneI, none, func(c *call, _ api.Module, stack []uint64) {
			c.check(c.chain.Remove(int(int32(u32(stack[0])))))
		}},
		{"db_get_i64", threeI, oneI, func(c *call, mod api.Module, stack []uint64) {
			value, err := c.chain.Get(int(int32(u32(stack[0]))))
			c.check(err)
			n := u32(stack[2])
			if 0 == n {
				stack[0] = uint64(len(value))
				return
			}
			if uint32(len(value)) < n {
				n = uint32(len(value))
			}
			c.write(mod, u32(stack[1]), value[:n])
			stack[0] = uint64(n)
		}},
		{"db_next_i64", twoI, oneI, func(c *call, mod api.Module, stack []uint64) {
			step(c.chain.Next)(c, mod, stack)
		}},
		{"db_previous_i64", twoI, oneI, func(c *call, mod api.Module, stack []uint64) {
			step(c.chain.Previous)(c, mod, stack)
		}},
		{"db_find_i64", types(i64, i64, i64, i64), oneI, func(c *call, mod api.Module, stack []uint64) {
			seek(c.chain.Find)(c, mod, stack)
		}},
		{"db_lowerbound_i64", types(i64, i64, i64, i64), oneI, func(c *call, mod api.Module, stack []uint64) {
			seek(c.chain.LowerBound)(c, mod, stack)
		}},
		{"db_upperbound_i64", types(i64, i64, i64, i64), oneI, func(c *call, mod api.Module, stack []uint64) {
			seek(c.chain.UpperBound)(c, mod, stack)
		}},
		{"db_end_i64", types(i64, i64, i64), oneI, func(c *call, _ api.Module, stack []uint64) {
			stack[0] = i32Result(c.chain.End(account.UID(stack[0]), stack[1], stack[2]))
		}},
	}
}

// hostFunctions - every import a contract may use, by name
func hostFunctions() map[string]hostFunction {
	all := make(map[string]hostFunction)
	groups := [][]hostFunction{
		memoryFunctions(),
		consoleFunctions(),
		systemFunctions(),
		globalFunctions(),
		cryptoFunctions(),
		actionFunctions(),
		assetFunctions(),
		databaseFunctions(),
		builtinFunctions(),
		softFloatFunctions(),
	}
	for _, g := range groups {
		for _, f := range g {
			if _, ok := all[f.name]; ok {
				panic("wasm: duplicate host function: " + f.name)
			}
			all[f.name] = f
		}
	}
	return all
}
