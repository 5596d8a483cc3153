// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

const (
	dir      = "testing"
	category = "testing"
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(dir)
}

func TestMain(m *testing.M) {
	setupTestLogger()
	rc := m.Run()
	teardownTestLogger()
	os.Exit(rc)
}

// value types
const (
	i32 = 0x7f
	i64 = 0x7e
	f64 = 0x7c
)

func uleb(v int) []byte {
	out := []byte{}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if 0 == v {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	out := []byte{}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (0 == v && 0 == b&0x40) || (-1 == v && 0 != b&0x40) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vector(items ...[]byte) []byte {
	out := uleb(len(items))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	out := append([]byte{id}, uleb(len(content))...)
	return append(out, content...)
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

func funcType(params []byte, results []byte) []byte {
	out := append([]byte{0x60}, uleb(len(params))...)
	out = append(out, params...)
	out = append(out, uleb(len(results))...)
	return append(out, results...)
}

func assemble(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// i64.const
func constI64(v int64) []byte {
	return append([]byte{0x42}, sleb(v)...)
}

// i32.const
func constI32(v int32) []byte {
	return append([]byte{0x41}, sleb(int64(v))...)
}

func join(parts ...[]byte) []byte {
	out := []byte{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type hostImport struct {
	name    string
	params  []byte
	results []byte
}

// contract - a single apply function calling imports 0..n-1, with one
// page of memory holding data at address 0
type contract struct {
	imports []hostImport
	apply   []byte
	code    []byte
	data    string
}

func (c contract) bytes() []byte {
	apply := c.apply
	if nil == apply {
		apply = []byte{i64, i64, i64}
	}
	n := len(c.imports)

	typeList := [][]byte{}
	importList := [][]byte{}
	for i, imp := range c.imports {
		typeList = append(typeList, funcType(imp.params, imp.results))
		importList = append(importList, join(name("env"), name(imp.name), []byte{0x00}, uleb(i)))
	}
	typeList = append(typeList, funcType(apply, nil))

	body := join([]byte{0x00}, c.code, []byte{0x0b})

	sections := [][]byte{
		section(1, vector(typeList...)),
		section(2, vector(importList...)),
		section(3, vector(uleb(n))),
		section(5, vector([]byte{0x00, 0x01})),
		section(7, vector(
			join(name("apply"), []byte{0x00}, uleb(n)),
			join(name("memory"), []byte{0x02, 0x00}),
		)),
		section(10, vector(join(uleb(len(body)), body))),
	}
	if "" != c.data {
		sections = append(sections, section(11, vector(join([]byte{0x00, 0x41, 0x00, 0x0b}, name(c.data)))))
	}
	return assemble(sections...)
}

// call import i
func callImport(i int) []byte {
	return append([]byte{0x10}, uleb(i)...)
}

// chain - just enough of the ledger for the tests, anything else panics
type chain struct {
	ledger.ContractContext
	data    []byte
	console []string
}

func (c *chain) Receiver() account.UID { return account.UID(1234) }
func (c *chain) Method() protocol.Name { return protocol.Name(5678) }
func (c *chain) ActionData() []byte    { return c.data }
func (c *chain) Console(s string)      { c.console = append(c.console, s) }
