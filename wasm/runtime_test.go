// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm_test

import (
	"context"
	"crypto/sha256"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/wasm"
)

var (
	printsL = hostImport{"prints_l", []byte{i32, i32}, nil}
	printi  = hostImport{"printi", []byte{i64}, nil}
)

func newRuntime(t *testing.T, size int) *wasm.Runtime {
	r, err := wasm.New(context.Background(), size)
	require.NoError(t, err, "runtime")
	t.Cleanup(func() { r.Close(context.Background()) })
	return r
}

func apply(r *wasm.Runtime, ctx context.Context, code []byte, c *chain) error {
	return r.Apply(ctx, code, sha256.Sum256(code), c)
}

func helloContract() []byte {
	return contract{
		imports: []hostImport{printsL},
		code:    join(constI32(0), constI32(5), callImport(0)),
		data:    "hello",
	}.bytes()
}

func TestApplyConsole(t *testing.T) {
	r := newRuntime(t, 4)
	code := helloContract()

	require.NoError(t, r.Validate(code), "validate")

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"hello"}, c.console)

	// second run comes from the cache
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"hello", "hello"}, c.console)
}

func TestApplyReceiverAndMethod(t *testing.T) {
	r := newRuntime(t, 4)

	// print the first and third apply arguments
	code := contract{
		imports: []hostImport{printi},
		code: join(
			[]byte{0x20, 0x00}, callImport(0),
			[]byte{0x20, 0x02}, callImport(0),
		),
	}.bytes()

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"1234", "5678"}, c.console)
}

func TestApplyCacheEviction(t *testing.T) {
	r := newRuntime(t, 1)
	first := helloContract()
	second := contract{
		imports: []hostImport{printi},
		code:    join(constI64(42), callImport(0)),
	}.bytes()

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), first, c))
	require.NoError(t, apply(r, context.Background(), second, c))
	require.NoError(t, apply(r, context.Background(), first, c))
	assert.Equal(t, []string{"hello", "42", "hello"}, c.console)
}

func TestApplyAbort(t *testing.T) {
	r := newRuntime(t, 4)
	code := contract{
		imports: []hostImport{{"abort", nil, nil}},
		code:    callImport(0),
	}.bytes()

	err := apply(r, context.Background(), code, &chain{})
	assert.Equal(t, fault.ErrAbortCalled, errors.Cause(err))
}

func TestApplyAssertMessage(t *testing.T) {
	r := newRuntime(t, 4)
	code := contract{
		imports: []hostImport{{"graphene_assert_message", []byte{i32, i32, i32}, nil}},
		code:    join(constI32(0), constI32(0), constI32(4), callImport(0)),
		data:    "oops",
	}.bytes()

	err := apply(r, context.Background(), code, &chain{})
	require.Error(t, err)
	assert.Equal(t, fault.ErrAssertMessage, errors.Cause(err))
	assert.Contains(t, err.Error(), "oops")
}

func TestApplyExit(t *testing.T) {
	r := newRuntime(t, 4)

	// unreachable after the exit must not run
	code := contract{
		imports: []hostImport{{"graphene_exit", []byte{i32}, nil}},
		code:    join(constI32(0), callImport(0), []byte{0x00}),
	}.bytes()

	assert.NoError(t, apply(r, context.Background(), code, &chain{}))
}

func TestApplyTrap(t *testing.T) {
	r := newRuntime(t, 4)
	code := contract{code: []byte{0x00}}.bytes()

	err := apply(r, context.Background(), code, &chain{})
	assert.Equal(t, fault.ErrWasmExecution, errors.Cause(err))
}

func TestApplyOutOfBounds(t *testing.T) {
	r := newRuntime(t, 4)
	code := contract{
		imports: []hostImport{printsL},
		code:    join(constI32(65530), constI32(100), callImport(0)),
	}.bytes()

	err := apply(r, context.Background(), code, &chain{})
	assert.Equal(t, fault.ErrOutOfBounds, errors.Cause(err))
}

func TestApplyDeadline(t *testing.T) {
	r := newRuntime(t, 4)

	// loop br 0 end
	code := contract{code: []byte{0x03, 0x40, 0x0c, 0x00, 0x0b}}.bytes()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := apply(r, ctx, code, &chain{})
	assert.Equal(t, fault.ErrDeadlineReached, errors.Cause(err))
}

func TestApplySoftFloat(t *testing.T) {
	r := newRuntime(t, 4)

	// trunc(1.5 + 2.25)
	code := contract{
		imports: []hostImport{
			printi,
			{"_yy_f64_add", []byte{i64, i64}, []byte{i64}},
			{"_yy_f64_trunc_i64s", []byte{i64}, []byte{i64}},
		},
		code: join(
			constI64(int64(math.Float64bits(1.5))),
			constI64(int64(math.Float64bits(2.25))),
			callImport(1),
			callImport(2),
			callImport(0),
		),
	}.bytes()

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"3"}, c.console)
}

func TestApplyInt128Division(t *testing.T) {
	r := newRuntime(t, 4)

	// -7 / 2 stored at 0 then printed
	code := contract{
		imports: []hostImport{
			{"printi128", []byte{i32}, nil},
			{"__divti3", []byte{i32, i64, i64, i64, i64}, nil},
			{"__modti3", []byte{i32, i64, i64, i64, i64}, nil},
		},
		code: join(
			constI32(0), constI64(-7), constI64(-1), constI64(2), constI64(0), callImport(1),
			constI32(0), callImport(0),
			constI32(0), constI64(-7), constI64(-1), constI64(2), constI64(0), callImport(2),
			constI32(0), callImport(0),
		),
	}.bytes()

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"-3", "-1"}, c.console)
}

func TestApplyInt128DivideByZero(t *testing.T) {
	r := newRuntime(t, 4)
	code := contract{
		imports: []hostImport{{"__udivti3", []byte{i32, i64, i64, i64, i64}, nil}},
		code:    join(constI32(0), constI64(1), constI64(0), constI64(0), constI64(0), callImport(0)),
	}.bytes()

	err := apply(r, context.Background(), code, &chain{})
	assert.Equal(t, fault.ErrWasmExecution, errors.Cause(err))
}

func TestValidateRejects(t *testing.T) {
	r := newRuntime(t, 4)

	// a module importing memory
	importedMemory := assemble(
		section(1, vector(funcType([]byte{i64, i64, i64}, nil))),
		section(2, vector(join(name("env"), name("memory"), []byte{0x02, 0x00, 0x01}))),
		section(3, vector(uleb(0))),
		section(7, vector(join(name("apply"), []byte{0x00, 0x00}))),
		section(10, vector([]byte{0x02, 0x00, 0x0b})),
	)

	items := []struct {
		title string
		code  []byte
	}{
		{"bad magic", []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}},
		{"truncated", helloContract()[:20]},
		{"f64 const", contract{code: join([]byte{0x44}, make([]byte, 8), []byte{0x1a})}.bytes()},
		{"f32 add", contract{code: join([]byte{0x43}, make([]byte, 4), []byte{0x43}, make([]byte, 4), []byte{0x92, 0x1a})}.bytes()},
		{"float import", contract{imports: []hostImport{{"_yy_f64_add", []byte{f64, f64}, []byte{f64}}}}.bytes()},
		{"float apply", contract{apply: []byte{f64, i64, i64}}.bytes()},
		{"saturating truncation", contract{code: join(constI32(0), []byte{0xfc, 0x00, 0x1a})}.bytes()},
		{"vector", contract{code: []byte{0xfd, 0x0c}}.bytes()},
		{"unknown import", contract{imports: []hostImport{{"no_such_function", nil, nil}}}.bytes()},
		{"import mismatch", contract{imports: []hostImport{{"prints_l", []byte{i64}, nil}}}.bytes()},
		{"apply signature", contract{apply: []byte{i64, i64}}.bytes()},
		{"imported memory", importedMemory},
	}

	for _, item := range items {
		err := r.Validate(item.code)
		assert.Equal(t, fault.ErrWasmValidation, errors.Cause(err), item.title)
	}
}

func TestValidateAccepts(t *testing.T) {
	r := newRuntime(t, 4)

	// bulk memory and 128 bit helpers are allowed
	code := contract{
		imports: []hostImport{
			printsL,
			{"__multi3", []byte{i32, i64, i64, i64, i64}, nil},
		},
		code: join(
			constI32(16), constI32(0), constI32(5), []byte{0xfc, 0x0a, 0x00, 0x00},
			constI32(16), constI32(5), callImport(0),
		),
		data: "hello",
	}.bytes()

	assert.NoError(t, r.Validate(code))

	c := &chain{}
	require.NoError(t, apply(r, context.Background(), code, c))
	assert.Equal(t, []string{"hello"}, c.console)
}
