// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/wasm"
)

const (
	ramPrice   = uint64(2000)
	tableScope = 1
	tableName  = 2
	rowKey     = 1
	rowLength  = 64
)

var (
	storeMethod  = protocol.MustName("store")
	removeMethod = protocol.MustName("remove")
	relayMethod  = protocol.MustName("relay")
)

// ram fees are rounded up
func ramFee(bytes int64) int64 {
	return (bytes*int64(ramPrice) + 1023) / 1024
}

func leb(v uint64) []byte {
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

func signedLeb(v int64) []byte {
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

func wasmVector(items ...[]byte) []byte {
	out := leb(uint64(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func wasmBytes(b []byte) []byte {
	return append(leb(uint64(len(b))), b...)
}

func wasmSection(id byte, content []byte) []byte {
	return append(append([]byte{id}, leb(uint64(len(content)))...), content...)
}

func concat(parts ...[]byte) []byte {
	out := []byte{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// run body when the method argument of apply is m
func onMethod(m protocol.Name, body ...[]byte) []byte {
	return concat(
		[]byte{0x20, 0x02, 0x42}, signedLeb(int64(m)), []byte{0x51, 0x04, 0x40},
		concat(body...),
		[]byte{0x0b},
	)
}

// tableContract - store, remove or relay a store of one row, memory
// holds the row value followed by the packed inline action
func tableContract(inline []byte) []byte {
	const (
		i32 = 0x7f
		i64 = 0x7e
	)
	funcType := func(params []byte, results []byte) []byte {
		return concat([]byte{0x60}, wasmBytes(params), wasmBytes(results))
	}
	hostImport := func(name string, index int) []byte {
		return concat(wasmBytes([]byte("env")), wasmBytes([]byte(name)), []byte{0x00}, leb(uint64(index)))
	}
	i64Const := func(v int64) []byte { return append([]byte{0x42}, signedLeb(v)...) }
	i32Const := func(v int32) []byte { return append([]byte{0x41}, signedLeb(int64(v))...) }
	call := func(f int) []byte { return append([]byte{0x10}, leb(uint64(f))...) }

	code := concat(
		onMethod(storeMethod,
			i64Const(tableScope), i64Const(tableName), i64Const(0), i64Const(rowKey),
			i32Const(0), i32Const(rowLength), call(0), []byte{0x1a},
		),
		onMethod(removeMethod,
			[]byte{0x20, 0x00}, i64Const(tableScope), i64Const(tableName), i64Const(rowKey),
			call(1), call(2),
		),
		onMethod(relayMethod,
			i32Const(rowLength), i32Const(int32(len(inline))), call(3),
		),
	)
	body := concat([]byte{0x00}, code, []byte{0x0b})

	data := concat(make([]byte, rowLength), inline)
	for i := 0; i < rowLength; i += 1 {
		data[i] = byte(i)
	}

	header := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	return concat(
		header,
		wasmSection(1, wasmVector(
			funcType([]byte{i64, i64, i64, i64, i32, i32}, []byte{i32}),
			funcType([]byte{i64, i64, i64, i64}, []byte{i32}),
			funcType([]byte{i32}, nil),
			funcType([]byte{i32, i32}, nil),
			funcType([]byte{i64, i64, i64}, nil),
		)),
		wasmSection(2, wasmVector(
			hostImport("db_store_i64", 0),
			hostImport("db_find_i64", 1),
			hostImport("db_remove_i64", 2),
			hostImport("send_inline", 3),
		)),
		wasmSection(3, wasmVector(leb(4))),
		wasmSection(5, wasmVector([]byte{0x00, 0x01})),
		wasmSection(7, wasmVector(
			concat(wasmBytes([]byte("apply")), []byte{0x00}, leb(4)),
			concat(wasmBytes([]byte("memory")), []byte{0x02, 0x00}),
		)),
		wasmSection(10, wasmVector(wasmBytes(body))),
		wasmSection(11, wasmVector(concat([]byte{0x00, 0x41, 0x00, 0x0b}, wasmBytes(data)))),
	)
}

// a ledger running contracts where only ram and inline calls are
// priced
func newContractLedger(t *testing.T) (*ledger.Database, *keypair.PrivateKey) {
	key := witnessKey(t)

	runtime, err := wasm.New(context.Background(), 4)
	require.NoError(t, err, "runtime")
	t.Cleanup(func() { runtime.Close(context.Background()) })

	scale := uint32(constants.HundredPercent)
	fees := protocol.DefaultFeeSchedule().Zero().Update([]protocol.FeeEntry{
		{Tag: protocol.VarUint(protocol.ContractCallTag), Parameters: protocol.FeeParameters{PricePerKbyteRAM: ramPrice}},
		{Tag: protocol.VarUint(protocol.InterContractCallTag), Parameters: protocol.FeeParameters{Fee: uint64(constants.CorePrecision)}},
	}, &scale)

	g := genesis.Local(key.PublicKey(), testTimestamp, testWitnesses, testBalance)
	g.InitialParameters.CurrentFees = fees

	db, err := ledger.New(ledger.Options{Contracts: runtime})
	require.NoError(t, err, "ledger")
	require.NoError(t, db.InitGenesis(g), "genesis")
	generate(t, db, key)
	return db, key
}

func deployTableContract(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, uid account.UID) {
	inline := protocol.MustPack(&protocol.InlineAction{
		Sender:     uid,
		ContractID: uid,
		MethodName: storeMethod,
	})
	_, err := push(t, db, key, &protocol.ContractDeploy{
		ContractID: uid,
		Code:       tableContract(inline),
		ABI: protocol.ABI{
			Version: protocol.ABIVersion,
			Structs: []protocol.StructDef{{Name: "empty"}},
			Actions: []protocol.ActionDef{
				{Name: storeMethod, Type: "empty"},
				{Name: removeMethod, Type: "empty"},
				{Name: relayMethod, Type: "empty"},
			},
		},
	})
	require.NoError(t, err, "deploy")
	generate(t, db, key)
}

func callContract(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, caller account.UID, contract account.UID, method protocol.Name) (*protocol.ContractReceipt, error) {
	ptx, err := push(t, db, key, &protocol.ContractCall{
		Account:    caller,
		ContractID: contract,
		MethodName: method,
	})
	if nil != err {
		return nil, err
	}
	generate(t, db, key)
	require.Len(t, ptx.OperationResults, 1, "results")
	receipt, ok := ptx.OperationResults[0].(*protocol.ContractReceipt)
	require.True(t, ok, "contract receipt")
	return receipt, nil
}

func TestContractRAM(t *testing.T) {
	db, key := newContractLedger(t)
	caller := genesis.LocalUID(0)
	contract := genesis.LocalUID(1)
	ramAccount := genesis.LocalUID(testWitnesses)

	deployTableContract(t, db, key, contract)

	rowBytes := int64(rowLength + constants.KeyValueBillableSize)
	tableBytes := int64(constants.TableIDBillableSize)

	receipt, err := callContract(t, db, key, caller, contract, storeMethod)
	require.NoError(t, err, "store")

	stored := db.ContractRow(contract, tableScope, tableName, rowKey)
	require.Len(t, stored, rowLength, "row")
	assert.Equal(t, byte(rowLength-1), stored[rowLength-1], "row value")

	charged := ramFee(tableBytes + rowBytes)
	require.Len(t, receipt.RAMReceipts, 1, "one payer")
	assert.Equal(t, contract, receipt.RAMReceipts[0].Account, "receiver pays")
	assert.Equal(t, tableBytes+rowBytes, receipt.RAMReceipts[0].RAMBytes, "bytes")
	assert.Equal(t, charged, receipt.RAMReceipts[0].RAMFee.Amount, "fee")
	assert.Equal(t, tableBytes+rowBytes, db.Statistics(contract).RAMBytes, "ram after store")
	assert.Equal(t, charged, db.Balance(ramAccount, coreAsset), "ram account credit")
	assert.Equal(t, testBalance-charged, db.Balance(contract, coreAsset), "contract debit")

	_, err = callContract(t, db, key, caller, contract, storeMethod)
	assert.Equal(t, fault.ErrRowExists, errors.Cause(err), "same primary key")

	receipt, err = callContract(t, db, key, caller, contract, removeMethod)
	require.NoError(t, err, "remove")

	refund := ramFee(rowBytes)
	require.Len(t, receipt.RAMReceipts, 1, "one payer")
	assert.Equal(t, -rowBytes, receipt.RAMReceipts[0].RAMBytes, "freed")
	assert.Equal(t, -refund, receipt.RAMReceipts[0].RAMFee.Amount, "refund")
	assert.Nil(t, db.ContractRow(contract, tableScope, tableName, rowKey), "removed")
	assert.Equal(t, tableBytes, db.Statistics(contract).RAMBytes, "table stays")
	assert.Equal(t, charged-refund, db.Balance(ramAccount, coreAsset), "ram account after refund")
	assert.Equal(t, testBalance-charged+refund, db.Balance(contract, coreAsset), "contract after refund")

	assert.NoError(t, db.CheckInvariants())
}

func TestContractInlineCall(t *testing.T) {
	db, key := newContractLedger(t)
	caller := genesis.LocalUID(0)
	contract := genesis.LocalUID(1)

	deployTableContract(t, db, key, contract)

	// the queued call carries no fee although the schedule prices it
	receipt, err := callContract(t, db, key, caller, contract, relayMethod)
	require.NoError(t, err, "relay")

	require.Len(t, db.ContractRow(contract, tableScope, tableName, rowKey), rowLength, "stored by the inline call")
	rowBytes := int64(rowLength + constants.KeyValueBillableSize)
	tableBytes := int64(constants.TableIDBillableSize)
	require.Len(t, receipt.RAMReceipts, 1, "one payer")
	assert.Equal(t, tableBytes+rowBytes, receipt.RAMReceipts[0].RAMBytes, "billed to the outer call")
	assert.Equal(t, testBalance-ramFee(tableBytes+rowBytes), db.Balance(contract, coreAsset), "only ram charged")

	// not allowed from a transaction
	_, err = push(t, db, key, &protocol.InterContractCall{
		SenderContract: contract,
		ContractID:     contract,
		MethodName:     storeMethod,
	})
	assert.Equal(t, fault.ErrInvalidOperation, errors.Cause(err), "queued by a transaction")

	assert.NoError(t, db.CheckInvariants())
}
