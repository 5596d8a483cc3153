// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdump_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/blockdump"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

func makeBlock() *protocol.SignedBlock {
	tx := protocol.ProcessedTransaction{}
	tx.Expiration = protocol.Timestamp(1600000060)
	tx.Operations = protocol.OperationList{
		&protocol.Transfer{
			FeeBundle: protocol.NewFee(1),
			From:      account.CalculateUID(25638),
			To:        account.CalculateUID(25639),
			Amount:    protocol.CoreAsset(10),
		},
	}

	b := &protocol.SignedBlock{}
	b.Timestamp = protocol.Timestamp(1600000003)
	b.Witness = account.CalculateUID(25638)
	b.Transactions = []protocol.ProcessedTransaction{tx}
	b.TransactionMerkleRoot = b.CalculateMerkleRoot()
	return b
}

func TestDecodeTransactions(t *testing.T) {
	b := makeBlock()
	result, err := blockdump.BlockDecode(b, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), result.Number)
	assert.Equal(t, b.ID(), result.ID)
	assert.Nil(t, result.Packed)
	require.Len(t, result.Transactions, 1)

	s, err := json.Marshal(result)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(s, &decoded))
	txs := decoded["transactions"].([]interface{})
	require.Len(t, txs, 1)
	ops := txs[0].(map[string]interface{})["operations"].([]interface{})
	require.Len(t, ops, 1)
	assert.Equal(t, protocol.OperationName(b.Transactions[0].Operations[0]), ops[0].(map[string]interface{})["type"])
	assert.Equal(t, b.Transactions[0].ID().String(), txs[0].(map[string]interface{})["txId"])
}

func TestDecodePacked(t *testing.T) {
	b := makeBlock()
	result, err := blockdump.BlockDecode(b, false)
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)

	expected, err := protocol.Pack(b)
	require.NoError(t, err)
	assert.Equal(t, []byte(expected), result.Packed)
}

func TestDumpGenesisNumber(t *testing.T) {
	_, err := blockdump.BlockDump(0, true)
	assert.Equal(t, fault.ErrBlockNotFound, err)
}
