// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdump

import (
	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

type operationItem struct {
	Index int                `json:"index"`
	Type  string             `json:"type"`
	Data  protocol.Operation `json:"data"`
}

type transactionItem struct {
	Index      int                    `json:"index"`
	TxId       protocol.TransactionID `json:"txId"`
	Expiration protocol.Timestamp     `json:"expiration"`
	Operations []operationItem        `json:"operations"`
	Results    protocol.ResultList    `json:"operation_results"`
	Signatures int                    `json:"signatures"`
}

// BlockResult - one decoded block
type BlockResult struct {
	Number       uint32                      `json:"number"`
	ID           protocol.BlockID            `json:"id"`
	Header       *protocol.SignedBlockHeader `json:"header"`
	Transactions []transactionItem           `json:"transactions,omitempty"`
	Packed       []byte                      `json:"binary,omitempty"`
}

// BlockDump - dump of a particular block
func BlockDump(number uint32, decodeTxs bool) (*BlockResult, error) {
	if 0 == number {
		return nil, fault.ErrBlockNotFound
	}
	b, err := block.Get(number)
	if nil != err {
		return nil, err
	}
	return BlockDecode(b, decodeTxs)
}

// BlockDecode - split a block into its header and transactions
func BlockDecode(b *protocol.SignedBlock, decodeTxs bool) (*BlockResult, error) {
	header := b.SignedBlockHeader
	result := &BlockResult{
		Number: b.BlockNum(),
		ID:     b.ID(),
		Header: &header,
	}

	if !decodeTxs {
		packed, err := protocol.Pack(b)
		if nil != err {
			return nil, err
		}
		result.Packed = packed
		return result, nil
	}

	result.Transactions = make([]transactionItem, len(b.Transactions))
	for i, tx := range b.Transactions {
		ops := make([]operationItem, len(tx.Operations))
		for j, op := range tx.Operations {
			ops[j] = operationItem{
				Index: j,
				Type:  protocol.OperationName(op),
				Data:  op,
			}
		}
		result.Transactions[i] = transactionItem{
			Index:      i,
			TxId:       tx.ID(),
			Expiration: tx.Expiration,
			Operations: ops,
			Results:    tx.OperationResults,
			Signatures: len(tx.Signatures),
		}
	}
	return result, nil
}
