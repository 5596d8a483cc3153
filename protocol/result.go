// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"reflect"

	"github.com/yoyow-org/yoyowd/account"
)

// OperationResult - what an evaluator returns on success
type OperationResult interface {
	isResult()
}

// VoidResult - nothing to report
type VoidResult struct{}

// ObjectIDResult - id of a created object
type ObjectIDResult struct {
	ID uint64 `json:"id"`
}

// AssetResult - an amount produced by the operation
type AssetResult struct {
	Asset
}

// AccountReceipt - ram charged or refunded to one account
type AccountReceipt struct {
	Account  account.UID `json:"account"`
	RAMBytes int64       `json:"ram_bytes"`
	RAMFee   Asset       `json:"ram_fee"`
}

// ContractReceipt - resources billed for a contract call
type ContractReceipt struct {
	BilledCPUTimeUs uint32           `json:"billed_cpu_time_us"`
	Fee             Asset            `json:"fee"`
	RAMReceipts     []AccountReceipt `json:"ram_receipts"`
}

// Refund - core returned to a buyer
type Refund struct {
	Account account.UID `json:"account"`
	Amount  int64       `json:"amount"`
}

// AdvertisingConfirmResult - the buyers whose orders were settled,
// ordered by account
type AdvertisingConfirmResult struct {
	Refunds []Refund `json:"refunds"`
}

func (*VoidResult) isResult()      {}
func (*ObjectIDResult) isResult()  {}
func (*AssetResult) isResult()     {}
func (*ContractReceipt) isResult() {}

func (*AdvertisingConfirmResult) isResult() {}

var resultType = reflect.TypeOf((*OperationResult)(nil)).Elem()

func init() {
	registerVariant((*OperationResult)(nil), 0, &VoidResult{})
	registerVariant((*OperationResult)(nil), 1, &ObjectIDResult{})
	registerVariant((*OperationResult)(nil), 2, &AssetResult{})
	registerVariant((*OperationResult)(nil), 3, &ContractReceipt{})
	registerVariant((*OperationResult)(nil), 4, &AdvertisingConfirmResult{})
}

// ResultList - one result per operation of a transaction
type ResultList []OperationResult

// MarshalJSON - list of [tag, body] pairs
func (results ResultList) MarshalJSON() ([]byte, error) {
	pairs := make([]json.RawMessage, len(results))
	for i, r := range results {
		b, err := marshalVariantJSON(resultType, r)
		if nil != err {
			return nil, err
		}
		pairs[i] = b
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON - list of [tag, body] pairs
func (results *ResultList) UnmarshalJSON(data []byte) error {
	pairs := []json.RawMessage{}
	if err := json.Unmarshal(data, &pairs); nil != err {
		return err
	}
	list := make(ResultList, len(pairs))
	for i, pair := range pairs {
		v, err := unmarshalVariantJSON(resultType, pair)
		if nil != err {
			return err
		}
		list[i] = v.(OperationResult)
	}
	*results = list
	return nil
}
