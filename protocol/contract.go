// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
)

// VMType - the only supported virtual machine
const VMType = "wasm"

// ContractDeploy - install code and abi on an existing account
type ContractDeploy struct {
	FeeBundle  FeeBundle       `json:"fee"`
	ContractID account.UID     `json:"contract_id"`
	VMType     string          `json:"vm_type"`
	VMVersion  string          `json:"vm_version"`
	Code       []byte          `json:"code"`
	ABI        ABI             `json:"abi"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ContractDeploy) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the contract account
func (op *ContractDeploy) FeePayer() account.UID { return op.ContractID }

// Validate - stateless checks, the code itself is checked on apply
func (op *ContractDeploy) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.ContractID, "contract"); nil != err {
		return err
	}
	if 0 == len(op.Code) {
		return errors.Wrap(fault.ErrInvalidParameter, "contract code cannot be empty")
	}
	if "" != op.VMType && VMType != op.VMType {
		return errors.Wrapf(fault.ErrInvalidParameter, "vm type: %q", op.VMType)
	}
	return op.ABI.Validate()
}

// Required - contract account active
func (op *ContractDeploy) Required(r *authority.Required) {
	r.Add(op.ContractID, authority.Active)
}

// CalculateFee - base plus the size of code and abi
func (op *ContractDeploy) CalculateFee(p FeeParameters) (uint64, error) {
	size := len(op.VMType) + len(op.VMVersion) + len(op.Code) + PackedSize(&op.ABI)
	return p.Fee + CalculateDataFee(size, p.PricePerKbyte), nil
}

// ContractUpdate - replace the code and abi of a contract
type ContractUpdate struct {
	FeeBundle  FeeBundle       `json:"fee"`
	ContractID account.UID     `json:"contract_id"`
	Code       []byte          `json:"code"`
	ABI        ABI             `json:"abi"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ContractUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the contract account
func (op *ContractUpdate) FeePayer() account.UID { return op.ContractID }

// Validate - stateless checks
func (op *ContractUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.ContractID, "contract"); nil != err {
		return err
	}
	if 0 == len(op.Code) {
		return errors.Wrap(fault.ErrInvalidParameter, "contract code cannot be empty")
	}
	return op.ABI.Validate()
}

// Required - contract account active
func (op *ContractUpdate) Required(r *authority.Required) {
	r.Add(op.ContractID, authority.Active)
}

// CalculateFee - base plus the size of code and abi
func (op *ContractUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	size := len(op.Code) + PackedSize(&op.ABI)
	return p.Fee + CalculateDataFee(size, p.PricePerKbyte), nil
}

// ContractCall - run a contract method, optionally paying it
type ContractCall struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	ContractID account.UID     `json:"contract_id"`
	Amount     *Asset          `json:"amount,omitempty"`
	MethodName Name            `json:"method_name"`
	Data       []byte          `json:"data"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ContractCall) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - caller
func (op *ContractCall) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *ContractCall) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("contract call", op.Account, op.ContractID); nil != err {
		return err
	}
	if nil != op.Amount {
		return validatePositiveAmount(op.Amount.Amount, "amount")
	}
	return nil
}

// Required - caller active
func (op *ContractCall) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - base only, cpu and ram are billed after execution
func (op *ContractCall) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// InterContractCall - record of a call made by a contract, produced by
// the chain only
type InterContractCall struct {
	FeeBundle      FeeBundle       `json:"fee"`
	SenderContract account.UID     `json:"sender_contract"`
	ContractID     account.UID     `json:"contract_id"`
	Amount         *Asset          `json:"amount,omitempty"`
	MethodName     Name            `json:"method_name"`
	Data           []byte          `json:"data"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *InterContractCall) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - calling contract
func (op *InterContractCall) FeePayer() account.UID { return op.SenderContract }

// Validate - never valid inside a transaction
func (op *InterContractCall) Validate() error {
	return errors.Wrap(fault.ErrInvalidOperation, "virtual operation")
}

// Required - nothing
func (op *InterContractCall) Required(r *authority.Required) {}

// CalculateFee - free
func (op *InterContractCall) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// ContractAsset - amount in the layout contracts use
type ContractAsset struct {
	Amount  int64  `json:"amount"`
	AssetID uint64 `json:"asset_id"`
}

// InlineAction - a call queued by a running contract, packed by the
// contract and passed to send_inline
type InlineAction struct {
	Sender     account.UID   `json:"sender"`
	ContractID account.UID   `json:"contract_id"`
	Amount     ContractAsset `json:"amount"`
	MethodName Name          `json:"method_name"`
	Data       []byte        `json:"data"`
}
