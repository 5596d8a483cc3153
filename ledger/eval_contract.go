// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"crypto/sha256"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/util"
)

func (db *Database) validateCode(code []byte) error {
	if nil == db.contracts {
		return errors.Wrap(fault.ErrOperationNotEnabled, "contracts are disabled")
	}
	return db.contracts.Validate(code)
}

type contractDeployEvaluator struct {
	*opContext
	op      *protocol.ContractDeploy
	account *Account
}

func (e *contractDeployEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAccount(op.ContractID)
	if nil != err {
		return err
	}
	if a.IsContract() {
		return errors.Wrapf(fault.ErrInvalidOperation, "account: %s already has code, update it instead", op.ContractID)
	}
	if err := db.validateCode(op.Code); nil != err {
		return err
	}
	e.account = a
	return nil
}

func (e *contractDeployEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	vmType := op.VMType
	if "" == vmType {
		vmType = protocol.VMType
	}
	abi := op.ABI
	db.accounts.Modify(e.account, func(a *Account) {
		a.VMType = vmType
		a.VMVersion = op.VMVersion
		a.Code = append([]byte(nil), op.Code...)
		a.CodeVersion = sha256.Sum256(op.Code)
		a.ABI = &abi
		a.LastUpdateTime = db.headBlockTime()
	})
	db.log.Infof("contract deployed on: %s code: %d bytes", op.ContractID, len(op.Code))
	return objectResult(e.account.ObjectID())
}

type contractUpdateEvaluator struct {
	*opContext
	op      *protocol.ContractUpdate
	account *Account
	hash    [32]byte
}

func (e *contractUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAccount(op.ContractID)
	if nil != err {
		return err
	}
	if !a.IsContract() {
		return errors.Wrapf(fault.ErrContractNotFound, "account: %s has no code", op.ContractID)
	}
	e.hash = sha256.Sum256(op.Code)
	if e.hash == a.CodeVersion {
		return errors.Wrapf(fault.ErrSameCode, "contract: %s", op.ContractID)
	}
	if err := db.validateCode(op.Code); nil != err {
		return err
	}
	e.account = a
	return nil
}

func (e *contractUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	abi := op.ABI
	db.accounts.Modify(e.account, func(a *Account) {
		a.Code = append([]byte(nil), op.Code...)
		a.CodeVersion = e.hash
		a.ABI = &abi
		a.LastUpdateTime = db.headBlockTime()
	})
	return voidResult()
}

type contractCallEvaluator struct {
	*opContext
	op         *protocol.ContractCall
	ramAccount account.UID
}

func (e *contractCallEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if nil == db.contracts {
		return errors.Wrap(fault.ErrOperationNotEnabled, "contracts are disabled")
	}
	contract, err := db.getAccount(op.ContractID)
	if nil != err {
		return err
	}
	if !contract.IsContract() || nil == contract.ABI {
		return errors.Wrapf(fault.ErrContractNotFound, "account: %s has no code", op.ContractID)
	}
	action, ok := contract.ABI.Action(op.MethodName)
	if !ok {
		return errors.Wrapf(fault.ErrMethodNotFound, "contract: %s method: %s", op.ContractID, op.MethodName)
	}
	if nil != op.Amount {
		if !action.Payable {
			return errors.Wrapf(fault.ErrNotPayable, "contract: %s method: %s", op.ContractID, op.MethodName)
		}
		need := op.Amount.Amount
		balance := db.balanceOf(op.Account, op.Amount.AssetID)
		if op.Amount.IsCore() {
			need += e.fromBalance
			balance = db.availableCoreBalance(db.stats(op.Account))
		}
		if balance < need {
			return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s balance: %d, needs: %d", op.Account, balance, need)
		}
	}
	ram := db.accountByName.Find(constants.RAMAccountName)
	if nil == ram {
		return errors.Wrapf(fault.ErrAccountNotFound, "account: %s", constants.RAMAccountName)
	}
	e.ramAccount = ram.UID
	return nil
}

// cpuLimit - replayed calls may use up to the producer limit since
// their cost is already recorded
func (e *contractCallEvaluator) cpuLimit() time.Duration {
	if e.trx.billedCPUTimeUs > 0 {
		return constants.MaxProducerCPUTime
	}
	limit := time.Duration(e.db.maxTrxCPUTimeUs) * time.Microsecond
	if e.trx.cpuLimitUs > 0 {
		if l := time.Duration(e.trx.cpuLimitUs) * time.Microsecond; l < limit {
			limit = l
		}
	}
	return limit
}

func (e *contractCallEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	ctx, cancel := context.WithTimeout(context.Background(), e.cpuLimit())
	defer cancel()

	t := &contractTrx{
		trx:    e.trx,
		ctx:    ctx,
		origin: op.Account,
		start:  time.Now(),
	}
	act := contractAction{
		sender:   op.Account,
		contract: op.ContractID,
		method:   op.MethodName,
		data:     op.Data,
	}
	if nil != op.Amount {
		act.amount = *op.Amount
	}

	// ram accounting is per call
	e.trx.ram = nil
	if err := newApplyContext(db, t, act, 0).exec(); nil != err {
		return nil, err
	}

	cpu := e.trx.billedCPUTimeUs
	if 0 == cpu {
		cpu = uint32(time.Since(t.start) / time.Microsecond)
		if 0 == cpu {
			cpu = 1
		}
	}

	params := db.fees().Parameters(protocol.ContractCallTag)
	cpuFee, ok := util.MulDiv((uint64(cpu)+999)/1000, params.PricePerMsCPU, 1)
	if !ok || cpuFee > uint64(constants.MaxShareSupply) {
		return nil, errors.Wrapf(fault.ErrInvalidAmount, "cpu fee for: %dus", cpu)
	}
	if cpuFee > 0 {
		if err := db.adjustCoreBalance(op.Account, -int64(cpuFee)); nil != err {
			return nil, errors.Wrapf(err, "cpu fee: %d", cpuFee)
		}
		db.adjustSupply(protocol.AssetAID(constants.CoreAssetAID), -int64(cpuFee))
	}

	receipt := &protocol.ContractReceipt{
		BilledCPUTimeUs: cpu,
		Fee:             protocol.CoreAsset(e.totalFee + int64(cpuFee)),
	}
	payers := make([]account.UID, 0, len(e.trx.ram))
	for uid := range e.trx.ram {
		payers = append(payers, uid)
	}
	sort.Slice(payers, func(i, j int) bool { return payers[i] < payers[j] })
	for _, uid := range payers {
		r, err := e.chargeRAM(uid, e.trx.ram[uid], params.PricePerKbyteRAM)
		if nil != err {
			return nil, err
		}
		receipt.RAMReceipts = append(receipt.RAMReceipts, r)
	}
	e.trx.ram = nil
	return receipt, nil
}

// chargeRAM - a payer buys ram from the ram account, freed ram is
// refunded while the ram account can pay
func (e *contractCallEvaluator) chargeRAM(uid account.UID, bytes int64, pricePerKbyte uint64) (protocol.AccountReceipt, error) {
	db := e.db
	r := protocol.AccountReceipt{
		Account:  uid,
		RAMBytes: bytes,
		RAMFee:   protocol.CoreAsset(0),
	}
	if 0 == bytes {
		return r, nil
	}

	magnitude := bytes
	if magnitude < 0 {
		magnitude = -magnitude
	}
	fee, ok := util.MulDivCeil(uint64(magnitude), pricePerKbyte, 1024)
	if !ok || fee > uint64(constants.MaxShareSupply) {
		return r, errors.Wrapf(fault.ErrInvalidAmount, "ram fee for: %d bytes", bytes)
	}
	amount := int64(fee)
	if bytes < 0 {
		if available := db.balanceOf(e.ramAccount, protocol.AssetAID(constants.CoreAssetAID)); available < amount {
			amount = available
		}
		amount = -amount
	}
	r.RAMFee = protocol.CoreAsset(amount)

	if err := db.adjustCoreBalance(uid, -amount); nil != err {
		return r, errors.Wrapf(err, "ram fee: %d", amount)
	}
	if err := db.adjustCoreBalance(e.ramAccount, amount); nil != err {
		return r, err
	}
	if s := db.stats(uid); nil != s {
		db.statistics.Modify(s, func(s *AccountStatistics) {
			s.RAMBytes += bytes
		})
	}
	return r, nil
}

// interContractCallEvaluator - an action queued by a running contract
type interContractCallEvaluator struct {
	*opContext
	op *protocol.InterContractCall
}

func (e *interContractCallEvaluator) evaluate() error {
	op := e.op
	if nil == e.trx.contract {
		return errors.Wrapf(fault.ErrInvalidOperation, "call of: %s not queued by a contract", op.ContractID)
	}

	limit := int(e.db.params().Extension.MaxInterContractDepth)
	if 0 == limit || limit > constants.MaxInlineActionDepth {
		limit = constants.MaxInlineActionDepth
	}
	if e.trx.inlineDepth > limit {
		return errors.Wrapf(fault.ErrInlineDepthExceeded, "depth: %d", e.trx.inlineDepth)
	}
	target, err := e.db.getAccount(op.ContractID)
	if nil != err {
		return err
	}
	if !target.IsContract() {
		return errors.Wrapf(fault.ErrContractNotFound, "account: %s has no code", op.ContractID)
	}
	return nil
}

func (e *interContractCallEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	t := e.trx.contract

	t.inlineOp += 1
	e.db.pushVirtualOperation(op, &protocol.VoidResult{})

	act := contractAction{
		sender:   op.SenderContract,
		contract: op.ContractID,
		method:   op.MethodName,
		data:     op.Data,
	}
	if nil != op.Amount {
		act.amount = *op.Amount
	}
	if err := newApplyContext(e.db, t, act, e.trx.inlineDepth).exec(); nil != err {
		return nil, err
	}
	return voidResult()
}
