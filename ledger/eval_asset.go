// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

// a set bit in issuer permissions locks the matching flag or action
// once the asset has been issued

type assetCreateEvaluator struct {
	*opContext
	op *protocol.AssetCreate
}

func (e *assetCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if nil != db.assetBySymbol.Find(op.Symbol) {
		return errors.Wrapf(fault.ErrAssetExists, "symbol: %s", op.Symbol)
	}
	// a dotted symbol belongs to the issuer of its prefix
	if dot := strings.LastIndexByte(op.Symbol, '.'); dot >= 0 {
		prefix := op.Symbol[:dot]
		parent := db.assetBySymbol.Find(prefix)
		if nil == parent {
			return errors.Wrapf(fault.ErrAssetNotFound, "symbol: %s needs: %s registered first", op.Symbol, prefix)
		}
		if parent.Issuer != op.Issuer {
			return errors.Wrapf(fault.ErrWrongIssuer, "symbol: %s may only be created by the issuer of: %s", op.Symbol, prefix)
		}
	}
	if supply := op.InitialSupply(); supply > 0 {
		a, err := db.getAccount(op.Issuer)
		if nil != err {
			return err
		}
		if nil != a.AllowedAssets {
			return errors.Wrapf(fault.ErrAllowedAssetsRejected, "issuer: %s restricts the assets it holds", op.Issuer)
		}
	}
	return nil
}

func (e *assetCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	aid := protocol.AssetAID(db.assets.NextID().Instance())
	supply := op.InitialSupply()
	if _, err := db.assetData.Create(func(d *AssetDynamicData) {
		d.AssetID = aid
		d.CurrentSupply = supply
	}); nil != err {
		return nil, err
	}
	a, err := db.assets.Create(func(a *Asset) {
		a.AssetID = aid
		a.Symbol = op.Symbol
		a.Precision = op.Precision
		a.Issuer = op.Issuer
		a.Options = op.CommonOptions
	})
	if nil != err {
		return nil, err
	}
	if supply > 0 {
		if err := db.adjustBalance(op.Issuer, a.Amount(supply)); nil != err {
			return nil, err
		}
	}
	db.log.Infof("asset: %s aid: %d created by: %s", op.Symbol, aid, op.Issuer)
	return objectResult(a.ObjectID())
}

type assetUpdateEvaluator struct {
	*opContext
	op    *protocol.AssetUpdate
	asset *Asset
}

func (e *assetUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAsset(op.AssetToUpdate)
	if nil != err {
		return err
	}
	if a.Issuer != op.Issuer {
		return errors.Wrapf(fault.ErrWrongIssuer, "asset: %s account: %s", a.Symbol, op.Issuer)
	}
	old := a.Options
	supply := db.assetDynamic(a.AssetID).CurrentSupply

	if 0 != supply {
		if 0 != old.IssuerPermissions&^op.NewOptions.IssuerPermissions {
			return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s cannot reinstate revoked issuer permissions", a.Symbol)
		}
		if nil != op.NewPrecision && *op.NewPrecision != a.Precision {
			return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s precision is fixed once issued", a.Symbol)
		}
	}
	if 0 != (op.NewOptions.Flags^old.Flags)&old.IssuerPermissions {
		return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s flag change is locked", a.Symbol)
	}
	if op.NewOptions.MaxSupply != old.MaxSupply {
		if old.IssuerPermissions.Has(protocol.ChangeMaxSupply) {
			return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s max supply is locked", a.Symbol)
		}
		if op.NewOptions.MaxSupply < supply {
			return errors.Wrapf(fault.ErrInvalidAmount, "asset: %s max supply: %d below current supply: %d", a.Symbol, op.NewOptions.MaxSupply, supply)
		}
	}
	e.asset = a
	return nil
}

func (e *assetUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	e.db.assets.Modify(e.asset, func(a *Asset) {
		if nil != op.NewPrecision {
			a.Precision = *op.NewPrecision
		}
		a.Options = op.NewOptions
		a.DeepCopy()
	})
	return voidResult()
}

type assetIssueEvaluator struct {
	*opContext
	op *protocol.AssetIssue
}

func (e *assetIssueEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAsset(op.AssetToIssue.AssetID)
	if nil != err {
		return err
	}
	if a.Issuer != op.Issuer {
		return errors.Wrapf(fault.ErrWrongIssuer, "asset: %s account: %s", a.Symbol, op.Issuer)
	}
	if a.Options.IssuerPermissions.Has(protocol.IssueAsset) {
		return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s issuing is locked", a.Symbol)
	}
	to, err := db.getAccount(op.IssueToAccount)
	if nil != err {
		return err
	}
	if !db.isAuthorizedAsset(to, a) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %s", op.IssueToAccount, a.Symbol)
	}
	if supply := db.assetDynamic(a.AssetID).CurrentSupply; supply+op.AssetToIssue.Amount > a.Options.MaxSupply {
		return errors.Wrapf(fault.ErrInvalidAmount, "asset: %s supply: %d plus: %d exceeds: %d", a.Symbol, supply, op.AssetToIssue.Amount, a.Options.MaxSupply)
	}
	return nil
}

func (e *assetIssueEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	if err := e.db.adjustBalance(op.IssueToAccount, op.AssetToIssue); nil != err {
		return nil, err
	}
	e.db.adjustSupply(op.AssetToIssue.AssetID, op.AssetToIssue.Amount)
	return voidResult()
}

type assetReserveEvaluator struct {
	*opContext
	op *protocol.AssetReserve
}

func (e *assetReserveEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAsset(op.AmountToReserve.AssetID)
	if nil != err {
		return err
	}
	from, err := db.getAccount(op.Payer)
	if nil != err {
		return err
	}
	if !db.isAuthorizedAsset(from, a) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %s", op.Payer, a.Symbol)
	}
	if supply := db.assetDynamic(a.AssetID).CurrentSupply; supply < op.AmountToReserve.Amount {
		return errors.Wrapf(fault.ErrInvalidAmount, "asset: %s supply: %d below: %d", a.Symbol, supply, op.AmountToReserve.Amount)
	}
	need := op.AmountToReserve.Amount
	if a.IsCore() {
		need += e.fromBalance
	}
	if balance := db.balanceOf(op.Payer, a.AssetID); balance < need {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s balance: %d, needs: %d", op.Payer, balance, need)
	}
	return nil
}

func (e *assetReserveEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	if err := e.db.adjustBalance(op.Payer, op.AmountToReserve.Negate()); nil != err {
		return nil, err
	}
	e.db.adjustSupply(op.AmountToReserve.AssetID, -op.AmountToReserve.Amount)
	return voidResult()
}

type assetClaimFeesEvaluator struct {
	*opContext
	op *protocol.AssetClaimFees
}

func (e *assetClaimFeesEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAsset(op.AmountToClaim.AssetID)
	if nil != err {
		return err
	}
	if a.Issuer != op.Issuer {
		return errors.Wrapf(fault.ErrWrongIssuer, "asset: %s fees belong to its issuer", a.Symbol)
	}
	if fees := db.assetDynamic(a.AssetID).AccumulatedFees; op.AmountToClaim.Amount > fees {
		return errors.Wrapf(fault.ErrInsufficientBalance, "asset: %s accumulated fees: %d, claim: %d", a.Symbol, fees, op.AmountToClaim.Amount)
	}
	return nil
}

func (e *assetClaimFeesEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	d := db.assetDynamic(op.AmountToClaim.AssetID)
	db.assetData.Modify(d, func(d *AssetDynamicData) {
		d.AccumulatedFees -= op.AmountToClaim.Amount
	})
	if err := db.adjustBalance(op.Issuer, op.AmountToClaim); nil != err {
		return nil, err
	}
	return voidResult()
}
