// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

type transferEvaluator struct {
	*opContext
	op *protocol.Transfer

	from        *AccountStatistics
	to          *AccountStatistics
	authorised  *AccountAuthPlatform
	fromBalance int64
	fromPrepaid int64
	toBalance   int64
	toPrepaid   int64
}

func (e *transferEvaluator) evaluate() error {
	op := e.op
	db := e.db

	from, err := db.getAccount(op.From)
	if nil != err {
		return err
	}
	to, err := db.getAccount(op.To)
	if nil != err {
		return err
	}
	asset, err := db.getAsset(op.Amount.AssetID)
	if nil != err {
		return err
	}
	if !db.isAuthorizedAsset(from, asset) {
		return errors.Wrapf(fault.ErrWhitelistRejected, "from: %s asset: %d", op.From, asset.AssetID)
	}
	if !db.isAuthorizedAsset(to, asset) {
		return errors.Wrapf(fault.ErrWhitelistRejected, "to: %s asset: %d", op.To, asset.AssetID)
	}
	if asset.Enabled(protocol.TransferRestricted) && op.From != asset.Issuer && op.To != asset.Issuer {
		return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s is transfer restricted", asset.Symbol)
	}

	e.fromBalance, e.fromPrepaid, e.toBalance, e.toPrepaid = op.Amounts()
	e.from = db.stats(op.From)
	e.to = db.stats(op.To)

	if !asset.IsCore() {
		if balance := db.balanceOf(op.From, asset.AssetID); balance < op.Amount.Amount {
			return errors.Wrapf(fault.ErrInsufficientBalance, "from: %s has: %d, transfer: %d", op.From, balance, op.Amount.Amount)
		}
		return nil
	}

	// the fee is charged after the transfer so both come from the
	// same balance
	fromBalance, fromPrepaid := e.fromBalance, e.fromPrepaid
	if op.From == e.payer.UID {
		fromBalance += e.opContext.fromBalance
		fromPrepaid += e.opContext.fromPrepaid
	}
	if available := db.availableCoreBalance(e.from); available < fromBalance {
		return errors.Wrapf(fault.ErrInsufficientBalance, "from: %s available: %d, needs: %d", op.From, available, fromBalance)
	}
	if e.from.Prepaid < fromPrepaid {
		return errors.Wrapf(fault.ErrInsufficientPrepaid, "from: %s prepaid: %d, needs: %d", op.From, e.from.Prepaid, fromPrepaid)
	}

	// prepaid spent with a platform's signature counts against the
	// limit the account granted that platform
	if e.fromPrepaid > 0 {
		if platform := e.delegatingPlatform(op.From); 0 != platform {
			auth := db.findAuthPlatform(op.From, platform)
			if nil == auth {
				return errors.Wrapf(fault.ErrNotAuthorisedByPlatform, "account: %s platform: %s", op.From, platform)
			}
			if !auth.Allows(protocol.PlatformPermissionTransfer) {
				return errors.Wrapf(fault.ErrPlatformPermissionRequired, "account: %s platform: %s transfer", op.From, platform)
			}
			if auth.LimitForPlatform < constants.MaxPlatformLimitPrepaid && auth.CurUsed+e.fromPrepaid > auth.LimitForPlatform {
				return errors.Wrapf(fault.ErrInsufficientPrepaid, "platform: %s limit: %d used: %d, needs: %d", platform, auth.LimitForPlatform, auth.CurUsed, e.fromPrepaid)
			}
			e.authorised = auth
		}
	}
	return nil
}

func (e *transferEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	if !op.Amount.IsCore() {
		if err := db.adjustBalance(op.From, op.Amount.Negate()); nil != err {
			return nil, err
		}
		if err := db.adjustBalance(op.To, op.Amount); nil != err {
			return nil, err
		}
		return voidResult()
	}

	if e.fromBalance > 0 {
		if err := db.adjustCoreBalance(op.From, -e.fromBalance); nil != err {
			return nil, err
		}
	}
	if e.fromPrepaid > 0 {
		db.statistics.Modify(e.from, func(s *AccountStatistics) {
			s.Prepaid -= e.fromPrepaid
		})
	}
	if e.toBalance > 0 {
		if err := db.adjustCoreBalance(op.To, e.toBalance); nil != err {
			return nil, err
		}
	}
	if e.toPrepaid > 0 {
		db.statistics.Modify(e.to, func(s *AccountStatistics) {
			s.Prepaid += e.toPrepaid
		})
	}
	if nil != e.authorised {
		db.authPlatforms.Modify(e.authorised, func(a *AccountAuthPlatform) {
			a.CurUsed += e.fromPrepaid
		})
	}
	return voidResult()
}

type overrideTransferEvaluator struct {
	*opContext
	op *protocol.OverrideTransfer
}

func (e *overrideTransferEvaluator) evaluate() error {
	op := e.op
	db := e.db

	asset, err := db.getAsset(op.Amount.AssetID)
	if nil != err {
		return err
	}
	if !asset.Enabled(protocol.OverrideAuthority) {
		return errors.Wrapf(fault.ErrPermissionDenied, "asset: %s can not be overridden", asset.Symbol)
	}
	if asset.Issuer != op.Issuer {
		return errors.Wrapf(fault.ErrWrongIssuer, "asset: %s account: %s", asset.Symbol, op.Issuer)
	}
	for _, uid := range []account.UID{op.From, op.To} {
		a, err := db.getAccount(uid)
		if nil != err {
			return err
		}
		if !db.isAuthorizedAsset(a, asset) {
			return errors.Wrapf(fault.ErrWhitelistRejected, "account: %s asset: %s", uid, asset.Symbol)
		}
	}
	if asset.IsCore() {
		if available := db.availableCoreBalance(db.stats(op.From)); available < op.Amount.Amount {
			return errors.Wrapf(fault.ErrInsufficientBalance, "from: %s available: %d, needs: %d", op.From, available, op.Amount.Amount)
		}
	} else if balance := db.balanceOf(op.From, asset.AssetID); balance < op.Amount.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "from: %s has: %d, needs: %d", op.From, balance, op.Amount.Amount)
	}
	return nil
}

func (e *overrideTransferEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.adjustBalance(e.op.From, e.op.Amount.Negate()); nil != err {
		return nil, err
	}
	if err := e.db.adjustBalance(e.op.To, e.op.Amount); nil != err {
		return nil, err
	}
	return voidResult()
}
