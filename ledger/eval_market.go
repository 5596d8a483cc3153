// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

type limitOrderCreateEvaluator struct {
	*opContext
	op *protocol.LimitOrderCreate
}

func (e *limitOrderCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if op.Expiration < db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidExpiration, "order expires: %s before head block", op.Expiration)
	}
	seller, err := db.getAccount(op.Seller)
	if nil != err {
		return err
	}
	sell, err := db.getAsset(op.AmountToSell.AssetID)
	if nil != err {
		return err
	}
	receive, err := db.getAsset(op.MinToReceive.AssetID)
	if nil != err {
		return err
	}
	if !marketAllowed(sell, receive.AssetID) || !marketAllowed(receive, sell.AssetID) {
		return errors.Wrapf(fault.ErrPermissionDenied, "market: %s/%s is not allowed", sell.Symbol, receive.Symbol)
	}
	if !db.isAuthorizedAsset(seller, sell) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %s", op.Seller, sell.Symbol)
	}
	if !db.isAuthorizedAsset(seller, receive) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %s", op.Seller, receive.Symbol)
	}

	need := op.AmountToSell.Amount
	balance := db.balanceOf(op.Seller, sell.AssetID)
	if sell.IsCore() {
		need += e.fromBalance
		balance = db.availableCoreBalance(db.stats(op.Seller))
	}
	if balance < need {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s balance: %d, needs: %d", op.Seller, balance, need)
	}
	return nil
}

func (e *limitOrderCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	if op.AmountToSell.IsCore() {
		db.statistics.Modify(db.stats(op.Seller), func(s *AccountStatistics) {
			s.TotalCoreInOrders += op.AmountToSell.Amount
		})
	}
	if err := db.adjustBalance(op.Seller, op.AmountToSell.Negate()); nil != err {
		return nil, err
	}

	order, err := db.limitOrders.Create(func(o *LimitOrder) {
		o.Seller = op.Seller
		o.ForSale = op.AmountToSell.Amount
		o.SellPrice = op.SellPrice()
		o.Expiration = op.Expiration
	})
	if nil != err {
		return nil, err
	}
	id := order.ObjectID()

	filled, err := db.applyOrder(order)
	if nil != err {
		return nil, err
	}
	if op.FillOrKill && !filled {
		return nil, errors.Wrapf(fault.ErrOrderNotFilled, "order: %s", id)
	}
	return objectResult(id)
}

// marketAllowed - the asset may trade against the other
func marketAllowed(a *Asset, other protocol.AssetAID) bool {
	if 0 != len(a.Options.WhitelistMarkets) {
		found := false
		for _, m := range a.Options.WhitelistMarkets {
			if m == other {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, m := range a.Options.BlacklistMarkets {
		if m == other {
			return false
		}
	}
	return true
}

type limitOrderCancelEvaluator struct {
	*opContext
	op    *protocol.LimitOrderCancel
	order *LimitOrder
}

func (e *limitOrderCancelEvaluator) evaluate() error {
	op := e.op
	o := e.db.limitOrders.Find(objectdb.NewID(protocolSpace, limitOrderType, op.Order))
	if nil == o {
		return errors.Wrapf(fault.ErrOrderNotFound, "order: %d", op.Order)
	}
	if o.Seller != op.FeePayingAccount {
		return errors.Wrapf(fault.ErrWrongSeller, "order: %d account: %s", op.Order, op.FeePayingAccount)
	}
	e.order = o
	return nil
}

func (e *limitOrderCancelEvaluator) apply() (protocol.OperationResult, error) {
	refund, err := e.db.cancelLimitOrder(e.order, false)
	if nil != err {
		return nil, err
	}
	return &protocol.AssetResult{Asset: refund}, nil
}

type marketFeeCollectEvaluator struct {
	*opContext
	op    *protocol.MarketFeeCollect
	stats *AccountStatistics
}

func (e *marketFeeCollectEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getAsset(op.AssetAID); nil != err {
		return err
	}
	s, err := db.getStatistics(op.Account)
	if nil != err {
		return err
	}
	if available := s.UncollectedMarketFees[op.AssetAID]; available < op.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s uncollected market fees: %d, collect: %d", op.Account, available, op.Amount)
	}
	e.stats = s
	return nil
}

func (e *marketFeeCollectEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.UncollectedMarketFees[op.AssetAID] -= op.Amount
		if 0 == s.UncollectedMarketFees[op.AssetAID] {
			delete(s.UncollectedMarketFees, op.AssetAID)
		}
	})
	if err := db.adjustBalance(op.Account, protocol.Asset{Amount: op.Amount, AssetID: op.AssetAID}); nil != err {
		return nil, err
	}
	return voidResult()
}
