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
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/util"
)

// result bits of a single match
const (
	takerFilled = 1 << iota
	makerFilled
)

// applyOrder - match a new order against the book
//
// returns true if the order no longer exists afterwards
func (db *Database) applyOrder(order *LimitOrder) (bool, error) {
	id := order.ObjectID()
	sell := order.SellPrice.Base.AssetID
	receive := order.SellPrice.Quote.AssetID

	// the worst price the taker accepts, expressed as a maker would
	// offer it
	worst := order.SellPrice.Invert()

	// snapshot the makers since each fill changes the index
	makers := []*LimitOrder{}
	for it := db.orderByPrice.LowerBound(objectdb.Key(objectdb.Desc(protocol.MaxPrice(receive, sell)))); it.Valid(); it.Next() {
		m := it.Value()
		if m.SellPrice.Base.AssetID != receive || m.SellPrice.Quote.AssetID != sell {
			break
		}
		if m.SellPrice.Compare(worst) < 0 {
			break
		}
		makers = append(makers, m)
	}

	for _, m := range makers {
		maker := db.limitOrders.Find(m.ObjectID())
		if nil == maker {
			continue
		}
		taker := db.limitOrders.Find(id)
		if nil == taker {
			return true, nil
		}
		result, err := db.match(taker, maker, maker.SellPrice)
		if nil != err {
			return false, err
		}
		if 0 != result&takerFilled {
			break
		}
	}

	taker := db.limitOrders.Find(id)
	if nil == taker {
		return true, nil
	}
	return db.cullSmallOrder(taker)
}

// match - fill a taker against one maker at the maker's price
//
// the side with the smaller value is filled completely and rounding
// favours the larger order
func (db *Database) match(taker *LimitOrder, maker *LimitOrder, price protocol.Price) (int, error) {
	if taker.SellPrice.Quote.AssetID != maker.SellPrice.Base.AssetID || taker.SellPrice.Base.AssetID != maker.SellPrice.Quote.AssetID {
		fault.Panicf("ledger: match of orders: %s and %s on different markets", taker.ObjectID(), maker.ObjectID())
	}
	if taker.ForSale <= 0 || maker.ForSale <= 0 {
		fault.Panicf("ledger: match of empty orders: %s and %s", taker.ObjectID(), maker.ObjectID())
	}

	takerForSale := taker.AmountForSale()
	makerForSale := maker.AmountForSale()

	makerValue, err := makerForSale.Multiply(price)
	if nil != err {
		return 0, err
	}

	var takerReceives, makerReceives protocol.Asset
	cullTaker := false
	if takerForSale.Amount <= makerValue.Amount {
		takerReceives, err = takerForSale.Multiply(price)
		if nil != err {
			return 0, err
		}
		if 0 == takerReceives.Amount {
			// too small to buy anything at this price
			return takerFilled, nil
		}
		makerReceives, err = takerReceives.MultiplyRoundUp(price)
		if nil != err {
			return 0, err
		}
		cullTaker = true
	} else {
		makerReceives = makerValue
		takerReceives, err = makerReceives.MultiplyRoundUp(price)
		if nil != err {
			return 0, err
		}
	}

	makerPays := takerReceives
	takerPays := makerReceives

	result := 0
	filled, err := db.fillOrder(taker, takerPays, takerReceives, cullTaker, price, false)
	if nil != err {
		return 0, err
	}
	if filled {
		result |= takerFilled
	}
	filled, err = db.fillOrder(maker, makerPays, makerReceives, true, price, true)
	if nil != err {
		return 0, err
	}
	if filled {
		result |= makerFilled
	}
	if 0 == result {
		fault.Panicf("ledger: match of: %s and %s filled neither", taker.ObjectID(), maker.ObjectID())
	}
	return result, nil
}

// fillOrder - settle one side of a match
//
// returns true if the order was removed
func (db *Database) fillOrder(order *LimitOrder, pays protocol.Asset, receives protocol.Asset, cull bool, price protocol.Price, isMaker bool) (bool, error) {
	if pays.AssetID != order.SellPrice.Base.AssetID || pays.AssetID == receives.AssetID {
		fault.Panicf("ledger: fill of order: %s pays: %s receives: %s", order.ObjectID(), pays, receives)
	}
	seller, err := db.getAccount(order.Seller)
	if nil != err {
		return false, err
	}
	asset, err := db.getAsset(receives.AssetID)
	if nil != err {
		return false, err
	}

	fees, err := db.payMarketFees(seller, asset, receives)
	if nil != err {
		return false, errors.Wrapf(err, "fill of order: %s", order.ObjectID())
	}
	net := receives
	net.Amount -= fees
	if err := db.payOrder(order.Seller, net, pays); nil != err {
		return false, err
	}

	db.pushVirtualOperation(&protocol.FillOrder{
		FeeBundle: protocol.FeeBundle{Total: asset.Amount(fees)},
		OrderID:   order.ObjectID().Instance(),
		AccountID: order.Seller,
		Pays:      pays,
		Receives:  receives,
		FillPrice: price,
		IsMaker:   isMaker,
	}, nil)

	if pays.Amount == order.ForSale {
		db.limitOrders.Remove(order)
		return true, nil
	}
	db.limitOrders.Modify(order, func(o *LimitOrder) {
		o.ForSale -= pays.Amount
	})
	if cull {
		return db.cullSmallOrder(order)
	}
	return false, nil
}

// payOrder - credit the seller, releasing any core held in the order
func (db *Database) payOrder(uid account.UID, receives protocol.Asset, pays protocol.Asset) error {
	if pays.IsCore() {
		s, err := db.getStatistics(uid)
		if nil != err {
			return err
		}
		db.statistics.Modify(s, func(s *AccountStatistics) {
			s.TotalCoreInOrders -= pays.Amount
		})
	}
	return db.adjustBalance(uid, receives)
}

// payMarketFees - the issuer's cut of a fill
//
// an asset may return part of the cut to the registrar and referrer
// of the seller as uncollected market fees
func (db *Database) payMarketFees(seller *Account, asset *Asset, receives protocol.Asset) (int64, error) {
	fees := asset.marketFee(receives.Amount)
	if fees > receives.Amount {
		return 0, errors.Wrapf(fault.ErrInvalidAmount, "market fee: %d exceeds receipt: %d", fees, receives.Amount)
	}
	if fees <= 0 {
		return 0, nil
	}

	reward := int64(0)
	if x := asset.Options.Extensions; nil != x && nil != x.RewardPercent && 0 != *x.RewardPercent {
		reward = util.CutFee(fees, *x.RewardPercent)
	}
	if reward > 0 {
		if reward >= fees {
			return 0, errors.Wrapf(fault.ErrInvalidAmount, "market reward: %d not below fee: %d", reward, fees)
		}
		info := seller.RegInfo
		if constants.HundredPercent != info.ReferrerPercent+info.RegistrarPercent {
			fault.Panicf("ledger: account: %s reward split: %d + %d", seller.UID, info.ReferrerPercent, info.RegistrarPercent)
		}
		toReferrer := util.CutFee(reward, info.ReferrerPercent)
		if err := db.addUncollectedMarketFee(info.Referrer, asset.AssetID, toReferrer); nil != err {
			return 0, err
		}
		if err := db.addUncollectedMarketFee(info.Registrar, asset.AssetID, reward-toReferrer); nil != err {
			return 0, err
		}
	}

	if kept := fees - reward; kept > 0 {
		d := db.assetDynamic(asset.AssetID)
		db.assetData.Modify(d, func(d *AssetDynamicData) {
			d.AccumulatedFees += kept
		})
	}
	return fees, nil
}

func (db *Database) addUncollectedMarketFee(uid account.UID, aid protocol.AssetAID, amount int64) error {
	if amount <= 0 {
		return nil
	}
	s, err := db.getStatistics(uid)
	if nil != err {
		return err
	}
	db.statistics.Modify(s, func(s *AccountStatistics) {
		if nil == s.UncollectedMarketFees {
			s.UncollectedMarketFees = make(map[protocol.AssetAID]int64)
		}
		s.UncollectedMarketFees[aid] += amount
	})
	return nil
}

// cullSmallOrder - an order that can no longer buy anything is
// returned to its seller
func (db *Database) cullSmallOrder(order *LimitOrder) (bool, error) {
	if 0 != order.AmountToReceive().Amount {
		return false, nil
	}
	if _, err := db.cancelLimitOrder(order, true); nil != err {
		return false, err
	}
	return true, nil
}

// cancelLimitOrder - refund the unsold part and remove the order
func (db *Database) cancelLimitOrder(order *LimitOrder, virtual bool) (protocol.Asset, error) {
	refund := order.AmountForSale()
	if refund.IsCore() {
		s, err := db.getStatistics(order.Seller)
		if nil != err {
			return refund, err
		}
		db.statistics.Modify(s, func(s *AccountStatistics) {
			s.TotalCoreInOrders -= refund.Amount
		})
	}
	if err := db.adjustBalance(order.Seller, refund); nil != err {
		return refund, err
	}
	if virtual {
		db.pushVirtualOperation(&protocol.LimitOrderCancel{
			FeePayingAccount: order.Seller,
			Order:            order.ObjectID().Instance(),
		}, &protocol.AssetResult{Asset: refund})
	}
	db.limitOrders.Remove(order)
	return refund, nil
}

// clearExpiredOrders - cancel every order past its expiration
func (db *Database) clearExpiredOrders() {
	now := db.headBlockTime()
	for {
		it := db.orderByExpiration.First()
		if !it.Valid() {
			return
		}
		o := it.Value()
		if o.Expiration > now {
			return
		}
		if _, err := db.cancelLimitOrder(o, true); nil != err {
			fault.Panicf("ledger: cancel of expired order: %s error: %s", o.ObjectID(), err)
		}
	}
}
