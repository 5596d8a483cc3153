// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// longest period a single order may cover
const maxAdvertisingPeriod = 10 * 365 * 24 * 60 * 60

func (db *Database) getAdvertising(platform account.UID, aid uint64) (*Advertising, error) {
	ad := db.advertisingByAID.Find(objectdb.Key(platform, aid))
	if nil == ad {
		return nil, errors.Wrapf(fault.ErrAdvertisingNotFound, "platform: %s aid: %d", platform, aid)
	}
	return ad, nil
}

func (db *Database) getAdvertisingOrder(platform account.UID, aid uint64, oid uint64) (*AdvertisingOrder, error) {
	o := db.adOrderByOID.Find(objectdb.Key(platform, aid, oid))
	if nil == o {
		return nil, errors.Wrapf(fault.ErrAdvertisingOrderMissing, "platform: %s aid: %d oid: %d", platform, aid, oid)
	}
	return o, nil
}

// the time ranges [start, end) overlap
func overlaps(o *AdvertisingOrder, start protocol.Timestamp, end protocol.Timestamp) bool {
	return start < o.EndTime && o.StartTime < end
}

// settle an order that was not accepted and hand its funds back
func (db *Database) refundOrder(o *AdvertisingOrder, status uint8) (int64, error) {
	amount := o.ReleasedBalance
	if err := db.adjustCoreBalance(o.User, amount); nil != err {
		return 0, err
	}
	db.adOrders.Modify(o, func(o *AdvertisingOrder) {
		o.Status = status
		o.ReleasedBalance = 0
		o.HandleTime = db.headBlockTime()
	})
	return amount, nil
}

type advertisingCreateEvaluator struct {
	*opContext
	op    *protocol.AdvertisingCreate
	stats *AccountStatistics
}

func (e *advertisingCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	s, err := db.getStatistics(op.Platform)
	if nil != err {
		return err
	}
	if s.LastAdvertisingSequence+1 != op.AdvertisingAID {
		return errors.Wrapf(fault.ErrInvalidParameter, "advertising aid: %d, expected: %d", op.AdvertisingAID, s.LastAdvertisingSequence+1)
	}
	if nil != db.advertisingByAID.Find(objectdb.Key(op.Platform, op.AdvertisingAID)) {
		return errors.Wrapf(fault.ErrAdvertisingExists, "platform: %s aid: %d", op.Platform, op.AdvertisingAID)
	}
	e.stats = s
	return nil
}

func (e *advertisingCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	now := db.headBlockTime()

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastAdvertisingSequence += 1
	})
	ad, err := db.advertisings.Create(func(ad *Advertising) {
		ad.AdvertisingAID = op.AdvertisingAID
		ad.Platform = op.Platform
		ad.OnSell = true
		ad.UnitTime = op.UnitTime
		ad.UnitPrice = op.UnitPrice
		ad.Description = op.Description
		ad.CreateTime = now
		ad.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return objectResult(ad.ObjectID())
}

type advertisingUpdateEvaluator struct {
	*opContext
	op          *protocol.AdvertisingUpdate
	advertising *Advertising
}

func (e *advertisingUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	ad, err := db.getAdvertising(op.Platform, op.AdvertisingAID)
	if nil != err {
		return err
	}
	if nil != op.OnSell && *op.OnSell == ad.OnSell {
		return errors.Wrap(fault.ErrNoChange, "on sell")
	}
	e.advertising = ad
	return nil
}

func (e *advertisingUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	db.advertisings.Modify(e.advertising, func(ad *Advertising) {
		if nil != op.Description {
			ad.Description = *op.Description
		}
		if nil != op.UnitPrice {
			ad.UnitPrice = *op.UnitPrice
		}
		if nil != op.UnitTime {
			ad.UnitTime = *op.UnitTime
		}
		if nil != op.OnSell {
			ad.OnSell = *op.OnSell
		}
		ad.LastUpdateTime = db.headBlockTime()
	})
	return voidResult()
}

type advertisingBuyEvaluator struct {
	*opContext
	op          *protocol.AdvertisingBuy
	advertising *Advertising
	price       int64
}

func (e *advertisingBuyEvaluator) evaluate() error {
	op := e.op
	db := e.db

	ad, err := db.getAdvertising(op.Platform, op.AdvertisingAID)
	if nil != err {
		return err
	}
	if !ad.OnSell {
		return errors.Wrapf(fault.ErrInvalidOperation, "advertising: %d on platform: %s is not on sale", op.AdvertisingAID, op.Platform)
	}
	if op.StartTime < db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidParameter, "start time: %s is in the past", op.StartTime)
	}
	if ad.LastOrderSequence+1 != op.AdvertisingOrderOID {
		return errors.Wrapf(fault.ErrInvalidParameter, "advertising order oid: %d, expected: %d", op.AdvertisingOrderOID, ad.LastOrderSequence+1)
	}
	if ad.UnitTime > maxAdvertisingPeriod/op.BuyNumber {
		return errors.Wrapf(fault.ErrInvalidParameter, "advertising period exceeds ten years")
	}

	end := op.StartTime.Add(int64(ad.UnitTime) * int64(op.BuyNumber))
	for _, o := range db.adOrderByStatus.Prefix(op.Platform, op.AdvertisingAID, AdvertisingAccepted) {
		if overlaps(o, op.StartTime, end) {
			return errors.Wrapf(fault.ErrInvalidParameter, "period conflicts with accepted order: %d", o.AdvertisingOrderOID)
		}
	}

	price := ad.UnitPrice * int64(op.BuyNumber)
	s, err := db.getStatistics(op.FromAccount)
	if nil != err {
		return err
	}
	if available := db.availableCoreBalance(s) - e.fromBalance; available < price {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s available: %d, needs: %d", op.FromAccount, available, price)
	}
	if min := db.params().Content.AdvertisingConfirmedMinFee; price <= min {
		return errors.Wrapf(fault.ErrInvalidAmount, "price: %d does not cover the minimum fee: %d", price, min)
	}

	e.advertising = ad
	e.price = price
	return nil
}

func (e *advertisingBuyEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	ad := e.advertising
	now := db.headBlockTime()

	db.advertisings.Modify(ad, func(ad *Advertising) {
		ad.LastOrderSequence += 1
	})
	if _, err := db.adOrders.Create(func(o *AdvertisingOrder) {
		o.AdvertisingOrderOID = op.AdvertisingOrderOID
		o.Platform = op.Platform
		o.AdvertisingAID = op.AdvertisingAID
		o.User = op.FromAccount
		o.StartTime = op.StartTime
		o.EndTime = op.StartTime.Add(int64(ad.UnitTime) * int64(op.BuyNumber))
		o.BuyRequestTime = now
		o.Status = AdvertisingUndetermined
		o.ReleasedBalance = e.price
		o.ExtraData = op.ExtraData
		o.Memo = op.Memo
	}); nil != err {
		return nil, err
	}
	if err := db.adjustCoreBalance(op.FromAccount, -e.price); nil != err {
		return nil, err
	}
	return &protocol.AssetResult{Asset: protocol.CoreAsset(e.price)}, nil
}

type advertisingConfirmEvaluator struct {
	*opContext
	op    *protocol.AdvertisingConfirm
	order *AdvertisingOrder
}

func (e *advertisingConfirmEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getAdvertising(op.Platform, op.AdvertisingAID); nil != err {
		return err
	}
	o, err := db.getAdvertisingOrder(op.Platform, op.AdvertisingAID, op.AdvertisingOrderOID)
	if nil != err {
		return err
	}
	if AdvertisingUndetermined != o.Status {
		return errors.Wrapf(fault.ErrInvalidOperation, "order: %d is already settled", op.AdvertisingOrderOID)
	}
	if min := db.params().Content.AdvertisingConfirmedMinFee; op.IsConfirm && o.ReleasedBalance <= min {
		return errors.Wrapf(fault.ErrInvalidAmount, "order: %d does not cover the minimum fee: %d", op.AdvertisingOrderOID, min)
	}
	e.order = o
	return nil
}

func (e *advertisingConfirmEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	o := e.order
	result := &protocol.AdvertisingConfirmResult{}

	if !op.IsConfirm {
		amount, err := db.refundOrder(o, AdvertisingRefused)
		if nil != err {
			return nil, err
		}
		result.Refunds = append(result.Refunds, protocol.Refund{Account: o.User, Amount: amount})
		return result, nil
	}

	content := db.params().Content
	released := o.ReleasedBalance
	db.adOrders.Modify(o, func(o *AdvertisingOrder) {
		o.Status = AdvertisingAccepted
		o.ReleasedBalance = 0
		o.HandleTime = db.headBlockTime()
	})
	fee := int64(uint128.From64(uint64(released)).Mul64(uint64(content.AdvertisingConfirmedFeeRate)).Div64(constants.HundredPercent).Lo)
	if fee < content.AdvertisingConfirmedMinFee {
		fee = content.AdvertisingConfirmedMinFee
	}
	if err := db.adjustCoreBalance(op.Platform, released-fee); nil != err {
		return nil, err
	}
	db.adjustSupply(protocol.AssetAID(constants.CoreAssetAID), -fee)
	result.Refunds = append(result.Refunds, protocol.Refund{Account: o.User})

	// undetermined orders that clash with the accepted one are refused
	for _, other := range db.adOrderByStatus.Prefix(op.Platform, op.AdvertisingAID, AdvertisingUndetermined) {
		if !overlaps(other, o.StartTime, o.EndTime) {
			continue
		}
		amount, err := db.refundOrder(other, AdvertisingRefused)
		if nil != err {
			return nil, err
		}
		result.Refunds = append(result.Refunds, protocol.Refund{Account: other.User, Amount: amount})
	}
	sort.SliceStable(result.Refunds, func(i, j int) bool {
		return result.Refunds[i].Account < result.Refunds[j].Account
	})
	db.log.Debugf("platform: %s accepted order: %d fee: %d", op.Platform, op.AdvertisingOrderOID, fee)
	return result, nil
}

type advertisingRansomEvaluator struct {
	*opContext
	op    *protocol.AdvertisingRansom
	order *AdvertisingOrder
}

func (e *advertisingRansomEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	if _, err := db.getAdvertising(op.Platform, op.AdvertisingAID); nil != err {
		return err
	}
	o, err := db.getAdvertisingOrder(op.Platform, op.AdvertisingAID, op.AdvertisingOrderOID)
	if nil != err {
		return err
	}
	if o.User != op.FromAccount {
		return errors.Wrapf(fault.ErrPermissionDenied, "order: %d belongs to: %s", op.AdvertisingOrderOID, o.User)
	}
	if AdvertisingUndetermined != o.Status {
		return errors.Wrapf(fault.ErrInvalidOperation, "order: %d is already settled", op.AdvertisingOrderOID)
	}
	if deadline := o.BuyRequestTime.Add(constants.AdvertisingConfirmTime); deadline >= db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidOperation, "order: %d can be confirmed until: %s", op.AdvertisingOrderOID, deadline)
	}
	e.order = o
	return nil
}

func (e *advertisingRansomEvaluator) apply() (protocol.OperationResult, error) {
	if _, err := e.db.refundOrder(e.order, AdvertisingRansomed); nil != err {
		return nil, err
	}
	return voidResult()
}
