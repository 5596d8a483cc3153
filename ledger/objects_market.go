// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/util"
)

// Asset - a user issued or the core asset
//
// the asset id is the instance of the object id
type Asset struct {
	objectdb.Base
	AssetID   protocol.AssetAID
	Symbol    string
	Precision uint8
	Issuer    account.UID
	Options   protocol.AssetOptions
}

// DeepCopy - detach option lists
func (a *Asset) DeepCopy() {
	a.Options.WhitelistAuthorities = append([]account.UID(nil), a.Options.WhitelistAuthorities...)
	a.Options.BlacklistAuthorities = append([]account.UID(nil), a.Options.BlacklistAuthorities...)
	a.Options.WhitelistMarkets = append([]protocol.AssetAID(nil), a.Options.WhitelistMarkets...)
	a.Options.BlacklistMarkets = append([]protocol.AssetAID(nil), a.Options.BlacklistMarkets...)
}

// IsCore - the chain's own asset
func (a *Asset) IsCore() bool {
	return protocol.AssetAID(0) == a.AssetID
}

// Enabled - flag is set
func (a *Asset) Enabled(flag protocol.AssetFlags) bool {
	return a.Options.Flags.Has(flag)
}

// Amount - an amount of this asset
func (a *Asset) Amount(n int64) protocol.Asset {
	return protocol.Asset{Amount: n, AssetID: a.AssetID}
}

// marketFee - the issuer's cut of a fill
func (a *Asset) marketFee(receives int64) int64 {
	if !a.Enabled(protocol.ChargeMarketFee) || 0 == a.Options.MarketFeePercent {
		return 0
	}
	fee := util.CutFee(receives, a.Options.MarketFeePercent)
	if fee > a.Options.MaxMarketFee {
		fee = a.Options.MaxMarketFee
	}
	return fee
}

// AssetDynamicData - supply and fee buckets of an asset
type AssetDynamicData struct {
	objectdb.Base
	AssetID         protocol.AssetAID
	CurrentSupply   int64
	AccumulatedFees int64
	FeePool         int64
}

// LimitOrder - an open offer on the market
type LimitOrder struct {
	objectdb.Base
	Seller      account.UID
	ForSale     int64
	SellPrice   protocol.Price
	Expiration  protocol.Timestamp
	DeferredFee int64
}

// AmountForSale - remaining offer
func (o *LimitOrder) AmountForSale() protocol.Asset {
	return protocol.Asset{Amount: o.ForSale, AssetID: o.SellPrice.Base.AssetID}
}

// AmountToReceive - what the remaining offer buys at its price
func (o *LimitOrder) AmountToReceive() protocol.Asset {
	r, err := o.AmountForSale().Multiply(o.SellPrice)
	if nil != err {
		return protocol.Asset{AssetID: o.SellPrice.Quote.AssetID}
	}
	return r
}

// Proposal - operations waiting for approvals
type Proposal struct {
	objectdb.Base
	Proposer            account.UID
	ExpirationTime      protocol.Timestamp
	ReviewPeriodTime    *protocol.Timestamp
	ProposedTransaction protocol.Transaction

	RequiredOwnerApprovals      map[account.UID]struct{}
	RequiredActiveApprovals     map[account.UID]struct{}
	RequiredSecondaryApprovals  map[account.UID]struct{}
	AvailableOwnerApprovals     map[account.UID]struct{}
	AvailableActiveApprovals    map[account.UID]struct{}
	AvailableSecondaryApprovals map[account.UID]struct{}
	AvailableKeyApprovals       map[keypair.PublicKey]struct{}
}

// DeepCopy - detach approval sets
func (p *Proposal) DeepCopy() {
	p.RequiredOwnerApprovals = copyUIDSet(p.RequiredOwnerApprovals)
	p.RequiredActiveApprovals = copyUIDSet(p.RequiredActiveApprovals)
	p.RequiredSecondaryApprovals = copyUIDSet(p.RequiredSecondaryApprovals)
	p.AvailableOwnerApprovals = copyUIDSet(p.AvailableOwnerApprovals)
	p.AvailableActiveApprovals = copyUIDSet(p.AvailableActiveApprovals)
	p.AvailableSecondaryApprovals = copyUIDSet(p.AvailableSecondaryApprovals)
	n := make(map[keypair.PublicKey]struct{}, len(p.AvailableKeyApprovals))
	for k := range p.AvailableKeyApprovals {
		n[k] = struct{}{}
	}
	p.AvailableKeyApprovals = n
}

// TableID - a contract table in a scope
type TableID struct {
	objectdb.Base
	Code  account.UID
	Scope uint64
	Table uint64
	Payer account.UID
	Count uint32
}

// KeyValue - a row of a contract table
type KeyValue struct {
	objectdb.Base
	TableID    objectdb.ID
	PrimaryKey uint64
	Payer      account.UID
	Value      []byte
}

// DeepCopy - detach the row data
func (kv *KeyValue) DeepCopy() {
	kv.Value = append([]byte(nil), kv.Value...)
}
