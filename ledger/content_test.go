// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

const (
	advertisingUnit  = uint32(24 * 60 * 60)
	advertisingPrice = 10 * constants.CorePrecision
)

func createPlatform(t *testing.T, db *ledger.Database, key *keypair.PrivateKey, uid account.UID) {
	pledge := int64(db.GlobalProperties().Parameters.PlatformMinPledge)
	_, err := push(t, db, key, &protocol.PlatformCreate{
		Account: uid,
		Pledge:  protocol.CoreAsset(pledge),
		Name:    "platform",
		URL:     "http://platform.example.com",
	})
	require.NoError(t, err, "platform")
	generate(t, db, key)
	require.NotNil(t, db.Platform(uid), "platform created")
}

// platform share of an amount paid to a post with default receiptors
func platformShare(amount int64) int64 {
	return amount * constants.DefaultPlatformReceiptsRatio / constants.HundredPercent
}

func TestPostAndReward(t *testing.T) {
	db, key := newFreeLedger(t)
	platform := genesis.LocalUID(0)
	poster := genesis.LocalUID(1)
	reader := genesis.LocalUID(2)

	createPlatform(t, db, key, platform)

	forwardPrice := int64(1000)
	_, err := push(t, db, key, &protocol.Post{
		PostPID:   1,
		Platform:  platform,
		Poster:    poster,
		HashValue: "2d5e1f",
		Title:     "title",
		Body:      "body",
		Extensions: &protocol.PostExtension{
			ForwardPrice: &forwardPrice,
		},
	})
	require.NoError(t, err, "post")
	generate(t, db, key)

	p := db.Post(platform, poster, 1)
	require.NotNil(t, p, "post stored")
	assert.Equal(t, "title", p.Title)
	require.Len(t, p.Receiptors, 2, "platform and poster")
	assert.Equal(t, uint16(constants.DefaultPlatformReceiptsRatio), p.Receiptors[platform].CurRatio, "platform ratio")
	assert.Equal(t, uint64(1), db.Statistics(poster).LastPostSequence, "sequence")

	_, err = push(t, db, key, &protocol.Post{
		PostPID:  3,
		Platform: platform,
		Poster:   poster,
	})
	assert.Equal(t, fault.ErrInvalidParameter, errors.Cause(err), "pid out of sequence")

	// a reward is split by the receipt ratios, the poster keeps the rest
	platformBefore := db.Balance(platform, coreAsset)
	posterBefore := db.Balance(poster, coreAsset)
	reward := int64(12345)
	_, err = push(t, db, key, &protocol.Reward{
		FromAccountUID: reader,
		Platform:       platform,
		Poster:         poster,
		PostPID:        1,
		Amount:         protocol.CoreAsset(reward),
	})
	require.NoError(t, err, "reward")
	generate(t, db, key)

	assert.Equal(t, testBalance-reward, db.Balance(reader, coreAsset), "reader paid")
	assert.Equal(t, platformBefore+platformShare(reward), db.Balance(platform, coreAsset), "platform share")
	assert.Equal(t, posterBefore+reward-platformShare(reward), db.Balance(poster, coreAsset), "poster share")

	_, err = push(t, db, key, &protocol.Reward{
		FromAccountUID: reader,
		Platform:       platform,
		Poster:         poster,
		PostPID:        2,
		Amount:         protocol.CoreAsset(reward),
	})
	assert.Equal(t, fault.ErrPostNotFound, errors.Cause(err), "no such post")

	// forwarding pays the origin's price to its receiptors
	forward := protocol.PostTypeForward
	originPID := uint64(1)
	_, err = push(t, db, key, &protocol.Post{
		PostPID:        1,
		Platform:       platform,
		Poster:         reader,
		OriginPoster:   &poster,
		OriginPostPID:  &originPID,
		OriginPlatform: &platform,
		Extensions: &protocol.PostExtension{
			PostType: &forward,
		},
	})
	require.NoError(t, err, "forward")
	generate(t, db, key)

	assert.Equal(t, testBalance-reward-forwardPrice, db.Balance(reader, coreAsset), "forward price paid")
	assert.Equal(t, posterBefore+reward+forwardPrice-platformShare(reward)-platformShare(forwardPrice), db.Balance(poster, coreAsset), "poster share of forward")
	require.NotNil(t, db.Post(platform, reader, 1), "forward stored")

	assert.NoError(t, db.CheckInvariants())
}

func TestAdvertisingOrders(t *testing.T) {
	db, key := newFreeLedger(t)
	platform := genesis.LocalUID(0)
	buyer := genesis.LocalUID(1)
	rival := genesis.LocalUID(2)

	createPlatform(t, db, key, platform)

	_, err := push(t, db, key, &protocol.AdvertisingCreate{
		AdvertisingAID: 1,
		Platform:       platform,
		UnitTime:       advertisingUnit,
		UnitPrice:      advertisingPrice,
		Description:    "banner",
	})
	require.NoError(t, err, "advertising")
	generate(t, db, key)

	start := db.HeadBlockTime().Add(3600)
	buy := func(oid uint64, from account.UID, startTime protocol.Timestamp, units uint32) int64 {
		ptx, err := push(t, db, key, &protocol.AdvertisingBuy{
			AdvertisingOrderOID: oid,
			FromAccount:         from,
			Platform:            platform,
			AdvertisingAID:      1,
			StartTime:           startTime,
			BuyNumber:           units,
		})
		require.NoError(t, err, "buy: %d", oid)
		require.Len(t, ptx.OperationResults, 1, "results")
		r, ok := ptx.OperationResults[0].(*protocol.AssetResult)
		require.True(t, ok, "asset result")
		return r.Amount
	}

	accepted := buy(1, buyer, start, 2)
	clashing := buy(2, rival, start.Add(int64(advertisingUnit)), 1)
	later := buy(3, buyer, start.Add(10*int64(advertisingUnit)), 1)
	generate(t, db, key)

	assert.Equal(t, 2*advertisingPrice, accepted, "two units")
	assert.Equal(t, testBalance-accepted-later, db.Balance(buyer, coreAsset), "buyer funds held")
	assert.Equal(t, testBalance-clashing, db.Balance(rival, coreAsset), "rival funds held")

	_, err = push(t, db, key, &protocol.AdvertisingBuy{
		AdvertisingOrderOID: 3,
		FromAccount:         rival,
		Platform:            platform,
		AdvertisingAID:      1,
		StartTime:           start,
		BuyNumber:           1,
	})
	assert.Equal(t, fault.ErrInvalidParameter, errors.Cause(err), "oid already used")

	// accepting refuses the undetermined order over the same period
	platformBefore := db.Balance(platform, coreAsset)
	supplyBefore := db.AssetDynamicData(coreAsset).CurrentSupply
	ptx, err := push(t, db, key, &protocol.AdvertisingConfirm{
		Platform:            platform,
		AdvertisingAID:      1,
		AdvertisingOrderOID: 1,
		IsConfirm:           true,
	})
	require.NoError(t, err, "confirm")

	fee := accepted * int64(constants.DefaultAdvertisingConfirmedFeeRate) / constants.HundredPercent
	if fee < constants.DefaultAdvertisingConfirmedMinFee {
		fee = constants.DefaultAdvertisingConfirmedMinFee
	}
	assert.Equal(t, platformBefore+accepted-fee, db.Balance(platform, coreAsset), "platform paid")
	assert.Equal(t, supplyBefore-fee, db.AssetDynamicData(coreAsset).CurrentSupply, "fee burned")

	result, ok := ptx.OperationResults[0].(*protocol.AdvertisingConfirmResult)
	require.True(t, ok, "confirm result")
	assert.Contains(t, result.Refunds, protocol.Refund{Account: rival, Amount: clashing}, "rival refunded")
	assert.Contains(t, result.Refunds, protocol.Refund{Account: buyer}, "buyer accepted")
	generate(t, db, key)

	assert.Equal(t, ledger.AdvertisingAccepted, db.AdvertisingOrder(platform, 1, 1).Status, "accepted")
	assert.Equal(t, ledger.AdvertisingRefused, db.AdvertisingOrder(platform, 1, 2).Status, "refused")
	assert.Equal(t, testBalance, db.Balance(rival, coreAsset), "rival refund")
	assert.Equal(t, ledger.AdvertisingUndetermined, db.AdvertisingOrder(platform, 1, 3).Status, "no overlap")

	_, err = push(t, db, key, &protocol.AdvertisingConfirm{
		Platform:            platform,
		AdvertisingAID:      1,
		AdvertisingOrderOID: 2,
		IsConfirm:           true,
	})
	assert.Equal(t, fault.ErrInvalidOperation, errors.Cause(err), "already settled")

	ransom := &protocol.AdvertisingRansom{
		FromAccount:         buyer,
		Platform:            platform,
		AdvertisingAID:      1,
		AdvertisingOrderOID: 3,
	}
	_, err = push(t, db, key, ransom)
	assert.Equal(t, fault.ErrInvalidOperation, errors.Cause(err), "platform may still confirm")

	_, err = push(t, db, key, &protocol.AdvertisingRansom{
		FromAccount:         rival,
		Platform:            platform,
		AdvertisingAID:      1,
		AdvertisingOrderOID: 3,
	})
	assert.Equal(t, fault.ErrPermissionDenied, errors.Cause(err), "not the buyer")

	// skip past the confirm window in one block
	interval := uint32(db.GlobalProperties().Parameters.BlockInterval)
	slots := uint32(constants.AdvertisingConfirmTime)/interval + 1
	_, err = db.GenerateBlock(db.SlotTime(slots), db.ScheduledWitness(slots), key, ledger.SkipNothing)
	require.NoError(t, err, "generate after the window")

	_, err = push(t, db, key, ransom)
	require.NoError(t, err, "ransom")
	generate(t, db, key)

	o := db.AdvertisingOrder(platform, 1, 3)
	assert.Equal(t, ledger.AdvertisingRansomed, o.Status, "ransomed")
	assert.Zero(t, o.ReleasedBalance, "nothing held")
	assert.Equal(t, testBalance-accepted, db.Balance(buyer, coreAsset), "unconfirmed order refunded")

	assert.NoError(t, db.CheckInvariants())
}
