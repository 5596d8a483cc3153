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

// platformGrant - when uid signed through a platform the platform
// must hold the permission
func (c *opContext) platformGrant(uid account.UID, flag uint32) (*AccountAuthPlatform, error) {
	platform := c.delegatingPlatform(uid)
	if 0 == platform {
		return nil, nil
	}
	return c.db.requireGrant(uid, platform, flag, 0)
}

// requireGrant - platform may act for uid with the permission and
// spend amount more of its prepaid
func (db *Database) requireGrant(uid account.UID, platform account.UID, flag uint32, amount int64) (*AccountAuthPlatform, error) {
	auth := db.findAuthPlatform(uid, platform)
	if nil == auth {
		return nil, errors.Wrapf(fault.ErrNotAuthorisedByPlatform, "account: %s platform: %s", uid, platform)
	}
	if !auth.Allows(flag) {
		return nil, errors.Wrapf(fault.ErrPlatformPermissionRequired, "account: %s platform: %s permission: %d", uid, platform, flag)
	}
	if amount > 0 && auth.LimitForPlatform < constants.MaxPlatformLimitPrepaid && auth.CurUsed+amount > auth.LimitForPlatform {
		return nil, errors.Wrapf(fault.ErrInsufficientPrepaid, "platform: %s limit: %d used: %d, needs: %d", platform, auth.LimitForPlatform, auth.CurUsed, amount)
	}
	return auth, nil
}

func (db *Database) useGrant(auth *AccountAuthPlatform, amount int64) {
	if nil == auth || 0 == amount {
		return
	}
	db.authPlatforms.Modify(auth, func(a *AccountAuthPlatform) {
		a.CurUsed += amount
	})
}

// receiptorShares - split amount by the current ratios, the rounding
// remainder goes to the poster
func receiptorShares(p *Post, amount int64) ([]account.UID, map[account.UID]int64) {
	uids := make([]account.UID, 0, len(p.Receiptors))
	for uid := range p.Receiptors {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	shares := make(map[account.UID]int64, len(uids))
	paid := int64(0)
	for _, uid := range uids {
		share := int64(uint128.From64(uint64(amount)).Mul64(uint64(p.Receiptors[uid].CurRatio)).Div64(constants.HundredPercent).Lo)
		shares[uid] = share
		paid += share
	}
	if _, ok := shares[p.Poster]; !ok {
		uids = append(uids, p.Poster)
	}
	shares[p.Poster] += amount - paid
	return uids, shares
}

func (db *Database) payReceiptors(p *Post, asset protocol.Asset) error {
	uids, shares := receiptorShares(p, asset.Amount)
	for _, uid := range uids {
		if err := db.adjustBalance(uid, protocol.Asset{Amount: shares[uid], AssetID: asset.AssetID}); nil != err {
			return err
		}
	}
	return nil
}

type postEvaluator struct {
	*opContext
	op     *protocol.Post
	stats  *AccountStatistics
	origin *Post
	price  int64
	grant  *AccountAuthPlatform
}

func (e *postEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	poster, err := db.getAccount(op.Poster)
	if nil != err {
		return err
	}
	s, err := db.getStatistics(op.Poster)
	if nil != err {
		return err
	}
	if op.PostPID != s.LastPostSequence+1 {
		return errors.Wrapf(fault.ErrInvalidParameter, "post pid: %d, expected: %d", op.PostPID, s.LastPostSequence+1)
	}
	if nil != db.findPost(op.Platform, op.Poster, op.PostPID) {
		return errors.Wrapf(fault.ErrPostExists, "platform: %s poster: %s pid: %d", op.Platform, op.Poster, op.PostPID)
	}

	postType := op.Type()
	permission := protocol.PlatformPermissionPost
	switch postType {
	case protocol.PostTypeComment:
		if !poster.CanReply {
			return errors.Wrapf(fault.ErrAccountCannotReply, "poster: %s", op.Poster)
		}
		permission = protocol.PlatformPermissionComment
	case protocol.PostTypeForward, protocol.PostTypeForwardAndModify:
		if !poster.CanPost {
			return errors.Wrapf(fault.ErrAccountCannotPost, "poster: %s", op.Poster)
		}
		permission = protocol.PlatformPermissionForward
	default:
		if !poster.CanPost {
			return errors.Wrapf(fault.ErrAccountCannotPost, "poster: %s", op.Poster)
		}
	}

	if nil != op.OriginPostPID {
		origin, err := db.getPost(*op.OriginPlatform, *op.OriginPoster, *op.OriginPostPID)
		if nil != err {
			return err
		}
		switch postType {
		case protocol.PostTypeComment:
			if !origin.Allows(protocol.PostPermissionComment) {
				return errors.Wrap(fault.ErrPermissionDenied, "origin post does not allow comments")
			}
		case protocol.PostTypeForward, protocol.PostTypeForwardAndModify:
			if !origin.Allows(protocol.PostPermissionForward) {
				return errors.Wrap(fault.ErrPermissionDenied, "origin post does not allow forwarding")
			}
			if nil == origin.ForwardPrice {
				return errors.Wrap(fault.ErrPermissionDenied, "origin post has no forward price")
			}
			e.price = *origin.ForwardPrice
			if available := db.availableCoreBalance(s); available < e.price {
				return errors.Wrapf(fault.ErrInsufficientBalance, "poster: %s available: %d, forward price: %d", op.Poster, available, e.price)
			}
		}
		e.origin = origin
	}

	if ext := op.Extensions; nil != ext {
		if nil != ext.LicenseLID && nil == db.licenseByLID.Find(objectdb.Key(op.Platform, *ext.LicenseLID)) {
			return errors.Wrapf(fault.ErrLicenseNotFound, "platform: %s license: %d", op.Platform, *ext.LicenseLID)
		}
		if nil != ext.Receiptors {
			for _, r := range *ext.Receiptors {
				if _, err := db.getAccount(r.UID); nil != err {
					return err
				}
			}
		}
	}

	grant, err := e.platformGrant(op.Poster, permission)
	if nil != err {
		return err
	}
	e.grant = grant
	e.stats = s
	return nil
}

func (e *postEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	now := db.headBlockTime()

	if e.price > 0 {
		if err := db.adjustCoreBalance(op.Poster, -e.price); nil != err {
			return nil, err
		}
		if err := db.payReceiptors(e.origin, protocol.Asset{Amount: e.price}); nil != err {
			return nil, err
		}
	}

	receiptors := make(map[account.UID]protocol.Receiptor)
	for _, r := range op.ReceiptorList() {
		receiptors[r.UID] = r
	}
	p, err := db.posts.Create(func(p *Post) {
		p.Platform = op.Platform
		p.Poster = op.Poster
		p.PostPID = op.PostPID
		p.OriginPoster = op.OriginPoster
		p.OriginPostPID = op.OriginPostPID
		p.OriginPlatform = op.OriginPlatform
		p.HashValue = op.HashValue
		p.ExtraData = op.ExtraData
		p.Title = op.Title
		p.Body = op.Body
		p.CreateTime = now
		p.LastUpdateTime = now
		p.Receiptors = receiptors
		p.PermissionFlags = op.PermissionFlags()
		if ext := op.Extensions; nil != ext {
			p.LicenseLID = ext.LicenseLID
			p.ForwardPrice = ext.ForwardPrice
		}
	})
	if nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastPostSequence += 1
	})
	return objectResult(p.ObjectID())
}

type postUpdateEvaluator struct {
	*opContext
	op   *protocol.PostUpdate
	post *Post
}

func (e *postUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	p, err := db.getPost(op.Platform, op.Poster, op.PostPID)
	if nil != err {
		return err
	}
	ext := op.Extensions

	if op.ChangesContent() {
		if _, err := e.platformGrant(op.Poster, protocol.PlatformPermissionContentUpdate); nil != err {
			return err
		}
		if nil != ext && nil != ext.LicenseLID && nil == db.licenseByLID.Find(objectdb.Key(op.Platform, *ext.LicenseLID)) {
			return errors.Wrapf(fault.ErrLicenseNotFound, "platform: %s license: %d", op.Platform, *ext.LicenseLID)
		}
	}

	if op.ChangesReceiptor() {
		uid := *ext.Receiptor
		r, ok := p.Receiptors[uid]
		if !ok {
			return errors.Wrapf(fault.ErrInvalidParameter, "account: %s is not a receiptor", uid)
		}
		if uid == p.Platform {
			return errors.Wrap(fault.ErrPermissionDenied, "platform receipt cannot be sold")
		}
		if _, err := e.platformGrant(uid, protocol.PlatformPermissionBuyout); nil != err {
			return err
		}
		ratio := r.BuyoutRatio
		if nil != ext.BuyoutRatio {
			ratio = *ext.BuyoutRatio
		}
		if ratio > r.CurRatio {
			return errors.Wrapf(fault.ErrInvalidPercentage, "buyout ratio: %d exceeds current: %d", ratio, r.CurRatio)
		}
		if uid == p.Poster && r.CurRatio-ratio < constants.MinPostReceiptorRatio {
			return errors.Wrapf(fault.ErrInvalidPercentage, "poster must keep: %d", constants.MinPostReceiptorRatio)
		}
		if nil != ext.BuyoutExpiration && *ext.BuyoutExpiration <= db.headBlockTime() {
			return errors.Wrapf(fault.ErrInvalidExpiration, "buyout expiration: %s", *ext.BuyoutExpiration)
		}
	}
	e.post = p
	return nil
}

func (e *postUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	ext := op.Extensions

	db.posts.Modify(e.post, func(p *Post) {
		if op.ChangesContent() {
			if nil != op.HashValue {
				p.HashValue = *op.HashValue
			}
			if nil != op.ExtraData {
				p.ExtraData = *op.ExtraData
			}
			if nil != op.Title {
				p.Title = *op.Title
			}
			if nil != op.Body {
				p.Body = *op.Body
			}
			if nil != ext {
				if nil != ext.ForwardPrice {
					p.ForwardPrice = ext.ForwardPrice
				}
				if nil != ext.LicenseLID {
					p.LicenseLID = ext.LicenseLID
				}
				if nil != ext.PermissionFlags {
					p.PermissionFlags = *ext.PermissionFlags
				}
			}
		}
		if op.ChangesReceiptor() {
			r := p.Receiptors[*ext.Receiptor]
			if nil != ext.ToBuyout {
				r.ToBuyout = *ext.ToBuyout
			}
			if nil != ext.BuyoutRatio {
				r.BuyoutRatio = *ext.BuyoutRatio
			}
			if nil != ext.BuyoutPrice {
				r.BuyoutPrice = *ext.BuyoutPrice
			}
			if nil != ext.BuyoutExpiration {
				r.BuyoutExpiration = *ext.BuyoutExpiration
			}
			p.Receiptors[*ext.Receiptor] = r
		}
		p.LastUpdateTime = db.headBlockTime()
	})
	return voidResult()
}

type scoreCreateEvaluator struct {
	*opContext
	op    *protocol.ScoreCreate
	stats *AccountStatistics
}

func (e *scoreCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	from, err := db.getAccount(op.FromAccountUID)
	if nil != err {
		return err
	}
	if !from.CanRate {
		return errors.Wrapf(fault.ErrAccountCannotRate, "account: %s", op.FromAccountUID)
	}
	p, err := db.getPost(op.Platform, op.Poster, op.PostPID)
	if nil != err {
		return err
	}
	if !p.Allows(protocol.PostPermissionLiked) {
		return errors.Wrap(fault.ErrPermissionDenied, "post does not allow scores")
	}
	if nil != db.scoreByPost.Find(objectdb.Key(op.Platform, op.Poster, op.PostPID, op.FromAccountUID)) {
		return errors.Wrapf(fault.ErrScoreExists, "account: %s already scored post: %d", op.FromAccountUID, op.PostPID)
	}
	if max := db.params().Content.MaxCSAFPerApproval; op.CSAF > max {
		return errors.Wrapf(fault.ErrInvalidAmount, "score csaf: %d exceeds: %d", op.CSAF, max)
	}
	s := db.stats(op.FromAccountUID)
	if s.CSAF < op.CSAF {
		return errors.Wrapf(fault.ErrInsufficientCSAF, "account: %s csaf: %d, needs: %d", op.FromAccountUID, s.CSAF, op.CSAF)
	}
	if _, err := e.platformGrant(op.FromAccountUID, protocol.PlatformPermissionLiked); nil != err {
		return err
	}
	e.stats = s
	return nil
}

func (e *scoreCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.CSAF -= op.CSAF
	})
	score, err := db.scores.Create(func(s *Score) {
		s.FromAccountUID = op.FromAccountUID
		s.Platform = op.Platform
		s.Poster = op.Poster
		s.PostPID = op.PostPID
		s.Score = op.Score
		s.CSAF = op.CSAF
		s.CreateTime = db.headBlockTime()
	})
	if nil != err {
		return nil, err
	}
	return objectResult(score.ObjectID())
}

type rewardEvaluator struct {
	*opContext
	op   *protocol.Reward
	post *Post
}

func (e *rewardEvaluator) evaluate() error {
	op := e.op
	db := e.db

	p, err := db.getPost(op.Platform, op.Poster, op.PostPID)
	if nil != err {
		return err
	}
	if !p.Allows(protocol.PostPermissionReward) {
		return errors.Wrap(fault.ErrPermissionDenied, "post does not allow rewards")
	}
	asset, err := db.getAsset(op.Amount.AssetID)
	if nil != err {
		return err
	}
	if op.Amount.IsCore() {
		if available := db.availableCoreBalance(db.stats(op.FromAccountUID)); available < op.Amount.Amount {
			return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s available: %d, reward: %d", op.FromAccountUID, available, op.Amount.Amount)
		}
	} else if balance := db.balanceOf(op.FromAccountUID, op.Amount.AssetID); balance < op.Amount.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s has: %d, reward: %d", op.FromAccountUID, balance, op.Amount.Amount)
	}

	uids, _ := receiptorShares(p, op.Amount.Amount)
	for _, uid := range uids {
		a, err := db.getAccount(uid)
		if nil != err {
			return err
		}
		if !db.isAuthorizedAsset(a, asset) {
			return errors.Wrapf(fault.ErrAllowedAssetsRejected, "receiptor: %s asset: %s", uid, asset.Symbol)
		}
	}
	e.post = p
	return nil
}

func (e *rewardEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.adjustBalance(e.op.FromAccountUID, e.op.Amount.Negate()); nil != err {
		return nil, err
	}
	if err := e.db.payReceiptors(e.post, e.op.Amount); nil != err {
		return nil, err
	}
	return voidResult()
}

type rewardProxyEvaluator struct {
	*opContext
	op    *protocol.RewardProxy
	post  *Post
	from  *AccountStatistics
	grant *AccountAuthPlatform
}

func (e *rewardProxyEvaluator) evaluate() error {
	op := e.op
	db := e.db

	p, err := db.getPost(op.Platform, op.Poster, op.PostPID)
	if nil != err {
		return err
	}
	if !p.Allows(protocol.PostPermissionReward) {
		return errors.Wrap(fault.ErrPermissionDenied, "post does not allow rewards")
	}
	from, err := db.getStatistics(op.FromAccountUID)
	if nil != err {
		return err
	}

	// the fee may come from the same prepaid
	needed := op.Amount
	if op.FromAccountUID == e.payer.UID {
		needed += e.fromPrepaid
	}
	if from.Prepaid < needed {
		return errors.Wrapf(fault.ErrInsufficientPrepaid, "account: %s prepaid: %d, needs: %d", op.FromAccountUID, from.Prepaid, needed)
	}
	grant, err := db.requireGrant(op.FromAccountUID, op.SigningPlatform(), protocol.PlatformPermissionReward, op.Amount)
	if nil != err {
		return err
	}
	e.post = p
	e.from = from
	e.grant = grant
	return nil
}

func (e *rewardProxyEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	amount := e.op.Amount

	db.statistics.Modify(e.from, func(s *AccountStatistics) {
		s.Prepaid -= amount
	})
	uids, shares := receiptorShares(e.post, amount)
	for _, uid := range uids {
		if 0 == shares[uid] {
			continue
		}
		s, err := db.getStatistics(uid)
		if nil != err {
			return nil, err
		}
		db.statistics.Modify(s, func(s *AccountStatistics) {
			s.Prepaid += shares[uid]
		})
	}
	db.useGrant(e.grant, amount)
	return voidResult()
}

type buyoutEvaluator struct {
	*opContext
	op        *protocol.Buyout
	post      *Post
	receiptor protocol.Receiptor
	buyer     *AccountStatistics
	seller    *AccountStatistics
	grant     *AccountAuthPlatform
}

func (e *buyoutEvaluator) evaluate() error {
	op := e.op
	db := e.db

	p, err := db.getPost(op.Platform, op.Poster, op.PostPID)
	if nil != err {
		return err
	}
	if !p.Allows(protocol.PostPermissionBuyout) {
		return errors.Wrap(fault.ErrPermissionDenied, "post does not allow buyout")
	}
	r, ok := p.Receiptors[op.ReceiptorAccountUID]
	if !ok {
		return errors.Wrapf(fault.ErrInvalidParameter, "account: %s is not a receiptor", op.ReceiptorAccountUID)
	}
	if !r.ToBuyout || 0 == r.BuyoutRatio {
		return errors.Wrapf(fault.ErrInvalidOperation, "receiptor: %s is not selling", op.ReceiptorAccountUID)
	}
	if r.BuyoutExpiration < db.headBlockTime() {
		return errors.Wrapf(fault.ErrInvalidExpiration, "receiptor: %s offer expired at: %s", op.ReceiptorAccountUID, r.BuyoutExpiration)
	}
	if _, ok := p.Receiptors[op.FromAccountUID]; !ok && len(p.Receiptors) >= constants.MaxPostReceiptors {
		return errors.Wrapf(fault.ErrInvalidCount, "post already has %d receiptors", len(p.Receiptors))
	}

	buyer, err := db.getStatistics(op.FromAccountUID)
	if nil != err {
		return err
	}
	seller, err := db.getStatistics(op.ReceiptorAccountUID)
	if nil != err {
		return err
	}
	needed := r.BuyoutPrice
	if op.FromAccountUID == e.payer.UID {
		needed += e.fromPrepaid
	}
	if buyer.Prepaid < needed {
		return errors.Wrapf(fault.ErrInsufficientPrepaid, "account: %s prepaid: %d, needs: %d", op.FromAccountUID, buyer.Prepaid, needed)
	}
	grant, err := db.requireGrant(op.FromAccountUID, op.SigningPlatform(), protocol.PlatformPermissionBuyout, r.BuyoutPrice)
	if nil != err {
		return err
	}

	e.post = p
	e.receiptor = r
	e.buyer = buyer
	e.seller = seller
	e.grant = grant
	return nil
}

func (e *buyoutEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	r := e.receiptor

	db.statistics.Modify(e.buyer, func(s *AccountStatistics) {
		s.Prepaid -= r.BuyoutPrice
	})
	db.statistics.Modify(e.seller, func(s *AccountStatistics) {
		s.Prepaid += r.BuyoutPrice
	})

	db.posts.Modify(e.post, func(p *Post) {
		seller := p.Receiptors[op.ReceiptorAccountUID]
		seller.CurRatio -= r.BuyoutRatio
		seller.ToBuyout = false
		seller.BuyoutRatio = 0
		seller.BuyoutPrice = 0
		seller.BuyoutExpiration = 0
		if 0 == seller.CurRatio && op.ReceiptorAccountUID != p.Poster {
			delete(p.Receiptors, op.ReceiptorAccountUID)
		} else {
			p.Receiptors[op.ReceiptorAccountUID] = seller
		}

		buyer, ok := p.Receiptors[op.FromAccountUID]
		if !ok {
			buyer = protocol.Receiptor{UID: op.FromAccountUID}
		}
		buyer.CurRatio += r.BuyoutRatio
		p.Receiptors[op.FromAccountUID] = buyer
		p.LastUpdateTime = db.headBlockTime()
	})
	db.useGrant(e.grant, r.BuyoutPrice)
	return voidResult()
}

type licenseCreateEvaluator struct {
	*opContext
	op    *protocol.LicenseCreate
	stats *AccountStatistics
}

func (e *licenseCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	s, err := db.getStatistics(op.Platform)
	if nil != err {
		return err
	}
	if op.LicenseLID != s.LastLicenseSequence+1 {
		return errors.Wrapf(fault.ErrInvalidParameter, "license lid: %d, expected: %d", op.LicenseLID, s.LastLicenseSequence+1)
	}
	if nil != db.licenseByLID.Find(objectdb.Key(op.Platform, op.LicenseLID)) {
		return errors.Wrapf(fault.ErrLicenseExists, "platform: %s license: %d", op.Platform, op.LicenseLID)
	}
	e.stats = s
	return nil
}

func (e *licenseCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	l, err := db.licenses.Create(func(l *License) {
		l.LicenseLID = op.LicenseLID
		l.Platform = op.Platform
		l.Type = op.Type
		l.HashValue = op.HashValue
		l.ExtraData = op.ExtraData
		l.Title = op.Title
		l.Body = op.Body
		l.CreateTime = db.headBlockTime()
	})
	if nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastLicenseSequence += 1
	})
	return objectResult(l.ObjectID())
}

// clearExpiredScores - scores stop counting once the approval window
// has passed
func (db *Database) clearExpiredScores() {
	window := db.params().Content.ApprovalExpiration
	now := db.headBlockTime()
	if uint64(now) <= uint64(window) {
		return
	}
	cutoff := now - protocol.Timestamp(window)
	for _, s := range db.scoreByCreateTime.Range(objectdb.Key(protocol.Timestamp(0)), objectdb.Key(cutoff)) {
		db.scores.Remove(s)
	}
}
