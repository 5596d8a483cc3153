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

type customVoteCreateEvaluator struct {
	*opContext
	op    *protocol.CustomVoteCreate
	stats *AccountStatistics
}

func (e *customVoteCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	now := db.headBlockTime()

	s, err := db.getStatistics(op.CustomVoteCreator)
	if nil != err {
		return err
	}
	if s.LastCustomVoteSequence+1 != op.VoteVID {
		return errors.Wrapf(fault.ErrInvalidParameter, "custom vote vid: %d, expected: %d", op.VoteVID, s.LastCustomVoteSequence+1)
	}
	if nil != db.customVoteByVID.Find(objectdb.Key(op.CustomVoteCreator, op.VoteVID)) {
		return errors.Wrapf(fault.ErrCustomVoteExists, "creator: %s vid: %d", op.CustomVoteCreator, op.VoteVID)
	}
	if _, err := db.getAsset(op.VoteAssetID); nil != err {
		return err
	}
	limit := now.Add(int64(db.params().Content.CustomVoteEffectiveTime))
	if op.VoteExpiredTime <= now || op.VoteExpiredTime > limit {
		return errors.Wrapf(fault.ErrInvalidExpiration, "custom vote expires: %s, allowed up to: %s", op.VoteExpiredTime, limit)
	}
	e.stats = s
	return nil
}

func (e *customVoteCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastCustomVoteSequence += 1
	})
	v, err := db.customVotes.Create(func(v *CustomVote) {
		v.CustomVoteCreator = op.CustomVoteCreator
		v.VoteVID = op.VoteVID
		v.Title = op.Title
		v.Description = op.Description
		v.VoteExpiredTime = op.VoteExpiredTime
		v.VoteAssetID = op.VoteAssetID
		v.RequiredAssetAmount = op.RequiredAssetAmount
		v.MinimumSelectedItems = op.MinimumSelectedItems
		v.MaximumSelectedItems = op.MaximumSelectedItems
		v.Options = append([]string(nil), op.Options...)
		v.VoteResult = make([]uint64, len(op.Options))
	})
	if nil != err {
		return nil, err
	}
	return objectResult(v.ObjectID())
}

type customVoteCastEvaluator struct {
	*opContext
	op     *protocol.CustomVoteCast
	vote   *CustomVote
	weight int64
}

func (e *customVoteCastEvaluator) evaluate() error {
	op := e.op
	db := e.db

	v := db.customVoteByVID.Find(objectdb.Key(op.CustomVoteCreator, op.CustomVoteVID))
	if nil == v {
		return errors.Wrapf(fault.ErrCustomVoteNotFound, "creator: %s vid: %d", op.CustomVoteCreator, op.CustomVoteVID)
	}
	if v.VoteExpiredTime <= db.headBlockTime() {
		return errors.Wrapf(fault.ErrVotingClosed, "custom vote: %d expired at: %s", op.CustomVoteVID, v.VoteExpiredTime)
	}
	n := len(op.VoteResult)
	if n < int(v.MinimumSelectedItems) || n > int(v.MaximumSelectedItems) {
		return errors.Wrapf(fault.ErrInvalidCount, "selected: %d, allowed: %d to %d", n, v.MinimumSelectedItems, v.MaximumSelectedItems)
	}
	for _, i := range op.VoteResult {
		if int(i) >= len(v.Options) {
			return errors.Wrapf(fault.ErrInvalidParameter, "option: %d out of range", i)
		}
	}

	a, err := db.getAccount(op.Voter)
	if nil != err {
		return err
	}
	asset, err := db.getAsset(v.VoteAssetID)
	if nil != err {
		return err
	}
	if !db.isAuthorizedAsset(a, asset) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %d", op.Voter, v.VoteAssetID)
	}
	weight := db.balanceOf(op.Voter, v.VoteAssetID)
	if weight < v.RequiredAssetAmount || weight <= 0 {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s holds: %d, needs: %d", op.Voter, weight, v.RequiredAssetAmount)
	}

	e.vote = v
	e.weight = weight
	return nil
}

// apply - a second ballot replaces the first
func (e *customVoteCastEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	v := e.vote

	cast := db.castByVote.Find(objectdb.Key(op.CustomVoteCreator, op.CustomVoteVID, op.Voter))
	db.customVotes.Modify(v, func(v *CustomVote) {
		if nil != cast {
			for _, i := range cast.VoteResult {
				v.VoteResult[i] -= uint64(cast.Weight)
			}
		}
		for _, i := range op.VoteResult {
			v.VoteResult[i] += uint64(e.weight)
		}
	})

	if nil != cast {
		db.casts.Modify(cast, func(c *CastCustomVote) {
			c.VoteResult = append([]uint8(nil), op.VoteResult...)
			c.Weight = e.weight
		})
	} else {
		var err error
		cast, err = db.casts.Create(func(c *CastCustomVote) {
			c.Voter = op.Voter
			c.CustomVoteCreator = op.CustomVoteCreator
			c.CustomVoteVID = op.CustomVoteVID
			c.VoteResult = append([]uint8(nil), op.VoteResult...)
			c.Weight = e.weight
		})
		if nil != err {
			return nil, err
		}
	}
	db.nonConsensusOps = append(db.nonConsensusOps, op)
	return objectResult(cast.ObjectID())
}
