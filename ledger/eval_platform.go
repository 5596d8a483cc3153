// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

type platformCreateEvaluator struct {
	*opContext
	op    *protocol.PlatformCreate
	stats *AccountStatistics
}

func (e *platformCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	s, err := db.getStatistics(op.Account)
	if nil != err {
		return err
	}
	if min := db.params().PlatformMinPledge; uint64(op.Pledge.Amount) < min {
		return errors.Wrapf(fault.ErrInsufficientPledge, "platform pledge: %d, needs: %d", op.Pledge.Amount, min)
	}
	if nil != db.findPlatform(op.Account) {
		return errors.Wrapf(fault.ErrPlatformExists, "account: %s", op.Account)
	}
	if err := db.checkPledge(op.Account, PlatformPledge, op.Account, op.Pledge.Amount); nil != err {
		return err
	}
	e.stats = s
	return nil
}

func (e *platformCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	now := db.headBlockTime()

	p, err := db.platforms.Create(func(p *Platform) {
		p.Owner = op.Account
		p.Sequence = e.stats.LastPlatformSequence + 1
		p.IsValid = true
		p.Name = op.Name
		p.URL = op.URL
		p.ExtraData = op.ExtraData
		p.Pledge = uint64(op.Pledge.Amount)
		p.PledgeLastUpdate = now
		p.AveragePledgeLastUpdate = now
		p.AveragePledgeNextUpdateBlock = db.headBlockNum() + db.params().PlatformAvgPledgeUpdateInterval
		p.CreateTime = now
		p.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastPlatformSequence += 1
	})
	if _, err := db.updatePledge(op.Account, PlatformPledge, op.Account, op.Pledge.Amount); nil != err {
		return nil, err
	}
	db.log.Infof("platform: %s sequence: %d created", op.Account, p.Sequence)
	return objectResult(p.ObjectID())
}

type platformUpdateEvaluator struct {
	*opContext
	op       *protocol.PlatformUpdate
	platform *Platform
}

func (e *platformUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	min := db.params().PlatformMinPledge

	p, err := db.getPlatform(op.Account)
	if nil != err {
		return err
	}
	switch {
	case nil == op.NewPledge:
		if p.Pledge < min {
			return errors.Wrapf(fault.ErrInsufficientPledge, "platform pledge: %d, needs: %d", p.Pledge, min)
		}
	case op.NewPledge.Amount > 0:
		if uint64(op.NewPledge.Amount) < min {
			return errors.Wrapf(fault.ErrInsufficientPledge, "platform pledge: %d, needs: %d", op.NewPledge.Amount, min)
		}
		if err := db.checkPledge(op.Account, PlatformPledge, op.Account, op.NewPledge.Amount); nil != err {
			return err
		}
	}
	if nil != op.NewURL && *op.NewURL == p.URL {
		return errors.Wrap(fault.ErrNoChange, "new url")
	}
	if nil != op.NewName && *op.NewName == p.Name {
		return errors.Wrap(fault.ErrNoChange, "new name")
	}
	if nil != op.NewExtraData && *op.NewExtraData == p.ExtraData {
		return errors.Wrap(fault.ErrNoChange, "new extra data")
	}
	e.platform = p
	return nil
}

func (e *platformUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	p := e.platform
	now := db.headBlockTime()

	describe := func(p *Platform) {
		if nil != op.NewName {
			p.Name = *op.NewName
		}
		if nil != op.NewURL {
			p.URL = *op.NewURL
		}
		if nil != op.NewExtraData {
			p.ExtraData = *op.NewExtraData
		}
		p.LastUpdateTime = now
	}

	switch {
	case nil == op.NewPledge:
		db.platforms.Modify(p, describe)

	case 0 == op.NewPledge.Amount:
		if _, err := db.updatePledge(op.Account, PlatformPledge, op.Account, 0); nil != err {
			return nil, err
		}
		// votes are removed by maintenance
		db.platforms.Modify(p, func(p *Platform) {
			p.IsValid = false
			p.AveragePledgeNextUpdateBlock = constants.NeverBlock
			p.LastUpdateTime = now
		})
		db.log.Infof("platform: %s closed", op.Account)

	default:
		if _, err := db.updatePledge(op.Account, PlatformPledge, op.Account, op.NewPledge.Amount); nil != err {
			return nil, err
		}
		db.updatePlatformAvgPledge(p)
		db.platforms.Modify(p, func(p *Platform) {
			describe(p)
			p.Pledge = uint64(op.NewPledge.Amount)
			p.PledgeLastUpdate = now
		})
		db.updatePlatformAvgPledge(p)
	}
	return voidResult()
}

type platformVoteUpdateEvaluator struct {
	*opContext
	op   *protocol.PlatformVoteUpdate
	plan *votePlan
}

func (e *platformVoteUpdateEvaluator) evaluate() error {
	plan, err := e.db.planVoteUpdate(e.db.platformKind, e.op.Voter, e.op.PlatformToAdd, e.op.PlatformToRemove)
	if nil != err {
		return err
	}
	e.plan = plan
	return nil
}

func (e *platformVoteUpdateEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.applyVoteUpdate(e.plan); nil != err {
		return nil, err
	}
	return voidResult()
}
