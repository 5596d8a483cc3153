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

type committeeMemberCreateEvaluator struct {
	*opContext
	op    *protocol.CommitteeMemberCreate
	stats *AccountStatistics
}

func (e *committeeMemberCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	s, err := db.getStatistics(op.Account)
	if nil != err {
		return err
	}
	// no pledge needed for the initial committee
	if min := db.params().MinCommitteeMemberPledge; db.headBlockNum() > 0 && uint64(op.Pledge.Amount) < min {
		return errors.Wrapf(fault.ErrInsufficientPledge, "committee member pledge: %d, needs: %d", op.Pledge.Amount, min)
	}
	if nil != db.findCommitteeMember(op.Account) {
		return errors.Wrapf(fault.ErrCommitteeMemberExists, "account: %s", op.Account)
	}
	if err := db.checkPledge(op.Account, CommitteePledge, op.Account, op.Pledge.Amount); nil != err {
		return err
	}
	e.stats = s
	return nil
}

func (e *committeeMemberCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	m, err := db.members.Create(func(m *CommitteeMember) {
		m.Account = op.Account
		m.Sequence = e.stats.LastCommitteeMemberSequence + 1
		m.IsValid = true
		m.Pledge = uint64(op.Pledge.Amount)
		m.URL = op.URL
	})
	if nil != err {
		return nil, err
	}
	db.statistics.Modify(e.stats, func(s *AccountStatistics) {
		s.LastCommitteeMemberSequence += 1
	})
	if _, err := db.updatePledge(op.Account, CommitteePledge, op.Account, op.Pledge.Amount); nil != err {
		return nil, err
	}
	return objectResult(m.ObjectID())
}

type committeeMemberUpdateEvaluator struct {
	*opContext
	op     *protocol.CommitteeMemberUpdate
	member *CommitteeMember
}

func (e *committeeMemberUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	params := db.params()

	m, err := db.getCommitteeMember(op.Account)
	if nil != err {
		return err
	}
	if nil != op.NewPledge {
		if op.NewPledge.Amount > 0 {
			if uint64(op.NewPledge.Amount) < params.MinCommitteeMemberPledge {
				return errors.Wrapf(fault.ErrInsufficientPledge, "committee member pledge: %d, needs: %d", op.NewPledge.Amount, params.MinCommitteeMemberPledge)
			}
			if uint64(op.NewPledge.Amount) == m.Pledge {
				return errors.Wrap(fault.ErrNoChange, "new pledge")
			}
			if err := db.checkPledge(op.Account, CommitteePledge, op.Account, op.NewPledge.Amount); nil != err {
				return err
			}
		} else if n := len(db.memberByValid.Prefix(true)); n <= int(params.CommitteeSize) {
			return errors.Wrapf(fault.ErrCannotResign, "only %d committee members remain, need more than: %d", n, params.CommitteeSize)
		}
	}
	if nil != op.NewURL && *op.NewURL == m.URL {
		return errors.Wrap(fault.ErrNoChange, "new url")
	}
	e.member = m
	return nil
}

func (e *committeeMemberUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	switch {
	case nil == op.NewPledge:
		db.members.Modify(e.member, func(m *CommitteeMember) {
			m.URL = *op.NewURL
		})

	case 0 == op.NewPledge.Amount:
		// an active member stays pledged until the committee changes
		release := db.headBlockNum() + db.params().CommitteeMemberPledgeReleaseDelay
		if db.gpo().IsActiveCommitteeMember(op.Account) {
			release = db.gpo().NextCommitteeUpdateBlock + db.params().CommitteeMemberPledgeReleaseDelay
		}
		if _, err := db.updatePledgeAt(op.Account, CommitteePledge, op.Account, 0, release); nil != err {
			return nil, err
		}
		db.members.Modify(e.member, func(m *CommitteeMember) {
			m.IsValid = false
		})
		db.log.Infof("committee member: %s resigned", op.Account)

	default:
		if _, err := db.updatePledge(op.Account, CommitteePledge, op.Account, op.NewPledge.Amount); nil != err {
			return nil, err
		}
		db.members.Modify(e.member, func(m *CommitteeMember) {
			m.Pledge = uint64(op.NewPledge.Amount)
			if nil != op.NewURL {
				m.URL = *op.NewURL
			}
		})
	}
	return voidResult()
}

type committeeMemberVoteUpdateEvaluator struct {
	*opContext
	op   *protocol.CommitteeMemberVoteUpdate
	plan *votePlan
}

func (e *committeeMemberVoteUpdateEvaluator) evaluate() error {
	plan, err := e.db.planVoteUpdate(e.db.committeeKind, e.op.Voter, e.op.CommitteeMembersToAdd, e.op.CommitteeMembersToRemove)
	if nil != err {
		return err
	}
	e.plan = plan
	return nil
}

func (e *committeeMemberVoteUpdateEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.applyVoteUpdate(e.plan); nil != err {
		return nil, err
	}
	return voidResult()
}

type committeeProposalCreateEvaluator struct {
	*opContext
	op *protocol.CommitteeProposalCreate
}

func (e *committeeProposalCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	next := db.gpo().NextCommitteeUpdateBlock

	if !db.gpo().IsActiveCommitteeMember(op.Proposer) {
		return errors.Wrapf(fault.ErrNotCommitteeMember, "proposer: %s", op.Proposer)
	}
	if op.VotingClosingBlockNum < db.headBlockNum() {
		return errors.Wrapf(fault.ErrInvalidParameter, "voting closing block: %d is before head: %d", op.VotingClosingBlockNum, db.headBlockNum())
	}
	if op.VotingClosingBlockNum > next || op.ExecutionBlockNum > next || op.ExpirationBlockNum > next {
		return errors.Wrapf(fault.ErrInvalidParameter, "proposal blocks must not be after the next committee update: %d", next)
	}

	for i, item := range op.Items {
		switch it := item.(type) {
		case *protocol.AccountPrivilegeItem:
			if _, err := db.getAccount(it.Account); nil != err {
				return errors.Wrapf(err, "item[%d]", i)
			}
			if t := it.NewPrivileges.TakeoverRegistrar; nil != t {
				if _, err := db.getAccount(*t); nil != err {
					return errors.Wrapf(err, "item[%d] takeover", i)
				}
			}
		case *protocol.GlobalParameterItem:
			if v := it.Value.MaximumTimeUntilExpiration; nil != v && *v <= uint32(db.params().BlockInterval) {
				return errors.Wrapf(fault.ErrInvalidParameter, "item[%d] maximum time until expiration: %d", i, *v)
			}
		}
	}
	return nil
}

func (e *committeeProposalCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	number := db.dgp().NextCommitteeProposalNumber

	p, err := db.committeeProposals.Create(func(p *CommitteeProposal) {
		p.ProposedBy = op.Proposer
		p.ProposalNumber = number
		p.Items = op.Items
		p.VotingClosingBlockNum = op.VotingClosingBlockNum
		p.ExecutionBlockNum = op.ExecutionBlockNum
		p.ExpirationBlockNum = op.ExpirationBlockNum
		p.VotingThreshold = op.Threshold()
		p.OpinionRecord = make(map[account.UID]protocol.VotingOpinion)
		if nil != op.ProposerOpinion {
			p.OpinionRecord[op.Proposer] = *op.ProposerOpinion
		}
		p.IsApproved = db.approvalRatio(p) >= uint32(p.VotingThreshold)
	})
	if nil != err {
		return nil, err
	}
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.NextCommitteeProposalNumber += 1
	})
	id := p.ObjectID()

	if p.IsApproved && db.headBlockNum() >= p.ExecutionBlockNum {
		if err := db.executeCommitteeProposal(p, false); nil != err {
			return nil, err
		}
	}
	return objectResult(id)
}

type committeeProposalUpdateEvaluator struct {
	*opContext
	op       *protocol.CommitteeProposalUpdate
	proposal *CommitteeProposal
}

func (e *committeeProposalUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if !db.gpo().IsActiveCommitteeMember(op.Account) {
		return errors.Wrapf(fault.ErrNotCommitteeMember, "account: %s", op.Account)
	}
	p := db.committeeProposalByNum.Find(op.ProposalNumber)
	if nil == p {
		return errors.Wrapf(fault.ErrProposalNotFound, "committee proposal: %d", op.ProposalNumber)
	}
	if db.headBlockNum() > p.VotingClosingBlockNum {
		return errors.Wrapf(fault.ErrVotingClosed, "committee proposal: %d closed at block: %d", op.ProposalNumber, p.VotingClosingBlockNum)
	}
	if old, ok := p.OpinionRecord[op.Account]; ok && old == op.Opinion {
		return errors.Wrapf(fault.ErrNoChange, "opinion on committee proposal: %d", op.ProposalNumber)
	}
	e.proposal = p
	return nil
}

func (e *committeeProposalUpdateEvaluator) apply() (protocol.OperationResult, error) {
	db := e.db
	p := e.proposal
	db.committeeProposals.Modify(p, func(p *CommitteeProposal) {
		if nil == p.OpinionRecord {
			p.OpinionRecord = make(map[account.UID]protocol.VotingOpinion)
		}
		p.OpinionRecord[e.op.Account] = e.op.Opinion
		p.IsApproved = db.approvalRatio(p) >= uint32(p.VotingThreshold)
	})
	if p.IsApproved && db.headBlockNum() >= p.ExecutionBlockNum {
		if err := db.executeCommitteeProposal(p, false); nil != err {
			return nil, err
		}
	}
	return voidResult()
}

// approvalRatio - share of the active committee in favour, in units
// of 1/10000
func (db *Database) approvalRatio(p *CommitteeProposal) uint32 {
	size := len(db.gpo().ActiveCommitteeMembers)
	if 0 == size {
		return 0
	}
	yes := 0
	for _, o := range p.OpinionRecord {
		if protocol.OpinionFor == o {
			yes += 1
		}
	}
	return uint32(yes) * constants.HundredPercent / uint32(size)
}
