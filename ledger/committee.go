// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// privilege changes collected over all items of one proposal
type privilegePlan struct {
	options     map[account.UID]*protocol.AccountPrivilegeOptions
	order       []account.UID
	isRegistrar map[account.UID]bool
	takeover    map[account.UID]account.UID
}

func (db *Database) planPrivileges(items protocol.ProposalItemList) (*privilegePlan, error) {
	plan := &privilegePlan{
		options:     make(map[account.UID]*protocol.AccountPrivilegeOptions),
		isRegistrar: make(map[account.UID]bool),
		takeover:    make(map[account.UID]account.UID),
	}

	for _, item := range items {
		it, ok := item.(*protocol.AccountPrivilegeItem)
		if !ok {
			continue
		}
		uid := it.Account
		pv := it.NewPrivileges

		// a registrar losing the flag for the first time passes the
		// accounts it already took over to the new registrar
		firstTakeover := false
		mv, seen := plan.options[uid]
		if !seen {
			o := pv
			plan.options[uid] = &o
			plan.order = append(plan.order, uid)
			firstTakeover = nil != pv.IsRegistrar && !*pv.IsRegistrar
		} else {
			if nil != pv.CanVote {
				mv.CanVote = pv.CanVote
			}
			if nil != pv.IsAdmin {
				mv.IsAdmin = pv.IsAdmin
			}
			if nil != pv.IsRegistrar {
				firstTakeover = !*pv.IsRegistrar && nil == mv.IsRegistrar
				mv.IsRegistrar = pv.IsRegistrar
			}
		}
		if firstTakeover {
			if nil == pv.TakeoverRegistrar {
				return nil, errors.Wrapf(fault.ErrInvalidParameter, "account: %s revoked registrar without takeover", uid)
			}
			for _, t := range db.takeoverByTakeover.Prefix(uid) {
				plan.takeover[t.OriginalRegistrar] = *pv.TakeoverRegistrar
			}
		}

		if _, ok := plan.isRegistrar[uid]; !ok {
			a, err := db.getAccount(uid)
			if nil != err {
				return nil, err
			}
			plan.isRegistrar[uid] = a.IsRegistrar
		}
		if nil != pv.IsRegistrar {
			plan.isRegistrar[uid] = *pv.IsRegistrar
			if *pv.IsRegistrar {
				delete(plan.takeover, uid)
			}
		}

		if t := pv.TakeoverRegistrar; nil != t {
			if plan.isRegistrar[uid] {
				return nil, errors.Wrapf(fault.ErrInvalidParameter, "account: %s is still a registrar", uid)
			}
			registrar, ok := plan.isRegistrar[*t]
			if !ok {
				a, err := db.getAccount(*t)
				if nil != err {
					return nil, err
				}
				registrar = a.IsRegistrar
				plan.isRegistrar[*t] = registrar
			}
			if !registrar {
				return nil, errors.Wrapf(fault.ErrInvalidParameter, "takeover account: %s is not a registrar", *t)
			}
			for original, current := range plan.takeover {
				if current == uid {
					plan.takeover[original] = *t
				}
			}
			plan.takeover[uid] = *t
		}
	}
	return plan, nil
}

func (db *Database) applyPrivileges(plan *privilegePlan) error {
	originals := make([]account.UID, 0, len(plan.takeover))
	for uid := range plan.takeover {
		originals = append(originals, uid)
	}
	sort.Slice(originals, func(i, j int) bool { return originals[i] < originals[j] })

	for _, original := range originals {
		registrar := plan.takeover[original]
		if t := db.takeoverByOriginal.Find(original); nil != t {
			if err := db.takeovers.Modify(t, func(t *RegistrarTakeover) {
				t.TakeoverRegistrar = registrar
			}); nil != err {
				return err
			}
			continue
		}
		if _, err := db.takeovers.Create(func(t *RegistrarTakeover) {
			t.OriginalRegistrar = original
			t.TakeoverRegistrar = registrar
		}); nil != err {
			return err
		}
	}

	for _, uid := range plan.order {
		pv := plan.options[uid]
		if nil != pv.IsAdmin || nil != pv.IsRegistrar {
			a, err := db.getAccount(uid)
			if nil != err {
				return err
			}
			db.accounts.Modify(a, func(a *Account) {
				if nil != pv.IsAdmin {
					a.IsAdmin = *pv.IsAdmin
				}
				if nil != pv.IsRegistrar {
					a.IsRegistrar = *pv.IsRegistrar
				}
				a.LastUpdateTime = db.headBlockTime()
			})
			if nil != pv.IsRegistrar && *pv.IsRegistrar {
				if t := db.takeoverByOriginal.Find(uid); nil != t {
					db.takeovers.Remove(t)
				}
			}
		}
		if nil != pv.CanVote {
			s, err := db.getStatistics(uid)
			if nil != err {
				return err
			}
			if !*pv.CanVote && s.IsVoter {
				if v := db.currentVoter(uid); nil != v {
					db.invalidateVoter(v)
				}
			}
			db.statistics.Modify(s, func(s *AccountStatistics) {
				s.CanVote = *pv.CanVote
			})
		}
	}
	return nil
}

func (db *Database) applyProposalItems(p *CommitteeProposal) error {
	if !p.IsApproved {
		return errors.Wrapf(fault.ErrProposalNotReady, "committee proposal: %d is not approved", p.ProposalNumber)
	}
	if db.headBlockNum() < p.ExecutionBlockNum {
		return errors.Wrapf(fault.ErrProposalNotReady, "committee proposal: %d executes at block: %d", p.ProposalNumber, p.ExecutionBlockNum)
	}

	plan, err := db.planPrivileges(p.Items)
	if nil != err {
		return err
	}

	// the last item of each kind wins
	var fees *protocol.FeeScheduleItem
	var params *protocol.GlobalParameterItem
	var content *protocol.ContentParameterItem
	for _, item := range p.Items {
		switch it := item.(type) {
		case *protocol.FeeScheduleItem:
			fees = it
		case *protocol.GlobalParameterItem:
			params = it
		case *protocol.ContentParameterItem:
			content = it
		}
	}

	if err := db.applyPrivileges(plan); nil != err {
		return err
	}
	if nil != fees || nil != params || nil != content {
		db.globalProperties.Modify(db.gpo(), func(g *GlobalProperty) {
			if nil != fees {
				g.Parameters.CurrentFees = fees.Apply(g.Parameters.CurrentFees)
			}
			if nil != params {
				params.Apply(&g.Parameters)
			}
			if nil != content {
				content.Apply(&g.Parameters.Content)
			}
		})
	}
	return nil
}

// executeCommitteeProposal - apply an approved proposal and remove it
//
// with silent a failing proposal is retried at its expiration block
// or dropped if that has passed, otherwise the error is returned
func (db *Database) executeCommitteeProposal(p *CommitteeProposal, silent bool) error {
	number := p.ProposalNumber

	session := db.objects.StartSession(true)
	err := db.applyProposalItems(p)
	if nil == err {
		db.committeeProposals.Remove(p)
		session.Merge()
		db.log.Infof("executed committee proposal: %d", number)
		return nil
	}
	session.Undo()

	if !silent {
		db.log.Warnf("committee proposal: %d failed: %s", number, err)
		return err
	}

	p = db.committeeProposalByNum.Find(number)
	if nil == p {
		return nil
	}
	if p.ExecutionBlockNum >= p.ExpirationBlockNum || p.ExpirationBlockNum <= db.headBlockNum() {
		db.log.Warnf("committee proposal: %d failed: %s, expired, removing", number, err)
		db.committeeProposals.Remove(p)
		return nil
	}
	db.log.Warnf("committee proposal: %d failed: %s, retry at block: %d", number, err, p.ExpirationBlockNum)
	db.committeeProposals.Modify(p, func(p *CommitteeProposal) {
		p.ExecutionBlockNum = p.ExpirationBlockNum
	})
	return nil
}

func (db *Database) collectProposals(match func(*CommitteeProposal) bool) []*CommitteeProposal {
	var found []*CommitteeProposal
	db.committeeProposals.Each(func(p *CommitteeProposal) bool {
		if match(p) {
			found = append(found, p)
		}
		return true
	})
	sort.Slice(found, func(i, j int) bool {
		if found[i].ExecutionBlockNum != found[j].ExecutionBlockNum {
			return found[i].ExecutionBlockNum < found[j].ExecutionBlockNum
		}
		return found[i].ProposalNumber < found[j].ProposalNumber
	})
	return found
}

// executeCommitteeProposals - run every approved proposal whose
// execution block has been reached
func (db *Database) executeCommitteeProposals() {
	head := db.headBlockNum()
	ready := db.collectProposals(func(p *CommitteeProposal) bool {
		return p.IsApproved && p.ExecutionBlockNum <= head
	})
	for _, p := range ready {
		// an earlier proposal may have been rolled back over this one
		if nil == db.committeeProposalByNum.Find(p.ProposalNumber) {
			continue
		}
		db.executeCommitteeProposal(p, true)
	}
}

// clearUnapprovedCommitteeProposals - drop proposals whose voting
// closed without approval
func (db *Database) clearUnapprovedCommitteeProposals() {
	head := db.headBlockNum()
	closed := db.collectProposals(func(p *CommitteeProposal) bool {
		return !p.IsApproved && p.VotingClosingBlockNum <= head
	})
	for _, p := range closed {
		db.log.Infof("removing unapproved committee proposal: %d", p.ProposalNumber)
		db.committeeProposals.Remove(p)
	}
}

// updateCommittee - at the committee update block expire all
// proposals and seat the most voted members
func (db *Database) updateCommittee() {
	g := db.gpo()
	if db.headBlockNum() < g.NextCommitteeUpdateBlock {
		return
	}

	all := db.collectProposals(func(*CommitteeProposal) bool { return true })
	for _, p := range all {
		db.log.Infof("expiring committee proposal: %d", p.ProposalNumber)
		db.committeeProposals.Remove(p)
	}

	size := int(g.Parameters.CommitteeSize)
	committee := make([]account.UID, 0, size)
	for it := db.memberByVotes.LowerBound(objectdb.Key(true)); it.Valid() && len(committee) < size; it.Next() {
		m := it.Value()
		if !m.IsValid {
			break
		}
		committee = append(committee, m.Account)
	}
	sort.Slice(committee, func(i, j int) bool { return committee[i] < committee[j] })

	next := db.headBlockNum() + g.Parameters.CommitteeUpdateInterval
	db.globalProperties.Modify(g, func(g *GlobalProperty) {
		g.ActiveCommitteeMembers = committee
		g.NextCommitteeUpdateBlock = next
	})
	db.log.Infof("committee updated: %v, next update at block: %d", committee, next)
}
