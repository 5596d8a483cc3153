// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

func (db *Database) getProposal(id uint64) (*Proposal, error) {
	p := db.proposals.Find(objectdb.NewID(protocolSpace, proposalType, id))
	if nil == p {
		return nil, errors.Wrapf(fault.ErrProposalNotFound, "proposal: %d", id)
	}
	return p, nil
}

// depth of proposals nested inside proposed operations
func proposalNesting(ops protocol.OperationList) int {
	depth := 0
	for _, op := range ops {
		if p, ok := op.(*protocol.ProposalCreate); ok {
			if d := 1 + proposalNesting(p.ProposedOps); d > depth {
				depth = d
			}
		}
	}
	return depth
}

// uidSet - account tiers whose approval a proposal needs
type uidSet map[account.UID]struct{}

// expandAuthorities - add every account reachable through the
// account references of the required authorities
func (db *Database) expandAuthorities(sets map[authority.Tier]uidSet) error {
	maxDepth := int(db.params().MaxAuthorityDepth)

	var walk func(uid account.UID, tier authority.Tier, depth int) error
	walk = func(uid account.UID, tier authority.Tier, depth int) error {
		if _, err := db.getAccount(uid); nil != err {
			return err
		}
		if depth >= maxDepth {
			return nil
		}
		auth := db.fetchAuthority(uid, tier)
		for _, w := range auth.AccountUIDAuths {
			sets[w.Auth.Tier][w.Auth.UID] = struct{}{}
			if err := walk(w.Auth.UID, w.Auth.Tier, depth+1); nil != err {
				return err
			}
		}
		return nil
	}

	for _, tier := range []authority.Tier{authority.Owner, authority.Active, authority.Secondary} {
		initial := make([]account.UID, 0, len(sets[tier]))
		for uid := range sets[tier] {
			initial = append(initial, uid)
		}
		for _, uid := range initial {
			if err := walk(uid, tier, 0); nil != err {
				return err
			}
		}
	}
	return nil
}

type proposalCreateEvaluator struct {
	*opContext
	op        *protocol.ProposalCreate
	owner     uidSet
	active    uidSet
	secondary uidSet
}

func (e *proposalCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db
	now := db.headBlockTime()
	params := db.params()

	if op.ExpirationTime <= now {
		return errors.Wrapf(fault.ErrInvalidExpiration, "proposal expired on creation: %s", op.ExpirationTime)
	}
	if limit := now.Add(int64(params.MaximumProposalLifetime)); op.ExpirationTime > limit {
		return errors.Wrapf(fault.ErrInvalidExpiration, "proposal expiration: %s after: %s", op.ExpirationTime, limit)
	}
	if nil != op.ReviewPeriodSeconds && int64(*op.ReviewPeriodSeconds) >= op.ExpirationTime.Sub(now) {
		return errors.Wrapf(fault.ErrInvalidParameter, "review period: %d must be shorter than the lifetime", *op.ReviewPeriodSeconds)
	}
	if d := e.trx.proposalDepth + proposalNesting(op.ProposedOps); d >= constants.MaxProposalOpsDepth {
		return errors.Wrapf(fault.ErrInvalidOperation, "proposals nested: %d deep", d+1)
	}
	trx := protocol.Transaction{Operations: op.ProposedOps}
	if err := trx.Validate(); nil != err {
		return err
	}

	required := trx.Required()
	owner := uidSet{}
	active := uidSet{}
	secondary := uidSet{}
	for uid := range required.Owner {
		owner[uid] = struct{}{}
	}
	for uid := range required.Active {
		if _, ok := owner[uid]; !ok {
			active[uid] = struct{}{}
		}
	}
	for uid := range required.Secondary {
		if _, ok := active[uid]; !ok {
			secondary[uid] = struct{}{}
		}
	}
	sets := map[authority.Tier]uidSet{
		authority.Owner:     owner,
		authority.Active:    active,
		authority.Secondary: secondary,
	}
	if err := db.expandAuthorities(sets); nil != err {
		return err
	}

	e.owner = owner
	e.active = active
	e.secondary = secondary
	return nil
}

func (e *proposalCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	p, err := e.db.proposals.Create(func(p *Proposal) {
		p.Proposer = op.FeePayingAccount
		p.ExpirationTime = op.ExpirationTime
		if nil != op.ReviewPeriodSeconds {
			review := op.ExpirationTime.Add(-int64(*op.ReviewPeriodSeconds))
			p.ReviewPeriodTime = &review
		}
		p.ProposedTransaction = protocol.Transaction{
			Expiration: op.ExpirationTime,
			Operations: op.ProposedOps,
		}
		p.RequiredOwnerApprovals = e.owner
		p.RequiredActiveApprovals = e.active
		p.RequiredSecondaryApprovals = e.secondary
		p.AvailableOwnerApprovals = uidSet{}
		p.AvailableActiveApprovals = uidSet{}
		p.AvailableSecondaryApprovals = uidSet{}
		p.AvailableKeyApprovals = make(map[keypair.PublicKey]struct{})
	})
	if nil != err {
		return nil, err
	}
	return objectResult(p.ObjectID())
}

type proposalUpdateEvaluator struct {
	*opContext
	op       *protocol.ProposalUpdate
	proposal *Proposal
}

func (e *proposalUpdateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	p, err := db.getProposal(op.Proposal)
	if nil != err {
		return err
	}
	if nil != p.ReviewPeriodTime && db.headBlockTime() >= *p.ReviewPeriodTime {
		if 0 != len(op.ActiveApprovalsToAdd) || 0 != len(op.OwnerApprovalsToAdd) || 0 != len(op.SecondaryApprovalsToAdd) {
			return errors.Wrapf(fault.ErrInvalidOperation, "proposal: %d is in its review period", op.Proposal)
		}
	}
	removals := []struct {
		uids      []account.UID
		available uidSet
		tier      authority.Tier
	}{
		{op.SecondaryApprovalsToRemove, p.AvailableSecondaryApprovals, authority.Secondary},
		{op.ActiveApprovalsToRemove, p.AvailableActiveApprovals, authority.Active},
		{op.OwnerApprovalsToRemove, p.AvailableOwnerApprovals, authority.Owner},
	}
	for _, r := range removals {
		for _, uid := range r.uids {
			if _, ok := r.available[uid]; !ok {
				return errors.Wrapf(fault.ErrInvalidOperation, "proposal: %d has no %s approval from: %s", op.Proposal, r.tier, uid)
			}
		}
	}
	e.proposal = p
	return nil
}

func (e *proposalUpdateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	p := e.proposal

	db.proposals.Modify(p, func(p *Proposal) {
		for _, uid := range op.SecondaryApprovalsToAdd {
			p.AvailableSecondaryApprovals[uid] = struct{}{}
		}
		for _, uid := range op.ActiveApprovalsToAdd {
			p.AvailableActiveApprovals[uid] = struct{}{}
		}
		for _, uid := range op.OwnerApprovalsToAdd {
			p.AvailableOwnerApprovals[uid] = struct{}{}
		}
		for _, uid := range op.SecondaryApprovalsToRemove {
			delete(p.AvailableSecondaryApprovals, uid)
		}
		for _, uid := range op.ActiveApprovalsToRemove {
			delete(p.AvailableActiveApprovals, uid)
		}
		for _, uid := range op.OwnerApprovalsToRemove {
			delete(p.AvailableOwnerApprovals, uid)
		}
		for _, k := range op.KeyApprovalsToAdd {
			p.AvailableKeyApprovals[k] = struct{}{}
		}
		for _, k := range op.KeyApprovalsToRemove {
			delete(p.AvailableKeyApprovals, k)
		}
	})

	// a proposal with a review period only executes on expiry
	if nil != p.ReviewPeriodTime {
		return voidResult()
	}
	signs, ok := db.authorizedToExecute(p)
	if !ok {
		return voidResult()
	}
	if err := db.pushProposal(p, signs, e.trx.proposalDepth+1); nil != err {
		db.log.Warnf("proposal: %d failed once approved: %s, retry on expiry", op.Proposal, err)
	}
	return voidResult()
}

type proposalDeleteEvaluator struct {
	*opContext
	op       *protocol.ProposalDelete
	proposal *Proposal
}

func (e *proposalDeleteEvaluator) evaluate() error {
	op := e.op
	p, err := e.db.getProposal(op.Proposal)
	if nil != err {
		return err
	}
	uid := op.FeePayingAccount
	_, owner := p.RequiredOwnerApprovals[uid]
	_, active := p.RequiredActiveApprovals[uid]
	_, secondary := p.RequiredSecondaryApprovals[uid]
	if !owner && !active && !secondary {
		return errors.Wrapf(fault.ErrPermissionDenied, "account: %s is not required by proposal: %d", uid, op.Proposal)
	}
	e.proposal = p
	return nil
}

func (e *proposalDeleteEvaluator) apply() (protocol.OperationResult, error) {
	e.db.proposals.Remove(e.proposal)
	return voidResult()
}

func sortedSet(s uidSet) []account.UID {
	uids := make([]account.UID, 0, len(s))
	for uid := range s {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}

// authorizedToExecute - the collected approvals satisfy every
// authority the proposed operations need
func (db *Database) authorizedToExecute(p *Proposal) (*authority.SignState, bool) {
	keys := make([]keypair.PublicKey, 0, len(p.AvailableKeyApprovals))
	for k := range p.AvailableKeyApprovals {
		keys = append(keys, k)
	}
	approvals := &authority.Approvals{
		Owner:     sortedSet(p.AvailableOwnerApprovals),
		Active:    sortedSet(p.AvailableActiveApprovals),
		Secondary: sortedSet(p.AvailableSecondaryApprovals),
	}
	signs, err := authority.Verify(p.ProposedTransaction.Required(), keys, db.fetchAuthority, uint32(db.params().MaxAuthorityDepth), true, approvals)
	if nil != err {
		return nil, false
	}
	return signs, true
}

// pushProposal - apply the proposed operations as one unit and
// remove the proposal, leaving everything untouched on failure
func (db *Database) pushProposal(p *Proposal, signs *authority.SignState, depth int) error {
	if depth > constants.MaxProposalOpsDepth {
		return errors.Wrapf(fault.ErrInvalidOperation, "proposal: %d nested too deep", p.ObjectID().Instance())
	}
	trx := &trxContext{
		signs:         signs,
		proposalDepth: depth,
	}

	session := db.objects.StartSession(true)
	m := db.mark()
	for i, op := range p.ProposedTransaction.Operations {
		if _, err := db.applyOperation(trx, op); nil != err {
			session.Undo()
			db.rewind(m)
			return errors.Wrapf(err, "proposed op[%d]", i)
		}
	}
	db.proposals.Remove(p)
	session.Merge()
	db.log.Infof("executed proposal: %d", p.ObjectID().Instance())
	return nil
}

// clearExpiredProposals - last chance to execute, then drop
func (db *Database) clearExpiredProposals() {
	now := db.headBlockTime()
	for {
		it := db.proposalByExpiration.First()
		if !it.Valid() {
			return
		}
		p := it.Value()
		if p.ExpirationTime > now {
			return
		}
		id := p.ObjectID()
		if signs, ok := db.authorizedToExecute(p); ok {
			err := db.pushProposal(p, signs, 1)
			if nil == err {
				continue
			}
			db.log.Errorf("proposal: %d failed on expiration: %s", id.Instance(), err)
		}
		// the undo may have replaced the object
		if p := db.proposals.Find(id); nil != p {
			db.proposals.Remove(p)
		}
	}
}
