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
)

// edgeStore - access to one table of vote edges
type edgeStore interface {
	edgesOf(voter account.UID, sequence uint32) []VoteEdge
	votersOf(target account.UID, sequence uint32) []VoteEdge
	has(e VoteEdge) bool
	add(e VoteEdge) error
	remove(e VoteEdge)
	count() int
}

func (t *voteTable[T, P]) collect(rows []P) []VoteEdge {
	edges := make([]VoteEdge, len(rows))
	for i, p := range rows {
		edges[i] = *p.edge()
	}
	return edges
}

func (t *voteTable[T, P]) edgesOf(voter account.UID, sequence uint32) []VoteEdge {
	return t.collect(t.byVoter.Prefix(voter, sequence))
}

func (t *voteTable[T, P]) votersOf(target account.UID, sequence uint32) []VoteEdge {
	return t.collect(t.byTarget.Prefix(target, sequence))
}

func (t *voteTable[T, P]) lookup(e VoteEdge) P {
	return t.byVoter.Find(objectdb.Key(e.VoterUID, e.VoterSequence, e.TargetUID, e.TargetSequence))
}

func (t *voteTable[T, P]) has(e VoteEdge) bool {
	return nil != t.lookup(e)
}

func (t *voteTable[T, P]) add(e VoteEdge) error {
	_, err := t.Create(func(p P) {
		n := p.edge()
		n.VoterUID = e.VoterUID
		n.VoterSequence = e.VoterSequence
		n.TargetUID = e.TargetUID
		n.TargetSequence = e.TargetSequence
	})
	return err
}

func (t *voteTable[T, P]) remove(e VoteEdge) {
	if p := t.lookup(e); nil != p {
		t.Remove(p)
	}
}

func (t *voteTable[T, P]) count() int {
	return t.Count()
}

// voteKind - what differs between witness, committee member and
// platform voting
type voteKind struct {
	name    string
	edges   edgeStore
	current func(uid account.UID) (uint32, bool)
	adjust  func(uid account.UID, delta int64)
	counter func(v *Voter) *uint16
	limit   func(p *protocol.ChainParameters) uint16

	// the first resigned target still holding edges
	resigned       func() (account.UID, uint32, bool)
	removeResigned func(uid account.UID, sequence uint32)
	resignLimit    uint32

	notFound error
}

func (db *Database) createVoteKinds() {
	db.witnessKind = &voteKind{
		name:  "witness",
		edges: db.witnessVotes,
		current: func(uid account.UID) (uint32, bool) {
			if w := db.findWitness(uid); nil != w {
				return w.Sequence, true
			}
			return 0, false
		},
		adjust: func(uid account.UID, delta int64) {
			if w := db.findWitness(uid); nil != w {
				db.adjustWitnessVotes(w, delta)
			}
		},
		counter: func(v *Voter) *uint16 { return &v.NumberOfWitnessesVoted },
		limit:   func(p *protocol.ChainParameters) uint16 { return p.MaxWitnessesVotedPerAccount },
		resigned: func() (account.UID, uint32, bool) {
			if w := db.witnessByValid.Find(objectdb.Key(false)); nil != w {
				return w.Account, w.Sequence, true
			}
			return 0, 0, false
		},
		removeResigned: func(uid account.UID, sequence uint32) {
			if w := db.witnessByAccount.Find(objectdb.Key(uid, sequence)); nil != w {
				db.witnesses.Remove(w)
			}
		},
		resignLimit: constants.MaxResignedWitnessVotesPerBlock,
		notFound:    fault.ErrWitnessNotFound,
	}

	db.committeeKind = &voteKind{
		name:  "committee member",
		edges: db.memberVotes,
		current: func(uid account.UID) (uint32, bool) {
			if m := db.findCommitteeMember(uid); nil != m {
				return m.Sequence, true
			}
			return 0, false
		},
		adjust: func(uid account.UID, delta int64) {
			if m := db.findCommitteeMember(uid); nil != m {
				db.adjustCommitteeMemberVotes(m, delta)
			}
		},
		counter: func(v *Voter) *uint16 { return &v.NumberOfCommitteeMembersVoted },
		limit:   func(p *protocol.ChainParameters) uint16 { return p.MaxCommitteeMembersVotedPerAccount },
		resigned: func() (account.UID, uint32, bool) {
			if m := db.memberByValid.Find(objectdb.Key(false)); nil != m {
				return m.Account, m.Sequence, true
			}
			return 0, 0, false
		},
		removeResigned: func(uid account.UID, sequence uint32) {
			if m := db.memberByAccount.Find(objectdb.Key(uid, sequence)); nil != m {
				db.members.Remove(m)
			}
		},
		resignLimit: constants.MaxResignedCommitteeVotesPerBlock,
		notFound:    fault.ErrCommitteeMemberNotFound,
	}

	db.platformKind = &voteKind{
		name:  "platform",
		edges: db.platformVotes,
		current: func(uid account.UID) (uint32, bool) {
			if p := db.findPlatform(uid); nil != p {
				return p.Sequence, true
			}
			return 0, false
		},
		adjust: func(uid account.UID, delta int64) {
			if p := db.findPlatform(uid); nil != p {
				db.adjustPlatformVotes(p, delta)
			}
		},
		counter: func(v *Voter) *uint16 { return &v.NumberOfPlatformsVoted },
		limit:   func(p *protocol.ChainParameters) uint16 { return p.PlatformMaxVotePerAccount },
		resigned: func() (account.UID, uint32, bool) {
			if p := db.platformByValid.Find(objectdb.Key(false)); nil != p {
				return p.Owner, p.Sequence, true
			}
			return 0, 0, false
		},
		removeResigned: func(uid account.UID, sequence uint32) {
			if p := db.platformByOwner.Find(objectdb.Key(uid, sequence)); nil != p {
				db.platforms.Remove(p)
			}
		},
		resignLimit: constants.MaxResignedPlatformVotesPerBlock,
		notFound:    fault.ErrPlatformNotFound,
	}

	db.voteKinds = []*voteKind{db.witnessKind, db.committeeKind, db.platformKind}
}

// clearResignedVotes - drop edges to resigned targets then the
// targets themselves, a bounded number of edges per block
func (db *Database) clearResignedVotes(kind *voteKind) {
	processed := uint32(0)
	for {
		uid, sequence, ok := kind.resigned()
		if !ok {
			return
		}
		for _, e := range kind.edges.votersOf(uid, sequence) {
			if v := db.findVoter(e.VoterUID, e.VoterSequence); nil != v {
				db.voters.Modify(v, func(v *Voter) {
					*kind.counter(v) -= 1
				})
			}
			kind.edges.remove(e)
			processed += 1
			if processed >= kind.resignLimit {
				db.log.Infof("block: %d reached the limit removing votes for resigned %s", db.headBlockNum(), kind.name)
				return
			}
		}
		kind.removeResigned(uid, sequence)
	}
}

// votingAccount - statistics of an account allowed to vote now
func (db *Database) votingAccount(uid account.UID) (*AccountStatistics, error) {
	s, err := db.getStatistics(uid)
	if nil != err {
		return nil, err
	}
	if !s.CanVote {
		return nil, errors.Wrapf(fault.ErrAccountCannotVote, "account: %s", uid)
	}
	minimum := db.params().MinGovernanceVotingBalance
	if s.CoreBalance < int64(minimum) {
		return nil, errors.Wrapf(fault.ErrInsufficientVotes, "account: %s has: %d, needs: %d", uid, s.CoreBalance, minimum)
	}
	return s, nil
}

// voterState - the account's voter split into a usable voter and
// voters found to have expired
type voterState struct {
	stats        *AccountStatistics
	voter        *Voter
	invalidVoter *Voter
	invalidProxy *Voter
}

func (db *Database) loadVoterState(s *AccountStatistics) (*voterState, error) {
	state := &voterState{stats: s}
	if !s.IsVoter {
		return state, nil
	}
	v := db.findVoter(s.Owner, s.LastVoterSequence)
	if nil == v {
		fault.Panicf("ledger: voter missing for account: %s", s.Owner)
	}
	if !db.checkVoterValid(v, true) {
		state.invalidVoter = v
		return state, nil
	}
	state.voter = v
	if !v.IsSelfVoter() {
		proxy := db.findVoter(v.ProxyUID, v.ProxySequence)
		if nil == proxy {
			fault.Panicf("ledger: proxy of voter: %s missing", s.Owner)
		}
		if !db.checkVoterValid(proxy, true) {
			state.invalidProxy = proxy
		}
	}
	return state, nil
}

// settle - invalidate what evaluation found expired and detach the
// voter from a dead proxy
func (db *Database) settle(state *voterState) {
	if nil != state.invalidProxy {
		db.invalidateVoter(state.invalidProxy)
	}
	if nil != state.invalidVoter {
		db.invalidateVoter(state.invalidVoter)
	}
	if nil != state.voter && nil != state.invalidProxy {
		db.clearVoterProxyVotes(state.voter)
		db.voters.Modify(state.invalidProxy, func(p *Voter) {
			p.ProxiedVoters -= 1
		})
		db.voters.Modify(state.voter, func(v *Voter) {
			v.ProxyUID = account.ProxyToSelf
			v.ProxySequence = 0
		})
	}
}

// votePlan - a checked change to one kind of votes
type votePlan struct {
	*voterState
	kind   *voteKind
	stale  []VoteEdge
	remove []VoteEdge
	add    []VoteEdge
}

// planVoteUpdate - check a request to add and remove targets
func (db *Database) planVoteUpdate(kind *voteKind, voter account.UID, toAdd []account.UID, toRemove []account.UID) (*votePlan, error) {
	s, err := db.votingAccount(voter)
	if nil != err {
		return nil, err
	}
	limit := kind.limit(db.params())
	if len(toAdd) > int(limit) {
		return nil, errors.Wrapf(fault.ErrTooManyVotes, "voting for %d of %s, maximum: %d", len(toAdd), kind.name, limit)
	}

	resolve := func(uids []account.UID) ([]VoteEdge, error) {
		edges := make([]VoteEdge, 0, len(uids))
		for _, uid := range uids {
			seq, ok := kind.current(uid)
			if !ok {
				return nil, errors.Wrapf(kind.notFound, "%s: %s", kind.name, uid)
			}
			edges = append(edges, VoteEdge{VoterUID: voter, TargetUID: uid, TargetSequence: seq})
		}
		return edges, nil
	}
	remove, err := resolve(toRemove)
	if nil != err {
		return nil, err
	}
	add, err := resolve(toAdd)
	if nil != err {
		return nil, err
	}

	state, err := db.loadVoterState(s)
	if nil != err {
		return nil, err
	}
	plan := &votePlan{voterState: state, kind: kind, remove: remove, add: add}

	switch {
	case nil == state.voter:
		if 0 != len(remove) {
			return nil, errors.Wrapf(fault.ErrInvalidVoteChange, "account: %s is not voting for any %s", voter, kind.name)
		}
	case !state.voter.IsSelfVoter():
		if nil == state.invalidProxy && (0 != len(remove) || 0 != len(add)) {
			return nil, errors.Wrapf(fault.ErrCannotVoteWithProxy, "account: %s", voter)
		}
		if 0 != len(remove) {
			return nil, errors.Wrapf(fault.ErrInvalidVoteChange, "proxy of account: %s expired, nothing to remove", voter)
		}
	default:
		v := state.voter
		voted := int(*kind.counter(v))
		for _, e := range kind.edges.edgesOf(v.UID, v.Sequence) {
			if seq, ok := kind.current(e.TargetUID); !ok || seq != e.TargetSequence {
				plan.stale = append(plan.stale, e)
				voted -= 1
			}
		}
		if len(remove) > voted {
			return nil, errors.Wrapf(fault.ErrInvalidVoteChange, "removing %d of %s, voted: %d", len(remove), kind.name, voted)
		}
		total := voted - len(remove) + len(add)
		if total > int(limit) {
			return nil, errors.Wrapf(fault.ErrTooManyVotes, "voting for %d of %s, maximum: %d", total, kind.name, limit)
		}
		for i := range remove {
			remove[i].VoterSequence = v.Sequence
			if !kind.edges.has(remove[i]) {
				return nil, errors.Wrapf(fault.ErrInvalidVoteChange, "not voting for %s: %s", kind.name, remove[i].TargetUID)
			}
		}
		for i := range add {
			add[i].VoterSequence = v.Sequence
			if kind.edges.has(add[i]) {
				return nil, errors.Wrapf(fault.ErrInvalidVoteChange, "already voting for %s: %s", kind.name, add[i].TargetUID)
			}
		}
	}
	return plan, nil
}

// applyVoteUpdate - carry out a checked plan
func (db *Database) applyVoteUpdate(plan *votePlan) error {
	kind := plan.kind
	head := db.headBlockNum()

	db.settle(plan.voterState)

	total := int64(0)
	v := plan.voter
	if nil != v {
		for _, e := range plan.stale {
			kind.edges.remove(e)
		}
		total = int64(v.TotalVotes())
		for _, e := range plan.remove {
			kind.adjust(e.TargetUID, -total)
			kind.edges.remove(e)
		}
		db.voters.Modify(v, func(v *Voter) {
			v.ProxyLastVoteBlock[0] = head
			v.EffectiveLastVoteBlock = head
			n := kind.counter(v)
			*n = *n - uint16(len(plan.stale)) - uint16(len(plan.remove)) + uint16(len(plan.add))
		})
	} else {
		created, err := db.createVoter(plan.stats)
		if nil != err {
			return err
		}
		db.voters.Modify(created, func(v *Voter) {
			*kind.counter(v) = uint16(len(plan.add))
		})
		v = created
	}

	for _, e := range plan.add {
		e.VoterSequence = v.Sequence
		if err := kind.edges.add(e); nil != err {
			return err
		}
		if total > 0 {
			kind.adjust(e.TargetUID, total)
		}
	}
	return nil
}

// proxyPlan - a checked change of proxy
type proxyPlan struct {
	*voterState
	proxy *Voter
}

// planProxyUpdate - check a change of proxy
//
// the new proxy must be a valid voter and the resulting chain must
// fit in the proxied vote levels
func (db *Database) planProxyUpdate(voter account.UID, proxy account.UID) (*proxyPlan, error) {
	s, err := db.votingAccount(voter)
	if nil != err {
		return nil, err
	}
	if voter == proxy {
		return nil, errors.Wrapf(fault.ErrInvalidProxy, "account: %s can not proxy to itself", voter)
	}

	state, err := db.loadVoterState(s)
	if nil != err {
		return nil, err
	}
	plan := &proxyPlan{voterState: state}

	current := account.ProxyToSelf
	if nil != state.voter && nil == state.invalidProxy {
		current = state.voter.ProxyUID
	}
	if current == proxy {
		return nil, errors.Wrapf(fault.ErrNoChange, "account: %s proxy: %s", voter, proxy)
	}
	if account.ProxyToSelf == proxy {
		return plan, nil
	}

	p := db.currentVoter(proxy)
	if nil == p || !db.checkVoterValid(p, true) {
		return nil, errors.Wrapf(fault.ErrVoterInvalid, "proxy: %s", proxy)
	}
	maxLevel := int(db.params().MaxGovernanceVotingProxyLevel)
	for c := p; !c.IsSelfVoter(); {
		if c.ProxyUID == voter {
			return nil, errors.Wrapf(fault.ErrInvalidProxy, "proxy: %s leads back to account: %s", proxy, voter)
		}
		c = db.findVoter(c.ProxyUID, c.ProxySequence)
		if nil == c {
			break
		}
	}
	depth := db.proxyChainDepth(p)
	if depth > maxLevel-1 {
		return nil, errors.Wrapf(fault.ErrProxyDepth, "proxy: %s depth: %d, maximum: %d", proxy, depth, maxLevel-1)
	}
	if nil != state.voter {
		height := state.voter.subtreeHeight()
		if depth+1+height > maxLevel {
			return nil, errors.Wrapf(fault.ErrProxyDepth, "proxy: %s depth: %d, voters below: %d, maximum: %d", proxy, depth, height, maxLevel)
		}
	}
	plan.proxy = p
	return plan, nil
}

// applyProxyUpdate - carry out a checked proxy change
func (db *Database) applyProxyUpdate(plan *proxyPlan) error {
	head := db.headBlockNum()

	db.settle(plan.voterState)

	v := plan.voter
	if nil != v {
		if nil == plan.invalidProxy {
			db.clearVoterVotes(v)
			if !v.IsSelfVoter() {
				old := db.findVoter(v.ProxyUID, v.ProxySequence)
				if nil != old {
					db.voters.Modify(old, func(p *Voter) {
						p.ProxiedVoters -= 1
					})
				}
			}
		}
	} else {
		created, err := db.createVoter(plan.stats)
		if nil != err {
			return err
		}
		v = created
	}

	db.voters.Modify(v, func(v *Voter) {
		v.ProxyUID = account.ProxyToSelf
		v.ProxySequence = 0
		if nil != plan.proxy {
			v.ProxyUID = plan.proxy.UID
			v.ProxySequence = plan.proxy.Sequence
		}
		v.ProxyLastVoteBlock[0] = head
		v.updateEffectiveLastVoteBlock()
	})
	if nil == plan.proxy {
		return nil
	}

	db.voters.Modify(plan.proxy, func(p *Voter) {
		p.ProxiedVoters += 1
	})
	maxLevel := int(db.params().MaxGovernanceVotingProxyLevel)
	delta := make([]int64, maxLevel)
	delta[0] = int64(v.EffectiveVotes)
	for i := 1; i < maxLevel; i += 1 {
		delta[i] = int64(v.ProxiedVotes[i-1])
	}
	db.adjustVoterProxyVotes(v, delta, true)
	return nil
}
