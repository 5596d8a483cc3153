// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// timeWeighted - move a time weighted average toward its target
//
// returns the new average, whether the last update time becomes now
// and whether a further update must be scheduled
func timeWeighted(average uint64, target uint64, targetLastUpdate protocol.Timestamp, lastUpdate protocol.Timestamp, now protocol.Timestamp, window uint64) (uint64, bool, bool) {
	switch {
	case average == target:
		return average, true, false
	case average > target || uint64(now) >= uint64(targetLastUpdate)+window:
		return target, true, false
	case now > lastUpdate:
		delta := uint64(now - lastUpdate)
		old := uint128.From64(average).Mul64(window - delta)
		add := uint128.From64(target).Mul64(delta)
		return old.Add(add).Div64(window).Lo, true, true
	default:
		return average, false, true
	}
}

// updateVoterEffectiveVotes - decay effective votes toward the raw
// votes and push any change through the proxy chain
func (db *Database) updateVoterEffectiveVotes(v *Voter) {
	params := db.params()
	now := db.headBlockTime()
	old := v.EffectiveVotes

	effective, touched, pending := timeWeighted(v.EffectiveVotes, v.Votes, v.VotesLastUpdate, v.EffectiveVotesLastUpdate, now, params.MaxGovernanceVotesSeconds)
	db.voters.Modify(v, func(v *Voter) {
		v.EffectiveVotes = effective
		if touched {
			v.EffectiveVotesLastUpdate = now
		}
		if pending {
			v.EffectiveVotesNextUpdateBlock = db.headBlockNum() + params.GovernanceVotesUpdateInterval
		} else {
			v.EffectiveVotesNextUpdateBlock = constants.NeverBlock
		}
	})

	if old != effective {
		db.adjustVoterVotes(v, int64(effective)-int64(old))
	}
}

// adjustVoterVotes - add a change of own votes at every hop of the
// proxy chain, then to the targets of the self voter at its root
func (db *Database) adjustVoterVotes(v *Voter, delta int64) {
	maxLevel := int(db.params().MaxGovernanceVotingProxyLevel)

	current := v
	level := 0
	for !current.IsSelfVoter() && level < maxLevel {
		current = db.findVoter(current.ProxyUID, current.ProxySequence)
		if nil == current {
			fault.Panicf("ledger: proxy of voter: %s missing", v.UID)
		}
		l := level
		db.voters.Modify(current, func(p *Voter) {
			p.ProxiedVotes[l] = uint64(int64(p.ProxiedVotes[l]) + delta)
		})
		level += 1
	}
	if current.IsSelfVoter() {
		db.adjustVoterSelfVotes(current, delta)
	}
}

// adjustVoterSelfVotes - apply a change to every target of a self
// voter, pruning edges to targets whose sequence moved on
func (db *Database) adjustVoterSelfVotes(v *Voter, delta int64) {
	for _, kind := range db.voteKinds {
		removed := uint16(0)
		for _, e := range kind.edges.edgesOf(v.UID, v.Sequence) {
			if seq, ok := kind.current(e.TargetUID); ok && seq == e.TargetSequence {
				kind.adjust(e.TargetUID, delta)
				continue
			}
			kind.edges.remove(e)
			removed += 1
		}
		if removed > 0 {
			db.voters.Modify(v, func(v *Voter) {
				*kind.counter(v) -= removed
			})
		}
	}
}

// adjustVoterProxyVotes - push per level changes up the chain
//
// delta[0] is the change to the voter's own effective votes and
// delta[i] the change to the votes proxied to it from i levels below;
// with updateLastVote the last vote blocks are copied back down the
// chain
func (db *Database) adjustVoterProxyVotes(v *Voter, delta []int64, updateLastVote bool) {
	maxLevel := int(db.params().MaxGovernanceVotingProxyLevel)

	current := v
	level := 0
	chain := []*Voter{}
	if updateLastVote {
		chain = append(chain, current)
	}
	for level < maxLevel {
		current = db.findVoter(current.ProxyUID, current.ProxySequence)
		if nil == current {
			fault.Panicf("ledger: proxy of voter: %s missing", v.UID)
		}
		if updateLastVote {
			chain = append(chain, current)
		}
		l := level
		db.voters.Modify(current, func(p *Voter) {
			for j := l; j < maxLevel; j += 1 {
				p.ProxiedVotes[j] = uint64(int64(p.ProxiedVotes[j]) + delta[j-l])
			}
		})
		if current.IsSelfVoter() {
			break
		}
		level += 1
	}

	for i := len(chain) - 1; i > 0; i -= 1 {
		upper := chain[i]
		db.voters.Modify(chain[i-1], func(v *Voter) {
			for j := 1; j <= maxLevel; j += 1 {
				v.ProxyLastVoteBlock[j] = upper.ProxyLastVoteBlock[j-1]
			}
			v.updateEffectiveLastVoteBlock()
		})
	}

	if current.IsSelfVoter() {
		total := int64(0)
		for j := level; j < maxLevel; j += 1 {
			total += delta[j-level]
		}
		db.adjustVoterSelfVotes(current, total)
	}
}

// clearVoterTargetVotes - drop every edge of one kind
func (db *Database) clearVoterTargetVotes(v *Voter, kind *voteKind) {
	votes := int64(v.TotalVotes())
	for _, e := range kind.edges.edgesOf(v.UID, v.Sequence) {
		if seq, ok := kind.current(e.TargetUID); ok && seq == e.TargetSequence {
			kind.adjust(e.TargetUID, -votes)
		}
		kind.edges.remove(e)
	}
	db.voters.Modify(v, func(v *Voter) {
		*kind.counter(v) = 0
	})
}

// clearVoterProxyVotes - take everything the voter carries out of
// its proxy chain
func (db *Database) clearVoterProxyVotes(v *Voter) {
	if v.IsSelfVoter() {
		fault.Panicf("ledger: voter: %s has no proxy", v.UID)
	}
	maxLevel := int(db.params().MaxGovernanceVotingProxyLevel)
	delta := make([]int64, maxLevel)
	delta[0] = -int64(v.EffectiveVotes)
	for i := 1; i < maxLevel; i += 1 {
		delta[i] = -int64(v.ProxiedVotes[i-1])
	}
	db.adjustVoterProxyVotes(v, delta, true)
}

// clearVoterVotes - remove all influence of a voter
func (db *Database) clearVoterVotes(v *Voter) {
	if !v.IsSelfVoter() {
		db.clearVoterProxyVotes(v)
		return
	}
	for _, kind := range db.voteKinds {
		db.clearVoterTargetVotes(v, kind)
	}
}

// invalidateVoter - the voter stops counting until it votes again
func (db *Database) invalidateVoter(v *Voter) {
	if !v.IsValid {
		return
	}
	db.clearVoterVotes(v)

	if !v.IsSelfVoter() {
		proxy := db.findVoter(v.ProxyUID, v.ProxySequence)
		if nil != proxy {
			db.voters.Modify(proxy, func(p *Voter) {
				p.ProxiedVoters -= 1
			})
		}
	}

	db.statistics.Modify(db.stats(v.UID), func(s *AccountStatistics) {
		s.IsVoter = false
	})

	now := db.headBlockTime()
	db.voters.Modify(v, func(v *Voter) {
		v.IsValid = false
		v.Votes = 0
		v.VotesLastUpdate = now
		v.EffectiveVotes = 0
		v.EffectiveVotesLastUpdate = now
		v.EffectiveVotesNextUpdateBlock = constants.NeverBlock
		v.ProxyUID = account.ProxyToSelf
		v.ProxySequence = 0
	})
	db.log.Debugf("invalidated voter: %s sequence: %d", v.UID, v.Sequence)
}

// checkVoterValid - with deep set, a valid flag is confirmed against
// the last vote blocks along the proxy chain
func (db *Database) checkVoterValid(v *Voter, deep bool) bool {
	if !deep || !v.IsValid {
		return v.IsValid
	}

	params := db.params()
	head := db.headBlockNum()
	if head < params.GovernanceVotingExpirationBlocks {
		return true
	}
	oldest := head - params.GovernanceVotingExpirationBlocks

	current := v
	for level := int(params.MaxGovernanceVotingProxyLevel); ; level -= 1 {
		for i := 0; i <= level && i < len(current.ProxyLastVoteBlock); i += 1 {
			if current.ProxyLastVoteBlock[i] > oldest {
				return true
			}
		}
		if current.IsSelfVoter() || 0 == level {
			return false
		}
		current = db.findVoter(current.ProxyUID, current.ProxySequence)
		if nil == current {
			return false
		}
	}
}

// processInvalidProxiedVoters - move voters that proxied to an
// invalid voter back to themselves, returns the number handled
//
// the proxy is removed once nothing points at it
func (db *Database) processInvalidProxiedVoters(proxy *Voter, max uint32) uint32 {
	if 0 == max {
		return 0
	}
	if proxy.IsValid {
		fault.Panicf("ledger: proxy: %s is still valid", proxy.UID)
	}

	params := db.params()
	maxLevel := int(params.MaxGovernanceVotingProxyLevel)
	head := db.headBlockNum()
	now := db.headBlockTime()

	processed := uint32(0)
	for _, v := range db.voterByProxy.Prefix(proxy.UID, proxy.Sequence) {
		if processed >= max {
			break
		}
		processed += 1
		wasValid := v.IsValid
		db.voters.Modify(v, func(v *Voter) {
			for i := 1; i <= maxLevel; i += 1 {
				v.ProxyLastVoteBlock[i] = proxy.ProxyLastVoteBlock[i-1]
			}
			v.updateEffectiveLastVoteBlock()
			if v.IsValid && v.EffectiveLastVoteBlock+params.GovernanceVotingExpirationBlocks <= head {
				v.IsValid = false
				v.Votes = 0
				v.VotesLastUpdate = now
				v.EffectiveVotes = 0
				v.EffectiveVotesLastUpdate = now
				v.EffectiveVotesNextUpdateBlock = constants.NeverBlock
			}
			v.ProxyUID = account.ProxyToSelf
			v.ProxySequence = 0
		})
		if wasValid && !v.IsValid {
			db.statistics.Modify(db.stats(v.UID), func(s *AccountStatistics) {
				s.IsVoter = false
			})
		}
	}

	if processed > 0 {
		db.voters.Modify(proxy, func(p *Voter) {
			p.ProxiedVoters -= processed
		})
	}
	if 0 == proxy.ProxiedVoters || 0 == processed {
		db.voters.Remove(proxy)
	}
	return processed
}

// updateScheduledVoters - decay every voter whose update is due
func (db *Database) updateScheduledVoters() {
	head := db.headBlockNum()
	for {
		it := db.voterByNextUpdate.First()
		if !it.Valid() || it.Value().EffectiveVotesNextUpdateBlock > head {
			return
		}
		db.updateVoterEffectiveVotes(it.Value())
	}
}

// invalidateExpiredVoters - self voters that have not voted within
// the expiration window
func (db *Database) invalidateExpiredVoters() {
	params := db.params()
	head := db.headBlockNum()
	if head < params.GovernanceVotingExpirationBlocks {
		return
	}
	oldest := head - params.GovernanceVotingExpirationBlocks

	expired := db.voterByLastVote.Range(
		objectdb.Key(true, account.ProxyToSelf, uint32(0)),
		objectdb.Key(true, account.ProxyToSelf, oldest+1),
	)
	for _, v := range expired {
		db.invalidateVoter(v)
	}
	if 0 != len(expired) {
		db.log.Infof("invalidated %d expired voters", len(expired))
	}
}

// processInvalidVoters - release the voters of invalid proxies, a
// bounded number per block
func (db *Database) processInvalidVoters() {
	max := uint32(constants.MaxExpiredVotersToProcessPerBlock)
	processed := uint32(0)
	for processed < max {
		proxy := db.voterByValid.Find(objectdb.Key(false))
		if nil == proxy {
			return
		}
		processed += db.processInvalidProxiedVoters(proxy, max-processed)
	}
	db.log.Infof("block: %d reached the limit processing invalid voters", db.headBlockNum())
}

// createVoter - start a new voter for an account
func (db *Database) createVoter(s *AccountStatistics) (*Voter, error) {
	params := db.params()
	head := db.headBlockNum()
	now := db.headBlockTime()
	maxLevel := int(params.MaxGovernanceVotingProxyLevel)

	db.statistics.Modify(s, func(s *AccountStatistics) {
		s.IsVoter = true
		s.LastVoterSequence += 1
	})
	return db.voters.Create(func(v *Voter) {
		v.UID = s.Owner
		v.Sequence = s.LastVoterSequence
		v.IsValid = true
		v.Votes = uint64(s.CoreBalance)
		v.VotesLastUpdate = now
		v.EffectiveVotesLastUpdate = now
		v.EffectiveVotesNextUpdateBlock = head + params.GovernanceVotesUpdateInterval
		v.ProxyUID = account.ProxyToSelf
		v.ProxiedVotes = make([]uint64, maxLevel)
		v.ProxyLastVoteBlock = make([]uint32, maxLevel+1)
		v.ProxyLastVoteBlock[0] = head
		v.EffectiveLastVoteBlock = head
	})
}

// proxyChainDepth - number of proxies above a voter
func (db *Database) proxyChainDepth(v *Voter) int {
	depth := 0
	for current := v; !current.IsSelfVoter(); depth += 1 {
		current = db.findVoter(current.ProxyUID, current.ProxySequence)
		if nil == current {
			break
		}
	}
	return depth
}

// adjustCommitteeMemberVotes - only a valid member accumulates votes
func (db *Database) adjustCommitteeMemberVotes(m *CommitteeMember, delta int64) {
	if 0 == delta || !m.IsValid {
		return
	}
	db.members.Modify(m, func(m *CommitteeMember) {
		m.Votes = uint64(int64(m.Votes) + delta)
	})
}

// adjustPlatformVotes - only a valid platform accumulates votes
func (db *Database) adjustPlatformVotes(p *Platform, delta int64) {
	if 0 == delta || !p.IsValid {
		return
	}
	db.platforms.Modify(p, func(p *Platform) {
		p.TotalVotes = uint64(int64(p.TotalVotes) + delta)
	})
}
