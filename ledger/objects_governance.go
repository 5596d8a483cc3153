// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// Witness - a block producer candidate
type Witness struct {
	objectdb.Base
	Account    account.UID
	Sequence   uint32
	IsValid    bool
	SigningKey keypair.PublicKey
	URL        string

	Pledge                       uint64
	PledgeLastUpdate             protocol.Timestamp
	AveragePledge                uint64
	AveragePledgeLastUpdate      protocol.Timestamp
	AveragePledgeNextUpdateBlock uint32

	TotalVotes uint64

	ByPledgePosition           uint128.Uint128
	ByPledgePositionLastUpdate uint128.Uint128
	ByPledgeScheduledTime      uint128.Uint128
	ByVotePosition             uint128.Uint128
	ByVotePositionLastUpdate   uint128.Uint128
	ByVoteScheduledTime        uint128.Uint128

	LastConfirmedBlockNum uint32
	LastAslot             uint64
	TotalProduced         uint64
	TotalMissed           uint64

	CanPledge               bool
	BonusRate               uint16
	TotalMiningPledge       uint64
	BonusPerPledge          map[uint32]uint64
	UnhandledBonus          uint64
	NeedDistributeBonus     uint64
	AlreadyDistributedBonus uint64
	LastUpdateBonusBlockNum uint32
}

// DeepCopy - detach the bonus history
func (w *Witness) DeepCopy() {
	if nil == w.BonusPerPledge {
		return
	}
	n := make(map[uint32]uint64, len(w.BonusPerPledge))
	for k, v := range w.BonusPerPledge {
		n[k] = v
	}
	w.BonusPerPledge = n
}

// pledgeWeight - the by-pledge queue speed
func (w *Witness) pledgeWeight() uint64 {
	return w.AveragePledge + w.TotalMiningPledge + 1
}

// bonusBlocks - settlement points in ascending order
func (w *Witness) bonusBlocks() []uint32 {
	blocks := make([]uint32, 0, len(w.BonusPerPledge))
	for b := range w.BonusPerPledge {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	return blocks
}

// lastBonusBlock - most recent settlement point, zero if none
func (w *Witness) lastBonusBlock() uint32 {
	last := uint32(0)
	for b := range w.BonusPerPledge {
		if b > last {
			last = b
		}
	}
	return last
}

// CommitteeMember - a governance committee candidate
type CommitteeMember struct {
	objectdb.Base
	Account  account.UID
	Sequence uint32
	IsValid  bool
	Pledge   uint64
	Votes    uint64
	URL      string
}

// CommitteeProposal - a set of parameter or privilege changes voted
// on by the active committee
type CommitteeProposal struct {
	objectdb.Base
	ProposedBy            account.UID
	ProposalNumber        uint64
	Items                 protocol.ProposalItemList
	VotingClosingBlockNum uint32
	ExecutionBlockNum     uint32
	ExpirationBlockNum    uint32
	VotingThreshold       uint16
	IsApproved            bool
	OpinionRecord         map[account.UID]protocol.VotingOpinion
}

// DeepCopy - detach the opinions
func (p *CommitteeProposal) DeepCopy() {
	n := make(map[account.UID]protocol.VotingOpinion, len(p.OpinionRecord))
	for k, v := range p.OpinionRecord {
		n[k] = v
	}
	p.OpinionRecord = n
}

// Platform - a content platform run by an account
type Platform struct {
	objectdb.Base
	Owner     account.UID
	Sequence  uint32
	IsValid   bool
	Name      string
	URL       string
	ExtraData string

	Pledge                       uint64
	PledgeLastUpdate             protocol.Timestamp
	AveragePledge                uint64
	AveragePledgeLastUpdate      protocol.Timestamp
	AveragePledgeNextUpdateBlock uint32

	TotalVotes     uint64
	CreateTime     protocol.Timestamp
	LastUpdateTime protocol.Timestamp
}

// Voter - governance weight of an account
//
// ProxiedVotes[i] holds the votes delegated from voters i+1 hops
// below this one
type Voter struct {
	objectdb.Base
	UID      account.UID
	Sequence uint32
	IsValid  bool

	Votes                         uint64
	VotesLastUpdate               protocol.Timestamp
	EffectiveVotes                uint64
	EffectiveVotesLastUpdate      protocol.Timestamp
	EffectiveVotesNextUpdateBlock uint32

	ProxyUID      account.UID
	ProxySequence uint32
	ProxiedVoters uint32
	ProxiedVotes  []uint64

	ProxyLastVoteBlock     []uint32
	EffectiveLastVoteBlock uint32

	NumberOfWitnessesVoted        uint16
	NumberOfCommitteeMembersVoted uint16
	NumberOfPlatformsVoted        uint16
}

// DeepCopy - detach the level arrays
func (v *Voter) DeepCopy() {
	v.ProxiedVotes = append([]uint64(nil), v.ProxiedVotes...)
	v.ProxyLastVoteBlock = append([]uint32(nil), v.ProxyLastVoteBlock...)
}

// IsSelfVoter - votes directly rather than through a proxy
func (v *Voter) IsSelfVoter() bool {
	return account.ProxyToSelf == v.ProxyUID
}

// TotalVotes - own effective votes plus everything proxied in
func (v *Voter) TotalVotes() uint64 {
	total := v.EffectiveVotes
	for _, p := range v.ProxiedVotes {
		total += p
	}
	return total
}

// updateEffectiveLastVoteBlock - the oldest of its own and the
// proxied last vote blocks still counts as activity
func (v *Voter) updateEffectiveLastVoteBlock() {
	last := uint32(0)
	for _, b := range v.ProxyLastVoteBlock {
		if b > last {
			last = b
		}
	}
	v.EffectiveLastVoteBlock = last
}

// subtreeHeight - number of proxy levels below this voter
func (v *Voter) subtreeHeight() int {
	for i := len(v.ProxiedVotes) - 1; i >= 0; i -= 1 {
		if 0 != v.ProxiedVotes[i] {
			return i + 1
		}
	}
	if 0 != v.ProxiedVoters {
		return 1
	}
	return 0
}

// VoteEdge - a vote from a voter to a witness, committee member or
// platform, stale once either sequence changes
type VoteEdge struct {
	objectdb.Base
	VoterUID       account.UID
	VoterSequence  uint32
	TargetUID      account.UID
	TargetSequence uint32
}

// WitnessVote - vote for a witness
type WitnessVote struct{ VoteEdge }

// CommitteeMemberVote - vote for a committee member
type CommitteeMemberVote struct{ VoteEdge }

// PlatformVote - vote for a platform
type PlatformVote struct{ VoteEdge }

// PledgeType - what a pledge is locked for
type PledgeType uint8

// pledge types
const (
	WitnessPledge PledgeType = iota
	CommitteePledge
	PlatformPledge
	LockPledge
	MinePledge
)

// String - pledge name
func (t PledgeType) String() string {
	switch t {
	case WitnessPledge:
		return "witness"
	case CommitteePledge:
		return "committee"
	case PlatformPledge:
		return "platform"
	case LockPledge:
		return "lock"
	case MinePledge:
		return "mine"
	}
	return "unknown"
}

// PledgeRelease - an amount freed at a block
type PledgeRelease struct {
	Block  uint32
	Amount int64
}

// PledgeBalance - locked core balance of one kind
//
// the pledged amount stays in the core balance, it is only excluded
// from what the owner can spend; a decrease is held until the
// release block
type PledgeBalance struct {
	objectdb.Base
	Owner                account.UID
	Type                 PledgeType
	Superior             account.UID
	AssetID              protocol.AssetAID
	Pledge               int64
	TotalReleasingPledge int64
	Releasing            []PledgeRelease
}

// DeepCopy - detach the release queue
func (p *PledgeBalance) DeepCopy() {
	p.Releasing = append([]PledgeRelease(nil), p.Releasing...)
}

// Total - pledged and still releasing
func (p *PledgeBalance) Total() int64 {
	return p.Pledge + p.TotalReleasingPledge
}

// NextRelease - block of the earliest pending release
func (p *PledgeBalance) NextRelease() uint32 {
	if 0 == len(p.Releasing) {
		return constants.NeverBlock
	}
	return p.Releasing[0].Block
}

// Update - set a new pledge
//
// an increase first takes back the most recent releases, a decrease
// queues the difference for release at the given block
func (p *PledgeBalance) Update(newPledge int64, releaseBlock uint32) {
	switch {
	case newPledge > p.Pledge:
		delta := newPledge - p.Pledge
		for delta > 0 && 0 != len(p.Releasing) {
			n := len(p.Releasing) - 1
			last := &p.Releasing[n]
			if last.Amount <= delta {
				delta -= last.Amount
				p.TotalReleasingPledge -= last.Amount
				p.Releasing = p.Releasing[:n]
			} else {
				last.Amount -= delta
				p.TotalReleasingPledge -= delta
				delta = 0
			}
		}
	case newPledge < p.Pledge:
		delta := p.Pledge - newPledge
		p.TotalReleasingPledge += delta
		n := len(p.Releasing)
		switch {
		case 0 != n && p.Releasing[n-1].Block == releaseBlock:
			p.Releasing[n-1].Amount += delta
		case 0 != n && p.Releasing[n-1].Block > releaseBlock:
			i := sort.Search(n, func(i int) bool { return p.Releasing[i].Block >= releaseBlock })
			if p.Releasing[i].Block == releaseBlock {
				p.Releasing[i].Amount += delta
			} else {
				p.Releasing = append(p.Releasing, PledgeRelease{})
				copy(p.Releasing[i+1:], p.Releasing[i:])
				p.Releasing[i] = PledgeRelease{Block: releaseBlock, Amount: delta}
			}
		default:
			p.Releasing = append(p.Releasing, PledgeRelease{Block: releaseBlock, Amount: delta})
		}
	}
	p.Pledge = newPledge
}

// Release - drop releases due at or before the block, returns the
// amount freed
func (p *PledgeBalance) Release(block uint32) int64 {
	freed := int64(0)
	i := 0
	for ; i < len(p.Releasing) && p.Releasing[i].Block <= block; i += 1 {
		freed += p.Releasing[i].Amount
	}
	p.Releasing = p.Releasing[i:]
	p.TotalReleasingPledge -= freed
	return freed
}

// ReduceReleasing - take an amount out of the pending releases,
// newest first
func (p *PledgeBalance) ReduceReleasing(amount int64) {
	for amount > 0 && 0 != len(p.Releasing) {
		n := len(p.Releasing) - 1
		last := &p.Releasing[n]
		if last.Amount <= amount {
			amount -= last.Amount
			p.TotalReleasingPledge -= last.Amount
			p.Releasing = p.Releasing[:n]
		} else {
			last.Amount -= amount
			p.TotalReleasingPledge -= amount
			amount = 0
		}
	}
}

// PledgeMining - core pledged by an account to a witness
type PledgeMining struct {
	objectdb.Base
	PledgeAccount     account.UID
	Witness           account.UID
	Pledge            int64
	LastBonusBlockNum uint32
}
