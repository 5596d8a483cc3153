// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package noncons - indexes kept outside consensus
//
// ballots cast on custom votes and the net balance flow of each
// account, both fed by ledger signals
package noncons

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

// VoteKey - identifies a custom vote
type VoteKey struct {
	Creator account.UID
	VID     uint64
}

// Flow - net change of one asset for one account
type Flow struct {
	Asset       protocol.AssetAID `json:"asset_id"`
	Net         int64             `json:"net"`
	Adjustments uint64            `json:"adjustments"`
}

// Index - the non-consensus state
type Index struct {
	sync.RWMutex

	log     *logger.L
	ballots map[VoteKey]map[account.UID][]uint8
	flows   map[account.UID]map[protocol.AssetAID]*Flow
}

// New - empty index
func New() *Index {
	return &Index{
		log:     logger.New("noncons"),
		ballots: make(map[VoteKey]map[account.UID][]uint8),
		flows:   make(map[account.UID]map[protocol.AssetAID]*Flow),
	}
}

// AppliedBlock - not used
func (x *Index) AppliedBlock(block *protocol.SignedBlock, history []ledger.OperationHistory) {}

// ObjectsChanged - not used
func (x *Index) ObjectsChanged(objects ledger.ChangedObjects) {}

// BalanceAdjusted - accumulate the flow of each account
func (x *Index) BalanceAdjusted(adjustments []ledger.BalanceAdjustment) {
	x.Lock()
	defer x.Unlock()

	for _, a := range adjustments {
		assets := x.flows[a.Account]
		if nil == assets {
			assets = make(map[protocol.AssetAID]*Flow)
			x.flows[a.Account] = assets
		}
		f := assets[a.Delta.AssetID]
		if nil == f {
			f = &Flow{Asset: a.Delta.AssetID}
			assets[a.Delta.AssetID] = f
		}
		f.Net += a.Delta.Amount
		f.Adjustments += 1
	}
}

// UpdateNonConsensusIndex - record the latest ballot of each voter
func (x *Index) UpdateNonConsensusIndex(ops []protocol.Operation) {
	x.Lock()
	defer x.Unlock()

	for _, op := range ops {
		switch cast := op.(type) {
		case *protocol.CustomVoteCast:
			key := VoteKey{Creator: cast.CustomVoteCreator, VID: cast.CustomVoteVID}
			voters := x.ballots[key]
			if nil == voters {
				voters = make(map[account.UID][]uint8)
				x.ballots[key] = voters
			}
			voters[cast.Voter] = append([]uint8(nil), cast.VoteResult...)
		default:
			if nil != x.log {
				x.log.Warnf("unexpected operation: %T", op)
			}
		}
	}
}

// Ballot - the options a voter selected, nil if none
func (x *Index) Ballot(key VoteKey, voter account.UID) []uint8 {
	x.RLock()
	defer x.RUnlock()
	return append([]uint8(nil), x.ballots[key][voter]...)
}

// Voters - accounts that voted, in uid order
func (x *Index) Voters(key VoteKey) []account.UID {
	x.RLock()
	defer x.RUnlock()

	voters := make([]account.UID, 0, len(x.ballots[key]))
	for uid := range x.ballots[key] {
		voters = append(voters, uid)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i] < voters[j] })
	return voters
}

// Tally - number of voters selecting each option
func (x *Index) Tally(key VoteKey) map[uint8]uint64 {
	x.RLock()
	defer x.RUnlock()

	tally := make(map[uint8]uint64)
	for _, options := range x.ballots[key] {
		for _, o := range options {
			tally[o] += 1
		}
	}
	return tally
}

// Flows - net change of every asset an account has held, in asset
// order
func (x *Index) Flows(uid account.UID) []Flow {
	x.RLock()
	defer x.RUnlock()

	result := make([]Flow, 0, len(x.flows[uid]))
	for _, f := range x.flows[uid] {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Asset < result[j].Asset })
	return result
}
