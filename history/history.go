// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package history

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

// DefaultMaxOpsPerAccount - kept when the configuration gives none
const DefaultMaxOpsPerAccount = 1000

// Entry - one operation in an account's history
type Entry struct {
	Sequence uint64 `json:"sequence"`
	ledger.OperationHistory
}

type accountHistory struct {
	next    uint64
	entries []Entry // oldest first
}

// Index - the most recent operations of each account
type Index struct {
	sync.RWMutex

	log        *logger.L
	maxOps     int
	height     uint32
	operations uint64
	accounts   map[account.UID]*accountHistory
}

// New - empty index keeping at most maxOps entries per account
func New(maxOps int) *Index {
	if maxOps <= 0 {
		maxOps = DefaultMaxOpsPerAccount
	}
	return &Index{
		log:      logger.New("history"),
		maxOps:   maxOps,
		accounts: make(map[account.UID]*accountHistory),
	}
}

// AppliedBlock - record every operation against the accounts it names
//
// a block at or below an already recorded height replaces what was
// recorded for that height and above
func (x *Index) AppliedBlock(block *protocol.SignedBlock, history []ledger.OperationHistory) {
	x.Lock()
	defer x.Unlock()

	number := block.BlockNum()
	if number <= x.height {
		for _, h := range x.accounts {
			h.truncate(number)
		}
	}
	x.height = number

	for _, oh := range history {
		for _, uid := range ImpactedAccounts(oh.Op) {
			x.add(uid, oh)
		}
		x.operations += 1
	}
	if nil != x.log && len(history) > 0 {
		x.log.Debugf("block: %d  operations: %d", number, len(history))
	}
}

// ObjectsChanged - not used
func (x *Index) ObjectsChanged(objects ledger.ChangedObjects) {}

// BalanceAdjusted - not used
func (x *Index) BalanceAdjusted(adjustments []ledger.BalanceAdjustment) {}

// UpdateNonConsensusIndex - not used
func (x *Index) UpdateNonConsensusIndex(ops []protocol.Operation) {}

// internal: must hold lock
func (x *Index) add(uid account.UID, oh ledger.OperationHistory) {
	h := x.accounts[uid]
	if nil == h {
		h = &accountHistory{}
		x.accounts[uid] = h
	}
	h.entries = append(h.entries, Entry{
		Sequence:         h.next,
		OperationHistory: oh,
	})
	h.next += 1

	if n := len(h.entries) - x.maxOps; n > 0 {
		h.entries = append([]Entry(nil), h.entries[n:]...)
	}
}

// drop entries from a block number onwards
func (h *accountHistory) truncate(number uint32) {
	i := len(h.entries)
	for i > 0 && h.entries[i-1].BlockNum >= number {
		i -= 1
	}
	if i == len(h.entries) {
		return
	}
	h.next = h.entries[i].Sequence
	h.entries = h.entries[:i]
}

// Get - up to limit entries of an account, newest first, starting at
// a sequence number; a start beyond the newest returns from the newest
func (x *Index) Get(uid account.UID, start uint64, limit int) []Entry {
	x.RLock()
	defer x.RUnlock()

	h := x.accounts[uid]
	if nil == h || 0 == len(h.entries) || limit <= 0 {
		return nil
	}

	first := h.entries[0].Sequence
	if start < first {
		return nil
	}
	i := len(h.entries) - 1
	if start < h.entries[i].Sequence {
		i = int(start - first)
	}

	result := make([]Entry, 0, limit)
	for ; i >= 0 && len(result) < limit; i -= 1 {
		result = append(result, h.entries[i])
	}
	return result
}

// Count - operations ever recorded for an account, including those
// dropped by the cap
func (x *Index) Count(uid account.UID) uint64 {
	x.RLock()
	defer x.RUnlock()

	if h := x.accounts[uid]; nil != h {
		return h.next
	}
	return 0
}

// Operations - total operations seen
func (x *Index) Operations() uint64 {
	x.RLock()
	defer x.RUnlock()
	return x.operations
}
