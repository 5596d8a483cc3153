// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// OperationHistory - one applied operation as seen by observers
type OperationHistory struct {
	BlockNum   uint32                   `json:"block_num"`
	TrxInBlock uint16                   `json:"trx_in_block"`
	OpInTrx    uint16                   `json:"op_in_trx"`
	VirtualOp  uint16                   `json:"virtual_op"`
	Op         protocol.Operation       `json:"op"`
	Result     protocol.OperationResult `json:"result"`
	Timestamp  protocol.Timestamp       `json:"timestamp"`
}

// BalanceAdjustment - a change to one account's holding of an asset
type BalanceAdjustment struct {
	Account account.UID
	Delta   protocol.Asset
}

// ChangedObjects - ids touched by a block or transaction
type ChangedObjects struct {
	Created []objectdb.ID
	Changed []objectdb.ID
	Removed []objectdb.ID
}

// Observer - receives the results of each applied block
//
// the calls are made after the database lock is released, in the
// order they are declared here; an observer must never modify the
// chain state
type Observer interface {
	AppliedBlock(block *protocol.SignedBlock, history []OperationHistory)
	ObjectsChanged(objects ChangedObjects)
	BalanceAdjusted(adjustments []BalanceAdjustment)
	UpdateNonConsensusIndex(ops []protocol.Operation)
}

// AddObserver - register for signals
func (db *Database) AddObserver(o Observer) {
	db.Lock()
	db.observers = append(db.observers, o)
	db.Unlock()
}

// signals collected while applying, emitted once unlocked
type signalSet struct {
	block       *protocol.SignedBlock
	history     []OperationHistory
	objects     ChangedObjects
	adjustments []BalanceAdjustment
	ops         []protocol.Operation
}

// changeTracker - records ids of objects touched since the last
// call to takeChanges
type changeTracker struct {
	db      *Database
	created map[objectdb.ID]struct{}
	removed map[objectdb.ID]struct{}
}

func (c *changeTracker) ObjectInserted(obj objectdb.Object) {
	id := obj.ObjectID()
	if nil == c.created {
		c.created = make(map[objectdb.ID]struct{})
	}
	if _, ok := c.removed[id]; ok {
		// undo of a removal
		delete(c.removed, id)
		c.db.changed[id] = struct{}{}
		return
	}
	c.created[id] = struct{}{}
}

func (c *changeTracker) AboutToModify(obj objectdb.Object) {}

func (c *changeTracker) ObjectModified(obj objectdb.Object) {
	id := obj.ObjectID()
	if _, ok := c.created[id]; ok {
		return
	}
	c.db.changed[id] = struct{}{}
}

func (c *changeTracker) ObjectRemoved(obj objectdb.Object) {
	id := obj.ObjectID()
	if _, ok := c.created[id]; ok {
		delete(c.created, id)
		return
	}
	delete(c.db.changed, id)
	if nil == c.removed {
		c.removed = make(map[objectdb.ID]struct{})
	}
	c.removed[id] = struct{}{}
}

// takeChanges - the net changes, resetting the tracker
func (db *Database) takeChanges(c *changeTracker) ChangedObjects {
	result := ChangedObjects{
		Created: sortedIDs(c.created),
		Changed: sortedIDs(db.changed),
		Removed: sortedIDs(c.removed),
	}
	c.created = nil
	c.removed = nil
	db.changed = make(map[objectdb.ID]struct{})
	return result
}

func sortedIDs(m map[objectdb.ID]struct{}) []objectdb.ID {
	ids := make([]objectdb.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// pushVirtualOperation - record an operation the chain generated
// while applying the current one
func (db *Database) pushVirtualOperation(op protocol.Operation, result protocol.OperationResult) {
	if !db.applying {
		return
	}
	db.virtualOp += 1
	db.history = append(db.history, OperationHistory{
		BlockNum:   db.pendingBlockNum(),
		TrxInBlock: db.trxInBlock,
		OpInTrx:    db.opInTrx,
		VirtualOp:  db.virtualOp,
		Op:         op,
		Result:     result,
		Timestamp:  db.pendingBlockTime(),
	})
}

// record a core or asset balance change for the non-consensus index
func (db *Database) balanceAdjusted(uid account.UID, delta protocol.Asset) {
	if !db.applying || 0 == delta.Amount {
		return
	}
	db.adjustments = append(db.adjustments, BalanceAdjustment{Account: uid, Delta: delta})
}

// collect everything recorded for the block just applied
func (db *Database) takeSignals(block *protocol.SignedBlock) *signalSet {
	s := &signalSet{
		block:       block,
		history:     db.history,
		objects:     db.takeChanges(db.tracker),
		adjustments: db.adjustments,
		ops:         db.nonConsensusOps,
	}
	db.history = nil
	db.adjustments = nil
	db.nonConsensusOps = nil
	return s
}

// emit - must be called without the lock held
func (db *Database) emit(s *signalSet, observers []Observer) {
	if nil == s {
		return
	}
	for _, o := range observers {
		if nil != s.block {
			o.AppliedBlock(s.block, s.history)
		}
		o.ObjectsChanged(s.objects)
		if nil != s.block {
			o.BalanceAdjusted(s.adjustments)
			o.UpdateNonConsensusIndex(s.ops)
		}
	}
}
