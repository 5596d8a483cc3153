// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"sort"

	"github.com/yoyow-org/yoyowd/fault"
)

type undoState struct {
	oldValues  map[ID]Object
	removed    map[ID]Object
	newIDs     map[ID]struct{}
	oldNextIDs map[uint16]uint64
	revision   int64
}

func newUndoState(revision int64) *undoState {
	return &undoState{
		oldValues:  make(map[ID]Object),
		removed:    make(map[ID]Object),
		newIDs:     make(map[ID]struct{}),
		oldNextIDs: make(map[uint16]uint64),
		revision:   revision,
	}
}

// Session - one level of the undo stack
//
// Undo is a no-op once the session has been committed or merged, so
//   s := db.StartSession(false)
//   defer s.Undo()
// rolls back on every early return
type Session struct {
	db            *Database
	apply         bool
	disableOnExit bool
}

// StartSession - push a new undo state
//
// with force the state is recorded even if undo is disabled and undo
// is disabled again when the session ends
func (db *Database) StartSession(force bool) *Session {
	if !force && db.disabled {
		return &Session{db: db}
	}
	disableOnExit := false
	if force && db.disabled {
		db.disabled = false
		disableOnExit = true
	}

	db.revision += 1
	db.stack = append(db.stack, newUndoState(db.revision))
	if db.maxSize > 0 && len(db.stack) > db.maxSize {
		db.stack = db.stack[1:]
	}
	return &Session{db: db, apply: true, disableOnExit: disableOnExit}
}

// Commit - keep the changes and leave the state on the stack so a
// later Undo of the database can still revert it
func (s *Session) Commit() {
	if s.apply && s.disableOnExit {
		s.db.disabled = true
	}
	s.apply = false
}

// Merge - fold the changes into the enclosing state
func (s *Session) Merge() {
	if s.apply {
		s.db.merge()
		if s.disableOnExit {
			s.db.disabled = true
		}
	}
	s.apply = false
}

// Undo - revert the changes made in this session
func (s *Session) Undo() {
	if s.apply {
		s.db.undo()
		if s.disableOnExit {
			s.db.disabled = true
		}
	}
	s.apply = false
}

func (db *Database) top() *undoState {
	if db.disabled || 0 == len(db.stack) {
		return nil
	}
	return db.stack[len(db.stack)-1]
}

func (db *Database) onCreate(t table, id ID) {
	state := db.top()
	if nil == state {
		return
	}
	if _, ok := state.oldNextIDs[t.key()]; !ok {
		state.oldNextIDs[t.key()] = t.nextInstance()
	}
	state.newIDs[id] = struct{}{}
}

func (db *Database) onModify(t table, id ID, snapshot func() Object) {
	state := db.top()
	if nil == state {
		return
	}
	if _, ok := state.newIDs[id]; ok {
		return
	}
	if _, ok := state.oldValues[id]; ok {
		return
	}
	state.oldValues[id] = snapshot()
}

func (db *Database) onRemove(t table, id ID, snapshot func() Object) {
	state := db.top()
	if nil == state {
		return
	}
	if _, ok := state.newIDs[id]; ok {
		delete(state.newIDs, id)
		return
	}
	if old, ok := state.oldValues[id]; ok {
		state.removed[id] = old
		delete(state.oldValues, id)
		return
	}
	if _, ok := state.removed[id]; ok {
		return
	}
	state.removed[id] = snapshot()
}

// Undo - revert and drop the newest state
func (db *Database) Undo() error {
	if 0 == len(db.stack) {
		return fault.ErrUndoStackEmpty
	}
	db.undo()
	return nil
}

// undo order: modified objects, created objects, id counters then
// removed objects; each group in id order so observers see a
// deterministic sequence
func (db *Database) undo() {
	n := len(db.stack)
	if 0 == n {
		return
	}
	state := db.stack[n-1]
	disabled := db.disabled
	db.disabled = true

	for _, id := range sortedIDs(state.oldValues) {
		db.tables[id.tableKey()].restore(state.oldValues[id])
	}
	for _, id := range sortedIDSet(state.newIDs) {
		db.tables[id.tableKey()].undoCreate(id)
	}
	for k, next := range state.oldNextIDs {
		db.tables[k].setNextInstance(next)
	}
	for _, id := range sortedIDs(state.removed) {
		db.tables[id.tableKey()].undoRemove(state.removed[id])
	}

	db.disabled = disabled
	db.stack = db.stack[:n-1]
	db.revision -= 1
}

func (db *Database) merge() {
	n := len(db.stack)
	if n < 2 {
		// nothing to merge into, the changes become permanent
		if 1 == n {
			db.stack = db.stack[:0]
			db.revision -= 1
		}
		return
	}
	state := db.stack[n-1]
	prev := db.stack[n-2]

	for id, old := range state.oldValues {
		if _, ok := prev.newIDs[id]; ok {
			continue
		}
		if _, ok := prev.oldValues[id]; ok {
			continue
		}
		prev.oldValues[id] = old
	}
	for id := range state.newIDs {
		prev.newIDs[id] = struct{}{}
	}
	for k, next := range state.oldNextIDs {
		if _, ok := prev.oldNextIDs[k]; !ok {
			prev.oldNextIDs[k] = next
		}
	}
	for id, obj := range state.removed {
		if _, ok := prev.newIDs[id]; ok {
			delete(prev.newIDs, id)
			continue
		}
		if old, ok := prev.oldValues[id]; ok {
			prev.removed[id] = old
			delete(prev.oldValues, id)
			continue
		}
		prev.removed[id] = obj
	}

	db.stack = db.stack[:n-1]
	db.revision -= 1
}

// PopCommit - drop the newest state keeping its changes
func (db *Database) PopCommit() {
	if n := len(db.stack); n > 0 {
		db.stack = db.stack[:n-1]
	}
}

// Squash - make states at or below revision permanent
func (db *Database) Squash(revision int64) {
	i := 0
	for i < len(db.stack) && db.stack[i].revision <= revision {
		i += 1
	}
	db.stack = db.stack[i:]
}

// UndoAll - revert every state on the stack
func (db *Database) UndoAll() {
	for 0 != len(db.stack) {
		db.undo()
	}
}

func sortedIDs(m map[ID]Object) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedIDSet(m map[ID]struct{}) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
