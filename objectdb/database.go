// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"fmt"

	"github.com/yoyow-org/yoyowd/fault"
)

// Database - a set of tables sharing one undo stack
type Database struct {
	tables    map[uint16]table
	observers []Observer

	stack    []*undoState
	disabled bool
	revision int64
	maxSize  int
}

// New - empty database with undo enabled
func New() *Database {
	return &Database{
		tables:  make(map[uint16]table),
		maxSize: 10000,
	}
}

func (db *Database) register(t table) {
	k := t.key()
	if _, ok := db.tables[k]; ok {
		panic(fmt.Sprintf("objectdb: duplicate table: %d.%d", k>>8, k&0xff))
	}
	db.tables[k] = t
}

// AddObserver - observe changes to every table
func (db *Database) AddObserver(o Observer) {
	db.observers = append(db.observers, o)
}

func (db *Database) notifyInserted(obj Object) {
	for _, o := range db.observers {
		o.ObjectInserted(obj)
	}
}

func (db *Database) notifyModified(obj Object) {
	for _, o := range db.observers {
		o.ObjectModified(obj)
	}
}

func (db *Database) notifyRemoved(obj Object) {
	for _, o := range db.observers {
		o.ObjectRemoved(obj)
	}
}

// Enable - record undo states again
func (db *Database) Enable() {
	db.disabled = false
}

// Disable - stop recording, used while building genesis
func (db *Database) Disable() {
	db.disabled = true
}

// Enabled - true if undo is recorded
func (db *Database) Enabled() bool {
	return !db.disabled
}

// SetMaxSize - limit on retained undo states
func (db *Database) SetMaxSize(n int) {
	db.maxSize = n
}

// Size - number of undo states on the stack
func (db *Database) Size() int {
	return len(db.stack)
}

// Revision - revision of the newest state
func (db *Database) Revision() int64 {
	return db.revision
}

// SetRevision - only allowed with an empty stack
func (db *Database) SetRevision(revision int64) error {
	if 0 != len(db.stack) {
		return fault.ErrUndoSessionInactive
	}
	db.revision = revision
	return nil
}
