// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"github.com/yoyow-org/yoyowd/avl"
	"github.com/yoyow-org/yoyowd/fault"
)

// Observer - receives every change to a table
type Observer interface {
	ObjectInserted(obj Object)
	AboutToModify(obj Object)
	ObjectModified(obj Object)
	ObjectRemoved(obj Object)
}

// checker - an observer that can refuse a key
type checker interface {
	check(obj Object) error
}

// operations the undo stack needs without knowing the object type
type table interface {
	key() uint16
	restore(old Object)
	undoCreate(id ID)
	undoRemove(old Object)
	nextInstance() uint64
	setNextInstance(n uint64)
}

type instanceKey uint64

func (a instanceKey) Compare(x interface{}) int {
	b := x.(instanceKey)
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	default:
		return 0
	}
}

// Table - primary index of one object type
type Table[T any, P Record[T]] struct {
	db        *Database
	space     uint8
	kind      uint8
	next      uint64
	objects   map[ID]P
	order     *avl.Tree[P]
	observers []Observer
}

// NewTable - register a table for space.kind
func NewTable[T any, P Record[T]](db *Database, space uint8, kind uint8) *Table[T, P] {
	t := &Table[T, P]{
		db:      db,
		space:   space,
		kind:    kind,
		objects: make(map[ID]P),
		order:   avl.New[P](),
	}
	db.register(t)
	return t
}

// AddObserver - attach a secondary index or other observer
func (t *Table[T, P]) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

// Count - number of live objects
func (t *Table[T, P]) Count() int {
	return len(t.objects)
}

// NextID - the id the next Create will assign
func (t *Table[T, P]) NextID() ID {
	return NewID(t.space, t.kind, t.next)
}

// Find - object by id or nil
func (t *Table[T, P]) Find(id ID) P {
	return t.objects[id]
}

// Get - object by id or not found
func (t *Table[T, P]) Get(id ID) (P, error) {
	obj, ok := t.objects[id]
	if !ok {
		return nil, fault.ErrObjectNotFound
	}
	return obj, nil
}

// Each - visit objects in id order until fn returns false
func (t *Table[T, P]) Each(fn func(P) bool) {
	for n := t.order.First(); nil != n; n = n.Next() {
		if !fn(n.Value()) {
			return
		}
	}
}

// Create - construct a new object with the next id
func (t *Table[T, P]) Create(init func(P)) (P, error) {
	obj := P(new(T))
	obj.setID(NewID(t.space, t.kind, t.next))
	if nil != init {
		init(obj)
	}
	if err := t.check(obj); nil != err {
		return nil, err
	}

	t.db.onCreate(t, obj.ObjectID())
	t.next += 1
	t.insert(obj)
	return obj, nil
}

// Modify - change an object in place
//
// if the change violates a unique index the object is restored and
// the error returned
func (t *Table[T, P]) Modify(obj P, mutate func(P)) error {
	id := obj.ObjectID()
	t.db.onModify(t, id, func() Object { return clone[T, P](obj) })

	saved := clone[T, P](obj)
	t.notifyAboutToModify(obj)
	mutate(obj)
	obj.setID(id)
	if err := t.check(obj); nil != err {
		*obj = *saved
		t.notifyModified(obj)
		return err
	}
	t.notifyModified(obj)
	return nil
}

// Remove - delete an object
func (t *Table[T, P]) Remove(obj P) {
	id := obj.ObjectID()
	if _, ok := t.objects[id]; !ok {
		return
	}
	t.db.onRemove(t, id, func() Object { return clone[T, P](obj) })
	t.erase(obj)
}

func (t *Table[T, P]) check(obj P) error {
	for _, o := range t.observers {
		if c, ok := o.(checker); ok {
			if err := c.check(obj); nil != err {
				return err
			}
		}
	}
	return nil
}

func (t *Table[T, P]) insert(obj P) {
	id := obj.ObjectID()
	t.objects[id] = obj
	t.order.Insert(instanceKey(id.Instance()), obj)
	for _, o := range t.observers {
		o.ObjectInserted(obj)
	}
	t.db.notifyInserted(obj)
}

func (t *Table[T, P]) erase(obj P) {
	id := obj.ObjectID()
	for _, o := range t.observers {
		o.ObjectRemoved(obj)
	}
	delete(t.objects, id)
	t.order.Delete(instanceKey(id.Instance()))
	t.db.notifyRemoved(obj)
}

func (t *Table[T, P]) notifyAboutToModify(obj P) {
	for _, o := range t.observers {
		o.AboutToModify(obj)
	}
}

func (t *Table[T, P]) notifyModified(obj P) {
	for _, o := range t.observers {
		o.ObjectModified(obj)
	}
	t.db.notifyModified(obj)
}

// undo support

func (t *Table[T, P]) key() uint16 {
	return tableKey(t.space, t.kind)
}

func (t *Table[T, P]) restore(old Object) {
	cur, ok := t.objects[old.ObjectID()]
	if !ok {
		return
	}
	t.notifyAboutToModify(cur)
	*cur = *old.(P)
	t.notifyModified(cur)
}

func (t *Table[T, P]) undoCreate(id ID) {
	if obj, ok := t.objects[id]; ok {
		t.erase(obj)
	}
}

func (t *Table[T, P]) undoRemove(old Object) {
	t.insert(old.(P))
}

func (t *Table[T, P]) nextInstance() uint64 {
	return t.next
}

func (t *Table[T, P]) setNextInstance(n uint64) {
	t.next = n
}
