// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"github.com/yoyow-org/yoyowd/avl"
	"github.com/yoyow-org/yoyowd/fault"
)

// UniqueIndex - hash index on a comparable key
type UniqueIndex[K comparable, T any, P Record[T]] struct {
	keyOf   func(P) K
	objects map[K]P
}

// NewUniqueIndex - attach a unique hash index to a table
func NewUniqueIndex[K comparable, T any, P Record[T]](t *Table[T, P], keyOf func(P) K) *UniqueIndex[K, T, P] {
	ix := &UniqueIndex[K, T, P]{
		keyOf:   keyOf,
		objects: make(map[K]P),
	}
	t.AddObserver(ix)
	return ix
}

// Find - object with key or nil
func (ix *UniqueIndex[K, T, P]) Find(key K) P {
	return ix.objects[key]
}

// Get - object with key or not found
func (ix *UniqueIndex[K, T, P]) Get(key K) (P, error) {
	obj, ok := ix.objects[key]
	if !ok {
		return nil, fault.ErrObjectNotFound
	}
	return obj, nil
}

// Count - number of keys
func (ix *UniqueIndex[K, T, P]) Count() int {
	return len(ix.objects)
}

func (ix *UniqueIndex[K, T, P]) check(obj Object) error {
	p := obj.(P)
	if cur, ok := ix.objects[ix.keyOf(p)]; ok && cur.ObjectID() != p.ObjectID() {
		return fault.ErrDuplicateIndexKey
	}
	return nil
}

func (ix *UniqueIndex[K, T, P]) ObjectInserted(obj Object) {
	p := obj.(P)
	ix.objects[ix.keyOf(p)] = p
}

func (ix *UniqueIndex[K, T, P]) AboutToModify(obj Object) {
	ix.ObjectRemoved(obj)
}

func (ix *UniqueIndex[K, T, P]) ObjectModified(obj Object) {
	ix.ObjectInserted(obj)
}

func (ix *UniqueIndex[K, T, P]) ObjectRemoved(obj Object) {
	p := obj.(P)
	k := ix.keyOf(p)
	if cur, ok := ix.objects[k]; ok && cur.ObjectID() == p.ObjectID() {
		delete(ix.objects, k)
	}
}

// OrderedIndex - avl index on a composite key
//
// a non-unique index appends the object id to every key so equal
// keys iterate in creation order
type OrderedIndex[T any, P Record[T]] struct {
	keyOf  func(P) Tuple
	unique bool
	tree   *avl.Tree[P]
}

// NewOrderedIndex - attach an ordered index to a table
func NewOrderedIndex[T any, P Record[T]](t *Table[T, P], unique bool, keyOf func(P) Tuple) *OrderedIndex[T, P] {
	ix := &OrderedIndex[T, P]{
		keyOf:  keyOf,
		unique: unique,
		tree:   avl.New[P](),
	}
	t.AddObserver(ix)
	return ix
}

func (ix *OrderedIndex[T, P]) fullKey(p P) Tuple {
	k := ix.keyOf(p)
	if ix.unique {
		return k
	}
	return k.Append(uint64(p.ObjectID()))
}

func (ix *OrderedIndex[T, P]) check(obj Object) error {
	if !ix.unique {
		return nil
	}
	p := obj.(P)
	node := ix.tree.Search(ix.keyOf(p))
	if nil != node && node.Value().ObjectID() != p.ObjectID() {
		return fault.ErrDuplicateIndexKey
	}
	return nil
}

func (ix *OrderedIndex[T, P]) ObjectInserted(obj Object) {
	p := obj.(P)
	ix.tree.Insert(ix.fullKey(p), p)
}

func (ix *OrderedIndex[T, P]) AboutToModify(obj Object) {
	ix.ObjectRemoved(obj)
}

func (ix *OrderedIndex[T, P]) ObjectModified(obj Object) {
	ix.ObjectInserted(obj)
}

func (ix *OrderedIndex[T, P]) ObjectRemoved(obj Object) {
	p := obj.(P)
	k := ix.fullKey(p)
	node := ix.tree.Search(k)
	if nil != node && node.Value().ObjectID() == p.ObjectID() {
		ix.tree.Delete(k)
	}
}

// Count - number of entries
func (ix *OrderedIndex[T, P]) Count() int {
	return ix.tree.Count()
}

// Find - exact match on a unique index, or the first entry with the
// key as prefix on a non-unique one
func (ix *OrderedIndex[T, P]) Find(key Tuple) P {
	it := ix.LowerBound(key)
	if !it.Valid() {
		return nil
	}
	k := it.node.Key().(Tuple)
	if len(k) < len(key) || 0 != Tuple(k[:len(key)]).Compare(key) {
		return nil
	}
	return it.Value()
}

// First - iterator at the smallest key
func (ix *OrderedIndex[T, P]) First() Iterator[T, P] {
	return Iterator[T, P]{node: ix.tree.First()}
}

// Last - iterator at the largest key
func (ix *OrderedIndex[T, P]) Last() Iterator[T, P] {
	return Iterator[T, P]{node: ix.tree.Last()}
}

// LowerBound - first entry not less than key
func (ix *OrderedIndex[T, P]) LowerBound(key Tuple) Iterator[T, P] {
	return Iterator[T, P]{node: ix.tree.LowerBound(key)}
}

// UpperBound - first entry greater than key
func (ix *OrderedIndex[T, P]) UpperBound(key Tuple) Iterator[T, P] {
	return Iterator[T, P]{node: ix.tree.UpperBound(key)}
}

// Range - objects in [lower, upper) in key order
//
// the slice is a copy so the caller may modify or remove the objects
// while walking it
func (ix *OrderedIndex[T, P]) Range(lower Tuple, upper Tuple) []P {
	result := []P{}
	for it := ix.LowerBound(lower); it.Valid(); it.Next() {
		if it.node.Key().(Tuple).Compare(upper) >= 0 {
			break
		}
		result = append(result, it.Value())
	}
	return result
}

// Prefix - objects whose key starts with the given fields
func (ix *OrderedIndex[T, P]) Prefix(fields ...interface{}) []P {
	prefix := Key(fields...)
	return ix.Range(prefix.Append(Min), prefix.Append(Max))
}

// Iterator - position in an ordered index
//
// an iterator is invalidated by any change to the index
type Iterator[T any, P Record[T]] struct {
	node *avl.Node[P]
}

// Valid - false past either end
func (it *Iterator[T, P]) Valid() bool {
	return nil != it.node
}

// Value - object at the position
func (it *Iterator[T, P]) Value() P {
	return it.node.Value()
}

// Key - full key at the position
func (it *Iterator[T, P]) Key() Tuple {
	return it.node.Key().(Tuple)
}

// Next - advance
func (it *Iterator[T, P]) Next() {
	it.node = it.node.Next()
}

// Prev - step back
func (it *Iterator[T, P]) Prev() {
	it.node = it.node.Prev()
}
