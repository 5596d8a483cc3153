// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Item - a key orders itself against another key of the same type
type Item interface {
	Compare(interface{}) int // -1, 0, +1
}

// Node - one key and its value
type Node[V any] struct {
	left    *Node[V]
	right   *Node[V]
	up      *Node[V]
	key     Item
	value   V
	balance int // height of right minus height of left: -1, 0, +1
}

// Tree - root of a tree of values of type V
type Tree[V any] struct {
	root  *Node[V]
	count int
}

// New - an empty tree
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

// IsEmpty - true if there are no nodes
func (tree *Tree[V]) IsEmpty() bool {
	return nil == tree.root
}

// Count - number of nodes
func (tree *Tree[V]) Count() int {
	return tree.count
}

// Key - the ordering key of a node
func (n *Node[V]) Key() Item {
	return n.key
}

// Value - the data stored under the key
func (n *Node[V]) Value() V {
	return n.value
}
