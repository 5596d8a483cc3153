// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// First - node with the lowest key, nil for an empty tree
func (tree *Tree[V]) First() *Node[V] {
	return tree.root.leftmost()
}

// Last - node with the highest key, nil for an empty tree
func (tree *Tree[V]) Last() *Node[V] {
	return tree.root.rightmost()
}

func (n *Node[V]) leftmost() *Node[V] {
	if nil == n {
		return nil
	}
	for nil != n.left {
		n = n.left
	}
	return n
}

func (n *Node[V]) rightmost() *Node[V] {
	if nil == n {
		return nil
	}
	for nil != n.right {
		n = n.right
	}
	return n
}

// Next - node with the next higher key, nil after the last
func (n *Node[V]) Next() *Node[V] {
	if nil != n.right {
		return n.right.leftmost()
	}
	// climb until arriving from a left child
	child := n
	for p := n.up; nil != p; p = p.up {
		if child == p.left {
			return p
		}
		child = p
	}
	return nil
}

// Prev - node with the next lower key, nil before the first
func (n *Node[V]) Prev() *Node[V] {
	if nil != n.left {
		return n.left.rightmost()
	}
	child := n
	for p := n.up; nil != p; p = p.up {
		if child == p.right {
			return p
		}
		child = p
	}
	return nil
}
