// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Search - the node with an equal key, nil if absent
func (tree *Tree[V]) Search(key Item) *Node[V] {
	p := tree.root
	for nil != p {
		switch p.key.Compare(key) {
		case +1:
			p = p.left
		case -1:
			p = p.right
		default:
			return p
		}
	}
	return nil
}

// LowerBound - first node whose key is not less than key
//
// the key need not be present, so a partial key whose Compare
// orders it before all matching entries can be used as a prefix
// probe
func (tree *Tree[V]) LowerBound(key Item) *Node[V] {
	var found *Node[V]
	p := tree.root
	for nil != p {
		if p.key.Compare(key) >= 0 { // p.key >= key
			found = p
			p = p.left
		} else {
			p = p.right
		}
	}
	return found
}

// UpperBound - first node whose key is greater than key
func (tree *Tree[V]) UpperBound(key Item) *Node[V] {
	var found *Node[V]
	p := tree.root
	for nil != p {
		if p.key.Compare(key) > 0 { // p.key > key
			found = p
			p = p.left
		} else {
			p = p.right
		}
	}
	return found
}
