// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Insert - add a key, or replace the value of an existing key
//
// returns true if a node was added
func (tree *Tree[V]) Insert(key Item, value V) bool {
	root, added, _ := insert(key, value, tree.root)
	tree.root = root
	if added {
		tree.count += 1
	}
	return added
}

// returns the new sub-tree root, whether a node was added and
// whether the sub-tree grew in height
func insert[V any](key Item, value V, p *Node[V]) (*Node[V], bool, bool) {
	if nil == p {
		return &Node[V]{key: key, value: value}, true, true
	}

	added := false
	grown := false
	switch p.key.Compare(key) {
	case +1: // p.key > key
		p.left, added, grown = insert(key, value, p.left)
		if !grown {
			return p, added, false
		}
		p.left.up = p
		switch p.balance {
		case +1:
			p.balance = 0
			return p, added, false
		case 0:
			p.balance = -1
			return p, added, true
		}
		return rotateAfterLeftGrowth(p), added, false

	case -1: // p.key < key
		p.right, added, grown = insert(key, value, p.right)
		if !grown {
			return p, added, false
		}
		p.right.up = p
		switch p.balance {
		case -1:
			p.balance = 0
			return p, added, false
		case 0:
			p.balance = +1
			return p, added, true
		}
		return rotateAfterRightGrowth(p), added, false

	default:
		p.value = value
		return p, false, false
	}
}

// left side is two higher than right after an insert
func rotateAfterLeftGrowth[V any](p *Node[V]) *Node[V] {
	p1 := p.left
	if -1 == p1.balance {
		// LL
		p.left = p1.right
		p1.right = p
		p.balance = 0

		p1.up = p.up
		p.up = p1
		if nil != p.left {
			p.left.up = p
		}
		p1.balance = 0
		return p1
	}

	// LR
	p2 := p1.right
	p1.right = p2.left
	p2.left = p1
	p.left = p2.right
	p2.right = p
	p.balance = 0
	if -1 == p2.balance {
		p.balance = +1
	}
	p1.balance = 0
	if +1 == p2.balance {
		p1.balance = -1
	}

	if nil != p.left {
		p.left.up = p
	}
	if nil != p1.right {
		p1.right.up = p1
	}
	p2.up = p.up
	p.up = p2
	p1.up = p2
	p2.balance = 0
	return p2
}

// right side is two higher than left after an insert
func rotateAfterRightGrowth[V any](p *Node[V]) *Node[V] {
	p1 := p.right
	if +1 == p1.balance {
		// RR
		p.right = p1.left
		p1.left = p
		p.balance = 0

		p1.up = p.up
		p.up = p1
		if nil != p.right {
			p.right.up = p
		}
		p1.balance = 0
		return p1
	}

	// RL
	p2 := p1.left
	p1.left = p2.right
	p2.right = p1
	p.right = p2.left
	p2.left = p
	p.balance = 0
	if +1 == p2.balance {
		p.balance = -1
	}
	p1.balance = 0
	if -1 == p2.balance {
		p1.balance = +1
	}

	if nil != p.right {
		p.right.up = p
	}
	if nil != p1.left {
		p1.left.up = p1
	}
	p2.up = p.up
	p.up = p2
	p1.up = p2
	p2.balance = 0
	return p2
}
