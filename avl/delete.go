// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Delete - remove a key
//
// returns the value that was stored and true, or the zero value and
// false if the key was not present
func (tree *Tree[V]) Delete(key Item) (V, bool) {
	value, removed, _ := remove(key, &tree.root)
	if removed {
		tree.count -= 1
	}
	return value, removed
}

// the boolean results are: a node was removed and the sub-tree at pp
// became shorter
func remove[V any](key Item, pp **Node[V]) (V, bool, bool) {
	var value V
	p := *pp
	if nil == p {
		return value, false, false
	}

	removed := false
	shrunk := false
	switch p.key.Compare(key) {
	case +1: // p.key > key
		value, removed, shrunk = remove(key, &p.left)
		if shrunk {
			shrunk = leftShrunk(pp)
		}
	case -1: // p.key < key
		value, removed, shrunk = remove(key, &p.right)
		if shrunk {
			shrunk = rightShrunk(pp)
		}
	default:
		value = p.value
		removed = true
		switch {
		case nil == p.right:
			if nil != p.left {
				p.left.up = p.up
			}
			*pp = p.left
			shrunk = true
		case nil == p.left:
			p.right.up = p.up
			*pp = p.right
			shrunk = true
		default:
			// the rightmost node of the left side takes the place of p
			shrunk = replaceWithPredecessor(pp, &p.left)
			(*pp).left = p.left
			if shrunk {
				shrunk = leftShrunk(pp)
			}
		}
		p.left = nil
		p.right = nil
		p.up = nil
	}
	return value, removed, shrunk
}

// move the rightmost node under rr into the position of *qq
func replaceWithPredecessor[V any](qq **Node[V], rr **Node[V]) bool {
	r := *rr
	if nil != r.right {
		if replaceWithPredecessor(qq, &r.right) {
			return rightShrunk(rr)
		}
		return false
	}

	q := *qq
	rl := r.left
	if nil != rl {
		rl.up = r.up
	}
	if r != q.left {
		r.left = q.left
	}
	r.right = q.right
	r.up = q.up
	r.balance = q.balance
	if nil != r.right {
		r.right.up = r
	}
	if nil != r.left {
		r.left.up = r
	}

	*qq = r
	*rr = rl
	return true
}

// the left side of *pp lost height, returns true if *pp did as well
func leftShrunk[V any](pp **Node[V]) bool {
	p := *pp
	switch p.balance {
	case -1:
		p.balance = 0
		return true
	case 0:
		p.balance = +1
		return false
	}

	p1 := p.right
	if p1.balance >= 0 {
		// RR
		p.right = p1.left
		p1.left = p
		shrunk := true
		if 0 == p1.balance {
			p.balance = +1
			p1.balance = -1
			shrunk = false
		} else {
			p.balance = 0
			p1.balance = 0
		}
		p1.up = p.up
		p.up = p1
		if nil != p.right {
			p.right.up = p
		}
		*pp = p1
		return shrunk
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
	p2.balance = 0

	p2.up = p.up
	if nil != p.right {
		p.right.up = p
	}
	if nil != p1.left {
		p1.left.up = p1
	}
	p.up = p2
	p1.up = p2
	*pp = p2
	return true
}

// the right side of *pp lost height, returns true if *pp did as well
func rightShrunk[V any](pp **Node[V]) bool {
	p := *pp
	switch p.balance {
	case +1:
		p.balance = 0
		return true
	case 0:
		p.balance = -1
		return false
	}

	p1 := p.left
	if p1.balance <= 0 {
		// LL
		p.left = p1.right
		p1.right = p
		shrunk := true
		if 0 == p1.balance {
			p.balance = -1
			p1.balance = +1
			shrunk = false
		} else {
			p.balance = 0
			p1.balance = 0
		}
		p1.up = p.up
		p.up = p1
		if nil != p.left {
			p.left.up = p
		}
		*pp = p1
		return shrunk
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
	p2.balance = 0

	p2.up = p.up
	if nil != p.left {
		p.left.up = p
	}
	if nil != p1.right {
		p1.right.up = p1
	}
	p.up = p2
	p1.up = p2
	*pp = p2
	return true
}
