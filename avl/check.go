// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

import (
	"github.com/pkg/errors"
)

// Check - verify parent links, key order, balance factors and the
// node count
func (tree *Tree[V]) Check() error {
	if nil != tree.root && nil != tree.root.up {
		return errors.Errorf("root: %v has a parent", tree.root.key)
	}
	_, size, err := check(tree.root, nil)
	if nil != err {
		return err
	}
	if size != tree.count {
		return errors.Errorf("count: %d  nodes: %d", tree.count, size)
	}
	return nil
}

// returns height and size of the sub-tree
func check[V any](p *Node[V], up *Node[V]) (int, int, error) {
	if nil == p {
		return 0, 0, nil
	}
	if p.up != up {
		return 0, 0, errors.Errorf("node: %v  wrong parent", p.key)
	}
	if nil != p.left && p.left.key.Compare(p.key) >= 0 {
		return 0, 0, errors.Errorf("node: %v  left: %v out of order", p.key, p.left.key)
	}
	if nil != p.right && p.right.key.Compare(p.key) <= 0 {
		return 0, 0, errors.Errorf("node: %v  right: %v out of order", p.key, p.right.key)
	}

	hl, nl, err := check(p.left, p)
	if nil != err {
		return 0, 0, err
	}
	hr, nr, err := check(p.right, p)
	if nil != err {
		return 0, 0, err
	}
	if hr-hl != p.balance || p.balance < -1 || p.balance > +1 {
		return 0, 0, errors.Errorf("node: %v  balance: %d  heights: %d/%d", p.key, p.balance, hl, hr)
	}

	height := hl
	if hr > height {
		height = hr
	}
	return height + 1, nl + nr + 1, nil
}
