// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/avl"
)

type idItem uint64

func (a idItem) Compare(x interface{}) int {
	b := x.(idItem)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// two part key, a zero second part sorts before every real entry
type pairItem struct {
	major uint64
	minor uint64
}

func (a pairItem) Compare(x interface{}) int {
	b := x.(pairItem)
	switch {
	case a.major < b.major:
		return -1
	case a.major > b.major:
		return 1
	case a.minor < b.minor:
		return -1
	case a.minor > b.minor:
		return 1
	default:
		return 0
	}
}

func shuffled(n int, seed int64) []idItem {
	r := rand.New(rand.NewSource(seed))
	items := make([]idItem, n)
	for i := range items {
		items[i] = idItem(i * 10)
	}
	r.Shuffle(n, func(i, j int) { items[i], items[j] = items[j], items[i] })
	return items
}

func TestInsertDelete(t *testing.T) {
	items := shuffled(300, 1)

	for cut := 0; cut <= len(items); cut += 37 {
		tree := avl.New[uint64]()
		for _, k := range items {
			assert.True(t, tree.Insert(k, uint64(k)+1), "insert: %d", k)
		}
		require.NoError(t, tree.Check(), "after insert")
		require.Equal(t, len(items), tree.Count(), "count")

		for _, k := range items[:cut] {
			v, ok := tree.Delete(k)
			assert.True(t, ok, "delete: %d", k)
			assert.Equal(t, uint64(k)+1, v, "delete: %d", k)
		}
		require.NoError(t, tree.Check(), "after delete")
		assert.Equal(t, len(items)-cut, tree.Count(), "count after delete")

		for _, k := range items[cut:] {
			tree.Delete(k)
		}
		assert.True(t, tree.IsEmpty(), "empty")
		assert.NoError(t, tree.Check(), "empty")
	}
}

func TestAscendingInsert(t *testing.T) {
	tree := avl.New[int]()
	for i := 0; i < 1000; i += 1 {
		tree.Insert(idItem(i), i)
		if 0 == i%97 {
			require.NoError(t, tree.Check(), "at: %d", i)
		}
	}
	for i := 999; i >= 0; i -= 3 {
		tree.Delete(idItem(i))
	}
	assert.NoError(t, tree.Check())
}

func TestDuplicatesOverwrite(t *testing.T) {
	tree := avl.New[string]()
	assert.True(t, tree.Insert(idItem(5), "a"), "first")
	assert.False(t, tree.Insert(idItem(5), "b"), "second")
	assert.Equal(t, 1, tree.Count(), "count")

	node := tree.Search(idItem(5))
	require.NotNil(t, node, "found")
	assert.Equal(t, "b", node.Value(), "overwritten")

	v, ok := tree.Delete(idItem(6))
	assert.False(t, ok, "missing delete")
	assert.Equal(t, "", v)
	assert.Equal(t, 1, tree.Count(), "count unchanged")
	assert.Nil(t, tree.Search(idItem(6)))
}

func TestTraverse(t *testing.T) {
	items := shuffled(200, 2)
	tree := avl.New[struct{}]()
	for _, k := range items {
		tree.Insert(k, struct{}{})
	}
	sorted := append([]idItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	i := 0
	for p := tree.First(); nil != p; p = p.Next() {
		assert.Equal(t, sorted[i], p.Key(), "forward: %d", i)
		i += 1
	}
	assert.Equal(t, len(sorted), i, "forward count")

	i = len(sorted) - 1
	for p := tree.Last(); nil != p; p = p.Prev() {
		assert.Equal(t, sorted[i], p.Key(), "backward: %d", i)
		i -= 1
	}
	assert.Equal(t, -1, i, "backward count")

	empty := avl.New[int]()
	assert.Nil(t, empty.First())
	assert.Nil(t, empty.Last())
}

func TestDeleteWhileIterating(t *testing.T) {
	tree := avl.New[int]()
	for _, k := range shuffled(100, 4) {
		tree.Insert(k, int(k))
	}

	// remove every other key while walking forward
	n := 0
	for p := tree.First(); nil != p; {
		next := p.Next()
		if 0 == n%2 {
			tree.Delete(p.Key())
		}
		n += 1
		p = next
	}
	assert.Equal(t, 100, n, "visited")
	assert.Equal(t, 50, tree.Count(), "remaining")
	require.NoError(t, tree.Check())

	for p := tree.First(); nil != p; p = p.Next() {
		assert.Equal(t, 10, int(p.Key().(idItem))%20, "odd keys remain")
	}
}

func TestBounds(t *testing.T) {
	tree := avl.New[struct{}]()
	for _, k := range shuffled(50, 3) {
		tree.Insert(k, struct{}{})
	}

	assert.Equal(t, idItem(0), tree.LowerBound(idItem(0)).Key(), "lower exact")
	assert.Equal(t, idItem(10), tree.LowerBound(idItem(1)).Key(), "lower between")
	assert.Equal(t, idItem(10), tree.UpperBound(idItem(0)).Key(), "upper exact")
	assert.Equal(t, idItem(10), tree.UpperBound(idItem(9)).Key(), "upper between")
	assert.Nil(t, tree.LowerBound(idItem(491)), "lower past end")
	assert.Nil(t, tree.UpperBound(idItem(490)), "upper at end")
}

func TestPrefixScan(t *testing.T) {
	tree := avl.New[struct{}]()
	for major := uint64(1); major <= 5; major += 1 {
		for minor := uint64(1); minor <= 4; minor += 1 {
			tree.Insert(pairItem{major, minor}, struct{}{})
		}
	}

	n := 0
	end := tree.LowerBound(pairItem{4, 0})
	for p := tree.LowerBound(pairItem{3, 0}); p != end; p = p.Next() {
		assert.Equal(t, uint64(3), p.Key().(pairItem).major, "major")
		n += 1
	}
	assert.Equal(t, 4, n, "entries with major 3")
}
