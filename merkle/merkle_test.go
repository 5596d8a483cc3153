// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/merkle"
)

func digests(n int) []merkle.Digest {
	ids := make([]merkle.Digest, n)
	for i := 0; i < n; i += 1 {
		ids[i] = merkle.NewDigest([]byte{byte(i)})
	}
	return ids
}

func hashPair(a merkle.Digest, b merkle.Digest) merkle.Digest {
	return merkle.NewDigest(append(append([]byte{}, a[:]...), b[:]...))
}

func TestEmpty(t *testing.T) {
	assert.Nil(t, merkle.FullMerkleTree(nil), "tree of nothing")
	assert.Equal(t, merkle.Checksum{}, merkle.TransactionRoot(nil), "empty root")
}

func TestSingle(t *testing.T) {
	ids := digests(1)
	assert.Equal(t, ids[0], merkle.Root(ids), "single root")
	assert.Equal(t, merkle.ChecksumOf(ids[0]), merkle.TransactionRoot(ids), "single checksum")
}

func TestOddCarriedUp(t *testing.T) {
	ids := digests(3)
	ab := hashPair(ids[0], ids[1])
	expected := hashPair(ab, ids[2])

	tree := merkle.FullMerkleTree(ids)
	assert.Equal(t, 6, len(tree), "tree length")
	assert.Equal(t, ab, tree[3], "level one left")
	assert.Equal(t, ids[2], tree[4], "level one carried")
	assert.Equal(t, expected, merkle.Root(ids), "root")
}

func TestFive(t *testing.T) {
	ids := digests(5)
	l1 := []merkle.Digest{hashPair(ids[0], ids[1]), hashPair(ids[2], ids[3]), ids[4]}
	l2 := []merkle.Digest{hashPair(l1[0], l1[1]), l1[2]}
	expected := hashPair(l2[0], l2[1])
	assert.Equal(t, expected, merkle.Root(ids), "root of five")
}
