// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

// compute the full merkle tree from a set of transaction digests
//
// structure is:
//   1. N * transaction digests
//   2. level 1..m digests
//   3. merkle root digest
//
// an odd digest at the end of a level is carried up unchanged
func FullMerkleTree(txIds []Digest) []Digest {

	idCount := len(txIds)
	if 0 == idCount {
		return nil
	}

	// compute length of ids + all tree levels including root
	totalLength := idCount
	for n := idCount; n > 1; n = (n + 1) / 2 {
		totalLength += (n + 1) / 2
	}

	tree := make([]Digest, 0, totalLength)
	tree = append(tree, txIds...)

	j := 0
	for workLength := idCount; workLength > 1; workLength = (workLength + 1) / 2 {
		for i := 0; i < workLength; i += 2 {
			if i+1 == workLength {
				tree = append(tree, tree[j+i])
			} else {
				tree = append(tree, pair(tree[j+i], tree[j+i+1]))
			}
		}
		j += workLength
	}
	return tree
}

// Root - top of the tree or zero for no digests
func Root(txIds []Digest) Digest {
	tree := FullMerkleTree(txIds)
	if 0 == len(tree) {
		return Digest{}
	}
	return tree[len(tree)-1]
}

// TransactionRoot - checksum of the root as stored in a block header
func TransactionRoot(txIds []Digest) Checksum {
	if 0 == len(txIds) {
		return Checksum{}
	}
	return ChecksumOf(Root(txIds))
}
