// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk block log
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains two LevelDB databases split into a series of tables,
// the index database can always be rebuilt from the blocks.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. block number = big endian uint32 (4 bytes)
// 4. block id     = 20 byte block id, the first 4 bytes are the block number
// 5. *others*     = byte values of various length
//
// Blocks:
//
//   B ++ block number          - block store
//                                data: packed signed block
//
// Index:
//
//   2 ++ block id              - index of block ids
//                                data: block number
//
//   M ++ name                  - values that describe the log
//                                "chain-id": the chain id of the genesis state
//
// Testing:
//   Z ++ key                   - testing data
package storage
