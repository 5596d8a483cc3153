// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache maintains the memory data store
//
//  ***** Data Structure *****
//
//  Pool                   Key                 Value                  ExpiresAfter
//  |___ KnownTransactions  transaction id      time first accepted    1h
//  |___ RejectedTransactions transaction id    rejection reason       10m
//
//  ***** Purpose *****
//
//  KnownTransactions:
//    a transaction submitted again while it is still pending, or
//    shortly after it was included in a block, is a duplicate
//
//  RejectedTransactions:
//    a transaction the ledger refused is not re-evaluated when it is
//    submitted again soon after
package cache
