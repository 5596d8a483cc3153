// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package objectdb - typed object tables addressed by 64 bit ids
// with secondary indexes and a stack of undo states
//
// Every table keeps its objects by id and notifies its observers in
// the order about-to-modify, modified, inserted and removed.  The
// secondary indexes are observers, so rolling back an undo state
// replays the same notifications and the indexes follow.
//
// Note: a database is not thread safe, it is meant to be owned by a
//       single go routine.
package objectdb
