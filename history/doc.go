// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package history - per account operation history
//
// the index is built from ledger signals, it is rebuilt by replaying
// the block log and is never part of consensus
package history
