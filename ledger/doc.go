// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - the deterministic chain state
//
// the ledger owns the object graph: accounts, balances, governance
// entities, content and market objects.  Blocks are applied one at a
// time; every block, transaction and operation runs inside its own
// undo session so that a failure leaves no trace.
//
// all access is expected from a single goroutine, the caller holds
// the Database lock while pushing blocks or transactions
package ledger
