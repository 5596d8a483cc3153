// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reservoir - pool of transactions waiting for a block
//
// accepted transactions are applied to the pending state of the
// ledger, the pool remembers recently seen and rejected transaction
// ids and saves the pending list to a file on shutdown
package reservoir
