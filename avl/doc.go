// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package avl - a height balanced tree of Item keys with parent
// links, used as the ordered storage under the object database
// indexes
//
// a tree is not safe for concurrent use, the object database holds
// its own lock around every access
//
// inserting an existing key replaces the value, nodes are never
// moved between keys so a node that is not deleted stays valid for
// Next and Prev while other keys are removed
package avl
