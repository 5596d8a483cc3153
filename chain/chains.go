// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

// names of all chains
const (
	Yoyow   = "yoyow"
	Testing = "testing"
	Local   = "local"
)

// Valid - validate a chain name
func Valid(name string) bool {
	switch name {
	case Yoyow, Testing, Local:
		return true
	default:
		return false
	}
}

// AllowsStaleProduction - true for chains where a single node may
// produce blocks even when the head is far behind wall clock
func AllowsStaleProduction(name string) bool {
	switch name {
	case Testing, Local:
		return true
	default:
		return false
	}
}
