// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/reservoir"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

// memory and chain progress logged until shutdown
func memstats(shutdown <-chan struct{}) {

	log := logger.New("memory")

	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		a := m.Alloc / mega
		t := m.TotalAlloc / mega
		s := m.Sys / mega
		log.Infof("allocated: %d M  cumulative: %d M  OS virtual: %d M  gc: %d", a, t, s, m.NumGC)
		log.Infof("height: %d  pending transactions: %d", blockheader.Height(), reservoir.ReadCounter())

		select {
		case <-shutdown:
			return
		case <-time.After(statsDelay):
		}
	}
}
