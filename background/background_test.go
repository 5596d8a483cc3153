// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/background"
)

// counts ticks until shutdown, then records that it returned
type ticker struct {
	interval time.Duration
	ticks    int64
	finished int32
}

func (tk *ticker) Run(args interface{}, shutdown <-chan struct{}) {
	seen := args.(*int32)
	atomic.AddInt32(seen, 1)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(tk.interval):
			atomic.AddInt64(&tk.ticks, 1)
		}
	}

	// slow shutdown, Stop must still wait for it
	time.Sleep(5 * time.Millisecond)
	atomic.StoreInt32(&tk.finished, 1)
}

func TestStopWaitsForAll(t *testing.T) {
	fast := &ticker{interval: time.Millisecond}
	slow := &ticker{interval: time.Hour}

	started := int32(0)
	p := background.Start(background.Processes{fast, slow}, &started)
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&started), "every process started")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fast.finished), "fast finished")
	assert.Equal(t, int32(1), atomic.LoadInt32(&slow.finished), "slow finished")
	assert.Greater(t, atomic.LoadInt64(&fast.ticks), int64(0), "fast ticked")
	assert.Equal(t, int64(0), atomic.LoadInt64(&slow.ticks), "slow never ticked")

	// a second stop returns at once
	p.Stop()
}

func TestNoProcesses(t *testing.T) {
	p := background.Start(background.Processes{}, nil)
	p.Stop()
}

func TestStopNil(t *testing.T) {
	var p *background.T
	p.Stop()
}
