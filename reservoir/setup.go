// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

//go:generate mockgen -source=setup.go -destination=mocks/ledger.go -package=mocks

// Ledger - the pending state that accepted transactions are applied to
type Ledger interface {
	PushTransaction(*protocol.SignedTransaction) (*protocol.ProcessedTransaction, error)
	PendingTransactions() []*protocol.ProcessedTransaction
}

// globals
type globalDataType struct {
	sync.RWMutex
	log      *logger.L
	enabled  bool
	ledger   Ledger
	filename string

	// set once during initialise
	initialised bool
}

// gobal storage
var globalData globalDataType

// Initialise - create the pool
//
// filename is where the pending transactions are saved on shutdown,
// empty to disable saving
func Initialise(l Ledger, filename string) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	globalData.log = logger.New("reservoir")
	if nil == globalData.log {
		return fault.ErrInvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.ledger = l
	globalData.filename = filename
	globalData.enabled = true

	// all data initialised
	globalData.initialised = true
	return nil
}

// Finalise - save the pending transactions and stop
func Finalise() error {

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	Disable()

	err := saveToFile()
	if nil != err {
		globalData.log.Errorf("save error: %s", err)
	}

	globalData.Lock()
	globalData.initialised = false
	globalData.ledger = nil
	globalData.Unlock()

	globalData.log.Info("finished")
	globalData.log.Flush()
	return err
}

// Enable - accept transactions
func Enable() {
	globalData.Lock()
	globalData.enabled = true
	globalData.Unlock()
}

// Disable - refuse transactions, used while blocks are replayed or
// deleted
func Disable() {
	globalData.Lock()
	globalData.enabled = false
	globalData.Unlock()
}

// IsEnabled - accepting transactions
func IsEnabled() bool {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.enabled
}

// ReadCounter - number of pending transactions
func ReadCounter() int {
	globalData.RLock()
	defer globalData.RUnlock()

	if nil == globalData.ledger {
		return 0
	}
	return len(globalData.ledger.PendingTransactions())
}
