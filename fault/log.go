// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
)

// channel for the last message before a broken ledger invariant
// stops the node
var log *logger.L

// Initialise - open the PANIC log channel
func Initialise() error {
	if nil != log {
		return ErrAlreadyInitialised
	}
	log = logger.New("PANIC")
	if nil == log {
		return ErrInvalidLoggerChannel
	}
	return nil
}

// Finalise - flush the channel
func Finalise() {
	if nil != log {
		log.Flush()
		log = nil
	}
}

// Panicf - log the caller position with a formatted message then
// panic
//
// used where state has already been modified and cannot be
// unwound, an error return would leave the object database
// inconsistent
func Panicf(format string, arguments ...interface{}) {
	message := fmt.Sprintf(format, arguments...)
	if _, file, line, ok := runtime.Caller(1); ok {
		message = fmt.Sprintf("(%q:%d) %s", file, line, message)
	}

	if nil == log {
		fmt.Printf("*** %s\n", message)
	} else {
		log.Critical(message)
		log.Flush()
		time.Sleep(100 * time.Millisecond) // to allow logging output
	}
	panic(message)
}
