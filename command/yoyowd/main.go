// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/background"
	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/cache"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/history"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/mode"
	"github.com/yoyow-org/yoyowd/noncons"
	"github.com/yoyow-org/yoyowd/producer"
	"github.com/yoyow-org/yoyowd/reservoir"
	"github.com/yoyow-org/yoyowd/storage"
	"github.com/yoyow-org/yoyowd/wasm"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile, nil)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.loggerConfiguration()); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: panic log setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the initial system mode - before any background tasks are started
	err = mode.Initialise(theConfiguration.Chain)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("mode initialise error: %s", err)
	}
	defer mode.Finalise()

	// general info
	log.Infof("test mode: %v", mode.IsTesting())
	log.Infof("database: %q", theConfiguration.Database)
	log.Infof("genesis: %q", theConfiguration.GenesisFile)

	witnessKeys, err := theConfiguration.witnessKeys()
	if nil != err {
		log.Criticalf("producer configuration error: %s", err)
		exitwithstatus.Message("producer configuration error: %s", err)
	}

	g, err := genesis.Load(theConfiguration.GenesisFile)
	if nil != err {
		log.Criticalf("genesis error: %s", err)
		exitwithstatus.Message("genesis error: %s", err)
	}
	log.Infof("chain id: %s", g.ChainID())

	// start the data storage
	log.Info("initialise storage")
	mustReindex, err := storage.Initialise(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	if mustReindex {
		log.Warn("block index will be rebuilt")
	}

	// start transaction id caches
	err = cache.Initialise()
	if nil != err {
		log.Criticalf("cache initialise error: %s", err)
		exitwithstatus.Message("cache initialise error: %s", err)
	}
	defer cache.Finalise()

	// block header data
	log.Info("initialise blockheader")
	err = blockheader.Initialise()
	if nil != err {
		log.Criticalf("blockheader initialise error: %s", err)
		exitwithstatus.Message("blockheader initialise error: %s", err)
	}
	defer blockheader.Finalise()

	// contract runtime
	ctx := context.Background()
	contracts, err := wasm.New(ctx, theConfiguration.Contracts.CacheSize)
	if nil != err {
		log.Criticalf("wasm initialise error: %s", err)
		exitwithstatus.Message("wasm initialise error: %s", err)
	}
	defer contracts.Close(ctx)

	// the chain state, rebuilt from genesis and the block log
	db, err := ledger.New(ledger.Options{
		MaxTrxCPUTimeUs: theConfiguration.Contracts.MaxTrxCPUUs,
		Contracts:       contracts,
	})
	if nil != err {
		log.Criticalf("ledger initialise error: %s", err)
		exitwithstatus.Message("ledger initialise error: %s", err)
	}

	operationHistory := history.New(theConfiguration.History.MaxOpsPerAccount)
	db.AddObserver(operationHistory)
	db.AddObserver(noncons.New())

	// block data storage - depends on storage and mode
	log.Info("initialise block")
	start := time.Now()
	err = block.Initialise(db, g, mustReindex)
	if nil != err {
		log.Criticalf("block initialise error: %s", err)
		exitwithstatus.Message("block initialise error: %s", err)
	}
	defer block.Finalise()
	replayTime := time.Since(start)

	// these commands are allowed to access the internal database
	if len(arguments) > 0 && processDataCommand(log, arguments, theConfiguration, db, replayTime) {
		return
	}

	// start the reservoir (pending transactions)
	log.Info("initialise reservoir")
	err = reservoir.Initialise(db, theConfiguration.ReservoirFile)
	if nil != err {
		log.Criticalf("reservoir initialise error: %s", err)
		exitwithstatus.Message("reservoir initialise error: %s", err)
	}
	defer reservoir.Finalise()

	// block and ledger are both ready
	// so can restore any previously saved transactions
	err = reservoir.LoadFromFile()
	if nil != err {
		log.Criticalf("reservoir reload error: %s", err)
		exitwithstatus.Message("reservoir reload error: %s", err)
	}

	mode.Set(mode.Normal)

	// background processes
	processes := background.Processes{}
	if len(witnessKeys) > 0 {
		p := producer.New(producer.Options{
			Witnesses:             witnessKeys,
			EnableStaleProduction: theConfiguration.Producer.EnableStaleProduction,
			RequiredParticipation: theConfiguration.Producer.RequiredParticipation,
		}, db, producer.BlockLog{})
		processes = append(processes, p)
	} else {
		log.Info("no witnesses configured, not producing")
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	// if memory logging enabled
	shutdown := make(chan struct{})
	defer close(shutdown)
	if len(options["memory-stats"]) > 0 {
		go memstats(shutdown)
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Stopped)
	log.Infof("operations indexed: %d", operationHistory.Operations())
}
