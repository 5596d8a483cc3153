// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/blockdump"
	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/util"
)

const (
	defaultGenesisWitnesses = 11
	defaultGenesisBalance   = constants.CorePrecision * 1000000
)

// setup command handler
//
// commands that run to create key and genesis files these commands
// cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-key", "key":
		key, err := keypair.NewPrivateKey()
		if nil != err {
			exitwithstatus.Message("generate key error: %s", err)
		}
		fmt.Printf("private key: %s\n", key.WIF())
		fmt.Printf("public key:  %s\n", key.PublicKey())

	case "gen-genesis", "genesis":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing file name argument")
		}
		filename := arguments[0]
		witnesses := defaultGenesisWitnesses
		if len(arguments) > 1 {
			n, err := strconv.Atoi(arguments[1])
			if nil != err || n < 1 {
				exitwithstatus.Message("error: invalid witness count: %q", arguments[1])
			}
			witnesses = n
		}
		if err := makeGenesis(filename, witnesses); nil != err {
			exitwithstatus.Message("generate genesis: %q error: %s", filename, err)
		}

	case "start", "run":
		return false // continue processing

	case "dump-block", "block", "b", "replay", "delete-down", "dd", "save-blocks", "save", "load-blocks", "load":
		return false // defer processing until database is loaded

	case "config-test", "cfg", "chain-id", "id":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-key                    (key)    - create a key pair and print it\n")
		fmt.Printf("\n")

		fmt.Printf("  gen-genesis FILE [N]       (genesis) - write a genesis with N witnesses sharing\n")
		fmt.Printf("                                        a new key, default: %d\n", defaultGenesisWitnesses)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  chain-id                   (id)     - display the chain id of the genesis file\n")
		fmt.Printf("\n")

		fmt.Printf("  dump-block S [E [FILE]]    (b)      - dump block(s) as a JSON structures to stdout/file\n")
		fmt.Printf("\n")

		fmt.Printf("  replay                              - replay the block log and check the state\n")
		fmt.Printf("\n")

		fmt.Printf("  save-blocks FILE           (save)   - dump all blocks to a file\n")
		fmt.Printf("\n")

		fmt.Printf("  load-blocks FILE           (load)   - restore all blocks from a file\n")
		fmt.Printf("                                        only runs if database is deleted first\n")
		fmt.Printf("\n")

		fmt.Printf("  delete-down NUMBER         (dd)     - delete blocks in descending order\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	case "chain-id", "id":
		g, err := genesis.Load(options.GenesisFile)
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		fmt.Printf("%s\n", g.ChainID())

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the block log and the ledger are open so these commands can access
// and/or change them
func processDataCommand(log *logger.L, arguments []string, options *Configuration, db *ledger.Database, replayTime time.Duration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "dump-block", "block", "b":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing block number argument")
		}

		n := parseBlockNumber(arguments[0])
		output := "-"

		// optional end range
		nEnd := n
		if len(arguments) > 1 {
			nEnd = parseBlockNumber(arguments[1])
			if nEnd < n {
				exitwithstatus.Message("error: invalid ending block number: %d must not be less than: %d", nEnd, n)
			}
		}

		if len(arguments) > 2 {
			output = strings.TrimSpace(arguments[2])
		}
		fd := os.Stdout

		if output != "" && output != "-" {
			var err error
			fd, err = os.Create(output)
			if nil != err {
				exitwithstatus.Message("error: creating: %q error: %s", output, err)
			}
		}

		fmt.Fprintf(fd, "[\n")
		for ; n <= nEnd; n += 1 {
			result, err := blockdump.BlockDump(n, true)
			if nil != err {
				exitwithstatus.Message("dump block: %d error: %s", n, err)
			}
			s, err := json.MarshalIndent(result, "  ", "  ")
			if nil != err {
				exitwithstatus.Message("dump block JSON error: %s", err)
			}

			fmt.Fprintf(fd, "  %s,\n", s)
		}
		fmt.Fprintf(fd, "{}]\n")
		fd.Close()

	case "replay":
		fmt.Printf("replayed: %d blocks in: %s\n", db.HeadBlockNum(), replayTime)
		fmt.Printf("head block: %s\n", db.HeadBlockID())
		fmt.Printf("head time: %s\n", db.HeadBlockTime())
		fmt.Printf("irreversible: %d\n", db.LastIrreversibleBlockNum())
		if err := db.CheckInvariants(); nil != err {
			log.Criticalf("invariant error: %s", err)
			exitwithstatus.Message("invariant error: %s", err)
		}
		fmt.Printf("invariants: ok\n")

	case "save-blocks", "save":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing file name argument")
		}
		filename := arguments[0]
		if "" == filename {
			exitwithstatus.Message("missing file name")
		}
		err := saveBinaryBlocks(filename)
		if nil != err {
			exitwithstatus.Message("failed writing: %q  error: %s", filename, err)
		}

	case "load-blocks", "load":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing file name argument")
		}
		filename := arguments[0]
		if "" == filename {
			exitwithstatus.Message("missing file name")
		}
		err := restoreBinaryBlocks(filename)
		if nil != err {
			exitwithstatus.Message("failed reading: %q  error: %s", filename, err)
		}

	case "delete-down", "dd":
		// delete blocks down to a given block number
		if len(arguments) < 1 {
			exitwithstatus.Message("missing block number argument")
		}

		n := parseBlockNumber(arguments[0])
		err := block.DeleteDownToBlock(n)
		if nil != err {
			exitwithstatus.Message("block delete error: %s", err)
		}
		fmt.Printf("reduced height to: %d\n", blockheader.Height())

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

// block numbers start at one
func parseBlockNumber(s string) uint32 {
	n, err := strconv.ParseUint(s, 10, 32)
	if nil != err {
		exitwithstatus.Message("error in block number: %s", err)
	}
	if n < 1 {
		exitwithstatus.Message("error: invalid block number: %d must be greater than 0", n)
	}
	return uint32(n)
}

// a local style genesis, every witness shares one new key
func makeGenesis(filename string, witnesses int) error {
	if util.EnsureFileExists(filename) {
		return fault.ErrGenesisFileExists
	}

	key, err := keypair.NewPrivateKey()
	if nil != err {
		return err
	}

	now := protocol.TimestampOf(time.Now())
	g := genesis.Local(key.PublicKey(), now, witnesses, defaultGenesisBalance)
	if err := g.Validate(); nil != err {
		return err
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if nil != err {
		return err
	}
	if err := ioutil.WriteFile(filename, append(data, '\n'), 0600); nil != err {
		return err
	}

	fmt.Printf("generated genesis: %q\n", filename)
	fmt.Printf("chain id:          %s\n", g.ChainID())
	fmt.Printf("witness key:       %s\n", key.WIF())
	fmt.Printf("witnesses:\n")
	for i := 0; i < witnesses; i += 1 {
		fmt.Printf("  %s\n", genesis.LocalUID(i))
	}
	return nil
}
