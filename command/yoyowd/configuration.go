// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/chain"
	"github.com/yoyow-org/yoyowd/configuration"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/history"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/producer"
	"github.com/yoyow-org/yoyowd/util"
	"github.com/yoyow-org/yoyowd/wasm"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultYoyowDatabase    = chain.Yoyow
	defaultTestingDatabase  = chain.Testing
	defaultLocalDatabase    = chain.Local

	defaultGenesisFile   = "genesis.json"
	defaultReservoirFile = "reservoir.cache"

	defaultLogDirectory = "log"
	defaultLogFile      = "yoyowd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// ProducerType - witnesses this node signs for, keyed by uid
type ProducerType struct {
	Witnesses             map[string]string `gluamapper:"witnesses" json:"-"`
	EnableStaleProduction bool              `gluamapper:"enable_stale_production" json:"enable_stale_production"`
	RequiredParticipation uint32            `gluamapper:"required_participation" json:"required_participation"`
}

type ContractsType struct {
	MaxTrxCPUUs uint32 `gluamapper:"max_trx_cpu_us" json:"max_trx_cpu_us"`
	CacheSize   int    `gluamapper:"cache_size" json:"cache_size"`
}

type HistoryType struct {
	MaxOpsPerAccount int `gluamapper:"max_ops_per_account" json:"max_ops_per_account"`
}

type LoggerType struct {
	Directory string            `gluamapper:"directory" json:"directory"`
	File      string            `gluamapper:"file" json:"file"`
	Size      int               `gluamapper:"size" json:"size"`
	Count     int               `gluamapper:"count" json:"count"`
	Console   bool              `gluamapper:"console" json:"console"`
	Levels    map[string]string `gluamapper:"levels" json:"levels"`
}

type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string       `gluamapper:"pidfile" json:"pidfile"`
	Chain         string       `gluamapper:"chain" json:"chain"`
	Database      DatabaseType `gluamapper:"database" json:"database"`
	GenesisFile   string       `gluamapper:"genesis_file" json:"genesis_file"`
	ReservoirFile string       `gluamapper:"reservoir_file" json:"reservoir_file"`

	Producer  ProducerType  `gluamapper:"producer" json:"producer"`
	Contracts ContractsType `gluamapper:"contracts" json:"contracts"`
	History   HistoryType   `gluamapper:"history" json:"history"`
	Logging   LoggerType    `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         chain.Yoyow,
		GenesisFile:   defaultGenesisFile,
		ReservoirFile: defaultReservoirFile,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultYoyowDatabase,
		},

		Producer: ProducerType{
			RequiredParticipation: producer.DefaultRequiredParticipation,
		},

		Contracts: ContractsType{
			CacheSize: wasm.DefaultCacheSize,
		},

		History: HistoryType{
			MaxOpsPerAccount: history.DefaultMaxOpsPerAccount,
		},

		Logging: LoggerType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	// if any test mode and the database file was not specified
	// switch to appropriate default.  Abort if then chain name is
	// not recognised.
	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, errors.Wrapf(fault.ErrInvalidChain, "chain: %q is not supported", options.Chain)
	}

	// if database was not changed from default
	if options.Database.Name == defaultYoyowDatabase {
		switch options.Chain {
		case chain.Yoyow:
			// already correct default
		case chain.Testing:
			options.Database.Name = defaultTestingDatabase
		case chain.Local:
			options.Database.Name = defaultLocalDatabase
		default:
			return nil, fmt.Errorf("chain: %s no default database setting", options.Chain)
		}
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.GenesisFile,
		&options.ReservoirFile,
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	// check the keys now rather than when the producer starts
	if _, err := options.witnessKeys(); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

// the logger section in the form the logger expects
func (c *Configuration) loggerConfiguration() logger.Configuration {
	return logger.Configuration{
		Directory: c.Logging.Directory,
		File:      c.Logging.File,
		Size:      c.Logging.Size,
		Count:     c.Logging.Count,
		Console:   c.Logging.Console,
		Levels:    c.Logging.Levels,
	}
}

// decode the producer section
func (c *Configuration) witnessKeys() (map[account.UID]*keypair.PrivateKey, error) {
	keys := make(map[account.UID]*keypair.PrivateKey, len(c.Producer.Witnesses))
	for id, wif := range c.Producer.Witnesses {
		n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if nil != err {
			return nil, errors.Wrapf(fault.ErrInvalidAccountUID, "producer witness: %q", id)
		}
		uid := account.UID(n)
		if err := account.ValidateUID(uid); nil != err {
			return nil, errors.Wrapf(err, "producer witness: %q", id)
		}
		key, err := keypair.FromWIF(wif)
		if nil != err {
			return nil, errors.Wrapf(err, "producer witness: %q", id)
		}
		keys[uid] = key
	}
	return keys, nil
}
