// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"os"
	"reflect"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/yoyow-org/yoyowd/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Blocks     *PoolHandle `prefix:"B" database:"blocks"`
	BlockIndex *PoolHandle `prefix:"2" database:"index"`
	Metadata   *PoolHandle `prefix:"M" database:"index"`
	TestData   *PoolHandle `prefix:"Z" database:"index"`
}

// Pool - the set of exported pools
var Pool pools

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentBlockDBVersion = 0x100
	currentIndexDBVersion = 0x100
)

// holds the database handle
var poolData struct {
	sync.RWMutex
	dbBlocks *leveldb.DB
	dbIndex  *leveldb.DB
	trx      Transaction
}

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open the block log and its index
//
// this must be called before any pool is accessed, the result is true
// if the index had to be dropped and must be rebuilt from the blocks
func Initialise(database string, readOnly bool) (bool, error) {
	poolData.Lock()
	defer poolData.Unlock()

	if nil != poolData.dbBlocks {
		return false, fault.ErrAlreadyInitialised
	}

	mustReindex, err := open(database, readOnly)
	if nil != err {
		dbClose()
		return false, err
	}
	return mustReindex, nil
}

// internal: must hold lock
func open(database string, readOnly bool) (bool, error) {
	blocksDatabase := database + "-blocks.leveldb"
	indexDatabase := database + "-index.leveldb"

	db, blocksVersion, err := getDB(blocksDatabase, readOnly)
	if nil != err {
		return false, err
	}
	poolData.dbBlocks = db

	db, indexVersion, err := getDB(indexDatabase, readOnly)
	if nil != err {
		return false, err
	}
	poolData.dbIndex = db

	if err := checkVersions(blocksVersion, indexVersion, readOnly); nil != err {
		return false, err
	}

	mustReindex := false
	if !readOnly {
		if 0 == blocksVersion {
			// empty log so tag as current version
			if err := putVersion(poolData.dbBlocks, currentBlockDBVersion); nil != err {
				return false, err
			}
		}
		if indexVersion < currentIndexDBVersion {
			mustReindex = 0 != blocksVersion
			if err := resetIndex(indexDatabase); nil != err {
				return false, err
			}
		}
	}

	blockDBAccess := newDA(poolData.dbBlocks, newCache())
	indexDBAccess := newDA(poolData.dbIndex, newCache())
	poolData.trx = newTransaction([]Access{blockDBAccess, indexDBAccess})

	if err := bindPools(map[string]Access{
		"blocks": blockDBAccess,
		"index":  indexDBAccess,
	}); nil != err {
		return false, err
	}
	return mustReindex, nil
}

// a newer database is never downgraded, an older block log cannot be
// converted and a read only open needs both to be current
func checkVersions(blocksVersion int, indexVersion int, readOnly bool) error {
	if blocksVersion > currentBlockDBVersion {
		logger.Criticalf("block database version: %d > current version: %d", blocksVersion, currentBlockDBVersion)
		return errors.Wrapf(fault.ErrDatabaseVersion, "block database version: %d > current version: %d", blocksVersion, currentBlockDBVersion)
	}
	if indexVersion > currentIndexDBVersion {
		logger.Criticalf("index database version: %d > current version: %d", indexVersion, currentIndexDBVersion)
		return errors.Wrapf(fault.ErrDatabaseVersion, "index database version: %d > current version: %d", indexVersion, currentIndexDBVersion)
	}
	if readOnly && (blocksVersion != currentBlockDBVersion || indexVersion != currentIndexDBVersion) {
		logger.Criticalf("database is inconsistent: blocks: %d  index: %d  current: %d & %d", blocksVersion, indexVersion, currentBlockDBVersion, currentIndexDBVersion)
		return errors.Wrapf(fault.ErrDatabaseVersion, "database is inconsistent: blocks: %d  index: %d", blocksVersion, indexVersion)
	}
	if 0 < blocksVersion && blocksVersion < currentBlockDBVersion {
		logger.Criticalf("block database version: %d < current version: %d", blocksVersion, currentBlockDBVersion)
		return errors.Wrapf(fault.ErrDatabaseVersion, "block database version: %d < current version: %d", blocksVersion, currentBlockDBVersion)
	}
	return nil
}

// drop the index database and create an empty one at the current
// version, the blocks are replayed to fill it
func resetIndex(indexDatabase string) error {
	poolData.dbIndex.Close()
	poolData.dbIndex = nil

	logger.Criticalf("drop index database: %s", indexDatabase)
	if err := os.RemoveAll(indexDatabase); nil != err {
		return err
	}

	db, _, err := getDB(indexDatabase, ReadWrite)
	if nil != err {
		return err
	}
	poolData.dbIndex = db
	return putVersion(db, currentIndexDBVersion)
}

// fill each exported field of Pool from its prefix and database tags
func bindPools(databases map[string]Access) error {
	poolType := reflect.TypeOf(Pool)
	poolValue := reflect.ValueOf(&Pool).Elem()

	for i := 0; i < poolType.NumField(); i += 1 {
		field := poolType.Field(i)

		tag := field.Tag.Get("prefix")
		if 1 != len(tag) {
			return errors.Errorf("pool: %s has invalid prefix: %q", field.Name, tag)
		}
		dataAccess, ok := databases[field.Tag.Get("database")]
		if !ok {
			return errors.Errorf("pool: %s has invalid database: %q", field.Name, field.Tag.Get("database"))
		}

		prefix := tag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}
		poolValue.Field(i).Set(reflect.ValueOf(&PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: dataAccess,
		}))
	}
	return nil
}

func dbClose() {
	if nil != poolData.dbIndex {
		poolData.dbIndex.Close()
		poolData.dbIndex = nil
	}
	if nil != poolData.dbBlocks {
		poolData.dbBlocks.Close()
		poolData.dbBlocks = nil
	}
	poolData.trx = nil
	Pool = pools{}
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	dbClose()
	poolData.Unlock()
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, errors.Wrapf(fault.ErrDatabaseVersion, "version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}

// NewDBTransaction - begin a transaction over every pool
func NewDBTransaction() (Transaction, error) {
	poolData.RLock()
	trx := poolData.trx
	poolData.RUnlock()

	if nil == trx {
		return nil, fault.ErrNotInitialised
	}
	if err := trx.Begin(); nil != err {
		return nil, err
	}
	return trx, nil
}
