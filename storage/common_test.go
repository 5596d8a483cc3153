// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/storage"
)

// test database file
const (
	testingDirName   = "testing"
	databaseFileName = "test"
)

func databaseName() string {
	return filepath.Join(testingDirName, databaseFileName)
}

// remove all files created by test
func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

func TestMain(m *testing.M) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()

	logger.Finalise()
	removeFiles()
	os.Exit(rc)
}

// configure for testing
func setup(t *testing.T) {
	_ = os.RemoveAll(databaseName() + "-blocks.leveldb")
	_ = os.RemoveAll(databaseName() + "-index.leveldb")
	_, err := storage.Initialise(databaseName(), storage.ReadWrite)
	require.NoError(t, err, "storage initialise")
}

// post test cleanup
func teardown() {
	storage.Finalise()
	_ = os.RemoveAll(databaseName() + "-blocks.leveldb")
	_ = os.RemoveAll(databaseName() + "-index.leveldb")
}

// a string data item
type stringElement struct {
	key   string
	value string
}

// make an element array
func makeElements(input []stringElement) []storage.Element {
	output := make([]storage.Element, 0, len(input))
	for _, e := range input {
		output = append(output, storage.Element{
			Key:   []byte(e.key),
			Value: []byte(e.value),
		})
	}
	return output
}

// data for various test routines, in key order
var expectedElements = makeElements([]stringElement{
	{"key-five", "data-five"},
	{"key-four", "data-four"},
	{"key-one", "data-one"},
	{"key-seven", "data-seven"},
	{"key-six", "data-six"},
	{"key-three", "data-three"},
	{"key-two", "data-two"},
})

// store the expected elements in the test pool
func putElements(t *testing.T) {
	trx, err := storage.NewDBTransaction()
	require.NoError(t, err, "begin")
	for i := len(expectedElements) - 1; i >= 0; i -= 1 {
		e := expectedElements[i]
		trx.Put(storage.Pool.TestData, e.Key, e.Value)
	}
	require.NoError(t, trx.Commit(), "commit")
}

// a key that must not exist
var nonExistentKey = []byte("/nonexistent")
