// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"sync"
)

// Transaction - writes to several pools committed together
type Transaction interface {
	Begin() error
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) []byte
	GetN(*PoolHandle, []byte) (uint64, bool)
	Commit() error
	Abort()
}

// TransactionData - one batch per database
type TransactionData struct {
	sync.Mutex
	access []Access
}

func newTransaction(access []Access) Transaction {
	return &TransactionData{
		access: access,
	}
}

// Begin - start a batch in every database, fails if any is in use
func (t *TransactionData) Begin() error {
	t.Lock()
	defer t.Unlock()

	for i, a := range t.access {
		if err := a.Begin(); nil != err {
			for _, started := range t.access[:i] {
				started.Abort()
			}
			return err
		}
	}
	return nil
}

func (t *TransactionData) Put(p *PoolHandle, key []byte, value []byte) {
	p.dataAccess.Put(p.prefixKey(key), value)
}

// PutN - store a big endian uint64
func (t *TransactionData) PutN(p *PoolHandle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	t.Put(p, key, buffer)
}

func (t *TransactionData) Delete(p *PoolHandle, key []byte) {
	p.dataAccess.Delete(p.prefixKey(key))
}

func (t *TransactionData) Get(p *PoolHandle, key []byte) []byte {
	return p.Get(key)
}

func (t *TransactionData) GetN(p *PoolHandle, key []byte) (uint64, bool) {
	return p.GetN(key)
}

// Commit - write every batch
//
// on error the remaining batches are dropped
func (t *TransactionData) Commit() error {
	t.Lock()
	defer t.Unlock()

	for i, a := range t.access {
		if err := a.Commit(); nil != err {
			for _, rest := range t.access[i+1:] {
				rest.Abort()
			}
			return err
		}
	}
	return nil
}

// Abort - drop every batch
func (t *TransactionData) Abort() {
	t.Lock()
	defer t.Unlock()

	for _, a := range t.access {
		a.Abort()
	}
}
