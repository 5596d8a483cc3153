// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

type tagType byte

// record types in cache file
const (
	taggedBOF tagType = iota
	taggedEOF
	taggedTransaction
)

// the BOF tag to check file version
// exact match is required
var bofData = []byte("yoyow-cache v1.0")

// largest record accepted from a file
const maximumRecordSize = 1 << 20

// LoadFromFile - load transactions saved by the previous run
//
// called once the ledger has replayed its blocks, transactions that
// no longer apply are dropped
func LoadFromFile() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	log := globalData.log
	if "" == globalData.filename {
		return nil
	}

	f, err := os.Open(globalData.filename)
	if os.IsNotExist(err) {
		log.Infof("no saved transactions: %s", globalData.filename)
		return nil
	} else if nil != err {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	// must have BOF record first
	tag, packed, err := readRecord(r)
	if nil != err {
		return err
	}
	if taggedBOF != tag || !bytes.Equal(bofData, packed) {
		return errors.Wrapf(fault.ErrReservoirFile, "expected BOF: %q but read: %d: %q", bofData, tag, packed)
	}

	log.Infof("restore from file: %s", globalData.filename)

	restored := 0
restore_loop:
	for {
		tag, packed, err := readRecord(r)
		if nil != err {
			return err
		}
		switch tag {

		case taggedEOF:
			break restore_loop

		case taggedTransaction:
			tx := &protocol.SignedTransaction{}
			if err := protocol.Packed(packed).UnpackAll(tx); nil != err {
				log.Errorf("unable to unpack transaction: %s", err)
				continue restore_loop
			}
			if _, err := storeTransaction(tx); nil != err {
				log.Warnf("transaction: %s dropped: %s", tx.ID(), err)
				continue restore_loop
			}
			restored += 1

		default:
			log.Errorf("read invalid tag: 0x%02x", tag)
			return errors.Wrapf(fault.ErrReservoirFile, "invalid tag: 0x%02x", tag)
		}
	}
	log.Infof("restored: %d transactions", restored)
	return nil
}

// save pending transactions to file
func saveToFile() error {
	globalData.Lock()
	defer globalData.Unlock()

	log := globalData.log

	if "" == globalData.filename || nil == globalData.ledger {
		return nil
	}

	log.Info("saving…")

	f, err := os.OpenFile(globalData.filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if nil != err {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	// write beginning of file marker
	if err := writeRecord(w, taggedBOF, bofData); nil != err {
		return err
	}

	pending := globalData.ledger.PendingTransactions()
	for _, ptx := range pending {
		packed, err := protocol.Pack(&ptx.SignedTransaction)
		if nil != err {
			log.Errorf("transaction: %s not saved: %s", ptx.ID(), err)
			continue
		}
		if err := writeRecord(w, taggedTransaction, packed); nil != err {
			return err
		}
	}

	// end the file
	if err := writeRecord(w, taggedEOF, []byte("EOF")); nil != err {
		return err
	}
	if err := w.Flush(); nil != err {
		return err
	}

	log.Infof("saved: %d transactions", len(pending))
	return nil
}

// write a tagged record
func writeRecord(w io.Writer, tag tagType, packed []byte) error {
	if len(packed) > maximumRecordSize {
		return errors.Wrapf(fault.ErrReservoirFile, "write record packed length: %d > %d", len(packed), maximumRecordSize)
	}

	header := make([]byte, 5)
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:], uint32(len(packed)))
	if _, err := w.Write(header); nil != err {
		return err
	}
	_, err := w.Write(packed)
	return err
}

func readRecord(r io.Reader) (tagType, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); nil != err {
		return taggedEOF, nil, errors.Wrap(fault.ErrReservoirFile, err.Error())
	}

	count := binary.BigEndian.Uint32(header[1:])
	if count > maximumRecordSize {
		return taggedEOF, nil, errors.Wrapf(fault.ErrReservoirFile, "record length: %d", count)
	}

	buffer := make([]byte, count)
	if _, err := io.ReadFull(r, buffer); nil != err {
		return taggedEOF, nil, errors.Wrap(fault.ErrReservoirFile, err.Error())
	}
	return tagType(header[0]), buffer, nil
}
