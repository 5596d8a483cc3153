// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/blockheader"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
	"github.com/yoyow-org/yoyowd/storage"
)

// blocks read from the log per fetch
const saveBatchSize = 100

// save blocks above genesis to a file
// record format:
//   big endian record length (n)   4 bytes
//   packed block                   n bytes
func saveBinaryBlocks(filename string) error {

	if 0 == blockheader.Height() {
		return fmt.Errorf("nothing to save")
	}

	fh, err := os.Create(filename)
	if nil != err {
		return err
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	cursor := storage.Pool.Blocks.NewFetchCursor()

loop:
	for {
		elements, err := cursor.Fetch(saveBatchSize)
		if nil != err {
			return err
		}
		if 0 == len(elements) {
			break loop
		}
		for _, e := range elements {
			n := binary.BigEndian.Uint32(e.Key)
			if n%100 == 0 {
				fmt.Printf("%d", n)
			} else {
				fmt.Printf(".")
			}
			if err := writeRecord(w, e.Value); nil != err {
				return err
			}
		}
	}
	fmt.Printf("\n")
	return w.Flush()
}

func writeRecord(w io.Writer, buffer []byte) error {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(buffer)))
	if _, err := w.Write(l); nil != err {
		return err
	}
	_, err := w.Write(buffer)
	return err
}

// restore binary blocks from a file
// record format: (as save above)
//
// every block is fully validated as it is pushed
func restoreBinaryBlocks(filename string) error {
	fh, err := os.Open(filename)
	if nil != err {
		return err
	}
	defer fh.Close()

	if blockheader.Height() > 0 {
		return fmt.Errorf("not overwriting existing data")
	}

	r := bufio.NewReader(fh)

loop:
	for {
		buffer, err := readRecord(r)
		if err == io.EOF {
			break loop
		} else if nil != err {
			return err
		}

		b := &protocol.SignedBlock{}
		if err := protocol.Packed(buffer).UnpackAll(b); nil != err {
			return err
		}

		n := b.BlockNum()
		if n%100 == 0 {
			fmt.Printf("%d", n)
		} else {
			fmt.Printf(".")
		}

		if err := block.StoreIncoming(b, ledger.SkipNothing); nil != err {
			return fmt.Errorf("block: %d error: %s", n, err)
		}
	}
	fmt.Printf("\n")
	return nil
}

func readRecord(r io.Reader) ([]byte, error) {
	l := make([]byte, 4)
	if _, err := io.ReadFull(r, l); nil != err {
		return nil, err
	}
	buffer := make([]byte, binary.BigEndian.Uint32(l))
	if _, err := io.ReadFull(r, buffer); nil != err {
		if io.EOF == err {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buffer, nil
}
