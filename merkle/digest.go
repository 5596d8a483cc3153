// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ripemd160"

	"github.com/yoyow-org/yoyowd/fault"
)

// number of bytes in the digest
const DigestLength = 32

// number of bytes in a checksum
const ChecksumLength = 20

// Digest - SHA-256 of a packed record
//
// to convert to bytes just use d[:]
type Digest [DigestLength]byte

// Checksum - RIPEMD-160 of a digest, stored in block headers
type Checksum [ChecksumLength]byte

// NewDigest - create a digest from a byte slice
func NewDigest(record []byte) Digest {
	return sha256.Sum256(record)
}

// digest of two digests concatenated
func pair(left Digest, right Digest) Digest {
	buffer := make([]byte, 0, 2*DigestLength)
	buffer = append(buffer, left[:]...)
	buffer = append(buffer, right[:]...)
	return NewDigest(buffer)
}

// ChecksumOf - RIPEMD-160 of a digest
func ChecksumOf(d Digest) Checksum {
	h := ripemd160.New()
	h.Write(d[:])
	c := Checksum{}
	copy(c[:], h.Sum(nil))
	return c
}

// String - hex for the fmt package (for %s)
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// GoString - for %#v
func (digest Digest) GoString() string {
	return "<SHA256:" + hex.EncodeToString(digest[:]) + ">"
}

// Scan - hex representation to a digest for the fmt scan routines
func (digest *Digest) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, isHex)
	if nil != err {
		return err
	}
	return DigestFromHex(digest, token)
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// MarshalText - digest to hex text
func (digest Digest) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(digest)))
	hex.Encode(buffer, digest[:])
	return buffer, nil
}

// UnmarshalText - hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	return DigestFromHex(digest, s)
}

// DigestFromHex - validate and convert hex text
func DigestFromHex(digest *Digest, s []byte) error {
	if len(s) != hex.EncodedLen(DigestLength) {
		return fault.ErrInvalidLength
	}
	buffer := make([]byte, DigestLength)
	if _, err := hex.Decode(buffer, s); nil != err {
		return err
	}
	copy(digest[:], buffer)
	return nil
}

// DigestFromBytes - convert and validate a byte slice to a digest
func DigestFromBytes(digest *Digest, buffer []byte) error {
	if DigestLength != len(buffer) {
		return fault.ErrInvalidLength
	}
	copy(digest[:], buffer)
	return nil
}

// String - hex for the fmt package
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalText - checksum to hex text
func (c Checksum) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(c)))
	hex.Encode(buffer, c[:])
	return buffer, nil
}

// UnmarshalText - hex text into a checksum
func (c *Checksum) UnmarshalText(s []byte) error {
	if len(s) != hex.EncodedLen(ChecksumLength) {
		return fault.ErrInvalidLength
	}
	buffer := make([]byte, ChecksumLength)
	if _, err := hex.Decode(buffer, s); nil != err {
		return err
	}
	copy(c[:], buffer)
	return nil
}
