// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"bytes"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/yoyow-org/yoyowd/constants"
)

// PublicKeyLength - bytes in a compressed public key
const PublicKeyLength = 33

const checksumLength = 4

// PublicKey - compressed secp256k1 point
type PublicKey [PublicKeyLength]byte

// ParsePublicKey - decode the YYW text form
func ParsePublicKey(s string) (PublicKey, error) {
	key := PublicKey{}
	if !strings.HasPrefix(s, constants.AddressPrefix) {
		return key, ErrKeyPrefix
	}
	data, err := base58.Decode(s[len(constants.AddressPrefix):])
	if nil != err {
		return key, err
	}
	if PublicKeyLength+checksumLength != len(data) {
		return key, ErrKeyLength
	}
	check := ripemdChecksum(data[:PublicKeyLength])
	if !bytes.Equal(check, data[PublicKeyLength:]) {
		return key, ErrChecksum
	}
	copy(key[:], data)
	return key, nil
}

// PublicKeyFromBytes - copy a compressed key after checking it is on the curve
func PublicKeyFromBytes(data []byte) (PublicKey, error) {
	key := PublicKey{}
	if PublicKeyLength != len(data) {
		return key, ErrKeyLength
	}
	if _, err := crypto.DecompressPubkey(data); nil != err {
		return key, err
	}
	copy(key[:], data)
	return key, nil
}

func fromECDSA(pub *ecdsa.PublicKey) PublicKey {
	key := PublicKey{}
	copy(key[:], crypto.CompressPubkey(pub))
	return key
}

// String - YYW followed by base58 of key and ripemd160 checksum
func (key PublicKey) String() string {
	data := make([]byte, 0, PublicKeyLength+checksumLength)
	data = append(data, key[:]...)
	data = append(data, ripemdChecksum(key[:])...)
	return constants.AddressPrefix + base58.Encode(data)
}

// IsZero - true for the all zero key
func (key PublicKey) IsZero() bool {
	return key == PublicKey{}
}

// Compare - byte order, used for sorted key maps
func (key PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(key[:], other[:])
}

// MarshalText - convert to YYW text
func (key PublicKey) MarshalText() ([]byte, error) {
	return []byte(key.String()), nil
}

// UnmarshalText - convert from YYW text
func (key *PublicKey) UnmarshalText(s []byte) error {
	k, err := ParsePublicKey(string(s))
	if nil != err {
		return err
	}
	*key = k
	return nil
}

func ripemdChecksum(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)[:checksumLength]
}
