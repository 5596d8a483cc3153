// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

const (
	wifVersion   = 0x80
	secretLength = 32
)

// PrivateKey - secp256k1 signing key
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// NewPrivateKey - generate a random key
func NewPrivateKey() (*PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if nil != err {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// FromSecret - key from a 32 byte big endian secret
func FromSecret(secret []byte) (*PrivateKey, error) {
	if secretLength != len(secret) {
		return nil, ErrKeyLength
	}
	key, err := crypto.ToECDSA(secret)
	if nil != err {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// FromWIF - decode wallet import format
//
// 0x80 ‖ secret ‖ sha256(sha256(0x80 ‖ secret))[:4]
func FromWIF(s string) (*PrivateKey, error) {
	data, err := base58.Decode(s)
	if nil != err {
		return nil, err
	}
	if 1+secretLength+checksumLength != len(data) {
		return nil, ErrKeyLength
	}
	if wifVersion != data[0] {
		return nil, ErrWIFVersion
	}
	payload := data[:1+secretLength]
	if !bytes.Equal(doubleSHA256(payload)[:checksumLength], data[1+secretLength:]) {
		return nil, ErrChecksum
	}
	return FromSecret(payload[1:])
}

// WIF - encode as wallet import format
func (p *PrivateKey) WIF() string {
	data := make([]byte, 0, 1+secretLength+checksumLength)
	data = append(data, wifVersion)
	data = append(data, p.Secret()...)
	data = append(data, doubleSHA256(data)[:checksumLength]...)
	return base58.Encode(data)
}

// Secret - the 32 byte secret
func (p *PrivateKey) Secret() []byte {
	return crypto.FromECDSA(p.key)
}

// PublicKey - the matching compressed public key
func (p *PrivateKey) PublicKey() PublicKey {
	return fromECDSA(&p.key.PublicKey)
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}
