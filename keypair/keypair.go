// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"crypto/sha256"
	"crypto/sha512"
	"strconv"

	"github.com/yoyow-org/yoyowd/fault"
)

// key errors
var (
	ErrKeyLength      = fault.InvalidError("key length is invalid")
	ErrChecksum       = fault.InvalidError("key checksum mismatch")
	ErrKeyPrefix      = fault.InvalidError("key prefix is invalid")
	ErrWIFVersion     = fault.InvalidError("private key version is invalid")
	ErrRecoverFailed  = fault.InvalidError("public key recovery failed")
	ErrSignatureBytes = fault.InvalidError("signature length is invalid")
)

// RawKeyPair - text version of keys
type RawKeyPair struct {
	BrainKey   string `json:"brain_key,omitempty"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// MakeRawKeyPair - create a new random key and render it as text
func MakeRawKeyPair() (*RawKeyPair, *PrivateKey, error) {
	privateKey, err := NewPrivateKey()
	if nil != err {
		return nil, nil, err
	}
	raw := &RawKeyPair{
		PublicKey:  privateKey.PublicKey().String(),
		PrivateKey: privateKey.WIF(),
	}
	return raw, privateKey, nil
}

// MakeRawKeyPairFromBrainKey - derive the key at a sequence number of a brain key
func MakeRawKeyPairFromBrainKey(brainKey string, sequence uint32) (*RawKeyPair, *PrivateKey, error) {
	privateKey, err := FromBrainKey(brainKey, sequence)
	if nil != err {
		return nil, nil, err
	}
	raw := &RawKeyPair{
		BrainKey:   brainKey,
		PublicKey:  privateKey.PublicKey().String(),
		PrivateKey: privateKey.WIF(),
	}
	return raw, privateKey, nil
}

// FromSeed - the key whose secret is sha256 of the seed text
func FromSeed(seed string) (*PrivateKey, error) {
	secret := sha256.Sum256([]byte(seed))
	return FromSecret(secret[:])
}

// FromBrainKey - the key whose secret is sha256(sha512(brain ‖ " " ‖ sequence))
func FromBrainKey(brainKey string, sequence uint32) (*PrivateKey, error) {
	h := sha512.Sum512([]byte(brainKey + " " + strconv.FormatUint(uint64(sequence), 10)))
	secret := sha256.Sum256(h[:])
	return FromSecret(secret[:])
}
