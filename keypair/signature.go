// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/yoyow-org/yoyowd/fault"
)

// SignatureLength - header byte then r and s
const SignatureLength = 65

// compact header for a compressed key: 27 + 4 + recovery id
const compactHeader = 27 + 4

var halfOrder = new(big.Int).Rsh(crypto.S256().Params().N, 1)

// Signature - compact recoverable signature
type Signature [SignatureLength]byte

// Sign - sign a 32 byte digest
func (p *PrivateKey) Sign(digest [32]byte) (Signature, error) {
	sig := Signature{}

	// r ‖ s ‖ v with v in 0..3
	rsv, err := crypto.Sign(digest[:], p.key)
	if nil != err {
		return sig, err
	}
	sig[0] = compactHeader + rsv[64]
	copy(sig[1:], rsv[:64])

	if !sig.IsCanonical() {
		return sig, fault.ErrNotCanonical
	}
	return sig, nil
}

// IsCanonical - s must be in the lower half of the curve order
func (sig Signature) IsCanonical() bool {
	r := new(big.Int).SetBytes(sig[1:33])
	s := new(big.Int).SetBytes(sig[33:65])
	if 0 == r.Sign() || 0 == s.Sign() {
		return false
	}
	return s.Cmp(halfOrder) <= 0
}

// Recover - the public key that produced a signature over digest
func Recover(sig Signature, digest [32]byte) (PublicKey, error) {
	if !sig.IsCanonical() {
		return PublicKey{}, fault.ErrNotCanonical
	}
	recid := int(sig[0]) - 27
	if recid >= 4 {
		recid -= 4
	}
	if recid < 0 || recid > 3 {
		return PublicKey{}, fault.ErrInvalidSignature
	}

	rsv := make([]byte, SignatureLength)
	copy(rsv, sig[1:])
	rsv[64] = byte(recid)

	pub, err := crypto.SigToPub(digest[:], rsv)
	if nil != err {
		return PublicKey{}, ErrRecoverFailed
	}
	return fromECDSA(pub), nil
}

// SignatureFromBytes - copy a 65 byte slice
func SignatureFromBytes(data []byte) (Signature, error) {
	sig := Signature{}
	if SignatureLength != len(data) {
		return sig, ErrSignatureBytes
	}
	copy(sig[:], data)
	return sig, nil
}

// MarshalText - hex form as used in json transactions
func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(sig[:])), nil
}

// UnmarshalText - convert from hex
func (sig *Signature) UnmarshalText(s []byte) error {
	data, err := hex.DecodeString(string(s))
	if nil != err {
		return err
	}
	sg, err := SignatureFromBytes(data)
	if nil != err {
		return err
	}
	*sig = sg
	return nil
}
