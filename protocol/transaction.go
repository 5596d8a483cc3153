// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/merkle"
)

// ChainID - digest of the genesis record
type ChainID [sha256.Size]byte

// String - hex
func (c ChainID) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalText - hex
func (c ChainID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText - hex
func (c *ChainID) UnmarshalText(s []byte) error {
	if hex.DecodedLen(len(s)) != len(c) {
		return fault.ErrInvalidLength
	}
	_, err := hex.Decode(c[:], s)
	return err
}

// Transaction - operations bound to a recent block and an expiry
type Transaction struct {
	RefBlockNum    uint16         `json:"ref_block_num"`
	RefBlockPrefix uint32         `json:"ref_block_prefix"`
	Expiration     Timestamp      `json:"expiration"`
	Operations     OperationList  `json:"operations"`
	Extensions     EmptyExtension `json:"extensions" pack:"ext"`
}

// Digest - sha256 of the packed body
func (tx *Transaction) Digest() [32]byte {
	return sha256.Sum256(MustPack(tx))
}

// ID - truncated digest
func (tx *Transaction) ID() TransactionID {
	d := tx.Digest()
	id := TransactionID{}
	copy(id[:], d[:IDLength])
	return id
}

// SigDigest - what signers sign, bound to one chain
func (tx *Transaction) SigDigest(chainID ChainID) [32]byte {
	h := sha256.New()
	h.Write(chainID[:])
	h.Write(MustPack(tx))
	d := [32]byte{}
	copy(d[:], h.Sum(nil))
	return d
}

// SetReferenceBlock - low 16 bits of the block number and the id prefix
func (tx *Transaction) SetReferenceBlock(id BlockID) {
	tx.RefBlockNum = uint16(id.BlockNum())
	tx.RefBlockPrefix = id.Prefix()
}

// SetExpiration - absolute expiry time
func (tx *Transaction) SetExpiration(t Timestamp) {
	tx.Expiration = t
}

// Validate - at least one operation, none virtual, each valid
func (tx *Transaction) Validate() error {
	if 0 == len(tx.Operations) {
		return errors.Wrap(fault.ErrInvalidCount, "transaction has no operations")
	}
	for i, op := range tx.Operations {
		tag, err := TagOf(op)
		if nil != err {
			return errors.Wrapf(err, "op[%d]", i)
		}
		if IsVirtual(tag) {
			return errors.Wrapf(fault.ErrInvalidOperation, "op[%d] %s is virtual", i, tag)
		}
		if err := op.Validate(); nil != err {
			return errors.Wrapf(err, "op[%d] %s", i, tag)
		}
	}
	return nil
}

// Required - union of what the operations need
func (tx *Transaction) Required() *authority.Required {
	return RequiredAuthorities(tx.Operations)
}

// SignedTransaction - transaction with its signatures
type SignedTransaction struct {
	Transaction
	Signatures []keypair.Signature `json:"signatures"`
}

// Sign - append a signature over the chain bound digest
func (tx *SignedTransaction) Sign(key *keypair.PrivateKey, chainID ChainID) error {
	sig, err := key.Sign(tx.SigDigest(chainID))
	if nil != err {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// SignatureKeys - recover every signer, a key may sign only once
func (tx *SignedTransaction) SignatureKeys(chainID ChainID) ([]keypair.PublicKey, error) {
	d := tx.SigDigest(chainID)
	keys := make([]keypair.PublicKey, 0, len(tx.Signatures))
	seen := make(map[keypair.PublicKey]struct{}, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		key, err := keypair.Recover(sig, d)
		if nil != err {
			return nil, err
		}
		if _, ok := seen[key]; ok {
			return nil, errors.Wrapf(fault.ErrDuplicateSignature, "key: %s", key)
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

// VerifyAuthority - signatures satisfy every requirement and none is
// left unused
func (tx *SignedTransaction) VerifyAuthority(chainID ChainID, fetch authority.Fetcher, maxRecursion uint32) (*authority.SignState, error) {
	keys, err := tx.SignatureKeys(chainID)
	if nil != err {
		return nil, err
	}
	return authority.Verify(tx.Required(), keys, fetch, maxRecursion, false, nil)
}

// GetRequiredSignatures - which of the available keys still need to
// sign for the transaction to be accepted
func (tx *SignedTransaction) GetRequiredSignatures(chainID ChainID, available []keypair.PublicKey, fetch authority.Fetcher, maxRecursion uint32) ([]keypair.PublicKey, error) {
	signed, err := tx.SignatureKeys(chainID)
	if nil != err {
		return nil, err
	}
	used, _, _ := authority.Plan(tx.Required(), signed, available, fetch, maxRecursion)
	signedSet := make(map[keypair.PublicKey]struct{}, len(signed))
	for _, k := range signed {
		signedSet[k] = struct{}{}
	}
	result := make([]keypair.PublicKey, 0, len(used))
	for _, k := range used {
		if _, ok := signedSet[k]; !ok {
			result = append(result, k)
		}
	}
	return result, nil
}

// ProcessedTransaction - signed transaction with its results, as
// stored in a block
type ProcessedTransaction struct {
	SignedTransaction
	OperationResults ResultList `json:"operation_results"`
}

// MerkleDigest - leaf of the block's transaction tree
func (tx *ProcessedTransaction) MerkleDigest() merkle.Digest {
	return merkle.NewDigest(MustPack(tx))
}
