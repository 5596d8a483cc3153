// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/merkle"
)

// BlockHeader - the signed part of a block
type BlockHeader struct {
	Previous              BlockID         `json:"previous"`
	Timestamp             Timestamp       `json:"timestamp"`
	Witness               account.UID     `json:"witness"`
	TransactionMerkleRoot merkle.Checksum `json:"transaction_merkle_root"`
	Extensions            EmptyExtension  `json:"extensions" pack:"ext"`
}

// BlockNum - one more than the previous block
func (h *BlockHeader) BlockNum() uint32 {
	return h.Previous.BlockNum() + 1
}

// Digest - what the witness signs
func (h *BlockHeader) Digest() [32]byte {
	return sha256.Sum256(MustPack(h))
}

// SignedBlockHeader - header with the producer's signature
type SignedBlockHeader struct {
	BlockHeader
	WitnessSignature keypair.Signature `json:"witness_signature"`
}

// ID - digest of the unsigned header with the block number in the
// first four bytes
func (h *SignedBlockHeader) ID() BlockID {
	digest := h.Digest()
	id := BlockID{}
	copy(id[:], digest[:IDLength])
	binary.BigEndian.PutUint32(id[:4], h.BlockNum())
	return id
}

// Signee - key that produced the signature
func (h *SignedBlockHeader) Signee() (keypair.PublicKey, error) {
	return keypair.Recover(h.WitnessSignature, h.Digest())
}

// Sign - fill in the witness signature
func (h *SignedBlockHeader) Sign(key *keypair.PrivateKey) error {
	sig, err := key.Sign(h.Digest())
	if nil != err {
		return err
	}
	h.WitnessSignature = sig
	return nil
}

// ValidateSigneeKey - signature made by the expected key
func (h *SignedBlockHeader) ValidateSigneeKey(expected keypair.PublicKey) bool {
	signee, err := h.Signee()
	return nil == err && signee == expected
}

// SignedBlock - header plus transactions
type SignedBlock struct {
	SignedBlockHeader
	Transactions []ProcessedTransaction `json:"transactions"`
}

// CalculateMerkleRoot - checksum over the transaction merkle digests
func (b *SignedBlock) CalculateMerkleRoot() merkle.Checksum {
	digests := make([]merkle.Digest, len(b.Transactions))
	for i := range b.Transactions {
		digests[i] = b.Transactions[i].MerkleDigest()
	}
	return merkle.TransactionRoot(digests)
}
