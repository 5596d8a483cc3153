// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package producer

import (
	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/block"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/protocol"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/interfaces.go -package=mocks

// Chain - the schedule a producer follows
type Chain interface {
	SlotAtTime(t protocol.Timestamp) uint32
	SlotTime(n uint32) protocol.Timestamp
	ScheduledWitness(n uint32) account.UID
	ParticipationRate() uint32
	Witness(uid account.UID) *ledger.Witness
}

// BlockStore - generates a block and appends it to the log
type BlockStore interface {
	Generate(when protocol.Timestamp, witness account.UID, key *keypair.PrivateKey) (*protocol.SignedBlock, error)
}

// BlockLog - the block store of the running node
type BlockLog struct{}

// Generate - see block.Generate
func (BlockLog) Generate(when protocol.Timestamp, witness account.UID, key *keypair.PrivateKey) (*protocol.SignedBlock, error) {
	return block.Generate(when, witness, key)
}
