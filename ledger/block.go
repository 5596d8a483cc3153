// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// Skip - checks that may be left out for trusted blocks
type Skip uint32

// skip flags
const (
	SkipWitnessSignature Skip = 1 << iota
	SkipTransactionSignatures
	SkipTaposCheck
	SkipMerkleCheck
	SkipBlockSizeCheck
	SkipTransactionDupeCheck
	SkipWitnessScheduleCheck

	SkipNothing Skip = 0

	// blocks read back from local storage
	SkipReplay = SkipWitnessSignature | SkipTransactionSignatures | SkipTaposCheck |
		SkipTransactionDupeCheck | SkipWitnessScheduleCheck
)

// room for the header of a generated block
var maxBlockHeaderSize = protocol.PackedSize(&protocol.SignedBlockHeader{}) + 4

// signalMark - lengths of the signal buffers before a unit of work
type signalMark struct {
	history     int
	adjustments int
	ops         int
}

func (db *Database) mark() signalMark {
	return signalMark{
		history:     len(db.history),
		adjustments: len(db.adjustments),
		ops:         len(db.nonConsensusOps),
	}
}

// rewind - forget signals recorded by work that was undone
func (db *Database) rewind(m signalMark) {
	db.history = db.history[:m.history]
	db.adjustments = db.adjustments[:m.adjustments]
	db.nonConsensusOps = db.nonConsensusOps[:m.ops]
}

// pendingBlockNum - number of the block being applied, or the next
// one when only pending transactions are applied
func (db *Database) pendingBlockNum() uint32 {
	if nil != db.pendingBlock {
		return db.pendingBlock.BlockNum()
	}
	return db.headBlockNum() + 1
}

func (db *Database) pendingBlockTime() protocol.Timestamp {
	if nil != db.pendingBlock {
		return db.pendingBlock.Timestamp
	}
	return db.headBlockTime()
}

// applyTransaction - apply all operations of a transaction or none
//
// receipts are the results recorded in a block, contract calls are
// billed what they show
func (db *Database) applyTransaction(trx *protocol.SignedTransaction, receipts protocol.ResultList, skip Skip) (*protocol.ProcessedTransaction, error) {
	session := db.objects.StartSession(false)
	m := db.mark()
	ptx, err := db.doApplyTransaction(trx, receipts, skip)
	if nil != err {
		session.Undo()
		db.rewind(m)
		return nil, err
	}
	session.Merge()
	return ptx, nil
}

func (db *Database) doApplyTransaction(trx *protocol.SignedTransaction, receipts protocol.ResultList, skip Skip) (*protocol.ProcessedTransaction, error) {
	params := db.params()

	if err := trx.Validate(); nil != err {
		return nil, err
	}
	if size := protocol.PackedSize(trx); size > int(params.MaximumTransactionSize) {
		return nil, errors.Wrapf(fault.ErrTransactionTooLarge, "size: %d limit: %d", size, params.MaximumTransactionSize)
	}

	id := trx.ID()
	checkDupe := 0 == skip&SkipTransactionDupeCheck
	if checkDupe && nil != db.dedupeByID.Find(id) {
		return nil, errors.Wrapf(fault.ErrDuplicateTransaction, "transaction: %s", id)
	}

	var signs *authority.SignState
	if 0 == skip&SkipTransactionSignatures {
		s, err := trx.VerifyAuthority(db.chainProperty().ChainID, db.fetchAuthority, uint32(params.MaxAuthorityDepth))
		if nil != err {
			return nil, err
		}
		signs = s
	}

	if db.headBlockNum() > 0 {
		if 0 == skip&SkipTaposCheck {
			summary := db.blockSummaryBySlot.Find(trx.RefBlockNum)
			if nil == summary || summary.BlockID.Prefix() != trx.RefBlockPrefix {
				return nil, errors.Wrapf(fault.ErrInvalidReferenceBlock, "ref block: %d prefix: %08x", trx.RefBlockNum, trx.RefBlockPrefix)
			}
		}
		now := db.headBlockTime()
		if trx.Expiration > now+protocol.Timestamp(params.MaximumTimeUntilExpiration) {
			return nil, errors.Wrapf(fault.ErrTransactionTooFarInFuture, "expiration: %s head: %s", trx.Expiration, now)
		}
		if trx.Expiration <= now {
			return nil, errors.Wrapf(fault.ErrExpiredTransaction, "expiration: %s head: %s", trx.Expiration, now)
		}
	}

	if checkDupe {
		_, err := db.dedupe.Create(func(d *TransactionDedupe) {
			d.TrxID = id
			d.Expiration = trx.Expiration
		})
		if nil != err {
			return nil, err
		}
	}

	c := &trxContext{
		trx:   trx,
		signs: signs,
	}
	ptx := &protocol.ProcessedTransaction{
		SignedTransaction: *trx,
		OperationResults:  make(protocol.ResultList, 0, len(trx.Operations)),
	}
	for i, op := range trx.Operations {
		db.opInTrx = uint16(i)
		db.virtualOp = 0

		c.billedCPUTimeUs = 0
		if i < len(receipts) {
			if r, ok := receipts[i].(*protocol.ContractReceipt); ok {
				c.billedCPUTimeUs = r.BilledCPUTimeUs
			}
		}

		result, err := db.applyOperation(c, op)
		if nil != err {
			return nil, errors.Wrapf(err, "op[%d]: %s", i, protocol.OperationName(op))
		}
		ptx.OperationResults = append(ptx.OperationResults, result)

		if s := db.stats(op.FeePayer()); nil != s {
			db.statistics.Modify(s, func(s *AccountStatistics) {
				s.TotalOps += 1
			})
		}
		if db.applying {
			db.history = append(db.history, OperationHistory{
				BlockNum:   db.pendingBlockNum(),
				TrxInBlock: db.trxInBlock,
				OpInTrx:    db.opInTrx,
				Op:         op,
				Result:     result,
				Timestamp:  db.pendingBlockTime(),
			})
		}
	}
	return ptx, nil
}

// validateBlockHeader - the block links to the head and was signed by
// the witness of its slot
func (db *Database) validateBlockHeader(b *protocol.SignedBlock, skip Skip) (*Witness, error) {
	d := db.dgp()
	if b.Previous != d.HeadBlockID {
		return nil, errors.Wrapf(fault.ErrInvalidPreviousBlock, "block: %d previous: %s head: %s", b.BlockNum(), b.Previous, d.HeadBlockID)
	}
	if b.Timestamp <= d.Time {
		return nil, errors.Wrapf(fault.ErrInvalidBlockTime, "block: %d time: %s head: %s", b.BlockNum(), b.Timestamp, d.Time)
	}
	w, err := db.getWitness(b.Witness)
	if nil != err {
		return nil, err
	}
	if 0 == skip&SkipWitnessSignature && !b.ValidateSigneeKey(w.SigningKey) {
		return nil, errors.Wrapf(fault.ErrWrongBlockSigningKey, "block: %d witness: %s", b.BlockNum(), b.Witness)
	}
	if 0 == skip&SkipWitnessScheduleCheck {
		slot := db.slotAtTime(b.Timestamp)
		if 0 == slot {
			return nil, errors.Wrapf(fault.ErrInvalidBlockTime, "block: %d time: %s is before the next slot", b.BlockNum(), b.Timestamp)
		}
		if scheduled := db.scheduledWitness(slot); scheduled != b.Witness {
			return nil, errors.Wrapf(fault.ErrWrongBlockWitness, "block: %d witness: %s scheduled: %s", b.BlockNum(), b.Witness, scheduled)
		}
	}
	return w, nil
}

// applyBlock - every state change a block makes, in consensus order
func (db *Database) applyBlock(b *protocol.SignedBlock, skip Skip) error {
	num := b.BlockNum()

	if 0 == skip&SkipMerkleCheck && b.TransactionMerkleRoot != b.CalculateMerkleRoot() {
		return errors.Wrapf(fault.ErrInvalidMerkleRoot, "block: %d", num)
	}
	if 0 == skip&SkipBlockSizeCheck {
		if size := protocol.PackedSize(b); size > int(db.params().MaximumBlockSize) {
			return errors.Wrapf(fault.ErrBlockTooLarge, "block: %d size: %d", num, size)
		}
	}
	if _, err := db.validateBlockHeader(b, skip); nil != err {
		return err
	}
	maintenance := db.dgp().NextMaintenanceTime <= b.Timestamp

	db.applying = true
	db.pendingBlock = b
	db.trxInBlock = 0
	defer func() {
		db.applying = false
		db.pendingBlock = nil
	}()

	for i := range b.Transactions {
		trx := &b.Transactions[i]
		ptx, err := db.applyTransaction(&trx.SignedTransaction, trx.OperationResults, skip)
		if nil != err {
			return errors.Wrapf(err, "block: %d trx[%d]", num, i)
		}
		if 0 != len(trx.OperationResults) && !bytes.Equal(protocol.MustPack(trx.OperationResults), protocol.MustPack(ptx.OperationResults)) {
			return errors.Wrapf(fault.ErrUnexpectedData, "block: %d trx[%d] results differ", num, i)
		}
		db.trxInBlock += 1
	}

	if err := db.updateGlobalDynamicData(b); nil != err {
		return err
	}
	w, err := db.getWitness(b.Witness)
	if nil != err {
		return err
	}
	if err := db.updateSigningWitness(w, b); nil != err {
		return err
	}
	db.updateLastIrreversibleBlock()
	if maintenance {
		db.performChainMaintenance(b)
	}
	db.createBlockSummary(b)

	// virtual operations of the block itself
	db.opInTrx = 0
	db.virtualOp = 0
	db.perBlockUpdates()

	db.updateMaintenanceFlag(maintenance)
	db.updateWitnessSchedule()
	return nil
}

// PushBlock - apply a block on top of the head
//
// pending transactions are set aside while the block is applied and
// those still valid are applied again afterwards
func (db *Database) PushBlock(b *protocol.SignedBlock, skip Skip) error {
	db.Lock()
	s, err := db.pushBlock(b, skip)
	observers := db.observers
	db.Unlock()

	if nil != err {
		return err
	}
	db.emit(s, observers)
	return nil
}

func (db *Database) pushBlock(b *protocol.SignedBlock, skip Skip) (*signalSet, error) {
	if head := db.dgp().HeadBlockID; b.Previous != head {
		return nil, errors.Wrapf(fault.ErrUnlinkableBlock, "block: %d previous: %s head: %s", b.BlockNum(), b.Previous, head)
	}

	pending := db.clearPending()

	session := db.objects.StartSession(false)
	if err := db.applyBlock(b, skip); nil != err {
		session.Undo()
		db.rewind(signalMark{})
		db.takeChanges(db.tracker)
		db.restorePending(pending)
		db.log.Warnf("block: %d rejected: %s", b.BlockNum(), err)
		return nil, err
	}
	session.Commit()

	num := b.BlockNum()
	db.recentBlocks.Add(num, b)
	s := db.takeSignals(b)

	db.objects.Squash(int64(db.dgp().LastIrreversibleBlockNum))
	db.restorePending(pending)

	db.log.Debugf("block: %d applied, witness: %s transactions: %d", num, b.Witness, len(b.Transactions))
	return s, nil
}

// clearPending - undo the pending transactions, returning them
func (db *Database) clearPending() []*protocol.ProcessedTransaction {
	if nil != db.pendingSession {
		db.pendingSession.Undo()
		db.pendingSession = nil
	}
	pending := db.pending
	db.pending = nil
	return pending
}

// restorePending - apply transactions again on the new head, those
// that fail are dropped
func (db *Database) restorePending(list []*protocol.ProcessedTransaction) {
	for _, ptx := range list {
		if _, err := db.pushPending(&ptx.SignedTransaction); nil != err {
			db.log.Debugf("pending transaction: %s dropped: %s", ptx.ID(), err)
		}
	}
}

func (db *Database) pushPending(trx *protocol.SignedTransaction) (*protocol.ProcessedTransaction, error) {
	if nil == db.pendingSession {
		db.pendingSession = db.objects.StartSession(false)
	}
	ptx, err := db.applyTransaction(trx, nil, SkipNothing)
	if nil != err {
		return nil, err
	}
	db.pending = append(db.pending, ptx)
	return ptx, nil
}

// PushTransaction - apply a transaction to the pending state
func (db *Database) PushTransaction(trx *protocol.SignedTransaction) (*protocol.ProcessedTransaction, error) {
	db.Lock()
	ptx, err := db.pushPending(trx)
	var s *signalSet
	if nil == err {
		s = &signalSet{objects: db.takeChanges(db.tracker)}
	}
	observers := db.observers
	db.Unlock()

	if nil != err {
		return nil, err
	}
	db.emit(s, observers)
	return ptx, nil
}

// PendingTransactions - copy of the pending list
func (db *Database) PendingTransactions() []*protocol.ProcessedTransaction {
	db.RLock()
	defer db.RUnlock()
	return append([]*protocol.ProcessedTransaction(nil), db.pending...)
}

// ClearPending - discard every pending transaction
func (db *Database) ClearPending() {
	db.Lock()
	db.clearPending()
	db.takeChanges(db.tracker)
	db.Unlock()
}

// GenerateBlock - build, sign and push a block of the pending
// transactions that fit
func (db *Database) GenerateBlock(when protocol.Timestamp, witness account.UID, key *keypair.PrivateKey, skip Skip) (*protocol.SignedBlock, error) {
	db.Lock()
	b, s, err := db.generateBlock(when, witness, key, skip)
	observers := db.observers
	db.Unlock()

	if nil != err {
		return nil, err
	}
	db.emit(s, observers)
	return b, nil
}

func (db *Database) generateBlock(when protocol.Timestamp, witness account.UID, key *keypair.PrivateKey, skip Skip) (*protocol.SignedBlock, *signalSet, error) {
	slot := db.slotAtTime(when)
	if 0 == slot {
		return nil, nil, errors.Wrapf(fault.ErrInvalidBlockTime, "time: %s is before the next slot", when)
	}
	if scheduled := db.scheduledWitness(slot); scheduled != witness {
		return nil, nil, errors.Wrapf(fault.ErrWrongBlockWitness, "witness: %s scheduled: %s", witness, scheduled)
	}
	w, err := db.getWitness(witness)
	if nil != err {
		return nil, nil, err
	}
	sign := 0 == skip&SkipWitnessSignature
	if sign && (nil == key || key.PublicKey() != w.SigningKey) {
		return nil, nil, errors.Wrapf(fault.ErrWrongBlockSigningKey, "witness: %s", witness)
	}

	maxSize := int(db.params().MaximumBlockSize)
	size := maxBlockHeaderSize

	pending := db.clearPending()
	trial := db.objects.StartSession(false)

	b := &protocol.SignedBlock{}
	postponed := 0
	for _, tx := range pending {
		n := protocol.PackedSize(tx)
		if size+n >= maxSize {
			postponed += 1
			continue
		}
		ptx, err := db.applyTransaction(&tx.SignedTransaction, nil, SkipNothing)
		if nil != err {
			db.log.Debugf("pending transaction: %s left out: %s", tx.ID(), err)
			continue
		}
		size += protocol.PackedSize(ptx)
		b.Transactions = append(b.Transactions, *ptx)
	}
	trial.Undo()
	db.takeChanges(db.tracker)
	if postponed > 0 {
		db.log.Warnf("postponed: %d transactions over the block size", postponed)
	}

	b.Previous = db.dgp().HeadBlockID
	b.Timestamp = when
	b.Witness = witness
	b.TransactionMerkleRoot = b.CalculateMerkleRoot()
	if sign {
		if err := b.Sign(key); nil != err {
			db.restorePending(pending)
			return nil, nil, err
		}
	}

	db.pending = pending
	s, err := db.pushBlock(b, skip)
	if nil != err {
		return nil, nil, err
	}
	return b, s, nil
}

// PopBlock - revert the head block
//
// its transactions go back to the front of the pending list, the
// block is returned if it is still cached
func (db *Database) PopBlock() (*protocol.SignedBlock, error) {
	db.Lock()
	defer db.Unlock()

	d := db.dgp()
	num := d.HeadBlockNumber
	if 0 == num {
		return nil, fault.ErrCannotPopGenesis
	}
	if num <= d.LastIrreversibleBlockNum {
		return nil, errors.Wrapf(fault.ErrPopEmptyChain, "block: %d is irreversible", num)
	}

	pending := db.clearPending()
	if err := db.objects.Undo(); nil != err {
		db.restorePending(pending)
		return nil, errors.Wrapf(fault.ErrPopEmptyChain, "block: %d: %s", num, err)
	}
	db.takeChanges(db.tracker)

	var popped *protocol.SignedBlock
	if v, ok := db.recentBlocks.Get(num); ok {
		popped = v.(*protocol.SignedBlock)
		db.recentBlocks.Remove(num)
	}

	list := make([]*protocol.ProcessedTransaction, 0, len(pending))
	if nil != popped {
		for i := range popped.Transactions {
			list = append(list, &popped.Transactions[i])
		}
	}
	db.restorePending(append(list, pending...))

	db.log.Infof("popped block: %d, head: %d", num, db.headBlockNum())
	return popped, nil
}

// BlockByNum - a recently pushed block
func (db *Database) BlockByNum(n uint32) (*protocol.SignedBlock, bool) {
	v, ok := db.recentBlocks.Get(n)
	if !ok {
		return nil, false
	}
	return v.(*protocol.SignedBlock), true
}
