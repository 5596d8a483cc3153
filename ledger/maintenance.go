// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// updateGlobalDynamicData - advance the head to a new block and
// charge the slots it skipped to their witnesses
func (db *Database) updateGlobalDynamicData(b *protocol.SignedBlock) error {
	params := db.params()
	num := b.BlockNum()

	missed := db.slotAtTime(b.Timestamp)
	if 0 == missed {
		fault.Panicf("ledger: block: %d timestamp: %s is not after the head", num, b.Timestamp)
	}
	missed -= 1

	for i := uint32(0); i < missed; i += 1 {
		uid := db.scheduledWitness(i + 1)
		if uid == b.Witness {
			continue
		}
		w := db.findWitness(uid)
		if nil == w {
			continue
		}
		db.witnesses.Modify(w, func(w *Witness) {
			w.TotalMissed += 1
			if w.LastConfirmedBlockNum+params.MaxWitnessInactiveBlocks < num {
				w.SigningKey = keypair.PublicKey{}
			}
		})
		if s := db.stats(uid); nil != s {
			db.statistics.Modify(s, func(s *AccountStatistics) {
				s.WitnessTotalMissed += 1
			})
		}
	}

	id := b.ID()
	d := db.dgp()
	db.dynamicProperties.Modify(d, func(d *DynamicGlobalProperty) {
		switch {
		case 1 == num:
			d.RecentlyMissedCount = 0
		case missed > 0:
			d.RecentlyMissedCount += constants.MissedCountUp * missed
		case d.RecentlyMissedCount > constants.MissedCountUp:
			d.RecentlyMissedCount -= constants.MissedCountDown
		case d.RecentlyMissedCount > 0:
			d.RecentlyMissedCount -= 1
		}

		d.HeadBlockNumber = num
		d.HeadBlockID = id
		d.Time = b.Timestamp
		d.CurrentWitness = b.Witness
		d.RecentSlotsFilled = d.RecentSlotsFilled.Lsh(1).Add64(1).Lsh(uint(missed))
		d.CurrentAslot += uint64(missed) + 1
	})

	if d.HeadBlockNumber-d.LastIrreversibleBlockNum >= constants.MaxUndoHistory {
		return errors.Wrapf(fault.ErrUndoStackEmpty, "head: %d last irreversible: %d exceeds undo history", d.HeadBlockNumber, d.LastIrreversibleBlockNum)
	}
	return nil
}

// coreReserved - core that may still be created
func (db *Database) coreReserved() int64 {
	core, err := db.getAsset(protocol.AssetAID(constants.CoreAssetAID))
	if nil != err {
		fault.Panicf("ledger: core asset: %s", err)
	}
	return core.Options.MaxSupply - db.coreData().CurrentSupply
}

// witnessPay - block pay by the queue the witness was chosen from
func witnessPay(params *protocol.ChainParameters, t ScheduleType) int64 {
	switch t {
	case ScheduledByVoteTop:
		return params.ByVoteTopWitnessPayPerBlock
	case ScheduledByVoteRest:
		return params.ByVoteRestWitnessPayPerBlock
	case ScheduledByPledge:
		return params.ByPledgeWitnessPayPerBlock
	}
	return 0
}

// updateSigningWitness - mint the block budget, pay the producer and
// record its progress
//
// must run after updateGlobalDynamicData so the aslot is current
func (db *Database) updateSigningWitness(w *Witness, b *protocol.SignedBlock) error {
	t, ok := db.gpo().ActiveWitnesses[w.Account]
	if !ok {
		return errors.Wrapf(fault.ErrWrongBlockWitness, "witness: %s is not active", w.Account)
	}
	d := db.dgp()
	aslot := d.CurrentAslot
	num := b.BlockNum()

	budget := d.TotalBudgetPerBlock
	if reserved := db.coreReserved(); reserved < budget {
		budget = reserved
	}
	if budget < 0 {
		budget = 0
	}
	pay := witnessPay(db.params(), t)
	if pay > budget {
		pay = budget
	}
	remained := budget - pay

	if budget > 0 {
		db.assetData.Modify(db.coreData(), func(c *AssetDynamicData) {
			c.CurrentSupply += budget
		})
	}
	if remained > 0 {
		db.dynamicProperties.Modify(d, func(d *DynamicGlobalProperty) {
			d.BudgetPool += remained
		})
	}
	if pay > 0 {
		pay = db.payWitnessBonus(w, pay)
		db.statistics.Modify(db.stats(w.Account), func(s *AccountStatistics) {
			s.UncollectedWitnessPay += pay
		})
	}

	db.witnesses.Modify(w, func(w *Witness) {
		w.LastAslot = aslot
		w.TotalProduced += 1
		w.LastConfirmedBlockNum = num
	})
	db.statistics.Modify(db.stats(w.Account), func(s *AccountStatistics) {
		s.WitnessLastAslot = aslot
		s.WitnessTotalProduced += 1
		s.WitnessLastConfirmedBlockNum = num
	})
	return nil
}

// updateLastIrreversibleBlock - the highest block confirmed by
// enough of the active witnesses
func (db *Database) updateLastIrreversibleBlock() {
	active := db.gpo().ActiveWitnesses
	if 0 == len(active) {
		return
	}
	confirmed := make([]uint32, 0, len(active))
	for uid := range active {
		if w := db.findWitness(uid); nil != w {
			confirmed = append(confirmed, w.LastConfirmedBlockNum)
		}
	}
	if 0 == len(confirmed) {
		return
	}
	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i] < confirmed[j] })

	offset := (constants.HundredPercent - constants.IrreversiblePart) * len(confirmed) / constants.HundredPercent
	lib := confirmed[offset]

	d := db.dgp()
	if lib > d.LastIrreversibleBlockNum {
		db.dynamicProperties.Modify(d, func(d *DynamicGlobalProperty) {
			d.LastIrreversibleBlockNum = lib
		})
	}
}

// performChainMaintenance - move the maintenance time past the block
func (db *Database) performChainMaintenance(b *protocol.SignedBlock) {
	d := db.dgp()
	interval := protocol.Timestamp(db.params().MaintenanceInterval)
	next := d.NextMaintenanceTime
	if next <= b.Timestamp {
		if 1 == b.BlockNum() {
			next = (b.Timestamp/interval + 1) * interval
		} else {
			y := (db.headBlockTime() - next) / interval
			next += (y + 1) * interval
		}
	}
	db.dynamicProperties.Modify(d, func(d *DynamicGlobalProperty) {
		d.NextMaintenanceTime = next
		d.LastBudgetTime = b.Timestamp
	})
	db.log.Infof("block: %d maintenance, next at: %s", b.BlockNum(), next)
}

// adjustBudgets - reset the per block budget to the yearly target of
// the remaining reserve
func (db *Database) adjustBudgets() {
	d := db.dgp()
	head := db.headBlockNum()
	if head < d.NextBudgetAdjustBlock {
		return
	}
	params := db.params()
	const secondsPerYear = uint64(86400 * 365)
	blocksPerYear := secondsPerYear/uint64(params.BlockInterval) -
		secondsPerYear*uint64(params.MaintenanceSkipSlots)/uint64(params.MaintenanceInterval)

	reserved := db.coreReserved()
	budget := uint64(0)
	if reserved > 0 && 0 != blocksPerYear {
		budget = uint128.From64(uint64(reserved)).Mul64(uint64(params.BudgetAdjustTarget)).Div64(blocksPerYear).Div64(constants.HundredPercent).Lo
	}
	db.dynamicProperties.Modify(d, func(d *DynamicGlobalProperty) {
		d.TotalBudgetPerBlock = int64(budget)
		d.NextBudgetAdjustBlock += params.BudgetAdjustInterval
	})
	db.log.Infof("block: %d budget adjusted to: %d, next at block: %d", head, budget, d.NextBudgetAdjustBlock)
}

// createBlockSummary - remember the id of the head block for TaPoS
func (db *Database) createBlockSummary(b *protocol.SignedBlock) {
	slot := uint16(b.BlockNum())
	id := b.ID()
	if s := db.blockSummaryBySlot.Find(slot); nil != s {
		db.blockSummaries.Modify(s, func(s *BlockSummary) {
			s.BlockID = id
		})
		return
	}
	_, err := db.blockSummaries.Create(func(s *BlockSummary) {
		s.Slot = slot
		s.BlockID = id
	})
	if nil != err {
		fault.Panicf("ledger: block summary: %d error: %s", b.BlockNum(), err)
	}
}

// clearExpiredTransactions - drop dedupe entries no transaction can
// collide with any more
func (db *Database) clearExpiredTransactions() {
	now := db.headBlockTime()
	for {
		it := db.dedupeByExpiration.First()
		if !it.Valid() {
			return
		}
		t := it.Value()
		if t.Expiration >= now {
			return
		}
		db.dedupe.Remove(t)
	}
}

func (db *Database) updateMaintenanceFlag(set bool) {
	db.dynamicProperties.Modify(db.dgp(), func(d *DynamicGlobalProperty) {
		d.DynamicFlags &^= maintenanceFlag
		if set {
			d.DynamicFlags |= maintenanceFlag
		}
	})
}

// perBlockUpdates - housekeeping run after every block
func (db *Database) perBlockUpdates() {
	db.clearExpiredTransactions()
	db.clearExpiredProposals()
	db.clearExpiredOrders()
	db.clearExpiredLeases()
	db.clearExpiredScores()

	db.updateAverageWitnessPledges()
	db.updateAveragePlatformPledges()
	db.processReleasedPledges()
	for _, kind := range db.voteKinds {
		db.clearResignedVotes(kind)
	}
	db.updateScheduledVoters()
	db.invalidateExpiredVoters()
	db.processInvalidVoters()
	db.updateCommittee()
	db.adjustBudgets()
	db.clearUnapprovedCommitteeProposals()
	db.executeCommitteeProposals()
	db.processPledgeBonus()
}
