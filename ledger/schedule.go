// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// length of one lap of virtual time
var virtualLap = uint128.Max

// slotTime - time of the n'th slot after the head block, zero for
// slot zero
func (db *Database) slotTime(n uint32) protocol.Timestamp {
	if 0 == n {
		return 0
	}
	interval := protocol.Timestamp(db.params().BlockInterval)
	d := db.dgp()
	if 0 == d.HeadBlockNumber {
		return d.Time + protocol.Timestamp(n)*interval
	}
	headSlotTime := d.Time / interval * interval
	if d.IsMaintenance() {
		n += uint32(db.params().MaintenanceSkipSlots)
	}
	return headSlotTime + protocol.Timestamp(n)*interval
}

// slotAtTime - slot number of a time, zero if before the first slot
func (db *Database) slotAtTime(t protocol.Timestamp) uint32 {
	first := db.slotTime(1)
	if t < first {
		return 0
	}
	return uint32(t-first)/uint32(db.params().BlockInterval) + 1
}

// scheduledWitness - producer of the n'th slot after the head block
func (db *Database) scheduledWitness(n uint32) account.UID {
	shuffled := db.schedule().CurrentShuffledWitnesses
	if 0 == len(shuffled) {
		return 0
	}
	aslot := db.dgp().CurrentAslot + uint64(n)
	return shuffled[aslot%uint64(len(shuffled))]
}

// participationRate - filled slots out of the last 128, per 10000
func (db *Database) participationRate() uint32 {
	filled := uint64(db.dgp().RecentSlotsFilled.OnesCount())
	return uint32(constants.HundredPercent * filled / 128)
}

// SlotTime - time of the n'th slot after the head block
func (db *Database) SlotTime(n uint32) protocol.Timestamp {
	db.RLock()
	defer db.RUnlock()
	return db.slotTime(n)
}

// SlotAtTime - slot number of a time relative to the head block
func (db *Database) SlotAtTime(t protocol.Timestamp) uint32 {
	db.RLock()
	defer db.RUnlock()
	return db.slotAtTime(t)
}

// ScheduledWitness - producer of the n'th slot after the head block
func (db *Database) ScheduledWitness(n uint32) account.UID {
	db.RLock()
	defer db.RUnlock()
	return db.scheduledWitness(n)
}

// ParticipationRate - recently filled slots, per 10000
func (db *Database) ParticipationRate() uint32 {
	db.RLock()
	defer db.RUnlock()
	return db.participationRate()
}

// scheduledAt - when a candidate moving at speed reaches the end of
// the lap, or the end of time if that is behind the cursor
func scheduledAt(lastUpdate uint128.Uint128, position uint128.Uint128, speed uint64, cursor uint128.Uint128) uint128.Uint128 {
	need := virtualLap.Sub(position).Div64(speed + 1)
	t := lastUpdate.AddWrap(need)
	if t.Cmp(cursor) < 0 {
		return uint128.Max
	}
	return t
}

// advance - position moved on from lastUpdate to the cursor
func advance(position uint128.Uint128, lastUpdate uint128.Uint128, cursor uint128.Uint128, speed uint64) uint128.Uint128 {
	if cursor.Cmp(lastUpdate) <= 0 {
		return position
	}
	return position.AddWrap(cursor.Sub(lastUpdate).MulWrap64(speed))
}

// pledgeSpeed - by-pledge queue speed, delegated mining pledges
// count from V05
func (db *Database) pledgeSpeed(w *Witness) uint64 {
	if db.version >= V05 {
		return w.AveragePledge + w.TotalMiningPledge
	}
	return w.AveragePledge
}

// adjustWitnessVotes - change total votes and move the witness in
// the by-vote queue
func (db *Database) adjustWitnessVotes(w *Witness, delta int64) {
	if 0 == delta {
		return
	}
	cursor := db.schedule().CurrentByVoteTime
	db.witnesses.Modify(w, func(w *Witness) {
		if cursor.Cmp(w.ByVotePositionLastUpdate) > 0 {
			w.ByVotePosition = advance(w.ByVotePosition, w.ByVotePositionLastUpdate, cursor, w.TotalVotes)
			w.ByVotePositionLastUpdate = cursor
		}
		w.TotalVotes = uint64(int64(w.TotalVotes) + delta)
		w.ByVoteScheduledTime = scheduledAt(w.ByVotePositionLastUpdate, w.ByVotePosition, w.TotalVotes, cursor)
	})
}

// updateWitnessAvgPledge - decay the average pledge toward the pledge
// and move the witness in the by-pledge queue
func (db *Database) updateWitnessAvgPledge(w *Witness) {
	params := db.params()
	now := db.headBlockTime()
	cursor := db.schedule().CurrentByPledgeTime
	oldSpeed := db.pledgeSpeed(w)

	average, touched, pending := timeWeighted(w.AveragePledge, w.Pledge, w.PledgeLastUpdate, w.AveragePledgeLastUpdate, now, params.MaxWitnessPledgeSeconds)
	db.witnesses.Modify(w, func(w *Witness) {
		if cursor.Cmp(w.ByPledgePositionLastUpdate) > 0 {
			w.ByPledgePosition = advance(w.ByPledgePosition, w.ByPledgePositionLastUpdate, cursor, oldSpeed)
			w.ByPledgePositionLastUpdate = cursor
		}
		w.AveragePledge = average
		if touched {
			w.AveragePledgeLastUpdate = now
		}
		if pending {
			w.AveragePledgeNextUpdateBlock = db.headBlockNum() + params.WitnessAvgPledgeUpdateInterval
		} else {
			w.AveragePledgeNextUpdateBlock = constants.NeverBlock
		}
	})

	if speed := db.pledgeSpeed(w); speed != oldSpeed {
		db.witnesses.Modify(w, func(w *Witness) {
			w.ByPledgeScheduledTime = scheduledAt(w.ByPledgePositionLastUpdate, w.ByPledgePosition, speed, cursor)
		})
	}
}

// updatePlatformAvgPledge - decay the average pledge of a platform
func (db *Database) updatePlatformAvgPledge(p *Platform) {
	params := db.params()
	now := db.headBlockTime()

	average, touched, pending := timeWeighted(p.AveragePledge, p.Pledge, p.PledgeLastUpdate, p.AveragePledgeLastUpdate, now, params.PlatformMaxPledgeSeconds)
	db.platforms.Modify(p, func(p *Platform) {
		p.AveragePledge = average
		if touched {
			p.AveragePledgeLastUpdate = now
		}
		if pending {
			p.AveragePledgeNextUpdateBlock = db.headBlockNum() + params.PlatformAvgPledgeUpdateInterval
		} else {
			p.AveragePledgeNextUpdateBlock = constants.NeverBlock
		}
	})
}

// updateAverageWitnessPledges - run the average pledge updates that
// have come due
func (db *Database) updateAverageWitnessPledges() {
	head := db.headBlockNum()
	for _, w := range db.witnessByNextUpdate.Range(objectdb.Key(uint32(0)), objectdb.Key(head+1)) {
		if w.IsValid {
			db.updateWitnessAvgPledge(w)
		}
	}
}

// updateAveragePlatformPledges - as for witnesses
func (db *Database) updateAveragePlatformPledges() {
	head := db.headBlockNum()
	for _, p := range db.platformByNextUpdate.Range(objectdb.Key(uint32(0)), objectdb.Key(head+1)) {
		if p.IsValid {
			db.updatePlatformAvgPledge(p)
		}
	}
}

// resetByPledgeSchedule - restart the by-pledge lap from zero
func (db *Database) resetByPledgeSchedule() {
	db.witnessSchedules.Modify(db.schedule(), func(s *WitnessSchedule) {
		s.CurrentByPledgeTime = uint128.Zero
	})
	db.witnesses.Each(func(w *Witness) bool {
		speed := db.pledgeSpeed(w)
		db.witnesses.Modify(w, func(w *Witness) {
			w.ByPledgePosition = uint128.Zero
			w.ByPledgePositionLastUpdate = uint128.Zero
			w.ByPledgeScheduledTime = virtualLap.Div64(speed + 1)
		})
		return true
	})
	db.log.Infof("block: %d by pledge schedule reset", db.headBlockNum())
}

// resetByVoteSchedule - restart the by-vote lap from zero
//
// the restart time follows the average pledge as the by-pledge
// reset does
func (db *Database) resetByVoteSchedule() {
	db.witnessSchedules.Modify(db.schedule(), func(s *WitnessSchedule) {
		s.CurrentByVoteTime = uint128.Zero
	})
	db.witnesses.Each(func(w *Witness) bool {
		db.witnesses.Modify(w, func(w *Witness) {
			w.ByVotePosition = uint128.Zero
			w.ByVotePositionLastUpdate = uint128.Zero
			w.ByVoteScheduledTime = virtualLap.Div64(w.AveragePledge + 1)
		})
		return true
	})
	db.log.Infof("block: %d by vote schedule reset", db.headBlockNum())
}

// a witness that has lost its key can not be scheduled
func canProduce(w *Witness) bool {
	return keypair.PublicKey{} != w.SigningKey
}

// selectActiveWitnesses - fill the three queues
func (db *Database) selectActiveWitnesses() map[account.UID]ScheduleType {
	params := db.params()
	active := make(map[account.UID]ScheduleType)

	// by vote top
	top := int(params.ByVoteTopWitnessCount)
	for it := db.witnessByVotes.LowerBound(objectdb.Key(true)); it.Valid() && len(active) < top; it.Next() {
		w := it.Value()
		if !w.IsValid {
			break
		}
		if canProduce(w) {
			active[w.Account] = ScheduledByVoteTop
		}
	}

	// by vote rest
	rest := db.selectFromQueue(active, int(params.ByVoteRestWitnessCount), db.witnessByVoteSchedule, ScheduledByVoteRest, func(w *Witness) bool {
		return true
	})
	if 0 != len(rest) {
		cursor := rest[len(rest)-1].ByVoteScheduledTime
		db.witnessSchedules.Modify(db.schedule(), func(s *WitnessSchedule) {
			s.CurrentByVoteTime = cursor
		})
		overflow := false
		for _, w := range rest {
			db.witnesses.Modify(w, func(w *Witness) {
				w.ByVotePosition = uint128.Zero
				w.ByVotePositionLastUpdate = cursor
				w.ByVoteScheduledTime = cursor.AddWrap(virtualLap.Div64(w.TotalVotes + 1))
				if w.ByVoteScheduledTime.Cmp(cursor) < 0 {
					overflow = true
				}
			})
		}
		if overflow {
			db.resetByVoteSchedule()
		}
	}

	// by pledge
	floor := uint64(0)
	if db.version >= V05 {
		floor = params.Content.MinWitnessBlockProducePledge
	}
	pledged := db.selectFromQueue(active, int(params.ByPledgeWitnessCount), db.witnessByPledgeSchedule, ScheduledByPledge, func(w *Witness) bool {
		return w.Pledge >= floor
	})
	if 0 != len(pledged) {
		cursor := pledged[len(pledged)-1].ByPledgeScheduledTime
		db.witnessSchedules.Modify(db.schedule(), func(s *WitnessSchedule) {
			s.CurrentByPledgeTime = cursor
		})
		overflow := false
		for _, w := range pledged {
			speed := db.pledgeSpeed(w)
			db.witnesses.Modify(w, func(w *Witness) {
				w.ByPledgePosition = uint128.Zero
				w.ByPledgePositionLastUpdate = cursor
				w.ByPledgeScheduledTime = cursor.AddWrap(virtualLap.Div64(speed + 1))
				if w.ByPledgeScheduledTime.Cmp(cursor) < 0 {
					overflow = true
				}
			})
		}
		if overflow {
			db.resetByPledgeSchedule()
		}
	}

	return active
}

// selectFromQueue - take up to count of the earliest scheduled valid
// witnesses not already active
func (db *Database) selectFromQueue(active map[account.UID]ScheduleType, count int, queue *objectdb.OrderedIndex[Witness, *Witness], t ScheduleType, eligible func(*Witness) bool) []*Witness {
	selected := make([]*Witness, 0, count)
	for it := queue.LowerBound(objectdb.Key(true)); it.Valid() && len(selected) < count; it.Next() {
		w := it.Value()
		if !w.IsValid {
			break
		}
		if _, ok := active[w.Account]; ok || !canProduce(w) || !eligible(w) {
			continue
		}
		active[w.Account] = t
		selected = append(selected, w)
	}
	return selected
}

// shuffleWitnesses - deterministic permutation seeded by a time
func shuffleWitnesses(witnesses []account.UID, now protocol.Timestamp) {
	nowHi := uint64(now) << 32
	n := uint32(len(witnesses))
	for i := uint32(0); i < n; i += 1 {
		k := nowHi + uint64(i)*constants.ShuffleConstant
		k ^= k >> 12
		k ^= k << 25
		k ^= k >> 27
		k *= constants.ShuffleConstant

		j := i + uint32(k%uint64(n-i))
		witnesses[i], witnesses[j] = witnesses[j], witnesses[i]
	}
}

// updateWitnessSchedule - at the reschedule block choose the next
// active set and its producing order
func (db *Database) updateWitnessSchedule() {
	head := db.headBlockNum()
	s := db.schedule()
	if head < s.NextScheduleBlockNum {
		return
	}

	active := db.selectActiveWitnesses()
	if 0 == len(active) {
		db.log.Warnf("block: %d no witness can produce, keeping the active set", head)
		active = db.gpo().ActiveWitnesses
	} else {
		db.globalProperties.Modify(db.gpo(), func(g *GlobalProperty) {
			g.ActiveWitnesses = active
		})
	}

	shuffled := make([]account.UID, 0, len(active))
	for uid := range active {
		shuffled = append(shuffled, uid)
	}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i] < shuffled[j] })
	shuffleWitnesses(shuffled, db.headBlockTime())

	db.witnessSchedules.Modify(s, func(s *WitnessSchedule) {
		s.CurrentShuffledWitnesses = shuffled
		s.NextScheduleBlockNum += uint32(len(shuffled))
	})
	db.log.Debugf("block: %d witness schedule updated, next: %d", head, s.NextScheduleBlockNum)
}
