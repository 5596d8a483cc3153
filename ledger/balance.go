// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// adjustBalance - add a signed amount of any asset to an account
func (db *Database) adjustBalance(uid account.UID, delta protocol.Asset) error {
	if 0 == delta.Amount {
		return nil
	}
	if protocol.AssetAID(0) == delta.AssetID {
		return db.adjustCoreBalance(uid, delta.Amount)
	}

	b := db.balanceByOwner.Find(objectdb.Key(uid, delta.AssetID))
	if nil == b {
		if delta.Amount < 0 {
			return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s has 0 of asset: %d, needs: %d", uid, delta.AssetID, -delta.Amount)
		}
		_, err := db.balances.Create(func(n *AccountBalance) {
			n.Owner = uid
			n.AssetID = delta.AssetID
			n.Balance = delta.Amount
		})
		if nil != err {
			return err
		}
		db.balanceAdjusted(uid, delta)
		return nil
	}
	if delta.Amount < 0 && b.Balance < -delta.Amount {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s has %d of asset: %d, needs: %d", uid, b.Balance, delta.AssetID, -delta.Amount)
	}
	err := db.balances.Modify(b, func(b *AccountBalance) {
		b.Balance += delta.Amount
	})
	if nil != err {
		return err
	}
	db.balanceAdjusted(uid, delta)
	return nil
}

// adjustCoreBalance - a core change drives the voter and coin
// seconds bookkeeping
//
// a debit may only use what is neither leased out nor pledged
func (db *Database) adjustCoreBalance(uid account.UID, amount int64) error {
	s, err := db.getStatistics(uid)
	if nil != err {
		return err
	}
	params := db.params()

	if amount < 0 {
		available := db.availableCoreBalance(s)
		if available < -amount {
			return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s available: %d, needs: %d", uid, available, -amount)
		}
		if s.IsVoter && s.CoreBalance+amount < int64(params.MinGovernanceVotingBalance) {
			if v := db.findVoter(uid, s.LastVoterSequence); nil != v {
				db.invalidateVoter(v)
			}
		}
	}

	if s.IsVoter {
		v := db.findVoter(uid, s.LastVoterSequence)
		if nil == v {
			fault.Panicf("ledger: voter missing for account: %s", uid)
		}
		db.updateVoterEffectiveVotes(v)
		db.voters.Modify(v, func(v *Voter) {
			v.Votes += uint64(amount)
			v.VotesLastUpdate = db.headBlockTime()
		})
		db.updateVoterEffectiveVotes(v)
	}

	db.statistics.Modify(s, func(s *AccountStatistics) {
		db.updateCoinSeconds(s)
		s.CoreBalance += amount
	})
	db.balanceAdjusted(uid, protocol.Asset{Amount: amount})
	return nil
}

// totalPledges - every pledge of the account including what is
// still being released
func (db *Database) totalPledges(uid account.UID) int64 {
	total := int64(0)
	for _, p := range db.pledgeByOwner.Prefix(uid) {
		total += p.Total()
	}
	return total
}

// availableCoreBalance - spendable core
func (db *Database) availableCoreBalance(s *AccountStatistics) int64 {
	return s.CoreBalance - s.CoreLeasedOut - db.totalPledges(s.Owner)
}

// pledgeAmount - live pledge of one type, zero if none
func (db *Database) pledgeAmount(uid account.UID, t PledgeType) int64 {
	total := int64(0)
	for _, p := range db.pledgeByOwner.Prefix(uid, t) {
		total += p.Pledge
	}
	return total
}

// csafEffectiveBalance - the part of the balance that earns csaf
func (db *Database) csafEffectiveBalance(s *AccountStatistics) int64 {
	var effective int64
	switch {
	case db.version >= V05:
		effective = db.pledgeAmount(s.Owner, LockPledge)
	case db.version >= V04:
		effective = s.CoreBalance + s.CoreLeasedIn - s.CoreLeasedOut - db.pledgeAmount(s.Owner, WitnessPledge)
	default:
		effective = s.CoreBalance + s.CoreLeasedIn - s.CoreLeasedOut
	}
	if effective < 0 {
		return 0
	}
	return effective
}

// round down to a whole minute
func csafTime(t protocol.Timestamp) protocol.Timestamp {
	return t / 60 * 60
}

// computeCoinSeconds - earned coin seconds and the time weighted
// average balance as of now
//
// earned coin seconds never exceed average·window
func computeCoinSeconds(s *AccountStatistics, effective int64, window uint64, now protocol.Timestamp) (uint128.Uint128, int64) {
	now = csafTime(now)
	if 0 == window {
		return uint128.Zero, effective
	}

	average := s.AverageCoins
	if now > s.AverageCoinsLastUpdate {
		delta := uint64(now - s.AverageCoinsLastUpdate)
		if delta >= window {
			average = effective
		} else {
			old := uint128.From64(uint64(s.AverageCoins)).Mul64(window - delta)
			add := uint128.From64(uint64(effective)).Mul64(delta)
			average = int64(old.Add(add).Div64(window).Lo)
		}
	}
	limit := uint128.From64(uint64(average)).Mul64(window)

	earned := s.CoinSecondsEarned
	if now > s.CoinSecondsEarnedLastUpdate {
		delta := uint64(now - s.CoinSecondsEarnedLastUpdate)
		earned = earned.Add(uint128.From64(uint64(effective)).Mul64(delta))
	}
	if earned.Cmp(limit) > 0 {
		earned = limit
	}
	return earned, average
}

// updateCoinSeconds - bring the csaf accumulators up to the head
// block time, called inside a statistics mutator
func (db *Database) updateCoinSeconds(s *AccountStatistics) {
	now := csafTime(db.headBlockTime())
	if now <= s.CoinSecondsEarnedLastUpdate && now <= s.AverageCoinsLastUpdate {
		return
	}
	earned, average := computeCoinSeconds(s, db.csafEffectiveBalance(s), db.params().CSAFAccumulateWindow, now)
	s.CoinSecondsEarned = earned
	s.CoinSecondsEarnedLastUpdate = now
	s.AverageCoins = average
	s.AverageCoinsLastUpdate = now
}

// touchCoinSeconds - update the accumulators before something that
// changes the effective balance
func (db *Database) touchCoinSeconds(uid account.UID) {
	if s := db.statisticsByOwner.Find(uid); nil != s {
		db.statistics.Modify(s, db.updateCoinSeconds)
	}
}

// pledgeReleaseDelay - blocks a decrease of each type is held
func (db *Database) pledgeReleaseDelay(t PledgeType) uint32 {
	p := db.params()
	switch t {
	case WitnessPledge:
		return p.WitnessPledgeReleaseDelay
	case CommitteePledge:
		return p.CommitteeMemberPledgeReleaseDelay
	case PlatformPledge:
		return p.PlatformPledgeReleaseDelay
	case LockPledge:
		return p.Content.UnlockedBalanceReleaseDelay
	default:
		return constants.DefaultPledgeToWitnessReleaseDelay
	}
}

// checkPledge - the account can afford the new pledge
func (db *Database) checkPledge(uid account.UID, t PledgeType, superior account.UID, newPledge int64) error {
	s, err := db.getStatistics(uid)
	if nil != err {
		return err
	}
	current := db.findPledge(uid, t, superior)
	others := db.totalPledges(uid)
	after := PledgeBalance{Pledge: newPledge}
	if nil != current {
		others -= current.Total()
		after = *current
		after.DeepCopy()
		after.Update(newPledge, db.headBlockNum()+db.pledgeReleaseDelay(t))
	}
	available := s.CoreBalance - s.CoreLeasedOut - others
	if after.Total() > available {
		return errors.Wrapf(fault.ErrInsufficientBalance, "account: %s available for %s pledge: %d, needs: %d", uid, t, available, after.Total())
	}
	return nil
}

// updatePledge - set a pledge, queueing any decrease for release
func (db *Database) updatePledge(uid account.UID, t PledgeType, superior account.UID, newPledge int64) (*PledgeBalance, error) {
	return db.updatePledgeAt(uid, t, superior, newPledge, db.headBlockNum()+db.pledgeReleaseDelay(t))
}

// updatePledgeAt - as updatePledge with an explicit release block
func (db *Database) updatePledgeAt(uid account.UID, t PledgeType, superior account.UID, newPledge int64, release uint32) (*PledgeBalance, error) {
	db.touchCoinSeconds(uid)

	p := db.findPledge(uid, t, superior)
	if nil == p {
		return db.pledges.Create(func(n *PledgeBalance) {
			n.Owner = uid
			n.Type = t
			n.Superior = superior
			n.Pledge = newPledge
		})
	}
	err := db.pledges.Modify(p, func(p *PledgeBalance) {
		p.Update(newPledge, release)
	})
	return p, err
}

// processReleasedPledges - drop releases that have come due, the
// amounts become spendable again
func (db *Database) processReleasedPledges() {
	head := db.headBlockNum()
	for _, p := range db.pledgeByRelease.Range(objectdb.Key(uint32(0)), objectdb.Key(head+1)) {
		db.touchCoinSeconds(p.Owner)
		freed := int64(0)
		db.pledges.Modify(p, func(p *PledgeBalance) {
			freed = p.Release(head)
		})
		if 0 == p.Pledge && 0 == p.TotalReleasingPledge {
			db.pledges.Remove(p)
		}
		db.log.Debugf("released %s pledge: %d of account: %s", p.Type, freed, p.Owner)
	}
}

// isAuthorizedAsset - the account may send or receive the asset
func (db *Database) isAuthorizedAsset(a *Account, asset *Asset) bool {
	if !a.IsAuthorizedAsset(asset.AssetID) {
		return false
	}
	if !asset.Enabled(protocol.WhiteList) {
		return true
	}
	for _, uid := range asset.Options.BlacklistAuthorities {
		if _, ok := a.BlacklistingAccounts[uid]; ok {
			return false
		}
	}
	if 0 == len(asset.Options.WhitelistAuthorities) {
		return true
	}
	for _, uid := range asset.Options.WhitelistAuthorities {
		if _, ok := a.WhitelistingAccounts[uid]; ok {
			return true
		}
	}
	return false
}

// adjustSupply - change the current supply of an asset
func (db *Database) adjustSupply(aid protocol.AssetAID, delta int64) {
	d := db.assetDynamic(aid)
	if nil == d {
		fault.Panicf("ledger: dynamic data missing for asset: %d", aid)
	}
	db.assetData.Modify(d, func(d *AssetDynamicData) {
		d.CurrentSupply += delta
	})
}
