// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

func violated(format string, args ...interface{}) error {
	return errors.Wrapf(fault.ErrInvariantViolated, format, args...)
}

// CheckInvariants - verify the accounting of the whole state
//
// the first violation found is returned
func (db *Database) CheckInvariants() error {
	db.RLock()
	defer db.RUnlock()
	return db.checkInvariants()
}

func (db *Database) checkInvariants() error {
	head := db.headBlockNum()
	d := db.dgp()

	if d.BudgetPool < 0 {
		return violated("budget pool: %d", d.BudgetPool)
	}
	if d.NextBudgetAdjustBlock <= head {
		return violated("next budget adjust block: %d head: %d", d.NextBudgetAdjustBlock, head)
	}
	if g := db.gpo(); g.NextCommitteeUpdateBlock <= head {
		return violated("next committee update block: %d head: %d", g.NextCommitteeUpdateBlock, head)
	}
	if s := db.schedule(); s.NextScheduleBlockNum <= head {
		return violated("next schedule block: %d head: %d", s.NextScheduleBlockNum, head)
	}

	core := protocol.AssetAID(constants.CoreAssetAID)
	totalBalance := int64(0)
	totalNonBalance := d.BudgetPool
	leasedIn := int64(0)
	leasedOut := int64(0)

	var err error
	db.statistics.Each(func(s *AccountStatistics) bool {
		switch {
		case s.CoreBalance < 0:
			err = violated("account: %s core balance: %d", s.Owner, s.CoreBalance)
		case s.Prepaid < 0:
			err = violated("account: %s prepaid: %d", s.Owner, s.Prepaid)
		case s.CSAF < 0:
			err = violated("account: %s csaf: %d", s.Owner, s.CSAF)
		case s.CoreLeasedIn < 0 || s.CoreLeasedOut < 0:
			err = violated("account: %s leased in: %d out: %d", s.Owner, s.CoreLeasedIn, s.CoreLeasedOut)
		case s.UncollectedWitnessPay < 0:
			err = violated("account: %s uncollected witness pay: %d", s.Owner, s.UncollectedWitnessPay)
		case s.TotalCoreInOrders < 0:
			err = violated("account: %s core in orders: %d", s.Owner, s.TotalCoreInOrders)
		case db.availableCoreBalance(s) < 0:
			err = violated("account: %s core balance: %d below leased out: %d and pledges: %d", s.Owner, s.CoreBalance, s.CoreLeasedOut, db.totalPledges(s.Owner))
		}
		if nil != err {
			return false
		}
		totalBalance += s.CoreBalance
		totalNonBalance += s.Prepaid + s.UncollectedWitnessPay + s.UncollectedPledgeBonus + s.UncollectedScoreBonus + s.TotalCoreInOrders
		totalNonBalance += s.UncollectedMarketFees[core]
		leasedIn += s.CoreLeasedIn
		leasedOut += s.CoreLeasedOut
		return true
	})
	if nil != err {
		return err
	}
	if leasedIn != leasedOut {
		return violated("leased in: %d leased out: %d", leasedIn, leasedOut)
	}

	leased := int64(0)
	db.leases.Each(func(l *CSAFLease) bool {
		if l.Amount <= 0 {
			err = violated("lease: %s to: %s amount: %d", l.From, l.To, l.Amount)
			return false
		}
		leased += l.Amount
		return true
	})
	if nil != err {
		return err
	}
	if leased != leasedOut {
		return violated("leases: %d leased out: %d", leased, leasedOut)
	}

	db.balances.Each(func(b *AccountBalance) bool {
		switch {
		case core == b.AssetID:
			err = violated("account: %s core held outside statistics", b.Owner)
		case b.Balance < 0:
			err = violated("account: %s asset: %d balance: %d", b.Owner, b.AssetID, b.Balance)
		}
		return nil == err
	})
	if nil != err {
		return err
	}

	db.pledges.Each(func(p *PledgeBalance) bool {
		releasing := int64(0)
		for _, r := range p.Releasing {
			releasing += r.Amount
		}
		switch {
		case p.Pledge < 0 || p.TotalReleasingPledge < 0:
			err = violated("pledge of: %s type: %d pledge: %d releasing: %d", p.Owner, p.Type, p.Pledge, p.TotalReleasingPledge)
		case releasing != p.TotalReleasingPledge:
			err = violated("pledge of: %s type: %d releasing: %d queued: %d", p.Owner, p.Type, p.TotalReleasingPledge, releasing)
		case p.NextRelease() <= head:
			err = violated("pledge of: %s type: %d release block: %d head: %d", p.Owner, p.Type, p.NextRelease(), head)
		}
		return nil == err
	})
	if nil != err {
		return err
	}

	db.adOrders.Each(func(o *AdvertisingOrder) bool {
		totalNonBalance += o.ReleasedBalance
		return true
	})
	totalNonBalance += db.coreData().AccumulatedFees

	if supply := db.coreData().CurrentSupply; totalBalance+totalNonBalance != supply {
		return violated("core supply: %d balances: %d held elsewhere: %d", supply, totalBalance, totalNonBalance)
	}

	return db.checkVoterInvariants(head)
}

func (db *Database) checkVoterInvariants(head uint32) error {
	var err error
	db.voters.Each(func(v *Voter) bool {
		if !v.IsValid {
			return true
		}
		s := db.statisticsByOwner.Find(v.UID)
		switch {
		case nil == s:
			err = violated("voter: %s has no statistics", v.UID)
		case v.EffectiveVotesNextUpdateBlock <= head:
			err = violated("voter: %s next update: %d head: %d", v.UID, v.EffectiveVotesNextUpdateBlock, head)
		case s.LastVoterSequence != v.Sequence:
			err = violated("voter: %s sequence: %d last: %d", v.UID, v.Sequence, s.LastVoterSequence)
		case uint64(s.CoreBalance) != v.Votes:
			err = violated("voter: %s votes: %d core balance: %d", v.UID, v.Votes, s.CoreBalance)
		case account.ProxyToSelf != v.ProxyUID && (0 != v.NumberOfWitnessesVoted || 0 != v.NumberOfCommitteeMembersVoted || 0 != v.NumberOfPlatformsVoted):
			err = violated("voter: %s votes directly while proxied to: %s", v.UID, v.ProxyUID)
		}
		return nil == err
	})
	return err
}
