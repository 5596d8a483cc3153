// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sort"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/genesis"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

// core asset
const (
	coreAssetPrecision   = 5
	coreAssetDescription = "YOYOW core asset"
)

// special accounts in uid order
var specialAccounts = []struct {
	uid       account.UID
	name      string
	threshold uint32
}{
	{account.ProxyToSelf, "proxy-to-self", 1},
	{account.CommitteeAccount, "committee-account", 1},
	{account.WitnessAccount, "witness-account", 1},
	{account.RelaxedCommittee, "relaxed-committee-account", 1},
	{account.NullAccount, "null-account", 1},
	{account.TempAccount, "temp-account", 0},
}

// InitGenesis - build the state at block zero
//
// runs without undo and leaves an empty undo stack at revision 0
func (db *Database) InitGenesis(g *genesis.State) error {
	db.Lock()
	defer db.Unlock()

	if db.dynamicProperties.Count() > 0 {
		return fault.ErrAlreadyInitialised
	}
	if err := g.Validate(); nil != err {
		return err
	}

	db.objects.Disable()
	defer db.objects.Enable()

	now := g.InitialTimestamp

	if err := db.createSpecialAccounts(now); nil != err {
		return err
	}

	_, err := db.assetData.Create(func(d *AssetDynamicData) {
		d.AssetID = protocol.AssetAID(constants.CoreAssetAID)
		d.CurrentSupply = constants.MaxShareSupply
	})
	if nil != err {
		return err
	}
	_, err = db.assets.Create(func(a *Asset) {
		a.AssetID = protocol.AssetAID(constants.CoreAssetAID)
		a.Symbol = constants.CoreSymbol
		a.Precision = coreAssetPrecision
		a.Issuer = account.NullAccount
		a.Options.MaxSupply = g.MaxCoreSupply
		a.Options.Description = coreAssetDescription
	})
	if nil != err {
		return err
	}

	// fees are off while the initial objects are created
	fees := g.InitialParameters.Fees()
	_, err = db.globalProperties.Create(func(p *GlobalProperty) {
		p.Parameters = g.InitialParameters
		p.Parameters.CurrentFees = fees.Zero()
		p.ActiveWitnesses = make(map[account.UID]ScheduleType)
	})
	if nil != err {
		return err
	}
	_, err = db.dynamicProperties.Create(func(d *DynamicGlobalProperty) {
		d.Time = now
		d.RecentSlotsFilled = uint128.Max
	})
	if nil != err {
		return err
	}
	_, err = db.chainProperties.Create(func(c *ChainProperty) {
		c.ChainID = g.ChainID()
		c.MinCommitteeMemberCount = g.ImmutableParameters.MinCommitteeMemberCount
		c.MinWitnessCount = g.ImmutableParameters.MinWitnessCount
		c.GenesisTime = now
	})
	if nil != err {
		return err
	}
	_, err = db.witnessSchedules.Create(func(*WitnessSchedule) {})
	if nil != err {
		return err
	}
	_, err = db.blockSummaries.Create(func(*BlockSummary) {})
	if nil != err {
		return err
	}

	for _, a := range g.InitialAccounts {
		if err := db.createInitialAccount(a, now); nil != err {
			return errors.Wrapf(err, "initial account: %q", a.Name)
		}
	}

	symbols := map[string]protocol.AssetAID{
		constants.CoreSymbol: protocol.AssetAID(constants.CoreAssetAID),
	}
	for _, a := range g.InitialAssets {
		aid, err := db.createInitialAsset(a)
		if nil != err {
			return errors.Wrapf(err, "initial asset: %q", a.Symbol)
		}
		symbols[a.Symbol] = aid
	}

	supplies := make(map[protocol.AssetAID]int64)
	for _, b := range g.InitialAccountBalances {
		aid := symbols[b.AssetSymbol]
		if err := db.adjustBalance(b.UID, protocol.Asset{Amount: b.Amount, AssetID: aid}); nil != err {
			return errors.Wrapf(err, "initial balance of: %s", b.UID)
		}
		supplies[aid] += b.Amount
	}

	// without handouts the committee holds the whole core supply
	core := protocol.AssetAID(constants.CoreAssetAID)
	if supplies[core] > 0 {
		db.statistics.Modify(db.stats(account.CommitteeAccount), func(s *AccountStatistics) {
			s.CoreBalance = 0
		})
	} else {
		supplies[core] = constants.MaxShareSupply
	}
	for aid, total := range supplies {
		db.assetData.Modify(db.assetDynamic(aid), func(d *AssetDynamicData) {
			d.CurrentSupply = total
		})
	}

	for _, w := range g.InitialWitnessCandidates {
		uid, _ := g.AccountUID(w.OwnerName)
		if err := db.createInitialWitness(uid, w.BlockSigningKey, now); nil != err {
			return errors.Wrapf(err, "initial witness: %q", w.OwnerName)
		}
	}
	for _, m := range g.InitialCommitteeCandidates {
		uid, _ := g.AccountUID(m.OwnerName)
		if err := db.createInitialCommitteeMember(uid); nil != err {
			return errors.Wrapf(err, "initial committee member: %q", m.OwnerName)
		}
	}
	for _, p := range g.InitialPlatforms {
		if err := db.createInitialPlatform(p, now); nil != err {
			return errors.Wrapf(err, "initial platform: %q", p.Name)
		}
	}

	// the first candidates in order form the initial active set
	active := make(map[account.UID]ScheduleType, g.InitialActiveWitnesses)
	for _, w := range g.InitialWitnessCandidates[:g.InitialActiveWitnesses] {
		uid, _ := g.AccountUID(w.OwnerName)
		active[uid] = ScheduledByVoteTop
	}
	db.globalProperties.Modify(db.gpo(), func(p *GlobalProperty) {
		p.ActiveWitnesses = active
		p.Parameters.CurrentFees = fees
	})

	db.adjustBudgets()
	db.updateCommittee()

	shuffled := make([]account.UID, 0, len(active))
	for uid := range active {
		shuffled = append(shuffled, uid)
	}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i] < shuffled[j] })
	db.witnessSchedules.Modify(db.schedule(), func(s *WitnessSchedule) {
		s.CurrentShuffledWitnesses = shuffled
		s.NextScheduleBlockNum = uint32(len(shuffled))
	})

	db.takeChanges(db.tracker)
	if err := db.objects.SetRevision(0); nil != err {
		return err
	}

	db.log.Infof("genesis at: %s chain id: %x accounts: %d witnesses: %d", now, db.chainProperty().ChainID, len(g.InitialAccounts), len(active))
	return nil
}

func (db *Database) createSpecialAccounts(now protocol.Timestamp) error {
	for _, s := range specialAccounts {
		s := s
		_, err := db.accounts.Create(func(a *Account) {
			a.UID = s.uid
			a.Name = s.name
			a.Owner = authority.Authority{WeightThreshold: s.threshold}
			a.Active = authority.Authority{WeightThreshold: s.threshold}
			a.Secondary = authority.Authority{WeightThreshold: s.threshold}
			a.RegInfo = protocol.RegInfo{
				Registrar:        account.CommitteeAccount,
				Referrer:         account.CommitteeAccount,
				RegistrarPercent: constants.HundredPercent,
			}
			if account.NullAccount == s.uid {
				a.RegInfo.Registrar = account.NullAccount
				a.RegInfo.Referrer = account.NullAccount
				a.IsRegistrar = true
				a.IsFullMember = true
			}
			a.CreateTime = now
			a.LastUpdateTime = now
		})
		if nil != err {
			return errors.Wrapf(err, "special account: %s", s.name)
		}
		_, err = db.statistics.Create(func(st *AccountStatistics) {
			st.Owner = s.uid
			if account.CommitteeAccount == s.uid {
				st.CoreBalance = constants.MaxShareSupply
			}
		})
		if nil != err {
			return err
		}
	}
	return nil
}

// createInitialAccount - same objects as an account create operation
func (db *Database) createInitialAccount(g genesis.Account, now protocol.Timestamp) error {
	active := g.ActiveKey
	if active.IsZero() {
		active = g.OwnerKey
	}
	secondary := g.SecondaryKey
	if secondary.IsZero() {
		secondary = active
	}
	memo := g.MemoKey
	if memo.IsZero() {
		memo = active
	}
	registrar := g.Registrar
	if 0 == registrar {
		registrar = account.NullAccount
	}

	_, err := db.accounts.Create(func(a *Account) {
		a.UID = g.UID
		a.Name = g.Name
		a.Owner = authority.NewKeyAuthority(g.OwnerKey)
		a.Active = authority.NewKeyAuthority(active)
		a.Secondary = authority.NewKeyAuthority(secondary)
		a.MemoKey = memo
		a.RegInfo = protocol.RegInfo{
			Registrar:        registrar,
			Referrer:         registrar,
			RegistrarPercent: constants.HundredPercent,
		}
		a.IsRegistrar = g.IsRegistrar
		a.IsFullMember = g.IsFullMember
		a.CanPost = true
		a.CanReply = true
		a.CanRate = true
		a.CreateTime = now
		a.LastUpdateTime = now
	})
	if nil != err {
		return err
	}
	_, err = db.statistics.Create(func(s *AccountStatistics) {
		s.Owner = g.UID
		s.CanVote = true
		s.AverageCoinsLastUpdate = csafTime(now)
		s.CoinSecondsEarnedLastUpdate = csafTime(now)
	})
	return err
}

func (db *Database) createInitialAsset(g genesis.Asset) (protocol.AssetAID, error) {
	aid := protocol.AssetAID(db.assets.NextID().Instance())
	_, err := db.assetData.Create(func(d *AssetDynamicData) {
		d.AssetID = aid
	})
	if nil != err {
		return 0, err
	}
	_, err = db.assets.Create(func(a *Asset) {
		a.AssetID = aid
		a.Symbol = g.Symbol
		a.Precision = g.Precision
		a.Issuer = g.Issuer
		a.Options.MaxSupply = g.MaxSupply
		a.Options.Description = g.Description
	})
	return aid, err
}

// createInitialWitness - a witness without pledge, entering both
// queues at the start
func (db *Database) createInitialWitness(uid account.UID, key keypair.PublicKey, now protocol.Timestamp) error {
	s := db.stats(uid)
	w, err := db.witnesses.Create(func(w *Witness) {
		w.Account = uid
		w.Sequence = s.LastWitnessSequence + 1
		w.IsValid = true
		w.SigningKey = key
		w.PledgeLastUpdate = now
		w.AveragePledgeLastUpdate = now
		w.AveragePledgeNextUpdateBlock = constants.NeverBlock
	})
	if nil != err {
		return err
	}
	db.statistics.Modify(s, func(s *AccountStatistics) {
		s.LastWitnessSequence += 1
	})

	sched := db.schedule()
	speed := db.pledgeSpeed(w)
	return db.witnesses.Modify(w, func(w *Witness) {
		w.ByPledgePositionLastUpdate = sched.CurrentByPledgeTime
		w.ByPledgeScheduledTime = scheduledAt(sched.CurrentByPledgeTime, uint128.Zero, speed, sched.CurrentByPledgeTime)
		w.ByVotePositionLastUpdate = sched.CurrentByVoteTime
		w.ByVoteScheduledTime = scheduledAt(sched.CurrentByVoteTime, uint128.Zero, w.TotalVotes, sched.CurrentByVoteTime)
	})
}

func (db *Database) createInitialCommitteeMember(uid account.UID) error {
	s := db.stats(uid)
	_, err := db.members.Create(func(m *CommitteeMember) {
		m.Account = uid
		m.Sequence = s.LastCommitteeMemberSequence + 1
		m.IsValid = true
	})
	if nil != err {
		return err
	}
	return db.statistics.Modify(s, func(s *AccountStatistics) {
		s.LastCommitteeMemberSequence += 1
	})
}

func (db *Database) createInitialPlatform(g genesis.Platform, now protocol.Timestamp) error {
	s := db.stats(g.Owner)
	_, err := db.platforms.Create(func(p *Platform) {
		p.Owner = g.Owner
		p.Sequence = s.LastPlatformSequence + 1
		p.IsValid = true
		p.Name = g.Name
		p.URL = g.URL
		p.PledgeLastUpdate = now
		p.AveragePledgeLastUpdate = now
		p.AveragePledgeNextUpdateBlock = constants.NeverBlock
		p.CreateTime = now
		p.LastUpdateTime = now
	})
	if nil != err {
		return err
	}
	return db.statistics.Modify(s, func(s *AccountStatistics) {
		s.LastPlatformSequence += 1
	})
}
