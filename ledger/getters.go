// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// singletons
func (db *Database) gpo() *GlobalProperty {
	return db.globalProperties.Find(objectdb.NewID(implementationSpace, globalPropertyType, 0))
}

func (db *Database) dgp() *DynamicGlobalProperty {
	return db.dynamicProperties.Find(objectdb.NewID(implementationSpace, dynamicGlobalPropertyType, 0))
}

func (db *Database) chainProperty() *ChainProperty {
	return db.chainProperties.Find(objectdb.NewID(implementationSpace, chainPropertyType, 0))
}

func (db *Database) schedule() *WitnessSchedule {
	return db.witnessSchedules.Find(objectdb.NewID(implementationSpace, witnessScheduleType, 0))
}

func (db *Database) coreData() *AssetDynamicData {
	return db.assetDataByAID.Find(protocol.AssetAID(0))
}

func (db *Database) params() *protocol.ChainParameters {
	return &db.gpo().Parameters
}

func (db *Database) fees() *protocol.FeeSchedule {
	return db.gpo().Parameters.Fees()
}

func (db *Database) headBlockNum() uint32 {
	return db.dgp().HeadBlockNumber
}

func (db *Database) headBlockTime() protocol.Timestamp {
	return db.dgp().Time
}

func (db *Database) findAccount(uid account.UID) *Account {
	return db.accountByUID.Find(uid)
}

func (db *Database) getAccount(uid account.UID) (*Account, error) {
	a := db.accountByUID.Find(uid)
	if nil == a {
		return nil, errors.Wrapf(fault.ErrAccountNotFound, "account: %s", uid)
	}
	return a, nil
}

func (db *Database) getStatistics(uid account.UID) (*AccountStatistics, error) {
	s := db.statisticsByOwner.Find(uid)
	if nil == s {
		return nil, errors.Wrapf(fault.ErrAccountNotFound, "statistics: %s", uid)
	}
	return s, nil
}

// statistics of an account already known to exist
func (db *Database) stats(uid account.UID) *AccountStatistics {
	s := db.statisticsByOwner.Find(uid)
	if nil == s {
		fault.Panicf("ledger: statistics missing for account: %s", uid)
	}
	return s
}

func (db *Database) getAsset(aid protocol.AssetAID) (*Asset, error) {
	a := db.assetByAID.Find(aid)
	if nil == a {
		return nil, errors.Wrapf(fault.ErrAssetNotFound, "asset: %d", aid)
	}
	return a, nil
}

func (db *Database) assetDynamic(aid protocol.AssetAID) *AssetDynamicData {
	return db.assetDataByAID.Find(aid)
}

// current witness of an account, nil if it has none
func (db *Database) findWitness(uid account.UID) *Witness {
	return db.witnessByValid.Find(objectdb.Key(true, uid))
}

func (db *Database) getWitness(uid account.UID) (*Witness, error) {
	w := db.findWitness(uid)
	if nil == w {
		return nil, errors.Wrapf(fault.ErrWitnessNotFound, "witness: %s", uid)
	}
	return w, nil
}

func (db *Database) findCommitteeMember(uid account.UID) *CommitteeMember {
	return db.memberByValid.Find(objectdb.Key(true, uid))
}

func (db *Database) getCommitteeMember(uid account.UID) (*CommitteeMember, error) {
	m := db.findCommitteeMember(uid)
	if nil == m {
		return nil, errors.Wrapf(fault.ErrCommitteeMemberNotFound, "committee member: %s", uid)
	}
	return m, nil
}

func (db *Database) findPlatform(uid account.UID) *Platform {
	return db.platformByValid.Find(objectdb.Key(true, uid))
}

func (db *Database) getPlatform(uid account.UID) (*Platform, error) {
	p := db.findPlatform(uid)
	if nil == p {
		return nil, errors.Wrapf(fault.ErrPlatformNotFound, "platform: %s", uid)
	}
	return p, nil
}

func (db *Database) findVoter(uid account.UID, sequence uint32) *Voter {
	return db.voterByUID.Find(objectdb.Key(uid, sequence))
}

// current voter of an account, nil if the account is not voting
func (db *Database) currentVoter(uid account.UID) *Voter {
	s := db.statisticsByOwner.Find(uid)
	if nil == s || !s.IsVoter {
		return nil
	}
	return db.findVoter(uid, s.LastVoterSequence)
}

func (db *Database) findPost(platform account.UID, poster account.UID, pid uint64) *Post {
	return db.postByPID.Find(objectdb.Key(platform, poster, pid))
}

func (db *Database) getPost(platform account.UID, poster account.UID, pid uint64) (*Post, error) {
	p := db.findPost(platform, poster, pid)
	if nil == p {
		return nil, errors.Wrapf(fault.ErrPostNotFound, "post: %s/%s/%d", platform, poster, pid)
	}
	return p, nil
}

func (db *Database) findAuthPlatform(uid account.UID, platform account.UID) *AccountAuthPlatform {
	return db.authPlatformByAccount.Find(objectdb.Key(uid, platform))
}

func (db *Database) findPledge(owner account.UID, t PledgeType, superior account.UID) *PledgeBalance {
	return db.pledgeByOwner.Find(objectdb.Key(owner, t, superior))
}

// balance of a non-core asset or the core balance
func (db *Database) balanceOf(uid account.UID, aid protocol.AssetAID) int64 {
	if protocol.AssetAID(0) == aid {
		s := db.statisticsByOwner.Find(uid)
		if nil == s {
			return 0
		}
		return s.CoreBalance
	}
	b := db.balanceByOwner.Find(objectdb.Key(uid, aid))
	if nil == b {
		return 0
	}
	return b.Balance
}

// blockIDForNum - id of a block still covered by the summaries
func (db *Database) blockIDForNum(n uint32) (protocol.BlockID, bool) {
	b := db.blockSummaryBySlot.Find(uint16(n))
	if nil == b || b.BlockID.BlockNum() != n {
		return protocol.BlockID{}, false
	}
	return b.BlockID, true
}

// fetchAuthority - resolver for signature checks
func (db *Database) fetchAuthority(uid account.UID, tier authority.Tier) *authority.Authority {
	a := db.accountByUID.Find(uid)
	if nil == a {
		return nil
	}
	switch tier {
	case authority.Owner:
		return &a.Owner
	case authority.Active:
		return &a.Active
	default:
		return &a.Secondary
	}
}

// ChainID - identity of the network
func (db *Database) ChainID() protocol.ChainID {
	db.RLock()
	defer db.RUnlock()
	return db.chainProperty().ChainID
}

// HeadBlockNum - number of the last applied block
func (db *Database) HeadBlockNum() uint32 {
	db.RLock()
	defer db.RUnlock()
	return db.headBlockNum()
}

// HeadBlockID - id of the last applied block
func (db *Database) HeadBlockID() protocol.BlockID {
	db.RLock()
	defer db.RUnlock()
	return db.dgp().HeadBlockID
}

// HeadBlockTime - time of the last applied block
func (db *Database) HeadBlockTime() protocol.Timestamp {
	db.RLock()
	defer db.RUnlock()
	return db.headBlockTime()
}

// LastIrreversibleBlockNum - blocks at or below this can not be popped
func (db *Database) LastIrreversibleBlockNum() uint32 {
	db.RLock()
	defer db.RUnlock()
	return db.dgp().LastIrreversibleBlockNum
}

// GlobalProperties - copy of the parameters and active sets
func (db *Database) GlobalProperties() GlobalProperty {
	db.RLock()
	defer db.RUnlock()
	g := *db.gpo()
	g.DeepCopy()
	return g
}

// DynamicGlobalProperties - copy of the per block values
func (db *Database) DynamicGlobalProperties() DynamicGlobalProperty {
	db.RLock()
	defer db.RUnlock()
	return *db.dgp()
}

// ShuffledWitnesses - producer order of the current round
func (db *Database) ShuffledWitnesses() []account.UID {
	db.RLock()
	defer db.RUnlock()
	return append([]account.UID(nil), db.schedule().CurrentShuffledWitnesses...)
}

// WitnessSchedule - copy of the schedule singleton
func (db *Database) WitnessSchedule() WitnessSchedule {
	db.RLock()
	defer db.RUnlock()
	w := *db.schedule()
	w.DeepCopy()
	return w
}

// Account - copy of an account, nil if absent
func (db *Database) Account(uid account.UID) *Account {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findAccount(uid))
}

// AccountByName - copy of an account, nil if absent
func (db *Database) AccountByName(name string) *Account {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.accountByName.Find(name))
}

// Statistics - copy of an account's statistics, nil if absent
func (db *Database) Statistics(uid account.UID) *AccountStatistics {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.statisticsByOwner.Find(uid))
}

// Balance - amount of an asset held by an account
func (db *Database) Balance(uid account.UID, aid protocol.AssetAID) int64 {
	db.RLock()
	defer db.RUnlock()
	return db.balanceOf(uid, aid)
}

// Asset - copy of an asset, nil if absent
func (db *Database) Asset(aid protocol.AssetAID) *Asset {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.assetByAID.Find(aid))
}

// AssetDynamicData - copy of an asset's supply and fee buckets
func (db *Database) AssetDynamicData(aid protocol.AssetAID) *AssetDynamicData {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.assetDataByAID.Find(aid))
}

// Witness - copy of the current witness of an account
func (db *Database) Witness(uid account.UID) *Witness {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findWitness(uid))
}

// CommitteeMember - copy of the current committee member of an account
func (db *Database) CommitteeMember(uid account.UID) *CommitteeMember {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findCommitteeMember(uid))
}

// CommitteeProposal - copy of a committee proposal
func (db *Database) CommitteeProposal(number uint64) *CommitteeProposal {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.committeeProposalByNum.Find(number))
}

// Platform - copy of the current platform of an account
func (db *Database) Platform(uid account.UID) *Platform {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findPlatform(uid))
}

// Voter - copy of the current voter of an account
func (db *Database) Voter(uid account.UID) *Voter {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.currentVoter(uid))
}

// VoterBySequence - copy of a possibly retired voter
func (db *Database) VoterBySequence(uid account.UID, sequence uint32) *Voter {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findVoter(uid, sequence))
}

// Pledge - copy of a pledge balance
func (db *Database) Pledge(owner account.UID, t PledgeType, superior account.UID) *PledgeBalance {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findPledge(owner, t, superior))
}

// Post - copy of a post
func (db *Database) Post(platform account.UID, poster account.UID, pid uint64) *Post {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.findPost(platform, poster, pid))
}

// AdvertisingOrder - copy of an advertising order
func (db *Database) AdvertisingOrder(platform account.UID, aid uint64, oid uint64) *AdvertisingOrder {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.adOrderByOID.Find(objectdb.Key(platform, aid, oid)))
}

// CustomVote - copy of a custom vote
func (db *Database) CustomVote(creator account.UID, vid uint64) *CustomVote {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.customVoteByVID.Find(objectdb.Key(creator, vid)))
}

// CastsByVoter - copies of every ballot an account has cast
func (db *Database) CastsByVoter(voter account.UID) []*CastCustomVote {
	db.RLock()
	defer db.RUnlock()
	list := db.castByVoter.Prefix(voter)
	result := make([]*CastCustomVote, len(list))
	for i, c := range list {
		result[i] = cloneOf(c)
	}
	return result
}

// LimitOrder - copy of an open order
func (db *Database) LimitOrder(id uint64) *LimitOrder {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.limitOrders.Find(objectdb.NewID(protocolSpace, limitOrderType, id)))
}

// Proposal - copy of a pending proposal
func (db *Database) Proposal(id uint64) *Proposal {
	db.RLock()
	defer db.RUnlock()
	return cloneOf(db.proposals.Find(objectdb.NewID(protocolSpace, proposalType, id)))
}

// ContractRow - value of a contract table row, nil if absent
func (db *Database) ContractRow(code account.UID, scope uint64, table uint64, primaryKey uint64) []byte {
	db.RLock()
	defer db.RUnlock()
	t := db.tableIDByKey.Find(objectdb.Key(code, scope, table))
	if nil == t {
		return nil
	}
	kv := db.keyValueByKey.Find(objectdb.Key(uint64(t.ObjectID()), primaryKey))
	if nil == kv {
		return nil
	}
	return append([]byte(nil), kv.Value...)
}

// copy an object so callers outside the lock see a stable value
func cloneOf[T any, P objectdb.Record[T]](p P) P {
	if nil == p {
		return nil
	}
	c := P(new(T))
	*c = *p
	if d, ok := any(c).(objectdb.DeepCopier); ok {
		d.DeepCopy()
	}
	return c
}
