// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	lru "github.com/hashicorp/golang-lru"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// number of recently pushed blocks kept for pop and lookup
const recentBlockCacheSize = 1024

// contract time limit when none is configured
const defaultMaxTrxCPUTimeUs = constants.DefaultMaxTrxCPUTime / time.Microsecond

// ProtocolVersion - consensus rule set in force
type ProtocolVersion uint8

// rule sets, each later one includes the earlier changes
const (
	// base rules
	V0 ProtocolVersion = iota

	// witness pledge no longer earns csaf
	V04

	// balance lock, pledge mining and the produce pledge floor
	V05
)

type objectSpace = uint8

const (
	protocolSpace       objectSpace = objectdb.ProtocolSpace
	implementationSpace objectSpace = objectdb.ImplementationSpace
)

// edge tables share one layout
type voteEdge interface {
	edge() *VoteEdge
}

func (e *VoteEdge) edge() *VoteEdge { return e }

type edgeRecord[T any] interface {
	objectdb.Record[T]
	voteEdge
}

// voteTable - vote edges indexed from both ends
type voteTable[T any, P edgeRecord[T]] struct {
	*objectdb.Table[T, P]
	byVoter  *objectdb.OrderedIndex[T, P]
	byTarget *objectdb.OrderedIndex[T, P]
}

func newVoteTable[T any, P edgeRecord[T]](db *objectdb.Database, kind uint8) *voteTable[T, P] {
	t := objectdb.NewTable[T, P](db, implementationSpace, kind)
	return &voteTable[T, P]{
		Table: t,
		byVoter: objectdb.NewOrderedIndex[T, P](t, true, func(p P) objectdb.Tuple {
			e := p.edge()
			return objectdb.Key(e.VoterUID, e.VoterSequence, e.TargetUID, e.TargetSequence)
		}),
		byTarget: objectdb.NewOrderedIndex[T, P](t, true, func(p P) objectdb.Tuple {
			e := p.edge()
			return objectdb.Key(e.TargetUID, e.TargetSequence, e.VoterUID, e.VoterSequence)
		}),
	}
}

// Database - the chain state
type Database struct {
	sync.RWMutex

	log     *logger.L
	objects *objectdb.Database
	version ProtocolVersion

	// set while a block is being applied or generated
	applying     bool
	pendingBlock *protocol.SignedBlock
	history      []OperationHistory
	trxInBlock   uint16
	opInTrx      uint16
	virtualOp    uint16

	// pending transactions applied on top of the head block
	pending        []*protocol.ProcessedTransaction
	pendingSession *objectdb.Session

	recentBlocks    *lru.Cache
	observers       []Observer
	tracker         *changeTracker
	changed         map[objectdb.ID]struct{}
	adjustments     []BalanceAdjustment
	nonConsensusOps []protocol.Operation

	maxTrxCPUTimeUs uint32
	contracts       ContractHost

	witnessKind   *voteKind
	committeeKind *voteKind
	platformKind  *voteKind
	voteKinds     []*voteKind

	globalProperties        *objectdb.Table[GlobalProperty, *GlobalProperty]
	dynamicProperties       *objectdb.Table[DynamicGlobalProperty, *DynamicGlobalProperty]
	chainProperties         *objectdb.Table[ChainProperty, *ChainProperty]
	witnessSchedules        *objectdb.Table[WitnessSchedule, *WitnessSchedule]
	dedupe                  *objectdb.Table[TransactionDedupe, *TransactionDedupe]
	dedupeByID              *objectdb.UniqueIndex[protocol.TransactionID, TransactionDedupe, *TransactionDedupe]
	dedupeByExpiration      *objectdb.OrderedIndex[TransactionDedupe, *TransactionDedupe]
	blockSummaries          *objectdb.Table[BlockSummary, *BlockSummary]
	blockSummaryBySlot      *objectdb.UniqueIndex[uint16, BlockSummary, *BlockSummary]
	accounts                *objectdb.Table[Account, *Account]
	accountByUID            *objectdb.UniqueIndex[account.UID, Account, *Account]
	accountByName           *objectdb.UniqueIndex[string, Account, *Account]
	statistics              *objectdb.Table[AccountStatistics, *AccountStatistics]
	statisticsByOwner       *objectdb.UniqueIndex[account.UID, AccountStatistics, *AccountStatistics]
	balances                *objectdb.Table[AccountBalance, *AccountBalance]
	balanceByOwner          *objectdb.OrderedIndex[AccountBalance, *AccountBalance]
	balanceByAsset          *objectdb.OrderedIndex[AccountBalance, *AccountBalance]
	assets                  *objectdb.Table[Asset, *Asset]
	assetByAID              *objectdb.UniqueIndex[protocol.AssetAID, Asset, *Asset]
	assetBySymbol           *objectdb.UniqueIndex[string, Asset, *Asset]
	assetData               *objectdb.Table[AssetDynamicData, *AssetDynamicData]
	assetDataByAID          *objectdb.UniqueIndex[protocol.AssetAID, AssetDynamicData, *AssetDynamicData]
	authPlatforms           *objectdb.Table[AccountAuthPlatform, *AccountAuthPlatform]
	authPlatformByAccount   *objectdb.OrderedIndex[AccountAuthPlatform, *AccountAuthPlatform]
	takeovers               *objectdb.Table[RegistrarTakeover, *RegistrarTakeover]
	takeoverByOriginal      *objectdb.UniqueIndex[account.UID, RegistrarTakeover, *RegistrarTakeover]
	takeoverByTakeover      *objectdb.OrderedIndex[RegistrarTakeover, *RegistrarTakeover]
	leases                  *objectdb.Table[CSAFLease, *CSAFLease]
	leaseByFromTo           *objectdb.OrderedIndex[CSAFLease, *CSAFLease]
	leaseByExpiration       *objectdb.OrderedIndex[CSAFLease, *CSAFLease]
	pledges                 *objectdb.Table[PledgeBalance, *PledgeBalance]
	pledgeByOwner           *objectdb.OrderedIndex[PledgeBalance, *PledgeBalance]
	pledgeByRelease         *objectdb.OrderedIndex[PledgeBalance, *PledgeBalance]
	minings                 *objectdb.Table[PledgeMining, *PledgeMining]
	miningByAccount         *objectdb.OrderedIndex[PledgeMining, *PledgeMining]
	miningByWitness         *objectdb.OrderedIndex[PledgeMining, *PledgeMining]
	voters                  *objectdb.Table[Voter, *Voter]
	voterByUID              *objectdb.OrderedIndex[Voter, *Voter]
	voterByValid            *objectdb.OrderedIndex[Voter, *Voter]
	voterByNextUpdate       *objectdb.OrderedIndex[Voter, *Voter]
	voterByLastVote         *objectdb.OrderedIndex[Voter, *Voter]
	voterByProxy            *objectdb.OrderedIndex[Voter, *Voter]
	witnesses               *objectdb.Table[Witness, *Witness]
	witnessByAccount        *objectdb.OrderedIndex[Witness, *Witness]
	witnessByValid          *objectdb.OrderedIndex[Witness, *Witness]
	witnessByVotes          *objectdb.OrderedIndex[Witness, *Witness]
	witnessByPledge         *objectdb.OrderedIndex[Witness, *Witness]
	witnessByVoteSchedule   *objectdb.OrderedIndex[Witness, *Witness]
	witnessByPledgeSchedule *objectdb.OrderedIndex[Witness, *Witness]
	witnessByNextUpdate     *objectdb.OrderedIndex[Witness, *Witness]
	witnessVotes            *voteTable[WitnessVote, *WitnessVote]
	members                 *objectdb.Table[CommitteeMember, *CommitteeMember]
	memberByAccount         *objectdb.OrderedIndex[CommitteeMember, *CommitteeMember]
	memberByValid           *objectdb.OrderedIndex[CommitteeMember, *CommitteeMember]
	memberByVotes           *objectdb.OrderedIndex[CommitteeMember, *CommitteeMember]
	memberVotes             *voteTable[CommitteeMemberVote, *CommitteeMemberVote]
	committeeProposals      *objectdb.Table[CommitteeProposal, *CommitteeProposal]
	committeeProposalByNum  *objectdb.UniqueIndex[uint64, CommitteeProposal, *CommitteeProposal]
	platforms               *objectdb.Table[Platform, *Platform]
	platformByOwner         *objectdb.OrderedIndex[Platform, *Platform]
	platformByValid         *objectdb.OrderedIndex[Platform, *Platform]
	platformByNextUpdate    *objectdb.OrderedIndex[Platform, *Platform]
	platformVotes           *voteTable[PlatformVote, *PlatformVote]
	posts                   *objectdb.Table[Post, *Post]
	postByPID               *objectdb.OrderedIndex[Post, *Post]
	scores                  *objectdb.Table[Score, *Score]
	scoreByPost             *objectdb.OrderedIndex[Score, *Score]
	scoreByCreateTime       *objectdb.OrderedIndex[Score, *Score]
	licenses                *objectdb.Table[License, *License]
	licenseByLID            *objectdb.OrderedIndex[License, *License]
	advertisings            *objectdb.Table[Advertising, *Advertising]
	advertisingByAID        *objectdb.OrderedIndex[Advertising, *Advertising]
	adOrders                *objectdb.Table[AdvertisingOrder, *AdvertisingOrder]
	adOrderByOID            *objectdb.OrderedIndex[AdvertisingOrder, *AdvertisingOrder]
	adOrderByStatus         *objectdb.OrderedIndex[AdvertisingOrder, *AdvertisingOrder]
	customVotes             *objectdb.Table[CustomVote, *CustomVote]
	customVoteByVID         *objectdb.OrderedIndex[CustomVote, *CustomVote]
	customVoteByExpiry      *objectdb.OrderedIndex[CustomVote, *CustomVote]
	casts                   *objectdb.Table[CastCustomVote, *CastCustomVote]
	castByVote              *objectdb.OrderedIndex[CastCustomVote, *CastCustomVote]
	castByVoter             *objectdb.OrderedIndex[CastCustomVote, *CastCustomVote]
	limitOrders             *objectdb.Table[LimitOrder, *LimitOrder]
	orderByPrice            *objectdb.OrderedIndex[LimitOrder, *LimitOrder]
	orderByExpiration       *objectdb.OrderedIndex[LimitOrder, *LimitOrder]
	orderBySeller           *objectdb.OrderedIndex[LimitOrder, *LimitOrder]
	proposals               *objectdb.Table[Proposal, *Proposal]
	proposalByExpiration    *objectdb.OrderedIndex[Proposal, *Proposal]
	tableIDs                *objectdb.Table[TableID, *TableID]
	tableIDByKey            *objectdb.OrderedIndex[TableID, *TableID]
	keyValues               *objectdb.Table[KeyValue, *KeyValue]
	keyValueByKey           *objectdb.OrderedIndex[KeyValue, *KeyValue]
}

// Options - settings that are not part of consensus
type Options struct {
	Version ProtocolVersion

	// limit applied to every contract transaction, zero means the
	// default
	MaxTrxCPUTimeUs uint32

	// runs contract code, nil disables contract calls
	Contracts ContractHost

	// number of blocks that can be popped
	UndoHistory int
}

// New - empty database, call InitGenesis before use
func New(options Options) (*Database, error) {

	log := logger.New("ledger")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	cache, err := lru.New(recentBlockCacheSize)
	if nil != err {
		return nil, err
	}

	db := &Database{
		log:             log,
		objects:         objectdb.New(),
		version:         options.Version,
		recentBlocks:    cache,
		contracts:       options.Contracts,
		maxTrxCPUTimeUs: options.MaxTrxCPUTimeUs,
		changed:         make(map[objectdb.ID]struct{}),
	}
	if 0 == db.maxTrxCPUTimeUs {
		db.maxTrxCPUTimeUs = uint32(defaultMaxTrxCPUTimeUs)
	}
	if options.UndoHistory > 0 {
		db.objects.SetMaxSize(options.UndoHistory)
	}
	db.createTables()
	db.createVoteKinds()
	db.tracker = &changeTracker{db: db}
	db.objects.AddObserver(db.tracker)

	log.Infof("created with protocol version: %d", db.version)
	return db, nil
}

// Version - rule set in force
func (db *Database) Version() ProtocolVersion {
	return db.version
}

func (db *Database) createTables() {
	o := db.objects

	db.globalProperties = objectdb.NewTable[GlobalProperty, *GlobalProperty](o, implementationSpace, globalPropertyType)
	db.dynamicProperties = objectdb.NewTable[DynamicGlobalProperty, *DynamicGlobalProperty](o, implementationSpace, dynamicGlobalPropertyType)
	db.chainProperties = objectdb.NewTable[ChainProperty, *ChainProperty](o, implementationSpace, chainPropertyType)
	db.witnessSchedules = objectdb.NewTable[WitnessSchedule, *WitnessSchedule](o, implementationSpace, witnessScheduleType)

	db.dedupe = objectdb.NewTable[TransactionDedupe, *TransactionDedupe](o, implementationSpace, transactionDedupeType)
	db.dedupeByID = objectdb.NewUniqueIndex(db.dedupe, func(d *TransactionDedupe) protocol.TransactionID { return d.TrxID })
	db.dedupeByExpiration = objectdb.NewOrderedIndex(db.dedupe, false, func(d *TransactionDedupe) objectdb.Tuple {
		return objectdb.Key(d.Expiration)
	})

	db.blockSummaries = objectdb.NewTable[BlockSummary, *BlockSummary](o, implementationSpace, blockSummaryType)
	db.blockSummaryBySlot = objectdb.NewUniqueIndex(db.blockSummaries, func(b *BlockSummary) uint16 { return b.Slot })

	db.accounts = objectdb.NewTable[Account, *Account](o, protocolSpace, accountType)
	db.accountByUID = objectdb.NewUniqueIndex(db.accounts, func(a *Account) account.UID { return a.UID })
	db.accountByName = objectdb.NewUniqueIndex(db.accounts, func(a *Account) string { return a.Name })

	db.statistics = objectdb.NewTable[AccountStatistics, *AccountStatistics](o, implementationSpace, accountStatisticsType)
	db.statisticsByOwner = objectdb.NewUniqueIndex(db.statistics, func(s *AccountStatistics) account.UID { return s.Owner })

	db.balances = objectdb.NewTable[AccountBalance, *AccountBalance](o, implementationSpace, accountBalanceType)
	db.balanceByOwner = objectdb.NewOrderedIndex(db.balances, true, func(b *AccountBalance) objectdb.Tuple {
		return objectdb.Key(b.Owner, b.AssetID)
	})
	db.balanceByAsset = objectdb.NewOrderedIndex(db.balances, true, func(b *AccountBalance) objectdb.Tuple {
		return objectdb.Key(b.AssetID, b.Owner)
	})

	db.assets = objectdb.NewTable[Asset, *Asset](o, protocolSpace, assetType)
	db.assetByAID = objectdb.NewUniqueIndex(db.assets, func(a *Asset) protocol.AssetAID { return a.AssetID })
	db.assetBySymbol = objectdb.NewUniqueIndex(db.assets, func(a *Asset) string { return a.Symbol })
	db.assetData = objectdb.NewTable[AssetDynamicData, *AssetDynamicData](o, implementationSpace, assetDynamicDataType)
	db.assetDataByAID = objectdb.NewUniqueIndex(db.assetData, func(d *AssetDynamicData) protocol.AssetAID { return d.AssetID })

	db.authPlatforms = objectdb.NewTable[AccountAuthPlatform, *AccountAuthPlatform](o, implementationSpace, accountAuthPlatformType)
	db.authPlatformByAccount = objectdb.NewOrderedIndex(db.authPlatforms, true, func(a *AccountAuthPlatform) objectdb.Tuple {
		return objectdb.Key(a.Account, a.Platform)
	})

	db.takeovers = objectdb.NewTable[RegistrarTakeover, *RegistrarTakeover](o, implementationSpace, registrarTakeoverType)
	db.takeoverByOriginal = objectdb.NewUniqueIndex(db.takeovers, func(r *RegistrarTakeover) account.UID { return r.OriginalRegistrar })
	db.takeoverByTakeover = objectdb.NewOrderedIndex(db.takeovers, true, func(r *RegistrarTakeover) objectdb.Tuple {
		return objectdb.Key(r.TakeoverRegistrar, r.OriginalRegistrar)
	})

	db.leases = objectdb.NewTable[CSAFLease, *CSAFLease](o, implementationSpace, csafLeaseType)
	db.leaseByFromTo = objectdb.NewOrderedIndex(db.leases, true, func(l *CSAFLease) objectdb.Tuple {
		return objectdb.Key(l.From, l.To)
	})
	db.leaseByExpiration = objectdb.NewOrderedIndex(db.leases, false, func(l *CSAFLease) objectdb.Tuple {
		return objectdb.Key(l.Expiration)
	})

	db.pledges = objectdb.NewTable[PledgeBalance, *PledgeBalance](o, implementationSpace, pledgeBalanceType)
	db.pledgeByOwner = objectdb.NewOrderedIndex(db.pledges, true, func(p *PledgeBalance) objectdb.Tuple {
		return objectdb.Key(p.Owner, p.Type, p.Superior)
	})
	db.pledgeByRelease = objectdb.NewOrderedIndex(db.pledges, false, func(p *PledgeBalance) objectdb.Tuple {
		return objectdb.Key(p.NextRelease())
	})

	db.minings = objectdb.NewTable[PledgeMining, *PledgeMining](o, implementationSpace, pledgeMiningType)
	db.miningByAccount = objectdb.NewOrderedIndex(db.minings, true, func(m *PledgeMining) objectdb.Tuple {
		return objectdb.Key(m.PledgeAccount, m.Witness)
	})
	db.miningByWitness = objectdb.NewOrderedIndex(db.minings, true, func(m *PledgeMining) objectdb.Tuple {
		return objectdb.Key(m.Witness, m.PledgeAccount)
	})

	db.voters = objectdb.NewTable[Voter, *Voter](o, implementationSpace, voterType)
	db.voterByUID = objectdb.NewOrderedIndex(db.voters, true, func(v *Voter) objectdb.Tuple {
		return objectdb.Key(v.UID, v.Sequence)
	})
	db.voterByValid = objectdb.NewOrderedIndex(db.voters, true, func(v *Voter) objectdb.Tuple {
		return objectdb.Key(v.IsValid, v.UID, v.Sequence)
	})
	db.voterByNextUpdate = objectdb.NewOrderedIndex(db.voters, false, func(v *Voter) objectdb.Tuple {
		return objectdb.Key(v.EffectiveVotesNextUpdateBlock)
	})
	db.voterByLastVote = objectdb.NewOrderedIndex(db.voters, false, func(v *Voter) objectdb.Tuple {
		return objectdb.Key(v.IsValid, v.ProxyUID, v.EffectiveLastVoteBlock)
	})
	db.voterByProxy = objectdb.NewOrderedIndex(db.voters, true, func(v *Voter) objectdb.Tuple {
		return objectdb.Key(v.ProxyUID, v.ProxySequence, v.UID, v.Sequence)
	})

	db.witnesses = objectdb.NewTable[Witness, *Witness](o, protocolSpace, witnessType)
	db.witnessByAccount = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.Account, w.Sequence)
	})
	db.witnessByValid = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.IsValid, w.Account, w.Sequence)
	})
	db.witnessByVotes = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.IsValid, objectdb.Desc(w.TotalVotes), w.Account, w.Sequence)
	})
	db.witnessByPledge = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.IsValid, objectdb.Desc(w.Pledge), w.Account, w.Sequence)
	})
	db.witnessByVoteSchedule = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.IsValid, w.ByVoteScheduledTime, w.Account, w.Sequence)
	})
	db.witnessByPledgeSchedule = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.IsValid, w.ByPledgeScheduledTime, w.Account, w.Sequence)
	})
	db.witnessByNextUpdate = objectdb.NewOrderedIndex(db.witnesses, true, func(w *Witness) objectdb.Tuple {
		return objectdb.Key(w.AveragePledgeNextUpdateBlock, w.Account, w.Sequence)
	})
	db.witnessVotes = newVoteTable[WitnessVote, *WitnessVote](o, witnessVoteType)

	db.members = objectdb.NewTable[CommitteeMember, *CommitteeMember](o, protocolSpace, committeeMemberType)
	db.memberByAccount = objectdb.NewOrderedIndex(db.members, true, func(m *CommitteeMember) objectdb.Tuple {
		return objectdb.Key(m.Account, m.Sequence)
	})
	db.memberByValid = objectdb.NewOrderedIndex(db.members, true, func(m *CommitteeMember) objectdb.Tuple {
		return objectdb.Key(m.IsValid, m.Account, m.Sequence)
	})
	db.memberByVotes = objectdb.NewOrderedIndex(db.members, true, func(m *CommitteeMember) objectdb.Tuple {
		return objectdb.Key(m.IsValid, objectdb.Desc(m.Votes), m.Account, m.Sequence)
	})
	db.memberVotes = newVoteTable[CommitteeMemberVote, *CommitteeMemberVote](o, committeeMemberVoteType)

	db.committeeProposals = objectdb.NewTable[CommitteeProposal, *CommitteeProposal](o, protocolSpace, committeeProposalType)
	db.committeeProposalByNum = objectdb.NewUniqueIndex(db.committeeProposals, func(p *CommitteeProposal) uint64 { return p.ProposalNumber })

	db.platforms = objectdb.NewTable[Platform, *Platform](o, protocolSpace, platformType)
	db.platformByOwner = objectdb.NewOrderedIndex(db.platforms, true, func(p *Platform) objectdb.Tuple {
		return objectdb.Key(p.Owner, p.Sequence)
	})
	db.platformByValid = objectdb.NewOrderedIndex(db.platforms, true, func(p *Platform) objectdb.Tuple {
		return objectdb.Key(p.IsValid, p.Owner, p.Sequence)
	})
	db.platformByNextUpdate = objectdb.NewOrderedIndex(db.platforms, true, func(p *Platform) objectdb.Tuple {
		return objectdb.Key(p.AveragePledgeNextUpdateBlock, p.Owner, p.Sequence)
	})
	db.platformVotes = newVoteTable[PlatformVote, *PlatformVote](o, platformVoteType)

	db.posts = objectdb.NewTable[Post, *Post](o, protocolSpace, postType)
	db.postByPID = objectdb.NewOrderedIndex(db.posts, true, func(p *Post) objectdb.Tuple {
		return objectdb.Key(p.Platform, p.Poster, p.PostPID)
	})
	db.scores = objectdb.NewTable[Score, *Score](o, protocolSpace, scoreType)
	db.scoreByPost = objectdb.NewOrderedIndex(db.scores, true, func(s *Score) objectdb.Tuple {
		return objectdb.Key(s.Platform, s.Poster, s.PostPID, s.FromAccountUID)
	})
	db.scoreByCreateTime = objectdb.NewOrderedIndex(db.scores, false, func(s *Score) objectdb.Tuple {
		return objectdb.Key(s.CreateTime)
	})
	db.licenses = objectdb.NewTable[License, *License](o, protocolSpace, licenseType)
	db.licenseByLID = objectdb.NewOrderedIndex(db.licenses, true, func(l *License) objectdb.Tuple {
		return objectdb.Key(l.Platform, l.LicenseLID)
	})

	db.advertisings = objectdb.NewTable[Advertising, *Advertising](o, protocolSpace, advertisingType)
	db.advertisingByAID = objectdb.NewOrderedIndex(db.advertisings, true, func(a *Advertising) objectdb.Tuple {
		return objectdb.Key(a.Platform, a.AdvertisingAID)
	})
	db.adOrders = objectdb.NewTable[AdvertisingOrder, *AdvertisingOrder](o, protocolSpace, advertisingOrderType)
	db.adOrderByOID = objectdb.NewOrderedIndex(db.adOrders, true, func(a *AdvertisingOrder) objectdb.Tuple {
		return objectdb.Key(a.Platform, a.AdvertisingAID, a.AdvertisingOrderOID)
	})
	db.adOrderByStatus = objectdb.NewOrderedIndex(db.adOrders, false, func(a *AdvertisingOrder) objectdb.Tuple {
		return objectdb.Key(a.Platform, a.AdvertisingAID, a.Status, a.StartTime)
	})

	db.customVotes = objectdb.NewTable[CustomVote, *CustomVote](o, protocolSpace, customVoteType)
	db.customVoteByVID = objectdb.NewOrderedIndex(db.customVotes, true, func(c *CustomVote) objectdb.Tuple {
		return objectdb.Key(c.CustomVoteCreator, c.VoteVID)
	})
	db.customVoteByExpiry = objectdb.NewOrderedIndex(db.customVotes, false, func(c *CustomVote) objectdb.Tuple {
		return objectdb.Key(c.VoteExpiredTime)
	})
	db.casts = objectdb.NewTable[CastCustomVote, *CastCustomVote](o, protocolSpace, castCustomVoteType)
	db.castByVote = objectdb.NewOrderedIndex(db.casts, true, func(c *CastCustomVote) objectdb.Tuple {
		return objectdb.Key(c.CustomVoteCreator, c.CustomVoteVID, c.Voter)
	})
	db.castByVoter = objectdb.NewOrderedIndex(db.casts, true, func(c *CastCustomVote) objectdb.Tuple {
		return objectdb.Key(c.Voter, c.CustomVoteCreator, c.CustomVoteVID)
	})

	db.limitOrders = objectdb.NewTable[LimitOrder, *LimitOrder](o, protocolSpace, limitOrderType)
	db.orderByPrice = objectdb.NewOrderedIndex(db.limitOrders, false, func(l *LimitOrder) objectdb.Tuple {
		return objectdb.Key(objectdb.Desc(l.SellPrice))
	})
	db.orderByExpiration = objectdb.NewOrderedIndex(db.limitOrders, false, func(l *LimitOrder) objectdb.Tuple {
		return objectdb.Key(l.Expiration)
	})
	db.orderBySeller = objectdb.NewOrderedIndex(db.limitOrders, false, func(l *LimitOrder) objectdb.Tuple {
		return objectdb.Key(l.Seller)
	})

	db.proposals = objectdb.NewTable[Proposal, *Proposal](o, protocolSpace, proposalType)
	db.proposalByExpiration = objectdb.NewOrderedIndex(db.proposals, false, func(p *Proposal) objectdb.Tuple {
		return objectdb.Key(p.ExpirationTime)
	})

	db.tableIDs = objectdb.NewTable[TableID, *TableID](o, implementationSpace, tableIDType)
	db.tableIDByKey = objectdb.NewOrderedIndex(db.tableIDs, true, func(t *TableID) objectdb.Tuple {
		return objectdb.Key(t.Code, t.Scope, t.Table)
	})
	db.keyValues = objectdb.NewTable[KeyValue, *KeyValue](o, implementationSpace, keyValueType)
	db.keyValueByKey = objectdb.NewOrderedIndex(db.keyValues, true, func(kv *KeyValue) objectdb.Tuple {
		return objectdb.Key(uint64(kv.TableID), kv.PrimaryKey)
	})
}
