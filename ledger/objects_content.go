// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// Post - an article, comment or forward on a platform
type Post struct {
	objectdb.Base
	Platform       account.UID
	Poster         account.UID
	PostPID        uint64
	OriginPoster   *account.UID
	OriginPostPID  *uint64
	OriginPlatform *account.UID

	HashValue string
	ExtraData string
	Title     string
	Body      string

	CreateTime     protocol.Timestamp
	LastUpdateTime protocol.Timestamp

	Receiptors      map[account.UID]protocol.Receiptor
	LicenseLID      *uint64
	PermissionFlags uint32
	ForwardPrice    *int64
	ScoreSettlement bool
}

// DeepCopy - detach the receiptors
func (p *Post) DeepCopy() {
	n := make(map[account.UID]protocol.Receiptor, len(p.Receiptors))
	for k, v := range p.Receiptors {
		n[k] = v
	}
	p.Receiptors = n
}

// Allows - every bit of flags is set on the post
func (p *Post) Allows(flags uint32) bool {
	return p.PermissionFlags&flags == flags
}

// Score - an account's rating of a post, paid for with csaf
type Score struct {
	objectdb.Base
	FromAccountUID account.UID
	Platform       account.UID
	Poster         account.UID
	PostPID        uint64
	Score          int8
	CSAF           int64
	CreateTime     protocol.Timestamp
}

// License - terms a platform attaches to posts
type License struct {
	objectdb.Base
	LicenseLID uint64
	Platform   account.UID
	Type       uint8
	HashValue  string
	ExtraData  string
	Title      string
	Body       string
	CreateTime protocol.Timestamp
}

// Advertising - an advertising slot offered by a platform
type Advertising struct {
	objectdb.Base
	AdvertisingAID    uint64
	Platform          account.UID
	OnSell            bool
	UnitTime          uint32
	UnitPrice         int64
	Description       string
	LastOrderSequence uint64
	CreateTime        protocol.Timestamp
	LastUpdateTime    protocol.Timestamp
}

// advertising order states
const (
	AdvertisingUndetermined = uint8(0)
	AdvertisingAccepted     = uint8(1)
	AdvertisingRefused      = uint8(2)
	AdvertisingRansomed     = uint8(3)
)

// AdvertisingOrder - a purchase of advertising units
type AdvertisingOrder struct {
	objectdb.Base
	AdvertisingOrderOID uint64
	Platform            account.UID
	AdvertisingAID      uint64
	User                account.UID
	StartTime           protocol.Timestamp
	EndTime             protocol.Timestamp
	BuyRequestTime      protocol.Timestamp
	HandleTime          protocol.Timestamp
	Status              uint8
	ReleasedBalance     int64
	ExtraData           string
	Memo                *protocol.Memo
}

// CustomVote - a poll weighted by an asset balance
type CustomVote struct {
	objectdb.Base
	CustomVoteCreator    account.UID
	VoteVID              uint64
	Title                string
	Description          string
	VoteExpiredTime      protocol.Timestamp
	VoteAssetID          protocol.AssetAID
	RequiredAssetAmount  int64
	MinimumSelectedItems uint8
	MaximumSelectedItems uint8
	Options              []string
	VoteResult           []uint64
}

// DeepCopy - detach options and tallies
func (c *CustomVote) DeepCopy() {
	c.Options = append([]string(nil), c.Options...)
	c.VoteResult = append([]uint64(nil), c.VoteResult...)
}

// CastCustomVote - one account's ballot
type CastCustomVote struct {
	objectdb.Base
	Voter             account.UID
	CustomVoteCreator account.UID
	CustomVoteVID     uint64
	VoteResult        []uint8
	Weight            int64
}

// DeepCopy - detach the choices
func (c *CastCustomVote) DeepCopy() {
	c.VoteResult = append([]uint8(nil), c.VoteResult...)
}
