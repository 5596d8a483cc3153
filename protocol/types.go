// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
)

// AssetAID - numeric asset identifier, the core asset is zero
type AssetAID uint64

// Asset - an amount of a particular asset
type Asset struct {
	Amount  int64    `json:"amount"`
	AssetID AssetAID `json:"asset_id"`
}

// CoreAsset - amount of the core asset
func CoreAsset(amount int64) Asset {
	return Asset{Amount: amount, AssetID: AssetAID(constants.CoreAssetAID)}
}

// IsCore - denominated in the core asset
func (a Asset) IsCore() bool {
	return AssetAID(constants.CoreAssetAID) == a.AssetID
}

// Negate - same asset, opposite sign
func (a Asset) Negate() Asset {
	return Asset{Amount: -a.Amount, AssetID: a.AssetID}
}

// String - amount:asset
func (a Asset) String() string {
	return fmt.Sprintf("%d:%d", a.Amount, a.AssetID)
}

// Multiply - convert an amount through a price, rounding down
//
// the amount must be denominated in one side of the price
func (a Asset) Multiply(p Price) (Asset, error) {
	switch a.AssetID {
	case p.Base.AssetID:
		if p.Base.Amount <= 0 {
			return Asset{}, fault.ErrInvalidPrice
		}
		r, err := mulDiv(a.Amount, p.Quote.Amount, p.Base.Amount)
		return Asset{Amount: r, AssetID: p.Quote.AssetID}, err
	case p.Quote.AssetID:
		if p.Quote.Amount <= 0 {
			return Asset{}, fault.ErrInvalidPrice
		}
		r, err := mulDiv(a.Amount, p.Base.Amount, p.Quote.Amount)
		return Asset{Amount: r, AssetID: p.Base.AssetID}, err
	}
	return Asset{}, fault.ErrInvalidPrice
}

// MultiplyRoundUp - as Multiply but any remainder rounds up
func (a Asset) MultiplyRoundUp(p Price) (Asset, error) {
	switch a.AssetID {
	case p.Base.AssetID:
		if p.Base.Amount <= 0 {
			return Asset{}, fault.ErrInvalidPrice
		}
		r, err := mulDivUp(a.Amount, p.Quote.Amount, p.Base.Amount, true)
		return Asset{Amount: r, AssetID: p.Quote.AssetID}, err
	case p.Quote.AssetID:
		if p.Quote.Amount <= 0 {
			return Asset{}, fault.ErrInvalidPrice
		}
		r, err := mulDivUp(a.Amount, p.Base.Amount, p.Quote.Amount, true)
		return Asset{Amount: r, AssetID: p.Base.AssetID}, err
	}
	return Asset{}, fault.ErrInvalidPrice
}

func mulDiv(a int64, b int64, c int64) (int64, error) {
	return mulDivUp(a, b, c, false)
}

func mulDivUp(a int64, b int64, c int64, up bool) (int64, error) {
	if a < 0 || b < 0 || c <= 0 {
		return 0, fault.ErrInvalidAmount
	}
	q, r := uint128.From64(uint64(a)).Mul64(uint64(b)).QuoRem64(uint64(c))
	if up && 0 != r {
		q = q.Add64(1)
	}
	if 0 != q.Hi || q.Lo > uint64(constants.MaxShareSupply) {
		return 0, fault.ErrInvalidAmount
	}
	return int64(q.Lo), nil
}

// Price - ratio of two assets: Base per Quote
type Price struct {
	Base  Asset `json:"base"`
	Quote Asset `json:"quote"`
}

// Invert - swap the two sides
func (p Price) Invert() Price {
	return Price{Base: p.Quote, Quote: p.Base}
}

// Validate - both sides positive and of different assets
func (p Price) Validate() error {
	if p.Base.Amount <= 0 || p.Quote.Amount <= 0 || p.Base.AssetID == p.Quote.AssetID {
		return fault.ErrInvalidPrice
	}
	return nil
}

// MaxPrice - largest representable price for the pair
func MaxPrice(base AssetAID, quote AssetAID) Price {
	return Price{
		Base:  Asset{Amount: constants.MaxShareSupply, AssetID: base},
		Quote: Asset{Amount: 1, AssetID: quote},
	}
}

// MinPrice - smallest representable price for the pair
func MinPrice(base AssetAID, quote AssetAID) Price {
	return Price{
		Base:  Asset{Amount: 1, AssetID: base},
		Quote: Asset{Amount: constants.MaxShareSupply, AssetID: quote},
	}
}

// Compare - order by asset pair then by ratio
//
// allows a Price to be used directly as an index key
func (p Price) Compare(x interface{}) int {
	q := x.(Price)
	switch {
	case p.Base.AssetID < q.Base.AssetID:
		return -1
	case p.Base.AssetID > q.Base.AssetID:
		return +1
	case p.Quote.AssetID < q.Quote.AssetID:
		return -1
	case p.Quote.AssetID > q.Quote.AssetID:
		return +1
	}
	a := uint128.From64(uint64(q.Quote.Amount)).Mul64(uint64(p.Base.Amount))
	b := uint128.From64(uint64(p.Quote.Amount)).Mul64(uint64(q.Base.Amount))
	return a.Cmp(b)
}

// Timestamp - seconds since the Unix epoch
type Timestamp uint32

const timestampFormat = "2006-01-02T15:04:05"

// TimestampOf - truncate a time to whole seconds
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

// Time - as a UTC time
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// Add - move by a number of seconds
func (t Timestamp) Add(seconds int64) Timestamp {
	return Timestamp(int64(t) + seconds)
}

// Sub - seconds between two timestamps
func (t Timestamp) Sub(u Timestamp) int64 {
	return int64(t) - int64(u)
}

// String - ISO form without zone
func (t Timestamp) String() string {
	return t.Time().Format(timestampFormat)
}

// MarshalText - ISO form
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText - ISO form
func (t *Timestamp) UnmarshalText(s []byte) error {
	tm, err := time.Parse(timestampFormat, string(s))
	if nil != err {
		return err
	}
	*t = TimestampOf(tm)
	return nil
}

// IDLength - bytes in block and transaction ids
const IDLength = 20

// BlockID - truncated header digest with the block number in the
// first four bytes
type BlockID [IDLength]byte

// BlockNum - number carried in the id
func (id BlockID) BlockNum() uint32 {
	return binary.BigEndian.Uint32(id[:4])
}

// Prefix - second word of the id used by transactions to refer to
// a recent block
func (id BlockID) Prefix() uint32 {
	return binary.LittleEndian.Uint32(id[4:8])
}

// IsZero - the id before genesis
func (id BlockID) IsZero() bool {
	return id == BlockID{}
}

// String - hex
func (id BlockID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText - hex
func (id BlockID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText - hex
func (id *BlockID) UnmarshalText(s []byte) error {
	return decodeID(id[:], s)
}

// TransactionID - truncated transaction digest
type TransactionID [IDLength]byte

// String - hex
func (id TransactionID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText - hex
func (id TransactionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText - hex
func (id *TransactionID) UnmarshalText(s []byte) error {
	return decodeID(id[:], s)
}

func decodeID(id []byte, s []byte) error {
	if hex.DecodedLen(len(s)) != len(id) {
		return fault.ErrInvalidLength
	}
	_, err := hex.Decode(id, s)
	return err
}

// Memo - encrypted message attached to an operation
type Memo struct {
	From    keypair.PublicKey `json:"from"`
	To      keypair.PublicKey `json:"to"`
	Nonce   uint64            `json:"nonce"`
	Message []byte            `json:"message"`
}

// EmptyExtension - reserved extension point with no fields yet
type EmptyExtension struct{}
