// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// kinds of post
const (
	PostTypePost             = uint8(0)
	PostTypeComment          = uint8(1)
	PostTypeForward          = uint8(2)
	PostTypeForwardAndModify = uint8(3)
)

// what other accounts may do with a post
const (
	PostPermissionForward = uint32(1)
	PostPermissionLiked   = uint32(2)
	PostPermissionBuyout  = uint32(4)
	PostPermissionComment = uint32(8)
	PostPermissionReward  = uint32(16)
	PostPermissionAll     = uint32(31)
)

// score range
const (
	MinScore = int8(-5)
	MaxScore = int8(5)
)

// Receiptor - an account sharing a post's income
type Receiptor struct {
	UID              account.UID `json:"uid"`
	CurRatio         uint16      `json:"cur_ratio"`
	ToBuyout         bool        `json:"to_buyout"`
	BuyoutRatio      uint16      `json:"buyout_ratio"`
	BuyoutPrice      int64       `json:"buyout_price"`
	BuyoutExpiration Timestamp   `json:"buyout_expiration"`
}

// PostExtension - optional post settings
type PostExtension struct {
	PostType        *uint8       `json:"post_type,omitempty"`
	ForwardPrice    *int64       `json:"forward_price,omitempty"`
	Receiptors      *[]Receiptor `json:"receiptors,omitempty"`
	LicenseLID      *uint64      `json:"license_lid,omitempty"`
	PermissionFlags *uint32      `json:"permission_flags,omitempty"`
	SignPlatform    *account.UID `json:"sign_platform,omitempty"`
}

// Post - publish content on a platform
type Post struct {
	FeeBundle      FeeBundle      `json:"fee"`
	PostPID        uint64         `json:"post_pid"`
	Platform       account.UID    `json:"platform"`
	Poster         account.UID    `json:"poster"`
	OriginPoster   *account.UID   `json:"origin_poster,omitempty"`
	OriginPostPID  *uint64        `json:"origin_post_pid,omitempty"`
	OriginPlatform *account.UID   `json:"origin_platform,omitempty"`
	HashValue      string         `json:"hash_value"`
	ExtraData      string         `json:"extra_data"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Extensions     *PostExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *Post) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - poster
func (op *Post) FeePayer() account.UID { return op.Poster }

// Type - post kind, plain post by default
func (op *Post) Type() uint8 {
	if nil == op.Extensions || nil == op.Extensions.PostType {
		return PostTypePost
	}
	return *op.Extensions.PostType
}

// PermissionFlags - what others may do with the post
func (op *Post) PermissionFlags() uint32 {
	if nil == op.Extensions || nil == op.Extensions.PermissionFlags {
		return PostPermissionAll
	}
	return *op.Extensions.PermissionFlags
}

// ReceiptorList - explicit receiptors or the default split between
// platform and poster
func (op *Post) ReceiptorList() []Receiptor {
	if nil != op.Extensions && nil != op.Extensions.Receiptors {
		return *op.Extensions.Receiptors
	}
	return []Receiptor{
		{UID: op.Platform, CurRatio: constants.DefaultPlatformReceiptsRatio},
		{UID: op.Poster, CurRatio: constants.HundredPercent - constants.DefaultPlatformReceiptsRatio},
	}
}

// SigningPlatform - platform that co-signs the post
func (op *Post) SigningPlatform() account.UID {
	if nil != op.Extensions && nil != op.Extensions.SignPlatform {
		return *op.Extensions.SignPlatform
	}
	return op.Platform
}

// Validate - stateless checks
func (op *Post) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("post", op.Poster, op.Platform); nil != err {
		return err
	}
	hasPoster, hasPID, hasPlatform := nil != op.OriginPoster, nil != op.OriginPostPID, nil != op.OriginPlatform
	if hasPoster != hasPID || hasPoster != hasPlatform {
		return errors.Wrap(fault.ErrInvalidParameter, "origin poster, post pid and platform should be all present or all absent")
	}
	if hasPoster {
		if err := validateUIDs("origin", *op.OriginPoster, *op.OriginPlatform); nil != err {
			return err
		}
	}
	for _, s := range []string{op.HashValue, op.ExtraData, op.Title, op.Body} {
		if err := validateString(s, 0, "post"); nil != err {
			return err
		}
	}

	e := op.Extensions
	if nil == e {
		return nil
	}
	if nil != e.PostType {
		if *e.PostType > PostTypeForwardAndModify {
			return errors.Wrapf(fault.ErrInvalidParameter, "post type: %d", *e.PostType)
		}
		if PostTypePost != *e.PostType && !hasPoster {
			return errors.Wrap(fault.ErrInvalidParameter, "comment or forward needs an origin post")
		}
	}
	if nil != e.ForwardPrice {
		if err := validatePositiveAmount(*e.ForwardPrice, "forward price"); nil != err {
			return err
		}
	}
	if nil != e.SignPlatform {
		if err := validateUID(*e.SignPlatform, "sign platform"); nil != err {
			return err
		}
	}
	if nil != e.Receiptors {
		return validateReceiptors(*e.Receiptors, op.Platform, op.Poster)
	}
	return nil
}

// platform takes a fixed share, the poster at least the minimum and
// the total is exactly one hundred percent
func validateReceiptors(receiptors []Receiptor, platform account.UID, poster account.UID) error {
	if len(receiptors) < 2 || len(receiptors) > constants.MaxPostReceiptors {
		return errors.Wrapf(fault.ErrInvalidCount, "receiptors: %d", len(receiptors))
	}
	total := 0
	seen := make(map[account.UID]struct{}, len(receiptors))
	foundPlatform, foundPoster := false, false
	for _, r := range receiptors {
		if err := validateUID(r.UID, "receiptor"); nil != err {
			return err
		}
		if _, ok := seen[r.UID]; ok {
			return errors.Wrapf(fault.ErrInvalidParameter, "duplicate receiptor: %s", r.UID)
		}
		seen[r.UID] = struct{}{}
		switch r.UID {
		case platform:
			if constants.DefaultPlatformReceiptsRatio != r.CurRatio {
				return errors.Wrap(fault.ErrInvalidPercentage, "platform receipt ratio")
			}
			foundPlatform = true
		case poster:
			if r.CurRatio < constants.MinPostReceiptorRatio {
				return errors.Wrap(fault.ErrInvalidPercentage, "poster receipt ratio")
			}
			foundPoster = true
		}
		if r.BuyoutRatio > r.CurRatio {
			return errors.Wrap(fault.ErrInvalidPercentage, "buyout ratio exceeds current ratio")
		}
		if err := validateNonNegativeAmount(r.BuyoutPrice, "buyout price"); nil != err {
			return err
		}
		total += int(r.CurRatio)
	}
	if !foundPlatform || !foundPoster {
		return errors.Wrap(fault.ErrInvalidParameter, "receiptors should include platform and poster")
	}
	if constants.HundredPercent != total {
		return errors.Wrap(fault.ErrInvalidPercentage, "receiptor ratios should total 100%")
	}
	return nil
}

// Required - poster and platform secondary
func (op *Post) Required(r *authority.Required) {
	r.Add(op.Poster, authority.Secondary)
	r.Add(op.SigningPlatform(), authority.Secondary)
}

// CalculateFee - base plus content size
func (op *Post) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	fee += CalculateDataFee(PackedSize(op.ExtraData), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.Title), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.Body), p.PricePerKbyte)
	return fee, nil
}

// PostUpdateExtension - optional post changes
//
// the buyout fields apply to the named receiptor
type PostUpdateExtension struct {
	ForwardPrice          *int64       `json:"forward_price,omitempty"`
	Receiptor             *account.UID `json:"receiptor,omitempty"`
	ToBuyout              *bool        `json:"to_buyout,omitempty"`
	BuyoutRatio           *uint16      `json:"buyout_ratio,omitempty"`
	BuyoutPrice           *int64       `json:"buyout_price,omitempty"`
	BuyoutExpiration      *Timestamp   `json:"buyout_expiration,omitempty"`
	LicenseLID            *uint64      `json:"license_lid,omitempty"`
	PermissionFlags       *uint32      `json:"permission_flags,omitempty"`
	ContentSignPlatform   *account.UID `json:"content_sign_platform,omitempty"`
	ReceiptorSignPlatform *account.UID `json:"receiptor_sign_platform,omitempty"`
}

// PostUpdate - change a post's content or a receiptor's buyout offer
type PostUpdate struct {
	FeeBundle  FeeBundle            `json:"fee"`
	Platform   account.UID          `json:"platform"`
	Poster     account.UID          `json:"poster"`
	PostPID    uint64               `json:"post_pid"`
	HashValue  *string              `json:"hash_value,omitempty"`
	ExtraData  *string              `json:"extra_data,omitempty"`
	Title      *string              `json:"title,omitempty"`
	Body       *string              `json:"body,omitempty"`
	Extensions *PostUpdateExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *PostUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the receiptor when only a buyout offer changes,
// otherwise the poster
func (op *PostUpdate) FeePayer() account.UID {
	if !op.ChangesContent() && nil != op.Extensions && nil != op.Extensions.Receiptor {
		return *op.Extensions.Receiptor
	}
	return op.Poster
}

// ChangesContent - true if any poster owned field changes
func (op *PostUpdate) ChangesContent() bool {
	if nil != op.HashValue || nil != op.ExtraData || nil != op.Title || nil != op.Body {
		return true
	}
	e := op.Extensions
	return nil != e && (nil != e.ForwardPrice || nil != e.LicenseLID || nil != e.PermissionFlags)
}

// ChangesReceiptor - true if a buyout offer changes
func (op *PostUpdate) ChangesReceiptor() bool {
	e := op.Extensions
	return nil != e && nil != e.Receiptor
}

// Validate - stateless checks
func (op *PostUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("post update", op.Poster, op.Platform); nil != err {
		return err
	}
	if !op.ChangesContent() && !op.ChangesReceiptor() {
		return fault.ErrNoChange
	}
	e := op.Extensions
	if nil == e {
		return nil
	}
	if nil != e.ForwardPrice {
		if err := validatePositiveAmount(*e.ForwardPrice, "forward price"); nil != err {
			return err
		}
	}
	if nil != e.Receiptor {
		if err := validateUID(*e.Receiptor, "receiptor"); nil != err {
			return err
		}
		if nil == e.ToBuyout && nil == e.BuyoutRatio && nil == e.BuyoutPrice && nil == e.BuyoutExpiration {
			return errors.Wrap(fault.ErrNoChange, "receiptor buyout")
		}
		if nil != e.BuyoutRatio {
			if err := validatePercentage(*e.BuyoutRatio, "buyout ratio"); nil != err {
				return err
			}
		}
		if nil != e.BuyoutPrice {
			if err := validateNonNegativeAmount(*e.BuyoutPrice, "buyout price"); nil != err {
				return err
			}
		}
	} else if nil != e.ToBuyout || nil != e.BuyoutRatio || nil != e.BuyoutPrice || nil != e.BuyoutExpiration {
		return errors.Wrap(fault.ErrInvalidParameter, "buyout fields need a receiptor")
	}
	for _, uid := range []*account.UID{e.ContentSignPlatform, e.ReceiptorSignPlatform} {
		if nil != uid {
			if err := validateUID(*uid, "sign platform"); nil != err {
				return err
			}
		}
	}
	return nil
}

// Required - poster for content, receiptor for its offer, each with a
// platform co-signature
func (op *PostUpdate) Required(r *authority.Required) {
	e := op.Extensions
	if op.ChangesContent() {
		r.Add(op.Poster, authority.Secondary)
		if nil != e && nil != e.ContentSignPlatform {
			r.Add(*e.ContentSignPlatform, authority.Secondary)
		} else {
			r.Add(op.Platform, authority.Secondary)
		}
	}
	if op.ChangesReceiptor() {
		r.Add(*e.Receiptor, authority.Secondary)
		if nil != e.ReceiptorSignPlatform {
			r.Add(*e.ReceiptorSignPlatform, authority.Secondary)
		} else {
			r.Add(op.Platform, authority.Secondary)
		}
	}
}

// CalculateFee - base plus changed content size
func (op *PostUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	for _, s := range []*string{op.ExtraData, op.Title, op.Body} {
		if nil != s {
			fee += CalculateDataFee(OptionalPackedSize(s), p.PricePerKbyte)
		}
	}
	return fee, nil
}

// SignPlatformExtension - platform co-signing on behalf of a user
type SignPlatformExtension struct {
	SignPlatform *account.UID `json:"sign_platform,omitempty"`
}

func signingPlatform(e *SignPlatformExtension, platform account.UID) account.UID {
	if nil != e && nil != e.SignPlatform {
		return *e.SignPlatform
	}
	return platform
}

func validateSignPlatform(e *SignPlatformExtension) error {
	if nil != e && nil != e.SignPlatform {
		return validateUID(*e.SignPlatform, "sign platform")
	}
	return nil
}

// ScoreCreate - rate a post by spending csaf
type ScoreCreate struct {
	FeeBundle      FeeBundle              `json:"fee"`
	FromAccountUID account.UID            `json:"from_account_uid"`
	Platform       account.UID            `json:"platform"`
	Poster         account.UID            `json:"poster"`
	PostPID        uint64                 `json:"post_pid"`
	Score          int8                   `json:"score"`
	CSAF           int64                  `json:"csaf"`
	Extensions     *SignPlatformExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *ScoreCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - rater
func (op *ScoreCreate) FeePayer() account.UID { return op.FromAccountUID }

// SigningPlatform - platform that co-signs
func (op *ScoreCreate) SigningPlatform() account.UID {
	return signingPlatform(op.Extensions, op.Platform)
}

// Validate - stateless checks
func (op *ScoreCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("score", op.FromAccountUID, op.Platform, op.Poster); nil != err {
		return err
	}
	if op.Score < MinScore || op.Score > MaxScore {
		return errors.Wrapf(fault.ErrInvalidParameter, "score: %d", op.Score)
	}
	if err := validatePositiveAmount(op.CSAF, "score csaf"); nil != err {
		return err
	}
	return validateSignPlatform(op.Extensions)
}

// Required - rater and platform secondary
func (op *ScoreCreate) Required(r *authority.Required) {
	r.Add(op.FromAccountUID, authority.Secondary)
	r.Add(op.SigningPlatform(), authority.Secondary)
}

// CalculateFee - flat
func (op *ScoreCreate) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// Reward - pay a post from the balance
type Reward struct {
	FeeBundle      FeeBundle       `json:"fee"`
	FromAccountUID account.UID     `json:"from_account_uid"`
	Platform       account.UID     `json:"platform"`
	Poster         account.UID     `json:"poster"`
	PostPID        uint64          `json:"post_pid"`
	Amount         Asset           `json:"amount"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *Reward) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - rewarder
func (op *Reward) FeePayer() account.UID { return op.FromAccountUID }

// Validate - stateless checks
func (op *Reward) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("reward", op.FromAccountUID, op.Platform, op.Poster); nil != err {
		return err
	}
	return validatePositiveAmount(op.Amount.Amount, "reward amount")
}

// Required - rewarder active
func (op *Reward) Required(r *authority.Required) {
	r.Add(op.FromAccountUID, authority.Active)
}

// CalculateFee - flat
func (op *Reward) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// RewardProxy - pay a post from prepaid through an authorised platform
type RewardProxy struct {
	FeeBundle      FeeBundle              `json:"fee"`
	FromAccountUID account.UID            `json:"from_account_uid"`
	Platform       account.UID            `json:"platform"`
	Poster         account.UID            `json:"poster"`
	PostPID        uint64                 `json:"post_pid"`
	Amount         int64                  `json:"amount"`
	Extensions     *SignPlatformExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *RewardProxy) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - rewarder
func (op *RewardProxy) FeePayer() account.UID { return op.FromAccountUID }

// SigningPlatform - platform that co-signs
func (op *RewardProxy) SigningPlatform() account.UID {
	return signingPlatform(op.Extensions, op.Platform)
}

// Validate - stateless checks
func (op *RewardProxy) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("reward proxy", op.FromAccountUID, op.Platform, op.Poster); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.Amount, "reward amount"); nil != err {
		return err
	}
	return validateSignPlatform(op.Extensions)
}

// Required - rewarder and platform secondary
func (op *RewardProxy) Required(r *authority.Required) {
	r.Add(op.FromAccountUID, authority.Secondary)
	r.Add(op.SigningPlatform(), authority.Secondary)
}

// CalculateFee - flat
func (op *RewardProxy) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// Buyout - purchase a receiptor's offered share of a post's income
type Buyout struct {
	FeeBundle           FeeBundle              `json:"fee"`
	FromAccountUID      account.UID            `json:"from_account_uid"`
	Platform            account.UID            `json:"platform"`
	Poster              account.UID            `json:"poster"`
	PostPID             uint64                 `json:"post_pid"`
	ReceiptorAccountUID account.UID            `json:"receiptor_account_uid"`
	Extensions          *SignPlatformExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *Buyout) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - buyer
func (op *Buyout) FeePayer() account.UID { return op.FromAccountUID }

// SigningPlatform - platform that co-signs
func (op *Buyout) SigningPlatform() account.UID {
	return signingPlatform(op.Extensions, op.Platform)
}

// Validate - stateless checks
func (op *Buyout) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("buyout", op.FromAccountUID, op.Platform, op.Poster, op.ReceiptorAccountUID); nil != err {
		return err
	}
	if op.FromAccountUID == op.ReceiptorAccountUID {
		return errors.Wrap(fault.ErrInvalidOperation, "cannot buy out own receipt")
	}
	return validateSignPlatform(op.Extensions)
}

// Required - buyer and platform secondary
func (op *Buyout) Required(r *authority.Required) {
	r.Add(op.FromAccountUID, authority.Secondary)
	r.Add(op.SigningPlatform(), authority.Secondary)
}

// CalculateFee - flat
func (op *Buyout) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// LicenseCreate - a platform publishes a content license
type LicenseCreate struct {
	FeeBundle  FeeBundle       `json:"fee"`
	LicenseLID uint64          `json:"license_lid"`
	Platform   account.UID     `json:"platform"`
	Type       uint8           `json:"type"`
	HashValue  string          `json:"hash_value"`
	ExtraData  string          `json:"extra_data"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *LicenseCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - platform
func (op *LicenseCreate) FeePayer() account.UID { return op.Platform }

// Validate - stateless checks
func (op *LicenseCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Platform, "license platform"); nil != err {
		return err
	}
	if 0 == op.LicenseLID {
		return errors.Wrap(fault.ErrInvalidParameter, "license lid should be positive")
	}
	for _, s := range []string{op.HashValue, op.ExtraData, op.Title, op.Body} {
		if err := validateString(s, 0, "license"); nil != err {
			return err
		}
	}
	return nil
}

// Required - platform secondary
func (op *LicenseCreate) Required(r *authority.Required) {
	r.Add(op.Platform, authority.Secondary)
}

// CalculateFee - base plus content size
func (op *LicenseCreate) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	fee += CalculateDataFee(PackedSize(op.ExtraData), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.Title), p.PricePerKbyte)
	fee += CalculateDataFee(PackedSize(op.Body), p.PricePerKbyte)
	return fee, nil
}
