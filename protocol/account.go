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
	"github.com/yoyow-org/yoyowd/keypair"
)

// permissions an account can grant to a platform
const (
	PlatformPermissionForward       = uint32(1)
	PlatformPermissionLiked         = uint32(2)
	PlatformPermissionBuyout        = uint32(4)
	PlatformPermissionComment       = uint32(8)
	PlatformPermissionReward        = uint32(16)
	PlatformPermissionTransfer      = uint32(32)
	PlatformPermissionPost          = uint32(64)
	PlatformPermissionContentUpdate = uint32(128)

	PlatformPermissionAll = uint32(255)
)

// account listing bits
const (
	NoListing     = uint8(0)
	WhiteListed   = uint8(1)
	BlackListed   = uint8(2)
	WhiteAndBlack = WhiteListed | BlackListed
)

func validateNotSpecial(uid account.UID) error {
	if account.IsSpecial(uid) {
		return errors.Wrapf(fault.ErrPermissionDenied, "cannot update special account: %s", uid)
	}
	return nil
}

// RegInfo - registration and content sharing settings of an account
type RegInfo struct {
	Registrar           account.UID     `json:"registrar"`
	Referrer            account.UID     `json:"referrer"`
	RegistrarPercent    uint16          `json:"registrar_percent"`
	ReferrerPercent     uint16          `json:"referrer_percent"`
	AllowancePerArticle Asset           `json:"allowance_per_article"`
	MaxSharePerArticle  Asset           `json:"max_share_per_article"`
	MaxShareTotal       Asset           `json:"max_share_total"`
	BuyoutPercent       uint16          `json:"buyout_percent"`
	Extensions          *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Validate - uids, percentages and core asset amounts
func (r *RegInfo) Validate() error {
	if err := validateUIDs("registration", r.Registrar, r.Referrer); nil != err {
		return err
	}
	if err := validatePercentage(r.RegistrarPercent, "registrar_percent"); nil != err {
		return err
	}
	if err := validatePercentage(r.ReferrerPercent, "referrer_percent"); nil != err {
		return err
	}
	if err := validatePercentage(r.RegistrarPercent+r.ReferrerPercent, "registrar_percent + referrer_percent"); nil != err {
		return err
	}
	if err := validatePercentage(r.BuyoutPercent, "buyout_percent"); nil != err {
		return err
	}
	for _, a := range []Asset{r.AllowancePerArticle, r.MaxSharePerArticle, r.MaxShareTotal} {
		if err := validateCore(a, "registration"); nil != err {
			return err
		}
	}
	return nil
}

// AccountCreate - register a new account
type AccountCreate struct {
	FeeBundle  FeeBundle           `json:"fee"`
	UID        account.UID         `json:"uid"`
	Name       string              `json:"name"`
	Owner      authority.Authority `json:"owner"`
	Active     authority.Authority `json:"active"`
	Secondary  authority.Authority `json:"secondary"`
	MemoKey    keypair.PublicKey   `json:"memo_key"`
	RegInfo    RegInfo             `json:"reg_info"`
	Extensions *EmptyExtension     `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - registrar
func (op *AccountCreate) FeePayer() account.UID { return op.RegInfo.Registrar }

// Validate - stateless checks
func (op *AccountCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.UID, "new account"); nil != err {
		return err
	}
	if err := account.ValidateName(op.Name); nil != err {
		return err
	}
	if err := validateNewAuthority(&op.Owner, "owner"); nil != err {
		return err
	}
	if err := validateNewAuthority(&op.Active, "active"); nil != err {
		return err
	}
	if err := validateNewAuthority(&op.Secondary, "secondary"); nil != err {
		return err
	}
	return op.RegInfo.Validate()
}

// Required - registrar active
func (op *AccountCreate) Required(r *authority.Required) {
	r.Add(op.RegInfo.Registrar, authority.Active)
}

// CalculateFee - basic fee plus a price per authority entry
func (op *AccountCreate) CalculateFee(p FeeParameters) (uint64, error) {
	auths := op.Owner.NumAuths() + op.Active.NumAuths() + op.Secondary.NumAuths()
	return p.Fee + p.PricePerUnit*uint64(auths), nil
}

// AccountManageOptions - privileges an admin may change
type AccountManageOptions struct {
	CanPost  *bool `json:"can_post,omitempty"`
	CanReply *bool `json:"can_reply,omitempty"`
	CanRate  *bool `json:"can_rate,omitempty"`
}

// AccountManage - admin changes another account's content privileges
type AccountManage struct {
	FeeBundle  FeeBundle            `json:"fee"`
	Executor   account.UID          `json:"executor"`
	Account    account.UID          `json:"account"`
	Options    AccountManageOptions `json:"options" pack:"ext"`
	Extensions *EmptyExtension      `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountManage) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - executor
func (op *AccountManage) FeePayer() account.UID { return op.Executor }

// Validate - stateless checks
func (op *AccountManage) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account manage", op.Executor, op.Account); nil != err {
		return err
	}
	o := op.Options
	if nil == o.CanPost && nil == o.CanReply && nil == o.CanRate {
		return fault.ErrNoChange
	}
	return nil
}

// Required - executor active
func (op *AccountManage) Required(r *authority.Required) {
	r.Add(op.Executor, authority.Active)
}

// CalculateFee - flat
func (op *AccountManage) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AccountUpdateKey - replace a key in active and/or secondary using
// the old key as proof
type AccountUpdateKey struct {
	FeeBundle        FeeBundle         `json:"fee"`
	FeePayingAccount account.UID       `json:"fee_paying_account"`
	UID              account.UID       `json:"uid"`
	OldKey           keypair.PublicKey `json:"old_key"`
	NewKey           keypair.PublicKey `json:"new_key"`
	UpdateActive     bool              `json:"update_active"`
	UpdateSecondary  bool              `json:"update_secondary"`
	Extensions       *EmptyExtension   `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountUpdateKey) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - fee paying account
func (op *AccountUpdateKey) FeePayer() account.UID { return op.FeePayingAccount }

// Validate - stateless checks
func (op *AccountUpdateKey) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account update key", op.FeePayingAccount, op.UID); nil != err {
		return err
	}
	if op.OldKey == op.NewKey || (!op.UpdateActive && !op.UpdateSecondary) {
		return fault.ErrNoChange
	}
	return nil
}

// Required - a signature by the old key
func (op *AccountUpdateKey) Required(r *authority.Required) {
	r.AddOther(authority.NewKeyAuthority(op.OldKey))
}

// CalculateFee - flat
func (op *AccountUpdateKey) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AccountUpdateAuth - replace authorities or memo key
type AccountUpdateAuth struct {
	FeeBundle  FeeBundle            `json:"fee"`
	UID        account.UID          `json:"uid"`
	Owner      *authority.Authority `json:"owner,omitempty"`
	Active     *authority.Authority `json:"active,omitempty"`
	Secondary  *authority.Authority `json:"secondary,omitempty"`
	MemoKey    *keypair.PublicKey   `json:"memo_key,omitempty"`
	Extensions *EmptyExtension      `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountUpdateAuth) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *AccountUpdateAuth) FeePayer() account.UID { return op.UID }

// Validate - stateless checks
func (op *AccountUpdateAuth) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.UID, "account update auth"); nil != err {
		return err
	}
	if err := validateNotSpecial(op.UID); nil != err {
		return err
	}
	if nil == op.Owner && nil == op.Active && nil == op.Secondary && nil == op.MemoKey {
		return fault.ErrNoChange
	}
	for _, a := range []*authority.Authority{op.Owner, op.Active, op.Secondary} {
		if nil == a {
			continue
		}
		if err := validateNewAuthority(a, "new authority"); nil != err {
			return err
		}
	}
	return nil
}

// Required - owner when owner or active change, otherwise active
func (op *AccountUpdateAuth) Required(r *authority.Required) {
	if nil != op.Owner || nil != op.Active {
		r.Add(op.UID, authority.Owner)
	} else {
		r.Add(op.UID, authority.Active)
	}
}

// CalculateFee - base plus a price per authority entry
func (op *AccountUpdateAuth) CalculateFee(p FeeParameters) (uint64, error) {
	auths := 0
	for _, a := range []*authority.Authority{op.Owner, op.Active, op.Secondary} {
		if nil != a {
			auths += a.NumAuths()
		}
	}
	return p.Fee + p.PricePerUnit*uint64(auths), nil
}

// AccountAuthPlatformExtension - limits of a platform grant
type AccountAuthPlatformExtension struct {
	LimitForPlatform *int64  `json:"limit_for_platform,omitempty"`
	PermissionFlags  *uint32 `json:"permission_flags,omitempty"`
	Memo             *string `json:"memo,omitempty"`
}

// AccountAuthPlatform - let a platform act with the account's
// secondary authority
type AccountAuthPlatform struct {
	FeeBundle  FeeBundle                     `json:"fee"`
	UID        account.UID                   `json:"uid"`
	Platform   account.UID                   `json:"platform"`
	Extensions *AccountAuthPlatformExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountAuthPlatform) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *AccountAuthPlatform) FeePayer() account.UID { return op.UID }

// Validate - stateless checks
func (op *AccountAuthPlatform) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account auth platform", op.UID, op.Platform); nil != err {
		return err
	}
	if err := validateNotSpecial(op.UID); nil != err {
		return err
	}
	if e := op.Extensions; nil != e {
		if nil != e.LimitForPlatform {
			if err := validateNonNegativeAmount(*e.LimitForPlatform, "limit_for_platform"); nil != err {
				return err
			}
		}
		if nil != e.PermissionFlags && 0 != *e.PermissionFlags&^PlatformPermissionAll {
			return errors.Wrap(fault.ErrInvalidParameter, "unknown platform permission")
		}
	}
	return nil
}

// Required - account active
func (op *AccountAuthPlatform) Required(r *authority.Required) {
	r.Add(op.UID, authority.Active)
}

// CalculateFee - flat
func (op *AccountAuthPlatform) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AccountCancelAuthPlatform - revoke a platform grant
type AccountCancelAuthPlatform struct {
	FeeBundle  FeeBundle       `json:"fee"`
	UID        account.UID     `json:"uid"`
	Platform   account.UID     `json:"platform"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountCancelAuthPlatform) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *AccountCancelAuthPlatform) FeePayer() account.UID { return op.UID }

// Validate - stateless checks
func (op *AccountCancelAuthPlatform) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account cancel auth platform", op.UID, op.Platform); nil != err {
		return err
	}
	return validateNotSpecial(op.UID)
}

// Required - account active
func (op *AccountCancelAuthPlatform) Required(r *authority.Required) {
	r.Add(op.UID, authority.Active)
}

// CalculateFee - flat
func (op *AccountCancelAuthPlatform) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee, nil
}

// AccountUpdateProxy - delegate governance votes
type AccountUpdateProxy struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Voter      account.UID     `json:"voter"`
	Proxy      account.UID     `json:"proxy"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountUpdateProxy) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - voter
func (op *AccountUpdateProxy) FeePayer() account.UID { return op.Voter }

// Validate - stateless checks
func (op *AccountUpdateProxy) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account update proxy", op.Voter, op.Proxy); nil != err {
		return err
	}
	if op.Voter == op.Proxy {
		return errors.Wrap(fault.ErrInvalidProxy, "voter and proxy should not be the same")
	}
	return nil
}

// Required - voter active
func (op *AccountUpdateProxy) Required(r *authority.Required) {
	r.Add(op.Voter, authority.Active)
}

// CalculateFee - flat
func (op *AccountUpdateProxy) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AccountEnableAllowedAssets - switch the allowed asset list on or off
type AccountEnableAllowedAssets struct {
	FeeBundle  FeeBundle       `json:"fee"`
	Account    account.UID     `json:"account"`
	Enable     bool            `json:"enable"`
	Extensions *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountEnableAllowedAssets) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *AccountEnableAllowedAssets) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *AccountEnableAllowedAssets) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	return validateUID(op.Account, "account enable allowed assets")
}

// Required - account active
func (op *AccountEnableAllowedAssets) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - flat
func (op *AccountEnableAllowedAssets) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee, nil
}

// AccountUpdateAllowedAssets - edit the allowed asset list
type AccountUpdateAllowedAssets struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Account        account.UID     `json:"account"`
	AssetsToAdd    []AssetAID      `json:"assets_to_add"`
	AssetsToRemove []AssetAID      `json:"assets_to_remove"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountUpdateAllowedAssets) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - the account
func (op *AccountUpdateAllowedAssets) FeePayer() account.UID { return op.Account }

// Validate - stateless checks
func (op *AccountUpdateAllowedAssets) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Account, "account update allowed assets"); nil != err {
		return err
	}
	if 0 == len(op.AssetsToAdd) && 0 == len(op.AssetsToRemove) {
		return fault.ErrNoChange
	}
	added := make(map[AssetAID]struct{})
	for _, a := range op.AssetsToAdd {
		if _, ok := added[a]; ok {
			return errors.Wrap(fault.ErrInvalidParameter, "duplicate asset to add")
		}
		added[a] = struct{}{}
	}
	removed := make(map[AssetAID]struct{})
	for _, a := range op.AssetsToRemove {
		if _, ok := added[a]; ok {
			return errors.Wrap(fault.ErrInvalidParameter, "asset both added and removed")
		}
		if _, ok := removed[a]; ok {
			return errors.Wrap(fault.ErrInvalidParameter, "duplicate asset to remove")
		}
		removed[a] = struct{}{}
	}
	return nil
}

// Required - account active
func (op *AccountUpdateAllowedAssets) Required(r *authority.Required) {
	r.Add(op.Account, authority.Active)
}

// CalculateFee - base plus a price per added asset
func (op *AccountUpdateAllowedAssets) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + p.PricePerUnit*uint64(len(op.AssetsToAdd)), nil
}

// AccountWhitelist - one account's opinion of another
type AccountWhitelist struct {
	FeeBundle          FeeBundle       `json:"fee"`
	AuthorizingAccount account.UID     `json:"authorizing_account"`
	AccountToList      account.UID     `json:"account_to_list"`
	NewListing         uint8           `json:"new_listing"`
	Extensions         *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AccountWhitelist) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - authorizing account
func (op *AccountWhitelist) FeePayer() account.UID { return op.AuthorizingAccount }

// Validate - stateless checks
func (op *AccountWhitelist) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("account whitelist", op.AuthorizingAccount, op.AccountToList); nil != err {
		return err
	}
	if op.NewListing > WhiteAndBlack {
		return errors.Wrap(fault.ErrInvalidParameter, "new_listing")
	}
	return nil
}

// Required - authorizing account active
func (op *AccountWhitelist) Required(r *authority.Required) {
	r.Add(op.AuthorizingAccount, authority.Active)
}

// CalculateFee - flat
func (op *AccountWhitelist) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// Limit - prepaid a platform may spend, unset means the maximum
func (e *AccountAuthPlatformExtension) Limit() int64 {
	if nil == e || nil == e.LimitForPlatform {
		return constants.MaxPlatformLimitPrepaid
	}
	return *e.LimitForPlatform
}
