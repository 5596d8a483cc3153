// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// AssetFlags - issuer permissions and enabled behaviours
type AssetFlags uint16

// asset flag bits
const (
	ChargeMarketFee    AssetFlags = 0x01
	WhiteList          AssetFlags = 0x02
	OverrideAuthority  AssetFlags = 0x04
	TransferRestricted AssetFlags = 0x08
	IssueAsset         AssetFlags = 0x200
	ChangeMaxSupply    AssetFlags = 0x400

	AssetPermissionMask = ChargeMarketFee | WhiteList | OverrideAuthority | TransferRestricted | IssueAsset | ChangeMaxSupply
)

// Has - all bits of f are set
func (a AssetFlags) Has(f AssetFlags) bool {
	return a&f == f
}

// AdditionalAssetOptions - optional asset settings
type AdditionalAssetOptions struct {
	RewardPercent *uint16 `json:"reward_percent,omitempty"`
}

// AssetOptions - settings an issuer controls
type AssetOptions struct {
	MaxSupply            int64                   `json:"max_supply"`
	MarketFeePercent     uint16                  `json:"market_fee_percent"`
	MaxMarketFee         int64                   `json:"max_market_fee"`
	IssuerPermissions    AssetFlags              `json:"issuer_permissions"`
	Flags                AssetFlags              `json:"flags"`
	WhitelistAuthorities []account.UID           `json:"whitelist_authorities"`
	BlacklistAuthorities []account.UID           `json:"blacklist_authorities"`
	WhitelistMarkets     []AssetAID              `json:"whitelist_markets"`
	BlacklistMarkets     []AssetAID              `json:"blacklist_markets"`
	Description          string                  `json:"description"`
	Extensions           *AdditionalAssetOptions `json:"extensions,omitempty" pack:"ext"`
}

// Validate - limits and known flags only
func (o *AssetOptions) Validate() error {
	if o.MaxSupply <= 0 || o.MaxSupply > constants.MaxShareSupply {
		return errors.Wrap(fault.ErrInvalidAmount, "max supply")
	}
	if o.MarketFeePercent > constants.HundredPercent {
		return errors.Wrap(fault.ErrInvalidPercentage, "market fee percent")
	}
	if o.MaxMarketFee < 0 || o.MaxMarketFee > constants.MaxShareSupply {
		return errors.Wrap(fault.ErrInvalidAmount, "max market fee")
	}
	if 0 != o.IssuerPermissions&^AssetPermissionMask {
		return errors.Wrap(fault.ErrInvalidParameter, "unknown issuer permission bits")
	}
	if 0 != o.Flags&^AssetPermissionMask {
		return errors.Wrap(fault.ErrInvalidParameter, "unknown flag bits")
	}
	if 0 != len(o.WhitelistAuthorities) || 0 != len(o.BlacklistAuthorities) {
		return errors.Wrap(fault.ErrInvalidParameter, "whitelist and blacklist authorities are not supported")
	}
	if 0 != len(o.WhitelistMarkets) || 0 != len(o.BlacklistMarkets) {
		return errors.Wrap(fault.ErrInvalidParameter, "whitelist and blacklist markets are not supported")
	}
	if nil != o.Extensions && nil != o.Extensions.RewardPercent {
		return validatePercentage(*o.Extensions.RewardPercent, "reward percent")
	}
	return nil
}

// size of the variable parts that carry a data fee
func (o *AssetOptions) dataSizeForFee() int {
	size := 0
	if 0 != len(o.WhitelistAuthorities) {
		size += PackedSize(o.WhitelistAuthorities)
	}
	if 0 != len(o.BlacklistAuthorities) {
		size += PackedSize(o.BlacklistAuthorities)
	}
	if 0 != len(o.WhitelistMarkets) {
		size += PackedSize(o.WhitelistMarkets)
	}
	if 0 != len(o.BlacklistMarkets) {
		size += PackedSize(o.BlacklistMarkets)
	}
	if "" != o.Description {
		size += PackedSize(o.Description)
	}
	return size
}

// ValidateAssetSymbol - upper case letters and digits with at most one
// inner dot, starting with a letter and not resembling the core symbol
func ValidateAssetSymbol(symbol string) error {
	if len(symbol) < constants.MinAssetSymbolLength || len(symbol) > constants.MaxAssetSymbolLength {
		return errors.Wrapf(fault.ErrInvalidAssetSymbol, "length of: %q", symbol)
	}
	if symbol[0] < 'A' || symbol[0] > 'Z' {
		return errors.Wrapf(fault.ErrInvalidAssetSymbol, "first character of: %q", symbol)
	}
	if '.' == symbol[len(symbol)-1] {
		return errors.Wrapf(fault.ErrInvalidAssetSymbol, "trailing dot in: %q", symbol)
	}
	prefix := symbol
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	if constants.CoreSymbol == strings.ReplaceAll(prefix, "0", "O") {
		return errors.Wrapf(fault.ErrInvalidAssetSymbol, "resembles the core asset: %q", symbol)
	}
	dot := false
	for i := 0; i < len(symbol); i += 1 {
		c := symbol[i]
		switch {
		case '.' == c:
			if dot {
				return errors.Wrapf(fault.ErrInvalidAssetSymbol, "more than one dot in: %q", symbol)
			}
			dot = true
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return errors.Wrapf(fault.ErrInvalidAssetSymbol, "character %q in: %q", c, symbol)
		}
	}
	return nil
}

// AssetCreateExtension - optional creation settings
type AssetCreateExtension struct {
	InitialSupply *int64 `json:"initial_supply,omitempty"`
}

// AssetCreate - register a user issued asset
type AssetCreate struct {
	FeeBundle     FeeBundle             `json:"fee"`
	Issuer        account.UID           `json:"issuer"`
	Symbol        string                `json:"symbol"`
	Precision     uint8                 `json:"precision"`
	CommonOptions AssetOptions          `json:"common_options"`
	Extensions    *AssetCreateExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AssetCreate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - issuer
func (op *AssetCreate) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *AssetCreate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Issuer, "issuer"); nil != err {
		return err
	}
	if err := ValidateAssetSymbol(op.Symbol); nil != err {
		return err
	}
	if err := op.CommonOptions.Validate(); nil != err {
		return err
	}
	if op.Precision > constants.MaxAssetPrecision {
		return errors.Wrapf(fault.ErrInvalidParameter, "precision: %d", op.Precision)
	}
	if nil != op.Extensions {
		supply := op.Extensions.InitialSupply
		if nil == supply {
			return errors.Wrap(fault.ErrInvalidParameter, "extensions specified but empty")
		}
		if *supply <= 0 || *supply > op.CommonOptions.MaxSupply {
			return errors.Wrap(fault.ErrInvalidAmount, "initial supply")
		}
	}
	return nil
}

// Required - issuer active
func (op *AssetCreate) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - short symbols cost more, plus the option data
func (op *AssetCreate) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	switch len(op.Symbol) {
	case 3:
		fee = p.Symbol3
	case 4:
		fee = p.Symbol4
	}
	return fee + CalculateDataFee(op.CommonOptions.dataSizeForFee(), p.PricePerKbyte), nil
}

// InitialSupply - amount issued to the issuer at creation
func (op *AssetCreate) InitialSupply() int64 {
	if nil == op.Extensions || nil == op.Extensions.InitialSupply {
		return 0
	}
	return *op.Extensions.InitialSupply
}

// AssetUpdate - change precision or options of an asset
type AssetUpdate struct {
	FeeBundle     FeeBundle       `json:"fee"`
	Issuer        account.UID     `json:"issuer"`
	AssetToUpdate AssetAID        `json:"asset_to_update"`
	NewPrecision  *uint8          `json:"new_precision,omitempty"`
	NewOptions    AssetOptions    `json:"new_options"`
	Extensions    *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AssetUpdate) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - issuer
func (op *AssetUpdate) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *AssetUpdate) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Issuer, "issuer"); nil != err {
		return err
	}
	if nil != op.NewPrecision && *op.NewPrecision > constants.MaxAssetPrecision {
		return errors.Wrapf(fault.ErrInvalidParameter, "new precision: %d", *op.NewPrecision)
	}
	return op.NewOptions.Validate()
}

// Required - issuer active
func (op *AssetUpdate) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - base plus the option data
func (op *AssetUpdate) CalculateFee(p FeeParameters) (uint64, error) {
	return p.Fee + CalculateDataFee(op.NewOptions.dataSizeForFee(), p.PricePerKbyte), nil
}

// AssetIssue - create new units of a user issued asset
type AssetIssue struct {
	FeeBundle      FeeBundle       `json:"fee"`
	Issuer         account.UID     `json:"issuer"`
	AssetToIssue   Asset           `json:"asset_to_issue"`
	IssueToAccount account.UID     `json:"issue_to_account"`
	Memo           *Memo           `json:"memo,omitempty"`
	Extensions     *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AssetIssue) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - issuer
func (op *AssetIssue) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *AssetIssue) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUIDs("asset issue", op.Issuer, op.IssueToAccount); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.AssetToIssue.Amount, "issue amount"); nil != err {
		return err
	}
	if op.AssetToIssue.Amount > constants.MaxShareSupply {
		return errors.Wrap(fault.ErrInvalidAmount, "cannot issue more than max supply")
	}
	if op.AssetToIssue.IsCore() {
		return errors.Wrap(fault.ErrInvalidOperation, "cannot issue the core asset")
	}
	return nil
}

// Required - issuer active
func (op *AssetIssue) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - base plus the memo
func (op *AssetIssue) CalculateFee(p FeeParameters) (uint64, error) {
	fee := p.Fee
	if nil != op.Memo {
		fee += CalculateDataFee(OptionalPackedSize(op.Memo), p.PricePerKbyte)
	}
	return fee, nil
}

// AssetReserve - take units out of circulation
type AssetReserve struct {
	FeeBundle       FeeBundle       `json:"fee"`
	Payer           account.UID     `json:"payer"`
	AmountToReserve Asset           `json:"amount_to_reserve"`
	Extensions      *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AssetReserve) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - holder
func (op *AssetReserve) FeePayer() account.UID { return op.Payer }

// Validate - stateless checks
func (op *AssetReserve) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Payer, "payer"); nil != err {
		return err
	}
	if err := validatePositiveAmount(op.AmountToReserve.Amount, "reserve amount"); nil != err {
		return err
	}
	if op.AmountToReserve.Amount > constants.MaxShareSupply {
		return errors.Wrap(fault.ErrInvalidAmount, "cannot reserve more than max supply")
	}
	return nil
}

// Required - holder active
func (op *AssetReserve) Required(r *authority.Required) {
	r.Add(op.Payer, authority.Active)
}

// CalculateFee - flat
func (op *AssetReserve) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }

// AssetClaimFees - move accumulated market fees to the issuer
type AssetClaimFees struct {
	FeeBundle     FeeBundle       `json:"fee"`
	Issuer        account.UID     `json:"issuer"`
	AmountToClaim Asset           `json:"amount_to_claim"`
	Extensions    *EmptyExtension `json:"extensions,omitempty" pack:"ext"`
}

// Fee - fee bundle
func (op *AssetClaimFees) Fee() *FeeBundle { return &op.FeeBundle }

// FeePayer - issuer
func (op *AssetClaimFees) FeePayer() account.UID { return op.Issuer }

// Validate - stateless checks
func (op *AssetClaimFees) Validate() error {
	if err := op.FeeBundle.Validate(); nil != err {
		return err
	}
	if err := validateUID(op.Issuer, "issuer"); nil != err {
		return err
	}
	return validatePositiveAmount(op.AmountToClaim.Amount, "claim amount")
}

// Required - issuer active
func (op *AssetClaimFees) Required(r *authority.Required) {
	r.Add(op.Issuer, authority.Active)
}

// CalculateFee - flat
func (op *AssetClaimFees) CalculateFee(p FeeParameters) (uint64, error) { return p.Fee, nil }
