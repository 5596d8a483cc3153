// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/yoyow-org/yoyowd/constants"
)

const (
	precision   = uint64(constants.CorePrecision)
	hugeFee     = 10 * 10000 * 10000 * precision
	tenthOfCore = precision / 10
)

// fees of operations not listed here are one core unit
var defaultFees = map[Tag]FeeParameters{
	TransferTag:                   {Fee: 20 * precision, PricePerKbyte: 10 * precision},
	AccountCreateTag:              {Fee: 5 * precision, PricePerUnit: precision},
	AccountUpdateAuthTag:          {Fee: precision, PricePerUnit: precision},
	CommitteeMemberCreateTag:      {Fee: 100 * precision},
	CommitteeMemberUpdateTag:      {Fee: 10 * precision},
	CommitteeProposalCreateTag:    {Fee: precision, PricePerUnit: precision},
	WitnessCreateTag:              {Fee: 1000 * precision},
	WitnessUpdateTag:              {Fee: 10 * precision},
	WitnessVoteUpdateTag:          {Fee: precision, PricePerUnit: precision},
	PostTag:                       {Fee: precision, PricePerKbyte: 10 * precision},
	PostUpdateTag:                 {Fee: precision, PricePerKbyte: 10 * precision},
	PlatformCreateTag:             {Fee: 1000 * precision, PricePerKbyte: 10 * precision},
	PlatformUpdateTag:             {Fee: 10 * precision, PricePerKbyte: 10 * precision},
	PlatformVoteUpdateTag:         {Fee: precision, PricePerUnit: precision},
	AssetCreateTag:                {Fee: hugeFee, Symbol3: hugeFee, Symbol4: hugeFee, PricePerKbyte: precision},
	AssetUpdateTag:                {Fee: 500 * precision, PricePerKbyte: precision},
	AssetIssueTag:                 {Fee: 20 * precision, PricePerKbyte: precision},
	AssetReserveTag:               {Fee: hugeFee},
	AssetClaimFeesTag:             {Fee: 20 * precision},
	OverrideTransferTag:           {Fee: 20 * precision, PricePerKbyte: 10 * precision},
	ProposalCreateTag:             {Fee: 20 * precision, PricePerKbyte: 10 * precision},
	ProposalUpdateTag:             {Fee: 20 * precision, PricePerKbyte: 10 * precision},
	AccountEnableAllowedAssetsTag: {Fee: precision},
	AccountUpdateAllowedAssetsTag: {Fee: precision, PricePerUnit: precision},
	AccountWhitelistTag:           {Fee: 3 * precision},
	ScoreCreateTag:                {Fee: precision, PricePerKbyte: 10 * precision},
	RewardTag:                     {Fee: precision, PricePerKbyte: 10 * precision},
	RewardProxyTag:                {Fee: precision, PricePerKbyte: 10 * precision},
	BuyoutTag:                     {Fee: precision, PricePerKbyte: 10 * precision},
	LicenseCreateTag:              {Fee: precision, PricePerKbyte: 10 * precision},
	AdvertisingCreateTag:          {Fee: 50 * precision, PricePerKbyte: 10 * precision},
	AdvertisingUpdateTag:          {Fee: 10 * precision, PricePerKbyte: 10 * precision},
	AdvertisingBuyTag:             {Fee: 10 * precision, PricePerKbyte: 10 * precision},
	AdvertisingConfirmTag:         {Fee: precision, PricePerKbyte: 10 * precision},
	AdvertisingRansomTag:          {Fee: precision, PricePerKbyte: 10 * precision},
	CustomVoteCreateTag:           {Fee: precision, PricePerKbyte: precision},
	CustomVoteCastTag:             {Fee: tenthOfCore},
	BalanceLockUpdateTag:          {Fee: tenthOfCore},
	LimitOrderCreateTag:           {Fee: tenthOfCore},
	LimitOrderCancelTag:           {Fee: 0},
	FillOrderTag:                  {Fee: 0},
	ContractDeployTag:             {Fee: precision, PricePerKbyte: 10 * precision},
	ContractUpdateTag:             {Fee: precision, PricePerKbyte: 10 * precision},
	ContractCallTag:               {Fee: tenthOfCore, PricePerKbyteRAM: precision / 2, PricePerMsCPU: precision},
	InterContractCallTag:          {Fee: 0},
}

// DefaultFeeParameters - parameters of an operation on a new chain
func DefaultFeeParameters(tag Tag) FeeParameters {
	if p, ok := defaultFees[tag]; ok {
		return p
	}
	if tag >= TagCount {
		return FeeParameters{}
	}
	return FeeParameters{Fee: precision}
}
