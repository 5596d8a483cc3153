// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/util"
)

// FeeOptions - how the total fee is split across the three pools
type FeeOptions struct {
	FromBalance *Asset `json:"from_balance,omitempty"`
	FromPrepaid *Asset `json:"from_prepaid,omitempty"`
	FromCSAF    *Asset `json:"from_csaf,omitempty"`
}

// FeeBundle - fee carried by every operation
type FeeBundle struct {
	Total   Asset       `json:"total"`
	Options *FeeOptions `json:"options,omitempty" pack:"ext"`
}

// NewFee - core asset fee paid from balance
func NewFee(amount int64) FeeBundle {
	return FeeBundle{Total: CoreAsset(amount)}
}

// Validate - non-negative core asset slots that add up to the total
func (f *FeeBundle) Validate() error {
	if err := validateNonNegativeCore(f.Total, "fee total"); nil != err {
		return err
	}
	if nil == f.Options {
		return nil
	}
	sum := int64(0)
	for _, slot := range []*Asset{f.Options.FromBalance, f.Options.FromPrepaid, f.Options.FromCSAF} {
		if nil == slot {
			continue
		}
		if err := validateNonNegativeCore(*slot, "fee option"); nil != err {
			return err
		}
		sum += slot.Amount
	}
	if sum != f.Total.Amount {
		return fault.ErrFeeOptions
	}
	return nil
}

// Split - the three amounts, when no options are given everything
// comes from the balance
func (f *FeeBundle) Split() (fromBalance int64, fromPrepaid int64, fromCSAF int64) {
	if nil == f.Options {
		return f.Total.Amount, 0, 0
	}
	if nil != f.Options.FromBalance {
		fromBalance = f.Options.FromBalance.Amount
	}
	if nil != f.Options.FromPrepaid {
		fromPrepaid = f.Options.FromPrepaid.Amount
	}
	if nil != f.Options.FromCSAF {
		fromCSAF = f.Options.FromCSAF.Amount
	}
	return
}

// FeeParameters - fee settings of one operation kind
//
// PricePerUnit is the per authority, per item, per witness or per
// platform surcharge depending on the operation
type FeeParameters struct {
	Fee              uint64 `json:"fee"`
	PricePerKbyte    uint64 `json:"price_per_kbyte"`
	PricePerUnit     uint64 `json:"price_per_unit"`
	Symbol3          uint64 `json:"symbol3"`
	Symbol4          uint64 `json:"symbol4"`
	PricePerKbyteRAM uint64 `json:"price_per_kbyte_ram"`
	PricePerMsCPU    uint64 `json:"price_per_ms_cpu"`
	MinRealFee       uint64 `json:"min_real_fee"`
	MinRFPercent     uint16 `json:"min_rf_percent"`
}

// CalculateDataFee - bytes·price/1024 rounded down
func CalculateDataFee(bytes int, pricePerKbyte uint64) uint64 {
	r, ok := util.MulDiv(uint64(bytes), pricePerKbyte, 1024)
	if !ok || r > uint64(constants.MaxShareSupply) {
		return uint64(constants.MaxShareSupply)
	}
	return r
}

// FeeEntry - one operation's parameters in a schedule
type FeeEntry struct {
	Tag        VarUint       `json:"tag"`
	Parameters FeeParameters `json:"parameters"`
}

// FeeSchedule - fee parameters for all operations
//
// a schedule is never modified after construction, updates produce
// a new schedule so that it can be shared between parameter copies
type FeeSchedule struct {
	parameters map[Tag]FeeParameters
	scale      uint32
}

// NewFeeSchedule - defaults overridden by the given entries
func NewFeeSchedule(entries []FeeEntry, scale uint32) *FeeSchedule {
	s := &FeeSchedule{
		parameters: make(map[Tag]FeeParameters, len(entries)),
		scale:      scale,
	}
	for _, e := range entries {
		s.parameters[Tag(e.Tag)] = e.Parameters
	}
	return s
}

// DefaultFeeSchedule - every operation at its default parameters
func DefaultFeeSchedule() *FeeSchedule {
	s := &FeeSchedule{
		parameters: make(map[Tag]FeeParameters),
		scale:      constants.HundredPercent,
	}
	for tag := Tag(0); tag < TagCount; tag += 1 {
		s.parameters[tag] = DefaultFeeParameters(tag)
	}
	return s
}

// Scale - percentage applied to all fees
func (s *FeeSchedule) Scale() uint32 {
	return s.scale
}

// Parameters - settings for one operation kind
func (s *FeeSchedule) Parameters(tag Tag) FeeParameters {
	if p, ok := s.parameters[tag]; ok {
		return p
	}
	return DefaultFeeParameters(tag)
}

// Entries - sorted by tag
func (s *FeeSchedule) Entries() []FeeEntry {
	entries := make([]FeeEntry, 0, len(s.parameters))
	for tag, p := range s.parameters {
		entries = append(entries, FeeEntry{Tag: VarUint(tag), Parameters: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })
	return entries
}

// Update - copy with some parameters replaced
func (s *FeeSchedule) Update(entries []FeeEntry, scale *uint32) *FeeSchedule {
	n := &FeeSchedule{
		parameters: make(map[Tag]FeeParameters, len(s.parameters)),
		scale:      s.scale,
	}
	for tag, p := range s.parameters {
		n.parameters[tag] = p
	}
	for _, e := range entries {
		n.parameters[Tag(e.Tag)] = e.Parameters
	}
	if nil != scale {
		n.scale = *scale
	}
	return n
}

// Zero - copy where every fee is zero
func (s *FeeSchedule) Zero() *FeeSchedule {
	n := &FeeSchedule{
		parameters: make(map[Tag]FeeParameters, TagCount),
	}
	for tag := Tag(0); tag < TagCount; tag += 1 {
		n.parameters[tag] = FeeParameters{}
	}
	return n
}

// Validate - every tag must be known
func (s *FeeSchedule) Validate() error {
	for tag := range s.parameters {
		if tag >= TagCount {
			return errors.Wrapf(fault.ErrUnknownOperation, "fee schedule tag: %d", tag)
		}
	}
	return nil
}

// CalculateFee - scaled fee required by an operation
func (s *FeeSchedule) CalculateFee(op Operation) (int64, error) {
	tag, err := TagOf(op)
	if nil != err {
		return 0, err
	}
	base, err := op.CalculateFee(s.Parameters(tag))
	if nil != err {
		return 0, err
	}
	q, _ := uint128.From64(base).Mul64(uint64(s.scale)).QuoRem64(constants.HundredPercent)
	if 0 != q.Hi || q.Lo > uint64(constants.MaxShareSupply) {
		return 0, errors.Wrapf(fault.ErrInvalidAmount, "fee of %s", OperationName(op))
	}
	return int64(q.Lo), nil
}

// CalculateFeePair - required fee and the part of it that must be
// real (balance or prepaid) rather than csaf
func (s *FeeSchedule) CalculateFeePair(op Operation) (int64, int64, error) {
	fee, err := s.CalculateFee(op)
	if nil != err {
		return 0, 0, err
	}
	tag, _ := TagOf(op)
	p := s.Parameters(tag)
	minReal, _ := util.MulDivCeil(uint64(fee), uint64(p.MinRFPercent), constants.HundredPercent)
	if p.MinRealFee > minReal {
		minReal = p.MinRealFee
	}
	if minReal > uint64(constants.MaxShareSupply) {
		minReal = uint64(constants.MaxShareSupply)
	}
	return fee, int64(minReal), nil
}

// SetFeeWithCSAF - fill in the fee bundle so that as much as allowed
// is paid from csaf and the rest from balance
func (s *FeeSchedule) SetFeeWithCSAF(op Operation) error {
	fee, minReal, err := s.CalculateFeePair(op)
	if nil != err {
		return err
	}
	bundle := op.Fee()
	if nil == bundle {
		return fault.ErrInvalidOperation
	}
	*bundle = NewFee(fee)
	csaf := fee - minReal
	if csaf > 0 {
		fromCSAF := CoreAsset(csaf)
		bundle.Options = &FeeOptions{FromCSAF: &fromCSAF}
		if csaf < fee {
			fromBalance := CoreAsset(fee - csaf)
			bundle.Options.FromBalance = &fromBalance
		}
	}
	return nil
}

type feeScheduleJSON struct {
	Parameters []FeeEntry `json:"parameters"`
	Scale      uint32     `json:"scale"`
}

// MarshalJSON - parameters as a sorted list
func (s *FeeSchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(feeScheduleJSON{Parameters: s.Entries(), Scale: s.scale})
}

// UnmarshalJSON - missing operations take their defaults
func (s *FeeSchedule) UnmarshalJSON(data []byte) error {
	var f feeScheduleJSON
	if err := json.Unmarshal(data, &f); nil != err {
		return err
	}
	*s = *DefaultFeeSchedule().Update(f.Parameters, &f.Scale)
	return nil
}
