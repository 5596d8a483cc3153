// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

func validateUID(uid account.UID, name string) error {
	if !account.IsValidUID(uid) {
		return errors.Wrapf(fault.ErrInvalidAccountUID, "%s: %d", name, uid)
	}
	return nil
}

func validateUIDs(name string, uids ...account.UID) error {
	for _, uid := range uids {
		if err := validateUID(uid, name); nil != err {
			return err
		}
	}
	return nil
}

func validateCore(a Asset, name string) error {
	if !a.IsCore() {
		return errors.Wrapf(fault.ErrAssetNotCore, "%s", name)
	}
	return nil
}

func validatePositiveAmount(amount int64, name string) error {
	if amount <= 0 {
		return errors.Wrapf(fault.ErrInvalidAmount, "%s should be positive", name)
	}
	return nil
}

func validateNonNegativeAmount(amount int64, name string) error {
	if amount < 0 {
		return errors.Wrapf(fault.ErrInvalidAmount, "%s should not be negative", name)
	}
	return nil
}

func validatePositiveCore(a Asset, name string) error {
	if err := validateCore(a, name); nil != err {
		return err
	}
	return validatePositiveAmount(a.Amount, name)
}

func validateNonNegativeCore(a Asset, name string) error {
	if err := validateCore(a, name); nil != err {
		return err
	}
	return validateNonNegativeAmount(a.Amount, name)
}

func validatePercentage(percent uint16, name string) error {
	if percent > constants.HundredPercent {
		return errors.Wrapf(fault.ErrInvalidPercentage, "%s: %d", name, percent)
	}
	return nil
}

func validateString(s string, maxLength int, name string) error {
	if !utf8.ValidString(s) {
		return errors.Wrapf(fault.ErrInvalidParameter, "%s is not valid utf-8", name)
	}
	if maxLength > 0 && utf8.RuneCountInString(s) > maxLength {
		return errors.Wrapf(fault.ErrInvalidLength, "%s too long", name)
	}
	return nil
}

func validateURL(url string) error {
	if len(url) >= constants.MaxURLLength {
		return fault.ErrInvalidURL
	}
	return nil
}

// authority of a new account or an authority update
func validateNewAuthority(a *authority.Authority, name string) error {
	if err := a.Validate(); nil != err {
		return errors.Wrapf(err, "%s", name)
	}
	for _, aw := range a.AccountUIDAuths {
		if err := validateUID(aw.Auth.UID, name); nil != err {
			return err
		}
	}
	return nil
}

// set semantics for add/remove vote lists
func validateVoteChange(add []account.UID, remove []account.UID, name string) error {
	seen := make(map[account.UID]struct{}, len(add))
	for _, uid := range add {
		if err := validateUID(uid, name); nil != err {
			return err
		}
		if _, ok := seen[uid]; ok {
			return errors.Wrapf(fault.ErrInvalidVoteChange, "%s: duplicate %s", name, uid)
		}
		seen[uid] = struct{}{}
	}
	removed := make(map[account.UID]struct{}, len(remove))
	for _, uid := range remove {
		if err := validateUID(uid, name); nil != err {
			return err
		}
		if _, ok := seen[uid]; ok {
			return errors.Wrapf(fault.ErrInvalidVoteChange, "%s: %s both added and removed", name, uid)
		}
		if _, ok := removed[uid]; ok {
			return errors.Wrapf(fault.ErrInvalidVoteChange, "%s: duplicate %s", name, uid)
		}
		removed[uid] = struct{}{}
	}
	return nil
}
