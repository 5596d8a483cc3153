// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"unicode/utf8"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
)

// errors specific to name checking
var (
	ErrNameNotUTF8             = fault.InvalidError("account name should be in UTF-8")
	ErrNameStartsWithNumber    = fault.InvalidError("account name should not start with a number")
	ErrNameStartsWithUnderline = fault.InvalidError("account name should not start with an underline")
	ErrNameEndsWithUnderline   = fault.InvalidError("account name should not end with an underline")
	ErrNameInvalidCharacter    = fault.InvalidError("account name contains invalid character")
	ErrNameTooShort            = fault.InvalidError("account name is too short")
	ErrNameTooLong             = fault.InvalidError("account name is too long")
)

// ValidateName - check an account name
//
// names are UTF-8 of 2..63 code points taken from lower case latin
// letters, digits, underline, common Chinese ideographs and the full
// width parentheses; they may not start with a digit and may not start
// or end with an underline
func ValidateName(name string) error {
	if !utf8.ValidString(name) {
		return ErrNameNotUTF8
	}

	length := 0
	last := rune(0)
	for _, r := range name {
		length += 1
		if length > constants.MaxAccountNameLength {
			return ErrNameTooLong
		}
		if 1 == length {
			if '_' == r {
				return ErrNameStartsWithUnderline
			}
			if r >= '0' && r <= '9' {
				return ErrNameStartsWithNumber
			}
		}
		if !validNameRune(r) {
			return ErrNameInvalidCharacter
		}
		last = r
	}

	if length > 0 && '_' == last {
		return ErrNameEndsWithUnderline
	}
	if length < constants.MinAccountNameLength {
		return ErrNameTooShort
	}
	return nil
}

// IsValidName - boolean form of ValidateName
func IsValidName(name string) bool {
	return nil == ValidateName(name)
}

func validNameRune(r rune) bool {
	switch {
	case '_' == r:
	case r >= '0' && r <= '9':
	case r >= 'a' && r <= 'z':
	case r >= 0x4e00 && r <= 0x9fa5:
	case 0xff08 == r || 0xff09 == r:
	default:
		return false
	}
	return true
}
