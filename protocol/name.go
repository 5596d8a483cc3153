// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
)

// Name - up to 13 characters from ".12345a-z" packed into 64 bits,
// used for contract actions and tables
type Name uint64

const nameCharacters = ".12345abcdefghijklmnopqrstuvwxyz"

const maxNameLength = 13

func nameSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case '.' == c:
		return 0, true
	}
	return 0, false
}

// ParseName - text to packed form
//
// the thirteenth character may only use the first 16 symbols
func ParseName(s string) (Name, error) {
	if len(s) > maxNameLength {
		return 0, errors.Wrapf(fault.ErrInvalidName, "too long: %q", s)
	}
	value := uint64(0)
	for i := 0; i < len(s); i += 1 {
		c, ok := nameSymbol(s[i])
		if !ok {
			return 0, errors.Wrapf(fault.ErrInvalidName, "character %q in: %q", s[i], s)
		}
		if i < 12 {
			value |= (c & 0x1f) << uint(64-5*(i+1))
		} else {
			if c > 0x0f {
				return 0, errors.Wrapf(fault.ErrInvalidName, "last character of: %q", s)
			}
			value |= c
		}
	}
	n := Name(value)
	if n.String() != strings.TrimRight(s, ".") {
		return 0, errors.Wrapf(fault.ErrInvalidName, "not canonical: %q", s)
	}
	return n, nil
}

// MustName - for constants
func MustName(s string) Name {
	n, err := ParseName(s)
	if nil != err {
		panic(err)
	}
	return n
}

// String - text with trailing dots removed
func (n Name) String() string {
	var b [maxNameLength]byte
	tmp := uint64(n)
	b[12] = nameCharacters[tmp&0x0f]
	tmp >>= 4
	for i := 11; i >= 0; i -= 1 {
		b[i] = nameCharacters[tmp&0x1f]
		tmp >>= 5
	}
	return strings.TrimRight(string(b[:]), ".")
}

// MarshalText - as text
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText - from text
func (n *Name) UnmarshalText(s []byte) error {
	v, err := ParseName(string(s))
	if nil != err {
		return err
	}
	*n = v
	return nil
}
