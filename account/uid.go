// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"github.com/yoyow-org/yoyowd/fault"
)

// UID - account identifier: 56 bit instance followed by an 8 bit checksum
type UID uint64

// the largest instance that fits in a uid
const maxInstance = ^uint64(0) >> 8

// special accounts created at genesis, in creation order
var (
	ProxyToSelf      = CalculateUID(0)
	CommitteeAccount = CalculateUID(1)
	WitnessAccount   = CalculateUID(2)
	RelaxedCommittee = CalculateUID(3)
	NullAccount      = CalculateUID(4)
	TempAccount      = CalculateUID(5)
)

// CalculateUID - derive the uid for an instance number
//
// the checksum is the first byte of sha256 over the little endian
// instance
func CalculateUID(instance uint64) UID {
	instance &= maxInstance
	return UID(instance<<8 | uint64(checksum(instance)))
}

// IsValidUID - true if the low byte matches the checksum of the instance
func IsValidUID(uid UID) bool {
	return checksum(uint64(uid)>>8) == byte(uid)
}

// ValidateUID - as IsValidUID but returns an error
func ValidateUID(uid UID) error {
	if !IsValidUID(uid) {
		return fault.ErrInvalidAccountUID
	}
	return nil
}

// Instance - the instance part of a uid
func (uid UID) Instance() uint64 {
	return uint64(uid) >> 8
}

// String - decimal form
func (uid UID) String() string {
	return strconv.FormatUint(uint64(uid), 10)
}

func checksum(instance uint64) byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], instance)
	digest := sha256.Sum256(b[:])
	return digest[0]
}

// IsSpecial - true for the accounts created at genesis that cannot be updated
func IsSpecial(uid UID) bool {
	switch uid {
	case ProxyToSelf, CommitteeAccount, WitnessAccount, RelaxedCommittee, NullAccount, TempAccount:
		return true
	default:
		return false
	}
}
