// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package history

import (
	"reflect"
	"sort"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/protocol"
)

var uidType = reflect.TypeOf(account.UID(0))

// ImpactedAccounts - every account an operation names, fee payer first
func ImpactedAccounts(op protocol.Operation) []account.UID {
	if nil == op {
		return nil
	}

	seen := map[account.UID]struct{}{}
	collectUIDs(reflect.ValueOf(op), seen)

	payer := op.FeePayer()
	delete(seen, payer)

	others := make([]account.UID, 0, len(seen))
	for uid := range seen {
		others = append(others, uid)
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })

	if 0 == payer {
		return others
	}
	return append([]account.UID{payer}, others...)
}

func collectUIDs(v reflect.Value, seen map[account.UID]struct{}) {
	if v.Type() == uidType {
		if uid := account.UID(v.Uint()); 0 != uid {
			seen[uid] = struct{}{}
		}
		return
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			collectUIDs(v.Elem(), seen)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i += 1 {
			if v.Type().Field(i).IsExported() {
				collectUIDs(v.Field(i), seen)
			}
		}
	case reflect.Slice, reflect.Array:
		if reflect.Uint8 == v.Type().Elem().Kind() {
			return
		}
		for i := 0; i < v.Len(); i += 1 {
			collectUIDs(v.Index(i), seen)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			collectUIDs(iter.Key(), seen)
			collectUIDs(iter.Value(), seen)
		}
	}
}
