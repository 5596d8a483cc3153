// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"bytes"
	"fmt"
	"reflect"

	"lukechampine.com/uint128"

	"github.com/yoyow-org/yoyowd/avl"
)

// Tuple - composite index key compared field by field
//
// fields are normalised to int64, uint64, string, bool,
// uint128.Uint128 or left as any avl.Item; a tuple that is a proper
// prefix of another sorts before it
type Tuple []interface{}

type bound int

// sentinels for prefix probes
var (
	Min = bound(-1)
	Max = bound(+1)
)

type descending struct {
	v interface{}
}

// Key - build a normalised tuple
func Key(fields ...interface{}) Tuple {
	t := make(Tuple, len(fields))
	for i, f := range fields {
		t[i] = normalise(f)
	}
	return t
}

// Desc - a field that sorts in reverse order
func Desc(v interface{}) interface{} {
	return descending{v: normalise(v)}
}

// Append - extend a tuple by more fields
func (t Tuple) Append(fields ...interface{}) Tuple {
	n := make(Tuple, len(t), len(t)+len(fields))
	copy(n, t)
	for _, f := range fields {
		n = append(n, normalise(f))
	}
	return n
}

// Compare - avl.Item ordering
func (t Tuple) Compare(x interface{}) int {
	u := x.(Tuple)
	for i := 0; i < len(t) && i < len(u); i += 1 {
		if c := compareField(t[i], u[i]); 0 != c {
			return c
		}
	}
	switch {
	case len(t) < len(u):
		return -1
	case len(t) > len(u):
		return +1
	default:
		return 0
	}
}

func normalise(f interface{}) interface{} {
	switch v := f.(type) {
	case int64, uint64, string, bool, uint128.Uint128, bound, descending:
		return v
	case []byte:
		return string(v)
	case avl.Item:
		return v
	}
	r := reflect.ValueOf(f)
	switch r.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return r.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return r.Uint()
	case reflect.String:
		return r.String()
	case reflect.Bool:
		return r.Bool()
	case reflect.Array:
		if reflect.Uint8 == r.Type().Elem().Kind() {
			b := make([]byte, r.Len())
			reflect.Copy(reflect.ValueOf(b), r)
			return string(b)
		}
	}
	panic(fmt.Sprintf("objectdb: unsupported key field type: %T", f))
}

func compareField(a interface{}, b interface{}) int {
	if ba, ok := a.(bound); ok {
		if bb, ok := b.(bound); ok {
			return int(ba) - int(bb)
		}
		return int(ba)
	}
	if bb, ok := b.(bound); ok {
		return -int(bb)
	}

	switch x := a.(type) {
	case descending:
		return -compareField(x.v, b.(descending).v)
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return +1
		}
		return 0
	case uint64:
		y := b.(uint64)
		switch {
		case x < y:
			return -1
		case x > y:
			return +1
		}
		return 0
	case string:
		return bytes.Compare([]byte(x), []byte(b.(string)))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return +1
	case uint128.Uint128:
		return x.Cmp(b.(uint128.Uint128))
	case avl.Item:
		return x.Compare(b)
	}
	panic(fmt.Sprintf("objectdb: cannot compare: %T with %T", a, b))
}
