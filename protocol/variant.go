// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
)

// tagged union members for each interface type
type variantSet struct {
	byTag  map[uint64]reflect.Type
	byType map[reflect.Type]uint64
}

var variants = make(map[reflect.Type]*variantSet)

// registerVariant - bind a concrete pointer type to a tag of an
// interface, iface is a nil pointer to the interface
//
// only called from init so no locking is needed
func registerVariant(iface interface{}, tag uint64, sample interface{}) {
	it := reflect.TypeOf(iface).Elem()
	set, ok := variants[it]
	if !ok {
		set = &variantSet{
			byTag:  make(map[uint64]reflect.Type),
			byType: make(map[reflect.Type]uint64),
		}
		variants[it] = set
	}
	st := reflect.TypeOf(sample)
	if _, ok := set.byTag[tag]; ok {
		panic("duplicate variant tag for: " + it.String())
	}
	set.byTag[tag] = st.Elem()
	set.byType[st] = tag
}

func variantTag(iface reflect.Type, concrete reflect.Type) (uint64, error) {
	set, ok := variants[iface]
	if !ok {
		return 0, errors.Wrapf(fault.ErrInvalidParameter, "unregistered variant: %s", iface)
	}
	tag, ok := set.byType[concrete]
	if !ok {
		return 0, errors.Wrapf(fault.ErrUnknownOperation, "type: %s", concrete)
	}
	return tag, nil
}

func variantType(iface reflect.Type, tag uint64) (reflect.Type, error) {
	set, ok := variants[iface]
	if !ok {
		return nil, errors.Wrapf(fault.ErrInvalidParameter, "unregistered variant: %s", iface)
	}
	t, ok := set.byTag[tag]
	if !ok {
		return nil, errors.Wrapf(fault.ErrUnknownOperation, "tag: %d", tag)
	}
	return t, nil
}

// JSON form of a variant is the pair [tag, body]
func marshalVariantJSON(iface reflect.Type, v interface{}) ([]byte, error) {
	tag, err := variantTag(iface, reflect.TypeOf(v))
	if nil != err {
		return nil, err
	}
	body, err := json.Marshal(v)
	if nil != err {
		return nil, err
	}
	return json.Marshal([]interface{}{tag, json.RawMessage(body)})
}

func unmarshalVariantJSON(iface reflect.Type, data []byte) (interface{}, error) {
	pair := []json.RawMessage{}
	if err := json.Unmarshal(data, &pair); nil != err {
		return nil, err
	}
	if 2 != len(pair) {
		return nil, errors.Wrapf(fault.ErrInvalidParameter, "variant of %s is not a pair", iface)
	}
	tag := uint64(0)
	if err := json.Unmarshal(pair[0], &tag); nil != err {
		return nil, err
	}
	t, err := variantType(iface, tag)
	if nil != err {
		return nil, err
	}
	p := reflect.New(t)
	if err := json.Unmarshal(pair[1], p.Interface()); nil != err {
		return nil, err
	}
	return p.Interface(), nil
}
