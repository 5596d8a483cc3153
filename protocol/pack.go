// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/util"
)

// Packed - a binary encoded record
type Packed []byte

// VarUint - unsigned integer packed as a LEB128 Varint64
type VarUint uint64

var varUintType = reflect.TypeOf(VarUint(0))

// Pack - encode any protocol value
//
// encoding rules:
//   bool, integers     fixed size little endian
//   VarUint            Varint64
//   string, []byte     Varint64(length) followed by the bytes
//   [N]T               N elements, no length
//   []T                Varint64(count) followed by elements
//   *T                 one byte presence flag, then T if present
//   struct             fields in declaration order
//   interface          Varint64(tag) followed by the concrete value
//
// a struct field tagged `pack:"ext"` is an extension: only its non-nil
// pointer fields are written as Varint64(count) then for each present
// field Varint64(index) and value
//
// a top level pointer is the record itself, not an optional, so
// Pack(&x) and Pack(x) give the same bytes that Unpack(&x) reads back
func Pack(v interface{}) (Packed, error) {
	return appendValue(make([]byte, 0, 64), reflect.Indirect(reflect.ValueOf(v)), 0)
}

// PackedSize - length of the encoding, zero if it cannot be encoded
func PackedSize(v interface{}) int {
	p, err := Pack(v)
	if nil != err {
		return 0
	}
	return len(p)
}

// OptionalPackedSize - length of an optional field as it is encoded
// inside a record, the presence flag included
func OptionalPackedSize(v interface{}) int {
	p, err := appendValue(nil, reflect.ValueOf(v), 0)
	if nil != err {
		return 0
	}
	return len(p)
}

// MustPack - encode values that are known to be valid
func MustPack(v interface{}) Packed {
	p, err := Pack(v)
	if nil != err {
		panic(err)
	}
	return p
}

func appendValue(buffer []byte, v reflect.Value, depth int) ([]byte, error) {
	if depth > constants.MaxNestedObjects {
		return nil, fault.ErrInvalidLength
	}
	if !v.IsValid() {
		return nil, errors.Wrap(fault.ErrInvalidParameter, "nil value")
	}

	if v.Type() == varUintType {
		return util.AppendVarint64(buffer, v.Uint()), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(buffer, 1), nil
		}
		return append(buffer, 0), nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return appendFixed(buffer, v.Uint(), v.Type().Size()), nil

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendFixed(buffer, uint64(v.Int()), v.Type().Size()), nil

	case reflect.String:
		s := v.String()
		buffer = util.AppendVarint64(buffer, uint64(len(s)))
		return append(buffer, s...), nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			buffer = util.AppendVarint64(buffer, uint64(v.Len()))
			return append(buffer, v.Bytes()...), nil
		}
		buffer = util.AppendVarint64(buffer, uint64(v.Len()))
		return appendElements(buffer, v, depth)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			for i := 0; i < v.Len(); i += 1 {
				buffer = append(buffer, byte(v.Index(i).Uint()))
			}
			return buffer, nil
		}
		return appendElements(buffer, v, depth)

	case reflect.Ptr:
		if v.IsNil() {
			return append(buffer, 0), nil
		}
		return appendValue(append(buffer, 1), v.Elem(), depth+1)

	case reflect.Struct:
		return appendStruct(buffer, v, depth)

	case reflect.Interface:
		if v.IsNil() {
			return nil, errors.Wrapf(fault.ErrInvalidParameter, "nil %s", v.Type())
		}
		tag, err := variantTag(v.Type(), v.Elem().Type())
		if nil != err {
			return nil, err
		}
		buffer = util.AppendVarint64(buffer, tag)
		e := v.Elem()
		if e.Kind() == reflect.Ptr {
			e = e.Elem()
		}
		return appendValue(buffer, e, depth+1)
	}
	return nil, errors.Wrapf(fault.ErrInvalidParameter, "cannot pack: %s", v.Type())
}

func appendFixed(buffer []byte, value uint64, size uintptr) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return append(buffer, b[:size]...)
}

func appendElements(buffer []byte, v reflect.Value, depth int) ([]byte, error) {
	var err error
	for i := 0; i < v.Len(); i += 1 {
		buffer, err = appendValue(buffer, v.Index(i), depth+1)
		if nil != err {
			return nil, err
		}
	}
	return buffer, nil
}

func appendStruct(buffer []byte, v reflect.Value, depth int) ([]byte, error) {
	var err error
	t := v.Type()
	for i := 0; i < t.NumField(); i += 1 {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch fieldMode(f) {
		case "-":
			continue
		case "ext":
			buffer, err = appendExtensionField(buffer, v.Field(i), depth+1)
		default:
			buffer, err = appendValue(buffer, v.Field(i), depth+1)
		}
		if nil != err {
			return nil, errors.Wrapf(err, "%s.%s", t.Name(), f.Name)
		}
	}
	return buffer, nil
}

func fieldMode(f reflect.StructField) string {
	tag := f.Tag.Get("pack")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// an extension field is either a struct or an optional struct
func appendExtensionField(buffer []byte, v reflect.Value, depth int) ([]byte, error) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return append(buffer, 0), nil
		}
		buffer = append(buffer, 1)
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.Wrapf(fault.ErrInvalidParameter, "extension is not a struct: %s", v.Type())
	}

	count := uint64(0)
	for i := 0; i < v.NumField(); i += 1 {
		if !v.Field(i).IsNil() {
			count += 1
		}
	}
	buffer = util.AppendVarint64(buffer, count)

	var err error
	for i := 0; i < v.NumField(); i += 1 {
		field := v.Field(i)
		if field.IsNil() {
			continue
		}
		buffer = util.AppendVarint64(buffer, uint64(i))
		buffer, err = appendValue(buffer, field.Elem(), depth+1)
		if nil != err {
			return nil, err
		}
	}
	return buffer, nil
}
