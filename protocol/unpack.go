// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"reflect"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/util"
)

// Unpack - decode a record into v which must be a pointer
//
// returns the number of bytes consumed
func (record Packed) Unpack(v interface{}) (n int, err error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, errors.Wrap(fault.ErrInvalidParameter, "unpack target must be a non-nil pointer")
	}
	d := &decoder{buffer: record}
	if err := d.value(rv.Elem(), 0); nil != err {
		return 0, err
	}
	return d.offset, nil
}

// UnpackAll - decode a record that must be consumed exactly
func (record Packed) UnpackAll(v interface{}) error {
	n, err := record.Unpack(v)
	if nil != err {
		return err
	}
	if n != len(record) {
		return fault.ErrUnexpectedData
	}
	return nil
}

type decoder struct {
	buffer []byte
	offset int
}

func (d *decoder) remaining() int {
	return len(d.buffer) - d.offset
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, fault.ErrTruncatedData
	}
	b := d.buffer[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *decoder) varint() (uint64, error) {
	value, n := util.FromVarint64(d.buffer[d.offset:])
	if 0 == n {
		return 0, fault.ErrTruncatedData
	}
	d.offset += n
	return value, nil
}

// a count can never exceed the bytes left since every element
// occupies at least one byte
func (d *decoder) count() (int, error) {
	n, err := d.varint()
	if nil != err {
		return 0, err
	}
	if n > uint64(d.remaining()) {
		return 0, fault.ErrInvalidCount
	}
	return int(n), nil
}

func (d *decoder) fixed(size int) (uint64, error) {
	b, err := d.take(size)
	if nil != err {
		return 0, err
	}
	var full [8]byte
	copy(full[:], b)
	return binary.LittleEndian.Uint64(full[:]), nil
}

func (d *decoder) value(v reflect.Value, depth int) error {
	if depth > constants.MaxNestedObjects {
		return fault.ErrInvalidLength
	}

	if v.Type() == varUintType {
		n, err := d.varint()
		if nil != err {
			return err
		}
		v.SetUint(n)
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := d.take(1)
		if nil != err {
			return err
		}
		if b[0] > 1 {
			return errors.Wrap(fault.ErrInvalidParameter, "bool")
		}
		v.SetBool(1 == b[0])

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := d.fixed(int(v.Type().Size()))
		if nil != err {
			return err
		}
		v.SetUint(n)

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := int(v.Type().Size())
		n, err := d.fixed(size)
		if nil != err {
			return err
		}
		shift := uint(64 - 8*size)
		v.SetInt(int64(n<<shift) >> shift)

	case reflect.String:
		n, err := d.count()
		if nil != err {
			return err
		}
		b, err := d.take(n)
		if nil != err {
			return err
		}
		v.SetString(string(b))

	case reflect.Slice:
		n, err := d.count()
		if nil != err {
			return err
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.take(n)
			if nil != err {
				return err
			}
			v.SetBytes(append([]byte{}, b...))
			return nil
		}
		s := reflect.MakeSlice(v.Type(), n, n)
		for i := 0; i < n; i += 1 {
			if err := d.value(s.Index(i), depth+1); nil != err {
				return err
			}
		}
		v.Set(s)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := d.take(v.Len())
			if nil != err {
				return err
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return nil
		}
		for i := 0; i < v.Len(); i += 1 {
			if err := d.value(v.Index(i), depth+1); nil != err {
				return err
			}
		}

	case reflect.Ptr:
		b, err := d.take(1)
		if nil != err {
			return err
		}
		switch b[0] {
		case 0:
			v.Set(reflect.Zero(v.Type()))
		case 1:
			p := reflect.New(v.Type().Elem())
			if err := d.value(p.Elem(), depth+1); nil != err {
				return err
			}
			v.Set(p)
		default:
			return errors.Wrap(fault.ErrInvalidParameter, "optional flag")
		}

	case reflect.Struct:
		return d.structure(v, depth)

	case reflect.Interface:
		tag, err := d.varint()
		if nil != err {
			return err
		}
		t, err := variantType(v.Type(), tag)
		if nil != err {
			return err
		}
		p := reflect.New(t)
		if err := d.value(p.Elem(), depth+1); nil != err {
			return err
		}
		v.Set(p)

	default:
		return errors.Wrapf(fault.ErrInvalidParameter, "cannot unpack: %s", v.Type())
	}
	return nil
}

func (d *decoder) structure(v reflect.Value, depth int) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i += 1 {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		var err error
		switch fieldMode(f) {
		case "-":
			continue
		case "ext":
			err = d.extensionField(v.Field(i), depth+1)
		default:
			err = d.value(v.Field(i), depth+1)
		}
		if nil != err {
			return errors.Wrapf(err, "%s.%s", t.Name(), f.Name)
		}
	}
	return nil
}

func (d *decoder) extensionField(v reflect.Value, depth int) error {
	if v.Kind() == reflect.Ptr {
		b, err := d.take(1)
		if nil != err {
			return err
		}
		switch b[0] {
		case 0:
			v.Set(reflect.Zero(v.Type()))
			return nil
		case 1:
			p := reflect.New(v.Type().Elem())
			v.Set(p)
			v = p.Elem()
		default:
			return errors.Wrap(fault.ErrInvalidParameter, "optional flag")
		}
	}

	n, err := d.count()
	if nil != err {
		return err
	}
	last := -1
	for i := 0; i < n; i += 1 {
		index, err := d.varint()
		if nil != err {
			return err
		}
		// indexes must be strictly increasing
		if index >= uint64(v.NumField()) || int(index) <= last {
			return errors.Wrapf(fault.ErrInvalidParameter, "extension index: %d", index)
		}
		last = int(index)
		field := v.Field(int(index))
		p := reflect.New(field.Type().Elem())
		if err := d.value(p.Elem(), depth+1); nil != err {
			return err
		}
		field.Set(p)
	}
	return nil
}
