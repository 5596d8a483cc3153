// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
)

// binary format constants
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const (
	sectionType   = 1
	sectionImport = 2
	sectionGlobal = 6
	sectionCode   = 10

	valueI32     = 0x7f
	valueI64     = 0x7e
	valueF32     = 0x7d
	valueF64     = 0x7c
	valueV128    = 0x7b
	valueFuncRef = 0x70
	valueExtern  = 0x6f

	blockEmpty = 0x40
	funcForm   = 0x60
)

// reader - cursor over one part of the binary
type reader struct {
	data   []byte
	offset int
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(fault.ErrWasmValidation, format, args...)
}

func (r *reader) done() bool {
	return r.offset >= len(r.data)
}

func (r *reader) byte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, invalid("unexpected end at: %d", r.offset)
	}
	b := r.data[r.offset]
	r.offset += 1
	return b, nil
}

func (r *reader) bytes(n uint32) ([]byte, error) {
	if uint64(r.offset)+uint64(n) > uint64(len(r.data)) {
		return nil, invalid("%d bytes past the end at: %d", n, r.offset)
	}
	b := r.data[r.offset : r.offset+int(n)]
	r.offset += int(n)
	return b, nil
}

// u32 - unsigned LEB128
func (r *reader) u32() (uint32, error) {
	result := uint32(0)
	for shift := uint(0); shift < 35; shift += 7 {
		b, err := r.byte()
		if nil != err {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if 0 == b&0x80 {
			return result, nil
		}
	}
	return 0, invalid("integer too long at: %d", r.offset)
}

// skipLEB - any signed or unsigned LEB128 of at most max bytes
func (r *reader) skipLEB(max int) error {
	for i := 0; i < max; i += 1 {
		b, err := r.byte()
		if nil != err {
			return err
		}
		if 0 == b&0x80 {
			return nil
		}
	}
	return invalid("integer too long at: %d", r.offset)
}

func (r *reader) name() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	_, err = r.bytes(n)
	return err
}

func checkValueType(t byte) error {
	switch t {
	case valueI32, valueI64, valueFuncRef, valueExtern:
		return nil
	case valueF32, valueF64:
		return invalid("floating point value type: 0x%02x", t)
	case valueV128:
		return invalid("vector value type")
	}
	return invalid("unknown value type: 0x%02x", t)
}

func (r *reader) valueType() error {
	t, err := r.byte()
	if nil != err {
		return err
	}
	return checkValueType(t)
}

func (r *reader) valueTypes() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < n; i += 1 {
		if err := r.valueType(); nil != err {
			return err
		}
	}
	return nil
}

// checkDeterministic - reject code the soft float imports cannot make
// reproducible: native float types and instructions and vector code
//
// the structure is otherwise validated by the compiler
func checkDeterministic(code []byte) error {
	if len(code) < len(wasmMagic) || string(code[:len(wasmMagic)]) != string(wasmMagic) {
		return invalid("bad magic or version")
	}
	r := &reader{data: code, offset: len(wasmMagic)}
	for !r.done() {
		id, err := r.byte()
		if nil != err {
			return err
		}
		size, err := r.u32()
		if nil != err {
			return err
		}
		body, err := r.bytes(size)
		if nil != err {
			return err
		}
		s := &reader{data: body}
		switch id {
		case sectionType:
			err = s.typeSection()
		case sectionImport:
			err = s.importSection()
		case sectionGlobal:
			err = s.globalSection()
		case sectionCode:
			err = s.codeSection()
		}
		if nil != err {
			return err
		}
	}
	return nil
}

func (r *reader) typeSection() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < n; i += 1 {
		form, err := r.byte()
		if nil != err {
			return err
		}
		if funcForm != form {
			return invalid("type: %d form: 0x%02x", i, form)
		}
		if err := r.valueTypes(); nil != err {
			return errors.Wrapf(err, "type: %d params", i)
		}
		if err := r.valueTypes(); nil != err {
			return errors.Wrapf(err, "type: %d results", i)
		}
	}
	return nil
}

func (r *reader) importSection() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < n; i += 1 {
		if err := r.name(); nil != err {
			return err
		}
		if err := r.name(); nil != err {
			return err
		}
		kind, err := r.byte()
		if nil != err {
			return err
		}
		if 0x00 != kind {
			return invalid("import: %d kind: 0x%02x, only functions may be imported", i, kind)
		}
		_, err = r.u32()
		if nil != err {
			return errors.Wrapf(err, "import: %d", i)
		}
	}
	return nil
}

func (r *reader) globalSection() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < n; i += 1 {
		if err := r.valueType(); nil != err {
			return errors.Wrapf(err, "global: %d", i)
		}
		if _, err := r.byte(); nil != err {
			return err
		}
		if err := r.expression(); nil != err {
			return errors.Wrapf(err, "global: %d", i)
		}
	}
	return nil
}

func (r *reader) codeSection() error {
	n, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < n; i += 1 {
		size, err := r.u32()
		if nil != err {
			return err
		}
		body, err := r.bytes(size)
		if nil != err {
			return err
		}
		if err := (&reader{data: body}).function(); nil != err {
			return errors.Wrapf(err, "function body: %d", i)
		}
	}
	return nil
}

func (r *reader) function() error {
	groups, err := r.u32()
	if nil != err {
		return err
	}
	for i := uint32(0); i < groups; i += 1 {
		if _, err := r.u32(); nil != err {
			return err
		}
		if err := r.valueType(); nil != err {
			return errors.Wrap(err, "local")
		}
	}
	for !r.done() {
		if err := r.instruction(); nil != err {
			return err
		}
	}
	return nil
}

// expression - instructions up to the final end
func (r *reader) expression() error {
	for {
		op := r.offset
		if err := r.instruction(); nil != err {
			return err
		}
		if 0x0b == r.data[op] {
			return nil
		}
	}
}

func floatOpcode(op byte) bool {
	switch {
	case 0x2a == op || 0x2b == op || 0x38 == op || 0x39 == op:
		return true
	case 0x43 == op || 0x44 == op:
		return true
	case op >= 0x5b && op <= 0x66:
		return true
	case op >= 0x8b && op <= 0xa6:
		return true
	case op >= 0xa8 && op <= 0xab:
		return true
	case op >= 0xae && op <= 0xbf:
		return true
	}
	return false
}

// instruction - check one instruction and skip its immediates
func (r *reader) instruction() error {
	at := r.offset
	op, err := r.byte()
	if nil != err {
		return err
	}
	if floatOpcode(op) {
		return invalid("floating point instruction: 0x%02x at: %d", op, at)
	}

	switch {
	case op <= 0x01, 0x05 == op, 0x0b == op, 0x0f == op, 0x1a == op, 0x1b == op, 0xd1 == op:
		return nil

	case op >= 0x02 && op <= 0x04:
		return r.blockType()

	case 0x0c == op, 0x0d == op, 0x10 == op, 0xd2 == op:
		_, err = r.u32()
		return err

	case 0x0e == op:
		n, err := r.u32()
		if nil != err {
			return err
		}
		for i := uint32(0); i <= n; i += 1 {
			if _, err := r.u32(); nil != err {
				return err
			}
		}
		return nil

	case 0x11 == op:
		if _, err := r.u32(); nil != err {
			return err
		}
		_, err = r.u32()
		return err

	case 0x1c == op:
		return r.valueTypes()

	case op >= 0x20 && op <= 0x26:
		_, err = r.u32()
		return err

	case op >= 0x28 && op <= 0x3e:
		if _, err := r.u32(); nil != err {
			return err
		}
		_, err = r.u32()
		return err

	case 0x3f == op, 0x40 == op, 0xd0 == op:
		_, err = r.byte()
		return err

	case 0x41 == op:
		return r.skipLEB(5)

	case 0x42 == op:
		return r.skipLEB(10)

	case op >= 0x45 && op <= 0x8a, 0xa7 == op, 0xac == op, 0xad == op:
		return nil

	case op >= 0xc0 && op <= 0xc4:
		return nil

	case 0xfc == op:
		return r.miscInstruction(at)

	case 0xfd == op:
		return invalid("vector instruction at: %d", at)
	}
	return invalid("unknown instruction: 0x%02x at: %d", op, at)
}

func (r *reader) blockType() error {
	t, err := r.byte()
	if nil != err {
		return err
	}
	switch t {
	case blockEmpty:
		return nil
	case valueI32, valueI64, valueF32, valueF64, valueV128, valueFuncRef, valueExtern:
		return checkValueType(t)
	}
	// type index as a signed 33 bit integer
	r.offset -= 1
	return r.skipLEB(5)
}

func (r *reader) miscInstruction(at int) error {
	sub, err := r.u32()
	if nil != err {
		return err
	}
	switch {
	case sub <= 7:
		return invalid("saturating float conversion: %d at: %d", sub, at)
	case 8 == sub:
		if _, err := r.u32(); nil != err {
			return err
		}
		_, err = r.byte()
	case 9 == sub, 13 == sub, 15 == sub, 16 == sub, 17 == sub:
		_, err = r.u32()
	case 10 == sub:
		_, err = r.bytes(2)
	case 11 == sub:
		_, err = r.byte()
	case 12 == sub, 14 == sub:
		if _, err = r.u32(); nil == err {
			_, err = r.u32()
		}
	default:
		err = invalid("unknown instruction: 0xfc %d at: %d", sub, at)
	}
	return err
}
