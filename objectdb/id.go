// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb

import (
	"fmt"
)

// object spaces
const (
	ProtocolSpace       = 1
	ImplementationSpace = 2
)

const instanceMask = uint64(1)<<48 - 1

// ID - space(8) ‖ type(8) ‖ instance(48)
type ID uint64

// NewID - pack the three parts
func NewID(space uint8, kind uint8, instance uint64) ID {
	return ID(uint64(space)<<56 | uint64(kind)<<48 | instance&instanceMask)
}

// Space - top byte
func (id ID) Space() uint8 {
	return uint8(id >> 56)
}

// Type - second byte
func (id ID) Type() uint8 {
	return uint8(id >> 48)
}

// Instance - low 48 bits
func (id ID) Instance() uint64 {
	return uint64(id) & instanceMask
}

// String - dotted form space.type.instance
func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Space(), id.Type(), id.Instance())
}

func tableKey(space uint8, kind uint8) uint16 {
	return uint16(space)<<8 | uint16(kind)
}

func (id ID) tableKey() uint16 {
	return tableKey(id.Space(), id.Type())
}

// Base - embed in every object to carry its id
type Base struct {
	id ID
}

// ObjectID - id assigned at creation
func (b *Base) ObjectID() ID {
	return b.id
}

func (b *Base) setID(id ID) {
	b.id = id
}

// Object - anything stored in a table
type Object interface {
	ObjectID() ID
	setID(ID)
}

// DeepCopier - objects holding slices or maps implement this to
// detach a shallow copy from shared storage
type DeepCopier interface {
	DeepCopy()
}

// Record - constraint tying an object type to its pointer
type Record[T any] interface {
	*T
	Object
}

func clone[T any, P Record[T]](obj P) P {
	c := new(T)
	*c = *obj
	p := P(c)
	if d, ok := any(p).(DeepCopier); ok {
		d.DeepCopy()
	}
	return p
}
