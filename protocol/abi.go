// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/fault"
)

// ABIVersion - the only accepted abi version
const ABIVersion = "yy::abi/1.0"

// TypeDef - alias of a type
type TypeDef struct {
	NewTypeName string `json:"new_type_name"`
	Type        string `json:"type"`
}

// FieldDef - named struct field
type FieldDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StructDef - struct layout
type StructDef struct {
	Name   string     `json:"name"`
	Base   string     `json:"base"`
	Fields []FieldDef `json:"fields"`
}

// ActionDef - callable method and its argument struct
type ActionDef struct {
	Name    Name   `json:"name"`
	Type    string `json:"type"`
	Payable bool   `json:"payable"`
}

// TableDef - persistent table layout
type TableDef struct {
	Name      Name     `json:"name"`
	IndexType string   `json:"index_type"`
	KeyNames  []string `json:"key_names"`
	KeyTypes  []string `json:"key_types"`
	Type      string   `json:"type"`
}

// ErrorMessage - text for an assert code
type ErrorMessage struct {
	ErrorCode uint64 `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// ABIExtension - tagged opaque extension
type ABIExtension struct {
	Tag  uint16 `json:"tag"`
	Data []byte `json:"data"`
}

// ABI - interface description stored with a contract
type ABI struct {
	Version       string         `json:"version"`
	Types         []TypeDef      `json:"types"`
	Structs       []StructDef    `json:"structs"`
	Actions       []ActionDef    `json:"actions"`
	Tables        []TableDef     `json:"tables"`
	ErrorMessages []ErrorMessage `json:"error_messages"`
	ABIExtensions []ABIExtension `json:"abi_extensions"`
}

// Validate - actions exist, names are unique and referenced types
// are declared
func (a *ABI) Validate() error {
	if 0 == len(a.Actions) {
		return errors.Wrap(fault.ErrInvalidABI, "no actions")
	}
	if "" != a.Version && ABIVersion != a.Version {
		return errors.Wrapf(fault.ErrInvalidABI, "version: %q", a.Version)
	}
	structs := make(map[string]struct{}, len(a.Structs))
	for _, s := range a.Structs {
		if _, ok := structs[s.Name]; ok {
			return errors.Wrapf(fault.ErrInvalidABI, "duplicate struct: %s", s.Name)
		}
		structs[s.Name] = struct{}{}
	}
	actions := make(map[Name]struct{}, len(a.Actions))
	for _, act := range a.Actions {
		if _, ok := actions[act.Name]; ok {
			return errors.Wrapf(fault.ErrInvalidABI, "duplicate action: %s", act.Name)
		}
		actions[act.Name] = struct{}{}
		if _, ok := structs[act.Type]; !ok && !a.isAlias(act.Type) {
			return errors.Wrapf(fault.ErrInvalidABI, "action %s type: %s", act.Name, act.Type)
		}
	}
	tables := make(map[Name]struct{}, len(a.Tables))
	for _, t := range a.Tables {
		if _, ok := tables[t.Name]; ok {
			return errors.Wrapf(fault.ErrInvalidABI, "duplicate table: %s", t.Name)
		}
		tables[t.Name] = struct{}{}
		if len(t.KeyNames) != len(t.KeyTypes) {
			return errors.Wrapf(fault.ErrInvalidABI, "table %s keys", t.Name)
		}
	}
	return nil
}

func (a *ABI) isAlias(name string) bool {
	for _, t := range a.Types {
		if t.NewTypeName == name {
			return true
		}
	}
	return false
}

// Action - find by name
func (a *ABI) Action(name Name) (*ActionDef, bool) {
	for i := range a.Actions {
		if a.Actions[i].Name == name {
			return &a.Actions[i], true
		}
	}
	return nil, false
}
