// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoyow-org/yoyowd/merkle"
)

func TestScanFmt(t *testing.T) {
	stringDigest := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	var d merkle.Digest
	n, err := fmt.Sscan(stringDigest, &d)
	assert.Nil(t, err, "scan error")
	assert.Equal(t, 1, n, "scanned count")
	assert.Equal(t, merkle.NewDigest([]byte("hello world")), d, "wrong digest")

	assert.Equal(t, stringDigest, fmt.Sprintf("%s", d), "string")
	assert.Equal(t, "<SHA256:"+stringDigest+">", fmt.Sprintf("%#v", d), "go string")
}

func TestText(t *testing.T) {
	d := merkle.NewDigest([]byte("hello world"))
	text, err := d.MarshalText()
	assert.Nil(t, err, "marshal error")

	var back merkle.Digest
	err = back.UnmarshalText(text)
	assert.Nil(t, err, "unmarshal error")
	assert.Equal(t, d, back, "round trip")

	err = back.UnmarshalText(text[1:])
	assert.NotNil(t, err, "short text accepted")
}

func TestDigestFromBytes(t *testing.T) {
	var d merkle.Digest
	assert.NotNil(t, merkle.DigestFromBytes(&d, []byte{1, 2, 3}), "short buffer accepted")

	buffer := make([]byte, merkle.DigestLength)
	buffer[0] = 0x7f
	assert.Nil(t, merkle.DigestFromBytes(&d, buffer), "valid buffer rejected")
	assert.Equal(t, byte(0x7f), d[0], "first byte")
}
