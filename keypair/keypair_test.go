// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
)

const (
	nathanWIF    = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"
	nathanPublic = "YYW6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"
)

func TestWIF(t *testing.T) {
	p, err := keypair.FromWIF(nathanWIF)
	require.NoError(t, err, "decode wif")

	assert.Equal(t, nathanWIF, p.WIF(), "round trip")
	assert.Equal(t, nathanPublic, p.PublicKey().String(), "public key")
}

func TestSeed(t *testing.T) {
	p, err := keypair.FromSeed("nathan")
	require.NoError(t, err, "seed")
	assert.Equal(t, nathanWIF, p.WIF(), "seed wif")
}

func TestBrainKey(t *testing.T) {
	raw, _, err := keypair.MakeRawKeyPairFromBrainKey("nathan", 0)
	require.NoError(t, err, "brain key")
	assert.Equal(t, "5KL2mhcoL67ThErJYWroxFu8eGP7iq9JVKruybqJ62p7fMduPQD", raw.PrivateKey, "private")
	assert.Equal(t, "YYW6J8MgSHrkgv4rJTjkBupMf5EZLGqLVtrnzjHeXBgPLXRyNtxQJ", raw.PublicKey, "public")
}

func TestBadWIF(t *testing.T) {
	bad := []byte(nathanWIF)
	bad[10] = 'x'
	_, err := keypair.FromWIF(string(bad))
	assert.Error(t, err, "corrupted wif")
}

func TestParsePublicKey(t *testing.T) {
	key, err := keypair.ParsePublicKey(nathanPublic)
	require.NoError(t, err, "parse")
	assert.Equal(t, nathanPublic, key.String(), "round trip")

	text, err := key.MarshalText()
	require.NoError(t, err, "marshal")
	var again keypair.PublicKey
	require.NoError(t, again.UnmarshalText(text), "unmarshal")
	assert.Equal(t, key, again, "text round trip")

	_, err = keypair.ParsePublicKey("BTS" + nathanPublic[3:])
	assert.Equal(t, keypair.ErrKeyPrefix, err, "prefix")

	_, err = keypair.ParsePublicKey(nathanPublic[:len(nathanPublic)-1] + "W")
	assert.Error(t, err, "checksum")
}

func TestSignRecover(t *testing.T) {
	_, p, err := keypair.MakeRawKeyPair()
	require.NoError(t, err, "generate")

	for i := 0; i < 20; i += 1 {
		digest := sha256.Sum256([]byte{byte(i), 'm', 's', 'g'})
		sig, err := p.Sign(digest)
		require.NoError(t, err, "%d: sign", i)
		assert.True(t, sig.IsCanonical(), "%d: canonical", i)
		assert.True(t, sig[0] >= 31 && sig[0] <= 34, "%d: header: %d", i, sig[0])

		pub, err := keypair.Recover(sig, digest)
		require.NoError(t, err, "%d: recover", i)
		assert.Equal(t, p.PublicKey(), pub, "%d: recovered key", i)
	}
}

func TestHighSRejected(t *testing.T) {
	p, err := keypair.FromWIF(nathanWIF)
	require.NoError(t, err, "wif")
	digest := sha256.Sum256([]byte("high s"))
	sig, err := p.Sign(digest)
	require.NoError(t, err, "sign")

	// s' = n - s keeps the signature valid but not canonical
	n := []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
		0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
		0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
	}
	borrow := 0
	for i := 31; i >= 0; i -= 1 {
		d := int(n[i]) - int(sig[33+i]) - borrow
		borrow = 0
		if d < 0 {
			d += 256
			borrow = 1
		}
		sig[33+i] = byte(d)
	}
	assert.False(t, sig.IsCanonical(), "high s")
	_, err = keypair.Recover(sig, digest)
	assert.Equal(t, fault.ErrNotCanonical, err, "recover high s")
}
