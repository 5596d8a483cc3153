// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"crypto/sha256"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/protocol"
)

var (
	alice = account.CalculateUID(25638)
	bob   = account.CalculateUID(25639)

	testChain = protocol.ChainID(sha256.Sum256([]byte("test chain")))
)

func makeKey(t *testing.T, seed string) *keypair.PrivateKey {
	key, err := keypair.FromSeed(seed)
	require.NoError(t, err, "key from seed: %s", seed)
	return key
}

func makeTransaction(amount int64) *protocol.SignedTransaction {
	tx := &protocol.SignedTransaction{}
	tx.SetExpiration(protocol.Timestamp(1600000030))
	tx.Operations = protocol.OperationList{
		&protocol.Transfer{
			FeeBundle: protocol.NewFee(20 * constants.CorePrecision),
			From:      alice,
			To:        bob,
			Amount:    protocol.CoreAsset(amount),
		},
	}
	return tx
}

func TestTransactionID(t *testing.T) {
	tx := makeTransaction(1000)
	id := tx.ID()
	digest := tx.Digest()
	assert.Equal(t, digest[:protocol.IDLength], id[:], "id is truncated digest")
	assert.Equal(t, id, makeTransaction(1000).ID(), "same body same id")

	tx.SetExpiration(tx.Expiration.Add(1))
	assert.NotEqual(t, id, tx.ID(), "expiration is part of the id")

	// signatures are not part of the id
	before := tx.ID()
	require.NoError(t, tx.Sign(makeKey(t, "alice"), testChain))
	assert.Equal(t, before, tx.ID())
}

func TestReferenceBlock(t *testing.T) {
	id := protocol.BlockID{0x00, 0x01, 0x23, 0x45, 0x78, 0x56, 0x34, 0x12}
	tx := makeTransaction(1)
	tx.SetReferenceBlock(id)
	assert.Equal(t, uint16(0x2345), tx.RefBlockNum)
	assert.Equal(t, uint32(0x12345678), tx.RefBlockPrefix)
	assert.Equal(t, uint32(0x00012345), id.BlockNum())
}

func TestSignatureKeys(t *testing.T) {
	aliceKey := makeKey(t, "alice")
	bobKey := makeKey(t, "bob")

	tx := makeTransaction(1000)
	require.NoError(t, tx.Sign(aliceKey, testChain))
	require.NoError(t, tx.Sign(bobKey, testChain))

	keys, err := tx.SignatureKeys(testChain)
	require.NoError(t, err)
	assert.Equal(t, []keypair.PublicKey{aliceKey.PublicKey(), bobKey.PublicKey()}, keys)

	// a signature is bound to its chain
	other := protocol.ChainID(sha256.Sum256([]byte("other chain")))
	keys, err = tx.SignatureKeys(other)
	require.NoError(t, err)
	assert.NotContains(t, keys, aliceKey.PublicKey())

	require.NoError(t, tx.Sign(aliceKey, testChain))
	_, err = tx.SignatureKeys(testChain)
	assert.Equal(t, fault.ErrDuplicateSignature, errors.Cause(err))
}

func TestTransactionValidate(t *testing.T) {
	tx := makeTransaction(1000)
	assert.NoError(t, tx.Validate())

	empty := &protocol.Transaction{}
	assert.Equal(t, fault.ErrInvalidCount, errors.Cause(empty.Validate()))

	bad := makeTransaction(0)
	assert.Error(t, bad.Validate(), "zero amount")
}

func TestTransferValidate(t *testing.T) {
	core := func(n int64) *protocol.Asset {
		a := protocol.CoreAsset(n)
		return &a
	}

	tests := []struct {
		name  string
		op    protocol.Transfer
		valid bool
	}{
		{
			name:  "plain",
			op:    protocol.Transfer{From: alice, To: bob, Amount: protocol.CoreAsset(5)},
			valid: true,
		},
		{
			name: "negative",
			op:   protocol.Transfer{From: alice, To: bob, Amount: protocol.CoreAsset(-5)},
		},
		{
			name: "self",
			op:   protocol.Transfer{From: alice, To: alice, Amount: protocol.CoreAsset(5)},
		},
		{
			name: "self balance to prepaid",
			op: protocol.Transfer{
				From:       alice,
				To:         alice,
				Amount:     protocol.CoreAsset(5),
				Extensions: &protocol.TransferExtension{ToPrepaid: core(5)},
			},
			valid: true,
		},
		{
			name: "self prepaid to balance",
			op: protocol.Transfer{
				From:       alice,
				To:         alice,
				Amount:     protocol.CoreAsset(5),
				Extensions: &protocol.TransferExtension{FromPrepaid: core(5), ToBalance: core(5)},
			},
			valid: true,
		},
		{
			name: "split does not add up",
			op: protocol.Transfer{
				From:       alice,
				To:         bob,
				Amount:     protocol.CoreAsset(5),
				Extensions: &protocol.TransferExtension{FromBalance: core(2), FromPrepaid: core(2)},
			},
		},
		{
			name: "fee options do not add up",
			op: protocol.Transfer{
				FeeBundle: protocol.FeeBundle{
					Total:   protocol.CoreAsset(10),
					Options: &protocol.FeeOptions{FromCSAF: core(4)},
				},
				From:   alice,
				To:     bob,
				Amount: protocol.CoreAsset(5),
			},
		},
	}

	for _, test := range tests {
		err := test.op.Validate()
		if test.valid {
			assert.NoError(t, err, test.name)
		} else {
			assert.Error(t, err, test.name)
		}
	}
}

func TestTransferAmounts(t *testing.T) {
	balance := protocol.CoreAsset(3)
	prepaid := protocol.CoreAsset(4)
	op := protocol.Transfer{
		From:   alice,
		To:     bob,
		Amount: protocol.CoreAsset(7),
		Extensions: &protocol.TransferExtension{
			FromBalance: &balance,
			FromPrepaid: &prepaid,
		},
	}
	fromBalance, fromPrepaid, toBalance, toPrepaid := op.Amounts()
	assert.Equal(t, int64(3), fromBalance)
	assert.Equal(t, int64(4), fromPrepaid)
	assert.Equal(t, int64(7), toBalance)
	assert.Equal(t, int64(0), toPrepaid)
}

func TestFeeBundle(t *testing.T) {
	fee := protocol.NewFee(100)
	require.NoError(t, fee.Validate())
	b, p, c := fee.Split()
	assert.Equal(t, []int64{100, 0, 0}, []int64{b, p, c}, "no options")

	balance := protocol.CoreAsset(30)
	csaf := protocol.CoreAsset(70)
	fee.Options = &protocol.FeeOptions{FromBalance: &balance, FromCSAF: &csaf}
	require.NoError(t, fee.Validate())
	b, p, c = fee.Split()
	assert.Equal(t, []int64{30, 0, 70}, []int64{b, p, c}, "with options")

	csaf.Amount = 69
	assert.Equal(t, fault.ErrFeeOptions, fee.Validate())
}

func TestCalculateFee(t *testing.T) {
	schedule := protocol.DefaultFeeSchedule()

	op := &protocol.Transfer{From: alice, To: bob, Amount: protocol.CoreAsset(1)}
	fee, err := schedule.CalculateFee(op)
	require.NoError(t, err)
	assert.Equal(t, 20*constants.CorePrecision, fee, "base fee")

	op.Memo = &protocol.Memo{
		From:    makeKey(t, "alice").PublicKey(),
		To:      makeKey(t, "bob").PublicKey(),
		Nonce:   1,
		Message: make([]byte, 500),
	}
	assert.Equal(t, protocol.PackedSize(op.Memo)+1, protocol.OptionalPackedSize(op.Memo), "memo counted with its flag")
	surcharge := protocol.CalculateDataFee(protocol.OptionalPackedSize(op.Memo), uint64(10*constants.CorePrecision))
	require.NotZero(t, surcharge)
	fee, err = schedule.CalculateFee(op)
	require.NoError(t, err)
	assert.Equal(t, 20*constants.CorePrecision+int64(surcharge), fee, "memo surcharge")

	half := uint32(constants.HundredPercent / 2)
	scaled := schedule.Update(nil, &half)
	fee, err = scaled.CalculateFee(&protocol.Transfer{From: alice, To: bob, Amount: protocol.CoreAsset(1)})
	require.NoError(t, err)
	assert.Equal(t, 10*constants.CorePrecision, fee, "half scale")
	assert.Equal(t, uint32(constants.HundredPercent), schedule.Scale(), "original unchanged")

	zero, err := schedule.Zero().CalculateFee(op)
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestSetFeeWithCSAF(t *testing.T) {
	schedule := protocol.DefaultFeeSchedule()
	op := &protocol.Transfer{From: alice, To: bob, Amount: protocol.CoreAsset(1)}
	require.NoError(t, schedule.SetFeeWithCSAF(op))

	fee, minReal, err := schedule.CalculateFeePair(op)
	require.NoError(t, err)
	assert.Equal(t, fee, op.FeeBundle.Total.Amount)
	require.NoError(t, op.FeeBundle.Validate())

	b, p, c := op.FeeBundle.Split()
	assert.Equal(t, minReal, b+p, "real part")
	assert.Equal(t, fee-minReal, c, "csaf part")

	// a minimum real fee keeps part on the balance
	params := schedule.Parameters(protocol.TransferTag)
	params.MinRFPercent = constants.HundredPercent / 4
	strict := schedule.Update([]protocol.FeeEntry{{Tag: protocol.VarUint(protocol.TransferTag), Parameters: params}}, nil)
	require.NoError(t, strict.SetFeeWithCSAF(op))
	b, _, c = op.FeeBundle.Split()
	assert.Equal(t, 5*constants.CorePrecision, b)
	assert.Equal(t, 15*constants.CorePrecision, c)
}

func TestPackRoundTrip(t *testing.T) {
	tx := makeTransaction(4321)
	tx.SetReferenceBlock(protocol.BlockID{0, 0, 0, 7, 1, 2, 3, 4})
	tx.Operations[0].(*protocol.Transfer).Memo = &protocol.Memo{
		From:    makeKey(t, "alice").PublicKey(),
		To:      makeKey(t, "bob").PublicKey(),
		Nonce:   99,
		Message: []byte("hello"),
	}
	require.NoError(t, tx.Sign(makeKey(t, "alice"), testChain))

	b := &protocol.SignedBlock{}
	b.Timestamp = protocol.Timestamp(1600000003)
	b.Witness = alice
	b.Transactions = []protocol.ProcessedTransaction{{SignedTransaction: *tx}}
	b.TransactionMerkleRoot = b.CalculateMerkleRoot()
	require.NoError(t, b.Sign(makeKey(t, "witness")))

	packed, err := protocol.Pack(b)
	require.NoError(t, err)
	assert.Equal(t, len(packed), protocol.PackedSize(b))

	decoded := &protocol.SignedBlock{}
	require.NoError(t, packed.UnpackAll(decoded))
	assert.Equal(t, b.ID(), decoded.ID())
	assert.Equal(t, uint32(1), decoded.BlockNum())
	require.Len(t, decoded.Transactions, 1)
	assert.Equal(t, tx.ID(), decoded.Transactions[0].ID())
	assert.Equal(t, b.TransactionMerkleRoot, decoded.CalculateMerkleRoot())
	assert.True(t, decoded.ValidateSigneeKey(makeKey(t, "witness").PublicKey()))

	keys, err := decoded.Transactions[0].SignatureKeys(testChain)
	require.NoError(t, err)
	assert.Equal(t, []keypair.PublicKey{makeKey(t, "alice").PublicKey()}, keys)

	assert.Error(t, packed[:len(packed)-1].UnpackAll(&protocol.SignedBlock{}), "truncated")
}

func TestPackTopLevelPointer(t *testing.T) {
	tx := makeTransaction(4321)
	require.NoError(t, tx.Sign(makeKey(t, "alice"), testChain))

	body := protocol.MustPack(tx.Transaction)
	assert.Equal(t, body, protocol.MustPack(&tx.Transaction), "pointer and value")
	assert.Equal(t, byte(0), body[len(body)-1], "extensions are a bare count")
	assert.Equal(t, sha256.Sum256(body), tx.Digest(), "digest of the body")

	expected := sha256.New()
	expected.Write(testChain[:])
	expected.Write(body)
	d := tx.SigDigest(testChain)
	assert.Equal(t, expected.Sum(nil), d[:], "signature digest")

	decoded := protocol.Transaction{}
	require.NoError(t, protocol.MustPack(&tx.Transaction).UnpackAll(&decoded))
	assert.Equal(t, tx.ID(), decoded.ID())

	h := &protocol.SignedBlockHeader{}
	h.Previous = protocol.BlockID{0, 0, 0, 0x18}
	h.Timestamp = protocol.Timestamp(1600000003)
	h.Witness = alice
	require.NoError(t, h.Sign(makeKey(t, "witness")))

	packed := protocol.MustPack(h)
	assert.Len(t, packed, 20+4+8+20+1+65, "header layout")
	assert.Equal(t, sha256.Sum256(packed[:20+4+8+20+1]), h.Digest(), "header digest")

	header := protocol.SignedBlockHeader{}
	require.NoError(t, packed.UnpackAll(&header))
	assert.Equal(t, h.ID(), header.ID())
	assert.Equal(t, uint32(0x19), header.BlockNum())
}

func TestEmptyMerkleRoot(t *testing.T) {
	b := &protocol.SignedBlock{}
	assert.True(t, b.CalculateMerkleRoot() == b.TransactionMerkleRoot, "no transactions")
}

func TestAssetMultiply(t *testing.T) {
	const other = protocol.AssetAID(3)
	price := protocol.Price{
		Base:  protocol.CoreAsset(3),
		Quote: protocol.Asset{Amount: 2, AssetID: other},
	}
	require.NoError(t, price.Validate())

	r, err := protocol.CoreAsset(10).Multiply(price)
	require.NoError(t, err)
	assert.Equal(t, protocol.Asset{Amount: 6, AssetID: other}, r, "10·2/3 down")

	r, err = protocol.CoreAsset(10).MultiplyRoundUp(price)
	require.NoError(t, err)
	assert.Equal(t, protocol.Asset{Amount: 7, AssetID: other}, r, "10·2/3 up")

	r, err = protocol.Asset{Amount: 5, AssetID: other}.Multiply(price)
	require.NoError(t, err)
	assert.Equal(t, protocol.CoreAsset(7), r, "5·3/2 down")

	_, err = protocol.Asset{Amount: 1, AssetID: 9}.Multiply(price)
	assert.Equal(t, fault.ErrInvalidPrice, err, "unrelated asset")

	_, err = protocol.CoreAsset(constants.MaxShareSupply).Multiply(protocol.Price{
		Base:  protocol.CoreAsset(1),
		Quote: protocol.Asset{Amount: 2, AssetID: other},
	})
	assert.Equal(t, fault.ErrInvalidAmount, err, "overflow")
}

func TestPriceCompare(t *testing.T) {
	const other = protocol.AssetAID(3)
	big := protocol.Price{Base: protocol.CoreAsset(2), Quote: protocol.Asset{Amount: 1, AssetID: other}}
	small := protocol.Price{Base: protocol.CoreAsset(1), Quote: protocol.Asset{Amount: 1, AssetID: other}}
	same := protocol.Price{Base: protocol.CoreAsset(4), Quote: protocol.Asset{Amount: 2, AssetID: other}}

	assert.Equal(t, -1, small.Compare(big))
	assert.Equal(t, 1, big.Compare(small))
	assert.Equal(t, 0, big.Compare(same))
	assert.Equal(t, big, big.Invert().Invert())

	assert.Error(t, protocol.Price{Base: protocol.CoreAsset(1), Quote: protocol.CoreAsset(1)}.Validate(), "same asset")
}
