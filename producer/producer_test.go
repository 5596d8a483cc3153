// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package producer_test

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/ledger"
	"github.com/yoyow-org/yoyowd/producer"
	"github.com/yoyow-org/yoyowd/producer/mocks"
	"github.com/yoyow-org/yoyowd/protocol"
)

const (
	testingDirName = "testing"

	localWitness = account.UID(25638)
	otherWitness = account.UID(25997)
)

// a whole second in the first slot after genesis
var (
	slotOne = protocol.Timestamp(1546300803)
	now     = slotOne.Time()
)

func TestMain(m *testing.M) {
	_ = os.RemoveAll(testingDirName)
	_ = os.Mkdir(testingDirName, 0700)

	_ = logger.Initialise(logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})

	rc := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(testingDirName)
	os.Exit(rc)
}

func testKey(t *testing.T, seed string) *keypair.PrivateKey {
	key, err := keypair.FromSeed(seed)
	require.NoError(t, err, "key")
	return key
}

func newProducer(t *testing.T, ctl *gomock.Controller, stale bool) (*producer.Producer, *mocks.MockChain, *mocks.MockBlockStore, *keypair.PrivateKey) {
	key := testKey(t, "nathan")
	chain := mocks.NewMockChain(ctl)
	store := mocks.NewMockBlockStore(ctl)
	p := producer.New(producer.Options{
		Witnesses:             map[account.UID]*keypair.PrivateKey{localWitness: key},
		EnableStaleProduction: stale,
		RequiredParticipation: producer.DefaultRequiredParticipation,
	}, chain, store)
	return p, chain, store, key
}

// the checks before the lag test all pass
func scheduled(chain *mocks.MockChain, key *keypair.PrivateKey, when protocol.Timestamp) {
	chain.EXPECT().SlotAtTime(when).Return(uint32(1)).Times(1)
	chain.EXPECT().ScheduledWitness(uint32(1)).Return(localWitness).Times(1)
	chain.EXPECT().Witness(localWitness).Return(&ledger.Witness{Account: localWitness, SigningKey: key.PublicKey()}).Times(1)
	chain.EXPECT().ParticipationRate().Return(uint32(10000)).Times(1)
}

func TestProduce(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, key := newProducer(t, ctl, true)
	scheduled(chain, key, slotOne)
	chain.EXPECT().SlotTime(uint32(1)).Return(slotOne).Times(1)
	store.EXPECT().Generate(slotOne, localWitness, key).Return(&protocol.SignedBlock{}, nil).Times(1)

	outcome, err := p.MaybeProduce(now)
	assert.NoError(t, err)
	assert.Equal(t, producer.Produced, outcome)
	assert.Equal(t, producer.Statistics{Produced: 1}, p.Statistics())
}

func TestNotSynced(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, _ := newProducer(t, ctl, false)

	// head is far behind now
	chain.EXPECT().SlotTime(uint32(1)).Return(slotOne.Add(-300)).Times(1)
	store.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	outcome, err := p.MaybeProduce(now)
	assert.NoError(t, err)
	assert.Equal(t, producer.NotSynced, outcome)

	// head caught up, production stays enabled afterwards
	next := slotOne.Add(3)
	chain.EXPECT().SlotTime(uint32(1)).Return(next).Times(1)
	chain.EXPECT().SlotAtTime(slotOne).Return(uint32(0)).Times(2)

	outcome, _ = p.MaybeProduce(now)
	assert.Equal(t, producer.NotTimeYet, outcome)
	outcome, _ = p.MaybeProduce(now)
	assert.Equal(t, producer.NotTimeYet, outcome)
}

func TestNotMyTurn(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, _ := newProducer(t, ctl, true)
	chain.EXPECT().SlotAtTime(slotOne).Return(uint32(1)).Times(1)
	chain.EXPECT().ScheduledWitness(uint32(1)).Return(otherWitness).Times(1)
	store.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	outcome, err := p.MaybeProduce(now)
	assert.NoError(t, err)
	assert.Equal(t, producer.NotMyTurn, outcome)
}

func TestNoPrivateKey(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, _ := newProducer(t, ctl, true)
	other := testKey(t, "other")
	chain.EXPECT().SlotAtTime(slotOne).Return(uint32(1)).Times(1)
	chain.EXPECT().ScheduledWitness(uint32(1)).Return(localWitness).Times(1)
	chain.EXPECT().Witness(localWitness).Return(&ledger.Witness{Account: localWitness, SigningKey: other.PublicKey()}).Times(1)
	store.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	outcome, err := p.MaybeProduce(now)
	assert.NoError(t, err)
	assert.Equal(t, producer.NoPrivateKey, outcome)
}

func TestLowParticipation(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, key := newProducer(t, ctl, true)
	chain.EXPECT().SlotAtTime(slotOne).Return(uint32(1)).Times(1)
	chain.EXPECT().ScheduledWitness(uint32(1)).Return(localWitness).Times(1)
	chain.EXPECT().Witness(localWitness).Return(&ledger.Witness{Account: localWitness, SigningKey: key.PublicKey()}).Times(1)
	chain.EXPECT().ParticipationRate().Return(uint32(1000)).Times(1)
	store.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	outcome, err := p.MaybeProduce(now)
	assert.NoError(t, err)
	assert.Equal(t, producer.LowParticipation, outcome)
}

func TestLag(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, key := newProducer(t, ctl, true)

	// two seconds late for slot one
	late := now.Add(2 * time.Second)
	scheduled(chain, key, slotOne.Add(2))
	chain.EXPECT().SlotTime(uint32(1)).Return(slotOne).Times(1)
	store.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	outcome, err := p.MaybeProduce(late)
	assert.NoError(t, err)
	assert.Equal(t, producer.Lag, outcome)
}

func TestGenerateFails(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	p, chain, store, key := newProducer(t, ctl, true)
	scheduled(chain, key, slotOne)
	chain.EXPECT().SlotTime(uint32(1)).Return(slotOne).Times(1)
	store.EXPECT().Generate(slotOne, localWitness, key).Return(nil, fault.ErrNotInitialised).Times(1)

	outcome, err := p.MaybeProduce(now)
	assert.Equal(t, fault.ErrNotInitialised, err)
	assert.Equal(t, producer.Exception, outcome)
	assert.Equal(t, "Exception", outcome.String())
	assert.Equal(t, producer.Statistics{Missed: 1}, p.Statistics())
}
