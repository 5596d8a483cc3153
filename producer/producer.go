// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package producer - generate blocks in the slots of local witnesses
package producer

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/counter"
	"github.com/yoyow-org/yoyowd/keypair"
	"github.com/yoyow-org/yoyowd/mode"
	"github.com/yoyow-org/yoyowd/protocol"
)

// DefaultRequiredParticipation - per 10000 of recent slots filled
const DefaultRequiredParticipation = 33 * constants.OnePercent

// a slot more than this far from now is skipped
const maximumLag = 500 * time.Millisecond

// shortest wait between two checks
const minimumDelay = 50 * time.Millisecond

// Outcome - what one check decided
type Outcome int

// outcomes of a check
const (
	Produced Outcome = iota
	NotSynced
	NotMyTurn
	NotTimeYet
	NoPrivateKey
	LowParticipation
	Lag
	Exception
)

func (o Outcome) String() string {
	switch o {
	case Produced:
		return "Produced"
	case NotSynced:
		return "NotSynced"
	case NotMyTurn:
		return "NotMyTurn"
	case NotTimeYet:
		return "NotTimeYet"
	case NoPrivateKey:
		return "NoPrivateKey"
	case LowParticipation:
		return "LowParticipation"
	case Lag:
		return "Lag"
	case Exception:
		return "Exception"
	default:
		return "*Unknown*"
	}
}

// Options - from the producer section of the configuration
type Options struct {
	Witnesses             map[account.UID]*keypair.PrivateKey
	EnableStaleProduction bool
	RequiredParticipation uint32
}

// Producer - background process checking each second for a slot
type Producer struct {
	sync.Mutex

	log      *logger.L
	chain    Chain
	store    BlockStore
	keys     map[account.UID]*keypair.PrivateKey
	required uint32
	enabled  bool

	produced counter.Counter
	missed   counter.Counter
}

// Statistics - blocks produced and local slots that were not filled
type Statistics struct {
	Produced uint64
	Missed   uint64
}

// New - a producer for the configured witnesses
func New(options Options, chain Chain, store BlockStore) *Producer {
	keys := make(map[account.UID]*keypair.PrivateKey, len(options.Witnesses))
	for uid, key := range options.Witnesses {
		keys[uid] = key
	}
	return &Producer{
		log:      logger.New("producer"),
		chain:    chain,
		store:    store,
		keys:     keys,
		required: options.RequiredParticipation,
		enabled:  options.EnableStaleProduction,
	}
}

// Run - background process
func (p *Producer) Run(args interface{}, shutdown <-chan struct{}) {
	log := p.log
	log.Infof("starting…  witnesses: %d", len(p.keys))

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(nextDelay(time.Now())):
		}

		if mode.IsNot(mode.Normal) {
			continue loop
		}

		outcome, err := p.MaybeProduce(time.Now())
		switch outcome {
		case Produced, NotMyTurn, NotTimeYet:
		case Exception:
			log.Errorf("generate error: %s", err)
		default:
			log.Debugf("not producing: %s", outcome)
		}
	}

	st := p.Statistics()
	log.Infof("shutting down…  produced: %d  missed: %d", st.Produced, st.Missed)
	log.Flush()
}

// Statistics - counts since the producer was created
func (p *Producer) Statistics() Statistics {
	return Statistics{
		Produced: p.produced.Uint64(),
		Missed:   p.missed.Uint64(),
	}
}

// wait until just after the next whole second
func nextDelay(now time.Time) time.Duration {
	delay := time.Second - time.Duration(now.Nanosecond())
	if delay < minimumDelay {
		delay += time.Second
	}
	return delay
}

// MaybeProduce - generate a block if now is the slot of a local
// witness
//
// production stays off until the head is recent enough unless stale
// production is enabled
func (p *Producer) MaybeProduce(now time.Time) (Outcome, error) {
	p.Lock()
	defer p.Unlock()

	t := protocol.Timestamp(now.Add(maximumLag).Unix())

	if !p.enabled {
		if p.chain.SlotTime(1) < t {
			return NotSynced, nil
		}
		p.enabled = true
	}

	slot := p.chain.SlotAtTime(t)
	if 0 == slot {
		return NotTimeYet, nil
	}

	witness := p.chain.ScheduledWitness(slot)
	key, ok := p.keys[witness]
	if !ok {
		return NotMyTurn, nil
	}

	w := p.chain.Witness(witness)
	if nil == w || w.SigningKey != key.PublicKey() {
		p.log.Warnf("witness: %s  signing key is not configured", witness)
		p.missed.Increment()
		return NoPrivateKey, nil
	}

	if rate := p.chain.ParticipationRate(); rate < p.required {
		p.log.Warnf("participation: %d below: %d", rate, p.required)
		p.missed.Increment()
		return LowParticipation, nil
	}

	scheduled := p.chain.SlotTime(slot)
	lag := now.Sub(scheduled.Time())
	if lag < 0 {
		lag = -lag
	}
	if lag > maximumLag {
		p.log.Warnf("slot: %s  lag: %s", scheduled, lag)
		p.missed.Increment()
		return Lag, nil
	}

	b, err := p.store.Generate(scheduled, witness, key)
	if nil != err {
		p.missed.Increment()
		return Exception, err
	}
	p.produced.Increment()
	p.log.Infof("produced block: %d  witness: %s  slot: %s", b.BlockNum(), witness, scheduled)
	return Produced, nil
}
