// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"reflect"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/background"
)

type poolData struct {
	cache *gocache.Cache
}

// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	KnownTransactions    *poolData `exp:"1h"`
	RejectedTransactions *poolData `exp:"10m"`
	TestA                *poolData `exp:"1s"`
	TestB                *poolData
}

type globalDataType struct {
	sync.Mutex
	background *background.T
}

// Pool is the interface to perform CRUD operations on objects stored in memory
var Pool pools
var globalData globalDataType

// Initialise must be called before any operations to Pool
//
// calling it again replaces every pool with an empty one
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	poolType := reflect.TypeOf(Pool)
	poolValue := reflect.ValueOf(&Pool).Elem()

	for i := 0; i < poolType.NumField(); i += 1 {
		exp := gocache.NoExpiration

		fieldInfo := poolType.Field(i)
		expTag := fieldInfo.Tag.Get("exp")
		if len(expTag) > 0 {
			d, err := time.ParseDuration(expTag)
			if nil != err {
				return errors.Wrapf(err, "pool: %s invalid time duration: %q", fieldInfo.Name, expTag)
			}
			exp = d
		}

		// expired items are removed by the cleaner, not a janitor per pool
		p := &poolData{cache: gocache.New(exp, 0)}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	if nil == globalData.background {
		processes := background.Processes{
			&cleaner{},
		}
		globalData.background = background.Start(processes, nil)
	}

	return nil
}

// Finalise stops the expiration check process
func Finalise() {
	globalData.Lock()
	defer globalData.Unlock()

	globalData.background.Stop()
	globalData.background = nil
}

// Put - store with the default expiry of the pool
func (p *poolData) Put(key string, value interface{}) {
	p.cache.Set(key, value, gocache.DefaultExpiration)
}

// Get - an item that has not expired
func (p *poolData) Get(key string) (interface{}, bool) {
	return p.cache.Get(key)
}

// Delete - remove an item
func (p *poolData) Delete(key string) {
	p.cache.Delete(key)
}

// Items - copy of every unexpired item
func (p *poolData) Items() map[string]interface{} {
	items := p.cache.Items()
	m := make(map[string]interface{}, len(items))
	for k, v := range items {
		m[k] = v.Object
	}
	return m
}

// Size - number of items, including expired ones not yet cleaned
func (p *poolData) Size() int {
	return p.cache.ItemCount()
}
