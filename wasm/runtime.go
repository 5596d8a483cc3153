// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wasm

import (
	"context"
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/ledger"
)

// the export every contract provides: apply(receiver, code, action)
const applyExport = "apply"

// DefaultCacheSize - compiled modules kept
const DefaultCacheSize = 64

// Runtime - contract host backed by wazero
type Runtime struct {
	sync.Mutex

	log      *logger.L
	runtime  wazero.Runtime
	host     map[string]hostFunction
	compiled *lru.Cache
}

var _ ledger.ContractHost = (*Runtime)(nil)

// New - create a runtime with the host module instantiated
func New(ctx context.Context, cacheSize int) (*Runtime, error) {
	log := logger.New("wasm")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	config := wazero.NewRuntimeConfig().
		WithCoreFeatures(api.CoreFeaturesV2).
		WithMemoryLimitPages(constants.MaxWasmMemoryPages).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, config)

	host := hostFunctions()
	names := make([]string, 0, len(host))
	for name := range host {
		names = append(names, name)
	}
	sort.Strings(names)

	builder := rt.NewHostModuleBuilder(hostModule)
	for _, name := range names {
		f := host[name]
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.goFunction(), f.params, f.results).
			Export(name)
	}
	if _, err := builder.Instantiate(ctx); nil != err {
		rt.Close(ctx)
		return nil, err
	}

	// instances already running keep working after their module is closed
	compiled, err := lru.NewWithEvict(cacheSize, func(_ interface{}, value interface{}) {
		value.(wazero.CompiledModule).Close(context.Background())
	})
	if nil != err {
		rt.Close(ctx)
		return nil, err
	}

	log.Infof("host functions: %d  cache size: %d", len(names), cacheSize)

	return &Runtime{
		log:      log,
		runtime:  rt,
		host:     host,
		compiled: compiled,
	}, nil
}

// Close - release every compiled module and the engine
func (r *Runtime) Close(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()
	r.compiled.Purge()
	return r.runtime.Close(ctx)
}

// Validate - check code before it is stored on chain
func (r *Runtime) Validate(code []byte) error {
	_, err := r.compile(context.Background(), code, sha256.Sum256(code))
	return err
}

// Apply - run the contract's apply for the current action
//
// the call is cut short when ctx is done
func (r *Runtime) Apply(ctx context.Context, code []byte, version [32]byte, chain ledger.ContractContext) error {
	compiled, err := r.compile(ctx, code, version)
	if nil != err {
		return err
	}

	c := &call{ctx: ctx, chain: chain}
	ctx = context.WithValue(ctx, callKey{}, c)

	mod, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if nil != err {
		return c.result(err)
	}
	defer mod.Close(context.Background())

	receiver := uint64(chain.Receiver())
	_, err = mod.ExportedFunction(applyExport).Call(ctx, receiver, receiver, uint64(chain.Method()))
	return c.result(err)
}

// result - the outcome the ledger sees
func (c *call) result(err error) error {
	switch {
	case c.exited:
		return nil
	case nil != c.err:
		return c.err
	case nil == err:
		return nil
	case nil != c.ctx.Err():
		return errors.Wrap(fault.ErrDeadlineReached, err.Error())
	}
	return errors.Wrap(fault.ErrWasmExecution, err.Error())
}

func (r *Runtime) compile(ctx context.Context, code []byte, version [32]byte) (wazero.CompiledModule, error) {
	r.Lock()
	defer r.Unlock()

	if m, ok := r.compiled.Get(version); ok {
		return m.(wazero.CompiledModule), nil
	}

	if err := checkDeterministic(code); nil != err {
		return nil, err
	}
	m, err := r.runtime.CompileModule(ctx, code)
	if nil != err {
		return nil, errors.Wrap(fault.ErrWasmValidation, err.Error())
	}
	if err := r.checkModule(m); nil != err {
		m.Close(ctx)
		return nil, err
	}

	r.compiled.Add(version, m)
	r.log.Debugf("compiled: %x  size: %d", version, len(code))
	return m, nil
}

// checkModule - imports must match the host and apply must exist
func (r *Runtime) checkModule(m wazero.CompiledModule) error {
	for _, def := range m.ImportedFunctions() {
		module, name, _ := def.Import()
		if hostModule != module {
			return invalid("import from unknown module: %q", module)
		}
		f, ok := r.host[name]
		if !ok {
			return invalid("unknown import: %q", name)
		}
		if !sameTypes(f.params, def.ParamTypes()) || !sameTypes(f.results, def.ResultTypes()) {
			return invalid("import: %q signature mismatch", name)
		}
	}

	apply, ok := m.ExportedFunctions()[applyExport]
	if !ok {
		return invalid("missing export: %q", applyExport)
	}
	if !sameTypes(types(i64, i64, i64), apply.ParamTypes()) || 0 != len(apply.ResultTypes()) {
		return invalid("export: %q must be (i64, i64, i64) with no result", applyExport)
	}

	for name, mem := range m.ExportedMemories() {
		if mem.Min() > constants.MaxWasmMemoryPages {
			return invalid("memory: %q initial pages: %d", name, mem.Min())
		}
		if max, ok := mem.Max(); ok && max > constants.MaxWasmMemoryPages {
			return invalid("memory: %q maximum pages: %d", name, max)
		}
	}
	return nil
}

func sameTypes(a []api.ValueType, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
