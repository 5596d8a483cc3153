// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/constants"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
	"github.com/yoyow-org/yoyowd/protocol"
)

// ContractHost - runs contract code
type ContractHost interface {
	// Validate - reject code that cannot run deterministically
	Validate(code []byte) error

	// Apply - run the apply export of the code for the current
	// action; ctx carries the cpu deadline
	Apply(ctx context.Context, code []byte, version [32]byte, c ContractContext) error
}

// ContractContext - the chain as seen by a running contract
//
// iterators follow the usual convention: a non-negative value is a
// row, -1 is invalid and values below -1 are table end positions
type ContractContext interface {
	Receiver() account.UID
	Sender() account.UID
	Origin() account.UID
	Method() protocol.Name
	ActionData() []byte
	ActionAmount() protocol.Asset

	HeadBlockNum() uint32
	HeadBlockID() protocol.BlockID
	BlockIDForNum(n uint32) (protocol.BlockID, bool)
	HeadBlockTime() protocol.Timestamp
	AccountName(uid account.UID) (string, bool)
	AccountUID(name string) (account.UID, bool)
	AssetAID(symbol string) (protocol.AssetAID, bool)

	Balance(uid account.UID, aid protocol.AssetAID) int64
	WithdrawAsset(from account.UID, to account.UID, aid protocol.AssetAID, amount int64) error
	InlineTransfer(from account.UID, to account.UID, aid protocol.AssetAID, amount int64, memo string) error
	SendInline(packed []byte) error
	Console(s string)

	Store(scope uint64, table uint64, payer account.UID, id uint64, value []byte) (int, error)
	Update(iterator int, payer account.UID, value []byte) error
	Remove(iterator int) error
	Get(iterator int) ([]byte, error)
	Next(iterator int) (int, uint64, error)
	Previous(iterator int) (int, uint64, error)
	Find(code account.UID, scope uint64, table uint64, id uint64) int
	LowerBound(code account.UID, scope uint64, table uint64, id uint64) int
	UpperBound(code account.UID, scope uint64, table uint64, id uint64) int
	End(code account.UID, scope uint64, table uint64) int
}

// contractTrx - state shared by every action of one contract call
type contractTrx struct {
	trx      *trxContext
	ctx      context.Context
	origin   account.UID
	start    time.Time
	inlineOp int
}

// update the ram usage of an account for settlement after the call
func (t *contractTrx) addRAM(payer account.UID, delta int64) {
	if nil == t.trx.ram {
		t.trx.ram = make(map[account.UID]int64)
	}
	t.trx.ram[payer] += delta
}

// contractAction - one call of a contract method
type contractAction struct {
	sender   account.UID
	contract account.UID
	amount   protocol.Asset
	method   protocol.Name
	data     []byte
}

// applyContext - a single action being run
type applyContext struct {
	db      *Database
	t       *contractTrx
	act     contractAction
	depth   int
	inline  []*protocol.InterContractCall
	console strings.Builder
	cache   iteratorCache
}

func newApplyContext(db *Database, t *contractTrx, act contractAction, depth int) *applyContext {
	return &applyContext{
		db:    db,
		t:     t,
		act:   act,
		depth: depth,
		cache: iteratorCache{tableEnd: make(map[objectdb.ID]int)},
	}
}

// exec - move any attached amount, run the code, then the inline
// actions it queued
func (c *applyContext) exec() error {
	db := c.db
	if c.act.amount.Amount > 0 {
		if err := db.adjustBalance(c.act.sender, c.act.amount.Negate()); nil != err {
			return err
		}
		if err := db.adjustBalance(c.act.contract, c.act.amount); nil != err {
			return err
		}
	}

	if err := c.execOne(); nil != err {
		return err
	}

	for _, op := range c.inline {
		if err := db.applyInline(c.t, op, c.depth+1); nil != err {
			return err
		}
	}
	return nil
}

func (c *applyContext) execOne() error {
	db := c.db
	if nil == db.contracts {
		return errors.Wrap(fault.ErrOperationNotEnabled, "contracts are disabled")
	}
	contract, err := db.getAccount(c.act.contract)
	if nil != err {
		return err
	}
	if !contract.IsContract() {
		return errors.Wrapf(fault.ErrContractNotFound, "account: %s has no code", c.act.contract)
	}

	start := time.Now()
	err = db.contracts.Apply(c.t.ctx, contract.Code, contract.CodeVersion, c)
	if 0 != c.console.Len() {
		db.log.Debugf("[(%s,%s)->%s] console: %s", c.act.sender, c.act.method, c.act.contract, c.console.String())
	}
	db.log.Debugf("[(%s,%s)->%s] elapsed: %s", c.act.sender, c.act.method, c.act.contract, time.Since(start))
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) || nil != c.t.ctx.Err() {
			return errors.Wrapf(fault.ErrDeadlineReached, "contract: %s method: %s", c.act.contract, c.act.method)
		}
		return errors.Wrapf(err, "contract: %s method: %s", c.act.contract, c.act.method)
	}
	return nil
}

// applyInline - run an action queued by a contract as an operation
// of its own, fee amounts are not compared with the schedule
func (db *Database) applyInline(t *contractTrx, op *protocol.InterContractCall, depth int) error {
	inner := &trxContext{
		trx:          t.trx.trx,
		skipFeeCheck: true,
		contract:     t,
		inlineDepth:  depth,
	}
	_, err := db.applyOperation(inner, op)
	return err
}

// action accessors

func (c *applyContext) Receiver() account.UID        { return c.act.contract }
func (c *applyContext) Sender() account.UID          { return c.act.sender }
func (c *applyContext) Origin() account.UID          { return c.t.origin }
func (c *applyContext) Method() protocol.Name        { return c.act.method }
func (c *applyContext) ActionData() []byte           { return c.act.data }
func (c *applyContext) ActionAmount() protocol.Asset { return c.act.amount }

// chain accessors

func (c *applyContext) HeadBlockNum() uint32              { return c.db.headBlockNum() }
func (c *applyContext) HeadBlockID() protocol.BlockID     { return c.db.dgp().HeadBlockID }
func (c *applyContext) HeadBlockTime() protocol.Timestamp { return c.db.headBlockTime() }

func (c *applyContext) BlockIDForNum(n uint32) (protocol.BlockID, bool) {
	return c.db.blockIDForNum(n)
}

func (c *applyContext) AccountName(uid account.UID) (string, bool) {
	a := c.db.findAccount(uid)
	if nil == a {
		return "", false
	}
	return a.Name, true
}

func (c *applyContext) AccountUID(name string) (account.UID, bool) {
	a := c.db.accountByName.Find(name)
	if nil == a {
		return 0, false
	}
	return a.UID, true
}

func (c *applyContext) AssetAID(symbol string) (protocol.AssetAID, bool) {
	a := c.db.assetBySymbol.Find(symbol)
	if nil == a {
		return 0, false
	}
	return a.AssetID, true
}

func (c *applyContext) Balance(uid account.UID, aid protocol.AssetAID) int64 {
	return c.db.balanceOf(uid, aid)
}

func (c *applyContext) Console(s string) {
	c.console.WriteString(s)
}

// assets

// WithdrawAsset - a contract pays out of its own balance
func (c *applyContext) WithdrawAsset(from account.UID, to account.UID, aid protocol.AssetAID, amount int64) error {
	return c.transfer(from, to, aid, amount)
}

// InlineTransfer - as WithdrawAsset, the memo is only logged
func (c *applyContext) InlineTransfer(from account.UID, to account.UID, aid protocol.AssetAID, amount int64, memo string) error {
	if err := c.transfer(from, to, aid, amount); nil != err {
		return err
	}
	c.db.log.Debugf("contract: %s transfer: %d of: %d to: %s memo: %q", from, amount, aid, to, memo)
	return nil
}

func (c *applyContext) transfer(from account.UID, to account.UID, aid protocol.AssetAID, amount int64) error {
	db := c.db
	if from != c.act.contract {
		return errors.Wrapf(fault.ErrPermissionDenied, "contract: %s cannot move funds of: %s", c.act.contract, from)
	}
	if amount <= 0 {
		return errors.Wrapf(fault.ErrInvalidAmount, "amount: %d", amount)
	}
	asset, err := db.getAsset(aid)
	if nil != err {
		return err
	}
	receiver, err := db.getAccount(to)
	if nil != err {
		return err
	}
	if !db.isAuthorizedAsset(receiver, asset) {
		return errors.Wrapf(fault.ErrAllowedAssetsRejected, "account: %s asset: %s", to, asset.Symbol)
	}
	if err := db.adjustBalance(from, asset.Amount(-amount)); nil != err {
		return err
	}
	return db.adjustBalance(to, asset.Amount(amount))
}

// SendInline - queue a call to run once this action returns
func (c *applyContext) SendInline(packed []byte) error {
	var a protocol.InlineAction
	if err := protocol.Packed(packed).UnpackAll(&a); nil != err {
		return err
	}
	if a.Sender != c.act.contract {
		return errors.Wrapf(fault.ErrWrongInlineSender, "sender: %s receiver: %s", a.Sender, c.act.contract)
	}
	if len(a.Data) > constants.MaxActionDataSize {
		return errors.Wrapf(fault.ErrInvalidLength, "inline action data: %d bytes", len(a.Data))
	}
	op := &protocol.InterContractCall{
		SenderContract: a.Sender,
		ContractID:     a.ContractID,
		MethodName:     a.MethodName,
		Data:           a.Data,
	}
	if a.Amount.Amount > 0 {
		op.Amount = &protocol.Asset{Amount: a.Amount.Amount, AssetID: protocol.AssetAID(a.Amount.AssetID)}
	}
	c.inline = append(c.inline, op)
	return nil
}

// tables

// checkPayer - zero means the receiver pays
func (c *applyContext) checkPayer(payer account.UID) (account.UID, error) {
	switch payer {
	case 0:
		return c.act.contract, nil
	case c.act.sender, c.t.origin, c.act.contract:
		return payer, nil
	}
	return 0, errors.Wrapf(fault.ErrPayerPermission, "payer: %s sender: %s origin: %s receiver: %s", payer, c.act.sender, c.t.origin, c.act.contract)
}

func (c *applyContext) findTable(code account.UID, scope uint64, table uint64) *TableID {
	return c.db.tableIDByKey.Find(objectdb.Key(code, scope, table))
}

func (c *applyContext) findOrCreateTable(scope uint64, table uint64, payer account.UID) (*TableID, error) {
	if t := c.findTable(c.act.contract, scope, table); nil != t {
		return t, nil
	}
	c.t.addRAM(payer, constants.TableIDBillableSize)
	return c.db.tableIDs.Create(func(t *TableID) {
		t.Code = c.act.contract
		t.Scope = scope
		t.Table = table
		t.Payer = payer
	})
}

func rowSize(value []byte) int64 {
	return int64(len(value)) + constants.KeyValueBillableSize
}

func (c *applyContext) Store(scope uint64, table uint64, payer account.UID, id uint64, value []byte) (int, error) {
	db := c.db
	payer, err := c.checkPayer(payer)
	if nil != err {
		return -1, err
	}
	t, err := c.findOrCreateTable(scope, table, payer)
	if nil != err {
		return -1, err
	}
	row, err := db.keyValues.Create(func(kv *KeyValue) {
		kv.TableID = t.ObjectID()
		kv.PrimaryKey = id
		kv.Payer = payer
		kv.Value = append([]byte(nil), value...)
	})
	if nil != err {
		if errors.Is(err, fault.ErrDuplicateIndexKey) {
			return -1, errors.Wrapf(fault.ErrRowExists, "table: %d primary key: %d", table, id)
		}
		return -1, err
	}
	c.t.addRAM(payer, rowSize(value))
	db.tableIDs.Modify(t, func(t *TableID) {
		t.Count += 1
	})
	c.cache.cacheTable(t)
	return c.cache.add(row), nil
}

func (c *applyContext) Update(iterator int, payer account.UID, value []byte) error {
	db := c.db
	payer, err := c.checkPayer(payer)
	if nil != err {
		return err
	}
	row, err := c.cache.get(iterator)
	if nil != err {
		return err
	}
	t := c.cache.table(row.TableID)
	if nil == t || t.Code != c.act.contract {
		return errors.Wrapf(fault.ErrTableAccessViolation, "receiver: %s", c.act.contract)
	}

	oldSize := rowSize(row.Value)
	newSize := rowSize(value)
	if row.Payer != payer {
		c.t.addRAM(row.Payer, -oldSize)
		c.t.addRAM(payer, newSize)
	} else if oldSize != newSize {
		c.t.addRAM(payer, newSize-oldSize)
	}
	return db.keyValues.Modify(row, func(kv *KeyValue) {
		kv.Value = append([]byte(nil), value...)
		kv.Payer = payer
	})
}

func (c *applyContext) Remove(iterator int) error {
	db := c.db
	row, err := c.cache.get(iterator)
	if nil != err {
		return err
	}
	t := c.cache.table(row.TableID)
	if nil == t || t.Code != c.act.contract {
		return errors.Wrapf(fault.ErrTableAccessViolation, "receiver: %s", c.act.contract)
	}
	c.t.addRAM(row.Payer, -rowSize(row.Value))
	db.tableIDs.Modify(t, func(t *TableID) {
		t.Count -= 1
	})
	db.keyValues.Remove(row)
	c.cache.remove(iterator)
	return nil
}

func (c *applyContext) Get(iterator int) ([]byte, error) {
	row, err := c.cache.get(iterator)
	if nil != err {
		return nil, err
	}
	return row.Value, nil
}

func (c *applyContext) Next(iterator int) (int, uint64, error) {
	if iterator < -1 {
		// cannot move past the end
		return -1, 0, nil
	}
	row, err := c.cache.get(iterator)
	if nil != err {
		return -1, 0, err
	}
	it := c.db.keyValueByKey.UpperBound(objectdb.Key(uint64(row.TableID), row.PrimaryKey))
	if !it.Valid() || it.Value().TableID != row.TableID {
		return c.cache.endOf(row.TableID), 0, nil
	}
	next := it.Value()
	return c.cache.add(next), next.PrimaryKey, nil
}

func (c *applyContext) Previous(iterator int) (int, uint64, error) {
	index := c.db.keyValueByKey
	if iterator < -1 {
		t := c.cache.tableOfEnd(iterator)
		if nil == t {
			return -1, 0, errors.Wrapf(fault.ErrInvalidIterator, "end iterator: %d", iterator)
		}
		it := index.LowerBound(objectdb.Key(uint64(t.ObjectID()), objectdb.Max))
		if it.Valid() {
			it.Prev()
		} else {
			it = index.Last()
		}
		if !it.Valid() || it.Value().TableID != t.ObjectID() {
			return -1, 0, nil
		}
		prev := it.Value()
		return c.cache.add(prev), prev.PrimaryKey, nil
	}

	row, err := c.cache.get(iterator)
	if nil != err {
		return -1, 0, err
	}
	it := index.LowerBound(objectdb.Key(uint64(row.TableID), row.PrimaryKey))
	if !it.Valid() {
		return -1, 0, nil
	}
	it.Prev()
	if !it.Valid() || it.Value().TableID != row.TableID {
		return -1, 0, nil
	}
	prev := it.Value()
	return c.cache.add(prev), prev.PrimaryKey, nil
}

func (c *applyContext) Find(code account.UID, scope uint64, table uint64, id uint64) int {
	t := c.findTable(code, scope, table)
	if nil == t {
		return -1
	}
	end := c.cache.cacheTable(t)
	row := c.db.keyValueByKey.Find(objectdb.Key(uint64(t.ObjectID()), id))
	if nil == row {
		return end
	}
	return c.cache.add(row)
}

func (c *applyContext) LowerBound(code account.UID, scope uint64, table uint64, id uint64) int {
	t := c.findTable(code, scope, table)
	if nil == t {
		return -1
	}
	end := c.cache.cacheTable(t)
	it := c.db.keyValueByKey.LowerBound(objectdb.Key(uint64(t.ObjectID()), id))
	if !it.Valid() || it.Value().TableID != t.ObjectID() {
		return end
	}
	return c.cache.add(it.Value())
}

func (c *applyContext) UpperBound(code account.UID, scope uint64, table uint64, id uint64) int {
	t := c.findTable(code, scope, table)
	if nil == t {
		return -1
	}
	end := c.cache.cacheTable(t)
	it := c.db.keyValueByKey.UpperBound(objectdb.Key(uint64(t.ObjectID()), id))
	if !it.Valid() || it.Value().TableID != t.ObjectID() {
		return end
	}
	return c.cache.add(it.Value())
}

func (c *applyContext) End(code account.UID, scope uint64, table uint64) int {
	t := c.findTable(code, scope, table)
	if nil == t {
		return -1
	}
	return c.cache.cacheTable(t)
}

// iteratorCache - maps the integers a contract holds to rows
//
// the end position of the i-th table seen is -(i+2)
type iteratorCache struct {
	tables   []*TableID
	tableEnd map[objectdb.ID]int
	rows     []*KeyValue
}

func (ic *iteratorCache) cacheTable(t *TableID) int {
	if end, ok := ic.tableEnd[t.ObjectID()]; ok {
		return end
	}
	ic.tables = append(ic.tables, t)
	end := -(len(ic.tables) + 1)
	ic.tableEnd[t.ObjectID()] = end
	return end
}

func (ic *iteratorCache) table(id objectdb.ID) *TableID {
	end, ok := ic.tableEnd[id]
	if !ok {
		return nil
	}
	return ic.tables[-end-2]
}

func (ic *iteratorCache) tableOfEnd(end int) *TableID {
	i := -end - 2
	if i < 0 || i >= len(ic.tables) {
		return nil
	}
	return ic.tables[i]
}

func (ic *iteratorCache) endOf(id objectdb.ID) int {
	end, ok := ic.tableEnd[id]
	if !ok {
		return -1
	}
	return end
}

func (ic *iteratorCache) add(row *KeyValue) int {
	for i, r := range ic.rows {
		if r == row {
			return i
		}
	}
	ic.rows = append(ic.rows, row)
	return len(ic.rows) - 1
}

func (ic *iteratorCache) get(iterator int) (*KeyValue, error) {
	if iterator < 0 || iterator >= len(ic.rows) || nil == ic.rows[iterator] {
		return nil, errors.Wrapf(fault.ErrInvalidIterator, "iterator: %d", iterator)
	}
	return ic.rows[iterator], nil
}

func (ic *iteratorCache) remove(iterator int) {
	ic.rows[iterator] = nil
}
