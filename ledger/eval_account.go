// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/pkg/errors"

	"github.com/yoyow-org/yoyowd/account"
	"github.com/yoyow-org/yoyowd/authority"
	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/protocol"
)

// verifyAuthorityAccounts - membership limit and every listed
// account exists
func (db *Database) verifyAuthorityAccounts(a *authority.Authority) error {
	if nil == a {
		return nil
	}
	limit := int(db.params().MaximumAuthorityMembership)
	if a.NumAuths() > limit {
		return errors.Wrapf(fault.ErrTooManyAuthorities, "authorities: %d, maximum: %d", a.NumAuths(), limit)
	}
	for _, u := range a.AccountUIDAuths {
		if nil == db.findAccount(u.Auth.UID) {
			return errors.Wrapf(fault.ErrAccountNotFound, "account: %s in authority", u.Auth.UID)
		}
	}
	return nil
}

// currentRegistrar - the registrar now responsible for an account,
// following a takeover of the original registrar
func (db *Database) currentRegistrar(a *Account) account.UID {
	registrar := a.RegInfo.Registrar
	if t := db.takeoverByOriginal.Find(registrar); nil != t {
		return t.TakeoverRegistrar
	}
	return registrar
}

type accountCreateEvaluator struct {
	*opContext
	op *protocol.AccountCreate
}

func (e *accountCreateEvaluator) evaluate() error {
	op := e.op
	db := e.db

	if !e.payer.IsRegistrar {
		return errors.Wrapf(fault.ErrNotRegistrar, "account: %s", e.payer.UID)
	}
	referrer, err := db.getAccount(op.RegInfo.Referrer)
	if nil != err {
		return err
	}
	if !referrer.IsFullMember {
		return errors.Wrapf(fault.ErrPermissionDenied, "referrer: %s is not a full member", referrer.UID)
	}
	for _, a := range []*authority.Authority{&op.Owner, &op.Active, &op.Secondary} {
		if err := db.verifyAuthorityAccounts(a); nil != err {
			return err
		}
	}
	if nil != db.findAccount(op.UID) {
		return errors.Wrapf(fault.ErrAccountExists, "account: %s", op.UID)
	}
	if nil != db.accountByName.Find(op.Name) {
		return errors.Wrapf(fault.ErrAccountNameExists, "name: %q", op.Name)
	}
	return nil
}

func (e *accountCreateEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db
	now := db.headBlockTime()

	a, err := db.accounts.Create(func(a *Account) {
		a.UID = op.UID
		a.Name = op.Name
		a.Owner = op.Owner.Clone()
		a.Active = op.Active.Clone()
		a.Secondary = op.Secondary.Clone()
		a.MemoKey = op.MemoKey
		a.RegInfo = op.RegInfo
		a.CanPost = true
		a.CanReply = true
		a.CanRate = true
		a.CreateTime = now
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	_, err = db.statistics.Create(func(s *AccountStatistics) {
		s.Owner = op.UID
		s.CanVote = true
		s.AverageCoinsLastUpdate = csafTime(now)
		s.CoinSecondsEarnedLastUpdate = csafTime(now)
	})
	if nil != err {
		return nil, err
	}
	return objectResult(a.ObjectID())
}

type accountManageEvaluator struct {
	*opContext
	op      *protocol.AccountManage
	account *Account
}

func (e *accountManageEvaluator) evaluate() error {
	op := e.op
	a, err := e.db.getAccount(op.Account)
	if nil != err {
		return err
	}
	if e.db.currentRegistrar(a) != op.Executor {
		return errors.Wrapf(fault.ErrNotRegistrar, "account: %s is not managed by: %s", a.UID, op.Executor)
	}
	o := op.Options
	if nil != o.CanPost && *o.CanPost == a.CanPost {
		return errors.Wrap(fault.ErrNoChange, "can_post")
	}
	if nil != o.CanReply && *o.CanReply == a.CanReply {
		return errors.Wrap(fault.ErrNoChange, "can_reply")
	}
	if nil != o.CanRate && *o.CanRate == a.CanRate {
		return errors.Wrap(fault.ErrNoChange, "can_rate")
	}
	e.account = a
	return nil
}

func (e *accountManageEvaluator) apply() (protocol.OperationResult, error) {
	o := e.op.Options
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		if nil != o.CanPost {
			a.CanPost = *o.CanPost
		}
		if nil != o.CanReply {
			a.CanReply = *o.CanReply
		}
		if nil != o.CanRate {
			a.CanRate = *o.CanRate
		}
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountUpdateKeyEvaluator struct {
	*opContext
	op              *protocol.AccountUpdateKey
	account         *Account
	activeWeight    uint16
	secondaryWeight uint16
}

func (e *accountUpdateKeyEvaluator) evaluate() error {
	op := e.op
	a, err := e.db.getAccount(op.UID)
	if nil != err {
		return err
	}
	check := func(auth *authority.Authority, name string) (uint16, error) {
		if auth.ContainsKey(op.NewKey) {
			return 0, errors.Wrapf(fault.ErrKeyExists, "new key already in %s authority", name)
		}
		w, ok := auth.KeyWeightOf(op.OldKey)
		if !ok {
			return 0, errors.Wrapf(fault.ErrKeyNotFound, "old key not in %s authority", name)
		}
		return w, nil
	}
	if op.UpdateActive {
		if e.activeWeight, err = check(&a.Active, "active"); nil != err {
			return err
		}
	}
	if op.UpdateSecondary {
		if e.secondaryWeight, err = check(&a.Secondary, "secondary"); nil != err {
			return err
		}
	}
	e.account = a
	return nil
}

func (e *accountUpdateKeyEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		if op.UpdateActive {
			active := a.Active.Clone()
			active.RemoveKey(op.OldKey)
			active.AddKey(op.NewKey, e.activeWeight)
			a.Active = active
		}
		if op.UpdateSecondary {
			secondary := a.Secondary.Clone()
			secondary.RemoveKey(op.OldKey)
			secondary.AddKey(op.NewKey, e.secondaryWeight)
			a.Secondary = secondary
		}
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountUpdateAuthEvaluator struct {
	*opContext
	op      *protocol.AccountUpdateAuth
	account *Account
}

func (e *accountUpdateAuthEvaluator) evaluate() error {
	op := e.op
	for _, a := range []*authority.Authority{op.Owner, op.Active, op.Secondary} {
		if err := e.db.verifyAuthorityAccounts(a); nil != err {
			return err
		}
	}
	a, err := e.db.getAccount(op.UID)
	if nil != err {
		return err
	}
	e.account = a
	return nil
}

func (e *accountUpdateAuthEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		if nil != op.Owner {
			a.Owner = op.Owner.Clone()
		}
		if nil != op.Active {
			a.Active = op.Active.Clone()
		}
		if nil != op.Secondary {
			a.Secondary = op.Secondary.Clone()
		}
		if nil != op.MemoKey {
			a.MemoKey = *op.MemoKey
		}
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountUpdateProxyEvaluator struct {
	*opContext
	op   *protocol.AccountUpdateProxy
	plan *proxyPlan
}

func (e *accountUpdateProxyEvaluator) evaluate() error {
	plan, err := e.db.planProxyUpdate(e.op.Voter, e.op.Proxy)
	if nil != err {
		return err
	}
	e.plan = plan
	return nil
}

func (e *accountUpdateProxyEvaluator) apply() (protocol.OperationResult, error) {
	if err := e.db.applyProxyUpdate(e.plan); nil != err {
		return nil, err
	}
	return voidResult()
}

type accountAuthPlatformEvaluator struct {
	*opContext
	op       *protocol.AccountAuthPlatform
	account  *Account
	existing *AccountAuthPlatform
}

func (e *accountAuthPlatformEvaluator) evaluate() error {
	op := e.op
	db := e.db

	a, err := db.getAccount(op.UID)
	if nil != err {
		return err
	}
	if _, err := db.getPlatform(op.Platform); nil != err {
		return err
	}
	e.existing = db.findAuthPlatform(op.UID, op.Platform)
	if !a.Secondary.ContainsAccount(op.Platform) {
		limit := int(db.params().MaximumAuthorityMembership)
		if a.Secondary.NumAuths() >= limit {
			return errors.Wrapf(fault.ErrTooManyAuthorities, "secondary authority of: %s has %d entries", op.UID, a.Secondary.NumAuths())
		}
	}
	e.account = a
	return nil
}

func (e *accountAuthPlatformEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	db := e.db

	limit := op.Extensions.Limit()
	flags := protocol.PlatformPermissionAll
	memo := ""
	if ext := op.Extensions; nil != ext {
		if nil != ext.PermissionFlags {
			flags = *ext.PermissionFlags
		}
		if nil != ext.Memo {
			memo = *ext.Memo
		}
	}

	now := db.headBlockTime()
	err := db.accounts.Modify(e.account, func(a *Account) {
		secondary := a.Secondary.Clone()
		secondary.AddAccount(op.Platform, authority.Secondary, uint16(secondary.WeightThreshold))
		a.Secondary = secondary
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}

	if nil != e.existing {
		err = db.authPlatforms.Modify(e.existing, func(p *AccountAuthPlatform) {
			p.LimitForPlatform = limit
			p.PermissionFlags = flags
			p.Memo = memo
		})
	} else {
		_, err = db.authPlatforms.Create(func(p *AccountAuthPlatform) {
			p.Account = op.UID
			p.Platform = op.Platform
			p.LimitForPlatform = limit
			p.PermissionFlags = flags
			p.Memo = memo
		})
	}
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountCancelAuthPlatformEvaluator struct {
	*opContext
	op        *protocol.AccountCancelAuthPlatform
	account   *Account
	auth      *AccountAuthPlatform
	secondary authority.Authority
}

func (e *accountCancelAuthPlatformEvaluator) evaluate() error {
	op := e.op
	a, err := e.db.getAccount(op.UID)
	if nil != err {
		return err
	}
	e.auth = e.db.findAuthPlatform(op.UID, op.Platform)
	secondary := a.Secondary.Clone()
	if !secondary.RemoveAccount(op.Platform) && nil == e.auth {
		return errors.Wrapf(fault.ErrPlatformNotFound, "platform: %s not authorised by: %s", op.Platform, op.UID)
	}
	if secondary.IsImpossible() {
		return errors.Wrapf(fault.ErrImpossibleAuthority, "secondary authority of: %s without platform: %s", op.UID, op.Platform)
	}
	e.account = a
	e.secondary = secondary
	return nil
}

func (e *accountCancelAuthPlatformEvaluator) apply() (protocol.OperationResult, error) {
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		a.Secondary = e.secondary
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	if nil != e.auth {
		e.db.authPlatforms.Remove(e.auth)
	}
	return voidResult()
}

type accountEnableAllowedAssetsEvaluator struct {
	*opContext
	op      *protocol.AccountEnableAllowedAssets
	account *Account
}

func (e *accountEnableAllowedAssetsEvaluator) evaluate() error {
	a, err := e.db.getAccount(e.op.Account)
	if nil != err {
		return err
	}
	if e.op.Enable == (nil != a.AllowedAssets) {
		return errors.Wrapf(fault.ErrNoChange, "account: %s allowed assets enabled: %t", a.UID, e.op.Enable)
	}
	e.account = a
	return nil
}

func (e *accountEnableAllowedAssetsEvaluator) apply() (protocol.OperationResult, error) {
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		if e.op.Enable {
			a.AllowedAssets = map[protocol.AssetAID]struct{}{0: {}}
		} else {
			a.AllowedAssets = nil
		}
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountUpdateAllowedAssetsEvaluator struct {
	*opContext
	op      *protocol.AccountUpdateAllowedAssets
	account *Account
}

func (e *accountUpdateAllowedAssetsEvaluator) evaluate() error {
	op := e.op
	a, err := e.db.getAccount(op.Account)
	if nil != err {
		return err
	}
	if nil == a.AllowedAssets {
		return errors.Wrapf(fault.ErrOperationNotEnabled, "account: %s has no allowed asset list", a.UID)
	}
	for _, aid := range op.AssetsToAdd {
		if _, err := e.db.getAsset(aid); nil != err {
			return err
		}
		if _, ok := a.AllowedAssets[aid]; ok {
			return errors.Wrapf(fault.ErrNoChange, "asset: %d already allowed", aid)
		}
	}
	for _, aid := range op.AssetsToRemove {
		if protocol.AssetAID(0) == aid {
			return errors.Wrap(fault.ErrInvalidParameter, "core asset can not be removed")
		}
		if _, ok := a.AllowedAssets[aid]; !ok {
			return errors.Wrapf(fault.ErrAssetNotFound, "asset: %d not in allowed list", aid)
		}
	}
	e.account = a
	return nil
}

func (e *accountUpdateAllowedAssetsEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	now := e.db.headBlockTime()
	err := e.db.accounts.Modify(e.account, func(a *Account) {
		for _, aid := range op.AssetsToRemove {
			delete(a.AllowedAssets, aid)
		}
		for _, aid := range op.AssetsToAdd {
			a.AllowedAssets[aid] = struct{}{}
		}
		a.LastUpdateTime = now
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}

type accountWhitelistEvaluator struct {
	*opContext
	op     *protocol.AccountWhitelist
	listed *Account
}

func (e *accountWhitelistEvaluator) evaluate() error {
	a, err := e.db.getAccount(e.op.AccountToList)
	if nil != err {
		return err
	}
	e.listed = a
	return nil
}

func setMember(m map[account.UID]struct{}, uid account.UID, member bool) map[account.UID]struct{} {
	if member {
		if nil == m {
			m = make(map[account.UID]struct{})
		}
		m[uid] = struct{}{}
	} else {
		delete(m, uid)
	}
	return m
}

func (e *accountWhitelistEvaluator) apply() (protocol.OperationResult, error) {
	op := e.op
	white := 0 != op.NewListing&protocol.WhiteListed
	black := 0 != op.NewListing&protocol.BlackListed

	err := e.db.accounts.Modify(e.listed, func(a *Account) {
		a.WhitelistingAccounts = setMember(a.WhitelistingAccounts, op.AuthorizingAccount, white)
		a.BlacklistingAccounts = setMember(a.BlacklistingAccounts, op.AuthorizingAccount, black)
	})
	if nil != err {
		return nil, err
	}

	// tracking only
	err = e.db.accounts.Modify(e.payer, func(a *Account) {
		a.WhitelistedAccounts = setMember(a.WhitelistedAccounts, op.AccountToList, white)
		a.BlacklistedAccounts = setMember(a.BlacklistedAccounts, op.AccountToList, black)
	})
	if nil != err {
		return nil, err
	}
	return voidResult()
}
