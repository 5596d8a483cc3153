// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyowd/fault"
	"github.com/yoyow-org/yoyowd/objectdb"
)

type person struct {
	objectdb.Base
	Name  string
	Group uint32
	Score int64
	Tags  []string
}

func (p *person) DeepCopy() {
	p.Tags = append([]string(nil), p.Tags...)
}

type fixture struct {
	db      *objectdb.Database
	people  *objectdb.Table[person, *person]
	byName  *objectdb.UniqueIndex[string, person, *person]
	byScore *objectdb.OrderedIndex[person, *person]
}

func setup() *fixture {
	db := objectdb.New()
	people := objectdb.NewTable[person, *person](db, objectdb.ProtocolSpace, 2)
	return &fixture{
		db:     db,
		people: people,
		byName: objectdb.NewUniqueIndex(people, func(p *person) string { return p.Name }),
		byScore: objectdb.NewOrderedIndex(people, false, func(p *person) objectdb.Tuple {
			return objectdb.Key(p.Group, objectdb.Desc(p.Score))
		}),
	}
}

func (f *fixture) add(t *testing.T, name string, group uint32, score int64) *person {
	p, err := f.people.Create(func(p *person) {
		p.Name = name
		p.Group = group
		p.Score = score
	})
	require.NoError(t, err, "create: %s", name)
	return p
}

func names(list []*person) []string {
	n := []string{}
	for _, p := range list {
		n = append(n, p.Name)
	}
	return n
}

func TestIDParts(t *testing.T) {
	id := objectdb.NewID(objectdb.ImplementationSpace, 5, 1234)
	assert.Equal(t, uint8(2), id.Space(), "space")
	assert.Equal(t, uint8(5), id.Type(), "type")
	assert.Equal(t, uint64(1234), id.Instance(), "instance")
	assert.Equal(t, "2.5.1234", id.String(), "string")
}

func TestCreateModifyRemove(t *testing.T) {
	f := setup()

	alice := f.add(t, "alice", 1, 10)
	bob := f.add(t, "bob", 1, 20)
	assert.Equal(t, uint64(0), alice.ObjectID().Instance(), "first instance")
	assert.Equal(t, uint64(1), bob.ObjectID().Instance(), "second instance")
	assert.Equal(t, 2, f.people.Count(), "count")

	err := f.people.Modify(alice, func(p *person) { p.Score = 30 })
	require.NoError(t, err, "modify")
	assert.Equal(t, []string{"alice", "bob"}, names(f.byScore.Prefix(uint32(1))), "descending score order")

	got, err := f.people.Get(bob.ObjectID())
	require.NoError(t, err, "get")
	assert.Equal(t, bob, got, "same object")

	f.people.Remove(bob)
	_, err = f.people.Get(bob.ObjectID())
	assert.Equal(t, fault.ErrObjectNotFound, err, "removed")
	assert.Nil(t, f.byName.Find("bob"), "removed from unique index")
}

func TestUniqueViolation(t *testing.T) {
	f := setup()

	f.add(t, "alice", 1, 10)
	bob := f.add(t, "bob", 1, 20)

	_, err := f.people.Create(func(p *person) { p.Name = "alice" })
	assert.Equal(t, fault.ErrDuplicateIndexKey, err, "create duplicate")
	assert.Equal(t, 2, f.people.Count(), "count after failed create")

	err = f.people.Modify(bob, func(p *person) {
		p.Name = "alice"
		p.Score = 99
	})
	assert.Equal(t, fault.ErrDuplicateIndexKey, err, "modify duplicate")
	assert.Equal(t, "bob", bob.Name, "name restored")
	assert.Equal(t, int64(20), bob.Score, "score restored")
	assert.Equal(t, bob, f.byName.Find("bob"), "index restored")
}

func TestUndoExactness(t *testing.T) {
	f := setup()

	alice := f.add(t, "alice", 1, 10)
	bob := f.add(t, "bob", 2, 20)
	alice.Tags = []string{"x"}

	session := f.db.StartSession(false)
	carol := f.add(t, "carol", 1, 5)
	err := f.people.Modify(alice, func(p *person) {
		p.Score = 50
		p.Tags[0] = "changed"
		p.Name = "alicia"
	})
	require.NoError(t, err, "modify")
	f.people.Remove(bob)
	f.people.Modify(carol, func(p *person) { p.Score = 6 })
	session.Undo()

	assert.Equal(t, 2, f.people.Count(), "count")
	assert.Nil(t, f.people.Find(carol.ObjectID()), "created object removed")
	assert.Equal(t, "alice", alice.Name, "name")
	assert.Equal(t, int64(10), alice.Score, "score")
	assert.Equal(t, []string{"x"}, alice.Tags, "deep copied slice")
	assert.Equal(t, alice, f.byName.Find("alice"), "unique index")
	assert.Nil(t, f.byName.Find("alicia"), "stale key")

	restored := f.byName.Find("bob")
	require.NotNil(t, restored, "bob restored")
	assert.Equal(t, bob.ObjectID(), restored.ObjectID(), "same id")
	assert.Equal(t, []string{"bob"}, names(f.byScore.Prefix(uint32(2))), "ordered index")

	assert.Equal(t, uint64(2), f.people.NextID().Instance(), "next instance restored")
}

func TestUndoAfterCommitIsNoop(t *testing.T) {
	f := setup()

	s := f.db.StartSession(false)
	f.add(t, "alice", 1, 10)
	s.Commit()
	s.Undo()
	assert.Equal(t, 1, f.people.Count(), "still present")
	assert.Equal(t, 1, f.db.Size(), "state kept")

	err := f.db.Undo()
	require.NoError(t, err, "database undo")
	assert.Equal(t, 0, f.people.Count(), "reverted by database undo")

	err = f.db.Undo()
	assert.Equal(t, fault.ErrUndoStackEmpty, err, "empty stack")
}

func TestMerge(t *testing.T) {
	f := setup()

	alice := f.add(t, "alice", 1, 10)

	outer := f.db.StartSession(false)
	f.people.Modify(alice, func(p *person) { p.Score = 11 })

	inner := f.db.StartSession(false)
	f.people.Modify(alice, func(p *person) { p.Score = 12 })
	dave := f.add(t, "dave", 3, 1)
	f.people.Remove(alice)
	inner.Merge()

	assert.Equal(t, 1, f.db.Size(), "merged")
	assert.Nil(t, f.people.Find(alice.ObjectID()), "alice removed")
	assert.NotNil(t, f.people.Find(dave.ObjectID()), "dave present")

	outer.Undo()
	assert.Nil(t, f.people.Find(dave.ObjectID()), "dave undone")
	a := f.byName.Find("alice")
	require.NotNil(t, a, "alice back")
	assert.Equal(t, int64(10), a.Score, "original score")
}

func TestSquash(t *testing.T) {
	f := setup()

	for i, name := range []string{"a1", "a2", "a3"} {
		s := f.db.StartSession(false)
		f.add(t, name, 1, int64(i))
		s.Commit()
	}
	assert.Equal(t, 3, f.db.Size(), "three states")
	assert.Equal(t, int64(3), f.db.Revision(), "revision")

	f.db.Squash(2)
	assert.Equal(t, 1, f.db.Size(), "one state left")

	f.db.UndoAll()
	assert.Equal(t, 2, f.people.Count(), "squashed states are permanent")
	assert.Nil(t, f.byName.Find("a3"), "newest undone")
}

func TestDisabled(t *testing.T) {
	f := setup()
	f.db.Disable()

	s := f.db.StartSession(false)
	f.add(t, "alice", 1, 10)
	s.Undo()
	assert.Equal(t, 1, f.people.Count(), "nothing recorded")

	s = f.db.StartSession(true)
	f.add(t, "bob", 1, 10)
	s.Undo()
	assert.Equal(t, 1, f.people.Count(), "forced session undone")
	assert.False(t, f.db.Enabled(), "disabled again")
}

func TestOrderedBounds(t *testing.T) {
	f := setup()

	f.add(t, "a", 1, 5)
	f.add(t, "b", 1, 7)
	f.add(t, "c", 2, 1)
	f.add(t, "d", 2, 9)
	f.add(t, "e", 3, 3)

	it := f.byScore.LowerBound(objectdb.Key(uint32(2)))
	require.True(t, it.Valid(), "lower bound")
	assert.Equal(t, "d", it.Value().Name, "highest score in group 2")

	it = f.byScore.UpperBound(objectdb.Key(uint32(2), objectdb.Max))
	require.True(t, it.Valid(), "upper bound")
	assert.Equal(t, "e", it.Value().Name, "first of group 3")
	it.Prev()
	assert.Equal(t, "c", it.Value().Name, "last of group 2")

	assert.Equal(t, "b", f.byScore.Find(objectdb.Key(uint32(1))).Name, "prefix find")
	assert.Nil(t, f.byScore.Find(objectdb.Key(uint32(7))), "missing prefix")

	all := []string{}
	for it := f.byScore.First(); it.Valid(); it.Next() {
		all = append(all, it.Value().Name)
	}
	assert.Equal(t, []string{"b", "a", "d", "c", "e"}, all, "full order")
}

type counter struct {
	inserted int
	modified int
	removed  int
}

func (c *counter) ObjectInserted(objectdb.Object) { c.inserted += 1 }
func (c *counter) AboutToModify(objectdb.Object)  {}
func (c *counter) ObjectModified(objectdb.Object) { c.modified += 1 }
func (c *counter) ObjectRemoved(objectdb.Object)  { c.removed += 1 }

func TestDatabaseObserver(t *testing.T) {
	f := setup()
	c := &counter{}
	f.db.AddObserver(c)

	s := f.db.StartSession(false)
	p := f.add(t, "alice", 1, 1)
	f.people.Modify(p, func(p *person) { p.Score = 2 })
	s.Undo()

	assert.Equal(t, 1, c.inserted, "inserted")
	assert.Equal(t, 1, c.modified, "modified")
	assert.Equal(t, 1, c.removed, "removed by undo")
}
