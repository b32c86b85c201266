// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Ports bundles one instance of every domain port so a single backend
// (boltstore.Ports or a memstore wiring) can be conformance-tested in one
// call to RunPortTests.
type Ports struct {
	Blobs     store.BlobStore
	NodeMeta  store.NodeMetaDb
	Ownership store.OwnershipDb
	RefCounts store.RefCountDb
	Depots    store.DepotDb
	Delegates store.DelegateDb
	Usage        store.UsageDb
	UserRoles    store.UserRoleDb
	UserAccounts store.UserAccountDb
}

// RunPortTests exercises every domain port's documented behavior against p.
func RunPortTests(t *testing.T, p Ports) {
	t.Run("Blobs", func(t *testing.T) { testBlobs(t, p.Blobs) })
	t.Run("NodeMeta", func(t *testing.T) { testNodeMeta(t, p.NodeMeta) })
	t.Run("Ownership", func(t *testing.T) { testOwnership(t, p.Ownership) })
	t.Run("RefCounts", func(t *testing.T) { testRefCounts(t, p.RefCounts) })
	t.Run("Depots", func(t *testing.T) { testDepots(t, p.Depots) })
	t.Run("Delegates", func(t *testing.T) { testDelegates(t, p.Delegates) })
	t.Run("Usage", func(t *testing.T) { testUsage(t, p.Usage) })
	t.Run("UserRoles", func(t *testing.T) { testUserRoles(t, p.UserRoles) })
	t.Run("UserAccounts", func(t *testing.T) { testUserAccounts(t, p.UserAccounts) })
}

func randKey(seed byte) codec.NodeKey {
	var k codec.NodeKey
	for i := range k {
		k[i] = seed
	}
	return k
}

func randRealm(seed byte) codec.Realm {
	var r codec.Realm
	for i := range r {
		r[i] = seed
	}
	return r
}

func randDelegate(seed byte) codec.DelegateID {
	var d codec.DelegateID
	for i := range d {
		d[i] = seed
	}
	return d
}

func testBlobs(t *testing.T, blobs store.BlobStore) {
	ctx := context.Background()
	key := randKey(1)

	has, err := blobs.Has(ctx, key)
	require.NoError(t, err)
	require.False(t, has)

	created, err := blobs.Put(ctx, key, []byte("hello"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = blobs.Put(ctx, key, []byte("hello"))
	require.NoError(t, err)
	require.False(t, created, "second put of the same key is not a fresh physical write")

	data, err := blobs.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func testNodeMeta(t *testing.T, db store.NodeMetaDb) {
	ctx := context.Background()
	realm := randRealm(2)
	key := randKey(2)

	meta := store.NodeMeta{Kind: codec.KindFile, Size: 5, CreatedAt: time.Now()}
	created, err := db.PutIfAbsent(ctx, realm, key, meta)
	require.NoError(t, err)
	require.True(t, created)

	created, err = db.PutIfAbsent(ctx, realm, key, meta)
	require.NoError(t, err)
	require.False(t, created)

	got, err := db.Get(ctx, realm, key)
	require.NoError(t, err)
	require.Equal(t, meta.Kind, got.Kind)
	require.Equal(t, meta.Size, got.Size)
}

func testOwnership(t *testing.T, db store.OwnershipDb) {
	ctx := context.Background()
	realm := randRealm(3)
	key := randKey(3)
	d1 := randDelegate(1)
	d2 := randDelegate(2)

	require.NoError(t, db.AddOwner(ctx, realm, key, d1))
	require.NoError(t, db.AddOwner(ctx, realm, key, d1)) // union, not duplicate
	require.NoError(t, db.AddOwner(ctx, realm, key, d2))

	owners, err := db.Owners(ctx, realm, key)
	require.NoError(t, err)
	require.Len(t, owners, 2)

	isOwner, err := db.IsOwner(ctx, realm, key, d1)
	require.NoError(t, err)
	require.True(t, isOwner)

	isOwner, err = db.IsOwner(ctx, realm, key, randDelegate(9))
	require.NoError(t, err)
	require.False(t, isOwner)
}

func testRefCounts(t *testing.T, db store.RefCountDb) {
	ctx := context.Background()
	realm := randRealm(4)
	key := randKey(4)

	count, err := db.Increment(ctx, realm, key, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = db.Increment(ctx, realm, key, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	got, err := db.Count(ctx, realm, key)
	require.NoError(t, err)
	require.EqualValues(t, 3, got)
}

func testDepots(t *testing.T, db store.DepotDb) {
	ctx := context.Background()
	realm := randRealm(5)
	var id codec.DepotID
	id[0] = 1

	root1 := codec.WellKnownEmptyDict
	depot := store.Depot{
		ID: id, Realm: realm, Title: "main", Root: root1,
		MaxHistory: 2, Main: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(ctx, depot))

	err := db.Create(ctx, depot)
	require.Error(t, err, "creating the same depot twice is a conflict")

	got, err := db.Get(ctx, realm, id)
	require.NoError(t, err)
	require.Equal(t, root1, got.Root)

	main, err := db.GetMain(ctx, realm)
	require.NoError(t, err)
	require.Equal(t, id, main.ID)

	root2 := codec.WellKnownEmptySet
	updated, err := db.CommitRoot(ctx, realm, id, root2, time.Now())
	require.NoError(t, err)
	require.Equal(t, root2, updated.Root)
	require.Len(t, updated.History, 1)
	require.Equal(t, root1, updated.History[0].Root)

	root3 := codec.DeriveNodeKey([]byte("third root"))
	updated, err = db.CommitRoot(ctx, realm, id, root3, time.Now())
	require.NoError(t, err)
	require.Len(t, updated.History, 2)

	root4 := codec.DeriveNodeKey([]byte("fourth root"))
	updated, err = db.CommitRoot(ctx, realm, id, root4, time.Now())
	require.NoError(t, err)
	require.Len(t, updated.History, 2, "history stays trimmed to maxHistory")

	settled, err := db.UpdateSettings(ctx, realm, id, "renamed", 1, time.Now())
	require.NoError(t, err)
	require.Equal(t, "renamed", settled.Title)
	require.Equal(t, 1, settled.MaxHistory)
	require.Len(t, settled.History, 1, "lowering maxHistory trims History immediately")
	require.Equal(t, root4, settled.Root, "UpdateSettings never touches Root")

	require.Error(t, db.Delete(ctx, realm, id), "main depot cannot be deleted")

	list, err := db.List(ctx, realm)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func testDelegates(t *testing.T, db store.DelegateDb) {
	ctx := context.Background()
	realm := randRealm(6)

	root := store.Delegate{
		ID: randDelegate(0xA0), Realm: realm, Depth: 0,
		CanUpload: true, CanManageDepot: true,
		Scope: codec.WellKnownEmptySet, CreatedAt: time.Now(),
	}
	require.NoError(t, db.Put(ctx, root))

	got, ok, err := db.GetRoot(ctx, realm)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, root.ID, got.ID)

	child := store.Delegate{
		ID: randDelegate(0xB0), Realm: realm, Parent: root.ID, Depth: 1,
		CanUpload: true, Scope: codec.WellKnownEmptySet, CreatedAt: time.Now(),
	}
	require.NoError(t, db.Put(ctx, child))

	grandchild := store.Delegate{
		ID: randDelegate(0xC0), Realm: realm, Parent: child.ID, Depth: 2,
		CanUpload: true, Scope: codec.WellKnownEmptySet, CreatedAt: time.Now(),
	}
	require.NoError(t, db.Put(ctx, grandchild))

	children, err := db.Children(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, child.ID, children[0].ID)

	require.NoError(t, db.RevokeCascade(ctx, child.ID, "testing", time.Now()))

	got, err = db.Get(ctx, child.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)

	got, err = db.Get(ctx, grandchild.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked, "cascade must reach the grandchild")

	got, err = db.Get(ctx, root.ID)
	require.NoError(t, err)
	require.False(t, got.Revoked, "revoking a child must not revoke its parent")
}

func testUsage(t *testing.T, db store.UsageDb) {
	ctx := context.Background()
	realm := randRealm(7)

	require.NoError(t, db.Add(ctx, realm, 100, 1))
	require.NoError(t, db.Add(ctx, realm, 50, 1))

	usage, err := db.Get(ctx, realm)
	require.NoError(t, err)
	require.EqualValues(t, 150, usage.PhysicalBytes)
	require.EqualValues(t, 2, usage.NodeCount)
}

func testUserRoles(t *testing.T, db store.UserRoleDb) {
	ctx := context.Background()
	var userID [16]byte
	userID[0] = 1

	role, err := db.GetRole(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, store.RoleUser, role, "unknown users default to RoleUser")

	require.NoError(t, db.SetRole(ctx, userID, store.RoleAdmin))
	role, err = db.GetRole(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, store.RoleAdmin, role)

	roles, err := db.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, userID, roles[0].UserID)
	require.Equal(t, store.RoleAdmin, roles[0].Role)
}

func testUserAccounts(t *testing.T, db store.UserAccountDb) {
	ctx := context.Background()
	var id [16]byte
	id[0] = 8

	account := store.UserAccount{
		ID: id, Email: "person@example.com", PasswordHash: []byte("hashed"),
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(ctx, account))

	err := db.Create(ctx, account)
	require.Error(t, err, "registering the same email twice is a conflict")

	byEmail, err := db.GetByEmail(ctx, "person@example.com")
	require.NoError(t, err)
	require.Equal(t, id, byEmail.ID)

	byID, err := db.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, account.Email, byID.Email)

	_, err = db.GetByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
}
