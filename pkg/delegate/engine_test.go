// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package delegate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/store"
	"casfa.io/core/pkg/store/memstore"
)

func newEngine(t *testing.T) (*delegate.Engine, store.DelegateDb, store.BlobStore) {
	t.Helper()
	delegates := memstore.NewDelegates()
	blobs := memstore.NewBlobs()
	return delegate.NewEngine(zap.NewNop(), delegates, blobs, 0), delegates, blobs
}

func testRealm(seed byte) codec.Realm {
	var r codec.Realm
	for i := range r {
		r[i] = seed
	}
	return r
}

func TestBootstrapRoot_IsIdempotent(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(1)

	root1, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)
	require.True(t, root1.IsRoot())
	require.True(t, root1.CanUpload)
	require.True(t, root1.CanManageDepot)
	require.Equal(t, codec.WellKnownEmptySet, root1.Scope)

	root2, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)
	require.Equal(t, root1.ID, root2.ID)
}

func TestCreateChild_NarrowsFromRoot(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(2)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	minted, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload:  true,
		Scope:      codec.WellKnownEmptySet,
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, 1, minted.Delegate.Depth)
	require.False(t, minted.Delegate.CanManageDepot)
	require.Equal(t, root.ID, minted.Delegate.Parent)
	require.Equal(t, minted.Delegate.ID, minted.AT.DelegateID)
	require.Equal(t, minted.Delegate.ID, minted.RT.DelegateID)
}

func TestCreateChild_RejectsPermissionExpansion(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(3)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	restricted, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.NoError(t, err)

	_, err = engine.CreateChild(ctx, restricted.Delegate, nil, delegate.ChildParams{
		CanUpload: true, CanManageDepot: true, Scope: codec.WellKnownEmptySet,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrUnauthorized.Has(err))
}

func TestCreateChild_RejectsTTLExpansion(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(4)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	restricted, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet, AccessTTL: time.Minute,
	})
	require.NoError(t, err)

	_, err = engine.CreateChild(ctx, restricted.Delegate, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet, AccessTTL: time.Hour,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrUnauthorized.Has(err))
}

func TestCreateChild_RejectsScopeExpansion(t *testing.T) {
	engine, _, blobs := newEngine(t)
	ctx := context.Background()
	realm := testRealm(5)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	narrowKey := codec.DeriveNodeKey([]byte("some node"))
	narrowSet := &codec.Set{Keys: []codec.NodeKey{narrowKey}}
	narrowSetKey := codec.DeriveNodeKey(narrowSet.Encode())
	_, err = blobs.Put(ctx, narrowSetKey, narrowSet.Encode())
	require.NoError(t, err)

	restricted, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload: true, Scope: narrowSetKey,
	})
	require.NoError(t, err)

	// A child of a restricted parent cannot claim the unrestricted scope.
	_, err = engine.CreateChild(ctx, restricted.Delegate, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrInvalidScope.Has(err))

	// Nor can it claim a scope outside the parent's set.
	otherKey := codec.DeriveNodeKey([]byte("a different node"))
	otherSet := &codec.Set{Keys: []codec.NodeKey{otherKey}}
	otherSetKey := codec.DeriveNodeKey(otherSet.Encode())
	_, err = blobs.Put(ctx, otherSetKey, otherSet.Encode())
	require.NoError(t, err)

	_, err = engine.CreateChild(ctx, restricted.Delegate, nil, delegate.ChildParams{
		CanUpload: true, Scope: otherSetKey,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrInvalidScope.Has(err))
}

func TestCreateChild_RejectsExpiredParentToken(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(6)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	_, err = engine.CreateChild(ctx, root, &expired, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrUnauthorized.Has(err))
}

func TestCreateChild_RejectsDepthOverflow(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(7)

	current, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		minted, err := engine.CreateChild(ctx, current, nil, delegate.ChildParams{
			CanUpload: true, Scope: codec.WellKnownEmptySet,
		})
		require.NoError(t, err, "depth %d", i+1)
		current = minted.Delegate
	}

	_, err = engine.CreateChild(ctx, current, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.Error(t, err)
	require.True(t, delegate.ErrDepthExceeded.Has(err))
}

func TestRefresh_IssuesFreshATAndRejectsRevoked(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(8)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	minted, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.NoError(t, err)

	at2, resolved, err := engine.Refresh(ctx, minted.RT)
	require.NoError(t, err)
	require.Equal(t, minted.Delegate.ID, resolved.ID)
	require.NotEqual(t, minted.AT.Nonce, at2.Nonce)

	require.NoError(t, engine.Revoke(ctx, minted.Delegate.ID, "testing"))

	_, _, err = engine.Refresh(ctx, minted.RT)
	require.Error(t, err)
	require.True(t, delegate.ErrRevoked.Has(err))
}

func TestRevoke_CascadesToDescendants(t *testing.T) {
	engine, _, _ := newEngine(t)
	ctx := context.Background()
	realm := testRealm(9)

	root, err := engine.BootstrapRoot(ctx, realm)
	require.NoError(t, err)

	child, err := engine.CreateChild(ctx, root, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.NoError(t, err)

	grandchild, err := engine.CreateChild(ctx, child.Delegate, nil, delegate.ChildParams{
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	})
	require.NoError(t, err)

	require.NoError(t, engine.Revoke(ctx, child.Delegate.ID, "compromised"))

	_, err = engine.Resolve(ctx, grandchild.Delegate.ID)
	require.Error(t, err)
	require.True(t, delegate.ErrRevoked.Has(err))

	rootResolved, err := engine.Resolve(ctx, root.ID)
	require.NoError(t, err)
	require.False(t, rootResolved.Revoked)
}
