// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package depot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/depot"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
	"casfa.io/core/pkg/store/memstore"
)

func newMutator(t *testing.T) (*depot.Mutator, auth.Principal, codec.Realm) {
	t.Helper()
	delegates := memstore.NewDelegates()
	svc := node.NewService(
		zap.NewNop(),
		memstore.NewBlobs(),
		memstore.NewNodeMeta(),
		memstore.NewOwnership(),
		memstore.NewRefCounts(),
		memstore.NewUsage(),
		delegates,
		codec.DefaultLimits(),
	)
	m := depot.NewMutator(zap.NewNop(), svc, memstore.NewDepots(), 0, 0, codec.DefaultLimits())

	var realm codec.Realm
	realm[0] = 1
	var id codec.DelegateID
	id[0] = 1
	root := store.Delegate{
		ID: id, Realm: realm, Depth: 0,
		CanUpload: true, CanManageDepot: true, Scope: codec.WellKnownEmptySet,
	}
	require.NoError(t, delegates.Put(context.Background(), root))
	principal := auth.Principal{
		DelegateID: id, Realm: realm, Depth: 0,
		CanUpload: true, CanManageDepot: true, Scope: codec.WellKnownEmptySet,
	}
	return m, principal, realm
}

func TestWrite_CreatesFileUnderExistingDirectory(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	rootAfterMkdir, err := m.Mkdir(ctx, realm, principal, d.Root, "/a")
	require.NoError(t, err)

	newRoot, err := m.Write(ctx, realm, principal, rootAfterMkdir, "/a/b.txt", []byte("hi"), "text/plain")
	require.NoError(t, err)
	require.NotEqual(t, rootAfterMkdir, newRoot)

	st, err := m.Stat(ctx, realm, principal, newRoot, "/a/b.txt")
	require.NoError(t, err)
	require.Equal(t, 2, st.Size)
	require.Equal(t, codec.KindFile, st.Kind)

	// The old root is untouched by the splice: b.txt does not exist under it.
	_, err = m.Stat(ctx, realm, principal, rootAfterMkdir, "/a/b.txt")
	require.Error(t, err)
}

func TestWrite_FailsWithoutParentDirectory(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	_, err = m.Write(ctx, realm, principal, d.Root, "/missing/b.txt", []byte("hi"), "text/plain")
	require.Error(t, err)
	require.True(t, depot.ErrParentMissing.Has(err))
}

func TestLs_SinglePageHasNoCursor(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	root := d.Root
	names := []string{"a", "b", "c"}
	for _, n := range names {
		root, err = m.Write(ctx, realm, principal, root, "/"+n, []byte(n), "text/plain")
		require.NoError(t, err)
	}

	page, err := m.Ls(ctx, realm, principal, root, "/", "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	require.Equal(t, "a", page.Entries[0].Name)
	require.Equal(t, "", page.NextCursor)
}

func TestMkdir_RejectsDuplicateName(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	root, err := m.Mkdir(ctx, realm, principal, d.Root, "/dir")
	require.NoError(t, err)

	_, err = m.Mkdir(ctx, realm, principal, root, "/dir")
	require.Error(t, err)
	require.True(t, depot.ErrExists.Has(err))
}

func TestRm_RemovesEntryAndRefusesRootDelete(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	root, err := m.Write(ctx, realm, principal, d.Root, "/x.txt", []byte("x"), "text/plain")
	require.NoError(t, err)

	root, err = m.Rm(ctx, realm, principal, root, "/x.txt")
	require.NoError(t, err)

	_, err = m.Stat(ctx, realm, principal, root, "/x.txt")
	require.Error(t, err)

	_, err = m.Rm(ctx, realm, principal, root, "/")
	require.Error(t, err)
	require.True(t, depot.ErrRefuseRootDelete.Has(err))
}

func TestCpAndMv_ReferenceWithoutCopyingBytes(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	root, err := m.Write(ctx, realm, principal, d.Root, "/src.txt", []byte("payload"), "text/plain")
	require.NoError(t, err)

	root, err = m.Cp(ctx, realm, principal, root, "/src.txt", "/dst.txt")
	require.NoError(t, err)

	srcStat, err := m.Stat(ctx, realm, principal, root, "/src.txt")
	require.NoError(t, err)
	dstStat, err := m.Stat(ctx, realm, principal, root, "/dst.txt")
	require.NoError(t, err)
	require.Equal(t, srcStat.Size, dstStat.Size)

	root, err = m.Mv(ctx, realm, principal, root, "/dst.txt", "/moved.txt")
	require.NoError(t, err)

	_, err = m.Stat(ctx, realm, principal, root, "/dst.txt")
	require.Error(t, err)
	_, err = m.Stat(ctx, realm, principal, root, "/moved.txt")
	require.NoError(t, err)
}

func TestCommit_RejectsNonDictRootAndRequiresManagePermission(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)

	newRoot, err := m.Write(ctx, realm, principal, d.Root, "/f.txt", []byte("data"), "text/plain")
	require.NoError(t, err)

	committed, err := m.Commit(ctx, realm, principal, d.ID, newRoot)
	require.NoError(t, err)
	require.Equal(t, newRoot, committed.Root)

	fileKey := codec.DeriveNodeKey((&codec.File{ContentType: "text/plain", Payload: []byte("data")}).Encode())
	_, err = m.Commit(ctx, realm, principal, d.ID, fileKey)
	require.Error(t, err)

	noManage := principal
	noManage.CanManageDepot = false
	_, err = m.Commit(ctx, realm, noManage, d.ID, newRoot)
	require.Error(t, err)
	require.True(t, depot.ErrUnauthorized.Has(err))
}

func TestUpdateDepotSettings_TrimsHistoryImmediately(t *testing.T) {
	m, principal, realm := newMutator(t)
	ctx := context.Background()
	_ = principal

	d, err := m.CreateDepot(ctx, realm, "test", true)
	require.NoError(t, err)
	require.Equal(t, depot.DefaultMaxHistory, d.MaxHistory)

	for i := 0; i < 2; i++ {
		d, err = m.Commit(ctx, realm, principal, d.ID, codec.WellKnownEmptyDict)
		require.NoError(t, err)
	}
	require.Len(t, d.History, 2)

	title := "renamed"
	maxHistory := 1
	updated, err := m.UpdateDepotSettings(ctx, realm, d.ID, &title, &maxHistory)
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, 1, updated.MaxHistory)
	require.Len(t, updated.History, 1)

	overCap := depot.MaxMaxHistory + 50
	updated, err = m.UpdateDepotSettings(ctx, realm, d.ID, nil, &overCap)
	require.NoError(t, err)
	require.Equal(t, depot.MaxMaxHistory, updated.MaxHistory)
}
