// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package storetest is the conformance suite every store.Store backend
// must pass, grounded on the teacher's private/kvstore/testsuite
// (test_crud.go, test_range.go): the same backend-agnostic CRUD + Range
// checks run against both boltstore and memstore.
package storetest

import (
	"bytes"
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/store"
)

// RunTests runs the full generic-Store conformance suite against s.
func RunTests(t *testing.T, s store.Store) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, s) })
	t.Run("Range", func(t *testing.T) { testRange(t, s) })
}

func newItem(key, value string) store.Item {
	return store.Item{Key: store.Key(key), Value: store.Value(value)}
}

func cleanupItems(t *testing.T, ctx context.Context, s store.Store, items store.Items) {
	t.Helper()
	for _, it := range items {
		_ = s.Delete(ctx, it.Key)
	}
}

func testCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	items := store.Items{
		newItem("\x00", "\x00"),
		newItem("a/b", "\x01\x00"),
		newItem("a\\b", "\xFF"),
		newItem("full/path/1", "\x00\xFF\xFF\x00"),
		newItem("full/path/2", "\x00\xFF\xFF\x01"),
		newItem("öö", "üü"),
	}
	rand.Shuffle(len(items), items.Swap)
	defer cleanupItems(t, ctx, s, items)

	t.Run("Put", func(t *testing.T) {
		for _, item := range items {
			require.NoError(t, s.Put(ctx, item.Key, item.Value))
		}
	})

	rand.Shuffle(len(items), items.Swap)

	t.Run("Get", func(t *testing.T) {
		for _, item := range items {
			value, err := s.Get(ctx, item.Key)
			require.NoError(t, err)
			require.True(t, bytes.Equal(value, item.Value), "key %q", item.Key)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		item := items[0]
		require.NoError(t, s.Put(ctx, item.Key, store.Value("replaced")))
		value, err := s.Get(ctx, item.Key)
		require.NoError(t, err)
		require.Equal(t, store.Value("replaced"), value)
		require.NoError(t, s.Put(ctx, item.Key, item.Value)) // restore for Delete below
	})

	t.Run("Delete", func(t *testing.T) {
		for _, item := range items {
			require.NoError(t, s.Delete(ctx, item.Key))
		}
		for _, item := range items {
			_, err := s.Get(ctx, item.Key)
			require.Error(t, err, "expected %q to be gone", item.Key)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, store.Key("does-not-exist"))
		require.Error(t, err)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		err := s.Delete(ctx, store.Key("does-not-exist"))
		require.Error(t, err)
	})
}

func testRange(t *testing.T, s store.Store) {
	ctx := context.Background()

	items := store.Items{
		newItem("a", "a"),
		newItem("b/1", "b/1"),
		newItem("b/2", "b/2"),
		newItem("b/3", "b/3"),
		newItem("c", "c"),
	}
	rand.Shuffle(len(items), items.Swap)
	defer cleanupItems(t, ctx, s, items)

	require.NoError(t, store.PutAll(ctx, s, items...))

	var output store.Items
	err := s.Range(ctx, func(ctx context.Context, key store.Key, value store.Value) error {
		output = append(output, store.Item{
			Key:   append(store.Key{}, key...),
			Value: append(store.Value{}, value...),
		})
		return nil
	})
	require.NoError(t, err)

	expected := items.Clone()
	sort.Sort(expected)
	sort.Sort(output)
	require.EqualValues(t, expected, output)
}
