// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package lifecycle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casfa.io/core/pkg/lifecycle"
)

func TestGroup_RunsThenClosesInReverseOrder(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	var closed []string
	var apiStarted, gcStarted bool

	group := lifecycle.NewGroup(log)
	group.Add(lifecycle.Item{
		Name: "api",
		Run: func(ctx context.Context) error {
			apiStarted = true
			return nil
		},
		Close: func() error {
			closed = append(closed, "api")
			return nil
		},
	})
	group.Add(lifecycle.Item{
		Name: "blobstore",
		Close: func() error {
			closed = append(closed, "blobstore")
			return nil
		},
	})
	group.Add(lifecycle.Item{
		Name: "gc",
		Run: func(ctx context.Context) error {
			gcStarted = true
			return nil
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	group.Run(gctx, g)
	require.NoError(t, g.Wait())

	require.True(t, apiStarted)
	require.True(t, gcStarted)

	require.NoError(t, group.Close())
	require.Equal(t, []string{"blobstore", "api"}, closed)
}
