// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package lifecycle runs a server's independent subsystems concurrently and
// closes them in reverse start order on shutdown.
package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Item is one subsystem: an optional long-running Run and an optional
// Close invoked in reverse registration order during shutdown.
type Item struct {
	Name  string
	Run   func(ctx context.Context) error
	Close func() error
}

// Group runs its items and reverses them on Close.
type Group struct {
	log *zap.Logger

	mu    sync.Mutex
	items []Item
}

// NewGroup constructs a Group.
func NewGroup(log *zap.Logger) *Group {
	return &Group{log: log}
}

// Add registers item. Run/Close may each be nil.
func (group *Group) Add(item Item) {
	group.mu.Lock()
	defer group.mu.Unlock()
	group.items = append(group.items, item)
}

// Run starts every item with a non-nil Run as a goroutine in g, logging
// start/stop at each boundary.
func (group *Group) Run(ctx context.Context, g *errgroup.Group) {
	group.mu.Lock()
	items := append([]Item{}, group.items...)
	group.mu.Unlock()

	for _, item := range items {
		item := item
		if item.Run == nil {
			continue
		}
		g.Go(func() error {
			group.log.Info("starting", zap.String("name", item.Name))
			err := item.Run(ctx)
			if err != nil && ctx.Err() == nil {
				group.log.Error("stopped", zap.String("name", item.Name), zap.Error(err))
			} else {
				group.log.Info("stopped", zap.String("name", item.Name))
			}
			return err
		})
	}
}

// Close calls every item's Close, in reverse registration order, logging
// every non-nil error and returning the first one.
func (group *Group) Close() error {
	group.mu.Lock()
	items := append([]Item{}, group.items...)
	group.mu.Unlock()

	var firstErr error
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.Close == nil {
			continue
		}
		if err := item.Close(); err != nil {
			group.log.Error("close failed", zap.String("name", item.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
