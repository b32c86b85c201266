// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package memstore is an in-memory store.Store, grounded on the teacher's
// private/kvstore/teststore: a mutex-guarded map, used by unit tests and by
// internal/castest to boot a full server without a disk.
package memstore

import (
	"context"
	"sync"

	"casfa.io/core/pkg/store"
)

// Client is an in-memory store.Store.
type Client struct {
	mu     sync.Mutex
	items  map[string]store.Value
	closed bool
}

// New returns an empty in-memory store.
func New() *Client {
	return &Client{items: make(map[string]store.Value)}
}

func (c *Client) Put(ctx context.Context, key store.Key, value store.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return store.Error.New("store closed")
	}
	cp := append(store.Value{}, value...)
	c.items[string(key)] = cp
	return nil
}

func (c *Client) Get(ctx context.Context, key store.Key) (store.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[string(key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append(store.Value{}, v...), nil
}

func (c *Client) Delete(ctx context.Context, key store.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[string(key)]; !ok {
		return store.ErrNotFound
	}
	delete(c.items, string(key))
	return nil
}

func (c *Client) Range(ctx context.Context, fn store.RangeFunc) error {
	c.mu.Lock()
	snapshot := make(store.Items, 0, len(c.items))
	for k, v := range c.items {
		snapshot = append(snapshot, store.Item{Key: store.Key(k), Value: v})
	}
	c.mu.Unlock()

	for _, it := range snapshot {
		if err := fn(ctx, it.Key, it.Value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
