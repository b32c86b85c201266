// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package boltstore is the durable store.Store backend, grounded on the
// teacher's private/kvstore/boltdb (New(path, bucket) (*Client, error),
// wrapping github.com/boltdb/bolt directly).
package boltstore

import (
	"context"
	"time"

	"github.com/boltdb/bolt"

	"casfa.io/core/pkg/store"
)

// Client is a store.Store backed by a single bucket of a shared bolt.DB
// file.
type Client struct {
	db     *bolt.DB
	bucket []byte
}

// New opens (creating if necessary) the bolt database at path and ensures
// bucket exists, following the teacher's boltdb.New(path, bucket) shape.
func New(path, bucket string) (*Client, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, store.Wrap(err)
	}
	name := []byte(bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, store.Wrap(err)
	}
	return &Client{db: db, bucket: name}, nil
}

func (c *Client) Put(ctx context.Context, key store.Key, value store.Value) error {
	return store.Wrap(c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put(key, value)
	}))
}

func (c *Client) Get(ctx context.Context, key store.Key) (store.Value, error) {
	var out store.Value
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get(key)
		if v == nil {
			return store.ErrNotFound
		}
		out = append(store.Value{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, key store.Key) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b.Get(key) == nil {
			return store.ErrNotFound
		}
		return b.Delete(key)
	})
}

func (c *Client) Range(ctx context.Context, fn store.RangeFunc) error {
	var snapshot store.Items
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).ForEach(func(k, v []byte) error {
			snapshot = append(snapshot, store.Item{
				Key:   append(store.Key{}, k...),
				Value: append(store.Value{}, v...),
			})
			return nil
		})
	})
	if err != nil {
		return store.Wrap(err)
	}
	for _, it := range snapshot {
		if err := fn(ctx, it.Key, it.Value); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying bolt.DB. Callers sharing one *bolt.DB across
// several buckets (see OpenPorts) must only Close once.
func (c *Client) Close() error {
	return store.Wrap(c.db.Close())
}
