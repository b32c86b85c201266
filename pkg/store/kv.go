// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package store

import "context"

// Key and Value are raw bytes, as in the teacher's private/kvstore.Store.
type Key []byte
type Value []byte

// Item is a single key/value pair, used by Range and by the conformance
// suite to set up and verify fixtures.
type Item struct {
	Key   Key
	Value Value
}

// Items is a sortable slice of Item, ordered by Key, mirroring
// private/kvstore.Items.
type Items []Item

func (items Items) Len() int      { return len(items) }
func (items Items) Swap(i, j int) { items[i], items[j] = items[j], items[i] }
func (items Items) Less(i, j int) bool {
	return string(items[i].Key) < string(items[j].Key)
}

// Clone returns a deep copy of items, for callers that must not alias
// a backend's internal buffers.
func (items Items) Clone() Items {
	out := make(Items, len(items))
	for i, it := range items {
		out[i] = Item{
			Key:   append(Key{}, it.Key...),
			Value: append(Value{}, it.Value...),
		}
	}
	return out
}

// RangeFunc is called once per key/value pair visited by Store.Range, in
// unspecified order. Returning an error stops iteration early.
type RangeFunc func(ctx context.Context, key Key, value Value) error

// Store is the generic key/value primitive every boltstore/memstore domain
// port is built on top of, grounded on the teacher's private/kvstore.Store
// interface (same four-method shape: Put, Get, Delete, Range, plus Close).
type Store interface {
	Put(ctx context.Context, key Key, value Value) error
	Get(ctx context.Context, key Key) (Value, error)
	Delete(ctx context.Context, key Key) error
	Range(ctx context.Context, fn RangeFunc) error
	Close() error
}

// PutAll is a convenience wrapper used by tests and bulk-loading paths,
// grounded on private/kvstore's free function of the same name.
func PutAll(ctx context.Context, s Store, items ...Item) error {
	for _, it := range items {
		if err := s.Put(ctx, it.Key, it.Value); err != nil {
			return err
		}
	}
	return nil
}
