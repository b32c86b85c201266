// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// Set is a sorted, deduplicated collection of NodeKeys, used as a
// delegate's scope manifest.
type Set struct {
	Keys []NodeKey
}

// Kind implements Node.
func (s *Set) Kind() Kind { return KindSet }

// Encode implements Node. Layout: tag(1) || count(u32 LE) || sorted keys(16 each).
func (s *Set) Encode() []byte {
	sorted := sortedKeys(s.Keys)
	out := make([]byte, 1+4+NodeKeySize*len(sorted))
	out[0] = byte(KindSet)
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(sorted)))
	off := 5
	for _, k := range sorted {
		off += copy(out[off:], k[:])
	}
	return out
}

// DecodeSet parses a Set previously produced by Encode.
func DecodeSet(data []byte, limits Limits) (*Set, error) {
	if len(data) < 5 || Kind(data[0]) != KindSet {
		return nil, ErrMalformedNode.New("not a set node")
	}
	count := binary.LittleEndian.Uint32(data[1:5])
	body := data[5:]
	if uint64(len(body)) != uint64(count)*NodeKeySize {
		return nil, ErrMalformedNode.New("set body length mismatch")
	}
	keys := make([]NodeKey, count)
	for i := range keys {
		copy(keys[i][:], body[i*NodeKeySize:(i+1)*NodeKeySize])
	}
	if limits.NodeSize > 0 && len(data) > limits.NodeSize {
		return nil, ErrNodeTooLarge.New("set node is %d bytes, limit is %d", len(data), limits.NodeSize)
	}
	return &Set{Keys: keys}, nil
}

// Contains reports whether the set contains key. The empty set (no keys)
// is the well-known "unrestricted" scope and is treated specially by
// callers, not by Contains itself.
func (s *Set) Contains(key NodeKey) bool {
	sorted := sortedKeys(s.Keys)
	i := sort.Search(len(sorted), func(i int) bool {
		return bytes.Compare(sorted[i][:], key[:]) >= 0
	})
	return i < len(sorted) && sorted[i] == key
}

// SubsetOf reports whether every key in s also appears in parent.
func (s *Set) SubsetOf(parent *Set) bool {
	for _, k := range s.Keys {
		if !parent.Contains(k) {
			return false
		}
	}
	return true
}

func sortedKeys(keys []NodeKey) []NodeKey {
	seen := make(map[NodeKey]struct{}, len(keys))
	out := make([]NodeKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// EmptySet is the well-known empty scope set, meaning "entire realm".
func EmptySet() *Set { return &Set{} }
