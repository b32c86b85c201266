// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "encoding/binary"

// DictEntry is one (child, name) pair of a Dict, in stable insertion order.
type DictEntry struct {
	Key  NodeKey
	Name string
}

// Dict is an ordered directory node. Two Dicts with the same (key, name)
// sequence in the same order encode identically and therefore hash
// identically; reordering entries changes the NodeKey.
type Dict struct {
	Entries []DictEntry
}

// Kind implements Node.
func (d *Dict) Kind() Kind { return KindDict }

// Encode implements Node. Layout: tag(1) || count(varint) || for each
// entry: child_key(16) || name_len(varint) || name_bytes. No trailing
// padding.
func (d *Dict) Encode() []byte {
	var countBuf [binary.MaxVarintLen64]byte
	countN := binary.PutUvarint(countBuf[:], uint64(len(d.Entries)))

	var scratch [binary.MaxVarintLen64]byte
	size := 1 + countN
	nameLens := make([]int, len(d.Entries))
	for i, e := range d.Entries {
		nameLens[i] = binary.PutUvarint(scratch[:], uint64(len(e.Name)))
		size += NodeKeySize + nameLens[i] + len(e.Name)
	}

	out := make([]byte, size)
	out[0] = byte(KindDict)
	off := 1
	off += copy(out[off:], countBuf[:countN])
	for _, e := range d.Entries {
		off += copy(out[off:], e.Key[:])
		var lenBuf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lenBuf[:], uint64(len(e.Name)))
		off += copy(out[off:], lenBuf[:n])
		off += copy(out[off:], e.Name)
	}
	return out
}

// DecodeDict parses a Dict previously produced by Encode.
func DecodeDict(data []byte, limits Limits) (*Dict, error) {
	if len(data) < 1 || Kind(data[0]) != KindDict {
		return nil, ErrMalformedNode.New("not a dict node")
	}
	buf := data[1:]

	count, n := binary.Uvarint(buf)
	if n <= 0 {
		return nil, ErrMalformedNode.New("dict child count truncated")
	}
	buf = buf[n:]

	entries := make([]DictEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(buf) < NodeKeySize {
			return nil, ErrMalformedNode.New("dict entry %d key truncated", i)
		}
		var key NodeKey
		copy(key[:], buf[:NodeKeySize])
		buf = buf[NodeKeySize:]

		nameLen, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, ErrMalformedNode.New("dict entry %d name length truncated", i)
		}
		buf = buf[n:]

		if limits.MaxNameBytes > 0 && nameLen > uint64(limits.MaxNameBytes) {
			return nil, ErrMalformedNode.New("dict entry %d name exceeds %d bytes", i, limits.MaxNameBytes)
		}
		if uint64(len(buf)) < nameLen {
			return nil, ErrMalformedNode.New("dict entry %d name truncated", i)
		}
		name := string(buf[:nameLen])
		buf = buf[nameLen:]

		entries = append(entries, DictEntry{Key: key, Name: name})
	}
	if len(buf) != 0 {
		return nil, ErrMalformedNode.New("trailing bytes after last dict entry")
	}

	if limits.NodeSize > 0 && len(data) > limits.NodeSize {
		return nil, ErrNodeTooLarge.New("dict node is %d bytes, limit is %d", len(data), limits.NodeSize)
	}

	return &Dict{Entries: entries}, nil
}

// Find returns the child key for name and whether it was present.
func (d *Dict) Find(name string) (NodeKey, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e.Key, true
		}
	}
	return NodeKey{}, false
}

// With returns a new Dict with name bound to key, replacing any existing
// entry of that name (in place, preserving its position) or appending.
func (d *Dict) With(name string, key NodeKey) *Dict {
	out := &Dict{Entries: make([]DictEntry, len(d.Entries))}
	copy(out.Entries, d.Entries)
	for i, e := range out.Entries {
		if e.Name == name {
			out.Entries[i].Key = key
			return out
		}
	}
	out.Entries = append(out.Entries, DictEntry{Key: key, Name: name})
	return out
}

// Without returns a new Dict with name removed, if present.
func (d *Dict) Without(name string) *Dict {
	out := &Dict{Entries: make([]DictEntry, 0, len(d.Entries))}
	for _, e := range d.Entries {
		if e.Name != name {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// EmptyDict is the well-known empty directory: no entries.
func EmptyDict() *Dict { return &Dict{} }
