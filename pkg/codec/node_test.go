// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/codec"
)

func TestFile_RoundTrip(t *testing.T) {
	limits := codec.DefaultLimits()

	f := &codec.File{ContentType: "text/plain", Payload: []byte("hello\n")}
	data := f.Encode()

	decoded, err := codec.DecodeFile(data, limits)
	require.NoError(t, err)
	assert.Equal(t, f.ContentType, decoded.ContentType)
	assert.Equal(t, f.Payload, decoded.Payload)

	key := codec.DeriveNodeKey(data)
	assert.True(t, codec.VerifyNodeKey(key, data))
}

func TestFile_EmptyPayload(t *testing.T) {
	f := &codec.File{ContentType: "", Payload: nil}
	data := f.Encode()

	decoded, err := codec.DecodeFile(data, codec.DefaultLimits())
	require.NoError(t, err)
	assert.Empty(t, decoded.Payload)
	assert.EqualValues(t, 0, decoded.Size())
}

func TestDict_RoundTripAndOrderSensitivity(t *testing.T) {
	k1 := codec.DeriveNodeKey([]byte("a"))
	k2 := codec.DeriveNodeKey([]byte("b"))

	d := &codec.Dict{Entries: []codec.DictEntry{
		{Key: k1, Name: "a.txt"},
		{Key: k2, Name: "b.txt"},
	}}
	data := d.Encode()

	decoded, err := codec.DecodeDict(data, codec.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, d.Entries, decoded.Entries)

	reordered := &codec.Dict{Entries: []codec.DictEntry{
		{Key: k2, Name: "b.txt"},
		{Key: k1, Name: "a.txt"},
	}}
	assert.NotEqual(t, codec.DeriveNodeKey(data), codec.DeriveNodeKey(reordered.Encode()))
}

func TestDict_RepeatedChildProducesOneRefPerOccurrence(t *testing.T) {
	h := codec.DeriveNodeKey([]byte("hello\n"))
	d := &codec.Dict{Entries: []codec.DictEntry{
		{Key: h, Name: "a.txt"},
		{Key: h, Name: "b.txt"},
		{Key: h, Name: "c.txt"},
	}}
	refs := codec.ChildRefs(d)
	assert.Len(t, refs, 3)
	for _, r := range refs {
		assert.Equal(t, h, r)
	}
}

func TestDict_FindWithWithout(t *testing.T) {
	k1 := codec.DeriveNodeKey([]byte("a"))
	k2 := codec.DeriveNodeKey([]byte("b"))

	d := codec.EmptyDict().With("a.txt", k1)
	found, ok := d.Find("a.txt")
	require.True(t, ok)
	assert.Equal(t, k1, found)

	updated := d.With("a.txt", k2)
	found, ok = updated.Find("a.txt")
	require.True(t, ok)
	assert.Equal(t, k2, found)
	// original unaffected (persistent update)
	found, ok = d.Find("a.txt")
	require.True(t, ok)
	assert.Equal(t, k1, found)

	removed := updated.Without("a.txt")
	_, ok = removed.Find("a.txt")
	assert.False(t, ok)
}

func TestDict_NameTooLongRejected(t *testing.T) {
	limits := codec.Limits{NodeSize: 4 << 20, MaxNameBytes: 4}
	d := &codec.Dict{Entries: []codec.DictEntry{
		{Key: codec.NodeKey{}, Name: "way-too-long"},
	}}
	_, err := codec.DecodeDict(d.Encode(), limits)
	assert.Error(t, err)
}

func TestSuccessor_RoundTrip(t *testing.T) {
	prev := codec.DeriveNodeKey([]byte("chunk-1"))
	s := &codec.Successor{Prev: prev, Meta: []byte("chunk-2-of-3")}
	data := s.Encode()

	decoded, err := codec.DecodeSuccessor(data, codec.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, prev, decoded.Prev)
	assert.Equal(t, s.Meta, decoded.Meta)
	assert.Equal(t, []codec.NodeKey{prev}, codec.ChildRefs(decoded))
}

func TestSet_RoundTripSortsAndDedupes(t *testing.T) {
	k1 := codec.DeriveNodeKey([]byte("a"))
	k2 := codec.DeriveNodeKey([]byte("b"))

	s := &codec.Set{Keys: []codec.NodeKey{k2, k1, k2}}
	data := s.Encode()

	decoded, err := codec.DecodeSet(data, codec.DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, decoded.Keys, 2)
	assert.True(t, decoded.Contains(k1))
	assert.True(t, decoded.Contains(k2))
}

func TestSet_SubsetOf(t *testing.T) {
	k1 := codec.DeriveNodeKey([]byte("a"))
	k2 := codec.DeriveNodeKey([]byte("b"))
	k3 := codec.DeriveNodeKey([]byte("c"))

	parent := &codec.Set{Keys: []codec.NodeKey{k1, k2, k3}}
	child := &codec.Set{Keys: []codec.NodeKey{k1, k3}}
	notChild := &codec.Set{Keys: []codec.NodeKey{k1, codec.DeriveNodeKey([]byte("outside"))}}

	assert.True(t, child.SubsetOf(parent))
	assert.False(t, notChild.SubsetOf(parent))
}

func TestDecode_DispatchesOnKindTag(t *testing.T) {
	f := &codec.File{ContentType: "x", Payload: []byte("y")}
	n, err := codec.Decode(f.Encode(), codec.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, codec.KindFile, n.Kind())
}

func TestDecode_RejectsUnknownKind(t *testing.T) {
	_, err := codec.Decode([]byte{0xFF, 0, 0, 0}, codec.DefaultLimits())
	assert.Error(t, err)
}

func TestEncodeChecked_RejectsOversizedNode(t *testing.T) {
	f := &codec.File{ContentType: "x", Payload: make([]byte, 100)}
	_, err := codec.EncodeChecked(f, codec.Limits{NodeSize: 10})
	assert.Error(t, err)

	_, err = codec.EncodeChecked(f, codec.DefaultLimits())
	assert.NoError(t, err)
}

func TestWellKnownNodes(t *testing.T) {
	assert.True(t, codec.IsWellKnown(codec.WellKnownEmptyDict))
	assert.True(t, codec.IsWellKnown(codec.WellKnownEmptySet))

	data, ok := codec.WellKnownBytes(codec.WellKnownEmptyDict)
	require.True(t, ok)
	assert.Equal(t, codec.WellKnownEmptyDict, codec.DeriveNodeKey(data))
}
