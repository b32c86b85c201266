// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import (
	"github.com/zeebo/blake3"
)

// NodeKeySize is the raw byte length of a NodeKey.
const NodeKeySize = 16

// NodeKeyPrefix is the textual prefix for a NodeKey.
const NodeKeyPrefix = "nod_"

// NodeKey is a content-addressed, opaque 16-byte identifier. Its first byte
// is a size-class flag (see sizeFlag); the remaining 15 bytes are
// BLAKE3(content)[1:16]. Equal content always yields an equal NodeKey.
type NodeKey [NodeKeySize]byte

// String renders the NodeKey as "nod_" + Crockford-Base32.
func (k NodeKey) String() string {
	return encodeID(NodeKeyPrefix, k[:])
}

// IsZero reports whether k is the zero value (never a valid NodeKey, since
// every real NodeKey's low 15 bytes are a BLAKE3 digest of something).
func (k NodeKey) IsZero() bool {
	return k == NodeKey{}
}

// ParseNodeKey parses the "nod_..." textual form produced by String.
func ParseNodeKey(s string) (NodeKey, error) {
	raw, err := decodeID(NodeKeyPrefix, s)
	if err != nil {
		return NodeKey{}, Error.Wrap(err)
	}
	if len(raw) != NodeKeySize {
		return NodeKey{}, Error.New("node key must decode to %d bytes, got %d", NodeKeySize, len(raw))
	}
	var k NodeKey
	copy(k[:], raw)
	return k, nil
}

// sizeFlag buckets a byte length into a fixed, small index so stores can
// pick block layouts without rehashing the content. The bucket table is an
// implementation choice (spec.md leaves it open); it is fixed here and must
// not change without changing every previously-derived NodeKey.
func sizeFlag(length int) byte {
	switch {
	case length < 1<<10: // < 1 KiB
		return 0
	case length < 1<<16: // < 64 KiB
		return 1
	case length < 1<<20: // < 1 MiB
		return 2
	default: // up to the 4 MiB node limit
		return 3
	}
}

// DeriveNodeKey computes the NodeKey for the given canonical node bytes:
// BLAKE3(bytes, 16 bytes of output), with byte 0 overwritten by the
// size-class flag derived from len(bytes).
func DeriveNodeKey(bytes []byte) NodeKey {
	h := blake3.New()
	_, _ = h.Write(bytes)

	var out NodeKey
	if _, err := h.Digest().Read(out[:]); err != nil {
		panic(err)
	}
	out[0] = sizeFlag(len(bytes))
	return out
}

// VerifyNodeKey reports whether key is the correct NodeKey for bytes.
func VerifyNodeKey(key NodeKey, bytes []byte) bool {
	return DeriveNodeKey(bytes) == key
}
