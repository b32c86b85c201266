// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "encoding/binary"

// Successor points at an immediately-preceding node plus optional metadata.
// It is used to model large files as chains when a single File payload
// would not fit the node size limit.
type Successor struct {
	Prev NodeKey
	Meta []byte
}

// Kind implements Node.
func (s *Successor) Kind() Kind { return KindSuccessor }

// Encode implements Node. Layout: tag(1) || prev(16) || metaLen(u32 LE) || meta.
func (s *Successor) Encode() []byte {
	out := make([]byte, 1+NodeKeySize+4+len(s.Meta))
	out[0] = byte(KindSuccessor)
	copy(out[1:1+NodeKeySize], s.Prev[:])
	binary.LittleEndian.PutUint32(out[1+NodeKeySize:1+NodeKeySize+4], uint32(len(s.Meta)))
	copy(out[1+NodeKeySize+4:], s.Meta)
	return out
}

// DecodeSuccessor parses a Successor previously produced by Encode.
func DecodeSuccessor(data []byte, limits Limits) (*Successor, error) {
	const headerLen = 1 + NodeKeySize + 4
	if len(data) < headerLen || Kind(data[0]) != KindSuccessor {
		return nil, ErrMalformedNode.New("not a successor node")
	}
	var prev NodeKey
	copy(prev[:], data[1:1+NodeKeySize])
	metaLen := binary.LittleEndian.Uint32(data[1+NodeKeySize : headerLen])

	body := data[headerLen:]
	if uint64(len(body)) < uint64(metaLen) {
		return nil, ErrMalformedNode.New("successor metadata truncated")
	}
	if limits.NodeSize > 0 && len(data) > limits.NodeSize {
		return nil, ErrNodeTooLarge.New("successor node is %d bytes, limit is %d", len(data), limits.NodeSize)
	}
	return &Successor{
		Prev: prev,
		Meta: append([]byte(nil), body[:metaLen]...),
	}, nil
}
