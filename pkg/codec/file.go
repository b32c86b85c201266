// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "encoding/binary"

// File is a leaf node carrying raw bytes and a declared content type.
// Content type is free-form and validated only for length.
type File struct {
	ContentType string
	Payload     []byte
}

// Kind implements Node.
func (f *File) Kind() Kind { return KindFile }

// Size is the declared size of the payload, as stored in the header.
func (f *File) Size() uint64 { return uint64(len(f.Payload)) }

// Encode implements Node. Layout: tag(1) || ctLen(u32 LE) || payloadLen(u64 LE)
// || contentType || payload.
func (f *File) Encode() []byte {
	out := make([]byte, 1+4+8+len(f.ContentType)+len(f.Payload))
	out[0] = byte(KindFile)
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(f.ContentType)))
	binary.LittleEndian.PutUint64(out[5:13], uint64(len(f.Payload)))
	n := copy(out[13:], f.ContentType)
	copy(out[13+n:], f.Payload)
	return out
}

// DecodeFile parses a File previously produced by Encode.
func DecodeFile(data []byte, limits Limits) (*File, error) {
	if len(data) < 13 {
		return nil, ErrMalformedNode.New("file header truncated")
	}
	if Kind(data[0]) != KindFile {
		return nil, ErrMalformedNode.New("not a file node")
	}
	ctLen := binary.LittleEndian.Uint32(data[1:5])
	payloadLen := binary.LittleEndian.Uint64(data[5:13])

	body := data[13:]
	if uint64(len(body)) != uint64(ctLen)+payloadLen {
		return nil, ErrMalformedNode.New("file body truncated")
	}
	contentType := string(body[:ctLen])
	payload := body[uint64(ctLen) : uint64(ctLen)+payloadLen]

	if limits.NodeSize > 0 && len(data) > limits.NodeSize {
		return nil, ErrNodeTooLarge.New("file node is %d bytes, limit is %d", len(data), limits.NodeSize)
	}

	// Defensive copy: body is a slice of the caller's buffer.
	out := &File{
		ContentType: contentType,
		Payload:     append([]byte(nil), payload...),
	}
	return out, nil
}
