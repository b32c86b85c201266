// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

// Kind tags the canonical encoding of a Node.
type Kind byte

// The four node kinds spec.md defines. Values are part of the wire format
// and must never be renumbered.
const (
	KindFile      Kind = 1
	KindDict      Kind = 2
	KindSuccessor Kind = 3
	KindSet       Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDict:
		return "dict"
	case KindSuccessor:
		return "successor"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Node is any of the four canonical node kinds. Encode is pure and
// deterministic: encoding the same logical value twice always yields the
// same bytes, so DeriveNodeKey(n.Encode()) is stable.
type Node interface {
	Kind() Kind
	Encode() []byte
}

// Limits bounds what the codec will accept. There is no global default;
// every call site is handed the Limits its realm/server was configured
// with (spec.md §6 "Configuration").
type Limits struct {
	NodeSize     int // max encoded node length in bytes, default 4 MiB
	MaxNameBytes int // max Dict entry name length in bytes, default 255
}

// DefaultLimits returns spec.md's documented defaults.
func DefaultLimits() Limits {
	return Limits{
		NodeSize:     4 << 20,
		MaxNameBytes: 255,
	}
}

// EncodeChecked encodes n and rejects the result if it exceeds limits.NodeSize.
func EncodeChecked(n Node, limits Limits) ([]byte, error) {
	data := n.Encode()
	if limits.NodeSize > 0 && len(data) > limits.NodeSize {
		return nil, ErrNodeTooLarge.New("%s node encodes to %d bytes, limit is %d", n.Kind(), len(data), limits.NodeSize)
	}
	return data, nil
}

// Decode dispatches on the leading kind tag and parses data as the
// corresponding Node. It is the server's only path from untrusted bytes to
// a structured Node — the server never trusts client-declared structure.
func Decode(data []byte, limits Limits) (Node, error) {
	if len(data) == 0 {
		return nil, ErrMalformedNode.New("empty body")
	}
	switch Kind(data[0]) {
	case KindFile:
		return DecodeFile(data, limits)
	case KindDict:
		return DecodeDict(data, limits)
	case KindSuccessor:
		return DecodeSuccessor(data, limits)
	case KindSet:
		return DecodeSet(data, limits)
	default:
		return nil, ErrMalformedNode.New("unknown kind tag %d", data[0])
	}
}

// ChildRefs returns the NodeKeys a Dict or Successor body references, each
// repeated once per occurrence — this is exactly the set of ref-count
// increments a successful PUT of n must apply (spec.md §4.2 step 5).
func ChildRefs(n Node) []NodeKey {
	switch v := n.(type) {
	case *Dict:
		refs := make([]NodeKey, len(v.Entries))
		for i, e := range v.Entries {
			refs[i] = e.Key
		}
		return refs
	case *Successor:
		return []NodeKey{v.Prev}
	default:
		return nil
	}
}
