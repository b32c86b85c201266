// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

// WellKnownEmptyDict and WellKnownEmptySet are addressable without any
// prior upload: their NodeKeys are deterministic functions of their
// (empty) content, so client and server always agree on them.
var (
	WellKnownEmptyDict = DeriveNodeKey(EmptyDict().Encode())
	WellKnownEmptySet  = DeriveNodeKey(EmptySet().Encode())
)

// IsWellKnown reports whether key is one of the well-known constant nodes.
func IsWellKnown(key NodeKey) bool {
	return key == WellKnownEmptyDict || key == WellKnownEmptySet
}

// WellKnownBytes returns the canonical encoding for a well-known key, or
// false if key is not well-known.
func WellKnownBytes(key NodeKey) ([]byte, bool) {
	switch key {
	case WellKnownEmptyDict:
		return EmptyDict().Encode(), true
	case WellKnownEmptySet:
		return EmptySet().Encode(), true
	default:
		return nil, false
	}
}
