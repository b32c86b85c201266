// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "github.com/zeebo/blake3"

// IDSize is the raw byte length of a Realm, Depot, or Delegate identifier.
const IDSize = 16

// RealmPrefix, DepotPrefix and DelegatePrefix are the textual prefixes for
// the remaining 16-byte identifier families in spec.md §6. spec.md lists
// "tkn_" as a 16-byte Crockford-Base32 family without naming what it
// identifies; this repo uses it for the Delegate ID, the only 16-byte ID in
// the data model spec.md does not otherwise assign a prefix to.
const (
	RealmPrefix    = "usr_"
	DepotPrefix    = "depot:"
	DelegatePrefix = "tkn_"
)

// Realm is a realm identifier: usr_<base32>.
type Realm [IDSize]byte

func (r Realm) String() string { return encodeID(RealmPrefix, r[:]) }

// ParseRealm parses the "usr_..." textual form.
func ParseRealm(s string) (Realm, error) {
	raw, err := decodeID(RealmPrefix, s)
	if err != nil {
		return Realm{}, Error.Wrap(err)
	}
	if len(raw) != IDSize {
		return Realm{}, Error.New("realm must decode to %d bytes, got %d", IDSize, len(raw))
	}
	var r Realm
	copy(r[:], raw)
	return r, nil
}

// DeriveRealm computes the realm for a user identity (a UUID's raw bytes),
// deterministically and without leaking the UUID's own structure: realms
// and user IDs are different namespaces even though both are 16 bytes.
func DeriveRealm(userID [16]byte) Realm {
	h := blake3.NewDeriveKey("casfa.io/core realm v1")
	_, _ = h.Write(userID[:])
	var out Realm
	if _, err := h.Digest().Read(out[:]); err != nil {
		panic(err)
	}
	return out
}

// DepotID identifies a depot: depot:<base32>.
type DepotID [IDSize]byte

func (d DepotID) String() string { return encodeID(DepotPrefix, d[:]) }

// ParseDepotID parses the "depot:..." textual form.
func ParseDepotID(s string) (DepotID, error) {
	raw, err := decodeID(DepotPrefix, s)
	if err != nil {
		return DepotID{}, Error.Wrap(err)
	}
	if len(raw) != IDSize {
		return DepotID{}, Error.New("depot id must decode to %d bytes, got %d", IDSize, len(raw))
	}
	var d DepotID
	copy(d[:], raw)
	return d, nil
}

// DelegateID identifies a Delegate: tkn_<base32>, a raw UUIDv7.
type DelegateID [IDSize]byte

func (d DelegateID) String() string { return encodeID(DelegatePrefix, d[:]) }

// ParseDelegateID parses the "tkn_..." textual form.
func ParseDelegateID(s string) (DelegateID, error) {
	raw, err := decodeID(DelegatePrefix, s)
	if err != nil {
		return DelegateID{}, Error.Wrap(err)
	}
	if len(raw) != IDSize {
		return DelegateID{}, Error.New("delegate id must decode to %d bytes, got %d", IDSize, len(raw))
	}
	var d DelegateID
	copy(d[:], raw)
	return d, nil
}

// IsZero reports whether d is the zero value, used to mean "no parent"
// for a root delegate.
func (d DelegateID) IsZero() bool { return d == DelegateID{} }
