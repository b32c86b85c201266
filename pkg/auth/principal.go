// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package auth

import (
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Permission is one of the five policy labels an endpoint declares
// (spec.md §4.5 "Policy check per operation").
type Permission string

const (
	ReadNode       Permission = "read_node"
	WriteNode      Permission = "write_node"
	ManageDepot    Permission = "manage_depot"
	ManageDelegate Permission = "manage_delegate"
	AdminOnly      Permission = "admin_only"
)

// Principal is the derived identity of spec.md §4.5: "{delegateId, realm,
// permissions, scope, depth, tokenBytes}". AT/HasAT additionally carry the
// literal Access Token the caller presented, needed verbatim for PoP
// verification (pkg/codec.VerifyPoP keys on the AT's bytes, nonce
// included) — empty for a JWT-derived root, which skips PoP (spec.md §4.2
// "claim").
type Principal struct {
	DelegateID     codec.DelegateID
	Realm          codec.Realm
	Depth          int
	CanUpload      bool
	CanManageDepot bool
	Scope          codec.NodeKey
	Role           store.Role

	// UserID is set only on the JWT-derived path (spec.md §4.5): an
	// AT-derived principal authenticates as a delegate, not a user account,
	// so UserID stays zero there.
	UserID  [16]byte
	HasUser bool

	AT    codec.AccessToken
	HasAT bool
}

// IsRoot reports whether the principal is a depth-0 delegate, which sees
// the whole realm (spec.md §4.2 "get").
func (p Principal) IsRoot() bool { return p.Depth == 0 }

// Allows reports whether the principal satisfies perm. This is a coarse,
// pre-handler check (spec.md §4.5); operations that need finer-grained
// authorization (e.g. scope membership on a specific key) check it
// themselves.
func (p Principal) Allows(perm Permission) bool {
	switch perm {
	case ReadNode:
		return true
	case WriteNode:
		return p.CanUpload
	case ManageDepot:
		return p.CanManageDepot
	case ManageDelegate:
		return true
	case AdminOnly:
		return p.Role == store.RoleAdmin
	default:
		return false
	}
}
