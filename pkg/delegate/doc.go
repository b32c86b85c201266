// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package delegate implements the capability/delegation engine of spec.md
// §4.4: root delegate bootstrap, child minting with strictly-narrowing
// permissions/scope/TTL, Access/Refresh Token issuance and refresh, and
// revocation cascades.
//
// The narrowing-caveat shape is grounded on the teacher's pkg/macaroon
// (APIKey.Restrict narrows a caveat set; Check verifies an action against
// the accumulated restrictions and a revocation list) generalized from "one
// macaroon with accumulated caveats" to "a persistent tree of delegate rows,
// each independently revocable."
package delegate
