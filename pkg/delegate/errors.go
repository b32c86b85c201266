// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package delegate

import "github.com/zeebo/errs"

// Error is this package's error class, following pkg/macaroon's
// Error/ErrUnauthorized/ErrRevoked hierarchy.
var Error = errs.Class("delegate")

// ErrUnauthorized means the request does not have standing to perform the
// operation (expired token, permission/scope/TTL narrowing violation).
var ErrUnauthorized = errs.Class("unauthorized")

// ErrRevoked means the delegate (or an ancestor) has been revoked.
var ErrRevoked = errs.Class("revoked")

// ErrDepthExceeded means minting the child would exceed the maximum
// delegation depth (spec.md §4.4 step 2, 15).
var ErrDepthExceeded = errs.Class("depth exceeded")

// ErrInvalidScope means the requested child scope is not a literal subset
// of the parent's scope (spec.md §4.4 step 4; SPEC_FULL.md decision #6).
var ErrInvalidScope = errs.Class("invalid scope")
