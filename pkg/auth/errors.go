// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package auth

import "github.com/zeebo/errs"

// Error is this package's error class.
var Error = errs.Class("auth")

// ErrUnauthenticated means the bearer credential is missing, malformed,
// or does not classify as any known kind (spec.md §4.5 "else"). An expired
// access token is reported as ErrExpired instead.
var ErrUnauthenticated = errs.Class("unauthenticated")

// ErrForbidden means a credential was authenticated but lacks standing for
// the requested realm, role, or permission.
var ErrForbidden = errs.Class("forbidden")

// ErrRevoked means the delegate (or an ancestor) backing the credential has
// been revoked.
var ErrRevoked = errs.Class("delegate revoked")

// ErrExpired means the bearer credential was well-formed but has passed its
// expiry (spec.md §7's EXPIRED kind), distinct from ErrUnauthenticated so
// the HTTP layer can report the more specific reason.
var ErrExpired = errs.Class("expired")
