// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package node

import "github.com/zeebo/errs"

// Error is this package's error class. Hash/size/decode failures surface
// under their own classes from pkg/codec (ErrHashMismatch, ErrNodeTooLarge,
// ErrMalformedNode); not-found surfaces as pkg/store's ErrNotFound. This
// package adds only the two outcomes that are specific to node-level
// authorization (spec.md §4.2 "Failure model").
var Error = errs.Class("node")

// ErrUnauthorized means the caller lacks the baseline standing for the
// operation (no upload permission, no access token to key a claim with).
var ErrUnauthorized = errs.Class("unauthorized")

// ErrForbidden means the caller is authenticated but the specific key is
// outside what they may read, write, or claim.
var ErrForbidden = errs.Class("forbidden")
