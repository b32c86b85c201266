// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package codec

import "github.com/zeebo/errs"

// Error is the class for every error this package returns.
var Error = errs.Class("codec")

// ErrMalformedNode is returned when a byte string cannot be parsed as a
// well-formed node of its claimed kind.
var ErrMalformedNode = errs.Class("malformed node")

// ErrNodeTooLarge is returned when an encoded node would exceed the
// configured node size limit.
var ErrNodeTooLarge = errs.Class("node too large")

// ErrHashMismatch is returned when a caller-supplied NodeKey does not match
// the BLAKE3 digest of the bytes they claim to identify.
var ErrHashMismatch = errs.Class("hash mismatch")
