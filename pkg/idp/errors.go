// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package idp

import "github.com/zeebo/errs"

// Error is this package's error class.
var Error = errs.Class("idp")

// ErrEmailTaken means register was called with an email already on file.
var ErrEmailTaken = errs.Class("email already registered")

// ErrInvalidCredentials means login was called with an unknown email or a
// password that does not match the one on file.
var ErrInvalidCredentials = errs.Class("invalid credentials")
