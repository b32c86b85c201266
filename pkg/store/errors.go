// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package store

import "github.com/zeebo/errs"

// Error is the class for every error this package and its implementations
// return, following the teacher's one-class-per-package convention.
var Error = errs.Class("store")

// ErrNotFound is returned by Get-style methods when the key is absent. Use
// Error.Has(err) or errors.Is against this value at call sites.
var ErrNotFound = Error.New("not found")

// ErrConflict is returned when a create finds its key already taken
// (DepotDb.Create on an existing depot, UserAccountDb.Create on an email
// already registered).
var ErrConflict = Error.New("conflict")

// Wrap tags err with this package's Error class unless it already is one of
// the sentinel values above, which callers compare against with plain `==`.
// Backends should use this instead of Error.Wrap directly so a sentinel
// returned by a transaction body survives the trip back through
// db.Update/db.View unchanged.
func Wrap(err error) error {
	if err == nil || err == ErrNotFound || err == ErrConflict {
		return err
	}
	return Error.Wrap(err)
}
