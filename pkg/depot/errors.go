// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package depot

import "github.com/zeebo/errs"

// Error is this package's error class.
var Error = errs.Class("depot")

// ErrNotADirectory means an intermediate path segment resolved to a
// non-Dict node.
var ErrNotADirectory = errs.Class("not a directory")

// ErrNotAFile means read() resolved to a non-File node.
var ErrNotAFile = errs.Class("not a file")

// ErrParentMissing means a write-family op's parent directory does not
// exist (mkdir -p semantics are not provided, spec.md §4.3).
var ErrParentMissing = errs.Class("parent missing")

// ErrExists means mkdir/cp/mv's destination name is already taken.
var ErrExists = errs.Class("exists")

// ErrRefuseRootDelete means rm was asked to remove the depot root itself.
var ErrRefuseRootDelete = errs.Class("refuse root delete")

// ErrInvalidPath means a path failed spec.md §4.3's segment rules.
var ErrInvalidPath = errs.Class("invalid path")

// ErrUnauthorized means the caller lacks canManageDepot for commit
// (spec.md §4.3 "Commit contract").
var ErrUnauthorized = errs.Class("unauthorized")
