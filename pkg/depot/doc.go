// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package depot implements the depot mutator of spec.md §4.3: a pure
// function from (currentRoot, operation) to newRoot over the immutable
// node graph, plus the Depot record (head, bounded history) that commits
// a mutation's result.
//
// The path-segment walk is grounded on the teacher's pkg/paths.Iterator
// (Next/Done/Consumed over a "/"-separated string), generalized from
// object-key iteration to directory descent and tightened to spec.md's
// rule that a path segment must be non-empty.
package depot
