// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package store declares the persistence ports the rest of this module
// depends on: a generic key/value Store (grounded on the teacher's
// private/kvstore.Store) plus nine domain-specific ports: the eight spec.md §3
// requires records for (blobs, per-realm node metadata, ownership,
// ref-counts, depots, delegates, usage, and user roles) and one for
// local-IdP user accounts.
//
// Concrete implementations live in pkg/store/boltstore (durable, one
// process) and pkg/store/memstore (in-memory, used by tests and by
// internal/castest). Both implement every port in this package and are
// exercised by the shared conformance suite in pkg/store/storetest.
package store
