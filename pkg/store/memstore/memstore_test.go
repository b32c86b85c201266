// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package memstore_test

import (
	"testing"

	"casfa.io/core/pkg/store/memstore"
	"casfa.io/core/pkg/store/storetest"
)

func TestSuite(t *testing.T) {
	storetest.RunTests(t, memstore.New())
}

func TestPortsSuite(t *testing.T) {
	storetest.RunPortTests(t, storetest.Ports{
		Blobs:     memstore.NewBlobs(),
		NodeMeta:  memstore.NewNodeMeta(),
		Ownership: memstore.NewOwnership(),
		RefCounts: memstore.NewRefCounts(),
		Depots:    memstore.NewDepots(),
		Delegates: memstore.NewDelegates(),
		Usage:        memstore.NewUsage(),
		UserRoles:    memstore.NewUserRoles(),
		UserAccounts: memstore.NewUserAccounts(),
	})
}
