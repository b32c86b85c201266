// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/store/boltstore"
	"casfa.io/core/pkg/store/storetest"
)

func TestSuite(t *testing.T) {
	dbname := filepath.Join(t.TempDir(), "bolt.db")
	client, err := boltstore.New(dbname, "bucket")
	require.NoError(t, err)
	defer func() { require.NoError(t, client.Close()) }()

	storetest.RunTests(t, client)
}

func TestPortsSuite(t *testing.T) {
	dbname := filepath.Join(t.TempDir(), "ports.db")
	ports, err := boltstore.OpenPorts(dbname)
	require.NoError(t, err)
	defer func() { require.NoError(t, ports.Close()) }()

	storetest.RunPortTests(t, storetest.Ports{
		Blobs:     ports.Blobs,
		NodeMeta:  ports.NodeMeta,
		Ownership: ports.Ownership,
		RefCounts: ports.RefCounts,
		Depots:    ports.Depots,
		Delegates: ports.Delegates,
		Usage:        ports.Usage,
		UserRoles:    ports.UserRoles,
		UserAccounts: ports.UserAccounts,
	})
}
