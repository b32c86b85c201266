// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package castest assembles a complete, in-memory-backed Server for
// HTTP-level tests, the way the teacher's own private/testplanet builds a
// full in-process "planet" of satellites and storage nodes for its own
// integration tests.
package castest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"casfa.io/core/pkg/api"
	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/depot"
	"casfa.io/core/pkg/idp"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
	"casfa.io/core/pkg/store/memstore"
)

// Planet bundles a fully wired Server plus every store port and domain
// service behind it, so a test can both drive HTTP requests and reach
// underneath them (e.g. to bootstrap a root delegate directly, or inspect
// a ref-count) without re-deriving the wiring itself.
type Planet struct {
	Server *api.Server

	Verifier  *auth.HMACVerifier
	Pipeline  *auth.Pipeline
	Engine    *delegate.Engine
	Nodes     *node.Service
	Depots    *depot.Mutator
	IdP       *idp.Service
	UserRoles *memstore.UserRoles
}

// NewPlanet constructs a Planet with every port backed by memstore and a
// throwaway HMAC signing secret — never use this outside of tests.
func NewPlanet(t testing.TB) *Planet {
	t.Helper()
	log := zaptest.NewLogger(t)

	blobs := memstore.NewBlobs()
	nodeMeta := memstore.NewNodeMeta()
	ownership := memstore.NewOwnership()
	refcounts := memstore.NewRefCounts()
	usage := memstore.NewUsage()
	delegates := memstore.NewDelegates()
	depots := memstore.NewDepots()
	userRoles := memstore.NewUserRoles()
	accounts := memstore.NewUserAccounts()

	limits := codec.DefaultLimits()

	nodes := node.NewService(log, blobs, nodeMeta, ownership, refcounts, usage, delegates, limits)
	engine := delegate.NewEngine(log, delegates, blobs, delegate.DefaultMaxDepth)
	mutator := depot.NewMutator(log, nodes, depots, 20, 100, limits)

	verifier := auth.NewHMACVerifier([]byte("castest-signing-secret"))
	pipeline := auth.NewPipeline(log, verifier, delegates, userRoles, engine)
	idpSvc := idp.NewService(log, accounts, verifier)

	server := api.NewServer(api.Deps{
		Log:        log,
		ListenAddr: "127.0.0.1:0",
		Info:       api.Info{Name: "casfa", Version: "test"},
		Pipeline:   pipeline,
		Engine:     engine,
		Nodes:      nodes,
		Depots:     mutator,
		IdP:        idpSvc,
		UserRoles:  userRoles,
		Usage:      usage,
	})

	return &Planet{
		Server:    server,
		Verifier:  verifier,
		Pipeline:  pipeline,
		Engine:    engine,
		Nodes:     nodes,
		Depots:    mutator,
		IdP:       idpSvc,
		UserRoles: userRoles,
	}
}

// NewTestServer starts an httptest.Server fronting p's Server, for tests
// that want to exercise the HTTP transport itself rather than calling
// p.Server.Router() directly.
func (p *Planet) NewTestServer() *httptest.Server {
	return httptest.NewServer(p.Server.Router())
}

// BootstrapRootJWT mints a JWT for a fresh admin-role user and ensures its
// realm's root delegate exists, returning both for use as a Bearer value.
func (p *Planet) BootstrapRootJWT(userID [16]byte) (jwt string, realm codec.Realm, err error) {
	ctx := context.Background()
	if err := p.UserRoles.SetRole(ctx, userID, store.RoleAdmin); err != nil {
		return "", codec.Realm{}, err
	}
	token, err := p.Verifier.Sign(userID, time.Now().Add(time.Hour))
	if err != nil {
		return "", codec.Realm{}, err
	}
	realm = codec.DeriveRealm(userID)
	if _, err := p.Engine.BootstrapRoot(ctx, realm); err != nil {
		return "", codec.Realm{}, err
	}
	return token, realm, nil
}
