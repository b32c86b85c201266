// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Command casfa-server runs the CASFA HTTP service of spec.md §6.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"casfa.io/core/pkg/api"
	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/config"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/depot"
	"casfa.io/core/pkg/idp"
	"casfa.io/core/pkg/lifecycle"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
	"casfa.io/core/pkg/store/boltstore"
	"casfa.io/core/pkg/store/memstore"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "casfa-server",
	Short: "CASFA content-addressed storage service",
	RunE:  run,
}

func init() {
	viperInstance := config.Bind(rootCmd.Flags(), &cfg)
	cobra.OnInitialize(func() {
		if err := config.Load(rootCmd.Flags(), viperInstance, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, "loading configuration:", err)
			os.Exit(1)
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ports bundles the store backends a run needs to tear down on shutdown
// alongside the plain store.* interfaces the domain services consume.
type ports struct {
	blobs     store.BlobStore
	nodeMeta  store.NodeMetaDb
	ownership store.OwnershipDb
	refcounts store.RefCountDb
	depots    store.DepotDb
	delegates store.DelegateDb
	usage     store.UsageDb
	userRoles store.UserRoleDb
	accounts  store.UserAccountDb

	closer func() error
}

func openPorts(c config.Config) (*ports, error) {
	switch c.StoreBackend {
	case "memory":
		return &ports{
			blobs:     memstore.NewBlobs(),
			nodeMeta:  memstore.NewNodeMeta(),
			ownership: memstore.NewOwnership(),
			refcounts: memstore.NewRefCounts(),
			depots:    memstore.NewDepots(),
			delegates: memstore.NewDelegates(),
			usage:     memstore.NewUsage(),
			userRoles: memstore.NewUserRoles(),
			accounts:  memstore.NewUserAccounts(),
			closer:    func() error { return nil },
		}, nil

	case "bolt", "":
		p, err := boltstore.OpenPorts(c.BoltPath)
		if err != nil {
			return nil, err
		}
		return &ports{
			blobs:     p.Blobs,
			nodeMeta:  p.NodeMeta,
			ownership: p.Ownership,
			refcounts: p.RefCounts,
			depots:    p.Depots,
			delegates: p.Delegates,
			usage:     p.Usage,
			userRoles: p.UserRoles,
			accounts:  p.UserAccounts,
			closer:    p.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unrecognized store-backend %q", c.StoreBackend)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p, err := openPorts(cfg)
	if err != nil {
		return fmt.Errorf("opening store backend %q: %w", cfg.StoreBackend, err)
	}

	limits := codec.Limits{NodeSize: cfg.NodeSizeLimitBytes, MaxNameBytes: cfg.MaxNameBytes}

	nodes := node.NewService(log.Named("node"), p.blobs, p.nodeMeta, p.ownership, p.refcounts, p.usage, p.delegates, limits)
	engine := delegate.NewEngine(log.Named("delegate"), p.delegates, p.blobs, cfg.MaxDelegationDepth)
	mutator := depot.NewMutator(log.Named("depot"), nodes, p.depots, cfg.DefaultMaxHistory, cfg.MaxMaxHistory, limits)

	if cfg.JWTSecret == "" {
		log.Warn("jwt-secret is empty; local JWTs are signed with an empty HMAC key")
	}
	verifier := auth.NewHMACVerifier([]byte(cfg.JWTSecret))
	pipeline := auth.NewPipeline(log.Named("auth"), verifier, p.delegates, p.userRoles, engine)
	idpSvc := idp.NewService(log.Named("idp"), p.accounts, verifier)

	server := api.NewServer(api.Deps{
		Log:        log.Named("api"),
		ListenAddr: cfg.ListenAddr,
		Info:       api.Info{Name: "casfa-server", Version: "dev"},
		Pipeline:   pipeline,
		Engine:     engine,
		Nodes:      nodes,
		Depots:     mutator,
		IdP:        idpSvc,
		UserRoles:  p.userRoles,
		Usage:      p.usage,
	})

	group := lifecycle.NewGroup(log.Named("lifecycle"))
	group.Add(lifecycle.Item{
		Name:  "http",
		Run:   server.Run,
		Close: server.Close,
	})
	group.Add(lifecycle.Item{
		Name:  "store",
		Close: p.closer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var eg errgroup.Group
	group.Run(ctx, &eg)
	waitErr := eg.Wait()
	closeErr := group.Close()

	if waitErr != nil {
		return waitErr
	}
	return closeErr
}
