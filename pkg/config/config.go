// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package config is casfa-server's environment-driven configuration
// (spec.md §6 "Configuration"): a single flat struct, bound onto both CLI
// flags and environment variables, the same way the teacher's
// pkg/cfgstruct binds a config struct onto a pflag.FlagSet and layers
// viper env-var lookups on top of it.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is casfa-server's full set of environment-driven settings.
type Config struct {
	ListenAddr string

	StoreBackend string
	BoltPath     string

	BlobBackend string
	BlobPath    string

	JWTVerifier string
	JWTSecret   string

	NodeSizeLimitBytes int
	MaxNameBytes       int
	DefaultMaxHistory  int
	MaxMaxHistory      int
	MaxDelegationDepth int
	RootAccessTTL      time.Duration
	RootRefreshTTL     time.Duration
}

// Bind registers every Config field onto flags, with the values spec.md's
// "Configuration" section names as defaults, then layers a viper instance
// on top so a CASFA_<FLAG_NAME> environment variable (e.g.
// CASFA_LISTEN_ADDR) overrides the flag default. Call Load after flags
// have been parsed to read the final, possibly env-overridden, values
// back into cfg.
func Bind(flags *pflag.FlagSet, cfg *Config) *viper.Viper {
	flags.StringVar(&cfg.ListenAddr, "listen-addr", ":8080", "address to listen on")
	flags.StringVar(&cfg.StoreBackend, "store-backend", "bolt", "metadata/ownership/depot backend: bolt or memory")
	flags.StringVar(&cfg.BoltPath, "bolt-path", "casfa.db", "boltdb file path when store-backend=bolt")
	flags.StringVar(&cfg.BlobBackend, "blob-backend", "filesystem", "blob backend selector; casfa-server does not read it and keeps blobs in the store-backend")
	flags.StringVar(&cfg.BlobPath, "blob-path", "./blobs", "blob directory root; casfa-server does not read it")
	flags.StringVar(&cfg.JWTVerifier, "jwt-verifier", "local", "JWT verifier selector: local (pkg/idp's own HMAC verifier)")
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", "", "shared HMAC secret for the local JWT verifier")

	flags.IntVar(&cfg.NodeSizeLimitBytes, "node-size-limit-bytes", 4*1024*1024, "maximum encoded node size")
	flags.IntVar(&cfg.MaxNameBytes, "max-name-bytes", 255, "maximum Dict entry name length in bytes")
	flags.IntVar(&cfg.DefaultMaxHistory, "default-max-history", 20, "default depot history length")
	flags.IntVar(&cfg.MaxMaxHistory, "max-max-history", 100, "upper bound a depot may raise its max history to")
	flags.IntVar(&cfg.MaxDelegationDepth, "max-delegation-depth", 15, "maximum delegate tree depth")
	flags.DurationVar(&cfg.RootAccessTTL, "root-access-ttl", time.Hour, "root delegate's default access token TTL; casfa-server does not pass it on, roots use delegate.DefaultAccessTTL (1h)")
	flags.DurationVar(&cfg.RootRefreshTTL, "root-refresh-ttl", 30*24*time.Hour, "root delegate's default refresh token TTL; casfa-server does not pass it on, roots use delegate.DefaultRefreshTTL (30 days)")

	v := viper.New()
	v.SetEnvPrefix("casfa")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load re-reads cfg's fields from flags, letting any bound environment
// variable in v override the flag's value. Call after flags.Parse.
func Load(flags *pflag.FlagSet, v *viper.Viper, cfg *Config) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	cfg.ListenAddr = v.GetString("listen-addr")
	cfg.StoreBackend = v.GetString("store-backend")
	cfg.BoltPath = v.GetString("bolt-path")
	cfg.BlobBackend = v.GetString("blob-backend")
	cfg.BlobPath = v.GetString("blob-path")
	cfg.JWTVerifier = v.GetString("jwt-verifier")
	cfg.JWTSecret = v.GetString("jwt-secret")

	cfg.NodeSizeLimitBytes = v.GetInt("node-size-limit-bytes")
	cfg.MaxNameBytes = v.GetInt("max-name-bytes")
	cfg.DefaultMaxHistory = v.GetInt("default-max-history")
	cfg.MaxMaxHistory = v.GetInt("max-max-history")
	cfg.MaxDelegationDepth = v.GetInt("max-delegation-depth")
	cfg.RootAccessTTL = v.GetDuration("root-access-ttl")
	cfg.RootRefreshTTL = v.GetDuration("root-refresh-ttl")
	return nil
}
