// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package config_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"casfa.io/core/pkg/config"
)

func TestBind_AppliesDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var cfg config.Config
	v := config.Bind(flags, &cfg)

	require.NoError(t, flags.Parse(nil))
	require.NoError(t, config.Load(flags, v, &cfg))

	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "bolt", cfg.StoreBackend)
	require.Equal(t, 4*1024*1024, cfg.NodeSizeLimitBytes)
	require.Equal(t, 255, cfg.MaxNameBytes)
	require.Equal(t, 20, cfg.DefaultMaxHistory)
	require.Equal(t, 100, cfg.MaxMaxHistory)
	require.Equal(t, 15, cfg.MaxDelegationDepth)
	require.Equal(t, time.Hour, cfg.RootAccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RootRefreshTTL)
}

func TestBind_FlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var cfg config.Config
	v := config.Bind(flags, &cfg)

	require.NoError(t, flags.Parse([]string{
		"--listen-addr=:9999",
		"--store-backend=memory",
		"--max-delegation-depth=5",
	}))
	require.NoError(t, config.Load(flags, v, &cfg))

	require.Equal(t, ":9999", cfg.ListenAddr)
	require.Equal(t, "memory", cfg.StoreBackend)
	require.Equal(t, 5, cfg.MaxDelegationDepth)
	require.Equal(t, 255, cfg.MaxNameBytes)
}
