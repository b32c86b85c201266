// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
	"casfa.io/core/pkg/store/memstore"
)

type stubBootstrapper struct {
	delegates *memstore.Delegates
}

func (s *stubBootstrapper) BootstrapRoot(ctx context.Context, realm codec.Realm) (store.Delegate, error) {
	existing, ok, err := s.delegates.GetRoot(ctx, realm)
	if err != nil {
		return store.Delegate{}, err
	}
	if ok {
		return existing, nil
	}
	var id codec.DelegateID
	copy(id[:], realm[:])
	root := store.Delegate{
		ID: id, Realm: realm, Depth: 0,
		CanUpload: true, CanManageDepot: true, Scope: codec.WellKnownEmptySet,
	}
	return root, s.delegates.Put(ctx, root)
}

func newPipeline(t *testing.T) (*auth.Pipeline, *auth.HMACVerifier, *memstore.Delegates, *memstore.UserRoles) {
	t.Helper()
	verifier := auth.NewHMACVerifier([]byte("test-secret"))
	delegates := memstore.NewDelegates()
	userRoles := memstore.NewUserRoles()
	p := auth.NewPipeline(zap.NewNop(), verifier, delegates, userRoles, &stubBootstrapper{delegates: delegates})
	return p, verifier, delegates, userRoles
}

func TestAuthenticate_JWTBootstrapsRootDelegate(t *testing.T) {
	p, verifier, _, userRoles := newPipeline(t)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, userRoles.SetRole(ctx, [16]byte(userID), store.RoleUser))

	token, err := verifier.Sign([16]byte(userID), time.Now().Add(time.Hour))
	require.NoError(t, err)

	principal, err := p.Authenticate(ctx, token)
	require.NoError(t, err)
	require.True(t, principal.IsRoot())
	require.True(t, principal.CanUpload)
	require.True(t, principal.CanManageDepot)
	require.False(t, principal.HasAT)
	require.Equal(t, codec.DeriveRealm([16]byte(userID)), principal.Realm)

	// Idempotent: a second JWT for the same user resolves to the same
	// root delegate rather than minting a new one.
	again, err := p.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, principal.DelegateID, again.DelegateID)
}

func TestAuthenticate_UnauthorizedRoleIsForbidden(t *testing.T) {
	p, verifier, _, userRoles := newPipeline(t)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, userRoles.SetRole(ctx, [16]byte(userID), store.RoleUnauthorized))
	token, err := verifier.Sign([16]byte(userID), time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, token)
	require.Error(t, err)
	require.True(t, auth.ErrForbidden.Has(err))
}

func TestAuthenticate_AccessTokenResolvesDelegate(t *testing.T) {
	p, _, delegates, _ := newPipeline(t)
	ctx := context.Background()

	realm := testRealmFor(5)
	var delegateID codec.DelegateID
	delegateID[0] = 9
	d := store.Delegate{
		ID: delegateID, Realm: realm, Depth: 1,
		CanUpload: true, Scope: codec.WellKnownEmptySet,
	}
	require.NoError(t, delegates.Put(ctx, d))

	at, err := codec.NewAccessToken(delegateID, time.Now().Add(time.Hour).Truncate(time.Millisecond))
	require.NoError(t, err)

	principal, err := p.Authenticate(ctx, at.String())
	require.NoError(t, err)
	require.Equal(t, delegateID, principal.DelegateID)
	require.True(t, principal.HasAT)
	require.Equal(t, at, principal.AT)
}

func TestAuthenticate_ExpiredAccessTokenRejected(t *testing.T) {
	p, _, delegates, _ := newPipeline(t)
	ctx := context.Background()

	realm := testRealmFor(6)
	var delegateID codec.DelegateID
	delegateID[0] = 10
	require.NoError(t, delegates.Put(ctx, store.Delegate{ID: delegateID, Realm: realm, Depth: 1}))

	at, err := codec.NewAccessToken(delegateID, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, at.String())
	require.Error(t, err)
	require.True(t, auth.ErrExpired.Has(err))
}

func TestAuthenticate_RevokedDelegateRejected(t *testing.T) {
	p, _, delegates, _ := newPipeline(t)
	ctx := context.Background()

	realm := testRealmFor(7)
	var delegateID codec.DelegateID
	delegateID[0] = 11
	require.NoError(t, delegates.Put(ctx, store.Delegate{
		ID: delegateID, Realm: realm, Depth: 1, Revoked: true,
	}))

	at, err := codec.NewAccessToken(delegateID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, at.String())
	require.Error(t, err)
	require.True(t, auth.ErrRevoked.Has(err))
}

func TestAuthenticate_RefreshTokenRejectedOnMainPath(t *testing.T) {
	p, _, _, _ := newPipeline(t)
	ctx := context.Background()

	var delegateID codec.DelegateID
	delegateID[0] = 12
	rt, err := codec.NewRefreshToken(delegateID)
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, rt.String())
	require.Error(t, err)
	require.True(t, auth.ErrUnauthenticated.Has(err))
}

func TestAuthenticateRefresh_AcceptsOnlyRefreshTokens(t *testing.T) {
	p, _, _, _ := newPipeline(t)
	ctx := context.Background()

	var delegateID codec.DelegateID
	delegateID[0] = 13
	rt, err := codec.NewRefreshToken(delegateID)
	require.NoError(t, err)

	parsed, err := p.AuthenticateRefresh(ctx, rt.String())
	require.NoError(t, err)
	require.Equal(t, rt, parsed)

	at, err := codec.NewAccessToken(delegateID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = p.AuthenticateRefresh(ctx, at.String())
	require.Error(t, err)
}

func testRealmFor(seed byte) codec.Realm {
	var r codec.Realm
	for i := range r {
		r[i] = seed
	}
	return r
}
