// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package idp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/idp"
	"casfa.io/core/pkg/store/memstore"
)

func newService(t *testing.T) (*idp.Service, *auth.HMACVerifier) {
	t.Helper()
	verifier := auth.NewHMACVerifier([]byte("test-secret"))
	svc := idp.NewService(zap.NewNop(), memstore.NewUserAccounts(), verifier)
	return svc, verifier
}

func TestRegister_IssuesSessionAndRejectsDuplicateEmail(t *testing.T) {
	svc, verifier := newService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "person@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)

	userID, err := verifier.Verify(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, session.UserID, userID)

	_, err = svc.Register(ctx, "person@example.com", "different")
	require.Error(t, err)
	require.True(t, idp.ErrEmailTaken.Has(err))
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "person@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "person@example.com", "wrong")
	require.Error(t, err)
	require.True(t, idp.ErrInvalidCredentials.Has(err))

	session, err := svc.Login(ctx, "person@example.com", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
}

func TestRefresh_IssuesNewSessionAndRejectsAccessToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "person@example.com", "hunter2")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, registered.UserID, refreshed.UserID)

	_, err = svc.Refresh(ctx, registered.AccessToken)
	require.Error(t, err)
}
