// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package auth

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.uber.org/zap"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// RootBootstrapper is the subset of *delegate.Engine's behavior the
// pipeline needs: ensuring a realm's root delegate exists idempotently
// (spec.md §4.4 "Root delegate"). Expressed as a local interface, rather
// than importing pkg/delegate, so pkg/delegate may depend on pkg/auth's
// types later without a cycle.
type RootBootstrapper interface {
	BootstrapRoot(ctx context.Context, realm codec.Realm) (store.Delegate, error)
}

// Pipeline resolves a raw `Authorization: Bearer <x>` value into a
// Principal (spec.md §4.5).
type Pipeline struct {
	log       *zap.Logger
	verifier  JWTVerifier
	delegates store.DelegateDb
	userRoles store.UserRoleDb
	bootstrap RootBootstrapper
}

// NewPipeline constructs a Pipeline.
func NewPipeline(log *zap.Logger, verifier JWTVerifier, delegates store.DelegateDb, userRoles store.UserRoleDb, bootstrap RootBootstrapper) *Pipeline {
	return &Pipeline{
		log: log, verifier: verifier, delegates: delegates,
		userRoles: userRoles, bootstrap: bootstrap,
	}
}

// Authenticate classifies bearer by spec.md §4.5's table and resolves it
// to a Principal. It never admits a Refresh Token: RTs are only valid on
// the refresh endpoint, which calls AuthenticateRefresh directly instead.
func (p *Pipeline) Authenticate(ctx context.Context, bearer string) (Principal, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return Principal{}, ErrUnauthenticated.New("missing bearer credential")
	}

	if raw, err := base64.RawURLEncoding.DecodeString(bearer); err == nil {
		switch codec.ClassifyBearerBytes(raw) {
		case codec.BearerAccessToken:
			return p.fromAccessToken(ctx, raw)
		case codec.BearerRefreshToken:
			return Principal{}, ErrUnauthenticated.New("refresh tokens are only valid on the refresh endpoint")
		}
		// Right length for neither AT nor RT: fall through and try JWT,
		// since a JWT's base64url segments can themselves decode cleanly.
	}

	return p.fromJWT(ctx, bearer)
}

// AuthenticateRefresh classifies bearer as a Refresh Token only, for the
// refresh endpoint (spec.md §4.5 "24 bytes -> RT").
func (p *Pipeline) AuthenticateRefresh(ctx context.Context, bearer string) (codec.RefreshToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(bearer))
	if err != nil || codec.ClassifyBearerBytes(raw) != codec.BearerRefreshToken {
		return codec.RefreshToken{}, ErrUnauthenticated.New("not a refresh token")
	}
	rt, err := codec.DecodeRefreshToken(raw)
	if err != nil {
		return codec.RefreshToken{}, ErrUnauthenticated.Wrap(err)
	}
	return rt, nil
}

func (p *Pipeline) fromAccessToken(ctx context.Context, raw []byte) (Principal, error) {
	at, err := codec.DecodeAccessToken(raw)
	if err != nil {
		return Principal{}, ErrUnauthenticated.Wrap(err)
	}
	if time.Now().After(at.ExpiresAt) {
		return Principal{}, ErrExpired.New("access token expired")
	}
	d, err := p.delegates.Get(ctx, at.DelegateID)
	if err != nil {
		return Principal{}, ErrUnauthenticated.Wrap(err)
	}
	if d.Revoked {
		return Principal{}, ErrRevoked.New("delegate %s is revoked", d.ID)
	}
	return Principal{
		DelegateID:     d.ID,
		Realm:          d.Realm,
		Depth:          d.Depth,
		CanUpload:      d.CanUpload,
		CanManageDepot: d.CanManageDepot,
		Scope:          d.Scope,
		AT:             at,
		HasAT:          true,
	}, nil
}

func (p *Pipeline) fromJWT(ctx context.Context, bearer string) (Principal, error) {
	userID, err := p.verifier.Verify(bearer)
	if err != nil {
		return Principal{}, ErrUnauthenticated.Wrap(err)
	}

	role, err := p.userRoles.GetRole(ctx, userID)
	if err != nil {
		return Principal{}, Error.Wrap(err)
	}
	if role == store.RoleUnauthorized {
		return Principal{}, ErrForbidden.New("user %x is not authorized", userID)
	}

	realm := codec.DeriveRealm(userID)
	root, err := p.bootstrap.BootstrapRoot(ctx, realm)
	if err != nil {
		return Principal{}, Error.Wrap(err)
	}

	// A JWT-derived caller is always the realm's root delegate, acting
	// under spec.md §4.5's "root-delegate AT with unbounded nonce" — no
	// literal AT bytes exist, but pkg/node's Claim already treats a root
	// principal as PoP-exempt so HasAT staying false is correct here too.
	p.log.Debug("authenticated via jwt", zap.String("realm", realm.String()))
	return Principal{
		DelegateID:     root.ID,
		Realm:          realm,
		Depth:          root.Depth,
		CanUpload:      root.CanUpload,
		CanManageDepot: root.CanManageDepot,
		Scope:          root.Scope,
		Role:           role,
		UserID:         userID,
		HasUser:        true,
	}, nil
}
