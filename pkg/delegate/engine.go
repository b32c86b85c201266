// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package delegate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Defaults for freshly-minted delegates that do not inherit a narrower
// value from their parent. spec.md does not fix numeric TTLs or the
// depth cap beyond "<= 15" (§3 "Invariants"); these are this repo's choice.
const (
	DefaultMaxDepth   = 15
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Engine is the delegate/capability engine of spec.md §4.4.
type Engine struct {
	log       *zap.Logger
	delegates store.DelegateDb
	blobs     store.BlobStore
	maxDepth  int
}

// NewEngine constructs an Engine. maxDepth <= 0 selects DefaultMaxDepth.
func NewEngine(log *zap.Logger, delegates store.DelegateDb, blobs store.BlobStore, maxDepth int) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Engine{log: log, delegates: delegates, blobs: blobs, maxDepth: maxDepth}
}

// BootstrapRoot returns realm's root delegate, creating it idempotently on
// first call (spec.md §4.4 "Root delegate").
func (e *Engine) BootstrapRoot(ctx context.Context, realm codec.Realm) (store.Delegate, error) {
	existing, ok, err := e.delegates.GetRoot(ctx, realm)
	if err != nil {
		return store.Delegate{}, Error.Wrap(err)
	}
	if ok {
		return existing, nil
	}

	id, err := newDelegateID()
	if err != nil {
		return store.Delegate{}, Error.Wrap(err)
	}
	root := store.Delegate{
		ID:             id,
		Realm:          realm,
		Depth:          0,
		CanUpload:      true,
		CanManageDepot: true,
		Scope:          codec.WellKnownEmptySet,
		AccessTTL:      DefaultAccessTTL,
		RefreshTTL:     DefaultRefreshTTL,
		CreatedAt:      time.Now(),
	}
	if err := e.delegates.Put(ctx, root); err != nil {
		return store.Delegate{}, Error.Wrap(err)
	}
	e.log.Info("root delegate bootstrapped", zap.String("realm", realm.String()), zap.String("delegate", id.String()))
	return root, nil
}

// ChildParams are the caller-supplied narrowing inputs to CreateChild
// (spec.md §4.4 "Child minting").
type ChildParams struct {
	Name           string
	CanUpload      bool
	CanManageDepot bool
	Scope          codec.NodeKey
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// Minted is the result of a successful child mint: the persisted row plus
// its freshly issued credentials.
type Minted struct {
	Delegate store.Delegate
	AT       codec.AccessToken
	RT       codec.RefreshToken
}

// CreateChild mints a child of parent, narrowing permissions/scope/TTL per
// spec.md §4.4 steps 1-5. parentTokenExpiresAt is the expiry of the AT the
// caller authenticated with, or nil when the caller is a root delegate
// acting under a JWT (which has no AT-context expiry to check).
func (e *Engine) CreateChild(ctx context.Context, parent store.Delegate, parentTokenExpiresAt *time.Time, params ChildParams) (Minted, error) {
	now := time.Now()

	if parent.Revoked {
		return Minted{}, ErrRevoked.New("parent delegate %s is revoked", parent.ID)
	}
	if parentTokenExpiresAt != nil && now.After(*parentTokenExpiresAt) {
		return Minted{}, ErrUnauthorized.New("parent access token has expired")
	}
	if parent.Depth+1 > e.maxDepth {
		return Minted{}, ErrDepthExceeded.New("delegation depth would exceed %d", e.maxDepth)
	}
	if params.CanUpload && !parent.CanUpload {
		return Minted{}, ErrUnauthorized.New("canUpload cannot expand beyond parent")
	}
	if params.CanManageDepot && !parent.CanManageDepot {
		return Minted{}, ErrUnauthorized.New("canManageDepot cannot expand beyond parent")
	}
	if parent.AccessTTL > 0 && params.AccessTTL > parent.AccessTTL {
		return Minted{}, ErrUnauthorized.New("accessTtl cannot exceed parent's")
	}
	if parent.RefreshTTL > 0 && params.RefreshTTL > parent.RefreshTTL {
		return Minted{}, ErrUnauthorized.New("refreshTtl cannot exceed parent's")
	}

	allowed, err := e.scopeAllowed(ctx, parent.Realm, parent.Scope, params.Scope)
	if err != nil {
		return Minted{}, err
	}
	if !allowed {
		return Minted{}, ErrInvalidScope.New("child scope is not a subset of parent scope")
	}

	accessTTL := params.AccessTTL
	if accessTTL <= 0 {
		accessTTL = parent.AccessTTL
	}
	refreshTTL := params.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = parent.RefreshTTL
	}

	id, err := newDelegateID()
	if err != nil {
		return Minted{}, Error.Wrap(err)
	}
	child := store.Delegate{
		ID:             id,
		Realm:          parent.Realm,
		Parent:         parent.ID,
		Name:           params.Name,
		Depth:          parent.Depth + 1,
		CanUpload:      params.CanUpload,
		CanManageDepot: params.CanManageDepot,
		Scope:          params.Scope,
		AccessTTL:      accessTTL,
		RefreshTTL:     refreshTTL,
		CreatedAt:      now,
	}
	if err := e.delegates.Put(ctx, child); err != nil {
		return Minted{}, Error.Wrap(err)
	}

	at, err := codec.NewAccessToken(id, now.Add(accessTTL))
	if err != nil {
		return Minted{}, Error.Wrap(err)
	}
	rt, err := codec.NewRefreshToken(id)
	if err != nil {
		return Minted{}, Error.Wrap(err)
	}

	e.log.Info("child delegate minted",
		zap.String("parent", parent.ID.String()),
		zap.String("child", id.String()),
		zap.Int("depth", child.Depth))

	return Minted{Delegate: child, AT: at, RT: rt}, nil
}

// scopeAllowed implements SPEC_FULL.md's open-question decision #6: an
// unrestricted parent (WellKnownEmptySet) accepts any child scope; a
// restricted parent requires the child's decoded Set to be a literal
// subset, and forbids the child from claiming WellKnownEmptySet itself.
func (e *Engine) scopeAllowed(ctx context.Context, realm codec.Realm, parentScope, childScope codec.NodeKey) (bool, error) {
	if parentScope == codec.WellKnownEmptySet {
		return true, nil
	}
	if childScope == codec.WellKnownEmptySet {
		return false, nil
	}

	parentSet, err := e.resolveSet(ctx, parentScope)
	if err != nil {
		return false, err
	}
	childSet, err := e.resolveSet(ctx, childScope)
	if err != nil {
		return false, err
	}
	return childSet.SubsetOf(parentSet), nil
}

func (e *Engine) resolveSet(ctx context.Context, key codec.NodeKey) (*codec.Set, error) {
	if key == codec.WellKnownEmptySet {
		return codec.EmptySet(), nil
	}
	data, err := e.blobs.Get(ctx, key)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	set, err := codec.DecodeSet(data, codec.DefaultLimits())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return set, nil
}

// Refresh exchanges a valid, non-revoked refresh token for a fresh access
// token (spec.md §4.4 "Refresh").
func (e *Engine) Refresh(ctx context.Context, rt codec.RefreshToken) (codec.AccessToken, store.Delegate, error) {
	d, err := e.delegates.Get(ctx, rt.DelegateID)
	if err != nil {
		return codec.AccessToken{}, store.Delegate{}, ErrUnauthorized.Wrap(err)
	}
	if d.Revoked {
		return codec.AccessToken{}, store.Delegate{}, ErrRevoked.New("delegate %s is revoked", d.ID)
	}
	accessTTL := d.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	at, err := codec.NewAccessToken(d.ID, time.Now().Add(accessTTL))
	if err != nil {
		return codec.AccessToken{}, store.Delegate{}, Error.Wrap(err)
	}
	return at, d, nil
}

// Revoke cascades revocation to id and every transitive descendant
// (spec.md §4.4 "Revocation cascade").
func (e *Engine) Revoke(ctx context.Context, id codec.DelegateID, reason string) error {
	if err := e.delegates.RevokeCascade(ctx, id, reason, time.Now()); err != nil {
		return Error.Wrap(err)
	}
	e.log.Info("delegate revoked", zap.String("delegate", id.String()), zap.String("reason", reason))
	return nil
}

// Resolve loads a delegate by id, failing with ErrRevoked if it (or an
// ancestor, already reflected by RevokeCascade) is revoked.
func (e *Engine) Resolve(ctx context.Context, id codec.DelegateID) (store.Delegate, error) {
	d, err := e.delegates.Get(ctx, id)
	if err != nil {
		return store.Delegate{}, ErrUnauthorized.Wrap(err)
	}
	if d.Revoked {
		return store.Delegate{}, ErrRevoked.New("delegate %s is revoked", d.ID)
	}
	return d, nil
}

func newDelegateID() (codec.DelegateID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return codec.DelegateID{}, err
	}
	var id codec.DelegateID
	copy(id[:], u[:])
	return id, nil
}
