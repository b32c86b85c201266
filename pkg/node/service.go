// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package node

import (
	"context"
	"time"

	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Service is the node service of spec.md §4.2.
type Service struct {
	log *zap.Logger

	blobs     store.BlobStore
	meta      store.NodeMetaDb
	ownership store.OwnershipDb
	refcounts store.RefCountDb
	usage     store.UsageDb
	delegates store.DelegateDb

	limits codec.Limits
}

// NewService constructs a Service.
func NewService(
	log *zap.Logger,
	blobs store.BlobStore,
	meta store.NodeMetaDb,
	ownership store.OwnershipDb,
	refcounts store.RefCountDb,
	usage store.UsageDb,
	delegates store.DelegateDb,
	limits codec.Limits,
) *Service {
	return &Service{
		log:       log,
		blobs:     blobs,
		meta:      meta,
		ownership: ownership,
		refcounts: refcounts,
		usage:     usage,
		delegates: delegates,
		limits:    limits,
	}
}

// ChildRef describes one entry Metadata's Children reports: a Dict's named
// child, a Successor's predecessor, or one member of a Set.
type ChildRef struct {
	Name string // empty for Successor/Set members, which carry no name
	Key  codec.NodeKey
}

// Metadata is the result of the metadata operation (spec.md §4.2).
type Metadata struct {
	Kind     codec.Kind
	RefCount int64
	Size     int
	Children []ChildRef
}

// CheckResult is the result of the check operation (spec.md §4.2).
type CheckResult struct {
	Missing        []codec.NodeKey
	Owned          []codec.NodeKey
	PresentUnowned []codec.NodeKey
}

// Check classifies each of keys as missing, owned (by caller or by an
// ancestor in caller's issuer chain), or present-but-unowned. Well-known
// nodes are always reported as owned: they need neither upload nor claim.
func (s *Service) Check(ctx context.Context, realm codec.Realm, caller codec.DelegateID, keys []codec.NodeKey) (CheckResult, error) {
	var result CheckResult
	for _, key := range keys {
		if codec.IsWellKnown(key) {
			result.Owned = append(result.Owned, key)
			continue
		}

		present, err := s.meta.Has(ctx, realm, key)
		if err != nil {
			return CheckResult{}, Error.Wrap(err)
		}
		if !present {
			result.Missing = append(result.Missing, key)
			continue
		}

		owned, err := s.ownedInChain(ctx, realm, key, caller)
		if err != nil {
			return CheckResult{}, Error.Wrap(err)
		}
		if owned {
			result.Owned = append(result.Owned, key)
		} else {
			result.PresentUnowned = append(result.PresentUnowned, key)
		}
	}
	return result, nil
}

// Put persists a node's bytes under key, bookkeeping ref-counts and
// ownership per spec.md §4.2 "put" steps 1-7. Well-known keys are a no-op:
// their bytes are synthesizable and never stored.
func (s *Service) Put(ctx context.Context, realm codec.Realm, principal auth.Principal, key codec.NodeKey, data []byte) error {
	if codec.IsWellKnown(key) {
		return nil
	}
	if !principal.CanUpload {
		return ErrUnauthorized.New("delegate %s does not have upload permission", principal.DelegateID)
	}

	if computed := codec.DeriveNodeKey(data); computed != key {
		return codec.ErrHashMismatch.New("declared key %s does not match the hash of the supplied bytes", key)
	}
	if s.limits.NodeSize > 0 && len(data) > s.limits.NodeSize {
		return codec.ErrNodeTooLarge.New("node is %d bytes, limit is %d", len(data), s.limits.NodeSize)
	}

	allowed, err := s.scopeAllows(ctx, principal, key)
	if err != nil {
		return Error.Wrap(err)
	}
	if !allowed {
		return ErrForbidden.New("key %s is outside delegate %s's scope", key, principal.DelegateID)
	}

	// The server parses the bytes itself; it never trusts client-declared
	// structure for child references (spec.md §4.2 step 5).
	decoded, err := codec.Decode(data, s.limits)
	if err != nil {
		return err
	}

	if _, err := s.blobs.Put(ctx, key, data); err != nil {
		return Error.Wrap(err)
	}

	metaCreated, err := s.meta.PutIfAbsent(ctx, realm, key, store.NodeMeta{
		Kind:      decoded.Kind(),
		Size:      len(data),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return Error.Wrap(err)
	}

	if _, err := s.refcounts.Increment(ctx, realm, key, 1); err != nil {
		return Error.Wrap(err)
	}
	for _, ref := range codec.ChildRefs(decoded) {
		if _, err := s.refcounts.Increment(ctx, realm, ref, 1); err != nil {
			return Error.Wrap(err)
		}
	}

	// Ownership is recorded last: a failure above this line must leave no
	// trace of caller ownership (spec.md §4.2 "Ordering").
	if err := s.ownership.AddOwner(ctx, realm, key, principal.DelegateID); err != nil {
		return Error.Wrap(err)
	}

	if metaCreated {
		if err := s.usage.Add(ctx, realm, int64(len(data)), 1); err != nil {
			return Error.Wrap(err)
		}
	}

	s.log.Debug("node put",
		zap.String("key", key.String()),
		zap.String("delegate", principal.DelegateID.String()),
		zap.Int("bytes", len(data)))
	return nil
}

// Get returns a node's raw bytes, subject to spec.md §4.2's read rule:
// owned by the caller's own delegate, a depth-0 (root) delegate, or well-known.
func (s *Service) Get(ctx context.Context, realm codec.Realm, principal auth.Principal, key codec.NodeKey) ([]byte, error) {
	if data, ok := codec.WellKnownBytes(key); ok {
		return data, nil
	}
	if !principal.IsRoot() {
		owned, err := s.ownership.IsOwner(ctx, realm, key, principal.DelegateID)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if !owned {
			return nil, ErrForbidden.New("delegate %s may not read %s", principal.DelegateID, key)
		}
	}
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return data, nil
}

// Metadata returns a node's kind, realm-local ref-count, size, and
// (for container kinds) its children, subject to the same read rule as Get.
func (s *Service) Metadata(ctx context.Context, realm codec.Realm, principal auth.Principal, key codec.NodeKey) (Metadata, error) {
	wellKnown, isWellKnown := codec.WellKnownBytes(key)

	if !isWellKnown && !principal.IsRoot() {
		owned, err := s.ownership.IsOwner(ctx, realm, key, principal.DelegateID)
		if err != nil {
			return Metadata{}, Error.Wrap(err)
		}
		if !owned {
			return Metadata{}, ErrForbidden.New("delegate %s may not read %s", principal.DelegateID, key)
		}
	}

	data := wellKnown
	if !isWellKnown {
		var err error
		data, err = s.blobs.Get(ctx, key)
		if err != nil {
			return Metadata{}, Error.Wrap(err)
		}
	}

	decoded, err := codec.Decode(data, s.limits)
	if err != nil {
		return Metadata{}, Error.Wrap(err)
	}

	refCount, err := s.refcounts.Count(ctx, realm, key)
	if err != nil {
		return Metadata{}, Error.Wrap(err)
	}

	return Metadata{
		Kind:     decoded.Kind(),
		RefCount: refCount,
		Size:     len(data),
		Children: childRefs(decoded),
	}, nil
}

// Claim adds principal's delegate to key's ownership set after verifying
// pop (spec.md §4.2 "claim"). Root delegates skip PoP verification
// entirely. Returns alreadyOwned = true without touching the ownership set
// or checking pop if the caller already owns the node.
func (s *Service) Claim(ctx context.Context, realm codec.Realm, principal auth.Principal, key codec.NodeKey, pop string) (alreadyOwned bool, err error) {
	if codec.IsWellKnown(key) {
		return true, nil
	}

	owned, err := s.ownership.IsOwner(ctx, realm, key, principal.DelegateID)
	if err != nil {
		return false, Error.Wrap(err)
	}
	if owned {
		return true, nil
	}

	present, err := s.meta.Has(ctx, realm, key)
	if err != nil {
		return false, Error.Wrap(err)
	}
	if !present {
		return false, store.ErrNotFound
	}

	if !principal.IsRoot() {
		if !principal.HasAT {
			return false, ErrUnauthorized.New("claim requires an access token")
		}
		data, err := s.blobs.Get(ctx, key)
		if err != nil {
			return false, Error.Wrap(err)
		}
		ok, err := codec.VerifyPoP(principal.AT, data, pop)
		if err != nil {
			return false, Error.Wrap(err)
		}
		if !ok {
			return false, ErrForbidden.New("proof of possession does not verify for %s", key)
		}
	}

	if err := s.ownership.AddOwner(ctx, realm, key, principal.DelegateID); err != nil {
		return false, Error.Wrap(err)
	}
	s.log.Debug("node claimed", zap.String("key", key.String()), zap.String("delegate", principal.DelegateID.String()))
	return false, nil
}

// ownedInChain reports whether key is owned, in realm, by delegateID or
// any of its ancestors up to (and including) the realm's root delegate.
// This is spec.md §4.2's "owned... by any delegate in the caller's issuer
// chain": Check reports a node an ancestor already owns as owned, so a
// descendant need not re-upload or claim it. Get and Metadata do not use
// this walk; they require the caller's own ownership.
func (s *Service) ownedInChain(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegateID codec.DelegateID) (bool, error) {
	id := delegateID
	for {
		owned, err := s.ownership.IsOwner(ctx, realm, key, id)
		if err != nil {
			return false, err
		}
		if owned {
			return true, nil
		}

		d, err := s.delegates.Get(ctx, id)
		if err != nil {
			if err == store.ErrNotFound {
				return false, nil
			}
			return false, err
		}
		if d.IsRoot() {
			return false, nil
		}
		id = d.Parent
	}
}

// scopeAllows reports whether principal's scope admits writing key
// (spec.md §4.2 "put" step 3).
func (s *Service) scopeAllows(ctx context.Context, principal auth.Principal, key codec.NodeKey) (bool, error) {
	if principal.Scope == codec.WellKnownEmptySet {
		return true, nil
	}
	data, err := s.blobs.Get(ctx, principal.Scope)
	if err != nil {
		return false, err
	}
	set, err := codec.DecodeSet(data, s.limits)
	if err != nil {
		return false, err
	}
	return set.Contains(key), nil
}

func childRefs(n codec.Node) []ChildRef {
	switch v := n.(type) {
	case *codec.Dict:
		out := make([]ChildRef, len(v.Entries))
		for i, e := range v.Entries {
			out[i] = ChildRef{Name: e.Name, Key: e.Key}
		}
		return out
	case *codec.Successor:
		return []ChildRef{{Key: v.Prev}}
	case *codec.Set:
		out := make([]ChildRef, len(v.Keys))
		for i, k := range v.Keys {
			out[i] = ChildRef{Key: k}
		}
		return out
	default:
		return nil
	}
}
