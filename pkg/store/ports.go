// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package store

import (
	"context"
	"time"

	"casfa.io/core/pkg/codec"
)

// NodeMeta records what pkg/node needs to answer metadata() without
// re-decoding the blob: its kind and declared size (spec.md §4.2).
type NodeMeta struct {
	Kind      codec.Kind
	Size      int
	CreatedAt time.Time
}

// Role is a realm user's administrative standing (spec.md §4.5's
// "load user role" step).
type Role string

const (
	RoleUnauthorized Role = "unauthorized"
	RoleUser         Role = "authorized"
	RoleAdmin        Role = "admin"
)

// Delegate is the persistent capability principal of spec.md §3.
type Delegate struct {
	ID             codec.DelegateID
	Realm          codec.Realm
	Parent         codec.DelegateID // zero value means root
	Name           string           // caller-supplied label, not interpreted by the engine
	Depth          int
	CanUpload      bool
	CanManageDepot bool
	Scope          codec.NodeKey // a Set node's key; WellKnownEmptySet means "all of parent's scope"
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	Revoked        bool
	RevokedAt      time.Time
	RevokedReason  string
	CreatedAt      time.Time
}

// IsRoot reports whether d has no parent delegate.
func (d Delegate) IsRoot() bool { return d.Parent.IsZero() }

// HistoryEntry is one prior root a Depot remembers, bounded by maxHistory.
type HistoryEntry struct {
	Root        codec.NodeKey
	CommittedAt time.Time
}

// Depot is a mutable named head over nodes (spec.md §3).
type Depot struct {
	ID         codec.DepotID
	Realm      codec.Realm
	Title      string
	Root       codec.NodeKey
	History    []HistoryEntry
	MaxHistory int
	Main       bool // the realm's one undeletable depot
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Usage is a realm's aggregate physical footprint (spec.md §3).
type Usage struct {
	PhysicalBytes int64
	NodeCount     int64
}

// BlobStore persists the raw bytes behind a NodeKey. Bytes are
// content-addressed and realm-independent: identical content always hashes
// to the same key, so the physical copy is shared across realms (spec.md
// §4.2 step 4's "idempotent" PUT). Per-realm bookkeeping of whether a
// realm has *seen* the node already lives in NodeMetaDb, not here.
type BlobStore interface {
	// Put stores data under key, reporting whether this is the first time
	// these bytes have ever been persisted. Usage counters advance on
	// NodeMetaDb.PutIfAbsent's per-realm signal, not on this result.
	Put(ctx context.Context, key codec.NodeKey, data []byte) (created bool, err error)
	Get(ctx context.Context, key codec.NodeKey) ([]byte, error)
	Has(ctx context.Context, key codec.NodeKey) (bool, error)
}

// NodeMetaDb tracks, per (realm, key), whether a realm has already
// recorded this node and what its decoded kind/size are.
type NodeMetaDb interface {
	// PutIfAbsent records meta for (realm, key) only if absent, reporting
	// whether this call created the record — the per-realm "first time"
	// signal spec.md §4.2 step 7 and §3 "Usage" require.
	PutIfAbsent(ctx context.Context, realm codec.Realm, key codec.NodeKey, meta NodeMeta) (created bool, err error)
	Get(ctx context.Context, realm codec.Realm, key codec.NodeKey) (NodeMeta, error)
	Has(ctx context.Context, realm codec.Realm, key codec.NodeKey) (bool, error)
}

// OwnershipDb is the (realm, nodeKey) -> set of delegateIds ownership
// record of spec.md §3. Writes union; ownership is never removed within
// this spec's scope.
type OwnershipDb interface {
	AddOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) error
	Owners(ctx context.Context, realm codec.Realm, key codec.NodeKey) ([]codec.DelegateID, error)
	IsOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) (bool, error)
}

// RefCountDb is the (realm, nodeKey) -> non-negative integer ref-count of
// spec.md §3, additive per occurrence.
type RefCountDb interface {
	// Increment adds delta (may be negative in principle, though this spec
	// never decrements) and returns the resulting count.
	Increment(ctx context.Context, realm codec.Realm, key codec.NodeKey, delta int64) (int64, error)
	Count(ctx context.Context, realm codec.Realm, key codec.NodeKey) (int64, error)
}

// DepotDb stores Depot records and commits new roots under bounded,
// trimmed history (spec.md §4.3 "Commit contract").
type DepotDb interface {
	Create(ctx context.Context, depot Depot) error
	Get(ctx context.Context, realm codec.Realm, id codec.DepotID) (Depot, error)
	GetMain(ctx context.Context, realm codec.Realm) (Depot, error)
	List(ctx context.Context, realm codec.Realm) ([]Depot, error)
	// CommitRoot advances depot id's head to newRoot, pushing the old root
	// onto history and trimming to maxHistory, in one transactional update.
	CommitRoot(ctx context.Context, realm codec.Realm, id codec.DepotID, newRoot codec.NodeKey, at time.Time) (Depot, error)
	// UpdateSettings patches title/maxHistory without touching Root or
	// History, beyond trimming History to a newly-lowered maxHistory
	// immediately (spec.md §6 "update title & maxHistory").
	UpdateSettings(ctx context.Context, realm codec.Realm, id codec.DepotID, title string, maxHistory int, at time.Time) (Depot, error)
	Delete(ctx context.Context, realm codec.Realm, id codec.DepotID) error
}

// DelegateDb stores the Delegate tree and performs revocation cascades
// (spec.md §4.4).
type DelegateDb interface {
	Put(ctx context.Context, delegate Delegate) error
	Get(ctx context.Context, id codec.DelegateID) (Delegate, error)
	// GetRoot returns the realm's root delegate, if one has been created.
	GetRoot(ctx context.Context, realm codec.Realm) (Delegate, bool, error)
	Children(ctx context.Context, parent codec.DelegateID) ([]Delegate, error)
	// RevokeCascade marks id and every transitive descendant revoked,
	// atomically from the caller's perspective (spec.md §4.4).
	RevokeCascade(ctx context.Context, id codec.DelegateID, reason string, at time.Time) error
}

// UsageDb is the per-realm physicalBytes/nodeCount aggregate of spec.md §3.
type UsageDb interface {
	Add(ctx context.Context, realm codec.Realm, bytesDelta, nodeDelta int64) error
	Get(ctx context.Context, realm codec.Realm) (Usage, error)
}

// UserRole pairs a user identity with its administrative Role, the row
// shape /api/admin/users lists (SPEC_FULL.md's "role enum enforcement"
// supplement).
type UserRole struct {
	UserID [16]byte
	Role   Role
}

// UserRoleDb maps a user identity to its administrative Role, consulted by
// the auth pipeline (spec.md §4.5).
type UserRoleDb interface {
	SetRole(ctx context.Context, userID [16]byte, role Role) error
	GetRole(ctx context.Context, userID [16]byte) (Role, error)
	// ListRoles returns every user that has ever had a role set explicitly,
	// backing /api/admin/users' listing (spec.md §6).
	ListRoles(ctx context.Context) ([]UserRole, error)
}

// UserAccount is one registered local-IdP user (SPEC_FULL.md's supplement
// of spec.md §6's "/api/local/{register,login,refresh}" reference port).
type UserAccount struct {
	ID           [16]byte
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserAccountDb stores local-IdP login credentials, keyed by email for
// lookup at login and by id everywhere else.
type UserAccountDb interface {
	Create(ctx context.Context, account UserAccount) error
	GetByEmail(ctx context.Context, email string) (UserAccount, error)
	GetByID(ctx context.Context, id [16]byte) (UserAccount, error)
}
