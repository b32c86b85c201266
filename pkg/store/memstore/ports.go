// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package memstore

import (
	"context"
	"sync"
	"time"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Blobs is an in-memory store.BlobStore, content-addressed and
// realm-independent per spec.md §4.2 step 4.
type Blobs struct {
	mu   sync.Mutex
	data map[codec.NodeKey][]byte
}

func NewBlobs() *Blobs { return &Blobs{data: make(map[codec.NodeKey][]byte)} }

func (b *Blobs) Put(ctx context.Context, key codec.NodeKey, data []byte) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[key]; ok {
		return false, nil
	}
	b.data[key] = append([]byte{}, data...)
	return true, nil
}

func (b *Blobs) Get(ctx context.Context, key codec.NodeKey) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte{}, v...), nil
}

func (b *Blobs) Has(ctx context.Context, key codec.NodeKey) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok, nil
}

type nodeMetaKey struct {
	realm codec.Realm
	key   codec.NodeKey
}

// NodeMeta is an in-memory store.NodeMetaDb.
type NodeMeta struct {
	mu   sync.Mutex
	data map[nodeMetaKey]store.NodeMeta
}

func NewNodeMeta() *NodeMeta { return &NodeMeta{data: make(map[nodeMetaKey]store.NodeMeta)} }

func (n *NodeMeta) PutIfAbsent(ctx context.Context, realm codec.Realm, key codec.NodeKey, meta store.NodeMeta) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := nodeMetaKey{realm, key}
	if _, ok := n.data[k]; ok {
		return false, nil
	}
	n.data[k] = meta
	return true, nil
}

func (n *NodeMeta) Get(ctx context.Context, realm codec.Realm, key codec.NodeKey) (store.NodeMeta, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.data[nodeMetaKey{realm, key}]
	if !ok {
		return store.NodeMeta{}, store.ErrNotFound
	}
	return v, nil
}

func (n *NodeMeta) Has(ctx context.Context, realm codec.Realm, key codec.NodeKey) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.data[nodeMetaKey{realm, key}]
	return ok, nil
}

// Ownership is an in-memory store.OwnershipDb.
type Ownership struct {
	mu   sync.Mutex
	data map[nodeMetaKey]map[codec.DelegateID]bool
}

func NewOwnership() *Ownership {
	return &Ownership{data: make(map[nodeMetaKey]map[codec.DelegateID]bool)}
}

func (o *Ownership) AddOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := nodeMetaKey{realm, key}
	set, ok := o.data[k]
	if !ok {
		set = make(map[codec.DelegateID]bool)
		o.data[k] = set
	}
	set[delegate] = true
	return nil
}

func (o *Ownership) Owners(ctx context.Context, realm codec.Realm, key codec.NodeKey) ([]codec.DelegateID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	set := o.data[nodeMetaKey{realm, key}]
	out := make([]codec.DelegateID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}

func (o *Ownership) IsOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.data[nodeMetaKey{realm, key}][delegate], nil
}

// RefCounts is an in-memory store.RefCountDb.
type RefCounts struct {
	mu   sync.Mutex
	data map[nodeMetaKey]int64
}

func NewRefCounts() *RefCounts { return &RefCounts{data: make(map[nodeMetaKey]int64)} }

func (r *RefCounts) Increment(ctx context.Context, realm codec.Realm, key codec.NodeKey, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := nodeMetaKey{realm, key}
	r.data[k] += delta
	return r.data[k], nil
}

func (r *RefCounts) Count(ctx context.Context, realm codec.Realm, key codec.NodeKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[nodeMetaKey{realm, key}], nil
}

type depotKey struct {
	realm codec.Realm
	id    codec.DepotID
}

// Depots is an in-memory store.DepotDb.
type Depots struct {
	mu   sync.Mutex
	data map[depotKey]store.Depot
}

func NewDepots() *Depots { return &Depots{data: make(map[depotKey]store.Depot)} }

func (d *Depots) Create(ctx context.Context, depot store.Depot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := depotKey{depot.Realm, depot.ID}
	if _, ok := d.data[k]; ok {
		return store.ErrConflict
	}
	d.data[k] = depot
	return nil
}

func (d *Depots) Get(ctx context.Context, realm codec.Realm, id codec.DepotID) (store.Depot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[depotKey{realm, id}]
	if !ok {
		return store.Depot{}, store.ErrNotFound
	}
	return v, nil
}

func (d *Depots) GetMain(ctx context.Context, realm codec.Realm) (store.Depot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range d.data {
		if k.realm == realm && v.Main {
			return v, nil
		}
	}
	return store.Depot{}, store.ErrNotFound
}

func (d *Depots) List(ctx context.Context, realm codec.Realm) ([]store.Depot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.Depot
	for k, v := range d.data {
		if k.realm == realm {
			out = append(out, v)
		}
	}
	return out, nil
}

func (d *Depots) CommitRoot(ctx context.Context, realm codec.Realm, id codec.DepotID, newRoot codec.NodeKey, at time.Time) (store.Depot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := depotKey{realm, id}
	depot, ok := d.data[k]
	if !ok {
		return store.Depot{}, store.ErrNotFound
	}
	maxHistory := depot.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 20
	}
	depot.History = append(depot.History, store.HistoryEntry{Root: depot.Root, CommittedAt: depot.UpdatedAt})
	if len(depot.History) > maxHistory {
		depot.History = depot.History[len(depot.History)-maxHistory:]
	}
	depot.Root = newRoot
	depot.UpdatedAt = at
	d.data[k] = depot
	return depot, nil
}

func (d *Depots) UpdateSettings(ctx context.Context, realm codec.Realm, id codec.DepotID, title string, maxHistory int, at time.Time) (store.Depot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := depotKey{realm, id}
	depot, ok := d.data[k]
	if !ok {
		return store.Depot{}, store.ErrNotFound
	}
	depot.Title = title
	depot.MaxHistory = maxHistory
	if len(depot.History) > maxHistory {
		depot.History = depot.History[len(depot.History)-maxHistory:]
	}
	depot.UpdatedAt = at
	d.data[k] = depot
	return depot, nil
}

func (d *Depots) Delete(ctx context.Context, realm codec.Realm, id codec.DepotID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := depotKey{realm, id}
	depot, ok := d.data[k]
	if !ok {
		return store.ErrNotFound
	}
	if depot.Main {
		return store.Error.New("cannot delete a realm's main depot")
	}
	delete(d.data, k)
	return nil
}

// Delegates is an in-memory store.DelegateDb.
type Delegates struct {
	mu   sync.Mutex
	data map[codec.DelegateID]store.Delegate
}

func NewDelegates() *Delegates { return &Delegates{data: make(map[codec.DelegateID]store.Delegate)} }

func (d *Delegates) Put(ctx context.Context, delegate store.Delegate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[delegate.ID] = delegate
	return nil
}

func (d *Delegates) Get(ctx context.Context, id codec.DelegateID) (store.Delegate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[id]
	if !ok {
		return store.Delegate{}, store.ErrNotFound
	}
	return v, nil
}

func (d *Delegates) GetRoot(ctx context.Context, realm codec.Realm) (store.Delegate, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range d.data {
		if v.Realm == realm && v.IsRoot() {
			return v, true, nil
		}
	}
	return store.Delegate{}, false, nil
}

func (d *Delegates) Children(ctx context.Context, parent codec.DelegateID) ([]store.Delegate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.Delegate
	for _, v := range d.data {
		if v.Parent == parent {
			out = append(out, v)
		}
	}
	return out, nil
}

func (d *Delegates) RevokeCascade(ctx context.Context, id codec.DelegateID, reason string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	closure := map[codec.DelegateID]bool{id: true}
	for changed := true; changed; {
		changed = false
		for candidateID, v := range d.data {
			if closure[candidateID] {
				continue
			}
			if closure[v.Parent] {
				closure[candidateID] = true
				changed = true
			}
		}
	}

	for memberID := range closure {
		v, ok := d.data[memberID]
		if !ok {
			continue
		}
		v.Revoked = true
		v.RevokedAt = at
		v.RevokedReason = reason
		d.data[memberID] = v
	}
	return nil
}

// Usage is an in-memory store.UsageDb.
type Usage struct {
	mu   sync.Mutex
	data map[codec.Realm]store.Usage
}

func NewUsage() *Usage { return &Usage{data: make(map[codec.Realm]store.Usage)} }

func (u *Usage) Add(ctx context.Context, realm codec.Realm, bytesDelta, nodeDelta int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	v := u.data[realm]
	v.PhysicalBytes += bytesDelta
	v.NodeCount += nodeDelta
	u.data[realm] = v
	return nil
}

func (u *Usage) Get(ctx context.Context, realm codec.Realm) (store.Usage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.data[realm], nil
}

// UserRoles is an in-memory store.UserRoleDb.
type UserRoles struct {
	mu   sync.Mutex
	data map[[16]byte]store.Role
}

func NewUserRoles() *UserRoles { return &UserRoles{data: make(map[[16]byte]store.Role)} }

func (u *UserRoles) SetRole(ctx context.Context, userID [16]byte, role store.Role) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.data[userID] = role
	return nil
}

func (u *UserRoles) GetRole(ctx context.Context, userID [16]byte) (store.Role, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	role, ok := u.data[userID]
	if !ok {
		return store.RoleUser, nil
	}
	return role, nil
}

func (u *UserRoles) ListRoles(ctx context.Context) ([]store.UserRole, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]store.UserRole, 0, len(u.data))
	for id, role := range u.data {
		out = append(out, store.UserRole{UserID: id, Role: role})
	}
	return out, nil
}

// UserAccounts is an in-memory store.UserAccountDb.
type UserAccounts struct {
	mu      sync.Mutex
	byID    map[[16]byte]store.UserAccount
	byEmail map[string][16]byte
}

func NewUserAccounts() *UserAccounts {
	return &UserAccounts{
		byID:    make(map[[16]byte]store.UserAccount),
		byEmail: make(map[string][16]byte),
	}
}

func (u *UserAccounts) Create(ctx context.Context, account store.UserAccount) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.byEmail[account.Email]; ok {
		return store.ErrConflict
	}
	u.byID[account.ID] = account
	u.byEmail[account.Email] = account.ID
	return nil
}

func (u *UserAccounts) GetByEmail(ctx context.Context, email string) (store.UserAccount, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id, ok := u.byEmail[email]
	if !ok {
		return store.UserAccount{}, store.ErrNotFound
	}
	return u.byID[id], nil
}

func (u *UserAccounts) GetByID(ctx context.Context, id [16]byte) (store.UserAccount, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.byID[id]
	if !ok {
		return store.UserAccount{}, store.ErrNotFound
	}
	return v, nil
}
