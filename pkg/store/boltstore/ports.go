// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package boltstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"

	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

// Bucket names, one per domain port, all sharing a single bolt.DB file.
var (
	bucketBlobs     = []byte("blobs")
	bucketNodeMeta  = []byte("node_meta")
	bucketOwnership = []byte("ownership")
	bucketRefCounts = []byte("ref_counts")
	bucketDepots    = []byte("depots")
	bucketDelegates = []byte("delegates")
	bucketUsage        = []byte("usage")
	bucketUserRoles    = []byte("user_roles")
	bucketUserAccounts = []byte("user_accounts")
	bucketUserEmails   = []byte("user_emails")

	allBuckets = [][]byte{
		bucketBlobs, bucketNodeMeta, bucketOwnership, bucketRefCounts,
		bucketDepots, bucketDelegates, bucketUsage, bucketUserRoles,
		bucketUserAccounts, bucketUserEmails,
	}
)

// Ports opens one bolt.DB file and exposes every store.* port as a bucket
// within it, so a deployment needs exactly one file on disk.
type Ports struct {
	db *bolt.DB

	Blobs     *Blobs
	NodeMeta  *NodeMeta
	Ownership *Ownership
	RefCounts *RefCounts
	Depots    *Depots
	Delegates *Delegates
	Usage        *Usage
	UserRoles    *UserRoles
	UserAccounts *UserAccounts
}

// OpenPorts opens (creating if necessary) path and its ten buckets.
func OpenPorts(path string) (*Ports, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, store.Wrap(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, store.Wrap(err)
	}
	return &Ports{
		db:        db,
		Blobs:     &Blobs{db: db},
		NodeMeta:  &NodeMeta{db: db},
		Ownership: &Ownership{db: db},
		RefCounts: &RefCounts{db: db},
		Depots:    &Depots{db: db},
		Delegates: &Delegates{db: db},
		Usage:        &Usage{db: db},
		UserRoles:    &UserRoles{db: db},
		UserAccounts: &UserAccounts{db: db},
	}, nil
}

// Close closes the shared bolt.DB once for all ports.
func (p *Ports) Close() error { return store.Wrap(p.db.Close()) }

func getJSON(tx *bolt.Tx, bucket, key []byte, out interface{}) error {
	v := tx.Bucket(bucket).Get(key)
	if v == nil {
		return store.ErrNotFound
	}
	return store.Wrap(json.Unmarshal(v, out))
}

func putJSON(tx *bolt.Tx, bucket, key []byte, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return store.Wrap(err)
	}
	return tx.Bucket(bucket).Put(key, data)
}

func realmKeyBytes(realm codec.Realm, key codec.NodeKey) []byte {
	out := make([]byte, 0, len(realm)+len(key))
	out = append(out, realm[:]...)
	out = append(out, key[:]...)
	return out
}

// Blobs is the boltdb-backed store.BlobStore.
type Blobs struct{ db *bolt.DB }

func (b *Blobs) Put(ctx context.Context, key codec.NodeKey, data []byte) (bool, error) {
	created := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBlobs)
		if bucket.Get(key[:]) != nil {
			return nil
		}
		created = true
		return bucket.Put(key[:], data)
	})
	return created, store.Wrap(err)
}

func (b *Blobs) Get(ctx context.Context, key codec.NodeKey) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get(key[:])
		if v == nil {
			return store.ErrNotFound
		}
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Blobs) Has(ctx context.Context, key codec.NodeKey) (bool, error) {
	has := false
	err := b.db.View(func(tx *bolt.Tx) error {
		has = tx.Bucket(bucketBlobs).Get(key[:]) != nil
		return nil
	})
	return has, store.Wrap(err)
}

// NodeMeta is the boltdb-backed store.NodeMetaDb.
type NodeMeta struct{ db *bolt.DB }

type nodeMetaRecord struct {
	Kind      codec.Kind
	Size      int
	CreatedAt time.Time
}

func (n *NodeMeta) PutIfAbsent(ctx context.Context, realm codec.Realm, key codec.NodeKey, meta store.NodeMeta) (bool, error) {
	created := false
	k := realmKeyBytes(realm, key)
	err := n.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketNodeMeta)
		if bucket.Get(k) != nil {
			return nil
		}
		created = true
		return putJSON(tx, bucketNodeMeta, k, nodeMetaRecord(meta))
	})
	return created, store.Wrap(err)
}

func (n *NodeMeta) Get(ctx context.Context, realm codec.Realm, key codec.NodeKey) (store.NodeMeta, error) {
	var rec nodeMetaRecord
	err := n.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx, bucketNodeMeta, realmKeyBytes(realm, key), &rec)
	})
	if err != nil {
		return store.NodeMeta{}, err
	}
	return store.NodeMeta(rec), nil
}

func (n *NodeMeta) Has(ctx context.Context, realm codec.Realm, key codec.NodeKey) (bool, error) {
	has := false
	err := n.db.View(func(tx *bolt.Tx) error {
		has = tx.Bucket(bucketNodeMeta).Get(realmKeyBytes(realm, key)) != nil
		return nil
	})
	return has, store.Wrap(err)
}

// Ownership is the boltdb-backed store.OwnershipDb.
type Ownership struct{ db *bolt.DB }

func (o *Ownership) AddOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) error {
	k := realmKeyBytes(realm, key)
	return store.Wrap(o.db.Update(func(tx *bolt.Tx) error {
		var owners []codec.DelegateID
		_ = getJSON(tx, bucketOwnership, k, &owners)
		for _, id := range owners {
			if id == delegate {
				return nil
			}
		}
		owners = append(owners, delegate)
		return putJSON(tx, bucketOwnership, k, owners)
	}))
}

func (o *Ownership) Owners(ctx context.Context, realm codec.Realm, key codec.NodeKey) ([]codec.DelegateID, error) {
	var owners []codec.DelegateID
	err := o.db.View(func(tx *bolt.Tx) error {
		err := getJSON(tx, bucketOwnership, realmKeyBytes(realm, key), &owners)
		if err == store.ErrNotFound {
			return nil
		}
		return err
	})
	return owners, store.Wrap(err)
}

func (o *Ownership) IsOwner(ctx context.Context, realm codec.Realm, key codec.NodeKey, delegate codec.DelegateID) (bool, error) {
	owners, err := o.Owners(ctx, realm, key)
	if err != nil {
		return false, err
	}
	for _, id := range owners {
		if id == delegate {
			return true, nil
		}
	}
	return false, nil
}

// RefCounts is the boltdb-backed store.RefCountDb.
type RefCounts struct{ db *bolt.DB }

func (r *RefCounts) Increment(ctx context.Context, realm codec.Realm, key codec.NodeKey, delta int64) (int64, error) {
	k := realmKeyBytes(realm, key)
	var result int64
	err := r.db.Update(func(tx *bolt.Tx) error {
		var count int64
		_ = getJSON(tx, bucketRefCounts, k, &count)
		count += delta
		result = count
		return putJSON(tx, bucketRefCounts, k, count)
	})
	return result, store.Wrap(err)
}

func (r *RefCounts) Count(ctx context.Context, realm codec.Realm, key codec.NodeKey) (int64, error) {
	var count int64
	err := r.db.View(func(tx *bolt.Tx) error {
		err := getJSON(tx, bucketRefCounts, realmKeyBytes(realm, key), &count)
		if err == store.ErrNotFound {
			return nil
		}
		return err
	})
	return count, store.Wrap(err)
}

// Depots is the boltdb-backed store.DepotDb.
type Depots struct{ db *bolt.DB }

func depotKeyBytes(realm codec.Realm, id codec.DepotID) []byte {
	out := make([]byte, 0, len(realm)+len(id))
	out = append(out, realm[:]...)
	out = append(out, id[:]...)
	return out
}

func (d *Depots) Create(ctx context.Context, depot store.Depot) error {
	k := depotKeyBytes(depot.Realm, depot.ID)
	return store.Wrap(d.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketDepots).Get(k) != nil {
			return store.ErrConflict
		}
		return putJSON(tx, bucketDepots, k, depot)
	}))
}

func (d *Depots) Get(ctx context.Context, realm codec.Realm, id codec.DepotID) (store.Depot, error) {
	var depot store.Depot
	err := d.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx, bucketDepots, depotKeyBytes(realm, id), &depot)
	})
	return depot, err
}

func (d *Depots) GetMain(ctx context.Context, realm codec.Realm) (store.Depot, error) {
	var found store.Depot
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDepots).ForEach(func(k, v []byte) error {
			var depot store.Depot
			if err := json.Unmarshal(v, &depot); err != nil {
				return err
			}
			if depot.Realm == realm && depot.Main {
				found, ok = depot, true
			}
			return nil
		})
	})
	if err != nil {
		return store.Depot{}, store.Wrap(err)
	}
	if !ok {
		return store.Depot{}, store.ErrNotFound
	}
	return found, nil
}

func (d *Depots) List(ctx context.Context, realm codec.Realm) ([]store.Depot, error) {
	var out []store.Depot
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDepots).ForEach(func(k, v []byte) error {
			var depot store.Depot
			if err := json.Unmarshal(v, &depot); err != nil {
				return err
			}
			if depot.Realm == realm {
				out = append(out, depot)
			}
			return nil
		})
	})
	return out, store.Wrap(err)
}

func (d *Depots) CommitRoot(ctx context.Context, realm codec.Realm, id codec.DepotID, newRoot codec.NodeKey, at time.Time) (store.Depot, error) {
	k := depotKeyBytes(realm, id)
	var depot store.Depot
	err := d.db.Update(func(tx *bolt.Tx) error {
		if err := getJSON(tx, bucketDepots, k, &depot); err != nil {
			return err
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
		return putJSON(tx, bucketDepots, k, depot)
	})
	if err != nil {
		return store.Depot{}, err
	}
	return depot, nil
}

func (d *Depots) UpdateSettings(ctx context.Context, realm codec.Realm, id codec.DepotID, title string, maxHistory int, at time.Time) (store.Depot, error) {
	k := depotKeyBytes(realm, id)
	var depot store.Depot
	err := d.db.Update(func(tx *bolt.Tx) error {
		if err := getJSON(tx, bucketDepots, k, &depot); err != nil {
			return err
		}
		depot.Title = title
		depot.MaxHistory = maxHistory
		if len(depot.History) > maxHistory {
			depot.History = depot.History[len(depot.History)-maxHistory:]
		}
		depot.UpdatedAt = at
		return putJSON(tx, bucketDepots, k, depot)
	})
	if err != nil {
		return store.Depot{}, err
	}
	return depot, nil
}

func (d *Depots) Delete(ctx context.Context, realm codec.Realm, id codec.DepotID) error {
	k := depotKeyBytes(realm, id)
	return d.db.Update(func(tx *bolt.Tx) error {
		var depot store.Depot
		if err := getJSON(tx, bucketDepots, k, &depot); err != nil {
			return err
		}
		if depot.Main {
			return store.Error.New("cannot delete a realm's main depot")
		}
		return tx.Bucket(bucketDepots).Delete(k)
	})
}

// Delegates is the boltdb-backed store.DelegateDb.
type Delegates struct{ db *bolt.DB }

func (d *Delegates) Put(ctx context.Context, delegate store.Delegate) error {
	return store.Wrap(d.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, bucketDelegates, delegate.ID[:], delegate)
	}))
}

func (d *Delegates) Get(ctx context.Context, id codec.DelegateID) (store.Delegate, error) {
	var delegate store.Delegate
	err := d.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx, bucketDelegates, id[:], &delegate)
	})
	return delegate, err
}

func (d *Delegates) GetRoot(ctx context.Context, realm codec.Realm) (store.Delegate, bool, error) {
	var found store.Delegate
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDelegates).ForEach(func(k, v []byte) error {
			var delegate store.Delegate
			if err := json.Unmarshal(v, &delegate); err != nil {
				return err
			}
			if delegate.Realm == realm && delegate.IsRoot() {
				found, ok = delegate, true
			}
			return nil
		})
	})
	return found, ok, store.Wrap(err)
}

func (d *Delegates) Children(ctx context.Context, parent codec.DelegateID) ([]store.Delegate, error) {
	var out []store.Delegate
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDelegates).ForEach(func(k, v []byte) error {
			var delegate store.Delegate
			if err := json.Unmarshal(v, &delegate); err != nil {
				return err
			}
			if delegate.Parent == parent {
				out = append(out, delegate)
			}
			return nil
		})
	})
	return out, store.Wrap(err)
}

func (d *Delegates) RevokeCascade(ctx context.Context, id codec.DelegateID, reason string, at time.Time) error {
	return store.Wrap(d.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDelegates)
		all := make(map[codec.DelegateID]store.Delegate)
		if err := bucket.ForEach(func(k, v []byte) error {
			var delegate store.Delegate
			if err := json.Unmarshal(v, &delegate); err != nil {
				return err
			}
			all[delegate.ID] = delegate
			return nil
		}); err != nil {
			return err
		}

		closure := map[codec.DelegateID]bool{id: true}
		for changed := true; changed; {
			changed = false
			for candidateID, delegate := range all {
				if closure[candidateID] {
					continue
				}
				if closure[delegate.Parent] {
					closure[candidateID] = true
					changed = true
				}
			}
		}

		for memberID := range closure {
			delegate, ok := all[memberID]
			if !ok {
				continue
			}
			delegate.Revoked = true
			delegate.RevokedAt = at
			delegate.RevokedReason = reason
			if err := putJSON(tx, bucketDelegates, memberID[:], delegate); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Usage is the boltdb-backed store.UsageDb.
type Usage struct{ db *bolt.DB }

func (u *Usage) Add(ctx context.Context, realm codec.Realm, bytesDelta, nodeDelta int64) error {
	return store.Wrap(u.db.Update(func(tx *bolt.Tx) error {
		var usage store.Usage
		_ = getJSON(tx, bucketUsage, realm[:], &usage)
		usage.PhysicalBytes += bytesDelta
		usage.NodeCount += nodeDelta
		return putJSON(tx, bucketUsage, realm[:], usage)
	}))
}

func (u *Usage) Get(ctx context.Context, realm codec.Realm) (store.Usage, error) {
	var usage store.Usage
	err := u.db.View(func(tx *bolt.Tx) error {
		err := getJSON(tx, bucketUsage, realm[:], &usage)
		if err == store.ErrNotFound {
			return nil
		}
		return err
	})
	return usage, store.Wrap(err)
}

// UserRoles is the boltdb-backed store.UserRoleDb.
type UserRoles struct{ db *bolt.DB }

func (u *UserRoles) SetRole(ctx context.Context, userID [16]byte, role store.Role) error {
	return store.Wrap(u.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, bucketUserRoles, userID[:], role)
	}))
}

func (u *UserRoles) GetRole(ctx context.Context, userID [16]byte) (store.Role, error) {
	var role store.Role
	err := u.db.View(func(tx *bolt.Tx) error {
		err := getJSON(tx, bucketUserRoles, userID[:], &role)
		if err == store.ErrNotFound {
			role = store.RoleUser
			return nil
		}
		return err
	})
	return role, store.Wrap(err)
}

func (u *UserRoles) ListRoles(ctx context.Context) ([]store.UserRole, error) {
	var out []store.UserRole
	err := u.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUserRoles).ForEach(func(k, v []byte) error {
			var role store.Role
			if err := json.Unmarshal(v, &role); err != nil {
				return err
			}
			var userID [16]byte
			copy(userID[:], k)
			out = append(out, store.UserRole{UserID: userID, Role: role})
			return nil
		})
	})
	return out, store.Wrap(err)
}

// UserAccounts is the boltdb-backed store.UserAccountDb: one bucket keyed
// by user id, one secondary-index bucket mapping email -> id.
type UserAccounts struct{ db *bolt.DB }

func (u *UserAccounts) Create(ctx context.Context, account store.UserAccount) error {
	return store.Wrap(u.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUserEmails).Get([]byte(account.Email)) != nil {
			return store.ErrConflict
		}
		if err := putJSON(tx, bucketUserAccounts, account.ID[:], account); err != nil {
			return err
		}
		return tx.Bucket(bucketUserEmails).Put([]byte(account.Email), account.ID[:])
	}))
}

func (u *UserAccounts) GetByEmail(ctx context.Context, email string) (store.UserAccount, error) {
	var account store.UserAccount
	err := u.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketUserEmails).Get([]byte(email))
		if id == nil {
			return store.ErrNotFound
		}
		return getJSON(tx, bucketUserAccounts, id, &account)
	})
	return account, err
}

func (u *UserAccounts) GetByID(ctx context.Context, id [16]byte) (store.UserAccount, error) {
	var account store.UserAccount
	err := u.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx, bucketUserAccounts, id[:], &account)
	})
	return account, err
}
