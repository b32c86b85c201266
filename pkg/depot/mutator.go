// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package depot

import (
	"context"
	"encoding/base64"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
)

// DefaultMaxHistory and MaxMaxHistory are spec.md §6's configuration
// defaults for a depot's retained-root history.
const (
	DefaultMaxHistory = 20
	MaxMaxHistory     = 100
)

// Mutator is the depot mutator of spec.md §4.3, plus the Depot record
// CRUD spec.md §6's HTTP surface exposes alongside it. It is a thin
// orchestration layer: every node read/write goes through nodes so PUTs
// keep getting spec.md §4.2's ref-count and ownership bookkeeping, and
// every permission check (upload scope, issuer-chain ownership) is
// inherited from pkg/node rather than re-implemented here.
type Mutator struct {
	log   *zap.Logger
	nodes *node.Service

	depots            store.DepotDb
	maxHistoryDefault int
	maxHistoryCap     int

	limits codec.Limits
}

// NewMutator constructs a Mutator. maxHistoryDefault/maxHistoryCap <= 0
// select spec.md §6's defaults (20/100).
func NewMutator(log *zap.Logger, nodes *node.Service, depots store.DepotDb, maxHistoryDefault, maxHistoryCap int, limits codec.Limits) *Mutator {
	if maxHistoryDefault <= 0 {
		maxHistoryDefault = DefaultMaxHistory
	}
	if maxHistoryCap <= 0 {
		maxHistoryCap = MaxMaxHistory
	}
	return &Mutator{
		log: log, nodes: nodes, depots: depots,
		maxHistoryDefault: maxHistoryDefault, maxHistoryCap: maxHistoryCap,
		limits: limits,
	}
}

// CreateDepot mints a new depot rooted at the well-known empty Dict.
func (m *Mutator) CreateDepot(ctx context.Context, realm codec.Realm, title string, main bool) (store.Depot, error) {
	id, err := newDepotID()
	if err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	now := time.Now()
	d := store.Depot{
		ID: id, Realm: realm, Title: title,
		Root: codec.WellKnownEmptyDict, MaxHistory: m.maxHistoryDefault,
		Main: main, CreatedAt: now, UpdatedAt: now,
	}
	if err := m.depots.Create(ctx, d); err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	return d, nil
}

func (m *Mutator) GetDepot(ctx context.Context, realm codec.Realm, id codec.DepotID) (store.Depot, error) {
	d, err := m.depots.Get(ctx, realm, id)
	return d, Error.Wrap(err)
}

func (m *Mutator) GetMainDepot(ctx context.Context, realm codec.Realm) (store.Depot, error) {
	d, err := m.depots.GetMain(ctx, realm)
	return d, Error.Wrap(err)
}

func (m *Mutator) ListDepots(ctx context.Context, realm codec.Realm) ([]store.Depot, error) {
	ds, err := m.depots.List(ctx, realm)
	return ds, Error.Wrap(err)
}

func (m *Mutator) DeleteDepot(ctx context.Context, realm codec.Realm, id codec.DepotID) error {
	return Error.Wrap(m.depots.Delete(ctx, realm, id))
}

// UpdateDepotSettings patches title and/or maxHistory. maxHistory is
// clamped to [0, maxHistoryCap]; a lowered value takes effect retroactively,
// trimming History immediately rather than waiting for the next Commit
// (SPEC_FULL.md decision #4).
func (m *Mutator) UpdateDepotSettings(ctx context.Context, realm codec.Realm, id codec.DepotID, title *string, maxHistory *int) (store.Depot, error) {
	d, err := m.depots.Get(ctx, realm, id)
	if err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	newTitle := d.Title
	if title != nil {
		newTitle = *title
	}
	newMaxHistory := d.MaxHistory
	if maxHistory != nil {
		newMaxHistory = *maxHistory
		if newMaxHistory > m.maxHistoryCap {
			newMaxHistory = m.maxHistoryCap
		}
		if newMaxHistory < 0 {
			newMaxHistory = 0
		}
	}
	updated, err := m.depots.UpdateSettings(ctx, realm, id, newTitle, newMaxHistory, time.Now())
	if err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	return updated, nil
}

// Commit advances depot id's head to newRoot, requiring newRoot decode as
// a Dict and the caller to hold canManageDepot (spec.md §4.3 "Commit
// contract"; the alternative "implicit commit authority" clause is
// satisfied structurally here since only a canManageDepot delegate's AT
// reaches this call per spec.md §6's endpoint policy).
func (m *Mutator) Commit(ctx context.Context, realm codec.Realm, principal auth.Principal, id codec.DepotID, newRoot codec.NodeKey) (store.Depot, error) {
	if !principal.CanManageDepot {
		return store.Depot{}, ErrUnauthorized.New("delegate %s cannot manage depots", principal.DelegateID)
	}
	meta, err := m.nodes.Metadata(ctx, realm, principal, newRoot)
	if err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	if meta.Kind != codec.KindDict {
		return store.Depot{}, Error.New("newRoot %s is a %s, not a dict", newRoot, meta.Kind)
	}
	d, err := m.depots.CommitRoot(ctx, realm, id, newRoot, time.Now())
	if err != nil {
		return store.Depot{}, Error.Wrap(err)
	}
	m.log.Info("depot committed", zap.String("depot", id.String()), zap.String("root", newRoot.String()))
	return d, nil
}

// Stat is the result of stat().
type Stat struct {
	Name        string
	Kind        codec.Kind
	Size        int
	ContentType string
}

// Stat resolves path against root and describes the node found there.
func (m *Mutator) Stat(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path string) (Stat, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return Stat{}, err
	}
	_, decoded, err := m.resolve(ctx, realm, principal, root, segments)
	if err != nil {
		return Stat{}, err
	}
	name := ""
	if len(segments) > 0 {
		name = segments[len(segments)-1]
	}
	st := Stat{Name: name, Kind: decoded.Kind()}
	if f, ok := decoded.(*codec.File); ok {
		st.Size = len(f.Payload)
		st.ContentType = f.ContentType
	} else {
		st.Size = len(decoded.Encode())
	}
	return st, nil
}

// ListEntry is one child reported by Ls.
type ListEntry struct {
	Name string
	Key  codec.NodeKey
}

// ListResult is the result of Ls: a page of a Dict's children plus an
// opaque cursor for the next page, empty when exhausted.
type ListResult struct {
	Entries    []ListEntry
	NextCursor string
}

const lsPageSize = 100

// Ls lists the children of the Dict at path, paginated by an opaque
// cursor encoding the last name returned (SPEC_FULL.md "Depot ls
// pagination cursor").
func (m *Mutator) Ls(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path, cursor string) (ListResult, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return ListResult{}, err
	}
	_, decoded, err := m.resolve(ctx, realm, principal, root, segments)
	if err != nil {
		return ListResult{}, err
	}
	dict, ok := decoded.(*codec.Dict)
	if !ok {
		return ListResult{}, ErrNotADirectory.New("%q is a %s", path, decoded.Kind())
	}

	sorted := append([]codec.DictEntry{}, dict.Entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	after := ""
	if cursor != "" {
		raw, err := base64.RawURLEncoding.DecodeString(cursor)
		if err != nil {
			return ListResult{}, ErrInvalidPath.New("malformed cursor")
		}
		after = string(raw)
	}

	start := 0
	if after != "" {
		start = sort.Search(len(sorted), func(i int) bool { return sorted[i].Name > after })
	}

	end := start + lsPageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	result := ListResult{Entries: make([]ListEntry, 0, end-start)}
	for _, e := range sorted[start:end] {
		result.Entries = append(result.Entries, ListEntry{Name: e.Name, Key: e.Key})
	}
	if end < len(sorted) {
		result.NextCursor = base64.RawURLEncoding.EncodeToString([]byte(sorted[end-1].Name))
	}
	return result, nil
}

// Read resolves path to a File and returns its payload.
func (m *Mutator) Read(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path string) ([]byte, string, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, "", err
	}
	_, decoded, err := m.resolve(ctx, realm, principal, root, segments)
	if err != nil {
		return nil, "", err
	}
	f, ok := decoded.(*codec.File)
	if !ok {
		return nil, "", ErrNotAFile.New("%q is a %s", path, decoded.Kind())
	}
	return f.Payload, f.ContentType, nil
}

// Write materializes a File node for data and splices it into the spine
// at path, returning the new root (spec.md §4.3 "write").
func (m *Mutator) Write(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path string, data []byte, contentType string) (codec.NodeKey, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if len(segments) == 0 {
		return codec.NodeKey{}, ErrInvalidPath.New("cannot write to the root")
	}

	spine, err := m.walkToParent(ctx, realm, principal, root, segments)
	if err != nil {
		return codec.NodeKey{}, err
	}

	f := &codec.File{ContentType: contentType, Payload: data}
	leafBytes := f.Encode()
	leafKey := codec.DeriveNodeKey(leafBytes)
	if err := m.nodes.Put(ctx, realm, principal, leafKey, leafBytes); err != nil {
		return codec.NodeKey{}, err
	}

	return m.splice(ctx, realm, principal, spine, segments, &leafKey)
}

// Mkdir inserts the well-known empty Dict under a new name (spec.md §4.3
// "mkdir"; no mkdir -p).
func (m *Mutator) Mkdir(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path string) (codec.NodeKey, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if len(segments) == 0 {
		return codec.NodeKey{}, ErrInvalidPath.New("cannot mkdir the root")
	}

	spine, err := m.walkToParent(ctx, realm, principal, root, segments)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if _, exists := spine[len(spine)-1].Find(segments[len(segments)-1]); exists {
		return codec.NodeKey{}, ErrExists.New("%q already exists", path)
	}

	leafKey := codec.WellKnownEmptyDict
	return m.splice(ctx, realm, principal, spine, segments, &leafKey)
}

// Rm removes the entry at path from its parent Dict.
func (m *Mutator) Rm(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, path string) (codec.NodeKey, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if len(segments) == 0 {
		return codec.NodeKey{}, ErrRefuseRootDelete.New("cannot remove the depot root")
	}

	spine, err := m.walkToParent(ctx, realm, principal, root, segments)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if _, exists := spine[len(spine)-1].Find(segments[len(segments)-1]); !exists {
		return codec.NodeKey{}, store.ErrNotFound
	}

	return m.splice(ctx, realm, principal, spine, segments, nil)
}

// Cp references the subtree at from under a new name to, without copying
// any bytes (spec.md §4.3 "cp").
func (m *Mutator) Cp(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, from, to string) (codec.NodeKey, error) {
	fromSegments, err := ParsePath(from)
	if err != nil {
		return codec.NodeKey{}, err
	}
	toSegments, err := ParsePath(to)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if len(toSegments) == 0 {
		return codec.NodeKey{}, ErrInvalidPath.New("cannot cp onto the root")
	}

	sourceKey, _, err := m.resolve(ctx, realm, principal, root, fromSegments)
	if err != nil {
		return codec.NodeKey{}, err
	}

	spine, err := m.walkToParent(ctx, realm, principal, root, toSegments)
	if err != nil {
		return codec.NodeKey{}, err
	}
	if _, exists := spine[len(spine)-1].Find(toSegments[len(toSegments)-1]); exists {
		return codec.NodeKey{}, ErrExists.New("%q already exists", to)
	}

	return m.splice(ctx, realm, principal, spine, toSegments, &sourceKey)
}

// Mv is cp followed by rm (spec.md §4.3 "mv"); a same-parent move is a
// single logical rewrite once both splices land on the same root chain,
// a cross-subtree move is literally cp+rm.
func (m *Mutator) Mv(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, from, to string) (codec.NodeKey, error) {
	afterCopy, err := m.Cp(ctx, realm, principal, root, from, to)
	if err != nil {
		return codec.NodeKey{}, err
	}
	return m.Rm(ctx, realm, principal, afterCopy, from)
}

// resolve walks segments from root, returning the final node's key and
// decoded value. Every intermediate segment must resolve to a Dict.
func (m *Mutator) resolve(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, segments []string) (codec.NodeKey, codec.Node, error) {
	key := root
	decoded, err := m.get(ctx, realm, principal, key)
	if err != nil {
		return codec.NodeKey{}, nil, err
	}

	it := NewIterator(segments)
	for !it.Done() {
		seg := it.Next()
		dict, ok := decoded.(*codec.Dict)
		if !ok {
			return codec.NodeKey{}, nil, ErrNotADirectory.New("%q is a %s", it.Consumed(), decoded.Kind())
		}
		childKey, ok := dict.Find(seg)
		if !ok {
			return codec.NodeKey{}, nil, store.ErrNotFound
		}
		key = childKey
		decoded, err = m.get(ctx, realm, principal, key)
		if err != nil {
			return codec.NodeKey{}, nil, err
		}
	}
	return key, decoded, nil
}

// walkToParent resolves every segment but the last, returning the ordered
// Dict spine D0..Dk-1 a write-family op must rewrite (spec.md §4.3
// "Splice algorithm"). Every one of those segments must already resolve
// to a Dict; write ops never auto-create intermediates.
func (m *Mutator) walkToParent(ctx context.Context, realm codec.Realm, principal auth.Principal, root codec.NodeKey, segments []string) ([]*codec.Dict, error) {
	rootNode, err := m.get(ctx, realm, principal, root)
	if err != nil {
		return nil, err
	}
	rootDict, ok := rootNode.(*codec.Dict)
	if !ok {
		return nil, ErrNotADirectory.New("root is a %s", rootNode.Kind())
	}

	spine := make([]*codec.Dict, 0, len(segments))
	spine = append(spine, rootDict)

	for i := 0; i < len(segments)-1; i++ {
		parent := spine[len(spine)-1]
		childKey, ok := parent.Find(segments[i])
		if !ok {
			return nil, ErrParentMissing.New("%q does not exist", "/"+joinSegments(segments[:i+1]))
		}
		childNode, err := m.get(ctx, realm, principal, childKey)
		if err != nil {
			return nil, err
		}
		childDict, ok := childNode.(*codec.Dict)
		if !ok {
			return nil, ErrNotADirectory.New("%q is a %s", "/"+joinSegments(segments[:i+1]), childNode.Kind())
		}
		spine = append(spine, childDict)
	}
	return spine, nil
}

// splice rebuilds spine's Dicts bottom-up with segments[i] rebound to the
// accumulating child key (or removed, if leafKey is nil), persisting each
// rewritten Dict through nodes.Put. It returns the new root key
// (spec.md §4.3 "Splice algorithm").
func (m *Mutator) splice(ctx context.Context, realm codec.Realm, principal auth.Principal, spine []*codec.Dict, segments []string, leafKey *codec.NodeKey) (codec.NodeKey, error) {
	childKey := leafKey
	for i := len(spine) - 1; i >= 0; i-- {
		var rewritten *codec.Dict
		if childKey == nil {
			rewritten = spine[i].Without(segments[i])
		} else {
			rewritten = spine[i].With(segments[i], *childKey)
		}
		data := rewritten.Encode()
		newKey := codec.DeriveNodeKey(data)
		if err := m.nodes.Put(ctx, realm, principal, newKey, data); err != nil {
			return codec.NodeKey{}, err
		}
		childKey = &newKey
	}
	return *childKey, nil
}

func (m *Mutator) get(ctx context.Context, realm codec.Realm, principal auth.Principal, key codec.NodeKey) (codec.Node, error) {
	data, err := m.nodes.Get(ctx, realm, principal, key)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data, m.limits)
}

func joinSegments(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

func newDepotID() (codec.DepotID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return codec.DepotID{}, err
	}
	var id codec.DepotID
	copy(id[:], u[:])
	return id, nil
}
