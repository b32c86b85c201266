// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
)

type checkRequest struct {
	Keys []string `json:"keys"`
}

type checkResponse struct {
	Missing        []string `json:"missing"`
	Owned          []string `json:"owned"`
	PresentUnowned []string `json:"presentUnowned"`
}

func keysToStrings(keys []codec.NodeKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// handleNodesCheck classifies a batch of candidate keys as missing, owned,
// or present-but-unowned (spec.md §4.2 "check").
func (s *Server) handleNodesCheck(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	var req checkRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	keys := make([]codec.NodeKey, len(req.Keys))
	for i, raw := range req.Keys {
		key, err := codec.ParseNodeKey(raw)
		if err != nil {
			return errBadRequest.Wrap(err)
		}
		keys[i] = key
	}

	result, err := s.nodes.Check(r.Context(), realm, principal.DelegateID, keys)
	if err != nil {
		return err
	}

	if s.debugUsage {
		s.writeUsageHeader(w, r, realm)
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Missing:        keysToStrings(result.Missing),
		Owned:          keysToStrings(result.Owned),
		PresentUnowned: keysToStrings(result.PresentUnowned),
	})
	return nil
}

// handleNodesPutRaw uploads a node's raw bytes under its declared key
// (spec.md §4.2 "put").
func (s *Server) handleNodesPutRaw(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	key, err := codec.ParseNodeKey(mux.Vars(r)["key"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	defer func() { _ = r.Body.Close() }()

	if err := s.nodes.Put(r.Context(), realm, principal, key, data); err != nil {
		return err
	}
	if s.debugUsage {
		s.writeUsageHeader(w, r, realm)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key.String()})
	return nil
}

// handleNodesGetRaw returns a node's raw bytes (spec.md §4.2 "get").
func (s *Server) handleNodesGetRaw(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	key, err := codec.ParseNodeKey(mux.Vars(r)["key"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	data, err := s.nodes.Get(r.Context(), realm, principal, key)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

type childRefResponse struct {
	Name string `json:"name,omitempty"`
	Key  string `json:"key"`
}

type metadataResponse struct {
	Kind     string             `json:"kind"`
	RefCount int64              `json:"refCount"`
	Size     int                `json:"size"`
	Children []childRefResponse `json:"children,omitempty"`
}

// handleNodesMetadata reports a node's kind, ref-count, size, and children
// (spec.md §4.2 "metadata").
func (s *Server) handleNodesMetadata(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	key, err := codec.ParseNodeKey(mux.Vars(r)["key"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	meta, err := s.nodes.Metadata(r.Context(), realm, principal, key)
	if err != nil {
		return err
	}
	children := make([]childRefResponse, 0, len(meta.Children))
	for _, c := range meta.Children {
		children = append(children, childRefResponse{Name: c.Name, Key: c.Key.String()})
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		Kind:     string(meta.Kind),
		RefCount: meta.RefCount,
		Size:     meta.Size,
		Children: children,
	})
	return nil
}

type claimRequest struct {
	PoP string `json:"pop"`
}

type claimResponse struct {
	AlreadyOwned bool `json:"alreadyOwned"`
}

// handleNodesClaim adds the caller's delegate to a node's ownership set
// after verifying Proof-of-Possession (spec.md §4.2 "claim").
func (s *Server) handleNodesClaim(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	key, err := codec.ParseNodeKey(mux.Vars(r)["key"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	var req claimRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	alreadyOwned, err := s.nodes.Claim(r.Context(), realm, principal, key, req.PoP)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, claimResponse{AlreadyOwned: alreadyOwned})
	return nil
}

type usageResponse struct {
	PhysicalBytes int64 `json:"physicalBytes"`
	NodeCount     int64 `json:"nodeCount"`
}

// handleUsage reports a realm's aggregate physical footprint (spec.md §3
// "Usage").
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	usage, err := s.usage.Get(r.Context(), realm)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, usageResponse{PhysicalBytes: usage.PhysicalBytes, NodeCount: usage.NodeCount})
	return nil
}

// writeUsageHeader attaches the non-production X-Casfa-Usage debug header
// (SPEC_FULL.md's usage-metering supplement) to responses from endpoints
// that move node bytes, so a development client can watch counters climb
// without a separate request.
func (s *Server) writeUsageHeader(w http.ResponseWriter, r *http.Request, realm codec.Realm) {
	usage, err := s.usage.Get(r.Context(), realm)
	if err != nil {
		return
	}
	w.Header().Set("X-Casfa-Usage", "bytes="+strconv.FormatInt(usage.PhysicalBytes, 10)+"; nodes="+strconv.FormatInt(usage.NodeCount, 10))
}
