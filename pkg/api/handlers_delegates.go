// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/delegate"
)

type createDelegateRequest struct {
	Name           string `json:"name"`
	CanUpload      bool   `json:"canUpload"`
	CanManageDepot bool   `json:"canManageDepot"`
	Scope          string `json:"scope"`
	AccessTTL      string `json:"accessTtl"`
	RefreshTTL     string `json:"refreshTtl"`
}

type delegateResponse struct {
	ID             string `json:"id"`
	Parent         string `json:"parent,omitempty"`
	Depth          int    `json:"depth"`
	CanUpload      bool   `json:"canUpload"`
	CanManageDepot bool   `json:"canManageDepot"`
	Scope          string `json:"scope"`
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken"`
}

// handleCreateDelegate mints a child delegate under the caller's own
// delegate (spec.md §4.4 "Child minting"), called through
// delegate.Engine.CreateChild so every narrowing invariant runs.
func (s *Server) handleCreateDelegate(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	if _, err := realmFromRequest(r, principal); err != nil {
		return err
	}

	var req createDelegateRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}

	params := delegate.ChildParams{
		Name:           req.Name,
		CanUpload:      req.CanUpload,
		CanManageDepot: req.CanManageDepot,
	}
	if req.Scope != "" {
		scope, err := codec.ParseNodeKey(req.Scope)
		if err != nil {
			return errBadRequest.Wrap(err)
		}
		params.Scope = scope
	} else {
		params.Scope = codec.WellKnownEmptySet
	}
	if req.AccessTTL != "" {
		ttl, err := time.ParseDuration(req.AccessTTL)
		if err != nil {
			return errBadRequest.Wrap(err)
		}
		params.AccessTTL = ttl
	}
	if req.RefreshTTL != "" {
		ttl, err := time.ParseDuration(req.RefreshTTL)
		if err != nil {
			return errBadRequest.Wrap(err)
		}
		params.RefreshTTL = ttl
	}

	parent, err := s.engine.Resolve(r.Context(), principal.DelegateID)
	if err != nil {
		return err
	}

	var parentTokenExpiresAt *time.Time
	if principal.HasAT {
		parentTokenExpiresAt = &principal.AT.ExpiresAt
	}

	minted, err := s.engine.CreateChild(r.Context(), parent, parentTokenExpiresAt, params)
	if err != nil {
		return err
	}

	resp := delegateResponse{
		ID:             minted.Delegate.ID.String(),
		Depth:          minted.Delegate.Depth,
		CanUpload:      minted.Delegate.CanUpload,
		CanManageDepot: minted.Delegate.CanManageDepot,
		Scope:          minted.Delegate.Scope.String(),
		AccessToken:    minted.AT.String(),
		RefreshToken:   minted.RT.String(),
	}
	if !minted.Delegate.IsRoot() {
		resp.Parent = minted.Delegate.Parent.String()
	}
	writeJSON(w, http.StatusCreated, resp)
	return nil
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

// handleRevokeDelegate cascades revocation to a delegate and every
// transitive descendant (spec.md §4.4 "Revocation cascade").
func (s *Server) handleRevokeDelegate(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	if _, err := realmFromRequest(r, principal); err != nil {
		return err
	}

	id, err := codec.ParseDelegateID(mux.Vars(r)["id"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}

	target, err := s.engine.Resolve(r.Context(), id)
	if err != nil {
		return err
	}
	if target.Realm != principal.Realm {
		return auth.ErrForbidden.New("delegate %s is outside the caller's realm", id)
	}

	var req revokeRequest
	_ = readJSON(r, &req)

	if err := s.engine.Revoke(r.Context(), id, req.Reason); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
	return nil
}
