// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"encoding/hex"
	"net/http"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/store"
)

type userRoleResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// handleAdminListUsers lists every user that has ever had a role set
// explicitly (spec.md §6 "/api/admin/users", SPEC_FULL.md's role-listing
// supplement).
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	roles, err := s.userRoles.ListRoles(r.Context())
	if err != nil {
		return Error.Wrap(err)
	}
	out := make([]userRoleResponse, 0, len(roles))
	for _, ur := range roles {
		out = append(out, userRoleResponse{
			UserID: hex.EncodeToString(ur.UserID[:]),
			Role:   string(ur.Role),
		})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

type setRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// handleAdminSetRole assigns a user's administrative Role (spec.md §6
// "/api/admin/users" PATCH), rejecting any value outside store's fixed
// Role enum.
func (s *Server) handleAdminSetRole(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	var req setRoleRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}

	raw, err := hex.DecodeString(req.UserID)
	if err != nil || len(raw) != 16 {
		return errBadRequest.New("userId must be 32 hex characters")
	}
	var userID [16]byte
	copy(userID[:], raw)

	role := store.Role(req.Role)
	switch role {
	case store.RoleUnauthorized, store.RoleUser, store.RoleAdmin:
	default:
		return errBadRequest.New("unrecognized role %q", req.Role)
	}

	if err := s.userRoles.SetRole(r.Context(), userID, role); err != nil {
		return Error.Wrap(err)
	}
	writeJSON(w, http.StatusOK, userRoleResponse{UserID: req.UserID, Role: string(role)})
	return nil
}
