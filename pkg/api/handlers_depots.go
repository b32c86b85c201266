// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/store"
)

type historyEntryResponse struct {
	Root        string    `json:"root"`
	CommittedAt time.Time `json:"committedAt"`
}

type depotResponse struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Root       string                 `json:"root"`
	History    []historyEntryResponse `json:"history"`
	MaxHistory int                    `json:"maxHistory"`
	Main       bool                   `json:"main"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

func depotToResponse(d store.Depot) depotResponse {
	history := make([]historyEntryResponse, 0, len(d.History))
	for _, h := range d.History {
		history = append(history, historyEntryResponse{Root: h.Root.String(), CommittedAt: h.CommittedAt})
	}
	return depotResponse{
		ID:         d.ID.String(),
		Title:      d.Title,
		Root:       d.Root.String(),
		History:    history,
		MaxHistory: d.MaxHistory,
		Main:       d.Main,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (s *Server) handleListDepots(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	depots, err := s.depots.ListDepots(r.Context(), realm)
	if err != nil {
		return err
	}
	out := make([]depotResponse, 0, len(depots))
	for _, d := range depots {
		out = append(out, depotToResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

type createDepotRequest struct {
	Title string `json:"title"`
	Main  bool   `json:"main"`
}

func (s *Server) handleCreateDepot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	var req createDepotRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	d, err := s.depots.CreateDepot(r.Context(), realm, req.Title, req.Main)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, depotToResponse(d))
	return nil
}

func (s *Server) handleGetDepot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	id, err := codec.ParseDepotID(mux.Vars(r)["id"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	d, err := s.depots.GetDepot(r.Context(), realm, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, depotToResponse(d))
	return nil
}

type updateDepotRequest struct {
	Title      *string `json:"title"`
	MaxHistory *int    `json:"maxHistory"`
}

func (s *Server) handleUpdateDepot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	id, err := codec.ParseDepotID(mux.Vars(r)["id"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	var req updateDepotRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	d, err := s.depots.UpdateDepotSettings(r.Context(), realm, id, req.Title, req.MaxHistory)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, depotToResponse(d))
	return nil
}

func (s *Server) handleDeleteDepot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	id, err := codec.ParseDepotID(mux.Vars(r)["id"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	if err := s.depots.DeleteDepot(r.Context(), realm, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type commitDepotRequest struct {
	Root string `json:"root"`
}

// handleCommitDepot advances a depot's head to a new root (spec.md §4.3
// "Commit contract"), requiring canManageDepot (enforced both by the route's
// declared Permission and, redundantly, inside Mutator.Commit itself).
func (s *Server) handleCommitDepot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	id, err := codec.ParseDepotID(mux.Vars(r)["id"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	var req commitDepotRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	root, err := codec.ParseNodeKey(req.Root)
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	d, err := s.depots.Commit(r.Context(), realm, principal, id, root)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, depotToResponse(d))
	return nil
}
