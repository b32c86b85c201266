// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
)

type statResponse struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Size        int    `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

type lsEntryResponse struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type lsResponse struct {
	Entries    []lsEntryResponse `json:"entries"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

type fsWriteResponse struct {
	Root string `json:"root"`
}

// handleFS is the depot façade of spec.md §6's "/api/realm/{realm}/nodes/
// {rootKey}/fs/{op}": a single dispatcher over depot.Mutator's path
// operations (stat/ls/read/write/mkdir/rm/mv/cp), the way the reference
// filesystem-shaped walk spec.md §4.3 describes is actually exercised.
func (s *Server) handleFS(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	realm, err := realmFromRequest(r, principal)
	if err != nil {
		return err
	}
	vars := mux.Vars(r)
	root, err := codec.ParseNodeKey(vars["rootKey"])
	if err != nil {
		return errBadRequest.Wrap(err)
	}
	op := vars["op"]
	path := r.URL.Query().Get("path")
	ctx := r.Context()

	switch op {
	case "stat":
		st, err := s.depots.Stat(ctx, realm, principal, root, path)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, statResponse{Name: st.Name, Kind: string(st.Kind), Size: st.Size, ContentType: st.ContentType})
		return nil

	case "ls":
		cursor := r.URL.Query().Get("cursor")
		result, err := s.depots.Ls(ctx, realm, principal, root, path, cursor)
		if err != nil {
			return err
		}
		entries := make([]lsEntryResponse, 0, len(result.Entries))
		for _, e := range result.Entries {
			entries = append(entries, lsEntryResponse{Name: e.Name, Key: e.Key.String()})
		}
		writeJSON(w, http.StatusOK, lsResponse{Entries: entries, NextCursor: result.NextCursor})
		return nil

	case "read":
		data, contentType, err := s.depots.Read(ctx, realm, principal, root, path)
		if err != nil {
			return err
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return nil

	case "write":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return errBadRequest.Wrap(err)
		}
		defer func() { _ = r.Body.Close() }()
		newRoot, err := s.depots.Write(ctx, realm, principal, root, path, data, r.Header.Get("Content-Type"))
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, fsWriteResponse{Root: newRoot.String()})
		return nil

	case "mkdir":
		newRoot, err := s.depots.Mkdir(ctx, realm, principal, root, path)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, fsWriteResponse{Root: newRoot.String()})
		return nil

	case "rm":
		newRoot, err := s.depots.Rm(ctx, realm, principal, root, path)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, fsWriteResponse{Root: newRoot.String()})
		return nil

	case "mv":
		to := r.URL.Query().Get("to")
		newRoot, err := s.depots.Mv(ctx, realm, principal, root, path, to)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, fsWriteResponse{Root: newRoot.String()})
		return nil

	case "cp":
		to := r.URL.Query().Get("to")
		newRoot, err := s.depots.Cp(ctx, realm, principal, root, path, to)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, fsWriteResponse{Root: newRoot.String()})
		return nil

	default:
		return errBadRequest.New("unknown fs op %q", op)
	}
}
