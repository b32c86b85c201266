// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, s.info)
	return nil
}

// realmFromRequest parses the {realm} path variable and enforces spec.md
// §4.5's realm isolation: a principal may only act within its own realm,
// regardless of the Permission check already applied.
func realmFromRequest(r *http.Request, principal auth.Principal) (codec.Realm, error) {
	realm, err := codec.ParseRealm(mux.Vars(r)["realm"])
	if err != nil {
		return codec.Realm{}, errBadRequest.Wrap(err)
	}
	if realm != principal.Realm {
		return codec.Realm{}, auth.ErrForbidden.New("delegate %s may not act in realm %s", principal.DelegateID, realm)
	}
	return realm, nil
}
