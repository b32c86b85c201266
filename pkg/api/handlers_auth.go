// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"net/http"
	"time"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/idp"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func sessionToResponse(sess idp.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
	}
}

func (s *Server) handleLocalRegister(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	sess, err := s.idp.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
	return nil
}

func (s *Server) handleLocalLogin(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	sess, err := s.idp.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
	return nil
}

func (s *Server) handleLocalRefresh(w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	sess, err := s.idp.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
	return nil
}

type meResponse struct {
	UserID [16]byte `json:"userId"`
	Realm  string   `json:"realm"`
	Role   string   `json:"role"`
}

// handleOAuthMe reports the caller's own identity (spec.md §6
// "/api/oauth/me"). Only meaningful for a JWT-derived principal: an
// AT-derived delegate has no UserID to report.
func (s *Server) handleOAuthMe(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	if !principal.HasUser {
		return errBadRequest.New("/api/oauth/me requires a JWT, not a delegate access token")
	}
	writeJSON(w, http.StatusOK, meResponse{
		UserID: principal.UserID,
		Realm:  principal.Realm.String(),
		Role:   string(principal.Role),
	})
	return nil
}

type rootTokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// handleTokensRoot mints a fresh AT/RT pair for the caller's own root
// delegate (spec.md §6 "/api/tokens/root"), letting a JWT-authenticated
// caller bridge into the AT-based endpoints that follow.
func (s *Server) handleTokensRoot(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	if !principal.HasUser {
		return errBadRequest.New("/api/tokens/root requires a JWT")
	}
	at, err := codec.NewAccessToken(principal.DelegateID, time.Now().Add(delegate.DefaultAccessTTL))
	if err != nil {
		return Error.Wrap(err)
	}
	rt, err := codec.NewRefreshToken(principal.DelegateID)
	if err != nil {
		return Error.Wrap(err)
	}
	writeJSON(w, http.StatusCreated, rootTokensResponse{
		AccessToken:  at.String(),
		RefreshToken: rt.String(),
	})
	return nil
}
