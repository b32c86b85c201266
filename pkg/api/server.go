// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package api is CASFA's HTTP surface (spec.md §6), routed with
// gorilla/mux the way the corpus's own mux-based HTTP extensions are
// structured: one Server holding every domain dependency, one method per
// endpoint, a shared auth/policy wrapper in front of every authenticated
// route.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/depot"
	"casfa.io/core/pkg/idp"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
)

// Info is the static payload /api/info reports.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server wires every domain package into the HTTP surface of spec.md §6.
// It holds no state of its own beyond what it was constructed with
// (spec.md §9 "Global mutable state... There is none").
type Server struct {
	log    *zap.Logger
	router *mux.Router
	http   *http.Server

	info Info

	pipeline  *auth.Pipeline
	engine    *delegate.Engine
	nodes     *node.Service
	depots    *depot.Mutator
	idp       *idp.Service
	userRoles store.UserRoleDb
	usage     store.UsageDb

	// debugUsage, when true, attaches an X-Casfa-Usage header to check/put
	// responses (SPEC_FULL.md's non-production usage-metering supplement).
	debugUsage bool
}

// Deps bundles every dependency NewServer needs, so the constructor itself
// stays a single flat parameter list the way the teacher's own service
// constructors are — one struct of named fields, not a dozen positional
// arguments.
type Deps struct {
	Log        *zap.Logger
	ListenAddr string
	Info       Info

	Pipeline  *auth.Pipeline
	Engine    *delegate.Engine
	Nodes     *node.Service
	Depots    *depot.Mutator
	IdP       *idp.Service
	UserRoles store.UserRoleDb
	Usage     store.UsageDb

	DebugUsageHeader bool
}

// NewServer constructs a Server and registers every route.
func NewServer(deps Deps) *Server {
	s := &Server{
		log:        deps.Log,
		info:       deps.Info,
		pipeline:   deps.Pipeline,
		engine:     deps.Engine,
		nodes:      deps.Nodes,
		depots:     deps.Depots,
		idp:        deps.IdP,
		userRoles:  deps.UserRoles,
		usage:      deps.Usage,
		debugUsage: deps.DebugUsageHeader,
	}

	router := mux.NewRouter()
	s.registerRoutes(router)
	s.router = router

	s.http = &http.Server{
		Addr:         deps.ListenAddr,
		Handler:      withRequestID(s.withRecover(s.withAccessLog(router))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router exposes the underlying mux.Router, mainly so internal/castest can
// drive requests directly without a real listener.
func (s *Server) Router() *mux.Router { return s.router }

// Run serves HTTP until ctx is cancelled (lifecycle.Item's Run shape).
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Close implements lifecycle.Item's Close, for symmetry when the listener
// is stopped directly rather than via context cancellation.
func (s *Server) Close() error {
	return s.http.Close()
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", s.public(s.handleHealth)).Methods(http.MethodGet)
	r.HandleFunc("/api/info", s.public(s.handleInfo)).Methods(http.MethodGet)

	r.HandleFunc("/api/local/register", s.public(s.handleLocalRegister)).Methods(http.MethodPost)
	r.HandleFunc("/api/local/login", s.public(s.handleLocalLogin)).Methods(http.MethodPost)
	r.HandleFunc("/api/local/refresh", s.public(s.handleLocalRefresh)).Methods(http.MethodPost)

	r.HandleFunc("/api/oauth/me", s.authenticated(auth.ReadNode, s.handleOAuthMe)).Methods(http.MethodGet)

	r.HandleFunc("/api/admin/users", s.authenticated(auth.AdminOnly, s.handleAdminListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/users", s.authenticated(auth.AdminOnly, s.handleAdminSetRole)).Methods(http.MethodPatch)

	r.HandleFunc("/api/tokens/root", s.authenticated(auth.ReadNode, s.handleTokensRoot)).Methods(http.MethodPost)

	r.HandleFunc("/api/realm/{realm}/delegates", s.authenticated(auth.ManageDelegate, s.handleCreateDelegate)).Methods(http.MethodPost)
	r.HandleFunc("/api/realm/{realm}/delegates/{id}/revoke", s.authenticated(auth.ManageDelegate, s.handleRevokeDelegate)).Methods(http.MethodPost)

	r.HandleFunc("/api/realm/{realm}/depots", s.authenticated(auth.ReadNode, s.handleListDepots)).Methods(http.MethodGet)
	r.HandleFunc("/api/realm/{realm}/depots", s.authenticated(auth.ManageDepot, s.handleCreateDepot)).Methods(http.MethodPost)
	r.HandleFunc("/api/realm/{realm}/depots/{id}", s.authenticated(auth.ReadNode, s.handleGetDepot)).Methods(http.MethodGet)
	r.HandleFunc("/api/realm/{realm}/depots/{id}", s.authenticated(auth.ManageDepot, s.handleUpdateDepot)).Methods(http.MethodPatch)
	r.HandleFunc("/api/realm/{realm}/depots/{id}", s.authenticated(auth.ManageDepot, s.handleDeleteDepot)).Methods(http.MethodDelete)
	r.HandleFunc("/api/realm/{realm}/depots/{id}/commit", s.authenticated(auth.ManageDepot, s.handleCommitDepot)).Methods(http.MethodPost)

	r.HandleFunc("/api/realm/{realm}/nodes/check", s.authenticated(auth.ReadNode, s.handleNodesCheck)).Methods(http.MethodPost)
	r.HandleFunc("/api/realm/{realm}/nodes/raw/{key}", s.authenticated(auth.WriteNode, s.handleNodesPutRaw)).Methods(http.MethodPut)
	r.HandleFunc("/api/realm/{realm}/nodes/raw/{key}", s.authenticated(auth.ReadNode, s.handleNodesGetRaw)).Methods(http.MethodGet)
	r.HandleFunc("/api/realm/{realm}/nodes/metadata/{key}", s.authenticated(auth.ReadNode, s.handleNodesMetadata)).Methods(http.MethodGet)
	r.HandleFunc("/api/realm/{realm}/nodes/{key}/claim", s.authenticated(auth.ReadNode, s.handleNodesClaim)).Methods(http.MethodPost)
	r.HandleFunc("/api/realm/{realm}/usage", s.authenticated(auth.ReadNode, s.handleUsage)).Methods(http.MethodGet)

	r.HandleFunc("/api/realm/{realm}/nodes/{rootKey}/fs/{op}", s.authenticated(auth.ReadNode, s.handleFS)).Methods(http.MethodGet, http.MethodPost, http.MethodPut)
}

// handlerFunc is a handler not requiring authentication.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// public adapts a public handlerFunc into an http.HandlerFunc, mapping any
// returned error through the shared KIND taxonomy.
func (s *Server) public(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// authedHandlerFunc is an endpoint body invoked only after Authenticate and
// the declared Permission both succeed (spec.md §4.5 "Policy check per
// operation").
type authedHandlerFunc func(w http.ResponseWriter, r *http.Request, principal auth.Principal) error

// authenticated resolves the request's bearer credential to a Principal,
// checks perm against it, and only then invokes h.
func (s *Server) authenticated(perm auth.Permission, h authedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		principal, err := s.pipeline.Authenticate(r.Context(), bearer)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !principal.Allows(perm) {
			s.writeError(w, r, auth.ErrForbidden.New("delegate %s lacks %s", principal.DelegateID, perm))
			return
		}
		if err := h(w, r, principal); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
