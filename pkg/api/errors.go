// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

package api

import (
	"net/http"

	"github.com/zeebo/errs"

	"casfa.io/core/pkg/auth"
	"casfa.io/core/pkg/codec"
	"casfa.io/core/pkg/delegate"
	"casfa.io/core/pkg/depot"
	"casfa.io/core/pkg/idp"
	"casfa.io/core/pkg/node"
	"casfa.io/core/pkg/store"
)

// Error is this package's error class.
var Error = errs.Class("api")

// errBadRequest tags a request-shape problem this package itself detects
// (malformed JSON, an ID that fails to parse) rather than one surfaced by a
// domain package.
var errBadRequest = errs.Class("bad request")

// Kind is the stable `error` field of spec.md §6's error body, drawn from
// the enum spec.md §6 fixes.
type Kind string

const (
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindDelegateRevoked      Kind = "DELEGATE_REVOKED"
	KindRootDelegateNotFound Kind = "ROOT_DELEGATE_NOT_FOUND"
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindHashMismatch         Kind = "HASH_MISMATCH"
	KindNodeTooLarge         Kind = "NODE_TOO_LARGE"
	KindMalformedNode        Kind = "MALFORMED_NODE"
	KindInvalidScope         Kind = "INVALID_SCOPE"
	KindDepthExceeded        Kind = "DEPTH_EXCEEDED"
	KindExpired              Kind = "EXPIRED"
	kindInternal             Kind = "INTERNAL"
)

// errorBody is the JSON shape of spec.md §6's "Error body".
type errorBody struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
}

// classify maps an error returned by any domain package to the (Kind,
// HTTP status) pair the HTTP layer reports, per spec.md §7's taxonomy:
// authn -> 401, authz -> 403, input -> 400, state -> 404/409. A handful of
// package error classes carry more than one of these connotations (e.g.
// pkg/delegate's ErrUnauthorized covers both an expired parent token and a
// permission-narrowing violation); where spec.md's end-to-end scenario 5
// pins a concrete status (400, for narrowing) that status wins here.
func classify(err error) (Kind, int) {
	switch {
	case errBadRequest.Has(err):
		return KindMalformedNode, http.StatusBadRequest
	case auth.ErrExpired.Has(err):
		return KindExpired, http.StatusUnauthorized
	case auth.ErrRevoked.Has(err), delegate.ErrRevoked.Has(err):
		return KindDelegateRevoked, http.StatusUnauthorized
	case auth.ErrUnauthenticated.Has(err):
		return KindUnauthorized, http.StatusUnauthorized
	case auth.ErrForbidden.Has(err):
		return KindForbidden, http.StatusForbidden

	case delegate.ErrDepthExceeded.Has(err):
		return KindDepthExceeded, http.StatusBadRequest
	case delegate.ErrInvalidScope.Has(err):
		return KindInvalidScope, http.StatusBadRequest
	case delegate.ErrUnauthorized.Has(err):
		return KindUnauthorized, http.StatusBadRequest

	case node.ErrUnauthorized.Has(err), node.ErrForbidden.Has(err):
		return KindForbidden, http.StatusForbidden

	case depot.ErrExists.Has(err), depot.ErrRefuseRootDelete.Has(err):
		return KindConflict, http.StatusConflict
	case depot.ErrParentMissing.Has(err):
		return KindNotFound, http.StatusNotFound
	case depot.ErrNotADirectory.Has(err), depot.ErrNotAFile.Has(err), depot.ErrInvalidPath.Has(err):
		return KindMalformedNode, http.StatusBadRequest
	case depot.ErrUnauthorized.Has(err):
		return KindForbidden, http.StatusForbidden

	case codec.ErrHashMismatch.Has(err):
		return KindHashMismatch, http.StatusBadRequest
	case codec.ErrNodeTooLarge.Has(err):
		return KindNodeTooLarge, http.StatusRequestEntityTooLarge
	case codec.ErrMalformedNode.Has(err):
		return KindMalformedNode, http.StatusBadRequest

	case idp.ErrEmailTaken.Has(err):
		return KindConflict, http.StatusConflict
	case idp.ErrInvalidCredentials.Has(err):
		return KindUnauthorized, http.StatusUnauthorized

	case err == store.ErrNotFound:
		return KindNotFound, http.StatusNotFound
	case err == store.ErrConflict:
		return KindConflict, http.StatusConflict

	default:
		return kindInternal, http.StatusInternalServerError
	}
}
