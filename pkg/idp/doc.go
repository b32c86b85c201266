// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package idp is the reference local identity provider of spec.md §6's
// "/api/local/{register,login,refresh}" — an external IdP port's default,
// self-contained implementation, issuing the user JWT the auth pipeline
// (pkg/auth) consumes everywhere else.
package idp
