// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package auth derives and checks the request principal of spec.md §4.5:
// classifying the Authorization bearer value (JWT / Access Token / Refresh
// Token), resolving it to a Principal, and validating a declared permission
// against it before a handler runs.
package auth
