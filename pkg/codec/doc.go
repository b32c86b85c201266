// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package codec defines the only canonical serialization of CASFA's node
// kinds (File, Dict, Successor, Set) and of Access/Refresh Tokens. All
// encoders are pure and in-memory; there are no suspension points here.
//
// Decoding is always paired with the limits a realm was configured with
// (node size, max name bytes) so a server can reject oversized input before
// it is ever persisted.
package codec
