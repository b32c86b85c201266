// Copyright (C) 2026 CASFA Authors
// See LICENSE for copying information.

// Package node implements the node service of spec.md §4.2: check, put,
// get, metadata, and claim over content-addressed nodes, plus the
// ref-count and ownership bookkeeping those operations must keep
// consistent. It is grounded on the teacher's satellite/metainfo endpoint
// (object/segment upload, download, and listing against pluggable
// metabase and piece-store ports), generalized from S3-shaped
// buckets/objects to CASFA's single content-addressed key space.
package node
