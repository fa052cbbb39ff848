// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package graph defines the node view of a tensor dataflow graph that the
// schedule cache fingerprints, a deterministic walker that orders nodes
// producers-first, and a loader for HCL/JSON graph description files.
package graph
