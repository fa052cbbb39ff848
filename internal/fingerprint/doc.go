// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint computes the canonical cache key of a tensor dataflow
// graph. Every node contributes a (op, shape, reduce axes, dtype, consumers)
// tuple; the ordered tuples are serialized as a compact JSON list of lists.
// Graphs using an op tag or dtype outside the closed vocabulary have no
// fingerprint at all.
package fingerprint
