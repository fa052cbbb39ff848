// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cache is the compiler-facing API of the schedule bank. Query looks a
// graph up and replays the stored recipe, AddCase records a new recipe and
// UpdateBank forces a reload. Query is fail-safe: every failure is a miss and
// the caller falls back to its own schedule search.
package cache
