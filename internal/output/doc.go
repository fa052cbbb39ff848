// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output renders command result sets as text tables, JSON or YAML,
// with optional --filter and --sort handling.
package output
