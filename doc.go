// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// schedcache is the operator command line tool for the schedule cache. It
// wires the CLI, delegates to internal packages, and serves as the entry
// point.
package main
