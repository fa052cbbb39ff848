// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package command defines the CLI command set for schedcache. It wires flags,
// validators, actions, and shell completion for subcommands.
package command
