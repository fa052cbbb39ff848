// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package bank is the on-disk store of schedule recipes.
//
// Every target namespace has two tiers. The custom tier is user writable and
// may be spread across many shard files under {root}/{family}/custom/. The
// built-in tier is a single read-only file under {root}/{family}/built-in/.
// A Store loads both tiers lazily, merges custom shards by tick, compacts them
// back into one file, and keeps the result for the life of the process or
// until it is invalidated.
package bank
