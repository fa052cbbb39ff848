// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package aws fetches published built-in banks from S3 or an S3 compatible
// object store.
package aws
