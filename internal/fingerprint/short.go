// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Short returns a 12 character id for fp, suitable for logs and listings
// where the full fingerprint would be unreadable. Short("") is "".
func Short(fp string) string {
	if fp == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(fp))
	return hex.EncodeToString(sum[:6])
}
