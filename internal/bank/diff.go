// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bank

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/schedcache/internal/fingerprint"
)

// Diff compares two bank files. Both sides are decoded first, so the result
// shows changed recipes and ticks rather than changed escape sequences.
// Entries are keyed by their short fingerprint id. The bool is false when the
// banks hold the same entries.
func Diff(left, right []byte, color bool) (string, bool, error) {
	l, err := Decode(left)
	if err != nil {
		return "", false, fmt.Errorf("left: %w", err)
	}
	r, err := Decode(right)
	if err != nil {
		return "", false, fmt.Errorf("right: %w", err)
	}

	lb, err := expand(l)
	if err != nil {
		return "", false, err
	}
	rb, err := expand(r)
	if err != nil {
		return "", false, err
	}

	d, err := gojsondiff.New().Compare(lb, rb)
	if err != nil {
		return "", false, fmt.Errorf("failed to compare banks: %w", err)
	}
	if !d.Modified() {
		return "", false, nil
	}

	var base map[string]any
	if err := json.Unmarshal(lb, &base); err != nil {
		return "", false, fmt.Errorf("failed to decode left bank: %w", err)
	}

	f := formatter.NewAsciiFormatter(base, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	out, err := f.Format(d)
	if err != nil {
		return "", false, fmt.Errorf("failed to format diff: %w", err)
	}
	return out, true, nil
}

type expandedEntry struct {
	Tick   int64  `json:"tick"`
	Recipe Recipe `json:"recipe"`
}

// expand renders entries as a plain JSON object keyed by short id.
func expand(entries map[string]Entry) ([]byte, error) {
	out := make(map[string]expandedEntry, len(entries))
	for fp, e := range entries {
		recipe := e.Recipe
		if recipe == nil {
			recipe = Recipe{}
		}
		out[fingerprint.Short(fp)] = expandedEntry{Tick: e.Tick, Recipe: recipe}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to expand bank: %w", err)
	}
	return b, nil
}
