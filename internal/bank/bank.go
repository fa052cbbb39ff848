// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bank

import (
	"encoding/json"
	"fmt"
)

// Tier is one of the two store partitions.
type Tier int

const (
	TierCustom Tier = iota
	TierBuiltIn
)

func (t Tier) String() string {
	switch t {
	case TierCustom:
		return "custom"
	case TierBuiltIn:
		return "built-in"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Recipe is an opaque, ordered list of schedule actions. Only the replayer
// knows what an action means.
type Recipe []json.RawMessage

// Entry is a stored recipe and the tick it was recorded at.
type Entry struct {
	Recipe Recipe
	Tick   int64
}

// Bank is the loaded content of both tiers of one namespace. A Bank handed
// out by a Store is shared and must not be modified.
type Bank struct {
	Custom  map[string]Entry
	BuiltIn map[string]Entry
}

func newBank() *Bank {
	return &Bank{
		Custom:  map[string]Entry{},
		BuiltIn: map[string]Entry{},
	}
}

// Lookup finds fp in the custom tier, then in the built-in tier. Tick plays
// no part in the precedence.
func (b *Bank) Lookup(fp string) (Entry, Tier, bool) {
	if b == nil {
		return Entry{}, TierCustom, false
	}
	if e, ok := b.Custom[fp]; ok {
		return e, TierCustom, true
	}
	if e, ok := b.BuiltIn[fp]; ok {
		return e, TierBuiltIn, true
	}
	return Entry{}, TierCustom, false
}

// Len is the number of entries across both tiers.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Custom) + len(b.BuiltIn)
}

// Location addresses one namespace of one product family.
type Location struct {
	Family    string
	Namespace string
}

func (l Location) String() string {
	return l.Family + "/" + l.Namespace
}

// State is the load state of a Location within a Store.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
