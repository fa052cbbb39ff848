// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/graph"
)

// Schedule is whatever a Replayer produces. The cache never looks inside it.
type Schedule any

// Replayer applies a stored recipe to a freshly built schedule for outputs.
type Replayer interface {
	Replay(outputs []graph.Node, recipe bank.Recipe) (Schedule, error)
}

// ReplayFunc adapts a function to a Replayer.
type ReplayFunc func(outputs []graph.Node, recipe bank.Recipe) (Schedule, error)

// Replay implements Replayer.
func (f ReplayFunc) Replay(outputs []graph.Node, recipe bank.Recipe) (Schedule, error) {
	return f(outputs, recipe)
}

// Plan is the Schedule produced by DryRun.
type Plan struct {
	Outputs []string          `json:"outputs"`
	Actions []json.RawMessage `json:"actions"`
}

// DryRun is a Replayer that applies nothing. It checks that every action is a
// JSON array or object and returns them as a Plan.
type DryRun struct{}

// Replay implements Replayer.
func (DryRun) Replay(outputs []graph.Node, recipe bank.Recipe) (Schedule, error) {
	p := Plan{Actions: make([]json.RawMessage, 0, len(recipe))}
	for _, o := range outputs {
		p.Outputs = append(p.Outputs, o.Name())
	}

	for i, a := range recipe {
		if !gjson.ValidBytes(a) {
			return nil, fmt.Errorf("action %d: %w", i, errInvalidAction)
		}
		if v := gjson.ParseBytes(a); !v.IsArray() && !v.IsObject() {
			return nil, fmt.Errorf("action %d: %w", i, errBadAction)
		}
		p.Actions = append(p.Actions, a)
	}
	return p, nil
}

var (
	errBadAction     = errors.New("action is neither an array nor an object")
	errInvalidAction = errors.New("action is not valid JSON")
)
