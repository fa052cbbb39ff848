// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrCycle is returned when the graph reachable from the outputs is not a
	// DAG.
	ErrCycle = errors.New("cycle detected")

	// ErrNilNode is returned when a nil node is found among the outputs or
	// inputs.
	ErrNilNode = errors.New("nil node")

	// ErrDuplicateName is returned when two different nodes share a name.
	ErrDuplicateName = errors.New("duplicate node name")
)

// Walker orders every node reachable from outputs, producers before consumers.
type Walker func(outputs []Node) ([]Node, error)

// Walk is the default Walker. It is a post-order depth-first search that
// follows Inputs() in declaration order and visits outputs in the order
// given, so identical graphs always produce identical orderings. A name seen
// twice must describe the same node; a different node reusing it is an
// ErrDuplicateName.
func Walk(outputs []Node) ([]Node, error) {
	// permanent: nodes already emitted.
	// temporary: nodes on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	seen := make(map[string]Node)
	order := make([]Node, 0, len(outputs))

	var visit func(n Node) error
	visit = func(n Node) error {
		if n == nil {
			return ErrNilNode
		}

		name := n.Name()
		if first, ok := seen[name]; ok {
			if !sameNode(first, n) {
				return fmt.Errorf("%w '%s'", ErrDuplicateName, name)
			}
		} else {
			seen[name] = n
		}

		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("%w involving node '%s'", ErrCycle, name)
		}

		temporary[name] = true
		for _, in := range n.Inputs() {
			if err := visit(in); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true

		order = append(order, n)
		return nil
	}

	for _, out := range outputs {
		if err := visit(out); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// sameNode reports whether a and b agree on everything that is fingerprinted.
func sameNode(a, b Node) bool {
	if a.Tag() != b.Tag() || a.DType() != b.DType() ||
		!slices.Equal(a.OutputShape(), b.OutputShape()) ||
		!slices.Equal(a.ReduceAxes(), b.ReduceAxes()) {
		return false
	}

	ai, bi := a.Inputs(), b.Inputs()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i] == nil || bi[i] == nil {
			if ai[i] != bi[i] {
				return false
			}
			continue
		}
		if ai[i].Name() != bi[i].Name() {
			return false
		}
	}
	return true
}
