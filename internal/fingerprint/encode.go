// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/staranto/schedcache/internal/graph"
)

// ErrNotEncodable is returned (wrapped with the reason) when an ordered node
// list cannot be turned into a fingerprint. Nothing is ever partially
// encoded.
var ErrNotEncodable = errors.New("graph is not encodable")

// Feature is the per-node tuple a fingerprint is built from.
type Feature struct {
	Op         int
	Shape      []int
	ReduceAxes []int
	DType      int
	Consumers  []int
}

// MarshalJSON renders the tuple as a fixed-position list, eg.
// [1,[128,16],[],0,[]].
func (f Feature) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		f.Op,
		orEmpty(f.Shape),
		orEmpty(f.ReduceAxes),
		f.DType,
		orEmpty(f.Consumers),
	})
}

func orEmpty(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func notEncodable(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrNotEncodable, fmt.Sprintf(format, a...))
}

// Features builds the feature tuple of every node in order. order must list
// producers before consumers and names must be unique.
func Features(order []graph.Node) ([]Feature, error) {
	if len(order) == 0 {
		return nil, notEncodable("no nodes")
	}

	index := make(map[string]int, len(order))
	for i, n := range order {
		if n == nil {
			return nil, notEncodable("nil node at %d", i)
		}
		name := n.Name()
		if _, dup := index[name]; dup {
			return nil, notEncodable("duplicate node name %q", name)
		}
		index[name] = i
	}

	// producer name -> indices of the later nodes that read it. Walking in
	// order keeps each list ascending.
	consumers := make(map[string][]int, len(order))
	for i, n := range order {
		seen := make(map[string]bool)
		for _, in := range n.Inputs() {
			if in == nil {
				return nil, notEncodable("node %q has a nil input", n.Name())
			}
			p := in.Name()
			if at, ok := index[p]; !ok || at >= i {
				return nil, notEncodable("input %q of node %q is not ordered before it", p, n.Name())
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			consumers[p] = append(consumers[p], i)
		}
	}

	features := make([]Feature, 0, len(order))
	for _, n := range order {
		op, ok := OpID(n.Tag())
		if !ok {
			return nil, notEncodable("unknown op tag %q on node %q", n.Tag(), n.Name())
		}
		dt, ok := DTypeID(n.DType())
		if !ok {
			return nil, notEncodable("unknown dtype %q on node %q", n.DType(), n.Name())
		}

		f := Feature{
			Op:        op,
			Shape:     append([]int(nil), n.OutputShape()...),
			DType:     dt,
			Consumers: consumers[n.Name()],
		}

		if graph.IsLeaf(n) {
			if len(n.Inputs()) > 0 {
				return nil, notEncodable("leaf %q has inputs", n.Name())
			}
		} else {
			f.ReduceAxes = axisSet(n.ReduceAxes())
		}

		features = append(features, f)
	}

	return features, nil
}

// axisSet returns the sorted, de-duplicated reduce axes.
func axisSet(axes []int) []int {
	if len(axes) == 0 {
		return nil
	}
	out := append([]int(nil), axes...)
	sort.Ints(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[j-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}

// Encode serializes the features of order into the canonical fingerprint
// text.
func Encode(order []graph.Node) (string, error) {
	features, err := Features(order)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotEncodable, err)
	}

	return string(b), nil
}
