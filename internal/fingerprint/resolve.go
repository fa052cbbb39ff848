// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/schedcache/internal/graph"
)

// Resolver turns output nodes into a fingerprint.
type Resolver struct {
	// Walk orders the graph when the caller has no precomputed order. Nil
	// means graph.Walk.
	Walk graph.Walker
}

// Resolve is Resolver{}.Resolve.
func Resolve(outputs []graph.Node, order []graph.Node) string {
	return Resolver{}.Resolve(outputs, order)
}

// Resolve returns the fingerprint of the graph behind outputs, or "" when the
// graph must not be looked up. order, when non-nil, is used instead of walking
// outputs. Resolve never panics.
func (r Resolver) Resolve(outputs []graph.Node, order []graph.Node) (fp string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", fmt.Sprint(rec)).Debug("fingerprint resolution panicked")
			fp = ""
		}
	}()

	key, err := r.resolve(outputs, order)
	if err != nil {
		log.WithError(err).Debug("graph is not cacheable")
		return ""
	}
	return key
}

func (r Resolver) resolve(outputs []graph.Node, order []graph.Node) (string, error) {
	if order == nil {
		walk := r.Walk
		if walk == nil {
			walk = graph.Walk
		}

		var err error
		if order, err = walk(outputs); err != nil {
			return "", fmt.Errorf("failed to order graph: %w", err)
		}
	}

	return Encode(order)
}
