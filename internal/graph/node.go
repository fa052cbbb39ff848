// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package graph

import "fmt"

// PlaceholderTag is the operation tag carried by leaves, ie. tensors whose
// values are supplied from outside the graph.
const PlaceholderTag = "placeholder"

// Node is the capability set a compute-graph tensor must expose to be
// fingerprinted. Concrete compiler representations are adapted to it at the
// walker boundary. Edges are matched by Name, not by identity.
type Node interface {
	Tag() string
	OutputShape() []int
	ReduceAxes() []int
	DType() string
	Name() string
	Inputs() []Node
}

// IsLeaf reports whether n is an externally supplied value.
func IsLeaf(n Node) bool {
	return n.Tag() == PlaceholderTag
}

// Tensor is the plain Node implementation used by graph files, tools and
// tests.
type Tensor struct {
	name   string
	tag    string
	dtype  string
	shape  []int
	axes   []int
	inputs []Node
}

// Placeholder returns a leaf tensor.
func Placeholder(name string, shape []int, dtype string) *Tensor {
	return &Tensor{
		name:  name,
		tag:   PlaceholderTag,
		dtype: dtype,
		shape: append([]int(nil), shape...),
	}
}

// Compute returns a computed tensor produced by the op identified by tag.
func Compute(name, tag string, shape []int, dtype string, inputs ...Node) *Tensor {
	return &Tensor{
		name:   name,
		tag:    tag,
		dtype:  dtype,
		shape:  append([]int(nil), shape...),
		inputs: append([]Node(nil), inputs...),
	}
}

// WithReduceAxes sets the reduce-axis positions of a computed tensor and
// returns it for chaining.
func (t *Tensor) WithReduceAxes(axes ...int) *Tensor {
	t.axes = append([]int(nil), axes...)
	return t
}

func (t *Tensor) Tag() string        { return t.tag }
func (t *Tensor) OutputShape() []int { return t.shape }
func (t *Tensor) ReduceAxes() []int  { return t.axes }
func (t *Tensor) DType() string      { return t.dtype }
func (t *Tensor) Name() string       { return t.name }
func (t *Tensor) Inputs() []Node     { return t.inputs }

func (t *Tensor) String() string {
	return fmt.Sprintf("%s(%s %v %s)", t.name, t.tag, t.shape, t.dtype)
}
