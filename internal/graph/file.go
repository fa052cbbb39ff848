// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/apex/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

// fileSpec is the decoded form of a graph description file. Either native
// HCL syntax (.hcl) or its JSON equivalent (.json) is accepted:
//
//	node "x" {
//	  op    = "placeholder"
//	  shape = [var.n, 16]
//	  dtype = "float16"
//	}
//
//	node "y" {
//	  op     = "elewise_single_abs"
//	  shape  = [var.n, 16]
//	  dtype  = "float16"
//	  inputs = ["x"]
//	}
type fileSpec struct {
	Outputs []string   `hcl:"outputs,optional"`
	Nodes   []nodeSpec `hcl:"node,block"`
}

type nodeSpec struct {
	Name       string   `hcl:"name,label"`
	Op         string   `hcl:"op"`
	Shape      []int    `hcl:"shape"`
	DType      string   `hcl:"dtype"`
	ReduceAxes []int    `hcl:"reduce_axes,optional"`
	Inputs     []string `hcl:"inputs,optional"`
}

// LoadFile decodes the graph description at path and returns its output
// nodes. vars are exposed to expressions as var.<name>. When the file does not
// list outputs, every node that no other node consumes is an output, in file
// order.
func LoadFile(path string, vars map[string]int) ([]Node, error) {
	var spec fileSpec
	if err := hclsimple.DecodeFile(path, evalContext(vars), &spec); err != nil {
		return nil, fmt.Errorf("failed to decode graph file %s: %w", path, err)
	}

	outputs, err := spec.build()
	if err != nil {
		return nil, fmt.Errorf("invalid graph file %s: %w", path, err)
	}
	log.Debugf("loaded %d nodes, %d outputs from %s", len(spec.Nodes), len(outputs), path)

	return outputs, nil
}

func evalContext(vars map[string]int) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.NumberIntVal(int64(v))
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(values),
		},
	}
}

func (spec fileSpec) build() ([]Node, error) {
	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("no nodes defined")
	}

	tensors := make(map[string]*Tensor, len(spec.Nodes))
	for _, ns := range spec.Nodes {
		if _, dup := tensors[ns.Name]; dup {
			return nil, fmt.Errorf("duplicate node %q", ns.Name)
		}
		t := &Tensor{
			name:  ns.Name,
			tag:   ns.Op,
			dtype: ns.DType,
			shape: ns.Shape,
			axes:  ns.ReduceAxes,
		}
		tensors[ns.Name] = t
	}

	// Link inputs in a second pass so nodes may be declared in any order.
	consumed := make(map[string]bool)
	for _, ns := range spec.Nodes {
		t := tensors[ns.Name]
		for _, in := range ns.Inputs {
			producer, ok := tensors[in]
			if !ok {
				return nil, fmt.Errorf("node %q reads unknown input %q", ns.Name, in)
			}
			t.inputs = append(t.inputs, producer)
			consumed[in] = true
		}
	}

	var outputs []Node
	if len(spec.Outputs) > 0 {
		for _, name := range spec.Outputs {
			t, ok := tensors[name]
			if !ok {
				return nil, fmt.Errorf("unknown output %q", name)
			}
			outputs = append(outputs, t)
		}
		return outputs, nil
	}

	for _, ns := range spec.Nodes {
		if !consumed[ns.Name] {
			outputs = append(outputs, tensors[ns.Name])
		}
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("no outputs: every node is consumed")
	}

	return outputs, nil
}
