// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/fingerprint"
	"github.com/staranto/schedcache/internal/graph"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// KeyCommandAction is the action handler for the "key" subcommand. It prints
// the fingerprint a graph file is stored under, or with --explain the feature
// tuple of every node.
func KeyCommandAction(ctx context.Context, cmd *cli.Command) error {
	outputs, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	order, err := graph.Walk(outputs)
	if err != nil {
		return err
	}

	if cmd.Bool("explain") {
		return explain(cmd, order)
	}

	// Encode rather than Resolve so the reason for a non-cacheable graph is
	// reported.
	fp, err := fingerprint.Encode(order)
	if err != nil {
		return err
	}

	if cmd.Bool("short") {
		_, err = fmt.Fprintln(cmd.Root().Writer, fingerprint.Short(fp))
		return err
	}

	rows := []output.Row{{
		"id":          fingerprint.Short(fp),
		"nodes":       len(order),
		"fingerprint": fp,
	}}
	return emit(cmd, rows, []output.Column{
		{Key: "id", Title: "ID"},
		{Key: "nodes", Title: "Nodes"},
		{Key: "fingerprint", Title: "Fingerprint"},
	})
}

func explain(cmd *cli.Command, order []graph.Node) error {
	features, err := fingerprint.Features(order)
	if err != nil {
		return err
	}

	rows := make([]output.Row, 0, len(order))
	for i, n := range order {
		f := features[i]
		rows = append(rows, output.Row{
			"index":     strconv.Itoa(i),
			"name":      n.Name(),
			"op":        fmt.Sprintf("%s(%d)", n.Tag(), f.Op),
			"shape":     f.Shape,
			"axes":      f.ReduceAxes,
			"dtype":     fmt.Sprintf("%s(%d)", n.DType(), f.DType),
			"consumers": f.Consumers,
		})
	}

	return emit(cmd, rows, []output.Column{
		{Key: "index", Title: "#"},
		{Key: "name", Title: "Name"},
		{Key: "op", Title: "Op"},
		{Key: "shape", Title: "Shape"},
		{Key: "axes", Title: "Axes"},
		{Key: "dtype", Title: "DType"},
		{Key: "consumers", Title: "Consumers"},
	})
}

// KeyCommandBuilder constructs the cli.Command definition for the "key"
// command.
func KeyCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "key",
		Usage:     "print the fingerprint of a graph file",
		UsageText: `schedcache key GRAPH [options]`,
		Flags: []cli.Flag{
			newVarFlag(),
			&cli.BoolFlag{
				Name:        "short",
				Usage:       "print only the short id",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "explain",
				Aliases:     []string{"x"},
				Usage:       "show the per-node features the fingerprint is built from",
				HideDefault: true,
			},
		},
		Action: KeyCommandAction,
		Meta:   meta,
	}).Build()
}
