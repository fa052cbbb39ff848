// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/fingerprint"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// QueryCommandAction is the action handler for the "query" subcommand. It
// looks a graph file up in the bank of the target and replays the recipe with
// the dry-run replayer. A miss is a result, not an error.
func QueryCommandAction(ctx context.Context, cmd *cli.Command) error {
	outputs, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	res := rt.Cache.Lookup(outputs, nil)
	st := rt.Cache.Stats()
	log.WithFields(log.Fields{
		"hits":  st.HitCount(),
		"stats": st,
	}).Debug("query done")

	row := output.Row{
		"result":    "miss",
		"reason":    res.Reason.String(),
		"namespace": res.Namespace,
		"id":        fingerprint.Short(res.Fingerprint),
		"tier":      "",
		"tick":      res.Entry.Tick,
		"actions":   len(res.Entry.Recipe),
	}
	if res.Hit {
		row["result"] = "hit"
		row["reason"] = ""
		row["tier"] = res.Tier.String()
	}

	columns := []output.Column{
		{Key: "result", Title: "Result"},
		{Key: "reason", Title: "Reason"},
		{Key: "namespace", Title: "Namespace"},
		{Key: "id", Title: "ID"},
		{Key: "tier", Title: "Tier"},
		{Key: "tick", Title: "Tick"},
		{Key: "actions", Title: "Actions"},
	}

	if cmd.Bool("recipe") {
		row["recipe"] = recipeText(res.Entry.Recipe)
		columns = append(columns, output.Column{Key: "recipe", Title: "Recipe"})
	}

	return emit(cmd, []output.Row{row}, columns)
}

func recipeText(r []json.RawMessage) string {
	if len(r) == 0 {
		return ""
	}
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}

// QueryCommandBuilder constructs the cli.Command definition for the "query"
// command.
func QueryCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "query",
		Usage:     "look up the schedule of a graph file",
		UsageText: `schedcache query GRAPH [options]`,
		Flags: []cli.Flag{
			newVarFlag(),
			&cli.BoolFlag{
				Name:        "recipe",
				Aliases:     []string{"r"},
				Usage:       "include the recipe of a hit",
				HideDefault: true,
			},
		},
		Targeted: true,
		Action:   QueryCommandAction,
		Meta:     meta,
	}).Build()
}
