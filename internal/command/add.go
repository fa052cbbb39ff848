// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/fingerprint"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// AddCommandAction is the action handler for the "add" subcommand. It records
// a recipe for a graph file in a custom shard.
func AddCommandAction(ctx context.Context, cmd *cli.Command) error {
	outputs, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	recipe, err := parseRecipe(cmd.String("recipe"))
	if err != nil {
		return err
	}

	tick := cmd.Int64("tick")
	if !cmd.IsSet("tick") {
		tick = time.Now().Unix()
	}

	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	shard := cmd.String("shard")
	if err := rt.Cache.AddCase(outputs, recipe, tick, shard); err != nil {
		return err
	}

	if shard == "" {
		loc, err := rt.Location()
		if err != nil {
			return err
		}
		shard = rt.Store.CustomShardPath(loc)
	}

	rows := []output.Row{{
		"id":      fingerprint.Short(fingerprint.Resolve(outputs, nil)),
		"tick":    tick,
		"actions": len(recipe),
		"shard":   shard,
	}}
	return emit(cmd, rows, []output.Column{
		{Key: "id", Title: "ID"},
		{Key: "tick", Title: "Tick"},
		{Key: "actions", Title: "Actions"},
		{Key: "shard", Title: "Shard"},
	})
}

// parseRecipe reads a recipe given inline or, with a leading @, from a file.
// A recipe is a JSON array of actions.
func parseRecipe(spec string) (bank.Recipe, error) {
	text := spec
	if strings.HasPrefix(spec, "@") {
		b, err := os.ReadFile(spec[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read recipe: %w", err)
		}
		text = string(b)
	}

	if !gjson.Valid(text) {
		return nil, errors.New("recipe is not valid JSON")
	}
	parsed := gjson.Parse(text)
	if !parsed.IsArray() {
		return nil, errors.New("recipe must be a JSON array of actions")
	}

	recipe := bank.Recipe{}
	for _, action := range parsed.Array() {
		recipe = append(recipe, []byte(action.Raw))
	}
	return recipe, nil
}

// AddCommandBuilder constructs the cli.Command definition for the "add"
// command.
func AddCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "add",
		Usage:     "record the recipe of a graph file",
		UsageText: `schedcache add GRAPH --recipe JSON|@FILE [options]`,
		Flags: []cli.Flag{
			newVarFlag(),
			&cli.StringFlag{
				Name:     "recipe",
				Aliases:  []string{"r"},
				Usage:    "recipe as a JSON array, or @file to read it from a file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "shard",
				Usage: "shard file to write, defaults to the custom shard of the target",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.Int64Flag{
				Name:        "tick",
				Usage:       "tick of the case, newer ticks win a merge (default: now)",
				HideDefault: true,
			},
		},
		Targeted: true,
		Action:   AddCommandAction,
		Meta:     meta,
	}).Build()
}
