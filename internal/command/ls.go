// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/fingerprint"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// LsCommandAction is the action handler for the "ls" subcommand. It lists the
// entries of both tiers of the target. Built-in entries that a custom entry
// overrides are marked shadowed.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	loc, err := rt.Location()
	if err != nil {
		return err
	}

	b, err := rt.Store.Get(loc)
	if err != nil {
		return err
	}

	rows := make([]output.Row, 0, b.Len())
	add := func(tier bank.Tier, entries map[string]bank.Entry) {
		for fp, e := range entries {
			shadowed := false
			if tier == bank.TierBuiltIn {
				_, shadowed = b.Custom[fp]
			}
			rows = append(rows, output.Row{
				"id":          fingerprint.Short(fp),
				"tier":        tier.String(),
				"tick":        e.Tick,
				"actions":     len(e.Recipe),
				"shadowed":    shadowed,
				"fingerprint": fp,
			})
		}
	}
	add(bank.TierCustom, b.Custom)
	add(bank.TierBuiltIn, b.BuiltIn)

	// Map order is random; without --sort the listing is by id.
	if cmd.String("sort") == "" {
		output.SortRows(rows, "id,tier")
	}

	columns := []output.Column{
		{Key: "id", Title: "ID"},
		{Key: "tier", Title: "Tier"},
		{Key: "tick", Title: "Tick"},
		{Key: "actions", Title: "Actions"},
		{Key: "shadowed", Title: "Shadowed"},
	}
	if cmd.Bool("long") {
		columns = append(columns, output.Column{Key: "fingerprint", Title: "Fingerprint"})
	}

	return emit(cmd, rows, columns)
}

// LsCommandBuilder constructs the cli.Command definition for the "ls" command.
func LsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "ls",
		Usage:     "list the entries of the target's bank",
		UsageText: `schedcache ls [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "long",
				Aliases:     []string{"l"},
				Usage:       "include the full fingerprint",
				HideDefault: true,
			},
		},
		Targeted: true,
		Action:   LsCommandAction,
		Meta:     meta,
	}).Build()
}
