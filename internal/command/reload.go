// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// ReloadCommandAction is the action handler for the "reload" subcommand. It
// forces the bank of the target to be read again, compacting custom shards on
// the way, and reports what was loaded.
func ReloadCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	if _, err := rt.Cache.UpdateBank(); err != nil {
		return err
	}

	b, loc, err := rt.Cache.Bank()
	if err != nil {
		return err
	}

	rows := []output.Row{{
		"namespace": loc.Namespace,
		"custom":    len(b.Custom),
		"built-in":  len(b.BuiltIn),
		"total":     b.Len(),
	}}
	return emit(cmd, rows, []output.Column{
		{Key: "namespace", Title: "Namespace"},
		{Key: "custom", Title: "Custom"},
		{Key: "built-in", Title: "Built-in"},
		{Key: "total", Title: "Total"},
	})
}

// ReloadCommandBuilder constructs the cli.Command definition for the "reload"
// command.
func ReloadCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "reload",
		Usage:     "reload the bank of the target",
		UsageText: `schedcache reload [options]`,
		Targeted:  true,
		Action:    ReloadCommandAction,
		Meta:      meta,
	}).Build()
}
