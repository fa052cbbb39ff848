// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/aws"
	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/cacheutil"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// CompactCommandAction is the action handler for the "compact" subcommand. It
// merges the custom shards of the target into one file and sweeps temp files
// that interrupted writes left behind. With --pack the merged custom tier is
// also written as a zstd bank that pull can install.
func CompactCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	loc, err := rt.Location()
	if err != nil {
		return err
	}

	before, err := rt.Store.Shards(loc)
	if err != nil {
		return err
	}

	path, err := rt.Store.Compact(loc)
	if err != nil {
		return err
	}
	rt.Store.Invalidate(loc)

	swept, err := cacheutil.Sweep(rt.Store.Fs(), rt.Store.CustomDir(loc.Family), cmd.Int("sweep-hours"))
	if err != nil {
		return err
	}

	pack := cmd.String("pack")
	if pack != "" {
		if err := packCustom(rt.Store, loc, pack); err != nil {
			return err
		}
	}

	rows := []output.Row{{
		"namespace": loc.Namespace,
		"merged":    0,
		"shard":     path,
		"swept":     swept,
		"pack":      pack,
	}}
	if path != "" {
		rows[0]["merged"] = len(before)
	}

	return emit(cmd, rows, []output.Column{
		{Key: "namespace", Title: "Namespace"},
		{Key: "merged", Title: "Merged"},
		{Key: "shard", Title: "Shard"},
		{Key: "swept", Title: "Swept"},
		{Key: "pack", Title: "Pack"},
	})
}

// packCustom writes the custom tier of loc to dst as a zstd compressed bank.
func packCustom(store *bank.Store, loc bank.Location, dst string) error {
	b, err := store.Get(loc)
	if err != nil {
		return err
	}
	if len(b.Custom) == 0 {
		return fmt.Errorf("no custom entries to pack for %s", loc.Namespace)
	}

	data, err := bank.Encode(b.Custom)
	if err != nil {
		return err
	}
	z, err := aws.Compress(data)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(store.Fs(), dst, z, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	log.Debugf("packed %d entries (%d bytes) into %s", len(b.Custom), len(z), dst)
	return nil
}

// CompactCommandBuilder constructs the cli.Command definition for the
// "compact" command.
func CompactCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "compact",
		Usage:     "merge the custom shards of the target",
		UsageText: `schedcache compact [options]`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "sweep-hours",
				Usage: "remove temp files older than this many hours, 0 to skip",
				Value: 24, //nolint:mnd
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeIntValidator)
				},
			},
			&cli.StringFlag{
				Name:  "pack",
				Usage: "also write the custom tier to this zstd file, eg. bank.json.zst",
			},
		},
		Targeted: true,
		Action:   CompactCommandAction,
		Meta:     meta,
	}).Build()
}
