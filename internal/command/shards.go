// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// ShardsCommandAction is the action handler for the "shards" subcommand. It
// lists the files behind the target's bank: the custom shards in merge order,
// then the built-in file.
func ShardsCommandAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	loc, err := rt.Location()
	if err != nil {
		return err
	}

	shards, err := rt.Store.Shards(loc)
	if err != nil {
		return err
	}

	rows := make([]output.Row, 0, len(shards)+1)
	for _, s := range shards {
		rows = append(rows, shardRow(rt.Store, bank.TierCustom, s))
	}

	builtIn := rt.Store.BuiltInPath(loc)
	fi, err := rt.Store.Fs().Stat(builtIn)
	switch {
	case err == nil:
		rows = append(rows, shardRow(rt.Store, bank.TierBuiltIn, bank.ShardInfo{
			Path:    builtIn,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}))
	case errors.Is(err, os.ErrNotExist):
	default:
		return err
	}

	return emit(cmd, rows, []output.Column{
		{Key: "tier", Title: "Tier"},
		{Key: "name", Title: "Name"},
		{Key: "entries", Title: "Entries"},
		{Key: "size", Title: "Size"},
		{Key: "modified", Title: "Modified"},
		{Key: "path", Title: "Path"},
	})
}

func shardRow(store *bank.Store, tier bank.Tier, s bank.ShardInfo) output.Row {
	entries := "?"
	if e, err := store.ReadShard(s.Path); err == nil {
		entries = humanize.Comma(int64(len(e)))
	} else {
		log.WithError(err).Warnf("failed to read shard %s", s.Path)
	}

	return output.Row{
		"tier":     tier.String(),
		"name":     filepath.Base(s.Path),
		"entries":  entries,
		"size":     humanize.Bytes(uint64(s.Size)), //nolint:gosec
		"modified": humanize.Time(s.ModTime),
		"path":     s.Path,
	}
}

// ShardsCommandBuilder constructs the cli.Command definition for the "shards"
// command.
func ShardsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "shards",
		Usage:     "list the bank files of the target",
		UsageText: `schedcache shards [options]`,
		Targeted:  true,
		Action:    ShardsCommandAction,
		Meta:      meta,
	}).Build()
}
