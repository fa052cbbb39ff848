// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/aws"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
)

// newObjectGetter builds the S3 client pull downloads through.
var newObjectGetter = func(ctx context.Context, cmd *cli.Command) (aws.ObjectGetter, error) {
	cfg, err := aws.LoadAWSConfig(ctx,
		aws.WithProfile(cmd.String("profile")),
		aws.WithRegion(cmd.String("region")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return aws.NewS3(cfg, aws.WithS3Endpoint(cmd.String("endpoint"))), nil
}

// PullCommandAction is the action handler for the "pull" subcommand. It
// installs the built-in bank of the target from an s3:// URI or a local file.
// Sources ending in .zst are decompressed.
func PullCommandAction(ctx context.Context, cmd *cli.Command) error {
	src := cmd.Args().First()
	if src == "" {
		return fmt.Errorf("source required: s3://bucket/key or a file")
	}

	rt, err := NewRuntime(cmd)
	if err != nil {
		return err
	}

	loc, err := rt.Location()
	if err != nil {
		return err
	}

	data, err := readSource(ctx, cmd, src)
	if err != nil {
		return err
	}

	n, err := rt.Store.InstallBuiltIn(loc, data)
	if err != nil {
		return err
	}
	log.Debugf("installed %d entries from %s", n, src)

	rows := []output.Row{{
		"namespace": loc.Namespace,
		"entries":   n,
		"source":    src,
		"path":      rt.Store.BuiltInPath(loc),
	}}
	return emit(cmd, rows, []output.Column{
		{Key: "namespace", Title: "Namespace"},
		{Key: "entries", Title: "Entries"},
		{Key: "source", Title: "Source"},
		{Key: "path", Title: "Path"},
	})
}

func readSource(ctx context.Context, cmd *cli.Command, src string) ([]byte, error) {
	if strings.HasPrefix(src, "s3://") {
		obj, err := aws.ParseURI(src)
		if err != nil {
			return nil, err
		}
		client, err := newObjectGetter(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return aws.Fetch(ctx, client, obj)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	if strings.HasSuffix(src, ".zst") {
		return aws.Decompress(data)
	}
	return data, nil
}

// PullCommandBuilder constructs the cli.Command definition for the "pull"
// command.
func PullCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "pull",
		Usage:     "install the built-in bank of the target",
		UsageText: `schedcache pull s3://BUCKET/KEY|FILE [options]`,
		Flags: []cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("pull", cfg.Source, &cli.StringFlag{
				Name:    "profile",
				Usage:   "aws shared config profile",
				Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_PROFILE")),
			}),
			NameSpacedValueChainFlagFromConfigFile("pull", cfg.Source, &cli.StringFlag{
				Name:    "region",
				Usage:   "aws region",
				Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_REGION")),
			}),
			NameSpacedValueChainFlagFromConfigFile("pull", cfg.Source, &cli.StringFlag{
				Name:    "endpoint",
				Usage:   "endpoint of an S3 compatible store",
				Sources: cli.NewValueSourceChain(cli.EnvVar("SCHEDCACHE_S3_ENDPOINT")),
			}),
		},
		Targeted: true,
		Action:   PullCommandAction,
		Meta:     meta,
	}).Build()
}
