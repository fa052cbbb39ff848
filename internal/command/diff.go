// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/meta"
)

// ErrBanksDiffer is returned by diff with --exit-code when the banks differ.
var ErrBanksDiffer = errors.New("banks differ")

// DiffCommandAction is the action handler for the "diff" subcommand. It
// compares the entries of two bank files.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 { //nolint:mnd
		return errors.New("diff needs exactly two bank files")
	}

	left, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("failed to read bank: %w", err)
	}
	right, err := os.ReadFile(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("failed to read bank: %w", err)
	}

	color := cmd.Bool("color") && term.IsTerminal(int(os.Stdout.Fd()))
	out, differ, err := bank.Diff(left, right, color)
	if err != nil {
		return err
	}
	if !differ {
		return nil
	}

	if _, err := fmt.Fprint(cmd.Root().Writer, out); err != nil {
		return err
	}
	if cmd.Bool("exit-code") {
		return ErrBanksDiffer
	}
	return nil
}

// DiffCommandBuilder constructs the cli.Command definition for the "diff"
// command.
func DiffCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "diff",
		Usage:     "compare the entries of two bank files",
		UsageText: `schedcache diff LEFT RIGHT [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "exit-code",
				Usage:       "fail when the banks differ",
				HideDefault: true,
			},
		},
		Action: DiffCommandAction,
		Meta:   meta,
	}).Build()
}
