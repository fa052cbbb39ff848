// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/cache"
	"github.com/staranto/schedcache/internal/cacheutil"
	"github.com/staranto/schedcache/internal/graph"
	"github.com/staranto/schedcache/internal/meta"
	"github.com/staranto/schedcache/internal/output"
	"github.com/staranto/schedcache/internal/target"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr schedcache <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "schedcache", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CommandBuilder constructs a cli.Command for a subcommand using a consistent
// pattern. The builder wires metadata, adds the tldr and output flags, the
// target flags when Targeted is set, and sets up validators.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Targeted  bool
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := make([]cli.Flag, 0, len(cb.Flags)+10) //nolint:mnd
	flags = append(flags, cb.Flags...)
	flags = append(flags, newTLDRFlag())
	flags = append(flags, NewGlobalFlags(cb.Name)...)
	if cb.Targeted {
		flags = append(flags, NewTargetFlags(cb.Name)...)
	}

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if m := GetMeta(c); len(m.Args) > 1 {
				log.Debugf("Executing action for %v", m.Args[1:])
			}
			if ShortCircuitTLDR(ctx, c, cb.Name) {
				return nil
			}
			return cb.Action(ctx, c)
		},
	}
}

// Runtime is everything a command needs to talk to the bank of one target.
type Runtime struct {
	Settings cacheutil.Settings
	Target   target.Descriptor
	Store    *bank.Store
	Cache    *cache.Cache
}

// NewRuntime builds the store and cache from the environment and the target
// flags of cmd. The target is not validated here; commands that need a
// namespace call Location.
func NewRuntime(cmd *cli.Command) (*Runtime, error) {
	settings, err := cacheutil.LoadSettings()
	if err != nil {
		return nil, err
	}

	store, err := settings.NewStore()
	if err != nil {
		return nil, err
	}

	d := targetFromFlags(cmd)
	log.Debugf("target: %s", d)

	return &Runtime{
		Settings: settings,
		Target:   d,
		Store:    store,
		Cache:    cache.New(store, target.Static(d), cache.DryRun{}, cache.WithEnabled(settings.Enabled())),
	}, nil
}

// Location resolves the bank location of the runtime's target.
func (r *Runtime) Location() (bank.Location, error) {
	d, ns, err := target.Resolve(target.Static(r.Target))
	if err != nil {
		return bank.Location{}, fmt.Errorf("%w (set --family, --variant, --core-type and --core-num)", err)
	}
	return bank.Location{Family: d.Family, Namespace: ns}, nil
}

func targetFromFlags(cmd *cli.Command) target.Descriptor {
	return target.Descriptor{
		Family:   cmd.String("family"),
		Variant:  cmd.String("variant"),
		CoreType: cmd.String("core-type"),
		CoreNum:  cmd.Int("core-num"),
	}
}

// parseVars turns name=value pairs into graph file variables.
func parseVars(values []string) (map[string]int, error) {
	vars := make(map[string]int, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q: want name=value", v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid variable %q: value is not an integer", v)
		}
		vars[name] = n
	}
	return vars, nil
}

// loadGraph loads the graph file named by the first argument.
func loadGraph(cmd *cli.Command) ([]graph.Node, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, errors.New("graph file required")
	}

	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return nil, err
	}

	return graph.LoadFile(path, vars)
}

// emit renders rows according to the output flags of cmd.
func emit(cmd *cli.Command, rows []output.Row, columns []output.Column) error {
	return output.Emit(cmd.Root().Writer, rows, columns, output.Options{
		Format: cmd.String("output"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
	})
}
