// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/afero"

	"github.com/staranto/schedcache/internal/cacheutil"
	"github.com/staranto/schedcache/internal/command"
	"github.com/staranto/schedcache/internal/config"
	mylog "github.com/staranto/schedcache/internal/log"
	"github.com/staranto/schedcache/internal/meta"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(meta.Version)
			return 0
		}
	}

	// Best-effort: pre-create the bank root when caching is enabled.
	if settings, err := cacheutil.LoadSettings(); err == nil {
		if _, ok, err := settings.EnsureBaseDir(afero.NewOsFs()); err != nil && !ok {
			// Non-fatal: print to stderr and continue.
			fmt.Fprintln(os.Stderr, err)
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// atValueFlags are, per command, the flags that take an @FILE value. An @
// token right after one of them is not a set name.
var atValueFlags = map[string]map[string]bool{
	"add": {"--recipe": true, "-r": true},
}

// mangleArguments expands an @set argument into the flags the config file
// lists under <command>.<set>. Without an explicit @set, <command>.defaults
// is used if present. The expanded flags come first so explicit ones win.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	preamble := make([]string, 2)
	copy(preamble, args[:2])

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(preamble, "--help")
		}
	}

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	set := "defaults"
	rest := make([]string, 0, len(args)-2) //nolint:mnd
	valueFlags := atValueFlags[args[1]]
	prev := ""
	for _, a := range args[2:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 && set == "defaults" && !valueFlags[prev] {
			set = a[1:]
			prev = a
			continue
		}
		rest = append(rest, a)
		prev = a
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	var expanded []string
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	out := append(preamble, expanded...) //nolint:gocritic
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
