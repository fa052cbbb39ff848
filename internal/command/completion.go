// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/schedcache/internal/meta"
)

const bashCompletionScript = `# bash completion for schedcache
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_schedcache()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "add compact diff key ls pull query reload shards completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --filter -f --output -o --sort -s --titles -t --tldr"
    local target="--family --variant --core-type --core-num"

    case "$cmd" in
        key)
            local opts="$common --var --short --explain -x"
            ;;
        query)
            local opts="$common $target --var --recipe -r"
            ;;
        add)
            local opts="$common $target --var --recipe -r --shard --tick"
            ;;
        reload|shards)
            local opts="$common $target"
            ;;
        ls)
            local opts="$common $target --long -l"
            ;;
        compact)
            local opts="$common $target --sweep-hours"
            ;;
        diff)
            local opts="$common --exit-code"
            ;;
        pull)
            local opts="$common $target --profile --region --endpoint"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Positionals are graph and bank files.
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -F _schedcache schedcache
`

const zshCompletionScript = `#compdef schedcache

_schedcache() {
  local -a cmds
  cmds=(
    'add:record the recipe of a graph file'
    'compact:merge the custom shards of the target'
    'diff:compare the entries of two bank files'
    'key:print the fingerprint of a graph file'
    'ls:list the entries of the target bank'
    'pull:install the built-in bank of the target'
    'query:look up the schedule of a graph file'
    'reload:reload the bank of the target'
    'shards:list the bank files of the target'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  '(-s --sort)'{-s,--sort}'[sort columns]:columns'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  local -a target
  target=(
  '--family[hardware family]:family'
  '--variant[hardware variant]:variant'
  '--core-type[core type]:core type'
  '--core-num[number of cores]:cores'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'schedcache commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    key)
      _arguments -C \
        $common \
        '*--var[graph variable]:name=value' \
        '--short[short id only]' \
        '(-x --explain)'{-x,--explain}'[per-node features]' \
        '1:graph:_files'
      ;;
    query)
      _arguments -C \
        $common $target \
        '*--var[graph variable]:name=value' \
        '(-r --recipe)'{-r,--recipe}'[include recipe]' \
        '1:graph:_files'
      ;;
    add)
      _arguments -C \
        $common $target \
        '*--var[graph variable]:name=value' \
        '(-r --recipe)'{-r,--recipe}'[recipe json or @file]:recipe' \
        '--shard[shard file]:shard:_files' \
        '--tick[tick]:tick' \
        '1:graph:_files'
      ;;
    reload|shards)
      _arguments -C $common $target
      ;;
    ls)
      _arguments -C $common $target '(-l --long)'{-l,--long}'[full fingerprint]'
      ;;
    compact)
      _arguments -C $common $target '--sweep-hours[temp file age]:hours'
      ;;
    diff)
      _arguments -C \
        $common \
        '--exit-code[fail when banks differ]' \
        '1:left:_files' \
        '2:right:_files'
      ;;
    pull)
      _arguments -C \
        $common $target \
        '--profile[aws profile]:profile' \
        '--region[aws region]:region' \
        '--endpoint[s3 endpoint]:url' \
        '1:source:_files'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:file:_files'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _schedcache schedcache
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: schedcache completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "schedcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
