// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// docgen reads docs/commands/<cmd>.md and generates
//   - docs/man/share/man1/schedcache-<cmd>.1 from the full markdown
//   - docs/tldr/schedcache-<cmd>.md from the summary and the examples block

const binary = "schedcache"

func main() {
	var (
		repoRoot      string
		onlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, dir := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating %s: %v", dir, err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		fatalf("reading commands dir %s: %v", commandsDir, err)
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		cmd := strings.TrimSuffix(e.Name(), ".md")
		inPath := filepath.Join(commandsDir, e.Name())
		raw, err := os.ReadFile(inPath)
		if err != nil {
			fatalf("reading %s: %v", inPath, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", binary, cmd))
		if err := writeFile(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd, err)
		}

		p := parsePage(cmd, string(raw))
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", binary, cmd))
		if err := writeFile(tldrPath, []byte(p.tldr()), onlyIfChanged); err != nil {
			fatalf("writing tldr page for %s: %v", cmd, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no command markdown found under %s", commandsDir)
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFile(path string, data []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		switch {
		case err == nil:
			if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
				return nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec
}

var (
	h1Re      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	sectionRe = regexp.MustCompile(`(?m)^##\s+(.+)$`)
)

type example struct {
	desc string
	cmd  string
}

// page is what a tldr page needs from a command doc.
type page struct {
	cmd      string
	title    string
	summary  string
	examples []example
}

func parsePage(cmd, md string) page {
	p := page{cmd: cmd}
	if m := h1Re.FindStringSubmatch(md); m != nil {
		p.title = strings.TrimSpace(m[1])
	}
	p.summary = firstParagraph(section(md, "summary"))
	if p.summary == "" && p.title != "" {
		p.summary = p.title + "."
	}
	p.examples = parseExamples(section(md, "examples"))
	return p
}

// section returns the body of the first "## <name>" section, matched without
// regard to case.
func section(md, name string) string {
	locs := sectionRe.FindAllStringSubmatchIndex(md, -1)
	for i, loc := range locs {
		if !strings.EqualFold(strings.TrimSpace(md[loc[2]:loc[3]]), name) {
			continue
		}
		end := len(md)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		return md[loc[1]:end]
	}
	return ""
}

func firstParagraph(s string) string {
	var b strings.Builder
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if b.Len() > 0 {
				break
			}
			continue
		}
		b.WriteString(ln)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

// parseExamples reads the first fenced block of s. A "# text" line describes
// the command line that follows it.
func parseExamples(s string) []example {
	const fence = "```"
	start := strings.Index(s, fence)
	if start < 0 {
		return nil
	}
	rest := s[start+len(fence):]
	// Skip the info string.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return nil
	}

	var exs []example
	desc := ""
	for _, ln := range strings.Split(rest[:end], "\n") {
		ln = strings.TrimSpace(ln)
		switch {
		case ln == "":
		case strings.HasPrefix(ln, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(ln, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{desc: desc, cmd: strings.Join(strings.Fields(ln), " ")})
			desc = ""
		}
	}
	return exs
}

func (p page) tldr() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", binary, p.cmd)
	fmt.Fprintf(&b, "> %s\n", p.summary)
	b.WriteString("> More information: https://github.com/staranto/schedcache.\n\n")

	exs := p.examples
	if len(exs) == 0 {
		exs = []example{{desc: "Show help for the command", cmd: binary + " " + p.cmd + " --help"}}
	}
	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s:\n\n`%s`\n", ex.desc, ex.cmd)
	}
	return b.String()
}
