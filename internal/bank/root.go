// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bank

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/afero"
)

// ResolveCustomRoot picks the root of the custom tier. override wins only when
// it is an existing directory that is neither defaultRoot nor inside it;
// otherwise defaultRoot is used.
func ResolveCustomRoot(fs afero.Fs, defaultRoot, override string) string {
	if override == "" {
		return defaultRoot
	}

	fi, err := fs.Stat(override)
	if err != nil || !fi.IsDir() {
		log.Debugf("ignoring custom bank root %s: not a directory", override)
		return defaultRoot
	}

	_, onDisk := fs.(*afero.OsFs)
	def := canonical(defaultRoot, onDisk)
	over := canonical(override, onDisk)

	rel, err := filepath.Rel(def, over)
	if err == nil && (rel == "." || !escapes(rel)) {
		log.Debugf("ignoring custom bank root %s: inside %s", override, defaultRoot)
		return defaultRoot
	}

	return over
}

// escapes reports whether a filepath.Rel result leaves its base.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// canonical returns p as a clean absolute path. When p is on the real
// filesystem, symlinks in its longest existing prefix are resolved.
func canonical(p string, onDisk bool) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if !onDisk {
		return abs
	}

	var tail []string
	for cur := abs; ; {
		if _, err := os.Lstat(cur); err == nil {
			if resolved, err := filepath.EvalSymlinks(cur); err == nil {
				return filepath.Join(append([]string{resolved}, tail...)...)
			}
			return abs
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
