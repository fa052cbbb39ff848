// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/config"
)

// Settings are the environment knobs of the schedule cache.
type Settings struct {
	// BankPath is the candidate root of the custom tier.
	BankPath string `env:"SCHEDCACHE_BANK_PATH"`
	// Cache disables every lookup when "0" or "false".
	Cache string `env:"SCHEDCACHE_CACHE"`
	// DefaultRoot overrides the default bank root.
	DefaultRoot string `env:"SCHEDCACHE_DEFAULT_ROOT"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return s, nil
}

// Enabled returns true unless Cache explicitly disables it ("0"/"false").
func (s Settings) Enabled() bool {
	v := strings.TrimSpace(s.Cache)
	return v == "" || (v != "0" && !strings.EqualFold(v, "false"))
}

// Enabled returns true unless SCHEDCACHE_CACHE explicitly disables it.
func Enabled() bool {
	s, err := LoadSettings()
	if err != nil {
		return true
	}
	return s.Enabled()
}

// Dir resolves the default bank root.
// Precedence:
//  1. SCHEDCACHE_DEFAULT_ROOT, if set and non-empty
//  2. bank.root in the config file
//  3. os.UserCacheDir()/schedcache/banks
//
// Returns ("", false) if a root cannot be resolved (treat as disabled).
func (s Settings) Dir() (string, bool) {
	if s.DefaultRoot != "" {
		return s.DefaultRoot, true
	}
	if r, err := config.GetString("bank.root"); err == nil && r != "" {
		return expandHome(r), true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "schedcache", "banks"), true
	}
	return "", false
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// EnsureBaseDir creates the default bank root if the cache is enabled and a
// root can be resolved. Returns the path, whether it is usable, and an error
// if creation failed.
func (s Settings) EnsureBaseDir(fs afero.Fs) (string, bool, error) {
	if !s.Enabled() {
		return "", false, nil
	}
	base, ok := s.Dir()
	if !ok {
		return "", false, nil
	}
	if err := fs.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create bank base directory: %w", err)
	}
	return base, true, nil
}

// NewStore builds a bank.Store from the settings. opts are applied after the
// settings so callers can override them.
func (s Settings) NewStore(opts ...bank.Option) (*bank.Store, error) {
	base, ok := s.Dir()
	if !ok {
		return nil, fmt.Errorf("no bank root: set SCHEDCACHE_DEFAULT_ROOT")
	}

	all := []bank.Option{bank.WithCustomRoot(s.BankPath)}
	return bank.NewStore(base, append(all, opts...)...), nil
}

// tempMarker is part of the name of every temp file the bank writes.
const tempMarker = ".tmp-"

// Sweep removes temp files older than the provided number of hours that an
// interrupted bank write left under dir. If hours <= 0 it is a no-op. It
// returns the number of files removed.
func Sweep(fs afero.Fs, dir string, hours int) (int, error) {
	if hours <= 0 {
		log.Debug("temp file sweeping disabled")
		return 0, nil
	}

	maxAge := time.Duration(hours) * time.Hour
	removed := 0
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, ".") || !strings.Contains(name, tempMarker) {
			return nil
		}
		if time.Since(info.ModTime()) <= maxAge {
			return nil
		}
		if err := fs.Remove(path); err == nil {
			log.Debugf("removed stale temp file %s", path)
			removed++
		} else {
			log.WithError(err).Warnf("failed to remove stale temp file %s", path)
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to sweep %s: %w", dir, err)
	}
	return removed, nil
}
