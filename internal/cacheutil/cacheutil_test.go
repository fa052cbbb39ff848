// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/config"
)

func TestSettings_Enabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{" 0 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Settings{Cache: tt.value}.Enabled())
		})
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("SCHEDCACHE_BANK_PATH", "/home/me/banks")
	t.Setenv("SCHEDCACHE_CACHE", "false")
	t.Setenv("SCHEDCACHE_DEFAULT_ROOT", "/opt/banks")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, Settings{BankPath: "/home/me/banks", Cache: "false", DefaultRoot: "/opt/banks"}, s)
	assert.False(t, s.Enabled())
	assert.False(t, Enabled())
}

func TestSettings_Dir(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		dir, ok := Settings{DefaultRoot: "/opt/banks"}.Dir()
		assert.True(t, ok)
		assert.Equal(t, "/opt/banks", dir)
	})

	t.Run("config file", func(t *testing.T) {
		cfg, err := filepath.Abs(filepath.Join("testdata", "schedcache.yaml"))
		require.NoError(t, err)
		t.Setenv("SCHEDCACHE_CFG", cfg)
		_, err = config.Load()
		require.NoError(t, err)
		t.Cleanup(func() { config.Config = config.Type{} })

		dir, ok := Settings{}.Dir()
		assert.True(t, ok)
		assert.Equal(t, "/srv/schedcache/banks", dir)
	})

	t.Run("user cache dir", func(t *testing.T) {
		t.Setenv("SCHEDCACHE_CFG", "/nonexistent/schedcache.yaml")
		config.Config = config.Type{}
		t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
		t.Setenv("HOME", "/tmp/home")

		dir, ok := Settings{}.Dir()
		assert.True(t, ok)
		assert.Equal(t, "schedcache", filepath.Base(filepath.Dir(dir)))
		assert.Equal(t, "banks", filepath.Base(dir))
	})
}

func TestSettings_NewStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/me/banks", 0o755))

	s := Settings{BankPath: "/home/me/banks", DefaultRoot: "/opt/banks"}
	store, err := s.NewStore()
	require.NoError(t, err)
	assert.Equal(t, "/opt/banks", store.DefaultRoot())

	// The override needs the directory to exist on the store's filesystem.
	assert.Equal(t, "/opt/banks", store.CustomRoot())

	store, err = s.NewStore(bank.WithFs(fs))
	require.NoError(t, err)
	assert.Equal(t, "/home/me/banks", store.CustomRoot())
}

func TestSettings_EnsureBaseDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	dir, ok, err := Settings{DefaultRoot: "/opt/banks", Cache: "0"}.EnsureBaseDir(fs)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, dir)

	dir, ok, err = Settings{DefaultRoot: "/opt/banks"}.EnsureBaseDir(fs)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/opt/banks", dir)
	exists, err := afero.DirExists(fs, "/opt/banks")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/banks/ascend/custom"
	old := time.Now().Add(-48 * time.Hour)

	files := map[string]bool{
		".ns.json.tmp-123": true,  // stale temp file
		".ns.json.tmp-456": false, // fresh temp file
		"ns.json":          false, // shard
		".hidden":          false, // not ours
	}
	for name, stale := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, afero.WriteFile(fs, p, []byte("{}"), 0o644))
		if stale || name == "ns.json" || name == ".hidden" {
			require.NoError(t, fs.Chtimes(p, old, old))
		}
	}

	n, err := Sweep(fs, "/banks", 24)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for name, stale := range files {
		exists, err := afero.Exists(fs, filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, !stale, exists, name)
	}

	n, err = Sweep(fs, "/missing", 24)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = Sweep(fs, "/banks", 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
