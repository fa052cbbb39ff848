// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package bank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCustomRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, d := range []string{"/banks/nested", "/banks2", "/elsewhere"} {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}
	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0o644))

	tests := []struct {
		name     string
		override string
		want     string
	}{
		{"unset", "", "/banks"},
		{"missing", "/nowhere", "/banks"},
		{"a file", "/file", "/banks"},
		{"same as default", "/banks", "/banks"},
		{"same after cleaning", "/banks/nested/..", "/banks"},
		{"nested", "/banks/nested", "/banks"},
		{"sibling sharing a prefix", "/banks2", "/banks2"},
		{"elsewhere", "/elsewhere/", "/elsewhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCustomRoot(fs, "/banks", tt.override))
		})
	}
}

func TestResolveCustomRoot_SymlinkIntoDefault(t *testing.T) {
	tmp := t.TempDir()
	def := filepath.Join(tmp, "default")
	inside := filepath.Join(def, "user")
	require.NoError(t, os.MkdirAll(inside, 0o755))

	link := filepath.Join(tmp, "link")
	if err := os.Symlink(inside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	fs := afero.NewOsFs()
	assert.Equal(t, def, ResolveCustomRoot(fs, def, link))

	outside := filepath.Join(tmp, "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	want, err := filepath.EvalSymlinks(outside)
	require.NoError(t, err)
	assert.Equal(t, want, ResolveCustomRoot(fs, def, outside))
}
