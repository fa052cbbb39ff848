// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package bank

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRoot = "/banks"
	testNS   = "ascend910b_aicore_24_v1"
)

var testLoc = Location{Family: "ascend", Namespace: testNS}

func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)
}

func newTestStore(fs afero.Fs, opts ...Option) *Store {
	return NewStore(testRoot, append([]Option{WithFs(fs), WithClock(fixedClock)}, opts...)...)
}

func recipe(actions ...string) Recipe {
	r := Recipe{}
	for _, a := range actions {
		r = append(r, json.RawMessage(a))
	}
	return r
}

func writeBank(t *testing.T, fs afero.Fs, path string, entries map[string]Entry) {
	t.Helper()
	b, err := Encode(entries)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, b, 0o644))
}

func writeRaw(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func keys(m map[string]Entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func customPath(name string) string {
	return filepath.Join(testRoot, "ascend", "custom", name)
}

func builtInPath() string {
	return filepath.Join(testRoot, "ascend", "built-in", testNS+".json")
}

func dirNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	var names []string
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	return names
}

func TestStore_MergeByTick(t *testing.T) {
	tests := []struct {
		name      string
		firstTick int64
		lastTick  int64
		want      string
	}{
		{"later shard newer", 3, 7, `"late"`},
		{"earlier shard newer", 7, 3, `"early"`},
		{"tie goes to later shard", 5, 5, `"late"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeBank(t, fs, customPath(testNS+"_a.json"), map[string]Entry{
				"fp": {Recipe: recipe(`"early"`), Tick: tt.firstTick},
			})
			writeBank(t, fs, customPath(testNS+"_b.json"), map[string]Entry{
				"fp":    {Recipe: recipe(`"late"`), Tick: tt.lastTick},
				"other": {Recipe: recipe(), Tick: 1},
			})

			s := newTestStore(fs)
			b, err := s.Get(testLoc)
			require.NoError(t, err)

			assert.Equal(t, recipe(tt.want), b.Custom["fp"].Recipe)
			assert.Len(t, b.Custom, 2)

			names := dirNames(t, fs, filepath.Join(testRoot, "ascend", "custom"))
			assert.Equal(t, []string{testNS + "_20250102T030405.000000006.json"}, names)

			// The compacted shard holds the merged map.
			compacted, err := s.ReadShard(customPath(names[0]))
			require.NoError(t, err)
			assert.Equal(t, b.Custom, compacted)
		})
	}
}

func TestStore_SingleShardIsNotCompacted(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, customPath(testNS+".json"), map[string]Entry{"fp": {Tick: 1}})

	_, err := newTestStore(fs).Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, []string{testNS + ".json"}, dirNames(t, fs, filepath.Join(testRoot, "ascend", "custom")))
}

func TestStore_CompactionFailureIsIgnored(t *testing.T) {
	base := afero.NewMemMapFs()
	writeBank(t, base, customPath(testNS+"_a.json"), map[string]Entry{"fp": {Tick: 3}})
	writeBank(t, base, customPath(testNS+"_b.json"), map[string]Entry{"fp": {Tick: 7}})

	s := newTestStore(afero.NewReadOnlyFs(base))
	b, err := s.Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.Custom["fp"].Tick)
	assert.Len(t, dirNames(t, base, filepath.Join(testRoot, "ascend", "custom")), 2)
}

func TestStore_OtherNamespacesAreIgnored(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, customPath(testNS+".json"), map[string]Entry{"mine": {Tick: 1}})
	writeBank(t, fs, customPath("ascend910b_aicore_8_v1.json"), map[string]Entry{"theirs": {Tick: 1}})
	writeBank(t, fs, customPath(testNS+"x.json"), map[string]Entry{"lookalike": {Tick: 1}})

	b, err := newTestStore(fs).Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, keys(b.Custom))
}

func TestStore_TierContents(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, customPath(testNS+".json"), map[string]Entry{"fp": {Recipe: recipe(`"custom"`), Tick: 1}})
	writeBank(t, fs, builtInPath(), map[string]Entry{
		"fp":   {Recipe: recipe(`"builtin"`), Tick: 100},
		"only": {Recipe: recipe(`"builtin"`), Tick: 1},
	})

	b, err := newTestStore(fs).Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	e, tier, ok := b.Lookup("fp")
	require.True(t, ok)
	assert.Equal(t, TierCustom, tier)
	assert.Equal(t, recipe(`"custom"`), e.Recipe)

	_, tier, ok = b.Lookup("only")
	require.True(t, ok)
	assert.Equal(t, TierBuiltIn, tier)

	_, _, ok = b.Lookup("missing")
	assert.False(t, ok)
}

func TestStore_LoadErrors(t *testing.T) {
	t.Run("no bank", func(t *testing.T) {
		s := newTestStore(afero.NewMemMapFs())
		_, err := s.Get(testLoc)
		assert.ErrorIs(t, err, ErrNoBank)
		assert.Equal(t, NotLoaded, s.State(testLoc))
	})

	t.Run("malformed built-in", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeRaw(t, fs, builtInPath(), `{"fp": 3}`)
		_, err := newTestStore(fs).Get(testLoc)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("malformed shard", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeRaw(t, fs, customPath(testNS+".json"), `nope`)
		_, err := newTestStore(fs).Get(testLoc)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("whitespace built-in is an empty bank", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeRaw(t, fs, builtInPath(), "\n")
		b, err := newTestStore(fs).Get(testLoc)
		require.NoError(t, err)
		assert.Equal(t, 0, b.Len())
	})

	t.Run("incomplete location", func(t *testing.T) {
		_, err := newTestStore(afero.NewMemMapFs()).Get(Location{Namespace: testNS})
		assert.Error(t, err)
	})
}

func TestStore_CachesUntilInvalidated(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, builtInPath(), map[string]Entry{"a": {Tick: 1}})

	s := newTestStore(fs)
	assert.Equal(t, NotLoaded, s.State(testLoc))

	first, err := s.Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, Loaded, s.State(testLoc))

	writeBank(t, fs, builtInPath(), map[string]Entry{"a": {Tick: 1}, "b": {Tick: 2}})

	again, err := s.Get(testLoc)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, again.Len())

	reloaded, err := s.Reload(testLoc)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	s.Invalidate(testLoc)
	assert.Equal(t, NotLoaded, s.State(testLoc))
}

func TestStore_ConcurrentFirstUse(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, builtInPath(), map[string]Entry{"a": {Tick: 1}})
	s := newTestStore(fs)

	const n = 16
	banks := make([]*Bank, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := s.Get(testLoc)
			assert.NoError(t, err)
			banks[i] = b
		}(i)
	}
	wg.Wait()

	for _, b := range banks {
		assert.Same(t, banks[0], b)
	}
}

func TestStore_CustomRootOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/user", 0o755))
	writeBank(t, fs, "/user/ascend/custom/"+testNS+".json", map[string]Entry{"user": {Tick: 1}})
	writeBank(t, fs, customPath(testNS+".json"), map[string]Entry{"default": {Tick: 1}})
	writeBank(t, fs, builtInPath(), map[string]Entry{"shipped": {Tick: 1}})

	s := newTestStore(fs, WithCustomRoot("/user"))
	b, err := s.Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, keys(b.Custom))
	assert.Equal(t, []string{"shipped"}, keys(b.BuiltIn))
	assert.Equal(t, "/user/ascend/custom/"+testNS+".json", s.CustomShardPath(testLoc))
}

func TestStore_WriteCase(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestStore(fs)
	path := customPath(testNS + ".json")

	require.NoError(t, s.WriteCase(path, "fp", Entry{Recipe: recipe(`"one"`), Tick: 5}))
	require.NoError(t, s.WriteCase(path, "other", Entry{Tick: 1}))
	// Last write wins even with a lower tick.
	require.NoError(t, s.WriteCase(path, "fp", Entry{Recipe: recipe(`"two"`), Tick: 2}))

	got, err := s.ReadShard(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]Entry{
		"fp":    {Recipe: recipe(`"two"`), Tick: 2},
		"other": {Recipe: recipe(), Tick: 1},
	}, got)

	// No temp files are left behind.
	assert.Equal(t, []string{testNS + ".json"}, dirNames(t, fs, filepath.Dir(path)))
}

func TestStore_WriteCaseKeepsMalformedShard(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := customPath(testNS + ".json")
	writeRaw(t, fs, path, `[1,2]`)

	err := newTestStore(fs).WriteCase(path, "fp", Entry{Tick: 1})
	assert.ErrorIs(t, err, ErrMalformed)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))
}

func TestStore_WriteCaseDoesNotTouchLoadedBank(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBank(t, fs, builtInPath(), map[string]Entry{"a": {Tick: 1}})
	s := newTestStore(fs)

	b, err := s.Get(testLoc)
	require.NoError(t, err)
	require.NoError(t, s.WriteCase(s.CustomShardPath(testLoc), "new", Entry{Tick: 1}))

	_, _, ok := b.Lookup("new")
	assert.False(t, ok)
}

func TestStore_CompactAndShards(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestStore(fs)

	p, err := s.Compact(testLoc)
	require.NoError(t, err)
	assert.Equal(t, "", p)

	writeBank(t, fs, customPath(testNS+"-1.json"), map[string]Entry{"a": {Tick: 1}})
	writeBank(t, fs, customPath(testNS+"-2.json"), map[string]Entry{"b": {Tick: 1}})

	shards, err := s.Shards(testLoc)
	require.NoError(t, err)
	require.Len(t, shards, 2)
	assert.Equal(t, customPath(testNS+"-1.json"), shards[0].Path)
	assert.Positive(t, shards[0].Size)

	p, err = s.Compact(testLoc)
	require.NoError(t, err)
	assert.Equal(t, customPath(testNS+"_20250102T030405.000000006.json"), p)

	shards, err = s.Shards(testLoc)
	require.NoError(t, err)
	require.Len(t, shards, 1)

	entries, err := s.ReadShard(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys(entries))
}

func TestIsShard(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{testNS + ".json", true},
		{testNS + "_20250101.json", true},
		{testNS + "-tuned.json", true},
		{testNS + ".extra.json", true},
		{testNS + "x.json", false},
		{testNS + ".yaml", false},
		{testNS + "_.yaml", false},
		{"other_" + testNS + ".json", false},
		{".json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isShard(tt.name, testNS))
		})
	}
}

func TestStore_InstallBuiltIn(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestStore(fs)

	_, err := s.InstallBuiltIn(testLoc, []byte(`{"fp": 1}`))
	assert.ErrorIs(t, err, ErrMalformed)
	exists, err := afero.Exists(fs, builtInPath())
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := s.InstallBuiltIn(testLoc, []byte(`{"a":"[[],1]","b":"[[],2]"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := s.Get(testLoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys(b.BuiltIn))
}
