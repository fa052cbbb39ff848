// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bank

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

const (
	customDir  = "custom"
	builtInDir = "built-in"

	// compactStamp is the UTC suffix of compacted shard names. It sorts in
	// time order, so a later compaction also wins tick ties.
	compactStamp = "20060102T150405.000000000"
)

// ErrNoBank is returned when a namespace has neither custom shards nor a
// built-in file.
var ErrNoBank = errors.New("no bank files found")

// Store loads and caches banks. The zero value is not usable; use NewStore.
type Store struct {
	fs          afero.Fs
	defaultRoot string
	override    string
	now         func() time.Time

	mu     sync.Mutex
	banks  map[Location]*Bank
	states map[Location]State
	gen    uint64
	group  singleflight.Group
}

// Option customizes a Store.
type Option func(*Store)

// WithFs sets the backing filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithClock sets the clock used to name compacted shards.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCustomRoot sets a candidate root for the custom tier. It is only used
// when ResolveCustomRoot accepts it.
func WithCustomRoot(root string) Option {
	return func(s *Store) { s.override = root }
}

// NewStore returns a Store rooted at defaultRoot.
func NewStore(defaultRoot string, opts ...Option) *Store {
	s := &Store{
		fs:          afero.NewOsFs(),
		defaultRoot: defaultRoot,
		now:         time.Now,
		banks:       map[Location]*Bank{},
		states:      map[Location]State{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fs returns the backing filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// DefaultRoot returns the root of the built-in tier.
func (s *Store) DefaultRoot() string {
	return s.defaultRoot
}

// Get returns the bank for loc, loading it on first use. Concurrent callers
// for the same loc share a single load.
func (s *Store) Get(loc Location) (*Bank, error) {
	s.mu.Lock()
	if b, ok := s.banks[loc]; ok {
		s.mu.Unlock()
		return b, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(loc.String(), func() (any, error) {
		s.mu.Lock()
		if b, ok := s.banks[loc]; ok {
			s.mu.Unlock()
			return b, nil
		}
		gen := s.gen
		s.states[loc] = Loading
		s.mu.Unlock()

		b, err := s.load(loc)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.states[loc] = NotLoaded
			return nil, err
		}
		// An Invalidate raced with this load. Hand the result to the waiting
		// callers but don't keep it.
		if gen == s.gen {
			s.banks[loc] = b
			s.states[loc] = Loaded
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bank), nil
}

// Invalidate drops the cached bank for loc. The next Get reloads it.
func (s *Store) Invalidate(loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.banks, loc)
	s.states[loc] = NotLoaded
	s.gen++
	s.group.Forget(loc.String())
}

// Reload invalidates loc and loads it again.
func (s *Store) Reload(loc Location) (*Bank, error) {
	s.Invalidate(loc)
	return s.Get(loc)
}

// State reports the load state of loc.
func (s *Store) State(loc Location) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[loc]
}

// CustomRoot is the root the custom tier currently resolves to.
func (s *Store) CustomRoot() string {
	return ResolveCustomRoot(s.fs, s.defaultRoot, s.override)
}

// CustomDir is the directory holding the custom shards of family.
func (s *Store) CustomDir(family string) string {
	return filepath.Join(s.CustomRoot(), family, customDir)
}

// CustomShardPath is the default shard new cases of loc are written to.
func (s *Store) CustomShardPath(loc Location) string {
	return filepath.Join(s.CustomDir(loc.Family), loc.Namespace+Ext)
}

// BuiltInPath is the single built-in file of loc.
func (s *Store) BuiltInPath(loc Location) string {
	return filepath.Join(s.defaultRoot, loc.Family, builtInDir, loc.Namespace+Ext)
}

func (s *Store) load(loc Location) (*Bank, error) {
	if loc.Family == "" || loc.Namespace == "" {
		return nil, fmt.Errorf("incomplete location %q", loc)
	}

	b := newBank()
	found := false

	shards, err := s.listShards(loc)
	if err != nil {
		return nil, err
	}

	for _, p := range shards {
		entries, err := s.ReadShard(p)
		if err != nil {
			return nil, err
		}
		merge(b.Custom, entries)
		found = true
	}

	if len(shards) > 1 {
		if p, err := s.compact(loc, shards, b.Custom); err != nil {
			log.WithError(err).Warnf("failed to compact %d shards for %s", len(shards), loc)
		} else {
			log.Debugf("compacted %d shards for %s into %s", len(shards), loc, p)
		}
	}

	builtIn := s.BuiltInPath(loc)
	data, err := afero.ReadFile(s.fs, builtIn)
	switch {
	case err == nil:
		entries, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", builtIn, err)
		}
		b.BuiltIn = entries
		found = true
	case errors.Is(err, os.ErrNotExist):
		log.Debugf("no built-in bank at %s", builtIn)
	default:
		return nil, fmt.Errorf("failed to read built-in bank: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("%w for %s", ErrNoBank, loc)
	}

	log.WithFields(log.Fields{
		"location": loc.String(),
		"shards":   len(shards),
		"custom":   len(b.Custom),
		"builtin":  len(b.BuiltIn),
	}).Debug("bank loaded")

	return b, nil
}

// listShards returns the custom shard paths of loc in ascending name order.
func (s *Store) listShards(loc Location) ([]string, error) {
	dir := s.CustomDir(loc.Family)
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, fi := range infos {
		if fi.IsDir() || !isShard(fi.Name(), loc.Namespace) {
			continue
		}
		paths = append(paths, filepath.Join(dir, fi.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// isShard reports whether name is a custom shard of ns: either ns+Ext or ns
// followed by one of "_-." and ending in Ext.
func isShard(name, ns string) bool {
	if !strings.HasSuffix(name, Ext) || !strings.HasPrefix(name, ns) {
		return false
	}
	rest := name[len(ns):]
	if rest == Ext {
		return true
	}
	return len(rest) > len(Ext) && strings.ContainsRune("_-.", rune(rest[0]))
}

// merge folds src into dst. An entry replaces an existing one when its tick is
// not lower, so among equal ticks the shard read last wins.
func merge(dst, src map[string]Entry) {
	for fp, e := range src {
		if cur, ok := dst[fp]; ok && e.Tick < cur.Tick {
			continue
		}
		dst[fp] = e
	}
}

// compact writes entries to a fresh shard and removes shards. The new shard is
// in place before anything is removed.
func (s *Store) compact(loc Location, shards []string, entries map[string]Entry) (string, error) {
	data, err := Encode(entries)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s%s", loc.Namespace, s.now().UTC().Format(compactStamp), Ext)
	target := filepath.Join(s.CustomDir(loc.Family), name)
	if err := writeFileAtomic(s.fs, target, data); err != nil {
		return "", err
	}

	var errs []error
	for _, p := range shards {
		if p == target {
			continue
		}
		if err := s.fs.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return target, fmt.Errorf("failed to remove compacted shards: %w", err)
	}

	return target, nil
}

// Compact merges the custom shards of loc into one file now. It returns the
// new shard path, or "" when there was nothing to merge.
func (s *Store) Compact(loc Location) (string, error) {
	shards, err := s.listShards(loc)
	if err != nil {
		return "", err
	}
	if len(shards) < 2 { //nolint:mnd
		return "", nil
	}

	merged := map[string]Entry{}
	for _, p := range shards {
		entries, err := s.ReadShard(p)
		if err != nil {
			return "", err
		}
		merge(merged, entries)
	}

	return s.compact(loc, shards, merged)
}

// ShardInfo describes one custom shard file.
type ShardInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Shards lists the custom shards of loc in merge order.
func (s *Store) Shards(loc Location) ([]ShardInfo, error) {
	paths, err := s.listShards(loc)
	if err != nil {
		return nil, err
	}

	infos := make([]ShardInfo, 0, len(paths))
	for _, p := range paths {
		fi, err := s.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		infos = append(infos, ShardInfo{Path: p, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return infos, nil
}

// ReadShard decodes the bank file at path.
func (s *Store) ReadShard(path string) (map[string]Entry, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// InstallBuiltIn replaces the built-in file of loc with data after checking
// that it decodes. It returns the number of entries installed. The cached
// bank of loc is dropped.
func (s *Store) InstallBuiltIn(loc Location, data []byte) (int, error) {
	entries, err := Decode(data)
	if err != nil {
		return 0, err
	}
	if err := writeFileAtomic(s.fs, s.BuiltInPath(loc), data); err != nil {
		return 0, err
	}
	s.Invalidate(loc)
	return len(entries), nil
}

// WriteCase sets fp to e in the shard at path, creating the shard and its
// parent directories as needed. The read-modify-write is not locked, so
// concurrent writers to one shard can lose updates. Loaded banks are not
// touched.
func (s *Store) WriteCase(path, fp string, e Entry) error {
	entries := map[string]Entry{}

	data, err := afero.ReadFile(s.fs, path)
	switch {
	case err == nil:
		if entries, err = Decode(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	entries[fp] = e

	out, err := Encode(entries)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.fs, path, out)
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmp := f.Name()

	cleanup := func(err error) error {
		_ = f.Close()
		_ = fs.Remove(tmp)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return cleanup(fmt.Errorf("failed to write %s: %w", tmp, err))
	}
	if err := f.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync %s: %w", tmp, err))
	}
	if err := f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := fs.Chmod(tmp, 0o644); err != nil { //nolint:mnd
		log.WithError(err).Debugf("failed to chmod %s", tmp)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, path, err)
	}
	return nil
}
