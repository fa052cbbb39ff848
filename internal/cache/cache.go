// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/apex/log"

	"github.com/staranto/schedcache/internal/bank"
	"github.com/staranto/schedcache/internal/fingerprint"
	"github.com/staranto/schedcache/internal/graph"
	"github.com/staranto/schedcache/internal/target"
)

// ErrNotCacheable is returned by AddCase when the graph has no fingerprint.
var ErrNotCacheable = errors.New("graph is not cacheable")

// MissReason says why a lookup did not produce a schedule.
type MissReason int

const (
	MissNone MissReason = iota
	MissDisabled
	MissTarget
	MissLoad
	MissNotCacheable
	MissNotFound
	MissReplay
	MissPanic
)

var missReasonNames = map[MissReason]string{
	MissNone:         "none",
	MissDisabled:     "disabled",
	MissTarget:       "target",
	MissLoad:         "load",
	MissNotCacheable: "not-cacheable",
	MissNotFound:     "not-found",
	MissReplay:       "replay",
	MissPanic:        "panic",
}

func (r MissReason) String() string {
	if s, ok := missReasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("miss(%d)", int(r))
}

// Result is the full outcome of a lookup.
type Result struct {
	Hit         bool
	Reason      MissReason
	Namespace   string
	Fingerprint string
	Tier        bank.Tier
	Entry       bank.Entry
	Schedule    Schedule
}

func miss(reason MissReason) Result {
	return Result{Reason: reason}
}

// Cache answers lookups against a Store for the target its Provider reports.
type Cache struct {
	store    *bank.Store
	targets  target.Provider
	replayer Replayer
	resolver fingerprint.Resolver

	// enabled is the environment switch; disabled is set by a load failure.
	enabled  bool
	disabled atomic.Bool

	stats stats
}

// Option customizes a Cache.
type Option func(*Cache)

// WithResolver sets the fingerprint resolver, eg. to supply a custom walker.
func WithResolver(r fingerprint.Resolver) Option {
	return func(c *Cache) { c.resolver = r }
}

// WithEnabled turns the whole cache on or off. A disabled cache answers every
// query with a miss and never touches storage.
func WithEnabled(enabled bool) Option {
	return func(c *Cache) { c.enabled = enabled }
}

// New returns a Cache. replayer may be nil, in which case DryRun is used.
func New(store *bank.Store, targets target.Provider, replayer Replayer, opts ...Option) *Cache {
	if replayer == nil {
		replayer = DryRun{}
	}
	c := &Cache{
		store:    store,
		targets:  targets,
		replayer: replayer,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether lookups are currently attempted.
func (c *Cache) Enabled() bool {
	return c.enabled && !c.disabled.Load()
}

// Query looks up the graph behind outputs and replays the stored recipe. order
// is an optional precomputed topological order. Query never panics and never
// fails; any problem is a miss.
func (c *Cache) Query(outputs []graph.Node, order []graph.Node) (Schedule, bool) {
	r := c.Lookup(outputs, order)
	return r.Schedule, r.Hit
}

// Lookup is Query with the full Result.
func (c *Cache) Lookup(outputs []graph.Node, order []graph.Node) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", fmt.Sprint(rec)).Warn("schedule lookup panicked")
			res = miss(MissPanic)
		}
		c.stats.record(res)
		if !res.Hit {
			log.WithField("reason", res.Reason.String()).Debug("schedule cache miss")
		}
	}()

	if !c.Enabled() {
		return miss(MissDisabled)
	}

	loc, err := c.location()
	if err != nil {
		log.WithError(err).Debug("no target for lookup")
		return miss(MissTarget)
	}

	b, err := c.store.Get(loc)
	if err != nil {
		c.disabled.Store(true)
		log.WithError(err).Warnf("schedule bank for %s failed to load, cache disabled", loc)
		return miss(MissLoad)
	}

	res = Result{Namespace: loc.Namespace}

	res.Fingerprint = c.resolver.Resolve(outputs, order)
	if res.Fingerprint == "" {
		res.Reason = MissNotCacheable
		return res
	}

	e, tier, ok := b.Lookup(res.Fingerprint)
	if !ok {
		res.Reason = MissNotFound
		return res
	}
	res.Tier = tier
	res.Entry = e

	s, err := c.replay(outputs, e.Recipe)
	if err != nil {
		log.WithError(err).WithField("fingerprint", fingerprint.Short(res.Fingerprint)).Debug("recipe replay failed")
		res.Reason = MissReplay
		return res
	}

	res.Hit = true
	res.Schedule = s
	log.WithFields(log.Fields{
		"fingerprint": fingerprint.Short(res.Fingerprint),
		"tier":        tier.String(),
		"tick":        e.Tick,
	}).Debug("schedule cache hit")
	return res
}

// replay runs the replayer, turning a panic into an error.
func (c *Cache) replay(outputs []graph.Node, recipe bank.Recipe) (s Schedule, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("replayer panicked: %v", rec)
		}
	}()
	return c.replayer.Replay(outputs, recipe)
}

// AddCase records recipe for the graph behind outputs in the shard at path.
// An empty path means the default custom shard of the current namespace. The
// loaded bank is not updated; call UpdateBank to see the new case.
func (c *Cache) AddCase(outputs []graph.Node, recipe bank.Recipe, tick int64, path string) error {
	fp := c.resolver.Resolve(outputs, nil)
	if fp == "" {
		return ErrNotCacheable
	}

	if path == "" {
		loc, err := c.location()
		if err != nil {
			return err
		}
		path = c.store.CustomShardPath(loc)
	}

	if err := c.store.WriteCase(path, fp, bank.Entry{Recipe: recipe, Tick: tick}); err != nil {
		return fmt.Errorf("failed to add case: %w", err)
	}

	log.WithFields(log.Fields{
		"fingerprint": fingerprint.Short(fp),
		"tick":        tick,
		"shard":       path,
	}).Debug("case added")
	return nil
}

// UpdateBank reloads the bank of the current namespace and reports whether it
// holds any entry. A successful reload lifts a disable caused by an earlier
// load failure; a failed one sets it.
func (c *Cache) UpdateBank() (bool, error) {
	loc, err := c.location()
	if err != nil {
		return false, err
	}

	b, err := c.store.Reload(loc)
	if err != nil {
		c.disabled.Store(true)
		return false, fmt.Errorf("failed to reload bank: %w", err)
	}

	c.disabled.Store(false)
	return b.Len() > 0, nil
}

// Bank returns the loaded bank of the current namespace, loading it if needed.
func (c *Cache) Bank() (*bank.Bank, bank.Location, error) {
	loc, err := c.location()
	if err != nil {
		return nil, loc, err
	}
	b, err := c.store.Get(loc)
	return b, loc, err
}

func (c *Cache) location() (bank.Location, error) {
	d, ns, err := target.Resolve(c.targets)
	if err != nil {
		return bank.Location{}, err
	}
	return bank.Location{Family: d.Family, Namespace: ns}, nil
}
