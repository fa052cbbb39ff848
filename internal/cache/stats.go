// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "sync"

// Stats counts lookups since the Cache was created.
type Stats struct {
	Queries int64            `json:"queries"`
	Hits    map[string]int64 `json:"hits"`
	Misses  map[string]int64 `json:"misses"`
}

// HitCount is the number of hits across both tiers.
func (s Stats) HitCount() int64 {
	var n int64
	for _, v := range s.Hits {
		n += v
	}
	return n
}

type stats struct {
	mu     sync.Mutex
	counts Stats
}

func (s *stats) record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counts.Hits == nil {
		s.counts.Hits = map[string]int64{}
		s.counts.Misses = map[string]int64{}
	}

	s.counts.Queries++
	if r.Hit {
		s.counts.Hits[r.Tier.String()]++
	} else {
		s.counts.Misses[r.Reason.String()]++
	}
}

func (s *stats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		Queries: s.counts.Queries,
		Hits:    make(map[string]int64, len(s.counts.Hits)),
		Misses:  make(map[string]int64, len(s.counts.Misses)),
	}
	for k, v := range s.counts.Hits {
		out.Hits[k] = v
	}
	for k, v := range s.counts.Misses {
		out.Misses[k] = v
	}
	return out
}

// Stats returns a copy of the lookup counters.
func (c *Cache) Stats() Stats {
	return c.stats.snapshot()
}
