// Copyright 2024 The Benqlever Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache implements the subtree result cache (spec.md §4.3, §5): a
// bounded LRU from a QET's canonical key to a shared, immutable
// rowstore.ResultTable, with single-flight semantics so concurrent queries
// referencing the same subtree never build it twice.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	goerrors "gopkg.in/src-d/go-errors.v1"
	"golang.org/x/sync/singleflight"

	"github.com/Benkex/benqlever/rowstore"
)

// ErrKeyNotFound is returned by Lookup when key has no entry.
var ErrKeyNotFound = goerrors.NewKind("cache: key not found: %s")

// ErrBuildFailed wraps a build_fn failure on the way back to every waiter.
var ErrBuildFailed = goerrors.NewKind("cache: build failed for key %s: %s")

// BuildFunc produces the Result Table for a cache miss. It must publish the
// table READY on success or FAILED on error before returning.
type BuildFunc func(ctx context.Context) (*rowstore.ResultTable, error)

// Stats reports cache activity for benchmark reporting.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Builds    uint64
}

// SubtreeCache is the bounded LRU described in spec.md §4.3. Capacity is a
// required constructor argument (the spec.md §9 Open Question is resolved in
// favor of runtime configuration over a compile-time constant).
type SubtreeCache struct {
	mu       sync.Mutex
	ready    *lru.Cache[string, *rowstore.ResultTable]
	sf       singleflight.Group
	inflight map[string]int // key -> number of GetOrBuild callers past a miss; bookkeeping only, not reported by Stats
	log      *logrus.Entry

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	builds    atomic.Uint64
}

// New constructs a SubtreeCache with the given entry capacity.
func New(capacity int, log *logrus.Entry) *SubtreeCache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &SubtreeCache{
		inflight: map[string]int{},
		log:      log.WithField("component", "subtree_cache"),
	}
	onEvict := func(key string, _ *rowstore.ResultTable) {
		c.evictions.Add(1)
		c.log.WithField("key", key).Debug("evicted subtree cache entry")
	}
	l, err := lru.NewWithEvict[string, *rowstore.ResultTable](capacity, onEvict)
	if err != nil {
		// capacity <= 0: fall back to a single-entry cache rather than panic,
		// matching the teacher's defensive construction in newLRUCache.
		l, _ = lru.New[string, *rowstore.ResultTable](1)
	}
	c.ready = l
	return c
}

// Lookup returns the cached Result Table for key, or ErrKeyNotFound.
func (c *SubtreeCache) Lookup(key string) (*rowstore.ResultTable, error) {
	c.mu.Lock()
	rt, ok := c.ready.Get(key)
	c.mu.Unlock()
	if !ok {
		c.misses.Add(1)
		return nil, ErrKeyNotFound.New(key)
	}
	c.hits.Add(1)
	return rt, nil
}

// GetOrBuild returns the cached table for key, building it via build with at
// most one concurrent builder per key. Concurrent callers for the same
// in-flight key block until the first builder's outcome (success or
// failure) is known; on success all waiters receive the same shared table;
// on failure all waiters receive the same error and nothing is cached.
func (c *SubtreeCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*rowstore.ResultTable, error) {
	if rt, err := c.Lookup(key); err == nil {
		return rt, nil
	}

	c.mu.Lock()
	c.inflight[key]++
	c.mu.Unlock()

	c.builds.Add(1)
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		rt, err := build(ctx)
		if err != nil {
			c.log.WithError(err).WithField("key", key).Warn("subtree build failed")
			return nil, ErrBuildFailed.New(key, err.Error())
		}
		if rt.Status() != rowstore.StatusReady {
			return nil, ErrBuildFailed.New(key, "build_fn returned a table that is not READY")
		}
		c.mu.Lock()
		c.ready.Add(key, rt)
		c.mu.Unlock()
		return rt, nil
	})

	c.mu.Lock()
	c.inflight[key]--
	if c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return v.(*rowstore.ResultTable), nil
}

// Clear removes all READY entries. In-flight builds are unaffected and
// remain pinned until their builders complete.
func (c *SubtreeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready.Purge()
}

// Len returns the number of READY entries currently cached.
func (c *SubtreeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready.Len()
}

// Stats reports cumulative cache activity.
func (c *SubtreeCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Builds:    c.builds.Load(),
	}
}
