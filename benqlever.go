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

// Package benqlever ties the Catalog, Planner, Execution Context, and
// Subtree Cache together into the single entry point a caller or the
// benchmark harness drives a query through, the way the teacher's Engine
// ties a Catalog and an Analyzer together behind one QueryWithBindings call.
package benqlever

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Benkex/benqlever/cache"
	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/config"
	"github.com/Benkex/benqlever/execctx"
	"github.com/Benkex/benqlever/graph"
	"github.com/Benkex/benqlever/planner"
	"github.com/Benkex/benqlever/qet"
	"github.com/Benkex/benqlever/rowstore"
)

// DefaultCacheCapacity is the Subtree Cache's entry count when a caller does
// not override it via Options.CacheCapacity.
const DefaultCacheCapacity = 10000

// Options configures a new Engine.
type Options struct {
	Index     catalog.Index
	Vocab     catalog.Vocabulary
	FullText  catalog.FullTextIndex
	TextLimit int

	Config config.Config
	Eval   planner.FilterEvaluator

	// CacheCapacity overrides DefaultCacheCapacity when positive.
	CacheCapacity int
	Log           *logrus.Entry
}

// Engine is the query-serving entry point: it owns the shared Subtree Cache
// and hands every query its own Execution Context over the same catalog.
type Engine struct {
	env    *qet.Env
	cache  *cache.SubtreeCache
	config config.Config
	eval   planner.FilterEvaluator
	log    *logrus.Entry
}

// New constructs an Engine bound to the given catalog handles.
func New(opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	return &Engine{
		env: &qet.Env{
			Index:     opts.Index,
			Vocab:     opts.Vocab,
			FullText:  opts.FullText,
			TextLimit: opts.TextLimit,
		},
		cache:  cache.New(capacity, log),
		config: cfg,
		eval:   opts.Eval,
		log:    log.WithField("component", "engine"),
	}
}

// Query plans and runs a basic graph pattern (plus any filters and an
// optional single-column ORDER BY), returning the resulting Result Table and
// the variable-to-column mapping needed to read it.
func (e *Engine) Query(ctx context.Context, triples []graph.Triple, filters []graph.Filter, orderBy *planner.OrderBy) (*rowstore.ResultTable, map[string]int, error) {
	g := graph.New(triples)
	p := planner.New(e.env, e.eval)
	op, vars, err := p.Plan(g, filters, orderBy)
	if err != nil {
		e.log.WithError(err).Warn("planning failed")
		return nil, nil, err
	}

	ec := execctx.New(e.env, e.cache, e.config, e.log)
	rt, err := ec.Run(ctx, op)
	if err != nil {
		return nil, nil, err
	}
	return rt, vars, nil
}

// CacheStats reports the shared Subtree Cache's cumulative activity, for the
// benchmark harness's print/write reports.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// ClearCache empties the shared Subtree Cache, e.g. between independent
// benchmark runs that must not see each other's cached subtrees.
func (e *Engine) ClearCache() { e.cache.Clear() }
