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

// Package execctx implements the Execution Context (spec.md §2, §4.3): the
// per-query unit of state binding a QET to the catalog (via qet.Env) and to
// the shared Subtree Cache. It is the only thing in this module that knows
// how to turn an Operation into a Result Table through the cache.
package execctx

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Benkex/benqlever/cache"
	"github.com/Benkex/benqlever/config"
	"github.com/Benkex/benqlever/qet"
	"github.com/Benkex/benqlever/rowstore"
)

// ExecutionContext binds one query's QET evaluation to the shared catalog
// handles (via Env), the shared Subtree Cache, and the runtime tunables in
// Config. It satisfies qet.Executor so operators can resolve their children
// through it, making every subtree - not only the query root - independently
// cacheable (spec.md §4.3).
type ExecutionContext struct {
	Env    *qet.Env
	Cache  *cache.SubtreeCache
	Config config.Config
	Log    *logrus.Entry
}

// New constructs an ExecutionContext for a single query.
func New(env *qet.Env, c *cache.SubtreeCache, cfg config.Config, log *logrus.Entry) *ExecutionContext {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExecutionContext{Env: env, Cache: c, Config: cfg, Log: log.WithField("component", "execution_context")}
}

// Execute implements qet.Executor: it resolves op's canonical key against
// the Subtree Cache, building it via op.ComputeResult on a miss, with the
// cache's single-flight semantics deduplicating concurrent builds of the
// same subtree across queries.
func (ec *ExecutionContext) Execute(ctx context.Context, op qet.Operation) (*rowstore.ResultTable, error) {
	key := op.AsString()
	return ec.Cache.GetOrBuild(ctx, key, func(ctx context.Context) (*rowstore.ResultTable, error) {
		return op.ComputeResult(ctx, ec)
	})
}

// Run evaluates the root of a QET to completion, propagating the query's
// text limit to every text-bearing descendant first.
func (ec *ExecutionContext) Run(ctx context.Context, root qet.Operation) (*rowstore.ResultTable, error) {
	if ec.Env.TextLimit > 0 {
		root.SetTextLimit(ec.Env.TextLimit)
	}
	rt, err := ec.Execute(ctx, root)
	if err != nil {
		ec.Log.WithError(err).WithField("key", root.AsString()).Warn("query execution failed")
		return nil, err
	}
	return rt, nil
}
