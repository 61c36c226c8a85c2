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

package qet

import (
	"context"

	"github.com/Benkex/benqlever/rowstore"
)

// SortedOnUnknown mirrors rowstore.SortedOnUnknown at the operator level.
const SortedOnUnknown = rowstore.SortedOnUnknown

// Executor resolves an Operation to its Result Table, consulting the
// subtree cache first (spec.md §4.3). Every operator with children calls
// back into Executor.Execute for each child instead of invoking the child's
// ComputeResult directly, so that every subtree — not only the query root —
// is independently cacheable across queries. The execctx package is the
// concrete implementation; qet only depends on this narrow interface to
// avoid an import cycle.
type Executor interface {
	Execute(ctx context.Context, op Operation) (*rowstore.ResultTable, error)
}

// Operation is the uniform polymorphic contract every QET node conforms to
// (spec.md §4.2's method table). A tree of Operations is an immutable value
// after construction: building a new plan means constructing new nodes, not
// mutating existing ones, so that a cache hit can safely re-use a subtree
// across queries (spec.md §9, "QET ownership").
type Operation interface {
	// ComputeResult populates and returns a fresh Result Table, resolving any
	// child subtrees via exec so they go through the subtree cache too. It
	// must never panic on empty input, and must call Publish with the
	// correct sorted-by column, or Fail with a structured error.
	ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error)

	// ResultWidth is a pure function of child widths and operator parameters.
	ResultWidth() int
	// ResultSortedOn is the column the output is non-decreasing on, or
	// SortedOnUnknown.
	ResultSortedOn() int
	// SizeEstimate is an upper-bounded heuristic, monotonic in child
	// estimates.
	SizeEstimate() uint64
	// CostEstimate is additive over the subtree plus this operator's own
	// cost.
	CostEstimate() uint64
	// Multiplicity estimates the average number of duplicate rows per
	// distinct value in column col.
	Multiplicity(col int) float64
	// KnownEmpty reports whether ComputeResult is statically known to
	// produce zero rows.
	KnownEmpty() bool
	// AsString is a stable, canonical textual key: two operations with the
	// same key must produce semantically identical results on the same
	// catalog (spec.md §9, "Canonical subtree key").
	AsString() string
	// SetTextLimit propagates the per-query text top-k bound to any
	// text-bearing descendant.
	SetTextLimit(k int)
	// Children returns this operation's direct child operations, in a
	// stable, deterministic order.
	Children() []Operation
}
