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

// Package qet implements the Query Execution Tree: a composable tree of
// physical Operations, each able to compute a Result Table, report schema
// and cost statistics, and serialize to a canonical key (spec.md §4.2).
package qet

import (
	"github.com/Benkex/benqlever/catalog"
)

// Env is the non-owning back-reference every Operation holds to its
// Execution Context's catalog handles, per spec.md §9's "back-references
// from an operation to its execution context are non-owning and scoped to
// a query". It deliberately excludes the subtree cache: cache population is
// the Execution Context's job (see the execctx package), not an individual
// Operation's.
type Env struct {
	Index    catalog.Index
	Vocab    catalog.Vocabulary
	FullText catalog.FullTextIndex

	// TextLimit is the per-query top-k bound for text operators, propagated
	// down the tree by SetTextLimit.
	TextLimit int
}
