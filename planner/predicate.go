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

package planner

import (
	"fmt"

	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/qet"
	"github.com/Benkex/benqlever/rowstore"
)

// boundValuePredicate restores a triple's bound object position after its
// column was surfaced only so the scan could check it: Index.Scan has no
// fixed-right-hand-side parameter, so a bound object is scanned as a free
// column and filtered back down to the single matching value here.
type boundValuePredicate struct {
	col int
	val idspace.Id
}

func (p boundValuePredicate) Eval(row rowstore.Row) bool { return row[p.col] == p.val }
func (p boundValuePredicate) String() string {
	return fmt.Sprintf("col%d=%d", p.col, p.val)
}

// FilterEvaluator evaluates a graph.Filter's opaque Expr against a row, given
// the variable-to-column mapping of the subtree the filter is being attached
// to. The planner's own logic never looks inside Expr; it only knows which
// variables a filter reads, which is enough to decide the earliest subtree a
// filter may legally attach to.
type FilterEvaluator func(expr interface{}, row rowstore.Row, vars map[string]int) bool

// filterPredicate adapts a graph.Filter plus a FilterEvaluator into a
// qet.Predicate bound to one particular plan's column layout.
type filterPredicate struct {
	expr interface{}
	desc string
	vars map[string]int
	eval FilterEvaluator
}

func (p filterPredicate) Eval(row rowstore.Row) bool { return p.eval(p.expr, row, p.vars) }
func (p filterPredicate) String() string              { return p.desc }

var _ qet.Predicate = filterPredicate{}
var _ qet.Predicate = boundValuePredicate{}
