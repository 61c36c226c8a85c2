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

// Package planner turns a Triple Graph and a list of filters into a single
// cost-minimal QET by dynamic programming over connected node subsets
// (spec.md §4.5).
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Benkex/benqlever/qet"
)

// Plan is a candidate partial plan during planning: an Operation together
// with the triple-graph node ids and filter indices it covers, and the
// column each covered variable ends up at in the Operation's output
// (spec.md §3, "Subtree Plan").
type Plan struct {
	Op      qet.Operation
	Nodes   map[int]bool
	Filters map[int]bool
	Vars    map[string]int
}

// nodeSetKey is the deterministic, sorted string form of a node-id set.
func nodeSetKey(nodes map[int]bool) string {
	ids := make([]int, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// sortedOnVar returns the variable name mapped to plan's result_sorted_on
// column, or "" if the column is unknown or unnamed.
func sortedOnVar(p *Plan) string {
	col := p.Op.ResultSortedOn()
	if col == qet.SortedOnUnknown {
		return ""
	}
	for v, c := range p.Vars {
		if c == col {
			return v
		}
	}
	return ""
}

// pruningKey is get_pruning_key(plan, sorted_on_col) from spec.md §4.5:
// plans with equal pruning keys are interchangeable for all future joins.
// It is expressed over the sorted-on *variable name* rather than the raw
// column index, since two plans covering the same node set may lay their
// columns out differently; the variable identity is what future joins
// actually key on.
func pruningKey(p *Plan) string {
	return nodeSetKey(p.Nodes) + "|" + sortedOnVar(p)
}

func unionNodes(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for id := range a {
		out[id] = true
	}
	for id := range b {
		out[id] = true
	}
	return out
}

func unionFilters(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for id := range a {
		out[id] = true
	}
	for id := range b {
		out[id] = true
	}
	return out
}

func disjoint(a, b map[int]bool) bool {
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for id := range small {
		if big[id] {
			return false
		}
	}
	return true
}
