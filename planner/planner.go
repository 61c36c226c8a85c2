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
	"sort"
	"strings"

	goerrors "gopkg.in/src-d/go-errors.v1"

	"github.com/Benkex/benqlever/graph"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/qet"
)

// ErrNoPlan reports that the planner could not build a plan: the query graph
// is empty or disconnected (no connected sequence of joins covers every
// node), a filter or ORDER BY variable is not covered by the final plan, or
// filters were given without a FilterEvaluator (spec.md §4.5, §7). The
// argument describes which.
var ErrNoPlan = goerrors.NewKind("planner: no plan covers the query: %s")

// ErrVariablePredicate reports a triple whose predicate position is a
// variable; the Index abstraction this planner targets only resolves scans
// by a bound relation id (spec.md §6's relation-indexed packed index),
// so variable predicates are out of scope.
var ErrVariablePredicate = goerrors.NewKind("planner: variable predicates are not supported: %v")

// syntheticObjectVar names the scan column synthesized to carry a bound
// object position so it can be checked with a Filter (see boundValuePredicate).
const syntheticObjectVar = "__bound_object"

// LevelStats records one dynamic-programming level's pruning bookkeeping:
// how many candidate plans the level considered before the pruning bucket
// (keyed on covered-node-set plus sorted-on variable, cheapest wins ties)
// discarded the rest (spec.md §6's "deterministic tie-breaking diagnostics").
type LevelStats struct {
	Level      int `json:"level"`
	Candidates int `json:"candidates"`
	Kept       int `json:"kept"`
	Pruned     int `json:"pruned"`
}

// Planner builds a cost-minimal QET for a triple graph by dynamic
// programming over connected node subsets (spec.md §4.5).
type Planner struct {
	Env  *qet.Env
	Eval FilterEvaluator

	stats []LevelStats
}

// New constructs a Planner. eval may be nil if the query has no filters.
func New(env *qet.Env, eval FilterEvaluator) *Planner {
	return &Planner{Env: env, Eval: eval}
}

// Stats reports the most recent Plan call's per-level pruning bookkeeping,
// in level order. A Planner plans one query at a time, so a fresh Plan call
// replaces the prior call's stats.
func (p *Planner) Stats() []LevelStats { return p.stats }

// OrderBy describes the query's final single-column ORDER BY clause, if any.
type OrderBy struct {
	Column     string // variable name
	Descending bool
}

// Plan builds the cheapest QET covering every node of g and attaching every
// filter, optionally appended with a final sort on orderBy.Column.
func (p *Planner) Plan(g *graph.TripleGraph, filters []graph.Filter, orderBy *OrderBy) (qet.Operation, map[string]int, error) {
	p.stats = nil

	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil, ErrNoPlan.New("empty query graph")
	}

	if g.IsPureText() && len(nodes) == 1 {
		seed, err := p.seedForText(nodes[0])
		if err != nil {
			return nil, nil, err
		}
		p.stats = append(p.stats, LevelStats{Level: 1, Candidates: 1, Kept: 1, Pruned: 0})
		filtered, err := p.applyFilters(seed, filters)
		if err != nil {
			return nil, nil, err
		}
		if orderBy == nil {
			return filtered.Op, filtered.Vars, nil
		}
		return p.finishOrderBy(filtered, orderBy)
	}

	dp := make([]map[string]*Plan, len(nodes)+1)
	level1 := map[string]*Plan{}
	for _, nd := range nodes {
		seed, err := p.seed(nd)
		if err != nil {
			return nil, nil, err
		}
		k := pruningKey(seed)
		if existing, ok := level1[k]; !ok || seed.Op.CostEstimate() < existing.Op.CostEstimate() {
			level1[k] = seed
		}
	}
	dp[1] = level1
	p.stats = append(p.stats, LevelStats{
		Level:      1,
		Candidates: len(nodes),
		Kept:       len(level1),
		Pruned:     len(nodes) - len(level1),
	})

	for k := 2; k <= len(nodes); k++ {
		bucket := map[string]*Plan{}
		candidates := 0
		for a := 1; a < k; a++ {
			b := k - a
			for _, pa := range dp[a] {
				for _, pb := range dp[b] {
					if !disjoint(pa.Nodes, pb.Nodes) {
						continue
					}
					if !connectedAcross(g, pa.Nodes, pb.Nodes) {
						continue
					}
					sharedVar, ok := firstSharedVar(pa.Vars, pb.Vars)
					if !ok {
						continue
					}
					merged := joinPlans(pa, pb, sharedVar)
					candidates++
					key := pruningKey(merged)
					if existing, ok2 := bucket[key]; !ok2 || merged.Op.CostEstimate() < existing.Op.CostEstimate() {
						bucket[key] = merged
					}
				}
			}
		}
		dp[k] = bucket
		p.stats = append(p.stats, LevelStats{
			Level:      k,
			Candidates: candidates,
			Kept:       len(bucket),
			Pruned:     candidates - len(bucket),
		})
	}

	final := dp[len(nodes)]
	if len(final) == 0 {
		return nil, nil, ErrNoPlan.New(fmt.Sprintf("%d nodes, no connected join sequence covers all of them", len(nodes)))
	}

	best := cheapestOf(final, nil)
	filtered, err := p.applyFilters(best, filters)
	if err != nil {
		return nil, nil, err
	}
	if orderBy == nil {
		return filtered.Op, filtered.Vars, nil
	}

	// An already-ascending-sorted alternate plan covering every node may beat
	// cheapest-plan-plus-explicit-OrderBy (spec.md §4.5 step 5). Only
	// meaningful for ascending order: OrderBy's own contract always reports
	// ResultSortedOn as unknown, so a plan naturally sorted on the desired
	// column is the only way to skip the explicit sort.
	if !orderBy.Descending {
		if alt := cheapestOf(final, &orderBy.Column); alt != nil && alt != best {
			altFiltered, err := p.applyFilters(alt, filters)
			if err == nil && altFiltered.Op.CostEstimate() <= orderByTotalCost(filtered, orderBy) {
				return altFiltered.Op, altFiltered.Vars, nil
			}
		}
	}
	return p.finishOrderBy(filtered, orderBy)
}

func orderByTotalCost(plan *Plan, orderBy *OrderBy) uint64 {
	col, ok := plan.Vars[orderBy.Column]
	if !ok {
		return ^uint64(0)
	}
	if !orderBy.Descending && plan.Op.ResultSortedOn() == col {
		return plan.Op.CostEstimate()
	}
	return qet.NewOrderBy(plan.Op, []qet.OrderKey{{Column: col, Descending: orderBy.Descending}}).CostEstimate()
}

// applyFilters attaches every query filter to plan, in order, once its free
// variables are covered (spec.md §4.5 step 3).
func (p *Planner) applyFilters(plan *Plan, filters []graph.Filter) (*Plan, error) {
	for i, f := range filters {
		if !varsCovered(f.FreeVars, plan.Vars) {
			return nil, ErrNoPlan.New(fmt.Sprintf("filter %d references a variable outside the final plan", i))
		}
		if p.Eval == nil {
			return nil, ErrNoPlan.New("query has filters but no FilterEvaluator was configured")
		}
		pred := filterPredicate{expr: f.Expr, desc: filterDesc(f), vars: plan.Vars, eval: p.Eval}
		plan = &Plan{Op: qet.NewFilter(plan.Op, pred), Nodes: plan.Nodes, Filters: plan.Filters, Vars: plan.Vars}
	}
	return plan, nil
}

// finishOrderBy attaches the final ORDER BY, skipping the explicit Sort
// wrapper when plan is already sorted ascending on the requested column.
func (p *Planner) finishOrderBy(plan *Plan, orderBy *OrderBy) (qet.Operation, map[string]int, error) {
	col, ok := plan.Vars[orderBy.Column]
	if !ok {
		return nil, nil, ErrNoPlan.New(fmt.Sprintf("order-by variable %q is not in the final plan", orderBy.Column))
	}
	if !orderBy.Descending && plan.Op.ResultSortedOn() == col {
		return plan.Op, plan.Vars, nil
	}
	ob := qet.NewOrderBy(plan.Op, []qet.OrderKey{{Column: col, Descending: orderBy.Descending}})
	return ob, plan.Vars, nil
}

func filterDesc(f graph.Filter) string {
	names := make([]string, 0, len(f.FreeVars))
	for v := range f.FreeVars {
		names = append(names, v)
	}
	sort.Strings(names)
	return fmt.Sprintf("filter(%s){%v}", strings.Join(names, ","), f.Expr)
}

func varsCovered(need map[string]bool, have map[string]int) bool {
	for v := range need {
		if _, ok := have[v]; !ok {
			return false
		}
	}
	return true
}

// cheapestOf returns the lowest-cost plan in bucket, optionally restricted to
// plans whose sorted-on column maps to wantSortedVar (pass nil to consider
// every plan in the bucket).
func cheapestOf(bucket map[string]*Plan, wantSortedVar *string) *Plan {
	var best *Plan
	for _, p := range bucket {
		if wantSortedVar != nil && sortedOnVar(p) != *wantSortedVar {
			continue
		}
		if best == nil || p.Op.CostEstimate() < best.Op.CostEstimate() {
			best = p
		}
	}
	return best
}

// connectedAcross reports whether some node in a is adjacent (in g) to some
// node in b: the two sets, taken together, form a connected join candidate
// (spec.md §4.5 step 2).
func connectedAcross(g *graph.TripleGraph, a, b map[int]bool) bool {
	for id := range a {
		for _, nb := range g.Neighbors(id) {
			if b[nb] {
				return true
			}
		}
	}
	return false
}

// firstSharedVar returns the lexicographically first variable name present
// in both var maps, for a deterministic join-column choice.
func firstSharedVar(a, b map[string]int) (string, bool) {
	var names []string
	for v := range a {
		if _, ok := b[v]; ok {
			names = append(names, v)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

// joinPlans builds the Join plan combining pa and pb on sharedVar, remapping
// every other variable's column past the join (spec.md §4.2's Join column
// bookkeeping, mirrored here for planning purposes).
func joinPlans(pa, pb *Plan, sharedVar string) *Plan {
	leftCol := pa.Vars[sharedVar]
	rightCol := pb.Vars[sharedVar]
	op := qet.NewJoin(pa.Op, leftCol, pb.Op, rightCol)

	vars := make(map[string]int, len(pa.Vars)+len(pb.Vars))
	for v, c := range pa.Vars {
		vars[v] = c
	}
	leftWidth := pa.Op.ResultWidth()
	for v, c := range pb.Vars {
		if v == sharedVar {
			continue
		}
		newCol := leftWidth + c
		if c > rightCol {
			newCol--
		}
		vars[v] = newCol
	}

	return &Plan{
		Op:      op,
		Nodes:   unionNodes(pa.Nodes, pb.Nodes),
		Filters: unionFilters(pa.Filters, pb.Filters),
		Vars:    vars,
	}
}

// seed builds the dp[1] candidate plan for a single triple-graph node.
func (p *Planner) seed(nd *graph.Node) (*Plan, error) {
	if nd.IsTextClique {
		return p.seedForText(nd)
	}
	return p.seedForScan(nd)
}

// seedForText builds the dp[1] candidate for a text clique node. A
// single-word, unmerged clique needs no cross-word intersection, so it is
// seeded directly as a TextLeaf (context, score, entity); a multi-word
// clique needs TextOperation's k-way intersection and per-entity
// aggregation instead.
func (p *Planner) seedForText(nd *graph.Node) (*Plan, error) {
	words := strings.Fields(nd.WordPart)
	if len(words) == 1 && len(nd.SourceTriples) == 1 {
		leaf := qet.NewTextLeaf(p.Env, words[0])
		vars := map[string]int{}
		if nd.ContextVar != "" {
			vars[nd.ContextVar] = 0 // (context, score, entity): context is column 0
		}
		if sub := nd.SourceTriples[0].Subject; sub.IsVariable && sub.Var != "" {
			vars[sub.Var] = 2
		}
		return &Plan{Op: leaf, Nodes: map[int]bool{nd.Id: true}, Filters: map[int]bool{}, Vars: vars}, nil
	}

	op := qet.NewTextOperation(p.Env, words)
	vars := map[string]int{}
	if nd.ContextVar != "" {
		vars[nd.ContextVar] = 1 // (entity, context, score): context is column 1
	}
	return &Plan{Op: op, Nodes: map[int]bool{nd.Id: true}, Filters: map[int]bool{}, Vars: vars}, nil
}

func (p *Planner) seedForScan(nd *graph.Node) (*Plan, error) {
	if len(nd.SourceTriples) != 1 {
		return nil, ErrNoPlan.New(fmt.Sprintf("node %d: expected exactly one source triple, got %d", nd.Id, len(nd.SourceTriples)))
	}
	t := nd.SourceTriples[0]
	if t.Predicate.IsVariable {
		return nil, ErrVariablePredicate.New(t.Predicate.Var)
	}
	relation := t.Predicate.Bound

	subjectVar := ""
	var fixedSubject *idspace.Id
	if t.Subject.IsVariable {
		subjectVar = t.Subject.Var
	} else {
		v := t.Subject.Bound
		fixedSubject = &v
	}

	objectVar := ""
	needObjectFilter := false
	var fixedObject idspace.Id
	if t.Object.IsVariable {
		objectVar = t.Object.Var
	} else {
		objectVar = syntheticObjectVar
		needObjectFilter = true
		fixedObject = t.Object.Bound
	}

	scan := qet.NewIndexScan(p.Env, relation, fixedSubject, subjectVar, objectVar)

	vars := map[string]int{}
	col := 0
	if subjectVar != "" {
		vars[subjectVar] = col
		col++
	}
	if objectVar != "" && !needObjectFilter {
		vars[objectVar] = col
	}

	var op qet.Operation = scan
	if needObjectFilter {
		op = qet.NewFilter(scan, boundValuePredicate{col: col, val: fixedObject})
	}

	return &Plan{Op: op, Nodes: map[int]bool{nd.Id: true}, Filters: map[int]bool{}, Vars: vars}, nil
}
