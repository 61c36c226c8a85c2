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

// Package benchrun builds the in-memory catalog fixture and fixed operator
// battery the qetbench command runs and reports on (spec.md §6).
package benchrun

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Benkex/benqlever/cache"
	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/catalog/memcatalog"
	"github.com/Benkex/benqlever/config"
	"github.com/Benkex/benqlever/execctx"
	"github.com/Benkex/benqlever/graph"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/planner"
	"github.com/Benkex/benqlever/qet"
)

// Result is one operator's benchmark outcome, the element type of a qetbench
// JSON report.
type Result struct {
	Name          string        `json:"name"`
	Wall          time.Duration `json:"wall_ns"`
	EstimatedCost uint64        `json:"estimated_cost"`
	RowCount      int           `json:"row_count"`
}

// Options configures a benchmark run.
type Options struct {
	Config        config.Config
	CacheCapacity int
	Log           *logrus.Entry
}

// PlanDiagnostics reports the planner's chosen plan for the battery's
// representative join query, plus its deterministic tie-breaking bookkeeping.
type PlanDiagnostics struct {
	ChosenPlan    string               `json:"chosen_plan"`
	EstimatedCost uint64               `json:"estimated_cost"`
	Levels        []planner.LevelStats `json:"levels"`
}

// Report is one qetbench run's full output: the fixed operator battery's
// timings plus the planner's diagnostics for a representative join query.
type Report struct {
	Results []Result        `json:"results"`
	Plan    PlanDiagnostics `json:"plan"`
}

const (
	relKnows catalog.RelationId = 1
	relAge   catalog.RelationId = 2
)

// fixture builds a small synthetic catalog big enough to exercise every
// operator's cost formula without the benchmark run itself taking long.
func fixture() (*qet.Env, *memcatalog.Vocabulary, *memcatalog.FullTextIndex) {
	ix := memcatalog.NewIndex()
	for i := 0; i < 2000; i++ {
		ix.AddTriple(relKnows, idOf(i), idOf(i+1))
	}
	for i := 0; i < 2000; i++ {
		ix.AddTriple(relAge, idOf(i+1), idOf(i%100))
	}

	vocab := memcatalog.NewVocabulary("quick", "fox", "jumps")
	ft := memcatalog.NewFullTextIndex()
	quick, _ := vocab.GetId("quick")
	fox, _ := vocab.GetId("fox")
	for i := 0; i < 500; i++ {
		ft.AddPosting(quick, catalog.Posting{Entity: idOf(i), Context: idOf(i), Score: 1})
		ft.AddPosting(fox, catalog.Posting{Entity: idOf(i), Context: idOf(i), Score: 2})
	}

	env := &qet.Env{Index: ix, Vocab: vocab, FullText: ft, TextLimit: 100}
	return env, vocab, ft
}

func idOf(i int) idspace.Id { return idspace.Id(i) }

// Run executes the fixed operator battery and plans the battery's
// representative two-triple join query, returning both as one Report.
func Run(opts Options) (Report, error) {
	env, _, _ := fixture()

	capacity := opts.CacheCapacity
	if capacity <= 0 {
		capacity = 1000
	}
	c := cache.New(capacity, opts.Log)
	ec := execctx.New(env, c, opts.Config, opts.Log)

	left := qet.NewIndexScan(env, relKnows, nil, "s", "o")
	right := qet.NewIndexScan(env, relAge, nil, "o", "a")
	join := qet.NewJoin(left, 1, right, 0)
	orderBy := qet.NewOrderBy(join, []qet.OrderKey{{Column: 2}})
	textOp := qet.NewTextOperation(env, []string{"quick", "fox"})

	suite := []struct {
		name string
		op   qet.Operation
	}{
		{"IndexScan", left},
		{"Join", join},
		{"OrderBy", orderBy},
		{"TextOperation", textOp},
	}

	results := make([]Result, 0, len(suite))
	for _, s := range suite {
		start := time.Now()
		rt, err := ec.Run(context.Background(), s.op)
		elapsed := time.Since(start)
		if err != nil {
			return Report{}, err
		}
		rows, err := rt.Rows()
		if err != nil {
			return Report{}, err
		}
		results = append(results, Result{
			Name:          s.name,
			Wall:          elapsed,
			EstimatedCost: s.op.CostEstimate(),
			RowCount:      len(rows),
		})
	}

	diag, err := planQuery(env)
	if err != nil {
		return Report{}, err
	}
	return Report{Results: results, Plan: diag}, nil
}

// planQuery drives the planner over the battery's representative query
// (the same two-relation join the suite times directly above, this time
// planned rather than hand-built), returning its chosen plan and pruning
// bookkeeping.
func planQuery(env *qet.Env) (PlanDiagnostics, error) {
	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
		{Subject: graph.VarTerm("o"), Predicate: graph.BoundTerm(relAge), Object: graph.VarTerm("a")},
	}
	g := graph.New(triples)

	pl := planner.New(env, nil)
	op, _, err := pl.Plan(g, nil, nil)
	if err != nil {
		return PlanDiagnostics{}, err
	}

	return PlanDiagnostics{
		ChosenPlan:    op.AsString(),
		EstimatedCost: op.CostEstimate(),
		Levels:        pl.Stats(),
	}, nil
}
