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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/catalog/memcatalog"
	"github.com/Benkex/benqlever/graph"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/qet"
	"github.com/Benkex/benqlever/rowstore"
)

const (
	relKnows idspace.Id = 1
	relAge   idspace.Id = 2
)

func newEnv() (*qet.Env, *memcatalog.Index) {
	ix := memcatalog.NewIndex()
	env := &qet.Env{Index: ix, Vocab: memcatalog.NewVocabulary(), FullText: memcatalog.NewFullTextIndex()}
	return env, ix
}

func run(t *testing.T, op qet.Operation) []rowstore.Row {
	t.Helper()
	rt, err := op.ComputeResult(context.Background(), qet.DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	return rows
}

func TestPlanTwoTripleJoin(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relKnows, 10, 100)
	ix.AddTriple(relKnows, 20, 200)
	ix.AddTriple(relAge, 100, 30)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
		{Subject: graph.VarTerm("o"), Predicate: graph.BoundTerm(relAge), Object: graph.VarTerm("a")},
	}
	g := graph.New(triples)

	p := New(env, nil)
	op, vars, err := p.Plan(g, nil, nil)
	require.NoError(t, err)
	require.Contains(t, vars, "s")
	require.Contains(t, vars, "o")
	require.Contains(t, vars, "a")

	rows := run(t, op)
	require.Equal(t, 1, len(rows))
	require.Equal(t, idspace.Id(10), rows[0][vars["s"]])
	require.Equal(t, idspace.Id(100), rows[0][vars["o"]])
	require.Equal(t, idspace.Id(30), rows[0][vars["a"]])
}

func TestPlanBoundObjectAppliesFilter(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relAge, 10, 30)
	ix.AddTriple(relAge, 20, 99)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relAge), Object: graph.BoundTerm(30)},
	}
	g := graph.New(triples)

	p := New(env, nil)
	op, vars, err := p.Plan(g, nil, nil)
	require.NoError(t, err)

	rows := run(t, op)
	// The bound object position is surfaced as an extra column (no Project
	// operator exists to drop it) but is no longer a query variable: only
	// "s" is registered in vars.
	require.Equal(t, []rowstore.Row{rowstore.NewRow(10, 30)}, rows)
	require.Equal(t, 0, vars["s"])
}

func TestPlanVariablePredicateRejected(t *testing.T) {
	env, _ := newEnv()
	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.VarTerm("p"), Object: graph.VarTerm("o")},
	}
	g := graph.New(triples)

	p := New(env, nil)
	_, _, err := p.Plan(g, nil, nil)
	require.Error(t, err)
}

func TestPlanDisconnectedGraphFails(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relKnows, 10, 100)
	ix.AddTriple(relAge, 999, 30)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
		{Subject: graph.VarTerm("x"), Predicate: graph.BoundTerm(relAge), Object: graph.VarTerm("y")},
	}
	g := graph.New(triples)

	p := New(env, nil)
	_, _, err := p.Plan(g, nil, nil)
	require.Error(t, err)
}

func TestPlanWithFilter(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relKnows, 10, 100)
	ix.AddTriple(relKnows, 20, 200)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
	}
	g := graph.New(triples)

	evalGreaterThan := func(expr interface{}, row rowstore.Row, vars map[string]int) bool {
		return row[vars["s"]] > expr.(idspace.Id)
	}
	p := New(env, evalGreaterThan)
	filters := []graph.Filter{{FreeVars: map[string]bool{"s": true}, Expr: idspace.Id(15)}}

	op, vars, err := p.Plan(g, filters, nil)
	require.NoError(t, err)
	rows := run(t, op)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(20, 200)}, rows)
	require.Equal(t, 0, vars["s"])
}

func TestPlanOrderBySkipsSortWhenAlreadySorted(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relKnows, 10, 100)
	ix.AddTriple(relKnows, 20, 200)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
	}
	g := graph.New(triples)

	p := New(env, nil)
	op, _, err := p.Plan(g, nil, &OrderBy{Column: "s"})
	require.NoError(t, err)
	// Already sorted on "s" (column 0): planner should not wrap an OrderBy.
	_, isOrderBy := op.(*qet.OrderBy)
	require.False(t, isOrderBy)
}

func TestPlanOrderByWrapsWhenNotSorted(t *testing.T) {
	env, ix := newEnv()
	ix.AddTriple(relKnows, 10, 200)
	ix.AddTriple(relKnows, 20, 100)

	triples := []graph.Triple{
		{Subject: graph.VarTerm("s"), Predicate: graph.BoundTerm(relKnows), Object: graph.VarTerm("o")},
	}
	g := graph.New(triples)

	p := New(env, nil)
	op, vars, err := p.Plan(g, nil, &OrderBy{Column: "o"})
	require.NoError(t, err)
	rows := run(t, op)
	require.Equal(t, idspace.Id(100), rows[0][vars["o"]])
	require.Equal(t, idspace.Id(200), rows[1][vars["o"]])
}

func TestPlanPureTextShortcut(t *testing.T) {
	env, _ := newEnv()
	vocab := env.Vocab.(*memcatalog.Vocabulary)
	vocab.PushBack("hello")
	id, ok := vocab.GetId("hello")
	require.True(t, ok)
	ft := env.FullText.(*memcatalog.FullTextIndex)
	ft.AddPosting(id, catalog.Posting{Entity: 1, Context: 5, Score: 2})

	triples := []graph.Triple{
		{ContextVar: "c", WordPart: "hello"},
	}
	g := graph.New(triples)
	require.True(t, g.IsPureText())

	p := New(env, nil)
	op, vars, err := p.Plan(g, nil, nil)
	require.NoError(t, err)
	require.Contains(t, vars, "c")
	_, isLeaf := op.(*qet.TextLeaf)
	require.True(t, isLeaf, "a single unmerged word should seed a TextLeaf, not a TextOperation")
}

func TestPlanSingleWordTextSeedsLeafAndExposesEntity(t *testing.T) {
	env, _ := newEnv()
	vocab := env.Vocab.(*memcatalog.Vocabulary)
	vocab.PushBack("hello")
	id, ok := vocab.GetId("hello")
	require.True(t, ok)
	ft := env.FullText.(*memcatalog.FullTextIndex)
	ft.AddPosting(id, catalog.Posting{Entity: 1, Context: 5, Score: 2})

	triples := []graph.Triple{
		{Subject: graph.VarTerm("p"), ContextVar: "c", WordPart: "hello"},
	}
	g := graph.New(triples)

	p := New(env, nil)
	op, vars, err := p.Plan(g, nil, nil)
	require.NoError(t, err)
	require.Contains(t, vars, "c")
	require.Contains(t, vars, "p")

	rows := run(t, op)
	require.Len(t, rows, 1)
	require.Equal(t, idspace.Id(5), rows[0][vars["c"]])
	require.Equal(t, idspace.Id(1), rows[0][vars["p"]])
}
