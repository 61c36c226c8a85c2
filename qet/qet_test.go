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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/catalog/memcatalog"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/rowstore"
)

func newTestEnv() (*Env, *memcatalog.Index, *memcatalog.Vocabulary, *memcatalog.FullTextIndex) {
	ix := memcatalog.NewIndex()
	vocab := memcatalog.NewVocabulary()
	ft := memcatalog.NewFullTextIndex()
	env := &Env{Index: ix, Vocab: vocab, FullText: ft, TextLimit: 0}
	return env, ix, vocab, ft
}

func TestIndexScanComputeResult(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 100)
	ix.AddTriple(1, 10, 101)
	ix.AddTriple(1, 20, 200)

	scan := NewIndexScan(env, 1, nil, "s", "o")
	require.Equal(t, 2, scan.ResultWidth())
	require.Equal(t, 0, scan.ResultSortedOn())

	rt, err := scan.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{
		rowstore.NewRow(10, 100),
		rowstore.NewRow(10, 101),
		rowstore.NewRow(20, 200),
	}, rows)
}

func TestIndexScanFixedSubjectDropsColumn(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 100)
	fixed := idspace.Id(10)
	scan := NewIndexScan(env, 1, &fixed, "", "o")
	require.Equal(t, 1, scan.ResultWidth())

	rt, err := scan.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(100)}, rows)
}

func TestJoinSortMergeMatchesOnColumn(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 100)
	ix.AddTriple(1, 20, 200)
	ix.AddTriple(2, 100, 999)

	left := NewIndexScan(env, 1, nil, "s", "o")  // (s, o)
	right := NewIndexScan(env, 2, nil, "o", "x") // (o, x), joined on o == left's col1

	j := NewJoin(left, 1, right, 0)
	require.Equal(t, 3, j.ResultWidth()) // s, o, x

	rt, err := j.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(10, 100, 999)}, rows)
	require.Equal(t, 1, rt.SortedBy())
}

func TestSortOrdersAscendingOnColumn(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 20, 1)
	ix.AddTriple(1, 10, 2)

	scan := NewIndexScan(env, 1, nil, "s", "o")
	s := NewSort(scan, 0)
	rt, err := s.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(10, 2), rowstore.NewRow(20, 1)}, rows)
}

func TestNewSortSkipsRedundantSort(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 100)
	scan := NewIndexScan(env, 1, nil, "s", "o")
	wrapped := NewSort(scan, 0)
	require.Same(t, Operation(scan), wrapped, "already sorted on the requested column, no Sort wrapper needed")
}

func TestOrderByCostFormula(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	for i := 0; i < 8; i++ {
		ix.AddTriple(1, idspace.Id(i), idspace.Id(i))
	}
	scan := NewIndexScan(env, 1, nil, "s", "o")
	ob := NewOrderBy(scan, []OrderKey{{Column: 1, Descending: true}})
	require.Equal(t, SortedOnUnknown, ob.ResultSortedOn())

	// size=8 => floor(log2(8))=3 => cost = 8*3 + child_cost
	require.Equal(t, uint64(8*3)+scan.CostEstimate(), ob.CostEstimate())
}

type equalsPredicate struct {
	col int
	val idspace.Id
}

func (p equalsPredicate) Eval(row rowstore.Row) bool { return row[p.col] == p.val }
func (p equalsPredicate) String() string             { return "eq" }

func TestFilterPreservesOrderAndSortedness(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 1)
	ix.AddTriple(1, 20, 2)
	ix.AddTriple(1, 30, 3)

	scan := NewIndexScan(env, 1, nil, "s", "o")
	f := NewFilter(scan, equalsPredicate{col: 0, val: 20})
	rt, err := f.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(20, 2)}, rows)
	require.Equal(t, 0, rt.SortedBy())
}

func TestDistinctRemovesConsecutiveDuplicates(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 1)
	ix.AddTriple(1, 10, 2)
	ix.AddTriple(1, 20, 3)

	scan := NewIndexScan(env, 1, nil, "s", "o")
	d := NewDistinct(scan, []int{0})
	rt, err := d.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(10, 1), rowstore.NewRow(20, 3)}, rows)
}

func TestTextLeafOrdersByContext(t *testing.T) {
	env, _, vocab, ft := newTestEnv()
	vocab.PushBack("hello")
	id, ok := vocab.GetId("hello")
	require.True(t, ok)
	ft.AddPosting(id, catalog.Posting{Context: 5, Score: 2})
	ft.AddPosting(id, catalog.Posting{Context: 1, Score: 9})

	leaf := NewTextLeaf(env, "hello")
	rt, err := leaf.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{
		rowstore.NewRow(1, 9, 0),
		rowstore.NewRow(5, 2, 0),
	}, rows)
}

func TestTextOperationIntersectsAndAggregatesTopK(t *testing.T) {
	env, _, vocab, ft := newTestEnv()
	vocab.PushBack("quick")
	vocab.PushBack("fox")
	quick, _ := vocab.GetId("quick")
	fox, _ := vocab.GetId("fox")

	// entity 100, context 1: both words present -> should survive intersection
	ft.AddPosting(quick, catalog.Posting{Entity: 100, Context: 1, Score: 3})
	ft.AddPosting(fox, catalog.Posting{Entity: 100, Context: 1, Score: 4})
	// entity 100, context 2: only "quick" present -> filtered out by intersection
	ft.AddPosting(quick, catalog.Posting{Entity: 100, Context: 2, Score: 10})

	top := NewTextOperation(env, []string{"quick", "fox"})
	rt, err := top.ComputeResult(context.Background(), DirectExecutor{})
	require.NoError(t, err)
	rows, err := rt.Rows()
	require.NoError(t, err)
	require.Equal(t, []rowstore.Row{rowstore.NewRow(100, 1, 7)}, rows)
}

func TestJoinAsStringIsStable(t *testing.T) {
	env, ix, _, _ := newTestEnv()
	ix.AddTriple(1, 10, 100)
	ix.AddTriple(2, 100, 999)

	left := NewIndexScan(env, 1, nil, "s", "o")
	right := NewIndexScan(env, 2, nil, "o", "x")

	j1 := NewJoin(left, 1, right, 0)
	j2 := NewJoin(right, 0, left, 1)
	require.Equal(t, j1.AsString(), j1.AsString(), "as_string must be stable across calls")
	_ = j2 // the side-swapped join: its lcol/rcol params differ, so its key differs from j1's
}
