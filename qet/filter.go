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

// Predicate is a row-wise filter condition (variable comparisons, equality
// with constants). String must be stable and canonical: it feeds directly
// into Filter.AsString.
type Predicate interface {
	Eval(row rowstore.Row) bool
	String() string
}

// filterFanoutEstimate is the default selectivity heuristic used by
// SizeEstimate when a Predicate does not report a more precise one via
// SelectivityEstimator.
const filterFanoutEstimate = 3

// SelectivityEstimator is an optional Predicate extension letting a
// predicate report its own expected selectivity (1/fanout) for costing.
type SelectivityEstimator interface {
	Fanout() float64
}

// Filter applies Pred to every row of Child, row-wise, preserving input
// order (and therefore input sort order, since a subsequence of a sorted
// sequence is still sorted) (spec.md §4.2).
type Filter struct {
	Child Operation
	Pred  Predicate
}

// NewFilter constructs a Filter operator.
func NewFilter(child Operation, pred Predicate) *Filter {
	return &Filter{Child: child, Pred: pred}
}

func (f *Filter) ResultWidth() int    { return f.Child.ResultWidth() }
func (f *Filter) ResultSortedOn() int { return f.Child.ResultSortedOn() }

func (f *Filter) SizeEstimate() uint64 {
	fanout := float64(filterFanoutEstimate)
	if se, ok := f.Pred.(SelectivityEstimator); ok && se.Fanout() > 0 {
		fanout = se.Fanout()
	}
	size := uint64(float64(f.Child.SizeEstimate()) / fanout)
	if size == 0 && f.Child.SizeEstimate() > 0 {
		size = 1
	}
	return size
}

// CostEstimate is at least the child's size, per spec.md §4.2: a row-wise
// pass must at minimum touch every input row.
func (f *Filter) CostEstimate() uint64 {
	return f.Child.CostEstimate() + f.Child.SizeEstimate()
}

func (f *Filter) Multiplicity(col int) float64 { return f.Child.Multiplicity(col) }
func (f *Filter) KnownEmpty() bool             { return f.Child.KnownEmpty() }

func (f *Filter) AsString() string {
	return key("Filter", f.Pred.String(), f.Child.AsString())
}

func (f *Filter) SetTextLimit(k int)    { f.Child.SetTextLimit(k) }
func (f *Filter) Children() []Operation { return []Operation{f.Child} }

func (f *Filter) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	childRT, err := exec.Execute(ctx, f.Child)
	if err != nil {
		return nil, err
	}
	rows, err := childRT.Rows()
	if err != nil {
		rt := rowstore.NewResultTable(f.ResultWidth())
		rt.Fail(err)
		return rt, err
	}

	rt := rowstore.NewResultTable(f.ResultWidth())
	for _, r := range rows {
		if !f.Pred.Eval(r) {
			continue
		}
		if err := rt.AppendRow(r); err != nil {
			rt.Fail(err)
			return rt, err
		}
	}
	rt.Publish(childRT.SortedBy())
	return rt, nil
}
