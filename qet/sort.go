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
	"fmt"
	"sort"

	"github.com/Benkex/benqlever/rowstore"
)

// Sort stably sorts its child's output ascending on a single column
// (spec.md §4.2).
type Sort struct {
	Child  Operation
	Column int
}

// NewSort constructs a Sort operator, or returns child unchanged if it is
// already sorted on column (callers should use this helper rather than the
// constructor directly so a redundant Sort is never inserted).
func NewSort(child Operation, column int) Operation {
	if child.ResultSortedOn() == column {
		return child
	}
	return &Sort{Child: child, Column: column}
}

func (o *Sort) ResultWidth() int    { return o.Child.ResultWidth() }
func (o *Sort) ResultSortedOn() int { return o.Column }

func (o *Sort) SizeEstimate() uint64 { return o.Child.SizeEstimate() }

func (o *Sort) CostEstimate() uint64 {
	n := o.SizeEstimate()
	factor := log2Floor(n)
	if factor < 1 {
		factor = 1
	}
	return n*uint64(factor) + o.Child.CostEstimate()
}

func (o *Sort) Multiplicity(col int) float64 { return o.Child.Multiplicity(col) }
func (o *Sort) KnownEmpty() bool             { return o.Child.KnownEmpty() }

func (o *Sort) AsString() string {
	return key("Sort", fmt.Sprintf("col=%d", o.Column), o.Child.AsString())
}

func (o *Sort) SetTextLimit(k int)   { o.Child.SetTextLimit(k) }
func (o *Sort) Children() []Operation { return []Operation{o.Child} }

func (o *Sort) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	childRT, err := exec.Execute(ctx, o.Child)
	if err != nil {
		return nil, err
	}
	rows, err := childRT.Rows()
	if err != nil {
		rt := rowstore.NewResultTable(o.ResultWidth())
		rt.Fail(err)
		return rt, err
	}

	sorted := append([]rowstore.Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][o.Column] < sorted[j][o.Column]
	})

	rt := rowstore.NewResultTable(o.ResultWidth())
	for _, r := range sorted {
		if err := rt.AppendRow(r); err != nil {
			rt.Fail(err)
			return rt, err
		}
	}
	rt.Publish(o.Column)
	return rt, nil
}

// log2Floor returns floor(log2(n)), or 0 for n <= 1.
func log2Floor(n uint64) int {
	if n < 2 {
		return 0
	}
	f := 0
	for n > 1 {
		n >>= 1
		f++
	}
	return f
}
