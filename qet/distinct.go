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
	"strings"

	"github.com/Benkex/benqlever/rowstore"
)

// Distinct removes consecutive duplicate rows, keyed on Columns. Its child
// must already be sorted on Columns (or a prefix of them) for this to
// actually deduplicate; the planner is responsible for that invariant
// (spec.md §4.2).
type Distinct struct {
	Child   Operation
	Columns []int
}

// NewDistinct constructs a Distinct operator.
func NewDistinct(child Operation, columns []int) *Distinct {
	return &Distinct{Child: child, Columns: columns}
}

func (d *Distinct) ResultWidth() int    { return d.Child.ResultWidth() }
func (d *Distinct) ResultSortedOn() int { return d.Child.ResultSortedOn() }

func (d *Distinct) SizeEstimate() uint64 {
	// Heuristic: assume the average multiplicity of the first distinct
	// column describes collapsing, bounded below by 1.
	if len(d.Columns) == 0 {
		return d.Child.SizeEstimate()
	}
	mult := d.Child.Multiplicity(d.Columns[0])
	if mult < 1 {
		mult = 1
	}
	return uint64(float64(d.Child.SizeEstimate()) / mult)
}

func (d *Distinct) CostEstimate() uint64 {
	return d.Child.CostEstimate() + d.Child.SizeEstimate()
}

func (d *Distinct) Multiplicity(col int) float64 {
	for _, c := range d.Columns {
		if c == col {
			return 1.0
		}
	}
	return d.Child.Multiplicity(col)
}

func (d *Distinct) KnownEmpty() bool { return d.Child.KnownEmpty() }

func (d *Distinct) AsString() string {
	parts := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return key("Distinct", strings.Join(parts, ","), d.Child.AsString())
}

func (d *Distinct) SetTextLimit(k int)    { d.Child.SetTextLimit(k) }
func (d *Distinct) Children() []Operation { return []Operation{d.Child} }

func (d *Distinct) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	childRT, err := exec.Execute(ctx, d.Child)
	if err != nil {
		return nil, err
	}
	rows, err := childRT.Rows()
	if err != nil {
		rt := rowstore.NewResultTable(d.ResultWidth())
		rt.Fail(err)
		return rt, err
	}

	rt := rowstore.NewResultTable(d.ResultWidth())
	var prev rowstore.Row
	for i, r := range rows {
		if i > 0 && sameKey(prev, r, d.Columns) {
			continue
		}
		if err := rt.AppendRow(r); err != nil {
			rt.Fail(err)
			return rt, err
		}
		prev = r
	}
	rt.Publish(childRT.SortedBy())
	return rt, nil
}

func sameKey(a, b rowstore.Row, columns []int) bool {
	if len(columns) == 0 {
		return a.Equal(b)
	}
	for _, c := range columns {
		if a[c] != b[c] {
			return false
		}
	}
	return true
}
