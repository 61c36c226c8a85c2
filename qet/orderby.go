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
	"strings"

	"github.com/Benkex/benqlever/rowstore"
)

// OrderKey is one (column, descending?) sort key.
type OrderKey struct {
	Column     int
	Descending bool
}

// OrderBy sorts its child's output by a list of (column, descending?) keys.
// result_sorted_on is always reported as unknown: multi-key ordering is not
// expressible by the single-column sort marker (spec.md §4.2, and the §9
// Open Question the planner resolves by special-casing single-ascending-key
// OrderBy during final ordering rather than having OrderBy itself lie about
// being "sorted").
type OrderBy struct {
	Child Operation
	Keys  []OrderKey
}

// NewOrderBy constructs an OrderBy operator.
func NewOrderBy(child Operation, keys []OrderKey) *OrderBy {
	return &OrderBy{Child: child, Keys: keys}
}

func (o *OrderBy) ResultWidth() int    { return o.Child.ResultWidth() }
func (o *OrderBy) ResultSortedOn() int { return SortedOnUnknown }

func (o *OrderBy) SizeEstimate() uint64 { return o.Child.SizeEstimate() }

// CostEstimate implements spec.md §8 scenario 4: for size s >= 2,
// cost = s*floor(log2(s)) + child_cost, with the log factor clamped to a
// minimum of 1.
func (o *OrderBy) CostEstimate() uint64 {
	n := o.SizeEstimate()
	factor := log2Floor(n)
	if factor < 1 {
		factor = 1
	}
	return n*uint64(factor) + o.Child.CostEstimate()
}

func (o *OrderBy) Multiplicity(col int) float64 { return o.Child.Multiplicity(col) }
func (o *OrderBy) KnownEmpty() bool             { return o.Child.KnownEmpty() }

func (o *OrderBy) AsString() string {
	parts := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		parts[i] = fmt.Sprintf("%d:%v", k.Column, k.Descending)
	}
	return key("OrderBy", strings.Join(parts, ","), o.Child.AsString())
}

func (o *OrderBy) SetTextLimit(k int)    { o.Child.SetTextLimit(k) }
func (o *OrderBy) Children() []Operation { return []Operation{o.Child} }

func (o *OrderBy) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
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
		for _, k := range o.Keys {
			a, b := sorted[i][k.Column], sorted[j][k.Column]
			if a == b {
				continue
			}
			if k.Descending {
				return a > b
			}
			return a < b
		}
		return false
	})

	rt := rowstore.NewResultTable(o.ResultWidth())
	for _, r := range sorted {
		if err := rt.AppendRow(r); err != nil {
			rt.Fail(err)
			return rt, err
		}
	}
	rt.Publish(SortedOnUnknown)
	return rt, nil
}
