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

	"github.com/Benkex/benqlever/rowstore"
)

// Join is a sort-merge join on one column from each child. Output width is
// w_left + w_right - 1 (the join column appears once, taking the left
// child's position); output is sorted on that column (spec.md §4.2).
type Join struct {
	Left, Right           Operation
	LeftColumn, RightColumn int
}

// NewJoin constructs a Join, wrapping either child in a Sort if it is not
// already sorted on its join column.
func NewJoin(left Operation, leftColumn int, right Operation, rightColumn int) *Join {
	return &Join{
		Left:        NewSort(left, leftColumn),
		LeftColumn:  leftColumn,
		Right:       NewSort(right, rightColumn),
		RightColumn: rightColumn,
	}
}

func (j *Join) ResultWidth() int {
	return j.Left.ResultWidth() + j.Right.ResultWidth() - 1
}

func (j *Join) ResultSortedOn() int { return j.LeftColumn }

func (j *Join) SizeEstimate() uint64 {
	sl, sr := j.Left.SizeEstimate(), j.Right.SizeEstimate()
	mult := j.Left.Multiplicity(j.LeftColumn)
	if mult < 1 {
		mult = 1
	}
	return uint64(float64(sl) * float64(sr) / mult)
}

func (j *Join) CostEstimate() uint64 {
	return j.Left.CostEstimate() + j.Right.CostEstimate() + j.Left.SizeEstimate() + j.Right.SizeEstimate() + j.SizeEstimate()
}

// Multiplicity maps col back to whichever child originally owned it: columns
// 0..w_left-1 belong to Left; the rest belong to Right, shifted past the
// dropped join column.
func (j *Join) Multiplicity(col int) float64 {
	wl := j.Left.ResultWidth()
	if col < wl {
		return j.Left.Multiplicity(col)
	}
	rc := col - wl
	if rc >= j.RightColumn {
		rc++
	}
	return j.Right.Multiplicity(rc)
}

func (j *Join) KnownEmpty() bool {
	return j.Left.KnownEmpty() || j.Right.KnownEmpty()
}

func (j *Join) AsString() string {
	params := fmt.Sprintf("lcol=%d,rcol=%d", j.LeftColumn, j.RightColumn)
	return commutativeKey("Join", params, j.Left.AsString(), j.Right.AsString())
}

func (j *Join) SetTextLimit(k int) {
	j.Left.SetTextLimit(k)
	j.Right.SetTextLimit(k)
}

func (j *Join) Children() []Operation { return []Operation{j.Left, j.Right} }

func (j *Join) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	leftRT, err := exec.Execute(ctx, j.Left)
	if err != nil {
		return nil, err
	}
	rightRT, err := exec.Execute(ctx, j.Right)
	if err != nil {
		return nil, err
	}

	leftRows, err := leftRT.Rows()
	if err != nil {
		rt := rowstore.NewResultTable(j.ResultWidth())
		rt.Fail(err)
		return rt, err
	}
	rightRows, err := rightRT.Rows()
	if err != nil {
		rt := rowstore.NewResultTable(j.ResultWidth())
		rt.Fail(err)
		return rt, err
	}

	rt := rowstore.NewResultTable(j.ResultWidth())
	i, k := 0, 0
	for i < len(leftRows) && k < len(rightRows) {
		lv := leftRows[i][j.LeftColumn]
		rv := rightRows[k][j.RightColumn]
		switch {
		case lv < rv:
			i++
		case lv > rv:
			k++
		default:
			// find the full runs of matching values on both sides (sort-merge
			// join must emit the cross-product of equal-key runs).
			iEnd := i
			for iEnd < len(leftRows) && leftRows[iEnd][j.LeftColumn] == lv {
				iEnd++
			}
			kEnd := k
			for kEnd < len(rightRows) && rightRows[kEnd][j.RightColumn] == rv {
				kEnd++
			}
			for a := i; a < iEnd; a++ {
				for b := k; b < kEnd; b++ {
					if err := rt.AppendRow(joinRows(leftRows[a], rightRows[b], j.RightColumn)); err != nil {
						rt.Fail(err)
						return rt, err
					}
				}
			}
			i, k = iEnd, kEnd
		}
	}
	rt.Publish(j.LeftColumn)
	return rt, nil
}

// joinRows concatenates left with right, dropping right's join column (which
// is already represented by left's join column).
func joinRows(left, right rowstore.Row, rightJoinCol int) rowstore.Row {
	out := make(rowstore.Row, 0, len(left)+len(right)-1)
	out = append(out, left...)
	for idx, v := range right {
		if idx == rightJoinCol {
			continue
		}
		out = append(out, v)
	}
	return out
}
