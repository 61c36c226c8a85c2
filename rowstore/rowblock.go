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

package rowstore

import (
	"fmt"

	"github.com/Benkex/benqlever/idspace"
)

// blockKind tags which packed representation a rowBlock currently holds.
// The original engine dispatched on a sibling nof_columns integer and a
// void* whose pointee type had to match it by convention; here the tag and
// the storage live in the same value, so a width mismatch is unrepresentable
// rather than a latent memory-safety bug.
type blockKind int

const (
	blockWidth1 blockKind = iota + 1
	blockWidth2
	blockWidth3
	blockWidth4
	blockWidth5
	blockWidthVar
)

func blockKindFor(nofColumns int) blockKind {
	switch {
	case nofColumns == 1:
		return blockWidth1
	case nofColumns == 2:
		return blockWidth2
	case nofColumns == 3:
		return blockWidth3
	case nofColumns == 4:
		return blockWidth4
	case nofColumns == 5:
		return blockWidth5
	default:
		return blockWidthVar
	}
}

// rowBlock is the tagged-variant storage backing a ResultTable. Exactly one
// of the typed slices is populated, selected by kind; width mismatches are
// rejected at append time instead of being a dangling-pointer hazard.
type rowBlock struct {
	kind blockKind
	w1   [][1]idspace.Id
	w2   [][2]idspace.Id
	w3   [][3]idspace.Id
	w4   [][4]idspace.Id
	w5   [][5]idspace.Id
	varr []Row
}

func newRowBlock(nofColumns int) *rowBlock {
	return &rowBlock{kind: blockKindFor(nofColumns)}
}

func (b *rowBlock) size() int {
	switch b.kind {
	case blockWidth1:
		return len(b.w1)
	case blockWidth2:
		return len(b.w2)
	case blockWidth3:
		return len(b.w3)
	case blockWidth4:
		return len(b.w4)
	case blockWidth5:
		return len(b.w5)
	default:
		return len(b.varr)
	}
}

// append adds row to the block. Caller guarantees len(row) matches the
// width the block was constructed with.
func (b *rowBlock) append(row Row) {
	switch b.kind {
	case blockWidth1:
		b.w1 = append(b.w1, [1]idspace.Id{row[0]})
	case blockWidth2:
		b.w2 = append(b.w2, [2]idspace.Id{row[0], row[1]})
	case blockWidth3:
		b.w3 = append(b.w3, [3]idspace.Id{row[0], row[1], row[2]})
	case blockWidth4:
		b.w4 = append(b.w4, [4]idspace.Id{row[0], row[1], row[2], row[3]})
	case blockWidth5:
		b.w5 = append(b.w5, [5]idspace.Id{row[0], row[1], row[2], row[3], row[4]})
	default:
		cp := make(Row, len(row))
		copy(cp, row)
		b.varr = append(b.varr, cp)
	}
}

func (b *rowBlock) at(i int) Row {
	switch b.kind {
	case blockWidth1:
		return Row(b.w1[i][:])
	case blockWidth2:
		return Row(b.w2[i][:])
	case blockWidth3:
		return Row(b.w3[i][:])
	case blockWidth4:
		return Row(b.w4[i][:])
	case blockWidth5:
		return Row(b.w5[i][:])
	default:
		return b.varr[i]
	}
}

func (b *rowBlock) deepCopy() *rowBlock {
	cp := &rowBlock{kind: b.kind}
	switch b.kind {
	case blockWidth1:
		cp.w1 = append([][1]idspace.Id(nil), b.w1...)
	case blockWidth2:
		cp.w2 = append([][2]idspace.Id(nil), b.w2...)
	case blockWidth3:
		cp.w3 = append([][3]idspace.Id(nil), b.w3...)
	case blockWidth4:
		cp.w4 = append([][4]idspace.Id(nil), b.w4...)
	case blockWidth5:
		cp.w5 = append([][5]idspace.Id(nil), b.w5...)
	default:
		// Variable-width deep copy is legal here: the spec.md Open Question is
		// resolved in favor of treating it the same as the fixed-width case.
		cp.varr = make([]Row, len(b.varr))
		for i, r := range b.varr {
			cp.varr[i] = append(Row(nil), r...)
		}
	}
	return cp
}

func (b *rowBlock) String() string {
	return fmt.Sprintf("rowBlock{kind=%d, size=%d}", b.kind, b.size())
}
