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

// Package rowstore holds the Row and ResultTable value types: ordered tuples
// of fixed-width identifiers, and the column-oriented block that a single
// operation materializes them into. Widths 1-5 are packed into a
// width-specialized representation; wider rows fall back to a variable-width
// one. The two are indistinguishable to callers, per the QLever design this
// package generalizes (see src/engine/ResultTable.cpp in the original_source
// retrieval pack).
package rowstore

import "github.com/Benkex/benqlever/idspace"

// Row is an ordered tuple of identifiers. It is the uniform external view of
// a tuple regardless of how the owning ResultTable packs it internally.
type Row []idspace.Id

// NewRow builds a Row from literal ids, mirroring the teacher's NewRow helper
// used pervasively across its row tests.
func NewRow(ids ...idspace.Id) Row {
	r := make(Row, len(ids))
	copy(r, ids)
	return r
}

// Equal compares two rows element-wise.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}
