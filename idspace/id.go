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

// Package idspace defines the fixed-width identifier space that every
// query-visible value in benqlever is encoded in: vocabulary terms, contexts,
// full-text scores once embedded in a row, and the reserved sentinels used as
// map tombstones.
package idspace

import "math"

// Id is the fixed-width identifier every triple position, context, and score
// column is encoded as. The engine picks 64 bits and holds to it consistently
// across the width-specialized and variable-width row representations.
type Id uint64

// Score is a non-negative count emitted by the full-text index. It widens
// losslessly into an Id when a text operator embeds it in a result column.
type Score uint64

const (
	// EmptyId marks the absence of a value, e.g. an unresolved vocabulary term.
	EmptyId Id = 0
	// DeletedId is a tombstone usable as a map sentinel; never a valid term id.
	DeletedId Id = math.MaxUint64
)

// AsId widens a Score for embedding into a Row column.
func (s Score) AsId() Id { return Id(s) }

// IdRange is a closed interval [First, Last] over Id, returned by prefix and
// range lookups against the vocabulary or the full-text index.
type IdRange struct {
	First Id
	Last  Id
}

// Empty reports whether the range contains no ids, i.e. First > Last. The
// zero value {0, 0} is not empty: it covers id 0.
func (r IdRange) Empty() bool { return r.First > r.Last }

// Len returns the number of ids covered by the range, or 0 if empty.
func (r IdRange) Len() uint64 {
	if r.Empty() {
		return 0
	}
	return uint64(r.Last-r.First) + 1
}

// Contains reports whether id falls within the closed range.
func (r IdRange) Contains(id Id) bool {
	return !r.Empty() && id >= r.First && id <= r.Last
}
