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
	"strings"
	"sync"

	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Status is the lifecycle state of a ResultTable.
type Status int

const (
	// StatusBuilding is the initial state; only the producing operation may
	// append rows.
	StatusBuilding Status = iota
	// StatusReady means rows and width are immutable and safe for concurrent
	// readers.
	StatusReady
	// StatusFailed means the producing operation could not finish; the table
	// is never cached and must not be read.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusBuilding:
		return "BUILDING"
	case StatusReady:
		return "READY"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// SortedOnUnknown is the sentinel sorted_by value meaning "no single column
// order is guaranteed".
const SortedOnUnknown = -1

// DebugRowLimit caps debug_string rendering, per spec.md's "at most the
// first 5 rows" invariant.
const DebugRowLimit = 5

var (
	// ErrNotReady is returned when a caller reads rows from a table that has
	// not reached StatusReady.
	ErrNotReady = goerrors.NewKind("result table is not ready: status=%s")
	// ErrWidthMismatch is returned by AppendRow when the row's width doesn't
	// match the table's nof_columns.
	ErrWidthMismatch = goerrors.NewKind("row width %d does not match nof_columns %d")
	// ErrNotBuilding is returned by AppendRow once the table has left
	// StatusBuilding.
	ErrNotBuilding = goerrors.NewKind("cannot append row: table status is %s, not BUILDING")
)

// ResultTable is the materialized output of a QET subtree: a column-oriented
// block of rows plus sort-order and lifecycle metadata. It is constructed
// empty, populated by exactly one producing operation while BUILDING, then
// published READY exactly once. Once READY it is immutable and may be shared
// (e.g. across the subtree cache) without further synchronization.
type ResultTable struct {
	mu         sync.RWMutex
	nofColumns int
	block      *rowBlock
	sortedBy   int
	status     Status
	failure    error
}

// NewResultTable constructs an empty, BUILDING table of the given width.
func NewResultTable(nofColumns int) *ResultTable {
	return &ResultTable{
		nofColumns: nofColumns,
		block:      newRowBlock(nofColumns),
		sortedBy:   SortedOnUnknown,
		status:     StatusBuilding,
	}
}

// NofColumns returns the table's fixed width.
func (rt *ResultTable) NofColumns() int {
	return rt.nofColumns
}

// Status returns the current lifecycle state.
func (rt *ResultTable) Status() Status {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.status
}

// Err returns the failure recorded by Fail, if any.
func (rt *ResultTable) Err() error {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.failure
}

// SortedBy returns the column the rows are non-decreasing on, or
// SortedOnUnknown.
func (rt *ResultTable) SortedBy() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.sortedBy
}

// Size returns the number of rows currently held. Valid at any status; a
// BUILDING table's size grows monotonically until Publish or Fail.
func (rt *ResultTable) Size() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.block.size()
}

// AppendRow adds row to the table. Legal only while BUILDING; the row's
// width must equal nof_columns.
func (rt *ResultTable) AppendRow(row Row) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.status != StatusBuilding {
		return ErrNotBuilding.New(rt.status)
	}
	if len(row) != rt.nofColumns {
		return ErrWidthMismatch.New(len(row), rt.nofColumns)
	}
	rt.block.append(row)
	return nil
}

// Publish transitions the table from BUILDING to READY, recording the
// column the rows ended up sorted on (SortedOnUnknown if none). After this
// call the table is immutable.
func (rt *ResultTable) Publish(sortedBy int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.sortedBy = sortedBy
	rt.status = StatusReady
}

// Fail transitions the table from BUILDING to FAILED, recording err. A
// FAILED table is never cached and yields ErrNotReady on any row read.
func (rt *ResultTable) Fail(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.failure = err
	rt.status = StatusFailed
}

// Rows returns every row in the table. Only legal once READY.
func (rt *ResultTable) Rows() ([]Row, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.status != StatusReady {
		return nil, ErrNotReady.New(rt.status)
	}
	n := rt.block.size()
	out := make([]Row, n)
	for i := 0; i < n; i++ {
		out[i] = rt.block.at(i)
	}
	return out, nil
}

// RowAt returns the row at index i. Only legal once READY.
func (rt *ResultTable) RowAt(i int) (Row, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.status != StatusReady {
		return nil, ErrNotReady.New(rt.status)
	}
	return rt.block.at(i), nil
}

// DebugString renders at most the first 5 rows, tab-separated, one per
// line, regardless of status (used for diagnostics while debugging a stuck
// BUILDING table as much as a finished one).
func (rt *ResultTable) DebugString() string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	var sb strings.Builder
	n := rt.block.size()
	if n > DebugRowLimit {
		n = DebugRowLimit
	}
	for i := 0; i < n; i++ {
		row := rt.block.at(i)
		parts := make([]string, len(row))
		for j, id := range row {
			parts[j] = fmt.Sprintf("%d", id)
		}
		sb.WriteString(strings.Join(parts, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DeepCopy clones the table's data block, independent of status. Used when a
// consumer needs an owned, mutable copy instead of sharing the cache's
// pointer.
func (rt *ResultTable) DeepCopy() *ResultTable {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return &ResultTable{
		nofColumns: rt.nofColumns,
		block:      rt.block.deepCopy(),
		sortedBy:   rt.sortedBy,
		status:     rt.status,
		failure:    rt.failure,
	}
}
