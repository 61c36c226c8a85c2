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

	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/rowstore"
)

// IndexScan is a leaf Operation delegating to catalog.Index to obtain a
// sorted posting list for one relation, optionally filtered to a fixed
// subject (spec.md §4.2). SubjectVar/ObjectVar name the free variable bound
// to that position, or are empty when the position is fixed and therefore
// not a result column.
type IndexScan struct {
	env *Env

	RelationId   catalog.RelationId
	FixedSubject *idspace.Id
	SubjectVar   string
	ObjectVar    string
}

// NewIndexScan constructs an IndexScan operator.
func NewIndexScan(env *Env, relationId catalog.RelationId, fixedSubject *idspace.Id, subjectVar, objectVar string) *IndexScan {
	return &IndexScan{env: env, RelationId: relationId, FixedSubject: fixedSubject, SubjectVar: subjectVar, ObjectVar: objectVar}
}

func (s *IndexScan) ResultWidth() int {
	w := 0
	if s.SubjectVar != "" {
		w++
	}
	if s.ObjectVar != "" {
		w++
	}
	return w
}

// ResultSortedOn is always column 0: the catalog guarantees postings sorted
// by (subject, object), and column 0 is whichever of those two remains a
// free variable (subject takes priority when both are free).
func (s *IndexScan) ResultSortedOn() int {
	if s.ResultWidth() == 0 {
		return SortedOnUnknown
	}
	return 0
}

func (s *IndexScan) SizeEstimate() uint64 {
	return s.env.Index.NofElements(s.RelationId)
}

func (s *IndexScan) CostEstimate() uint64 {
	return s.SizeEstimate()
}

func (s *IndexScan) Multiplicity(col int) float64 {
	if s.SubjectVar != "" && col == 0 {
		if s.env.Index.IsFunctional(s.RelationId) {
			return 1.0
		}
		n := s.SizeEstimate()
		if n == 0 {
			return 1.0
		}
		return 2.0
	}
	return 1.0
}

func (s *IndexScan) KnownEmpty() bool {
	return s.SizeEstimate() == 0
}

func (s *IndexScan) AsString() string {
	fixed := "nil"
	if s.FixedSubject != nil {
		fixed = fmt.Sprintf("%d", *s.FixedSubject)
	}
	return key("IndexScan", fmt.Sprintf("rel=%d,fixedLhs=%s,s=%s,o=%s", s.RelationId, fixed, s.SubjectVar, s.ObjectVar))
}

func (s *IndexScan) SetTextLimit(int) {}

func (s *IndexScan) Children() []Operation { return nil }

// ComputeResult implements Operation. IndexScan is a leaf, so exec is unused.
func (s *IndexScan) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	width := s.ResultWidth()
	rt := rowstore.NewResultTable(width)

	stream, err := s.env.Index.Scan(ctx, s.RelationId, s.FixedSubject)
	if err != nil {
		rt.Fail(err)
		return rt, err
	}
	defer stream.Close()

	hasSubj := s.SubjectVar != ""
	hasObj := s.ObjectVar != ""
	for {
		lhs, rhs, ok := stream.Next()
		if !ok {
			break
		}
		var row rowstore.Row
		switch {
		case hasSubj && hasObj:
			row = rowstore.NewRow(lhs, rhs)
		case hasSubj:
			row = rowstore.NewRow(lhs)
		case hasObj:
			row = rowstore.NewRow(rhs)
		default:
			row = rowstore.NewRow()
		}
		if err := rt.AppendRow(row); err != nil {
			rt.Fail(err)
			return rt, err
		}
	}
	rt.Publish(s.ResultSortedOn())
	return rt, nil
}
