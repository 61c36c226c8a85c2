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

// defaultTextLimit caps a leaf's output when no per-query limit has been set
// via SetTextLimit.
const defaultTextLimit = 1000

// TextLeaf produces (context, score, entity) postings for a word* prefix via
// FullTextIndex, capped by the operation's text limit k (spec.md §4.2). K-way
// intersection across multiple words and top-k aggregation per entity are
// TextOperation's job, not the leaf's — TextLeaf is the single-word,
// no-intersection case the planner seeds directly when a text clique has
// exactly one word.
type TextLeaf struct {
	env  *Env
	Word string
	k    int
}

// NewTextLeaf constructs a TextLeaf operator.
func NewTextLeaf(env *Env, word string) *TextLeaf {
	return &TextLeaf{env: env, Word: word}
}

func (t *TextLeaf) ResultWidth() int    { return 3 }
func (t *TextLeaf) ResultSortedOn() int { return 0 }

func (t *TextLeaf) SizeEstimate() uint64 {
	if t.limit() > 0 {
		return uint64(t.limit())
	}
	return defaultTextLimit
}

func (t *TextLeaf) CostEstimate() uint64 { return t.SizeEstimate() }

func (t *TextLeaf) Multiplicity(int) float64 { return 1.0 }
func (t *TextLeaf) KnownEmpty() bool         { return t.Word == "" }

func (t *TextLeaf) AsString() string {
	return key("TextLeaf", fmt.Sprintf("word=%s,k=%d", t.Word, t.limit()))
}

func (t *TextLeaf) SetTextLimit(k int)    { t.k = k }
func (t *TextLeaf) Children() []Operation { return nil }

func (t *TextLeaf) limit() int {
	if t.k > 0 {
		return t.k
	}
	return t.env.TextLimit
}

func (t *TextLeaf) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	rt := rowstore.NewResultTable(t.ResultWidth())

	r, ok := t.env.Vocab.GetRangeForPrefix(t.Word)
	if !ok {
		rt.Publish(0)
		return rt, nil
	}
	postings, err := t.env.FullText.PostingsForRange(r)
	if err != nil {
		rt.Fail(err)
		return rt, err
	}

	if k := t.limit(); k > 0 && len(postings) > k {
		sort.SliceStable(postings, func(i, j int) bool {
			if postings[i].Score != postings[j].Score {
				return postings[i].Score > postings[j].Score
			}
			return postings[i].Context < postings[j].Context
		})
		postings = postings[:k]
	}

	sort.SliceStable(postings, func(i, j int) bool { return postings[i].Context < postings[j].Context })
	for _, p := range postings {
		if err := rt.AppendRow(rowstore.NewRow(p.Context, p.Score.AsId(), p.Entity)); err != nil {
			rt.Fail(err)
			return rt, err
		}
	}
	rt.Publish(0)
	return rt, nil
}
