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

	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/idspace"
	"github.com/Benkex/benqlever/rowstore"
)

// TextOperation performs (in order, per spec.md §4.6): a prefix-range
// lookup per word, a K-way intersection of the resulting postings on
// (context, entity), an optional join against an entity subtree, an
// aggregation per (entity, context) summing scores, and a keep-top-k-
// contexts-per-entity step. Ties in score are broken by smaller context id.
//
// When EntityChild is nil the output is (entity, context, score), width 3,
// sorted on entity. When EntityChild is present, its row is carried through
// alongside (context, score): width = EntityChild.ResultWidth() + 2, sorted
// on the column EntityChild's entity-bearing column ends up at.
type TextOperation struct {
	env *Env

	Words       []string
	EntityChild Operation
	EntityColumn int // column in EntityChild carrying the entity id
	k           int
}

// NewTextOperation constructs a pure text-leaf-free TextOperation (no entity
// subtree): output is (entity, context, score).
func NewTextOperation(env *Env, words []string) *TextOperation {
	return &TextOperation{env: env, Words: words}
}

// NewTextOperationWithEntities constructs a TextOperation joined against an
// entity-producing subtree.
func NewTextOperationWithEntities(env *Env, words []string, entityChild Operation, entityColumn int) *TextOperation {
	return &TextOperation{env: env, Words: words, EntityChild: NewSort(entityChild, entityColumn), EntityColumn: entityColumn}
}

func (t *TextOperation) ResultWidth() int {
	if t.EntityChild == nil {
		return 3
	}
	return t.EntityChild.ResultWidth() + 2
}

func (t *TextOperation) ResultSortedOn() int {
	if t.EntityChild == nil {
		return 0
	}
	return t.EntityColumn
}

func (t *TextOperation) SizeEstimate() uint64 {
	per := uint64(defaultTextLimit)
	if t.limit() > 0 {
		per = uint64(t.limit())
	}
	if t.EntityChild == nil {
		return per
	}
	if cs := t.EntityChild.SizeEstimate(); cs < per {
		return cs
	}
	return per
}

func (t *TextOperation) CostEstimate() uint64 {
	cost := t.SizeEstimate() * uint64(maxInt(1, len(t.Words)))
	if t.EntityChild != nil {
		cost += t.EntityChild.CostEstimate()
	}
	return cost
}

func (t *TextOperation) Multiplicity(int) float64 { return 1.0 }
func (t *TextOperation) KnownEmpty() bool          { return len(t.Words) == 0 }

func (t *TextOperation) AsString() string {
	words := append([]string(nil), t.Words...)
	sort.Strings(words)
	params := fmt.Sprintf("words=%s,k=%d,entityCol=%d", strings.Join(words, "+"), t.limit(), t.EntityColumn)
	if t.EntityChild == nil {
		return key("TextOperation", params)
	}
	return key("TextOperation", params, t.EntityChild.AsString())
}

func (t *TextOperation) SetTextLimit(k int) {
	t.k = k
	if t.EntityChild != nil {
		t.EntityChild.SetTextLimit(k)
	}
}

func (t *TextOperation) Children() []Operation {
	if t.EntityChild == nil {
		return nil
	}
	return []Operation{t.EntityChild}
}

func (t *TextOperation) limit() int {
	if t.k > 0 {
		return t.k
	}
	return t.env.TextLimit
}

type aggregatedPosting struct {
	entity, context idspace.Id
	score           idspace.Score
}

func (t *TextOperation) ComputeResult(ctx context.Context, exec Executor) (*rowstore.ResultTable, error) {
	rt := rowstore.NewResultTable(t.ResultWidth())

	if len(t.Words) == 0 {
		rt.Publish(t.ResultSortedOn())
		return rt, nil
	}

	perWord := make([]map[[2]idspace.Id]idspace.Score, len(t.Words))
	for i, word := range t.Words {
		r, ok := t.env.Vocab.GetRangeForPrefix(word)
		if !ok {
			rt.Publish(t.ResultSortedOn())
			return rt, nil
		}
		postings, err := t.env.FullText.PostingsForRange(r)
		if err != nil {
			rt.Fail(err)
			return rt, err
		}
		m := make(map[[2]idspace.Id]idspace.Score, len(postings))
		for _, p := range postings {
			m[[2]idspace.Id{p.Entity, p.Context}] += p.Score
		}
		perWord[i] = m
	}

	combined := intersectAndSum(perWord)

	var entitySet map[idspace.Id][]rowstore.Row
	if t.EntityChild != nil {
		childRT, err := exec.Execute(ctx, t.EntityChild)
		if err != nil {
			return nil, err
		}
		childRows, err := childRT.Rows()
		if err != nil {
			rt.Fail(err)
			return rt, err
		}
		entitySet = map[idspace.Id][]rowstore.Row{}
		for _, r := range childRows {
			entitySet[r[t.EntityColumn]] = append(entitySet[r[t.EntityColumn]], r)
		}
		filtered := combined[:0]
		for _, p := range combined {
			if _, ok := entitySet[p.entity]; ok {
				filtered = append(filtered, p)
			}
		}
		combined = filtered
	}

	topK := topKPerEntity(combined, t.limit())

	sort.SliceStable(topK, func(i, j int) bool { return topK[i].entity < topK[j].entity })

	for _, p := range topK {
		if t.EntityChild == nil {
			if err := rt.AppendRow(rowstore.NewRow(p.entity, p.context, p.score.AsId())); err != nil {
				rt.Fail(err)
				return rt, err
			}
			continue
		}
		for _, childRow := range entitySet[p.entity] {
			out := make(rowstore.Row, 0, len(childRow)+2)
			out = append(out, childRow...)
			out = append(out, p.context, p.score.AsId())
			if err := rt.AppendRow(out); err != nil {
				rt.Fail(err)
				return rt, err
			}
		}
	}
	rt.Publish(t.ResultSortedOn())
	return rt, nil
}

// intersectAndSum keeps only (entity, context) keys present in every word's
// posting map, summing their per-word scores.
func intersectAndSum(perWord []map[[2]idspace.Id]idspace.Score) []aggregatedPosting {
	if len(perWord) == 0 {
		return nil
	}
	base := perWord[0]
	var out []aggregatedPosting
	for k, score := range base {
		total := score
		ok := true
		for _, m := range perWord[1:] {
			s, present := m[k]
			if !present {
				ok = false
				break
			}
			total += s
		}
		if ok {
			out = append(out, aggregatedPosting{entity: k[0], context: k[1], score: total})
		}
	}
	return out
}

// topKPerEntity groups by entity and keeps the k highest-scoring contexts,
// ties broken by smaller context id (spec.md §4.6). k<=0 means unbounded.
func topKPerEntity(postings []aggregatedPosting, k int) []aggregatedPosting {
	byEntity := map[idspace.Id][]aggregatedPosting{}
	for _, p := range postings {
		byEntity[p.entity] = append(byEntity[p.entity], p)
	}
	var out []aggregatedPosting
	for _, group := range byEntity {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].score != group[j].score {
				return group[i].score > group[j].score
			}
			return group[i].context < group[j].context
		})
		if k > 0 && len(group) > k {
			group = group[:k]
		}
		out = append(out, group...)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
