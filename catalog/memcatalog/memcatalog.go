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

// Package memcatalog is an in-memory catalog.Index / catalog.Vocabulary /
// catalog.FullTextIndex, analogous in spirit to the teacher's memory package
// (an in-memory sql.Database/Table pair used to exercise the engine in
// tests without a real storage backend). It is test and benchmark
// scaffolding, not a production index.
package memcatalog

import (
	"context"
	"sort"
	"strings"

	"github.com/Benkex/benqlever/catalog"
	"github.com/Benkex/benqlever/idspace"
)

type posting struct {
	lhs, rhs idspace.Id
}

// Relation is one predicate's sorted (subject, object) postings.
type Relation struct {
	Postings    []posting
	Functional  bool
	HasBlocks   bool
}

// Index is an in-memory catalog.Index.
type Index struct {
	relations map[idspace.Id]*Relation
}

// NewIndex builds an empty in-memory index.
func NewIndex() *Index {
	return &Index{relations: map[idspace.Id]*Relation{}}
}

// AddTriple inserts (lhs, rhs) into relationId's posting list, keeping it
// sorted by (lhs, rhs) the way the real on-disk relation storage requires.
func (ix *Index) AddTriple(relationId, lhs, rhs idspace.Id) {
	rel, ok := ix.relations[relationId]
	if !ok {
		rel = &Relation{Functional: true, HasBlocks: true}
		ix.relations[relationId] = rel
	}
	rel.Postings = append(rel.Postings, posting{lhs, rhs})
	sort.Slice(rel.Postings, func(i, j int) bool {
		if rel.Postings[i].lhs != rel.Postings[j].lhs {
			return rel.Postings[i].lhs < rel.Postings[j].lhs
		}
		return rel.Postings[i].rhs < rel.Postings[j].rhs
	})
	seen := map[idspace.Id]int{}
	rel.Functional = true
	for _, p := range rel.Postings {
		seen[p.lhs]++
		if seen[p.lhs] > 1 {
			rel.Functional = false
		}
	}
}

type stream struct {
	postings []posting
	i        int
}

func (s *stream) Next() (idspace.Id, idspace.Id, bool) {
	if s.i >= len(s.postings) {
		return 0, 0, false
	}
	p := s.postings[s.i]
	s.i++
	return p.lhs, p.rhs, true
}

func (s *stream) Close() error { return nil }

// Scan implements catalog.Index.
func (ix *Index) Scan(_ context.Context, relationId idspace.Id, fixedLhs *idspace.Id) (catalog.PostingStream, error) {
	rel, ok := ix.relations[relationId]
	if !ok {
		return &stream{}, nil
	}
	if fixedLhs == nil {
		return &stream{postings: rel.Postings}, nil
	}
	lo := sort.Search(len(rel.Postings), func(i int) bool { return rel.Postings[i].lhs >= *fixedLhs })
	hi := sort.Search(len(rel.Postings), func(i int) bool { return rel.Postings[i].lhs > *fixedLhs })
	return &stream{postings: rel.Postings[lo:hi]}, nil
}

// NofElements implements catalog.Index.
func (ix *Index) NofElements(relationId idspace.Id) uint64 {
	rel, ok := ix.relations[relationId]
	if !ok {
		return 0
	}
	return uint64(len(rel.Postings))
}

// IsFunctional implements catalog.Index.
func (ix *Index) IsFunctional(relationId idspace.Id) bool {
	rel, ok := ix.relations[relationId]
	return ok && rel.Functional
}

// HasBlocks implements catalog.Index.
func (ix *Index) HasBlocks(relationId idspace.Id) bool {
	rel, ok := ix.relations[relationId]
	return ok && rel.HasBlocks
}

// Vocabulary is an in-memory, sorted catalog.Vocabulary.
type Vocabulary struct {
	terms []string // index i == id i, kept sorted lexicographically
}

// NewVocabulary builds a vocabulary from terms, sorting and deduplicating
// them the way the on-disk vocabulary is built once at index time.
func NewVocabulary(terms ...string) *Vocabulary {
	cp := append([]string(nil), terms...)
	sort.Strings(cp)
	out := cp[:0]
	for i, t := range cp {
		if i == 0 || t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return &Vocabulary{terms: out}
}

// PushBack appends a new term, preserving sortedness; used to exercise
// persistence round-trips (spec.md §8 scenario 3).
func (v *Vocabulary) PushBack(term string) {
	i := sort.SearchStrings(v.terms, term)
	if i < len(v.terms) && v.terms[i] == term {
		return
	}
	v.terms = append(v.terms, "")
	copy(v.terms[i+1:], v.terms[i:])
	v.terms[i] = term
}

// Size returns the number of distinct terms.
func (v *Vocabulary) Size() int { return len(v.terms) }

// GetId implements catalog.Vocabulary.
func (v *Vocabulary) GetId(term string) (idspace.Id, bool) {
	i := sort.SearchStrings(v.terms, term)
	if i < len(v.terms) && v.terms[i] == term {
		return idspace.Id(i), true
	}
	return 0, false
}

// GetRangeForPrefix implements catalog.Vocabulary.
func (v *Vocabulary) GetRangeForPrefix(prefix string) (idspace.IdRange, bool) {
	lo := sort.Search(len(v.terms), func(i int) bool { return v.terms[i] >= prefix })
	hi := sort.Search(len(v.terms), func(i int) bool { return !strings.HasPrefix(v.terms[i], prefix) && v.terms[i] >= prefix })
	if lo >= len(v.terms) || lo >= hi || !strings.HasPrefix(v.terms[lo], prefix) {
		return idspace.IdRange{}, false
	}
	return idspace.IdRange{First: idspace.Id(lo), Last: idspace.Id(hi - 1)}, true
}

// Terms returns the sorted term list, mostly for persistence round-trips.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// FullTextIndex is an in-memory catalog.FullTextIndex.
type FullTextIndex struct {
	byWord map[idspace.Id][]catalog.Posting
}

// NewFullTextIndex builds an empty full-text posting store.
func NewFullTextIndex() *FullTextIndex {
	return &FullTextIndex{byWord: map[idspace.Id][]catalog.Posting{}}
}

// AddPosting registers a posting for the given word id.
func (f *FullTextIndex) AddPosting(word idspace.Id, p catalog.Posting) {
	f.byWord[word] = append(f.byWord[word], p)
	sort.Slice(f.byWord[word], func(i, j int) bool {
		return f.byWord[word][i].Context < f.byWord[word][j].Context
	})
}

// PostingsForWord implements catalog.FullTextIndex.
func (f *FullTextIndex) PostingsForWord(word idspace.Id) ([]catalog.Posting, error) {
	return append([]catalog.Posting(nil), f.byWord[word]...), nil
}

// PostingsForRange implements catalog.FullTextIndex.
func (f *FullTextIndex) PostingsForRange(r idspace.IdRange) ([]catalog.Posting, error) {
	var out []catalog.Posting
	for w := r.First; w <= r.Last; w++ {
		out = append(out, f.byWord[w]...)
		if w == idspace.Id(^uint64(0)) {
			break // guard against overflow if Last == max Id
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Context < out[j].Context })
	return out, nil
}
