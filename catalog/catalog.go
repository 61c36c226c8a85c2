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

// Package catalog states the contracts of the external collaborators the
// planning/execution core consumes but does not implement: the on-disk
// triple Index, the Vocabulary bijection between terms and ids, and the
// FullTextIndex posting store. None of these are implemented here — the
// core is only ever handed a value satisfying these interfaces.
package catalog

import (
	"context"

	"github.com/Benkex/benqlever/idspace"
)

// Posting is a (context, score) pair emitted by the full-text index,
// optionally carrying an entity id when the posting is entity-scoped.
type Posting struct {
	Context idspace.Id
	Entity  idspace.Id
	Score   idspace.Score
}

// RelationId identifies a predicate relation in the Index.
type RelationId = idspace.Id

// PostingStream is a sorted stream of (lhs, rhs) pairs produced by a scan.
// Next returns io.EOF-equivalent via the ok=false return once exhausted.
type PostingStream interface {
	Next() (lhs idspace.Id, rhs idspace.Id, ok bool)
	Close() error
}

// Index is the abstract on-disk triple index: it resolves relation ids to
// sorted posting lists and answers prefix/range lookups. The core never
// inspects its storage format (see spec.md §6's packed-metadata-word note).
type Index interface {
	// Scan returns the sorted (subject, object) postings for relationId,
	// optionally restricted to a single fixed left-hand side.
	Scan(ctx context.Context, relationId RelationId, fixedLhs *idspace.Id) (PostingStream, error)
	// NofElements returns the number of triples in the given relation.
	NofElements(relationId RelationId) uint64
	// IsFunctional reports whether every subject in the relation has exactly
	// one object.
	IsFunctional(relationId RelationId) bool
	// HasBlocks reports whether the relation's postings are organized into
	// block metadata enabling binary search by lhs.
	HasBlocks(relationId RelationId) bool
}

// Vocabulary is the bijection between string terms and integer ids.
type Vocabulary interface {
	// GetId resolves term to its id. ok is false on an unknown term — this is
	// an expected empty result, never an error (spec.md §7).
	GetId(term string) (id idspace.Id, ok bool)
	// GetRangeForPrefix returns the closed id range of every term starting
	// with prefix, or ok=false if no term matches.
	GetRangeForPrefix(prefix string) (r idspace.IdRange, ok bool)
}

// FullTextIndex exposes context/entity/score postings by word or word range.
type FullTextIndex interface {
	// PostingsForWord returns every posting whose word equals the given
	// vocabulary id, already sorted by context id.
	PostingsForWord(word idspace.Id) ([]Posting, error)
	// PostingsForRange returns every posting for words whose vocabulary id
	// falls within r (used for word* prefix lookups).
	PostingsForRange(r idspace.IdRange) ([]Posting, error)
}
