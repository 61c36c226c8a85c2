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

package memcatalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Benkex/benqlever/idspace"
)

// TestVocabularyIds implements spec.md §8 scenario 1.
func TestVocabularyIds(t *testing.T) {
	v := NewVocabulary("a", "ab", "ba", "car")

	id, ok := v.GetId("ba")
	require.True(t, ok)
	require.Equal(t, idspace.Id(2), id)

	id, ok = v.GetId("a")
	require.True(t, ok)
	require.Equal(t, idspace.Id(0), id)

	_, ok = v.GetId("foo")
	require.False(t, ok)
}

// TestVocabularyPrefixRange implements spec.md §8 scenario 2.
func TestVocabularyPrefixRange(t *testing.T) {
	v := NewVocabulary("wordA0", "wordA1", "wordB2", "wordB3", "wordB4")

	r, ok := v.GetRangeForPrefix("wordA1")
	require.True(t, ok)
	require.Equal(t, idspace.IdRange{First: 1, Last: 1}, r)

	r, ok = v.GetRangeForPrefix("word")
	require.True(t, ok)
	require.Equal(t, idspace.IdRange{First: 0, Last: 4}, r)

	r, ok = v.GetRangeForPrefix("wordA")
	require.True(t, ok)
	require.Equal(t, idspace.IdRange{First: 0, Last: 1}, r)

	r, ok = v.GetRangeForPrefix("wordB")
	require.True(t, ok)
	require.Equal(t, idspace.IdRange{First: 2, Last: 4}, r)

	_, ok = v.GetRangeForPrefix("foo")
	require.False(t, ok)
}

// TestVocabularyPersistence implements spec.md §8 scenario 3, substituting an
// in-memory snapshot/restore cycle for an on-disk write/read round-trip
// (persistence itself is out of scope; only the term-set-size invariant is
// under test here).
func TestVocabularyPersistence(t *testing.T) {
	v := NewVocabulary("a", "ab", "ba", "car", "dog")
	require.Equal(t, 5, v.Size())

	snapshot := v.Terms()
	v.PushBack("foo")
	require.Equal(t, 6, v.Size())

	restored := NewVocabulary(snapshot...)
	require.Equal(t, 5, restored.Size())
}

func TestIndexScanSortedAndFunctional(t *testing.T) {
	ix := NewIndex()
	ix.AddTriple(1, 10, 100)
	ix.AddTriple(1, 10, 101)
	ix.AddTriple(1, 20, 200)

	require.True(t, ix.IsFunctional(1) == false) // subject 10 has two objects

	s, err := ix.Scan(nil, 1, nil)
	require.NoError(t, err)
	var got [][2]idspace.Id
	for {
		l, r, ok := s.Next()
		if !ok {
			break
		}
		got = append(got, [2]idspace.Id{l, r})
	}
	require.Equal(t, [][2]idspace.Id{{10, 100}, {10, 101}, {20, 200}}, got)

	require.Equal(t, uint64(3), ix.NofElements(1))
}

func TestIndexScanFixedLhs(t *testing.T) {
	ix := NewIndex()
	ix.AddTriple(1, 10, 100)
	ix.AddTriple(1, 20, 200)

	fixed := idspace.Id(20)
	s, err := ix.Scan(nil, 1, &fixed)
	require.NoError(t, err)
	l, r, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, idspace.Id(20), l)
	require.Equal(t, idspace.Id(200), r)
	_, _, ok = s.Next()
	require.False(t, ok)
}
