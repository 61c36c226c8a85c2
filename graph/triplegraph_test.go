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

package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsSharedVariableAdjacency(t *testing.T) {
	// ?a <p1> ?b . ?b <p2> ?c . -- chain sharing ?b, no edge between first
	// and third triple.
	triples := []Triple{
		{Subject: VarTerm("a"), Predicate: BoundTerm(1), Object: VarTerm("b")},
		{Subject: VarTerm("b"), Predicate: BoundTerm(2), Object: VarTerm("c")},
		{Subject: VarTerm("d"), Predicate: BoundTerm(3), Object: VarTerm("e")},
	}
	g := New(triples)

	require.Equal(t, []int{1}, g.Neighbors(0))
	require.Equal(t, []int{0}, g.Neighbors(1))
	require.Empty(t, g.Neighbors(2))
}

func TestCollapseTextCliquesMergesSameContextVar(t *testing.T) {
	triples := []Triple{
		{Subject: VarTerm("x"), Predicate: BoundTerm(1), Object: VarTerm("c")},
		{ContextVar: "c", WordPart: "hello"},
		{ContextVar: "c", WordPart: "world"},
	}
	g := New(triples)

	nodes := g.Nodes()
	require.Len(t, nodes, 2, "the two text triples should collapse into one clique node")

	var clique *Node
	for _, nd := range nodes {
		if nd.IsTextClique {
			clique = nd
		}
	}
	require.NotNil(t, clique)
	require.Equal(t, "hello world", clique.WordPart)
	require.Len(t, clique.SourceTriples, 2)

	// the non-text node sharing ?c must now be adjacent to the clique node.
	require.Contains(t, g.Neighbors(0), clique.Id)
}

func TestIsPureText(t *testing.T) {
	textOnly := New([]Triple{
		{ContextVar: "c", WordPart: "hello"},
	})
	require.True(t, textOnly.IsPureText())

	mixed := New([]Triple{
		{ContextVar: "c", WordPart: "hello"},
		{Subject: VarTerm("x"), Predicate: BoundTerm(1), Object: VarTerm("c")},
	})
	require.False(t, mixed.IsPureText())
}

func TestBFSLeaveOut(t *testing.T) {
	// triangle 0-1-2 plus isolated 3.
	triples := []Triple{
		{Subject: VarTerm("a"), Predicate: BoundTerm(1), Object: VarTerm("b")},
		{Subject: VarTerm("b"), Predicate: BoundTerm(2), Object: VarTerm("c")},
		{Subject: VarTerm("c"), Predicate: BoundTerm(3), Object: VarTerm("a")},
		{Subject: VarTerm("d"), Predicate: BoundTerm(4), Object: VarTerm("e")},
	}
	g := New(triples)

	reachable := g.BFSLeaveOut(0, nil)
	require.True(t, reachable[0])
	require.True(t, reachable[1])
	require.True(t, reachable[2])
	require.False(t, reachable[3])

	excluded := map[int]bool{1: true}
	reachable = g.BFSLeaveOut(0, excluded)
	require.True(t, reachable[0])
	require.False(t, reachable[1])
	require.True(t, reachable[2], "0-2 edge bypasses excluded node 1")
}

func TestConnected(t *testing.T) {
	triples := []Triple{
		{Subject: VarTerm("a"), Predicate: BoundTerm(1), Object: VarTerm("b")},
		{Subject: VarTerm("b"), Predicate: BoundTerm(2), Object: VarTerm("c")},
	}
	g := New(triples)

	require.True(t, g.Connected(0, 1, nil))
	require.False(t, g.Connected(0, 1, map[int]bool{1: true}))
}
