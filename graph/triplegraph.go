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

import "sort"

// Node is one vertex of the Triple Graph: either a single triple, or (after
// collapsing) a text clique representing the conjunction of every triple
// that shared the clique's context variable.
type Node struct {
	Id            int
	Vars          map[string]bool
	IsTextClique  bool
	ContextVar    string
	WordPart      string // conjunction of the clique's word parts, joined with " "
	SourceTriples []Triple

	removed bool
}

// TripleGraph is the planner's intermediate representation: dense-id node
// storage plus a symmetric adjacency list (spec.md §4.4, DESIGN NOTES §9's
// arena reimplementation of the source's pointer-linked nodes).
type TripleGraph struct {
	nodes []*Node
	adj   [][]int
}

// New builds a Triple Graph from a flat list of triples: one node per
// triple, edges between any two nodes sharing a variable, then text cliques
// collapsed into single nodes.
func New(triples []Triple) *TripleGraph {
	g := &TripleGraph{}
	for i, tr := range triples {
		g.nodes = append(g.nodes, &Node{
			Id:            i,
			Vars:          tr.Vars(),
			IsTextClique:  tr.IsTextTriple(),
			ContextVar:    tr.ContextVar,
			WordPart:      tr.WordPart,
			SourceTriples: []Triple{tr},
		})
	}
	g.rebuildAdjacency()
	g.collapseTextCliques()
	return g
}

func (g *TripleGraph) rebuildAdjacency() {
	n := len(g.nodes)
	g.adj = make([][]int, n)
	for i := 0; i < n; i++ {
		if g.nodes[i].removed {
			continue
		}
		for j := i + 1; j < n; j++ {
			if g.nodes[j].removed {
				continue
			}
			if shareVar(g.nodes[i].Vars, g.nodes[j].Vars) {
				g.adj[i] = append(g.adj[i], j)
				g.adj[j] = append(g.adj[j], i)
			}
		}
	}
	for i := range g.adj {
		sort.Ints(g.adj[i])
	}
}

func shareVar(a, b map[string]bool) bool {
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for v := range small {
		if big[v] {
			return true
		}
	}
	return false
}

// collapseTextCliques finds maximal sets of text-triple nodes sharing the
// same context variable and merges each into one clique node, re-linking
// adjacency so every node that touched any member now touches the clique.
func (g *TripleGraph) collapseTextCliques() {
	byContextVar := map[string][]int{}
	for _, nd := range g.nodes {
		if nd.removed || !nd.IsTextClique {
			continue
		}
		byContextVar[nd.ContextVar] = append(byContextVar[nd.ContextVar], nd.Id)
	}

	for ctxVar, members := range byContextVar {
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		keep := g.nodes[members[0]]
		var wordParts []string
		var sources []Triple
		mergedVars := map[string]bool{}
		for _, id := range members {
			m := g.nodes[id]
			wordParts = append(wordParts, m.WordPart)
			sources = append(sources, m.SourceTriples...)
			for v := range m.Vars {
				mergedVars[v] = true
			}
		}
		keep.WordPart = joinWords(wordParts)
		keep.SourceTriples = sources
		keep.Vars = mergedVars
		keep.ContextVar = ctxVar
		keep.IsTextClique = true

		for _, id := range members[1:] {
			g.removeAndMergeNeighbors(id, keep.Id)
		}
	}
	g.rebuildAdjacency()
}

func joinWords(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// removeAndMergeNeighbors removes node `from`, pointing every edge it had
// at `to` instead (skipping the edge to `to` itself, which would become a
// self-loop). An edge `to` already had is appended again; the
// rebuildAdjacency that follows the collapse recomputes every list without
// duplicates.
func (g *TripleGraph) removeAndMergeNeighbors(from, to int) {
	for _, nb := range g.adj[from] {
		if nb == to {
			continue
		}
		g.adj[to] = append(g.adj[to], nb)
		g.adj[nb] = append(g.adj[nb], to)
	}
	g.nodes[from].removed = true
	g.adj[from] = nil
}

// Nodes returns every non-removed node.
func (g *TripleGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, nd := range g.nodes {
		if !nd.removed {
			out = append(out, nd)
		}
	}
	return out
}

// Node returns the node with the given id, or nil if it was removed by
// collapsing.
func (g *TripleGraph) Node(id int) *Node {
	if id < 0 || id >= len(g.nodes) || g.nodes[id].removed {
		return nil
	}
	return g.nodes[id]
}

// Neighbors returns the sorted list of ids adjacent to id.
func (g *TripleGraph) Neighbors(id int) []int {
	return append([]int(nil), g.adj[id]...)
}

// IsPureText reports whether every remaining node is a text clique (spec.md
// §4.5 step 4's pure-text shortcut precondition).
func (g *TripleGraph) IsPureText() bool {
	any := false
	for _, nd := range g.nodes {
		if nd.removed {
			continue
		}
		any = true
		if !nd.IsTextClique {
			return false
		}
	}
	return any
}

// Connected reports whether node b is reachable from node a without
// crossing into excluded. The planner does not call it: it tests whether two
// disjoint node sets may be joined with its own adjacency check.
func (g *TripleGraph) Connected(a, b int, excluded map[int]bool) bool {
	reachable := g.BFSLeaveOut(a, excluded)
	return reachable[b]
}

// BFSLeaveOut returns every node id reachable from start without crossing
// into excluded (spec.md §4.4's bfs_leave_out).
func (g *TripleGraph) BFSLeaveOut(start int, excluded map[int]bool) map[int]bool {
	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.adj[cur] {
			if visited[nb] || excluded[nb] || g.nodes[nb].removed {
				continue
			}
			visited[nb] = true
			queue = append(queue, nb)
		}
	}
	return visited
}
