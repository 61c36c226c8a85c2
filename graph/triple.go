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

// Package graph holds the Triple Graph: the planner's intermediate
// representation of a query's basic graph pattern plus its text cliques
// (spec.md §4.4).
package graph

import "github.com/Benkex/benqlever/idspace"

// InContextRelation is the reserved predicate marking a triple as
// text-aware: it binds a context variable to the full-text word/prefix it
// must appear near.
const InContextRelation = "<in-context>"

// Term is either a bound identifier or a free variable.
type Term struct {
	IsVariable bool
	Var        string
	Bound      idspace.Id
}

// VarTerm constructs a variable term.
func VarTerm(name string) Term { return Term{IsVariable: true, Var: name} }

// BoundTerm constructs a bound term.
func BoundTerm(id idspace.Id) Term { return Term{Bound: id} }

// Triple is a (subject, predicate, object) pattern; each position is a
// variable or a bound term. A predicate equal to InContextRelation marks
// this triple as text-aware, binding Object's variable (ContextVar) to the
// full-text prefix carried by WordPart.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term

	// ContextVar is set (non-empty) only for text-aware triples: the
	// variable naming the context the WordPart must occur in.
	ContextVar string
	// WordPart is the full-text word or prefix literal for a text-aware
	// triple, empty otherwise.
	WordPart string
}

// IsTextTriple reports whether this triple is text-aware.
func (t Triple) IsTextTriple() bool {
	return t.ContextVar != ""
}

// Vars returns the set of variable names this triple references.
func (t Triple) Vars() map[string]bool {
	out := map[string]bool{}
	if t.Subject.IsVariable {
		out[t.Subject.Var] = true
	}
	if t.Predicate.IsVariable {
		out[t.Predicate.Var] = true
	}
	if t.Object.IsVariable {
		out[t.Object.Var] = true
	}
	if t.ContextVar != "" {
		out[t.ContextVar] = true
	}
	return out
}

// Filter is a predicate applied over one or more variables, attached to a
// QET subtree once every free variable it references is covered by that
// subtree (spec.md §4.5 step 3).
type Filter struct {
	// FreeVars is the set of variable names this filter reads.
	FreeVars map[string]bool
	// ContextVar is non-empty if this filter was split off a text clique
	// because it references a collapsed context variable (spec.md §4.4
	// step 4, split_at_context_vars).
	ContextVar string
	// Expr is an opaque, implementation-defined predicate expression; the
	// core only needs to know which variables it reads, not how to
	// evaluate it structurally for planning purposes.
	Expr interface{}
}
