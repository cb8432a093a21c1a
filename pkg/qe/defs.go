// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package qe

import (
	"fmt"
	"io"
	"strings"

	"github.com/r1ceplus/z3/pkg/term"
)

// Definition assigns a witness term to an eliminated variable.
type Definition struct {
	Var  term.Term
	Term term.Term
}

// GuardedDef is a single branch of a solution: whenever the guard holds,
// substituting the definitions into the matrix makes it true.
type GuardedDef struct {
	Guard term.Term
	Defs  []Definition
}

// Vars returns the variables defined by this branch, in order.
func (p *GuardedDef) Vars() []term.Term {
	vars := make([]term.Term, len(p.Defs))
	for i, d := range p.Defs {
		vars[i] = d.Var
	}
	//
	return vars
}

// Terms returns the witness terms of this branch, in order.
func (p *GuardedDef) Terms() []term.Term {
	terms := make([]term.Term, len(p.Defs))
	for i, d := range p.Defs {
		terms[i] = d.Term
	}
	//
	return terms
}

// GuardedDefs is a candidate solution to a quantifier elimination problem.  It
// is an ordered case split whose branches each define exactly the same set of
// variables, namely the elimination targets.  The guards of different branches
// may overlap, and need not cover every case.
type GuardedDefs struct {
	arena *term.Arena
	// Elimination targets, in the order of each branch's definitions.
	targets []term.Term
	entries []GuardedDef
}

// NewGuardedDefs constructs an empty solution for a given set of targets.
func NewGuardedDefs(arena *term.Arena, targets []term.Term) *GuardedDefs {
	return &GuardedDefs{arena: arena, targets: targets}
}

// Targets returns the variables defined by every branch.
func (p *GuardedDefs) Targets() []term.Term {
	return p.targets
}

// Len returns the number of branches.
func (p *GuardedDefs) Len() int {
	return len(p.entries)
}

// Get returns the ith branch.
func (p *GuardedDefs) Get(i int) GuardedDef {
	return p.entries[i]
}

// Guard returns the guard of the ith branch.
func (p *GuardedDefs) Guard(i int) term.Term {
	return p.entries[i].Guard
}

// Defs returns the definitions of the ith branch.
func (p *GuardedDefs) Defs(i int) []Definition {
	return p.entries[i].Defs
}

// Add a branch.  This panics if the definitions do not define exactly the
// targets of this solution, in order, or a witness has the wrong sort.
func (p *GuardedDefs) Add(guard term.Term, defs ...Definition) {
	if len(defs) != len(p.targets) {
		panic(fmt.Sprintf("branch defines %d variables, expected %d", len(defs), len(p.targets)))
	}
	//
	for i, d := range defs {
		if d.Var != p.targets[i] {
			panic(fmt.Sprintf("branch defines %s, expected %s", p.arena.Name(d.Var), p.arena.Name(p.targets[i])))
		} else if vs, ts := p.arena.Sort(d.Var), p.arena.Sort(d.Term); vs != ts && (vs != term.RealSort ||
			ts != term.IntSort) {
			panic(fmt.Sprintf("ill-sorted definition of %s", p.arena.Name(d.Var)))
		}
	}
	//
	p.entries = append(p.entries, GuardedDef{guard, defs})
}

// Display writes each branch as its definitions followed by its guard.
func (p *GuardedDefs) Display(w io.Writer) {
	for _, e := range p.entries {
		for _, d := range e.Defs {
			fmt.Fprintf(w, "%s := %s\n", p.arena.Name(d.Var), p.arena.String(d.Term))
		}
		//
		fmt.Fprintf(w, "if %s\n", p.arena.Pretty(e.Guard, 80))
	}
}

func (p *GuardedDefs) String() string {
	var builder strings.Builder
	//
	p.Display(&builder)
	//
	return builder.String()
}
