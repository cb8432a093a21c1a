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
package adt

import (
	"fmt"
	"slices"

	"github.com/r1ceplus/z3/pkg/term"
)

// Solver decides conjunctions of equalities, disequalities and testers over
// datatype terms.  Terms are grouped into equivalence classes by union-find,
// where each class records the constructor application (if any) defining it.
// Merging two classes defined by the same constructor merges their arguments
// pairwise, whilst merging classes defined by different constructors is a
// conflict.  Arguments which are not themselves datatypes give rise to
// implied (dis)equalities which must be discharged by whoever owns their
// theory.
type Solver struct {
	arena *term.Arena
	// Registered terms, in registration order
	terms  []term.Term
	parent map[term.Term]term.Term
	// Constructor application defining each class (indexed by root)
	defn map[term.Term]term.Term
	// Constructor required by a tester (indexed by root)
	required map[term.Term]*term.Constructor
	// Constructors excluded by a tester (indexed by root)
	forbidden map[term.Term]map[uint32]bool
	// Asserted disequalities
	diseqs [][2]term.Term
	// Implied (dis)equalities between non-datatype terms
	implied []term.Term
	// Reason for the first conflict detected
	conflict error
}

// NewSolver constructs an empty solver.
func NewSolver(arena *term.Arena) *Solver {
	return &Solver{
		arena:     arena,
		parent:    make(map[term.Term]term.Term),
		defn:      make(map[term.Term]term.Term),
		required:  make(map[term.Term]*term.Constructor),
		forbidden: make(map[term.Term]map[uint32]bool),
	}
}

// Assert a literal, which is either an equality between two datatype terms or
// a tester application.
func (p *Solver) Assert(atom term.Term, positive bool) {
	if p.conflict != nil {
		return
	}
	//
	switch p.arena.Op(atom) {
	case term.OpEq:
		lhs, rhs := p.register(p.arena.Arg(atom, 0)), p.register(p.arena.Arg(atom, 1))
		//
		if positive {
			p.merge(lhs, rhs)
		} else {
			p.diseqs = append(p.diseqs, [2]term.Term{lhs, rhs})
		}
	case term.OpIs:
		var (
			ctor = p.arena.Constructor(atom)
			root = p.find(p.register(p.arena.Arg(atom, 0)))
		)
		//
		if positive {
			p.require(root, ctor)
		} else {
			p.forbid(root, ctor.ID())
		}
	default:
		panic(fmt.Sprintf("not a datatype literal: %s", p.arena.String(atom)))
	}
}

// Check whether the asserted literals are consistent, returning the reason
// when they are not.
func (p *Solver) Check() error {
	if p.conflict != nil {
		return p.conflict
	}
	//
	for _, check := range []func() error{p.checkTesters, p.checkAcyclic, p.checkDisequalities} {
		if err := check(); err != nil {
			p.conflict = err
			return err
		}
	}
	//
	return nil
}

// Implied returns the equalities and disequalities between non-datatype terms
// entailed by the asserted literals.  These are only meaningful after Check
// has succeeded.
func (p *Solver) Implied() []term.Term {
	return p.implied
}

// Equal checks whether two registered terms are known to be equal.
func (p *Solver) Equal(lhs term.Term, rhs term.Term) bool {
	return p.find(p.register(lhs)) == p.find(p.register(rhs))
}

func (p *Solver) register(t term.Term) term.Term {
	if _, ok := p.parent[t]; ok {
		return t
	}
	//
	p.parent[t] = t
	p.terms = append(p.terms, t)
	//
	if p.arena.IsConstructorApp(t) {
		p.defn[t] = t
		//
		for _, arg := range p.arena.Args(t) {
			if p.isDatatype(arg) {
				p.register(arg)
			}
		}
	}
	//
	return t
}

func (p *Solver) find(t term.Term) term.Term {
	for p.parent[t] != t {
		// Path halving
		p.parent[t] = p.parent[p.parent[t]]
		t = p.parent[t]
	}
	//
	return t
}

func (p *Solver) isDatatype(t term.Term) bool {
	return p.arena.Sorts().Datatype(p.arena.Sort(t)) != nil
}

// merge the classes of two terms, along with everything this entails.
func (p *Solver) merge(lhs term.Term, rhs term.Term) {
	pending := [][2]term.Term{{lhs, rhs}}
	//
	for len(pending) > 0 && p.conflict == nil {
		var (
			next   = pending[len(pending)-1]
			ra, rb = p.find(next[0]), p.find(next[1])
		)
		//
		pending = pending[:len(pending)-1]
		//
		if ra == rb {
			continue
		}
		// rb is absorbed into ra
		p.parent[rb] = ra
		//
		if da, db := p.defn[ra], p.defn[rb]; da == term.NoTerm {
			p.defn[ra] = db
		} else if db != term.NoTerm {
			if p.arena.Constructor(da) != p.arena.Constructor(db) {
				p.conflict = fmt.Errorf("constructor clash between %s and %s", p.arena.String(da), p.arena.String(db))
				return
			}
			// Injectivity
			for i, x := range p.arena.Args(da) {
				y := p.arena.Arg(db, i)
				//
				if p.isDatatype(x) {
					pending = append(pending, [2]term.Term{x, y})
				} else if x != y {
					p.implied = append(p.implied, p.arena.Eq(x, y))
				}
			}
		}
		//
		delete(p.defn, rb)
		//
		if c, ok := p.required[rb]; ok {
			delete(p.required, rb)
			p.require(ra, c)
		}
		//
		for id := range p.forbidden[rb] {
			p.forbid(ra, id)
		}
		//
		delete(p.forbidden, rb)
	}
}

func (p *Solver) require(root term.Term, ctor *term.Constructor) {
	if c, ok := p.required[root]; ok && c != ctor {
		p.conflict = fmt.Errorf("class of %s cannot be both %s and %s", p.arena.String(root), c.Name, ctor.Name)
		return
	}
	//
	p.required[root] = ctor
}

func (p *Solver) forbid(root term.Term, id uint32) {
	if p.forbidden[root] == nil {
		p.forbidden[root] = make(map[uint32]bool)
	}
	//
	p.forbidden[root][id] = true
}

// roots returns the representative of every class, in registration order.
func (p *Solver) roots() []term.Term {
	var roots []term.Term
	//
	for _, t := range p.terms {
		if p.find(t) == t {
			roots = append(roots, t)
		}
	}
	//
	return roots
}

// allowed checks whether a class may take a value built by a given
// constructor.
func (p *Solver) allowed(root term.Term, ctor *term.Constructor) bool {
	if c, ok := p.required[root]; ok && c != ctor {
		return false
	}
	//
	return !p.forbidden[root][ctor.ID()]
}

func (p *Solver) checkTesters() error {
	for _, root := range p.roots() {
		if d := p.defn[root]; d != term.NoTerm {
			if !p.allowed(root, p.arena.Constructor(d)) {
				return fmt.Errorf("tester contradicts %s", p.arena.String(d))
			}
			//
			continue
		}
		//
		dt := p.arena.Sorts().Datatype(p.arena.Sort(root))
		//
		if !slices.ContainsFunc(dt.Constructors, func(c *term.Constructor) bool { return p.allowed(root, c) }) {
			return fmt.Errorf("no constructor possible for %s", p.arena.String(root))
		}
	}
	//
	return nil
}

// checkAcyclic ensures no class is (transitively) a proper subterm of itself.
func (p *Solver) checkAcyclic() error {
	const (
		unvisited = iota
		active
		finished
	)
	//
	var (
		state = make(map[term.Term]int)
		visit func(term.Term) bool
	)
	//
	visit = func(root term.Term) bool {
		switch state[root] {
		case active:
			return false
		case finished:
			return true
		}
		//
		state[root] = active
		//
		if d := p.defn[root]; d != term.NoTerm {
			for _, arg := range p.arena.Args(d) {
				if p.isDatatype(arg) && !visit(p.find(arg)) {
					return false
				}
			}
		}
		//
		state[root] = finished
		//
		return true
	}
	//
	for _, root := range p.roots() {
		if !visit(root) {
			return fmt.Errorf("cyclic term %s", p.arena.String(root))
		}
	}
	//
	return nil
}

// checkDisequalities ensures no disequality holds between members of the same
// class.  A disequality between classes defined by the same constructor,
// whose arguments are known equal in all but one position, is reduced to a
// disequality over that position.
func (p *Solver) checkDisequalities() error {
	for i := 0; i < len(p.diseqs); i++ {
		var (
			lhs, rhs = p.find(p.diseqs[i][0]), p.find(p.diseqs[i][1])
			dl, dr   = p.defn[lhs], p.defn[rhs]
		)
		//
		if lhs == rhs {
			return fmt.Errorf("%s and %s cannot differ", p.arena.String(p.diseqs[i][0]),
				p.arena.String(p.diseqs[i][1]))
		} else if dl == term.NoTerm || dr == term.NoTerm || p.arena.Constructor(dl) != p.arena.Constructor(dr) {
			continue
		}
		//
		var differ []int
		//
		for j, x := range p.arena.Args(dl) {
			y := p.arena.Arg(dr, j)
			//
			if (p.isDatatype(x) && p.find(x) != p.find(y)) || (!p.isDatatype(x) && x != y) {
				differ = append(differ, j)
			}
		}
		//
		switch {
		case len(differ) == 0:
			return fmt.Errorf("%s and %s cannot differ", p.arena.String(dl), p.arena.String(dr))
		case len(differ) > 1:
			continue
		}
		//
		x, y := p.arena.Arg(dl, differ[0]), p.arena.Arg(dr, differ[0])
		//
		if p.isDatatype(x) {
			p.diseqs = append(p.diseqs, [2]term.Term{x, y})
		} else {
			p.implied = append(p.implied, p.arena.Not(p.arena.Eq(x, y)))
		}
	}
	//
	return nil
}
