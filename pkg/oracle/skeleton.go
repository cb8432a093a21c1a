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
package oracle

import (
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/r1ceplus/z3/pkg/term"
)

// literal is the truth value assigned to a theory atom (or to a boolean term
// whose value matters to a theory) by the boolean skeleton.
type literal struct {
	atom  term.Term
	lit   z.Lit
	value bool
}

// skeleton is the boolean abstraction of a formula, where every theory atom is
// replaced by a propositional variable and connectives become gates of a
// circuit.
type skeleton struct {
	arena   *term.Arena
	circuit *logic.C
	lits    map[term.Term]z.Lit
	// Theory atoms and boolean constructor arguments, in encoding order
	atoms []term.Term
	known map[term.Term]bool
	// Boolean variables
	leaves []term.Term
}

func newSkeleton(arena *term.Arena) *skeleton {
	return &skeleton{
		arena:   arena,
		circuit: logic.NewC(),
		lits:    make(map[term.Term]z.Lit),
		known:   make(map[term.Term]bool),
	}
}

// encode a boolean term as a circuit literal.
func (p *skeleton) encode(t term.Term) z.Lit {
	if m, ok := p.lits[t]; ok {
		return m
	}
	//
	var (
		a = p.arena
		c = p.circuit
		m z.Lit
	)
	//
	switch {
	case a.IsTrue(t):
		m = c.T
	case a.IsFalse(t):
		m = c.F
	case a.IsVar(t):
		m = c.Lit()
		p.leaves = append(p.leaves, t)
	case a.Kind(t) != term.KindApp:
		panic(fmt.Sprintf("cannot encode %s", a.String(t)))
	default:
		m = p.encodeApp(t)
	}
	//
	p.lits[t] = m
	//
	return m
}

func (p *skeleton) encodeApp(t term.Term) z.Lit {
	var (
		a    = p.arena
		c    = p.circuit
		args = a.Args(t)
	)
	//
	switch a.Op(t) {
	case term.OpNot:
		return p.encode(args[0]).Not()
	case term.OpAnd:
		return c.Ands(p.encodeAll(args)...)
	case term.OpOr:
		return c.Ors(p.encodeAll(args)...)
	case term.OpImplies:
		return c.Or(p.encode(args[0]).Not(), p.encode(args[1]))
	case term.OpXor:
		m := c.F
		for _, arg := range args {
			m = p.xor(m, p.encode(arg))
		}
		//
		return m
	case term.OpIte:
		cond, then, other := p.encode(args[0]), p.encode(args[1]), p.encode(args[2])
		return c.Or(c.And(cond, then), c.And(cond.Not(), other))
	case term.OpEq:
		if a.Sort(args[0]) == term.BoolSort {
			return p.xor(p.encode(args[0]), p.encode(args[1])).Not()
		}
		//
		return p.atom(t)
	case term.OpDistinct:
		var ms []z.Lit
		//
		for i := range args {
			for j := i + 1; j < len(args); j++ {
				ms = append(ms, p.encode(a.Eq(args[i], args[j])).Not())
			}
		}
		//
		return c.Ands(ms...)
	case term.OpLe, term.OpLt, term.OpGe, term.OpGt, term.OpIs:
		return p.atom(t)
	case term.OpSel:
		// Boolean field of a datatype
		p.leaves = append(p.leaves, t)
		return c.Lit()
	default:
		panic(fmt.Sprintf("cannot encode %s", a.String(t)))
	}
}

func (p *skeleton) encodeAll(ts []term.Term) []z.Lit {
	if len(ts) == 0 {
		return []z.Lit{p.circuit.T}
	}
	//
	ms := make([]z.Lit, len(ts))
	for i, t := range ts {
		ms[i] = p.encode(t)
	}
	//
	return ms
}

func (p *skeleton) xor(lhs z.Lit, rhs z.Lit) z.Lit {
	c := p.circuit
	return c.Or(c.And(lhs, rhs.Not()), c.And(lhs.Not(), rhs))
}

// atom allocates a fresh variable for a theory atom.  Boolean arguments of
// constructors within a datatype equality are themselves encoded, since their
// values feed into datatype reasoning.
func (p *skeleton) atom(t term.Term) z.Lit {
	m := p.circuit.Lit()
	p.lits[t] = m
	//
	if p.arena.Op(t) == term.OpEq {
		for _, arg := range p.arena.Args(t) {
			p.arena.Walk(arg, func(s term.Term) bool {
				if !p.arena.IsConstructorApp(s) {
					return false
				}
				//
				for _, x := range p.arena.Args(s) {
					if p.arena.Sort(x) == term.BoolSort {
						p.track(x, p.encode(x))
					}
				}
				//
				return true
			})
		}
	}
	//
	p.track(t, m)
	//
	return m
}

func (p *skeleton) track(t term.Term, m z.Lit) {
	if !p.known[t] {
		p.known[t] = true
		p.atoms = append(p.atoms, t)
		p.lits[t] = m
	}
}

// assignment extracts the values of the tracked terms from a satisfying
// assignment of the circuit.
func (p *skeleton) assignment(g *gini.Gini) []literal {
	lits := make([]literal, len(p.atoms))
	//
	for i, t := range p.atoms {
		m := p.lits[t]
		lits[i] = literal{t, m, g.Value(m)}
	}
	//
	return lits
}
