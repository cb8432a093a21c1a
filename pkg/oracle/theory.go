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
	"math/big"

	"github.com/r1ceplus/z3/pkg/oracle/adt"
	"github.com/r1ceplus/z3/pkg/oracle/arith"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/poly"
	log "github.com/sirupsen/logrus"
)

// theory combines the datatype and arithmetic solvers for a single set of
// literals.  Datatype reasoning runs first, since it entails (dis)equalities
// over the arithmetic and boolean arguments of constructors.
type theory struct {
	arena   *term.Arena
	adt     *adt.Solver
	problem *arith.Problem
	// Arithmetic variable allocated for each arithmetic atom-term
	vars map[term.Term]arith.Var
	// Known values of boolean terms
	bools map[term.Term]bool
	// Solution of the arithmetic problem
	assignment arith.Assignment
}

// check the consistency of a set of literals.
func (p *Solver) check(lits []literal) (Result, *theory) {
	th := &theory{
		arena:   p.arena,
		adt:     adt.NewSolver(p.arena),
		problem: arith.NewProblem(),
		vars:    make(map[term.Term]arith.Var),
		bools:   make(map[term.Term]bool),
	}
	//
	for _, l := range lits {
		th.assert(l.atom, l.value)
	}
	//
	if err := th.adt.Check(); err != nil {
		log.Debugf("oracle: %s", err)
		return Unsat, th
	}
	//
	for _, implied := range th.adt.Implied() {
		positive := true
		//
		if p.arena.Op(implied) == term.OpNot {
			positive, implied = false, p.arena.Arg(implied, 0)
		}
		//
		if lhs := p.arena.Arg(implied, 0); p.arena.Sort(lhs) != term.BoolSort {
			th.assertArith(implied, positive)
		} else if !th.consistent(lhs, p.arena.Arg(implied, 1), positive) {
			return Unsat, th
		}
	}
	//
	var res arith.Result
	//
	res, th.assignment = th.problem.Solve(p.config.Arith)
	//
	switch res {
	case arith.Unsat:
		return Unsat, th
	case arith.Sat:
		return Sat, th
	default:
		return Unknown, th
	}
}

func (p *theory) assert(atom term.Term, value bool) {
	a := p.arena
	p.bools[atom] = value
	//
	switch a.Op(atom) {
	case term.OpIs:
		p.adt.Assert(atom, value)
	case term.OpEq:
		if s := a.Sort(a.Arg(atom, 0)); a.Sorts().IsArith(s) {
			p.assertArith(atom, value)
		} else if s != term.BoolSort {
			p.adt.Assert(atom, value)
		}
	case term.OpLe, term.OpLt, term.OpGe, term.OpGt:
		p.assertArith(atom, value)
	}
}

// assertArith translates an arithmetic comparison (or its negation) into a
// linear constraint.
func (p *theory) assertArith(atom term.Term, value bool) {
	var (
		a    = p.arena
		s    = p.linear(a.Arg(atom, 0)).Sub(p.linear(a.Arg(atom, 1)))
		kind arith.Kind
	)
	// Normalise everything into the form s ⋈ 0
	switch a.Op(atom) {
	case term.OpEq:
		if kind = arith.Eq; !value {
			kind = arith.Ne
		}
	case term.OpLe:
		if kind = arith.Le; !value {
			s, kind = s.Neg(), arith.Lt
		}
	case term.OpLt:
		if kind = arith.Lt; !value {
			s, kind = s.Neg(), arith.Le
		}
	case term.OpGe:
		if s, kind = s.Neg(), arith.Le; !value {
			s, kind = s.Neg(), arith.Lt
		}
	case term.OpGt:
		if s, kind = s.Neg(), arith.Lt; !value {
			s, kind = s.Neg(), arith.Le
		}
	}
	//
	p.problem.Add(arith.Constraint{Sum: s, Kind: kind})
}

// linear translates an arithmetic term into a sum over arithmetic variables.
func (p *theory) linear(t term.Term) arith.Sum {
	var (
		lin    = p.arena.Linearize(t)
		result = poly.Const[arith.Var](lin.Constant())
	)
	//
	for _, m := range lin.Terms() {
		result = result.Add(poly.Var(p.varOf(m.Var)).Scale(m.Coeff))
	}
	//
	return result
}

func (p *theory) varOf(t term.Term) arith.Var {
	if v, ok := p.vars[t]; ok {
		return v
	}
	//
	v := p.problem.NewVar(p.arena.Sort(t) == term.IntSort)
	p.vars[t] = v
	//
	return v
}

// consistent checks an implied (dis)equality between two boolean terms
// against their known values.  Unknown values are unconstrained.
func (p *theory) consistent(lhs term.Term, rhs term.Term, equal bool) bool {
	l, ok1 := p.boolValue(lhs)
	r, ok2 := p.boolValue(rhs)
	//
	return !ok1 || !ok2 || (l == r) == equal
}

func (p *theory) boolValue(t term.Term) (bool, bool) {
	switch {
	case p.arena.IsTrue(t):
		return true, true
	case p.arena.IsFalse(t):
		return false, true
	}
	//
	v, ok := p.bools[t]
	//
	return v, ok
}

// value determines the value of an arithmetic term under the arithmetic
// solution.
func (p *theory) value(t term.Term) term.Value {
	var (
		lin = p.arena.Linearize(t)
		val = new(big.Rat).Set(lin.Constant())
	)
	//
	for _, m := range lin.Terms() {
		if v, ok := p.vars[m.Var]; ok {
			val.Add(val, new(big.Rat).Mul(m.Coeff, p.assignment.Get(v)))
		}
	}
	//
	return term.NumValue(val, p.arena.Sort(t))
}

// datatypeModel determines the values of the datatype terms.
func (p *theory) datatypeModel() map[term.Term]term.Value {
	values, ok := p.adt.Model(func(t term.Term) term.Value {
		if p.arena.Sort(t) != term.BoolSort {
			return p.value(t)
		}
		//
		b, _ := p.boolValue(t)
		//
		return term.BoolValue(b)
	})
	//
	if !ok {
		log.Debugf("oracle: no datatype model")
		return make(map[term.Term]term.Value)
	}
	//
	return values
}
