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
package arith

import (
	"math/big"
	"slices"

	"github.com/r1ceplus/z3/pkg/util/poly"
)

// maxOmegaSteps bounds the number of auxiliary variables introduced whilst
// eliminating integer equalities.
const maxOmegaSteps = 256

// Solve determines whether the constraints of this problem are satisfiable.
// Equalities are eliminated first (exactly, including over the integers),
// after which the remaining inequalities are projected by Fourier-Motzkin
// elimination.  A satisfying assignment is then constructed by working
// backwards through the eliminated variables, searching over the integer
// variables where necessary.  Disequalities are handled by case splitting, but
// only when the assignment found for the other constraints violates them.
//
// The result is Unsat only when the constraints have no solution, and Sat only
// with an assignment satisfying every constraint.
func (p *Problem) Solve(limits Limits) (Result, Assignment) {
	res, assignment := p.solve(limits, 0)
	if res != Sat {
		return res, nil
	}
	// Drop auxiliary variables
	for v := range assignment {
		if int(v) >= len(p.integer) {
			delete(assignment, v)
		}
	}
	//
	return res, assignment
}

func (p *Problem) solve(limits Limits, splits uint) (Result, Assignment) {
	res, assignment := p.solveConjunction(limits)
	if res != Sat {
		return res, nil
	}
	//
	for i, c := range p.constraints {
		if c.Holds(assignment) {
			continue
		} else if c.Kind != Ne || splits >= limits.MaxSplits {
			// Either the split limit is reached, or the assignment is broken.
			return Unknown, nil
		}
		// Split s != 0 into s < 0 or -s < 0
		below, above := p.Clone(), p.Clone()
		below.constraints[i] = Constraint{c.Sum, Lt}
		above.constraints[i] = Constraint{c.Sum.Neg(), Lt}
		//
		r1, a1 := below.solve(limits, splits+1)
		if r1 == Sat {
			return r1, a1
		}
		//
		r2, a2 := above.solve(limits, splits+1)
		if r2 == Sat {
			return r2, a2
		} else if r1 == Unsat && r2 == Unsat {
			return Unsat, nil
		}
		//
		return Unknown, nil
	}
	//
	return Sat, assignment
}

// solveConjunction solves the equalities and inequalities of this problem,
// ignoring its disequalities.
func (p *Problem) solveConjunction(limits Limits) (Result, Assignment) {
	var (
		e     = &elimination{integer: slices.Clone(p.integer), limits: limits}
		eqs   []Constraint
		ineqs []Constraint
	)
	//
	for _, c := range p.constraints {
		switch c.Kind {
		case Ne:
			continue
		case Eq:
			eqs = append(eqs, c)
		default:
			ineqs = append(ineqs, c)
		}
	}
	//
	eqs, ok1 := e.normaliseAll(eqs)
	ineqs, ok2 := e.normaliseAll(ineqs)
	//
	if !ok1 || !ok2 {
		return Unsat, nil
	}
	//
	ineqs, res := e.eliminateEqualities(eqs, ineqs)
	if res == Sat {
		res = e.fourierMotzkin(ineqs)
	}
	//
	if res != Sat {
		return res, nil
	}
	//
	return e.construct()
}

// step records how a variable was eliminated, so that its value can be
// reconstructed afterwards.
type step struct {
	v Var
	// Set when v was eliminated by an equality v = def.
	isDef bool
	def   Sum
	// Constraints mentioning v when it was projected out.
	bounds []Constraint
}

type elimination struct {
	integer []bool
	limits  Limits
	steps   []step
}

func (p *elimination) newVar(integer bool) Var {
	p.integer = append(p.integer, integer)
	return Var(len(p.integer) - 1)
}

// eliminateEqualities removes every equality, substituting its definition into
// the remaining constraints.
func (p *elimination) eliminateEqualities(eqs []Constraint, ineqs []Constraint) ([]Constraint, Result) {
	var ok bool
	//
	for omega := 0; len(eqs) > 0; {
		v, def, aux := p.pivot(eqs[len(eqs)-1])
		//
		if aux {
			if omega++; omega > maxOmegaSteps {
				return nil, Unknown
			}
		}
		//
		p.steps = append(p.steps, step{v: v, isDef: true, def: def})
		//
		if eqs, ok = p.substitute(eqs, v, def); !ok {
			return nil, Unsat
		} else if ineqs, ok = p.substitute(ineqs, v, def); !ok {
			return nil, Unsat
		}
	}
	//
	return ineqs, Sat
}

// pivot determines a variable to eliminate from a given (normalised)
// equality, along with its definition.  When the equality contains only
// integer variables, none of which has a unit coefficient, the definition
// involves an auxiliary variable and the equality is not solved outright.
// Instead, its coefficients are reduced (as in the Omega test).
func (p *elimination) pivot(eq Constraint) (Var, Sum, bool) {
	var (
		terms = eq.Sum.Terms()
		k     = -1
	)
	//
	for i, m := range terms {
		if !p.integer[m.Var] {
			return m.Var, solveFor(eq.Sum, m), false
		} else if m.Coeff.IsInt() && m.Coeff.Num().CmpAbs(big.NewInt(1)) == 0 {
			k = i
		}
	}
	//
	if k >= 0 {
		return terms[k].Var, solveFor(eq.Sum, terms[k]), false
	}
	// Choose smallest coefficient
	for i, m := range terms {
		if k < 0 || m.Coeff.Num().CmpAbs(terms[k].Coeff.Num()) < 0 {
			k = i
		}
	}
	//
	var (
		ak    = terms[k].Coeff.Num()
		m     = new(big.Int).Add(new(big.Int).Abs(ak), big.NewInt(1))
		sigma = p.newVar(true)
		def   = Sum{}
	)
	//
	for i, t := range terms {
		if i != k {
			c := modHat(t.Coeff.Num(), m)
			def = def.Add(poly.Var(t.Var).Scale(new(big.Rat).SetInt(c)))
		}
	}
	//
	def = def.AddConst(new(big.Rat).SetInt(modHat(eq.Sum.Constant().Num(), m)))
	def = def.Sub(poly.Var(sigma).Scale(new(big.Rat).SetInt(m)))
	//
	if ak.Sign() < 0 {
		def = def.Neg()
	}
	//
	return terms[k].Var, def, true
}

// solveFor rearranges a·v + rest = 0 into v = -rest/a.
func solveFor(s Sum, m poly.Monomial[Var]) Sum {
	inv := new(big.Rat).Inv(m.Coeff)
	return s.Without(m.Var).Scale(inv.Neg(inv))
}

// substitute a definition into every constraint of a given list.  This fails
// if any resulting constraint is trivially false.
func (p *elimination) substitute(cs []Constraint, v Var, def Sum) ([]Constraint, bool) {
	result := make([]Constraint, 0, len(cs))
	//
	for _, c := range cs {
		result = append(result, Constraint{c.Sum.Substitute(v, def), c.Kind})
	}
	//
	return p.normaliseAll(result)
}

// fourierMotzkin projects out the variables of a set of inequalities one by
// one, eliminating real variables before integer variables.  Over the
// integers the projection over-approximates, so a satisfiable outcome must
// still be confirmed by constructing an assignment.
func (p *elimination) fourierMotzkin(cs []Constraint) Result {
	for len(cs) > 0 {
		var (
			v                   = p.choose(cs)
			lower, upper, other []Constraint
		)
		//
		for _, c := range cs {
			switch c.Sum.Coeff(v).Sign() {
			case -1:
				lower = append(lower, c)
			case 1:
				upper = append(upper, c)
			default:
				other = append(other, c)
			}
		}
		//
		bounds := append(slices.Grow([]Constraint(nil), len(lower)+len(upper)), lower...)
		bounds = append(bounds, upper...)
		p.steps = append(p.steps, step{v: v, bounds: bounds})
		//
		for _, l := range lower {
			for _, u := range upper {
				c, trivial, conflict := p.normalise(combine(v, l, u))
				//
				if conflict {
					return Unsat
				} else if !trivial {
					other = append(other, c)
				}
			}
		}
		//
		if uint(len(other)) > p.limits.MaxConstraints {
			return Unknown
		}
		//
		cs = dedup(other)
	}
	//
	return Sat
}

// choose the next variable to project out, preferring real variables and then
// those whose elimination generates the fewest constraints.
func (p *elimination) choose(cs []Constraint) Var {
	var (
		lower = make(map[Var]int)
		upper = make(map[Var]int)
		vars  []Var
	)
	//
	for _, c := range cs {
		for _, m := range c.Sum.Terms() {
			if _, ok := lower[m.Var]; !ok {
				vars = append(vars, m.Var)
				lower[m.Var] = 0
			}
			//
			if m.Coeff.Sign() < 0 {
				lower[m.Var]++
			} else {
				upper[m.Var]++
			}
		}
	}
	//
	slices.Sort(vars)
	//
	best, bestCost := vars[0], 0
	//
	for i, v := range vars {
		cost := lower[v]*upper[v] - lower[v] - upper[v]
		//
		if i == 0 || p.integer[v] != p.integer[best] && !p.integer[v] ||
			p.integer[v] == p.integer[best] && cost < bestCost {
			best, bestCost = v, cost
		}
	}
	//
	return best
}

// combine a lower bound a·v + r ≤ 0 (a < 0) with an upper bound b·v + s ≤ 0
// (b > 0), giving b·r - a·s ≤ 0.  The result is strict if either is.
func combine(v Var, l Constraint, u Constraint) Constraint {
	var (
		a    = new(big.Rat).Neg(l.Sum.Coeff(v))
		b    = u.Sum.Coeff(v)
		kind = Le
	)
	//
	if l.Kind == Lt || u.Kind == Lt {
		kind = Lt
	}
	//
	return Constraint{l.Sum.Scale(b).Add(u.Sum.Scale(a)), kind}
}

func dedup(cs []Constraint) []Constraint {
	var (
		seen   = make(map[string]bool)
		result = cs[:0]
	)
	//
	for _, c := range cs {
		key := c.String()
		if !seen[key] {
			seen[key] = true
			result = append(result, c)
		}
	}
	//
	return result
}

func (p *elimination) normaliseAll(cs []Constraint) ([]Constraint, bool) {
	result := make([]Constraint, 0, len(cs))
	//
	for _, c := range cs {
		n, trivial, conflict := p.normalise(c)
		//
		if conflict {
			return nil, false
		} else if !trivial {
			result = append(result, n)
		}
	}
	//
	return result, true
}

// normalise a constraint by clearing denominators and, where all variables are
// integers, dividing through by the gcd of the coefficients.  Strict integer
// inequalities are tightened into non-strict ones.  The boolean results report
// whether the constraint is trivially true or trivially false (in which case
// the returned constraint is meaningless).
func (p *elimination) normalise(c Constraint) (Constraint, bool, bool) {
	if c.Sum.IsConstant() {
		holds := c.Holds(nil)
		return c, holds, !holds
	}
	//
	s := c.Sum.Scale(new(big.Rat).SetInt(c.Sum.Denominators()))
	//
	if !p.integral(s) {
		g := new(big.Rat).SetInt(s.CoeffGcd())
		return Constraint{s.Scale(g.Inv(g)), c.Kind}, false, false
	}
	//
	var (
		g    = s.CoeffGcd()
		k    = s.Constant().Num()
		kind = c.Kind
	)
	//
	switch kind {
	case Eq, Ne:
		if new(big.Int).Mod(k, g).Sign() != 0 {
			// No integer solutions for the equality
			return c, kind == Ne, kind == Eq
		}
	case Lt:
		// s < 0 iff s + 1 <= 0
		k = new(big.Int).Add(k, big.NewInt(1))
		kind = Le
	}
	//
	terms := s.AddConst(new(big.Rat).Neg(s.Constant()))
	terms = terms.Scale(new(big.Rat).SetFrac(big.NewInt(1), g))
	// Σ + k <= 0 iff Σ/g + ⌈k/g⌉ <= 0
	return Constraint{terms.AddConst(new(big.Rat).SetInt(ceilDiv(k, g))), kind}, false, false
}

// integral checks whether all variables of a sum are integers.
func (p *elimination) integral(s Sum) bool {
	for _, m := range s.Terms() {
		if !p.integer[m.Var] {
			return false
		}
	}
	//
	return true
}

func ceilDiv(n *big.Int, d *big.Int) *big.Int {
	q := new(big.Int).Div(new(big.Int).Neg(n), d)
	return q.Neg(q)
}

// modHat computes the symmetric remainder a - m⌊a/m + 1/2⌋ used by the Omega
// test for eliminating equalities.
func modHat(a *big.Int, m *big.Int) *big.Int {
	var (
		two = big.NewInt(2)
		num = new(big.Int).Add(new(big.Int).Mul(a, two), m)
		q   = new(big.Int).Div(num, new(big.Int).Mul(m, two))
	)
	//
	return new(big.Int).Sub(a, q.Mul(q, m))
}
