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
	"math/big"

	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/poly"
	log "github.com/sirupsen/logrus"
)

type boundKind uint8

const (
	lower boundKind = iota
	upper
	equal
	distinct
)

// bound is an atomic constraint "a·x ⋈ e" on an arithmetic variable, where
// a > 0 and x does not occur in e.  For integer variables, a and the
// coefficients of e are integers and the bound is never strict.
type bound struct {
	kind   boundKind
	strict bool
	coeff  *big.Rat
	rhs    term.Sum
}

// scanner extracts the bounds on an arithmetic variable from the atoms of a
// formula.
type scanner struct {
	arena *term.Arena
	x     term.Term
	// Lcm of the moduli of div and mod terms over x
	period *big.Int
	// Whether x occurs in a div or mod term of some atom
	impure bool
	bounds []bound
}

func (p *Eliminator) arithCandidates(x term.Term, formula term.Term) ([]term.Term, error) {
	scan := &scanner{arena: p.arena, x: x, period: big.NewInt(1)}
	//
	if err := p.atoms(x, formula, scan.atom); err != nil {
		return nil, err
	}
	//
	switch {
	case p.arena.Sort(x) != term.IntSort && scan.impure:
		return nil, fmt.Errorf("%s occurs under integer division", p.arena.Name(x))
	case p.arena.Sort(x) != term.IntSort:
		return p.realCandidates(scan), nil
	case scan.impure:
		return p.periodCandidates(x, formula, scan.period)
	}
	//
	return p.intCandidates(scan)
}

// periodCandidates constructs the witnesses for an integer variable x occurring
// under div or mod terms with a period δ.  Each residue j in [0,δ) is handled
// separately by substituting δ·u+j for x, which makes every such term linear
// in u.  The witnesses for u then give those for x.
func (p *Eliminator) periodCandidates(x term.Term, formula term.Term, period *big.Int) ([]term.Term, error) {
	if !period.IsInt64() || period.Int64() > int64(p.config.MaxOffset) {
		return nil, fmt.Errorf("period %s exceeds offset bound %d", period, p.config.MaxOffset)
	}
	//
	var (
		a          = p.arena
		delta      = a.Num(new(big.Rat).SetInt(period), term.IntSort)
		u          = a.Fresh("u", term.IntSort)
		simplifier = term.NewSimplifier(a)
		candidates []term.Term
	)
	//
	for j := int64(0); j < period.Int64(); j++ {
		var (
			xj   = p.offset(a.Mul(delta, u), j)
			fj   = simplifier.Simplify(a.Substitute(formula, []term.Term{x}, []term.Term{xj}))
			scan = &scanner{arena: a, x: u, period: big.NewInt(1)}
		)
		//
		if err := p.atoms(u, fj, scan.atom); err != nil {
			return nil, err
		} else if scan.impure {
			return nil, fmt.Errorf("%s remains under integer division", a.Name(x))
		}
		//
		cs, err := p.intCandidates(scan)
		if err != nil {
			return nil, err
		}
		//
		for _, c := range cs {
			candidates = append(candidates, p.offset(a.Mul(delta, c), j))
		}
	}
	//
	log.Debugf("qe: %d integer candidates for %s (split on period %s)", len(candidates), a.Name(x), period)
	//
	return candidates, nil
}

func (p *scanner) atom(t term.Term, positive bool) error {
	var (
		a  = p.arena
		op = a.Op(t)
	)
	//
	switch op {
	case term.OpEq, term.OpLe, term.OpLt, term.OpGe, term.OpGt:
		if !a.Sorts().IsArith(a.Sort(a.Arg(t, 0))) {
			return unsupported(a, p.x, t)
		}
	default:
		return unsupported(a, p.x, t)
	}
	// Normalise into s ⋈ 0
	s := a.Linearize(a.Arg(t, 0)).Sub(a.Linearize(a.Arg(t, 1)))
	//
	switch op {
	case term.OpGe:
		s, op = s.Neg(), term.OpLe
	case term.OpGt:
		s, op = s.Neg(), term.OpLt
	}
	//
	kind, strict := upper, op == term.OpLt
	//
	switch {
	case op == term.OpEq && positive:
		kind = equal
	case op == term.OpEq:
		kind = distinct
	case !positive:
		// not (s <= 0) iff -s < 0, and not (s < 0) iff -s <= 0
		s, strict = s.Neg(), !strict
	}
	//
	for _, m := range s.Terms() {
		if m.Var == p.x || !a.Occurs(p.x, m.Var) {
			continue
		} else if !p.periodic(m.Var) {
			return unsupported(a, p.x, m.Var)
		}
		//
		p.impure = true
	}
	//
	coeff := s.Coeff(p.x)
	if coeff.Sign() == 0 {
		return nil
	}
	// a·x + r ⋈ 0 iff a·x ⋈ -r
	rhs := s.Without(p.x).Neg()
	//
	if coeff.Sign() < 0 {
		coeff, rhs = new(big.Rat).Neg(coeff), rhs.Neg()
		//
		if kind == upper {
			kind = lower
		}
	}
	//
	if a.Sort(p.x) == term.IntSort {
		if !a.IsIntegral(rhs) {
			return fmt.Errorf("mixed integer and real arithmetic in %s", a.String(t))
		}
		//
		scale := new(big.Rat).SetInt(poly.Lcm(rhs.Denominators(), coeff.Denom()))
		coeff, rhs = new(big.Rat).Mul(coeff, scale), rhs.Scale(scale)
		//
		switch {
		case strict && kind == lower:
			rhs = rhs.AddConst(big.NewRat(1, 1))
		case strict && kind == upper:
			rhs = rhs.AddConst(big.NewRat(-1, 1))
		}
		//
		strict = false
	}
	//
	p.bounds = append(p.bounds, bound{kind, strict, coeff, rhs})
	//
	return nil
}

// periodic checks whether an arithmetic atom is an integer division or
// remainder by a numeral whose dividend is (recursively) linear in x.  Such
// atoms are periodic in x, and their moduli are accumulated.
func (p *scanner) periodic(t term.Term) bool {
	a := p.arena
	//
	if op := a.Op(t); op != term.OpDiv && op != term.OpMod {
		return false
	}
	//
	k := a.Arg(t, 1)
	if !a.IsNum(k) || a.Value(k).Sign() == 0 {
		return false
	}
	//
	for _, m := range a.Linearize(a.Arg(t, 0)).Terms() {
		if m.Var != p.x && a.Occurs(p.x, m.Var) && !p.periodic(m.Var) {
			return false
		}
	}
	//
	p.period = poly.Lcm(p.period, new(big.Int).Abs(a.Value(k).Num()))
	//
	return true
}

// intCandidates constructs the witnesses for an integer variable.  Lower
// bounds give ⌈e/a⌉+j, upper bounds ⌊e/a⌋-j, equalities e div a and
// disequalities the values either side of e/a, where j ranges over the period.
func (p *Eliminator) intCandidates(scan *scanner) ([]term.Term, error) {
	if !scan.period.IsInt64() || scan.period.Int64() > int64(p.config.MaxOffset) {
		return nil, fmt.Errorf("period %s exceeds offset bound %d", scan.period, p.config.MaxOffset)
	}
	//
	var (
		a          = p.arena
		period     = scan.period.Int64()
		candidates []term.Term
	)
	//
	for _, b := range scan.bounds {
		switch b.kind {
		case lower:
			for j := int64(0); j < period; j++ {
				candidates = append(candidates, p.offset(p.ceil(b), j))
			}
		case upper:
			for j := int64(0); j < period; j++ {
				candidates = append(candidates, p.offset(p.floor(b), -j))
			}
		case equal:
			candidates = append(candidates, p.floor(b))
		case distinct:
			candidates = append(candidates, p.offset(p.floor(b), 1), p.offset(p.ceil(b), -1))
		}
	}
	//
	if len(scan.bounds) == 0 {
		for j := int64(0); j < period; j++ {
			candidates = append(candidates, a.Int(j))
		}
	}
	//
	log.Debugf("qe: %d integer candidates for %s (period %d)", len(candidates), a.Name(scan.x), period)
	//
	return candidates, nil
}

// floor constructs ⌊e/a⌋ for an integer bound.
func (p *Eliminator) floor(b bound) term.Term {
	e := p.arena.FromSum(b.rhs, term.IntSort)
	//
	if b.coeff.Cmp(big.NewRat(1, 1)) == 0 {
		return e
	}
	//
	return p.arena.Div(e, p.arena.Num(b.coeff, term.IntSort))
}

// ceil constructs ⌈e/a⌉ for an integer bound, as ⌊(e+a-1)/a⌋.
func (p *Eliminator) ceil(b bound) term.Term {
	one := big.NewRat(1, 1)
	//
	if b.coeff.Cmp(one) == 0 {
		return p.arena.FromSum(b.rhs, term.IntSort)
	}
	//
	e := p.arena.FromSum(b.rhs.AddConst(new(big.Rat).Sub(b.coeff, one)), term.IntSort)
	//
	return p.arena.Div(e, p.arena.Num(b.coeff, term.IntSort))
}

func (p *Eliminator) offset(t term.Term, j int64) term.Term {
	if j == 0 {
		return t
	}
	//
	return p.arena.Add(t, p.arena.Int(j))
}

// realCandidates constructs the witnesses for a real variable: each bound
// e/a (stepped by one when strict), the midpoint of every pair of lower and
// upper bounds, and the values either side of each disequality.
func (p *Eliminator) realCandidates(scan *scanner) []term.Term {
	var (
		a          = p.arena
		one        = big.NewRat(1, 1)
		lowers     []term.Sum
		uppers     []term.Sum
		candidates []term.Term
	)
	//
	for _, b := range scan.bounds {
		v := b.rhs.Scale(new(big.Rat).Inv(b.coeff))
		//
		switch b.kind {
		case lower:
			if lowers = append(lowers, v); b.strict {
				v = v.AddConst(one)
			}
			//
			candidates = append(candidates, a.FromSum(v, term.RealSort))
		case upper:
			if uppers = append(uppers, v); b.strict {
				v = v.AddConst(new(big.Rat).Neg(one))
			}
			//
			candidates = append(candidates, a.FromSum(v, term.RealSort))
		case equal:
			candidates = append(candidates, a.FromSum(v, term.RealSort))
		case distinct:
			candidates = append(candidates, a.FromSum(v.AddConst(one), term.RealSort),
				a.FromSum(v.AddConst(new(big.Rat).Neg(one)), term.RealSort))
		}
	}
	//
	for _, l := range lowers {
		for _, u := range uppers {
			candidates = append(candidates, a.FromSum(l.Add(u).Scale(big.NewRat(1, 2)), term.RealSort))
		}
	}
	//
	if len(candidates) == 0 {
		candidates = append(candidates, a.Num(new(big.Rat), term.RealSort))
	}
	//
	log.Debugf("qe: %d real candidates for %s", len(candidates), a.Name(scan.x))
	//
	return candidates
}
