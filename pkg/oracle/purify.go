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

	"github.com/r1ceplus/z3/pkg/term"
)

// purifier removes the operators which neither theory handles directly.
// Integer division and remainder by a numeral are replaced by fresh quotient
// and remainder variables, whilst non-boolean conditionals (including abs) are
// replaced by fresh variables constrained by guarded equalities.  The
// constraints so introduced are accumulated as side conditions, which must be
// conjoined with the purified formula.
type purifier struct {
	arena *term.Arena
	cache map[term.Term]term.Term
	// Quotient and remainder introduced for each dividend / divisor pair
	divisions map[[2]term.Term][2]term.Term
	// Side conditions
	side []term.Term
}

func newPurifier(arena *term.Arena) *purifier {
	return &purifier{
		arena:     arena,
		cache:     make(map[term.Term]term.Term),
		divisions: make(map[[2]term.Term][2]term.Term),
	}
}

func (p *purifier) purify(t term.Term) term.Term {
	if r, ok := p.cache[t]; ok {
		return r
	} else if p.arena.Kind(t) != term.KindApp {
		return t
	}
	//
	var (
		a    = p.arena
		args = make([]term.Term, len(a.Args(t)))
		r    term.Term
	)
	//
	for i, arg := range a.Args(t) {
		args[i] = p.purify(arg)
	}
	//
	switch a.Op(t) {
	case term.OpDiv, term.OpMod:
		if k := args[1]; a.IsNum(k) && a.Value(k).Sign() != 0 {
			q, rem := p.divide(args[0], k)
			//
			if r = q; a.Op(t) == term.OpMod {
				r = rem
			}
		} else {
			r = a.Rebuild(t, args)
		}
	case term.OpAbs:
		zero := a.Num(new(big.Rat), a.Sort(t))
		r = p.conditional(a.Le(zero, args[0]), args[0], a.Mk(term.OpNeg, args[0]), a.Sort(t))
	case term.OpIte:
		if a.Sort(t) == term.BoolSort {
			r = a.Rebuild(t, args)
		} else {
			r = p.conditional(args[0], args[1], args[2], a.Sort(t))
		}
	default:
		r = a.Rebuild(t, args)
	}
	//
	p.cache[t] = r
	//
	return r
}

// divide introduces q and r such that t = k·q + r and 0 <= r < |k|.
func (p *purifier) divide(t term.Term, k term.Term) (term.Term, term.Term) {
	key := [2]term.Term{t, k}
	if qr, ok := p.divisions[key]; ok {
		return qr[0], qr[1]
	}
	//
	var (
		a     = p.arena
		q     = a.Fresh("q", term.IntSort)
		r     = a.Fresh("r", term.IntSort)
		bound = new(big.Rat).Abs(a.Value(k))
	)
	//
	bound.Sub(bound, big.NewRat(1, 1))
	//
	p.side = append(p.side,
		a.Eq(t, a.Add(a.Mul(k, q), r)),
		a.Le(a.Int(0), r),
		a.Le(r, a.Num(bound, term.IntSort)))
	//
	p.divisions[key] = [2]term.Term{q, r}
	//
	return q, r
}

// conditional introduces v such that cond => v = then and not cond => v = other.
func (p *purifier) conditional(cond, then, other term.Term, sort term.Sort) term.Term {
	var (
		a = p.arena
		v = a.Fresh("ite", sort)
	)
	//
	p.side = append(p.side,
		a.Implies(cond, a.Eq(v, then)),
		a.Implies(a.Not(cond), a.Eq(v, other)))
	//
	return v
}

// datatypeLemmas constructs the axioms relating testers and selectors for
// every datatype term to which a selector or tester is applied:
//
//	(=> ((_ is C) t) (= t (C (s₁ t) … (sₙ t))))   for every constructor C
//	(or ((_ is C₁) t) … ((_ is Cₘ) t))
//	(=> (= t u) (and (= (s t) (s u)) …))         for every other such u
//
// A selector applied to the wrong constructor is otherwise unconstrained.
func datatypeLemmas(arena *term.Arena, formulas []term.Term) []term.Term {
	var (
		sorts   = arena.Sorts()
		targets []term.Term
		seen    = make(map[term.Term]bool)
		lemmas  []term.Term
	)
	//
	for _, f := range formulas {
		arena.Walk(f, func(t term.Term) bool {
			if op := arena.Op(t); arena.Kind(t) == term.KindApp && (op == term.OpSel || op == term.OpIs) {
				if arg := arena.Arg(t, 0); !seen[arg] {
					seen[arg] = true
					targets = append(targets, arg)
				}
			}
			//
			return true
		})
	}
	//
	for _, t := range targets {
		var (
			dt      = sorts.Datatype(arena.Sort(t))
			testers []term.Term
		)
		//
		for _, c := range dt.Constructors {
			var (
				is, _ = arena.Is(c, t)
				args  = make([]term.Term, len(c.Fields))
			)
			//
			for i := range c.Fields {
				args[i], _ = arena.Select(c, i, t)
			}
			//
			lemmas = append(lemmas, arena.Implies(is, arena.Eq(t, arena.MkCons(c, args...))))
			testers = append(testers, is)
		}
		//
		lemmas = append(lemmas, arena.Or(testers...))
	}
	// Selectors are functions
	for i, t := range targets {
		for _, u := range targets[i+1:] {
			if arena.Sort(t) != arena.Sort(u) {
				continue
			}
			//
			var eqs []term.Term
			//
			for _, c := range sorts.Datatype(arena.Sort(t)).Constructors {
				for f := range c.Fields {
					st, _ := arena.Select(c, f, t)
					su, _ := arena.Select(c, f, u)
					eqs = append(eqs, arena.Eq(st, su))
				}
			}
			//
			if len(eqs) > 0 {
				lemmas = append(lemmas, arena.Implies(arena.Eq(t, u), arena.And(eqs...)))
			}
		}
	}
	//
	return lemmas
}
