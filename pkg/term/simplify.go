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
package term

import (
	"math/big"
	"slices"

	"github.com/r1ceplus/z3/pkg/util/poly"
)

// Simplifier rewrites terms into equivalent, usually smaller, terms.  It folds
// constants, flattens connectives and brings arithmetic atoms into the
// canonical form "Σcᵢ·xᵢ ⋈ k", where ⋈ is one of =, <= or <.  For integer atoms
// the coefficients are coprime, and strict inequalities are tightened into
// non-strict ones.  Results are memoised, so a simplifier should be reused
// across related terms.
type Simplifier struct {
	arena *Arena
	cache map[Term]Term
}

// NewSimplifier constructs a simplifier for terms in a given arena.
func NewSimplifier(arena *Arena) *Simplifier {
	return &Simplifier{arena, make(map[Term]Term)}
}

// Simplify a term in a given arena.  This is a convenience which does not
// share memoised results between calls.
func (p *Arena) Simplify(t Term) Term {
	return NewSimplifier(p).Simplify(t)
}

// Simplify a given term.
func (p *Simplifier) Simplify(t Term) Term {
	if r, ok := p.cache[t]; ok {
		return r
	}
	//
	var (
		a = p.arena
		r Term
	)
	//
	switch a.Kind(t) {
	case KindApp:
		args := a.Args(t)
		nargs := make([]Term, len(args))
		//
		for i, arg := range args {
			nargs[i] = p.Simplify(arg)
		}
		//
		r = p.simplifyApp(t, nargs)
	case KindExists, KindForall:
		r = p.simplifyQuantifier(t)
	default:
		r = t
	}
	//
	p.cache[t] = r
	//
	return r
}

func (p *Simplifier) simplifyApp(t Term, args []Term) Term {
	a := p.arena
	//
	switch a.Op(t) {
	case OpNot:
		return p.not(args[0])
	case OpAnd:
		return p.and(args)
	case OpOr:
		return p.or(args)
	case OpImplies:
		return p.or([]Term{p.not(args[0]), args[1]})
	case OpXor:
		r := args[0]
		for _, arg := range args[1:] {
			r = p.not(p.eq(r, arg))
		}
		//
		return r
	case OpEq:
		return p.eq(args[0], args[1])
	case OpDistinct:
		var conjuncts []Term
		//
		for i := range args {
			for j := i + 1; j < len(args); j++ {
				conjuncts = append(conjuncts, p.not(p.eq(args[i], args[j])))
			}
		}
		//
		return p.and(conjuncts)
	case OpIte:
		return p.ite(args[0], args[1], args[2])
	case OpLe:
		return p.compare(OpLe, args[0], args[1])
	case OpLt:
		return p.compare(OpLt, args[0], args[1])
	case OpGe:
		return p.compare(OpLe, args[1], args[0])
	case OpGt:
		return p.compare(OpLt, args[1], args[0])
	case OpAdd, OpSub, OpNeg, OpMul, OpRDiv:
		r := a.Rebuild(t, args)
		return a.FromSum(a.Linearize(r), a.Sort(t))
	case OpDiv, OpMod:
		return p.divMod(a.Op(t), args[0], args[1])
	case OpAbs:
		if a.IsNum(args[0]) {
			return a.Num(new(big.Rat).Abs(a.Value(args[0])), a.Sort(t))
		}
	case OpSel:
		if arg := args[0]; a.IsConstructorApp(arg) && a.Constructor(arg) == a.Constructor(t) {
			return a.Arg(arg, a.Field(t))
		}
	case OpIs:
		if arg := args[0]; a.IsConstructorApp(arg) {
			return a.Bool(a.Constructor(arg) == a.Constructor(t))
		}
	}
	//
	return a.Rebuild(t, args)
}

func (p *Simplifier) simplifyQuantifier(t Term) Term {
	var (
		a     = p.arena
		body  = p.Simplify(a.Body(t))
		bound []Term
	)
	//
	for _, v := range a.Bound(t) {
		if a.Occurs(v, body) {
			bound = append(bound, v)
		}
	}
	//
	if len(bound) == 0 {
		return body
	}
	//
	return a.Quantify(a.Kind(t), bound, body)
}

func (p *Simplifier) not(t Term) Term {
	a := p.arena
	//
	switch {
	case a.IsTrue(t):
		return a.False()
	case a.IsFalse(t):
		return a.True()
	case a.Op(t) == OpNot:
		return a.Arg(t, 0)
	case a.Op(t) == OpLe:
		return p.compare(OpLt, a.Arg(t, 1), a.Arg(t, 0))
	case a.Op(t) == OpLt:
		return p.compare(OpLe, a.Arg(t, 1), a.Arg(t, 0))
	}
	//
	return a.Not(t)
}

func (p *Simplifier) and(args []Term) Term {
	a := p.arena
	conjuncts := make([]Term, 0, len(args))
	//
	for _, arg := range args {
		if a.IsFalse(arg) {
			return arg
		} else if a.Op(arg) == OpAnd {
			conjuncts = append(conjuncts, a.Args(arg)...)
		} else if !a.IsTrue(arg) {
			conjuncts = append(conjuncts, arg)
		}
	}
	//
	conjuncts = dedup(conjuncts)
	//
	if p.complementary(conjuncts) {
		return a.False()
	}
	//
	return a.And(conjuncts...)
}

func (p *Simplifier) or(args []Term) Term {
	a := p.arena
	disjuncts := make([]Term, 0, len(args))
	//
	for _, arg := range args {
		if a.IsTrue(arg) {
			return arg
		} else if a.Op(arg) == OpOr {
			disjuncts = append(disjuncts, a.Args(arg)...)
		} else if !a.IsFalse(arg) {
			disjuncts = append(disjuncts, arg)
		}
	}
	//
	disjuncts = dedup(disjuncts)
	//
	if p.complementary(disjuncts) {
		return a.True()
	}
	//
	return a.Or(disjuncts...)
}

func (p *Simplifier) ite(cond, then, other Term) Term {
	a := p.arena
	//
	switch {
	case a.IsTrue(cond):
		return then
	case a.IsFalse(cond):
		return other
	case then == other:
		return then
	case a.IsTrue(then) && a.IsFalse(other):
		return cond
	case a.IsFalse(then) && a.IsTrue(other):
		return p.not(cond)
	}
	//
	return a.Ite(cond, then, other)
}

func (p *Simplifier) eq(lhs, rhs Term) Term {
	a := p.arena
	//
	if lhs == rhs {
		return a.True()
	}
	//
	switch s := a.Sort(lhs); {
	case s == BoolSort:
		switch {
		case a.IsTrue(lhs):
			return rhs
		case a.IsTrue(rhs):
			return lhs
		case a.IsFalse(lhs):
			return p.not(rhs)
		case a.IsFalse(rhs):
			return p.not(lhs)
		}
	case a.sorts.IsArith(s):
		return p.compare(OpEq, lhs, rhs)
	default:
		return p.datatypeEq(lhs, rhs)
	}
	//
	return a.Eq(min(lhs, rhs), max(lhs, rhs))
}

func (p *Simplifier) datatypeEq(lhs, rhs Term) Term {
	a := p.arena
	//
	if a.IsConstructorApp(lhs) && a.IsConstructorApp(rhs) {
		if a.Constructor(lhs) != a.Constructor(rhs) {
			return a.False()
		}
		//
		var conjuncts []Term
		for i, arg := range a.Args(lhs) {
			conjuncts = append(conjuncts, p.eq(arg, a.Arg(rhs, i)))
		}
		//
		return p.and(conjuncts)
	} else if a.consContains(lhs, rhs) || a.consContains(rhs, lhs) {
		// Datatype values are finite trees
		return a.False()
	}
	//
	return a.Eq(min(lhs, rhs), max(lhs, rhs))
}

// consContains checks whether a term occurs as a proper subterm of a
// constructor application, reached only through constructor arguments.
func (p *Arena) consContains(outer Term, inner Term) bool {
	if !p.IsConstructorApp(outer) {
		return false
	}
	//
	for _, arg := range p.Args(outer) {
		if arg == inner || p.consContains(arg, inner) {
			return true
		}
	}
	//
	return false
}

// compare canonicalises the arithmetic atom "lhs op rhs", where op is one of =,
// <= or <.
func (p *Simplifier) compare(op Op, lhs, rhs Term) Term {
	var (
		a = p.arena
		s = a.Linearize(lhs).Sub(a.Linearize(rhs))
		k = new(big.Rat).Neg(s.Constant())
		e = s.AddConst(k)
	)
	// Constant comparisons
	if e.IsConstant() {
		c := new(big.Rat).Neg(k).Sign()
		//
		switch op {
		case OpEq:
			return a.Bool(c == 0)
		case OpLe:
			return a.Bool(c <= 0)
		default:
			return a.Bool(c < 0)
		}
	}
	// Clear denominators
	scale := new(big.Rat).SetInt(poly.Lcm(e.Denominators(), k.Denom()))
	e, k = e.Scale(scale), k.Mul(k, scale)
	//
	sort := RealSort
	//
	if a.IsIntegral(e) {
		sort = IntSort
		g := new(big.Rat).SetInt(e.CoeffGcd())
		//
		switch op {
		case OpEq:
			if !new(big.Rat).Quo(k, g).IsInt() {
				return a.False()
			}
			//
			e, k = e.Scale(new(big.Rat).Inv(g)), k.Quo(k, g)
		case OpLt:
			// e < k iff e <= k-1
			k.Sub(k, big.NewRat(1, 1))
			op = OpLe
			//
			fallthrough
		default:
			e = e.Scale(new(big.Rat).Inv(g))
			// Euclidean division is flooring for positive divisors
			k = new(big.Rat).SetInt(new(big.Int).Div(k.Num(), g.Num()))
		}
	} else {
		g := new(big.Rat).SetInt(e.CoeffGcd())
		e, k = e.Scale(new(big.Rat).Inv(g)), k.Quo(k, g)
	}
	// Equalities have a positive leading coefficient
	if op == OpEq && e.Terms()[0].Coeff.Sign() < 0 {
		e, k = e.Neg(), k.Neg(k)
	}
	//
	return a.Mk(op, a.FromSum(e, sort), a.Num(k, sort))
}

// divMod simplifies integer division and remainder.
func (p *Simplifier) divMod(op Op, lhs, rhs Term) Term {
	a := p.arena
	//
	if !a.IsNum(rhs) || a.Value(rhs).Sign() == 0 {
		return a.Mk(op, lhs, rhs)
	}
	//
	k := a.Value(rhs).Num()
	//
	if a.IsNum(lhs) {
		q, r := EuclidDivMod(a.Value(lhs).Num(), k)
		if op == OpDiv {
			return a.Num(new(big.Rat).SetInt(q), IntSort)
		}
		//
		return a.Num(new(big.Rat).SetInt(r), IntSort)
	} else if k.CmpAbs(big.NewInt(1)) == 0 {
		if op == OpMod {
			return a.Int(0)
		} else if k.Sign() > 0 {
			return lhs
		}
		//
		return a.FromSum(a.Linearize(lhs).Neg(), IntSort)
	} else if op == OpMod {
		// Coefficients can be reduced modulo |k|
		s := a.Linearize(lhs)
		if !a.IsIntegral(s) || s.Denominators().Cmp(big.NewInt(1)) != 0 {
			return a.Mk(op, lhs, rhs)
		}
		//
		var (
			m = new(big.Int).Abs(k)
			r = poly.ConstInt64[Term](0)
		)
		//
		for _, t := range s.Terms() {
			if c := new(big.Int).Mod(t.Coeff.Num(), m); c.Sign() != 0 {
				r = r.Add(poly.Var(t.Var).Scale(new(big.Rat).SetInt(c)))
			}
		}
		//
		r = r.AddConst(new(big.Rat).SetInt(new(big.Int).Mod(s.Constant().Num(), m)))
		//
		if r.IsConstant() {
			return a.Num(r.Constant(), IntSort)
		}
		//
		return a.Mk(op, a.FromSum(r, IntSort), rhs)
	}
	// Multiples of k can be pulled out, since (div (+ e (* k m)) k) is
	// (+ (div e k) m)
	s := a.Linearize(lhs)
	if !a.IsIntegral(s) || s.Denominators().Cmp(big.NewInt(1)) != 0 {
		return a.Mk(op, lhs, rhs)
	}
	//
	var (
		q, r    = EuclidDivMod(s.Constant().Num(), k)
		quot    = poly.Const[Term](new(big.Rat).SetInt(q))
		rest    = poly.Const[Term](new(big.Rat).SetInt(r))
		divisor = new(big.Rat).SetInt(k)
	)
	//
	for _, t := range s.Terms() {
		if new(big.Int).Rem(t.Coeff.Num(), k).Sign() == 0 {
			quot = quot.Add(poly.Var(t.Var).Scale(new(big.Rat).Quo(t.Coeff, divisor)))
		} else {
			rest = rest.Add(poly.Var(t.Var).Scale(t.Coeff))
		}
	}
	//
	if rest.IsConstant() {
		// 0 <= r < |k|
		return a.FromSum(quot, IntSort)
	} else if quot.IsConstant() && quot.Constant().Sign() == 0 {
		return a.Mk(op, a.FromSum(rest, IntSort), rhs)
	}
	//
	return a.FromSum(quot.Add(poly.Var(a.Mk(op, a.FromSum(rest, IntSort), rhs))), IntSort)
}

// EuclidDivMod computes Euclidean division, where the remainder r always
// satisfies 0 <= r < |k|.  This matches the semantics of div and mod in
// SMT-LIB.  The divisor must be non-zero.
func EuclidDivMod(n *big.Int, k *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).DivMod(n, k, new(big.Int))
	return q, r
}

// dedup removes repeated terms, preserving the order of first occurrence.
func dedup(ts []Term) []Term {
	seen := make(map[Term]bool, len(ts))
	res := ts[:0]
	//
	for _, t := range ts {
		if !seen[t] {
			seen[t] = true
			res = append(res, t)
		}
	}
	//
	return res
}

// complementary checks whether a list contains both some formula and its
// (simplified) negation.
func (p *Simplifier) complementary(ts []Term) bool {
	for i, t := range ts {
		if nt := p.not(t); slices.Contains(ts[i+1:], nt) || slices.Contains(ts[:i], nt) {
			return true
		}
	}
	//
	return false
}
