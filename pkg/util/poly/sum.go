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
package poly

import (
	"bytes"
	"cmp"
	"math/big"
	"slices"
)

// Monomial represents a single term c·v within a linear sum.
type Monomial[V cmp.Ordered] struct {
	Var   V
	Coeff *big.Rat
}

// Sum represents a linear combination c₁·v₁ + … + cₙ·vₙ + k of variables over
// the rationals.  Terms are kept sorted by variable, with no zero coefficients
// and no repeated variables.  A Sum is treated as an immutable value: every
// operation returns a fresh Sum and never modifies the rationals of its
// operands.  An uninitialised Sum is zero.
type Sum[V cmp.Ordered] struct {
	terms    []Monomial[V]
	constant *big.Rat
}

// Const constructs a sum representing just a constant.
func Const[V cmp.Ordered](k *big.Rat) Sum[V] {
	if k.Sign() == 0 {
		return Sum[V]{}
	}
	//
	return Sum[V]{nil, new(big.Rat).Set(k)}
}

// ConstInt64 constructs a sum representing a small integer constant.
func ConstInt64[V cmp.Ordered](k int64) Sum[V] {
	return Const[V](big.NewRat(k, 1))
}

// Var constructs a sum representing a single variable with coefficient one.
func Var[V cmp.Ordered](v V) Sum[V] {
	return Sum[V]{[]Monomial[V]{{v, big.NewRat(1, 1)}}, nil}
}

// Len returns the number of (non-constant) terms in this sum.
func (p Sum[V]) Len() int {
	return len(p.terms)
}

// Terms returns the (non-constant) terms of this sum, sorted by variable.
func (p Sum[V]) Terms() []Monomial[V] {
	return p.terms
}

// Vars returns the variables of this sum, in sorted order.
func (p Sum[V]) Vars() []V {
	vars := make([]V, len(p.terms))
	//
	for i, t := range p.terms {
		vars[i] = t.Var
	}
	//
	return vars
}

// Constant returns the constant part of this sum.
func (p Sum[V]) Constant() *big.Rat {
	if p.constant == nil {
		return new(big.Rat)
	}
	//
	return p.constant
}

// IsConstant checks whether this sum has no variable terms.
func (p Sum[V]) IsConstant() bool {
	return len(p.terms) == 0
}

// IsZero checks whether this sum is identically zero.
func (p Sum[V]) IsZero() bool {
	return len(p.terms) == 0 && p.Constant().Sign() == 0
}

// Coeff returns the coefficient of a given variable, which is zero when the
// variable does not occur.
func (p Sum[V]) Coeff(v V) *big.Rat {
	if i, ok := p.find(v); ok {
		return p.terms[i].Coeff
	}
	//
	return new(big.Rat)
}

// Has checks whether a given variable occurs in this sum.
func (p Sum[V]) Has(v V) bool {
	_, ok := p.find(v)
	return ok
}

// Add another sum onto this sum.
func (p Sum[V]) Add(other Sum[V]) Sum[V] {
	var (
		terms = make([]Monomial[V], 0, len(p.terms)+len(other.terms))
		i, j  int
	)
	// Merge sorted term lists
	for i < len(p.terms) || j < len(other.terms) {
		switch {
		case j == len(other.terms) || (i < len(p.terms) && p.terms[i].Var < other.terms[j].Var):
			terms = append(terms, p.terms[i])
			i++
		case i == len(p.terms) || other.terms[j].Var < p.terms[i].Var:
			terms = append(terms, other.terms[j])
			j++
		default:
			c := new(big.Rat).Add(p.terms[i].Coeff, other.terms[j].Coeff)
			if c.Sign() != 0 {
				terms = append(terms, Monomial[V]{p.terms[i].Var, c})
			}
			//
			i++
			j++
		}
	}
	//
	return Sum[V]{terms, nonZero(new(big.Rat).Add(p.Constant(), other.Constant()))}
}

// Sub subtracts another sum from this sum.
func (p Sum[V]) Sub(other Sum[V]) Sum[V] {
	return p.Add(other.Neg())
}

// Neg negates this sum.
func (p Sum[V]) Neg() Sum[V] {
	return p.Scale(big.NewRat(-1, 1))
}

// Scale multiplies this sum by a constant.
func (p Sum[V]) Scale(k *big.Rat) Sum[V] {
	if k.Sign() == 0 {
		return Sum[V]{}
	}
	//
	terms := make([]Monomial[V], len(p.terms))
	//
	for i, t := range p.terms {
		terms[i] = Monomial[V]{t.Var, new(big.Rat).Mul(t.Coeff, k)}
	}
	//
	return Sum[V]{terms, nonZero(new(big.Rat).Mul(p.Constant(), k))}
}

// AddConst adds a constant onto this sum.
func (p Sum[V]) AddConst(k *big.Rat) Sum[V] {
	return Sum[V]{p.terms, nonZero(new(big.Rat).Add(p.Constant(), k))}
}

// Without removes the term for a given variable (if present).
func (p Sum[V]) Without(v V) Sum[V] {
	if i, ok := p.find(v); ok {
		terms := append(slices.Grow([]Monomial[V](nil), len(p.terms)-1), p.terms[:i]...)
		terms = append(terms, p.terms[i+1:]...)
		return Sum[V]{terms, p.constant}
	}
	//
	return p
}

// Substitute replaces a given variable by a sum.
func (p Sum[V]) Substitute(v V, s Sum[V]) Sum[V] {
	if i, ok := p.find(v); ok {
		c := p.terms[i].Coeff
		return p.Without(v).Add(s.Scale(c))
	}
	//
	return p
}

// Equal checks whether two sums are identical.
func (p Sum[V]) Equal(other Sum[V]) bool {
	if len(p.terms) != len(other.terms) || p.Constant().Cmp(other.Constant()) != 0 {
		return false
	}
	//
	for i := range p.terms {
		if p.terms[i].Var != other.terms[i].Var || p.terms[i].Coeff.Cmp(other.terms[i].Coeff) != 0 {
			return false
		}
	}
	//
	return true
}

// Eval evaluates this sum under a given assignment of variables.
func (p Sum[V]) Eval(env func(V) *big.Rat) *big.Rat {
	val := new(big.Rat).Set(p.Constant())
	//
	for _, t := range p.terms {
		val.Add(val, new(big.Rat).Mul(t.Coeff, env(t.Var)))
	}
	//
	return val
}

// Denominators returns the least common multiple of all denominators in this
// sum.  Multiplying by this gives a sum with integer coefficients.
func (p Sum[V]) Denominators() *big.Int {
	lcm := big.NewInt(1)
	//
	for _, t := range p.terms {
		lcm = Lcm(lcm, t.Coeff.Denom())
	}
	//
	return Lcm(lcm, p.Constant().Denom())
}

// CoeffGcd returns the greatest common divisor of the (integer) variable
// coefficients of this sum, or zero if it has no variable terms.  This assumes
// the coefficients are all integers.
func (p Sum[V]) CoeffGcd() *big.Int {
	gcd := new(big.Int)
	//
	for _, t := range p.terms {
		gcd.GCD(nil, nil, gcd, new(big.Int).Abs(t.Coeff.Num()))
	}
	//
	return gcd
}

// String constructs a suitable string representation for a given sum
// assuming an environment which maps variables to strings.
func (p Sum[V]) String(env func(V) string) string {
	var buf bytes.Buffer
	//
	for i, t := range p.terms {
		if i != 0 {
			buf.WriteString(" + ")
		}
		//
		if !t.Coeff.IsInt() || t.Coeff.Num().Cmp(big.NewInt(1)) != 0 {
			buf.WriteString(t.Coeff.RatString())
			buf.WriteString("*")
		}
		//
		buf.WriteString(env(t.Var))
	}
	//
	if len(p.terms) == 0 || p.Constant().Sign() != 0 {
		if len(p.terms) != 0 {
			buf.WriteString(" + ")
		}
		//
		buf.WriteString(p.Constant().RatString())
	}
	//
	return buf.String()
}

func (p Sum[V]) find(v V) (int, bool) {
	return slices.BinarySearchFunc(p.terms, v, func(m Monomial[V], v V) int {
		return cmp.Compare(m.Var, v)
	})
}

func nonZero(k *big.Rat) *big.Rat {
	if k.Sign() == 0 {
		return nil
	}
	//
	return k
}

// Lcm computes the least common multiple of two (positive) integers.
func Lcm(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	//
	gcd := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
	lcm := new(big.Int).Mul(new(big.Int).Abs(a), new(big.Int).Abs(b))
	//
	return lcm.Div(lcm, gcd)
}
