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

	"github.com/r1ceplus/z3/pkg/util/poly"
)

// Sum is a linear combination of arithmetic atoms.  An atom is any arithmetic
// term which is not itself linear, such as a variable, a selector application
// or an integer division.
type Sum = poly.Sum[Term]

// Linearize an arithmetic term into a linear combination of atoms.  Non-linear
// subterms (e.g. the product of two variables) are treated as opaque atoms.
func (p *Arena) Linearize(t Term) Sum {
	n := &p.nodes[t]
	//
	switch {
	case n.kind == KindNum:
		return poly.Const[Term](n.value)
	case n.kind != KindApp:
		return poly.Var(t)
	}
	//
	switch n.op {
	case OpAdd:
		var s Sum
		for _, arg := range n.args {
			s = s.Add(p.Linearize(arg))
		}
		//
		return s
	case OpSub:
		s := p.Linearize(n.args[0])
		for _, arg := range n.args[1:] {
			s = s.Sub(p.Linearize(arg))
		}
		//
		return s
	case OpNeg:
		return p.Linearize(n.args[0]).Neg()
	case OpMul:
		var (
			factor = big.NewRat(1, 1)
			linear *Sum
		)
		//
		for _, arg := range n.args {
			s := p.Linearize(arg)
			//
			switch {
			case s.IsConstant():
				factor.Mul(factor, s.Constant())
			case linear == nil:
				linear = &s
			default:
				// Non-linear
				return poly.Var(t)
			}
		}
		//
		if linear == nil {
			return poly.Const[Term](factor)
		}
		//
		return linear.Scale(factor)
	case OpRDiv:
		if d := p.Linearize(n.args[1]); d.IsConstant() && d.Constant().Sign() != 0 {
			return p.Linearize(n.args[0]).Scale(new(big.Rat).Inv(d.Constant()))
		}
	}
	//
	return poly.Var(t)
}

// FromSum constructs an arithmetic term of a given sort from a linear
// combination of atoms.
func (p *Arena) FromSum(s Sum, sort Sort) Term {
	var args []Term
	//
	for _, m := range s.Terms() {
		switch {
		case m.Coeff.Cmp(big.NewRat(1, 1)) == 0:
			args = append(args, m.Var)
		case m.Coeff.Cmp(big.NewRat(-1, 1)) == 0:
			args = append(args, p.app(OpNeg, p.Sort(m.Var), []Term{m.Var}))
		default:
			args = append(args, p.Mul(p.numOf(m.Coeff, sort), m.Var))
		}
	}
	//
	if k := s.Constant(); k.Sign() != 0 || len(args) == 0 {
		args = append(args, p.numOf(k, sort))
	}
	//
	if len(args) == 1 {
		return args[0]
	}
	//
	return p.Add(args...)
}

// IsIntegral checks whether every atom of a sum has integer sort, meaning the
// sum takes integer values whenever its coefficients are integers.
func (p *Arena) IsIntegral(s Sum) bool {
	for _, m := range s.Terms() {
		if p.Sort(m.Var) != IntSort {
			return false
		}
	}
	//
	return true
}

// numOf constructs a numeral of the given sort where possible, falling back to
// a real numeral for non-integral values.
func (p *Arena) numOf(v *big.Rat, sort Sort) Term {
	if sort == IntSort && !v.IsInt() {
		sort = RealSort
	}
	//
	return p.Num(v, sort)
}
