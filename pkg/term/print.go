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
	"strings"

	"github.com/r1ceplus/z3/pkg/util/source/sexp"
)

// SExp translates a term into its SMT-LIB s-expression.
func (p *Arena) SExp(t Term) sexp.SExp {
	n := &p.nodes[t]
	//
	switch n.kind {
	case KindBool:
		if n.aux == 1 {
			return sexp.NewSymbol("true")
		}
		//
		return sexp.NewSymbol("false")
	case KindNum:
		return numeral(n.value, n.sort)
	case KindVar:
		return sexp.NewSymbol(n.name)
	case KindExists, KindForall:
		bound := sexp.EmptyList()
		//
		for _, v := range p.Bound(t) {
			bound.Append(sexp.List2(p.Name(v), p.SortSExp(p.Sort(v))))
		}
		//
		head := "exists"
		if n.kind == KindForall {
			head = "forall"
		}
		//
		return sexp.List2(head, bound, p.SExp(p.Body(t)))
	}
	//
	args := make([]sexp.SExp, len(n.args))
	for i, arg := range n.args {
		args[i] = p.SExp(arg)
	}
	//
	switch n.op {
	case OpCons:
		ctor := p.sorts.Constructor(n.aux)
		if len(args) == 0 {
			return sexp.NewSymbol(ctor.Name)
		}
		//
		return sexp.List2(ctor.Name, args...)
	case OpSel:
		ctor := p.sorts.Constructor(n.aux)
		return sexp.List2(ctor.Fields[n.field].Name, args...)
	case OpIs:
		ctor := p.sorts.Constructor(n.aux)
		tester := sexp.List2("_", sexp.NewSymbol("is"), sexp.NewSymbol(ctor.Name))
		//
		return sexp.NewList(append([]sexp.SExp{tester}, args...))
	default:
		return sexp.List2(n.op.String(), args...)
	}
}

// SortSExp translates a sort into its SMT-LIB s-expression.
func (p *Arena) SortSExp(s Sort) sexp.SExp {
	return sexp.NewSymbol(p.sorts.Name(s))
}

// String returns the SMT-LIB text of a term on a single line.
func (p *Arena) String(t Term) string {
	return p.SExp(t).String(true)
}

// Strings returns the SMT-LIB text of a list of terms, separated by spaces.
func (p *Arena) Strings(ts ...Term) string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = p.String(t)
	}
	//
	return strings.Join(strs, " ")
}

// Pretty returns the SMT-LIB text of a term, broken over multiple lines so as to
// fit within a given width (where possible).
func (p *Arena) Pretty(t Term, width uint) string {
	return Formatter(width).Format(p.SExp(t))
}

// Formatter constructs the s-expression formatter used for printing formulas.
func Formatter(width uint) *sexp.Formatter {
	return sexp.NewFormatter(width).
		Add(&sexp.SFormatter{Head: "exists", Priority: 0}).
		Add(&sexp.SFormatter{Head: "forall", Priority: 0}).
		Add(&sexp.SFormatter{Head: "define-fun", Priority: 0}).
		Add(&sexp.SFormatter{Head: "=>", Priority: 1}).
		Add(&sexp.SFormatter{Head: "ite", Priority: 2}).
		Add(&sexp.IFormatter{Head: "and", Priority: 1}).
		Add(&sexp.IFormatter{Head: "or", Priority: 1}).
		Add(&sexp.IFormatter{Head: "model", Priority: 0})
}

// SortByName sorts a list of variables by name (and then by handle), giving a
// stable order for printing.
func (p *Arena) SortByName(vars []Term) {
	slices.SortFunc(vars, func(a, b Term) int {
		if c := strings.Compare(p.nodes[a].name, p.nodes[b].name); c != 0 {
			return c
		}
		//
		return int(a) - int(b)
	})
}

// numeral renders a numeral in SMT-LIB form, e.g. 1, (- 1), 1.0 or (/ 1 2).
func numeral(v *big.Rat, sort Sort) sexp.SExp {
	var (
		abs = new(big.Rat).Abs(v)
		e   sexp.SExp
	)
	//
	switch {
	case sort == IntSort:
		e = sexp.NewSymbol(abs.Num().String())
	case abs.IsInt():
		e = sexp.NewSymbol(abs.Num().String() + ".0")
	default:
		e = sexp.List2("/", sexp.NewSymbol(abs.Num().String()+".0"), sexp.NewSymbol(abs.Denom().String()+".0"))
	}
	//
	if v.Sign() < 0 {
		return sexp.List2("-", e)
	}
	//
	return e
}
