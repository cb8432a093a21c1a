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
	"fmt"
	"math/big"
)

// True returns the literal true.
func (p *Arena) True() Term {
	return p.intern(node{kind: KindBool, sort: BoolSort, aux: 1})
}

// False returns the literal false.
func (p *Arena) False() Term {
	return p.intern(node{kind: KindBool, sort: BoolSort, aux: 0})
}

// Bool returns the literal for a given boolean.
func (p *Arena) Bool(b bool) Term {
	if b {
		return p.True()
	}
	//
	return p.False()
}

// Var returns the variable with a given name and sort.  Variables with the same
// name but different sorts are distinct.
func (p *Arena) Var(name string, sort Sort) Term {
	return p.intern(node{kind: KindVar, sort: sort, name: name})
}

// Int returns the integer numeral for a given value.
func (p *Arena) Int(v int64) Term {
	return p.Num(big.NewRat(v, 1), IntSort)
}

// Num returns the numeral of a given sort for a given value.  This panics if
// an integer numeral is requested for a non-integral value.
func (p *Arena) Num(v *big.Rat, sort Sort) Term {
	if sort != IntSort && sort != RealSort {
		panic(fmt.Sprintf("numeral of non-arithmetic sort %s", p.sorts.Name(sort)))
	} else if sort == IntSort && !v.IsInt() {
		panic(fmt.Sprintf("non-integral integer numeral %s", v.RatString()))
	}
	//
	return p.intern(node{kind: KindNum, sort: sort, value: new(big.Rat).Set(v)})
}

// Apply constructs the application of a builtin operator, checking that the
// arguments are well sorted.  Chainable operators (e.g. "=" and "<=") applied to
// more than two arguments are expanded into conjunctions, and implication
// associates to the right.
func (p *Arena) Apply(op Op, args ...Term) (Term, error) {
	switch op {
	case OpNot:
		if err := p.checkArity(op, args, 1, 1); err != nil {
			return NoTerm, err
		} else if err := p.checkSorts(op, args, BoolSort); err != nil {
			return NoTerm, err
		}
		//
		return p.app(op, BoolSort, args), nil
	case OpAnd, OpOr, OpXor:
		if err := p.checkSorts(op, args, BoolSort); err != nil {
			return NoTerm, err
		}
		//
		switch {
		case len(args) == 0 && op == OpAnd:
			return p.True(), nil
		case len(args) == 0:
			return p.False(), nil
		case len(args) == 1:
			return args[0], nil
		}
		//
		return p.app(op, BoolSort, args), nil
	case OpImplies:
		if err := p.checkArity(op, args, 2, -1); err != nil {
			return NoTerm, err
		} else if err := p.checkSorts(op, args, BoolSort); err != nil {
			return NoTerm, err
		}
		//
		t := args[len(args)-1]
		for i := len(args) - 2; i >= 0; i-- {
			t = p.app(op, BoolSort, []Term{args[i], t})
		}
		//
		return t, nil
	case OpEq, OpDistinct:
		if err := p.checkArity(op, args, 2, -1); err != nil {
			return NoTerm, err
		} else if err := p.checkSame(op, args); err != nil {
			return NoTerm, err
		} else if op == OpDistinct || len(args) == 2 {
			return p.app(op, BoolSort, args), nil
		}
		//
		return p.chain(op, args), nil
	case OpIte:
		if err := p.checkArity(op, args, 3, 3); err != nil {
			return NoTerm, err
		} else if p.Sort(args[0]) != BoolSort {
			return NoTerm, fmt.Errorf("expected Bool condition, got %s", p.sorts.Name(p.Sort(args[0])))
		} else if err := p.checkSame(op, args[1:]); err != nil {
			return NoTerm, err
		}
		//
		return p.app(op, p.joinSort(args[1:]), args), nil
	case OpLe, OpLt, OpGe, OpGt:
		if err := p.checkArity(op, args, 2, -1); err != nil {
			return NoTerm, err
		} else if err := p.checkArith(op, args); err != nil {
			return NoTerm, err
		} else if len(args) == 2 {
			return p.app(op, BoolSort, args), nil
		}
		//
		return p.chain(op, args), nil
	case OpAdd, OpMul, OpSub:
		if err := p.checkArity(op, args, 1, -1); err != nil {
			return NoTerm, err
		} else if err := p.checkArith(op, args); err != nil {
			return NoTerm, err
		} else if len(args) == 1 && op == OpSub {
			return p.app(OpNeg, p.Sort(args[0]), args), nil
		} else if len(args) == 1 {
			return args[0], nil
		}
		//
		return p.app(op, p.joinSort(args), args), nil
	case OpNeg, OpAbs:
		if err := p.checkArity(op, args, 1, 1); err != nil {
			return NoTerm, err
		} else if err := p.checkArith(op, args); err != nil {
			return NoTerm, err
		}
		//
		return p.app(op, p.Sort(args[0]), args), nil
	case OpDiv, OpMod:
		if err := p.checkArity(op, args, 2, 2); err != nil {
			return NoTerm, err
		} else if err := p.checkSorts(op, args, IntSort); err != nil {
			return NoTerm, err
		}
		//
		return p.app(op, IntSort, args), nil
	case OpRDiv:
		if err := p.checkArity(op, args, 2, 2); err != nil {
			return NoTerm, err
		} else if err := p.checkArith(op, args); err != nil {
			return NoTerm, err
		}
		//
		return p.app(op, RealSort, args), nil
	default:
		return NoTerm, fmt.Errorf("cannot apply operator %s", op)
	}
}

// Mk constructs the application of a builtin operator, panicking if the
// arguments are ill-sorted.  This is intended for use where the arguments are
// known to be well sorted.
func (p *Arena) Mk(op Op, args ...Term) Term {
	t, err := p.Apply(op, args...)
	if err != nil {
		panic(err.Error())
	}
	//
	return t
}

// Not constructs the negation of a formula.
func (p *Arena) Not(t Term) Term {
	return p.Mk(OpNot, t)
}

// And constructs a conjunction, which is true when there are no conjuncts.
func (p *Arena) And(ts ...Term) Term {
	return p.Mk(OpAnd, ts...)
}

// Or constructs a disjunction, which is false when there are no disjuncts.
func (p *Arena) Or(ts ...Term) Term {
	return p.Mk(OpOr, ts...)
}

// Implies constructs an implication.
func (p *Arena) Implies(lhs, rhs Term) Term {
	return p.Mk(OpImplies, lhs, rhs)
}

// Eq constructs an equality.
func (p *Arena) Eq(lhs, rhs Term) Term {
	return p.Mk(OpEq, lhs, rhs)
}

// Ite constructs an if-then-else term.
func (p *Arena) Ite(cond, then, other Term) Term {
	return p.Mk(OpIte, cond, then, other)
}

// Le constructs a non-strict inequality.
func (p *Arena) Le(lhs, rhs Term) Term {
	return p.Mk(OpLe, lhs, rhs)
}

// Lt constructs a strict inequality.
func (p *Arena) Lt(lhs, rhs Term) Term {
	return p.Mk(OpLt, lhs, rhs)
}

// Add constructs a sum.
func (p *Arena) Add(ts ...Term) Term {
	return p.Mk(OpAdd, ts...)
}

// Sub constructs a subtraction.
func (p *Arena) Sub(lhs, rhs Term) Term {
	return p.Mk(OpSub, lhs, rhs)
}

// Mul constructs a product.
func (p *Arena) Mul(ts ...Term) Term {
	return p.Mk(OpMul, ts...)
}

// Div constructs an integer division.
func (p *Arena) Div(lhs, rhs Term) Term {
	return p.Mk(OpDiv, lhs, rhs)
}

// Mod constructs an integer remainder.
func (p *Arena) Mod(lhs, rhs Term) Term {
	return p.Mk(OpMod, lhs, rhs)
}

// Cons constructs the application of a datatype constructor.
func (p *Arena) Cons(c *Constructor, args ...Term) (Term, error) {
	if len(args) != len(c.Fields) {
		return NoTerm, fmt.Errorf("constructor %s expects %d arguments, got %d", c.Name, len(c.Fields), len(args))
	}
	//
	for i, arg := range args {
		if !p.assignable(c.Fields[i].Sort, p.Sort(arg)) {
			return NoTerm, fmt.Errorf("constructor %s expects %s for %s, got %s", c.Name,
				p.sorts.Name(c.Fields[i].Sort), c.Fields[i].Name, p.sorts.Name(p.Sort(arg)))
		}
	}
	//
	return p.intern(node{kind: KindApp, op: OpCons, sort: c.Datatype, aux: c.id, args: clone(args)}), nil
}

// MkCons constructs the application of a datatype constructor, panicking if
// the arguments are ill-sorted.
func (p *Arena) MkCons(c *Constructor, args ...Term) Term {
	t, err := p.Cons(c, args...)
	if err != nil {
		panic(err.Error())
	}
	//
	return t
}

// Select constructs the application of the ith field selector of a
// constructor.
func (p *Arena) Select(c *Constructor, field int, arg Term) (Term, error) {
	if p.Sort(arg) != c.Datatype {
		return NoTerm, fmt.Errorf("selector %s expects %s, got %s", c.Fields[field].Name,
			p.sorts.Name(c.Datatype), p.sorts.Name(p.Sort(arg)))
	}
	//
	n := node{kind: KindApp, op: OpSel, sort: c.Fields[field].Sort, aux: c.id, field: uint32(field), args: []Term{arg}}
	//
	return p.intern(n), nil
}

// Is constructs the application of a constructor tester.
func (p *Arena) Is(c *Constructor, arg Term) (Term, error) {
	if p.Sort(arg) != c.Datatype {
		return NoTerm, fmt.Errorf("tester is-%s expects %s, got %s", c.Name, p.sorts.Name(c.Datatype),
			p.sorts.Name(p.Sort(arg)))
	}
	//
	return p.intern(node{kind: KindApp, op: OpIs, sort: BoolSort, aux: c.id, args: []Term{arg}}), nil
}

// Exists constructs an existential quantifier.
func (p *Arena) Exists(bound []Term, body Term) (Term, error) {
	return p.quantifier(KindExists, bound, body)
}

// Forall constructs a universal quantifier.
func (p *Arena) Forall(bound []Term, body Term) (Term, error) {
	return p.quantifier(KindForall, bound, body)
}

// Quantify constructs a quantifier of the same kind as a given quantifier, but
// with different bound variables and body.
func (p *Arena) Quantify(kind Kind, bound []Term, body Term) Term {
	t, err := p.quantifier(kind, bound, body)
	if err != nil {
		panic(err.Error())
	}
	//
	return t
}

// Rebuild constructs a term with the same head as a given application, but with
// different arguments of the same sorts.
func (p *Arena) Rebuild(t Term, args []Term) Term {
	n := p.nodes[t]
	//
	switch n.kind {
	case KindApp:
		if n.op != OpCons && n.op != OpSel && n.op != OpIs {
			// Recompute the sort, since Int/Real may be mixed
			return p.Mk(n.op, args...)
		}
		//
		n.args = clone(args)
		//
		return p.intern(n)
	case KindExists, KindForall:
		return p.Quantify(n.kind, args[:len(args)-1], args[len(args)-1])
	default:
		return t
	}
}

func (p *Arena) quantifier(kind Kind, bound []Term, body Term) (Term, error) {
	if len(bound) == 0 {
		return NoTerm, fmt.Errorf("quantifier binds no variables")
	} else if p.Sort(body) != BoolSort {
		return NoTerm, fmt.Errorf("quantifier body has sort %s", p.sorts.Name(p.Sort(body)))
	}
	//
	for _, v := range bound {
		if !p.IsVar(v) {
			return NoTerm, fmt.Errorf("quantifier binds a non-variable")
		}
	}
	//
	args := append(clone(bound), body)
	//
	return p.intern(node{kind: kind, sort: BoolSort, args: args}), nil
}

func (p *Arena) app(op Op, sort Sort, args []Term) Term {
	return p.intern(node{kind: KindApp, op: op, sort: sort, args: clone(args)})
}

// chain expands a chainable operator (e.g. (<= a b c)) into a conjunction of
// binary applications.
func (p *Arena) chain(op Op, args []Term) Term {
	conjuncts := make([]Term, len(args)-1)
	//
	for i := range conjuncts {
		conjuncts[i] = p.app(op, BoolSort, args[i:i+2])
	}
	//
	return p.app(OpAnd, BoolSort, conjuncts)
}

func (p *Arena) checkArity(op Op, args []Term, lo int, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("operator %s applied to %d arguments", op, len(args))
	}
	//
	return nil
}

func (p *Arena) checkSorts(op Op, args []Term, sort Sort) error {
	for _, arg := range args {
		if p.Sort(arg) != sort {
			return fmt.Errorf("operator %s expects %s, got %s", op, p.sorts.Name(sort), p.sorts.Name(p.Sort(arg)))
		}
	}
	//
	return nil
}

func (p *Arena) checkArith(op Op, args []Term) error {
	for _, arg := range args {
		if !p.sorts.IsArith(p.Sort(arg)) {
			return fmt.Errorf("operator %s expects Int or Real, got %s", op, p.sorts.Name(p.Sort(arg)))
		}
	}
	//
	return nil
}

func (p *Arena) checkSame(op Op, args []Term) error {
	for _, arg := range args[1:] {
		if !p.assignable(p.Sort(args[0]), p.Sort(arg)) {
			return fmt.Errorf("operator %s applied to %s and %s", op, p.sorts.Name(p.Sort(args[0])),
				p.sorts.Name(p.Sort(arg)))
		}
	}
	//
	return nil
}

// assignable checks whether values of one sort can be used where another is
// expected.  Integers may be used as reals.
func (p *Arena) assignable(to Sort, from Sort) bool {
	return to == from || (to == RealSort && from == IntSort) || (to == IntSort && from == RealSort)
}

// joinSort determines the result sort of an arithmetic operation (or ite) over
// a given set of arguments.
func (p *Arena) joinSort(args []Term) Sort {
	sort := p.Sort(args[0])
	//
	for _, arg := range args[1:] {
		if p.Sort(arg) == RealSort {
			sort = RealSort
		}
	}
	//
	return sort
}

func clone(args []Term) []Term {
	return append([]Term(nil), args...)
}

var opNames = [...]string{
	OpNone:     "?",
	OpNot:      "not",
	OpAnd:      "and",
	OpOr:       "or",
	OpImplies:  "=>",
	OpXor:      "xor",
	OpEq:       "=",
	OpDistinct: "distinct",
	OpIte:      "ite",
	OpLe:       "<=",
	OpLt:       "<",
	OpGe:       ">=",
	OpGt:       ">",
	OpAdd:      "+",
	OpSub:      "-",
	OpNeg:      "-",
	OpMul:      "*",
	OpDiv:      "div",
	OpMod:      "mod",
	OpRDiv:     "/",
	OpAbs:      "abs",
	OpCons:     "cons",
	OpSel:      "select",
	OpIs:       "is",
}

func (op Op) String() string {
	return opNames[op]
}

// LookupOp finds the builtin operator with a given SMT-LIB name.  Note that "-"
// always resolves to subtraction, since unary minus is derived from it.
func LookupOp(name string) (Op, bool) {
	for op := OpNot; op <= OpAbs; op++ {
		if op != OpNeg && opNames[op] == name {
			return op, true
		}
	}
	//
	return OpNone, false
}
