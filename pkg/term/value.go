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
	"strings"
)

// Value is a concrete value of some sort: a boolean, a rational number or a
// finite datatype tree.
type Value struct {
	sort Sort
	// Boolean value
	b bool
	// Numeric value
	num *big.Rat
	// Datatype value
	ctor *Constructor
	args []Value
}

// BoolValue constructs a boolean value.
func BoolValue(b bool) Value {
	return Value{sort: BoolSort, b: b}
}

// NumValue constructs a numeric value of a given sort.
func NumValue(v *big.Rat, sort Sort) Value {
	return Value{sort: sort, num: new(big.Rat).Set(v)}
}

// IntValue constructs an integer value.
func IntValue(v int64) Value {
	return Value{sort: IntSort, num: big.NewRat(v, 1)}
}

// DatatypeValue constructs a datatype value from a constructor and its
// arguments.
func DatatypeValue(ctor *Constructor, args ...Value) Value {
	return Value{sort: ctor.Datatype, ctor: ctor, args: args}
}

// Sort returns the sort of this value.
func (v Value) Sort() Sort {
	return v.sort
}

// Bool returns the boolean held by this value.
func (v Value) Bool() bool {
	return v.b
}

// Num returns the number held by this value.  The result must not be
// modified.
func (v Value) Num() *big.Rat {
	return v.num
}

// Constructor returns the outermost constructor of a datatype value.
func (v Value) Constructor() *Constructor {
	return v.ctor
}

// Args returns the constructor arguments of a datatype value.
func (v Value) Args() []Value {
	return v.args
}

// Equal checks whether two values are identical.  Integers and reals compare by
// number.
func (v Value) Equal(o Value) bool {
	switch {
	case v.num != nil && o.num != nil:
		return v.num.Cmp(o.num) == 0
	case v.ctor != nil && o.ctor != nil:
		if v.ctor != o.ctor {
			return false
		}
		//
		for i := range v.args {
			if !v.args[i].Equal(o.args[i]) {
				return false
			}
		}
		//
		return true
	case v.sort == BoolSort && o.sort == BoolSort:
		return v.b == o.b
	default:
		return false
	}
}

// ValueTerm converts a value into a (ground) term.
func (p *Arena) ValueTerm(v Value) Term {
	switch {
	case v.sort == BoolSort:
		return p.Bool(v.b)
	case v.num != nil:
		return p.Num(v.num, v.sort)
	default:
		args := make([]Term, len(v.args))
		for i, arg := range v.args {
			args[i] = p.ValueTerm(arg)
		}
		//
		return p.MkCons(v.ctor, args...)
	}
}

// DefaultValue returns a canonical value for a given sort.  For datatypes, this
// is built from the first constructor which yields a finite value.
func (p *Arena) DefaultValue(s Sort) Value {
	switch s {
	case BoolSort:
		return BoolValue(false)
	case IntSort, RealSort:
		return NumValue(new(big.Rat), s)
	}
	//
	ctor := p.sorts.baseConstructor(s, make(map[Sort]bool))
	if ctor == nil {
		panic(fmt.Sprintf("datatype %s has no finite values", p.sorts.Name(s)))
	}
	//
	args := make([]Value, len(ctor.Fields))
	for i, f := range ctor.Fields {
		args[i] = p.DefaultValue(f.Sort)
	}
	//
	return DatatypeValue(ctor, args...)
}

// Model is an assignment of values to variables.  Variables without an
// assignment take the default value of their sort.  A model also interprets
// selectors applied to values built by a different constructor, which are
// otherwise unspecified.
type Model struct {
	arena  *Arena
	values map[Term]Value
	// Values of selectors outside their constructor
	selections map[selection]Value
}

// selection identifies a selector applied to a given (ground) value.
type selection struct {
	ctor  uint32
	field uint32
	arg   Term
}

// NewModel constructs an empty model.
func NewModel(arena *Arena) *Model {
	return &Model{arena, make(map[Term]Value), make(map[selection]Value)}
}

// Set the value of a variable.
func (p *Model) Set(v Term, val Value) {
	p.values[v] = val
}

// Get the value of a variable, falling back to the default value of its sort.
func (p *Model) Get(v Term) Value {
	if val, ok := p.values[v]; ok {
		return val
	}
	//
	return p.arena.DefaultValue(p.arena.Sort(v))
}

// Has checks whether a variable is explicitly assigned.
func (p *Model) Has(v Term) bool {
	_, ok := p.values[v]
	return ok
}

// Vars returns the explicitly assigned variables, sorted by name.
func (p *Model) Vars() []Term {
	vars := make([]Term, 0, len(p.values))
	for v := range p.values {
		vars = append(vars, v)
	}
	//
	p.arena.SortByName(vars)
	//
	return vars
}

// Choose the value of a selector application whose argument, under this
// model, is built by a different constructor.  Applications whose argument
// has the selector's constructor are determined already, and are unaffected.
// The first choice made for a given selector and argument value stands.
func (p *Model) Choose(sel Term, val Value) error {
	n := &p.arena.nodes[sel]
	//
	if n.kind != KindApp || n.op != OpSel {
		panic(fmt.Sprintf("%s is not a selector application", p.arena.String(sel)))
	}
	//
	arg, err := p.eval(n.args[0])
	if err != nil {
		return err
	} else if arg.ctor == p.arena.sorts.Constructor(n.aux) {
		return nil
	}
	//
	key := selection{n.aux, n.field, p.arena.ValueTerm(arg)}
	//
	if _, ok := p.selections[key]; !ok {
		p.selections[key] = val
	}
	//
	return nil
}

// Restrict returns a copy of this model assigning only the given variables.
// Selector choices are retained.
func (p *Model) Restrict(vars []Term) *Model {
	m := NewModel(p.arena)
	for _, v := range vars {
		m.Set(v, p.Get(v))
	}
	//
	for k, v := range p.selections {
		m.selections[k] = v
	}
	//
	return m
}

// String renders this model in SMT-LIB form, e.g.
//
//	(model
//	  (define-fun y () Int 0))
func (p *Model) String() string {
	var builder strings.Builder
	//
	builder.WriteString("(model")
	//
	for _, v := range p.Vars() {
		val := p.arena.ValueTerm(p.values[v])
		builder.WriteString(fmt.Sprintf("\n  (define-fun %s () %s %s)", p.arena.SExp(v).String(true),
			p.arena.sorts.Name(p.arena.Sort(v)), p.arena.String(val)))
	}
	//
	builder.WriteString(")")
	//
	return builder.String()
}

// Eval evaluates a term under this model.  Evaluation is total: integer
// division and remainder by zero yield zero and the dividend respectively,
// and a selector applied to the wrong constructor yields the value chosen for
// it, or else the default value of its field.  An error is returned only for
// quantified terms.
func (p *Model) Eval(t Term) (Value, error) {
	return p.eval(t)
}

// Holds evaluates a formula under this model.
func (p *Model) Holds(t Term) (bool, error) {
	v, err := p.Eval(t)
	return v.b, err
}

func (p *Model) eval(t Term) (Value, error) {
	var (
		a = p.arena
		n = &a.nodes[t]
	)
	//
	switch n.kind {
	case KindBool:
		return BoolValue(n.aux == 1), nil
	case KindNum:
		return NumValue(n.value, n.sort), nil
	case KindVar:
		return p.Get(t), nil
	case KindExists, KindForall:
		return Value{}, fmt.Errorf("cannot evaluate quantified formula %s", a.String(t))
	}
	// Short-circuit connectives
	switch n.op {
	case OpAnd, OpOr:
		for _, arg := range n.args {
			v, err := p.eval(arg)
			if err != nil {
				return v, err
			} else if v.b == (n.op == OpOr) {
				return v, nil
			}
		}
		//
		return BoolValue(n.op == OpAnd), nil
	case OpIte:
		c, err := p.eval(n.args[0])
		if err != nil {
			return c, err
		}
		//
		branch := n.args[2]
		if c.b {
			branch = n.args[1]
		}
		// Integer branches of a real ite
		v, err := p.eval(branch)
		if v.num != nil {
			v.sort = n.sort
		}
		//
		return v, err
	}
	//
	args := make([]Value, len(n.args))
	//
	for i, arg := range n.args {
		v, err := p.eval(arg)
		if err != nil {
			return v, err
		}
		//
		args[i] = v
	}
	//
	return p.apply(n, args), nil
}

func (p *Model) apply(n *node, args []Value) Value {
	switch n.op {
	case OpNot:
		return BoolValue(!args[0].b)
	case OpImplies:
		return BoolValue(!args[0].b || args[1].b)
	case OpXor:
		r := false
		for _, arg := range args {
			r = r != arg.b
		}
		//
		return BoolValue(r)
	case OpEq:
		return BoolValue(args[0].Equal(args[1]))
	case OpDistinct:
		for i := range args {
			for j := i + 1; j < len(args); j++ {
				if args[i].Equal(args[j]) {
					return BoolValue(false)
				}
			}
		}
		//
		return BoolValue(true)
	case OpLe:
		return BoolValue(args[0].num.Cmp(args[1].num) <= 0)
	case OpLt:
		return BoolValue(args[0].num.Cmp(args[1].num) < 0)
	case OpGe:
		return BoolValue(args[0].num.Cmp(args[1].num) >= 0)
	case OpGt:
		return BoolValue(args[0].num.Cmp(args[1].num) > 0)
	case OpAdd:
		r := new(big.Rat)
		for _, arg := range args {
			r.Add(r, arg.num)
		}
		//
		return NumValue(r, n.sort)
	case OpSub:
		r := new(big.Rat).Set(args[0].num)
		for _, arg := range args[1:] {
			r.Sub(r, arg.num)
		}
		//
		return NumValue(r, n.sort)
	case OpNeg:
		return NumValue(new(big.Rat).Neg(args[0].num), n.sort)
	case OpMul:
		r := big.NewRat(1, 1)
		for _, arg := range args {
			r.Mul(r, arg.num)
		}
		//
		return NumValue(r, n.sort)
	case OpRDiv:
		if args[1].num.Sign() == 0 {
			return NumValue(new(big.Rat), RealSort)
		}
		//
		return NumValue(new(big.Rat).Quo(args[0].num, args[1].num), RealSort)
	case OpDiv, OpMod:
		x, k := args[0].num.Num(), args[1].num.Num()
		//
		if k.Sign() == 0 {
			if n.op == OpDiv {
				return IntValue(0)
			}
			//
			return args[0]
		}
		//
		q, r := EuclidDivMod(x, k)
		if n.op == OpDiv {
			return NumValue(new(big.Rat).SetInt(q), IntSort)
		}
		//
		return NumValue(new(big.Rat).SetInt(r), IntSort)
	case OpAbs:
		return NumValue(new(big.Rat).Abs(args[0].num), n.sort)
	case OpCons:
		return DatatypeValue(p.arena.sorts.Constructor(n.aux), args...)
	case OpSel:
		ctor := p.arena.sorts.Constructor(n.aux)
		if args[0].ctor == ctor {
			return args[0].args[n.field]
		} else if v, ok := p.selections[selection{n.aux, n.field, p.arena.ValueTerm(args[0])}]; ok {
			return v
		}
		//
		return p.arena.DefaultValue(n.sort)
	case OpIs:
		return BoolValue(args[0].ctor == p.arena.sorts.Constructor(n.aux))
	default:
		panic(fmt.Sprintf("unknown operator %s", n.op))
	}
}
