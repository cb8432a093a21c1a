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
	"math"
	"math/big"
)

// ARENA_INIT_BUCKETS determines the initial number of buckets to use for the
// hash-consing index.
const ARENA_INIT_BUCKETS = 128

// ARENA_LOADING determines the loading factor (as a percentage) beyond which
// the index is rehashed.
const ARENA_LOADING = 75

// Term is a handle to an immutable, hash-consed term held within an Arena.
// Structurally identical terms built in the same arena always receive the
// same handle, hence handle equality is structural equality.
type Term uint32

// NoTerm is the zero handle, which never refers to a valid term.
const NoTerm Term = 0

// Kind classifies the shape of a term.
type Kind uint8

const (
	// KindInvalid is only used for the reserved zero handle.
	KindInvalid Kind = iota
	// KindBool is a boolean literal (i.e. true or false).
	KindBool
	// KindNum is an integer or real numeral.
	KindNum
	// KindVar is a (free or bound) variable.
	KindVar
	// KindApp is the application of an operator to zero or more arguments.
	KindApp
	// KindExists is an existentially quantified formula.
	KindExists
	// KindForall is a universally quantified formula.
	KindForall
)

// Op identifies the operator of an application term.
type Op uint8

// Operators supported by the term language.
const (
	OpNone Op = iota
	OpNot
	OpAnd
	OpOr
	OpImplies
	OpXor
	OpEq
	OpDistinct
	OpIte
	OpLe
	OpLt
	OpGe
	OpGt
	OpAdd
	OpSub
	OpNeg
	OpMul
	OpDiv
	OpMod
	OpRDiv
	OpAbs
	// OpCons is the application of a datatype constructor.
	OpCons
	// OpSel is the application of a datatype field selector.
	OpSel
	// OpIs is the application of a datatype constructor tester.
	OpIs
)

// node is the internal representation of a term.
type node struct {
	kind Kind
	op   Op
	sort Sort
	// Constructor identifier (OpCons, OpSel, OpIs) or boolean value (KindBool)
	aux uint32
	// Field index (OpSel only)
	field uint32
	// Variable name (KindVar only)
	name string
	// Numeral value (KindNum only)
	value *big.Rat
	// Arguments of an application.  For quantifiers, this holds the bound
	// variables followed by the body.
	args []Term
}

func (p *node) hash() uint64 {
	h := uint64(14695981039346656037)
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}
	//
	mix(uint64(p.kind))
	mix(uint64(p.op))
	mix(uint64(p.sort))
	mix(uint64(p.aux))
	mix(uint64(p.field))
	//
	for i := 0; i < len(p.name); i++ {
		mix(uint64(p.name[i]))
	}
	//
	if p.value != nil {
		mix(p.value.Num().Uint64())
		mix(p.value.Denom().Uint64())
		mix(uint64(p.value.Sign() + 1))
	}
	//
	for _, arg := range p.args {
		mix(uint64(arg))
	}
	//
	return h
}

func (p *node) equals(o *node) bool {
	if p.kind != o.kind || p.op != o.op || p.sort != o.sort || p.aux != o.aux || p.field != o.field ||
		p.name != o.name || len(p.args) != len(o.args) {
		return false
	} else if (p.value == nil) != (o.value == nil) || (p.value != nil && p.value.Cmp(o.value) != 0) {
		return false
	}
	//
	for i := range p.args {
		if p.args[i] != o.args[i] {
			return false
		}
	}
	//
	return true
}

// Arena is an append-only store of hash-consed terms, along with the registry
// of sorts they range over.  Terms are never freed; an arena lives exactly as
// long as the session which created it.  An arena is not safe for concurrent
// use.
type Arena struct {
	sorts   Sorts
	nodes   []node
	buckets [][]Term
	// Variable names in use (for generating fresh names)
	names map[string]bool
	// Counter used for generating fresh names
	fresh uint
	// Cache of free variables
	freeVars map[Term][]Term
}

// NewArena constructs an empty arena containing only the builtin sorts.
func NewArena() *Arena {
	p := &Arena{
		sorts:    newSorts(),
		buckets:  make([][]Term, ARENA_INIT_BUCKETS),
		names:    make(map[string]bool),
		freeVars: make(map[Term][]Term),
	}
	// Reserve the zero handle
	p.nodes = append(p.nodes, node{kind: KindInvalid})
	//
	return p
}

// Sorts returns the sort registry for this arena.
func (p *Arena) Sorts() *Sorts {
	return &p.sorts
}

// Len returns the number of distinct terms held in this arena.
func (p *Arena) Len() int {
	return len(p.nodes) - 1
}

// Kind returns the kind of a given term.
func (p *Arena) Kind(t Term) Kind {
	return p.nodes[t].kind
}

// Op returns the operator of a given term, or OpNone if it is not an
// application.
func (p *Arena) Op(t Term) Op {
	return p.nodes[t].op
}

// Sort returns the sort of a given term.
func (p *Arena) Sort(t Term) Sort {
	return p.nodes[t].sort
}

// Args returns the arguments of an application term.  The returned slice must
// not be modified.
func (p *Arena) Args(t Term) []Term {
	if n := &p.nodes[t]; n.kind == KindApp {
		return n.args
	}
	//
	return nil
}

// Arg returns the ith argument of an application term.
func (p *Arena) Arg(t Term, i int) Term {
	return p.nodes[t].args[i]
}

// Name returns the name of a variable term.
func (p *Arena) Name(t Term) string {
	if n := &p.nodes[t]; n.kind != KindVar {
		panic(fmt.Sprintf("term %d is not a variable", t))
	} else {
		return n.name
	}
}

// Value returns the value of a numeral term.  The returned value must not be
// modified.
func (p *Arena) Value(t Term) *big.Rat {
	if n := &p.nodes[t]; n.kind != KindNum {
		panic(fmt.Sprintf("term %d is not a numeral", t))
	} else {
		return n.value
	}
}

// IsVar checks whether a given term is a variable.
func (p *Arena) IsVar(t Term) bool {
	return p.nodes[t].kind == KindVar
}

// IsNum checks whether a given term is a numeral.
func (p *Arena) IsNum(t Term) bool {
	return p.nodes[t].kind == KindNum
}

// IsTrue checks whether a given term is the literal true.
func (p *Arena) IsTrue(t Term) bool {
	n := &p.nodes[t]
	return n.kind == KindBool && n.aux == 1
}

// IsFalse checks whether a given term is the literal false.
func (p *Arena) IsFalse(t Term) bool {
	n := &p.nodes[t]
	return n.kind == KindBool && n.aux == 0
}

// IsQuantifier checks whether a given term is an existential or universal
// quantifier.
func (p *Arena) IsQuantifier(t Term) bool {
	k := p.nodes[t].kind
	return k == KindExists || k == KindForall
}

// Bound returns the variables bound by a quantifier.
func (p *Arena) Bound(t Term) []Term {
	n := &p.nodes[t]
	return n.args[:len(n.args)-1]
}

// Body returns the body of a quantifier.
func (p *Arena) Body(t Term) Term {
	n := &p.nodes[t]
	return n.args[len(n.args)-1]
}

// Constructor returns the constructor referred to by a constructor
// application, selector or tester term.
func (p *Arena) Constructor(t Term) *Constructor {
	n := &p.nodes[t]
	//
	switch n.op {
	case OpCons, OpSel, OpIs:
		return p.sorts.Constructor(n.aux)
	default:
		panic(fmt.Sprintf("term %d has no constructor", t))
	}
}

// Field returns the field index of a selector term.
func (p *Arena) Field(t Term) int {
	if n := &p.nodes[t]; n.op != OpSel {
		panic(fmt.Sprintf("term %d is not a selector", t))
	} else {
		return int(n.field)
	}
}

// IsConstructorApp checks whether a term is an application of a datatype
// constructor.
func (p *Arena) IsConstructorApp(t Term) bool {
	return p.nodes[t].op == OpCons
}

// Fresh constructs a variable of the given sort whose name has not been used
// in this arena before.
func (p *Arena) Fresh(prefix string, sort Sort) Term {
	for {
		p.fresh++
		//
		name := fmt.Sprintf("%s!%d", prefix, p.fresh)
		if !p.names[name] {
			return p.Var(name, sort)
		}
	}
}

// intern a node, returning the existing handle for it if one exists.
func (p *Arena) intern(n node) Term {
	index, hash := p.has(&n)
	//
	if index == math.MaxUint32 {
		t := Term(len(p.nodes))
		p.nodes = append(p.nodes, n)
		p.buckets[hash] = append(p.buckets[hash], t)
		//
		if n.kind == KindVar {
			p.names[n.name] = true
		}
		//
		p.rehashIfOverloaded()
		//
		return t
	}
	//
	return Term(index)
}

func (p *Arena) has(n *node) (uint32, uint64) {
	hash := n.hash() % uint64(len(p.buckets))
	//
	for _, index := range p.buckets[hash] {
		if p.nodes[index].equals(n) {
			return uint32(index), hash
		}
	}
	//
	return math.MaxUint32, hash
}

func (p *Arena) rehashIfOverloaded() {
	if load := (100 * len(p.nodes)) / len(p.buckets); load > ARENA_LOADING {
		var (
			oldBuckets = p.buckets
			n          = uint64(len(oldBuckets) * 3)
		)
		//
		p.buckets = make([][]Term, n)
		//
		for _, bucket := range oldBuckets {
			for _, index := range bucket {
				hash := p.nodes[index].hash() % n
				p.buckets[hash] = append(p.buckets[hash], index)
			}
		}
	}
}
