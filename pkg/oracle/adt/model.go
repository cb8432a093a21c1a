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
package adt

import (
	"math/big"

	"github.com/r1ceplus/z3/pkg/term"
)

// maxRepairs bounds the number of times the value of an unconstrained class
// is changed in order to satisfy the disequalities.
const maxRepairs = 64

// Model assigns a value to every registered term, given the values of the
// non-datatype terms appearing as constructor arguments.  Classes defined by a
// constructor are built from the values of their arguments, whilst the
// remaining classes receive distinct values drawn from an enumeration of their
// sort.  This fails if the disequalities cannot be satisfied this way.  Check
// must have succeeded beforehand.
func (p *Solver) Model(env func(term.Term) term.Value) (map[term.Term]term.Value, bool) {
	var (
		enum  = newEnumerator(p.arena)
		next  = make(map[term.Sort]int)
		index = make(map[term.Term]int)
	)
	// choose the next allowed value for an unconstrained class
	choose := func(root term.Term) bool {
		sort := p.arena.Sort(root)
		//
		for {
			v, ok := enum.nth(sort, next[sort])
			if !ok {
				return false
			}
			//
			next[sort]++
			//
			if p.allowed(root, v.Constructor()) {
				index[root] = next[sort] - 1
				return true
			}
		}
	}
	//
	for _, root := range p.roots() {
		if p.defn[root] == term.NoTerm && !choose(root) {
			return nil, false
		}
	}
	//
	for n := 0; n < maxRepairs; n++ {
		values := p.build(enum, index, env)
		violated := -1
		//
		for i, d := range p.diseqs {
			if values[p.find(d[0])].Equal(values[p.find(d[1])]) {
				violated = i
				break
			}
		}
		//
		if violated < 0 {
			model := make(map[term.Term]term.Value, len(p.terms))
			for _, t := range p.terms {
				model[t] = values[p.find(t)]
			}
			//
			return model, true
		}
		// Change the value of some unconstrained class involved
		free := p.unconstrained(p.find(p.diseqs[violated][0]))
		free = append(free, p.unconstrained(p.find(p.diseqs[violated][1]))...)
		//
		if len(free) == 0 || !choose(free[len(free)-1]) {
			return nil, false
		}
	}
	//
	return nil, false
}

// build the value of every class.
func (p *Solver) build(enum *enumerator, index map[term.Term]int,
	env func(term.Term) term.Value) map[term.Term]term.Value {
	var (
		values = make(map[term.Term]term.Value)
		value  func(term.Term) term.Value
	)
	//
	value = func(root term.Term) term.Value {
		if v, ok := values[root]; ok {
			return v
		}
		//
		var v term.Value
		//
		if d := p.defn[root]; d == term.NoTerm {
			v, _ = enum.nth(p.arena.Sort(root), index[root])
		} else {
			args := make([]term.Value, len(p.arena.Args(d)))
			//
			for i, arg := range p.arena.Args(d) {
				if p.isDatatype(arg) {
					args[i] = value(p.find(arg))
				} else {
					args[i] = env(arg)
				}
			}
			//
			v = term.DatatypeValue(p.arena.Constructor(d), args...)
		}
		//
		values[root] = v
		//
		return v
	}
	//
	for _, root := range p.roots() {
		value(root)
	}
	//
	return values
}

// unconstrained returns the classes without a defining constructor reachable
// from a given class.
func (p *Solver) unconstrained(root term.Term) []term.Term {
	var (
		result []term.Term
		seen   = make(map[term.Term]bool)
		visit  func(term.Term)
	)
	//
	visit = func(r term.Term) {
		if seen[r] {
			return
		}
		//
		seen[r] = true
		//
		if d := p.defn[r]; d == term.NoTerm {
			result = append(result, r)
		} else {
			for _, arg := range p.arena.Args(d) {
				if p.isDatatype(arg) {
					visit(p.find(arg))
				}
			}
		}
	}
	//
	visit(root)
	//
	return result
}

// maxDepth bounds the nesting of constructors in enumerated values.
const maxDepth = 8

// maxValues bounds the number of values enumerated per sort.
const maxValues = 256

// enumerator lists distinct values of datatype sorts, smallest first.
type enumerator struct {
	arena  *term.Arena
	values map[term.Sort][]term.Value
	seen   map[term.Sort]map[string]bool
	depth  map[term.Sort]int
}

func newEnumerator(arena *term.Arena) *enumerator {
	return &enumerator{
		arena:  arena,
		values: make(map[term.Sort][]term.Value),
		seen:   make(map[term.Sort]map[string]bool),
		depth:  make(map[term.Sort]int),
	}
}

// nth returns the ith value of a given sort, if there is one.
func (p *enumerator) nth(sort term.Sort, i int) (term.Value, bool) {
	if p.seen[sort] == nil {
		p.seen[sort] = make(map[string]bool)
	}
	//
	for len(p.values[sort]) <= i && p.depth[sort] < maxDepth {
		p.depth[sort]++
		//
		for _, v := range p.generate(sort, p.depth[sort], p.depth[sort]) {
			key := p.arena.String(p.arena.ValueTerm(v))
			//
			if !p.seen[sort][key] {
				p.seen[sort][key] = true
				p.values[sort] = append(p.values[sort], v)
			}
		}
	}
	//
	if i < len(p.values[sort]) {
		return p.values[sort][i], true
	}
	//
	return term.Value{}, false
}

// generate values of a given sort with constructors nested to at most a given
// depth, and with numbers drawn from 0 .. width-1.
func (p *enumerator) generate(sort term.Sort, depth int, width int) []term.Value {
	switch sort {
	case term.BoolSort:
		return []term.Value{term.BoolValue(false), term.BoolValue(true)}
	case term.IntSort, term.RealSort:
		var vals []term.Value
		for i := 0; i < width; i++ {
			vals = append(vals, term.NumValue(big.NewRat(int64(i), 1), sort))
		}
		//
		return vals
	}
	//
	if depth == 0 {
		return nil
	}
	//
	var vals []term.Value
	//
	for _, ctor := range p.arena.Sorts().Datatype(sort).Constructors {
		fields := make([][]term.Value, len(ctor.Fields))
		//
		for i, f := range ctor.Fields {
			fields[i] = p.generate(f.Sort, depth-1, width)
		}
		//
		vals = append(vals, product(ctor, fields, maxValues-len(vals))...)
		//
		if len(vals) >= maxValues {
			break
		}
	}
	//
	return vals
}

// product constructs values from every combination of field values, up to a
// given limit.
func product(ctor *term.Constructor, fields [][]term.Value, limit int) []term.Value {
	var (
		vals []term.Value
		args = make([]term.Value, len(fields))
		rec  func(int)
	)
	//
	rec = func(i int) {
		if len(vals) >= limit {
			return
		} else if i == len(fields) {
			vals = append(vals, term.DatatypeValue(ctor, append([]term.Value(nil), args...)...))
			return
		}
		//
		for _, v := range fields[i] {
			args[i] = v
			rec(i + 1)
		}
	}
	//
	rec(0)
	//
	return vals
}
