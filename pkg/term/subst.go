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
	"slices"
)

// Substitution simultaneously replaces a set of variables by terms.  Every
// replacement sees the original term, so replacement terms are never
// themselves substituted into.  Substitution respects binders: a variable bound
// by a quantifier is not replaced within its scope, and bound variables which
// would capture a free variable of some replacement are renamed apart.
type Substitution struct {
	arena   *Arena
	mapping map[Term]Term
	// Domain of this substitution, sorted by handle.
	domain []Term
	// Results of applying this substitution to terms seen so far.
	cache map[Term]Term
}

// NewSubstitution constructs a substitution mapping each variable to the
// corresponding term.  This panics if the lists have different lengths, a
// variable is repeated, something other than a variable is being replaced, or
// a variable and its replacement have different sorts.  An integer term may
// replace a real variable.
func NewSubstitution(arena *Arena, vars []Term, terms []Term) *Substitution {
	if len(vars) != len(terms) {
		panic(fmt.Sprintf("substitution of %d variables by %d terms", len(vars), len(terms)))
	}
	//
	mapping := make(map[Term]Term, len(vars))
	//
	for i, v := range vars {
		if !arena.IsVar(v) {
			panic(fmt.Sprintf("cannot substitute for non-variable %s", arena.String(v)))
		} else if _, ok := mapping[v]; ok {
			panic(fmt.Sprintf("variable %s substituted twice", arena.Name(v)))
		} else if vs, ts := arena.Sort(v), arena.Sort(terms[i]); vs != ts && (vs != RealSort || ts != IntSort) {
			panic(fmt.Sprintf("cannot substitute %s for %s (sort %s vs %s)", arena.String(terms[i]), arena.Name(v),
				arena.sorts.Name(arena.Sort(terms[i])), arena.sorts.Name(arena.Sort(v))))
		}
		//
		mapping[v] = terms[i]
	}
	//
	return newSubstitution(arena, mapping)
}

func newSubstitution(arena *Arena, mapping map[Term]Term) *Substitution {
	domain := make([]Term, 0, len(mapping))
	for v := range mapping {
		domain = append(domain, v)
	}
	//
	slices.Sort(domain)
	//
	return &Substitution{arena, mapping, domain, make(map[Term]Term)}
}

// Apply this substitution to a given term.
func (p *Substitution) Apply(t Term) Term {
	if r, ok := p.cache[t]; ok {
		return r
	} else if !p.touches(t) {
		return t
	}
	//
	var (
		arena = p.arena
		r     Term
	)
	//
	switch arena.Kind(t) {
	case KindVar:
		r = p.mapping[t]
	case KindApp:
		args := arena.Args(t)
		nargs := make([]Term, len(args))
		//
		for i, arg := range args {
			nargs[i] = p.Apply(arg)
		}
		//
		r = arena.Rebuild(t, nargs)
	case KindExists, KindForall:
		r = p.applyQuantifier(t)
	default:
		r = t
	}
	//
	p.cache[t] = r
	//
	return r
}

// ApplyAll applies this substitution to each of a list of terms.
func (p *Substitution) ApplyAll(ts []Term) []Term {
	rs := make([]Term, len(ts))
	for i, t := range ts {
		rs[i] = p.Apply(t)
	}
	//
	return rs
}

func (p *Substitution) applyQuantifier(t Term) Term {
	var (
		arena = p.arena
		bound = arena.Bound(t)
		body  = arena.Body(t)
		inner = make(map[Term]Term)
		free  []Term
	)
	// Bound variables shadow the substitution within the body.
	for v, r := range p.mapping {
		if !slices.Contains(bound, v) && arena.Occurs(v, body) {
			inner[v] = r
			free = union(free, arena.FreeVars(r))
		}
	}
	//
	if len(inner) == 0 {
		return t
	}
	// Rename any bound variable which would capture a free variable of a
	// replacement.
	nbound := make([]Term, len(bound))
	//
	for i, v := range bound {
		if _, ok := slices.BinarySearch(free, v); ok {
			nbound[i] = arena.Fresh(arena.Name(v), arena.Sort(v))
			inner[v] = nbound[i]
		} else {
			nbound[i] = v
		}
	}
	//
	nbody := newSubstitution(arena, inner).Apply(body)
	//
	return arena.Quantify(arena.Kind(t), nbound, nbody)
}

// touches checks whether any variable in the domain of this substitution occurs
// free in a given term.
func (p *Substitution) touches(t Term) bool {
	var (
		free = p.arena.FreeVars(t)
		i, j int
	)
	// Intersect sorted lists
	for i < len(free) && j < len(p.domain) {
		switch {
		case free[i] < p.domain[j]:
			i++
		case p.domain[j] < free[i]:
			j++
		default:
			return true
		}
	}
	//
	return false
}

// Substitute is a convenience for applying a single substitution to a term.
func (p *Arena) Substitute(t Term, vars []Term, terms []Term) Term {
	return NewSubstitution(p, vars, terms).Apply(t)
}
