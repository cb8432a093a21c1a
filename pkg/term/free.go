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
	"slices"
)

// FreeVars returns the free variables of a term, sorted by handle.  The
// returned slice is shared and must not be modified.
func (p *Arena) FreeVars(t Term) []Term {
	if vars, ok := p.freeVars[t]; ok {
		return vars
	}
	//
	var (
		n    = &p.nodes[t]
		vars []Term
	)
	//
	switch n.kind {
	case KindVar:
		vars = []Term{t}
	case KindApp:
		for _, arg := range n.args {
			vars = union(vars, p.FreeVars(arg))
		}
	case KindExists, KindForall:
		body := p.FreeVars(p.Body(t))
		bound := p.Bound(t)
		//
		for _, v := range body {
			if !slices.Contains(bound, v) {
				vars = append(vars, v)
			}
		}
	}
	//
	p.freeVars[t] = vars
	//
	return vars
}

// Occurs checks whether a given variable occurs free within a term.
func (p *Arena) Occurs(v Term, t Term) bool {
	_, ok := slices.BinarySearch(p.FreeVars(t), v)
	return ok
}

// OccursAny checks whether any of the given variables occurs free within a
// term.
func (p *Arena) OccursAny(vars []Term, t Term) bool {
	for _, v := range vars {
		if p.Occurs(v, t) {
			return true
		}
	}
	//
	return false
}

// IsGround checks whether a term has no free variables.
func (p *Arena) IsGround(t Term) bool {
	return len(p.FreeVars(t)) == 0
}

// HasQuantifier checks whether a term contains a quantifier anywhere.
func (p *Arena) HasQuantifier(t Term) bool {
	found := false
	//
	p.Walk(t, func(s Term) bool {
		if p.IsQuantifier(s) {
			found = true
		}
		//
		return !found
	})
	//
	return found
}

// Walk visits every distinct subterm of a term in pre-order, including the
// bodies of quantifiers.  Visiting stops descending into a subterm when the
// visitor returns false.
func (p *Arena) Walk(t Term, visitor func(Term) bool) {
	var (
		visited = make(map[Term]bool)
		stack   = []Term{t}
	)
	//
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		//
		if visited[s] {
			continue
		}
		//
		visited[s] = true
		//
		if visitor(s) {
			args := p.nodes[s].args
			// Push in reverse so arguments are visited left to right
			for i := len(args) - 1; i >= 0; i-- {
				stack = append(stack, args[i])
			}
		}
	}
}

// union merges two sorted lists of variables.
func union(lhs, rhs []Term) []Term {
	if len(lhs) == 0 {
		return rhs
	} else if len(rhs) == 0 {
		return lhs
	}
	//
	var (
		res  = make([]Term, 0, len(lhs)+len(rhs))
		i, j int
	)
	//
	for i < len(lhs) || j < len(rhs) {
		switch {
		case j == len(rhs) || (i < len(lhs) && lhs[i] < rhs[j]):
			res = append(res, lhs[i])
			i++
		case i == len(lhs) || rhs[j] < lhs[i]:
			res = append(res, rhs[j])
			j++
		default:
			res = append(res, lhs[i])
			i++
			j++
		}
	}
	//
	return res
}
