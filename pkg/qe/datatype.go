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
package qe

import (
	"github.com/r1ceplus/z3/pkg/term"
	log "github.com/sirupsen/logrus"
)

// datatypeCandidates constructs the witnesses for a datatype variable x.  This
// only supports formulas where x occurs as one side of (dis)equalities whose
// other side does not mention x.  Each such equality x = t yields t, whilst
// disequalities yield enough distinct ground values to avoid them all.
func (p *Eliminator) datatypeCandidates(x term.Term, formula term.Term) ([]term.Term, error) {
	var (
		a          = p.arena
		candidates []term.Term
		diseqs     int
	)
	//
	err := p.atoms(x, formula, func(t term.Term, positive bool) error {
		if a.Op(t) != term.OpEq {
			return unsupported(a, x, t)
		}
		//
		lhs, rhs := a.Arg(t, 0), a.Arg(t, 1)
		if rhs == x {
			lhs, rhs = rhs, lhs
		}
		//
		if lhs != x || a.Occurs(x, rhs) {
			return unsupported(a, x, t)
		} else if positive {
			candidates = append(candidates, rhs)
		} else {
			diseqs++
		}
		//
		return nil
	})
	//
	if err != nil {
		return nil, err
	} else if diseqs > 0 {
		candidates = append(candidates, p.shallow(a.Sort(x), diseqs+1)...)
	}
	//
	log.Debugf("qe: %d datatype candidates for %s", len(candidates), a.Name(x))
	//
	return candidates, nil
}

// shallow constructs up to n distinct ground values of a datatype, smallest
// first.  Values are grown by applying each recursive constructor to the
// previous generation (in every field of the same sort), with all other fields
// taking their default value.
func (p *Eliminator) shallow(sort term.Sort, n int) []term.Term {
	var (
		a          = p.arena
		dt         = a.Sorts().Datatype(sort)
		values     []term.Term
		generation []term.Term
	)
	//
	for _, c := range dt.Constructors {
		if !c.IsRecursive() {
			generation = append(generation, p.construct(c, term.NoTerm))
		}
	}
	//
	for len(generation) > 0 && len(values) < n {
		values = append(values, generation...)
		//
		var next []term.Term
		//
		for _, c := range dt.Constructors {
			if c.IsRecursive() {
				for _, v := range generation {
					next = append(next, p.construct(c, v))
				}
			}
		}
		//
		generation = next
	}
	//
	return values[:min(n, len(values))]
}

// construct applies a constructor to a given argument in every field of the
// constructor's own sort, and to default values elsewhere.
func (p *Eliminator) construct(c *term.Constructor, arg term.Term) term.Term {
	var (
		a    = p.arena
		args = make([]term.Term, len(c.Fields))
	)
	//
	for i, f := range c.Fields {
		if f.Sort == c.Datatype && arg != term.NoTerm {
			args[i] = arg
		} else {
			args[i] = a.ValueTerm(a.DefaultValue(f.Sort))
		}
	}
	//
	return a.MkCons(c, args...)
}
