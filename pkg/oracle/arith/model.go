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
package arith

import (
	"math/big"
)

// bound on a variable, as determined by the constraints it was projected out
// of.
type bound struct {
	value  *big.Rat
	strict bool
}

// search reconstructs an assignment by visiting the elimination steps in
// reverse.  Variables eliminated by equalities are determined by their
// definitions, real variables always have a value in their (non-empty)
// interval, and integer variables are enumerated outwards from zero.
type search struct {
	*elimination
	values Assignment
	count  uint
	// Cleared when some part of the search space was not explored.
	exhaustive bool
}

// construct an assignment satisfying the constraints eliminated so far.  If
// none exists, the result is Unsat provided every candidate was explored.
func (p *elimination) construct() (Result, Assignment) {
	s := &search{elimination: p, values: make(Assignment), exhaustive: true}
	//
	if s.assign(len(p.steps) - 1) {
		return Sat, s.values
	} else if s.exhaustive {
		return Unsat, nil
	}
	//
	return Unknown, nil
}

func (p *search) assign(i int) bool {
	if i < 0 {
		return true
	} else if p.count++; p.count > p.limits.MaxSteps {
		p.exhaustive = false
		return false
	}
	//
	st := &p.steps[i]
	//
	if st.isDef {
		val := st.def.Eval(p.values.Get)
		if p.integer[st.v] && !val.IsInt() {
			return false
		}
		//
		p.values[st.v] = val
		//
		return p.assign(i - 1)
	}
	//
	lo, hi := p.interval(st)
	//
	if !p.integer[st.v] {
		val, ok := pickReal(lo, hi)
		if !ok {
			return false
		}
		//
		p.values[st.v] = val
		//
		return p.assign(i - 1)
	}
	//
	for _, c := range p.candidates(lo, hi) {
		p.values[st.v] = new(big.Rat).SetInt(c)
		//
		if p.assign(i - 1) {
			return true
		}
	}
	//
	delete(p.values, st.v)
	//
	return false
}

// interval determines the tightest lower and upper bounds on the variable of a
// given step, given the values of the variables assigned so far.
func (p *search) interval(st *step) (*bound, *bound) {
	var lo, hi *bound
	//
	for _, c := range st.bounds {
		var (
			a = c.Sum.Coeff(st.v)
			r = c.Sum.Without(st.v).Eval(p.values.Get)
			// a·v + r ⋈ 0 iff v ⋈ -r/a (flipped for a < 0)
			b = &bound{new(big.Rat).Quo(r.Neg(r), a), c.Kind == Lt}
		)
		//
		if a.Sign() > 0 {
			hi = tighter(hi, b, 1)
		} else {
			lo = tighter(lo, b, -1)
		}
	}
	//
	return lo, hi
}

// tighter returns whichever bound is more restrictive, where dir is 1 for
// upper bounds and -1 for lower bounds.
func tighter(current *bound, b *bound, dir int) *bound {
	if current == nil {
		return b
	}
	//
	switch c := b.value.Cmp(current.value) * dir; {
	case c < 0:
		return b
	case c == 0 && b.strict:
		return b
	default:
		return current
	}
}

// pickReal picks a value within a given interval, preferring zero and then
// the bounds themselves.
func pickReal(lo *bound, hi *bound) (*big.Rat, bool) {
	var (
		zero  = new(big.Rat)
		above = func(v *big.Rat) bool {
			return lo == nil || v.Cmp(lo.value) > 0 || (!lo.strict && v.Cmp(lo.value) == 0)
		}
		below = func(v *big.Rat) bool {
			return hi == nil || v.Cmp(hi.value) < 0 || (!hi.strict && v.Cmp(hi.value) == 0)
		}
	)
	//
	switch {
	case above(zero) && below(zero):
		return zero, true
	case lo != nil && hi != nil:
		if c := lo.value.Cmp(hi.value); c > 0 || (c == 0 && (lo.strict || hi.strict)) {
			return nil, false
		} else if !lo.strict {
			return lo.value, true
		} else if !hi.strict {
			return hi.value, true
		}
		//
		mid := new(big.Rat).Add(lo.value, hi.value)
		//
		return mid.Quo(mid, big.NewRat(2, 1)), true
	case lo != nil:
		if lo.strict {
			return new(big.Rat).Add(lo.value, big.NewRat(1, 1)), true
		}
		//
		return lo.value, true
	default:
		if hi.strict {
			return new(big.Rat).Sub(hi.value, big.NewRat(1, 1)), true
		}
		//
		return hi.value, true
	}
}

// candidates enumerates integers within a given interval, starting from the
// one closest to zero and working outwards.  At most MaxCandidates values are
// returned, in which case the search is no longer exhaustive.
func (p *search) candidates(lo *bound, hi *bound) []*big.Int {
	var (
		from, to *big.Int
		one      = big.NewInt(1)
	)
	//
	if lo != nil {
		from = ceil(lo.value)
		if lo.strict && lo.value.IsInt() {
			from.Add(from, one)
		}
	}
	//
	if hi != nil {
		to = floor(hi.value)
		if hi.strict && hi.value.IsInt() {
			to.Sub(to, one)
		}
	}
	//
	if from != nil && to != nil && from.Cmp(to) > 0 {
		return nil
	}
	// Starting point
	start := new(big.Int)
	if from != nil && start.Cmp(from) < 0 {
		start.Set(from)
	} else if to != nil && start.Cmp(to) > 0 {
		start.Set(to)
	}
	//
	var (
		result     = []*big.Int{start}
		up         = new(big.Int).Add(start, one)
		down       = new(big.Int).Sub(start, one)
		upActive   = to == nil || up.Cmp(to) <= 0
		downActive = from == nil || down.Cmp(from) >= 0
	)
	//
	for upActive || downActive {
		if uint(len(result)) >= p.limits.MaxCandidates {
			p.exhaustive = false
			break
		}
		//
		if upActive {
			result = append(result, new(big.Int).Set(up))
			up.Add(up, one)
			upActive = to == nil || up.Cmp(to) <= 0
		}
		//
		if downActive && uint(len(result)) < p.limits.MaxCandidates {
			result = append(result, new(big.Int).Set(down))
			down.Sub(down, one)
			downActive = from == nil || down.Cmp(from) >= 0
		}
	}
	//
	return result
}

func floor(v *big.Rat) *big.Int {
	return new(big.Int).Div(v.Num(), v.Denom())
}

func ceil(v *big.Rat) *big.Int {
	return ceilDiv(v.Num(), v.Denom())
}
