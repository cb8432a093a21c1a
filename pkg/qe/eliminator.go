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
	"fmt"
	"slices"

	"github.com/r1ceplus/z3/pkg/term"
	log "github.com/sirupsen/logrus"
)

// Procedure solves for a set of variables in a quantifier-free formula,
// producing a guarded definition of each variable.  A procedure may decline
// (returning false), for example when the formula lies outside the fragment it
// supports.
type Procedure interface {
	SolveForVars(targets []term.Term, matrix term.Term) (*GuardedDefs, bool)
}

// Config bounds the work done by an eliminator.
type Config struct {
	// MaxOffset is the largest period (i.e. lcm of the div / mod moduli over an
	// integer variable) for which offset candidates are enumerated.
	MaxOffset uint
	// MaxBranches is the largest number of branches retained after eliminating
	// each variable.
	MaxBranches uint
}

// DefaultConfig provides sensible defaults for an eliminator.
var DefaultConfig = Config{MaxOffset: 16, MaxBranches: 64}

// Eliminator is a quantifier elimination procedure based on the enumeration
// of candidate witnesses.  For each target, a finite set of witness terms is
// derived from the atoms of the formula (e.g. the bounds on an integer
// variable).  Each witness yields a branch whose guard is the formula with
// that witness substituted, such that every branch is sound by construction.
type Eliminator struct {
	arena  *term.Arena
	config Config
}

// NewEliminator constructs an eliminator for formulas over a given arena.
func NewEliminator(arena *term.Arena, config Config) *Eliminator {
	return &Eliminator{arena, config}
}

// SolveForVars eliminates the given targets from a formula, in order.  When
// eliminating y from a branch (g, x ↦ t) yields (h, y ↦ s), the resulting branch
// is (h, x ↦ t[s/y], y ↦ s).
func (p *Eliminator) SolveForVars(targets []term.Term, matrix term.Term) (*GuardedDefs, bool) {
	a := p.arena
	//
	if a.HasQuantifier(matrix) {
		log.Debugf("qe: declined quantified matrix %s", a.String(matrix))
		return nil, false
	}
	//
	for i, x := range targets {
		if !a.IsVar(x) || slices.Contains(targets[:i], x) {
			log.Debugf("qe: declined invalid target %s", a.String(x))
			return nil, false
		}
	}
	//
	var (
		simplifier = term.NewSimplifier(a)
		branches   = []GuardedDef{{Guard: simplifier.Simplify(matrix)}}
	)
	//
	for _, x := range targets {
		var next []GuardedDef
		//
		for _, b := range branches {
			candidates, err := p.candidates(x, b.Guard)
			if err != nil {
				log.Debugf("qe: cannot eliminate %s: %s", a.Name(x), err)
				return nil, false
			}
			//
			seen := make(map[term.Term]bool)
			//
			for _, c := range candidates {
				if c = simplifier.Simplify(c); seen[c] {
					continue
				} else if a.Occurs(x, c) {
					log.Debugf("qe: skipping candidate %s := %s mentioning %s", a.Name(x), a.String(c), a.Name(x))
					continue
				}
				//
				seen[c] = true
				//
				guard := simplifier.Simplify(a.Substitute(b.Guard, []term.Term{x}, []term.Term{c}))
				if a.IsFalse(guard) {
					log.Debugf("qe: %s := %s is infeasible", a.Name(x), a.String(c))
					continue
				}
				//
				defs := make([]Definition, len(b.Defs), len(b.Defs)+1)
				for i, d := range b.Defs {
					defs[i] = Definition{d.Var, simplifier.Simplify(a.Substitute(d.Term, []term.Term{x}, []term.Term{c}))}
				}
				//
				next = append(next, GuardedDef{guard, append(defs, Definition{x, c})})
			}
		}
		//
		if uint(len(next)) > p.config.MaxBranches {
			log.Debugf("qe: dropping %d branches for %s", uint(len(next))-p.config.MaxBranches, a.Name(x))
			next = next[:p.config.MaxBranches]
		}
		//
		branches = next
		log.Debugf("qe: eliminated %s with %d branches", a.Name(x), len(branches))
	}
	//
	if len(branches) == 0 {
		log.Debugf("qe: no feasible branch")
		return nil, false
	}
	//
	defs := NewGuardedDefs(a, targets)
	for _, b := range branches {
		defs.Add(b.Guard, b.Defs...)
	}
	//
	return defs, true
}

// candidates determines the witnesses to try for a given variable.
func (p *Eliminator) candidates(x term.Term, formula term.Term) ([]term.Term, error) {
	var (
		a    = p.arena
		sort = a.Sort(x)
	)
	//
	switch {
	case !a.Occurs(x, formula):
		return []term.Term{a.ValueTerm(a.DefaultValue(sort))}, nil
	case sort == term.BoolSort:
		return []term.Term{a.True(), a.False()}, nil
	case a.Sorts().IsArith(sort):
		return p.arithCandidates(x, formula)
	default:
		return p.datatypeCandidates(x, formula)
	}
}

type polarised struct {
	formula  term.Term
	positive bool
}

// atoms visits the maximal subformulas of a formula which mention a given
// variable and are not boolean connectives, along with the polarity of each
// occurrence.  A subformula occurring under both polarities is visited twice.
func (p *Eliminator) atoms(x term.Term, formula term.Term, visit func(term.Term, bool) error) error {
	seen := make(map[polarised]bool)
	//
	var walk func(term.Term, bool) error
	//
	walk = func(t term.Term, positive bool) error {
		a := p.arena
		//
		if !a.Occurs(x, t) || seen[polarised{t, positive}] {
			return nil
		}
		//
		seen[polarised{t, positive}] = true
		//
		switch args := a.Args(t); a.Op(t) {
		case term.OpNot:
			return walk(args[0], !positive)
		case term.OpAnd, term.OpOr:
			for _, arg := range args {
				if err := walk(arg, positive); err != nil {
					return err
				}
			}
			//
			return nil
		case term.OpImplies:
			if err := walk(args[0], !positive); err != nil {
				return err
			}
			//
			return walk(args[1], positive)
		case term.OpIte:
			if a.Sort(t) == term.BoolSort {
				for _, err := range []error{walk(args[0], true), walk(args[0], false), walk(args[1], positive),
					walk(args[2], positive)} {
					if err != nil {
						return err
					}
				}
				//
				return nil
			}
		case term.OpEq, term.OpXor, term.OpDistinct:
			if a.Sort(args[0]) == term.BoolSort {
				for _, arg := range args {
					if err := walk(arg, true); err != nil {
						return err
					} else if err := walk(arg, false); err != nil {
						return err
					}
				}
				//
				return nil
			}
		}
		//
		return visit(t, positive)
	}
	//
	return walk(formula, true)
}

func unsupported(arena *term.Arena, x term.Term, t term.Term) error {
	return fmt.Errorf("unsupported occurrence of %s in %s", arena.Name(x), arena.String(t))
}
