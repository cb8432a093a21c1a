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
package oracle

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/r1ceplus/z3/pkg/term"
	log "github.com/sirupsen/logrus"
)

// maxMinimise is the largest conflict which is minimised before being blocked.
const maxMinimise = 32

// Solver is a lazy SMT solver for quantifier-free formulas over linear integer
// and real arithmetic, and algebraic datatypes.  The boolean structure of a
// formula is handed to a SAT solver, whose assignments to the theory atoms are
// then checked for consistency.  Inconsistent assignments are blocked and the
// search resumes.  A consistent assignment yields a model, which is only
// reported once it has been verified by evaluating the original formula.
type Solver struct {
	arena  *term.Arena
	config Config
}

// NewSolver constructs a solver for formulas over a given arena.
func NewSolver(arena *term.Arena, config Config) *Solver {
	return &Solver{arena, config}
}

// Check the satisfiability of a given formula.
func (p *Solver) Check(formula term.Term) Outcome {
	a := p.arena
	//
	if a.HasQuantifier(formula) {
		log.Debugf("oracle: quantified formula %s", a.String(formula))
		return Outcome{Result: Unknown}
	}
	//
	simplified := a.Simplify(formula)
	if a.IsFalse(simplified) {
		return Outcome{Result: Unsat}
	}
	// Preprocess
	var (
		purifier = newPurifier(a)
		formulas = []term.Term{purifier.purify(simplified)}
	)
	//
	formulas = append(formulas, purifier.side...)
	formulas = append(formulas, datatypeLemmas(a, formulas)...)
	// Construct skeleton
	var (
		sk   = newSkeleton(a)
		root = sk.encode(a.And(formulas...))
		g    = gini.New()
	)
	//
	sk.circuit.ToCnf(g)
	g.Add(root)
	g.Add(z.LitNull)
	//
	incomplete := false
	//
	for round := uint(0); round < p.config.MaxRounds; round++ {
		switch g.Solve() {
		case 1:
			// sat
		case -1:
			if incomplete {
				return Outcome{Result: Unknown}
			}
			//
			return Outcome{Result: Unsat}
		default:
			return Outcome{Result: Unknown}
		}
		//
		lits := sk.assignment(g)
		log.Debugf("oracle: round %d with %d theory literals", round, len(lits))
		//
		res, th := p.check(lits)
		//
		switch res {
		case Unsat:
			lits = p.minimise(lits)
			log.Debugf("oracle: theory conflict over %d literals", len(lits))
		case Sat:
			model := p.model(formula, simplified, sk, g, th)
			//
			if ok, err := model.Holds(formula); err == nil && ok {
				return Outcome{Result: Sat, Model: model}
			}
			//
			log.Debugf("oracle: candidate model failed verification")
			//
			incomplete = true
		default:
			incomplete = true
		}
		//
		if len(lits) == 0 {
			// Nothing left to block
			if res == Unsat && !incomplete {
				return Outcome{Result: Unsat}
			}
			//
			return Outcome{Result: Unknown}
		}
		//
		block(g, lits)
	}
	//
	log.Debugf("oracle: round limit reached")
	//
	return Outcome{Result: Unknown}
}

// minimise a theory conflict by deletion.
func (p *Solver) minimise(lits []literal) []literal {
	if len(lits) > maxMinimise {
		return lits
	}
	//
	core := lits
	//
	for i := 0; i < len(core); {
		candidate := make([]literal, 0, len(core)-1)
		candidate = append(candidate, core[:i]...)
		candidate = append(candidate, core[i+1:]...)
		//
		if res, _ := p.check(candidate); res == Unsat {
			core = candidate
		} else {
			i++
		}
	}
	//
	return core
}

// block adds a clause excluding the given assignment.
func block(g *gini.Gini, lits []literal) {
	for _, l := range lits {
		if l.value {
			g.Add(l.lit.Not())
		} else {
			g.Add(l.lit)
		}
	}
	//
	g.Add(z.LitNull)
}

// model constructs a model assigning every free variable of a formula from a
// consistent theory state.  Selectors applied to the wrong constructor within
// the (simplified) formula take the values given to them by the theories.
func (p *Solver) model(formula term.Term, simplified term.Term, sk *skeleton, g *gini.Gini,
	th *theory) *term.Model {
	var (
		a      = p.arena
		model  = term.NewModel(a)
		values map[term.Term]term.Value
	)
	//
	for _, v := range a.FreeVars(formula) {
		switch s := a.Sort(v); {
		case s == term.BoolSort:
			if m, ok := sk.lits[v]; ok {
				model.Set(v, term.BoolValue(g.Value(m)))
			} else {
				model.Set(v, term.BoolValue(false))
			}
		case a.Sorts().IsArith(s):
			model.Set(v, th.value(v))
		default:
			if values == nil {
				values = th.datatypeModel()
			}
			//
			if val, ok := values[v]; ok {
				model.Set(v, val)
			} else {
				model.Set(v, a.DefaultValue(s))
			}
		}
	}
	//
	for _, sel := range selectors(a, simplified) {
		var val term.Value
		//
		switch s := a.Sort(sel); {
		case s == term.BoolSort:
			val = term.BoolValue(false)
			//
			if m, ok := sk.lits[sel]; ok {
				val = term.BoolValue(g.Value(m))
			}
		case a.Sorts().IsArith(s):
			val = th.value(sel)
		default:
			if values == nil {
				values = th.datatypeModel()
			}
			//
			var ok bool
			//
			if val, ok = values[sel]; !ok {
				val = a.DefaultValue(s)
			}
		}
		// Quantifier-free, hence cannot fail
		_ = model.Choose(sel, val)
	}
	//
	return model
}

// selectors returns the selector applications within a term, such that every
// application follows those within its argument.
func selectors(arena *term.Arena, t term.Term) []term.Term {
	var (
		sels []term.Term
		seen = make(map[term.Term]bool)
		walk func(term.Term)
	)
	//
	walk = func(t term.Term) {
		if seen[t] || arena.Kind(t) != term.KindApp {
			return
		}
		//
		seen[t] = true
		//
		for _, arg := range arena.Args(t) {
			walk(arg)
		}
		//
		if arena.Op(t) == term.OpSel {
			sels = append(sels, t)
		}
	}
	//
	walk(t)
	//
	return sels
}
