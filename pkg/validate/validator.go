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
package validate

import (
	"github.com/r1ceplus/z3/pkg/oracle"
	"github.com/r1ceplus/z3/pkg/qe"
	"github.com/r1ceplus/z3/pkg/term"
	log "github.com/sirupsen/logrus"
)

// Status classifies the outcome of validating a single branch.
type Status uint8

const (
	// Sound indicates the oracle refuted every counterexample to the branch.
	Sound Status = iota
	// Unsound indicates the oracle found a counterexample to the branch.
	Unsound
	// Inconclusive indicates the oracle could not decide the obligation.
	Inconclusive
)

func (s Status) String() string {
	switch s {
	case Sound:
		return "sound"
	case Unsound:
		return "unsound"
	default:
		return "inconclusive"
	}
}

// Verdict is the result of validating a guarded definition.  Alongside the
// status, this retains the substituted matrix and the obligation dispatched to
// the oracle, for use in diagnostics.
type Verdict struct {
	Status Status
	// Counterexample (only for unsound verdicts), restricted to the free
	// variables of the obligation.
	Model *term.Model
	// Matrix with the definitions substituted
	Matrix term.Term
	// Obligation checked by the oracle, i.e. guard ∧ ¬matrix
	Obligation term.Term
}

// Validator certifies branches of a candidate quantifier elimination result
// using a decision procedure.  A branch (g, x ↦ t) of a solution for matrix φ is
// sound when g ⇒ φ[t/x] is valid, which is established by the oracle showing
// that g ∧ ¬φ[t/x] is unsatisfiable.
type Validator struct {
	arena  *term.Arena
	oracle oracle.Oracle
}

// NewValidator constructs a validator which dispatches obligations to a given
// oracle.
func NewValidator(arena *term.Arena, oracle oracle.Oracle) *Validator {
	return &Validator{arena, oracle}
}

// Validate a single guarded definition against the matrix it was derived
// from.
func (p *Validator) Validate(matrix term.Term, guard term.Term, defs []qe.Definition) Verdict {
	var (
		a     = p.arena
		vars  = make([]term.Term, len(defs))
		terms = make([]term.Term, len(defs))
	)
	//
	for i, d := range defs {
		vars[i], terms[i] = d.Var, d.Term
	}
	//
	var (
		body       = term.NewSubstitution(a, vars, terms).Apply(matrix)
		obligation = a.And(guard, a.Not(body))
		outcome    = p.oracle.Check(obligation)
		verdict    = Verdict{Matrix: body, Obligation: obligation}
	)
	//
	switch outcome.Result {
	case oracle.Unsat:
		verdict.Status = Sound
	case oracle.Sat:
		verdict.Status = Unsound
		verdict.Model = outcome.Model.Restrict(a.FreeVars(obligation))
	default:
		verdict.Status = Inconclusive
	}
	//
	log.Debugf("validate: %s is %s", a.String(obligation), verdict.Status)
	//
	return verdict
}

// ValidateAll validates every branch of a solution in order, stopping at the
// first unsound branch.  The verdicts of the branches checked are returned.
func (p *Validator) ValidateAll(matrix term.Term, defs *qe.GuardedDefs) []Verdict {
	var verdicts []Verdict
	//
	for i := 0; i < defs.Len(); i++ {
		verdict := p.Validate(matrix, defs.Guard(i), defs.Defs(i))
		verdicts = append(verdicts, verdict)
		//
		if verdict.Status == Unsound {
			break
		}
	}
	//
	return verdicts
}
