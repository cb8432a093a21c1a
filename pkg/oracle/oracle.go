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
	"github.com/r1ceplus/z3/pkg/oracle/arith"
	"github.com/r1ceplus/z3/pkg/term"
)

// Result of checking the satisfiability of a formula.
type Result uint8

const (
	// Unknown indicates satisfiability could not be determined.
	Unknown Result = iota
	// Unsat indicates the formula has no model.
	Unsat
	// Sat indicates the formula has a model.
	Sat
)

func (r Result) String() string {
	switch r {
	case Unsat:
		return "unsat"
	case Sat:
		return "sat"
	default:
		return "unknown"
	}
}

// Outcome of checking a formula.  A model is present exactly when the result
// is Sat, and assigns every free variable of the checked formula.
type Outcome struct {
	Result Result
	Model  *term.Model
}

// Oracle decides the satisfiability of quantifier-free formulas.
type Oracle interface {
	Check(term.Term) Outcome
}

// Config bounds the work performed by a solver.
type Config struct {
	// Maximum number of boolean assignments examined.
	MaxRounds uint
	// Limits for each arithmetic check.
	Arith arith.Limits
}

// DefaultConfig is suitable for the small formulas arising from validation.
var DefaultConfig = Config{MaxRounds: 1000, Arith: arith.DefaultLimits}
