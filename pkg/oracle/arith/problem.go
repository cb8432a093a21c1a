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
	"fmt"
	"math/big"
	"strings"

	"github.com/r1ceplus/z3/pkg/util/poly"
)

// Var identifies a variable of an arithmetic problem.
type Var uint32

// Sum is a linear combination of variables.
type Sum = poly.Sum[Var]

// Kind determines how the sum of a constraint is compared against zero.
type Kind uint8

const (
	// Eq requires the sum to equal zero.
	Eq Kind = iota
	// Le requires the sum to be at most zero.
	Le
	// Lt requires the sum to be strictly below zero.
	Lt
	// Ne requires the sum to differ from zero.
	Ne
)

func (k Kind) String() string {
	return [...]string{"=", "<=", "<", "!="}[k]
}

// Constraint is a linear constraint "Sum ⋈ 0".
type Constraint struct {
	Sum  Sum
	Kind Kind
}

// NewConstraint constructs the constraint "lhs ⋈ rhs".
func NewConstraint(lhs Sum, kind Kind, rhs Sum) Constraint {
	return Constraint{lhs.Sub(rhs), kind}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s 0", c.Sum.String(func(v Var) string { return fmt.Sprintf("v%d", v) }), c.Kind)
}

// Holds checks whether this constraint holds under a given assignment.
func (c Constraint) Holds(assignment Assignment) bool {
	v := c.Sum.Eval(assignment.Get).Sign()
	//
	switch c.Kind {
	case Eq:
		return v == 0
	case Le:
		return v <= 0
	case Lt:
		return v < 0
	default:
		return v != 0
	}
}

// Result of solving an arithmetic problem.
type Result uint8

const (
	// Unknown indicates the solver gave up.
	Unknown Result = iota
	// Unsat indicates the constraints have no solution.
	Unsat
	// Sat indicates a solution was found.
	Sat
)

func (r Result) String() string {
	return [...]string{"unknown", "unsat", "sat"}[r]
}

// Assignment maps variables to values.  Unassigned variables are zero.
type Assignment map[Var]*big.Rat

// Get returns the value of a variable.
func (p Assignment) Get(v Var) *big.Rat {
	if val, ok := p[v]; ok {
		return val
	}
	//
	return new(big.Rat)
}

func (p Assignment) String() string {
	var builder strings.Builder
	//
	for v := Var(0); len(p) > 0 && int(v) <= p.maxVar(); v++ {
		if val, ok := p[v]; ok {
			builder.WriteString(fmt.Sprintf("v%d=%s ", v, val.RatString()))
		}
	}
	//
	return strings.TrimSpace(builder.String())
}

func (p Assignment) maxVar() int {
	m := 0
	for v := range p {
		m = max(m, int(v))
	}
	//
	return m
}

// Limits bound the work performed when solving a problem.  Exceeding any
// limit yields Unknown.
type Limits struct {
	// Maximum number of constraints generated during elimination.
	MaxConstraints uint
	// Maximum number of case splits on disequalities.
	MaxSplits uint
	// Maximum number of candidate values tried for an integer variable during
	// model construction.
	MaxCandidates uint
	// Maximum number of assignment steps during model construction.
	MaxSteps uint
}

// DefaultLimits are suitable for the small problems arising from validation.
var DefaultLimits = Limits{MaxConstraints: 5000, MaxSplits: 16, MaxCandidates: 64, MaxSteps: 20000}

// Problem is a conjunction of linear constraints over integer and real
// variables.
type Problem struct {
	integer     []bool
	constraints []Constraint
}

// NewProblem constructs an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

// NewVar allocates a fresh variable.
func (p *Problem) NewVar(integer bool) Var {
	p.integer = append(p.integer, integer)
	return Var(len(p.integer) - 1)
}

// IsInteger checks whether a given variable ranges over the integers.
func (p *Problem) IsInteger(v Var) bool {
	return p.integer[v]
}

// Add a constraint to this problem.
func (p *Problem) Add(c Constraint) {
	p.constraints = append(p.constraints, c)
}

// Constraints returns the constraints of this problem.
func (p *Problem) Constraints() []Constraint {
	return p.constraints
}

// Clone returns a copy of this problem which can be extended independently.
func (p *Problem) Clone() *Problem {
	return &Problem{
		integer:     append([]bool(nil), p.integer...),
		constraints: append([]Constraint(nil), p.constraints...),
	}
}
