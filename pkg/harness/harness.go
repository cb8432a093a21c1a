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
package harness

import (
	"fmt"
	"slices"

	"github.com/r1ceplus/z3/pkg/smtlib"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Prelude declares the vocabulary shared by every test formula: integer
// variables, a list-shaped and a cell-shaped recursive datatype, and a tuple
// with integer, boolean and real fields.
const Prelude = `
(declare-const x Int)
(declare-const y Int)
(declare-const z Int)
(declare-const a Int)
(declare-const b Int)
(declare-datatypes () ((IList (nil) (cons (car Int) (cdr IList)))))
(declare-const l1 IList)
(declare-const l2 IList)
(declare-datatypes () ((Cell (null) (cell (car Cell) (cdr Cell)))))
(declare-const c1 Cell)
(declare-const c2 Cell)
(declare-const c3 Cell)
(declare-datatypes () ((Tuple (tuple (first Int) (second Bool) (third Real)))))
(declare-const t1 Tuple)
(declare-const t2 Tuple)
(declare-const t3 Tuple)
`

// Harness constructs elimination problems from formulas written against a
// fixed vocabulary.  All problems share the same arena, which lives as long as
// the harness.
type Harness struct {
	session *smtlib.Session
}

// New constructs a harness over the default vocabulary.
func New() *Harness {
	h, err := NewWithPrelude(Prelude)
	if err != nil {
		panic(err.Error())
	}
	//
	return h
}

// NewWithPrelude constructs a harness whose vocabulary is declared by a given
// SMT-LIB script.
func NewWithPrelude(prelude string) (*Harness, error) {
	var (
		session = smtlib.NewSession(term.NewArena())
		srcfile = source.NewSourceString("prelude", prelude)
	)
	//
	if assertions, errs := session.Execute(srcfile); len(errs) > 0 {
		return nil, &Error{"prelude", errs}
	} else if len(assertions) > 0 {
		return nil, &Error{"prelude", []source.SyntaxError{*srcfile.SyntaxError(source.NewSpan(0, 0),
			"prelude cannot contain assertions")}}
	}
	//
	return &Harness{session}, nil
}

// Arena returns the arena holding every term constructed by this harness.
func (p *Harness) Arena() *term.Arena {
	return p.session.Arena()
}

// Parse constructs an elimination problem from the text of a formula.  When
// the formula begins with an existential quantifier, its bound variables are
// replaced by fresh constants, which become the targets, and its body becomes
// the matrix.  Otherwise, the formula itself is the matrix and the targets are
// the named constants, in order.
func (p *Harness) Parse(text string, targets ...string) (Problem, error) {
	var (
		a       = p.Arena()
		srcfile = source.NewSourceString("formula", text)
		whole   = source.NewSpan(0, len(srcfile.Contents()))
	)
	//
	formula, errs := p.session.ParseTerm(srcfile)
	if len(errs) > 0 {
		return Problem{}, &Error{text, errs}
	} else if a.Sort(formula) != term.BoolSort {
		return Problem{}, newError(text, srcfile.SyntaxError(whole, "expected Bool formula"))
	}
	//
	problem := Problem{arena: a, Formula: formula, Matrix: formula}
	//
	if a.Kind(formula) == term.KindExists {
		for a.Kind(problem.Matrix) == term.KindExists {
			var (
				bound = a.Bound(problem.Matrix)
				fresh = make([]term.Term, len(bound))
			)
			//
			for i, v := range bound {
				fresh[i] = a.Fresh(a.Name(v), a.Sort(v))
			}
			//
			problem.Matrix = term.NewSubstitution(a, bound, fresh).Apply(a.Body(problem.Matrix))
			problem.Targets = append(problem.Targets, fresh...)
		}
		//
		log.Debugf("harness: stripped %d bound variables from %s", len(problem.Targets), text)
		//
		return problem, nil
	}
	//
	for _, name := range targets {
		v, ok := p.session.Const(name)
		//
		switch {
		case !ok:
			return Problem{}, newError(text, srcfile.SyntaxError(whole, fmt.Sprintf("unknown target \"%s\"", name)))
		case slices.Contains(problem.Targets, v):
			return Problem{}, newError(text, srcfile.SyntaxError(whole, fmt.Sprintf("duplicate target \"%s\"", name)))
		}
		//
		problem.Targets = append(problem.Targets, v)
	}
	//
	return problem, nil
}

// Requantify reconstructs the existentially quantified formula represented
// by a problem, i.e. ∃targets.matrix.
func (p *Harness) Requantify(problem Problem) term.Term {
	if len(problem.Targets) == 0 {
		return problem.Matrix
	}
	//
	return p.Arena().Quantify(term.KindExists, problem.Targets, problem.Matrix)
}

// Problem is a quantifier elimination problem: the targets are to be
// eliminated from the matrix.
type Problem struct {
	arena *term.Arena
	// Formula from which this problem was constructed
	Formula term.Term
	// Variables to eliminate
	Targets []term.Term
	// Quantifier-free matrix
	Matrix term.Term
}

// String echoes the matrix of this problem.
func (p Problem) String() string {
	return p.arena.String(p.Matrix)
}

// Error reports a malformed test formula (or vocabulary).  This indicates a
// problem with the test case itself, rather than with the procedure under
// test.
type Error struct {
	// Text being parsed
	Text string
	// Underlying errors
	Errors []source.SyntaxError
}

func newError(text string, err *source.SyntaxError) *Error {
	return &Error{text, []source.SyntaxError{*err}}
}

func (p *Error) Error() string {
	if len(p.Errors) == 1 {
		return fmt.Sprintf("malformed formula %s: %s", p.Text, p.Errors[0].Message())
	}
	//
	return fmt.Sprintf("malformed formula %s: %s (and %d more errors)", p.Text, p.Errors[0].Message(),
		len(p.Errors)-1)
}
