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
package battery

import (
	"errors"
	"fmt"
	"io"

	"github.com/r1ceplus/z3/pkg/harness"
	"github.com/r1ceplus/z3/pkg/oracle"
	"github.com/r1ceplus/z3/pkg/qe"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util"
	"github.com/r1ceplus/z3/pkg/validate"
	log "github.com/sirupsen/logrus"
)

// State identifies the progress of a single case through a run.  A case moves
// from Parsed to either Eliminated or Failed, and then from Eliminated through
// Validating to one of Passed, Inconclusive or Aborted.  Malformed cases never
// reach Parsed.
type State uint8

const (
	// Parsed indicates the formula was parsed into an elimination problem.
	Parsed State = iota
	// Eliminated indicates the procedure produced a solution.
	Eliminated
	// Failed indicates the procedure declined to produce a solution.
	Failed
	// Validating indicates the branches of a solution are being validated.
	Validating
	// Passed indicates every branch was validated as sound.
	Passed
	// Inconclusive indicates no branch was unsound, but some could not be
	// validated.
	Inconclusive
	// Aborted indicates some branch was unsound, which terminates the run.
	Aborted
	// Malformed indicates the formula itself was invalid.
	Malformed
)

func (s State) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Eliminated:
		return "eliminated"
	case Failed:
		return "no solution"
	case Validating:
		return "validating"
	case Passed:
		return "passed"
	case Inconclusive:
		return "inconclusive"
	case Aborted:
		return "unsound"
	default:
		return "malformed"
	}
}

// Result records the outcome of running a single case.
type Result struct {
	Case  Case
	State State
	// Elimination problem (unless malformed)
	Problem harness.Problem
	// Solution (when eliminated)
	Solution *qe.GuardedDefs
	// Verdicts of the branches validated
	Verdicts []validate.Verdict
	// Reason the case is malformed
	Err error
}

// UnsoundError reports a branch of a solution for which the oracle found a
// counterexample.  This indicates the elimination procedure is incorrect, and
// terminates the run.
type UnsoundError struct {
	Case Case
	// Index of the offending branch
	Branch int
	// Guard of the offending branch
	Guard string
	// Matrix with the branch's definitions substituted
	Matrix string
	// Obligation found satisfiable
	Obligation string
	// Counterexample
	Model *term.Model
}

func (p *UnsoundError) Error() string {
	return fmt.Sprintf("unsound solution for case %s (branch %d)", p.Case.Name, p.Branch)
}

// Config determines the components used to run a battery.
type Config struct {
	Oracle      oracle.Config
	Elimination qe.Config
	// Suppress the echo of each case
	Quiet bool
}

// DefaultConfig runs a battery with the default components.
var DefaultConfig = Config{Oracle: oracle.DefaultConfig, Elimination: qe.DefaultConfig}

// Runner runs the cases of a battery through an elimination procedure, and
// validates the solutions produced.  Cases are run strictly in sequence, and
// diagnostics are written as they arise.
type Runner struct {
	harness   *harness.Harness
	procedure qe.Procedure
	validator *validate.Validator
	out       io.Writer
	quiet     bool
}

// NewRunner constructs a runner from its components, which must share the
// harness's arena.
func NewRunner(h *harness.Harness, procedure qe.Procedure, validator *validate.Validator, out io.Writer,
	quiet bool) *Runner {
	return &Runner{h, procedure, validator, out, quiet}
}

// Setup constructs a runner for a given battery, using the default
// elimination procedure and oracle.
func Setup(b *Battery, config Config, out io.Writer) (*Runner, error) {
	h := harness.New()
	//
	if b.Prelude != "" {
		var err error
		if h, err = harness.NewWithPrelude(b.Prelude); err != nil {
			return nil, err
		}
	}
	//
	var (
		arena     = h.Arena()
		procedure = qe.NewEliminator(arena, config.Elimination)
		validator = validate.NewValidator(arena, oracle.NewSolver(arena, config.Oracle))
	)
	//
	return NewRunner(h, procedure, validator, out, config.Quiet), nil
}

// Run every case of a battery in order.  The run stops at the first unsound
// solution, in which case an UnsoundError is returned along with the results
// so far.
func (p *Runner) Run(b *Battery) (*Report, error) {
	var (
		stats  = util.NewPerfStats()
		report = &Report{Name: b.Name}
	)
	//
	for _, c := range b.Cases {
		res, err := p.RunCase(c)
		report.Results = append(report.Results, res)
		//
		if err != nil {
			return report, err
		}
	}
	//
	stats.Log(fmt.Sprintf("Running %d cases", len(b.Cases)))
	//
	return report, nil
}

// RunCase runs a single case.  An error is returned only when the solution is
// unsound.
func (p *Runner) RunCase(c Case) (Result, error) {
	res := Result{Case: c}
	//
	p.printf("------------------------\n%s\n", c.Formula)
	//
	problem, err := p.harness.Parse(c.Formula, c.Vars...)
	if err != nil {
		p.malformed(c, err)
		res.State, res.Err = Malformed, err
		//
		return res, nil
	}
	//
	res.State, res.Problem = Parsed, problem
	//
	solution, ok := p.procedure.SolveForVars(problem.Targets, problem.Matrix)
	if !ok {
		p.printf("no solution\n")
		res.State = Failed
		//
		return res, nil
	}
	//
	res.State, res.Solution = Eliminated, solution
	//
	if !p.quiet {
		solution.Display(p.out)
	}
	//
	res.State = Validating
	res.Verdicts = p.validator.ValidateAll(problem.Matrix, solution)
	res.State = Passed
	//
	for i, v := range res.Verdicts {
		switch v.Status {
		case validate.Unsound:
			res.State = Aborted
			return res, p.unsound(c, solution, i, v)
		case validate.Inconclusive:
			log.Warnf("case %s: branch %d is inconclusive", c.Name, i)
			res.State = Inconclusive
		}
	}
	//
	return res, nil
}

func (p *Runner) malformed(c Case, err error) {
	log.Warnf("case %s: %s", c.Name, err)
	//
	var herr *harness.Error
	//
	if errors.As(err, &herr) && !p.quiet {
		for i := range herr.Errors {
			herr.Errors[i].Print(p.out)
		}
	}
}

// unsound reports an unsound branch in full, regardless of quietness.
func (p *Runner) unsound(c Case, solution *qe.GuardedDefs, branch int, v validate.Verdict) *UnsoundError {
	var (
		a   = p.harness.Arena()
		err = &UnsoundError{
			Case:       c,
			Branch:     branch,
			Guard:      a.String(solution.Guard(branch)),
			Matrix:     a.String(v.Matrix),
			Obligation: a.String(v.Obligation),
			Model:      v.Model,
		}
	)
	//
	log.Errorf("case %s: branch %d is unsound", c.Name, branch)
	//
	fmt.Fprintf(p.out, "Validation failed\nformula: %s\nguard: %s\nsubstituted: %s\nobligation: %s\n%s\n",
		c.Formula, err.Guard, err.Matrix, err.Obligation, err.Model)
	//
	return err
}

func (p *Runner) printf(format string, args ...any) {
	if !p.quiet {
		fmt.Fprintf(p.out, format, args...)
	}
}
