package battery

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/r1ceplus/z3/pkg/harness"
	"github.com/r1ceplus/z3/pkg/oracle"
	"github.com/r1ceplus/z3/pkg/qe"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/validate"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func Test_Battery_01(t *testing.T) {
	b := Default()
	names := make(map[string]bool)
	//
	if b.Name != "default" || len(b.Cases) != 53 {
		t.Fatalf("unexpected battery %s with %d cases", b.Name, len(b.Cases))
	}
	//
	for _, c := range b.Cases {
		if names[c.Name] {
			t.Errorf("duplicate case %s", c.Name)
		}
		//
		names[c.Name] = true
	}
}

func Test_Battery_02(t *testing.T) {
	b, err := Parse([]byte(`
name: small
cases:
  - formula: "(< x y)"
    vars: [x]
  - name: pair
    formula: "(< x y)"
    vars: [x, y]
`))
	//
	if err != nil {
		t.Fatal(err.Error())
	}
	//
	expected := []Case{
		{Name: "case-1", Formula: "(< x y)", Vars: []string{"x"}},
		{Name: "pair", Formula: "(< x y)", Vars: []string{"x", "y"}},
	}
	//
	if diff := cmp.Diff(expected, b.Cases); diff != "" {
		t.Errorf("unexpected cases (-want +got):\n%s", diff)
	}
}

func Test_Battery_Invalid_01(t *testing.T) {
	checkInvalid(t, "name: empty")
	checkInvalid(t, "cases: [{name: blank}]")
	checkInvalid(t, "cases: {name: blank}")
	checkInvalid(t, "cases: [")
}

func Test_Runner_01(t *testing.T) {
	var (
		out    bytes.Buffer
		runner = checkSetup(t, Default(), &out)
	)
	//
	report, err := runner.Run(Default())
	if err != nil {
		t.Fatalf("%s\n%s", err, out.String())
	}
	//
	if report.Count(Aborted) != 0 || report.Count(Malformed) != 0 {
		t.Errorf("unexpected report\n%s", out.String())
	}
	//
	checkState(t, report, "cell-cyclic", Failed)
	checkState(t, report, "cell-null", Passed)
	checkState(t, report, "cell-cons", Passed)
	checkState(t, report, "lt-var", Passed)
	checkState(t, report, "two-vars", Passed)
	//
	if !strings.Contains(out.String(), "no solution") {
		t.Errorf("expected declined case in output")
	}
}

// Malformed cases do not stop the run.
func Test_Runner_02(t *testing.T) {
	var (
		out bytes.Buffer
		b   = &Battery{Name: "malformed", Cases: []Case{
			{Name: "unknown", Formula: "(< x w)", Vars: []string{"x"}},
			{Name: "unbalanced", Formula: "(< x y", Vars: []string{"x"}},
			{Name: "fine", Formula: "(< x y)", Vars: []string{"x"}},
		}}
		runner = checkSetup(t, b, &out)
	)
	//
	report, err := runner.Run(b)
	if err != nil {
		t.Fatal(err.Error())
	}
	//
	var states []State
	for _, r := range report.Results {
		states = append(states, r.State)
	}
	//
	if diff := cmp.Diff([]State{Malformed, Malformed, Passed}, states); diff != "" {
		t.Errorf("unexpected states (-want +got):\n%s", diff)
	}
	// Malformed cases are echoed as well
	if !strings.Contains(out.String(), "------------------------\n(< x w)\n") ||
		!strings.Contains(out.String(), "------------------------\n(< x y\n") {
		t.Errorf("unexpected output\n%s", out.String())
	}
}

// An unsound procedure stops the run with a counterexample.
func Test_Runner_03(t *testing.T) {
	var (
		out    bytes.Buffer
		h      = harness.New()
		a      = h.Arena()
		solver = oracle.NewSolver(a, oracle.DefaultConfig)
		runner = NewRunner(h, &offByOne{a}, validate.NewValidator(a, solver), &out, false)
		b      = &Battery{Name: "unsound", Cases: []Case{
			{Name: "first", Formula: "(<= x y)", Vars: []string{"x"}},
			{Name: "second", Formula: "(<= x z)", Vars: []string{"x"}},
		}}
	)
	//
	report, err := runner.Run(b)
	//
	var uerr *UnsoundError
	//
	if !errors.As(err, &uerr) {
		t.Fatalf("expected unsound error, got %v", err)
	} else if uerr.Case.Name != "first" || uerr.Branch != 0 {
		t.Errorf("unexpected error %s", uerr)
	}
	//
	if len(report.Results) != 1 || report.Results[0].State != Aborted {
		t.Errorf("expected run to stop after first case")
	}
	//
	if !strings.Contains(out.String(), "Validation failed") ||
		!strings.Contains(out.String(), "(define-fun y () Int 0)") {
		t.Errorf("unexpected output\n%s", out.String())
	}
}

// Quantified matrices cannot be validated.
func Test_Runner_04(t *testing.T) {
	var (
		out    bytes.Buffer
		h      = harness.New()
		a      = h.Arena()
		solver = oracle.NewSolver(a, oracle.DefaultConfig)
		runner = NewRunner(h, &identity{a}, validate.NewValidator(a, solver), &out, true)
	)
	//
	res, err := runner.RunCase(Case{Name: "nested", Formula: "(and (< x y) (exists ((u Int)) (< x u)))", Vars: []string{"x"}})
	if err != nil {
		t.Fatal(err.Error())
	} else if res.State != Inconclusive {
		t.Errorf("expected inconclusive, got %s", res.State)
	}
	// Quiet runs echo nothing
	if out.Len() != 0 {
		t.Errorf("unexpected output\n%s", out.String())
	}
}

// Definitions are applied simultaneously, so neither order of applying
// x := (+ y 1) and y := a one at a time gives the same verdicts.
func Test_Runner_05(t *testing.T) {
	var (
		out    bytes.Buffer
		h      = harness.New()
		a      = h.Arena()
		solver = oracle.NewSolver(a, oracle.DefaultConfig)
		runner = NewRunner(h, &chained{a}, validate.NewValidator(a, solver), &out, false)
	)
	// y then x would give (= (+ a 1) (+ y 1))
	res, err := runner.RunCase(Case{Name: "chained", Formula: "(= x (+ y 1))", Vars: []string{"x", "y"}})
	if err != nil {
		t.Fatalf("%s\n%s", err, out.String())
	} else if res.State != Passed {
		t.Errorf("expected passed, got %s", res.State)
	}
	// x then y would give (= (+ a 1) (+ a 1))
	res, err = runner.RunCase(Case{Name: "unchained", Formula: "(= x (+ a 1))", Vars: []string{"x", "y"}})
	//
	var uerr *UnsoundError
	//
	if !errors.As(err, &uerr) {
		t.Fatalf("expected unsound error, got %v", err)
	} else if res.State != Aborted {
		t.Errorf("expected unsound, got %s", res.State)
	} else if !strings.Contains(uerr.Matrix, "(+ y 1)") {
		t.Errorf("unexpected substitution %s", uerr.Matrix)
	}
}

func Test_Report_01(t *testing.T) {
	var (
		out    bytes.Buffer
		report = &Report{Name: "mixed", Results: []Result{
			{Case: Case{Name: "a"}, State: Passed},
			{Case: Case{Name: "b"}, State: Failed},
			{Case: Case{Name: "c"}, State: Passed},
		}}
	)
	//
	report.Print(&out, false)
	//
	expected := " case | branches |      status |\n" +
		"    a |        - |      passed |\n" +
		"    b |        - | no solution |\n" +
		"    c |        - |      passed |\n" +
		"mixed: 3 cases, 2 passed, 0 inconclusive, 1 no solution, 0 malformed, 0 unsound\n"
	//
	if diff := cmp.Diff(expected, out.String()); diff != "" {
		t.Errorf("unexpected report (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func checkSetup(t *testing.T, b *Battery, out *bytes.Buffer) *Runner {
	t.Helper()
	//
	runner, err := Setup(b, DefaultConfig, out)
	if err != nil {
		t.Fatal(err.Error())
	}
	//
	return runner
}

func checkState(t *testing.T, report *Report, name string, expected State) {
	t.Helper()
	//
	for _, r := range report.Results {
		if r.Case.Name == name {
			if r.State != expected {
				t.Errorf("case %s: expected %s, got %s", name, expected, r.State)
			}
			//
			return
		}
	}
	//
	t.Errorf("missing case %s", name)
}

func checkInvalid(t *testing.T, text string) {
	t.Helper()
	//
	if _, err := Parse([]byte(text)); err == nil {
		t.Errorf("expected error for %q", text)
	}
}

// offByOne witnesses every target with its successor.
type offByOne struct {
	arena *term.Arena
}

func (p *offByOne) SolveForVars(targets []term.Term, matrix term.Term) (*qe.GuardedDefs, bool) {
	var (
		defs = qe.NewGuardedDefs(p.arena, targets)
		y    = p.arena.Var("y", term.IntSort)
		ds   []qe.Definition
	)
	//
	for _, x := range targets {
		ds = append(ds, qe.Definition{Var: x, Term: p.arena.Add(y, p.arena.Int(1))})
	}
	//
	defs.Add(p.arena.True(), ds...)
	//
	return defs, true
}

// identity witnesses every target with itself, leaving the matrix intact.
type identity struct {
	arena *term.Arena
}

func (p *identity) SolveForVars(targets []term.Term, matrix term.Term) (*qe.GuardedDefs, bool) {
	defs := qe.NewGuardedDefs(p.arena, targets)
	ds := make([]qe.Definition, len(targets))
	//
	for i, x := range targets {
		ds[i] = qe.Definition{Var: x, Term: x}
	}
	//
	defs.Add(p.arena.True(), ds...)
	//
	return defs, true
}

// chained witnesses the first target with the successor of the second, and
// the second with a.
type chained struct {
	arena *term.Arena
}

func (p *chained) SolveForVars(targets []term.Term, matrix term.Term) (*qe.GuardedDefs, bool) {
	var (
		defs = qe.NewGuardedDefs(p.arena, targets)
		a    = p.arena.Var("a", term.IntSort)
	)
	//
	defs.Add(p.arena.True(),
		qe.Definition{Var: targets[0], Term: p.arena.Add(targets[1], p.arena.Int(1))},
		qe.Definition{Var: targets[1], Term: a})
	//
	return defs, true
}
