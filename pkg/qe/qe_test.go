package qe

import (
	"testing"

	"github.com/r1ceplus/z3/pkg/oracle"
	"github.com/r1ceplus/z3/pkg/smtlib"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
)

const prelude = `
(declare-const x Int)
(declare-const y Int)
(declare-const a Int)
(declare-const b Int)
(declare-const r Real)
(declare-const s Real)
(declare-const p Bool)
(declare-datatypes () ((Cell (null) (cell (car Cell) (cdr Cell)))))
(declare-const c Cell)
(declare-const c1 Cell)
`

func Test_Eliminate_01(t *testing.T) {
	defs := checkSolved(t, "(<= x y)", "x")
	checkBranch(t, defs, 0, "true", "y")
}

func Test_Eliminate_02(t *testing.T) {
	checkSolved(t, "(and (<= x y) (= (mod x 2) 0))", "x")
	checkSolved(t, "(and (<= (* 2 x) y) (>= (* 3 x) a) (= (mod x 2) 0))", "x")
	checkSolved(t, "(and (< a (* 3 x)) (< (* 3 x) b))", "x")
}

func Test_Eliminate_03(t *testing.T) {
	checkSolved(t, "(or (< x 0) (> x 1))", "x")
	checkSolved(t, "(or (< x y) (> x y))", "x")
	checkSolved(t, "(not (= (* 2 x) y))", "x")
	checkSolved(t, "(or (= (* 2 x) y) (= (+ (* 2 x) 1) y))", "x")
}

func Test_Eliminate_04(t *testing.T) {
	// Simultaneous elimination of two variables
	checkSolved(t, "(and (<= (- (* 2 y) b) (+ (* 3 x) a)) (<= (- (* 2 x) a) (+ (* 4 y) b)))", "x", "y")
	checkSolved(t, "(and (<= x y) (<= y a))", "x", "y")
}

func Test_Eliminate_05(t *testing.T) {
	checkSolved(t, "(and (< a r) (< r b))", "r")
	checkSolved(t, "(and (<= s r) (not (= r 1.0)))", "r")
}

func Test_Eliminate_06(t *testing.T) {
	defs := checkSolved(t, "(and p (<= x 1))", "p")
	checkBranch(t, defs, 0, "(<= x 1)", "true")
}

func Test_Eliminate_07(t *testing.T) {
	defs := checkSolved(t, "(= c (cell null c1))", "c")
	checkBranch(t, defs, 0, "true", "(cell null c1)")
	//
	defs = checkSolved(t, "(= c null)", "c")
	checkBranch(t, defs, 0, "true", "null")
}

func Test_Eliminate_08(t *testing.T) {
	defs := checkSolved(t, "(not (= c null))", "c")
	checkBranch(t, defs, 0, "true", "(cell null null)")
	checkSolved(t, "(and (not (= c null)) (not (= c c1)))", "c")
}

func Test_Eliminate_09(t *testing.T) {
	// Variable beneath a constructor
	checkDeclined(t, "(= (cell c c) c1)", "c")
	// Non-linear
	checkDeclined(t, "(= (* x y) 2)", "x")
	// Quantified
	checkDeclined(t, "(exists ((z Int)) (< x z))", "x")
	// Period too large
	checkDeclined(t, "(= (mod x 17) 3)", "x")
}

func Test_Eliminate_10(t *testing.T) {
	// Infeasible for every candidate
	checkDeclined(t, "(and (< x 0) (> x 0))", "x")
}

func Test_Eliminate_11(t *testing.T) {
	// Division over the target
	checkSolved(t, "(= (div x 3) a)", "x")
	checkSolved(t, "(and (< (mod x 3) 2) (<= (div x 3) a))", "x")
	// Division over a later target
	checkSolved(t, "(and (<= (* 3 x) y) (< y a))", "x", "y")
	checkSolved(t, "(and (<= (+ (* 3 x) (div y 2)) b) (<= a y))", "x", "y")
}

func Test_GuardedDefs_01(t *testing.T) {
	var (
		arena, _, vars = parse(t, "true", "x", "y")
		defs           = NewGuardedDefs(arena, vars)
	)
	//
	defs.Add(arena.True(), Definition{vars[0], arena.Int(1)}, Definition{vars[1], vars[0]})
	//
	if defs.Len() != 1 || defs.Guard(0) != arena.True() || len(defs.Defs(0)) != 2 {
		t.Fatalf("unexpected solution %s", defs)
	}
	//
	if expected := "x := 1\ny := x\nif true\n"; defs.String() != expected {
		t.Errorf("expected %q, got %q", expected, defs.String())
	}
}

func Test_GuardedDefs_02(t *testing.T) {
	var (
		arena, _, vars = parse(t, "true", "x", "y")
		defs           = NewGuardedDefs(arena, vars)
	)
	//
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for incomplete branch")
		}
	}()
	//
	defs.Add(arena.True(), Definition{vars[0], arena.Int(1)})
}

// ============================================================================
// Helpers
// ============================================================================

func parse(t *testing.T, input string, targets ...string) (*term.Arena, term.Term, []term.Term) {
	t.Helper()
	//
	session := smtlib.NewSession(term.NewArena())
	//
	if _, errs := session.Execute(source.NewSourceString("prelude", prelude)); errs != nil {
		t.Fatal(errs[0].Error())
	}
	//
	assertions, errs := session.Execute(source.NewSourceString("test", "(assert "+input+")"))
	if errs != nil {
		t.Fatal(errs[0].Error())
	}
	//
	vars := make([]term.Term, len(targets))
	//
	for i, name := range targets {
		v, ok := session.Const(name)
		if !ok {
			t.Fatalf("unknown target %s", name)
		}
		//
		vars[i] = v
	}
	//
	return session.Arena(), assertions[0], vars
}

// checkSolved checks that an elimination succeeds, that no guard mentions a
// target and that every branch is sound.
func checkSolved(t *testing.T, input string, targets ...string) *GuardedDefs {
	t.Helper()
	//
	var (
		arena, matrix, vars = parse(t, input, targets...)
		solver              = oracle.NewSolver(arena, oracle.DefaultConfig)
	)
	//
	defs, ok := NewEliminator(arena, DefaultConfig).SolveForVars(vars, matrix)
	if !ok {
		t.Fatalf("%s: elimination failed", input)
	}
	//
	for i := 0; i < defs.Len(); i++ {
		branch := defs.Get(i)
		//
		if arena.OccursAny(vars, branch.Guard) {
			t.Errorf("%s: guard %s mentions a target", input, arena.String(branch.Guard))
		}
		//
		body := arena.Substitute(matrix, branch.Vars(), branch.Terms())
		//
		if res := solver.Check(arena.And(branch.Guard, arena.Not(body))).Result; res != oracle.Unsat {
			t.Errorf("%s: branch %d is %s\n%s", input, i, res, defs)
		}
	}
	//
	return defs
}

func checkDeclined(t *testing.T, input string, targets ...string) {
	t.Helper()
	//
	arena, matrix, vars := parse(t, input, targets...)
	//
	if defs, ok := NewEliminator(arena, DefaultConfig).SolveForVars(vars, matrix); ok {
		t.Errorf("%s: expected decline, got\n%s", input, defs)
	}
}

func checkBranch(t *testing.T, defs *GuardedDefs, i int, guard string, witnesses ...string) {
	t.Helper()
	//
	if i >= defs.Len() {
		t.Fatalf("missing branch %d in\n%s", i, defs)
	} else if actual := defs.arena.String(defs.Guard(i)); actual != guard {
		t.Errorf("branch %d: expected guard %s, got %s", i, guard, actual)
	}
	//
	for j, d := range defs.Defs(i) {
		if actual := defs.arena.String(d.Term); actual != witnesses[j] {
			t.Errorf("branch %d: expected %s := %s, got %s", i, defs.arena.Name(d.Var), witnesses[j], actual)
		}
	}
}
