package harness

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/r1ceplus/z3/pkg/term"
)

func Test_Harness_01(t *testing.T) {
	var (
		h       = New()
		problem = checkParse(t, h, "(and (<= x y) (= (mod x 2) 0))", "x")
	)
	//
	if problem.Matrix != problem.Formula {
		t.Errorf("matrix differs from formula")
	}
	//
	checkTargets(t, h, problem, "x")
	//
	if problem.String() != "(and (<= x y) (= (mod x 2) 0))" {
		t.Errorf("unexpected matrix %s", problem)
	}
}

func Test_Harness_02(t *testing.T) {
	h := New()
	problem := checkParse(t, h, "(and (<= (+ x y) 0) (<= (+ x z) 0))", "x", "z")
	checkTargets(t, h, problem, "x", "z")
}

func Test_Harness_03(t *testing.T) {
	var (
		h       = New()
		problem = checkParse(t, h, "(exists ((c Cell)) (= c (cell null c1)))", "x")
		a       = h.Arena()
	)
	// Supplied targets are ignored
	if len(problem.Targets) != 1 {
		t.Fatalf("expected one target, got %d", len(problem.Targets))
	}
	//
	c := problem.Targets[0]
	//
	if !strings.HasPrefix(a.Name(c), "c!") || a.Sorts().Name(a.Sort(c)) != "Cell" {
		t.Errorf("unexpected target %s", a.Name(c))
	} else if !a.Occurs(c, problem.Matrix) || a.HasQuantifier(problem.Matrix) {
		t.Errorf("unexpected matrix %s", problem)
	}
	//
	checkRoundTrip(t, h, problem)
}

func Test_Harness_04(t *testing.T) {
	var (
		h       = New()
		problem = checkParse(t, h, "(exists ((u Int)) (exists ((v Int)) (and (< u v) (< v x))))")
	)
	//
	if len(problem.Targets) != 2 {
		t.Fatalf("expected two targets, got %d", len(problem.Targets))
	}
	//
	if h.Arena().HasQuantifier(problem.Matrix) {
		t.Errorf("matrix %s is quantified", problem)
	}
}

func Test_Harness_05(t *testing.T) {
	// Same bound name as a declared constant
	h := New()
	problem := checkParse(t, h, "(exists ((x Int)) (< x y))")
	//
	if x, _ := h.session.Const("x"); problem.Targets[0] == x {
		t.Errorf("target captured declared constant")
	}
	//
	checkRoundTrip(t, h, problem)
}

func Test_Harness_06(t *testing.T) {
	// Selectors shared between datatypes
	h := New()
	checkParse(t, h, "(= (car l1) 1)", "l1")
	checkParse(t, h, "(= (car c1) null)", "c1")
	checkParse(t, h, "(and (second t1) (< (third t1) 0.5))", "t1")
}

func Test_Harness_Invalid_01(t *testing.T) {
	h := New()
	checkMalformed(t, h, "(< x w)", "x")
	checkMalformed(t, h, "(< x", "x")
	checkMalformed(t, h, "(+ x 1)", "x")
	checkMalformed(t, h, "(< x l1)", "x")
	checkMalformed(t, h, "(< x y)", "q")
	checkMalformed(t, h, "(< x y)", "x", "x")
}

func Test_Harness_Invalid_02(t *testing.T) {
	if _, err := NewWithPrelude("(declare-const x Foo)"); err == nil {
		t.Errorf("expected error for unknown sort")
	}
	//
	if _, err := NewWithPrelude("(declare-const x Int) (assert (< x 0))"); err == nil {
		t.Errorf("expected error for assertion in prelude")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func checkParse(t *testing.T, h *Harness, text string, targets ...string) Problem {
	t.Helper()
	//
	problem, err := h.Parse(text, targets...)
	if err != nil {
		t.Fatal(err.Error())
	}
	//
	return problem
}

func checkTargets(t *testing.T, h *Harness, problem Problem, expected ...string) {
	t.Helper()
	//
	var names []string
	for _, v := range problem.Targets {
		names = append(names, h.Arena().Name(v))
	}
	//
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("unexpected targets (-want +got):\n%s", diff)
	}
}

// checkRoundTrip checks that requantifying the matrix gives the original
// formula, up to renaming of bound variables.
func checkRoundTrip(t *testing.T, h *Harness, problem Problem) {
	t.Helper()
	//
	var (
		a        = h.Arena()
		original = problem.Formula
		actual   = h.Requantify(problem)
	)
	//
	if a.Kind(actual) != term.KindExists {
		t.Fatalf("expected existential, got %s", a.String(actual))
	}
	//
	body := a.Substitute(a.Body(actual), a.Bound(actual), a.Bound(original))
	//
	if body != a.Body(original) {
		t.Errorf("expected %s, got %s", a.String(original), a.String(actual))
	}
}

func checkMalformed(t *testing.T, h *Harness, text string, targets ...string) {
	t.Helper()
	//
	var herr *Error
	//
	if _, err := h.Parse(text, targets...); err == nil {
		t.Errorf("%s: expected error", text)
	} else if !errors.As(err, &herr) || len(herr.Errors) == 0 {
		t.Errorf("%s: unexpected error %v", text, err)
	}
}
