package oracle

import (
	"testing"

	"github.com/r1ceplus/z3/pkg/smtlib"
	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
)

const prelude = `
(declare-const x Int)
(declare-const y Int)
(declare-const r Real)
(declare-const p Bool)
(declare-const q Bool)
(declare-datatypes () ((IList (nil) (cons (car Int) (cdr IList)))))
(declare-const l1 IList)
(declare-const l2 IList)
(declare-datatype Tuple ((tuple (first Int) (second Bool) (third Real))))
(declare-const t1 Tuple)
`

func Test_Oracle_01(t *testing.T) {
	checkUnsat(t, "(and (<= x y) (< y x))")
	checkUnsat(t, "(and (= (mod x 2) 1) (= x 4))")
	checkUnsat(t, "(and (< 0 (* 3 x)) (< (* 3 x) 3))")
}

func Test_Oracle_02(t *testing.T) {
	checkSat(t, "(and (= (+ x y) 3) (= (- x y) 1))")
	checkSat(t, "(and (= (div x 3) 2) (not (= (mod x 3) 0)))")
	checkSat(t, "(and (< 0.0 r) (< r 1.0))")
}

func Test_Oracle_03(t *testing.T) {
	checkSat(t, "(and (or p q) (not p))")
	checkUnsat(t, "(and (or p (< x 0)) (not p) (> x 0))")
	checkSat(t, "(xor p (<= x y))")
}

func Test_Oracle_04(t *testing.T) {
	checkUnsat(t, "(not (= (ite (< x 0) (- x) x) (abs x)))")
	checkSat(t, "(= (ite p x y) 5)")
}

func Test_Oracle_05(t *testing.T) {
	checkUnsat(t, "(and (= l1 (cons x nil)) (not (= (car l1) x)))")
	checkUnsat(t, "(and ((_ is cons) l1) ((_ is nil) l1))")
	checkUnsat(t, "(= l1 (cons x l1))")
	checkSat(t, "(and ((_ is cons) l1) (> (car l1) 3))")
	checkSat(t, "(and (not (= l1 l2)) (= (cdr l1) (cdr l2)))")
}

func Test_Oracle_06(t *testing.T) {
	checkUnsat(t, "(and (= t1 (tuple 1 true 0.5)) (not (second t1)))")
	checkSat(t, "(and (= (first t1) 2) (second t1) (< (third t1) 0.0))")
}

func Test_Oracle_07(t *testing.T) {
	// Quantified formulas are beyond the oracle
	checkResult(t, "(exists ((z Int)) (< x z))", Unknown)
}

func Test_Oracle_08(t *testing.T) {
	// Selectors applied to the wrong constructor are unconstrained
	checkSat(t, "(and (= l1 nil) (= (car l1) 0))")
	checkSat(t, "(and (= l1 nil) (= (car l1) 1))")
	checkSat(t, "(and (= l1 nil) (not (= (car l1) 0)))")
	checkSat(t, "(and (= l1 nil) (= (cdr l1) (cons 2 nil)))")
	checkSat(t, "(and (= l1 nil) (= l2 nil) (= (car l1) 1) (= (car l2) 1))")
}

func Test_Oracle_09(t *testing.T) {
	// Selectors remain functions of their argument
	checkUnsat(t, "(and (= l1 l2) (not (= (car l1) (car l2))))")
	checkUnsat(t, "(and (= l1 nil) (= l2 nil) (= (car l1) 1) (= (car l2) 2))")
}

// ============================================================================
// Helpers
// ============================================================================

func parse(t *testing.T, input string) (*term.Arena, term.Term) {
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
	return session.Arena(), assertions[0]
}

func checkResult(t *testing.T, input string, expected Result) Outcome {
	t.Helper()
	//
	arena, formula := parse(t, input)
	outcome := NewSolver(arena, DefaultConfig).Check(formula)
	//
	if outcome.Result != expected {
		t.Fatalf("%s: expected %s, got %s", input, expected, outcome.Result)
	}
	//
	if expected == Sat {
		if ok, err := outcome.Model.Holds(formula); err != nil || !ok {
			t.Errorf("%s: model does not satisfy formula\n%s", input, outcome.Model)
		}
		//
		for _, v := range arena.FreeVars(formula) {
			if !outcome.Model.Has(v) {
				t.Errorf("%s: model does not assign %s", input, arena.String(v))
			}
		}
	}
	//
	return outcome
}

func checkSat(t *testing.T, input string) {
	t.Helper()
	checkResult(t, input, Sat)
}

func checkUnsat(t *testing.T, input string) {
	t.Helper()
	checkResult(t, input, Unsat)
}
