package smtlib

import (
	"strings"
	"testing"

	"github.com/r1ceplus/z3/pkg/term"
	"github.com/r1ceplus/z3/pkg/util/source"
)

const prelude = `
(declare-const x Int)
(declare-const y Int)
(declare-datatypes () ((IList (nil) (cons (car Int) (cdr IList)))))
(declare-const l1 IList)
(declare-datatypes ((Cell 0)) (((null) (cell (car Cell) (cdr Cell)))))
(declare-const c1 Cell)
(declare-datatype Tuple ((tuple (first Int) (second Bool) (third Real))))
(declare-fun t1 () Tuple)
`

func Test_Session_01(t *testing.T) {
	checkAssert(t, "(<= x y)", "(<= x y)")
	checkAssert(t, "(>= x 1 y)", "(and (>= x 1) (>= 1 y))")
	checkAssert(t, "(= (- x) (* 2 y))", "(= (- x) (* 2 y))")
	checkAssert(t, "(=> (< x 0) (> y 0) (= x y))", "(=> (< x 0) (=> (> y 0) (= x y)))")
}

func Test_Session_02(t *testing.T) {
	checkAssert(t, "(= l1 (cons x nil))", "(= l1 (cons x nil))")
	checkAssert(t, "((_ is cons) l1)", "((_ is cons) l1)")
	checkAssert(t, "(is-nil l1)", "((_ is nil) l1)")
	// car resolves according to its argument
	checkAssert(t, "(= (car l1) x)", "(= (car l1) x)")
	checkAssert(t, "(= (car c1) null)", "(= (car c1) null)")
	checkAssert(t, "(= (third t1) 1.5)", "(= (third t1) (/ 3.0 2.0))")
}

func Test_Session_03(t *testing.T) {
	checkAssert(t, "(exists ((c Cell)) (= c (cell null c1)))", "(exists ((c Cell)) (= c (cell null c1)))")
	checkAssert(t, "(forall ((x Int)) (<= x y))", "(forall ((x Int)) (<= x y))")
	checkAssert(t, "(let ((z (+ x 1))) (<= z y))", "(<= (+ x 1) y)")
}

func Test_Session_04(t *testing.T) {
	session := newSession(t)
	// Bound variables go out of scope
	checkError(t, session, "(assert (and (exists ((z Int)) (<= z 0)) (<= z 0)))", "unknown symbol")
}

func Test_Session_05(t *testing.T) {
	session := newSession(t)
	//
	checkError(t, session, "(assert (<= x l1))", "expects Int or Real")
	checkError(t, session, "(assert (foo x))", "unknown function")
	checkError(t, session, "(assert (<= x y)", "unexpected end-of-file")
	checkError(t, session, "(assert (car t1))", "not applicable")
	checkError(t, session, "(assert x)", "expected Bool")
	checkError(t, session, "(declare-const x Int)", "already declared")
	checkError(t, session, "(frobnicate)", "unknown command")
}

func Test_Session_06(t *testing.T) {
	session := newSession(t)
	//
	if len(session.Consts()) != 5 {
		t.Errorf("expected 5 constants, got %d", len(session.Consts()))
	}
	//
	if x, ok := session.Const("x"); !ok || session.Arena().Sort(x) != term.IntSort {
		t.Errorf("x should be declared as Int")
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	//
	session := NewSession(term.NewArena())
	if _, errs := session.Execute(source.NewSourceString("prelude", prelude)); errs != nil {
		t.Fatal(errs[0].Error())
	}
	//
	return session
}

func checkAssert(t *testing.T, input string, expected string) {
	t.Helper()
	//
	session := newSession(t)
	//
	assertions, errs := session.Execute(source.NewSourceString("test", "(assert "+input+")"))
	if errs != nil {
		t.Fatal(errs[0].Error())
	} else if len(assertions) != 1 {
		t.Fatalf("expected one assertion, got %d", len(assertions))
	}
	//
	if actual := session.Arena().String(assertions[0]); actual != expected {
		t.Errorf("expected %s, got %s", expected, actual)
	}
}

func checkError(t *testing.T, session *Session, input string, expected string) {
	t.Helper()
	//
	_, errs := session.Execute(source.NewSourceString("test", input))
	if len(errs) == 0 {
		t.Fatalf("expected error for %s", input)
	} else if !strings.Contains(errs[0].Message(), expected) {
		t.Errorf("expected error containing %q, got %q", expected, errs[0].Message())
	}
}
