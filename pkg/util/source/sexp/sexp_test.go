package sexp

import (
	"reflect"
	"strings"
	"testing"

	"github.com/r1ceplus/z3/pkg/util/source"
)

// ============================================================================
// Positive Tests
// ============================================================================

func TestSexp_0(t *testing.T) {
	CheckOk(t, nil, "")
}

func TestSexp_1(t *testing.T) {
	e1 := List{nil}
	CheckOk(t, &e1, "()")
}

func TestSexp_2(t *testing.T) {
	e1 := List{nil}
	e2 := List{[]SExp{&e1}}
	CheckOk(t, &e2, "(())")
}

func TestSexp_3(t *testing.T) {
	e1 := Symbol{"symbol"}
	CheckOk(t, &e1, "symbol")
}

func TestSexp_4(t *testing.T) {
	e1 := Symbol{"12345"}
	CheckOk(t, &e1, "12345")
}

func TestSexp_5(t *testing.T) {
	e1 := Symbol{"<="}
	e2 := Symbol{"x"}
	e3 := Symbol{"y"}
	e4 := List{[]SExp{&e1, &e2, &e3}}
	CheckOk(t, &e4, "(<= x y)")
}

func TestSexp_6(t *testing.T) {
	e1 := Symbol{"_"}
	e2 := Symbol{"is"}
	e3 := Symbol{"cons"}
	e4 := List{[]SExp{&e1, &e2, &e3}}
	e5 := Symbol{"l1"}
	e6 := List{[]SExp{&e4, &e5}}
	CheckOk(t, &e6, "((_ is cons) l1)")
}

func TestSexp_7(t *testing.T) {
	e1 := Symbol{"hello world"}
	CheckOk(t, &e1, "|hello world|")
}

func TestSexp_8(t *testing.T) {
	e1 := Symbol{"not"}
	e2 := Symbol{"b"}
	e3 := List{[]SExp{&e1, &e2}}
	CheckOk(t, &e3, "; negation\n(not\n\tb) ; trailing")
}

func TestSexp_9(t *testing.T) {
	e1 := Symbol{"a"}
	e2 := Symbol{"b"}
	e3 := List{[]SExp{&e1, &e2}}
	CheckOk(t, &e3, "(a|b|)")
}

// ============================================================================
// Negative Tests
// ============================================================================

// unexpected end of list
func TestSexp_Err1(t *testing.T) {
	CheckErr(t, ")")
}

// unexpected end of list
func TestSexp_Err2(t *testing.T) {
	CheckErr(t, "())")
}

// unexpected end of file
func TestSexp_Err3(t *testing.T) {
	CheckErr(t, "(and x (or y")
}

// unterminated quote
func TestSexp_Err4(t *testing.T) {
	CheckErr(t, "(= |x y)")
}

func TestSexp_ParseAll_01(t *testing.T) {
	file := source.NewSourceString("test", "(declare-const x Int) (assert (<= x 0))")
	//
	terms, _, err := ParseAll(file)
	if err != nil {
		t.Fatal(err)
	} else if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	} else if terms[1].AsList().Head() != "assert" {
		t.Errorf("unexpected second term %s", terms[1].String(false))
	}
}

func TestSexp_SourceMap_01(t *testing.T) {
	file := source.NewSourceString("test", "(assert (<= x 0))")
	//
	term, srcmap, err := Parse(file)
	if err != nil {
		t.Fatal(err)
	}
	//
	inner := term.AsList().Get(1)
	span := srcmap.Get(inner)
	//
	if span.Start() != 8 || span.End() != 16 {
		t.Errorf("unexpected span %d..%d", span.Start(), span.End())
	}
}

// ============================================================================
// Formatting
// ============================================================================

func TestSexp_Format_01(t *testing.T) {
	CheckFormat(t, 80, "(and (<= x y) (= (mod x 2) 0))", "(and (<= x y) (= (mod x 2) 0))")
}

func TestSexp_Format_02(t *testing.T) {
	CheckFormat(t, 16, "(and (<= x y) (= (mod x 2) 0))", "(and\n  (<= x y)\n  (= (mod x 2) 0))")
}

func TestSexp_Format_03(t *testing.T) {
	CheckFormat(t, 20, "(exists ((c Cell)) (and (= c null) (= c c1)))",
		"(exists ((c Cell))\n  (and\n    (= c null)\n    (= c c1)))")
}

// ============================================================================
// Helpers
// ============================================================================

func CheckOk(t *testing.T, sexp1 SExp, input string) {
	t.Helper()
	//
	sexp2, _, err := Parse(source.NewSourceString("test", input))
	//
	if err != nil {
		t.Error(err)
	} else if !reflect.DeepEqual(sexp1, sexp2) {
		t.Errorf("%v != %v", sexp1, sexp2)
	}
}

func CheckErr(t *testing.T, input string) {
	t.Helper()
	//
	_, _, err := Parse(source.NewSourceString("test", input))
	//
	if err == nil {
		t.Errorf("input should not have parsed!")
	}
}

func CheckFormat(t *testing.T, width uint, input string, expected string) {
	t.Helper()
	//
	term, _, err := Parse(source.NewSourceString("test", input))
	if err != nil {
		t.Fatal(err)
	}
	//
	formatter := NewFormatter(width).
		Add(&SFormatter{Head: "exists", Priority: 0}).
		Add(&IFormatter{Head: "and", Priority: 0})
	//
	if actual := formatter.Format(term); actual != expected {
		t.Errorf("formatting mismatch:\n%s\nexpected:\n%s", actual,
			strings.ReplaceAll(expected, " ", "."))
	}
}
