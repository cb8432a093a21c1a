package term

import (
	"math/big"
	"testing"
)

// vocabulary constructs an arena with a handful of variables and the list
// datatype, as used by the tests below.
type vocabulary struct {
	arena   *Arena
	x, y, z Term
	l       Term
	nil_    *Constructor
	cons    *Constructor
}

func newVocabulary(t *testing.T) vocabulary {
	t.Helper()
	//
	arena := NewArena()
	sorts := arena.Sorts()
	//
	list, err := sorts.Declare("IList")
	if err != nil {
		t.Fatal(err)
	}
	//
	dt, err := sorts.Define(list, []Constructor{
		{Name: "nil"},
		{Name: "cons", Fields: []Field{{"car", IntSort}, {"cdr", list}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	//
	return vocabulary{
		arena: arena,
		x:     arena.Var("x", IntSort),
		y:     arena.Var("y", IntSort),
		z:     arena.Var("z", IntSort),
		l:     arena.Var("l", list),
		nil_:  dt.Constructors[0],
		cons:  dt.Constructors[1],
	}
}

// ============================================================================
// Arena
// ============================================================================

func Test_Arena_01(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// Hash consing
	if a.Le(v.x, v.y) != a.Le(v.x, v.y) {
		t.Errorf("structurally equal terms have different handles")
	}
	//
	if a.Le(v.x, v.y) == a.Le(v.y, v.x) {
		t.Errorf("distinct terms share a handle")
	}
}

func Test_Arena_02(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	//
	if _, err := a.Apply(OpLe, v.x, a.True()); err == nil {
		t.Errorf("ill-sorted comparison accepted")
	}
	//
	if _, err := a.Cons(v.cons, v.l, v.l); err == nil {
		t.Errorf("ill-sorted constructor accepted")
	}
}

func Test_Arena_03(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// (<= x y z) is chained
	checkString(t, a, a.Mk(OpLe, v.x, v.y, v.z), "(and (<= x y) (<= y z))")
	checkString(t, a, a.Mk(OpSub, v.x), "(- x)")
	checkString(t, a, a.Num(big.NewRat(-1, 2), RealSort), "(- (/ 1.0 2.0))")
	checkString(t, a, a.Int(-3), "(- 3)")
}

func Test_Arena_04(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	//
	nil_ := a.MkCons(v.nil_)
	is, _ := a.Is(v.cons, v.l)
	car, _ := a.Select(v.cons, 0, v.l)
	//
	checkString(t, a, a.MkCons(v.cons, v.x, nil_), "(cons x nil)")
	checkString(t, a, is, "((_ is cons) l)")
	checkString(t, a, car, "(car l)")
}

func Test_Arena_05(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	f1 := a.Fresh("x", IntSort)
	f2 := a.Fresh("x", IntSort)
	//
	if f1 == f2 || f1 == v.x {
		t.Errorf("fresh variables are not fresh")
	}
}

// ============================================================================
// Substitution
// ============================================================================

func Test_Subst_01(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	phi := a.Le(v.x, v.y)
	// x := y + 1
	r := a.Substitute(phi, []Term{v.x}, []Term{a.Add(v.y, a.Int(1))})
	checkString(t, a, r, "(<= (+ y 1) y)")
}

func Test_Subst_02(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	phi := a.Le(v.x, v.y)
	// Simultaneous: x := y, y := x
	r := a.Substitute(phi, []Term{v.x, v.y}, []Term{v.y, v.x})
	checkString(t, a, r, "(<= y x)")
}

func Test_Subst_03(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// Identity
	phi := a.And(a.Le(v.x, v.y), a.Eq(a.Mod(v.x, a.Int(2)), a.Int(0)))
	//
	if r := a.Substitute(phi, []Term{v.x}, []Term{v.x}); r != phi {
		t.Errorf("identity substitution changed %s into %s", a.String(phi), a.String(r))
	}
}

func Test_Subst_04(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// Idempotence when replacements do not mention the substituted variable
	phi := a.Or(a.Le(v.x, v.y), a.Lt(v.z, a.Mul(a.Int(2), v.x)))
	s := NewSubstitution(a, []Term{v.x}, []Term{a.Add(v.y, v.z)})
	once := s.Apply(phi)
	//
	if twice := s.Apply(once); twice != once {
		t.Errorf("substitution not idempotent: %s vs %s", a.String(once), a.String(twice))
	}
}

func Test_Subst_05(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// Bound occurrences are untouched: (exists ((x Int)) (<= x y))[x := z]
	q, _ := a.Exists([]Term{v.x}, a.Le(v.x, v.y))
	phi := a.And(a.Le(v.x, a.Int(0)), q)
	r := a.Substitute(phi, []Term{v.x}, []Term{v.z})
	checkString(t, a, r, "(and (<= z 0) (exists ((x Int)) (<= x y)))")
}

func Test_Subst_06(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// Capture avoidance: (exists ((x Int)) (<= x y))[y := x]
	q, _ := a.Exists([]Term{v.x}, a.Le(v.x, v.y))
	r := a.Substitute(q, []Term{v.y}, []Term{v.x})
	//
	if !a.IsQuantifier(r) {
		t.Fatalf("expected quantifier, got %s", a.String(r))
	}
	//
	bound := a.Bound(r)[0]
	if bound == v.x {
		t.Fatalf("bound variable captured replacement: %s", a.String(r))
	}
	//
	if a.Body(r) != a.Le(bound, v.x) {
		t.Errorf("unexpected body %s", a.String(a.Body(r)))
	}
}

func Test_Subst_07(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	//
	defer func() {
		if recover() == nil {
			t.Errorf("sort mismatch not detected")
		}
	}()
	//
	NewSubstitution(a, []Term{v.x}, []Term{v.l})
}

// ============================================================================
// Simplification
// ============================================================================

func Test_Simplify_01(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// y + 1 <= y
	checkSimplify(t, a, a.Le(a.Add(v.y, a.Int(1)), v.y), "false")
	// y <= y
	checkSimplify(t, a, a.Le(v.y, v.y), "true")
}

func Test_Simplify_02(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	// 2x < 5 ==> x <= 2
	checkSimplify(t, a, a.Lt(a.Mul(a.Int(2), v.x), a.Int(5)), "(<= x 2)")
	// 2x = 5 ==> false
	checkSimplify(t, a, a.Eq(a.Mul(a.Int(2), v.x), a.Int(5)), "false")
	// 4 = 2x + 2y ==> x + y = 2
	checkSimplify(t, a, a.Eq(a.Int(4), a.Add(a.Mul(a.Int(2), v.x), a.Mul(a.Int(2), v.y))), "(= (+ x y) 2)")
}

func Test_Simplify_03(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	//
	checkSimplify(t, a, a.Mod(a.Int(-7), a.Int(3)), "2")
	checkSimplify(t, a, a.Div(a.Int(-7), a.Int(3)), "(- 3)")
	checkSimplify(t, a, a.Mod(a.Add(a.Mul(a.Int(4), v.x), a.Int(3)), a.Int(2)), "1")
	// Multiples of the divisor leave the quotient
	checkSimplify(t, a, a.Div(a.Add(a.Mul(a.Int(6), v.x), a.Int(5)), a.Int(3)), "(+ (* 2 x) 1)")
	checkSimplify(t, a, a.Div(a.Add(a.Mul(a.Int(6), v.x), v.y, a.Int(5)), a.Int(3)),
		"(+ (* 2 x) (div (+ y 2) 3) 1)")
	checkSimplify(t, a, a.Div(a.Add(v.x, v.y), a.Int(3)), "(div (+ x y) 3)")
}

func Test_Simplify_04(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	nil_ := a.MkCons(v.nil_)
	cons := a.MkCons(v.cons, v.x, v.l)
	// (= nil (cons x l))
	checkSimplify(t, a, a.Eq(nil_, cons), "false")
	// (= l (cons x l))
	checkSimplify(t, a, a.Eq(v.l, cons), "false")
	// (car (cons x l))
	car, _ := a.Select(v.cons, 0, cons)
	checkSimplify(t, a, car, "x")
	// ((_ is nil) (cons x l))
	is, _ := a.Is(v.nil_, cons)
	checkSimplify(t, a, is, "false")
}

func Test_Simplify_05(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	b := a.Le(v.x, v.y)
	//
	checkSimplify(t, a, a.And(b, a.True(), b), "(<= (+ x (- y)) 0)")
	checkSimplify(t, a, a.And(b, a.Not(b)), "false")
	checkSimplify(t, a, a.Implies(a.False(), b), "true")
}

// ============================================================================
// Evaluation
// ============================================================================

func Test_Eval_01(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	m := NewModel(a)
	m.Set(v.x, IntValue(-7))
	m.Set(v.y, IntValue(3))
	//
	checkEval(t, m, a.Eq(a.Mod(v.x, v.y), a.Int(2)), true)
	checkEval(t, m, a.Eq(a.Div(v.x, v.y), a.Int(-3)), true)
	checkEval(t, m, a.Le(v.x, v.y), true)
	checkEval(t, m, a.Le(v.y, v.x), false)
}

func Test_Eval_02(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	m := NewModel(a)
	m.Set(v.l, DatatypeValue(v.cons, IntValue(5), DatatypeValue(v.nil_)))
	//
	car, _ := a.Select(v.cons, 0, v.l)
	cdr, _ := a.Select(v.cons, 1, v.l)
	carcdr, _ := a.Select(v.cons, 0, cdr)
	// (car l) = 5
	checkEval(t, m, a.Eq(car, a.Int(5)), true)
	// (car (cdr l)) = 0, since cdr l is nil
	checkEval(t, m, a.Eq(carcdr, a.Int(0)), true)
}

func Test_Eval_03(t *testing.T) {
	v := newVocabulary(t)
	a := v.arena
	m := NewModel(a)
	m.Set(v.y, IntValue(0))
	//
	if s := m.String(); s != "(model\n  (define-fun y () Int 0))" {
		t.Errorf("unexpected model %q", s)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func checkString(t *testing.T, a *Arena, term Term, expected string) {
	t.Helper()
	//
	if actual := a.String(term); actual != expected {
		t.Errorf("expected %s, got %s", expected, actual)
	}
}

func checkSimplify(t *testing.T, a *Arena, term Term, expected string) {
	t.Helper()
	checkString(t, a, a.Simplify(term), expected)
}

func checkEval(t *testing.T, m *Model, term Term, expected bool) {
	t.Helper()
	//
	if actual, err := m.Holds(term); err != nil {
		t.Error(err)
	} else if actual != expected {
		t.Errorf("expected %t, got %t", expected, actual)
	}
}
