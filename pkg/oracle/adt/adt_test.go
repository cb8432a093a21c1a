package adt

import (
	"testing"

	"github.com/r1ceplus/z3/pkg/term"
)

type vocabulary struct {
	arena     *term.Arena
	a, b      term.Term
	x, y, z   term.Term
	nil_, cns *term.Constructor
}

func newVocabulary(t *testing.T) vocabulary {
	t.Helper()
	//
	arena := term.NewArena()
	sorts := arena.Sorts()
	//
	list, err := sorts.Declare("IList")
	if err != nil {
		t.Fatal(err)
	}
	//
	dt, err := sorts.Define(list, []term.Constructor{
		{Name: "nil"},
		{Name: "cons", Fields: []term.Field{{Name: "car", Sort: term.IntSort}, {Name: "cdr", Sort: list}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	//
	return vocabulary{
		arena: arena,
		a:     arena.Var("a", term.IntSort),
		b:     arena.Var("b", term.IntSort),
		x:     arena.Var("x", list),
		y:     arena.Var("y", list),
		z:     arena.Var("z", list),
		nil_:  dt.Constructors[0],
		cns:   dt.Constructors[1],
	}
}

func (v vocabulary) nil() term.Term {
	return v.arena.MkCons(v.nil_)
}

func (v vocabulary) cons(head, tail term.Term) term.Term {
	return v.arena.MkCons(v.cns, head, tail)
}

func (v vocabulary) is(c *term.Constructor, t term.Term) term.Term {
	r, _ := v.arena.Is(c, t)
	return r
}

func Test_Adt_01(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// x = cons(a, y), x = nil
	s.Assert(v.arena.Eq(v.x, v.cons(v.a, v.y)), true)
	s.Assert(v.arena.Eq(v.x, v.nil()), true)
	checkConflict(t, s)
}

func Test_Adt_02(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// x = cons(a, y), y = cons(b, x)
	s.Assert(v.arena.Eq(v.x, v.cons(v.a, v.y)), true)
	s.Assert(v.arena.Eq(v.y, v.cons(v.b, v.x)), true)
	checkConflict(t, s)
}

func Test_Adt_03(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// cons(a, x) = cons(b, y) entails a = b and x = y
	s.Assert(v.arena.Eq(v.cons(v.a, v.x), v.cons(v.b, v.y)), true)
	checkConsistent(t, s)
	//
	if !s.Equal(v.x, v.y) {
		t.Errorf("x and y should be equal")
	}
	//
	if len(s.Implied()) != 1 || s.Implied()[0] != v.arena.Eq(v.a, v.b) {
		t.Errorf("expected implied a = b, got %s", v.arena.Strings(s.Implied()...))
	}
}

func Test_Adt_04(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// is-cons(x), is-nil(x)
	s.Assert(v.is(v.cns, v.x), true)
	s.Assert(v.is(v.nil_, v.x), true)
	checkConflict(t, s)
}

func Test_Adt_05(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// not is-cons(x), not is-nil(x)
	s.Assert(v.is(v.cns, v.x), false)
	s.Assert(v.is(v.nil_, v.x), false)
	checkConflict(t, s)
}

func Test_Adt_06(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// x = y, y = z, x != z
	s.Assert(v.arena.Eq(v.x, v.y), true)
	s.Assert(v.arena.Eq(v.y, v.z), true)
	s.Assert(v.arena.Eq(v.x, v.z), false)
	checkConflict(t, s)
}

func Test_Adt_07(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// x != y, x != z, y != z, not is-nil(x)
	s.Assert(v.arena.Eq(v.x, v.y), false)
	s.Assert(v.arena.Eq(v.x, v.z), false)
	s.Assert(v.arena.Eq(v.y, v.z), false)
	s.Assert(v.is(v.nil_, v.x), false)
	checkConsistent(t, s)
	//
	model := checkModel(t, v, s)
	//
	if model[v.x].Constructor() != v.cns {
		t.Errorf("x should be a cons")
	}
	//
	for _, pair := range [][2]term.Term{{v.x, v.y}, {v.x, v.z}, {v.y, v.z}} {
		if model[pair[0]].Equal(model[pair[1]]) {
			t.Errorf("%s and %s should differ", v.arena.String(pair[0]), v.arena.String(pair[1]))
		}
	}
}

func Test_Adt_08(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// cons(a, x) != cons(a, y) reduces to x != y
	s.Assert(v.arena.Eq(v.cons(v.a, v.x), v.cons(v.a, v.y)), false)
	checkConsistent(t, s)
	//
	model := checkModel(t, v, s)
	//
	if model[v.x].Equal(model[v.y]) {
		t.Errorf("x and y should differ")
	}
}

func Test_Adt_09(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// cons(a, x) != cons(b, x) reduces to a != b
	s.Assert(v.arena.Eq(v.cons(v.a, v.x), v.cons(v.b, v.x)), false)
	checkConsistent(t, s)
	//
	if len(s.Implied()) != 1 || s.Implied()[0] != v.arena.Not(v.arena.Eq(v.a, v.b)) {
		t.Errorf("expected implied a != b, got %s", v.arena.Strings(s.Implied()...))
	}
}

func Test_Adt_10(t *testing.T) {
	v := newVocabulary(t)
	s := NewSolver(v.arena)
	// cons(a, x) != cons(a, x') where x = x'
	s.Assert(v.arena.Eq(v.x, v.y), true)
	s.Assert(v.arena.Eq(v.cons(v.a, v.x), v.cons(v.a, v.y)), false)
	checkConflict(t, s)
}

// ============================================================================
// Helpers
// ============================================================================

func checkConflict(t *testing.T, s *Solver) {
	t.Helper()
	//
	if err := s.Check(); err == nil {
		t.Errorf("expected conflict")
	}
}

func checkConsistent(t *testing.T, s *Solver) {
	t.Helper()
	//
	if err := s.Check(); err != nil {
		t.Fatalf("unexpected conflict: %s", err)
	}
}

func checkModel(t *testing.T, v vocabulary, s *Solver) map[term.Term]term.Value {
	t.Helper()
	//
	model, ok := s.Model(func(t term.Term) term.Value {
		return v.arena.DefaultValue(v.arena.Sort(t))
	})
	//
	if !ok {
		t.Fatalf("no model found")
	}
	//
	return model
}
