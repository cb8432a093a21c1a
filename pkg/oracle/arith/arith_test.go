package arith

import (
	"math/big"
	"testing"

	"github.com/r1ceplus/z3/pkg/util/poly"
)

func Test_Arith_01(t *testing.T) {
	p := NewProblem()
	x, y := p.NewVar(true), p.NewVar(true)
	// x + y = 3, x - y = 1
	p.Add(NewConstraint(lin(0, 1, x, 1, y), Eq, lin(3)))
	p.Add(NewConstraint(lin(0, 1, x, -1, y), Eq, lin(1)))
	//
	assignment := checkSat(t, p)
	checkValue(t, assignment, x, 2)
	checkValue(t, assignment, y, 1)
}

func Test_Arith_02(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(true)
	// 2x = 1 has no integer solution
	p.Add(NewConstraint(lin(0, 2, x), Eq, lin(1)))
	checkUnsat(t, p)
}

func Test_Arith_03(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(false)
	// 2x = 1 over the reals
	p.Add(NewConstraint(lin(0, 2, x), Eq, lin(1)))
	//
	assignment := checkSat(t, p)
	//
	if assignment.Get(x).Cmp(big.NewRat(1, 2)) != 0 {
		t.Errorf("expected x=1/2, got %s", assignment.Get(x).RatString())
	}
}

func Test_Arith_04(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(true)
	// x >= 1, x <= 0
	p.Add(NewConstraint(lin(1), Le, lin(0, 1, x)))
	p.Add(NewConstraint(lin(0, 1, x), Le, lin(0)))
	checkUnsat(t, p)
}

func Test_Arith_05(t *testing.T) {
	p := NewProblem()
	x, y := p.NewVar(true), p.NewVar(true)
	// 3x + 5y = 1, 0 <= x <= 10
	p.Add(NewConstraint(lin(0, 3, x, 5, y), Eq, lin(1)))
	p.Add(NewConstraint(lin(0), Le, lin(0, 1, x)))
	p.Add(NewConstraint(lin(0, 1, x), Le, lin(10)))
	checkSat(t, p)
}

func Test_Arith_06(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(true)
	// 1 <= 3x <= 2
	p.Add(NewConstraint(lin(1), Le, lin(0, 3, x)))
	p.Add(NewConstraint(lin(0, 3, x), Le, lin(2)))
	checkUnsat(t, p)
}

func Test_Arith_07(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(true)
	// x != 0, 0 <= x <= 0
	p.Add(NewConstraint(lin(0, 1, x), Ne, lin(0)))
	p.Add(NewConstraint(lin(0), Le, lin(0, 1, x)))
	p.Add(NewConstraint(lin(0, 1, x), Le, lin(0)))
	checkUnsat(t, p)
}

func Test_Arith_08(t *testing.T) {
	p := NewProblem()
	x, y := p.NewVar(true), p.NewVar(true)
	// x != y, x != 0
	p.Add(NewConstraint(lin(0, 1, x), Ne, lin(0, 1, y)))
	p.Add(NewConstraint(lin(0, 1, x), Ne, lin(0)))
	checkSat(t, p)
}

func Test_Arith_09(t *testing.T) {
	p := NewProblem()
	x := p.NewVar(false)
	// 1 < x < 2 over the reals
	p.Add(NewConstraint(lin(1), Lt, lin(0, 1, x)))
	p.Add(NewConstraint(lin(0, 1, x), Lt, lin(2)))
	checkSat(t, p)
}

func Test_Arith_10(t *testing.T) {
	p := NewProblem()
	x, y := p.NewVar(true), p.NewVar(true)
	// Real solutions exist, but no integer ones:
	// 27 <= 11x + 13y <= 45, -10 <= 7x - 9y <= 4
	p.Add(NewConstraint(lin(27), Le, lin(0, 11, x, 13, y)))
	p.Add(NewConstraint(lin(0, 11, x, 13, y), Le, lin(45)))
	p.Add(NewConstraint(lin(-10), Le, lin(0, 7, x, -9, y)))
	p.Add(NewConstraint(lin(0, 7, x, -9, y), Le, lin(4)))
	checkUnsat(t, p)
}

func Test_Arith_11(t *testing.T) {
	p := NewProblem()
	x, r := p.NewVar(true), p.NewVar(false)
	// 2r = x, 0 < r < 1
	p.Add(NewConstraint(lin(0, 2, r), Eq, lin(0, 1, x)))
	p.Add(NewConstraint(lin(0), Lt, lin(0, 1, r)))
	p.Add(NewConstraint(lin(0, 1, r), Lt, lin(1)))
	//
	assignment := checkSat(t, p)
	checkValue(t, assignment, x, 1)
}

func Test_Arith_12(t *testing.T) {
	p := NewProblem()
	x, y, z := p.NewVar(true), p.NewVar(true), p.NewVar(true)
	// 6x + 10y + 15z = 7, with x, y, z within [-5, 5]
	p.Add(NewConstraint(lin(0, 6, x, 10, y, 15, z), Eq, lin(7)))
	//
	for _, v := range []Var{x, y, z} {
		p.Add(NewConstraint(lin(-5), Le, lin(0, 1, v)))
		p.Add(NewConstraint(lin(0, 1, v), Le, lin(5)))
	}
	//
	checkSat(t, p)
}

// ============================================================================
// Helpers
// ============================================================================

// lin constructs the sum k + c₁·v₁ + ... from a constant followed by
// coefficient / variable pairs.
func lin(k int64, pairs ...any) Sum {
	s := poly.ConstInt64[Var](k)
	//
	for i := 0; i < len(pairs); i += 2 {
		c := int64(pairs[i].(int))
		s = s.Add(poly.Var(pairs[i+1].(Var)).Scale(big.NewRat(c, 1)))
	}
	//
	return s
}

func checkSat(t *testing.T, p *Problem) Assignment {
	t.Helper()
	//
	res, assignment := p.Solve(DefaultLimits)
	if res != Sat {
		t.Fatalf("expected sat, got %s", res)
	}
	//
	for _, c := range p.Constraints() {
		if !c.Holds(assignment) {
			t.Errorf("assignment %s violates %s", assignment, c)
		}
	}
	//
	for v, val := range assignment {
		if p.IsInteger(v) && !val.IsInt() {
			t.Errorf("integer variable v%d assigned %s", v, val.RatString())
		}
	}
	//
	return assignment
}

func checkUnsat(t *testing.T, p *Problem) {
	t.Helper()
	//
	if res, assignment := p.Solve(DefaultLimits); res != Unsat {
		t.Errorf("expected unsat, got %s (%s)", res, assignment)
	}
}

func checkValue(t *testing.T, assignment Assignment, v Var, expected int64) {
	t.Helper()
	//
	if assignment.Get(v).Cmp(big.NewRat(expected, 1)) != 0 {
		t.Errorf("expected v%d=%d, got %s", v, expected, assignment.Get(v).RatString())
	}
}
