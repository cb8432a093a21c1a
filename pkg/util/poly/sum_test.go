package poly

import (
	"fmt"
	"math/big"
	"testing"
)

func Test_Sum_01(t *testing.T) {
	// x + y - x = y
	x, y := Var[int](0), Var[int](1)
	checkSum(t, x.Add(y).Sub(x), "v1")
}

func Test_Sum_02(t *testing.T) {
	// 2x + 3 + (-2x) = 3
	x := Var[int](0).Scale(big.NewRat(2, 1)).AddConst(big.NewRat(3, 1))
	checkSum(t, x.Add(Var[int](0).Scale(big.NewRat(-2, 1))), "3")
}

func Test_Sum_03(t *testing.T) {
	// (x + 1/2y) * 2 = 2x + y
	s := Var[int](0).Add(Var[int](1).Scale(big.NewRat(1, 2))).Scale(big.NewRat(2, 1))
	checkSum(t, s, "2*v0 + v1")
}

func Test_Sum_04(t *testing.T) {
	// (x + y)[x := y + 1] = 2y + 1
	s := Var[int](0).Add(Var[int](1))
	r := s.Substitute(0, Var[int](1).AddConst(big.NewRat(1, 1)))
	checkSum(t, r, "2*v1 + 1")
}

func Test_Sum_05(t *testing.T) {
	s := Var[int](2).Scale(big.NewRat(1, 3)).Add(Var[int](1).Scale(big.NewRat(1, 4))).AddConst(big.NewRat(1, 6))
	//
	if d := s.Denominators(); d.Cmp(big.NewInt(12)) != 0 {
		t.Errorf("expected 12, got %s", d)
	}
}

func Test_Sum_06(t *testing.T) {
	s := Var[int](0).Scale(big.NewRat(4, 1)).Add(Var[int](1).Scale(big.NewRat(-6, 1)))
	//
	if g := s.CoeffGcd(); g.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("expected 2, got %s", g)
	}
}

func Test_Sum_07(t *testing.T) {
	s := Var[int](0).Scale(big.NewRat(3, 1)).Sub(Var[int](1)).AddConst(big.NewRat(5, 1))
	v := s.Eval(func(v int) *big.Rat { return big.NewRat(int64(v+2), 1) })
	// 3*2 - 3 + 5
	if v.Cmp(big.NewRat(8, 1)) != 0 {
		t.Errorf("expected 8, got %s", v.RatString())
	}
}

func Test_Sum_08(t *testing.T) {
	var zero Sum[int]
	//
	if !zero.IsZero() || !zero.Add(zero).IsZero() {
		t.Errorf("expected zero")
	}
	//
	if !Var[int](0).Sub(Var[int](0)).Equal(zero) {
		t.Errorf("expected x - x = 0")
	}
}

func Test_Lcm_01(t *testing.T) {
	if l := Lcm(big.NewInt(4), big.NewInt(6)); l.Cmp(big.NewInt(12)) != 0 {
		t.Errorf("expected 12, got %s", l)
	}
}

func checkSum(t *testing.T, s Sum[int], expected string) {
	t.Helper()
	//
	if actual := s.String(func(v int) string { return fmt.Sprintf("v%d", v) }); actual != expected {
		t.Errorf("expected %s, got %s", expected, actual)
	}
}
