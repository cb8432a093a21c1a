package termio

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Table_01(t *testing.T) {
	var (
		tbl     = NewTablePrinter(2, 2)
		builder strings.Builder
	)
	//
	tbl.SetRow(0, "passed", "12")
	tbl.SetRow(1, "no solution", "3")
	tbl.SetEscape(1, 0, NewAnsiEscape().FgColour(TERM_GREEN))
	tbl.AnsiEscapes(false)
	tbl.Print(&builder)
	//
	expected := "      passed | 12 |\n no solution |  3 |\n"
	if diff := cmp.Diff(expected, builder.String()); diff != "" {
		t.Errorf("unexpected table (-want +got):\n%s", diff)
	}
}

func Test_Table_02(t *testing.T) {
	var (
		tbl     = NewTablePrinter(1, 1)
		builder strings.Builder
	)
	//
	tbl.Set(0, 0, "unsound")
	tbl.SetEscape(0, 0, BoldAnsiEscape().FgColour(TERM_RED))
	tbl.Print(&builder)
	//
	if expected := "\033[1;31m unsound\033[0m |\n"; builder.String() != expected {
		t.Errorf("expected %q, got %q", expected, builder.String())
	}
}

func Test_Table_03(t *testing.T) {
	var (
		tbl     = NewTablePrinter(1, 1)
		builder strings.Builder
	)
	//
	tbl.Set(0, 0, "inconclusive")
	tbl.SetMaxWidth(0, 6)
	tbl.Print(&builder)
	//
	if expected := " inco.. |\n"; builder.String() != expected {
		t.Errorf("expected %q, got %q", expected, builder.String())
	}
}
