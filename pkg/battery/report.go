// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package battery

import (
	"fmt"
	"io"

	"github.com/r1ceplus/z3/pkg/util/termio"
)

// Report summarises the results of running a battery.
type Report struct {
	Name    string
	Results []Result
}

// Count the results in a given state.
func (p *Report) Count(state State) int {
	count := 0
	//
	for _, r := range p.Results {
		if r.State == state {
			count++
		}
	}
	//
	return count
}

// Print this report as a table with one row per case, followed by a one line
// summary.
func (p *Report) Print(w io.Writer, ansi bool) {
	tbl := termio.NewTablePrinter(3, uint(len(p.Results))+1)
	tbl.SetRow(0, "case", "branches", "status")
	//
	for i, r := range p.Results {
		var (
			row      = uint(i) + 1
			branches = "-"
		)
		//
		if r.Solution != nil {
			branches = fmt.Sprintf("%d", r.Solution.Len())
		}
		//
		tbl.SetRow(row, r.Case.Name, branches, r.State.String())
		//
		if escape, ok := stateEscape(r.State); ok {
			tbl.SetEscape(2, row, escape)
		}
	}
	//
	tbl.SetMaxWidth(0, 32)
	tbl.AnsiEscapes(ansi)
	tbl.Print(w)
	//
	fmt.Fprintf(w, "%s: %d cases, %d passed, %d inconclusive, %d no solution, %d malformed, %d unsound\n",
		p.Name, len(p.Results), p.Count(Passed), p.Count(Inconclusive), p.Count(Failed), p.Count(Malformed),
		p.Count(Aborted))
}

func stateEscape(state State) (termio.AnsiEscape, bool) {
	switch state {
	case Passed:
		return termio.NewAnsiEscape().FgColour(termio.TERM_GREEN), true
	case Inconclusive:
		return termio.NewAnsiEscape().FgColour(termio.TERM_YELLOW), true
	case Failed:
		return termio.NewAnsiEscape().FgColour(termio.TERM_CYAN), true
	case Aborted:
		return termio.BoldAnsiEscape().FgColour(termio.TERM_RED), true
	case Malformed:
		return termio.NewAnsiEscape().FgColour(termio.TERM_RED), true
	default:
		return termio.AnsiEscape{}, false
	}
}
