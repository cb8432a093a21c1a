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
package cmd

import (
	"fmt"
	"os"

	"github.com/r1ceplus/z3/pkg/harness"
	"github.com/r1ceplus/z3/pkg/oracle"
	"github.com/spf13/cobra"
)

// satCmd represents the sat command
var satCmd = &cobra.Command{
	Use:   "sat [flags] formula",
	Short: "Check the satisfiability of a formula using the oracle.",
	Long: `Check the satisfiability of a formula using the oracle, printing a model
when one is found.  A leading existential quantifier is permitted, and its
variables appear in the model.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(2)
		}
		//
		var (
			h      = harness.New()
			config = getConfig(cmd, false)
			solver = oracle.NewSolver(h.Arena(), config.Oracle)
		)
		//
		problem, err := h.Parse(args[0])
		if err != nil {
			exitWithError(err)
		}
		//
		outcome := solver.Check(problem.Matrix)
		fmt.Println(outcome.Result)
		//
		if outcome.Result == oracle.Sat {
			fmt.Println(outcome.Model)
		}
	},
}

func init() {
	rootCmd.AddCommand(satCmd)
}
