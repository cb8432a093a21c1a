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
	"errors"
	"fmt"
	"os"

	"github.com/r1ceplus/z3/pkg/battery"
	"github.com/spf13/cobra"
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve [flags] formula",
	Short: "Eliminate variables from a single formula.",
	Long: `Eliminate variables from a single formula, and validate the solution
produced.  Variables are either bound by a leading existential quantifier, or
are named using --vars.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(2)
		}
		//
		var (
			c = battery.Case{Name: "formula", Formula: args[0], Vars: GetStringSlice(cmd, "vars")}
			b = &battery.Battery{Name: "solve", Cases: []battery.Case{c}}
		)
		//
		runner, err := battery.Setup(b, getConfig(cmd, false), os.Stdout)
		if err != nil {
			exitWithError(err)
		}
		//
		res, err := runner.RunCase(c)
		//
		var uerr *battery.UnsoundError
		//
		switch {
		case errors.As(err, &uerr):
			os.Exit(1)
		case res.State == battery.Malformed:
			exitWithError(res.Err)
		default:
			fmt.Println(res.State)
		}
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringSlice("vars", []string{"x"}, "variables to eliminate")
}
