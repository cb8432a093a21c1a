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
	"github.com/r1ceplus/z3/pkg/util/termio"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [battery_file...]",
	Short: "Run one or more batteries of elimination problems.",
	Long: `Run one or more batteries of elimination problems, validating every
solution produced.  Batteries are given as YAML files and, when none are
given, the builtin battery is run.  The run stops at the first unsound
solution.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			batteries []*battery.Battery
			quiet     = GetFlag(cmd, "quiet")
			ansi      = GetFlag(cmd, "ansi-escapes")
			config    = getConfig(cmd, quiet)
		)
		//
		if !cmd.Flags().Changed("ansi-escapes") {
			ansi = termio.IsTerminal(os.Stdout)
		}
		//
		if len(args) == 0 {
			batteries = append(batteries, battery.Default())
		}
		//
		for _, filename := range args {
			b, err := battery.Read(filename)
			if err != nil {
				exitWithError(err)
			}
			//
			batteries = append(batteries, b)
		}
		//
		for _, b := range batteries {
			runBattery(b, config, ansi)
		}
	},
}

func runBattery(b *battery.Battery, config battery.Config, ansi bool) {
	runner, err := battery.Setup(b, config, os.Stdout)
	if err != nil {
		exitWithError(err)
	}
	//
	log.Debugf("running battery %s (%d cases)", b.Name, len(b.Cases))
	//
	report, err := runner.Run(b)
	//
	fmt.Println()
	report.Print(os.Stdout, ansi)
	//
	var uerr *battery.UnsoundError
	//
	if errors.As(err, &uerr) {
		fmt.Println(uerr)
		os.Exit(1)
	} else if err != nil {
		exitWithError(err)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("quiet", "q", false, "suppress the echo of each case")
	runCmd.Flags().Bool("ansi-escapes", true, "colour the summary table (default when output is a terminal)")
}
