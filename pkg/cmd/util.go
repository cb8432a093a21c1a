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
	"github.com/r1ceplus/z3/pkg/harness"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned flag, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringSlice gets an expected string list flag, or exits if an error
// arises.
func GetStringSlice(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringSlice(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Construct the configuration for running a battery from the flags common to
// all commands.
func getConfig(cmd *cobra.Command, quiet bool) battery.Config {
	config := battery.DefaultConfig
	config.Oracle.MaxRounds = GetUint(cmd, "max-rounds")
	config.Elimination.MaxOffset = GetUint(cmd, "max-offset")
	config.Elimination.MaxBranches = GetUint(cmd, "max-branches")
	config.Quiet = quiet
	//
	return config
}

// Report an error which prevents a command from running, and exit.  Malformed
// formulas are reported with highlighting.
func exitWithError(err error) {
	var herr *harness.Error
	//
	if errors.As(err, &herr) {
		for i := range herr.Errors {
			herr.Errors[i].Print(os.Stdout)
		}
	} else {
		fmt.Println(err)
	}
	//
	os.Exit(2)
}
