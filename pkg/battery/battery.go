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
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultBattery []byte

// Battery is an ordered list of test cases, run against a shared vocabulary.
type Battery struct {
	Name string `yaml:"name"`
	// Vocabulary declarations, replacing the default vocabulary when given.
	Prelude string `yaml:"prelude,omitempty"`
	Cases   []Case `yaml:"cases"`
}

// Case is a single formula from which variables are to be eliminated.
type Case struct {
	Name    string `yaml:"name"`
	Formula string `yaml:"formula"`
	// Variables to eliminate, ignored when the formula begins with an
	// existential quantifier.
	Vars []string `yaml:"vars,omitempty"`
}

// Default returns the builtin battery.
func Default() *Battery {
	b, err := Parse(defaultBattery)
	if err != nil {
		panic(err.Error())
	}
	//
	return b
}

// Read a battery from a YAML file.
func Read(filename string) (*Battery, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	b, err := Parse(bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	//
	return b, nil
}

// Parse a battery from YAML.
func Parse(bytes []byte) (*Battery, error) {
	var b Battery
	//
	if err := yaml.Unmarshal(bytes, &b); err != nil {
		return nil, err
	} else if len(b.Cases) == 0 {
		return nil, errors.New("battery has no cases")
	}
	//
	for i := range b.Cases {
		if b.Cases[i].Formula == "" {
			return nil, fmt.Errorf("case %d has no formula", i+1)
		} else if b.Cases[i].Name == "" {
			b.Cases[i].Name = fmt.Sprintf("case-%d", i+1)
		}
	}
	//
	return &b, nil
}
