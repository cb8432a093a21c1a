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
package termio

import (
	"strconv"
	"strings"
)

// Foreground colours, as offsets from the first colour code.
const (
	TERM_RED    = uint(1)
	TERM_GREEN  = uint(2)
	TERM_YELLOW = uint(3)
	TERM_CYAN   = uint(6)
)

// AnsiEscape is a "select graphic rendition" sequence, built up from a list of
// parameter codes.
type AnsiEscape struct {
	codes []uint
}

// NewAnsiEscape constructs an escape with no parameters.
func NewAnsiEscape() AnsiEscape {
	return AnsiEscape{nil}
}

// ResetAnsiEscape constructs an escape restoring the default rendition.
func ResetAnsiEscape() AnsiEscape {
	return AnsiEscape{[]uint{0}}
}

// BoldAnsiEscape constructs an escape for bold text.
func BoldAnsiEscape() AnsiEscape {
	return AnsiEscape{[]uint{1}}
}

// FgColour adds a foreground colour to this escape.
func (p AnsiEscape) FgColour(col uint) AnsiEscape {
	codes := make([]uint, len(p.codes), len(p.codes)+1)
	copy(codes, p.codes)
	//
	return AnsiEscape{append(codes, 30+col)}
}

// Build the escape sequence.
func (p AnsiEscape) Build() string {
	var builder strings.Builder
	//
	builder.WriteString("\033[")
	//
	for i, c := range p.codes {
		if i != 0 {
			builder.WriteString(";")
		}
		//
		builder.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	//
	builder.WriteString("m")
	//
	return builder.String()
}
