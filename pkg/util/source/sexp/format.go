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
package sexp

import (
	"math"
	"strings"
)

// FormattingChunk represents a chunk of a lisp expression which is to be
// indented at a given priority level.
type FormattingChunk struct {
	Priority uint
	Indent   uint
	Contents SExp
}

// FormattingRule provides a generic mechanism for writing custom formatting
// rules.  Whenever a list is encountered during formatting, the formatting
// rules will be given the opportunity to direct formatting of the list.  A
// formatting rule should return nil for the formatting chunks when it doesn't
// handle the given list.
type FormattingRule interface {
	Split(*List) ([]FormattingChunk, uint)
}

// Formatter encapsulates and applies a given set of rules.
type Formatter struct {
	// Maximum desired width
	maxWidth uint
	// Rules to be used for formatting
	rules []FormattingRule
}

// NewFormatter constructs a new formatter which aims to fit its output within a
// given width.
func NewFormatter(width uint) *Formatter {
	return &Formatter{width, nil}
}

// Add a new formatting rule to this formatter.
func (p *Formatter) Add(rule FormattingRule) *Formatter {
	p.rules = append(p.rules, rule)
	return p
}

// Format a given S-Expression using the rules embedded within this formatter.
// The result has no trailing newline.
func (p *Formatter) Format(sexp SExp) string {
	var text formattedText
	// Keep raising the priority until things fit (or we give up).
	for priority := uint(0); ; priority++ {
		text = formattedText{}
		formatInner(priority, p.maxWidth, false, sexp, p.rules, &text)
		//
		if text.maxWidth() <= p.maxWidth || priority >= 10 {
			return text.String()
		}
	}
}

func formatInner(priority, maxWidth uint, newline bool, sexp SExp, rules []FormattingRule, text *formattedText) {
	switch sexp := sexp.(type) {
	case *Symbol:
		text.writeString(sexp.String(true))
	case *List:
		// Short lists which fit are never split
		if text.lineWidth()+uint(len(sexp.String(true))) <= maxWidth {
			text.writeString(sexp.String(true))
			return
		}
		//
		for _, rule := range rules {
			if chunks, indent := rule.Split(sexp); chunks != nil {
				formatWith(priority, maxWidth, newline, chunks, indent, rules, text)
				return
			}
		}
		// default rule
		text.writeString("(")
		//
		for i := 0; i < sexp.Len(); i++ {
			if i != 0 {
				text.writeString(" ")
			}

			formatInner(priority, maxWidth, false, sexp.Get(i), rules, text)
		}
		//
		text.writeString(")")
	default:
		panic("unreachable")
	}
}

func formatWith(priority, maxWidth uint, newline bool, chunks []FormattingChunk, indent uint,
	rules []FormattingRule, text *formattedText) {
	//
	if indent != math.MaxUint && !newline {
		text.indent(int(indent))
		text.newLine()
	}
	//
	text.writeString("(")
	//
	for i, chunk := range chunks {
		var nl bool
		//
		if chunk.Priority <= priority {
			text.indent(int(chunk.Indent))
			text.newLine()
			// Request newline
			nl = true
		} else if i != 0 {
			text.writeString(" ")
		}
		//
		formatInner(priority, maxWidth, nl, chunk.Contents, rules, text)
		//
		if chunk.Priority <= priority {
			text.indent(-int(chunk.Indent))
		}
	}
	//
	text.writeString(")")
	//
	if indent != math.MaxUint && !newline {
		text.indent(-int(indent))
	}
}

// SFormatter indents a list by keeping its head and first argument on the
// current line, thusly:
//
//	(exists ((x Int))
//	  body)
//
// This suits binders and definitions.
type SFormatter struct {
	// Head symbol to match
	Head string
	// Priority to give for matching.
	Priority uint
}

// Split a list using the SFormatter where the list matches.
func (p *SFormatter) Split(list *List) ([]FormattingChunk, uint) {
	if list.Head() != p.Head {
		return nil, 0
	}
	//
	chunks := make([]FormattingChunk, list.Len())
	//
	for i := range chunks {
		chunks[i].Contents = list.Get(i)
		//
		if i <= 1 {
			chunks[i].Priority = math.MaxUint
		} else {
			chunks[i].Priority = p.Priority
			chunks[i].Indent = 1
		}
	}
	//
	return chunks, math.MaxUint
}

// IFormatter places every argument of a matching list on its own line, thusly:
//
//	(and
//	  (<= x y)
//	  (= (mod x 2) 0))
//
// This suits connectives.
type IFormatter struct {
	// Head symbol to match
	Head string
	// Priority to give for matching.
	Priority uint
}

// Split a list using the IFormatter where the list matches.
func (p *IFormatter) Split(list *List) ([]FormattingChunk, uint) {
	if list.Head() != p.Head {
		return nil, 0
	}
	//
	chunks := make([]FormattingChunk, list.Len())
	//
	for i := range chunks {
		chunks[i].Contents = list.Get(i)
		//
		if i == 0 {
			chunks[i].Priority = math.MaxUint
		} else {
			chunks[i].Priority = p.Priority
			chunks[i].Indent = 1
		}
	}
	//
	return chunks, math.MaxUint
}

// formattedText encapsulates the notion of formatted chunk of text.
type formattedText struct {
	// Current indent level
	level int
	// Lines being written
	lines []string
}

func (p *formattedText) String() string {
	return strings.Join(p.lines, "\n")
}

func (p *formattedText) indent(delta int) {
	p.level += delta
}

func (p *formattedText) newLine() {
	p.lines = append(p.lines, strings.Repeat("  ", max(0, p.level)))
}

func (p *formattedText) lineWidth() uint {
	if n := len(p.lines); n > 0 {
		return uint(len(p.lines[n-1]))
	}
	//
	return 0
}

func (p *formattedText) maxWidth() uint {
	width := 0
	//
	for _, l := range p.lines {
		width = max(width, len(l))
	}
	//
	return uint(width)
}

func (p *formattedText) writeString(str string) {
	if n := len(p.lines); n == 0 {
		p.lines = append(p.lines, str)
	} else {
		p.lines[n-1] += str
	}
}
